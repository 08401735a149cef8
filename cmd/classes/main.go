package main

import (
	"fitbook/internal/classes/handler"
	"fitbook/internal/classes/repository"
	"fitbook/internal/classes/service"
	"fitbook/internal/classes/validator"
	"fitbook/pkg/app"
	"fitbook/pkg/config"
	mongodb "fitbook/pkg/db/mongo"
	"fitbook/pkg/events"
	"fitbook/pkg/kafka"
	kafkaconfig "fitbook/pkg/kafka/config"
)

const (
	serviceName = "classes-service"
	eventsTopic = "fitbook.reservations"
)

func main() {
	cfg := config.Load(serviceName)
	cfg.SetMongo()

	emitter := newEmitter(cfg)

	registrationRepo := repository.NewMongoRegistrationRepository(cfg)
	scheduleRepo := repository.NewMongoScheduleRepository(cfg)
	locks := mongodb.NewLockManager(cfg.Client.Mongo.Database(cfg.MongoDatabaseName))

	registrationValidator := validator.NewRegistrationValidator(cfg.Log)
	registrationService := service.NewRegistrationService(
		registrationRepo,
		scheduleRepo,
		locks,
		registrationValidator,
		emitter.emitter,
		cfg,
	)
	registrationHandler := handler.NewRegistrationHandler(registrationService, cfg.Log)

	application := app.NewApplication(cfg)
	application.OnShutdown(emitter.close)
	application.SetApp(registrationHandler)
	application.Run()
}

// eventPipeline bundles the emitter with its producer so shutdown can flush
// the writer when a broker is configured.
type eventPipeline struct {
	emitter events.Emitter
	close   func()
}

func newEmitter(cfg *config.Config) *eventPipeline {
	kafkaCfg := kafkaconfig.Load()
	if !kafkaCfg.Enabled() {
		cfg.Log.Info("No Kafka brokers configured, reservation events disabled")
		return &eventPipeline{emitter: events.NoopEmitter{}, close: func() {}}
	}

	producer, err := kafka.NewProducer(kafkaCfg, eventsTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}

	return &eventPipeline{
		emitter: events.NewKafkaEmitter(producer, cfg.Log, serviceName),
		close: func() {
			if err := producer.Close(); err != nil {
				cfg.Log.Error("Failed to close Kafka producer", "error", err)
			}
		},
	}
}
