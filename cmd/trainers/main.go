package main

import (
	"fitbook/internal/trainers/handler"
	"fitbook/internal/trainers/repository"
	"fitbook/internal/trainers/service"
	"fitbook/internal/trainers/validator"
	"fitbook/pkg/app"
	"fitbook/pkg/config"
	mongodb "fitbook/pkg/db/mongo"
	"fitbook/pkg/events"
	"fitbook/pkg/kafka"
	kafkaconfig "fitbook/pkg/kafka/config"
)

const (
	serviceName = "trainers-service"
	eventsTopic = "fitbook.reservations"
)

func main() {
	cfg := config.Load(serviceName)
	cfg.SetMongo()

	emitter := newEmitter(cfg)

	sessionRepo := repository.NewMongoSessionRepository(cfg)
	availabilityRepo := repository.NewMongoAvailabilityRepository(cfg)
	locks := mongodb.NewLockManager(cfg.Client.Mongo.Database(cfg.MongoDatabaseName))

	sessionValidator := validator.NewSessionValidator(cfg.Log)
	sessionService := service.NewSessionService(
		sessionRepo,
		availabilityRepo,
		locks,
		sessionValidator,
		emitter.emitter,
		cfg,
	)
	sessionHandler := handler.NewSessionHandler(sessionService, cfg.Log)

	application := app.NewApplication(cfg)
	application.OnShutdown(emitter.close)
	application.SetApp(sessionHandler)
	application.Run()
}

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
