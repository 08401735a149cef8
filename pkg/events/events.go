// Package events publishes reservation lifecycle events after a workflow
// commits. Emission is best-effort: a failed publish is logged, never
// propagated, because the reservation itself is already durable.
package events

import (
	"context"
	"time"

	"fitbook/pkg/kafka"
	"fitbook/pkg/logger"
)

const (
	TypeClassRegistered  = "class.registration.created"
	TypeClassCanceled    = "class.registration.canceled"
	TypeSessionRequested = "trainer.session.requested"
	TypeSessionConfirmed = "trainer.session.confirmed"
	TypeSessionRejected  = "trainer.session.rejected"
)

// ReservationEvent is the payload shared by all lifecycle events.
type ReservationEvent struct {
	ReservationID string    `json:"reservation_id"`
	MemberID      string    `json:"member_id"`
	ResourceID    string    `json:"resource_id"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type Emitter interface {
	Emit(ctx context.Context, eventType string, event ReservationEvent)
}

type kafkaEmitter struct {
	producer *kafka.Producer
	log      *logger.Logger
	source   string
}

func NewKafkaEmitter(producer *kafka.Producer, log *logger.Logger, source string) Emitter {
	return &kafkaEmitter{
		producer: producer,
		log:      log,
		source:   source,
	}
}

func (e *kafkaEmitter) Emit(ctx context.Context, eventType string, event ReservationEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	msg := kafka.NewMessage().
		WithKey(event.ReservationID).
		WithValue(event).
		WithEventType(eventType).
		WithSource(e.source).
		Build()

	if err := e.producer.Publish(ctx, msg); err != nil {
		e.log.Warn("Failed to publish reservation event",
			"event_type", eventType,
			"reservation_id", event.ReservationID,
			"error", err,
		)
	}
}

// NoopEmitter is used when no broker is configured and in tests.
type NoopEmitter struct{}

func (NoopEmitter) Emit(ctx context.Context, eventType string, event ReservationEvent) {}
