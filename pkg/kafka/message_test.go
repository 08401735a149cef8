package kafka

import (
	"testing"
)

type testPayload struct {
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
}

func TestMessageBuilder(t *testing.T) {
	payload := testPayload{ReservationID: "abc", Status: "pending"}

	msg := NewMessage().
		WithKey("abc").
		WithValue(payload).
		WithEventType("trainer.session.requested").
		WithSource("trainers-service").
		Build()

	if msg.Key != "abc" {
		t.Errorf("expected key abc, got %s", msg.Key)
	}

	eventType, ok := msg.GetHeader(HeaderEventType)
	if !ok || eventType != "trainer.session.requested" {
		t.Errorf("expected event-type header, got %q (present=%v)", eventType, ok)
	}
	source, ok := msg.GetHeader(HeaderSource)
	if !ok || source != "trainers-service" {
		t.Errorf("expected source header, got %q (present=%v)", source, ok)
	}
	if eventID, ok := msg.GetHeader(HeaderEventID); !ok || eventID == "" {
		t.Error("expected a generated event-id header")
	}
	if timestamp, ok := msg.GetHeader(HeaderTimestamp); !ok || timestamp == "" {
		t.Error("expected a timestamp header")
	}

	var decoded testPayload
	if err := msg.DecodeValue(&decoded); err != nil {
		t.Fatalf("failed to decode value: %v", err)
	}
	if decoded != payload {
		t.Errorf("round-tripped payload mismatch: %+v", decoded)
	}
}

func TestMessageBuilder_UnencodableValue(t *testing.T) {
	msg := NewMessage().
		WithKey("abc").
		WithValue(func() {}). // functions cannot be JSON-encoded
		Build()

	if len(msg.Value) != 0 {
		t.Errorf("expected empty value for unencodable payload, got %d bytes", len(msg.Value))
	}
}
