package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"arcade/events"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// SubjectPrefix is prepended to the event type to build the NATS subject
const SubjectPrefix = "arcade.events."

// EventEnvelope wraps every event published to NATS
type EventEnvelope struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// SubjectFor maps an event type to its NATS subject
func SubjectFor(eventType events.EventType) string {
	return SubjectPrefix + string(eventType)
}

// AllSubjects returns every subject the forwarder publishes to
func AllSubjects() []string {
	subjects := make([]string, 0, len(events.AllEventTypes))
	for _, t := range events.AllEventTypes {
		subjects = append(subjects, SubjectFor(t))
	}
	return subjects
}

// NATSEventForwarder copies committed bus events to the message bus
type NATSEventForwarder struct {
	publisher MessagePublisher
	timeout   time.Duration
	now       func() time.Time
}

// NewNATSEventForwarder creates a forwarder over publisher
func NewNATSEventForwarder(publisher MessagePublisher) *NATSEventForwarder {
	return &NATSEventForwarder{
		publisher: publisher,
		timeout:   5 * time.Second,
		now:       time.Now,
	}
}

// Register subscribes the forwarder to every event type on bus
func (f *NATSEventForwarder) Register(bus *events.Bus) {
	bus.SubscribeAll(func(ctx context.Context, event events.Event) {
		if err := f.Forward(ctx, event); err != nil {
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"error":     err,
			}).Error("Failed to forward event to NATS")
		}
	})
}

// Forward publishes one event wrapped in an envelope
func (f *NATSEventForwarder) Forward(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := EventEnvelope{
		ID:        uuid.New().String(),
		Type:      string(event.Type()),
		Timestamp: f.now().UTC(),
		Payload:   payload,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	subject := SubjectFor(event.Type())
	if err := f.publisher.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelope.ID,
		"subject":   subject,
	}).Debug("Forwarded event to NATS")
	return nil
}
