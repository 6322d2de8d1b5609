package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// MessagePublisher sends raw bytes to a subject
type MessagePublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Envelope wraps every event forwarded off-process
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     EventType       `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// Forwarder relays bus events to a message broker
type Forwarder struct {
	publisher MessagePublisher
	source    string
	now       func() time.Time
}

// NewForwarder creates a forwarder that tags envelopes with source
func NewForwarder(publisher MessagePublisher, source string) *Forwarder {
	return &Forwarder{
		publisher: publisher,
		source:    source,
		now:       time.Now,
	}
}

// Attach subscribes the forwarder to every ledger event type on bus
func (f *Forwarder) Attach(bus *Bus) {
	for _, eventType := range AllEventTypes {
		bus.Subscribe(eventType, f.Handle)
	}
}

// Subject maps an event type to its broker subject
func Subject(eventType EventType) string {
	return SubjectPrefix + "." + string(eventType)
}

// Handle forwards one event. Failures are logged; the ledger never depends on delivery.
func (f *Forwarder) Handle(ctx context.Context, event Event) {
	if err := f.forward(ctx, event); err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"error":     err,
		}).Error("Failed to forward event")
	}
}

func (f *Forwarder) forward(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := Envelope{
		EventID:       uuid.New().String(),
		EventType:     event.Type(),
		Timestamp:     f.now().UTC(),
		SourceService: f.source,
		Payload:       payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	subject := Subject(event.Type())
	if err := f.publisher.Publish(ctx, subject, data); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Forwarded event")
	return nil
}
