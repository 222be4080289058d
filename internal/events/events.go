// Package events publishes book lifecycle events so other services can react
// to catalogue changes without polling the API.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	TypeBookCreated = "book.created"
	TypeBookUpdated = "book.updated"
	TypeBookDeleted = "book.deleted"

	eventVersion = "1.0.0"
)

// Event is the JSON envelope written to the broker.
type Event struct {
	EventID      string `json:"event_id"`
	EventType    string `json:"event_type"`
	EventVersion string `json:"event_version"`
	Timestamp    string `json:"timestamp"`
	RequestID    string `json:"request_id,omitempty"`
	Payload      any    `json:"payload"`
}

// New builds an event of the given type with a fresh ID and UTC timestamp.
func New(eventType, requestID string, payload any) Event {
	return Event{
		EventID:      uuid.New().String(),
		EventType:    eventType,
		EventVersion: eventVersion,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		RequestID:    requestID,
		Payload:      payload,
	}
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NopPublisher discards every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
