package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is a published notification. Events are immutable once created.
type Event struct {
	// Topic is the hierarchical event name.
	Topic Topic

	// Payload carries the topic-specific data.
	Payload any

	// Metadata holds standard event information.
	Metadata Metadata
}

// Metadata is attached to every event.
type Metadata struct {
	// ID uniquely identifies this event instance.
	ID string

	// Timestamp is when the event was created.
	Timestamp time.Time

	// Source names the component that published the event.
	Source string
}

// NewEvent creates an event with fresh metadata.
func NewEvent(t Topic, payload any, source string) Event {
	return Event{
		Topic:   t,
		Payload: payload,
		Metadata: Metadata{
			ID:        uuid.New().String(),
			Timestamp: time.Now(),
			Source:    source,
		},
	}
}
