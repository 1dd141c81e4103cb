package interfaces

import (
	"context"
)

// Event represents a domain event.
type Event interface {
	// EventType returns the type of the event, e.g. "profile.created"
	EventType() string

	// Timestamp returns when the event occurred (unix nanoseconds)
	Timestamp() int64

	// AggregateID returns the ID of the aggregate that produced the event
	AggregateID() string

	// Payload returns the event data
	Payload() map[string]interface{}
}

// EventHandler handles events of a specific type.
type EventHandler interface {
	// Handle processes an event
	Handle(ctx context.Context, event Event) error

	// EventType returns the type of events this handler processes
	EventType() string
}

// EventPublisher delivers events to an external broker.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// EventBus provides pub/sub functionality for domain events.
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, event Event) error

	// PublishAsync publishes an event asynchronously
	PublishAsync(ctx context.Context, event Event)

	// Subscribe registers a handler for a specific event type
	Subscribe(eventType string, handler EventHandler) error

	// Start starts the event bus
	Start(ctx context.Context) error

	// Stop stops the event bus
	Stop() error
}
