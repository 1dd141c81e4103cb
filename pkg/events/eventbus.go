package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/narwhalmedia/ottcore/pkg/interfaces"
)

// InMemoryEventBus dispatches events to in-process handlers and, when configured,
// forwards them to an external broker.
type InMemoryEventBus struct {
	handlers  map[string][]interfaces.EventHandler
	publisher interfaces.EventPublisher
	mu        sync.RWMutex
	logger    interfaces.Logger
	wg        sync.WaitGroup
}

// LocalEventBus is an alias for InMemoryEventBus
type LocalEventBus = InMemoryEventBus

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger interfaces.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		handlers: make(map[string][]interfaces.EventHandler),
		logger:   logger,
	}
}

// NewLocalEventBus creates a new local event bus (alias for NewInMemoryEventBus)
func NewLocalEventBus(logger interfaces.Logger) *LocalEventBus {
	return NewInMemoryEventBus(logger)
}

// NewForwardingEventBus creates a bus that also forwards every event to publisher.
func NewForwardingEventBus(publisher interfaces.EventPublisher, logger interfaces.Logger) *InMemoryEventBus {
	eb := NewInMemoryEventBus(logger)
	eb.publisher = publisher
	return eb
}

// Publish runs local handlers, then forwards to the broker. Handler failures are
// logged; a broker failure is returned to the caller.
func (eb *InMemoryEventBus) Publish(ctx context.Context, event interfaces.Event) error {
	eb.mu.RLock()
	handlers := eb.handlers[event.EventType()]
	eb.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler.Handle(ctx, event); err != nil {
			eb.logger.Error("Event handler failed",
				interfaces.String("event_type", event.EventType()),
				interfaces.String("handler", handler.EventType()),
				interfaces.Error(err))
		}
	}

	if eb.publisher != nil {
		if err := eb.publisher.Publish(ctx, event); err != nil {
			return fmt.Errorf("failed to forward event %s: %w", event.EventType(), err)
		}
	}

	return nil
}

// PublishAsync publishes an event asynchronously
func (eb *InMemoryEventBus) PublishAsync(ctx context.Context, event interfaces.Event) {
	eb.wg.Add(1)
	go func() {
		defer eb.wg.Done()
		if err := eb.Publish(context.WithoutCancel(ctx), event); err != nil {
			eb.logger.Error("Async event publish failed",
				interfaces.String("event_type", event.EventType()),
				interfaces.Error(err))
		}
	}()
}

// Subscribe registers a handler for a specific event type
func (eb *InMemoryEventBus) Subscribe(eventType string, handler interfaces.EventHandler) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
	eb.logger.Debug("Event handler subscribed",
		interfaces.String("event_type", eventType),
		interfaces.String("handler", handler.EventType()))

	return nil
}

// Start starts the event bus
func (eb *InMemoryEventBus) Start(ctx context.Context) error {
	eb.logger.Info("Event bus started", interfaces.Bool("forwarding", eb.publisher != nil))
	return nil
}

// Stop waits for in-flight async publishes and closes the broker publisher.
func (eb *InMemoryEventBus) Stop() error {
	eb.wg.Wait()
	if eb.publisher != nil {
		if err := eb.publisher.Close(); err != nil {
			return fmt.Errorf("failed to close event publisher: %w", err)
		}
	}
	eb.logger.Info("Event bus stopped")
	return nil
}

// Flush blocks until all async publishes have completed.
func (eb *InMemoryEventBus) Flush() {
	eb.wg.Wait()
}
