package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	infraevents "github.com/narwhalmedia/ottcore/internal/infrastructure/events"
	"github.com/narwhalmedia/ottcore/pkg/interfaces"
	"github.com/narwhalmedia/ottcore/pkg/metrics"
)

const publishTimeout = 5 * time.Second

// JetStreamPublisher is the part of jetstream.JetStream the publisher uses.
type JetStreamPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Publisher forwards domain events to NATS JetStream.
type Publisher struct {
	js      JetStreamPublisher
	subject string
	logger  interfaces.Logger
}

// NewPublisher creates a new NATS event publisher.
func NewPublisher(js JetStreamPublisher, subject string, logger interfaces.Logger) *Publisher {
	return &Publisher{js: js, subject: subject, logger: logger}
}

// Publish sends the event under <subject>.<event type>, deduplicated by
// envelope id.
func (p *Publisher) Publish(ctx context.Context, event interfaces.Event) error {
	envelope := infraevents.NewEnvelope(event)
	data, err := envelope.Marshal()
	if err != nil {
		return err
	}
	subject := infraevents.Subject(p.subject, event.EventType())

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	ack, err := p.js.Publish(pubCtx, subject, data, jetstream.WithMsgID(envelope.ID))
	if err != nil {
		metrics.EventsPublished.WithLabelValues(event.EventType(), "failure").Inc()
		return fmt.Errorf("failed to publish event: %w", err)
	}
	metrics.EventsPublished.WithLabelValues(event.EventType(), "success").Inc()

	p.logger.Debug("Event published",
		interfaces.String("event_id", envelope.ID),
		interfaces.String("event_type", event.EventType()),
		interfaces.String("subject", subject),
		interfaces.Int64("sequence", int64(ack.Sequence)))

	return nil
}

// Close is a no-op; the client's cleanup drains the connection.
func (p *Publisher) Close() error {
	return nil
}
