package kafka

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"

	infraevents "github.com/narwhalmedia/ottcore/internal/infrastructure/events"
	"github.com/narwhalmedia/ottcore/pkg/interfaces"
	"github.com/narwhalmedia/ottcore/pkg/metrics"
)

// Publisher forwards domain events to a Kafka topic.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   interfaces.Logger
}

// NewProducerConfig returns the producer settings the publisher relies on.
func NewProducerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1
	return config
}

// NewPublisher connects a sync producer to brokers.
func NewPublisher(brokers []string, topic string, logger interfaces.Logger) (*Publisher, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("creating producer: %w", err)
	}
	return NewPublisherWithProducer(producer, topic, logger), nil
}

// NewPublisherWithProducer wraps an existing producer.
func NewPublisherWithProducer(producer sarama.SyncProducer, topic string, logger interfaces.Logger) *Publisher {
	return &Publisher{producer: producer, topic: topic, logger: logger}
}

// Publish sends the event keyed by aggregate id so one aggregate's events
// stay ordered within a partition.
func (p *Publisher) Publish(_ context.Context, event interfaces.Event) error {
	envelope := infraevents.NewEnvelope(event)
	data, err := envelope.Marshal()
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.EventType())},
			{Key: []byte("event_id"), Value: []byte(envelope.ID)},
		},
	}
	if event.AggregateID() != "" {
		msg.Key = sarama.StringEncoder(event.AggregateID())
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		metrics.EventsPublished.WithLabelValues(event.EventType(), "failure").Inc()
		return fmt.Errorf("sending message: %w", err)
	}
	metrics.EventsPublished.WithLabelValues(event.EventType(), "success").Inc()

	p.logger.Debug("Event published",
		interfaces.String("event_type", event.EventType()),
		interfaces.String("topic", p.topic),
		interfaces.Int("partition", int(partition)),
		interfaces.Int64("offset", offset))

	return nil
}

// Close closes the producer.
func (p *Publisher) Close() error {
	return p.producer.Close()
}
