package kafka_test

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narwhalmedia/ottcore/internal/infrastructure/events/kafka"
	pkgevents "github.com/narwhalmedia/ottcore/pkg/events"
	"github.com/narwhalmedia/ottcore/pkg/logger"
)

func TestPublisher_Publish(t *testing.T) {
	// Arrange
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var envelope map[string]interface{}
		if err := json.Unmarshal(val, &envelope); err != nil {
			return err
		}
		if envelope["event_type"] != pkgevents.ProfileCreated {
			return errors.New("unexpected event type")
		}
		if envelope["aggregate_id"] != "acct-1" {
			return errors.New("unexpected aggregate id")
		}
		return nil
	})
	publisher := kafka.NewPublisherWithProducer(producer, "ott-events", logger.NewNoopLogger())

	// Act
	err := publisher.Publish(context.Background(), pkgevents.NewAggregateEvent(pkgevents.ProfileCreated, "acct-1", map[string]interface{}{
		"name": "Kids",
	}))

	// Assert
	require.NoError(t, err)
	require.NoError(t, publisher.Close())
}

func TestPublisher_PublishFailure(t *testing.T) {
	// Arrange
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	publisher := kafka.NewPublisherWithProducer(producer, "ott-events", logger.NewNoopLogger())

	// Act
	err := publisher.Publish(context.Background(), pkgevents.NewEvent(pkgevents.AccountCreated, nil))

	// Assert
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, publisher.Close())
}

func TestNewProducerConfig(t *testing.T) {
	config := kafka.NewProducerConfig()

	assert.True(t, config.Producer.Idempotent)
	assert.True(t, config.Producer.Return.Successes)
	assert.Equal(t, sarama.WaitForAll, config.Producer.RequiredAcks)
	assert.Equal(t, 1, config.Net.MaxOpenRequests)
	require.NoError(t, config.Validate())
}
