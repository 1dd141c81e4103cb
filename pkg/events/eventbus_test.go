package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/narwhalmedia/ottcore/pkg/interfaces"
	"github.com/narwhalmedia/ottcore/pkg/logger"
)

type mockHandler struct {
	mock.Mock
}

func (m *mockHandler) Handle(ctx context.Context, event interfaces.Event) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockHandler) EventType() string {
	return "mock"
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event interfaces.Event) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockPublisher) Close() error {
	return m.Called().Error(0)
}

func TestInMemoryEventBus_DispatchesByType(t *testing.T) {
	ctx := context.Background()
	bus := NewLocalEventBus(logger.NewNoopLogger())
	created := NewAggregateEvent(ProfileCreated, "p-1", nil)
	deleted := NewAggregateEvent(ProfileDeleted, "p-1", nil)

	handler := new(mockHandler)
	handler.On("Handle", ctx, created).Return(errors.New("handler failed")).Once()
	require.NoError(t, bus.Subscribe(ProfileCreated, handler))

	assert.NoError(t, bus.Publish(ctx, created))
	assert.NoError(t, bus.Publish(ctx, deleted))
	handler.AssertExpectations(t)
}

func TestInMemoryEventBus_Forwarding(t *testing.T) {
	ctx := context.Background()
	publisher := new(mockPublisher)
	bus := NewForwardingEventBus(publisher, logger.NewNoopLogger())
	ok := NewEvent(ProgressRecorded, nil)
	failing := NewEvent(ProgressRemoved, nil)

	publisher.On("Publish", ctx, ok).Return(nil).Once()
	publisher.On("Publish", ctx, failing).Return(errors.New("broker down")).Once()
	publisher.On("Close").Return(nil).Once()

	assert.NoError(t, bus.Publish(ctx, ok))
	assert.ErrorContains(t, bus.Publish(ctx, failing), "broker down")
	require.NoError(t, bus.Stop())
	publisher.AssertExpectations(t)
}

func TestInMemoryEventBus_PublishAsync(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	publisher := new(mockPublisher)
	bus := NewForwardingEventBus(publisher, logger.NewNoopLogger())
	event := NewEvent(AccountCreated, nil)

	publisher.On("Publish", mock.Anything, event).Return(nil).Once()

	bus.PublishAsync(ctx, event)
	cancel()
	bus.Flush()

	publisher.AssertExpectations(t)
}
