package infrastructure

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stakehouse/domain/events"
)

// MockEventPublisher records published events
type MockEventPublisher struct {
	PublishedEvents []events.Event
	PublishError    error
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	if m.PublishError != nil {
		return m.PublishError
	}
	m.PublishedEvents = append(m.PublishedEvents, event)
	return nil
}

func TestTransactionalPublisher_BuffersUntilFlush(t *testing.T) {
	mockPublisher := &MockEventPublisher{}
	transPublisher := NewTransactionalEventPublisher(mockPublisher)

	testEvent := events.BalanceChangeEvent{
		UserID:        123,
		BalanceBefore: 500,
		BalanceAfter:  400,
		ChangeAmount:  -100,
		Reason:        "coinflip stake",
	}

	err := transPublisher.Publish(testEvent)
	require.NoError(t, err)

	// Nothing reaches the underlying publisher before the commit
	assert.Len(t, mockPublisher.PublishedEvents, 0)

	err = transPublisher.Flush(context.Background())
	require.NoError(t, err)

	require.Len(t, mockPublisher.PublishedEvents, 1)
	assert.Equal(t, testEvent, mockPublisher.PublishedEvents[0])
}

func TestTransactionalPublisher_FlushPreservesOrder(t *testing.T) {
	mockPublisher := &MockEventPublisher{}
	transPublisher := NewTransactionalEventPublisher(mockPublisher)

	first := events.BalanceChangeEvent{UserID: 1, ChangeAmount: -100, Reason: "stake"}
	second := events.RoundResolvedEvent{SessionID: 7, UserID: 1, WinAmount: 150, Won: true}
	third := events.BalanceChangeEvent{UserID: 1, ChangeAmount: 150, Reason: "winnings"}

	require.NoError(t, transPublisher.Publish(first))
	require.NoError(t, transPublisher.Publish(second))
	require.NoError(t, transPublisher.Publish(third))

	require.NoError(t, transPublisher.Flush(context.Background()))

	require.Len(t, mockPublisher.PublishedEvents, 3)
	assert.Equal(t, first, mockPublisher.PublishedEvents[0])
	assert.Equal(t, second, mockPublisher.PublishedEvents[1])
	assert.Equal(t, third, mockPublisher.PublishedEvents[2])
}

func TestTransactionalPublisher_DiscardDropsEvents(t *testing.T) {
	mockPublisher := &MockEventPublisher{}
	transPublisher := NewTransactionalEventPublisher(mockPublisher)

	require.NoError(t, transPublisher.Publish(events.BalanceChangeEvent{UserID: 1}))
	require.NoError(t, transPublisher.Publish(events.BalanceChangeEvent{UserID: 2}))

	transPublisher.Discard()

	require.NoError(t, transPublisher.Flush(context.Background()))
	assert.Len(t, mockPublisher.PublishedEvents, 0)
}

func TestTransactionalPublisher_FlushContinuesOnError(t *testing.T) {
	mockPublisher := &MockEventPublisher{PublishError: errors.New("nats down")}
	transPublisher := NewTransactionalEventPublisher(mockPublisher)

	require.NoError(t, transPublisher.Publish(events.BalanceChangeEvent{UserID: 1}))
	require.NoError(t, transPublisher.Publish(events.BalanceChangeEvent{UserID: 2}))

	// The transaction already committed when Flush runs, so publish
	// failures are logged, not returned
	err := transPublisher.Flush(context.Background())
	assert.NoError(t, err)

	// The buffer is drained either way
	mockPublisher.PublishError = nil
	require.NoError(t, transPublisher.Flush(context.Background()))
	assert.Len(t, mockPublisher.PublishedEvents, 0)
}

func TestTransactionalPublisher_FlushClearsBuffer(t *testing.T) {
	mockPublisher := &MockEventPublisher{}
	transPublisher := NewTransactionalEventPublisher(mockPublisher)

	require.NoError(t, transPublisher.Publish(events.BalanceChangeEvent{UserID: 1}))
	require.NoError(t, transPublisher.Flush(context.Background()))
	require.NoError(t, transPublisher.Flush(context.Background()))

	assert.Len(t, mockPublisher.PublishedEvents, 1)
}
