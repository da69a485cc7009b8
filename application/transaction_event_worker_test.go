package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stakehouse/domain/entities"
	"stakehouse/domain/events"
	"stakehouse/domain/interfaces"
)

type eventWorkerFixture struct {
	worker    *TransactionEventWorker
	factory   *mockUnitOfWorkFactory
	publisher *recordingPublisher
}

func newEventWorkerFixture() *eventWorkerFixture {
	factory := newMockUnitOfWorkFactory()
	publisher := &recordingPublisher{}
	worker := NewTransactionEventWorker(factory, func() interfaces.TransactionalEventPublisher {
		return publisher
	}, 16)
	return &eventWorkerFixture{worker: worker, factory: factory, publisher: publisher}
}

func TestTransactionEventWorker_ConfirmedPurchaseCreditsTickets(t *testing.T) {
	f := newEventWorkerFixture()
	uow := f.factory.uow
	userID := int64(7)

	uow.transactions.On("GetByTxID", mock.Anything, "tx-1").Return(nil, nil)
	uow.transactions.On("Upsert", mock.Anything, mock.MatchedBy(func(tx *entities.Transaction) bool {
		return tx.TxID == "tx-1" &&
			tx.Kind == entities.TransactionKindPurchase &&
			tx.Status == entities.TransactionStatusConfirmed
	})).Return(nil)
	uow.users.On("AdjustTickets", mock.Anything, userID, int64(250), int64(0)).
		Return(&entities.User{ID: userID, BoughtTickets: 450, FreeTickets: 0}, nil)

	err := f.worker.process(context.Background(), PaymentConfirmedEvent{
		TxID:   "tx-1",
		Kind:   entities.TransactionKindPurchase,
		UserID: &userID,
		Amount: 250,
	})
	require.NoError(t, err)

	uow.transactions.AssertExpectations(t)
	uow.users.AssertExpectations(t)
	assert.Equal(t, 1, uow.commits)

	require.Len(t, f.publisher.published, 1)
	change, ok := f.publisher.published[0].(events.BalanceChangeEvent)
	require.True(t, ok)
	assert.Equal(t, int64(250), change.ChangeAmount)
	assert.Equal(t, int64(450), change.BalanceAfter)
}

func TestTransactionEventWorker_ConfirmedGrantAddsFreeTickets(t *testing.T) {
	f := newEventWorkerFixture()
	uow := f.factory.uow
	userID := int64(9)

	uow.transactions.On("GetByTxID", mock.Anything, "tx-2").Return(nil, nil)
	uow.transactions.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	uow.users.On("AdjustTickets", mock.Anything, userID, int64(0), int64(50)).
		Return(&entities.User{ID: userID, FreeTickets: 50}, nil)

	err := f.worker.process(context.Background(), PaymentConfirmedEvent{
		TxID:   "tx-2",
		Kind:   entities.TransactionKindGrant,
		UserID: &userID,
		Amount: 50,
	})
	require.NoError(t, err)
	uow.users.AssertExpectations(t)
}

func TestTransactionEventWorker_ReplayedConfirmationIsNoop(t *testing.T) {
	f := newEventWorkerFixture()
	uow := f.factory.uow
	userID := int64(7)

	uow.transactions.On("GetByTxID", mock.Anything, "tx-1").Return(&entities.Transaction{
		TxID:   "tx-1",
		UserID: &userID,
		Kind:   entities.TransactionKindPurchase,
		Status: entities.TransactionStatusConfirmed,
		Amount: 250,
	}, nil)

	err := f.worker.process(context.Background(), PaymentConfirmedEvent{
		TxID:   "tx-1",
		Kind:   entities.TransactionKindPurchase,
		UserID: &userID,
		Amount: 250,
	})
	require.NoError(t, err)

	// Replays never touch balances or write a second record
	uow.users.AssertNotCalled(t, "AdjustTickets", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	uow.transactions.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	assert.Empty(t, f.publisher.published)
}

func TestTransactionEventWorker_ConfirmedRewardBatchMarksRewards(t *testing.T) {
	f := newEventWorkerFixture()
	uow := f.factory.uow
	tournamentID := int64(42)

	uow.transactions.On("GetByTxID", mock.Anything, "tx-batch").Return(&entities.Transaction{
		TxID:         "tx-batch",
		TournamentID: &tournamentID,
		Kind:         entities.TransactionKindRewardBatch,
		Status:       entities.TransactionStatusPending,
		Amount:       98,
	}, nil)
	uow.transactions.On("Upsert", mock.Anything, mock.MatchedBy(func(tx *entities.Transaction) bool {
		return tx.Status == entities.TransactionStatusConfirmed && tx.Kind == entities.TransactionKindRewardBatch
	})).Return(nil)
	uow.rewards.On("UpdateClaimStateByTournament", mock.Anything, tournamentID, entities.RewardClaimSuccessful).Return(nil)

	err := f.worker.process(context.Background(), PaymentConfirmedEvent{
		TxID:   "tx-batch",
		Amount: 98,
	})
	require.NoError(t, err)
	uow.rewards.AssertExpectations(t)
}

func TestTransactionEventWorker_FailedRewardBatchResetsClaimStates(t *testing.T) {
	f := newEventWorkerFixture()
	uow := f.factory.uow
	tournamentID := int64(42)

	uow.transactions.On("GetByTxID", mock.Anything, "tx-batch").Return(&entities.Transaction{
		TxID:         "tx-batch",
		TournamentID: &tournamentID,
		Kind:         entities.TransactionKindRewardBatch,
		Status:       entities.TransactionStatusPending,
	}, nil)
	uow.transactions.On("Upsert", mock.Anything, mock.MatchedBy(func(tx *entities.Transaction) bool {
		return tx.Status == entities.TransactionStatusFailed
	})).Return(nil)
	uow.rewards.On("UpdateClaimStateByTournament", mock.Anything, tournamentID, entities.RewardClaimDefault).Return(nil)

	err := f.worker.process(context.Background(), PaymentFailedEvent{TxID: "tx-batch", Reason: "timeout"})
	require.NoError(t, err)
	uow.rewards.AssertExpectations(t)
}

func TestTransactionEventWorker_FailedUnknownTransactionIgnored(t *testing.T) {
	f := newEventWorkerFixture()
	uow := f.factory.uow

	uow.transactions.On("GetByTxID", mock.Anything, "tx-ghost").Return(nil, nil)

	err := f.worker.process(context.Background(), PaymentFailedEvent{TxID: "tx-ghost"})
	require.NoError(t, err)
	uow.transactions.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestTransactionEventWorker_RewardClaimSettles(t *testing.T) {
	f := newEventWorkerFixture()
	uow := f.factory.uow

	uow.transactions.On("GetByTxID", mock.Anything, "tx-claim").Return(nil, nil)
	uow.transactions.On("Upsert", mock.Anything, mock.MatchedBy(func(tx *entities.Transaction) bool {
		return tx.Kind == entities.TransactionKindClaim && tx.Status == entities.TransactionStatusConfirmed
	})).Return(nil)
	uow.rewards.On("UpdateClaimState", mock.Anything, int64(11), entities.RewardClaimSuccessful, false).Return(nil)

	err := f.worker.process(context.Background(), RewardClaimEvent{
		TxID:     "tx-claim",
		RewardID: 11,
		UserID:   7,
		Amount:   58.8,
	})
	require.NoError(t, err)

	uow.rewards.AssertExpectations(t)
	require.Len(t, f.publisher.published, 1)
	state, ok := f.publisher.published[0].(events.RewardClaimStateEvent)
	require.True(t, ok)
	assert.Equal(t, entities.RewardClaimSuccessful, state.State)
}

func TestTransactionEventWorker_DrainPreservesArrivalOrder(t *testing.T) {
	f := newEventWorkerFixture()
	uow := f.factory.uow

	var order []string
	uow.transactions.On("GetByTxID", mock.Anything, mock.Anything).Return(nil, nil)
	uow.transactions.On("Upsert", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		order = append(order, args.Get(1).(*entities.Transaction).TxID)
	}).Return(nil)
	userID := int64(1)
	uow.users.On("AdjustTickets", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&entities.User{ID: userID}, nil)

	ctx := context.Background()
	f.worker.Start(ctx)

	for _, txID := range []string{"tx-a", "tx-b", "tx-c"} {
		require.NoError(t, f.worker.Enqueue(ctx, PaymentConfirmedEvent{
			TxID:   txID,
			Kind:   entities.TransactionKindPurchase,
			UserID: &userID,
			Amount: 1,
		}))
	}

	f.worker.Stop()
	assert.Equal(t, []string{"tx-a", "tx-b", "tx-c"}, order)
}

func TestTransactionEventWorker_EnqueueAfterStop(t *testing.T) {
	f := newEventWorkerFixture()
	f.worker.Start(context.Background())
	f.worker.Stop()

	err := f.worker.Enqueue(context.Background(), PaymentFailedEvent{TxID: "tx-late"})
	assert.ErrorIs(t, err, ErrWorkerStopped)
}

func TestTransactionEventWorker_StopWithoutStartReturns(t *testing.T) {
	f := newEventWorkerFixture()

	stopped := make(chan struct{})
	go func() {
		f.worker.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked without a running drain loop")
	}

	err := f.worker.Enqueue(context.Background(), PaymentFailedEvent{TxID: "tx-late"})
	assert.ErrorIs(t, err, ErrWorkerStopped)
}

func TestTransactionEventWorker_HandleTxStatusPoll(t *testing.T) {
	f := newEventWorkerFixture()
	uow := f.factory.uow

	uow.transactions.On("GetByTxID", mock.Anything, "tx-pending").Return(&entities.Transaction{
		TxID:      "tx-pending",
		Kind:      entities.TransactionKindRewardBatch,
		Status:    entities.TransactionStatusPending,
		CreatedAt: time.Now().Add(-time.Hour),
	}, nil)

	err := f.worker.HandleTxStatusPoll(context.Background(), TxStatusPollJob{TxID: "tx-pending"})
	require.NoError(t, err)
}

func TestTransactionEventWorker_OutcomeCheckResetsStalePending(t *testing.T) {
	f := newEventWorkerFixture()
	uow := f.factory.uow
	tournamentID := int64(42)

	uow.rewards.On("GetByTournament", mock.Anything, tournamentID).Return([]*entities.Reward{
		{ID: 1, TournamentID: tournamentID, Claimed: entities.RewardClaimPending},
		{ID: 2, TournamentID: tournamentID, Claimed: entities.RewardClaimPending},
	}, nil)
	// No in-flight payment for this tournament
	uow.transactions.On("GetPending", mock.Anything).Return([]*entities.Transaction{}, nil)
	uow.rewards.On("UpdateClaimStateByTournament", mock.Anything, tournamentID, entities.RewardClaimDefault).Return(nil)

	err := f.worker.HandleOutcomeCheck(context.Background(), OutcomeCheckJob{TournamentID: tournamentID})
	require.NoError(t, err)
	uow.rewards.AssertExpectations(t)
}

func TestTransactionEventWorker_OutcomeCheckLeavesInFlightAlone(t *testing.T) {
	f := newEventWorkerFixture()
	uow := f.factory.uow
	tournamentID := int64(42)

	uow.rewards.On("GetByTournament", mock.Anything, tournamentID).Return([]*entities.Reward{
		{ID: 1, TournamentID: tournamentID, Claimed: entities.RewardClaimPending},
	}, nil)
	uow.transactions.On("GetPending", mock.Anything).Return([]*entities.Transaction{
		{TxID: "tx-batch", Kind: entities.TransactionKindRewardBatch, TournamentID: &tournamentID},
	}, nil)

	err := f.worker.HandleOutcomeCheck(context.Background(), OutcomeCheckJob{TournamentID: tournamentID})
	require.NoError(t, err)
	uow.rewards.AssertNotCalled(t, "UpdateClaimStateByTournament", mock.Anything, mock.Anything, mock.Anything)
}
