package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stakehouse/domain/entities"
	"stakehouse/repository/testutil"
)

func TestTransactionRepository_UpsertIsIdempotent(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewTransactionRepository(testDB.DB)
	ctx := context.Background()

	tx := &entities.Transaction{
		TxID:   "0xabc123",
		Kind:   entities.TransactionKindRewardBatch,
		Status: entities.TransactionStatusPending,
		Amount: 98,
	}
	require.NoError(t, repo.Upsert(ctx, tx))
	firstID := tx.ID

	// replaying the same event collapses onto the existing row
	replay := &entities.Transaction{
		TxID:   "0xabc123",
		Kind:   entities.TransactionKindRewardBatch,
		Status: entities.TransactionStatusConfirmed,
		Amount: 98,
	}
	require.NoError(t, repo.Upsert(ctx, replay))
	assert.Equal(t, firstID, replay.ID)

	stored, err := repo.GetByTxID(ctx, "0xabc123")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, entities.TransactionStatusConfirmed, stored.Status)

	pending, err := repo.GetPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestTransactionRepository_GetByTxID_NotFound(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewTransactionRepository(testDB.DB)

	tx, err := repo.GetByTxID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, tx)
}

func TestTransactionRepository_PeriodTicketTotals(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	userRepo := NewUserRepository(testDB.DB)
	repo := NewTransactionRepository(testDB.DB)
	ctx := context.Background()

	user, err := userRepo.Create(ctx, "dave", "wallet-dave")
	require.NoError(t, err)

	insert := func(txID string, kind entities.TransactionKind, status entities.TransactionStatus, amount float64) {
		require.NoError(t, repo.Upsert(ctx, &entities.Transaction{
			TxID:   txID,
			UserID: &user.ID,
			Kind:   kind,
			Status: status,
			Amount: amount,
		}))
	}

	insert("p1", entities.TransactionKindPurchase, entities.TransactionStatusConfirmed, 120)
	insert("p2", entities.TransactionKindPurchase, entities.TransactionStatusConfirmed, 80)
	insert("g1", entities.TransactionKindGrant, entities.TransactionStatusConfirmed, 50)
	// pending and outbound records stay out of the totals
	insert("p3", entities.TransactionKindPurchase, entities.TransactionStatusPending, 999)
	insert("r1", entities.TransactionKindRewardBatch, entities.TransactionStatusConfirmed, 999)

	from := time.Now().UTC().Add(-time.Hour)
	to := time.Now().UTC().Add(time.Hour)

	bought, free, err := repo.PeriodTicketTotals(ctx, from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(200), bought)
	assert.Equal(t, int64(50), free)

	// an empty window has no totals
	bought, free, err = repo.PeriodTicketTotals(ctx, from.Add(-2*time.Hour), from)
	require.NoError(t, err)
	assert.Zero(t, bought)
	assert.Zero(t, free)
}
