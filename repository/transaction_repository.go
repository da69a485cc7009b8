package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"stakehouse/database"
	"stakehouse/domain/entities"
)

// TransactionRepository implements the TransactionRepository interface
type TransactionRepository struct {
	q Queryable
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{q: db.Pool}
}

func newTransactionRepository(tx Queryable) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

const transactionColumns = `id, tx_id, tournament_id, user_id, kind, status, amount, created_at, updated_at`

func scanTransaction(row pgx.Row) (*entities.Transaction, error) {
	var t entities.Transaction
	err := row.Scan(
		&t.ID,
		&t.TxID,
		&t.TournamentID,
		&t.UserID,
		&t.Kind,
		&t.Status,
		&t.Amount,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}
	return &t, nil
}

// Upsert inserts or updates a record keyed by its external tx id, so a
// replayed event collapses onto the existing row instead of duplicating it
func (r *TransactionRepository) Upsert(ctx context.Context, tx *entities.Transaction) error {
	query := `
		INSERT INTO transactions (tx_id, tournament_id, user_id, kind, status, amount)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tx_id) DO UPDATE
		SET status = EXCLUDED.status, updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err := r.q.QueryRow(ctx, query,
		tx.TxID,
		tx.TournamentID,
		tx.UserID,
		tx.Kind,
		tx.Status,
		tx.Amount,
	).Scan(&tx.ID, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert transaction %s: %w", tx.TxID, err)
	}
	return nil
}

// GetByTxID retrieves a record by external tx id
func (r *TransactionRepository) GetByTxID(ctx context.Context, txID string) (*entities.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE tx_id = $1`
	return scanTransaction(r.q.QueryRow(ctx, query, txID))
}

// GetPending retrieves records awaiting confirmation
func (r *TransactionRepository) GetPending(ctx context.Context) ([]*entities.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE status = 'pending' ORDER BY created_at ASC`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*entities.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// PeriodTicketTotals sums confirmed purchase and grant amounts inside a
// settlement window
func (r *TransactionRepository) PeriodTicketTotals(ctx context.Context, from, to time.Time) (int64, int64, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE kind = 'purchase'), 0)::BIGINT,
			COALESCE(SUM(amount) FILTER (WHERE kind = 'grant'), 0)::BIGINT
		FROM transactions
		WHERE status = 'confirmed'
		  AND created_at >= $1 AND created_at < $2
		  AND kind IN ('purchase', 'grant')`

	var bought, free int64
	if err := r.q.QueryRow(ctx, query, from, to).Scan(&bought, &free); err != nil {
		return 0, 0, fmt.Errorf("failed to aggregate period ticket totals: %w", err)
	}
	return bought, free, nil
}
