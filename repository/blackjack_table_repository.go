package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"stakehouse/database"
	"stakehouse/domain/entities"
)

// BlackjackTableRepository persists table snapshots as JSONB. The
// authoritative state lives in process memory; snapshots exist for
// auditability and crash recovery.
type BlackjackTableRepository struct {
	q Queryable
}

// NewBlackjackTableRepository creates a new blackjack table repository
func NewBlackjackTableRepository(db *database.DB) *BlackjackTableRepository {
	return &BlackjackTableRepository{q: db.Pool}
}

func newBlackjackTableRepository(tx Queryable) *BlackjackTableRepository {
	return &BlackjackTableRepository{q: tx}
}

// Upsert stores the current table snapshot
func (r *BlackjackTableRepository) Upsert(ctx context.Context, table *entities.BlackjackTable) error {
	state, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("failed to encode table %s: %w", table.ID, err)
	}

	query := `
		INSERT INTO blackjack_tables (id, status, state)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status, state = EXCLUDED.state, updated_at = NOW()`

	if _, err := r.q.Exec(ctx, query, table.ID, table.Status, state); err != nil {
		return fmt.Errorf("failed to upsert table %s: %w", table.ID, err)
	}
	return nil
}

// Delete removes a torn-down table's snapshot
func (r *BlackjackTableRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM blackjack_tables WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete table %s: %w", id, err)
	}
	return nil
}

// GetByID retrieves a snapshot
func (r *BlackjackTableRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.BlackjackTable, error) {
	var state []byte
	err := r.q.QueryRow(ctx, `SELECT state FROM blackjack_tables WHERE id = $1`, id).Scan(&state)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get table %s: %w", id, err)
	}

	var table entities.BlackjackTable
	if err := json.Unmarshal(state, &table); err != nil {
		return nil, fmt.Errorf("failed to decode table %s: %w", id, err)
	}
	return &table, nil
}
