package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"stakehouse/database"
	"stakehouse/domain/entities"
)

// TicketLedgerRepository implements the TicketLedgerRepository interface
type TicketLedgerRepository struct {
	q Queryable
}

// NewTicketLedgerRepository creates a new ticket ledger repository
func NewTicketLedgerRepository(db *database.DB) *TicketLedgerRepository {
	return &TicketLedgerRepository{q: db.Pool}
}

func newTicketLedgerRepository(tx Queryable) *TicketLedgerRepository {
	return &TicketLedgerRepository{q: tx}
}

// GetLatest returns the most recent ledger entry, or nil if the ledger is
// empty
func (r *TicketLedgerRepository) GetLatest(ctx context.Context) (*entities.TicketLedgerEntry, error) {
	query := `
		SELECT id, tournament_id, bought_tickets, free_tickets, used_tickets,
		       rollover_tickets, rollover_ratio, previous_entry_id, created_at
		FROM ticket_ledger_entries
		ORDER BY id DESC
		LIMIT 1`

	var entry entities.TicketLedgerEntry
	err := r.q.QueryRow(ctx, query).Scan(
		&entry.ID,
		&entry.TournamentID,
		&entry.BoughtTickets,
		&entry.FreeTickets,
		&entry.UsedTickets,
		&entry.RolloverTickets,
		&entry.RolloverRatio,
		&entry.PreviousEntryID,
		&entry.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest ledger entry: %w", err)
	}
	return &entry, nil
}

// Create appends a new entry referencing its predecessor
func (r *TicketLedgerRepository) Create(ctx context.Context, entry *entities.TicketLedgerEntry) error {
	query := `
		INSERT INTO ticket_ledger_entries
			(tournament_id, bought_tickets, free_tickets, used_tickets,
			 rollover_tickets, rollover_ratio, previous_entry_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.q.QueryRow(ctx, query,
		entry.TournamentID,
		entry.BoughtTickets,
		entry.FreeTickets,
		entry.UsedTickets,
		entry.RolloverTickets,
		entry.RolloverRatio,
		entry.PreviousEntryID,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}
	return nil
}
