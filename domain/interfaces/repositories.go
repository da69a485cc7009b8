package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"

	"stakehouse/domain/entities"
)

// UserRepository defines user persistence operations
type UserRepository interface {
	// GetByID retrieves a user by ID. Returns nil if not found.
	GetByID(ctx context.Context, id int64) (*entities.User, error)

	// GetByIDs retrieves users for the given IDs
	GetByIDs(ctx context.Context, ids []int64) ([]*entities.User, error)

	// Create creates a new user
	Create(ctx context.Context, username, walletAddress string) (*entities.User, error)

	// AdjustTickets atomically increments or decrements the two ticket
	// balances. Fails without mutation if a balance would go negative.
	AdjustTickets(ctx context.Context, userID, boughtDelta, freeDelta int64) (*entities.User, error)
}

// GameSessionRepository defines game session persistence operations
type GameSessionRepository interface {
	// Create creates a session in the open state
	Create(ctx context.Context, session *entities.GameSession) error

	// GetByID retrieves a session by ID. Returns nil if not found.
	GetByID(ctx context.Context, id int64) (*entities.GameSession, error)

	// Finalize writes the settlement fields exactly once
	Finalize(ctx context.Context, id int64, status entities.SessionStatus, winAmount int64) error

	// PointsByUser aggregates per-user stake points within a tournament
	// window, highest first
	PointsByUser(ctx context.Context, tournamentID int64) ([]*UserPoints, error)
}

// RoundRepository defines round persistence operations
type RoundRepository interface {
	// Create persists a round together with the draws that resolved it
	Create(ctx context.Context, round *entities.Round) error

	// GetBySession retrieves all rounds of a session in play order
	GetBySession(ctx context.Context, sessionID int64) ([]*entities.Round, error)
}

// BlackjackTableRepository persists table snapshots for auditability and
// crash recovery. The authoritative table state lives in process memory.
type BlackjackTableRepository interface {
	// Upsert stores the current table snapshot
	Upsert(ctx context.Context, table *entities.BlackjackTable) error

	// Delete removes a torn-down table's snapshot
	Delete(ctx context.Context, id uuid.UUID) error

	// GetByID retrieves a snapshot. Returns nil if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*entities.BlackjackTable, error)
}

// TicketLedgerRepository defines ledger persistence operations
type TicketLedgerRepository interface {
	// GetLatest returns the most recent ledger entry, or nil if the
	// ledger is empty
	GetLatest(ctx context.Context) (*entities.TicketLedgerEntry, error)

	// Create appends a new entry referencing its predecessor
	Create(ctx context.Context, entry *entities.TicketLedgerEntry) error
}

// TournamentRepository defines tournament persistence operations
type TournamentRepository interface {
	// GetCurrent returns the tournament accepting stakes at now, or nil
	GetCurrent(ctx context.Context, now time.Time) (*entities.Tournament, error)

	// GetLatest returns the most recently created tournament, or nil
	GetLatest(ctx context.Context) (*entities.Tournament, error)

	// GetDue returns un-disbursed tournaments whose end falls within the
	// grace window before now or has already passed
	GetDue(ctx context.Context, now time.Time, grace time.Duration) ([]*entities.Tournament, error)

	// GetByIDForUpdate locks a tournament row for settlement
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.Tournament, error)

	// Create creates a new tournament period
	Create(ctx context.Context, tournament *entities.Tournament) error

	// RecordStake accumulates a stake into the tournament's totals
	RecordStake(ctx context.Context, id int64, stake int64) error

	// SetPaused pauses or resumes stake placement
	SetPaused(ctx context.Context, id int64, paused bool) error

	// MarkDisbursed marks the tournament terminal with its final totals
	MarkDisbursed(ctx context.Context, id int64, uniqueUsers int64) error
}

// RewardRepository defines reward persistence operations
type RewardRepository interface {
	// CreateBatch inserts one reward per cohort member
	CreateBatch(ctx context.Context, rewards []*entities.Reward) error

	// GetByTournament retrieves all rewards for a tournament
	GetByTournament(ctx context.Context, tournamentID int64) ([]*entities.Reward, error)

	// UpdateClaimState transitions the claim state of a reward
	UpdateClaimState(ctx context.Context, id int64, state entities.RewardClaimState, claimable bool) error

	// UpdateClaimStateByTournament transitions every reward of a tournament
	UpdateClaimStateByTournament(ctx context.Context, tournamentID int64, state entities.RewardClaimState) error
}

// TransactionRepository defines outbound payment record operations
type TransactionRepository interface {
	// Upsert inserts or updates a record keyed by its external tx id, so
	// replayed events collapse onto one row
	Upsert(ctx context.Context, tx *entities.Transaction) error

	// GetByTxID retrieves a record by external tx id. Returns nil if not found.
	GetByTxID(ctx context.Context, txID string) (*entities.Transaction, error)

	// GetPending retrieves records awaiting confirmation
	GetPending(ctx context.Context) ([]*entities.Transaction, error)

	// PeriodTicketTotals sums confirmed purchase and grant amounts inside
	// a settlement window
	PeriodTicketTotals(ctx context.Context, from, to time.Time) (bought, free int64, err error)
}

// UserPoints is one leaderboard row: a user and the points earned from
// stakes within a tournament window
type UserPoints struct {
	UserID int64
	Points int64
}
