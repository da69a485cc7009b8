package interfaces

import (
	"context"

	"github.com/google/uuid"

	"stakehouse/domain/entities"
	"stakehouse/domain/events"
)

// FairnessSource produces one unpredictable, auditable draw per decision
// point. Safe for concurrent use; calls are independent and never fail.
type FairnessSource interface {
	Draw(algorithm entities.DrawAlgorithm) entities.Draw
}

// GameResult is the settled outcome of a single-stake game session
type GameResult struct {
	Session *entities.GameSession
	Rounds  []*entities.Round
	Won     bool
	Payout  int64
	Balance int64
}

// GameService orchestrates bet validation, draw consumption, resolution
// and settlement for the stateless game variants
type GameService interface {
	PlayCoinFlip(ctx context.Context, userID int64, bet entities.CoinFlipBet) (*GameResult, error)
	PlayDice(ctx context.Context, userID int64, bet entities.DiceBet) (*GameResult, error)
	PlayRoulette(ctx context.Context, userID int64, bet entities.RouletteBet) (*GameResult, error)
	PlayRPS(ctx context.Context, userID int64, bet entities.RPSBet) (*GameResult, error)
}

// BlackjackService runs the multiplayer blackjack state machine. All
// operations against one table are serialized; different tables proceed
// in parallel.
type BlackjackService interface {
	Start(ctx context.Context, creatorID int64, stake int64) (*entities.BlackjackTable, error)
	Join(ctx context.Context, tableID uuid.UUID, userID int64) (*entities.BlackjackTable, error)
	Hit(ctx context.Context, tableID uuid.UUID, userID int64) (*entities.BlackjackTable, error)
	Stand(ctx context.Context, tableID uuid.UUID, userID int64) (*entities.BlackjackTable, error)
	DealerPlay(ctx context.Context, tableID uuid.UUID) (*entities.BlackjackTable, error)
	Leave(ctx context.Context, tableID uuid.UUID, userID int64) error
	HandleDisconnection(ctx context.Context, userID int64) error
	SweepDisconnected(ctx context.Context) error
}

// RolloverState is the carried-forward side of a previous ledger entry
type RolloverState struct {
	RolloverTickets float64
	RolloverRatio   int64 // fixed-point, entities.RatioScale
}

// PeriodTotals aggregates one settlement period's ticket movement
type PeriodTotals struct {
	TotalTicketsUsed   int64
	TotalFreeTickets   int64
	TotalTicketsBought int64
}

// RolloverResult is the output of the ticket rollover computation
type RolloverResult struct {
	PayableTickets  float64
	RolloverTickets float64
	RolloverRatio   int64 // fixed-point, entities.RatioScale
}

// SettlementResult is everything the transactional part of a settlement
// produced: the worker broadcasts the payment batch after commit
type SettlementResult struct {
	Tournament      *entities.Tournament
	Rewards         []*entities.Reward
	Entries         []PaymentEntry
	PayableTickets  float64
	RolloverTickets float64
	TotalEarning    float64
}

// TournamentService orchestrates periodic settlement
type TournamentService interface {
	// EnsureCurrent returns the open tournament, creating one if absent
	EnsureCurrent(ctx context.Context) (*entities.Tournament, error)

	// Settle runs the transactional settlement of one due tournament:
	// pause, aggregate, select the cohort, run the rollover engine,
	// persist rewards, mark disbursed, ensure the next period exists
	Settle(ctx context.Context, tournament *entities.Tournament) (*SettlementResult, error)
}

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher buffers events until the surrounding
// transaction commits
type TransactionalEventPublisher interface {
	EventPublisher
	Flush(ctx context.Context) error
	Discard()
}

// JobName identifies a named unit of background work. The set is closed;
// handlers match exhaustively.
type JobName string

const (
	JobOutcomeCheck JobName = "outcome_check"
	JobTxStatusPoll JobName = "tx_status_poll"
)

// JobQueue enqueues named work with at-least-once delivery. Handlers must
// be idempotent.
type JobQueue interface {
	Submit(ctx context.Context, name JobName, payload any) error
}

// PaymentEntry is one recipient of a batched outbound payment
type PaymentEntry struct {
	Address string  `json:"address"`
	Amount  float64 `json:"amount"`
}

// PaymentBroadcaster submits one batched outbound payment and returns a
// pending reference. Confirmation arrives later via the webhook path.
type PaymentBroadcaster interface {
	BroadcastBatch(ctx context.Context, tournamentID int64, entries []PaymentEntry) (string, error)
}
