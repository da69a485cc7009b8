package entities

import "time"

// TransactionKind classifies an outbound payment record
type TransactionKind string

const (
	// outbound
	TransactionKindRewardBatch TransactionKind = "reward_batch"
	TransactionKindClaim       TransactionKind = "claim"
	// inbound, credited to ticket balances once confirmed
	TransactionKindPurchase TransactionKind = "purchase"
	TransactionKindGrant    TransactionKind = "grant"
)

// TransactionStatus tracks an outbound payment through confirmation
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusConfirmed TransactionStatus = "confirmed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Transaction mirrors one payment crossing the system boundary. The
// external TxID is the stable identity events arrive under, so webhook
// handlers upsert by it. Inbound purchases and grants carry the user the
// tickets belong to.
type Transaction struct {
	ID           int64             `db:"id"`
	TxID         string            `db:"tx_id"`
	TournamentID *int64            `db:"tournament_id"`
	UserID       *int64            `db:"user_id"`
	Kind         TransactionKind   `db:"kind"`
	Status       TransactionStatus `db:"status"`
	Amount       float64           `db:"amount"`
	CreatedAt    time.Time         `db:"created_at"`
	UpdatedAt    time.Time         `db:"updated_at"`
}
