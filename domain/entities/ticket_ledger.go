package entities

import "time"

// RatioScale is the fixed-point scale used to store rollover ratios in the
// ledger. A ratio of 1.0 is stored as 1_000_000.
const RatioScale = 1_000_000

// QuantizeRatio converts a [0,1] ratio to its stored fixed-point form
func QuantizeRatio(ratio float64) int64 {
	return int64(ratio * RatioScale)
}

// DequantizeRatio converts a stored fixed-point ratio back to [0,1]
func DequantizeRatio(stored int64) float64 {
	return float64(stored) / RatioScale
}

// TicketLedgerEntry is one settlement period's ticket accounting. Entries
// form a singly linked history: each period references its predecessor, and
// the rollover fields carry unredeemed inventory forward tagged with the
// proportion that is paid versus free.
type TicketLedgerEntry struct {
	ID              int64     `db:"id"`
	TournamentID    *int64    `db:"tournament_id"`
	BoughtTickets   int64     `db:"bought_tickets"`
	FreeTickets     int64     `db:"free_tickets"`
	UsedTickets     int64     `db:"used_tickets"`
	RolloverTickets float64   `db:"rollover_tickets"`
	RolloverRatio   int64     `db:"rollover_ratio"` // fixed-point, RatioScale
	PreviousEntryID *int64    `db:"previous_entry_id"`
	CreatedAt       time.Time `db:"created_at"`
}

// PaidRatio returns the dequantized paid fraction of the rollover
func (e *TicketLedgerEntry) PaidRatio() float64 {
	return DequantizeRatio(e.RolloverRatio)
}
