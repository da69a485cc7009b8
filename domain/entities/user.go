package entities

import "time"

// User represents a player with a ticket balance
type User struct {
	ID            int64     `db:"id"`
	Username      string    `db:"username"`
	WalletAddress string    `db:"wallet_address"`
	BoughtTickets int64     `db:"bought_tickets"`
	FreeTickets   int64     `db:"free_tickets"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// TotalTickets returns the spendable ticket balance regardless of origin
func (u *User) TotalTickets() int64 {
	return u.BoughtTickets + u.FreeTickets
}

// CanStake returns true if the user holds enough tickets to cover the stake
func (u *User) CanStake(stake int64) bool {
	return stake > 0 && u.TotalTickets() >= stake
}

// SplitStake divides a stake between free and bought tickets. Free tickets
// are consumed first so the paid fraction of the ledger stays honest.
func (u *User) SplitStake(stake int64) (fromFree, fromBought int64) {
	fromFree = stake
	if fromFree > u.FreeTickets {
		fromFree = u.FreeTickets
	}
	fromBought = stake - fromFree
	return fromFree, fromBought
}
