package entities

import "time"

// RewardClaimState tracks a reward through payment broadcast and confirmation
type RewardClaimState string

const (
	RewardClaimDefault    RewardClaimState = "DEFAULT"
	RewardClaimPending    RewardClaimState = "PENDING"
	RewardClaimSuccessful RewardClaimState = "SUCCESSFUL"
)

// Reward is one cohort member's share of a settled tournament. Exactly one
// reward exists per rewarded user per tournament.
type Reward struct {
	ID           int64            `db:"id"`
	UserID       int64            `db:"user_id"`
	TournamentID int64            `db:"tournament_id"`
	Points       int64            `db:"points"`
	Earning      float64          `db:"earning"`
	Claimed      RewardClaimState `db:"claimed"`
	Claimable    bool             `db:"claimable"`
	CreatedAt    time.Time        `db:"created_at"`
}
