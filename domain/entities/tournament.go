package entities

import "time"

// Tournament is one settlement period. Created on a fixed cadence, mutated
// by settlement, terminal once disbursed.
type Tournament struct {
	ID          int64     `db:"id"`
	StartAt     time.Time `db:"start_at"`
	EndAt       time.Time `db:"end_at"`
	Paused      bool      `db:"paused"`
	Disbursed   bool      `db:"disbursed"`
	TotalStakes int64     `db:"total_stakes"`
	UniqueUsers int64     `db:"unique_users"`
	CreatedAt   time.Time `db:"created_at"`
}

// IsDue returns true when the tournament's end falls within the grace
// window before now, or has already passed, and it is not yet disbursed
func (t *Tournament) IsDue(now time.Time, grace time.Duration) bool {
	return !t.Disbursed && t.EndAt.Before(now.Add(grace))
}

// AcceptsStakes returns true while new stakes may be placed against it
func (t *Tournament) AcceptsStakes(now time.Time) bool {
	return !t.Paused && !t.Disbursed && !now.Before(t.StartAt) && now.Before(t.EndAt)
}

// CohortSize is the step function sizing the reward cohort from the
// participant count: about half for tiny fields, a third for small ones,
// a tenth for everything larger.
func CohortSize(participants int) int {
	switch {
	case participants == 0:
		return 0
	case participants <= 5:
		return (participants + 1) / 2
	case participants <= 10:
		return (participants + 2) / 3
	default:
		return (participants + 9) / 10
	}
}
