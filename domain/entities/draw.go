package entities

import "time"

// DrawAlgorithm selects the hash used to derive a draw seed
type DrawAlgorithm string

const (
	DrawAlgorithmSHA256 DrawAlgorithm = "sha256"
	DrawAlgorithmMD5    DrawAlgorithm = "md5"
)

// Draw is one unit of fairness-sourced randomness. It is immutable once
// produced and persisted alongside the round it resolved, so anyone holding
// the seed can replay the value and verify the outcome.
type Draw struct {
	ID        int64         `db:"id"`
	RoundID   int64         `db:"round_id"`
	Seed      string        `db:"seed"`
	Algorithm DrawAlgorithm `db:"algorithm"`
	Value     float64       `db:"value"` // uniform on [0, 1)
	CreatedAt time.Time     `db:"created_at"`
}
