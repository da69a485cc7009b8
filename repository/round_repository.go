package repository

import (
	"context"
	"fmt"

	"stakehouse/database"
	"stakehouse/domain/entities"
)

// RoundRepository implements the RoundRepository interface
type RoundRepository struct {
	q Queryable
}

// NewRoundRepository creates a new round repository
func NewRoundRepository(db *database.DB) *RoundRepository {
	return &RoundRepository{q: db.Pool}
}

func newRoundRepository(tx Queryable) *RoundRepository {
	return &RoundRepository{q: tx}
}

// Create persists a round together with the draws that resolved it, so a
// round and its audit trail are never separated
func (r *RoundRepository) Create(ctx context.Context, round *entities.Round) error {
	query := `
		INSERT INTO rounds (session_id, user_id, game_type, guess, outcome, win_amount)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.q.QueryRow(ctx, query,
		round.SessionID,
		round.UserID,
		round.GameType,
		round.Guess,
		round.Outcome,
		round.WinAmount,
	).Scan(&round.ID, &round.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create round: %w", err)
	}

	for _, draw := range round.Draws {
		draw.RoundID = round.ID
		err := r.q.QueryRow(ctx,
			`INSERT INTO draws (round_id, seed, algorithm, value) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
			draw.RoundID, draw.Seed, draw.Algorithm, draw.Value,
		).Scan(&draw.ID, &draw.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create draw for round %d: %w", round.ID, err)
		}
	}
	return nil
}

// GetBySession retrieves all rounds of a session in play order, draws
// included
func (r *RoundRepository) GetBySession(ctx context.Context, sessionID int64) ([]*entities.Round, error) {
	query := `
		SELECT id, session_id, user_id, game_type, guess, outcome, win_amount, created_at
		FROM rounds
		WHERE session_id = $1
		ORDER BY id ASC`

	rows, err := r.q.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds: %w", err)
	}
	defer rows.Close()

	var rounds []*entities.Round
	for rows.Next() {
		var round entities.Round
		err := rows.Scan(
			&round.ID,
			&round.SessionID,
			&round.UserID,
			&round.GameType,
			&round.Guess,
			&round.Outcome,
			&round.WinAmount,
			&round.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		rounds = append(rounds, &round)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, round := range rounds {
		if err := r.loadDraws(ctx, round); err != nil {
			return nil, err
		}
	}
	return rounds, nil
}

func (r *RoundRepository) loadDraws(ctx context.Context, round *entities.Round) error {
	rows, err := r.q.Query(ctx,
		`SELECT id, round_id, seed, algorithm, value, created_at FROM draws WHERE round_id = $1 ORDER BY id ASC`,
		round.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to query draws: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var draw entities.Draw
		if err := rows.Scan(&draw.ID, &draw.RoundID, &draw.Seed, &draw.Algorithm, &draw.Value, &draw.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan draw: %w", err)
		}
		round.Draws = append(round.Draws, &draw)
	}
	return rows.Err()
}
