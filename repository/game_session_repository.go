package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"stakehouse/database"
	"stakehouse/domain/entities"
	"stakehouse/domain/interfaces"
)

// GameSessionRepository implements the GameSessionRepository interface
type GameSessionRepository struct {
	q Queryable
}

// NewGameSessionRepository creates a new game session repository
func NewGameSessionRepository(db *database.DB) *GameSessionRepository {
	return &GameSessionRepository{q: db.Pool}
}

func newGameSessionRepository(tx Queryable) *GameSessionRepository {
	return &GameSessionRepository{q: tx}
}

// Create creates a session in the open state
func (r *GameSessionRepository) Create(ctx context.Context, session *entities.GameSession) error {
	query := `
		INSERT INTO game_sessions (user_id, tournament_id, game_type, stake, total_odds, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.q.QueryRow(ctx, query,
		session.UserID,
		session.TournamentID,
		session.GameType,
		session.Stake,
		session.TotalOdds,
		session.Status,
	).Scan(&session.ID, &session.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create game session: %w", err)
	}
	return nil
}

// GetByID retrieves a session by ID
func (r *GameSessionRepository) GetByID(ctx context.Context, id int64) (*entities.GameSession, error) {
	query := `
		SELECT id, user_id, tournament_id, game_type, stake, total_odds, win_amount, status, created_at
		FROM game_sessions
		WHERE id = $1`

	var session entities.GameSession
	err := r.q.QueryRow(ctx, query, id).Scan(
		&session.ID,
		&session.UserID,
		&session.TournamentID,
		&session.GameType,
		&session.Stake,
		&session.TotalOdds,
		&session.WinAmount,
		&session.Status,
		&session.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game session %d: %w", id, err)
	}
	return &session, nil
}

// Finalize writes the settlement fields exactly once: only an open
// session accepts them
func (r *GameSessionRepository) Finalize(ctx context.Context, id int64, status entities.SessionStatus, winAmount int64) error {
	query := `
		UPDATE game_sessions
		SET status = $2, win_amount = $3
		WHERE id = $1 AND status = 'open'`

	tag, err := r.q.Exec(ctx, query, id, status, winAmount)
	if err != nil {
		return fmt.Errorf("failed to finalize game session %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("game session %d is not open", id)
	}
	return nil
}

// PointsByUser aggregates per-user stake points within a tournament
// window. One staked ticket is one point. Ordered highest first with the
// user id breaking ties, so cohort selection is deterministic.
func (r *GameSessionRepository) PointsByUser(ctx context.Context, tournamentID int64) ([]*interfaces.UserPoints, error) {
	query := `
		SELECT user_id, SUM(stake) AS points
		FROM game_sessions
		WHERE tournament_id = $1
		GROUP BY user_id
		ORDER BY points DESC, user_id ASC`

	rows, err := r.q.Query(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate points: %w", err)
	}
	defer rows.Close()

	var points []*interfaces.UserPoints
	for rows.Next() {
		var p interfaces.UserPoints
		if err := rows.Scan(&p.UserID, &p.Points); err != nil {
			return nil, fmt.Errorf("failed to scan points row: %w", err)
		}
		points = append(points, &p)
	}
	return points, rows.Err()
}
