package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"stakehouse/database"
	"stakehouse/domain/entities"
)

// TournamentRepository implements the TournamentRepository interface
type TournamentRepository struct {
	q Queryable
}

// NewTournamentRepository creates a new tournament repository
func NewTournamentRepository(db *database.DB) *TournamentRepository {
	return &TournamentRepository{q: db.Pool}
}

func newTournamentRepository(tx Queryable) *TournamentRepository {
	return &TournamentRepository{q: tx}
}

const tournamentColumns = `id, start_at, end_at, paused, disbursed, total_stakes, unique_users, created_at`

func scanTournament(row pgx.Row) (*entities.Tournament, error) {
	var t entities.Tournament
	err := row.Scan(
		&t.ID,
		&t.StartAt,
		&t.EndAt,
		&t.Paused,
		&t.Disbursed,
		&t.TotalStakes,
		&t.UniqueUsers,
		&t.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan tournament: %w", err)
	}
	return &t, nil
}

// GetCurrent returns the tournament accepting stakes at now, or nil
func (r *TournamentRepository) GetCurrent(ctx context.Context, now time.Time) (*entities.Tournament, error) {
	query := `
		SELECT ` + tournamentColumns + `
		FROM tournaments
		WHERE start_at <= $1 AND end_at > $1 AND NOT paused AND NOT disbursed
		ORDER BY start_at DESC
		LIMIT 1`
	return scanTournament(r.q.QueryRow(ctx, query, now))
}

// GetLatest returns the most recently created tournament, or nil
func (r *TournamentRepository) GetLatest(ctx context.Context) (*entities.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments ORDER BY end_at DESC LIMIT 1`
	return scanTournament(r.q.QueryRow(ctx, query))
}

// GetDue returns un-disbursed tournaments whose end falls within the
// grace window before now or has already passed
func (r *TournamentRepository) GetDue(ctx context.Context, now time.Time, grace time.Duration) ([]*entities.Tournament, error) {
	query := `
		SELECT ` + tournamentColumns + `
		FROM tournaments
		WHERE NOT disbursed AND end_at < $1
		ORDER BY end_at ASC`

	rows, err := r.q.Query(ctx, query, now.Add(grace))
	if err != nil {
		return nil, fmt.Errorf("failed to query due tournaments: %w", err)
	}
	defer rows.Close()

	var tournaments []*entities.Tournament
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			return nil, err
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}

// GetByIDForUpdate locks a tournament row for settlement. Two settlement
// sweeps racing on the same period serialize here.
func (r *TournamentRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1 FOR UPDATE`
	return scanTournament(r.q.QueryRow(ctx, query, id))
}

// Create creates a new tournament period
func (r *TournamentRepository) Create(ctx context.Context, tournament *entities.Tournament) error {
	query := `
		INSERT INTO tournaments (start_at, end_at)
		VALUES ($1, $2)
		RETURNING id, paused, disbursed, total_stakes, unique_users, created_at`

	err := r.q.QueryRow(ctx, query, tournament.StartAt, tournament.EndAt).Scan(
		&tournament.ID,
		&tournament.Paused,
		&tournament.Disbursed,
		&tournament.TotalStakes,
		&tournament.UniqueUsers,
		&tournament.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create tournament: %w", err)
	}
	return nil
}

// RecordStake accumulates a stake into the tournament's totals
func (r *TournamentRepository) RecordStake(ctx context.Context, id int64, stake int64) error {
	query := `
		UPDATE tournaments
		SET total_stakes = total_stakes + $2
		WHERE id = $1 AND NOT paused AND NOT disbursed`

	tag, err := r.q.Exec(ctx, query, id, stake)
	if err != nil {
		return fmt.Errorf("failed to record stake: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tournament %d does not accept stakes", id)
	}
	return nil
}

// SetPaused pauses or resumes stake placement
func (r *TournamentRepository) SetPaused(ctx context.Context, id int64, paused bool) error {
	if _, err := r.q.Exec(ctx, `UPDATE tournaments SET paused = $2 WHERE id = $1`, id, paused); err != nil {
		return fmt.Errorf("failed to set paused on tournament %d: %w", id, err)
	}
	return nil
}

// MarkDisbursed marks the tournament terminal with its final totals
func (r *TournamentRepository) MarkDisbursed(ctx context.Context, id int64, uniqueUsers int64) error {
	query := `
		UPDATE tournaments
		SET disbursed = TRUE, unique_users = $2
		WHERE id = $1 AND NOT disbursed`

	tag, err := r.q.Exec(ctx, query, id, uniqueUsers)
	if err != nil {
		return fmt.Errorf("failed to mark tournament %d disbursed: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tournament %d already disbursed", id)
	}
	return nil
}
