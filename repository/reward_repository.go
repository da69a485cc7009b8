package repository

import (
	"context"
	"fmt"

	"stakehouse/database"
	"stakehouse/domain/entities"
)

// RewardRepository implements the RewardRepository interface
type RewardRepository struct {
	q Queryable
}

// NewRewardRepository creates a new reward repository
func NewRewardRepository(db *database.DB) *RewardRepository {
	return &RewardRepository{q: db.Pool}
}

func newRewardRepository(tx Queryable) *RewardRepository {
	return &RewardRepository{q: tx}
}

// CreateBatch inserts one reward per cohort member. The unique constraint
// on (user, tournament) makes a duplicated settlement fail loudly instead
// of paying twice.
func (r *RewardRepository) CreateBatch(ctx context.Context, rewards []*entities.Reward) error {
	for _, reward := range rewards {
		query := `
			INSERT INTO rewards (user_id, tournament_id, points, earning, claimed, claimable)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at`

		err := r.q.QueryRow(ctx, query,
			reward.UserID,
			reward.TournamentID,
			reward.Points,
			reward.Earning,
			reward.Claimed,
			reward.Claimable,
		).Scan(&reward.ID, &reward.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create reward for user %d: %w", reward.UserID, err)
		}
	}
	return nil
}

// GetByTournament retrieves all rewards for a tournament
func (r *RewardRepository) GetByTournament(ctx context.Context, tournamentID int64) ([]*entities.Reward, error) {
	query := `
		SELECT id, user_id, tournament_id, points, earning, claimed, claimable, created_at
		FROM rewards
		WHERE tournament_id = $1
		ORDER BY points DESC, user_id ASC`

	rows, err := r.q.Query(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rewards: %w", err)
	}
	defer rows.Close()

	var rewards []*entities.Reward
	for rows.Next() {
		var reward entities.Reward
		err := rows.Scan(
			&reward.ID,
			&reward.UserID,
			&reward.TournamentID,
			&reward.Points,
			&reward.Earning,
			&reward.Claimed,
			&reward.Claimable,
			&reward.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reward: %w", err)
		}
		rewards = append(rewards, &reward)
	}
	return rewards, rows.Err()
}

// UpdateClaimState transitions the claim state of a reward
func (r *RewardRepository) UpdateClaimState(ctx context.Context, id int64, state entities.RewardClaimState, claimable bool) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE rewards SET claimed = $2, claimable = $3 WHERE id = $1`,
		id, state, claimable,
	)
	if err != nil {
		return fmt.Errorf("failed to update reward %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reward %d not found", id)
	}
	return nil
}

// UpdateClaimStateByTournament transitions every reward of a tournament
func (r *RewardRepository) UpdateClaimStateByTournament(ctx context.Context, tournamentID int64, state entities.RewardClaimState) error {
	if _, err := r.q.Exec(ctx,
		`UPDATE rewards SET claimed = $2 WHERE tournament_id = $1`,
		tournamentID, state,
	); err != nil {
		return fmt.Errorf("failed to update rewards for tournament %d: %w", tournamentID, err)
	}
	return nil
}
