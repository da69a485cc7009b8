package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"stakehouse/database"
	"stakehouse/domain/entities"
)

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q Queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

func newUserRepository(tx Queryable) *UserRepository {
	return &UserRepository{q: tx}
}

const userColumns = `id, username, wallet_address, bought_tickets, free_tickets, created_at, updated_at`

func scanUser(row pgx.Row) (*entities.User, error) {
	var user entities.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.WalletAddress,
		&user.BoughtTickets,
		&user.FreeTickets,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &user, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.q.QueryRow(ctx, query, id))
}

// GetByIDs retrieves users for the given IDs
func (r *UserRepository) GetByIDs(ctx context.Context, ids []int64) ([]*entities.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*entities.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, username, walletAddress string) (*entities.User, error) {
	query := `
		INSERT INTO users (username, wallet_address)
		VALUES ($1, $2)
		RETURNING ` + userColumns
	user, err := scanUser(r.q.QueryRow(ctx, query, username, walletAddress))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// AdjustTickets atomically moves both ticket balances. The WHERE clause
// refuses the update when either balance would go negative, so a losing
// race never overdraws.
func (r *UserRepository) AdjustTickets(ctx context.Context, userID, boughtDelta, freeDelta int64) (*entities.User, error) {
	query := `
		UPDATE users
		SET bought_tickets = bought_tickets + $2,
		    free_tickets = free_tickets + $3,
		    updated_at = NOW()
		WHERE id = $1
		  AND bought_tickets + $2 >= 0
		  AND free_tickets + $3 >= 0
		RETURNING ` + userColumns

	user, err := scanUser(r.q.QueryRow(ctx, query, userID, boughtDelta, freeDelta))
	if err != nil {
		return nil, fmt.Errorf("failed to adjust tickets for user %d: %w", userID, err)
	}
	if user == nil {
		return nil, fmt.Errorf("ticket adjustment rejected for user %d (bought %+d, free %+d)", userID, boughtDelta, freeDelta)
	}
	return user, nil
}
