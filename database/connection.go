package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB represents a database connection pool
type DB struct {
	*pgxpool.Pool
}

// NewConnection creates a new database connection pool
func NewConnection(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// All timestamps in the ledger and tournament tables are UTC
	config.ConnConfig.RuntimeParams["timezone"] = "UTC"

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the database connection pool
func (db *DB) Close() {
	db.Pool.Close()
}

// ConstructDatabaseURL combines a base URL with a database name, adding
// sslmode=disable when not already present
func ConstructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return appendSSLMode(baseURL)
	}

	baseURL = strings.TrimRight(baseURL, "/")
	var databaseURL string
	if strings.Contains(baseURL, "?") {
		parts := strings.SplitN(baseURL, "?", 2)
		databaseURL = fmt.Sprintf("%s/%s?%s", parts[0], databaseName, parts[1])
	} else {
		databaseURL = fmt.Sprintf("%s/%s", baseURL, databaseName)
	}

	return appendSSLMode(databaseURL)
}

func appendSSLMode(databaseURL string) string {
	if databaseURL == "" || strings.Contains(databaseURL, "sslmode=") {
		return databaseURL
	}
	separator := "&"
	if !strings.Contains(databaseURL, "?") {
		separator = "?"
	}
	return fmt.Sprintf("%s%ssslmode=disable", databaseURL, separator)
}
