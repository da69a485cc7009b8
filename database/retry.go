package database

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	log "github.com/sirupsen/logrus"
)

// Transient SQLSTATE codes worth retrying: serialization failures and
// deadlocks resolve themselves once the competing transaction finishes.
const (
	sqlstateSerializationFailure = "40001"
	sqlstateDeadlockDetected     = "40P01"
)

// RetryPolicy bounds how often a transactional block is re-attempted after
// a transient storage conflict. Any non-transient error aborts immediately.
type RetryPolicy struct {
	MaxAttempts uint
	Delay       time.Duration
}

// NewRetryPolicy creates a policy with bounded attempts and a fixed delay
func NewRetryPolicy(maxAttempts uint, delay time.Duration) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Delay:       delay,
	}
}

// IsTransient reports whether the error is a storage conflict that a retry
// can reasonably resolve
func IsTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == sqlstateSerializationFailure || pgErr.Code == sqlstateDeadlockDetected
	}
	return false
}

// Execute runs fn, retrying on transient storage conflicts up to the
// policy's attempt bound. Non-transient errors are returned as-is.
func (p RetryPolicy) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	attempt := uint(0)
	operation := func() error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if IsTransient(err) {
			log.WithError(err).WithField("attempt", attempt).Warn("Transient storage conflict, retrying")
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), uint64(p.MaxAttempts-1)), ctx)
	return backoff.Retry(operation, policy)
}
