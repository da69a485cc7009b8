package services

import "errors"

// Error kinds surfaced by the domain services. Callers branch on these with
// errors.Is to decide between rejecting a request, retrying, or paging an
// operator.
var (
	// ErrInvalidBet is a malformed bet shape, rejected before any draw is
	// consumed
	ErrInvalidBet = errors.New("invalid bet")

	// ErrInsufficientBalance is a stake the user's tickets cannot cover
	ErrInsufficientBalance = errors.New("insufficient ticket balance")

	// ErrTableNotFound is an operation against an unknown table
	ErrTableNotFound = errors.New("table not found")

	// ErrSeatNotFound is an operation by a user with no seat at the table
	ErrSeatNotFound = errors.New("no seat at table for user")

	// ErrStateConflict is an operation the current state forbids; nothing
	// was mutated
	ErrStateConflict = errors.New("state conflict")

	// ErrReconciliation signals ledger corruption. Settlement must halt
	// for the affected tournament; the condition is never silently coerced.
	ErrReconciliation = errors.New("ledger reconciliation failure")
)
