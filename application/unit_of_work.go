package application

import (
	"context"

	"stakehouse/domain/interfaces"
)

// UnitOfWork bundles the repositories of one database transaction. Events
// published through the transactional publisher are flushed on commit and
// discarded on rollback, so no consumer ever observes an uncommitted state.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() interfaces.UserRepository
	GameSessionRepository() interfaces.GameSessionRepository
	RoundRepository() interfaces.RoundRepository
	BlackjackTableRepository() interfaces.BlackjackTableRepository
	TicketLedgerRepository() interfaces.TicketLedgerRepository
	TournamentRepository() interfaces.TournamentRepository
	RewardRepository() interfaces.RewardRepository
	TransactionRepository() interfaces.TransactionRepository
}

// UnitOfWorkFactory creates units of work
type UnitOfWorkFactory interface {
	CreateWithPublisher(publisher interfaces.TransactionalEventPublisher) UnitOfWork
	Create() UnitOfWork
}
