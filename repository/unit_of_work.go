package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"stakehouse/application"
	"stakehouse/database"
	"stakehouse/domain/interfaces"
)

// unitOfWork implements the application.UnitOfWork interface
type unitOfWork struct {
	db                     *database.DB
	tx                     pgx.Tx
	ctx                    context.Context
	transactionalPublisher interfaces.TransactionalEventPublisher

	userRepo        interfaces.UserRepository
	sessionRepo     interfaces.GameSessionRepository
	roundRepo       interfaces.RoundRepository
	blackjackRepo   interfaces.BlackjackTableRepository
	ledgerRepo      interfaces.TicketLedgerRepository
	tournamentRepo  interfaces.TournamentRepository
	rewardRepo      interfaces.RewardRepository
	transactionRepo interfaces.TransactionRepository
}

type unitOfWorkFactory struct {
	db *database.DB
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB) application.UnitOfWorkFactory {
	return &unitOfWorkFactory{db: db}
}

// CreateWithPublisher creates a unit of work whose events buffer until
// commit
func (f *unitOfWorkFactory) CreateWithPublisher(publisher interfaces.TransactionalEventPublisher) application.UnitOfWork {
	return &unitOfWork{
		db:                     f.db,
		transactionalPublisher: publisher,
	}
}

// Create creates a unit of work without event publishing
func (f *unitOfWorkFactory) Create() application.UnitOfWork {
	return &unitOfWork{db: f.db}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.userRepo = newUserRepository(tx)
	u.sessionRepo = newGameSessionRepository(tx)
	u.roundRepo = newRoundRepository(tx)
	u.blackjackRepo = newBlackjackTableRepository(tx)
	u.ledgerRepo = newTicketLedgerRepository(tx)
	u.tournamentRepo = newTournamentRepository(tx)
	u.rewardRepo = newRewardRepository(tx)
	u.transactionRepo = newTransactionRepository(tx)

	return nil
}

// Commit commits the transaction and flushes any buffered events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	u.tx = nil

	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Flush(u.ctx)
	}
	return nil
}

// Rollback rolls back the transaction and discards any buffered events
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	u.tx = nil

	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Discard()
	}
	return nil
}

func (u *unitOfWork) UserRepository() interfaces.UserRepository {
	if u.userRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.userRepo
}

func (u *unitOfWork) GameSessionRepository() interfaces.GameSessionRepository {
	if u.sessionRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.sessionRepo
}

func (u *unitOfWork) RoundRepository() interfaces.RoundRepository {
	if u.roundRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.roundRepo
}

func (u *unitOfWork) BlackjackTableRepository() interfaces.BlackjackTableRepository {
	if u.blackjackRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.blackjackRepo
}

func (u *unitOfWork) TicketLedgerRepository() interfaces.TicketLedgerRepository {
	if u.ledgerRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.ledgerRepo
}

func (u *unitOfWork) TournamentRepository() interfaces.TournamentRepository {
	if u.tournamentRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.tournamentRepo
}

func (u *unitOfWork) RewardRepository() interfaces.RewardRepository {
	if u.rewardRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.rewardRepo
}

func (u *unitOfWork) TransactionRepository() interfaces.TransactionRepository {
	if u.transactionRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionRepo
}
