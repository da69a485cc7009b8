package application

import (
	"context"

	"stakehouse/domain/events"
	"stakehouse/domain/interfaces"
	"stakehouse/domain/testhelpers"
)

// mockUnitOfWork exposes the shared repository mocks without a database.
// Begin/Commit/Rollback only count calls; every attempt shares the same
// mocks so tests can assert across transactions.
type mockUnitOfWork struct {
	users        *testhelpers.MockUserRepository
	sessions     *testhelpers.MockGameSessionRepository
	rounds       *testhelpers.MockRoundRepository
	blackjack    *testhelpers.MockBlackjackTableRepository
	ledger       *testhelpers.MockTicketLedgerRepository
	tournaments  *testhelpers.MockTournamentRepository
	rewards      *testhelpers.MockRewardRepository
	transactions *testhelpers.MockTransactionRepository

	commits   int
	rollbacks int
}

func newMockUnitOfWork() *mockUnitOfWork {
	return &mockUnitOfWork{
		users:        new(testhelpers.MockUserRepository),
		sessions:     new(testhelpers.MockGameSessionRepository),
		rounds:       new(testhelpers.MockRoundRepository),
		blackjack:    new(testhelpers.MockBlackjackTableRepository),
		ledger:       new(testhelpers.MockTicketLedgerRepository),
		tournaments:  new(testhelpers.MockTournamentRepository),
		rewards:      new(testhelpers.MockRewardRepository),
		transactions: new(testhelpers.MockTransactionRepository),
	}
}

func (u *mockUnitOfWork) Begin(ctx context.Context) error { return nil }
func (u *mockUnitOfWork) Commit() error                   { u.commits++; return nil }
func (u *mockUnitOfWork) Rollback() error                 { u.rollbacks++; return nil }

func (u *mockUnitOfWork) UserRepository() interfaces.UserRepository { return u.users }
func (u *mockUnitOfWork) GameSessionRepository() interfaces.GameSessionRepository {
	return u.sessions
}
func (u *mockUnitOfWork) RoundRepository() interfaces.RoundRepository { return u.rounds }
func (u *mockUnitOfWork) BlackjackTableRepository() interfaces.BlackjackTableRepository {
	return u.blackjack
}
func (u *mockUnitOfWork) TicketLedgerRepository() interfaces.TicketLedgerRepository {
	return u.ledger
}
func (u *mockUnitOfWork) TournamentRepository() interfaces.TournamentRepository {
	return u.tournaments
}
func (u *mockUnitOfWork) RewardRepository() interfaces.RewardRepository { return u.rewards }
func (u *mockUnitOfWork) TransactionRepository() interfaces.TransactionRepository {
	return u.transactions
}

// mockUnitOfWorkFactory hands out the same unit of work for every call
type mockUnitOfWorkFactory struct {
	uow *mockUnitOfWork
}

func newMockUnitOfWorkFactory() *mockUnitOfWorkFactory {
	return &mockUnitOfWorkFactory{uow: newMockUnitOfWork()}
}

func (f *mockUnitOfWorkFactory) CreateWithPublisher(publisher interfaces.TransactionalEventPublisher) UnitOfWork {
	return f.uow
}

func (f *mockUnitOfWorkFactory) Create() UnitOfWork { return f.uow }

// recordingPublisher collects published events for assertions
type recordingPublisher struct {
	published []events.Event
	flushed   int
	discarded int
}

func (p *recordingPublisher) Publish(event events.Event) error {
	p.published = append(p.published, event)
	return nil
}

func (p *recordingPublisher) Flush(ctx context.Context) error { p.flushed++; return nil }
func (p *recordingPublisher) Discard()                        { p.discarded++ }
