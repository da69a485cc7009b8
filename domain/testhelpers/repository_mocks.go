package testhelpers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"stakehouse/domain/entities"
	"stakehouse/domain/events"
	"stakehouse/domain/interfaces"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) GetByIDs(ctx context.Context, ids []int64) ([]*entities.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, username, walletAddress string) (*entities.User, error) {
	args := m.Called(ctx, username, walletAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) AdjustTickets(ctx context.Context, userID, boughtDelta, freeDelta int64) (*entities.User, error) {
	args := m.Called(ctx, userID, boughtDelta, freeDelta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

// MockGameSessionRepository is a mock implementation of GameSessionRepository
type MockGameSessionRepository struct {
	mock.Mock
}

func (m *MockGameSessionRepository) Create(ctx context.Context, session *entities.GameSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockGameSessionRepository) GetByID(ctx context.Context, id int64) (*entities.GameSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GameSession), args.Error(1)
}

func (m *MockGameSessionRepository) Finalize(ctx context.Context, id int64, status entities.SessionStatus, winAmount int64) error {
	args := m.Called(ctx, id, status, winAmount)
	return args.Error(0)
}

func (m *MockGameSessionRepository) PointsByUser(ctx context.Context, tournamentID int64) ([]*interfaces.UserPoints, error) {
	args := m.Called(ctx, tournamentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*interfaces.UserPoints), args.Error(1)
}

// MockRoundRepository is a mock implementation of RoundRepository
type MockRoundRepository struct {
	mock.Mock
}

func (m *MockRoundRepository) Create(ctx context.Context, round *entities.Round) error {
	args := m.Called(ctx, round)
	return args.Error(0)
}

func (m *MockRoundRepository) GetBySession(ctx context.Context, sessionID int64) ([]*entities.Round, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Round), args.Error(1)
}

// MockBlackjackTableRepository is a mock implementation of BlackjackTableRepository
type MockBlackjackTableRepository struct {
	mock.Mock
}

func (m *MockBlackjackTableRepository) Upsert(ctx context.Context, table *entities.BlackjackTable) error {
	args := m.Called(ctx, table)
	return args.Error(0)
}

func (m *MockBlackjackTableRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBlackjackTableRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.BlackjackTable, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BlackjackTable), args.Error(1)
}

// MockTicketLedgerRepository is a mock implementation of TicketLedgerRepository
type MockTicketLedgerRepository struct {
	mock.Mock
}

func (m *MockTicketLedgerRepository) GetLatest(ctx context.Context) (*entities.TicketLedgerEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TicketLedgerEntry), args.Error(1)
}

func (m *MockTicketLedgerRepository) Create(ctx context.Context, entry *entities.TicketLedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// MockTournamentRepository is a mock implementation of TournamentRepository
type MockTournamentRepository struct {
	mock.Mock
}

func (m *MockTournamentRepository) GetCurrent(ctx context.Context, now time.Time) (*entities.Tournament, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Tournament), args.Error(1)
}

func (m *MockTournamentRepository) GetLatest(ctx context.Context) (*entities.Tournament, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Tournament), args.Error(1)
}

func (m *MockTournamentRepository) GetDue(ctx context.Context, now time.Time, grace time.Duration) ([]*entities.Tournament, error) {
	args := m.Called(ctx, now, grace)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Tournament), args.Error(1)
}

func (m *MockTournamentRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Tournament, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Tournament), args.Error(1)
}

func (m *MockTournamentRepository) Create(ctx context.Context, tournament *entities.Tournament) error {
	args := m.Called(ctx, tournament)
	return args.Error(0)
}

func (m *MockTournamentRepository) RecordStake(ctx context.Context, id int64, stake int64) error {
	args := m.Called(ctx, id, stake)
	return args.Error(0)
}

func (m *MockTournamentRepository) SetPaused(ctx context.Context, id int64, paused bool) error {
	args := m.Called(ctx, id, paused)
	return args.Error(0)
}

func (m *MockTournamentRepository) MarkDisbursed(ctx context.Context, id int64, uniqueUsers int64) error {
	args := m.Called(ctx, id, uniqueUsers)
	return args.Error(0)
}

// MockRewardRepository is a mock implementation of RewardRepository
type MockRewardRepository struct {
	mock.Mock
}

func (m *MockRewardRepository) CreateBatch(ctx context.Context, rewards []*entities.Reward) error {
	args := m.Called(ctx, rewards)
	return args.Error(0)
}

func (m *MockRewardRepository) GetByTournament(ctx context.Context, tournamentID int64) ([]*entities.Reward, error) {
	args := m.Called(ctx, tournamentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Reward), args.Error(1)
}

func (m *MockRewardRepository) UpdateClaimState(ctx context.Context, id int64, state entities.RewardClaimState, claimable bool) error {
	args := m.Called(ctx, id, state, claimable)
	return args.Error(0)
}

func (m *MockRewardRepository) UpdateClaimStateByTournament(ctx context.Context, tournamentID int64, state entities.RewardClaimState) error {
	args := m.Called(ctx, tournamentID, state)
	return args.Error(0)
}

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Upsert(ctx context.Context, tx *entities.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByTxID(ctx context.Context, txID string) (*entities.Transaction, error) {
	args := m.Called(ctx, txID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetPending(ctx context.Context) ([]*entities.Transaction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) PeriodTicketTotals(ctx context.Context, from, to time.Time) (int64, int64, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockPaymentBroadcaster is a mock implementation of PaymentBroadcaster
type MockPaymentBroadcaster struct {
	mock.Mock
}

func (m *MockPaymentBroadcaster) BroadcastBatch(ctx context.Context, tournamentID int64, entries []interfaces.PaymentEntry) (string, error) {
	args := m.Called(ctx, tournamentID, entries)
	return args.String(0), args.Error(1)
}

// MockJobQueue is a mock implementation of JobQueue
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) Submit(ctx context.Context, name interfaces.JobName, payload any) error {
	args := m.Called(ctx, name, payload)
	return args.Error(0)
}
