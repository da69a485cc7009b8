package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stakehouse/domain/entities"
	"stakehouse/domain/interfaces"
	"stakehouse/domain/testhelpers"
)

type tournamentFixture struct {
	tournamentRepo  *testhelpers.MockTournamentRepository
	sessionRepo     *testhelpers.MockGameSessionRepository
	ledgerRepo      *testhelpers.MockTicketLedgerRepository
	rewardRepo      *testhelpers.MockRewardRepository
	userRepo        *testhelpers.MockUserRepository
	transactionRepo *testhelpers.MockTransactionRepository
}

func newTournamentFixture() *tournamentFixture {
	return &tournamentFixture{
		tournamentRepo:  new(testhelpers.MockTournamentRepository),
		sessionRepo:     new(testhelpers.MockGameSessionRepository),
		ledgerRepo:      new(testhelpers.MockTicketLedgerRepository),
		rewardRepo:      new(testhelpers.MockRewardRepository),
		userRepo:        new(testhelpers.MockUserRepository),
		transactionRepo: new(testhelpers.MockTransactionRepository),
	}
}

func (f *tournamentFixture) service(period time.Duration) interfaces.TournamentService {
	return NewTournamentService(
		f.tournamentRepo, f.sessionRepo, f.ledgerRepo, f.rewardRepo, f.userRepo, f.transactionRepo, period,
	)
}

func TestTournamentService_EnsureCurrent_ReturnsOpenTournament(t *testing.T) {
	f := newTournamentFixture()
	ctx := context.Background()

	open := &entities.Tournament{ID: 1}
	f.tournamentRepo.On("GetCurrent", ctx, mock.AnythingOfType("time.Time")).Return(open, nil)

	got, err := f.service(168 * time.Hour).EnsureCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, open, got)

	f.tournamentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTournamentService_EnsureCurrent_ChainsFromPreviousEnd(t *testing.T) {
	f := newTournamentFixture()
	ctx := context.Background()
	period := 168 * time.Hour

	lastEnd := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	f.tournamentRepo.On("GetCurrent", ctx, mock.AnythingOfType("time.Time")).Return(nil, nil)
	f.tournamentRepo.On("GetLatest", ctx).Return(&entities.Tournament{ID: 1, EndAt: lastEnd}, nil)

	// the new period starts exactly where the previous one ended
	f.tournamentRepo.On("Create", ctx, mock.MatchedBy(func(tn *entities.Tournament) bool {
		return tn.StartAt.Equal(lastEnd) && tn.EndAt.Equal(lastEnd.Add(period))
	})).Return(nil)

	_, err := f.service(period).EnsureCurrent(ctx)
	require.NoError(t, err)

	f.tournamentRepo.AssertExpectations(t)
}

func TestTournamentService_EnsureCurrent_StaleHistoryStartsNow(t *testing.T) {
	f := newTournamentFixture()
	ctx := context.Background()
	period := 168 * time.Hour

	// the latest period ended more than a full period ago, so chaining
	// from it would create a tournament that is already over
	staleEnd := time.Now().UTC().Add(-2 * period)
	f.tournamentRepo.On("GetCurrent", ctx, mock.AnythingOfType("time.Time")).Return(nil, nil)
	f.tournamentRepo.On("GetLatest", ctx).Return(&entities.Tournament{ID: 1, EndAt: staleEnd}, nil)
	f.tournamentRepo.On("Create", ctx, mock.MatchedBy(func(tn *entities.Tournament) bool {
		return tn.StartAt.After(staleEnd.Add(period))
	})).Return(nil)

	_, err := f.service(period).EnsureCurrent(ctx)
	require.NoError(t, err)
}

func TestTournamentService_Settle(t *testing.T) {
	f := newTournamentFixture()
	ctx := context.Background()

	start := time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)
	end := start.Add(168 * time.Hour)
	tournament := &entities.Tournament{ID: 1, StartAt: start, EndAt: end, TotalStakes: 100}

	f.tournamentRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(tournament, nil)
	f.tournamentRepo.On("SetPaused", ctx, int64(1), true).Return(nil)

	// two participants; a field of two rewards one
	f.sessionRepo.On("PointsByUser", ctx, int64(1)).Return([]*interfaces.UserPoints{
		{UserID: 10, Points: 60},
		{UserID: 20, Points: 40},
	}, nil)

	f.ledgerRepo.On("GetLatest", ctx).Return(nil, nil)
	f.transactionRepo.On("PeriodTicketTotals", ctx, start, end).Return(int64(200), int64(0), nil)

	f.userRepo.On("GetByIDs", ctx, []int64{10}).
		Return([]*entities.User{{ID: 10, WalletAddress: "addr-10"}}, nil)

	f.rewardRepo.On("CreateBatch", ctx, mock.MatchedBy(func(rewards []*entities.Reward) bool {
		return len(rewards) == 1 &&
			rewards[0].UserID == 10 &&
			rewards[0].Points == 60 &&
			rewards[0].Earning == 98.0 && // 98% of the 100 payable tickets
			rewards[0].Claimed == entities.RewardClaimDefault
	})).Return(nil)

	f.ledgerRepo.On("Create", ctx, mock.MatchedBy(func(entry *entities.TicketLedgerEntry) bool {
		return entry.BoughtTickets == 200 &&
			entry.FreeTickets == 0 &&
			entry.UsedTickets == 100 &&
			entry.RolloverTickets == 100.0 &&
			entry.RolloverRatio == int64(entities.RatioScale) &&
			entry.PreviousEntryID == nil &&
			*entry.TournamentID == 1
	})).Return(nil)

	f.tournamentRepo.On("MarkDisbursed", ctx, int64(1), int64(2)).Return(nil)

	// the next period already exists
	f.tournamentRepo.On("GetCurrent", ctx, mock.AnythingOfType("time.Time")).
		Return(&entities.Tournament{ID: 2}, nil)

	result, err := f.service(168*time.Hour).Settle(ctx, tournament)
	require.NoError(t, err)

	assert.InDelta(t, 100.0, result.PayableTickets, 1e-9)
	assert.InDelta(t, 100.0, result.RolloverTickets, 1e-9)
	assert.InDelta(t, 98.0, result.TotalEarning, 1e-9)
	require.Len(t, result.Rewards, 1)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "addr-10", result.Entries[0].Address)
	assert.InDelta(t, 98.0, result.Entries[0].Amount, 1e-9)

	f.tournamentRepo.AssertExpectations(t)
	f.sessionRepo.AssertExpectations(t)
	f.ledgerRepo.AssertExpectations(t)
	f.rewardRepo.AssertExpectations(t)
	f.transactionRepo.AssertExpectations(t)
}

func TestTournamentService_Settle_ProportionalDistributionNeverOverAllocates(t *testing.T) {
	f := newTournamentFixture()
	ctx := context.Background()

	start := time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)
	end := start.Add(168 * time.Hour)
	tournament := &entities.Tournament{ID: 1, StartAt: start, EndAt: end, TotalStakes: 100}

	f.tournamentRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(tournament, nil)
	f.tournamentRepo.On("SetPaused", ctx, int64(1), true).Return(nil)

	// seven participants put the cohort at ceil(7/3) = 3; uneven point
	// shares force floor rounding on every earning
	f.sessionRepo.On("PointsByUser", ctx, int64(1)).Return([]*interfaces.UserPoints{
		{UserID: 1, Points: 30},
		{UserID: 2, Points: 25},
		{UserID: 3, Points: 17},
		{UserID: 4, Points: 13},
		{UserID: 5, Points: 8},
		{UserID: 6, Points: 4},
		{UserID: 7, Points: 3},
	}, nil)

	f.ledgerRepo.On("GetLatest", ctx).Return(nil, nil)
	f.transactionRepo.On("PeriodTicketTotals", ctx, start, end).Return(int64(100), int64(0), nil)
	f.userRepo.On("GetByIDs", ctx, mock.Anything).Return([]*entities.User{
		{ID: 1, WalletAddress: "a1"}, {ID: 2, WalletAddress: "a2"}, {ID: 3, WalletAddress: "a3"},
	}, nil)

	var created []*entities.Reward
	f.rewardRepo.On("CreateBatch", ctx, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		created = args.Get(1).([]*entities.Reward)
	})
	f.ledgerRepo.On("Create", ctx, mock.Anything).Return(nil)
	f.tournamentRepo.On("MarkDisbursed", ctx, int64(1), int64(7)).Return(nil)
	f.tournamentRepo.On("GetCurrent", ctx, mock.AnythingOfType("time.Time")).
		Return(&entities.Tournament{ID: 2}, nil)

	result, err := f.service(168*time.Hour).Settle(ctx, tournament)
	require.NoError(t, err)

	require.Len(t, created, 3)
	pool := result.PayableTickets * 0.98
	var distributed float64
	for _, reward := range created {
		distributed += reward.Earning
	}
	assert.LessOrEqual(t, distributed, pool, "floor rounding must never over-allocate")
	assert.InDelta(t, pool, distributed, 3e-6)
}

func TestTournamentService_Settle_PointMismatchIsFatal(t *testing.T) {
	f := newTournamentFixture()
	ctx := context.Background()

	tournament := &entities.Tournament{ID: 1, TotalStakes: 100}
	f.tournamentRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(tournament, nil)
	f.tournamentRepo.On("SetPaused", ctx, int64(1), true).Return(nil)

	// the per-round aggregate disagrees with the accumulated stake total
	f.sessionRepo.On("PointsByUser", ctx, int64(1)).Return([]*interfaces.UserPoints{
		{UserID: 10, Points: 60},
	}, nil)

	_, err := f.service(168*time.Hour).Settle(ctx, tournament)
	assert.ErrorIs(t, err, ErrReconciliation)

	f.rewardRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	f.tournamentRepo.AssertNotCalled(t, "MarkDisbursed", mock.Anything, mock.Anything, mock.Anything)
}

func TestTournamentService_Settle_AlreadyDisbursed(t *testing.T) {
	f := newTournamentFixture()
	ctx := context.Background()

	tournament := &entities.Tournament{ID: 1}
	f.tournamentRepo.On("GetByIDForUpdate", ctx, int64(1)).
		Return(&entities.Tournament{ID: 1, Disbursed: true}, nil)

	_, err := f.service(168*time.Hour).Settle(ctx, tournament)
	assert.ErrorIs(t, err, ErrStateConflict)
}

func TestTournamentService_Settle_EmptyFieldPaysNobody(t *testing.T) {
	f := newTournamentFixture()
	ctx := context.Background()

	start := time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)
	end := start.Add(168 * time.Hour)
	tournament := &entities.Tournament{ID: 1, StartAt: start, EndAt: end}

	f.tournamentRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(tournament, nil)
	f.tournamentRepo.On("SetPaused", ctx, int64(1), true).Return(nil)
	f.sessionRepo.On("PointsByUser", ctx, int64(1)).Return([]*interfaces.UserPoints{}, nil)
	f.ledgerRepo.On("GetLatest", ctx).Return(nil, nil)
	f.transactionRepo.On("PeriodTicketTotals", ctx, start, end).Return(int64(0), int64(0), nil)
	f.ledgerRepo.On("Create", ctx, mock.Anything).Return(nil)
	f.tournamentRepo.On("MarkDisbursed", ctx, int64(1), int64(0)).Return(nil)
	f.tournamentRepo.On("GetCurrent", ctx, mock.AnythingOfType("time.Time")).
		Return(&entities.Tournament{ID: 2}, nil)

	result, err := f.service(168*time.Hour).Settle(ctx, tournament)
	require.NoError(t, err)

	assert.Empty(t, result.Rewards)
	assert.Empty(t, result.Entries)
	assert.Zero(t, result.TotalEarning)

	f.rewardRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
}
