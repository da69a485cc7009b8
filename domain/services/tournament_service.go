package services

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"stakehouse/domain/entities"
	"stakehouse/domain/interfaces"
	"stakehouse/domain/utils"
)

const (
	// rewardPoolShare is the fraction of the payable-ticket pool that is
	// distributed; the remainder stays with the house
	rewardPoolShare = 0.98

	// earningPrecision is the decimal precision earnings are floored to
	earningPrecision = 6
)

type tournamentService struct {
	tournamentRepo  interfaces.TournamentRepository
	sessionRepo     interfaces.GameSessionRepository
	ledgerRepo      interfaces.TicketLedgerRepository
	rewardRepo      interfaces.RewardRepository
	userRepo        interfaces.UserRepository
	transactionRepo interfaces.TransactionRepository
	period          time.Duration
}

// NewTournamentService creates a new tournament service
func NewTournamentService(
	tournamentRepo interfaces.TournamentRepository,
	sessionRepo interfaces.GameSessionRepository,
	ledgerRepo interfaces.TicketLedgerRepository,
	rewardRepo interfaces.RewardRepository,
	userRepo interfaces.UserRepository,
	transactionRepo interfaces.TransactionRepository,
	period time.Duration,
) interfaces.TournamentService {
	return &tournamentService{
		tournamentRepo:  tournamentRepo,
		sessionRepo:     sessionRepo,
		ledgerRepo:      ledgerRepo,
		rewardRepo:      rewardRepo,
		userRepo:        userRepo,
		transactionRepo: transactionRepo,
		period:          period,
	}
}

// EnsureCurrent returns the tournament accepting stakes right now,
// creating the next period if none exists. A new period starts where the
// previous one ended so no stake falls between periods.
func (s *tournamentService) EnsureCurrent(ctx context.Context) (*entities.Tournament, error) {
	now := time.Now().UTC()

	current, err := s.tournamentRepo.GetCurrent(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get current tournament: %w", err)
	}
	if current != nil {
		return current, nil
	}

	latest, err := s.tournamentRepo.GetLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest tournament: %w", err)
	}

	start := now
	if latest != nil && latest.EndAt.After(now.Add(-s.period)) {
		start = latest.EndAt
	}

	tournament := &entities.Tournament{
		StartAt: start,
		EndAt:   start.Add(s.period),
	}
	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	log.WithFields(log.Fields{
		"tournament_id": tournament.ID,
		"start":         tournament.StartAt,
		"end":           tournament.EndAt,
	}).Info("Tournament period created")

	return tournament, nil
}

// Settle runs the transactional settlement of one due tournament. The
// caller owns the surrounding transaction and the retry policy; a
// reconciliation failure must abort the transaction and leave the
// tournament un-disbursed for operator attention.
func (s *tournamentService) Settle(ctx context.Context, tournament *entities.Tournament) (*interfaces.SettlementResult, error) {
	locked, err := s.tournamentRepo.GetByIDForUpdate(ctx, tournament.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock tournament: %w", err)
	}
	if locked == nil {
		return nil, fmt.Errorf("tournament %d not found", tournament.ID)
	}
	if locked.Disbursed {
		return nil, fmt.Errorf("%w: tournament %d already disbursed", ErrStateConflict, locked.ID)
	}

	// No new stakes against the period once settlement has begun
	if !locked.Paused {
		if err := s.tournamentRepo.SetPaused(ctx, locked.ID, true); err != nil {
			return nil, fmt.Errorf("failed to pause tournament: %w", err)
		}
		locked.Paused = true
	}

	points, err := s.sessionRepo.PointsByUser(ctx, locked.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate points: %w", err)
	}

	var totalPoints int64
	for _, p := range points {
		totalPoints += p.Points
	}
	if totalPoints != locked.TotalStakes {
		return nil, fmt.Errorf("%w: tournament %d point total %d does not match stake total %d",
			ErrReconciliation, locked.ID, totalPoints, locked.TotalStakes)
	}

	cohort := points[:entities.CohortSize(len(points))]

	previous, err := s.ledgerRepo.GetLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest ledger entry: %w", err)
	}
	prevState := interfaces.RolloverState{}
	var previousEntryID *int64
	if previous != nil {
		prevState.RolloverTickets = previous.RolloverTickets
		prevState.RolloverRatio = previous.RolloverRatio
		previousEntryID = &previous.ID
	}

	bought, free, err := s.transactionRepo.PeriodTicketTotals(ctx, locked.StartAt, locked.EndAt)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate period ticket totals: %w", err)
	}

	totals := interfaces.PeriodTotals{
		TotalTicketsUsed:   locked.TotalStakes,
		TotalFreeTickets:   free,
		TotalTicketsBought: bought,
	}

	rollover, err := CalculatePayableTickets(prevState, totals)
	if err != nil {
		return nil, err
	}

	result := &interfaces.SettlementResult{
		Tournament:      locked,
		PayableTickets:  rollover.PayableTickets,
		RolloverTickets: rollover.RolloverTickets,
	}

	if len(cohort) > 0 {
		var cohortPoints int64
		for _, member := range cohort {
			cohortPoints += member.Points
		}

		pool := rollover.PayableTickets * rewardPoolShare

		rewards := make([]*entities.Reward, 0, len(cohort))
		for _, member := range cohort {
			earning := utils.FloorTo(pool*float64(member.Points)/float64(cohortPoints), earningPrecision)
			rewards = append(rewards, &entities.Reward{
				UserID:       member.UserID,
				TournamentID: locked.ID,
				Points:       member.Points,
				Earning:      earning,
				Claimed:      entities.RewardClaimDefault,
			})
			result.TotalEarning += earning
		}

		if err := s.rewardRepo.CreateBatch(ctx, rewards); err != nil {
			return nil, fmt.Errorf("failed to create rewards: %w", err)
		}
		result.Rewards = rewards

		entries, err := s.paymentEntries(ctx, rewards)
		if err != nil {
			return nil, err
		}
		result.Entries = entries
	}

	entry := &entities.TicketLedgerEntry{
		TournamentID:    &locked.ID,
		BoughtTickets:   bought,
		FreeTickets:     free,
		UsedTickets:     locked.TotalStakes,
		RolloverTickets: rollover.RolloverTickets,
		RolloverRatio:   rollover.RolloverRatio,
		PreviousEntryID: previousEntryID,
	}
	if err := s.ledgerRepo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	if err := s.tournamentRepo.MarkDisbursed(ctx, locked.ID, int64(len(points))); err != nil {
		return nil, fmt.Errorf("failed to mark disbursed: %w", err)
	}
	locked.Disbursed = true
	locked.UniqueUsers = int64(len(points))

	if _, err := s.EnsureCurrent(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure next tournament: %w", err)
	}

	log.WithFields(log.Fields{
		"tournament_id":    locked.ID,
		"participants":     len(points),
		"cohort_size":      len(cohort),
		"payable_tickets":  rollover.PayableTickets,
		"rollover_tickets": rollover.RolloverTickets,
		"total_earning":    result.TotalEarning,
	}).Info("Tournament settled")

	return result, nil
}

// paymentEntries maps rewards to broadcaster entries using each member's
// wallet address
func (s *tournamentService) paymentEntries(ctx context.Context, rewards []*entities.Reward) ([]interfaces.PaymentEntry, error) {
	ids := make([]int64, 0, len(rewards))
	for _, reward := range rewards {
		ids = append(ids, reward.UserID)
	}

	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load cohort users: %w", err)
	}
	addresses := make(map[int64]string, len(users))
	for _, user := range users {
		addresses[user.ID] = user.WalletAddress
	}

	entries := make([]interfaces.PaymentEntry, 0, len(rewards))
	for _, reward := range rewards {
		address, ok := addresses[reward.UserID]
		if !ok || address == "" {
			log.WithField("user_id", reward.UserID).Warn("Cohort member without wallet address, skipping payment entry")
			continue
		}
		entries = append(entries, interfaces.PaymentEntry{
			Address: address,
			Amount:  reward.Earning,
		})
	}
	return entries, nil
}
