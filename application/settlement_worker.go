package application

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"stakehouse/database"
	"stakehouse/domain/entities"
	"stakehouse/domain/events"
	"stakehouse/domain/interfaces"
	"stakehouse/domain/services"
)

// settlementRunTimeout bounds a single sweep so a wedged settlement
// cannot block the next scheduled run forever.
const settlementRunTimeout = 10 * time.Minute

// SettlementWorker sweeps for due tournaments on a schedule and settles
// each inside its own retried transaction. The payment batch is broadcast
// only after the settlement commit, then recorded as a pending
// transaction in a second commit.
type SettlementWorker struct {
	uowFactory       UnitOfWorkFactory
	publisherFactory func() interfaces.TransactionalEventPublisher
	broadcaster      interfaces.PaymentBroadcaster
	jobs             interfaces.JobQueue
	retry            database.RetryPolicy
	period           time.Duration
	grace            time.Duration

	cron   *cron.Cron
	cancel context.CancelFunc
}

// NewSettlementWorker creates a settlement worker
func NewSettlementWorker(
	uowFactory UnitOfWorkFactory,
	publisherFactory func() interfaces.TransactionalEventPublisher,
	broadcaster interfaces.PaymentBroadcaster,
	jobs interfaces.JobQueue,
	retry database.RetryPolicy,
	period time.Duration,
	grace time.Duration,
) *SettlementWorker {
	return &SettlementWorker{
		uowFactory:       uowFactory,
		publisherFactory: publisherFactory,
		broadcaster:      broadcaster,
		jobs:             jobs,
		retry:            retry,
		period:           period,
		grace:            grace,
	}
}

// Start schedules the hourly settlement sweep. Each run derives its own
// bounded context from the worker's, so Stop cancels in-flight work
// without tearing down anything else.
func (w *SettlementWorker) Start(ctx context.Context) error {
	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	// The current period must exist before any stake arrives
	if err := w.ensureCurrent(workerCtx); err != nil {
		cancel()
		return fmt.Errorf("failed to ensure current tournament: %w", err)
	}

	c := cron.New()
	if _, err := c.AddFunc("@hourly", func() {
		runCtx, runCancel := context.WithTimeout(workerCtx, settlementRunTimeout)
		defer runCancel()

		if err := w.SettleDue(runCtx); err != nil {
			log.WithError(err).Error("Settlement sweep failed")
		}
	}); err != nil {
		cancel()
		return fmt.Errorf("failed to schedule settlement sweep: %w", err)
	}

	c.Start()
	w.cron = c
	log.Info("Settlement worker started")
	return nil
}

// Stop cancels in-flight settlements and halts the schedule
func (w *SettlementWorker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	if w.cron != nil {
		stopCtx := w.cron.Stop()
		<-stopCtx.Done()
	}
	log.Info("Settlement worker stopped")
}

// SettleDue settles every due, un-disbursed tournament. Each one runs in
// its own transaction, so one failure does not block the others.
func (w *SettlementWorker) SettleDue(ctx context.Context) error {
	due, err := w.findDue(ctx)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	log.WithField("count", len(due)).Info("Found due tournaments")

	var failures int
	for _, tournament := range due {
		if err := w.settleOne(ctx, tournament); err != nil {
			log.WithFields(log.Fields{
				"tournament_id": tournament.ID,
				"error":         err,
			}).Error("Failed to settle tournament")
			failures++
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d settlements failed", failures, len(due))
	}
	return nil
}

func (w *SettlementWorker) findDue(ctx context.Context) ([]*entities.Tournament, error) {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	due, err := uow.TournamentRepository().GetDue(ctx, time.Now().UTC(), w.grace)
	if err != nil {
		return nil, fmt.Errorf("failed to query due tournaments: %w", err)
	}
	return due, nil
}

func (w *SettlementWorker) settleOne(ctx context.Context, tournament *entities.Tournament) error {
	var result *interfaces.SettlementResult

	// The whole settlement block is one transaction, re-attempted as a
	// unit on transient storage conflicts
	err := w.retry.Execute(ctx, func(ctx context.Context) error {
		publisher := w.publisherFactory()
		uow := w.uowFactory.CreateWithPublisher(publisher)
		if err := uow.Begin(ctx); err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer uow.Rollback()

		tournamentService := services.NewTournamentService(
			uow.TournamentRepository(),
			uow.GameSessionRepository(),
			uow.TicketLedgerRepository(),
			uow.RewardRepository(),
			uow.UserRepository(),
			uow.TransactionRepository(),
			w.period,
		)

		settled, err := tournamentService.Settle(ctx, tournament)
		if err != nil {
			return err
		}

		if err := uow.Commit(); err != nil {
			return fmt.Errorf("failed to commit settlement: %w", err)
		}

		result = settled
		return nil
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"tournament_id":    tournament.ID,
		"rewards":          len(result.Rewards),
		"payable_tickets":  result.PayableTickets,
		"rollover_tickets": result.RolloverTickets,
		"total_earning":    result.TotalEarning,
	}).Info("Tournament settled")

	if len(result.Entries) == 0 {
		log.WithField("tournament_id", tournament.ID).Info("No payable entries, skipping broadcast")
		return nil
	}

	// Broadcast strictly after the settlement commit. A crash between
	// commit and broadcast leaves rewards in DEFAULT state for the
	// outcome_check job to pick up.
	txID, err := w.broadcaster.BroadcastBatch(ctx, tournament.ID, result.Entries)
	if err != nil {
		return fmt.Errorf("failed to broadcast payment batch: %w", err)
	}

	if err := w.recordBroadcast(ctx, tournament.ID, txID, result); err != nil {
		return err
	}

	// Deferred follow-ups: poll the payment status and reconcile claim
	// states later. Submission failures are logged, not fatal; the
	// broadcast already happened.
	if err := w.jobs.Submit(ctx, interfaces.JobTxStatusPoll, TxStatusPollJob{TxID: txID}); err != nil {
		log.WithError(err).Warn("Failed to submit status poll job")
	}
	if err := w.jobs.Submit(ctx, interfaces.JobOutcomeCheck, OutcomeCheckJob{TournamentID: tournament.ID}); err != nil {
		log.WithError(err).Warn("Failed to submit outcome check job")
	}
	return nil
}

// recordBroadcast persists the pending payment and moves the rewards to
// PENDING, then announces the disbursement on commit
func (w *SettlementWorker) recordBroadcast(ctx context.Context, tournamentID int64, txID string, result *interfaces.SettlementResult) error {
	publisher := w.publisherFactory()
	uow := w.uowFactory.CreateWithPublisher(publisher)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	record := &entities.Transaction{
		TxID:         txID,
		TournamentID: &tournamentID,
		Kind:         entities.TransactionKindRewardBatch,
		Status:       entities.TransactionStatusPending,
		Amount:       result.TotalEarning,
	}
	if err := uow.TransactionRepository().Upsert(ctx, record); err != nil {
		return fmt.Errorf("failed to record pending payment: %w", err)
	}

	if err := uow.RewardRepository().UpdateClaimStateByTournament(ctx, tournamentID, entities.RewardClaimPending); err != nil {
		return fmt.Errorf("failed to mark rewards pending: %w", err)
	}

	if err := publisher.Publish(events.TournamentDisbursedEvent{
		TournamentID:    tournamentID,
		RewardCount:     len(result.Rewards),
		PayableTickets:  result.PayableTickets,
		RolloverTickets: result.RolloverTickets,
		TxID:            txID,
	}); err != nil {
		return fmt.Errorf("failed to publish disbursement event: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit broadcast record: %w", err)
	}
	return nil
}

func (w *SettlementWorker) ensureCurrent(ctx context.Context) error {
	return w.retry.Execute(ctx, func(ctx context.Context) error {
		uow := w.uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer uow.Rollback()

		tournamentService := services.NewTournamentService(
			uow.TournamentRepository(),
			uow.GameSessionRepository(),
			uow.TicketLedgerRepository(),
			uow.RewardRepository(),
			uow.UserRepository(),
			uow.TransactionRepository(),
			w.period,
		)

		if _, err := tournamentService.EnsureCurrent(ctx); err != nil {
			return err
		}
		return uow.Commit()
	})
}
