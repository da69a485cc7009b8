package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"stakehouse/domain/entities"
	"stakehouse/domain/events"
	"stakehouse/domain/interfaces"
)

// ErrWorkerStopped rejects enqueues after shutdown
var ErrWorkerStopped = errors.New("transaction event worker stopped")

// TransactionEventWorker drains inbound transaction events one at a time
// in arrival order. Producers enqueue concurrently; the single drain loop
// guarantees no two events for the same tx id race each other's upsert.
type TransactionEventWorker struct {
	uowFactory       UnitOfWorkFactory
	publisherFactory func() interfaces.TransactionalEventPublisher

	queue   chan TransactionEvent
	stopped chan struct{}
	done    chan struct{}
	once    sync.Once
	started atomic.Bool
}

// NewTransactionEventWorker creates a transaction event worker with a
// bounded queue
func NewTransactionEventWorker(
	uowFactory UnitOfWorkFactory,
	publisherFactory func() interfaces.TransactionalEventPublisher,
	queueSize int,
) *TransactionEventWorker {
	return &TransactionEventWorker{
		uowFactory:       uowFactory,
		publisherFactory: publisherFactory,
		queue:            make(chan TransactionEvent, queueSize),
		stopped:          make(chan struct{}),
		done:             make(chan struct{}),
	}
}

// Enqueue submits an event for ordered processing. Blocks when the queue
// is full so webhook handlers apply backpressure instead of dropping.
func (w *TransactionEventWorker) Enqueue(ctx context.Context, event TransactionEvent) error {
	select {
	case <-w.stopped:
		return ErrWorkerStopped
	default:
	}

	select {
	case w.queue <- event:
		return nil
	case <-w.stopped:
		return ErrWorkerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start launches the drain loop
func (w *TransactionEventWorker) Start(ctx context.Context) {
	w.started.Store(true)
	go func() {
		defer close(w.done)
		log.Info("Transaction event worker started")

		for {
			select {
			case event := <-w.queue:
				if err := w.process(ctx, event); err != nil {
					log.WithFields(log.Fields{
						"tx_id": event.EventTxID(),
						"error": err,
					}).Error("Failed to process transaction event")
				}
			case <-w.stopped:
				// Drain what is already queued before exiting
				for {
					select {
					case event := <-w.queue:
						if err := w.process(ctx, event); err != nil {
							log.WithField("tx_id", event.EventTxID()).WithError(err).Error("Failed to process transaction event during drain")
						}
					default:
						log.Info("Transaction event worker stopped")
						return
					}
				}
			case <-ctx.Done():
				log.Info("Transaction event worker stopped (context cancelled)")
				return
			}
		}
	}()
}

// Stop rejects further enqueues and waits for the queue to drain. Without
// a running drain loop there is nothing to wait for.
func (w *TransactionEventWorker) Stop() {
	w.once.Do(func() { close(w.stopped) })
	if !w.started.Load() {
		return
	}
	<-w.done
}

// process applies one event inside its own transaction. Replays of an
// already-applied event collapse onto the stored record without touching
// balances or claim states twice.
func (w *TransactionEventWorker) process(ctx context.Context, event TransactionEvent) error {
	publisher := w.publisherFactory()
	uow := w.uowFactory.CreateWithPublisher(publisher)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	existing, err := uow.TransactionRepository().GetByTxID(ctx, event.EventTxID())
	if err != nil {
		return fmt.Errorf("failed to load transaction record: %w", err)
	}

	switch e := event.(type) {
	case PaymentConfirmedEvent:
		err = w.applyConfirmed(ctx, uow, publisher, existing, e)
	case PaymentFailedEvent:
		err = w.applyFailed(ctx, uow, existing, e)
	case RewardClaimEvent:
		err = w.applyRewardClaim(ctx, uow, publisher, existing, e)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownEventKind, event)
	}
	if err != nil {
		return err
	}

	return uow.Commit()
}

func (w *TransactionEventWorker) applyConfirmed(ctx context.Context, uow UnitOfWork, publisher interfaces.TransactionalEventPublisher, existing *entities.Transaction, event PaymentConfirmedEvent) error {
	if existing != nil && existing.Status == entities.TransactionStatusConfirmed {
		log.WithField("tx_id", event.TxID).Debug("Transaction already confirmed, skipping")
		return nil
	}

	record := &entities.Transaction{
		TxID:         event.TxID,
		TournamentID: event.TournamentID,
		UserID:       event.UserID,
		Kind:         event.Kind,
		Status:       entities.TransactionStatusConfirmed,
		Amount:       event.Amount,
	}
	if existing != nil {
		record.TournamentID = existing.TournamentID
		record.UserID = existing.UserID
		record.Kind = existing.Kind
		record.Amount = existing.Amount
	}
	if err := uow.TransactionRepository().Upsert(ctx, record); err != nil {
		return fmt.Errorf("failed to upsert transaction: %w", err)
	}

	switch record.Kind {
	case entities.TransactionKindPurchase, entities.TransactionKindGrant:
		return w.creditTickets(ctx, uow, publisher, record)
	case entities.TransactionKindRewardBatch:
		if record.TournamentID == nil {
			return fmt.Errorf("reward batch %s has no tournament", record.TxID)
		}
		if err := uow.RewardRepository().UpdateClaimStateByTournament(ctx, *record.TournamentID, entities.RewardClaimSuccessful); err != nil {
			return fmt.Errorf("failed to mark rewards successful: %w", err)
		}
		return nil
	case entities.TransactionKindClaim:
		// Claim settlement arrives as a reward_claim event instead
		return nil
	default:
		return fmt.Errorf("unknown transaction kind %q for tx %s", record.Kind, record.TxID)
	}
}

// creditTickets credits a confirmed inbound payment to the user's ticket
// balance: purchases buy tickets, grants add free ones
func (w *TransactionEventWorker) creditTickets(ctx context.Context, uow UnitOfWork, publisher interfaces.TransactionalEventPublisher, record *entities.Transaction) error {
	if record.UserID == nil {
		return fmt.Errorf("inbound transaction %s has no user", record.TxID)
	}

	tickets := int64(record.Amount)
	var boughtDelta, freeDelta int64
	if record.Kind == entities.TransactionKindPurchase {
		boughtDelta = tickets
	} else {
		freeDelta = tickets
	}

	user, err := uow.UserRepository().AdjustTickets(ctx, *record.UserID, boughtDelta, freeDelta)
	if err != nil {
		return fmt.Errorf("failed to credit tickets: %w", err)
	}

	return publisher.Publish(events.BalanceChangeEvent{
		UserID:        user.ID,
		BalanceBefore: user.TotalTickets() - tickets,
		BalanceAfter:  user.TotalTickets(),
		ChangeAmount:  tickets,
		Reason:        string(record.Kind),
	})
}

func (w *TransactionEventWorker) applyFailed(ctx context.Context, uow UnitOfWork, existing *entities.Transaction, event PaymentFailedEvent) error {
	if existing == nil {
		log.WithField("tx_id", event.TxID).Warn("Failure event for unknown transaction, ignoring")
		return nil
	}
	if existing.Status == entities.TransactionStatusFailed {
		return nil
	}

	existing.Status = entities.TransactionStatusFailed
	if err := uow.TransactionRepository().Upsert(ctx, existing); err != nil {
		return fmt.Errorf("failed to mark transaction failed: %w", err)
	}

	// A failed reward batch puts its rewards back to DEFAULT so the
	// outcome check can rebroadcast them
	if existing.Kind == entities.TransactionKindRewardBatch && existing.TournamentID != nil {
		if err := uow.RewardRepository().UpdateClaimStateByTournament(ctx, *existing.TournamentID, entities.RewardClaimDefault); err != nil {
			return fmt.Errorf("failed to reset reward claim states: %w", err)
		}
	}

	log.WithFields(log.Fields{
		"tx_id":  event.TxID,
		"reason": event.Reason,
	}).Warn("Payment failed")
	return nil
}

func (w *TransactionEventWorker) applyRewardClaim(ctx context.Context, uow UnitOfWork, publisher interfaces.TransactionalEventPublisher, existing *entities.Transaction, event RewardClaimEvent) error {
	if existing != nil && existing.Status == entities.TransactionStatusConfirmed {
		log.WithField("tx_id", event.TxID).Debug("Claim already settled, skipping")
		return nil
	}

	record := &entities.Transaction{
		TxID:   event.TxID,
		UserID: &event.UserID,
		Kind:   entities.TransactionKindClaim,
		Status: entities.TransactionStatusConfirmed,
		Amount: event.Amount,
	}
	if err := uow.TransactionRepository().Upsert(ctx, record); err != nil {
		return fmt.Errorf("failed to upsert claim transaction: %w", err)
	}

	if err := uow.RewardRepository().UpdateClaimState(ctx, event.RewardID, entities.RewardClaimSuccessful, false); err != nil {
		return fmt.Errorf("failed to mark reward claimed: %w", err)
	}

	return publisher.Publish(events.RewardClaimStateEvent{
		RewardID: event.RewardID,
		UserID:   event.UserID,
		State:    entities.RewardClaimSuccessful,
	})
}

// Job payloads carried on the queue for deferred follow-ups

// TxStatusPollJob re-checks a payment that has not confirmed yet
type TxStatusPollJob struct {
	TxID string `json:"tx_id"`
}

// OutcomeCheckJob reconciles a tournament's reward claim states against
// its recorded payment
type OutcomeCheckJob struct {
	TournamentID int64 `json:"tournament_id"`
}

// HandleTxStatusPoll alerts on payments stuck in pending. At-least-once
// delivery makes double alerts possible and harmless.
func (w *TransactionEventWorker) HandleTxStatusPoll(ctx context.Context, job TxStatusPollJob) error {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	record, err := uow.TransactionRepository().GetByTxID(ctx, job.TxID)
	if err != nil {
		return fmt.Errorf("failed to load transaction: %w", err)
	}
	if record == nil || record.Status != entities.TransactionStatusPending {
		return nil
	}

	log.WithFields(log.Fields{
		"tx_id": record.TxID,
		"kind":  record.Kind,
		"age":   time.Since(record.CreatedAt).Round(time.Second),
	}).Warn("Payment still pending")
	return nil
}

// HandleOutcomeCheck repairs reward claim states that missed their
// confirmation event. Idempotent: states already matching the recorded
// payment are left alone.
func (w *TransactionEventWorker) HandleOutcomeCheck(ctx context.Context, job OutcomeCheckJob) error {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	rewards, err := uow.RewardRepository().GetByTournament(ctx, job.TournamentID)
	if err != nil {
		return fmt.Errorf("failed to load rewards: %w", err)
	}
	if len(rewards) == 0 {
		return nil
	}

	pending, err := uow.TransactionRepository().GetPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pending transactions: %w", err)
	}
	for _, tx := range pending {
		if tx.Kind == entities.TransactionKindRewardBatch && tx.TournamentID != nil && *tx.TournamentID == job.TournamentID {
			// Payment still in flight; nothing to repair yet
			return nil
		}
	}

	var stale int
	for _, reward := range rewards {
		if reward.Claimed == entities.RewardClaimPending {
			stale++
		}
	}
	if stale == 0 {
		return nil
	}

	// Rewards stuck in PENDING with no in-flight payment lost their
	// confirmation; reset them for rebroadcast
	if err := uow.RewardRepository().UpdateClaimStateByTournament(ctx, job.TournamentID, entities.RewardClaimDefault); err != nil {
		return fmt.Errorf("failed to reset stale reward states: %w", err)
	}

	log.WithFields(log.Fields{
		"tournament_id": job.TournamentID,
		"stale_rewards": stale,
	}).Warn("Reset stale reward claim states")
	return uow.Commit()
}
