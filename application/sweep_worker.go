package application

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"stakehouse/domain/interfaces"
)

const sweepRunTimeout = 30 * time.Second

// DisconnectSweepWorker periodically forfeits blackjack players whose
// disconnection grace period has elapsed, so one absent player cannot
// hold a table open indefinitely.
type DisconnectSweepWorker struct {
	blackjackService interfaces.BlackjackService

	cron   *cron.Cron
	cancel context.CancelFunc
}

func NewDisconnectSweepWorker(blackjackService interfaces.BlackjackService) *DisconnectSweepWorker {
	return &DisconnectSweepWorker{blackjackService: blackjackService}
}

// Start schedules the sweep every minute with its own cancellation
func (w *DisconnectSweepWorker) Start(ctx context.Context) error {
	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	c := cron.New()
	if _, err := c.AddFunc("* * * * *", func() {
		runCtx, runCancel := context.WithTimeout(workerCtx, sweepRunTimeout)
		defer runCancel()

		if err := w.blackjackService.SweepDisconnected(runCtx); err != nil {
			log.WithError(err).Error("Disconnect sweep failed")
		}
	}); err != nil {
		cancel()
		return fmt.Errorf("failed to schedule disconnect sweep: %w", err)
	}

	c.Start()
	w.cron = c
	log.Info("Disconnect sweep worker started")
	return nil
}

// Stop cancels any in-flight sweep and halts the schedule
func (w *DisconnectSweepWorker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	if w.cron != nil {
		stopCtx := w.cron.Stop()
		<-stopCtx.Done()
	}
	log.Info("Disconnect sweep worker stopped")
}
