package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"stakehouse/application"
	"stakehouse/config"
	"stakehouse/database"
	"stakehouse/domain/interfaces"
	"stakehouse/domain/services"
	"stakehouse/infrastructure"
	"stakehouse/repository"
)

// webhookSubject carries raw signed webhook bodies forwarded by the edge
// gateway. Signature verification happens here, not at the edge.
const webhookSubject = "stakehouse.webhook.inbound"

// commandSubject carries inbound game commands from the edge gateway
const commandSubject = "stakehouse.commands.inbound"

const transactionQueueSize = 256

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting stakehouse...")

	cfg := config.Get()

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	log.Info("Connecting to NATS...")
	natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := natsClient.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer natsClient.Close()

	eventPublisher := infrastructure.NewNATSEventPublisher(natsClient)
	publisherFactory := func() interfaces.TransactionalEventPublisher {
		return infrastructure.NewTransactionalEventPublisher(eventPublisher)
	}

	uowFactory := repository.NewUnitOfWorkFactory(db)
	retry := database.NewRetryPolicy(cfg.RetryMaxAttempts, cfg.RetryDelay)

	fairness := services.NewFairnessSource(cfg.FairnessSecret)
	blackjackService := services.NewBlackjackService(
		fairness,
		repository.NewBlackjackTableRepository(db),
		repository.NewUserRepository(db),
		eventPublisher,
		cfg.BlackjackMaxSeats,
		cfg.DisconnectGracePeriod,
	)

	broadcaster := infrastructure.NewHTTPPaymentBroadcaster(cfg.BroadcasterURL)
	jobQueue := infrastructure.NewNATSJobQueue(natsClient)

	transactionWorker := application.NewTransactionEventWorker(uowFactory, publisherFactory, transactionQueueSize)
	transactionWorker.Start(ctx)

	settlementWorker := application.NewSettlementWorker(
		uowFactory,
		publisherFactory,
		broadcaster,
		jobQueue,
		retry,
		cfg.TournamentPeriod,
		cfg.SettlementGrace,
	)
	if err := settlementWorker.Start(ctx); err != nil {
		return fmt.Errorf("failed to start settlement worker: %w", err)
	}

	sweepWorker := application.NewDisconnectSweepWorker(blackjackService)
	if err := sweepWorker.Start(ctx); err != nil {
		return fmt.Errorf("failed to start disconnect sweep worker: %w", err)
	}

	commandHandler := application.NewCommandHandler(uowFactory, publisherFactory, fairness, retry, blackjackService)
	if err := natsClient.Subscribe(commandSubject, func(data []byte) error {
		return commandHandler.Handle(ctx, data)
	}); err != nil {
		return fmt.Errorf("failed to subscribe to commands: %w", err)
	}

	if err := subscribeWebhookEvents(natsClient, transactionWorker, cfg.WebhookSecret); err != nil {
		return fmt.Errorf("failed to subscribe to webhook events: %w", err)
	}
	if err := registerJobHandlers(jobQueue, transactionWorker); err != nil {
		return fmt.Errorf("failed to register job handlers: %w", err)
	}

	log.WithField("environment", cfg.Environment).Info("Stakehouse is running")
	<-ctx.Done()

	log.Info("Shutting down...")
	sweepWorker.Stop()
	settlementWorker.Stop()
	transactionWorker.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	select {
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Info("Shutdown completed")
	}

	return nil
}

// subscribeWebhookEvents feeds signed webhook bodies into the serialized
// drain loop. Rejected bodies are acked, not retried: a bad signature
// will not become valid on redelivery.
func subscribeWebhookEvents(natsClient *infrastructure.NATSClient, worker *application.TransactionEventWorker, secret string) error {
	return natsClient.Subscribe(webhookSubject, func(data []byte) error {
		event, err := application.ParseWebhookEvent(secret, data)
		if err != nil {
			log.WithError(err).Warn("Rejected webhook event")
			return nil
		}
		return worker.Enqueue(context.Background(), event)
	})
}

func registerJobHandlers(jobQueue *infrastructure.NATSJobQueue, worker *application.TransactionEventWorker) error {
	if err := jobQueue.RegisterHandler(interfaces.JobTxStatusPoll, func(ctx context.Context, payload []byte) error {
		var job application.TxStatusPollJob
		if err := json.Unmarshal(payload, &job); err != nil {
			return fmt.Errorf("failed to decode status poll job: %w", err)
		}
		return worker.HandleTxStatusPoll(ctx, job)
	}); err != nil {
		return err
	}

	return jobQueue.RegisterHandler(interfaces.JobOutcomeCheck, func(ctx context.Context, payload []byte) error {
		var job application.OutcomeCheckJob
		if err := json.Unmarshal(payload, &job); err != nil {
			return fmt.Errorf("failed to decode outcome check job: %w", err)
		}
		return worker.HandleOutcomeCheck(ctx, job)
	})
}
