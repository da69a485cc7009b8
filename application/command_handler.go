package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"stakehouse/database"
	"stakehouse/domain/entities"
	"stakehouse/domain/interfaces"
	"stakehouse/domain/services"
)

// ErrUnknownAction rejects a command outside the closed action set
var ErrUnknownAction = errors.New("unknown command action")

// commandEnvelope is the outer wire shape of one inbound game command
type commandEnvelope struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

type playCoinFlipCommand struct {
	UserID int64                `json:"user_id"`
	Bet    entities.CoinFlipBet `json:"bet"`
}

type playDiceCommand struct {
	UserID int64            `json:"user_id"`
	Bet    entities.DiceBet `json:"bet"`
}

type playRouletteCommand struct {
	UserID int64                `json:"user_id"`
	Bet    entities.RouletteBet `json:"bet"`
}

type playRPSCommand struct {
	UserID int64           `json:"user_id"`
	Bet    entities.RPSBet `json:"bet"`
}

type blackjackStartCommand struct {
	UserID int64 `json:"user_id"`
	Stake  int64 `json:"stake"`
}

type blackjackTableCommand struct {
	TableID uuid.UUID `json:"table_id"`
	UserID  int64     `json:"user_id"`
}

type disconnectCommand struct {
	UserID int64 `json:"user_id"`
}

// CommandHandler dispatches inbound game commands to the domain services.
// The action set is closed; anything else is rejected before any service
// call. Results reach callers through the published domain events, not a
// reply channel.
//
// Each play command runs its whole bet lifecycle inside one unit of work,
// so a storage failure after the stake debit rolls the debit back with
// everything else.
type CommandHandler struct {
	uowFactory       UnitOfWorkFactory
	publisherFactory func() interfaces.TransactionalEventPublisher
	fairness         interfaces.FairnessSource
	retry            database.RetryPolicy
	blackjack        interfaces.BlackjackService
}

func NewCommandHandler(
	uowFactory UnitOfWorkFactory,
	publisherFactory func() interfaces.TransactionalEventPublisher,
	fairness interfaces.FairnessSource,
	retry database.RetryPolicy,
	blackjack interfaces.BlackjackService,
) *CommandHandler {
	return &CommandHandler{
		uowFactory:       uowFactory,
		publisherFactory: publisherFactory,
		fairness:         fairness,
		retry:            retry,
		blackjack:        blackjack,
	}
}

// playGame runs one bet as a single transaction, re-attempted as a unit
// on transient storage conflicts. Events flush only on commit.
func (h *CommandHandler) playGame(ctx context.Context, play func(games interfaces.GameService) error) error {
	return h.retry.Execute(ctx, func(ctx context.Context) error {
		publisher := h.publisherFactory()
		uow := h.uowFactory.CreateWithPublisher(publisher)
		if err := uow.Begin(ctx); err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer uow.Rollback()

		games := services.NewGameService(
			h.fairness,
			uow.UserRepository(),
			uow.GameSessionRepository(),
			uow.RoundRepository(),
			uow.TournamentRepository(),
			publisher,
		)
		if err := play(games); err != nil {
			return err
		}
		if err := uow.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	})
}

// Handle decodes and executes one command. Validation and state-conflict
// errors are logged and swallowed: redelivering a rejected bet cannot
// make it valid.
func (h *CommandHandler) Handle(ctx context.Context, body []byte) error {
	var envelope commandEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to decode command envelope: %w", err)
	}

	if err := h.dispatch(ctx, envelope); err != nil {
		log.WithFields(log.Fields{
			"action": envelope.Action,
			"error":  err,
		}).Warn("Command rejected")
	}
	return nil
}

func (h *CommandHandler) dispatch(ctx context.Context, envelope commandEnvelope) error {
	switch envelope.Action {
	case "play_coinflip":
		var cmd playCoinFlipCommand
		if err := json.Unmarshal(envelope.Data, &cmd); err != nil {
			return err
		}
		return h.playGame(ctx, func(games interfaces.GameService) error {
			_, err := games.PlayCoinFlip(ctx, cmd.UserID, cmd.Bet)
			return err
		})
	case "play_dice":
		var cmd playDiceCommand
		if err := json.Unmarshal(envelope.Data, &cmd); err != nil {
			return err
		}
		return h.playGame(ctx, func(games interfaces.GameService) error {
			_, err := games.PlayDice(ctx, cmd.UserID, cmd.Bet)
			return err
		})
	case "play_roulette":
		var cmd playRouletteCommand
		if err := json.Unmarshal(envelope.Data, &cmd); err != nil {
			return err
		}
		return h.playGame(ctx, func(games interfaces.GameService) error {
			_, err := games.PlayRoulette(ctx, cmd.UserID, cmd.Bet)
			return err
		})
	case "play_rps":
		var cmd playRPSCommand
		if err := json.Unmarshal(envelope.Data, &cmd); err != nil {
			return err
		}
		return h.playGame(ctx, func(games interfaces.GameService) error {
			_, err := games.PlayRPS(ctx, cmd.UserID, cmd.Bet)
			return err
		})
	case "blackjack_start":
		var cmd blackjackStartCommand
		if err := json.Unmarshal(envelope.Data, &cmd); err != nil {
			return err
		}
		_, err := h.blackjack.Start(ctx, cmd.UserID, cmd.Stake)
		return err
	case "blackjack_join":
		var cmd blackjackTableCommand
		if err := json.Unmarshal(envelope.Data, &cmd); err != nil {
			return err
		}
		_, err := h.blackjack.Join(ctx, cmd.TableID, cmd.UserID)
		return err
	case "blackjack_hit":
		var cmd blackjackTableCommand
		if err := json.Unmarshal(envelope.Data, &cmd); err != nil {
			return err
		}
		_, err := h.blackjack.Hit(ctx, cmd.TableID, cmd.UserID)
		return err
	case "blackjack_stand":
		var cmd blackjackTableCommand
		if err := json.Unmarshal(envelope.Data, &cmd); err != nil {
			return err
		}
		_, err := h.blackjack.Stand(ctx, cmd.TableID, cmd.UserID)
		return err
	case "blackjack_leave":
		var cmd blackjackTableCommand
		if err := json.Unmarshal(envelope.Data, &cmd); err != nil {
			return err
		}
		return h.blackjack.Leave(ctx, cmd.TableID, cmd.UserID)
	case "disconnect":
		var cmd disconnectCommand
		if err := json.Unmarshal(envelope.Data, &cmd); err != nil {
			return err
		}
		return h.blackjack.HandleDisconnection(ctx, cmd.UserID)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, envelope.Action)
	}
}
