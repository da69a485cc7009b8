package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stakehouse/domain/entities"
	"stakehouse/domain/events"
	"stakehouse/domain/interfaces"
)

type gameService struct {
	fairness       interfaces.FairnessSource
	userRepo       interfaces.UserRepository
	sessionRepo    interfaces.GameSessionRepository
	roundRepo      interfaces.RoundRepository
	tournamentRepo interfaces.TournamentRepository
	eventPublisher interfaces.EventPublisher
}

// NewGameService creates a new game service. The repositories must share
// a single transaction; the caller owns commit and rollback, so a failure
// anywhere in the bet lifecycle discards the stake debit with it.
func NewGameService(
	fairness interfaces.FairnessSource,
	userRepo interfaces.UserRepository,
	sessionRepo interfaces.GameSessionRepository,
	roundRepo interfaces.RoundRepository,
	tournamentRepo interfaces.TournamentRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.GameService {
	return &gameService{
		fairness:       fairness,
		userRepo:       userRepo,
		sessionRepo:    sessionRepo,
		roundRepo:      roundRepo,
		tournamentRepo: tournamentRepo,
		eventPublisher: eventPublisher,
	}
}

// resolvedRound is one constituent round ready to persist
type resolvedRound struct {
	guess     any
	outcome   any
	draws     []entities.Draw
	winAmount int64
}

// resolveFunc maps the consumed draws to per-round records, the session
// outcome and the payout
type resolveFunc func(draws []entities.Draw) ([]resolvedRound, bool, int64, error)

func (s *gameService) PlayCoinFlip(ctx context.Context, userID int64, bet entities.CoinFlipBet) (*interfaces.GameResult, error) {
	odds, err := CoinFlipOdds(bet)
	if err != nil {
		return nil, err
	}

	return s.run(ctx, userID, entities.GameTypeCoinFlip, bet.Stake, odds, len(bet.Guesses),
		func(draws []entities.Draw) ([]resolvedRound, bool, int64, error) {
			result, err := ResolveCoinFlip(bet, draws)
			if err != nil {
				return nil, false, 0, err
			}
			// The payout multiplies across rounds, so it belongs to the
			// session; no single round owns any of it
			rounds := make([]resolvedRound, 0, len(bet.Guesses))
			for i, guess := range bet.Guesses {
				rounds = append(rounds, resolvedRound{
					guess:   guess,
					outcome: result.Outcomes[i],
					draws:   draws[i : i+1],
				})
			}
			return rounds, result.Won, result.Payout, nil
		})
}

func (s *gameService) PlayDice(ctx context.Context, userID int64, bet entities.DiceBet) (*interfaces.GameResult, error) {
	odds, err := DiceOdds(bet)
	if err != nil {
		return nil, err
	}

	return s.run(ctx, userID, entities.GameTypeDice, bet.Stake, odds, DiceDrawCount(bet),
		func(draws []entities.Draw) ([]resolvedRound, bool, int64, error) {
			result, err := ResolveDice(bet, draws)
			if err != nil {
				return nil, false, 0, err
			}
			// Same as coinflip: the multiplied payout lives on the session,
			// not on whichever round happened to come first
			rounds := make([]resolvedRound, 0, len(bet.Rounds))
			next := 0
			for i, betRound := range bet.Rounds {
				rounds = append(rounds, resolvedRound{
					guess:   betRound,
					outcome: result.Outcomes[i],
					draws:   draws[next : next+betRound.NumDice],
				})
				next += betRound.NumDice
			}
			return rounds, result.Won, result.Payout, nil
		})
}

func (s *gameService) PlayRoulette(ctx context.Context, userID int64, bet entities.RouletteBet) (*interfaces.GameResult, error) {
	odds, err := RouletteOdds(bet)
	if err != nil {
		return nil, err
	}

	return s.run(ctx, userID, entities.GameTypeRoulette, bet.Stake, odds, 1,
		func(draws []entities.Draw) ([]resolvedRound, bool, int64, error) {
			result, err := ResolveRoulette(bet, draws[0])
			if err != nil {
				return nil, false, 0, err
			}
			round := resolvedRound{
				guess:     bet.Wagers,
				outcome:   result,
				draws:     draws,
				winAmount: result.Payout,
			}
			return []resolvedRound{round}, result.Won, result.Payout, nil
		})
}

func (s *gameService) PlayRPS(ctx context.Context, userID int64, bet entities.RPSBet) (*interfaces.GameResult, error) {
	odds, err := RPSOdds(bet)
	if err != nil {
		return nil, err
	}

	return s.run(ctx, userID, entities.GameTypeRPS, bet.Stake, odds, 1,
		func(draws []entities.Draw) ([]resolvedRound, bool, int64, error) {
			result, err := ResolveRPS(bet, draws[0])
			if err != nil {
				return nil, false, 0, err
			}
			round := resolvedRound{
				guess:     bet.Move,
				outcome:   result,
				draws:     draws,
				winAmount: result.Payout,
			}
			return []resolvedRound{round}, result.Won, result.Payout, nil
		})
}

// run executes the shared bet lifecycle: debit the stake, accrue it into
// the open tournament, consume draws, resolve, persist the session with
// its rounds and draws, then credit any payout. Validation happened
// before run is called, so no draw is consumed for a rejected bet.
func (s *gameService) run(
	ctx context.Context,
	userID int64,
	gameType entities.GameType,
	stake int64,
	odds float64,
	drawCount int,
	resolve resolveFunc,
) (*interfaces.GameResult, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %d", ErrInvalidBet, userID)
	}
	if !user.CanStake(stake) {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, user.TotalTickets(), stake)
	}

	balanceBefore := user.TotalTickets()

	// Free tickets are consumed before bought ones
	fromFree, fromBought := user.SplitStake(stake)
	user, err = s.userRepo.AdjustTickets(ctx, userID, -fromBought, -fromFree)
	if err != nil {
		return nil, fmt.Errorf("failed to debit stake: %w", err)
	}

	var tournamentID *int64
	tournament, err := s.tournamentRepo.GetCurrent(ctx, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get current tournament: %w", err)
	}
	if tournament != nil {
		if err := s.tournamentRepo.RecordStake(ctx, tournament.ID, stake); err != nil {
			return nil, fmt.Errorf("failed to record stake: %w", err)
		}
		tournamentID = &tournament.ID
	}

	session := &entities.GameSession{
		UserID:       userID,
		TournamentID: tournamentID,
		GameType:     gameType,
		Stake:        stake,
		TotalOdds:    odds,
		Status:       entities.SessionStatusOpen,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create game session: %w", err)
	}

	draws := make([]entities.Draw, 0, drawCount)
	for i := 0; i < drawCount; i++ {
		draws = append(draws, s.fairness.Draw(entities.DrawAlgorithmSHA256))
	}

	resolved, won, payout, err := resolve(draws)
	if err != nil {
		return nil, err
	}

	rounds := make([]*entities.Round, 0, len(resolved))
	for _, rr := range resolved {
		guessJSON, err := json.Marshal(rr.guess)
		if err != nil {
			return nil, fmt.Errorf("failed to encode guess: %w", err)
		}
		outcomeJSON, err := json.Marshal(rr.outcome)
		if err != nil {
			return nil, fmt.Errorf("failed to encode outcome: %w", err)
		}

		round := &entities.Round{
			SessionID: session.ID,
			UserID:    userID,
			GameType:  gameType,
			Guess:     string(guessJSON),
			Outcome:   string(outcomeJSON),
			WinAmount: rr.winAmount,
		}
		for i := range rr.draws {
			round.Draws = append(round.Draws, &rr.draws[i])
		}
		if err := s.roundRepo.Create(ctx, round); err != nil {
			return nil, fmt.Errorf("failed to create round: %w", err)
		}
		rounds = append(rounds, round)
	}

	status := entities.SessionStatusLost
	if won {
		status = entities.SessionStatusWon
	} else if payout == stake && payout > 0 {
		status = entities.SessionStatusPush
	}
	if err := s.sessionRepo.Finalize(ctx, session.ID, status, payout); err != nil {
		return nil, fmt.Errorf("failed to finalize session: %w", err)
	}
	session.Status = status
	session.WinAmount = payout

	if payout > 0 {
		// Winnings are credited as bought tickets: they originate from a
		// consumed stake, not from a promotion
		user, err = s.userRepo.AdjustTickets(ctx, userID, payout, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to credit payout: %w", err)
		}
	}

	if err := s.eventPublisher.Publish(events.BalanceChangeEvent{
		UserID:        userID,
		BalanceBefore: balanceBefore,
		BalanceAfter:  user.TotalTickets(),
		ChangeAmount:  user.TotalTickets() - balanceBefore,
		Reason:        string(gameType),
	}); err != nil {
		return nil, fmt.Errorf("failed to publish balance change: %w", err)
	}

	if err := s.eventPublisher.Publish(events.RoundResolvedEvent{
		UserID:    userID,
		SessionID: session.ID,
		GameType:  gameType,
		Stake:     stake,
		WinAmount: payout,
		Won:       won,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish round resolved: %w", err)
	}

	return &interfaces.GameResult{
		Session: session,
		Rounds:  rounds,
		Won:     won,
		Payout:  payout,
		Balance: user.TotalTickets(),
	}, nil
}
