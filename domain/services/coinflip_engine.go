package services

import (
	"fmt"
	"math"

	"stakehouse/domain/entities"
)

// CoinFlipResult is the resolved outcome of a coin flip bet
type CoinFlipResult struct {
	Outcomes []entities.CoinFace `json:"outcomes"`
	Won      bool                `json:"won"`
	Payout   int64               `json:"payout"`
}

// CoinFlipOdds computes the odds for a multi-round coin flip bet before any
// draw is consumed: 1.5^rounds when every guess is the same face, otherwise
// rounds + 0.5.
func CoinFlipOdds(bet entities.CoinFlipBet) (float64, error) {
	if err := validateCoinFlipBet(bet); err != nil {
		return 0, err
	}

	rounds := len(bet.Guesses)
	sameFace := true
	for _, guess := range bet.Guesses[1:] {
		if guess != bet.Guesses[0] {
			sameFace = false
			break
		}
	}

	if sameFace {
		return math.Pow(1.5, float64(rounds)), nil
	}
	return float64(rounds) + 0.5, nil
}

// CoinFlipOutcome maps one draw to a coin face: heads below one half
func CoinFlipOutcome(draw entities.Draw) entities.CoinFace {
	if draw.Value < 0.5 {
		return entities.CoinFaceHeads
	}
	return entities.CoinFaceTails
}

// ResolveCoinFlip resolves a coin flip bet against one draw per round. The
// bet wins only when every round's outcome matches its guess.
func ResolveCoinFlip(bet entities.CoinFlipBet, draws []entities.Draw) (*CoinFlipResult, error) {
	odds, err := CoinFlipOdds(bet)
	if err != nil {
		return nil, err
	}
	if len(draws) != len(bet.Guesses) {
		return nil, fmt.Errorf("%w: expected %d draws, got %d", ErrInvalidBet, len(bet.Guesses), len(draws))
	}

	result := &CoinFlipResult{
		Outcomes: make([]entities.CoinFace, 0, len(draws)),
		Won:      true,
	}
	for i, draw := range draws {
		outcome := CoinFlipOutcome(draw)
		result.Outcomes = append(result.Outcomes, outcome)
		if outcome != bet.Guesses[i] {
			result.Won = false
		}
	}

	if result.Won {
		result.Payout = int64(math.Floor(float64(bet.Stake) * odds))
	}
	return result, nil
}

func validateCoinFlipBet(bet entities.CoinFlipBet) error {
	if bet.Stake <= 0 {
		return fmt.Errorf("%w: stake must be positive", ErrInvalidBet)
	}
	if len(bet.Guesses) == 0 {
		return fmt.Errorf("%w: at least one round required", ErrInvalidBet)
	}
	for _, guess := range bet.Guesses {
		if guess != entities.CoinFaceHeads && guess != entities.CoinFaceTails {
			return fmt.Errorf("%w: unknown coin face %q", ErrInvalidBet, guess)
		}
	}
	return nil
}
