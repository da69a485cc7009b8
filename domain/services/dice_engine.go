package services

import (
	"fmt"
	"math"

	"stakehouse/domain/entities"
)

// DiceResult is the resolved outcome of a dice bet
type DiceResult struct {
	Outcomes [][]int `json:"outcomes"` // per round, per die
	Won      bool    `json:"won"`
	Payout   int64   `json:"payout"`
}

// DiceOdds computes the odds for a multi-round dice bet before any draw is
// consumed. A one-die round pays 2.5; a two-die round pays 4 when both
// guesses are equal and 3 otherwise. The overall odds is the product
// across rounds.
func DiceOdds(bet entities.DiceBet) (float64, error) {
	if err := validateDiceBet(bet); err != nil {
		return 0, err
	}

	odds := 1.0
	for _, round := range bet.Rounds {
		switch round.NumDice {
		case 1:
			odds *= 2.5
		case 2:
			if round.Guess[0] == round.Guess[1] {
				odds *= 4
			} else {
				odds *= 3
			}
		}
	}
	return odds, nil
}

// DiceDrawCount returns the number of draws the bet consumes: one per die
func DiceDrawCount(bet entities.DiceBet) int {
	count := 0
	for _, round := range bet.Rounds {
		count += round.NumDice
	}
	return count
}

// DiceOutcome maps one draw to a die face in 1..6
func DiceOutcome(draw entities.Draw) int {
	return int(math.Floor(draw.Value*6)) + 1
}

// ResolveDice resolves a dice bet against one draw per die. The bet wins
// only when every die matches its guess, in order.
func ResolveDice(bet entities.DiceBet, draws []entities.Draw) (*DiceResult, error) {
	odds, err := DiceOdds(bet)
	if err != nil {
		return nil, err
	}
	if len(draws) != DiceDrawCount(bet) {
		return nil, fmt.Errorf("%w: expected %d draws, got %d", ErrInvalidBet, DiceDrawCount(bet), len(draws))
	}

	result := &DiceResult{
		Outcomes: make([][]int, 0, len(bet.Rounds)),
		Won:      true,
	}

	next := 0
	for _, round := range bet.Rounds {
		faces := make([]int, 0, round.NumDice)
		for die := 0; die < round.NumDice; die++ {
			face := DiceOutcome(draws[next])
			next++
			faces = append(faces, face)
			if face != round.Guess[die] {
				result.Won = false
			}
		}
		result.Outcomes = append(result.Outcomes, faces)
	}

	if result.Won {
		result.Payout = int64(math.Floor(float64(bet.Stake) * odds))
	}
	return result, nil
}

func validateDiceBet(bet entities.DiceBet) error {
	if bet.Stake <= 0 {
		return fmt.Errorf("%w: stake must be positive", ErrInvalidBet)
	}
	if len(bet.Rounds) == 0 {
		return fmt.Errorf("%w: at least one round required", ErrInvalidBet)
	}
	for i, round := range bet.Rounds {
		if round.NumDice != 1 && round.NumDice != 2 {
			return fmt.Errorf("%w: round %d die count must be 1 or 2", ErrInvalidBet, i)
		}
		if len(round.Guess) != round.NumDice {
			return fmt.Errorf("%w: round %d has %d guesses for %d dice", ErrInvalidBet, i, len(round.Guess), round.NumDice)
		}
		for _, guess := range round.Guess {
			if guess < 1 || guess > 6 {
				return fmt.Errorf("%w: round %d guess %d outside 1..6", ErrInvalidBet, i, guess)
			}
		}
	}
	return nil
}
