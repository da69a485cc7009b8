package services

import (
	"fmt"
	"math"

	"stakehouse/domain/entities"
)

// redNumbers is the standard single-zero wheel red set. Zero is neither
// red nor black and neither odd nor even.
var redNumbers = map[int]bool{
	1: true, 3: true, 5: true, 7: true, 9: true, 12: true, 14: true,
	16: true, 18: true, 19: true, 21: true, 23: true, 25: true, 27: true,
	30: true, 32: true, 34: true, 36: true,
}

// RouletteResult is the resolved outcome of a roulette bet
type RouletteResult struct {
	WinningNumber int     `json:"winningNumber"`
	WonWagers     []int   `json:"wonWagers"` // indexes into the bet's wagers
	Won           bool    `json:"won"`
	Payout        int64   `json:"payout"`
	PayoutFactor  float64 `json:"payoutFactor"` // sum of won multipliers
}

// RouletteWagerMultiplier returns the payout multiplier of a single wager:
// 35 for a single number, (36/size)-1 for a numeric range, 1 for color
// and parity
func RouletteWagerMultiplier(wager entities.RouletteWager) (float64, error) {
	switch wager.Kind {
	case entities.RouletteBetSingle:
		if wager.Number < 0 || wager.Number > 36 {
			return 0, fmt.Errorf("%w: number %d outside 0..36", ErrInvalidBet, wager.Number)
		}
		return 35, nil
	case entities.RouletteBetRange:
		if wager.From < 0 || wager.To > 36 || wager.From > wager.To {
			return 0, fmt.Errorf("%w: range %d..%d invalid", ErrInvalidBet, wager.From, wager.To)
		}
		size := float64(wager.To - wager.From + 1)
		return 36/size - 1, nil
	case entities.RouletteBetColor:
		if wager.Color != entities.RouletteColorRed && wager.Color != entities.RouletteColorBlack {
			return 0, fmt.Errorf("%w: unknown color %q", ErrInvalidBet, wager.Color)
		}
		return 1, nil
	case entities.RouletteBetParity:
		if wager.Parity != entities.RouletteParityOdd && wager.Parity != entities.RouletteParityEven {
			return 0, fmt.Errorf("%w: unknown parity %q", ErrInvalidBet, wager.Parity)
		}
		return 1, nil
	default:
		return 0, fmt.Errorf("%w: unknown wager kind %q", ErrInvalidBet, wager.Kind)
	}
}

// RouletteOdds computes the total odds for a multi-wager bet before the
// draw is consumed: the sum of each wager's payout multiplier
func RouletteOdds(bet entities.RouletteBet) (float64, error) {
	if bet.Stake <= 0 {
		return 0, fmt.Errorf("%w: stake must be positive", ErrInvalidBet)
	}
	if len(bet.Wagers) == 0 {
		return 0, fmt.Errorf("%w: at least one wager required", ErrInvalidBet)
	}

	total := 0.0
	for _, wager := range bet.Wagers {
		multiplier, err := RouletteWagerMultiplier(wager)
		if err != nil {
			return 0, err
		}
		total += multiplier
	}
	return total, nil
}

// RouletteOutcome maps one draw to a wheel pocket in 0..36
func RouletteOutcome(draw entities.Draw) int {
	return int(math.Floor(draw.Value * 37))
}

// wagerWins reports whether a wager covers the winning number
func wagerWins(wager entities.RouletteWager, number int) bool {
	switch wager.Kind {
	case entities.RouletteBetSingle:
		return wager.Number == number
	case entities.RouletteBetRange:
		return number >= wager.From && number <= wager.To
	case entities.RouletteBetColor:
		if number == 0 {
			return false
		}
		if wager.Color == entities.RouletteColorRed {
			return redNumbers[number]
		}
		return !redNumbers[number]
	case entities.RouletteBetParity:
		if number == 0 {
			return false
		}
		if wager.Parity == entities.RouletteParityOdd {
			return number%2 == 1
		}
		return number%2 == 0
	default:
		return false
	}
}

// ResolveRoulette resolves a multi-wager roulette bet against a single
// spin. The payout is stake times the sum of the multipliers of every
// wager that covered the winning number.
func ResolveRoulette(bet entities.RouletteBet, draw entities.Draw) (*RouletteResult, error) {
	if _, err := RouletteOdds(bet); err != nil {
		return nil, err
	}

	number := RouletteOutcome(draw)
	result := &RouletteResult{WinningNumber: number}

	for i, wager := range bet.Wagers {
		if !wagerWins(wager, number) {
			continue
		}
		multiplier, err := RouletteWagerMultiplier(wager)
		if err != nil {
			return nil, err
		}
		result.WonWagers = append(result.WonWagers, i)
		result.PayoutFactor += multiplier
	}

	if result.PayoutFactor > 0 {
		result.Won = true
		result.Payout = int64(math.Floor(float64(bet.Stake) * result.PayoutFactor))
	}
	return result, nil
}
