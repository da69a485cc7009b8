package services

import (
	"fmt"
	"math"

	"stakehouse/domain/entities"
)

// RPSOutcomeKind classifies a rock-paper-scissors round
type RPSOutcomeKind string

const (
	RPSWin  RPSOutcomeKind = "win"
	RPSLoss RPSOutcomeKind = "loss"
	RPSTie  RPSOutcomeKind = "tie"
)

// RPSResult is the resolved outcome of a rock-paper-scissors bet
type RPSResult struct {
	HouseMove entities.RPSMove `json:"houseMove"`
	Outcome   RPSOutcomeKind   `json:"outcome"`
	Won       bool             `json:"won"`
	Payout    int64            `json:"payout"`
}

// beats maps each move to the move it defeats
var beats = map[entities.RPSMove]entities.RPSMove{
	entities.RPSMoveRock:     entities.RPSMoveScissors,
	entities.RPSMovePaper:    entities.RPSMoveRock,
	entities.RPSMoveScissors: entities.RPSMovePaper,
}

// rpsMoves is the uniform selection order for the house move
var rpsMoves = []entities.RPSMove{
	entities.RPSMoveRock,
	entities.RPSMovePaper,
	entities.RPSMoveScissors,
}

// RPSOdds is the payout multiplier on a win: 2:1. A tie returns the stake
// with no net gain; a loss pays nothing.
func RPSOdds(bet entities.RPSBet) (float64, error) {
	if err := validateRPSBet(bet); err != nil {
		return 0, err
	}
	return 2, nil
}

// RPSHouseMove maps one draw to a uniformly selected house move
func RPSHouseMove(draw entities.Draw) entities.RPSMove {
	return rpsMoves[int(math.Floor(draw.Value*3))]
}

// ResolveRPS resolves a rock-paper-scissors bet against one draw
func ResolveRPS(bet entities.RPSBet, draw entities.Draw) (*RPSResult, error) {
	if _, err := RPSOdds(bet); err != nil {
		return nil, err
	}

	house := RPSHouseMove(draw)
	result := &RPSResult{HouseMove: house}

	switch {
	case house == bet.Move:
		result.Outcome = RPSTie
		result.Payout = bet.Stake
	case beats[bet.Move] == house:
		result.Outcome = RPSWin
		result.Won = true
		result.Payout = 2 * bet.Stake
	default:
		result.Outcome = RPSLoss
	}
	return result, nil
}

func validateRPSBet(bet entities.RPSBet) error {
	if bet.Stake <= 0 {
		return fmt.Errorf("%w: stake must be positive", ErrInvalidBet)
	}
	if _, ok := beats[bet.Move]; !ok {
		return fmt.Errorf("%w: unknown move %q", ErrInvalidBet, bet.Move)
	}
	return nil
}
