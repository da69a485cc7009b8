package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stakehouse/domain/entities"
)

func TestRPSHouseMove_UniformSelection(t *testing.T) {
	assert.Equal(t, entities.RPSMoveRock, RPSHouseMove(drawWithValue(0.0)))
	assert.Equal(t, entities.RPSMoveRock, RPSHouseMove(drawWithValue(0.33)))
	assert.Equal(t, entities.RPSMovePaper, RPSHouseMove(drawWithValue(0.34)))
	assert.Equal(t, entities.RPSMoveScissors, RPSHouseMove(drawWithValue(0.99)))
}

func TestResolveRPS_WinPaysDouble(t *testing.T) {
	bet := entities.RPSBet{Stake: 100, Move: entities.RPSMoveRock}

	// house plays scissors
	result, err := ResolveRPS(bet, drawWithValue(0.9))
	require.NoError(t, err)
	assert.Equal(t, RPSWin, result.Outcome)
	assert.True(t, result.Won)
	assert.Equal(t, int64(200), result.Payout)
}

func TestResolveRPS_TieReturnsStake(t *testing.T) {
	bet := entities.RPSBet{Stake: 100, Move: entities.RPSMoveRock}

	// house plays rock
	result, err := ResolveRPS(bet, drawWithValue(0.1))
	require.NoError(t, err)
	assert.Equal(t, RPSTie, result.Outcome)
	assert.False(t, result.Won)
	assert.Equal(t, int64(100), result.Payout)
}

func TestResolveRPS_LossPaysNothing(t *testing.T) {
	bet := entities.RPSBet{Stake: 100, Move: entities.RPSMoveRock}

	// house plays paper
	result, err := ResolveRPS(bet, drawWithValue(0.5))
	require.NoError(t, err)
	assert.Equal(t, RPSLoss, result.Outcome)
	assert.False(t, result.Won)
	assert.Equal(t, int64(0), result.Payout)
}

func TestRPSOdds_Validation(t *testing.T) {
	_, err := RPSOdds(entities.RPSBet{Stake: 0, Move: entities.RPSMoveRock})
	assert.ErrorIs(t, err, ErrInvalidBet)

	_, err = RPSOdds(entities.RPSBet{Stake: 100, Move: "lizard"})
	assert.ErrorIs(t, err, ErrInvalidBet)
}
