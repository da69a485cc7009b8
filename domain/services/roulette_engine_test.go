package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stakehouse/domain/entities"
)

func singleWager(number int) entities.RouletteWager {
	return entities.RouletteWager{Kind: entities.RouletteBetSingle, Number: number}
}

// drawForNumber builds a draw whose value maps to the given pocket
func drawForNumber(number int) entities.Draw {
	return drawWithValue((float64(number) + 0.5) / 37)
}

func TestRouletteWagerMultiplier(t *testing.T) {
	m, err := RouletteWagerMultiplier(singleWager(7))
	require.NoError(t, err)
	assert.InDelta(t, 35.0, m, 1e-9)

	// dozen: 36/12 - 1 = 2
	m, err = RouletteWagerMultiplier(entities.RouletteWager{Kind: entities.RouletteBetRange, From: 1, To: 12})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, m, 1e-9)

	m, err = RouletteWagerMultiplier(entities.RouletteWager{Kind: entities.RouletteBetColor, Color: entities.RouletteColorRed})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, m, 1e-9)

	m, err = RouletteWagerMultiplier(entities.RouletteWager{Kind: entities.RouletteBetParity, Parity: entities.RouletteParityEven})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, m, 1e-9)
}

func TestResolveRoulette_SingleNumber(t *testing.T) {
	bet := entities.RouletteBet{Stake: 10, Wagers: []entities.RouletteWager{singleWager(7)}}

	result, err := ResolveRoulette(bet, drawForNumber(7))
	require.NoError(t, err)
	assert.Equal(t, 7, result.WinningNumber)
	assert.True(t, result.Won)
	assert.Equal(t, int64(350), result.Payout) // 10 * 35

	result, err = ResolveRoulette(bet, drawForNumber(8))
	require.NoError(t, err)
	assert.False(t, result.Won)
	assert.Equal(t, int64(0), result.Payout)
}

func TestResolveRoulette_MultiWagerSumsMultipliers(t *testing.T) {
	bet := entities.RouletteBet{
		Stake: 10,
		Wagers: []entities.RouletteWager{
			singleWager(7),
			{Kind: entities.RouletteBetRange, From: 1, To: 12},
			{Kind: entities.RouletteBetParity, Parity: entities.RouletteParityOdd},
		},
	}

	// 7 wins all three wagers: 35 + 2 + 1
	result, err := ResolveRoulette(bet, drawForNumber(7))
	require.NoError(t, err)
	assert.True(t, result.Won)
	assert.Equal(t, []int{0, 1, 2}, result.WonWagers)
	assert.InDelta(t, 38.0, result.PayoutFactor, 1e-9)
	assert.Equal(t, int64(380), result.Payout)

	// 14 wins neither the single nor the dozen nor odd
	result, err = ResolveRoulette(bet, drawForNumber(14))
	require.NoError(t, err)
	assert.False(t, result.Won)
}

func TestResolveRoulette_ZeroIsNeitherColorNorParity(t *testing.T) {
	bet := entities.RouletteBet{
		Stake: 10,
		Wagers: []entities.RouletteWager{
			{Kind: entities.RouletteBetColor, Color: entities.RouletteColorRed},
			{Kind: entities.RouletteBetColor, Color: entities.RouletteColorBlack},
			{Kind: entities.RouletteBetParity, Parity: entities.RouletteParityOdd},
			{Kind: entities.RouletteBetParity, Parity: entities.RouletteParityEven},
		},
	}

	result, err := ResolveRoulette(bet, drawForNumber(0))
	require.NoError(t, err)
	assert.Equal(t, 0, result.WinningNumber)
	assert.False(t, result.Won)
	assert.Empty(t, result.WonWagers)
}

func TestResolveRoulette_ColorAndParity(t *testing.T) {
	// 7 is red and odd
	bet := entities.RouletteBet{
		Stake: 10,
		Wagers: []entities.RouletteWager{
			{Kind: entities.RouletteBetColor, Color: entities.RouletteColorRed},
			{Kind: entities.RouletteBetParity, Parity: entities.RouletteParityOdd},
		},
	}
	result, err := ResolveRoulette(bet, drawForNumber(7))
	require.NoError(t, err)
	assert.Equal(t, int64(20), result.Payout)

	// 10 is black and even
	bet.Wagers = []entities.RouletteWager{
		{Kind: entities.RouletteBetColor, Color: entities.RouletteColorBlack},
		{Kind: entities.RouletteBetParity, Parity: entities.RouletteParityEven},
	}
	result, err = ResolveRoulette(bet, drawForNumber(10))
	require.NoError(t, err)
	assert.Equal(t, int64(20), result.Payout)
}

func TestRouletteOutcome_CoversFullWheel(t *testing.T) {
	assert.Equal(t, 0, RouletteOutcome(drawWithValue(0.0)))
	assert.Equal(t, 36, RouletteOutcome(drawWithValue(0.999999)))
}

func TestRouletteOdds_Validation(t *testing.T) {
	_, err := RouletteOdds(entities.RouletteBet{Stake: 0, Wagers: []entities.RouletteWager{singleWager(7)}})
	assert.ErrorIs(t, err, ErrInvalidBet)

	_, err = RouletteOdds(entities.RouletteBet{Stake: 10})
	assert.ErrorIs(t, err, ErrInvalidBet)

	_, err = RouletteOdds(entities.RouletteBet{Stake: 10, Wagers: []entities.RouletteWager{singleWager(37)}})
	assert.ErrorIs(t, err, ErrInvalidBet)

	_, err = RouletteOdds(entities.RouletteBet{Stake: 10, Wagers: []entities.RouletteWager{
		{Kind: entities.RouletteBetRange, From: 12, To: 1},
	}})
	assert.ErrorIs(t, err, ErrInvalidBet)
}
