package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stakehouse/domain/entities"
)

func drawWithValue(value float64) entities.Draw {
	return entities.Draw{Seed: "test", Algorithm: entities.DrawAlgorithmSHA256, Value: value}
}

func TestCoinFlipOdds_SameFaceCompounds(t *testing.T) {
	bet := entities.CoinFlipBet{
		Stake:   100,
		Guesses: []entities.CoinFace{entities.CoinFaceHeads, entities.CoinFaceHeads, entities.CoinFaceHeads},
	}

	odds, err := CoinFlipOdds(bet)
	require.NoError(t, err)
	assert.InDelta(t, 3.375, odds, 1e-9) // 1.5^3
}

func TestCoinFlipOdds_MixedFaces(t *testing.T) {
	bet := entities.CoinFlipBet{
		Stake:   100,
		Guesses: []entities.CoinFace{entities.CoinFaceHeads, entities.CoinFaceTails, entities.CoinFaceHeads},
	}

	odds, err := CoinFlipOdds(bet)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, odds, 1e-9) // rounds + 0.5
}

func TestCoinFlipOutcome_Threshold(t *testing.T) {
	assert.Equal(t, entities.CoinFaceHeads, CoinFlipOutcome(drawWithValue(0.0)))
	assert.Equal(t, entities.CoinFaceHeads, CoinFlipOutcome(drawWithValue(0.499)))
	assert.Equal(t, entities.CoinFaceTails, CoinFlipOutcome(drawWithValue(0.5)))
	assert.Equal(t, entities.CoinFaceTails, CoinFlipOutcome(drawWithValue(0.999)))
}

func TestResolveCoinFlip_AllRoundsMustMatch(t *testing.T) {
	bet := entities.CoinFlipBet{
		Stake:   100,
		Guesses: []entities.CoinFace{entities.CoinFaceHeads, entities.CoinFaceHeads},
	}

	result, err := ResolveCoinFlip(bet, []entities.Draw{drawWithValue(0.1), drawWithValue(0.2)})
	require.NoError(t, err)
	assert.True(t, result.Won)
	assert.Equal(t, int64(225), result.Payout) // floor(100 * 1.5^2)

	result, err = ResolveCoinFlip(bet, []entities.Draw{drawWithValue(0.1), drawWithValue(0.9)})
	require.NoError(t, err)
	assert.False(t, result.Won)
	assert.Equal(t, int64(0), result.Payout)
	assert.Equal(t, []entities.CoinFace{entities.CoinFaceHeads, entities.CoinFaceTails}, result.Outcomes)
}

func TestResolveCoinFlip_DrawCountMismatch(t *testing.T) {
	bet := entities.CoinFlipBet{Stake: 100, Guesses: []entities.CoinFace{entities.CoinFaceHeads}}

	_, err := ResolveCoinFlip(bet, []entities.Draw{drawWithValue(0.1), drawWithValue(0.2)})
	assert.ErrorIs(t, err, ErrInvalidBet)
}

func TestCoinFlipOdds_Validation(t *testing.T) {
	_, err := CoinFlipOdds(entities.CoinFlipBet{Stake: 0, Guesses: []entities.CoinFace{entities.CoinFaceHeads}})
	assert.ErrorIs(t, err, ErrInvalidBet)

	_, err = CoinFlipOdds(entities.CoinFlipBet{Stake: 100})
	assert.ErrorIs(t, err, ErrInvalidBet)

	_, err = CoinFlipOdds(entities.CoinFlipBet{Stake: 100, Guesses: []entities.CoinFace{"edge"}})
	assert.ErrorIs(t, err, ErrInvalidBet)
}
