package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreHand(t *testing.T) {
	tests := []struct {
		name     string
		hand     []Card
		expected int
	}{
		{
			"ace and king is blackjack",
			[]Card{{SuitSpades, RankAce}, {SuitHearts, RankKing}},
			21,
		},
		{
			"two aces demote one",
			[]Card{{SuitSpades, RankAce}, {SuitHearts, RankAce}, {SuitClubs, RankNine}},
			21,
		},
		{
			"face cards bust without aces",
			[]Card{{SuitSpades, RankKing}, {SuitHearts, RankQueen}, {SuitClubs, RankFive}},
			25,
		},
		{
			"all aces demote down to minimum",
			[]Card{{SuitSpades, RankAce}, {SuitHearts, RankAce}, {SuitClubs, RankAce}, {SuitDiamonds, RankAce}},
			14,
		},
		{
			"soft seventeen",
			[]Card{{SuitSpades, RankAce}, {SuitHearts, RankSix}},
			17,
		},
		{
			"empty hand",
			nil,
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ScoreHand(tt.hand))
		})
	}
}

func TestCardBaseValue(t *testing.T) {
	assert.Equal(t, 11, Card{SuitSpades, RankAce}.BaseValue())
	assert.Equal(t, 10, Card{SuitSpades, RankKing}.BaseValue())
	assert.Equal(t, 10, Card{SuitSpades, RankTen}.BaseValue())
	assert.Equal(t, 2, Card{SuitSpades, RankTwo}.BaseValue())
	assert.Equal(t, 9, Card{SuitSpades, RankNine}.BaseValue())
}

func TestNewOrderedDeck(t *testing.T) {
	deck := NewOrderedDeck()
	assert.Len(t, deck, 52)

	seen := make(map[Card]bool, 52)
	for _, card := range deck {
		assert.False(t, seen[card], "duplicate card %s", card)
		seen[card] = true
	}
}
