package entities

import "fmt"

// Suit represents a card suit
type Suit string

const (
	SuitHearts   Suit = "hearts"
	SuitDiamonds Suit = "diamonds"
	SuitClubs    Suit = "clubs"
	SuitSpades   Suit = "spades"
)

// Rank represents a card rank
type Rank string

const (
	RankTwo   Rank = "2"
	RankThree Rank = "3"
	RankFour  Rank = "4"
	RankFive  Rank = "5"
	RankSix   Rank = "6"
	RankSeven Rank = "7"
	RankEight Rank = "8"
	RankNine  Rank = "9"
	RankTen   Rank = "10"
	RankJack  Rank = "J"
	RankQueen Rank = "Q"
	RankKing  Rank = "K"
	RankAce   Rank = "A"
)

// Suits lists every suit in deck-building order
var Suits = []Suit{SuitHearts, SuitDiamonds, SuitClubs, SuitSpades}

// Ranks lists every rank in deck-building order
var Ranks = []Rank{
	RankTwo, RankThree, RankFour, RankFive, RankSix, RankSeven, RankEight,
	RankNine, RankTen, RankJack, RankQueen, RankKing, RankAce,
}

// Card represents a playing card
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// String returns the string representation of the card
func (c Card) String() string {
	return fmt.Sprintf("%s of %s", c.Rank, c.Suit)
}

// BaseValue returns the blackjack value of the card, counting an ace as 11.
// Ace demotion happens at hand level, not card level.
func (c Card) BaseValue() int {
	switch c.Rank {
	case RankAce:
		return 11
	case RankJack, RankQueen, RankKing, RankTen:
		return 10
	default:
		var v int
		fmt.Sscanf(string(c.Rank), "%d", &v)
		return v
	}
}

// NewOrderedDeck builds the 52 cards of a standard deck in canonical order.
// Shuffling is the caller's job; it must go through the fairness source.
func NewOrderedDeck() []Card {
	cards := make([]Card, 0, 52)
	for _, suit := range Suits {
		for _, rank := range Ranks {
			cards = append(cards, Card{Suit: suit, Rank: rank})
		}
	}
	return cards
}

// ScoreHand computes the blackjack score of a hand: aces count 11, face
// cards count 10, then one ace at a time is demoted to 1 while the total
// exceeds 21. Bust is a score above 21 after all possible demotions.
func ScoreHand(cards []Card) int {
	score := 0
	aces := 0
	for _, c := range cards {
		score += c.BaseValue()
		if c.Rank == RankAce {
			aces++
		}
	}
	for score > 21 && aces > 0 {
		score -= 10
		aces--
	}
	return score
}
