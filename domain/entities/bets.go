package entities

// CoinFace is one side of the coin
type CoinFace string

const (
	CoinFaceHeads CoinFace = "heads"
	CoinFaceTails CoinFace = "tails"
)

// CoinFlipBet is a multi-round coin flip wager sharing one stake
type CoinFlipBet struct {
	Stake   int64      `json:"stake"`
	Guesses []CoinFace `json:"guesses"` // one guess per round
}

// DiceRound is one throw of one or two dice with an ordered guess per die
type DiceRound struct {
	NumDice int   `json:"numDice"`
	Guess   []int `json:"guess"`
}

// DiceBet is a multi-round dice wager sharing one stake
type DiceBet struct {
	Stake  int64       `json:"stake"`
	Rounds []DiceRound `json:"rounds"`
}

// RouletteBetKind is the shape of a single roulette wager
type RouletteBetKind string

const (
	RouletteBetSingle RouletteBetKind = "single"
	RouletteBetRange  RouletteBetKind = "range"
	RouletteBetColor  RouletteBetKind = "color"
	RouletteBetParity RouletteBetKind = "parity"
)

// RouletteColor is a wheel color. Zero is neither red nor black.
type RouletteColor string

const (
	RouletteColorRed   RouletteColor = "red"
	RouletteColorBlack RouletteColor = "black"
)

// RouletteParity is an odd/even wager. Zero is neither odd nor even.
type RouletteParity string

const (
	RouletteParityOdd  RouletteParity = "odd"
	RouletteParityEven RouletteParity = "even"
)

// RouletteWager is one bet against a single spin. A RouletteBet may carry
// several wagers, all resolved by the same winning number.
type RouletteWager struct {
	Kind   RouletteBetKind `json:"kind"`
	Number int             `json:"number,omitempty"` // single
	From   int             `json:"from,omitempty"`   // range, inclusive
	To     int             `json:"to,omitempty"`     // range, inclusive
	Color  RouletteColor   `json:"color,omitempty"`  // color
	Parity RouletteParity  `json:"parity,omitempty"` // parity
}

// RouletteBet is a multi-wager roulette bet against one spin
type RouletteBet struct {
	Stake  int64           `json:"stake"`
	Wagers []RouletteWager `json:"wagers"`
}

// RPSMove is a rock-paper-scissors move
type RPSMove string

const (
	RPSMoveRock     RPSMove = "rock"
	RPSMovePaper    RPSMove = "paper"
	RPSMoveScissors RPSMove = "scissors"
)

// RPSBet is a single-round rock-paper-scissors wager against the house
type RPSBet struct {
	Stake int64   `json:"stake"`
	Move  RPSMove `json:"move"`
}
