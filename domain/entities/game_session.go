package entities

import "time"

// GameType identifies a game variant
type GameType string

const (
	GameTypeCoinFlip  GameType = "coinflip"
	GameTypeDice      GameType = "dice"
	GameTypeRoulette  GameType = "roulette"
	GameTypeRPS       GameType = "rps"
	GameTypeBlackjack GameType = "blackjack"
)

// SessionStatus is the lifecycle state of a game session
type SessionStatus string

const (
	SessionStatusOpen SessionStatus = "open"
	SessionStatusWon  SessionStatus = "won"
	SessionStatusLost SessionStatus = "lost"
	SessionStatusPush SessionStatus = "push"
)

// GameSession aggregates the rounds sharing a single stake decision.
// Created at bet placement and finalized once every round has resolved.
type GameSession struct {
	ID           int64         `db:"id"`
	UserID       int64         `db:"user_id"`
	TournamentID *int64        `db:"tournament_id"`
	GameType     GameType      `db:"game_type"`
	Stake        int64         `db:"stake"`
	TotalOdds    float64       `db:"total_odds"`
	WinAmount    int64         `db:"win_amount"`
	Status       SessionStatus `db:"status"`
	CreatedAt    time.Time     `db:"created_at"`
}

// IsFinalized returns true once the session left the open state
func (s *GameSession) IsFinalized() bool {
	return s.Status != SessionStatusOpen
}

// Round is one resolved unit of play within a session. Settlement fields are
// written exactly once; a round is never mutated afterwards.
type Round struct {
	ID        int64     `db:"id"`
	SessionID int64     `db:"session_id"`
	UserID    int64     `db:"user_id"`
	GameType  GameType  `db:"game_type"`
	Guess     string    `db:"guess"`   // JSON-encoded bet shape for this round
	Outcome   string    `db:"outcome"` // JSON-encoded resolved outcome
	WinAmount int64     `db:"win_amount"`
	Draws     []*Draw   `db:"-"`
	CreatedAt time.Time `db:"created_at"`
}
