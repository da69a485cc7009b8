package events

import "stakehouse/domain/entities"

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange       EventType = "balance_change"
	EventTypeRoundResolved       EventType = "round_resolved"
	EventTypeTableFinished       EventType = "table_finished"
	EventTypeTournamentDisbursed EventType = "tournament_disbursed"
	EventTypeRewardClaimState    EventType = "reward_claim_state"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a ticket balance movement
type BalanceChangeEvent struct {
	UserID        int64
	BalanceBefore int64
	BalanceAfter  int64
	ChangeAmount  int64
	Reason        string
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// RoundResolvedEvent represents a game session reaching its outcome
type RoundResolvedEvent struct {
	UserID    int64
	SessionID int64
	GameType  entities.GameType
	Stake     int64
	WinAmount int64
	Won       bool
}

func (e RoundResolvedEvent) Type() EventType {
	return EventTypeRoundResolved
}

// TableFinishedEvent represents a blackjack table reaching its terminal state
type TableFinishedEvent struct {
	TableID     string
	DealerScore int
	SeatCount   int
}

func (e TableFinishedEvent) Type() EventType {
	return EventTypeTableFinished
}

// TournamentDisbursedEvent represents a settled tournament
type TournamentDisbursedEvent struct {
	TournamentID    int64
	RewardCount     int
	PayableTickets  float64
	RolloverTickets float64
	TxID            string
}

func (e TournamentDisbursedEvent) Type() EventType {
	return EventTypeTournamentDisbursed
}

// RewardClaimStateEvent represents a reward claim state transition
type RewardClaimStateEvent struct {
	RewardID int64
	UserID   int64
	State    entities.RewardClaimState
}

func (e RewardClaimStateEvent) Type() EventType {
	return EventTypeRewardClaimState
}
