package entities

import (
	"time"

	"github.com/google/uuid"
)

// TableStatus is the lifecycle state of a blackjack table
type TableStatus string

const (
	TableStatusStarted  TableStatus = "started"
	TableStatusFinished TableStatus = "finished"
)

// SeatResult is the settled outcome for one seat
type SeatResult string

const (
	SeatResultWin     SeatResult = "win"
	SeatResultLose    SeatResult = "lose"
	SeatResultPush    SeatResult = "push"
	SeatResultForfeit SeatResult = "forfeit"
)

// Seat is one player's slot at a blackjack table. Paid flips once the
// seat's payout has been applied, so a re-run settlement never credits
// the same seat twice.
type Seat struct {
	UserID         int64       `json:"userId"`
	Hand           []Card      `json:"hand"`
	Score          int         `json:"score"`
	Standing       bool        `json:"standing"`
	Result         *SeatResult `json:"result,omitempty"`
	Paid           bool        `json:"paid,omitempty"`
	DisconnectedAt *time.Time  `json:"disconnectedAt,omitempty"`
}

// Busted returns true when the seat's score exceeds 21
func (s *Seat) Busted() bool {
	return s.Score > 21
}

// BlackjackTable is the full state of one multiplayer blackjack table.
// The deck is exclusively owned by the table for its lifetime; no two
// tables ever share a deck. Dealt cards plus remaining cards always sum
// to the 52 of a single standard deck.
type BlackjackTable struct {
	ID             uuid.UUID   `json:"id"`
	Stake          int64       `json:"stake"`
	DealerHand     []Card      `json:"dealerHand"`
	DealerScore    int         `json:"dealerScore"`
	DealerStanding bool        `json:"dealerStanding"`
	Seats          []*Seat     `json:"seats"`
	Deck           []Card      `json:"deck"`
	Status         TableStatus `json:"status"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// SeatFor returns the seat held by the user, or nil
func (t *BlackjackTable) SeatFor(userID int64) *Seat {
	for _, seat := range t.Seats {
		if seat.UserID == userID {
			return seat
		}
	}
	return nil
}

// Deal removes and returns the top card of the table's deck
func (t *BlackjackTable) Deal() (Card, bool) {
	if len(t.Deck) == 0 {
		return Card{}, false
	}
	card := t.Deck[0]
	t.Deck = t.Deck[1:]
	return card, true
}

// AllStanding returns true once every seat has stood or been forfeited
func (t *BlackjackTable) AllStanding() bool {
	for _, seat := range t.Seats {
		if !seat.Standing {
			return false
		}
	}
	return len(t.Seats) > 0
}

// CardsDealt counts every card outside the deck: dealer hand plus all seats
func (t *BlackjackTable) CardsDealt() int {
	dealt := len(t.DealerHand)
	for _, seat := range t.Seats {
		dealt += len(seat.Hand)
	}
	return dealt
}

// SettleSeats derives per-seat results against the dealer once the dealer
// has finished playing. Forfeited seats keep their forced loss.
func (t *BlackjackTable) SettleSeats() {
	for _, seat := range t.Seats {
		if seat.Result != nil && *seat.Result == SeatResultForfeit {
			continue
		}
		result := compareToDealer(seat.Score, t.DealerScore)
		seat.Result = &result
	}
}

// Clone returns a deep copy of the table. Callers outside the table's
// lock only ever see clones.
func (t *BlackjackTable) Clone() *BlackjackTable {
	clone := *t
	clone.DealerHand = append([]Card(nil), t.DealerHand...)
	clone.Deck = append([]Card(nil), t.Deck...)
	clone.Seats = make([]*Seat, 0, len(t.Seats))
	for _, seat := range t.Seats {
		seatCopy := *seat
		seatCopy.Hand = append([]Card(nil), seat.Hand...)
		if seat.Result != nil {
			result := *seat.Result
			seatCopy.Result = &result
		}
		if seat.DisconnectedAt != nil {
			ts := *seat.DisconnectedAt
			seatCopy.DisconnectedAt = &ts
		}
		clone.Seats = append(clone.Seats, &seatCopy)
	}
	return &clone
}

// compareToDealer applies the standard comparison: bust loses outright,
// dealer bust pays any live hand, otherwise higher score wins and equal
// scores push.
func compareToDealer(seatScore, dealerScore int) SeatResult {
	switch {
	case seatScore > 21:
		return SeatResultLose
	case dealerScore > 21:
		return SeatResultWin
	case seatScore > dealerScore:
		return SeatResultWin
	case seatScore < dealerScore:
		return SeatResultLose
	default:
		return SeatResultPush
	}
}
