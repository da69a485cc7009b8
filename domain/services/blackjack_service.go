package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"stakehouse/domain/entities"
	"stakehouse/domain/events"
	"stakehouse/domain/interfaces"
)

// tableEntry pairs a live table with the mutex serializing every operation
// against it. Different tables proceed fully in parallel.
type tableEntry struct {
	mu    sync.Mutex
	table *entities.BlackjackTable
}

type blackjackService struct {
	fairness       interfaces.FairnessSource
	tableRepo      interfaces.BlackjackTableRepository
	userRepo       interfaces.UserRepository
	eventPublisher interfaces.EventPublisher
	maxSeats       int
	grace          time.Duration

	// registry of live tables, keyed strictly by table id. The deck
	// inside each table is the authoritative single-owner resource for
	// all deals at that table and is released with the entry.
	mu     sync.RWMutex
	tables map[uuid.UUID]*tableEntry
}

// NewBlackjackService creates a new blackjack service
func NewBlackjackService(
	fairness interfaces.FairnessSource,
	tableRepo interfaces.BlackjackTableRepository,
	userRepo interfaces.UserRepository,
	eventPublisher interfaces.EventPublisher,
	maxSeats int,
	disconnectGrace time.Duration,
) interfaces.BlackjackService {
	return &blackjackService{
		fairness:       fairness,
		tableRepo:      tableRepo,
		userRepo:       userRepo,
		eventPublisher: eventPublisher,
		maxSeats:       maxSeats,
		grace:          disconnectGrace,
		tables:         make(map[uuid.UUID]*tableEntry),
	}
}

// Start builds a fresh fully shuffled single deck, deals two cards to the
// creator and one to the dealer, and registers the table
func (s *blackjackService) Start(ctx context.Context, creatorID int64, stake int64) (*entities.BlackjackTable, error) {
	if stake <= 0 {
		return nil, fmt.Errorf("%w: stake must be positive", ErrInvalidBet)
	}
	fromBought, fromFree, err := s.debitStake(ctx, creatorID, stake)
	if err != nil {
		return nil, err
	}

	table := &entities.BlackjackTable{
		ID:        uuid.New(),
		Stake:     stake,
		Deck:      s.shuffledDeck(),
		Status:    entities.TableStatusStarted,
		CreatedAt: time.Now().UTC(),
	}

	seat := &entities.Seat{UserID: creatorID}
	s.dealTo(table, &seat.Hand, 2)
	seat.Score = entities.ScoreHand(seat.Hand)
	table.Seats = append(table.Seats, seat)

	s.dealTo(table, &table.DealerHand, 1)
	table.DealerScore = entities.ScoreHand(table.DealerHand)

	// The table was never registered, so a failed persist only has the
	// debit to undo
	if err := s.tableRepo.Upsert(ctx, table); err != nil {
		s.refundStake(ctx, creatorID, fromBought, fromFree)
		return nil, fmt.Errorf("failed to persist table: %w", err)
	}

	s.mu.Lock()
	s.tables[table.ID] = &tableEntry{table: table}
	s.mu.Unlock()

	log.WithFields(log.Fields{
		"table_id":   table.ID,
		"creator_id": creatorID,
		"stake":      stake,
	}).Info("Blackjack table started")

	return table.Clone(), nil
}

// Join seats a second player at the table and deals two cards from the
// same retained deck
func (s *blackjackService) Join(ctx context.Context, tableID uuid.UUID, userID int64) (*entities.BlackjackTable, error) {
	entry, err := s.entry(tableID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	table := entry.table

	if table.Status != entities.TableStatusStarted {
		return nil, fmt.Errorf("%w: table %s already finished", ErrStateConflict, tableID)
	}
	if len(table.Seats) >= s.maxSeats {
		return nil, fmt.Errorf("%w: table %s is full", ErrStateConflict, tableID)
	}
	if table.SeatFor(userID) != nil {
		return nil, fmt.Errorf("%w: user %d already seated", ErrStateConflict, userID)
	}
	fromBought, fromFree, err := s.debitStake(ctx, userID, table.Stake)
	if err != nil {
		return nil, err
	}

	snapshot := table.Clone()
	seat := &entities.Seat{UserID: userID}
	s.dealTo(table, &seat.Hand, 2)
	seat.Score = entities.ScoreHand(seat.Hand)
	table.Seats = append(table.Seats, seat)

	// A failed persist undoes the whole join: the seat and its cards
	// revert to the snapshot and the stake goes back
	if err := s.tableRepo.Upsert(ctx, table); err != nil {
		entry.table = snapshot
		s.refundStake(ctx, userID, fromBought, fromFree)
		return nil, fmt.Errorf("failed to persist table: %w", err)
	}

	return table.Clone(), nil
}

// Hit draws one card from the table's deck into the seat's hand. A bust
// stands the seat automatically.
func (s *blackjackService) Hit(ctx context.Context, tableID uuid.UUID, userID int64) (*entities.BlackjackTable, error) {
	entry, err := s.entry(tableID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	table := entry.table

	seat, err := s.actingSeat(table, userID)
	if err != nil {
		return nil, err
	}

	s.dealTo(table, &seat.Hand, 1)
	seat.Score = entities.ScoreHand(seat.Hand)
	if seat.Busted() {
		seat.Standing = true
	}

	if err := s.tableRepo.Upsert(ctx, table); err != nil {
		return nil, fmt.Errorf("failed to persist table: %w", err)
	}

	return table.Clone(), nil
}

// Stand marks the seat standing
func (s *blackjackService) Stand(ctx context.Context, tableID uuid.UUID, userID int64) (*entities.BlackjackTable, error) {
	entry, err := s.entry(tableID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	table := entry.table

	seat, err := s.actingSeat(table, userID)
	if err != nil {
		return nil, err
	}

	seat.Standing = true

	if err := s.tableRepo.Upsert(ctx, table); err != nil {
		return nil, fmt.Errorf("failed to persist table: %w", err)
	}

	return table.Clone(), nil
}

// DealerPlay runs the dealer hand once every seat is standing: the dealer
// draws until reaching seventeen, then the table finishes and every seat
// is settled against the dealer score
func (s *blackjackService) DealerPlay(ctx context.Context, tableID uuid.UUID) (*entities.BlackjackTable, error) {
	entry, err := s.entry(tableID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	table, err := s.dealerPlayLocked(ctx, entry)
	if err != nil {
		return nil, err
	}
	return table.Clone(), nil
}

// Leave removes the user's seat. A table left with a single seat and no
// opponent is torn down and its deck released; the remaining seat's stake
// is returned.
func (s *blackjackService) Leave(ctx context.Context, tableID uuid.UUID, userID int64) error {
	entry, err := s.entry(tableID)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	table := entry.table

	if table.SeatFor(userID) == nil {
		return fmt.Errorf("%w: user %d at table %s", ErrSeatNotFound, userID, tableID)
	}

	seats := table.Seats[:0]
	for _, seat := range table.Seats {
		if seat.UserID != userID {
			seats = append(seats, seat)
		}
	}
	table.Seats = seats

	if len(table.Seats) <= 1 && table.Status == entities.TableStatusStarted {
		return s.teardownLocked(ctx, table)
	}

	if err := s.tableRepo.Upsert(ctx, table); err != nil {
		return fmt.Errorf("failed to persist table: %w", err)
	}
	return nil
}

// HandleDisconnection marks the user's seats across all tables with a
// disconnection timestamp. The seat is not forfeited immediately: the
// periodic sweep enforces the grace period.
func (s *blackjackService) HandleDisconnection(ctx context.Context, userID int64) error {
	now := time.Now().UTC()

	for _, entry := range s.liveEntries() {
		entry.mu.Lock()
		seat := entry.table.SeatFor(userID)
		if seat != nil && seat.DisconnectedAt == nil && entry.table.Status == entities.TableStatusStarted {
			ts := now
			seat.DisconnectedAt = &ts
			if err := s.tableRepo.Upsert(ctx, entry.table); err != nil {
				entry.mu.Unlock()
				return fmt.Errorf("failed to persist table: %w", err)
			}
			log.WithFields(log.Fields{
				"table_id": entry.table.ID,
				"user_id":  userID,
			}).Info("Seat marked disconnected")
		}
		entry.mu.Unlock()
	}
	return nil
}

// SweepDisconnected forfeits every seat whose disconnection exceeded the
// grace period, then finishes any table left with all seats standing
func (s *blackjackService) SweepDisconnected(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-s.grace)

	for _, entry := range s.liveEntries() {
		entry.mu.Lock()
		table := entry.table
		if table.Status != entities.TableStatusStarted {
			entry.mu.Unlock()
			continue
		}

		forfeited := false
		for _, seat := range table.Seats {
			if seat.DisconnectedAt == nil || !seat.DisconnectedAt.Before(cutoff) {
				continue
			}
			if seat.Result == nil {
				result := entities.SeatResultForfeit
				seat.Result = &result
				seat.Standing = true
				forfeited = true
				log.WithFields(log.Fields{
					"table_id": table.ID,
					"user_id":  seat.UserID,
				}).Info("Seat forfeited after disconnection grace period")
			}
		}

		if forfeited {
			if table.AllStanding() {
				if _, err := s.dealerPlayLocked(ctx, entry); err != nil {
					log.WithError(err).WithField("table_id", table.ID).Error("Failed to finish table after forfeit")
				}
			} else if err := s.tableRepo.Upsert(ctx, table); err != nil {
				log.WithError(err).WithField("table_id", table.ID).Error("Failed to persist table after forfeit")
			}
		}
		entry.mu.Unlock()
	}
	return nil
}

// dealerPlayLocked finishes the table. Caller holds the entry lock.
func (s *blackjackService) dealerPlayLocked(ctx context.Context, entry *tableEntry) (*entities.BlackjackTable, error) {
	table := entry.table

	if table.Status != entities.TableStatusStarted {
		return nil, fmt.Errorf("%w: table %s already finished", ErrStateConflict, table.ID)
	}
	if !table.AllStanding() {
		return nil, fmt.Errorf("%w: table %s has seats still playing", ErrStateConflict, table.ID)
	}

	for table.DealerScore < 17 {
		s.dealTo(table, &table.DealerHand, 1)
		table.DealerScore = entities.ScoreHand(table.DealerHand)
	}
	table.DealerStanding = true
	table.Status = entities.TableStatusFinished
	table.SettleSeats()

	// On any settlement failure the table reverts to started so the next
	// attempt can resume; paid seats are skipped on re-entry
	for _, seat := range table.Seats {
		if err := s.payoutSeat(ctx, table, seat); err != nil {
			table.Status = entities.TableStatusStarted
			if persistErr := s.tableRepo.Upsert(ctx, table); persistErr != nil {
				log.WithError(persistErr).WithField("table_id", table.ID).Error("Failed to persist partial settlement")
			}
			return nil, err
		}
	}

	if err := s.tableRepo.Upsert(ctx, table); err != nil {
		table.Status = entities.TableStatusStarted
		return nil, fmt.Errorf("failed to persist table: %w", err)
	}

	// The table is settled and persisted at this point; a lost event is
	// logged, not propagated
	if err := s.eventPublisher.Publish(events.TableFinishedEvent{
		TableID:     table.ID.String(),
		DealerScore: table.DealerScore,
		SeatCount:   len(table.Seats),
	}); err != nil {
		log.WithError(err).WithField("table_id", table.ID).Error("Failed to publish table finished")
	}

	// Finished tables leave the registry; the deck dies with the entry
	s.mu.Lock()
	delete(s.tables, table.ID)
	s.mu.Unlock()

	log.WithFields(log.Fields{
		"table_id":     table.ID,
		"dealer_score": table.DealerScore,
	}).Info("Blackjack table finished")

	return table, nil
}

// teardownLocked aborts a table that lost its opposition: remaining seats
// get their stake back and the deck is released. Caller holds the entry lock.
func (s *blackjackService) teardownLocked(ctx context.Context, table *entities.BlackjackTable) error {
	for _, seat := range table.Seats {
		if _, err := s.userRepo.AdjustTickets(ctx, seat.UserID, table.Stake, 0); err != nil {
			return fmt.Errorf("failed to refund seat %d: %w", seat.UserID, err)
		}
	}
	if err := s.tableRepo.Delete(ctx, table.ID); err != nil {
		return fmt.Errorf("failed to delete table: %w", err)
	}

	s.mu.Lock()
	delete(s.tables, table.ID)
	s.mu.Unlock()

	log.WithField("table_id", table.ID).Info("Blackjack table torn down")
	return nil
}

// payoutSeat settles one seat: a win pays double the stake, a push returns
// it, a loss or forfeit pays nothing
func (s *blackjackService) payoutSeat(ctx context.Context, table *entities.BlackjackTable, seat *entities.Seat) error {
	if seat.Result == nil {
		return fmt.Errorf("%w: seat %d unsettled", ErrStateConflict, seat.UserID)
	}
	if seat.Paid {
		return nil
	}

	var credit int64
	switch *seat.Result {
	case entities.SeatResultWin:
		credit = 2 * table.Stake
	case entities.SeatResultPush:
		credit = table.Stake
	default:
		seat.Paid = true
		return nil
	}

	if _, err := s.userRepo.AdjustTickets(ctx, seat.UserID, credit, 0); err != nil {
		return fmt.Errorf("failed to credit seat %d: %w", seat.UserID, err)
	}
	seat.Paid = true
	return nil
}

// actingSeat validates that the user may act right now: the table is live,
// the seat exists and is not standing, and any disconnection is inside the
// grace period. Acting again clears the disconnection mark.
func (s *blackjackService) actingSeat(table *entities.BlackjackTable, userID int64) (*entities.Seat, error) {
	if table.Status != entities.TableStatusStarted {
		return nil, fmt.Errorf("%w: table %s already finished", ErrStateConflict, table.ID)
	}
	seat := table.SeatFor(userID)
	if seat == nil {
		return nil, fmt.Errorf("%w: user %d at table %s", ErrSeatNotFound, userID, table.ID)
	}
	if seat.Standing {
		return nil, fmt.Errorf("%w: seat %d already standing", ErrStateConflict, userID)
	}
	if seat.DisconnectedAt != nil {
		if time.Since(*seat.DisconnectedAt) > s.grace {
			return nil, fmt.Errorf("%w: seat %d action is stale", ErrStateConflict, userID)
		}
		seat.DisconnectedAt = nil
	}
	return seat, nil
}

// debitStake takes the stake from the user's ticket balance before any
// card is dealt and returns the bought/free split so a failed persist
// can refund exactly what was taken
func (s *blackjackService) debitStake(ctx context.Context, userID, stake int64) (fromBought, fromFree int64, err error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return 0, 0, fmt.Errorf("%w: user %d", ErrInvalidBet, userID)
	}
	if !user.CanStake(stake) {
		return 0, 0, fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, user.TotalTickets(), stake)
	}
	fromFree, fromBought = user.SplitStake(stake)
	if _, err := s.userRepo.AdjustTickets(ctx, userID, -fromBought, -fromFree); err != nil {
		return 0, 0, fmt.Errorf("failed to debit stake: %w", err)
	}
	return fromBought, fromFree, nil
}

// refundStake compensates a debit whose table state could not be
// persisted, restoring the exact bought/free split
func (s *blackjackService) refundStake(ctx context.Context, userID, fromBought, fromFree int64) {
	if _, err := s.userRepo.AdjustTickets(ctx, userID, fromBought, fromFree); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"user_id": userID,
			"amount":  fromBought + fromFree,
		}).Error("Failed to refund stake after persist failure")
	}
}

// shuffledDeck builds a single deck shuffled by Fisher-Yates, consuming
// one fairness draw per swap so the shuffle is auditable like any other
// outcome
func (s *blackjackService) shuffledDeck() []entities.Card {
	deck := entities.NewOrderedDeck()
	for i := len(deck) - 1; i > 0; i-- {
		draw := s.fairness.Draw(entities.DrawAlgorithmSHA256)
		j := int(draw.Value * float64(i+1))
		deck[i], deck[j] = deck[j], deck[i]
	}
	return deck
}

// dealTo moves n cards from the table's deck into the given hand
func (s *blackjackService) dealTo(table *entities.BlackjackTable, hand *[]entities.Card, n int) {
	for i := 0; i < n; i++ {
		card, ok := table.Deal()
		if !ok {
			// A single deck covers any legal two-seat game; running out
			// means the deck invariant was already broken
			panic(fmt.Sprintf("deck exhausted at table %s", table.ID))
		}
		*hand = append(*hand, card)
	}
}

// entry looks up a live table by id
func (s *blackjackService) entry(tableID uuid.UUID) (*tableEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.tables[tableID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, tableID)
	}
	return entry, nil
}

// liveEntries snapshots the registry for iteration without holding the
// registry lock across per-table work
func (s *blackjackService) liveEntries() []*tableEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]*tableEntry, 0, len(s.tables))
	for _, entry := range s.tables {
		entries = append(entries, entry)
	}
	return entries
}
