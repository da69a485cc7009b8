package infrastructure

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"stakehouse/domain/events"
	"stakehouse/domain/interfaces"
)

// TransactionalEventPublisher buffers events during a database
// transaction and forwards them to the underlying publisher only when
// the transaction commits. Events published after a rollback would
// advertise state that never existed.
type TransactionalEventPublisher struct {
	underlying interfaces.EventPublisher
	pending    []events.Event
	mu         sync.Mutex
}

func NewTransactionalEventPublisher(underlying interfaces.EventPublisher) *TransactionalEventPublisher {
	return &TransactionalEventPublisher{
		underlying: underlying,
	}
}

// Publish buffers the event until Flush or Discard
func (p *TransactionalEventPublisher) Publish(event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, event)
	return nil
}

// Flush publishes all buffered events. A per-event failure is logged
// and does not block the remaining events; the commit already happened.
func (p *TransactionalEventPublisher) Flush(ctx context.Context) error {
	p.mu.Lock()
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()

	for _, event := range pending {
		if err := p.underlying.Publish(event); err != nil {
			log.WithFields(log.Fields{
				"event_type": event.Type(),
				"error":      err,
			}).Error("Failed to publish buffered event")
		}
	}
	return nil
}

// Discard drops all buffered events without publishing
func (p *TransactionalEventPublisher) Discard() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pending) > 0 {
		log.WithField("count", len(p.pending)).Debug("Discarding buffered events")
	}
	p.pending = nil
}

var _ interfaces.TransactionalEventPublisher = (*TransactionalEventPublisher)(nil)
