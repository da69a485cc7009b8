package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"stakehouse/domain/events"
	"stakehouse/domain/interfaces"
)

// eventEnvelope is the wire format for events published on NATS.
type eventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// NATSEventPublisher routes domain events onto NATS subjects. Local
// handlers registered for an event type are invoked in-process as well,
// before the network publish.
type NATSEventPublisher struct {
	client        *NATSClient
	subjectMapper *EventSubjectMapper
	localHandlers map[events.EventType][]func(events.Event)
	mu            sync.RWMutex
}

func NewNATSEventPublisher(client *NATSClient) *NATSEventPublisher {
	return &NATSEventPublisher{
		client:        client,
		subjectMapper: NewEventSubjectMapper(),
		localHandlers: make(map[events.EventType][]func(events.Event)),
	}
}

// RegisterLocalHandler registers an in-process handler for an event type
func (p *NATSEventPublisher) RegisterLocalHandler(eventType events.EventType, handler func(events.Event)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.localHandlers[eventType] = append(p.localHandlers[eventType], handler)
}

// Publish delivers the event to local handlers and publishes it to NATS
func (p *NATSEventPublisher) Publish(event events.Event) error {
	p.mu.RLock()
	handlers := p.localHandlers[event.Type()]
	p.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}

	subject, err := p.subjectMapper.GetSubject(event.Type())
	if err != nil {
		return fmt.Errorf("failed to map event to subject: %w", err)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := eventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     string(event.Type()),
		Timestamp:     time.Now().UTC(),
		SourceService: "stakehouse",
		Payload:       payload,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	if err := p.client.Publish(context.Background(), subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.WithFields(log.Fields{
		"event_type": event.Type(),
		"subject":    subject,
		"event_id":   envelope.EventID,
	}).Debug("Published event to NATS")
	return nil
}

var _ interfaces.EventPublisher = (*NATSEventPublisher)(nil)
