package application

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"stakehouse/domain/entities"
)

var (
	// ErrInvalidSignature rejects a webhook event before any state mutation
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrUnknownEventKind rejects an event outside the closed kind set
	ErrUnknownEventKind = errors.New("unknown webhook event kind")
)

// TransactionEvent is one inbound webhook event. The kind set is closed;
// the drain loop matches exhaustively.
type TransactionEvent interface {
	EventTxID() string
}

// PaymentConfirmedEvent reports an external payment reaching finality
type PaymentConfirmedEvent struct {
	TxID         string                   `json:"tx_id"`
	Kind         entities.TransactionKind `json:"kind"`
	UserID       *int64                   `json:"user_id,omitempty"`
	TournamentID *int64                   `json:"tournament_id,omitempty"`
	Amount       float64                  `json:"amount"`
}

func (e PaymentConfirmedEvent) EventTxID() string { return e.TxID }

// PaymentFailedEvent reports an external payment failing permanently
type PaymentFailedEvent struct {
	TxID   string `json:"tx_id"`
	Reason string `json:"reason"`
}

func (e PaymentFailedEvent) EventTxID() string { return e.TxID }

// RewardClaimEvent reports a user-initiated reward claim settling
type RewardClaimEvent struct {
	TxID     string  `json:"tx_id"`
	RewardID int64   `json:"reward_id"`
	UserID   int64   `json:"user_id"`
	Amount   float64 `json:"amount"`
}

func (e RewardClaimEvent) EventTxID() string { return e.TxID }

// webhookEnvelope is the outer wire shape of a signed webhook event
type webhookEnvelope struct {
	Event     string          `json:"event"`
	Signature string          `json:"signature"`
	Data      json.RawMessage `json:"data"`
}

// ParseWebhookEvent authenticates and decodes one inbound webhook body.
// The signature is an HMAC-SHA256 over the event's transaction id; an
// invalid signature fails before the payload shape is even considered
// trustworthy.
func ParseWebhookEvent(secret string, body []byte) (TransactionEvent, error) {
	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode webhook envelope: %w", err)
	}

	event, err := decodeEventData(envelope.Event, envelope.Data)
	if err != nil {
		return nil, err
	}

	if !verifySignature(secret, event.EventTxID(), envelope.Signature) {
		return nil, ErrInvalidSignature
	}
	return event, nil
}

func decodeEventData(kind string, data json.RawMessage) (TransactionEvent, error) {
	switch kind {
	case "payment_confirmed":
		var event PaymentConfirmedEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return nil, fmt.Errorf("failed to decode payment_confirmed data: %w", err)
		}
		return event, nil
	case "payment_failed":
		var event PaymentFailedEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return nil, fmt.Errorf("failed to decode payment_failed data: %w", err)
		}
		return event, nil
	case "reward_claim":
		var event RewardClaimEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return nil, fmt.Errorf("failed to decode reward_claim data: %w", err)
		}
		return event, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventKind, kind)
	}
}

func verifySignature(secret, txID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(txID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// SignTransactionID computes the signature a well-formed webhook event
// carries. Exported for tests and local tooling.
func SignTransactionID(secret, txID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(txID))
	return hex.EncodeToString(mac.Sum(nil))
}
