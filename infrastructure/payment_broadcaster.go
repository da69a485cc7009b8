package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"

	"stakehouse/domain/interfaces"
)

// HTTPPaymentBroadcaster submits batched reward payments to the external
// payment service. The returned transaction id is pending; confirmation
// arrives later on the webhook path.
type HTTPPaymentBroadcaster struct {
	baseURL string
	client  *http.Client
}

func NewHTTPPaymentBroadcaster(baseURL string) *HTTPPaymentBroadcaster {
	return &HTTPPaymentBroadcaster{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type broadcastRequest struct {
	TournamentID int64                     `json:"tournament_id"`
	Entries      []interfaces.PaymentEntry `json:"entries"`
}

type broadcastResponse struct {
	TxID string `json:"tx_id"`
}

// BroadcastBatch posts the batch and returns the pending transaction id.
// Transient failures are retried with exponential backoff; a 4xx response
// is permanent.
func (b *HTTPPaymentBroadcaster) BroadcastBatch(ctx context.Context, tournamentID int64, entries []interfaces.PaymentEntry) (string, error) {
	if len(entries) == 0 {
		return "", fmt.Errorf("no payment entries to broadcast")
	}

	body, err := json.Marshal(broadcastRequest{
		TournamentID: tournamentID,
		Entries:      entries,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal broadcast request: %w", err)
	}

	var txID string
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/v1/payments/batch", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := b.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to reach payment service: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			respBody, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("payment service rejected batch: %d %s", resp.StatusCode, string(respBody)))
		}
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
			return fmt.Errorf("payment service returned %d", resp.StatusCode)
		}

		var parsed broadcastResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode broadcast response: %w", err))
		}
		if parsed.TxID == "" {
			return backoff.Permanent(fmt.Errorf("payment service returned empty tx id"))
		}
		txID = parsed.TxID
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return "", fmt.Errorf("failed to broadcast payment batch: %w", err)
	}

	log.WithFields(log.Fields{
		"tournament_id": tournamentID,
		"entries":       len(entries),
		"tx_id":         txID,
	}).Info("Broadcast payment batch")
	return txID, nil
}

var _ interfaces.PaymentBroadcaster = (*HTTPPaymentBroadcaster)(nil)
