package infrastructure

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stakehouse/domain/interfaces"
)

func TestHTTPPaymentBroadcaster_BroadcastBatch(t *testing.T) {
	var received broadcastRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/payments/batch", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(broadcastResponse{TxID: "tx-abc-123"})
	}))
	defer server.Close()

	broadcaster := NewHTTPPaymentBroadcaster(server.URL)
	txID, err := broadcaster.BroadcastBatch(context.Background(), 42, []interfaces.PaymentEntry{
		{Address: "addr-1", Amount: 58.8},
		{Address: "addr-2", Amount: 39.2},
	})

	require.NoError(t, err)
	assert.Equal(t, "tx-abc-123", txID)
	assert.Equal(t, int64(42), received.TournamentID)
	require.Len(t, received.Entries, 2)
	assert.Equal(t, "addr-1", received.Entries[0].Address)
}

func TestHTTPPaymentBroadcaster_RetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(broadcastResponse{TxID: "tx-retried"})
	}))
	defer server.Close()

	broadcaster := NewHTTPPaymentBroadcaster(server.URL)
	txID, err := broadcaster.BroadcastBatch(context.Background(), 1, []interfaces.PaymentEntry{
		{Address: "addr-1", Amount: 10},
	})

	require.NoError(t, err)
	assert.Equal(t, "tx-retried", txID)
	assert.Equal(t, 3, attempts)
}

func TestHTTPPaymentBroadcaster_RejectionIsPermanent(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	broadcaster := NewHTTPPaymentBroadcaster(server.URL)
	_, err := broadcaster.BroadcastBatch(context.Background(), 1, []interfaces.PaymentEntry{
		{Address: "addr-1", Amount: 10},
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestHTTPPaymentBroadcaster_EmptyBatch(t *testing.T) {
	broadcaster := NewHTTPPaymentBroadcaster("http://unused")
	_, err := broadcaster.BroadcastBatch(context.Background(), 1, nil)
	assert.Error(t, err)
}
