package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wallet-scanner/internal/config"
	"github.com/wallet-scanner/internal/types"
)

func newTestClient(t *testing.T, handler http.Handler) (*DataAPIClient, *Counters, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	counters := &Counters{}
	client := NewDataAPIClient(&config.DataAPIConfig{
		BaseURL:           srv.URL,
		RequestsPerSecond: 1000,
		PageTimeout:       2 * time.Second,
	}, counters)

	return client, counters, srv
}

func TestFetchTradePage(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/activity", r.URL.Path)
		assert.Equal(t, "0xwallet", r.URL.Query().Get("user"))
		assert.Equal(t, "500", r.URL.Query().Get("limit"))
		assert.Equal(t, "0", r.URL.Query().Get("offset"))

		records := []map[string]interface{}{
			{
				"type":            "TRADE",
				"transactionHash": "0xhash1",
				"proxyWallet":     "0xwallet",
				"conditionId":     "0xcond",
				"timestamp":       1700000000,
				"side":            "BUY",
				"size":            100.0,
				"price":           0.5,
				"title":           "Will it happen?",
			},
			{
				"type":        "REDEEM",
				"proxyWallet": "0xwallet",
				"timestamp":   1700000100,
			},
			{
				"type":            "TRADE",
				"transactionHash": "0xhash2",
				"proxyWallet":     "0xwallet",
				"conditionId":     "0xcond2",
				"timestamp":       1699990000,
				"side":            "SELL",
				"size":            50.0,
				"price":           0.8,
			},
		}
		_ = json.NewEncoder(w).Encode(records)
	})

	client, counters, _ := newTestClient(t, handler)

	trades, rawCount, err := client.FetchTradePage(context.Background(), "0xwallet", 500, 0)
	require.NoError(t, err)

	// Non-trade activity is filtered but still counted in the raw page size
	assert.Equal(t, 3, rawCount)
	require.Len(t, trades, 2)
	assert.Equal(t, "0xhash1", trades[0].ID)
	assert.Equal(t, types.SideBuy, trades[0].Side)
	assert.Equal(t, "0xhash2", trades[1].ID)
	assert.Equal(t, types.SideSell, trades[1].Side)

	assert.Equal(t, int64(1), counters.APICalls.Load())
	assert.Equal(t, int64(0), counters.Retries.Load())
}

func TestFetchTradePageRetriesOnce(t *testing.T) {
	var calls atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]interface{}{})
	})

	client, counters, _ := newTestClient(t, handler)

	trades, rawCount, err := client.FetchTradePage(context.Background(), "0xwallet", 500, 0)
	require.NoError(t, err)
	assert.Empty(t, trades)
	assert.Equal(t, 0, rawCount)

	assert.Equal(t, int64(2), counters.APICalls.Load())
	assert.Equal(t, int64(1), counters.Retries.Load())
}

func TestFetchTradePageFailsAfterRetries(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	client, counters, _ := newTestClient(t, handler)

	_, _, err := client.FetchTradePage(context.Background(), "0xwallet", 500, 0)
	require.Error(t, err)

	assert.Equal(t, int64(2), counters.APICalls.Load())
	assert.Equal(t, int64(1), counters.Retries.Load())
	assert.Equal(t, int64(1), counters.Errors.Load())
}

func TestFetchOpenPositionsPage(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/positions", r.URL.Path)
		positions := []map[string]interface{}{
			{
				"conditionId":   "0xcond",
				"size":          200.0,
				"avgPrice":      0.4,
				"currentValue":  120.0,
				"cashPnl":       40.0,
				"unrealizedPnl": 40.0,
			},
		}
		_ = json.NewEncoder(w).Encode(positions)
	})

	client, _, _ := newTestClient(t, handler)

	positions, err := client.FetchOpenPositionsPage(context.Background(), "0xwallet", 500, 0)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, "0xcond", positions[0].ConditionID)
	assert.Equal(t, 40.0, positions[0].UnrealizedPnl)
}

func TestFetchClosedPositionsPage(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/closed-positions", r.URL.Path)
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		positions := []map[string]interface{}{
			{
				"conditionId": "0xcond",
				"avgPrice":    0.6,
				"totalBought": 300.0,
				"realizedPnl": 120.0,
				"timestamp":   1700000000,
			},
		}
		_ = json.NewEncoder(w).Encode(positions)
	})

	client, _, _ := newTestClient(t, handler)

	positions, err := client.FetchClosedPositionsPage(context.Background(), "0xwallet", 50, 0)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, 120.0, positions[0].RealizedPnl)
	assert.Equal(t, int64(1700000000), positions[0].Timestamp)
}
