// Package adapter provides clients for the upstream market data APIs.
package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wallet-scanner/internal/config"
	"github.com/wallet-scanner/internal/errors"
	"github.com/wallet-scanner/internal/ratelimit"
	"github.com/wallet-scanner/internal/retry"
	"github.com/wallet-scanner/internal/types"
	"golang.org/x/time/rate"
)

// Page limits per endpoint. The activity and positions endpoints serve
// large pages; closed positions and leaderboard are capped upstream.
const (
	TradePageLimit          = 500
	PositionPageLimit       = 500
	ClosedPositionPageLimit = 50
	LeaderboardLimit        = 50
)

// DataAPIClient fetches wallet activity and positions from the data API
type DataAPIClient struct {
	baseURL  string
	client   *http.Client
	limiter  *rate.Limiter
	counters *Counters

	// Optional cross-process budget. The local limiter still applies.
	budget         *ratelimit.BudgetTracker
	budgetPriority ratelimit.Priority
}

// NewDataAPIClient creates a new data API client
func NewDataAPIClient(cfg *config.DataAPIConfig, counters *Counters) *DataAPIClient {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 10.0
	}
	timeout := cfg.PageTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &DataAPIClient{
		baseURL:  cfg.BaseURL,
		client:   &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(rate.Limit(rps), int(rps)),
		counters: counters,
	}
}

// SetBudget attaches a shared request budget. Every page fetch then
// draws one unit from the given pool before it is sent.
func (c *DataAPIClient) SetBudget(tracker *ratelimit.BudgetTracker, priority ratelimit.Priority) {
	c.budget = tracker
	c.budgetPriority = priority
}

// activityRecord mirrors the data API activity payload. Only TRADE
// entries are converted; other activity types (splits, merges,
// redemptions) are skipped.
type activityRecord struct {
	Type            string  `json:"type"`
	TransactionHash string  `json:"transactionHash"`
	ProxyWallet     string  `json:"proxyWallet"`
	ConditionID     string  `json:"conditionId"`
	Timestamp       int64   `json:"timestamp"`
	Side            string  `json:"side"`
	Size            float64 `json:"size"`
	Price           float64 `json:"price"`
	Title           string  `json:"title"`
	Slug            string  `json:"slug"`
	Outcome         string  `json:"outcome"`
}

// FetchTradePage fetches one page of trade activity for a wallet.
// Non-trade activity entries are filtered out, so the returned slice may
// be shorter than the raw page; callers that need short-page detection
// should compare rawCount against the requested limit.
func (c *DataAPIClient) FetchTradePage(ctx context.Context, wallet string, limit, offset int) (trades []*types.Trade, rawCount int, err error) {
	url := fmt.Sprintf("%s/activity?user=%s&limit=%d&offset=%d", c.baseURL, wallet, limit, offset)

	body, err := c.doRequest(ctx, url)
	if err != nil {
		return nil, 0, err
	}

	var records []activityRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, 0, fmt.Errorf("failed to parse activity page: %w", err)
	}

	trades = make([]*types.Trade, 0, len(records))
	for _, rec := range records {
		if rec.Type != "TRADE" {
			continue
		}
		trades = append(trades, &types.Trade{
			ID:          rec.TransactionHash,
			Wallet:      rec.ProxyWallet,
			ConditionID: rec.ConditionID,
			Timestamp:   rec.Timestamp,
			Side:        types.TradeSide(rec.Side),
			Size:        rec.Size,
			Price:       rec.Price,
			Title:       rec.Title,
			Slug:        rec.Slug,
			Outcome:     rec.Outcome,
		})
	}

	return trades, len(records), nil
}

// FetchOpenPositionsPage fetches one page of live positions for a wallet
func (c *DataAPIClient) FetchOpenPositionsPage(ctx context.Context, wallet string, limit, offset int) ([]*types.OpenPosition, error) {
	url := fmt.Sprintf("%s/positions?user=%s&limit=%d&offset=%d", c.baseURL, wallet, limit, offset)

	body, err := c.doRequest(ctx, url)
	if err != nil {
		return nil, err
	}

	var positions []*types.OpenPosition
	if err := json.Unmarshal(body, &positions); err != nil {
		return nil, fmt.Errorf("failed to parse positions page: %w", err)
	}

	return positions, nil
}

// FetchClosedPositionsPage fetches one page of resolved positions for a wallet
func (c *DataAPIClient) FetchClosedPositionsPage(ctx context.Context, wallet string, limit, offset int) ([]*types.ClosedPosition, error) {
	url := fmt.Sprintf("%s/closed-positions?user=%s&limit=%d&offset=%d", c.baseURL, wallet, limit, offset)

	body, err := c.doRequest(ctx, url)
	if err != nil {
		return nil, err
	}

	var positions []*types.ClosedPosition
	if err := json.Unmarshal(body, &positions); err != nil {
		return nil, fmt.Errorf("failed to parse closed positions page: %w", err)
	}

	return positions, nil
}

// doRequest performs an HTTP GET with rate limiting and a short retry
// budget. A page that still fails after the last attempt is returned to
// the caller, never escalated into a larger backoff.
func (c *DataAPIClient) doRequest(ctx context.Context, url string) ([]byte, error) {
	var body []byte

	result := retry.WithExponentialBackoff(ctx, retry.PageRetryConfig(), func(ctx context.Context, attempt int) error {
		if c.budget != nil {
			if err := c.budget.Wait(ctx, 1, c.budgetPriority); err != nil {
				return fmt.Errorf("request budget wait: %w", err)
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait: %w", err)
		}

		if c.counters != nil {
			c.counters.APICalls.Add(1)
			if attempt > 1 {
				c.counters.Retries.Add(1)
			}
		}

		var err error
		body, err = c.fetchOnce(ctx, url)
		return err
	})

	if !result.Success {
		if c.counters != nil {
			c.counters.Errors.Add(1)
		}
		return nil, result.LastError
	}
	return body, nil
}

func (c *DataAPIClient) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errors.NewUpstreamRateLimitError(url)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewUpstreamError(url, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body)))
	}

	return body, nil
}
