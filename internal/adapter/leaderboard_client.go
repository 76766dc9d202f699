package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wallet-scanner/internal/config"
	"github.com/wallet-scanner/internal/types"
)

// LeaderboardClient fetches the upstream trader leaderboard
type LeaderboardClient struct {
	baseURL  string
	client   *http.Client
	counters *Counters
}

// NewLeaderboardClient creates a new leaderboard client
func NewLeaderboardClient(cfg *config.DataAPIConfig, counters *Counters) *LeaderboardClient {
	return &LeaderboardClient{
		baseURL:  cfg.LeaderboardURL,
		client:   &http.Client{Timeout: 10 * time.Second},
		counters: counters,
	}
}

// FetchLeaderboard fetches the top traders for a time period, ranked by
// profit or volume
func (c *LeaderboardClient) FetchLeaderboard(ctx context.Context, period types.TimePeriod, orderBy string, limit int) ([]*types.LeaderboardEntry, error) {
	if limit <= 0 || limit > LeaderboardLimit {
		limit = LeaderboardLimit
	}
	if orderBy == "" {
		orderBy = "pnl"
	}

	url := fmt.Sprintf("%s/leaderboard?window=%s&rankType=%s&limit=%d", c.baseURL, period, orderBy, limit)

	entries, err := c.fetchEntries(ctx, url)
	if err != nil {
		return nil, err
	}

	// Assign ranks in response order when the API omits them
	for i, e := range entries {
		if e.Rank == 0 {
			e.Rank = i + 1
		}
	}

	return entries, nil
}

// FetchWalletRank fetches a single wallet's leaderboard row for one time
// period. Returns nil when the wallet is not ranked in that period.
func (c *LeaderboardClient) FetchWalletRank(ctx context.Context, wallet string, period types.TimePeriod) (*types.LeaderboardEntry, error) {
	url := fmt.Sprintf("%s/leaderboard?window=%s&user=%s", c.baseURL, period, wallet)

	entries, err := c.fetchEntries(ctx, url)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return entries[0], nil
}

func (c *LeaderboardClient) fetchEntries(ctx context.Context, url string) ([]*types.LeaderboardEntry, error) {
	if c.counters != nil {
		c.counters.APICalls.Add(1)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if c.counters != nil {
			c.counters.Errors.Add(1)
		}
		return nil, fmt.Errorf("leaderboard request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if c.counters != nil {
			c.counters.Errors.Add(1)
		}
		return nil, fmt.Errorf("leaderboard HTTP error: %d - %s", resp.StatusCode, string(body))
	}

	var entries []*types.LeaderboardEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse leaderboard response: %w", err)
	}

	return entries, nil
}
