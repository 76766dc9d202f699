package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wallet-scanner/internal/circuitbreaker"
	"github.com/wallet-scanner/internal/config"
	"github.com/wallet-scanner/internal/types"
)

// ErrMarketNotFound means the gamma API has no market for the condition
// id. The upstream answered, so this does not count against the breaker.
var ErrMarketNotFound = errors.New("market not found")

// GammaClient resolves market metadata (question, category, tags) from
// the gamma API by condition id
type GammaClient struct {
	baseURL  string
	client   *http.Client
	counters *Counters
	breaker  *circuitbreaker.CircuitBreaker
}

// NewGammaClient creates a new gamma API client
func NewGammaClient(cfg *config.GammaConfig, counters *Counters) *GammaClient {
	return &GammaClient{
		baseURL:  cfg.BaseURL,
		client:   &http.Client{Timeout: 10 * time.Second},
		counters: counters,
		breaker:  circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig("gamma")),
	}
}

// gammaMarket mirrors the gamma API market payload
type gammaMarket struct {
	ConditionID string `json:"conditionId"`
	Question    string `json:"question"`
	Category    string `json:"category"`
	Events      []struct {
		Tags []struct {
			Label string `json:"label"`
		} `json:"tags"`
	} `json:"events"`
}

// FetchMarket fetches metadata for a market by condition id. Lookups
// run behind a circuit breaker; when the gamma API keeps failing,
// callers get an immediate error instead of a slow timeout.
func (c *GammaClient) FetchMarket(ctx context.Context, conditionID string) (*types.MarketInfo, error) {
	var info *types.MarketInfo
	var notFound bool
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		var fetchErr error
		info, fetchErr = c.fetchMarket(ctx, conditionID)
		if errors.Is(fetchErr, ErrMarketNotFound) {
			notFound = true
			return nil
		}
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	if notFound {
		return nil, fmt.Errorf("%w: %s", ErrMarketNotFound, conditionID)
	}
	return info, nil
}

func (c *GammaClient) fetchMarket(ctx context.Context, conditionID string) (*types.MarketInfo, error) {
	url := fmt.Sprintf("%s/markets?condition_ids=%s", c.baseURL, conditionID)

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
		return nil, fmt.Errorf("gamma request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gamma response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if c.counters != nil {
			c.counters.Errors.Add(1)
		}
		return nil, fmt.Errorf("gamma HTTP error: %d - %s", resp.StatusCode, string(body))
	}

	var markets []gammaMarket
	if err := json.Unmarshal(body, &markets); err != nil {
		return nil, fmt.Errorf("failed to parse gamma response: %w", err)
	}
	if len(markets) == 0 {
		return nil, ErrMarketNotFound
	}

	m := markets[0]
	info := &types.MarketInfo{
		ConditionID: m.ConditionID,
		Question:    m.Question,
		Category:    m.Category,
	}
	for _, ev := range m.Events {
		for _, tag := range ev.Tags {
			info.Tags = append(info.Tags, tag.Label)
		}
	}
	if info.Category == "" && len(info.Tags) > 0 {
		info.Category = info.Tags[0]
	}

	return info, nil
}
