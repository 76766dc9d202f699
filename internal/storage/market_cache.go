package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wallet-scanner/internal/adapter"
	"github.com/wallet-scanner/internal/types"
)

// MarketCache caches market metadata from the gamma API in Redis so
// repeated category lookups across wallets hit the network once per TTL.
type MarketCache struct {
	cache    *RedisCache
	ttl      time.Duration
	counters *adapter.Counters
}

// NewMarketCache creates a market metadata cache
func NewMarketCache(cache *RedisCache, ttl time.Duration, counters *adapter.Counters) *MarketCache {
	return &MarketCache{cache: cache, ttl: ttl, counters: counters}
}

func marketKey(conditionID string) string {
	return fmt.Sprintf("market:%s", conditionID)
}

// Get returns the cached market info, or nil on a miss. Cache hits are
// counted for run observability.
func (c *MarketCache) Get(ctx context.Context, conditionID string) (*types.MarketInfo, error) {
	raw, err := c.cache.Get(ctx, marketKey(conditionID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read market cache: %w", err)
	}

	var info types.MarketInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		// Treat a corrupt entry as a miss so it gets overwritten.
		return nil, nil
	}

	if c.counters != nil {
		c.counters.CacheHits.Add(1)
	}
	return &info, nil
}

// Set caches the market info under the configured TTL
func (c *MarketCache) Set(ctx context.Context, info *types.MarketInfo) error {
	raw, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal market info: %w", err)
	}
	if err := c.cache.Set(ctx, marketKey(info.ConditionID), raw, c.ttl); err != nil {
		return fmt.Errorf("failed to write market cache: %w", err)
	}
	return nil
}

// Invalidate drops a market from the cache
func (c *MarketCache) Invalidate(ctx context.Context, conditionID string) error {
	return c.cache.Del(ctx, marketKey(conditionID))
}
