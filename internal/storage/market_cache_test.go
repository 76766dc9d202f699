package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wallet-scanner/internal/adapter"
	"github.com/wallet-scanner/internal/types"
)

func setupMarketCache(t *testing.T) (*MarketCache, *adapter.Counters, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	counters := &adapter.Counters{}
	cache := NewMarketCache(NewRedisCacheFromClient(client), time.Hour, counters)
	return cache, counters, mr
}

func TestMarketCacheMissThenHit(t *testing.T) {
	cache, counters, _ := setupMarketCache(t)
	ctx := context.Background()

	got, err := cache.Get(ctx, "0xabc")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Zero(t, counters.Snapshot().CacheHits)

	info := &types.MarketInfo{
		ConditionID: "0xabc",
		Question:    "Will it rain tomorrow?",
		Category:    "Weather",
		Tags:        []string{"Weather", "Forecast"},
	}
	require.NoError(t, cache.Set(ctx, info))

	got, err = cache.Get(ctx, "0xabc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, info.Category, got.Category)
	assert.Equal(t, info.Tags, got.Tags)
	assert.Equal(t, int64(1), counters.Snapshot().CacheHits)
}

func TestMarketCacheExpiry(t *testing.T) {
	cache, _, mr := setupMarketCache(t)
	ctx := context.Background()

	info := &types.MarketInfo{ConditionID: "0xdef", Category: "Politics"}
	require.NoError(t, cache.Set(ctx, info))

	mr.FastForward(2 * time.Hour)

	got, err := cache.Get(ctx, "0xdef")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMarketCacheCorruptEntryIsMiss(t *testing.T) {
	cache, counters, mr := setupMarketCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("market:0xbad", "{not json"))

	got, err := cache.Get(ctx, "0xbad")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Zero(t, counters.Snapshot().CacheHits)
}

func TestMarketCacheInvalidate(t *testing.T) {
	cache, _, _ := setupMarketCache(t)
	ctx := context.Background()

	info := &types.MarketInfo{ConditionID: "0x123", Category: "Sports"}
	require.NoError(t, cache.Set(ctx, info))
	require.NoError(t, cache.Invalidate(ctx, "0x123"))

	got, err := cache.Get(ctx, "0x123")
	require.NoError(t, err)
	assert.Nil(t, got)
}
