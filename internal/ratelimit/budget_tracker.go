// Package ratelimit coordinates the upstream data API request budget
// across processes. The API server and the scan worker share one quota,
// tracked in Redis with a sliding one-second window.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Default budget configuration values.
const (
	DefaultTotalBudget    = 30              // Total requests/s against the data API
	DefaultReservedBudget = 10              // Reserved for on-demand API syncs
	DefaultWindowSize     = time.Second     // 1 second sliding window
	DefaultKeyTTL         = 2 * time.Second // TTL for Redis keys (window + buffer)
)

// Redis key prefixes for request tracking.
const (
	keyPrefixTotal    = "req:total:"
	keyPrefixReserved = "req:reserved:"
	keyPrefixShared   = "req:shared:"
)

// Priority selects the budget pool a request draws from.
type Priority int

const (
	// PriorityHigh is for user-facing on-demand syncs (uses reserved budget).
	PriorityHigh Priority = iota
	// PriorityLow is for the background scan worker (uses shared budget).
	PriorityLow
)

// String returns a string representation of the priority level.
func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}

// BudgetTracker coordinates request consumption across services using
// Redis. Requests cost one unit each; the reserved pool keeps on-demand
// syncs responsive while the scan worker saturates the shared pool.
type BudgetTracker struct {
	redis          redis.Cmdable
	totalBudget    int
	reservedBudget int
	sharedBudget   int
	windowSize     time.Duration
	keyTTL         time.Duration
}

// BudgetTrackerConfig holds configuration for the budget tracker.
type BudgetTrackerConfig struct {
	// Redis is the client used for cross-process coordination. Required.
	Redis redis.Cmdable

	// TotalBudget is the total requests/s budget. Default: 30.
	TotalBudget int

	// ReservedBudget is the requests/s reserved for on-demand syncs. Default: 10.
	ReservedBudget int

	// WindowSize is the sliding window duration. Default: 1s.
	WindowSize time.Duration

	// KeyTTL is the TTL for Redis keys. Default: 2s. Should be at least
	// WindowSize to ensure proper expiration.
	KeyTTL time.Duration
}

// Validate checks if the configuration is valid.
func (c *BudgetTrackerConfig) Validate() error {
	if c.Redis == nil {
		return errors.New("redis client is required")
	}
	if c.TotalBudget < 0 {
		return errors.New("total budget cannot be negative")
	}
	if c.ReservedBudget < 0 {
		return errors.New("reserved budget cannot be negative")
	}

	totalBudget := c.TotalBudget
	if totalBudget == 0 {
		totalBudget = DefaultTotalBudget
	}
	reservedBudget := c.ReservedBudget
	if reservedBudget == 0 {
		reservedBudget = DefaultReservedBudget
	}

	if reservedBudget > totalBudget {
		return fmt.Errorf("reserved budget (%d) cannot exceed total budget (%d)", reservedBudget, totalBudget)
	}
	return nil
}

// NewBudgetTracker creates a new tracker with the given configuration.
func NewBudgetTracker(cfg *BudgetTrackerConfig) (*BudgetTracker, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	totalBudget := cfg.TotalBudget
	if totalBudget == 0 {
		totalBudget = DefaultTotalBudget
	}
	reservedBudget := cfg.ReservedBudget
	if reservedBudget == 0 {
		reservedBudget = DefaultReservedBudget
	}
	windowSize := cfg.WindowSize
	if windowSize == 0 {
		windowSize = DefaultWindowSize
	}
	keyTTL := cfg.KeyTTL
	if keyTTL == 0 {
		keyTTL = DefaultKeyTTL
	}

	return &BudgetTracker{
		redis:          cfg.Redis,
		totalBudget:    totalBudget,
		reservedBudget: reservedBudget,
		sharedBudget:   totalBudget - reservedBudget,
		windowSize:     windowSize,
		keyTTL:         keyTTL,
	}, nil
}

// getWindowTimestamp returns the timestamp for the current sliding
// window, aligned to the window size boundary.
func (t *BudgetTracker) getWindowTimestamp() int64 {
	return time.Now().Truncate(t.windowSize).UnixMilli()
}

func (t *BudgetTracker) getKeys(windowTS int64) (totalKey, reservedKey, sharedKey string) {
	tsStr := strconv.FormatInt(windowTS, 10)
	return keyPrefixTotal + tsStr, keyPrefixReserved + tsStr, keyPrefixShared + tsStr
}

// consumeScript atomically checks and increments both the total and the
// pool counter, so the budget holds even under concurrent access across
// processes.
var consumeScript = redis.NewScript(`
	local totalKey = KEYS[1]
	local poolKey = KEYS[2]
	local n = tonumber(ARGV[1])
	local totalBudget = tonumber(ARGV[2])
	local poolBudget = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	local totalUsed = tonumber(redis.call('GET', totalKey) or '0')
	local poolUsed = tonumber(redis.call('GET', poolKey) or '0')

	if totalUsed + n > totalBudget then
		return {0, totalUsed, poolUsed}
	end
	if poolUsed + n > poolBudget then
		return {0, totalUsed, poolUsed}
	end

	redis.call('INCRBY', totalKey, n)
	redis.call('EXPIRE', totalKey, ttl)
	redis.call('INCRBY', poolKey, n)
	redis.call('EXPIRE', poolKey, ttl)

	return {1, totalUsed + n, poolUsed + n}
`)

// TryConsume attempts to consume n requests from the pool selected by
// priority. Returns whether the consumption was allowed, and a suggested
// wait time before retrying when it was not.
func (t *BudgetTracker) TryConsume(ctx context.Context, n int, priority Priority) (bool, time.Duration) {
	if n <= 0 {
		return true, 0
	}

	windowTS := t.getWindowTimestamp()
	totalKey, reservedKey, sharedKey := t.getKeys(windowTS)

	poolKey := sharedKey
	poolBudget := t.sharedBudget
	if priority == PriorityHigh {
		poolKey = reservedKey
		poolBudget = t.reservedBudget
	}

	ttlSeconds := int(t.keyTTL.Seconds())
	if ttlSeconds < 1 {
		ttlSeconds = 1
	}

	result, err := consumeScript.Run(ctx, t.redis, []string{totalKey, poolKey},
		n, t.totalBudget, poolBudget, ttlSeconds).Int64Slice()
	if err != nil {
		// On Redis error, deny the request to be safe
		return false, t.calculateWaitTime(windowTS)
	}

	if result[0] != 1 {
		return false, t.calculateWaitTime(windowTS)
	}
	return true, 0
}

// Wait blocks until n requests can be consumed or the context is done.
func (t *BudgetTracker) Wait(ctx context.Context, n int, priority Priority) error {
	for {
		allowed, waitTime := t.TryConsume(ctx, n, priority)
		if allowed {
			return nil
		}

		select {
		case <-time.After(waitTime):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// calculateWaitTime returns the time until the next window starts.
func (t *BudgetTracker) calculateWaitTime(windowTS int64) time.Duration {
	windowEnd := time.UnixMilli(windowTS).Add(t.windowSize)
	waitTime := time.Until(windowEnd)
	if waitTime < 0 {
		waitTime = 0
	}
	// Small buffer to land in the new window
	return waitTime + time.Millisecond
}

// UsageStats contains current consumption metrics.
type UsageStats struct {
	TotalUsed      int
	ReservedUsed   int
	SharedUsed     int
	TotalBudget    int
	ReservedBudget int
	SharedBudget   int
	WindowStart    time.Time
}

// GetUsage returns current request usage statistics.
func (t *BudgetTracker) GetUsage(ctx context.Context) (*UsageStats, error) {
	windowTS := t.getWindowTimestamp()
	totalKey, reservedKey, sharedKey := t.getKeys(windowTS)

	pipe := t.redis.Pipeline()
	totalCmd := pipe.Get(ctx, totalKey)
	reservedCmd := pipe.Get(ctx, reservedKey)
	sharedCmd := pipe.Get(ctx, sharedKey)

	// Exec returns redis.Nil when any key is missing; missing keys just
	// mean no consumption in this window yet.
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to read usage: %w", err)
	}

	return &UsageStats{
		TotalUsed:      parseIntOrZero(totalCmd),
		ReservedUsed:   parseIntOrZero(reservedCmd),
		SharedUsed:     parseIntOrZero(sharedCmd),
		TotalBudget:    t.totalBudget,
		ReservedBudget: t.reservedBudget,
		SharedBudget:   t.sharedBudget,
		WindowStart:    time.UnixMilli(windowTS),
	}, nil
}

func parseIntOrZero(cmd *redis.StringCmd) int {
	val, err := cmd.Int()
	if err != nil {
		return 0
	}
	return val
}

// AvailableBudget returns the remaining budget for a priority level.
func (t *BudgetTracker) AvailableBudget(ctx context.Context, priority Priority) (int, error) {
	stats, err := t.GetUsage(ctx)
	if err != nil {
		return 0, err
	}

	available := t.sharedBudget - stats.SharedUsed
	if priority == PriorityHigh {
		available = t.reservedBudget - stats.ReservedUsed
	}
	if available < 0 {
		available = 0
	}
	return available, nil
}
