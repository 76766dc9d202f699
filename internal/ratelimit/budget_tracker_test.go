package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTracker(t *testing.T, total, reserved int) (*BudgetTracker, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	tracker, err := NewBudgetTracker(&BudgetTrackerConfig{
		Redis:          client,
		TotalBudget:    total,
		ReservedBudget: reserved,
		// A wide window keeps the test inside a single window
		WindowSize: time.Minute,
		KeyTTL:     2 * time.Minute,
	})
	require.NoError(t, err)

	return tracker, mr
}

func TestNewBudgetTrackerValidation(t *testing.T) {
	_, err := NewBudgetTracker(nil)
	assert.Error(t, err)

	_, err = NewBudgetTracker(&BudgetTrackerConfig{})
	assert.Error(t, err, "missing redis client should be rejected")

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	_, err = NewBudgetTracker(&BudgetTrackerConfig{Redis: client, TotalBudget: 10, ReservedBudget: 20})
	assert.Error(t, err, "reserved above total should be rejected")

	tracker, err := NewBudgetTracker(&BudgetTrackerConfig{Redis: client})
	require.NoError(t, err)
	assert.Equal(t, DefaultTotalBudget, tracker.totalBudget)
	assert.Equal(t, DefaultReservedBudget, tracker.reservedBudget)
	assert.Equal(t, DefaultTotalBudget-DefaultReservedBudget, tracker.sharedBudget)
}

func TestTryConsumeWithinBudget(t *testing.T) {
	tracker, _ := setupTracker(t, 10, 4)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		allowed, _ := tracker.TryConsume(ctx, 1, PriorityLow)
		assert.True(t, allowed, "request %d should fit the shared pool", i)
	}

	// Shared pool (10-4=6) is now exhausted
	allowed, waitTime := tracker.TryConsume(ctx, 1, PriorityLow)
	assert.False(t, allowed)
	assert.Greater(t, waitTime, time.Duration(0))

	// Reserved pool is untouched
	allowed, _ = tracker.TryConsume(ctx, 1, PriorityHigh)
	assert.True(t, allowed)
}

func TestTryConsumeTotalCap(t *testing.T) {
	tracker, _ := setupTracker(t, 10, 4)
	ctx := context.Background()

	allowed, _ := tracker.TryConsume(ctx, 6, PriorityLow)
	require.True(t, allowed)
	allowed, _ = tracker.TryConsume(ctx, 4, PriorityHigh)
	require.True(t, allowed)

	// Both pools full: nothing left in the total budget either
	allowed, _ = tracker.TryConsume(ctx, 1, PriorityHigh)
	assert.False(t, allowed)
	allowed, _ = tracker.TryConsume(ctx, 1, PriorityLow)
	assert.False(t, allowed)
}

func TestTryConsumeZeroIsFree(t *testing.T) {
	tracker, _ := setupTracker(t, 1, 0)
	allowed, waitTime := tracker.TryConsume(context.Background(), 0, PriorityLow)
	assert.True(t, allowed)
	assert.Equal(t, time.Duration(0), waitTime)
}

func TestGetUsage(t *testing.T) {
	tracker, _ := setupTracker(t, 10, 4)
	ctx := context.Background()

	_, _ = tracker.TryConsume(ctx, 2, PriorityLow)
	_, _ = tracker.TryConsume(ctx, 3, PriorityHigh)

	stats, err := tracker.GetUsage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalUsed)
	assert.Equal(t, 3, stats.ReservedUsed)
	assert.Equal(t, 2, stats.SharedUsed)
	assert.Equal(t, 10, stats.TotalBudget)
}

func TestAvailableBudget(t *testing.T) {
	tracker, _ := setupTracker(t, 10, 4)
	ctx := context.Background()

	_, _ = tracker.TryConsume(ctx, 5, PriorityLow)

	available, err := tracker.AvailableBudget(ctx, PriorityLow)
	require.NoError(t, err)
	assert.Equal(t, 1, available)

	available, err = tracker.AvailableBudget(ctx, PriorityHigh)
	require.NoError(t, err)
	assert.Equal(t, 4, available)
}

func TestWaitCancellation(t *testing.T) {
	tracker, _ := setupTracker(t, 2, 1)
	ctx := context.Background()

	// Exhaust the shared pool
	allowed, _ := tracker.TryConsume(ctx, 1, PriorityLow)
	require.True(t, allowed)

	cancelCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	err := tracker.Wait(cancelCtx, 1, PriorityLow)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
