package pnl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wallet-scanner/internal/types"
)

func TestHoldTimesEmpty(t *testing.T) {
	assert.Equal(t, HoldStats{}, HoldTimes(nil, nil))
}

func TestHoldTimesUsesEarliestBuy(t *testing.T) {
	trades := []*types.Trade{
		{ConditionID: "m1", Side: types.SideBuy, Timestamp: 2000},
		{ConditionID: "m1", Side: types.SideBuy, Timestamp: 1000},
		{ConditionID: "m1", Side: types.SideSell, Timestamp: 500}, // sells don't anchor holds
	}
	closed := []*types.ClosedPosition{
		{ConditionID: "m1", Timestamp: 4000},
	}

	stats := HoldTimes(trades, closed)
	assert.Equal(t, 1, stats.SampledMarkets)
	assert.InDelta(t, 3000.0, stats.AvgSeconds, 1e-9)
	assert.InDelta(t, 3000.0, stats.MedianSeconds, 1e-9)
}

func TestHoldTimesMedianEvenCount(t *testing.T) {
	trades := []*types.Trade{
		{ConditionID: "m1", Side: types.SideBuy, Timestamp: 0},
		{ConditionID: "m2", Side: types.SideBuy, Timestamp: 0},
	}
	closed := []*types.ClosedPosition{
		{ConditionID: "m1", Timestamp: 100},
		{ConditionID: "m2", Timestamp: 300},
	}

	stats := HoldTimes(trades, closed)
	assert.Equal(t, 2, stats.SampledMarkets)
	assert.InDelta(t, 200.0, stats.AvgSeconds, 1e-9)
	assert.InDelta(t, 200.0, stats.MedianSeconds, 1e-9)
}

func TestHoldTimesSkipsUnmatchedAndStale(t *testing.T) {
	trades := []*types.Trade{
		{ConditionID: "m1", Side: types.SideBuy, Timestamp: 1000},
	}
	closed := []*types.ClosedPosition{
		{ConditionID: "m1", Timestamp: 500},  // resolved before the buy
		{ConditionID: "m2", Timestamp: 9000}, // no buy recorded
	}

	assert.Equal(t, HoldStats{}, HoldTimes(trades, closed))
}
