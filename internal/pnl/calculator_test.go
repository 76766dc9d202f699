package pnl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wallet-scanner/internal/types"
)

func TestRealizedWindows(t *testing.T) {
	now := int64(1_700_000_000)
	positions := []*types.ClosedPosition{
		{ConditionID: "a", RealizedPnl: 100, Timestamp: now - 3600},              // within 1d
		{ConditionID: "b", RealizedPnl: -40, Timestamp: now - 2*86400},           // within 7d
		{ConditionID: "c", RealizedPnl: 25, Timestamp: now - 20*86400},           // within 30d
		{ConditionID: "d", RealizedPnl: 10, Timestamp: now - 100*86400},          // all only
		{ConditionID: "e", RealizedPnl: 5, Timestamp: now - types.Period7D.WindowSeconds()}, // boundary, inclusive
	}

	windows := RealizedWindows(positions, now)

	assert.InDelta(t, 100.0, windows[types.Period1D], 1e-9)
	assert.InDelta(t, 65.0, windows[types.Period7D], 1e-9)
	assert.InDelta(t, 90.0, windows[types.Period30D], 1e-9)
	assert.InDelta(t, 100.0, windows[types.PeriodAll], 1e-9)
}

func TestRealizedWindowsTwoDayOldResolution(t *testing.T) {
	now := int64(1_700_000_000)
	positions := []*types.ClosedPosition{
		{ConditionID: "a", RealizedPnl: 50, Timestamp: now - 2*86400},
	}

	windows := RealizedWindows(positions, now)

	assert.Zero(t, windows[types.Period1D])
	assert.InDelta(t, 50.0, windows[types.Period7D], 1e-9)
	assert.InDelta(t, 50.0, windows[types.Period30D], 1e-9)
	assert.InDelta(t, 50.0, windows[types.PeriodAll], 1e-9)
}

func TestWinLossAndWinRate(t *testing.T) {
	positions := []*types.ClosedPosition{
		{RealizedPnl: 10},
		{RealizedPnl: 0.5},
		{RealizedPnl: -3},
		{RealizedPnl: 0}, // break-even, not decided
	}

	wins, losses := WinLoss(positions)
	assert.Equal(t, 2, wins)
	assert.Equal(t, 1, losses)
	assert.InDelta(t, 66.666, WinRate(wins, losses), 0.01)
	assert.Zero(t, WinRate(0, 0))
}

func TestUnrealizedPrefersUnrealizedField(t *testing.T) {
	positions := []*types.OpenPosition{
		{UnrealizedPnl: 12, CashPnl: 100},
		{UnrealizedPnl: -2, CashPnl: 50},
	}
	assert.InDelta(t, 10.0, Unrealized(positions), 1e-9)
}

func TestUnrealizedFallsBackToCashPnl(t *testing.T) {
	positions := []*types.OpenPosition{
		{UnrealizedPnl: 0, CashPnl: 30},
		{UnrealizedPnl: 0, CashPnl: -5},
	}
	assert.InDelta(t, 25.0, Unrealized(positions), 1e-9)
	assert.Zero(t, Unrealized(nil))
}

func TestTradeAggregates(t *testing.T) {
	trades := []*types.Trade{
		{ConditionID: "m1", Side: types.SideBuy, Size: 100, Price: 0.5},
		{ConditionID: "m1", Side: types.SideSell, Size: 100, Price: 0.7},
		{ConditionID: "m2", Side: types.SideBuy, Size: 20, Price: 0.1},
	}

	assert.InDelta(t, 122.0, TotalVolume(trades), 1e-9)

	buys, sells := CountSides(trades)
	assert.Equal(t, 2, buys)
	assert.Equal(t, 1, sells)
	assert.Equal(t, 2, MarketCount(trades))
}
