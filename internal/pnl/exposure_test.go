package pnl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wallet-scanner/internal/types"
)

func TestMaxCopyExposureScalesNotional(t *testing.T) {
	// A $1000 buy copies at 3% = $30.
	trades := []*types.Trade{
		{ConditionID: "m1", Side: types.SideBuy, Size: 2000, Price: 0.5, Timestamp: 1000},
	}
	assert.InDelta(t, 30.0, MaxCopyExposure(trades, nil), 1e-9)
}

func TestMaxCopyExposureCapsSingleTrade(t *testing.T) {
	// 3% of $100k is $3000, capped at $500.
	trades := []*types.Trade{
		{ConditionID: "m1", Side: types.SideBuy, Size: 200000, Price: 0.5, Timestamp: 1000},
	}
	assert.InDelta(t, 500.0, MaxCopyExposure(trades, nil), 1e-9)
}

func TestMaxCopyExposureOverlapAndRelease(t *testing.T) {
	trades := []*types.Trade{
		{ConditionID: "m1", Side: types.SideBuy, Size: 2000, Price: 0.5, Timestamp: 1000}, // $30
		{ConditionID: "m2", Side: types.SideBuy, Size: 1000, Price: 0.5, Timestamp: 2000}, // $15
		{ConditionID: "m3", Side: types.SideBuy, Size: 1000, Price: 0.5, Timestamp: 9000}, // $15
	}
	closed := []*types.ClosedPosition{
		{ConditionID: "m1", Timestamp: 5000},
		{ConditionID: "m2", Timestamp: 5000},
	}

	// Peak is m1+m2 overlapping ($45); both release before m3 opens.
	assert.InDelta(t, 45.0, MaxCopyExposure(trades, closed), 1e-9)
}

func TestMaxCopyExposureReleaseBeforeCommitAtSameInstant(t *testing.T) {
	trades := []*types.Trade{
		{ConditionID: "m1", Side: types.SideBuy, Size: 2000, Price: 0.5, Timestamp: 1000},
		{ConditionID: "m2", Side: types.SideBuy, Size: 2000, Price: 0.5, Timestamp: 5000},
	}
	closed := []*types.ClosedPosition{
		{ConditionID: "m1", Timestamp: 5000},
	}

	// m1 releases at t=5000 before m2 commits, so capital never doubles.
	assert.InDelta(t, 30.0, MaxCopyExposure(trades, closed), 1e-9)
}

func TestMaxCopyExposureUnresolvedUsesDefaultHold(t *testing.T) {
	trades := []*types.Trade{
		{ConditionID: "m1", Side: types.SideBuy, Size: 2000, Price: 0.5, Timestamp: 1000},
		{ConditionID: "m2", Side: types.SideBuy, Size: 2000, Price: 0.5, Timestamp: 1000 + DefaultHoldSeconds + 1},
	}

	// No resolutions known; m1 closes after the default hold, before m2 opens.
	assert.InDelta(t, 30.0, MaxCopyExposure(trades, nil), 1e-9)
}

func TestMaxCopyExposureIgnoresSells(t *testing.T) {
	trades := []*types.Trade{
		{ConditionID: "m1", Side: types.SideSell, Size: 2000, Price: 0.5, Timestamp: 1000},
	}
	assert.Zero(t, MaxCopyExposure(trades, nil))
	assert.Zero(t, MaxCopyExposure(nil, nil))
}

func TestCopyBacktestPnlProportionalReturn(t *testing.T) {
	closed := []*types.ClosedPosition{
		// 50% return on a $1000 position: $30 stake earns $15.
		{ConditionID: "m1", TotalBought: 1000, RealizedPnl: 500},
		// Total loss on a $200 position: $6 stake loses $6.
		{ConditionID: "m2", TotalBought: 200, RealizedPnl: -200},
	}
	assert.InDelta(t, 9.0, CopyBacktestPnl(closed), 1e-9)
}

func TestCopyBacktestPnlCapsStake(t *testing.T) {
	closed := []*types.ClosedPosition{
		// 3% of $100k exceeds the cap; $500 stake at 10% return.
		{ConditionID: "m1", TotalBought: 100000, RealizedPnl: 10000},
	}
	assert.InDelta(t, 50.0, CopyBacktestPnl(closed), 1e-9)
}

func TestCopyBacktestPnlSkipsZeroCostBasis(t *testing.T) {
	closed := []*types.ClosedPosition{
		{ConditionID: "m1", TotalBought: 0, RealizedPnl: 100},
	}
	assert.Zero(t, CopyBacktestPnl(closed))
	assert.Zero(t, CopyBacktestPnl(nil))
}

func TestMaxCopyExposureResolutionBeforeBuyClampsAtZero(t *testing.T) {
	trades := []*types.Trade{
		{ConditionID: "m1", Side: types.SideBuy, Size: 2000, Price: 0.5, Timestamp: 9000},
	}
	closed := []*types.ClosedPosition{
		{ConditionID: "m1", Timestamp: 5000}, // resolved before the buy, stale data
	}

	// The release fires at the resolution time and the zero floor
	// absorbs it; the buy then commits $30 which is never released.
	assert.InDelta(t, 30.0, MaxCopyExposure(trades, closed), 1e-9)
}

func TestMaxCopyExposureStaleResolutionKeepsCapitalCommitted(t *testing.T) {
	trades := []*types.Trade{
		{ConditionID: "m1", Side: types.SideBuy, Size: 2000, Price: 0.5, Timestamp: 1000},
		{ConditionID: "m2", Side: types.SideBuy, Size: 2000, Price: 0.5, Timestamp: 1000 + DefaultHoldSeconds + 1},
	}
	closed := []*types.ClosedPosition{
		{ConditionID: "m1", Timestamp: 500}, // resolved before the buy
	}

	// m1's only release fires at its known resolution time, where the
	// zero floor absorbs it. The capital stays committed and stacks
	// with m2 rather than expiring after the default hold.
	assert.InDelta(t, 60.0, MaxCopyExposure(trades, closed), 1e-9)
}
