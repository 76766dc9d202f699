package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wallet-scanner/internal/types"
)

func TestDistinctMarkets(t *testing.T) {
	closed := []*types.ClosedPosition{
		{ConditionID: "m2"},
		{ConditionID: "m1"},
		{ConditionID: "m2"},
		{ConditionID: ""},
		{ConditionID: "m3"},
	}

	got := distinctMarkets(closed)
	assert.Equal(t, []string{"m2", "m1", "m3"}, got)
}

func TestAggregateCategories(t *testing.T) {
	wallet := "0xab00000000000000000000000000000000000000"
	closed := []*types.ClosedPosition{
		{ConditionID: "m1", TotalBought: 1000, AvgPrice: 0.5, RealizedPnl: 100}, // Politics $500
		{ConditionID: "m2", TotalBought: 500, AvgPrice: 0.5, RealizedPnl: -50}, // Politics $250
		{ConditionID: "m3", TotalBought: 500, AvgPrice: 0.4, RealizedPnl: 30},  // Sports $200
		{ConditionID: "m4", TotalBought: 100, AvgPrice: 0.5, RealizedPnl: -10}, // Crypto $50
	}
	categories := map[string]string{
		"m1": "Politics",
		"m2": "Politics",
		"m3": "Sports",
		"m4": "Crypto",
	}

	breakdown := aggregateCategories(wallet, closed, categories)
	assert.Len(t, breakdown, 3)

	// Ordered by volume descending.
	politics := breakdown[0]
	assert.Equal(t, "Politics", politics.Category)
	assert.Equal(t, 2, politics.Positions)
	assert.InDelta(t, 750.0, politics.Volume, 1e-9)
	assert.InDelta(t, 75.0, politics.PctVolume, 1e-9)
	assert.InDelta(t, 50.0, politics.Pnl, 1e-9)

	sports := breakdown[1]
	assert.Equal(t, "Sports", sports.Category)
	assert.InDelta(t, 200.0, sports.Volume, 1e-9)
	assert.InDelta(t, 20.0, sports.PctVolume, 1e-9)
	assert.InDelta(t, 30.0, sports.Pnl, 1e-9)

	crypto := breakdown[2]
	assert.Equal(t, "Crypto", crypto.Category)
	assert.InDelta(t, 5.0, crypto.PctVolume, 1e-9)

	assert.Equal(t, wallet, politics.Wallet)
}

func TestAggregateCategoriesUnresolvedFallsBackToUnknown(t *testing.T) {
	wallet := "0xab00000000000000000000000000000000000000"
	closed := []*types.ClosedPosition{
		{ConditionID: "m1", TotalBought: 100, AvgPrice: 0.5, RealizedPnl: 10},
	}

	breakdown := aggregateCategories(wallet, closed, nil)
	assert.Len(t, breakdown, 1)
	assert.Equal(t, "Unknown", breakdown[0].Category)
	assert.InDelta(t, 100.0, breakdown[0].PctVolume, 1e-9)
}

func TestNormalizeCategory(t *testing.T) {
	assert.Equal(t, "Politics", normalizeCategory("Politics"))
	assert.Equal(t, "Unknown", normalizeCategory(""))
}
