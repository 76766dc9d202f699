package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wallet-scanner/internal/models"
	"github.com/wallet-scanner/internal/types"
)

func TestBuildWalletStats(t *testing.T) {
	wallet := "0xab00000000000000000000000000000000000000"
	now := int64(1_700_000_000)

	trades := []*types.Trade{
		{ConditionID: "m1", Side: types.SideBuy, Size: 100, Price: 0.5, Timestamp: now - 10*86400},
		{ConditionID: "m1", Side: types.SideSell, Size: 100, Price: 0.8, Timestamp: now - 9*86400},
		{ConditionID: "m2", Side: types.SideBuy, Size: 50, Price: 0.2, Timestamp: now - 5*86400},
		{ConditionID: "m3", Side: types.SideBuy, Size: 200, Price: 0.9, Timestamp: now - 3*86400},
		{ConditionID: "m4", Side: types.SideBuy, Size: 20, Price: 0.1, Timestamp: now - 86400/2},
	}
	closed := []*types.ClosedPosition{
		{ConditionID: "m1", RealizedPnl: 30, Timestamp: now - 9*86400},
		{ConditionID: "m2", RealizedPnl: -10, Timestamp: now - 4*86400},
	}
	open := []*types.OpenPosition{
		{ConditionID: "m3", UnrealizedPnl: 12, CashPnl: 40},
	}

	stats := BuildWalletStats(wallet, trades, closed, open, now)

	assert.Equal(t, wallet, stats.Wallet)
	assert.Equal(t, 5, stats.TotalTrades)
	assert.Equal(t, 4, stats.BuyCount)
	assert.Equal(t, 1, stats.SellCount)
	assert.Equal(t, 4, stats.MarketCount)
	assert.InDelta(t, 322.0, stats.TotalVolume, 1e-9)
	assert.InDelta(t, 64.4, stats.AvgTradeSize, 1e-9)

	// Volume over all positions: two closed plus one open.
	assert.InDelta(t, 322.0/3.0, stats.AvgBetSize, 1e-9)

	// History spans 9.5 days, truncated to whole days.
	assert.Equal(t, 9, stats.DaysActive)
	assert.InDelta(t, 5.0/9.0, stats.TradesPerDay, 1e-9)
	assert.InDelta(t, 20.0/322.0, stats.Roi, 1e-9)

	// m1 resolved 9 days ago: only 30d and all. m2 resolved 4 days ago:
	// 7d, 30d and all.
	assert.Zero(t, stats.RealizedPnl1D)
	assert.InDelta(t, -10.0, stats.RealizedPnl7D, 1e-9)
	assert.InDelta(t, 20.0, stats.RealizedPnl30D, 1e-9)
	assert.InDelta(t, 20.0, stats.RealizedPnlAll, 1e-9)

	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
	assert.InDelta(t, 50.0, stats.WinRate, 1e-9)
	assert.InDelta(t, 12.0, stats.UnrealizedPnl, 1e-9)
	assert.Greater(t, stats.MaxCopyExposure, 0.0)

	// Well spaced buys across distinct markets read as human.
	assert.False(t, stats.IsBot)
	assert.Empty(t, stats.BotSignals)
}

func TestBuildWalletStatsEmptyHistory(t *testing.T) {
	wallet := "0xcd00000000000000000000000000000000000000"

	stats := BuildWalletStats(wallet, nil, nil, nil, 1_700_000_000)

	assert.Zero(t, stats.TotalTrades)
	assert.Zero(t, stats.TotalVolume)
	assert.Zero(t, stats.AvgTradeSize)
	assert.Zero(t, stats.AvgBetSize)
	assert.Zero(t, stats.WinRate)
	assert.Zero(t, stats.MaxCopyExposure)
	assert.Zero(t, stats.Roi)
	assert.Zero(t, stats.DaysActive)
	assert.Zero(t, stats.TradesPerDay)

	// No history means no evidence of being human.
	assert.True(t, stats.IsBot)
	assert.Equal(t, []string{"NoData"}, stats.BotSignals)
}

func TestBuildPriceTiersCoversAllBuckets(t *testing.T) {
	wallet := "0xef00000000000000000000000000000000000000"
	closed := []*types.ClosedPosition{
		{ConditionID: "m1", AvgPrice: 0.95, RealizedPnl: 50},
	}

	tiers := buildPriceTiers(wallet, closed)
	assert.Len(t, tiers, 10)
	assert.Equal(t, wallet, tiers[0].Wallet)
	assert.Equal(t, "90-100c", tiers[0].Tier)
	assert.Equal(t, 1, tiers[0].Positions)
	assert.InDelta(t, 100.0, tiers[0].PctOfTotal, 1e-9)
	assert.InDelta(t, 100.0, tiers[0].WinRate, 1e-9)
	assert.InDelta(t, 50.0, tiers[0].TotalPnl, 1e-9)
}

type failingStatsStore struct {
	upserts int
}

func (f *failingStatsStore) UpsertStats(ctx context.Context, stats *models.WalletStats) error {
	f.upserts++
	return errors.New("stats write failed")
}

func (f *failingStatsStore) ReplacePriceTiers(ctx context.Context, wallet string, tiers []*models.PriceTier) error {
	return errors.New("tier write failed")
}

func (f *failingStatsStore) UpsertHoldTimes(ctx context.Context, holds *models.HoldTimes) error {
	return errors.New("hold write failed")
}

func (f *failingStatsStore) GetStats(ctx context.Context, wallet string) (*models.WalletStats, error) {
	return nil, nil
}

func TestAnalyzeWalletDataSurvivesStoreFailures(t *testing.T) {
	store := &failingStatsStore{}
	svc := NewStatsService(nil, nil, store)

	trades := []*types.Trade{
		{ConditionID: "m1", Side: types.SideBuy, Size: 100, Price: 0.5, Timestamp: 1000},
	}
	closed := []*types.ClosedPosition{
		{ConditionID: "m1", AvgPrice: 0.5, RealizedPnl: 25, Timestamp: 2000},
	}

	stats, err := svc.AnalyzeWalletData(context.Background(), testWallet, trades, closed, nil)
	assert.NoError(t, err)
	assert.NotNil(t, stats)
	assert.Equal(t, 1, stats.TotalTrades)
	assert.InDelta(t, 25.0, stats.RealizedPnlAll, 1e-9)
	assert.Equal(t, 1, store.upserts)
}
