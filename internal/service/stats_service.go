package service

import (
	"context"
	"time"

	"github.com/wallet-scanner/internal/detector"
	"github.com/wallet-scanner/internal/logging"
	"github.com/wallet-scanner/internal/models"
	"github.com/wallet-scanner/internal/pnl"
	"github.com/wallet-scanner/internal/storage"
	"github.com/wallet-scanner/internal/types"
)

// HistoryReader reads back the wallet's stored trade and position history
type HistoryReader interface {
	GetByWallet(ctx context.Context, wallet string) ([]*models.TradeRecord, error)
}

// PositionReader reads back the wallet's stored position snapshots
type PositionReader interface {
	GetClosedByWallet(ctx context.Context, wallet string) ([]*models.ClosedPositionRecord, error)
	GetOpenByWallet(ctx context.Context, wallet string) ([]*models.OpenPositionRecord, error)
}

// StatsStore persists and reads back the derived wallet metrics
type StatsStore interface {
	UpsertStats(ctx context.Context, stats *models.WalletStats) error
	ReplacePriceTiers(ctx context.Context, wallet string, tiers []*models.PriceTier) error
	UpsertHoldTimes(ctx context.Context, holds *models.HoldTimes) error
	GetStats(ctx context.Context, wallet string) (*models.WalletStats, error)
}

// StatsService computes and persists the derived wallet metrics from
// trade and position history
type StatsService struct {
	tradeRepo HistoryReader
	posRepo   PositionReader
	statsRepo StatsStore
	now       func() time.Time
}

// NewStatsService creates a new stats service
func NewStatsService(
	tradeRepo HistoryReader,
	posRepo PositionReader,
	statsRepo StatsStore,
) *StatsService {
	return &StatsService{
		tradeRepo: tradeRepo,
		posRepo:   posRepo,
		statsRepo: statsRepo,
		now:       time.Now,
	}
}

// AnalyzeWallet recomputes all metrics for the wallet from its stored
// history and upserts the results
func (s *StatsService) AnalyzeWallet(ctx context.Context, wallet string) (*models.WalletStats, error) {
	if err := storage.ValidateWallet(wallet); err != nil {
		return nil, err
	}

	tradeRecords, err := s.tradeRepo.GetByWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}
	closedRecords, err := s.posRepo.GetClosedByWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}
	openRecords, err := s.posRepo.GetOpenByWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}

	trades := make([]*types.Trade, len(tradeRecords))
	for i, r := range tradeRecords {
		trades[i] = r.ToTrade()
	}
	closed := make([]*types.ClosedPosition, len(closedRecords))
	for i, r := range closedRecords {
		closed[i] = r.ToClosedPosition()
	}
	open := make([]*types.OpenPosition, len(openRecords))
	for i, r := range openRecords {
		open[i] = r.ToOpenPosition()
	}

	return s.AnalyzeWalletData(ctx, wallet, trades, closed, open)
}

// AnalyzeWalletData recomputes all metrics from in-memory history and
// upserts the results. Write failures are logged and skipped: the
// computed stats are returned either way, so a degraded store never
// leaves the run without analysis.
func (s *StatsService) AnalyzeWalletData(ctx context.Context, wallet string, trades []*types.Trade, closed []*types.ClosedPosition, open []*types.OpenPosition) (*models.WalletStats, error) {
	if err := storage.ValidateWallet(wallet); err != nil {
		return nil, err
	}

	logger := logging.FromContext(ctx).WithField("wallet", wallet)

	stats := BuildWalletStats(wallet, trades, closed, open, s.now().Unix())

	if err := s.statsRepo.UpsertStats(ctx, stats); err != nil {
		logger.WithError(err).Warn("Failed to store wallet stats")
	}

	tiers := buildPriceTiers(wallet, closed)
	if err := s.statsRepo.ReplacePriceTiers(ctx, wallet, tiers); err != nil {
		logger.WithError(err).Warn("Failed to store price tiers")
	}

	holds := pnl.HoldTimes(trades, closed)
	holdTimes := &models.HoldTimes{
		Wallet:         wallet,
		AvgHoldSeconds: holds.AvgSeconds,
		MedianHoldSecs: holds.MedianSeconds,
		SampledMarkets: holds.SampledMarkets,
	}
	if err := s.statsRepo.UpsertHoldTimes(ctx, holdTimes); err != nil {
		logger.WithError(err).Warn("Failed to store hold times")
	}

	return stats, nil
}

// GetStats returns the wallet's persisted metrics, or a not-found
// error when the wallet has never been analyzed
func (s *StatsService) GetStats(ctx context.Context, wallet string) (*models.WalletStats, error) {
	stats, err := s.statsRepo.GetStats(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		return nil, &types.ServiceError{
			Code:    "STATS_NOT_FOUND",
			Message: "wallet has not been analyzed yet",
			Details: map[string]interface{}{"wallet": wallet},
		}
	}
	return stats, nil
}

// BuildWalletStats derives the full metric set from in-memory history.
// Pure: all inputs are explicit, including the anchor time.
func BuildWalletStats(wallet string, trades []*types.Trade, closed []*types.ClosedPosition, open []*types.OpenPosition, now int64) *models.WalletStats {
	buys, sells := pnl.CountSides(trades)
	volume := pnl.TotalVolume(trades)
	avgSize := 0.0
	if len(trades) > 0 {
		avgSize = volume / float64(len(trades))
	}
	avgBet := 0.0
	if positions := len(closed) + len(open); positions > 0 {
		avgBet = volume / float64(positions)
	}

	windows := pnl.RealizedWindows(closed, now)
	wins, losses := pnl.WinLoss(closed)
	assessment := detector.Assess(trades)

	roi := 0.0
	if volume > 0 {
		roi = windows[types.PeriodAll] / volume
	}
	daysActive := pnl.DaysActive(trades)
	tradesPerDay := 0.0
	if daysActive > 0 {
		tradesPerDay = float64(len(trades)) / float64(daysActive)
	}

	return &models.WalletStats{
		Wallet:          wallet,
		TotalTrades:     len(trades),
		BuyCount:        buys,
		SellCount:       sells,
		TotalVolume:     volume,
		AvgTradeSize:    avgSize,
		AvgBetSize:      avgBet,
		MarketCount:     pnl.MarketCount(trades),
		Roi:             roi,
		DaysActive:      daysActive,
		TradesPerDay:    tradesPerDay,
		RealizedPnl1D:   windows[types.Period1D],
		RealizedPnl7D:   windows[types.Period7D],
		RealizedPnl30D:  windows[types.Period30D],
		RealizedPnlAll:  windows[types.PeriodAll],
		Wins:            wins,
		Losses:          losses,
		WinRate:         pnl.WinRate(wins, losses),
		UnrealizedPnl:   pnl.Unrealized(open),
		MaxCopyExposure: pnl.MaxCopyExposure(trades, closed),
		CopyBacktestPnl: pnl.CopyBacktestPnl(closed),
		IsBot:           assessment.IsBot,
		BotSignals:      assessment.Signals,
	}
}

func buildPriceTiers(wallet string, closed []*types.ClosedPosition) []*models.PriceTier {
	stats := pnl.PriceTiers(closed)
	tiers := make([]*models.PriceTier, len(stats))
	for i, st := range stats {
		tiers[i] = &models.PriceTier{
			Wallet:     wallet,
			Tier:       st.Label,
			Positions:  st.Positions,
			PctOfTotal: st.PctOfTotal,
			WinRate:    st.WinRate,
			TotalPnl:   st.TotalPnl,
		}
	}
	return tiers
}
