// Package service implements the wallet scanning pipeline: trade sync,
// metric computation, market categorization, and leaderboard ingestion.
package service

import (
	"context"
	"time"

	"github.com/wallet-scanner/internal/adapter"
	"github.com/wallet-scanner/internal/logging"
	"github.com/wallet-scanner/internal/models"
	"github.com/wallet-scanner/internal/storage"
	"github.com/wallet-scanner/internal/types"
)

// maxPositionPages bounds the closed/open position walks per wallet
const maxPositionPages = 200

// TradeSource fetches trade history from the upstream data API
type TradeSource interface {
	FetchAllTrades(ctx context.Context, wallet string) ([]*types.Trade, error)
	FetchTradesSince(ctx context.Context, wallet string, watermark int64) ([]*types.Trade, error)
}

// PositionSource fetches position pages from the upstream data API
type PositionSource interface {
	adapter.ClosedPositionPager
	adapter.OpenPositionPager
}

// WalletStore tracks per-wallet sync watermarks
type WalletStore interface {
	GetWatermark(ctx context.Context, address string) (int64, error)
	AdvanceWatermark(ctx context.Context, address string, watermark int64, tradeCount int) error
}

// TradeStore persists and reads back trade history
type TradeStore interface {
	UpsertBatch(ctx context.Context, trades []*models.TradeRecord) (int, error)
	GetByWallet(ctx context.Context, wallet string) ([]*models.TradeRecord, error)
}

// PositionStore persists position snapshots
type PositionStore interface {
	UpsertClosed(ctx context.Context, positions []*models.ClosedPositionRecord) error
	ReplaceOpen(ctx context.Context, wallet string, positions []*models.OpenPositionRecord) error
}

// SyncService performs the incremental trade and position sync for one
// wallet at a time
type SyncService struct {
	trades      TradeSource
	positions   PositionSource
	walletRepo  WalletStore
	tradeRepo   TradeStore
	posRepo     PositionStore
	archiveRepo *storage.TradeArchiveRepository
	counters    *adapter.Counters
}

// NewSyncService creates a new sync service. The archive repository is
// optional; without it trades are not mirrored to ClickHouse.
func NewSyncService(
	trades TradeSource,
	positions PositionSource,
	walletRepo WalletStore,
	tradeRepo TradeStore,
	posRepo PositionStore,
	archiveRepo *storage.TradeArchiveRepository,
	counters *adapter.Counters,
) *SyncService {
	return &SyncService{
		trades:      trades,
		positions:   positions,
		walletRepo:  walletRepo,
		tradeRepo:   tradeRepo,
		posRepo:     posRepo,
		archiveRepo: archiveRepo,
		counters:    counters,
	}
}

// SyncResult summarizes one wallet sync. The merged in-memory history
// rides along for downstream analysis so a failed store write never
// leaves the wallet unanalyzed.
type SyncResult struct {
	Wallet          string `json:"wallet"`
	ColdStart       bool   `json:"coldStart"`
	TradesFetched   int    `json:"tradesFetched"`
	TradesStored    int    `json:"tradesStored"`
	ClosedPositions int    `json:"closedPositions"`
	OpenPositions   int    `json:"openPositions"`
	Watermark       int64  `json:"watermark"`

	Trades []*types.Trade          `json:"-"`
	Closed []*types.ClosedPosition `json:"-"`
	Open   []*types.OpenPosition   `json:"-"`
}

// SyncWallet brings the wallet's stored history up to date. A zero
// watermark selects a full backfill; otherwise only trades newer than
// the watermark are fetched. Store write failures are logged and
// skipped: the sync carries on with the in-memory data and the
// watermark only advances after the fetched trades are durably stored,
// so a missed write is refetched on the next run.
func (s *SyncService) SyncWallet(ctx context.Context, wallet string) (*SyncResult, error) {
	if err := storage.ValidateWallet(wallet); err != nil {
		return nil, err
	}

	logger := logging.FromContext(ctx).WithField("wallet", wallet)

	watermark, err := s.walletRepo.GetWatermark(ctx, wallet)
	if err != nil {
		return nil, err
	}

	coldStart := watermark == 0
	var trades []*types.Trade
	if coldStart {
		trades, err = s.trades.FetchAllTrades(ctx, wallet)
	} else {
		trades, err = s.trades.FetchTradesSince(ctx, wallet, watermark)
	}
	if err != nil {
		return nil, err
	}

	trades = dedupeTrades(trades)
	if s.counters != nil {
		s.counters.Trades.Add(int64(len(trades)))
	}

	result := &SyncResult{
		Wallet:        wallet,
		ColdStart:     coldStart,
		TradesFetched: len(trades),
		Watermark:     watermark,
	}

	if len(trades) > 0 {
		records := make([]*models.TradeRecord, len(trades))
		for i, t := range trades {
			records[i] = models.FromTrade(t)
		}

		stored, err := s.tradeRepo.UpsertBatch(ctx, records)
		result.TradesStored = stored
		if err != nil {
			logger.WithError(err).Warn("Failed to store trades, continuing with in-memory data")
		} else {
			// Mirror to the analytics archive off the sync path. A failed
			// archive write never blocks or fails the sync.
			if s.archiveRepo != nil {
				go func(records []*models.TradeRecord) {
					bgCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
					defer cancel()
					if err := s.archiveRepo.BatchInsert(bgCtx, records); err != nil {
						logger.WithError(err).Warn("Failed to archive trades")
					}
				}(records)
			}

			newWatermark := maxTradeTimestamp(trades)
			if newWatermark > watermark {
				if err := s.walletRepo.AdvanceWatermark(ctx, wallet, newWatermark, len(records)); err != nil {
					logger.WithError(err).Warn("Failed to advance watermark")
				} else {
					result.Watermark = newWatermark
				}
			}
		}
	}

	result.Trades = s.mergedHistory(ctx, wallet, trades)

	if err := s.syncPositions(ctx, wallet, result); err != nil {
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"coldStart": result.ColdStart,
		"trades":    result.TradesFetched,
		"closed":    result.ClosedPositions,
		"open":      result.OpenPositions,
	}).Info("Wallet sync complete")

	return result, nil
}

// mergedHistory combines the stored trade history with the freshly
// fetched trades. Fetched trades not yet in the store, because a write
// failed or has not landed, are appended by key, so downstream analysis
// always sees the full run even when persistence degrades.
func (s *SyncService) mergedHistory(ctx context.Context, wallet string, fetched []*types.Trade) []*types.Trade {
	records, err := s.tradeRepo.GetByWallet(ctx, wallet)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Warn("Failed to read stored trades, using fetched only")
		return fetched
	}

	merged := make([]*types.Trade, 0, len(records)+len(fetched))
	seen := make(map[string]struct{}, len(records)+len(fetched))
	for _, r := range records {
		t := r.ToTrade()
		merged = append(merged, t)
		seen[t.Key()] = struct{}{}
	}
	for _, t := range fetched {
		if _, dup := seen[t.Key()]; dup {
			continue
		}
		seen[t.Key()] = struct{}{}
		merged = append(merged, t)
	}
	return merged
}

// syncPositions fetches the wallet's position snapshots. Fetch failures
// propagate; store write failures are logged and skipped, the in-memory
// snapshots still land on the result.
func (s *SyncService) syncPositions(ctx context.Context, wallet string, result *SyncResult) error {
	logger := logging.FromContext(ctx).WithField("wallet", wallet)

	closed, err := adapter.FetchAllClosedPositions(ctx, s.positions, wallet, maxPositionPages)
	if err != nil {
		return err
	}
	if len(closed) > 0 {
		records := make([]*models.ClosedPositionRecord, len(closed))
		for i, p := range closed {
			records[i] = models.FromClosedPosition(wallet, p)
		}
		if err := s.posRepo.UpsertClosed(ctx, records); err != nil {
			logger.WithError(err).Warn("Failed to store closed positions")
		}
	}
	result.ClosedPositions = len(closed)
	result.Closed = closed

	open, err := adapter.FetchAllOpenPositions(ctx, s.positions, wallet, maxPositionPages)
	if err != nil {
		return err
	}
	records := make([]*models.OpenPositionRecord, len(open))
	for i, p := range open {
		records[i] = models.FromOpenPosition(wallet, p)
	}
	if err := s.posRepo.ReplaceOpen(ctx, wallet, records); err != nil {
		logger.WithError(err).Warn("Failed to store open positions")
	}
	result.OpenPositions = len(open)
	result.Open = open

	return nil
}

// dedupeTrades drops duplicate trades by content key, keeping the first
// occurrence. The upstream occasionally repeats records across page
// boundaries.
func dedupeTrades(trades []*types.Trade) []*types.Trade {
	if len(trades) == 0 {
		return trades
	}

	seen := make(map[string]struct{}, len(trades))
	out := trades[:0]
	for _, t := range trades {
		key := t.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

// maxTradeTimestamp returns the newest timestamp in the batch
func maxTradeTimestamp(trades []*types.Trade) int64 {
	var max int64
	for _, t := range trades {
		if t.Timestamp > max {
			max = t.Timestamp
		}
	}
	return max
}
