package adapter

import (
	"context"
	"sync"

	"github.com/wallet-scanner/internal/logging"
	"github.com/wallet-scanner/internal/types"
)

// PageBatchSize is the number of pages fetched in parallel during a
// full backfill.
const PageBatchSize = 20

// TradePager fetches one page of trade activity
type TradePager interface {
	FetchTradePage(ctx context.Context, wallet string, limit, offset int) (trades []*types.Trade, rawCount int, err error)
}

// Paginator walks the paged activity endpoint for a wallet. It supports
// a cold full backfill (parallel page batches) and a warm incremental
// fetch bounded by a timestamp watermark.
type Paginator struct {
	pager               TradePager
	pageLimit           int
	batchSize           int
	maxBackfillPages    int
	maxIncrementalPages int
}

// NewPaginator creates a paginator over the given page fetcher
func NewPaginator(pager TradePager, maxBackfillPages, maxIncrementalPages int) *Paginator {
	if maxBackfillPages <= 0 {
		maxBackfillPages = 5000
	}
	if maxIncrementalPages <= 0 {
		maxIncrementalPages = 100
	}
	return &Paginator{
		pager:               pager,
		pageLimit:           TradePageLimit,
		batchSize:           PageBatchSize,
		maxBackfillPages:    maxBackfillPages,
		maxIncrementalPages: maxIncrementalPages,
	}
}

type pageResult struct {
	trades   []*types.Trade
	rawCount int
	failed   bool
}

// FetchAllTrades fetches the complete trade history for a wallet.
// Pages are fetched in parallel batches; within a batch the results are
// reassembled in offset order. The walk terminates at the first short or
// failed page (a failed page contributes zero records), or at the page cap.
func (p *Paginator) FetchAllTrades(ctx context.Context, wallet string) ([]*types.Trade, error) {
	logger := logging.FromContext(ctx).WithField("wallet", wallet)

	var all []*types.Trade

	for basePage := 0; basePage < p.maxBackfillPages; basePage += p.batchSize {
		n := p.batchSize
		if basePage+n > p.maxBackfillPages {
			n = p.maxBackfillPages - basePage
		}

		results := make([]pageResult, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				offset := (basePage + i) * p.pageLimit
				trades, rawCount, err := p.pager.FetchTradePage(ctx, wallet, p.pageLimit, offset)
				if err != nil {
					logger.WithFields(map[string]interface{}{
						"offset": offset,
						"error":  err.Error(),
					}).Warn("Page fetch failed, treating as empty")
					results[i] = pageResult{failed: true}
					return
				}
				results[i] = pageResult{trades: trades, rawCount: rawCount}
			}(i)
		}
		wg.Wait()

		if err := ctx.Err(); err != nil {
			return all, err
		}

		// Reassemble in offset order and stop at the first page that
		// signals the end of history.
		for i := 0; i < n; i++ {
			all = append(all, results[i].trades...)
			if results[i].failed || results[i].rawCount < p.pageLimit {
				return all, nil
			}
		}
	}

	logger.WithField("pages", p.maxBackfillPages).Warn("Backfill hit page cap before reaching end of history")
	return all, nil
}

// FetchTradesSince fetches trades newer than the watermark timestamp.
// Pages are walked sequentially newest-first; the walk stops as soon as a
// page contains any trade at or before the watermark, at a short page, or
// at the incremental page cap. Only trades strictly newer than the
// watermark are returned.
func (p *Paginator) FetchTradesSince(ctx context.Context, wallet string, watermark int64) ([]*types.Trade, error) {
	logger := logging.FromContext(ctx).WithField("wallet", wallet)

	var fresh []*types.Trade

	for page := 0; page < p.maxIncrementalPages; page++ {
		offset := page * p.pageLimit
		trades, rawCount, err := p.pager.FetchTradePage(ctx, wallet, p.pageLimit, offset)
		if err != nil {
			logger.WithFields(map[string]interface{}{
				"offset": offset,
				"error":  err.Error(),
			}).Warn("Incremental page fetch failed, stopping")
			return fresh, nil
		}

		qualifying := 0
		for _, t := range trades {
			if t.Timestamp > watermark {
				fresh = append(fresh, t)
				qualifying++
			}
		}

		// Any trade at or before the watermark means the rest of the
		// history is already stored.
		if qualifying < len(trades) {
			return fresh, nil
		}
		if rawCount < p.pageLimit {
			return fresh, nil
		}

		if err := ctx.Err(); err != nil {
			return fresh, err
		}
	}

	logger.WithField("pages", p.maxIncrementalPages).Warn("Incremental fetch hit page cap")
	return fresh, nil
}

// ClosedPositionPager fetches one page of resolved positions
type ClosedPositionPager interface {
	FetchClosedPositionsPage(ctx context.Context, wallet string, limit, offset int) ([]*types.ClosedPosition, error)
}

// FetchAllClosedPositions walks the closed positions endpoint to the end.
// Failed pages terminate the walk with the records collected so far.
func FetchAllClosedPositions(ctx context.Context, pager ClosedPositionPager, wallet string, maxPages int) ([]*types.ClosedPosition, error) {
	logger := logging.FromContext(ctx).WithField("wallet", wallet)

	var all []*types.ClosedPosition
	for page := 0; page < maxPages; page++ {
		offset := page * ClosedPositionPageLimit
		positions, err := pager.FetchClosedPositionsPage(ctx, wallet, ClosedPositionPageLimit, offset)
		if err != nil {
			logger.WithFields(map[string]interface{}{
				"offset": offset,
				"error":  err.Error(),
			}).Warn("Closed positions page fetch failed, stopping")
			return all, nil
		}
		all = append(all, positions...)
		if len(positions) < ClosedPositionPageLimit {
			return all, nil
		}
		if err := ctx.Err(); err != nil {
			return all, err
		}
	}
	return all, nil
}

// OpenPositionPager fetches one page of live positions
type OpenPositionPager interface {
	FetchOpenPositionsPage(ctx context.Context, wallet string, limit, offset int) ([]*types.OpenPosition, error)
}

// FetchAllOpenPositions walks the positions endpoint to the end
func FetchAllOpenPositions(ctx context.Context, pager OpenPositionPager, wallet string, maxPages int) ([]*types.OpenPosition, error) {
	logger := logging.FromContext(ctx).WithField("wallet", wallet)

	var all []*types.OpenPosition
	for page := 0; page < maxPages; page++ {
		offset := page * PositionPageLimit
		positions, err := pager.FetchOpenPositionsPage(ctx, wallet, PositionPageLimit, offset)
		if err != nil {
			logger.WithFields(map[string]interface{}{
				"offset": offset,
				"error":  err.Error(),
			}).Warn("Positions page fetch failed, stopping")
			return all, nil
		}
		all = append(all, positions...)
		if len(positions) < PositionPageLimit {
			return all, nil
		}
		if err := ctx.Err(); err != nil {
			return all, err
		}
	}
	return all, nil
}
