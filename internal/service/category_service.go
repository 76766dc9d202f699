package service

import (
	"context"
	"sort"
	"sync"

	"github.com/wallet-scanner/internal/logging"
	"github.com/wallet-scanner/internal/models"
	"github.com/wallet-scanner/internal/storage"
	"github.com/wallet-scanner/internal/types"
)

// MarketLookup resolves market metadata by condition id
type MarketLookup interface {
	FetchMarket(ctx context.Context, conditionID string) (*types.MarketInfo, error)
}

// CategoryService resolves the market categories a wallet trades in.
// Lookups go through the Redis market cache first; upstream fetches are
// bounded by a shared semaphore since the gamma API is rate limited.
type CategoryService struct {
	lookup    MarketLookup
	cache     *storage.MarketCache
	statsRepo *storage.StatsRepository
	sem       chan struct{}
}

// NewCategoryService creates a category service with the given lookup
// concurrency bound
func NewCategoryService(lookup MarketLookup, cache *storage.MarketCache, statsRepo *storage.StatsRepository, lookupConcurrency int) *CategoryService {
	if lookupConcurrency <= 0 {
		lookupConcurrency = 10
	}
	return &CategoryService{
		lookup:    lookup,
		cache:     cache,
		statsRepo: statsRepo,
		sem:       make(chan struct{}, lookupConcurrency),
	}
}

// CategorizeWallet resolves the category of every market the wallet
// closed a position in, rolls volume and realized PnL up per category,
// and stores the breakdown. Markets that fail to resolve aggregate
// under "Unknown".
func (s *CategoryService) CategorizeWallet(ctx context.Context, wallet string, closed []*types.ClosedPosition) ([]*models.WalletCategory, error) {
	if err := storage.ValidateWallet(wallet); err != nil {
		return nil, err
	}

	conditionIDs := distinctMarkets(closed)
	categories := make(map[string]string, len(conditionIDs))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, id := range conditionIDs {
		wg.Add(1)
		go func(conditionID string) {
			defer wg.Done()

			select {
			case s.sem <- struct{}{}:
				defer func() { <-s.sem }()
			case <-ctx.Done():
				return
			}

			category := s.resolveCategory(ctx, conditionID)
			mu.Lock()
			categories[conditionID] = category
			mu.Unlock()
		}(id)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	breakdown := aggregateCategories(wallet, closed, categories)
	if err := s.statsRepo.ReplaceCategories(ctx, wallet, breakdown); err != nil {
		return nil, err
	}
	return breakdown, nil
}

func (s *CategoryService) resolveCategory(ctx context.Context, conditionID string) string {
	if s.cache != nil {
		if info, err := s.cache.Get(ctx, conditionID); err == nil && info != nil {
			return normalizeCategory(info.Category)
		}
	}

	info, err := s.lookup.FetchMarket(ctx, conditionID)
	if err != nil || info == nil {
		logging.FromContext(ctx).WithField("conditionId", conditionID).Warn("Market lookup failed")
		return "Unknown"
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, info); err != nil {
			logging.FromContext(ctx).WithError(err).Warn("Failed to cache market info")
		}
	}
	return normalizeCategory(info.Category)
}

func normalizeCategory(category string) string {
	if category == "" {
		return "Unknown"
	}
	return category
}

// distinctMarkets returns the unique condition ids in first-seen order
func distinctMarkets(closed []*types.ClosedPosition) []string {
	seen := make(map[string]struct{}, len(closed))
	var ids []string
	for _, p := range closed {
		if p.ConditionID == "" {
			continue
		}
		if _, dup := seen[p.ConditionID]; dup {
			continue
		}
		seen[p.ConditionID] = struct{}{}
		ids = append(ids, p.ConditionID)
	}
	return ids
}

// aggregateCategories rolls closed positions up per category. Volume is
// the position's cost basis (total bought at the average entry price);
// each category's share is its fraction of the wallet's total volume.
// Output is ordered by volume descending then name for determinism.
func aggregateCategories(wallet string, closed []*types.ClosedPosition, categories map[string]string) []*models.WalletCategory {
	byCategory := make(map[string]*models.WalletCategory)
	var totalVolume float64
	for _, p := range closed {
		category, ok := categories[p.ConditionID]
		if !ok {
			category = "Unknown"
		}
		c := byCategory[category]
		if c == nil {
			c = &models.WalletCategory{Wallet: wallet, Category: category}
			byCategory[category] = c
		}
		volume := p.TotalBought * p.AvgPrice
		c.Positions++
		c.Volume += volume
		c.Pnl += p.RealizedPnl
		totalVolume += volume
	}

	breakdown := make([]*models.WalletCategory, 0, len(byCategory))
	for _, c := range byCategory {
		if totalVolume > 0 {
			c.PctVolume = c.Volume / totalVolume * 100
		}
		breakdown = append(breakdown, c)
	}
	sort.Slice(breakdown, func(i, j int) bool {
		if breakdown[i].Volume != breakdown[j].Volume {
			return breakdown[i].Volume > breakdown[j].Volume
		}
		return breakdown[i].Category < breakdown[j].Category
	})
	return breakdown
}
