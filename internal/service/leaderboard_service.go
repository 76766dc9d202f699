package service

import (
	"context"
	"strings"
	"time"

	"github.com/wallet-scanner/internal/models"
	"github.com/wallet-scanner/internal/storage"
	"github.com/wallet-scanner/internal/types"
)

// LeaderboardSource fetches leaderboard pages from the upstream API
type LeaderboardSource interface {
	FetchLeaderboard(ctx context.Context, period types.TimePeriod, orderBy string, limit int) ([]*types.LeaderboardEntry, error)
	FetchWalletRank(ctx context.Context, wallet string, period types.TimePeriod) (*types.LeaderboardEntry, error)
}

// LeaderboardService ingests leaderboard snapshots and seeds the
// tracked wallet set from them
type LeaderboardService struct {
	source     LeaderboardSource
	lbRepo     *storage.LeaderboardRepository
	walletRepo *storage.WalletRepository
	now        func() time.Time
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(source LeaderboardSource, lbRepo *storage.LeaderboardRepository, walletRepo *storage.WalletRepository) *LeaderboardService {
	return &LeaderboardService{
		source:     source,
		lbRepo:     lbRepo,
		walletRepo: walletRepo,
		now:        time.Now,
	}
}

// IngestResult summarizes one leaderboard ingestion pass
type IngestResult struct {
	Periods    int `json:"periods"`
	Rows       int `json:"rows"`
	NewWallets int `json:"newWallets"`
}

// IngestAll fetches all time period leaderboards, stores the snapshots,
// and registers any wallets not yet tracked
func (s *LeaderboardService) IngestAll(ctx context.Context, orderBy string, limit int) (*IngestResult, error) {
	result := &IngestResult{}
	fetchedAt := s.now()

	for _, period := range types.AllPeriods {
		entries, err := s.source.FetchLeaderboard(ctx, period, orderBy, limit)
		if err != nil {
			return result, err
		}
		result.Periods++

		rankings := make([]*models.LeaderboardRanking, 0, len(entries))
		for _, e := range entries {
			if storage.ValidateWallet(e.Wallet) != nil {
				continue
			}
			rankings = append(rankings, models.FromLeaderboardEntry(e, period, fetchedAt))
		}

		if err := s.lbRepo.UpsertBatch(ctx, rankings); err != nil {
			return result, err
		}
		result.Rows += len(rankings)

		added, err := s.registerWallets(ctx, rankings)
		if err != nil {
			return result, err
		}
		result.NewWallets += added
	}

	return result, nil
}

// registerWallets adds leaderboard wallets to the tracked set. Known
// wallets only refresh their display name and rank.
func (s *LeaderboardService) registerWallets(ctx context.Context, rankings []*models.LeaderboardRanking) (int, error) {
	added := 0
	for _, lr := range rankings {
		address := strings.ToLower(lr.Wallet)
		existing, err := s.walletRepo.Get(ctx, address)
		if err != nil {
			return added, err
		}
		rank := lr.Rank
		if err := s.walletRepo.Upsert(ctx, &models.Wallet{
			Address:  address,
			UserName: lr.UserName,
			Rank:     &rank,
		}); err != nil {
			return added, err
		}
		if existing == nil {
			added++
		}
	}
	return added, nil
}

// RefreshWallet fetches the wallet's leaderboard rows across all time
// periods and stores the ones where it is ranked. Returns the number of
// rows stored.
func (s *LeaderboardService) RefreshWallet(ctx context.Context, wallet string) (int, error) {
	if err := storage.ValidateWallet(wallet); err != nil {
		return 0, err
	}
	fetchedAt := s.now()

	rankings := make([]*models.LeaderboardRanking, 0, len(types.AllPeriods))
	for _, period := range types.AllPeriods {
		entry, err := s.source.FetchWalletRank(ctx, wallet, period)
		if err != nil {
			return 0, err
		}
		if entry == nil {
			continue
		}
		entry.Wallet = wallet
		rankings = append(rankings, models.FromLeaderboardEntry(entry, period, fetchedAt))
	}

	if err := s.lbRepo.UpsertBatch(ctx, rankings); err != nil {
		return 0, err
	}
	return len(rankings), nil
}

// GetLeaderboard returns the stored leaderboard for one period
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, period types.TimePeriod) ([]*models.LeaderboardRanking, error) {
	return s.lbRepo.GetByPeriod(ctx, period)
}

// GetWalletRankings returns the wallet's stored rankings across all
// periods
func (s *LeaderboardService) GetWalletRankings(ctx context.Context, wallet string) ([]*models.LeaderboardRanking, error) {
	return s.lbRepo.GetByWallet(ctx, wallet)
}
