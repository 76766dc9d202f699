package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/wallet-scanner/internal/models"
)

// StatsRepository handles computed wallet analytics persistence
type StatsRepository struct {
	db *PostgresDB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *PostgresDB) *StatsRepository {
	return &StatsRepository{db: db}
}

// UpsertStats stores the wallet's computed metrics, one row per wallet
func (r *StatsRepository) UpsertStats(ctx context.Context, stats *models.WalletStats) error {
	if err := ValidateWallet(stats.Wallet); err != nil {
		return err
	}
	stats.Wallet = strings.ToLower(stats.Wallet)
	stats.UpdatedAt = time.Now()

	query := `
		INSERT INTO wallet_stats (
			wallet, total_trades, buy_count, sell_count, total_volume, avg_trade_size, avg_bet_size, market_count,
			roi, days_active, trades_per_day,
			realized_pnl_1d, realized_pnl_7d, realized_pnl_30d, realized_pnl_all,
			wins, losses, win_rate, unrealized_pnl, max_copy_exposure, copy_backtest_pnl,
			is_bot, bot_signals, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		ON CONFLICT (wallet)
		DO UPDATE SET
			total_trades = EXCLUDED.total_trades,
			buy_count = EXCLUDED.buy_count,
			sell_count = EXCLUDED.sell_count,
			total_volume = EXCLUDED.total_volume,
			avg_trade_size = EXCLUDED.avg_trade_size,
			avg_bet_size = EXCLUDED.avg_bet_size,
			market_count = EXCLUDED.market_count,
			roi = EXCLUDED.roi,
			days_active = EXCLUDED.days_active,
			trades_per_day = EXCLUDED.trades_per_day,
			realized_pnl_1d = EXCLUDED.realized_pnl_1d,
			realized_pnl_7d = EXCLUDED.realized_pnl_7d,
			realized_pnl_30d = EXCLUDED.realized_pnl_30d,
			realized_pnl_all = EXCLUDED.realized_pnl_all,
			wins = EXCLUDED.wins,
			losses = EXCLUDED.losses,
			win_rate = EXCLUDED.win_rate,
			unrealized_pnl = EXCLUDED.unrealized_pnl,
			max_copy_exposure = EXCLUDED.max_copy_exposure,
			copy_backtest_pnl = EXCLUDED.copy_backtest_pnl,
			is_bot = EXCLUDED.is_bot,
			bot_signals = EXCLUDED.bot_signals,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.Pool().Exec(ctx, query,
		stats.Wallet,
		stats.TotalTrades,
		stats.BuyCount,
		stats.SellCount,
		stats.TotalVolume,
		stats.AvgTradeSize,
		stats.AvgBetSize,
		stats.MarketCount,
		stats.Roi,
		stats.DaysActive,
		stats.TradesPerDay,
		stats.RealizedPnl1D,
		stats.RealizedPnl7D,
		stats.RealizedPnl30D,
		stats.RealizedPnlAll,
		stats.Wins,
		stats.Losses,
		stats.WinRate,
		stats.UnrealizedPnl,
		stats.MaxCopyExposure,
		stats.CopyBacktestPnl,
		stats.IsBot,
		stats.BotSignals,
		stats.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert wallet stats: %w", err)
	}
	return nil
}

// GetStats retrieves the wallet's computed metrics, or nil when the
// wallet has not been analyzed yet
func (r *StatsRepository) GetStats(ctx context.Context, wallet string) (*models.WalletStats, error) {
	if err := ValidateWallet(wallet); err != nil {
		return nil, err
	}
	wallet = strings.ToLower(wallet)

	query := `
		SELECT wallet, total_trades, buy_count, sell_count, total_volume, avg_trade_size, avg_bet_size, market_count,
			   roi, days_active, trades_per_day,
			   realized_pnl_1d, realized_pnl_7d, realized_pnl_30d, realized_pnl_all,
			   wins, losses, win_rate, unrealized_pnl, max_copy_exposure, copy_backtest_pnl,
			   is_bot, bot_signals, updated_at
		FROM wallet_stats
		WHERE wallet = $1
	`

	var s models.WalletStats
	err := r.db.Pool().QueryRow(ctx, query, wallet).Scan(
		&s.Wallet,
		&s.TotalTrades,
		&s.BuyCount,
		&s.SellCount,
		&s.TotalVolume,
		&s.AvgTradeSize,
		&s.AvgBetSize,
		&s.MarketCount,
		&s.Roi,
		&s.DaysActive,
		&s.TradesPerDay,
		&s.RealizedPnl1D,
		&s.RealizedPnl7D,
		&s.RealizedPnl30D,
		&s.RealizedPnlAll,
		&s.Wins,
		&s.Losses,
		&s.WinRate,
		&s.UnrealizedPnl,
		&s.MaxCopyExposure,
		&s.CopyBacktestPnl,
		&s.IsBot,
		&s.BotSignals,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get wallet stats: %w", err)
	}
	return &s, nil
}

// ReplacePriceTiers swaps the wallet's price tier rows wholesale
func (r *StatsRepository) ReplacePriceTiers(ctx context.Context, wallet string, tiers []*models.PriceTier) error {
	if err := ValidateWallet(wallet); err != nil {
		return err
	}
	wallet = strings.ToLower(wallet)

	tx, err := r.db.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx) // nolint:errcheck // no-op after commit
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM price_tiers WHERE wallet = $1`, wallet); err != nil {
		return fmt.Errorf("failed to clear price tiers: %w", err)
	}

	for _, tier := range tiers {
		_, err := tx.Exec(ctx,
			`INSERT INTO price_tiers (wallet, tier, position_count, pct_of_total, win_rate, total_pnl)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			wallet, tier.Tier, tier.Positions, tier.PctOfTotal, tier.WinRate, tier.TotalPnl)
		if err != nil {
			return fmt.Errorf("failed to insert price tier %s: %w", tier.Tier, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit price tiers: %w", err)
	}
	return nil
}

// GetPriceTiers returns the wallet's price tier rows in stored order
func (r *StatsRepository) GetPriceTiers(ctx context.Context, wallet string) ([]*models.PriceTier, error) {
	if err := ValidateWallet(wallet); err != nil {
		return nil, err
	}
	wallet = strings.ToLower(wallet)

	rows, err := r.db.Pool().Query(ctx,
		`SELECT wallet, tier, position_count, pct_of_total, win_rate, total_pnl
		 FROM price_tiers WHERE wallet = $1 ORDER BY id`, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to query price tiers: %w", err)
	}
	defer rows.Close()

	var tiers []*models.PriceTier
	for rows.Next() {
		var t models.PriceTier
		if err := rows.Scan(&t.Wallet, &t.Tier, &t.Positions, &t.PctOfTotal, &t.WinRate, &t.TotalPnl); err != nil {
			return nil, fmt.Errorf("failed to scan price tier: %w", err)
		}
		tiers = append(tiers, &t)
	}
	return tiers, rows.Err()
}

// UpsertHoldTimes stores the wallet's holding period summary
func (r *StatsRepository) UpsertHoldTimes(ctx context.Context, holds *models.HoldTimes) error {
	if err := ValidateWallet(holds.Wallet); err != nil {
		return err
	}
	holds.Wallet = strings.ToLower(holds.Wallet)

	query := `
		INSERT INTO hold_times (wallet, avg_hold_seconds, median_hold_seconds, sampled_markets)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (wallet)
		DO UPDATE SET
			avg_hold_seconds = EXCLUDED.avg_hold_seconds,
			median_hold_seconds = EXCLUDED.median_hold_seconds,
			sampled_markets = EXCLUDED.sampled_markets
	`

	_, err := r.db.Pool().Exec(ctx, query,
		holds.Wallet, holds.AvgHoldSeconds, holds.MedianHoldSecs, holds.SampledMarkets)
	if err != nil {
		return fmt.Errorf("failed to upsert hold times: %w", err)
	}
	return nil
}

// ReplaceCategories swaps the wallet's market category rows wholesale
func (r *StatsRepository) ReplaceCategories(ctx context.Context, wallet string, categories []*models.WalletCategory) error {
	if err := ValidateWallet(wallet); err != nil {
		return err
	}
	wallet = strings.ToLower(wallet)

	tx, err := r.db.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx) // nolint:errcheck // no-op after commit
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM wallet_categories WHERE wallet = $1`, wallet); err != nil {
		return fmt.Errorf("failed to clear categories: %w", err)
	}

	for _, c := range categories {
		_, err := tx.Exec(ctx,
			`INSERT INTO wallet_categories (wallet, category, position_count, volume, pct_volume, pnl)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			wallet, c.Category, c.Positions, c.Volume, c.PctVolume, c.Pnl)
		if err != nil {
			return fmt.Errorf("failed to insert category %s: %w", c.Category, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit categories: %w", err)
	}
	return nil
}

// GetCategories returns the wallet's market category breakdown
func (r *StatsRepository) GetCategories(ctx context.Context, wallet string) ([]*models.WalletCategory, error) {
	if err := ValidateWallet(wallet); err != nil {
		return nil, err
	}
	wallet = strings.ToLower(wallet)

	rows, err := r.db.Pool().Query(ctx,
		`SELECT wallet, category, position_count, volume, pct_volume, pnl
		 FROM wallet_categories WHERE wallet = $1 ORDER BY volume DESC`, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []*models.WalletCategory
	for rows.Next() {
		var c models.WalletCategory
		if err := rows.Scan(&c.Wallet, &c.Category, &c.Positions, &c.Volume, &c.PctVolume, &c.Pnl); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}
