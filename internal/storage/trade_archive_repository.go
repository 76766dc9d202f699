package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wallet-scanner/internal/models"
)

// TradeArchiveRepository handles append-only trade archival in
// ClickHouse for offline analytics. Postgres stays the source of truth
// for serving queries.
type TradeArchiveRepository struct {
	db *ClickHouseDB
}

// NewTradeArchiveRepository creates a new trade archive repository
func NewTradeArchiveRepository(db *ClickHouseDB) *TradeArchiveRepository {
	return &TradeArchiveRepository{db: db}
}

// BatchInsert appends trades to the archive in a single batch
func (r *TradeArchiveRepository) BatchInsert(ctx context.Context, trades []*models.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}

	batch, err := r.db.Conn().PrepareBatch(ctx, `
		INSERT INTO trade_archive (
			trade_key, wallet, condition_id, ts, side, size, price, title, slug, outcome
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, t := range trades {
		if err := ValidateWallet(t.Wallet); err != nil {
			return fmt.Errorf("invalid wallet %s: %w", t.Wallet, err)
		}
		t.Wallet = strings.ToLower(t.Wallet)

		err := batch.Append(
			t.TradeKey,
			t.Wallet,
			t.ConditionID,
			t.Timestamp,
			t.Side,
			t.Size,
			t.Price,
			t.Title,
			t.Slug,
			t.Outcome,
		)
		if err != nil {
			return fmt.Errorf("failed to append trade %s to batch: %w", t.TradeKey, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	return nil
}

// CountByWallet returns the number of archived trades for a wallet
func (r *TradeArchiveRepository) CountByWallet(ctx context.Context, wallet string) (uint64, error) {
	if err := ValidateWallet(wallet); err != nil {
		return 0, err
	}
	wallet = strings.ToLower(wallet)

	var count uint64
	row := r.db.Conn().QueryRow(ctx,
		`SELECT COUNT(*) FROM trade_archive WHERE wallet = ?`, wallet)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count archived trades: %w", err)
	}
	return count, nil
}

// DailyVolume returns per-day traded notional for a wallet over the
// trailing N days
func (r *TradeArchiveRepository) DailyVolume(ctx context.Context, wallet string, days int) (map[string]float64, error) {
	if err := ValidateWallet(wallet); err != nil {
		return nil, err
	}
	wallet = strings.ToLower(wallet)

	query := `
		SELECT toDate(toDateTime(ts)) AS day, SUM(size * price) AS volume
		FROM trade_archive
		WHERE wallet = ? AND ts >= toUnixTimestamp(now() - INTERVAL ? DAY)
		GROUP BY day
		ORDER BY day
	`

	rows, err := r.db.Conn().Query(ctx, query, wallet, days)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily volume: %w", err)
	}
	defer rows.Close()

	volumes := make(map[string]float64)
	for rows.Next() {
		var day time.Time
		var volume float64
		if err := rows.Scan(&day, &volume); err != nil {
			return nil, fmt.Errorf("failed to scan daily volume: %w", err)
		}
		volumes[day.Format("2006-01-02")] = volume
	}
	return volumes, rows.Err()
}
