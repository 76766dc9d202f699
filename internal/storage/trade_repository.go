package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/wallet-scanner/internal/logging"
	"github.com/wallet-scanner/internal/models"
)

// upsertChunkSize bounds the number of rows per multi-value insert
const upsertChunkSize = 500

// TradeRepository handles trade history persistence in Postgres
type TradeRepository struct {
	db *PostgresDB
}

// NewTradeRepository creates a new trade repository
func NewTradeRepository(db *PostgresDB) *TradeRepository {
	return &TradeRepository{db: db}
}

// UpsertBatch stores trades idempotently keyed on trade_key, in chunks.
// Re-storing an existing trade refreshes its mutable fields. A failed
// chunk is logged and skipped; the remaining chunks are still
// attempted. Returns the number of rows written alongside any chunk
// errors, so callers can tell a partial write from a complete one.
func (r *TradeRepository) UpsertBatch(ctx context.Context, trades []*models.TradeRecord) (int, error) {
	if len(trades) == 0 {
		return 0, nil
	}

	written := 0
	var errs []error
	for start := 0; start < len(trades); start += upsertChunkSize {
		end := start + upsertChunkSize
		if end > len(trades) {
			end = len(trades)
		}
		n, err := r.upsertChunk(ctx, trades[start:end])
		if err != nil {
			logging.FromContext(ctx).WithError(err).WithFields(map[string]interface{}{
				"chunkStart": start,
				"chunkSize":  end - start,
			}).Warn("Trade chunk write failed, skipping")
			errs = append(errs, err)
			continue
		}
		written += n
	}
	return written, errors.Join(errs...)
}

func (r *TradeRepository) upsertChunk(ctx context.Context, trades []*models.TradeRecord) (int, error) {
	const cols = 10
	var sb strings.Builder
	sb.WriteString(`
		INSERT INTO trades (trade_key, wallet, condition_id, ts, side, size, price, title, slug, outcome)
		VALUES `)

	args := make([]interface{}, 0, len(trades)*cols)
	for i, t := range trades {
		if err := ValidateWallet(t.Wallet); err != nil {
			return 0, fmt.Errorf("invalid wallet %s: %w", t.Wallet, err)
		}
		t.Wallet = strings.ToLower(t.Wallet)

		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * cols
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10)
		args = append(args,
			t.TradeKey, t.Wallet, t.ConditionID, t.Timestamp, t.Side,
			t.Size, t.Price, t.Title, t.Slug, t.Outcome,
		)
	}

	sb.WriteString(`
		ON CONFLICT (trade_key)
		DO UPDATE SET
			size = EXCLUDED.size,
			price = EXCLUDED.price,
			title = EXCLUDED.title,
			slug = EXCLUDED.slug,
			outcome = EXCLUDED.outcome
	`)

	result, err := r.db.Pool().Exec(ctx, sb.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert trades: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// GetByWallet returns the wallet's trades ordered oldest first
func (r *TradeRepository) GetByWallet(ctx context.Context, wallet string) ([]*models.TradeRecord, error) {
	if err := ValidateWallet(wallet); err != nil {
		return nil, err
	}
	wallet = strings.ToLower(wallet)

	query := `
		SELECT trade_key, wallet, condition_id, ts, side, size, price, title, slug, outcome
		FROM trades
		WHERE wallet = $1
		ORDER BY ts ASC
	`

	rows, err := r.db.Pool().Query(ctx, query, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// GetByWalletSince returns the wallet's trades newer than the given
// timestamp, ordered oldest first
func (r *TradeRepository) GetByWalletSince(ctx context.Context, wallet string, since int64) ([]*models.TradeRecord, error) {
	if err := ValidateWallet(wallet); err != nil {
		return nil, err
	}
	wallet = strings.ToLower(wallet)

	query := `
		SELECT trade_key, wallet, condition_id, ts, side, size, price, title, slug, outcome
		FROM trades
		WHERE wallet = $1 AND ts > $2
		ORDER BY ts ASC
	`

	rows, err := r.db.Pool().Query(ctx, query, wallet, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// CountByWallet returns the number of stored trades for the wallet
func (r *TradeRepository) CountByWallet(ctx context.Context, wallet string) (int, error) {
	if err := ValidateWallet(wallet); err != nil {
		return 0, err
	}
	wallet = strings.ToLower(wallet)

	var count int
	err := r.db.Pool().QueryRow(ctx,
		`SELECT COUNT(*) FROM trades WHERE wallet = $1`, wallet,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count trades: %w", err)
	}
	return count, nil
}

// GetLastTradeTimestamp returns the newest stored trade timestamp for
// the wallet, or zero when none exist
func (r *TradeRepository) GetLastTradeTimestamp(ctx context.Context, wallet string) (int64, error) {
	if err := ValidateWallet(wallet); err != nil {
		return 0, err
	}
	wallet = strings.ToLower(wallet)

	var ts *int64
	err := r.db.Pool().QueryRow(ctx,
		`SELECT MAX(ts) FROM trades WHERE wallet = $1`, wallet,
	).Scan(&ts)
	if err != nil {
		return 0, fmt.Errorf("failed to get last trade timestamp: %w", err)
	}
	if ts == nil {
		return 0, nil
	}
	return *ts, nil
}

func scanTrades(rows pgx.Rows) ([]*models.TradeRecord, error) {
	var trades []*models.TradeRecord
	for rows.Next() {
		var t models.TradeRecord
		err := rows.Scan(
			&t.TradeKey,
			&t.Wallet,
			&t.ConditionID,
			&t.Timestamp,
			&t.Side,
			&t.Size,
			&t.Price,
			&t.Title,
			&t.Slug,
			&t.Outcome,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, &t)
	}
	return trades, rows.Err()
}
