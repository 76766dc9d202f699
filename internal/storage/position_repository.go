package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/wallet-scanner/internal/models"
)

// PositionRepository handles closed and open position persistence
type PositionRepository struct {
	db *PostgresDB
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(db *PostgresDB) *PositionRepository {
	return &PositionRepository{db: db}
}

// UpsertClosed stores resolved positions idempotently keyed on
// position_key
func (r *PositionRepository) UpsertClosed(ctx context.Context, positions []*models.ClosedPositionRecord) error {
	if len(positions) == 0 {
		return nil
	}

	query := `
		INSERT INTO closed_positions (
			position_key, wallet, condition_id, title, slug, outcome,
			avg_price, total_bought, realized_pnl, resolved_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (position_key)
		DO UPDATE SET
			avg_price = EXCLUDED.avg_price,
			total_bought = EXCLUDED.total_bought,
			realized_pnl = EXCLUDED.realized_pnl,
			resolved_at = EXCLUDED.resolved_at
	`

	for _, p := range positions {
		if err := ValidateWallet(p.Wallet); err != nil {
			return fmt.Errorf("invalid wallet %s: %w", p.Wallet, err)
		}
		p.Wallet = strings.ToLower(p.Wallet)

		_, err := r.db.Pool().Exec(ctx, query,
			p.PositionKey,
			p.Wallet,
			p.ConditionID,
			p.Title,
			p.Slug,
			p.Outcome,
			p.AvgPrice,
			p.TotalBought,
			p.RealizedPnl,
			p.ResolvedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert closed position %s: %w", p.PositionKey, err)
		}
	}
	return nil
}

// GetClosedByWallet returns the wallet's resolved positions ordered by
// resolution time, newest first
func (r *PositionRepository) GetClosedByWallet(ctx context.Context, wallet string) ([]*models.ClosedPositionRecord, error) {
	if err := ValidateWallet(wallet); err != nil {
		return nil, err
	}
	wallet = strings.ToLower(wallet)

	query := `
		SELECT position_key, wallet, condition_id, title, slug, outcome,
			   avg_price, total_bought, realized_pnl, resolved_at
		FROM closed_positions
		WHERE wallet = $1
		ORDER BY resolved_at DESC
	`

	rows, err := r.db.Pool().Query(ctx, query, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to query closed positions: %w", err)
	}
	defer rows.Close()

	var positions []*models.ClosedPositionRecord
	for rows.Next() {
		var p models.ClosedPositionRecord
		err := rows.Scan(
			&p.PositionKey,
			&p.Wallet,
			&p.ConditionID,
			&p.Title,
			&p.Slug,
			&p.Outcome,
			&p.AvgPrice,
			&p.TotalBought,
			&p.RealizedPnl,
			&p.ResolvedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan closed position: %w", err)
		}
		positions = append(positions, &p)
	}
	return positions, rows.Err()
}

// ReplaceOpen swaps the wallet's live position snapshot inside a
// transaction. Open positions have no stable upstream identity, so the
// previous snapshot is dropped wholesale.
func (r *PositionRepository) ReplaceOpen(ctx context.Context, wallet string, positions []*models.OpenPositionRecord) error {
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

	if _, err := tx.Exec(ctx, `DELETE FROM open_positions WHERE wallet = $1`, wallet); err != nil {
		return fmt.Errorf("failed to clear open positions: %w", err)
	}

	query := `
		INSERT INTO open_positions (
			wallet, condition_id, title, slug, outcome,
			size, avg_price, initial_value, current_value, cash_pnl, unrealized_pnl
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	for _, p := range positions {
		_, err := tx.Exec(ctx, query,
			wallet,
			p.ConditionID,
			p.Title,
			p.Slug,
			p.Outcome,
			p.Size,
			p.AvgPrice,
			p.InitialValue,
			p.CurrentValue,
			p.CashPnl,
			p.UnrealizedPnl,
		)
		if err != nil {
			return fmt.Errorf("failed to insert open position %s: %w", p.ConditionID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit open positions: %w", err)
	}
	return nil
}

// GetOpenByWallet returns the wallet's current open position snapshot
func (r *PositionRepository) GetOpenByWallet(ctx context.Context, wallet string) ([]*models.OpenPositionRecord, error) {
	if err := ValidateWallet(wallet); err != nil {
		return nil, err
	}
	wallet = strings.ToLower(wallet)

	query := `
		SELECT wallet, condition_id, title, slug, outcome,
			   size, avg_price, initial_value, current_value, cash_pnl, unrealized_pnl
		FROM open_positions
		WHERE wallet = $1
		ORDER BY current_value DESC
	`

	rows, err := r.db.Pool().Query(ctx, query, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to query open positions: %w", err)
	}
	defer rows.Close()

	var positions []*models.OpenPositionRecord
	for rows.Next() {
		var p models.OpenPositionRecord
		err := rows.Scan(
			&p.Wallet,
			&p.ConditionID,
			&p.Title,
			&p.Slug,
			&p.Outcome,
			&p.Size,
			&p.AvgPrice,
			&p.InitialValue,
			&p.CurrentValue,
			&p.CashPnl,
			&p.UnrealizedPnl,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan open position: %w", err)
		}
		positions = append(positions, &p)
	}
	return positions, rows.Err()
}
