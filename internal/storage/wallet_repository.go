package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/wallet-scanner/internal/models"
	"github.com/wallet-scanner/internal/types"
)

// WalletRepository handles wallet sync-state persistence
type WalletRepository struct {
	db *PostgresDB
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *PostgresDB) *WalletRepository {
	return &WalletRepository{db: db}
}

// ValidateWallet validates a proxy wallet address format. The 0x prefix
// is required.
func ValidateWallet(wallet string) error {
	if !strings.HasPrefix(wallet, "0x") || !common.IsHexAddress(wallet) {
		return &types.ServiceError{
			Code:    "INVALID_WALLET_FORMAT",
			Message: fmt.Sprintf("invalid wallet format: %s (must be 0x followed by 40 hexadecimal characters)", wallet),
			Details: map[string]interface{}{
				"wallet": wallet,
				"format": "0x[a-fA-F0-9]{40}",
			},
		}
	}
	return nil
}

// Upsert creates or refreshes a wallet record, preserving the sync
// watermark of an existing row.
func (r *WalletRepository) Upsert(ctx context.Context, wallet *models.Wallet) error {
	if err := ValidateWallet(wallet.Address); err != nil {
		return err
	}
	wallet.Address = strings.ToLower(wallet.Address)

	query := `
		INSERT INTO wallets (address, user_name, rank, last_trade_timestamp, trade_count, last_sync_at, sync_errors, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (address)
		DO UPDATE SET
			user_name = EXCLUDED.user_name,
			rank = EXCLUDED.rank
	`

	_, err := r.db.Pool().Exec(ctx, query,
		wallet.Address,
		wallet.UserName,
		wallet.Rank,
		wallet.LastTradeTimestamp,
		wallet.TradeCount,
		wallet.LastSyncAt,
		wallet.SyncErrors,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert wallet: %w", err)
	}
	return nil
}

// Get retrieves a wallet by address, or nil when unknown
func (r *WalletRepository) Get(ctx context.Context, address string) (*models.Wallet, error) {
	if err := ValidateWallet(address); err != nil {
		return nil, err
	}
	address = strings.ToLower(address)

	query := `
		SELECT address, user_name, rank, last_trade_timestamp, trade_count, last_sync_at, sync_errors, created_at
		FROM wallets
		WHERE address = $1
	`

	var w models.Wallet
	err := r.db.Pool().QueryRow(ctx, query, address).Scan(
		&w.Address,
		&w.UserName,
		&w.Rank,
		&w.LastTradeTimestamp,
		&w.TradeCount,
		&w.LastSyncAt,
		&w.SyncErrors,
		&w.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &w, nil
}

// List returns all tracked wallets ordered by rank then address
func (r *WalletRepository) List(ctx context.Context) ([]*models.Wallet, error) {
	query := `
		SELECT address, user_name, rank, last_trade_timestamp, trade_count, last_sync_at, sync_errors, created_at
		FROM wallets
		ORDER BY rank NULLS LAST, address
	`

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []*models.Wallet
	for rows.Next() {
		var w models.Wallet
		err := rows.Scan(
			&w.Address,
			&w.UserName,
			&w.Rank,
			&w.LastTradeTimestamp,
			&w.TradeCount,
			&w.LastSyncAt,
			&w.SyncErrors,
			&w.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallet: %w", err)
		}
		wallets = append(wallets, &w)
	}
	return wallets, rows.Err()
}

// GetWatermark returns the wallet's last synced trade timestamp.
// Unknown wallets report zero, which selects a full backfill.
func (r *WalletRepository) GetWatermark(ctx context.Context, address string) (int64, error) {
	if err := ValidateWallet(address); err != nil {
		return 0, err
	}
	address = strings.ToLower(address)

	var watermark int64
	err := r.db.Pool().QueryRow(ctx,
		`SELECT last_trade_timestamp FROM wallets WHERE address = $1`, address,
	).Scan(&watermark)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get watermark: %w", err)
	}
	return watermark, nil
}

// AdvanceWatermark moves the sync watermark forward and records the
// sync completion. The watermark never moves backwards.
func (r *WalletRepository) AdvanceWatermark(ctx context.Context, address string, watermark int64, tradeCount int) error {
	if err := ValidateWallet(address); err != nil {
		return err
	}
	address = strings.ToLower(address)

	query := `
		UPDATE wallets
		SET last_trade_timestamp = GREATEST(last_trade_timestamp, $2),
			trade_count = trade_count + $3,
			last_sync_at = $4
		WHERE address = $1
	`

	result, err := r.db.Pool().Exec(ctx, query, address, watermark, tradeCount, time.Now())
	if err != nil {
		return fmt.Errorf("failed to advance watermark: %w", err)
	}
	if result.RowsAffected() == 0 {
		return &types.ServiceError{
			Code:    "WALLET_NOT_FOUND",
			Message: fmt.Sprintf("wallet not found: %s", address),
		}
	}
	return nil
}

// RecordSyncError increments the wallet's consecutive sync failure count
func (r *WalletRepository) RecordSyncError(ctx context.Context, address string) error {
	if err := ValidateWallet(address); err != nil {
		return err
	}
	address = strings.ToLower(address)

	_, err := r.db.Pool().Exec(ctx,
		`UPDATE wallets SET sync_errors = sync_errors + 1 WHERE address = $1`, address)
	if err != nil {
		return fmt.Errorf("failed to record sync error: %w", err)
	}
	return nil
}

// Delete removes a wallet and cascades to its dependent rows
func (r *WalletRepository) Delete(ctx context.Context, address string) error {
	if err := ValidateWallet(address); err != nil {
		return err
	}
	address = strings.ToLower(address)

	_, err := r.db.Pool().Exec(ctx, `DELETE FROM wallets WHERE address = $1`, address)
	if err != nil {
		return fmt.Errorf("failed to delete wallet: %w", err)
	}
	return nil
}
