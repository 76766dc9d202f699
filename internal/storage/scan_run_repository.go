package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/wallet-scanner/internal/models"
)

// ScanRunRepository handles scan run bookkeeping
type ScanRunRepository struct {
	db *PostgresDB
}

// NewScanRunRepository creates a new scan run repository
func NewScanRunRepository(db *PostgresDB) *ScanRunRepository {
	return &ScanRunRepository{db: db}
}

// Create records the start of a scan run
func (r *ScanRunRepository) Create(ctx context.Context, run *models.ScanRun) error {
	query := `
		INSERT INTO scan_runs (id, started_at, wallets, api_calls, retries, errors, skipped, cache_hits, trades_found)
		VALUES ($1, $2, $3, 0, 0, 0, 0, 0, 0)
	`

	_, err := r.db.Pool().Exec(ctx, query, run.ID, run.StartedAt, run.Wallets)
	if err != nil {
		return fmt.Errorf("failed to create scan run: %w", err)
	}
	return nil
}

// Finish writes the final counters of a completed run
func (r *ScanRunRepository) Finish(ctx context.Context, run *models.ScanRun) error {
	query := `
		UPDATE scan_runs
		SET finished_at = $2, api_calls = $3, retries = $4, errors = $5,
			skipped = $6, cache_hits = $7, trades_found = $8
		WHERE id = $1
	`

	_, err := r.db.Pool().Exec(ctx, query,
		run.ID,
		run.FinishedAt,
		run.APICalls,
		run.Retries,
		run.Errors,
		run.Skipped,
		run.CacheHits,
		run.TradesFound,
	)
	if err != nil {
		return fmt.Errorf("failed to finish scan run: %w", err)
	}
	return nil
}

// Get retrieves a scan run by id, or nil when unknown
func (r *ScanRunRepository) Get(ctx context.Context, id string) (*models.ScanRun, error) {
	query := `
		SELECT id, started_at, finished_at, wallets, api_calls, retries, errors, skipped, cache_hits, trades_found
		FROM scan_runs
		WHERE id = $1
	`

	var run models.ScanRun
	err := r.db.Pool().QueryRow(ctx, query, id).Scan(
		&run.ID,
		&run.StartedAt,
		&run.FinishedAt,
		&run.Wallets,
		&run.APICalls,
		&run.Retries,
		&run.Errors,
		&run.Skipped,
		&run.CacheHits,
		&run.TradesFound,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get scan run: %w", err)
	}
	return &run, nil
}

// ListRecent returns the most recent runs, newest first
func (r *ScanRunRepository) ListRecent(ctx context.Context, limit int) ([]*models.ScanRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, started_at, finished_at, wallets, api_calls, retries, errors, skipped, cache_hits, trades_found
		FROM scan_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := r.db.Pool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.ScanRun
	for rows.Next() {
		var run models.ScanRun
		err := rows.Scan(
			&run.ID,
			&run.StartedAt,
			&run.FinishedAt,
			&run.Wallets,
			&run.APICalls,
			&run.Retries,
			&run.Errors,
			&run.Skipped,
			&run.CacheHits,
			&run.TradesFound,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// RecordProgress upserts the per-wallet stage within a run
func (r *ScanRunRepository) RecordProgress(ctx context.Context, progress *models.WalletProgress) error {
	query := `
		INSERT INTO wallet_progress (run_id, wallet, stage, message)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (run_id, wallet)
		DO UPDATE SET stage = EXCLUDED.stage, message = EXCLUDED.message
	`

	_, err := r.db.Pool().Exec(ctx, query,
		progress.RunID, progress.Wallet, string(progress.Stage), progress.Message)
	if err != nil {
		return fmt.Errorf("failed to record wallet progress: %w", err)
	}
	return nil
}

// GetProgress returns all wallet stages for a run
func (r *ScanRunRepository) GetProgress(ctx context.Context, runID string) ([]*models.WalletProgress, error) {
	rows, err := r.db.Pool().Query(ctx,
		`SELECT run_id, wallet, stage, message FROM wallet_progress WHERE run_id = $1 ORDER BY wallet`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query wallet progress: %w", err)
	}
	defer rows.Close()

	var progress []*models.WalletProgress
	for rows.Next() {
		var p models.WalletProgress
		if err := rows.Scan(&p.RunID, &p.Wallet, &p.Stage, &p.Message); err != nil {
			return nil, fmt.Errorf("failed to scan wallet progress: %w", err)
		}
		progress = append(progress, &p)
	}
	return progress, rows.Err()
}
