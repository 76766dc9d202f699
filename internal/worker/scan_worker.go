// Package worker drives periodic scans over the tracked wallet set.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wallet-scanner/internal/adapter"
	"github.com/wallet-scanner/internal/logging"
	"github.com/wallet-scanner/internal/models"
	"github.com/wallet-scanner/internal/service"
	"github.com/wallet-scanner/internal/storage"
	"github.com/wallet-scanner/internal/types"
)

// ScanWorker periodically scans every tracked wallet: sync, analyze,
// categorize. Wallets are processed independently under a global
// concurrency bound; one wallet's failure never aborts the run.
type ScanWorker struct {
	syncService        *service.SyncService
	statsService       *service.StatsService
	categoryService    *service.CategoryService
	leaderboardService *service.LeaderboardService
	walletRepo         *storage.WalletRepository
	runRepo            *storage.ScanRunRepository
	counters           *adapter.Counters

	pollInterval      time.Duration
	walletConcurrency int
	walletTimeout     time.Duration

	running      bool
	mu           sync.RWMutex
	stopCh       chan struct{}
	doneCh       chan struct{}
	lastRunID    string
	lastRunStart time.Time
}

// ScanWorkerConfig holds configuration for the scan worker
type ScanWorkerConfig struct {
	SyncService        *service.SyncService
	StatsService       *service.StatsService
	CategoryService    *service.CategoryService
	LeaderboardService *service.LeaderboardService
	WalletRepo         *storage.WalletRepository
	RunRepo            *storage.ScanRunRepository
	Counters           *adapter.Counters
	PollInterval       time.Duration
	// WalletConcurrency bounds simultaneous in-flight wallets (default 30)
	WalletConcurrency int
	// WalletTimeout bounds one wallet's full pipeline (default 5m)
	WalletTimeout time.Duration
}

// NewScanWorker creates a new scan worker
func NewScanWorker(cfg *ScanWorkerConfig) (*ScanWorker, error) {
	if cfg.SyncService == nil {
		return nil, fmt.Errorf("sync service cannot be nil")
	}
	if cfg.StatsService == nil {
		return nil, fmt.Errorf("stats service cannot be nil")
	}
	if cfg.WalletRepo == nil {
		return nil, fmt.Errorf("wallet repository cannot be nil")
	}
	if cfg.RunRepo == nil {
		return nil, fmt.Errorf("run repository cannot be nil")
	}

	pollInterval := cfg.PollInterval
	if pollInterval == 0 {
		pollInterval = 15 * time.Minute
	}
	walletConcurrency := cfg.WalletConcurrency
	if walletConcurrency <= 0 {
		walletConcurrency = 30
	}
	walletTimeout := cfg.WalletTimeout
	if walletTimeout == 0 {
		walletTimeout = 5 * time.Minute
	}

	counters := cfg.Counters
	if counters == nil {
		counters = &adapter.Counters{}
	}

	return &ScanWorker{
		syncService:        cfg.SyncService,
		statsService:       cfg.StatsService,
		categoryService:    cfg.CategoryService,
		leaderboardService: cfg.LeaderboardService,
		walletRepo:         cfg.WalletRepo,
		runRepo:            cfg.RunRepo,
		counters:           counters,
		pollInterval:       pollInterval,
		walletConcurrency:  walletConcurrency,
		walletTimeout:      walletTimeout,
		stopCh:             make(chan struct{}),
		doneCh:             make(chan struct{}),
	}, nil
}

// Start begins the periodic scan loop. The first scan runs immediately.
func (w *ScanWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("scan worker is already running")
	}
	w.running = true
	w.mu.Unlock()

	logging.WithField("pollInterval", w.pollInterval.String()).Info("Starting scan worker")

	go w.pollLoop(ctx)

	return nil
}

// Stop gracefully stops the scan loop
func (w *ScanWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return fmt.Errorf("scan worker is not running")
	}
	w.mu.Unlock()

	close(w.stopCh)

	select {
	case <-w.doneCh:
		logging.Info("Scan worker stopped gracefully")
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(30 * time.Second):
		return fmt.Errorf("stop timeout")
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	return nil
}

func (w *ScanWorker) pollLoop(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	// Run once on startup rather than waiting a full interval.
	w.runScan(ctx)

	for {
		select {
		case <-ctx.Done():
			logging.Info("Scan worker: context cancelled")
			return
		case <-w.stopCh:
			logging.Info("Scan worker: stop signal received")
			return
		case <-ticker.C:
			w.runScan(ctx)
		}
	}
}

// runScan executes one full pass over the tracked wallet set
func (w *ScanWorker) runScan(ctx context.Context) {
	runID := uuid.New().String()
	startedAt := time.Now()
	logger := logging.WithField("runId", runID)

	wallets, err := w.walletRepo.List(ctx)
	if err != nil {
		logger.WithError(err).Error("Failed to list wallets, skipping scan")
		return
	}
	if len(wallets) == 0 {
		logger.Info("No wallets tracked yet, skipping scan")
		return
	}

	w.mu.Lock()
	w.lastRunID = runID
	w.lastRunStart = startedAt
	w.mu.Unlock()

	before := w.counters.Snapshot()

	run := &models.ScanRun{ID: runID, StartedAt: startedAt, Wallets: len(wallets)}
	if err := w.runRepo.Create(ctx, run); err != nil {
		logger.WithError(err).Error("Failed to record scan run start")
	}

	sem := make(chan struct{}, w.walletConcurrency)
	var wg sync.WaitGroup
	for _, wallet := range wallets {
		wg.Add(1)
		go func(address string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				w.counters.Skipped.Add(1)
				return
			case <-w.stopCh:
				w.counters.Skipped.Add(1)
				return
			}

			w.processWallet(ctx, runID, address)
		}(wallet.Address)
	}
	wg.Wait()

	after := w.counters.Snapshot()
	finishedAt := time.Now()
	run.FinishedAt = &finishedAt
	run.APICalls = after.APICalls - before.APICalls
	run.Retries = after.Retries - before.Retries
	run.Errors = after.Errors - before.Errors
	run.Skipped = after.Skipped - before.Skipped
	run.CacheHits = after.CacheHits - before.CacheHits
	run.TradesFound = after.Trades - before.Trades

	if err := w.runRepo.Finish(ctx, run); err != nil {
		logger.WithError(err).Error("Failed to record scan run completion")
	}

	logger.WithFields(map[string]interface{}{
		"wallets":  run.Wallets,
		"apiCalls": run.APICalls,
		"retries":  run.Retries,
		"errors":   run.Errors,
		"skipped":  run.Skipped,
		"trades":   run.TradesFound,
		"duration": finishedAt.Sub(startedAt).String(),
	}).Info("Scan run complete")
}

// processWallet runs the full pipeline for one wallet. Failures are
// recorded against the run and the wallet, never propagated.
func (w *ScanWorker) processWallet(ctx context.Context, runID, address string) {
	ctx, cancel := context.WithTimeout(ctx, w.walletTimeout)
	defer cancel()

	logger := logging.WithFields(map[string]interface{}{
		"runId":  runID,
		"wallet": address,
	})
	ctx = logging.WithLogger(ctx, logger)

	w.recordStage(ctx, runID, address, types.StageFetching, "")

	syncResult, err := w.syncService.SyncWallet(ctx, address)
	if err != nil {
		w.failWallet(ctx, runID, address, "sync failed", err)
		return
	}

	w.recordStage(ctx, runID, address, types.StageAnalyzing, "")

	// Analysis runs on the history the sync carried in memory, so a
	// degraded store still yields fresh metrics for the run.
	if _, err := w.statsService.AnalyzeWalletData(ctx, address, syncResult.Trades, syncResult.Closed, syncResult.Open); err != nil {
		w.failWallet(ctx, runID, address, "analysis failed", err)
		return
	}

	if w.categoryService != nil {
		if _, err := w.categoryService.CategorizeWallet(ctx, address, syncResult.Closed); err != nil {
			// Categorization is best-effort enrichment, not a wallet failure.
			logger.WithError(err).Warn("Categorization failed")
		}
	}

	if w.leaderboardService != nil {
		if _, err := w.leaderboardService.RefreshWallet(ctx, address); err != nil {
			// Leaderboard rows are enrichment, not a wallet failure.
			logger.WithError(err).Warn("Leaderboard refresh failed")
		}
	}

	w.recordStage(ctx, runID, address, types.StageDone,
		fmt.Sprintf("%d trades", syncResult.TradesFetched))
}

func (w *ScanWorker) failWallet(ctx context.Context, runID, address, stage string, err error) {
	logging.FromContext(ctx).WithError(err).Error("Wallet processing failed")
	w.counters.Errors.Add(1)
	w.recordStage(ctx, runID, address, types.StageFailed, fmt.Sprintf("%s: %v", stage, err))
	if repoErr := w.walletRepo.RecordSyncError(ctx, address); repoErr != nil {
		logging.FromContext(ctx).WithError(repoErr).Warn("Failed to record sync error")
	}
}

func (w *ScanWorker) recordStage(ctx context.Context, runID, address string, stage types.SyncStage, message string) {
	err := w.runRepo.RecordProgress(ctx, &models.WalletProgress{
		RunID:   runID,
		Wallet:  address,
		Stage:   stage,
		Message: message,
	})
	if err != nil {
		logging.FromContext(ctx).WithError(err).Warn("Failed to record wallet progress")
	}
}

// Status reports the worker's current state
type Status struct {
	Running      bool      `json:"running"`
	LastRunID    string    `json:"lastRunId,omitempty"`
	LastRunStart time.Time `json:"lastRunStart,omitempty"`
	PollInterval string    `json:"pollInterval"`
}

// GetStatus returns the current worker status
func (w *ScanWorker) GetStatus() *Status {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return &Status{
		Running:      w.running,
		LastRunID:    w.lastRunID,
		LastRunStart: w.lastRunStart,
		PollInterval: w.pollInterval.String(),
	}
}
