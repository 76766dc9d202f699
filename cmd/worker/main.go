// Package main provides the scan worker entry point for the wallet scanner service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wallet-scanner/internal/adapter"
	"github.com/wallet-scanner/internal/config"
	"github.com/wallet-scanner/internal/logging"
	"github.com/wallet-scanner/internal/ratelimit"
	"github.com/wallet-scanner/internal/service"
	"github.com/wallet-scanner/internal/storage"
	"github.com/wallet-scanner/internal/worker"
)

func main() {
	fmt.Println("Wallet Scanner Worker")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logging
	logging.InitGlobalLogger(logging.ParseLogLevel(cfg.Logging.Level), logging.ParseLogFormat(cfg.Logging.Format))
	logger := logging.GetGlobalLogger()

	// Initialize database connections
	logger.Info("Connecting to databases...")

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	clickhouse, err := storage.NewClickHouseDB(&cfg.Database.ClickHouse)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to ClickHouse")
	}
	defer clickhouse.Close()

	redis, err := storage.NewRedisCache(&cfg.Database.Redis)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redis.Close()

	logger.Info("Database connections established")

	// Initialize repositories
	walletRepo := storage.NewWalletRepository(postgres)
	tradeRepo := storage.NewTradeRepository(postgres)
	positionRepo := storage.NewPositionRepository(postgres)
	statsRepo := storage.NewStatsRepository(postgres)
	runRepo := storage.NewScanRunRepository(postgres)
	leaderboardRepo := storage.NewLeaderboardRepository(postgres)
	archiveRepo := storage.NewTradeArchiveRepository(clickhouse)

	// Initialize upstream clients
	counters := &adapter.Counters{}
	dataClient := adapter.NewDataAPIClient(&cfg.DataAPI, counters)
	gammaClient := adapter.NewGammaClient(&cfg.Gamma, counters)
	leaderboardClient := adapter.NewLeaderboardClient(&cfg.DataAPI, counters)

	// Share the upstream request budget with the API server. The worker
	// draws from the best-effort pool.
	budget, err := ratelimit.NewBudgetTracker(&ratelimit.BudgetTrackerConfig{Redis: redis.Client()})
	if err != nil {
		logger.WithError(err).Warn("Continuing without shared request budget")
	} else {
		dataClient.SetBudget(budget, ratelimit.PriorityLow)
	}

	paginator := adapter.NewPaginator(dataClient, cfg.Sync.MaxBackfillPages, cfg.Sync.MaxIncrementalPage)

	// Market metadata cache
	marketCache := storage.NewMarketCache(redis, cfg.Cache.MarketTagTTL, counters)

	// Initialize services
	syncService := service.NewSyncService(paginator, dataClient, walletRepo, tradeRepo, positionRepo, archiveRepo, counters)
	statsService := service.NewStatsService(tradeRepo, positionRepo, statsRepo)
	categoryService := service.NewCategoryService(gammaClient, marketCache, statsRepo, cfg.Sync.LookupConcurrency)
	leaderboardService := service.NewLeaderboardService(leaderboardClient, leaderboardRepo, walletRepo)

	// Create and start the scan worker
	scanWorker, err := worker.NewScanWorker(&worker.ScanWorkerConfig{
		SyncService:        syncService,
		StatsService:       statsService,
		CategoryService:    categoryService,
		LeaderboardService: leaderboardService,
		WalletRepo:         walletRepo,
		RunRepo:            runRepo,
		Counters:           counters,
		PollInterval:       cfg.Sync.PollInterval,
		WalletConcurrency:  cfg.Sync.WalletConcurrency,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to create scan worker")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := scanWorker.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to start scan worker")
	}

	logger.WithField("pollInterval", cfg.Sync.PollInterval.String()).Info("Scan worker started")

	// Set up graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutdown signal received, stopping worker...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := scanWorker.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("Error stopping scan worker")
	}

	logger.Info("Worker stopped. Goodbye!")
}
