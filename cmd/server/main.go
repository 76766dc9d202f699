// Package main provides the API server entry point for the wallet scanner service.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wallet-scanner/internal/adapter"
	"github.com/wallet-scanner/internal/api"
	"github.com/wallet-scanner/internal/config"
	"github.com/wallet-scanner/internal/logging"
	"github.com/wallet-scanner/internal/ratelimit"
	"github.com/wallet-scanner/internal/service"
	"github.com/wallet-scanner/internal/storage"
)

func main() {
	fmt.Println("Wallet Scanner API Server")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logging
	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)

	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

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
	leaderboardRepo := storage.NewLeaderboardRepository(postgres)
	runRepo := storage.NewScanRunRepository(postgres)
	archiveRepo := storage.NewTradeArchiveRepository(clickhouse)

	// Initialize upstream clients
	counters := &adapter.Counters{}
	dataClient := adapter.NewDataAPIClient(&cfg.DataAPI, counters)
	leaderboardClient := adapter.NewLeaderboardClient(&cfg.DataAPI, counters)

	// On-demand syncs draw from the reserved pool of the request budget
	// shared with the scan worker.
	budget, err := ratelimit.NewBudgetTracker(&ratelimit.BudgetTrackerConfig{Redis: redis.Client()})
	if err != nil {
		logger.WithError(err).Warn("Continuing without shared request budget")
	} else {
		dataClient.SetBudget(budget, ratelimit.PriorityHigh)
	}

	paginator := adapter.NewPaginator(dataClient, cfg.Sync.MaxBackfillPages, cfg.Sync.MaxIncrementalPage)

	// Initialize services
	syncService := service.NewSyncService(paginator, dataClient, walletRepo, tradeRepo, positionRepo, archiveRepo, counters)
	statsService := service.NewStatsService(tradeRepo, positionRepo, statsRepo)
	leaderboardService := service.NewLeaderboardService(leaderboardClient, leaderboardRepo, walletRepo)

	// Create and start the API server
	serverConfig := &api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		FreeTierRPS:     cfg.RateLimit.FreeTierRPS,
		PremiumTierRPS:  cfg.RateLimit.PremiumTierRPS,
	}

	server := api.NewServer(
		serverConfig,
		syncService,
		statsService,
		leaderboardService,
		walletRepo,
		tradeRepo,
		positionRepo,
		statsRepo,
		runRepo,
		archiveRepo,
		nil, // scan worker runs in its own process
	)

	// Start server in a goroutine so we can handle shutdown signals
	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Set up graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.WithError(err).Fatal("Server failed")
	case sig := <-sigCh:
		logger.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown error")
	}

	logger.Info("Server stopped. Goodbye!")
}
