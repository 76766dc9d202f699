// Package main provides a one-shot leaderboard ingestion tool. It fetches
// the top traders for every time period, stores the snapshots, and
// registers any newly seen wallets for tracking.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/wallet-scanner/internal/adapter"
	"github.com/wallet-scanner/internal/config"
	"github.com/wallet-scanner/internal/logging"
	"github.com/wallet-scanner/internal/service"
	"github.com/wallet-scanner/internal/storage"
)

func main() {
	var (
		orderBy = flag.String("order-by", "pnl", "Ranking to fetch: pnl or vol")
		limit   = flag.Int("limit", 0, "Entries per period (0 uses the upstream maximum)")
		timeout = flag.Duration("timeout", 5*time.Minute, "Overall ingestion timeout")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.InitGlobalLogger(logging.ParseLogLevel(cfg.Logging.Level), logging.ParseLogFormat(cfg.Logging.Format))
	logger := logging.GetGlobalLogger()

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	walletRepo := storage.NewWalletRepository(postgres)
	leaderboardRepo := storage.NewLeaderboardRepository(postgres)

	counters := &adapter.Counters{}
	client := adapter.NewLeaderboardClient(&cfg.DataAPI, counters)
	svc := service.NewLeaderboardService(client, leaderboardRepo, walletRepo)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	logger.WithField("orderBy", *orderBy).Info("Starting leaderboard ingestion")

	result, err := svc.IngestAll(ctx, *orderBy, *limit)
	if err != nil {
		logger.WithError(err).WithFields(map[string]interface{}{
			"periods": result.Periods,
			"rows":    result.Rows,
		}).Fatal("Leaderboard ingestion failed")
	}

	logger.WithFields(map[string]interface{}{
		"periods":    result.Periods,
		"rows":       result.Rows,
		"newWallets": result.NewWallets,
		"apiCalls":   counters.APICalls.Load(),
	}).Info("Leaderboard ingestion completed")
}
