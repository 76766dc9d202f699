package models

import (
	"time"

	"github.com/wallet-scanner/internal/types"
)

// ScanRun tracks one orchestrated pass over the tracked wallet set
type ScanRun struct {
	ID          string     `json:"id" db:"id"`
	StartedAt   time.Time  `json:"startedAt" db:"started_at"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty" db:"finished_at"`
	Wallets     int        `json:"wallets" db:"wallets"`
	APICalls    int64      `json:"apiCalls" db:"api_calls"`
	Retries     int64      `json:"retries" db:"retries"`
	Errors      int64      `json:"errors" db:"errors"`
	Skipped     int64      `json:"skipped" db:"skipped"`
	CacheHits   int64      `json:"cacheHits" db:"cache_hits"`
	TradesFound int64      `json:"tradesFound" db:"trades_found"`
}

// WalletProgress tracks the stage of a single wallet within a scan run
type WalletProgress struct {
	RunID   string          `json:"runId"`
	Wallet  string          `json:"wallet"`
	Stage   types.SyncStage `json:"stage"`
	Message string          `json:"message,omitempty"`
}
