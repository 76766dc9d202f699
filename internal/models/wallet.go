package models

import (
	"time"
)

// Wallet represents a trading wallet being tracked
// One row per wallet (primary key: address)
type Wallet struct {
	Address  string `json:"address" db:"address"`
	UserName string `json:"userName,omitempty" db:"user_name"`
	Rank     *int   `json:"rank,omitempty" db:"rank"`
	// LastTradeTimestamp is the sync watermark: the newest trade timestamp
	// persisted for this wallet, in unix seconds
	LastTradeTimestamp int64      `json:"lastTradeTimestamp" db:"last_trade_timestamp"`
	TradeCount         int64      `json:"tradeCount" db:"trade_count"`
	LastSyncAt         *time.Time `json:"lastSyncAt,omitempty" db:"last_sync_at"`
	SyncErrors         int        `json:"syncErrors" db:"sync_errors"`
	CreatedAt          time.Time  `json:"createdAt" db:"created_at"`
}
