package models

import "time"

// WalletStats holds the derived per-wallet metrics, upserted once per sync
type WalletStats struct {
	Wallet       string  `json:"wallet" db:"wallet"`
	TotalTrades  int     `json:"totalTrades" db:"total_trades"`
	BuyCount     int     `json:"buyCount" db:"buy_count"`
	SellCount    int     `json:"sellCount" db:"sell_count"`
	TotalVolume  float64 `json:"totalVolume" db:"total_volume"`
	AvgTradeSize float64 `json:"avgTradeSize" db:"avg_trade_size"`

	// AvgBetSize is total volume over the combined closed and open
	// position count
	AvgBetSize  float64 `json:"avgBetSize" db:"avg_bet_size"`
	MarketCount int     `json:"marketCount" db:"market_count"`

	// Roi is all-time realized PnL over total traded volume
	Roi          float64 `json:"roi" db:"roi"`
	DaysActive   int     `json:"daysActive" db:"days_active"`
	TradesPerDay float64 `json:"tradesPerDay" db:"trades_per_day"`

	// Windowed realized PnL, anchored on market resolution time
	RealizedPnl1D  float64 `json:"realizedPnl1d" db:"realized_pnl_1d"`
	RealizedPnl7D  float64 `json:"realizedPnl7d" db:"realized_pnl_7d"`
	RealizedPnl30D float64 `json:"realizedPnl30d" db:"realized_pnl_30d"`
	RealizedPnlAll float64 `json:"realizedPnlAll" db:"realized_pnl_all"`

	Wins    int     `json:"wins" db:"wins"`
	Losses  int     `json:"losses" db:"losses"`
	WinRate float64 `json:"winRate" db:"win_rate"`

	UnrealizedPnl float64 `json:"unrealizedPnl" db:"unrealized_pnl"`

	// MaxCopyExposure is the peak simulated capital required to copy
	// this wallet's buys
	MaxCopyExposure float64 `json:"maxCopyExposure" db:"max_copy_exposure"`

	// CopyBacktestPnl is the estimated PnL of copying the wallet's
	// resolved positions at the simulated stake
	CopyBacktestPnl float64 `json:"copyBacktestPnl" db:"copy_backtest_pnl"`

	IsBot      bool     `json:"isBot" db:"is_bot"`
	BotSignals []string `json:"botSignals,omitempty" db:"bot_signals"`

	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// HoldTimes holds per-wallet position holding statistics in seconds
type HoldTimes struct {
	Wallet         string  `json:"wallet" db:"wallet"`
	AvgHoldSeconds float64 `json:"avgHoldSeconds" db:"avg_hold_seconds"`
	MedianHoldSecs float64 `json:"medianHoldSeconds" db:"median_hold_seconds"`
	SampledMarkets int     `json:"sampledMarkets" db:"sampled_markets"`
}

// PriceTier holds the closed positions entered inside one price bucket.
// Tiers are replaced wholesale on every sync.
type PriceTier struct {
	Wallet     string  `json:"wallet" db:"wallet"`
	Tier       string  `json:"tier" db:"tier"`
	Positions  int     `json:"positions" db:"position_count"`
	PctOfTotal float64 `json:"pctOfTotal" db:"pct_of_total"`
	WinRate    float64 `json:"winRate" db:"win_rate"`
	TotalPnl   float64 `json:"totalPnl" db:"total_pnl"`
}

// WalletCategory holds the wallet's closed-position volume and PnL in
// one market category. Categories are replaced wholesale on every sync.
type WalletCategory struct {
	Wallet    string  `json:"wallet" db:"wallet"`
	Category  string  `json:"category" db:"category"`
	Positions int     `json:"positions" db:"position_count"`
	Volume    float64 `json:"volume" db:"volume"`
	PctVolume float64 `json:"pctVolume" db:"pct_volume"`
	Pnl       float64 `json:"pnl" db:"pnl"`
}
