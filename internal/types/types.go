// Package types provides common type definitions for the wallet scanner system.
package types

import "fmt"

// TradeSide represents the direction of a trade
type TradeSide string

const (
	// SideBuy represents a buy fill
	SideBuy TradeSide = "BUY"
	// SideSell represents a sell fill
	SideSell TradeSide = "SELL"
)

// TimePeriod represents a PnL or leaderboard aggregation window
type TimePeriod string

const (
	// Period1D covers the trailing 24 hours
	Period1D TimePeriod = "1d"
	// Period7D covers the trailing 7 days
	Period7D TimePeriod = "7d"
	// Period30D covers the trailing 30 days
	Period30D TimePeriod = "30d"
	// PeriodAll covers the full history
	PeriodAll TimePeriod = "all"
)

// AllPeriods lists the supported aggregation windows
var AllPeriods = []TimePeriod{Period1D, Period7D, Period30D, PeriodAll}

// WindowSeconds returns the length of the period in seconds.
// PeriodAll returns 0, meaning no lower bound.
func (p TimePeriod) WindowSeconds() int64 {
	switch p {
	case Period1D:
		return 86400
	case Period7D:
		return 604800
	case Period30D:
		return 2592000
	default:
		return 0
	}
}

// SyncStage represents the processing stage of a wallet within a scan run
type SyncStage string

const (
	// StagePending means the wallet is queued but not yet started
	StagePending SyncStage = "pending"
	// StageFetching means trade history is being fetched
	StageFetching SyncStage = "fetching"
	// StageStoring means fetched records are being persisted
	StageStoring SyncStage = "storing"
	// StageAnalyzing means derived stats are being computed
	StageAnalyzing SyncStage = "analyzing"
	// StageDone means the wallet completed successfully
	StageDone SyncStage = "done"
	// StageFailed means the wallet was abandoned after an error
	StageFailed SyncStage = "failed"
)

// Trade represents a single fill fetched from the upstream data API
type Trade struct {
	ID          string    `json:"id,omitempty"`
	Wallet      string    `json:"proxyWallet"`
	ConditionID string    `json:"conditionId"`
	Timestamp   int64     `json:"timestamp"`
	Side        TradeSide `json:"side"`
	Size        float64   `json:"size"`
	Price       float64   `json:"price"`
	Title       string    `json:"title,omitempty"`
	Slug        string    `json:"slug,omitempty"`
	Outcome     string    `json:"outcome,omitempty"`
}

// Key returns the content-derived deduplication key for the trade.
// The upstream id is used when present; otherwise the key is composed
// from the fields that uniquely identify the fill.
func (t *Trade) Key() string {
	if t.ID != "" {
		return t.ID
	}
	return fmt.Sprintf("%s_%d_%s_%s", t.Wallet, t.Timestamp, t.ConditionID, t.Side)
}

// Notional returns the USDC notional of the trade
func (t *Trade) Notional() float64 {
	return t.Size * t.Price
}

// ClosedPosition represents a resolved market position
type ClosedPosition struct {
	ConditionID string  `json:"conditionId"`
	Title       string  `json:"title,omitempty"`
	Slug        string  `json:"slug,omitempty"`
	Outcome     string  `json:"outcome,omitempty"`
	AvgPrice    float64 `json:"avgPrice"`
	TotalBought float64 `json:"totalBought"`
	RealizedPnl float64 `json:"realizedPnl"`
	// Timestamp is the market resolution time in unix seconds
	Timestamp int64 `json:"timestamp"`
}

// OpenPosition represents a live market position
type OpenPosition struct {
	ConditionID   string  `json:"conditionId"`
	Title         string  `json:"title,omitempty"`
	Slug          string  `json:"slug,omitempty"`
	Outcome       string  `json:"outcome,omitempty"`
	Size          float64 `json:"size"`
	AvgPrice      float64 `json:"avgPrice"`
	InitialValue  float64 `json:"initialValue"`
	CurrentValue  float64 `json:"currentValue"`
	CashPnl       float64 `json:"cashPnl"`
	UnrealizedPnl float64 `json:"unrealizedPnl"`
}

// LeaderboardEntry represents a single row of the upstream leaderboard
type LeaderboardEntry struct {
	Wallet       string  `json:"proxyWallet"`
	UserName     string  `json:"userName,omitempty"`
	Rank         int     `json:"rank,omitempty"`
	Pnl          float64 `json:"pnl"`
	Volume       float64 `json:"vol"`
	NumTrades    int     `json:"numTrades,omitempty"`
	ProfitTrades int     `json:"profitTrades,omitempty"`
	LossTrades   int     `json:"lossTrades,omitempty"`
}

// MarketInfo holds category metadata for a market, resolved via the gamma API
type MarketInfo struct {
	ConditionID string   `json:"conditionId"`
	Question    string   `json:"question,omitempty"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// BotAssessment is the result of the trade-pattern classifier
type BotAssessment struct {
	IsBot   bool     `json:"isBot"`
	Signals []string `json:"signals,omitempty"`
}

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}
