package models

import (
	"time"

	"github.com/wallet-scanner/internal/types"
)

// LeaderboardRanking represents a persisted leaderboard row for one wallet
// in one time period (composite key: wallet + time_period)
type LeaderboardRanking struct {
	Wallet       string           `json:"wallet" db:"wallet"`
	TimePeriod   types.TimePeriod `json:"timePeriod" db:"time_period"`
	UserName     string           `json:"userName,omitempty" db:"user_name"`
	Rank         int              `json:"rank" db:"rank"`
	Pnl          float64          `json:"pnl" db:"pnl"`
	Volume       float64          `json:"volume" db:"volume"`
	NumTrades    int              `json:"numTrades" db:"num_trades"`
	ProfitTrades int              `json:"profitTrades" db:"profit_trades"`
	LossTrades   int              `json:"lossTrades" db:"loss_trades"`
	FetchedAt    time.Time        `json:"fetchedAt" db:"fetched_at"`
}

// FromLeaderboardEntry converts an upstream leaderboard entry into a record
func FromLeaderboardEntry(e *types.LeaderboardEntry, period types.TimePeriod, fetchedAt time.Time) *LeaderboardRanking {
	return &LeaderboardRanking{
		Wallet:       e.Wallet,
		TimePeriod:   period,
		UserName:     e.UserName,
		Rank:         e.Rank,
		Pnl:          e.Pnl,
		Volume:       e.Volume,
		NumTrades:    e.NumTrades,
		ProfitTrades: e.ProfitTrades,
		LossTrades:   e.LossTrades,
		FetchedAt:    fetchedAt,
	}
}
