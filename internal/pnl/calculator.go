// Package pnl implements profit-and-loss and exposure computations over
// wallet trade history. All functions are pure and operate on in-memory
// records.
package pnl

import (
	"github.com/wallet-scanner/internal/types"
)

// RealizedWindows computes realized PnL per aggregation window. A closed
// position belongs to a window when its resolution timestamp falls within
// the trailing window measured from now. PeriodAll has no lower bound.
func RealizedWindows(positions []*types.ClosedPosition, now int64) map[types.TimePeriod]float64 {
	result := make(map[types.TimePeriod]float64, len(types.AllPeriods))
	for _, period := range types.AllPeriods {
		result[period] = 0
	}

	for _, p := range positions {
		for _, period := range types.AllPeriods {
			window := period.WindowSeconds()
			if window == 0 || p.Timestamp >= now-window {
				result[period] += p.RealizedPnl
			}
		}
	}

	return result
}

// WinLoss counts decided positions. A positive realized PnL is a win,
// a negative one a loss; break-even positions count as neither.
func WinLoss(positions []*types.ClosedPosition) (wins, losses int) {
	for _, p := range positions {
		switch {
		case p.RealizedPnl > 0:
			wins++
		case p.RealizedPnl < 0:
			losses++
		}
	}
	return wins, losses
}

// WinRate returns the win percentage over decided positions, or 0 when
// no position has been decided.
func WinRate(wins, losses int) float64 {
	decided := wins + losses
	if decided == 0 {
		return 0
	}
	return float64(wins) / float64(decided) * 100
}

// Unrealized sums the unrealized PnL over live positions. When the
// upstream reports zero unrealized PnL across the board, the cash PnL
// field is used instead. The two estimators are never mixed.
func Unrealized(positions []*types.OpenPosition) float64 {
	var unrealized, cash float64
	for _, p := range positions {
		unrealized += p.UnrealizedPnl
		cash += p.CashPnl
	}
	if unrealized != 0 {
		return unrealized
	}
	return cash
}

// TotalVolume sums the USDC notional over all trades
func TotalVolume(trades []*types.Trade) float64 {
	var total float64
	for _, t := range trades {
		total += t.Notional()
	}
	return total
}

// CountSides returns the number of buy and sell fills
func CountSides(trades []*types.Trade) (buys, sells int) {
	for _, t := range trades {
		switch t.Side {
		case types.SideBuy:
			buys++
		case types.SideSell:
			sells++
		}
	}
	return buys, sells
}

// MarketCount returns the number of distinct markets traded
func MarketCount(trades []*types.Trade) int {
	seen := make(map[string]struct{})
	for _, t := range trades {
		seen[t.ConditionID] = struct{}{}
	}
	return len(seen)
}

// DaysActive returns the trading history span in whole days. A wallet
// with any trades is active for at least one day.
func DaysActive(trades []*types.Trade) int {
	if len(trades) == 0 {
		return 0
	}
	first, last := trades[0].Timestamp, trades[0].Timestamp
	for _, t := range trades[1:] {
		if t.Timestamp < first {
			first = t.Timestamp
		}
		if t.Timestamp > last {
			last = t.Timestamp
		}
	}
	days := int((last - first) / 86400)
	if days < 1 {
		days = 1
	}
	return days
}
