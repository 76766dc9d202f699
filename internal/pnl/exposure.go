package pnl

import (
	"sort"

	"github.com/wallet-scanner/internal/types"
)

const (
	// CopyRate is the fraction of the source trade's notional a copier
	// mirrors.
	CopyRate = 0.03
	// MaxCopySize caps the capital committed to a single copied trade,
	// in USDC.
	MaxCopySize = 500.0
	// DefaultHoldSeconds bounds the holding period of a copied position
	// whose market never resolved.
	DefaultHoldSeconds = 604800
)

// CopyBacktestPnl estimates the realized PnL a copier would have made
// mirroring the wallet's resolved positions. Each position is entered at
// CopyRate of its cost basis, capped at MaxCopySize, and earns the same
// return on capital the wallet did. Positions without a positive cost
// basis carry no copyable return and are skipped.
func CopyBacktestPnl(closed []*types.ClosedPosition) float64 {
	var total float64
	for _, p := range closed {
		if p.TotalBought <= 0 {
			continue
		}
		stake := p.TotalBought * CopyRate
		if stake > MaxCopySize {
			stake = MaxCopySize
		}
		total += stake * (p.RealizedPnl / p.TotalBought)
	}
	return total
}

type capitalEvent struct {
	ts    int64
	delta float64
}

// resolutionIndex maps condition ids to their resolution timestamps.
func resolutionIndex(closed []*types.ClosedPosition) map[string]int64 {
	index := make(map[string]int64, len(closed))
	for _, p := range closed {
		if p.Timestamp > 0 {
			index[p.ConditionID] = p.Timestamp
		}
	}
	return index
}

// MaxCopyExposure simulates copying every buy fill of the wallet at
// CopyRate of its notional, capped at MaxCopySize, and returns the peak
// capital simultaneously committed. A copied position closes when its
// market resolves, or after DefaultHoldSeconds when no resolution is
// known. A resolution at or before the buy releases immediately; the
// zero floor below absorbs it. Capital never goes below zero.
func MaxCopyExposure(trades []*types.Trade, closed []*types.ClosedPosition) float64 {
	resolutions := resolutionIndex(closed)

	events := make([]capitalEvent, 0, len(trades)*2)
	for _, t := range trades {
		if t.Side != types.SideBuy {
			continue
		}
		copySize := t.Notional() * CopyRate
		if copySize > MaxCopySize {
			copySize = MaxCopySize
		}
		if copySize <= 0 {
			continue
		}

		closeTs, ok := resolutions[t.ConditionID]
		if !ok {
			closeTs = t.Timestamp + DefaultHoldSeconds
		}

		events = append(events, capitalEvent{ts: t.Timestamp, delta: copySize})
		events = append(events, capitalEvent{ts: closeTs, delta: -copySize})
	}

	// Releases sort before commitments at the same timestamp.
	sort.Slice(events, func(i, j int) bool {
		if events[i].ts != events[j].ts {
			return events[i].ts < events[j].ts
		}
		return events[i].delta < events[j].delta
	})

	var current, peak float64
	for _, e := range events {
		current += e.delta
		if current < 0 {
			current = 0
		}
		if current > peak {
			peak = current
		}
	}

	return peak
}
