package pnl

import (
	"sort"

	"github.com/wallet-scanner/internal/types"
)

// HoldStats summarizes how long the wallet held positions from first
// entry to market resolution.
type HoldStats struct {
	AvgSeconds     float64
	MedianSeconds  float64
	SampledMarkets int
}

// HoldTimes measures holding periods over markets that both appear in
// the trade history and have resolved. The hold time of a market is the
// span from the wallet's earliest buy to the resolution timestamp.
// Markets with no buy fill or a non-positive span are skipped.
func HoldTimes(trades []*types.Trade, closed []*types.ClosedPosition) HoldStats {
	firstBuy := make(map[string]int64)
	for _, t := range trades {
		if t.Side != types.SideBuy {
			continue
		}
		if prev, ok := firstBuy[t.ConditionID]; !ok || t.Timestamp < prev {
			firstBuy[t.ConditionID] = t.Timestamp
		}
	}

	var holds []float64
	seen := make(map[string]struct{})
	for _, p := range closed {
		if _, dup := seen[p.ConditionID]; dup {
			continue
		}
		buyTs, ok := firstBuy[p.ConditionID]
		if !ok || p.Timestamp <= buyTs {
			continue
		}
		seen[p.ConditionID] = struct{}{}
		holds = append(holds, float64(p.Timestamp-buyTs))
	}

	if len(holds) == 0 {
		return HoldStats{}
	}

	sort.Float64s(holds)
	var sum float64
	for _, h := range holds {
		sum += h
	}

	n := len(holds)
	median := holds[n/2]
	if n%2 == 0 {
		median = (holds[n/2-1] + holds[n/2]) / 2
	}

	return HoldStats{
		AvgSeconds:     sum / float64(n),
		MedianSeconds:  median,
		SampledMarkets: n,
	}
}
