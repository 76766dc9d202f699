package pnl

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/wallet-scanner/internal/types"
)

func TestTierForPriceAlwaysKnownLabel(t *testing.T) {
	properties := gopter.NewProperties(nil)

	known := make(map[string]bool, len(TierLabels))
	for _, label := range TierLabels {
		known[label] = true
	}

	properties.Property("every price maps to a defined tier", prop.ForAll(
		func(price float64) bool {
			return known[TierForPrice(price)]
		},
		gen.Float64Range(-1, 5),
	))

	properties.TestingRun(t)
}

func TestPriceTiersPartitionComplete(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("tier counts sum to the closed count and shares to 100", prop.ForAll(
		func(prices []float64, pnls []float64) bool {
			n := len(prices)
			if len(pnls) < n {
				n = len(pnls)
			}
			closed := make([]*types.ClosedPosition, n)
			for i := 0; i < n; i++ {
				closed[i] = &types.ClosedPosition{AvgPrice: prices[i], RealizedPnl: pnls[i]}
			}

			total := 0
			var pctSum float64
			for _, s := range PriceTiers(closed) {
				total += s.Positions
				pctSum += s.PctOfTotal
			}
			if total != n {
				return false
			}
			if n == 0 {
				return pctSum == 0
			}
			return pctSum > 100-1e-6 && pctSum < 100+1e-6
		},
		gen.SliceOf(gen.Float64Range(0, 1)),
		gen.SliceOf(gen.Float64Range(-1000, 1000)),
	))

	properties.TestingRun(t)
}

func TestMaxCopyExposureBounds(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("exposure is non-negative and at most the capped sum", prop.ForAll(
		func(timestamps []int64, sizes []float64) bool {
			n := len(timestamps)
			if len(sizes) < n {
				n = len(sizes)
			}
			trades := make([]*types.Trade, n)
			var cappedSum float64
			for i := 0; i < n; i++ {
				trades[i] = &types.Trade{
					ConditionID: "m",
					Side:        types.SideBuy,
					Size:        sizes[i],
					Price:       1,
					Timestamp:   timestamps[i],
				}
				c := sizes[i] * CopyRate
				if c > MaxCopySize {
					c = MaxCopySize
				}
				cappedSum += c
			}
			peak := MaxCopyExposure(trades, nil)
			return peak >= 0 && peak <= cappedSum+1e-6
		},
		gen.SliceOf(gen.Int64Range(0, 1_000_000)),
		gen.SliceOf(gen.Float64Range(0, 1_000_000)),
	))

	properties.TestingRun(t)
}

func TestRealizedWindowsContainment(t *testing.T) {
	properties := gopter.NewProperties(nil)

	now := int64(1_700_000_000)

	properties.Property("wider windows include all gains of narrower ones", prop.ForAll(
		func(ages []int64, pnls []float64) bool {
			n := len(ages)
			if len(pnls) < n {
				n = len(pnls)
			}
			positions := make([]*types.ClosedPosition, n)
			for i := 0; i < n; i++ {
				positions[i] = &types.ClosedPosition{
					ConditionID: "m",
					RealizedPnl: pnls[i],
					Timestamp:   now - ages[i],
				}
			}
			w := RealizedWindows(positions, now)
			return w[types.Period1D] <= w[types.Period7D]+1e-6 &&
				w[types.Period7D] <= w[types.Period30D]+1e-6 &&
				w[types.Period30D] <= w[types.PeriodAll]+1e-6
		},
		gen.SliceOf(gen.Int64Range(0, 200*86400)),
		gen.SliceOf(gen.Float64Range(0.01, 1000)),
	))

	properties.TestingRun(t)
}
