package pnl

import (
	"github.com/wallet-scanner/internal/types"
)

// TierLabels lists the ten price buckets from highest to lowest entry
// price. Each bucket spans ten cents.
var TierLabels = []string{
	"90-100c",
	"80-90c",
	"70-80c",
	"60-70c",
	"50-60c",
	"40-50c",
	"30-40c",
	"20-30c",
	"10-20c",
	"0-10c",
}

// TierStat aggregates the closed positions entered inside one price
// bucket.
type TierStat struct {
	Label      string
	Positions  int
	PctOfTotal float64
	WinRate    float64
	TotalPnl   float64
}

// TierForPrice maps an entry price to its bucket label. Prices at or
// above $1.00 land in the top bucket, negative prices in the bottom one.
func TierForPrice(price float64) string {
	cents := price * 100
	idx := int(cents / 10)
	if idx > 9 {
		idx = 9
	}
	if idx < 0 {
		idx = 0
	}
	// TierLabels is ordered high to low
	return TierLabels[9-idx]
}

// PriceTiers partitions closed positions by average entry price. Each
// bucket carries the position count, its share of the wallet's closed
// positions, the win rate among decided positions (zero PnL is neither
// a win nor a loss), and the summed realized PnL. All ten buckets are
// returned in label order, including empty ones, so callers can replace
// a wallet's tier rows wholesale.
func PriceTiers(closed []*types.ClosedPosition) []TierStat {
	type bucket struct {
		positions int
		wins      int
		losses    int
		pnl       float64
	}

	byLabel := make(map[string]*bucket, len(TierLabels))
	for _, label := range TierLabels {
		byLabel[label] = &bucket{}
	}

	for _, p := range closed {
		b := byLabel[TierForPrice(p.AvgPrice)]
		b.positions++
		b.pnl += p.RealizedPnl
		if p.RealizedPnl > 0 {
			b.wins++
		} else if p.RealizedPnl < 0 {
			b.losses++
		}
	}

	stats := make([]TierStat, len(TierLabels))
	for i, label := range TierLabels {
		b := byLabel[label]
		stats[i] = TierStat{
			Label:     label,
			Positions: b.positions,
			TotalPnl:  b.pnl,
		}
		if len(closed) > 0 {
			stats[i].PctOfTotal = float64(b.positions) / float64(len(closed)) * 100
		}
		if decided := b.wins + b.losses; decided > 0 {
			stats[i].WinRate = float64(b.wins) / float64(decided) * 100
		}
	}
	return stats
}
