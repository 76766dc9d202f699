// Package detector classifies wallets as likely bots from the timing
// and shape of their buy activity.
package detector

import (
	"fmt"
	"sort"

	"github.com/wallet-scanner/internal/types"
)

const (
	// MinTrades is the minimum trade history required to assess a wallet.
	MinTrades = 5
	// MinBuys is the minimum buy count required to assess timing signals.
	MinBuys = 3

	avgGapThreshold  = 120.0
	sameSecThreshold = 2
	fastGapCeiling   = 30
	fastGapThreshold = 5
	sameMktMinBuys   = 3
	splitMinMarkets  = 3
	splitMinBuys     = 2
)

// Assess inspects the wallet's trade history and returns its bot
// verdict together with the signals that fired. Wallets with fewer than
// MinTrades trades or MinBuys buys carry too little evidence and are
// flagged rather than cleared.
func Assess(trades []*types.Trade) types.BotAssessment {
	if len(trades) < MinTrades {
		return types.BotAssessment{IsBot: true, Signals: []string{"NoData"}}
	}

	buys := make([]*types.Trade, 0, len(trades))
	for _, t := range trades {
		if t.Side == types.SideBuy {
			buys = append(buys, t)
		}
	}
	if len(buys) < MinBuys {
		return types.BotAssessment{IsBot: true, Signals: []string{"FewBuys"}}
	}

	sort.Slice(buys, func(i, j int) bool { return buys[i].Timestamp < buys[j].Timestamp })

	var signals []string
	if s := timingSignals(buys); len(s) > 0 {
		signals = append(signals, s...)
	}
	if s := marketShapeSignals(buys); len(s) > 0 {
		signals = append(signals, s...)
	}

	return types.BotAssessment{
		IsBot:   len(signals) > 0,
		Signals: signals,
	}
}

// timingSignals looks at gaps between consecutive buys.
func timingSignals(buys []*types.Trade) []string {
	var signals []string

	var totalGap int64
	sameSec := 0
	fast := 0
	gapCount := len(buys) - 1
	for i := 1; i < len(buys); i++ {
		gap := buys[i].Timestamp - buys[i-1].Timestamp
		totalGap += gap
		if gap == 0 {
			sameSec++
		} else if gap < fastGapCeiling {
			fast++
		}
	}

	avgGap := float64(totalGap) / float64(gapCount)
	if avgGap < avgGapThreshold {
		signals = append(signals, fmt.Sprintf("Gap:%ds", int64(avgGap)))
	}
	if sameSec > sameSecThreshold {
		signals = append(signals, fmt.Sprintf("SameSec:%d", sameSec))
	}
	if fast > fastGapThreshold {
		signals = append(signals, fmt.Sprintf("Fast:%d", fast))
	}

	return signals
}

// marketShapeSignals looks at how buys concentrate across markets.
func marketShapeSignals(buys []*types.Trade) []string {
	var signals []string

	perMarket := make(map[string]int)
	for _, t := range buys {
		perMarket[t.ConditionID]++
	}

	maxPerMarket := 0
	repeated := 0
	for _, n := range perMarket {
		if n > maxPerMarket {
			maxPerMarket = n
		}
		if n >= splitMinBuys {
			repeated++
		}
	}

	if maxPerMarket >= sameMktMinBuys {
		signals = append(signals, fmt.Sprintf("SameMkt:%dx", maxPerMarket))
	}
	if repeated >= splitMinMarkets {
		signals = append(signals, fmt.Sprintf("Split:%dmkts", repeated))
	}

	return signals
}
