package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wallet-scanner/internal/types"
)

func buy(market string, ts int64) *types.Trade {
	return &types.Trade{ConditionID: market, Side: types.SideBuy, Size: 10, Price: 0.5, Timestamp: ts}
}

func sell(market string, ts int64) *types.Trade {
	return &types.Trade{ConditionID: market, Side: types.SideSell, Size: 10, Price: 0.5, Timestamp: ts}
}

func TestAssessInsufficientTrades(t *testing.T) {
	trades := []*types.Trade{buy("m1", 0), buy("m2", 1000)}

	result := Assess(trades)
	assert.True(t, result.IsBot)
	assert.Equal(t, []string{"NoData"}, result.Signals)
}

func TestAssessInsufficientBuys(t *testing.T) {
	trades := []*types.Trade{
		buy("m1", 0), buy("m2", 1000),
		sell("m1", 2000), sell("m2", 3000), sell("m1", 4000),
	}

	result := Assess(trades)
	assert.True(t, result.IsBot)
	assert.Equal(t, []string{"FewBuys"}, result.Signals)
}

func TestAssessHumanPattern(t *testing.T) {
	// 3 buys, two on m1 and one on m2, all well spaced. No signal fires:
	// the repeated-market threshold is 3 buys on a single market.
	trades := []*types.Trade{
		buy("m1", 0),
		buy("m1", 600),
		buy("m2", 1800),
		sell("m1", 3600),
		sell("m2", 7200),
	}

	result := Assess(trades)
	assert.False(t, result.IsBot)
	assert.Empty(t, result.Signals)
}

func TestAssessRepeatedMarket(t *testing.T) {
	trades := []*types.Trade{
		buy("m1", 0),
		buy("m1", 600),
		buy("m1", 1800),
		sell("m1", 3600),
		sell("m1", 7200),
	}

	result := Assess(trades)
	assert.True(t, result.IsBot)
	assert.Contains(t, result.Signals, "SameMkt:3x")
}

func TestAssessFastAverageGap(t *testing.T) {
	trades := []*types.Trade{
		buy("m1", 0),
		buy("m2", 60),
		buy("m3", 120),
		sell("m1", 5000),
		sell("m2", 9000),
	}

	result := Assess(trades)
	assert.True(t, result.IsBot)
	assert.Contains(t, result.Signals, "Gap:60s")
}

func TestAssessSameSecondBursts(t *testing.T) {
	trades := []*types.Trade{
		buy("m1", 1000), buy("m2", 1000),
		buy("m3", 5000), buy("m4", 5000),
		buy("m5", 9000), buy("m6", 9000),
		sell("m1", 20000),
	}

	result := Assess(trades)
	assert.True(t, result.IsBot)
	assert.Contains(t, result.Signals, "SameSec:3")
}

func TestAssessFastPairs(t *testing.T) {
	// Six gaps of 10s each, all strictly between 0 and 30s.
	trades := []*types.Trade{
		buy("m1", 0), buy("m2", 10), buy("m3", 20), buy("m4", 30),
		buy("m5", 40), buy("m6", 50), buy("m7", 60),
	}

	result := Assess(trades)
	assert.True(t, result.IsBot)
	assert.Contains(t, result.Signals, "Fast:6")
}

func TestAssessPositionSplitting(t *testing.T) {
	trades := []*types.Trade{
		buy("m1", 0), buy("m1", 600),
		buy("m2", 1800), buy("m2", 2400),
		buy("m3", 3600), buy("m3", 4200),
	}

	result := Assess(trades)
	assert.True(t, result.IsBot)
	assert.Contains(t, result.Signals, "Split:3mkts")
}

func TestAssessDeterministicOnUnsortedInput(t *testing.T) {
	trades := []*types.Trade{
		buy("m1", 1800),
		buy("m1", 0),
		buy("m1", 600),
		sell("m1", 3600),
		sell("m1", 7200),
	}
	shuffled := []*types.Trade{trades[2], trades[0], trades[1], trades[4], trades[3]}

	assert.Equal(t, Assess(trades), Assess(shuffled))
}
