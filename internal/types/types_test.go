package types

import "testing"

func TestTradeKey(t *testing.T) {
	tests := []struct {
		name  string
		trade Trade
		want  string
	}{
		{
			name: "uses upstream id when present",
			trade: Trade{
				ID:          "abc-123",
				Wallet:      "0x1111111111111111111111111111111111111111",
				ConditionID: "0xcond",
				Timestamp:   1700000000,
				Side:        SideBuy,
			},
			want: "abc-123",
		},
		{
			name: "derives key from content when id missing",
			trade: Trade{
				Wallet:      "0x1111111111111111111111111111111111111111",
				ConditionID: "0xcond",
				Timestamp:   1700000000,
				Side:        SideBuy,
			},
			want: "0x1111111111111111111111111111111111111111_1700000000_0xcond_BUY",
		},
		{
			name: "side distinguishes otherwise identical fills",
			trade: Trade{
				Wallet:      "0x1111111111111111111111111111111111111111",
				ConditionID: "0xcond",
				Timestamp:   1700000000,
				Side:        SideSell,
			},
			want: "0x1111111111111111111111111111111111111111_1700000000_0xcond_SELL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.trade.Key(); got != tt.want {
				t.Errorf("Key() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTradeNotional(t *testing.T) {
	trade := Trade{Size: 200, Price: 0.45}
	if got := trade.Notional(); got != 90.0 {
		t.Errorf("Notional() = %v, want %v", got, 90.0)
	}
}

func TestTimePeriodWindowSeconds(t *testing.T) {
	tests := []struct {
		period TimePeriod
		want   int64
	}{
		{Period1D, 86400},
		{Period7D, 604800},
		{Period30D, 2592000},
		{PeriodAll, 0},
	}

	for _, tt := range tests {
		if got := tt.period.WindowSeconds(); got != tt.want {
			t.Errorf("WindowSeconds(%s) = %v, want %v", tt.period, got, tt.want)
		}
	}
}
