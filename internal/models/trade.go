package models

import (
	"github.com/wallet-scanner/internal/types"
)

// TradeRecord represents a persisted trade, keyed by its deduplication key
type TradeRecord struct {
	TradeKey    string          `json:"tradeKey" db:"trade_key"`
	Wallet      string          `json:"wallet" db:"wallet"`
	ConditionID string          `json:"conditionId" db:"condition_id"`
	Timestamp   int64           `json:"timestamp" db:"timestamp"`
	Side        types.TradeSide `json:"side" db:"side"`
	Size        float64         `json:"size" db:"size"`
	Price       float64         `json:"price" db:"price"`
	Title       string          `json:"title,omitempty" db:"title"`
	Slug        string          `json:"slug,omitempty" db:"slug"`
	Outcome     string          `json:"outcome,omitempty" db:"outcome"`
}

// FromTrade converts an upstream trade into a persistable record
func FromTrade(t *types.Trade) *TradeRecord {
	return &TradeRecord{
		TradeKey:    t.Key(),
		Wallet:      t.Wallet,
		ConditionID: t.ConditionID,
		Timestamp:   t.Timestamp,
		Side:        t.Side,
		Size:        t.Size,
		Price:       t.Price,
		Title:       t.Title,
		Slug:        t.Slug,
		Outcome:     t.Outcome,
	}
}

// ToTrade converts a stored record back to the upstream trade shape
func (r *TradeRecord) ToTrade() *types.Trade {
	return &types.Trade{
		ID:          r.TradeKey,
		Wallet:      r.Wallet,
		ConditionID: r.ConditionID,
		Timestamp:   r.Timestamp,
		Side:        r.Side,
		Size:        r.Size,
		Price:       r.Price,
		Title:       r.Title,
		Slug:        r.Slug,
		Outcome:     r.Outcome,
	}
}
