package models

import (
	"fmt"

	"github.com/wallet-scanner/internal/types"
)

// ClosedPositionRecord represents a persisted resolved position
type ClosedPositionRecord struct {
	PositionKey string  `json:"positionKey" db:"position_key"`
	Wallet      string  `json:"wallet" db:"wallet"`
	ConditionID string  `json:"conditionId" db:"condition_id"`
	Title       string  `json:"title,omitempty" db:"title"`
	Slug        string  `json:"slug,omitempty" db:"slug"`
	Outcome     string  `json:"outcome,omitempty" db:"outcome"`
	AvgPrice    float64 `json:"avgPrice" db:"avg_price"`
	TotalBought float64 `json:"totalBought" db:"total_bought"`
	RealizedPnl float64 `json:"realizedPnl" db:"realized_pnl"`
	ResolvedAt  int64   `json:"resolvedAt" db:"resolved_at"`
}

// FromClosedPosition converts an upstream closed position into a record
func FromClosedPosition(wallet string, p *types.ClosedPosition) *ClosedPositionRecord {
	return &ClosedPositionRecord{
		PositionKey: fmt.Sprintf("%s_%s_%s", wallet, p.ConditionID, p.Outcome),
		Wallet:      wallet,
		ConditionID: p.ConditionID,
		Title:       p.Title,
		Slug:        p.Slug,
		Outcome:     p.Outcome,
		AvgPrice:    p.AvgPrice,
		TotalBought: p.TotalBought,
		RealizedPnl: p.RealizedPnl,
		ResolvedAt:  p.Timestamp,
	}
}

// ToClosedPosition converts a stored record back to the upstream shape
func (r *ClosedPositionRecord) ToClosedPosition() *types.ClosedPosition {
	return &types.ClosedPosition{
		ConditionID: r.ConditionID,
		Title:       r.Title,
		Slug:        r.Slug,
		Outcome:     r.Outcome,
		AvgPrice:    r.AvgPrice,
		TotalBought: r.TotalBought,
		RealizedPnl: r.RealizedPnl,
		Timestamp:   r.ResolvedAt,
	}
}

// OpenPositionRecord represents a persisted live position.
// Open positions are stored as a full snapshot per wallet: every sync
// deletes the previous rows and inserts the current set.
type OpenPositionRecord struct {
	Wallet        string  `json:"wallet" db:"wallet"`
	ConditionID   string  `json:"conditionId" db:"condition_id"`
	Title         string  `json:"title,omitempty" db:"title"`
	Slug          string  `json:"slug,omitempty" db:"slug"`
	Outcome       string  `json:"outcome,omitempty" db:"outcome"`
	Size          float64 `json:"size" db:"size"`
	AvgPrice      float64 `json:"avgPrice" db:"avg_price"`
	InitialValue  float64 `json:"initialValue" db:"initial_value"`
	CurrentValue  float64 `json:"currentValue" db:"current_value"`
	CashPnl       float64 `json:"cashPnl" db:"cash_pnl"`
	UnrealizedPnl float64 `json:"unrealizedPnl" db:"unrealized_pnl"`
}

// FromOpenPosition converts an upstream open position into a record
func FromOpenPosition(wallet string, p *types.OpenPosition) *OpenPositionRecord {
	return &OpenPositionRecord{
		Wallet:        wallet,
		ConditionID:   p.ConditionID,
		Title:         p.Title,
		Slug:          p.Slug,
		Outcome:       p.Outcome,
		Size:          p.Size,
		AvgPrice:      p.AvgPrice,
		InitialValue:  p.InitialValue,
		CurrentValue:  p.CurrentValue,
		CashPnl:       p.CashPnl,
		UnrealizedPnl: p.UnrealizedPnl,
	}
}

// ToOpenPosition converts a stored record back to the upstream shape
func (r *OpenPositionRecord) ToOpenPosition() *types.OpenPosition {
	return &types.OpenPosition{
		ConditionID:   r.ConditionID,
		Title:         r.Title,
		Slug:          r.Slug,
		Outcome:       r.Outcome,
		Size:          r.Size,
		AvgPrice:      r.AvgPrice,
		InitialValue:  r.InitialValue,
		CurrentValue:  r.CurrentValue,
		CashPnl:       r.CashPnl,
		UnrealizedPnl: r.UnrealizedPnl,
	}
}
