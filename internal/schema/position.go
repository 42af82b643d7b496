package schema

import "github.com/shopspring/decimal"

// PositionEntry describes the current holding: present iff size>0 (§3).
type PositionEntry struct {
	Side  Side
	Size  decimal.Decimal
	Price decimal.Decimal
	Value decimal.Decimal
}

// PositionPerformance is derived from the current entry and a mark
// price; nil when there is no entry.
type PositionPerformance struct {
	PnL       decimal.Decimal
	PnLRate   decimal.Decimal
	Equity    decimal.Decimal
	MarkPrice decimal.Decimal
}

// Position is created on the first trade for a market and destroyed on
// close; it may flip side within a single trade (§3, §4.3).
type Position struct {
	MarketSymbol string
	Entry        *PositionEntry
	Performance  *PositionPerformance
}

// IsFlat reports whether the position currently carries no entry.
func (p Position) IsFlat() bool {
	return p.Entry == nil || p.Entry.Size.IsZero()
}
