package schema

import "github.com/shopspring/decimal"

// Direction classifies how a market's value and PnL are denominated.
type Direction uint8

const (
	DirectionUnspecified Direction = iota
	// DirectionLinear markets value in the quote asset: value = size * price.
	DirectionLinear
	// DirectionInverse markets value in the base asset: value = size / price.
	DirectionInverse
)

func (d Direction) String() string {
	switch d {
	case DirectionLinear:
		return "linear"
	case DirectionInverse:
		return "inverse"
	default:
		return "unspecified"
	}
}

// Market is immutable for the lifetime of a trading session (§3).
type Market struct {
	Symbol    string
	BaseAsset string
	QuoteAsset string
	Direction Direction

	// ContractAsset and CashAsset are only meaningful for inverse
	// markets settled in something other than base/quote; both are
	// optional (spec §3, "optional contract/cash asset").
	ContractAsset string
	CashAsset     string

	PriceTick decimal.Decimal
	LotSize   decimal.Decimal
}

// RoundPrice rounds a price to the market's tick size, rounding half
// away from zero on the tick boundary.
func (m Market) RoundPrice(price decimal.Decimal) decimal.Decimal {
	return roundToStep(price, m.PriceTick)
}

// RoundSize rounds a size to the market's lot size.
func (m Market) RoundSize(size decimal.Decimal) decimal.Decimal {
	return roundToStep(size, m.LotSize)
}

func roundToStep(value, step decimal.Decimal) decimal.Decimal {
	if step.IsZero() {
		return value
	}
	units := value.DivRound(step, 0)
	return units.Mul(step)
}

// Value computes size*price (linear) or size/price (inverse), matching
// the Transaction invariant in §3.
func (m Market) Value(size, price decimal.Decimal) decimal.Decimal {
	if m.Direction == DirectionInverse {
		if price.IsZero() {
			return decimal.Zero
		}
		return size.Div(price)
	}
	return size.Mul(price)
}

// Price inverts Value: given a size and a value it returns the price
// that produced them, in the market's direction arithmetic. Used to
// recompute an average fill price from accumulated size/value (§4.2).
func (m Market) Price(size, value decimal.Decimal) decimal.Decimal {
	if m.Direction == DirectionInverse {
		if value.IsZero() {
			return decimal.Zero
		}
		return size.Div(value)
	}
	if size.IsZero() {
		return decimal.Zero
	}
	return value.Div(size)
}
