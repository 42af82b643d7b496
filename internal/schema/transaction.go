package schema

import "github.com/shopspring/decimal"

// Transaction is the value-typed core shared by trades and order fills
// (§3): a price, a size, a side, an actor and a derived value.
type Transaction struct {
	Price decimal.Decimal
	Size  decimal.Decimal
	Side  Side
	Actor Actor
	Value decimal.Decimal
}

// NewTransaction derives Value from price/size/side per the market's
// direction, per the invariant: value = size*price (linear) or
// size/price (inverse); Value is always non-negative, sign is carried
// separately via SignedSize.
func NewTransaction(market Market, price, size decimal.Decimal, side Side, actor Actor) Transaction {
	return Transaction{
		Price: price,
		Size:  size,
		Side:  side,
		Actor: actor,
		Value: market.Value(size, price),
	}
}

// SignedSize returns size for buy, -size for sell (§3: "for side=sell,
// signed_size = -size").
func (t Transaction) SignedSize() decimal.Decimal {
	if t.Side == SideSell {
		return t.Size.Neg()
	}
	return t.Size
}

// Fee is attached to a trade. balance_change = gross*rate and
// sign(rate) == sign(balance_change) (§3).
type Fee struct {
	Rate          decimal.Decimal
	BalanceChange decimal.Decimal
	Asset         string
}

// NewFee computes a fee from a gross amount and a signed rate.
func NewFee(gross, rate decimal.Decimal, asset string) Fee {
	return Fee{
		Rate:          rate,
		BalanceChange: gross.Mul(rate),
		Asset:         asset,
	}
}
