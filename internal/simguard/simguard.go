// Package simguard validates simulator maker prices against the latest
// trade (§4.6, §9 Unresolved(a)): the predicate deliberately only
// considers the latest trade, not the full order book — that is the
// intended design and is called out rather than silently "fixed".
//
// Grounded on internal/risk/engine.go's price-bound validation style
// from the retrieval pack.
package simguard

import (
	"github.com/shopspring/decimal"

	"github.com/quorumtrade/corehft/internal/schema"
)

// ValidMakerPrice reports whether price is strictly on the posting side
// relative to the latest trade, per the buy-side rule in §4.6 mirrored
// for sells:
//
//	buy:  price < latest.price when latest.side==buy;  price <= latest.price when latest.side==sell
//	sell: price > latest.price when latest.side==sell; price >= latest.price when latest.side==buy
func ValidMakerPrice(side schema.Side, price decimal.Decimal, latest schema.Trade) bool {
	if side == schema.SideBuy {
		if latest.Side == schema.SideBuy {
			return price.LessThan(latest.Price)
		}
		return price.LessThanOrEqual(latest.Price)
	}
	if latest.Side == schema.SideSell {
		return price.GreaterThan(latest.Price)
	}
	return price.GreaterThanOrEqual(latest.Price)
}
