// Package lob implements the limit-order book of own maker orders
// (§4.5): price-leveled add/remove and the touch operation the
// simulator uses to find filled makers.
//
// Grounded on internal/mdg/generator.go's price-level bookkeeping style
// from the retrieval pack, ordered with internal/sortedmap.
package lob

import (
	"github.com/shopspring/decimal"

	"github.com/quorumtrade/corehft/internal/schema"
	"github.com/quorumtrade/corehft/internal/sortedmap"
)

func ascending(a, b decimal.Decimal) int {
	return a.Cmp(b)
}

func descending(a, b decimal.Decimal) int {
	return b.Cmp(a)
}

type level struct {
	orders map[string]schema.Order
}

// Book holds open maker orders per price level, bids descending and
// asks ascending (§3).
type Book struct {
	bids *sortedmap.Map[decimal.Decimal, *level]
	asks *sortedmap.Map[decimal.Decimal, *level]
}

// New creates an empty book.
func New() *Book {
	return &Book{
		bids: sortedmap.New[decimal.Decimal, *level](descending),
		asks: sortedmap.New[decimal.Decimal, *level](ascending),
	}
}

func (b *Book) sideFor(side schema.Side) *sortedmap.Map[decimal.Decimal, *level] {
	if side == schema.SideBuy {
		return b.bids
	}
	return b.asks
}

// AddOrder inserts a maker order at (side,price,id); no matching is
// attempted by the book itself (§4.5).
func (b *Book) AddOrder(o schema.Order) {
	price := *o.Parameters.Price
	side := b.sideFor(o.Parameters.Side)
	lv, ok := side.Get(price)
	if !ok {
		lv = &level{orders: make(map[string]schema.Order)}
		side.Insert(price, lv)
	}
	lv.orders[o.ID] = o
}

// RemoveOrder removes o from its price level, dropping the level if it
// becomes empty.
func (b *Book) RemoveOrder(o schema.Order) {
	if o.Parameters.Price == nil {
		return
	}
	price := *o.Parameters.Price
	side := b.sideFor(o.Parameters.Side)
	lv, ok := side.Get(price)
	if !ok {
		return
	}
	delete(lv.orders, o.ID)
	if len(lv.orders) == 0 {
		side.Delete(price)
	}
}

// Touch walks the opposite-side levels a trade at t's price would
// consume (§4.5). passThrough=true excludes the level exactly at the
// trade price ("order at the back of the queue"); passThrough=false
// includes it. It returns every order at those levels and removes those
// levels from the book.
func (b *Book) Touch(t schema.Trade, passThrough bool) []schema.Order {
	// A buy trade consumes resting asks at or below its price; a sell
	// trade consumes resting bids at or above its price. passThrough
	// excludes the level exactly at the trade price.
	var side *sortedmap.Map[decimal.Decimal, *level]
	var matches func(price decimal.Decimal) bool
	if t.Side == schema.SideBuy {
		side = b.asks
		if passThrough {
			matches = func(p decimal.Decimal) bool { return p.LessThan(t.Price) }
		} else {
			matches = func(p decimal.Decimal) bool { return p.LessThanOrEqual(t.Price) }
		}
	} else {
		side = b.bids
		if passThrough {
			matches = func(p decimal.Decimal) bool { return p.GreaterThan(t.Price) }
		} else {
			matches = func(p decimal.Decimal) bool { return p.GreaterThanOrEqual(t.Price) }
		}
	}

	var touched []schema.Order
	var toDelete []decimal.Decimal
	for _, e := range side.All() {
		if !matches(e.Key) {
			continue
		}
		for _, o := range e.Val.orders {
			touched = append(touched, o)
		}
		toDelete = append(toDelete, e.Key)
	}
	for _, price := range toDelete {
		side.Delete(price)
	}
	return touched
}

// Len returns the total number of open orders across both sides.
func (b *Book) Len() int {
	n := 0
	for _, e := range b.bids.All() {
		n += len(e.Val.orders)
	}
	for _, e := range b.asks.All() {
		n += len(e.Val.orders)
	}
	return n
}
