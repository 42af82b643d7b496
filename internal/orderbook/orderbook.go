// Package orderbook implements the public market order book (§3, §8
// scenario 6): bids descending and asks ascending, incrementally
// patched by (side,price,size) rows where a nil/zero size deletes the
// level.
//
// Grounded on internal/mdg/generator.go's book-patch application from
// the retrieval pack, ordered with internal/sortedmap.
package orderbook

import (
	"github.com/shopspring/decimal"

	"github.com/quorumtrade/corehft/internal/schema"
	"github.com/quorumtrade/corehft/internal/sortedmap"
)

func ascending(a, b decimal.Decimal) int { return a.Cmp(b) }
func descending(a, b decimal.Decimal) int { return b.Cmp(a) }

// Row is one incremental patch: side, price, and the new size at that
// price. A nil Size deletes the level.
type Row struct {
	Side  schema.Side
	Price decimal.Decimal
	Size  *decimal.Decimal
}

// Book is the two-sided price->size ladder.
type Book struct {
	Bids *sortedmap.Map[decimal.Decimal, decimal.Decimal]
	Asks *sortedmap.Map[decimal.Decimal, decimal.Decimal]
}

// New creates an empty order book.
func New() *Book {
	return &Book{
		Bids: sortedmap.New[decimal.Decimal, decimal.Decimal](descending),
		Asks: sortedmap.New[decimal.Decimal, decimal.Decimal](ascending),
	}
}

func (b *Book) sideFor(side schema.Side) *sortedmap.Map[decimal.Decimal, decimal.Decimal] {
	if side == schema.SideBuy {
		return b.Bids
	}
	return b.Asks
}

// Apply patches the book with rows in order; a nil or zero Size deletes
// the level, matching the venue's incremental-update convention.
func (b *Book) Apply(rows []Row) {
	for _, r := range rows {
		side := b.sideFor(r.Side)
		if r.Size == nil || r.Size.IsZero() {
			side.Delete(r.Price)
			continue
		}
		side.Insert(r.Price, *r.Size)
	}
}

// Snapshot captures every level as a slice of rows, usable to build the
// inverse patch for the round-trip testable property in §8: capture a
// Snapshot before Apply, then Apply(Snapshot(...)) restores those levels
// (any level Apply newly created that isn't in the snapshot must be
// deleted separately by the caller).
func (b *Book) Snapshot() []Row {
	rows := make([]Row, 0, b.Bids.Len()+b.Asks.Len())
	for _, e := range b.Bids.All() {
		size := e.Val
		rows = append(rows, Row{Side: schema.SideBuy, Price: e.Key, Size: &size})
	}
	for _, e := range b.Asks.All() {
		size := e.Val
		rows = append(rows, Row{Side: schema.SideSell, Price: e.Key, Size: &size})
	}
	return rows
}

// BestBid returns the highest bid level.
func (b *Book) BestBid() (decimal.Decimal, decimal.Decimal, bool) {
	return b.Bids.First()
}

// BestAsk returns the lowest ask level.
func (b *Book) BestAsk() (decimal.Decimal, decimal.Decimal, bool) {
	return b.Asks.First()
}

// Crossed reports whether the book violates bids.max < asks.min (§3).
func (b *Book) Crossed() bool {
	bid, _, hasBid := b.BestBid()
	ask, _, hasAsk := b.BestAsk()
	if !hasBid || !hasAsk {
		return false
	}
	return bid.GreaterThanOrEqual(ask)
}
