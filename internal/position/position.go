// Package position implements trade-driven position accounting for
// linear and inverse markets (§4.3): open/increase/decrease/close/flip
// classification and the direction-specific PnL formulas.
//
// Grounded on internal/state/position.go's position-mutation shape from
// the retrieval pack.
package position

import (
	"github.com/shopspring/decimal"

	"github.com/quorumtrade/corehft/internal/orderstate"
	"github.com/quorumtrade/corehft/internal/schema"
)

// Classification names which of the five trade effects (§4.3) a trade
// had on a position.
type Classification string

const (
	Open     Classification = "open"
	Increase Classification = "increase"
	Decrease Classification = "decrease"
	Close    Classification = "close"
	Flip     Classification = "flip"
)

// Result is the outcome of applying one trade to a position.
type Result struct {
	Position       schema.Position
	BalanceChange  decimal.Decimal
	Classification Classification
}

// PnL computes unrealized/realized profit for a size at at_price against
// an entry price, per the market's direction (§4.3).
func PnL(market schema.Market, side schema.Side, entrySize, entryPrice, atPrice decimal.Decimal) decimal.Decimal {
	switch market.Direction {
	case schema.DirectionInverse:
		if side == schema.SideBuy {
			return sub(entrySize.Div(entryPrice), entrySize.Div(atPrice))
		}
		return sub(entrySize.Div(atPrice), entrySize.Div(entryPrice))
	default:
		if side == schema.SideBuy {
			return atPrice.Sub(entryPrice).Mul(entrySize)
		}
		return entryPrice.Sub(atPrice).Mul(entrySize)
	}
}

func sub(a, b decimal.Decimal) decimal.Decimal {
	return a.Sub(b)
}

// Equity is entry.value + pnl at at_price (§4.3).
func Equity(market schema.Market, e schema.PositionEntry, atPrice decimal.Decimal) decimal.Decimal {
	return e.Value.Add(PnL(market, e.Side, e.Size, e.Price, atPrice))
}

// Performance derives a PositionPerformance snapshot at a mark price.
func Performance(market schema.Market, e schema.PositionEntry, markPrice decimal.Decimal) schema.PositionPerformance {
	pnl := PnL(market, e.Side, e.Size, e.Price, markPrice)
	perf := schema.PositionPerformance{
		PnL:       pnl,
		Equity:    e.Value.Add(pnl),
		MarkPrice: markPrice,
	}
	if !e.Value.IsZero() {
		perf.PnLRate = pnl.Div(e.Value)
	}
	return perf
}

func newEntry(market schema.Market, side schema.Side, size, price decimal.Decimal) schema.PositionEntry {
	return schema.PositionEntry{
		Side:  side,
		Size:  size,
		Price: price,
		Value: market.Value(size, price),
	}
}

// ApplyTrade folds one trade into a position and returns the resulting
// position, the ledger balance_change, and which of the five effects
// (§4.3) occurred. pos.Entry may be nil (flat position).
func ApplyTrade(market schema.Market, pos schema.Position, t schema.Trade) Result {
	if pos.Entry == nil || pos.Entry.Size.IsZero() {
		entry := newEntry(market, t.Side, t.Size, t.Price)
		return Result{
			Position:       schema.Position{MarketSymbol: pos.MarketSymbol, Entry: &entry},
			BalanceChange:  t.Value.Neg(),
			Classification: Open,
		}
	}

	e := *pos.Entry
	if t.Side == e.Side {
		newSize := e.Size.Add(t.Size)
		newPrice := orderstate.AvgPrice(market, e.Size, e.Price, t.Size, t.Price)
		entry := newEntry(market, e.Side, newSize, newPrice)
		return Result{
			Position:       schema.Position{MarketSymbol: pos.MarketSymbol, Entry: &entry},
			BalanceChange:  t.Value.Neg(),
			Classification: Increase,
		}
	}

	switch {
	case t.Size.LessThan(e.Size):
		remainder := e.Size.Sub(t.Size)
		consumedValue := market.Value(t.Size, e.Price)
		pnl := PnL(market, e.Side, t.Size, e.Price, t.Price)
		entry := newEntry(market, e.Side, remainder, e.Price)
		return Result{
			Position:       schema.Position{MarketSymbol: pos.MarketSymbol, Entry: &entry},
			BalanceChange:  consumedValue.Add(pnl),
			Classification: Decrease,
		}

	case t.Size.Equal(e.Size):
		balanceChange := Equity(market, e, t.Price)
		return Result{
			Position:       schema.Position{MarketSymbol: pos.MarketSymbol, Entry: nil},
			BalanceChange:  balanceChange,
			Classification: Close,
		}

	default:
		closeChange := Equity(market, e, t.Price)
		remaining := t.Size.Sub(e.Size)
		openEntry := newEntry(market, t.Side, remaining, t.Price)
		openChange := market.Value(remaining, t.Price).Neg()
		return Result{
			Position:       schema.Position{MarketSymbol: pos.MarketSymbol, Entry: &openEntry},
			BalanceChange:  closeChange.Add(openChange),
			Classification: Flip,
		}
	}
}
