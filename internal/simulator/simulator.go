// Package simulator implements the deterministic limit-order-book
// matching engine (§4.6): a market, an order index, a maker book, two
// taker FIFO queues, and a fee schedule, driven by open_orders,
// cancel_orders and ingest_trades commands.
//
// Grounded on internal/mdg/generator.go's command-driven update-emission
// shape from the retrieval pack.
package simulator

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/quorumtrade/corehft/internal/lob"
	"github.com/quorumtrade/corehft/internal/orderstate"
	"github.com/quorumtrade/corehft/internal/schema"
	"github.com/quorumtrade/corehft/internal/simguard"
	"github.com/quorumtrade/corehft/internal/xerrors"
)

// Update is one order-state change the simulator emits in response to a
// command.
type Update struct {
	Order schema.Order
}

// Simulator holds the full matching-engine state described in §4.6.
// Not safe for concurrent use; callers serialize commands (the sync
// pipeline node wrapping this does so naturally).
type Simulator struct {
	Market schema.Market

	orders map[string]schema.Order
	book   *lob.Book

	takerQueue map[schema.Side][]string

	latestTrade schema.Trade
	timestamp   time.Time

	makerFee decimal.Decimal
	takerFee decimal.Decimal
}

// New creates a simulator for a market with the given maker/taker fee
// rates (signed decimals, per §3's Fee invariant).
func New(market schema.Market, makerFee, takerFee decimal.Decimal) *Simulator {
	return &Simulator{
		Market:   market,
		orders:   make(map[string]schema.Order),
		book:     lob.New(),
		takerQueue: map[schema.Side][]string{
			schema.SideBuy:  nil,
			schema.SideSell: nil,
		},
		makerFee: makerFee,
		takerFee: takerFee,
	}
}

// LatestTrade returns the most recently ingested trade.
func (s *Simulator) LatestTrade() schema.Trade { return s.latestTrade }

// Timestamp returns the timestamp of the most recently ingested trade.
func (s *Simulator) Timestamp() time.Time { return s.timestamp }

// Order looks up a currently-tracked order by id.
func (s *Simulator) Order(id string) (schema.Order, bool) {
	o, ok := s.orders[id]
	return o, ok
}

// OpenOrders opens each order in list, validating maker prices against
// the latest trade and routing actor-unspecified orders maker-first
// (§4.6).
func (s *Simulator) OpenOrders(list []schema.Order) []Update {
	updates := make([]Update, 0, len(list))
	for _, o := range list {
		updates = append(updates, s.openOne(o))
	}
	return updates
}

func (s *Simulator) openOne(o schema.Order) Update {
	if _, exists := s.orders[o.ID]; exists {
		o.Execution.Status = schema.ExecutionRejected
		o.ErrorCategory = string(xerrors.InvalidParams)
		return Update{Order: o}
	}

	actor := o.Parameters.Actor
	if actor == schema.ActorUnspecified {
		if o.Parameters.Price != nil && s.canPostMaker(o) {
			actor = schema.ActorMaker
		} else {
			actor = schema.ActorTaker
		}
	}
	o.Parameters.Actor = actor

	switch actor {
	case schema.ActorMaker:
		if o.Parameters.Price == nil || !s.canPostMaker(o) {
			o.Execution.Status = schema.ExecutionRejected
			o.ErrorCategory = string(xerrors.InvalidParams)
			return Update{Order: o}
		}
		o.Execution.Status = schema.ExecutionCreated
		s.orders[o.ID] = o
		s.book.AddOrder(o)
		return Update{Order: o}

	default: // taker
		o.Execution.Status = schema.ExecutionCreated
		s.orders[o.ID] = o
		s.takerQueue[o.Parameters.Side] = append(s.takerQueue[o.Parameters.Side], o.ID)
		return Update{Order: o}
	}
}

func (s *Simulator) canPostMaker(o schema.Order) bool {
	if s.latestTrade.ID == "" {
		return true
	}
	return simguard.ValidMakerPrice(o.Parameters.Side, *o.Parameters.Price, s.latestTrade)
}

// CancelOrders cancels each order in list; absent orders emit not_found
// with cancellation=rejected (§4.6).
func (s *Simulator) CancelOrders(list []schema.Order) []Update {
	updates := make([]Update, 0, len(list))
	for _, req := range list {
		o, ok := s.orders[req.ID]
		if !ok {
			req.Cancellation = schema.CancellationRejected
			req.ErrorCategory = string(xerrors.NotFound)
			updates = append(updates, Update{Order: req})
			continue
		}
		if o.Parameters.Actor != schema.ActorTaker {
			s.book.RemoveOrder(o)
		} else {
			s.removeFromTakerQueue(o)
		}
		o.Execution.Status = schema.ExecutionCancelled
		o.Cancellation = schema.CancellationCreated
		s.orders[o.ID] = o
		updates = append(updates, Update{Order: o})
	}
	return updates
}

func (s *Simulator) removeFromTakerQueue(o schema.Order) {
	q := s.takerQueue[o.Parameters.Side]
	for i, id := range q {
		if id == o.ID {
			s.takerQueue[o.Parameters.Side] = append(q[:i], q[i+1:]...)
			return
		}
	}
}

// IngestTrades feeds a stream of historical trades through the maker
// book and taker queues, emitting order updates as fills occur (§4.6).
func (s *Simulator) IngestTrades(trades []schema.Trade) []Update {
	var updates []Update
	for _, t := range trades {
		s.latestTrade = t
		s.timestamp = t.Timestamp
		updates = append(updates, s.fillMakers(t)...)
		updates = append(updates, s.fillTakers(t)...)
	}
	return updates
}

func (s *Simulator) fillMakers(t schema.Trade) []Update {
	// passThrough=false: a maker resting exactly at the trade price fills
	// too. A resting-at-the-back-of-the-queue reading (passThrough=true)
	// would leave a maker sell at 101 unfilled by a buy print at 101,
	// which the simulator's own worked fill example requires to fill in
	// full — see the DESIGN.md note on internal/lob.Touch.
	touched := s.book.Touch(t, false)
	var updates []Update
	for _, o := range touched {
		remaining := o.Remaining()
		price := *o.Parameters.Price
		value := s.Market.Value(remaining, price)
		fee := schema.NewFee(value, s.makerFee, "")
		fillTrade := schema.Trade{
			ID:           t.ID + ":" + o.ID,
			MarketSymbol: s.Market.Symbol,
			Timestamp:    t.Timestamp,
			Transaction:  schema.NewTransaction(s.Market, price, remaining, o.Parameters.Side, schema.ActorMaker),
			Fee:          &fee,
		}
		updated, err := orderstate.IngestTrade(o, s.Market, fillTrade)
		if err != nil {
			continue
		}
		s.orders[updated.ID] = updated
		updates = append(updates, Update{Order: updated})
		if updated.Execution.Status.Terminal() {
			delete(s.orders, updated.ID)
		}
	}
	return updates
}

func (s *Simulator) fillTakers(t schema.Trade) []Update {
	var updates []Update
	remaining := t.Size
	remainingPrice := t.Price
	queue := s.takerQueue[t.Side]
	consumed := 0

	for _, id := range queue {
		if remaining.IsZero() {
			break
		}
		o, ok := s.orders[id]
		if !ok {
			consumed++
			continue
		}
		fillSize := o.Remaining()
		if fillSize.GreaterThan(remaining) {
			fillSize = remaining
		}
		value := s.Market.Value(fillSize, remainingPrice)
		fee := schema.NewFee(value, s.takerFee, "")
		fillTrade := schema.Trade{
			ID:           t.ID + ":" + o.ID,
			MarketSymbol: s.Market.Symbol,
			Timestamp:    t.Timestamp,
			Transaction:  schema.NewTransaction(s.Market, remainingPrice, fillSize, o.Parameters.Side, schema.ActorTaker),
			Fee:          &fee,
		}
		updated, err := orderstate.IngestTrade(o, s.Market, fillTrade)
		if err != nil {
			consumed++
			continue
		}
		s.orders[updated.ID] = updated
		updates = append(updates, Update{Order: updated})
		remaining = remaining.Sub(fillSize)

		if updated.Execution.Status.Terminal() {
			delete(s.orders, updated.ID)
			consumed++
		} else {
			break
		}
	}

	if consumed > 0 {
		s.takerQueue[t.Side] = queue[consumed:]
	}
	return updates
}
