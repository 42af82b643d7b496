package main

import (
	"github.com/shopspring/decimal"
	"github.com/yanun0323/logs"

	"github.com/quorumtrade/corehft/internal/candle"
	"github.com/quorumtrade/corehft/internal/obs"
	"github.com/quorumtrade/corehft/internal/pipeline/async"
	pipesync "github.com/quorumtrade/corehft/internal/pipeline/sync"
	"github.com/quorumtrade/corehft/internal/position"
	"github.com/quorumtrade/corehft/internal/schema"
	"github.com/quorumtrade/corehft/internal/simulator"
)

// fillEvent pairs a simulator update with the incremental fill trade it
// implies; Trade is nil for updates that carry no new fill (a reject or
// a cancellation).
type fillEvent struct {
	Update simulator.Update
	Trade  *schema.Trade
}

// matcherNode adapts a Simulator into a pipesync.Node (§4.7): the
// "open", "cancel" and "trade" input ports drive the matching engine,
// and every resulting order update is emitted on "updates" paired with
// the incremental fill trade it implies, computed by diffing filled
// size/value against the order's previously observed snapshot.
type matcherNode struct {
	sim  *simulator.Simulator
	prev map[string]schema.Order
	next func() string
}

func newMatcherNode(sim *simulator.Simulator, idGen func() string) *matcherNode {
	return &matcherNode{sim: sim, prev: make(map[string]schema.Order), next: idGen}
}

func (n *matcherNode) Process(inputPort string, event any) []pipesync.Output {
	switch inputPort {
	case "open":
		return n.emit(n.sim.OpenOrders([]schema.Order{event.(schema.Order)}))
	case "cancel":
		return n.emit(n.sim.CancelOrders([]schema.Order{event.(schema.Order)}))
	case "trade":
		return n.emit(n.sim.IngestTrades([]schema.Trade{event.(schema.Trade)}))
	default:
		return nil
	}
}

func (n *matcherNode) emit(updates []simulator.Update) []pipesync.Output {
	outs := make([]pipesync.Output, 0, len(updates))
	for _, u := range updates {
		trade := n.impliedTrade(u.Order)
		n.prev[u.Order.ID] = u.Order
		outs = append(outs, pipesync.Output{Port: "updates", Event: fillEvent{Update: u, Trade: trade}})
	}
	return outs
}

func (n *matcherNode) impliedTrade(o schema.Order) *schema.Trade {
	priorFilled, priorValue := decimal.Zero, decimal.Zero
	if prior, ok := n.prev[o.ID]; ok {
		priorFilled = prior.Execution.FilledSize
		priorValue = prior.Execution.FilledValue
	}
	deltaSize := o.Execution.FilledSize.Sub(priorFilled)
	if !deltaSize.GreaterThan(decimal.Zero) {
		return nil
	}
	deltaValue := o.Execution.FilledValue.Sub(priorValue)
	price := n.sim.Market.Price(deltaSize, deltaValue)
	trade := schema.Trade{
		ID:           n.next(),
		MarketSymbol: o.MarketSymbol,
		Timestamp:    n.sim.Timestamp(),
		Transaction:  schema.NewTransaction(n.sim.Market, price, deltaSize, o.Parameters.Side, o.Parameters.Actor),
	}
	return &trade
}

// ledgerNode folds every fill into a running position via
// internal/position (§4.3), logging the classification and ledger
// balance change it produced.
type ledgerNode struct {
	market  schema.Market
	pos     schema.Position
	metrics *obs.Metrics
}

func (n *ledgerNode) Process(inputPort string, event any) []pipesync.Output {
	fe, ok := event.(fillEvent)
	if !ok || fe.Trade == nil {
		return nil
	}
	result := position.ApplyTrade(n.market, n.pos, *fe.Trade)
	n.pos = result.Position
	n.metrics.Inc("ledger." + string(result.Classification))
	logs.Infof("ledger: %s trade=%s size=%s price=%s balance_change=%s",
		result.Classification, fe.Trade.ID, fe.Trade.Size, fe.Trade.Price, result.BalanceChange)
	return nil
}

// candleNode buckets every fill trade into a time-ordered candle chart.
type candleNode struct {
	chart *candle.Chart
}

func (n *candleNode) Process(inputPort string, event any) []pipesync.Output {
	fe, ok := event.(fillEvent)
	if !ok || fe.Trade == nil {
		return nil
	}
	n.chart.ApplyTrade(fe.Trade.Timestamp, fe.Trade.Price, fe.Trade.Size)
	return nil
}

// teeNode is an async.Node that copies every event from its single
// input port onto its single output port, demonstrating the
// Multiplexer fan-out that internal/pipeline/async wires under a
// multiply-linked output port.
type teeNode struct{}

func (teeNode) Initialize() *async.Process {
	return async.NewParallelProcess([]string{"in"}, []string{"out"}, 16, func(_ string, event any) []async.Output {
		return []async.Output{{Port: "out", Event: event}}
	})
}

// sinkNode logs whatever it receives; used as a terminal async fan-out
// consumer.
type sinkNode struct{ name string }

func (s sinkNode) Initialize() *async.Process {
	return async.NewParallelProcess([]string{"in"}, nil, 16, func(_ string, event any) []async.Output {
		logs.Infof("async sink %s received %v", s.name, event)
		return nil
	})
}

// transportSinkNode terminates the internal/bus queue that hands
// websocket frames off the fan-out consumer onto this pipeline's ingest
// path, counting and logging every frame it receives.
type transportSinkNode struct {
	count int
}

func (n *transportSinkNode) Process(_ string, event any) []pipesync.Output {
	n.count++
	logs.Infof("transport sink received frame: %s", string(event.([]byte)))
	return nil
}
