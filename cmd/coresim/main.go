// Command coresim wires every subsystem of the toolkit together against
// one market: the matching-engine simulator behind an event-flow
// pipeline, position accounting, order reconciliation under injected
// chaos, historical-trade recording and unpaced replay, an async
// fan-out pipeline, and the resilient websocket transport driven
// against an in-process loopback venue.
//
// Grounded on cmd/trader/main.go's flag-driven record/replay shape from
// the retrieval pack.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"reflect"
	"sync/atomic"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/shopspring/decimal"
	"github.com/yanun0323/logs"

	"github.com/quorumtrade/corehft/internal/bus"
	"github.com/quorumtrade/corehft/internal/candle"
	"github.com/quorumtrade/corehft/internal/chaostest"
	"github.com/quorumtrade/corehft/internal/obs"
	"github.com/quorumtrade/corehft/internal/ops"
	"github.com/quorumtrade/corehft/internal/orderbook"
	"github.com/quorumtrade/corehft/internal/pipeline/async"
	pipesync "github.com/quorumtrade/corehft/internal/pipeline/sync"
	"github.com/quorumtrade/corehft/internal/reconcile"
	"github.com/quorumtrade/corehft/internal/recorder"
	"github.com/quorumtrade/corehft/internal/schema"
	"github.com/quorumtrade/corehft/internal/simulator"
	"github.com/quorumtrade/corehft/pkg/transport/ws"
)

// fillSteps are the sizes of the two sell prints the matching demo
// feeds against a ten-unit resting buy order, and that the determinism
// check replays. The simulator fills a touched maker order for its whole
// remaining size, so the first print fills all ten units and the filled
// order leaves the simulator's index; the second print touches nothing.
var fillSteps = []decimal.Decimal{decimal.NewFromInt(5), decimal.NewFromInt(3)}

func main() {
	configPath := flag.String("config", "", "path to a YAML or JSON config file (defaults built in if empty)")
	flag.Parse()

	if stopProfiler := maybeStartProfiler(); stopProfiler != nil {
		defer stopProfiler()
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logs.Errorf("config load failed: %+v", err)
		return
	}
	markets, err := cfg.ResolveMarkets()
	if err != nil || len(markets) == 0 {
		logs.Errorf("no usable markets: %+v", err)
		return
	}
	market := markets[0]
	makerFee, takerFee, err := cfg.Fees()
	if err != nil {
		logs.Errorf("fee config invalid: %+v", err)
		return
	}

	var tradeSeq uint64
	nextTradeID := func() string {
		return fmt.Sprintf("t-%d", atomic.AddUint64(&tradeSeq, 1))
	}

	sim := simulator.New(market, makerFee, takerFee)
	metrics := obs.NewMetrics()
	tracer := obs.NewTraceGenerator(0)
	_ = tracer.Next()

	demoOrderBook(market)

	updates := runMatchingDemo(sim, metrics, nextTradeID)
	logs.Infof("matching demo fed %d trade prints", len(updates))

	runDeterminismCheck(sim, market, makerFee, takerFee, updates)
	runReconcileDemo(market)
	runAsyncFanOutDemo()
	runTransportDemo(market)

	snapshot := metrics.Snapshot()
	logs.Infof("metrics snapshot: counters=%v", snapshot.Counters)
}

// maybeStartProfiler bootstraps continuous profiling when
// CORESIM_PYROSCOPE_SERVER is set, returning a func to stop it, or nil
// if profiling wasn't enabled. Grounded on pkg/websocket/example's
// pyroscope.Start call from the retrieval pack, promoted from an
// always-disabled `if false` block to an env-gated opt-in.
func maybeStartProfiler() func() {
	server := os.Getenv("CORESIM_PYROSCOPE_SERVER")
	if server == "" {
		return nil
	}
	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: "corehft.coresim",
		ServerAddress:   server,
		Tags:            map[string]string{"env": os.Getenv("CORESIM_PYROSCOPE_ENV")},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
		},
	})
	if err != nil {
		logs.Errorf("pyroscope start failed: %+v", err)
		return nil
	}
	return func() { _ = profiler.Stop() }
}

func loadConfig(path string) (*ops.Config, error) {
	if path == "" {
		return ops.Default(), nil
	}
	return ops.LoadFromFile(path)
}

// demoOrderBook exercises the public two-sided price ladder with a
// synthetic depth snapshot, independent of the matching engine (depth
// comes from a venue's order book feed, not from trade prints).
func demoOrderBook(market schema.Market) {
	book := orderbook.New()
	bidSize := decimal.NewFromInt(5)
	askSize := decimal.NewFromInt(5)
	bidPrice := decimal.NewFromInt(99)
	askPrice := decimal.NewFromInt(101)
	book.Apply([]orderbook.Row{
		{Side: schema.SideBuy, Price: bidPrice, Size: &bidSize},
		{Side: schema.SideSell, Price: askPrice, Size: &askSize},
	})
	if price, size, ok := book.BestBid(); ok {
		logs.Infof("orderbook %s best bid: price=%s size=%s", market.Symbol, price, size)
	}
	if price, size, ok := book.BestAsk(); ok {
		logs.Infof("orderbook %s best ask: price=%s size=%s", market.Symbol, price, size)
	}
	logs.Infof("orderbook %s crossed=%v", market.Symbol, book.Crossed())
}

// runMatchingDemo posts a resting maker order, then feeds two opposing
// trade prints through the pipesync pipeline; the first one fills the
// maker order completely (see fillSteps). It returns the trade prints,
// exercising the matcher/ledger/chart nodes and
// their fan-out link topology (§4.6, §4.7).
func runMatchingDemo(sim *simulator.Simulator, metrics *obs.Metrics, nextTradeID func() string) []schema.Trade {
	chart := candle.New(time.Minute)
	matcher := newMatcherNode(sim, nextTradeID)
	ledger := &ledgerNode{market: sim.Market, metrics: metrics}
	chartNode := &candleNode{chart: chart}

	pipe := pipesync.New()
	pipe.AddNode("matcher", matcher)
	pipe.AddNode("ledger", ledger)
	pipe.AddNode("chart", chartNode)
	pipe.AddLink(pipesync.Link{FromID: "matcher", FromOut: "updates", ToID: "ledger", ToIn: "updates"})
	pipe.AddLink(pipesync.Link{FromID: "matcher", FromOut: "updates", ToID: "chart", ToIn: "updates"})

	price := decimal.NewFromInt(100)
	size := decimal.NewFromInt(10)
	makerOrder := schema.NewOrder("maker-1", sim.Market.Symbol, schema.OrderParameters{
		TimeInForce: schema.TimeInForceGTC,
		Size:        size,
		Side:        schema.SideBuy,
		Actor:       schema.ActorUnspecified,
		Price:       &price,
	})
	pipe.Ingest("matcher", "open", makerOrder)
	pipe.Drain()

	var trades []schema.Trade
	for _, step := range fillSteps {
		t := schema.Trade{
			ID:           nextTradeID(),
			MarketSymbol: sim.Market.Symbol,
			Timestamp:    time.Now().UTC(),
			Transaction:  schema.NewTransaction(sim.Market, price, step, schema.SideSell, schema.ActorTaker),
		}
		trades = append(trades, t)
		pipe.Ingest("matcher", "trade", t)
		pipe.Drain()
	}

	if candleBar, ok := chart.Latest(); ok {
		logs.Infof("candle %s close=%s volume=%s", sim.Market.Symbol, candleBar.Close, candleBar.Volume)
	}
	return trades
}

// runDeterminismCheck records the trades the matching demo produced and
// replays them, at no pacing, through a second simulator seeded with an
// identical resting order, then compares the two simulators' resulting
// order state for equality (§8's simulator-determinism property: two
// simulators fed the same command sequence reach identical states).
func runDeterminismCheck(sim *simulator.Simulator, market schema.Market, makerFee, takerFee decimal.Decimal, trades []schema.Trade) {
	rec := recorder.New()
	for _, t := range trades {
		rec.Record(t)
	}

	replaySim := simulator.New(market, makerFee, takerFee)
	price := decimal.NewFromInt(100)
	size := decimal.NewFromInt(10)
	replaySim.OpenOrders([]schema.Order{schema.NewOrder("maker-1", market.Symbol, schema.OrderParameters{
		TimeInForce: schema.TimeInForceGTC,
		Size:        size,
		Side:        schema.SideBuy,
		Actor:       schema.ActorUnspecified,
		Price:       &price,
	})})

	ctx := context.Background()
	err := rec.Replay(ctx, 0, func(t schema.Trade) error {
		replaySim.IngestTrades([]schema.Trade{t})
		return nil
	})
	if err != nil {
		logs.Errorf("replay failed: %+v", err)
		return
	}

	original, origOK := sim.Order("maker-1")
	replayed, replayOK := replaySim.Order("maker-1")
	match := origOK == replayOK && reflect.DeepEqual(original, replayed)
	logs.Infof("determinism check: original_found=%v replayed_found=%v match=%v", origOK, replayOK, match)
}

// runReconcileDemo applies a batch of updates through chaostest's
// drop/duplicate/reorder injector to show the reconciler tolerating
// out-of-order and duplicated venue messages (§4.4, §8).
func runReconcileDemo(market schema.Market) {
	price := decimal.NewFromInt(100)
	order := reconcile.NewOrder(schema.NewOrder("recon-1", market.Symbol, schema.OrderParameters{
		TimeInForce: schema.TimeInForceGTC,
		Size:        decimal.NewFromInt(10),
		Side:        schema.SideBuy,
		Actor:       schema.ActorTaker,
	}))

	engine, err := chaostest.NewEngine[reconcile.Update](chaostest.Config{
		Seed:          7,
		DropRate:      0.1,
		DuplicateRate: 0.2,
		ReorderWindow: 2,
	})
	if err != nil {
		logs.Errorf("chaostest config invalid: %+v", err)
		return
	}

	steps := []decimal.Decimal{decimal.NewFromInt(4), decimal.NewFromInt(6)}
	filled := decimal.Zero
	filledValue := decimal.Zero
	var deliveries []chaostest.Delivery[reconcile.Update]
	for i, step := range steps {
		filled = filled.Add(step)
		filledValue = filledValue.Add(step.Mul(price))
		trade := schema.Trade{
			ID:           fmt.Sprintf("recon-fill-%d", i),
			MarketSymbol: market.Symbol,
			Timestamp:    time.Now().UTC(),
			Transaction:  schema.NewTransaction(market, price, step, schema.SideBuy, schema.ActorTaker),
		}
		status := schema.ExecutionPartiallyFilled
		if filled.Equal(decimal.NewFromInt(10)) {
			status = schema.ExecutionFilled
		}
		update := reconcile.Update{
			Trade: &trade,
			Execution: schema.OrderExecution{
				Status:      status,
				Side:        schema.SideBuy,
				FilledSize:  filled,
				FilledValue: filledValue,
				FilledPrice: market.Price(filled, filledValue),
			},
		}
		deliveries = append(deliveries, engine.Process(update)...)
	}
	deliveries = append(deliveries, engine.Flush()...)

	for _, d := range deliveries {
		if err := reconcile.Apply(order, market, d.Value); err != nil {
			logs.Errorf("reconcile apply failed: %+v", err)
		}
	}
	logs.Infof("reconcile demo: status=%s filled_size=%s out_of_sync=%v",
		order.Execution.Status, order.Execution.FilledSize, order.OutOfSync())
}

// runAsyncFanOutDemo drives one event through a tee node fanning out to
// two sink nodes over internal/pipeline/async's Multiplexer (§4.8).
func runAsyncFanOutDemo() {
	pipe := async.New()
	pipe.AddNode("tee", teeNode{})
	pipe.AddNode("sink-a", sinkNode{name: "a"})
	pipe.AddNode("sink-b", sinkNode{name: "b"})
	pipe.AddLink(async.Link{FromID: "tee", FromOut: "out", ToID: "sink-a", ToIn: "in"})
	pipe.AddLink(async.Link{FromID: "tee", FromOut: "out", ToID: "sink-b", ToIn: "in"})

	pipe.Ingest("tee", "in", "fan-out sample event")
	time.Sleep(50 * time.Millisecond)

	pipe.RemoveNode("tee")
	pipe.RemoveNode("sink-a")
	pipe.RemoveNode("sink-b")
}

// runTransportDemo dials the resilient transport against an in-process
// loopback venue, subscribes to a synthetic trade topic through FanOut,
// and hands each received frame off through an internal/bus queue onto
// a pipesync ingest path before shutting down (§4.9).
func runTransportDemo(market schema.Market) {
	timing := ops.WebSocketConfig{
		PingPongEnabled:  true,
		PingIntervalMS:   200,
		PongAckTimeoutMS: 100,
		AbortTimeoutMS:   100,
		RetryMinMS:       50,
		RetryMaxMS:       500,
		RetryFactor:      2,
	}
	ping, pongAck, abort, retry := timing.Timing()

	topic := ws.Topic("trades." + market.Symbol)
	var fanout *ws.FanOut
	conn := ws.Dial(ws.Config{
		URLFn:            func(context.Context) (string, error) { return "loopback://venue", nil },
		Dialer:           loopbackDialer(string(topic), decimal.NewFromInt(100), 100*time.Millisecond),
		PingPongEnabled:  true,
		PingInterval:     ping,
		PongAckTimeout:   pongAck,
		AbortTimeout:     abort,
		RetryDelay:       retry.Next,
		OnMessage: func(m ws.Message) {
			if fanout != nil {
				fanout.HandleMessage(m)
			}
		},
		OnNewConnection: func() {
			if fanout != nil {
				fanout.HandleReconnect()
			}
		},
		OnConnectionError: func(err error) { logs.Errorf("ws error: %+v", err) },
	})
	fanout = ws.NewFanOut(conn, parseTickFrame(topic), encodeSubscribeFrame)

	queue := bus.NewQueue[[]byte](16)
	sinkPipe := pipesync.New()
	sink := &transportSinkNode{}
	sinkPipe.AddNode("sink", sink)

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		queue.Run(runCtx, func(payload []byte) {
			sinkPipe.Ingest("sink", "in", payload)
			sinkPipe.Drain()
		})
	}()

	ch, unsubscribe := fanout.Subscribe(topic, 8)
	deadline := time.After(400 * time.Millisecond)
loop:
	for {
		select {
		case payload, ok := <-ch:
			if !ok {
				break loop
			}
			if err := queue.TryPublish(payload); err != nil {
				logs.Errorf("transport queue: %+v", err)
			}
		case <-deadline:
			break loop
		}
	}
	unsubscribe()
	conn.Close()
	queue.Close()
	<-drained
	logs.Infof("transport demo received %d frames", sink.count)
}

func parseTickFrame(topic ws.Topic) func(ws.Message) (ws.Topic, []byte, bool) {
	return func(m ws.Message) (ws.Topic, []byte, bool) {
		var frame tickFrame
		if err := json.Unmarshal(m.Payload, &frame); err != nil {
			return "", nil, false
		}
		if ws.Topic(frame.Topic) != topic {
			return "", nil, false
		}
		return topic, m.Payload, true
	}
}

func encodeSubscribeFrame(topic ws.Topic, subscribe bool) (ws.MessageType, []byte) {
	kind := "subscribe"
	if !subscribe {
		kind = "unsubscribe"
	}
	payload, _ := json.Marshal(map[string]string{"op": kind, "topic": string(topic)})
	return ws.MessageText, payload
}
