package simulator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorumtrade/corehft/internal/schema"
	"github.com/quorumtrade/corehft/internal/xerrors"
)

var market = schema.Market{Symbol: "BTC-USDT", Direction: schema.DirectionLinear}

func newSim() *Simulator {
	return New(market, decimal.NewFromFloat(-0.0002), decimal.NewFromFloat(0.0007))
}

func TestOpenOrdersRejectsDuplicateID(t *testing.T) {
	sim := newSim()
	price := decimal.NewFromInt(100)
	order := schema.NewOrder("o-1", market.Symbol, schema.OrderParameters{
		TimeInForce: schema.TimeInForceGTC, Size: decimal.NewFromInt(1), Side: schema.SideBuy,
		Actor: schema.ActorMaker, Price: &price,
	})

	updates := sim.OpenOrders([]schema.Order{order, order})
	require.Len(t, updates, 2)
	assert.Equal(t, schema.ExecutionCreated, updates[0].Order.Execution.Status)
	assert.Equal(t, schema.ExecutionRejected, updates[1].Order.Execution.Status)
	assert.Equal(t, string(xerrors.InvalidParams), updates[1].Order.ErrorCategory)
}

func TestOpenOrdersRoutesUnspecifiedTaker(t *testing.T) {
	sim := newSim()
	order := schema.NewOrder("o-1", market.Symbol, schema.OrderParameters{
		TimeInForce: schema.TimeInForceGTC, Size: decimal.NewFromInt(1), Side: schema.SideBuy,
		Actor: schema.ActorUnspecified,
	})

	updates := sim.OpenOrders([]schema.Order{order})
	require.Len(t, updates, 1)
	assert.Equal(t, schema.ActorTaker, updates[0].Order.Parameters.Actor, "no price means it cannot post as a maker")
}

func TestIngestTradesFillsRestingMaker(t *testing.T) {
	sim := newSim()
	price := decimal.NewFromInt(99)
	maker := schema.NewOrder("m-1", market.Symbol, schema.OrderParameters{
		TimeInForce: schema.TimeInForceGTC, Size: decimal.NewFromInt(5), Side: schema.SideSell,
		Actor: schema.ActorMaker, Price: &price,
	})
	sim.OpenOrders([]schema.Order{maker})

	trade := schema.Trade{
		ID:           "t-1",
		MarketSymbol: market.Symbol,
		Timestamp:    time.Now().UTC(),
		Transaction:  schema.NewTransaction(market, decimal.NewFromInt(100), decimal.NewFromInt(5), schema.SideBuy, schema.ActorTaker),
	}
	updates := sim.IngestTrades([]schema.Trade{trade})

	require.Len(t, updates, 1)
	assert.Equal(t, schema.ExecutionFilled, updates[0].Order.Execution.Status)

	_, ok := sim.Order("m-1")
	assert.False(t, ok, "a terminally filled order is removed from the index")
}

func TestIngestTradesFillsMakerRestingExactlyAtTradePrice(t *testing.T) {
	sim := newSim()
	price := decimal.NewFromInt(101)
	maker := schema.NewOrder("m-1", market.Symbol, schema.OrderParameters{
		TimeInForce: schema.TimeInForceGTC, Size: decimal.NewFromInt(2), Side: schema.SideSell,
		Actor: schema.ActorMaker, Price: &price,
	})
	sim.OpenOrders([]schema.Order{maker})

	trade := schema.Trade{
		ID:           "t-1",
		MarketSymbol: market.Symbol,
		Timestamp:    time.Now().UTC(),
		Transaction:  schema.NewTransaction(market, decimal.NewFromInt(101), decimal.NewFromInt(3), schema.SideBuy, schema.ActorTaker),
	}
	updates := sim.IngestTrades([]schema.Trade{trade})

	require.Len(t, updates, 1, "a maker resting exactly at the trade price must fill")
	assert.Equal(t, schema.ExecutionFilled, updates[0].Order.Execution.Status)
	assert.True(t, updates[0].Order.Execution.FilledSize.Equal(decimal.NewFromInt(2)))
}

func TestIngestTradesFillsQueuedTaker(t *testing.T) {
	sim := newSim()
	taker := schema.NewOrder("k-1", market.Symbol, schema.OrderParameters{
		TimeInForce: schema.TimeInForceIOC, Size: decimal.NewFromInt(5), Side: schema.SideBuy,
		Actor: schema.ActorTaker,
	})
	sim.OpenOrders([]schema.Order{taker})

	trade := schema.Trade{
		ID:           "t-1",
		MarketSymbol: market.Symbol,
		Timestamp:    time.Now().UTC(),
		Transaction:  schema.NewTransaction(market, decimal.NewFromInt(100), decimal.NewFromInt(5), schema.SideBuy, schema.ActorTaker),
	}
	updates := sim.IngestTrades([]schema.Trade{trade})

	require.Len(t, updates, 1)
	assert.Equal(t, schema.ExecutionFilled, updates[0].Order.Execution.Status)
	_, ok := sim.Order("k-1")
	assert.False(t, ok)
}

func TestCancelOrdersRemovesFromBookAndQueue(t *testing.T) {
	sim := newSim()
	price := decimal.NewFromInt(100)
	maker := schema.NewOrder("m-1", market.Symbol, schema.OrderParameters{
		TimeInForce: schema.TimeInForceGTC, Size: decimal.NewFromInt(1), Side: schema.SideBuy,
		Actor: schema.ActorMaker, Price: &price,
	})
	sim.OpenOrders([]schema.Order{maker})

	updates := sim.CancelOrders([]schema.Order{{ID: "m-1"}})
	require.Len(t, updates, 1)
	assert.Equal(t, schema.ExecutionCancelled, updates[0].Order.Execution.Status)
	assert.Equal(t, schema.CancellationCreated, updates[0].Order.Cancellation)
}

func TestCancelOrdersUnknownIDIsNotFound(t *testing.T) {
	sim := newSim()
	updates := sim.CancelOrders([]schema.Order{{ID: "missing"}})
	require.Len(t, updates, 1)
	assert.Equal(t, schema.CancellationRejected, updates[0].Order.Cancellation)
	assert.Equal(t, string(xerrors.NotFound), updates[0].Order.ErrorCategory)
}
