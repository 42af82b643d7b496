package reconcile

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorumtrade/corehft/internal/schema"
)

var market = schema.Market{Symbol: "BTC-USDT", Direction: schema.DirectionLinear}

func newTestOrder(size decimal.Decimal) *Order {
	return NewOrder(schema.NewOrder("o-1", market.Symbol, schema.OrderParameters{
		Size: size, Side: schema.SideBuy,
	}))
}

func fillTrade(id string, size decimal.Decimal) *schema.Trade {
	return &schema.Trade{
		ID:          id,
		Transaction: schema.NewTransaction(market, decimal.NewFromInt(100), size, schema.SideBuy, schema.ActorMaker),
	}
}

func TestApplyIngestsTradeOnce(t *testing.T) {
	o := newTestOrder(decimal.NewFromInt(10))
	trade := fillTrade("t-1", decimal.NewFromInt(4))

	require.NoError(t, Apply(o, market, Update{Trade: trade, Execution: o.Execution}))
	assert.True(t, o.Execution.FilledSize.Equal(decimal.NewFromInt(4)))

	// Redelivering the same trade id must not double-count the fill.
	require.NoError(t, Apply(o, market, Update{Trade: trade, Execution: o.Execution}))
	assert.True(t, o.Execution.FilledSize.Equal(decimal.NewFromInt(4)))
}

func TestApplyTracksRemoteAheadThenCatchesUp(t *testing.T) {
	o := newTestOrder(decimal.NewFromInt(10))

	remote := schema.OrderExecution{
		Status: schema.ExecutionPartiallyFilled, Side: schema.SideBuy, FilledSize: decimal.NewFromInt(6),
	}
	require.NoError(t, Apply(o, market, Update{Execution: remote}))

	require.NotNil(t, o.RemoteExecution)
	assert.True(t, o.OutOfSync(), "remote reports more filled than local has ingested")

	trade := fillTrade("t-1", decimal.NewFromInt(6))
	require.NoError(t, Apply(o, market, Update{Trade: trade, Execution: remote}))

	assert.True(t, o.Execution.FilledSize.Equal(decimal.NewFromInt(6)))
	assert.False(t, o.OutOfSync(), "local has caught up to the remote snapshot")
}

func TestApplyAdvancesCancellation(t *testing.T) {
	o := newTestOrder(decimal.NewFromInt(10))
	require.NoError(t, Apply(o, market, Update{Cancellation: schema.CancellationInFlight}))
	assert.Equal(t, schema.CancellationInFlight, o.Cancellation)

	require.NoError(t, Apply(o, market, Update{Cancellation: schema.CancellationCreated}))
	assert.Equal(t, schema.CancellationCreated, o.Cancellation)

	// Cancellation is terminal; a regression to in_flight is ignored.
	require.NoError(t, Apply(o, market, Update{Cancellation: schema.CancellationInFlight}))
	assert.Equal(t, schema.CancellationCreated, o.Cancellation)
}

func TestOutOfSyncOrdersFiltersIndex(t *testing.T) {
	inSync := newTestOrder(decimal.NewFromInt(10))
	behind := newTestOrder(decimal.NewFromInt(10))
	require.NoError(t, Apply(behind, market, Update{Execution: schema.OrderExecution{
		Status: schema.ExecutionPartiallyFilled, Side: schema.SideBuy, FilledSize: decimal.NewFromInt(3),
	}}))

	index := map[string]*Order{"in-sync": inSync, "behind": behind}
	out := OutOfSyncOrders(index)

	require.Len(t, out, 1)
	assert.Same(t, behind, out[0])
}
