package schema

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSideOpposite(t *testing.T) {
	assert.Equal(t, SideSell, SideBuy.Opposite())
	assert.Equal(t, SideBuy, SideSell.Opposite())
	assert.Equal(t, SideUnspecified, SideUnspecified.Opposite())
}

func TestExecutionStatusTerminal(t *testing.T) {
	assert.True(t, ExecutionFilled.Terminal())
	assert.True(t, ExecutionCancelled.Terminal())
	assert.True(t, ExecutionRejected.Terminal())
	assert.False(t, ExecutionPartiallyFilled.Terminal())
	assert.False(t, ExecutionInFlight.Terminal())
}

func TestCancellationStatusTerminal(t *testing.T) {
	assert.True(t, CancellationCreated.Terminal())
	assert.False(t, CancellationInFlight.Terminal())
	assert.False(t, CancellationNone.Terminal())
}

func TestMarketValuePriceLinearRoundTrip(t *testing.T) {
	m := Market{Symbol: "BTC-USDT", Direction: DirectionLinear}
	size := decimal.NewFromInt(3)
	price := decimal.NewFromFloat(101.5)

	value := m.Value(size, price)
	require.True(t, value.Equal(decimal.NewFromFloat(304.5)))

	recovered := m.Price(size, value)
	assert.True(t, recovered.Equal(price))
}

func TestMarketValuePriceInverseRoundTrip(t *testing.T) {
	m := Market{Symbol: "BTC-USD-PERP", Direction: DirectionInverse}
	size := decimal.NewFromInt(100)
	price := decimal.NewFromInt(50000)

	value := m.Value(size, price)
	assert.True(t, value.Equal(size.Div(price)))

	recovered := m.Price(size, value)
	assert.True(t, recovered.Equal(price))
}

func TestMarketPriceZeroDivisorIsZero(t *testing.T) {
	linear := Market{Direction: DirectionLinear}
	assert.True(t, linear.Price(decimal.Zero, decimal.NewFromInt(10)).IsZero())

	inverse := Market{Direction: DirectionInverse}
	assert.True(t, inverse.Price(decimal.NewFromInt(5), decimal.Zero).IsZero())
}

func TestMarketRoundPriceAndSize(t *testing.T) {
	m := Market{PriceTick: decimal.NewFromFloat(0.5), LotSize: decimal.NewFromInt(1)}
	assert.True(t, m.RoundPrice(decimal.NewFromFloat(101.3)).Equal(decimal.NewFromFloat(101.5)))
	assert.True(t, m.RoundSize(decimal.NewFromFloat(2.6)).Equal(decimal.NewFromInt(3)))

	unrestricted := Market{}
	assert.True(t, unrestricted.RoundPrice(decimal.NewFromFloat(101.37)).Equal(decimal.NewFromFloat(101.37)))
}

func TestTransactionSignedSize(t *testing.T) {
	market := Market{Direction: DirectionLinear}
	buy := NewTransaction(market, decimal.NewFromInt(10), decimal.NewFromInt(2), SideBuy, ActorTaker)
	sell := NewTransaction(market, decimal.NewFromInt(10), decimal.NewFromInt(2), SideSell, ActorTaker)

	assert.True(t, buy.SignedSize().Equal(decimal.NewFromInt(2)))
	assert.True(t, sell.SignedSize().Equal(decimal.NewFromInt(-2)))
	assert.True(t, buy.Value.Equal(decimal.NewFromInt(20)))
}

func TestNewFeeSignFollowsRate(t *testing.T) {
	fee := NewFee(decimal.NewFromInt(1000), decimal.NewFromFloat(0.001), "USDT")
	assert.True(t, fee.BalanceChange.Equal(decimal.NewFromFloat(1)))

	rebate := NewFee(decimal.NewFromInt(1000), decimal.NewFromFloat(-0.0005), "USDT")
	assert.True(t, rebate.BalanceChange.IsNegative())
}

func TestOrderRemaining(t *testing.T) {
	o := NewOrder("o-1", "BTC-USDT", OrderParameters{Size: decimal.NewFromInt(10), Side: SideBuy})
	assert.True(t, o.Remaining().Equal(decimal.NewFromInt(10)))

	o.Execution.FilledSize = decimal.NewFromInt(4)
	assert.True(t, o.Remaining().Equal(decimal.NewFromInt(6)))
}

func TestNewOrderStartsInFlight(t *testing.T) {
	price := decimal.NewFromInt(100)
	o := NewOrder("o-2", "BTC-USDT", OrderParameters{Size: decimal.NewFromInt(1), Side: SideSell, Price: &price})
	assert.Equal(t, ExecutionInFlight, o.Execution.Status)
	assert.Equal(t, CancellationNone, o.Cancellation)
	assert.True(t, o.Execution.FilledSize.IsZero())
}

func TestCandleApplyTrade(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCandle(from, time.Minute, decimal.NewFromInt(100), decimal.NewFromInt(1))
	c.ApplyTrade(decimal.NewFromInt(105), decimal.NewFromInt(2))
	c.ApplyTrade(decimal.NewFromInt(95), decimal.NewFromInt(3))

	assert.True(t, c.High.Equal(decimal.NewFromInt(105)))
	assert.True(t, c.Low.Equal(decimal.NewFromInt(95)))
	assert.True(t, c.Close.Equal(decimal.NewFromInt(95)))
	assert.True(t, c.Volume.Equal(decimal.NewFromInt(6)))
	assert.EqualValues(t, 3, c.TradesCount)
}

func TestPositionIsFlat(t *testing.T) {
	assert.True(t, Position{}.IsFlat())

	zero := decimal.Zero
	assert.True(t, Position{Entry: &PositionEntry{Size: zero}}.IsFlat())

	one := decimal.NewFromInt(1)
	assert.False(t, Position{Entry: &PositionEntry{Size: one}}.IsFlat())
}
