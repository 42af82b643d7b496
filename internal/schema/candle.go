package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle aggregates trades over [From, To) at a fixed Timeframe (§3).
// Invariants: From < To, To-From == Timeframe, Low <= Open,Close <= High,
// Volume >= 0.
type Candle struct {
	From        time.Time
	To          time.Time
	Timeframe   time.Duration
	Open        decimal.Decimal
	Close       decimal.Decimal
	High        decimal.Decimal
	Low         decimal.Decimal
	Volume      decimal.Decimal
	TradesCount int64
}

// NewCandle opens a candle bucket for [from, from+timeframe) seeded with
// a single trade.
func NewCandle(from time.Time, timeframe time.Duration, price, size decimal.Decimal) Candle {
	return Candle{
		From:        from,
		To:          from.Add(timeframe),
		Timeframe:   timeframe,
		Open:        price,
		Close:       price,
		High:        price,
		Low:         price,
		Volume:      size,
		TradesCount: 1,
	}
}

// ApplyTrade folds one more trade into the candle in place.
func (c *Candle) ApplyTrade(price, size decimal.Decimal) {
	c.Close = price
	if price.GreaterThan(c.High) {
		c.High = price
	}
	if price.LessThan(c.Low) {
		c.Low = price
	}
	c.Volume = c.Volume.Add(size)
	c.TradesCount++
}

// ApplyDelta folds an out-of-band OHLCV delta (e.g. a venue snapshot)
// into the candle without touching TradesCount, used when ingesting
// candle updates rather than raw trades.
func (c *Candle) ApplyDelta(high, low, volumeDelta decimal.Decimal, closePrice decimal.Decimal) {
	if high.GreaterThan(c.High) {
		c.High = high
	}
	if low.LessThan(c.Low) {
		c.Low = low
	}
	c.Volume = c.Volume.Add(volumeDelta)
	c.Close = closePrice
}
