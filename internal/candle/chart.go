// Package candle wraps schema.Candle in a time-ordered chart, keyed by
// bucket start time, supporting the tail-window queries indicator
// formulas need (§4.1, "candle chart (tail windows for indicators)").
//
// Grounded on internal/mdg/generator.go's candle-bucket bookkeeping from
// the retrieval pack.
package candle

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/quorumtrade/corehft/internal/schema"
	"github.com/quorumtrade/corehft/internal/sortedmap"
)

func ascendingTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

// Chart is a time-ordered series of fixed-timeframe candles for one
// market.
type Chart struct {
	Timeframe time.Duration
	buckets   *sortedmap.Map[time.Time, schema.Candle]
}

// New creates an empty chart at the given timeframe.
func New(timeframe time.Duration) *Chart {
	return &Chart{
		Timeframe: timeframe,
		buckets:   sortedmap.New[time.Time, schema.Candle](ascendingTime),
	}
}

func (c *Chart) bucketStart(ts time.Time) time.Time {
	return ts.Truncate(c.Timeframe)
}

// ApplyTrade folds a trade into the bucket it falls in, opening a new
// bucket if none exists yet for that timeframe slot.
func (c *Chart) ApplyTrade(ts time.Time, price, size decimal.Decimal) {
	from := c.bucketStart(ts)
	bucket, ok := c.buckets.Get(from)
	if !ok {
		c.buckets.Insert(from, schema.NewCandle(from, c.Timeframe, price, size))
		return
	}
	bucket.ApplyTrade(price, size)
	c.buckets.Insert(from, bucket)
}

// Latest returns the most recently opened candle.
func (c *Chart) Latest() (schema.Candle, bool) {
	_, v, ok := c.buckets.Last()
	return v, ok
}

// Tail returns up to n most recent candles, oldest first, for indicator
// windows (moving averages, ATR, ...).
func (c *Chart) Tail(n int) []schema.Candle {
	entries := c.buckets.Tail(n)
	out := make([]schema.Candle, len(entries))
	for i, e := range entries {
		out[i] = e.Val
	}
	return out
}

// Len returns the number of buckets currently held.
func (c *Chart) Len() int {
	return c.buckets.Len()
}
