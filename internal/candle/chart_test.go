package candle

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyTradeOpensAndUpdatesBucket(t *testing.T) {
	chart := New(time.Minute)
	base := time.Date(2026, 1, 1, 0, 0, 10, 0, time.UTC)

	chart.ApplyTrade(base, decimal.NewFromInt(100), decimal.NewFromInt(1))
	chart.ApplyTrade(base.Add(20*time.Second), decimal.NewFromInt(105), decimal.NewFromInt(2))

	assert.Equal(t, 1, chart.Len(), "both trades land in the same minute bucket")

	latest, ok := chart.Latest()
	require.True(t, ok)
	assert.True(t, latest.Close.Equal(decimal.NewFromInt(105)))
	assert.True(t, latest.Volume.Equal(decimal.NewFromInt(3)))
}

func TestApplyTradeOpensNewBucketAcrossTimeframe(t *testing.T) {
	chart := New(time.Minute)
	first := time.Date(2026, 1, 1, 0, 0, 10, 0, time.UTC)
	second := first.Add(time.Minute)

	chart.ApplyTrade(first, decimal.NewFromInt(100), decimal.NewFromInt(1))
	chart.ApplyTrade(second, decimal.NewFromInt(110), decimal.NewFromInt(1))

	assert.Equal(t, 2, chart.Len())
}

func TestTailReturnsOldestFirst(t *testing.T) {
	chart := New(time.Minute)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		chart.ApplyTrade(start.Add(time.Duration(i)*time.Minute), decimal.NewFromInt(int64(100+i)), decimal.NewFromInt(1))
	}

	tail := chart.Tail(3)
	require.Len(t, tail, 3)
	assert.True(t, tail[0].Close.Equal(decimal.NewFromInt(102)))
	assert.True(t, tail[2].Close.Equal(decimal.NewFromInt(104)))
}
