package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultRetryDelay(t *testing.T) {
	d := DefaultRetryDelay()
	assert.Equal(t, 250*time.Millisecond, d.Min)
	assert.Equal(t, 5*time.Second, d.Max)
	assert.Equal(t, 2.0, d.Factor)
}

func TestRetryDelayGrowsWithAttemptAndCapsAtMax(t *testing.T) {
	r := RetryDelay{Min: 100 * time.Millisecond, Max: time.Second, Factor: 2}

	for attempt, wantCap := range map[int]time.Duration{
		1: 100 * time.Millisecond,
		2: 200 * time.Millisecond,
		3: 400 * time.Millisecond,
		4: 800 * time.Millisecond,
		5: time.Second, // 1.6s would exceed max, so it clamps
	} {
		for i := 0; i < 20; i++ {
			d := r.Next(attempt)
			assert.GreaterOrEqualf(t, d, time.Duration(0), "attempt %d", attempt)
			assert.Lessf(t, d, wantCap, "attempt %d should stay under its jitter cap", attempt)
		}
	}
}

func TestRetryDelayNonPositiveAttemptTreatedAsOne(t *testing.T) {
	r := RetryDelay{Min: 50 * time.Millisecond, Max: time.Second, Factor: 2}
	d := r.Next(0)
	assert.Less(t, d, 50*time.Millisecond)
}

func TestRetryDelayFillsInDefaultsForZeroFields(t *testing.T) {
	r := RetryDelay{}
	d := r.Next(1)
	assert.Less(t, d, 100*time.Millisecond)
}
