// Package chaostest injects drop/duplicate/reorder/delay faults into a
// stream of updates, for exercising the reconciler's out-of-order and
// duplicate-trade handling (§4.4) and the resilient transport's
// recovery path under adverse network conditions.
//
// Grounded on internal/chaos/engine.go's drop/duplicate/reorder-window/
// delay design from the retrieval pack, generalized from a fixed
// wire-format Event (schema.EventHeader no longer exists) to a type
// parameter so it can inject faults into schema.Trade streams,
// reconcile.Update streams, or raw websocket frames alike. Delay is
// expressed as a caller-scheduled duration rather than mutated into a
// removed timestamp field.
package chaostest

import (
	"fmt"
	"math/rand"
	"time"
)

// Config controls chaos injection behavior.
type Config struct {
	Seed          int64
	DropRate      float64
	DuplicateRate float64
	ReorderWindow int
	MaxDelay      time.Duration
}

// Validate ensures the config is within supported ranges.
func (c Config) Validate() error {
	if c.DropRate < 0 || c.DropRate > 1 {
		return fmt.Errorf("dropRate must be between 0 and 1")
	}
	if c.DuplicateRate < 0 || c.DuplicateRate > 1 {
		return fmt.Errorf("duplicateRate must be between 0 and 1")
	}
	if c.ReorderWindow <= 0 {
		return fmt.Errorf("reorderWindow must be >= 1")
	}
	if c.MaxDelay < 0 {
		return fmt.Errorf("maxDelay must be >= 0")
	}
	return nil
}

// Delivery is one chaos-injected output: Value should be delivered to the
// system under test after waiting Delay.
type Delivery[T any] struct {
	Value T
	Delay time.Duration
}

// Engine applies chaos rules to a stream of values of type T.
type Engine[T any] struct {
	cfg     Config
	rng     *rand.Rand
	pending []T
}

// NewEngine creates a chaos engine with validation.
func NewEngine[T any](cfg Config) (*Engine[T], error) {
	if cfg.ReorderWindow <= 0 {
		cfg.ReorderWindow = 1
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UTC().UnixNano()
	}
	return &Engine[T]{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Process applies chaos to a single value and returns zero or more
// deliveries (zero if dropped or buffered for reordering, two if
// duplicated).
func (e *Engine[T]) Process(v T) []Delivery[T] {
	if e == nil {
		return []Delivery[T]{{Value: v}}
	}
	if e.shouldDrop() {
		return nil
	}
	delay := e.rollDelay()
	if e.cfg.ReorderWindow <= 1 {
		return e.applyDuplicate(v, delay)
	}
	e.pending = append(e.pending, v)
	if len(e.pending) < e.cfg.ReorderWindow {
		return nil
	}
	idx := e.rng.Intn(len(e.pending))
	out := e.pending[idx]
	e.pending = append(e.pending[:idx], e.pending[idx+1:]...)
	return e.applyDuplicate(out, delay)
}

// Flush drains any values buffered for reordering, in random order.
func (e *Engine[T]) Flush() []Delivery[T] {
	if e == nil || len(e.pending) == 0 {
		return nil
	}
	out := make([]Delivery[T], 0, len(e.pending))
	for len(e.pending) > 0 {
		idx := e.rng.Intn(len(e.pending))
		v := e.pending[idx]
		e.pending = append(e.pending[:idx], e.pending[idx+1:]...)
		out = append(out, e.applyDuplicate(v, e.rollDelay())...)
	}
	return out
}

func (e *Engine[T]) shouldDrop() bool {
	return e.cfg.DropRate > 0 && e.rng.Float64() < e.cfg.DropRate
}

func (e *Engine[T]) applyDuplicate(v T, delay time.Duration) []Delivery[T] {
	out := []Delivery[T]{{Value: v, Delay: delay}}
	if e.cfg.DuplicateRate > 0 && e.rng.Float64() < e.cfg.DuplicateRate {
		out = append(out, Delivery[T]{Value: v, Delay: e.rollDelay()})
	}
	return out
}

func (e *Engine[T]) rollDelay() time.Duration {
	maxDelay := e.cfg.MaxDelay.Nanoseconds()
	if maxDelay <= 0 {
		return 0
	}
	return time.Duration(e.rng.Int63n(maxDelay + 1))
}
