// Package orderstate implements the order execution/cancellation state
// machine (§4.2): legal transitions, forward-equivalence and divergence
// predicates, and trade ingestion into an order's execution.
//
// Grounded on internal/og/state_machine.go's transition-table style from
// the retrieval pack's order gateway.
package orderstate

import (
	"github.com/shopspring/decimal"

	"github.com/quorumtrade/corehft/internal/schema"
	"github.com/quorumtrade/corehft/internal/xerrors"
)

var executionTransitions = map[schema.ExecutionStatus]map[schema.ExecutionStatus]bool{
	schema.ExecutionInFlight: {
		schema.ExecutionCreated:         true,
		schema.ExecutionPartiallyFilled: true,
		schema.ExecutionFilled:          true,
		schema.ExecutionRejected:        true,
	},
	schema.ExecutionCreated: {
		schema.ExecutionPartiallyFilled: true,
		schema.ExecutionFilled:          true,
		schema.ExecutionCancelled:       true,
	},
	schema.ExecutionPartiallyFilled: {
		schema.ExecutionPartiallyFilled: true,
		schema.ExecutionFilled:          true,
		schema.ExecutionCancelled:       true,
	},
}

// ValidExecutionTransition reports whether from->to is a legal execution
// transition per §4.2. Terminal states admit no further transitions,
// including a no-op self-transition.
func ValidExecutionTransition(from, to schema.ExecutionStatus) bool {
	return executionTransitions[from][to]
}

var cancellationTransitions = map[schema.CancellationStatus]map[schema.CancellationStatus]bool{
	schema.CancellationNone: {
		schema.CancellationInFlight: true,
	},
	schema.CancellationInFlight: {
		schema.CancellationCreated:  true,
		schema.CancellationRejected: true,
	},
}

// ValidCancellationTransition reports whether from->to is a legal
// cancellation transition; "created" is terminal.
func ValidCancellationTransition(from, to schema.CancellationStatus) bool {
	return cancellationTransitions[from][to]
}

// ForwardEquivalent reports whether execution o2 is a forward-equivalent
// successor of o1 (§4.2): the transition must be legal, and additionally
// one of: o2 reaches cancelled with filled_size(o2) <= filled_size(o1);
// the pair is not both partially_filled; or filled_size(o2) >
// filled_size(o1).
func ForwardEquivalent(o1, o2 schema.OrderExecution) bool {
	if !ValidExecutionTransition(o1.Status, o2.Status) {
		return false
	}
	if o2.Status == schema.ExecutionCancelled && o2.FilledSize.LessThanOrEqual(o1.FilledSize) {
		return true
	}
	if !(o1.Status == schema.ExecutionPartiallyFilled && o2.Status == schema.ExecutionPartiallyFilled) {
		return true
	}
	return o2.FilledSize.GreaterThan(o1.FilledSize)
}

// Diverged reports whether o1 and o2 are mutually non-forward-equivalent
// updates that nonetheless disagree on (size,status) — a signal of
// source-of-truth corruption that callers must surface rather than
// silently resolve.
func Diverged(o1, o2 schema.OrderExecution) bool {
	if ForwardEquivalent(o1, o2) || ForwardEquivalent(o2, o1) {
		return false
	}
	return o1.Status != o2.Status || !o1.FilledSize.Equal(o2.FilledSize)
}

// IngestTrade validates and applies a fill trade to an order's execution
// (§4.2). It returns *xerrors.Error with category InvalidParams if the
// trade's side mismatches the order or overfills it.
func IngestTrade(order schema.Order, market schema.Market, t schema.Trade) (schema.Order, error) {
	if t.Side != order.Parameters.Side {
		return order, xerrors.New(xerrors.InvalidParams, "orderstate.IngestTrade", nil)
	}
	if t.Size.GreaterThan(order.Remaining()) {
		return order, xerrors.New(xerrors.InvalidParams, "orderstate.IngestTrade", nil)
	}

	exec := order.Execution
	newSize := exec.FilledSize.Add(t.Size)
	newValue := exec.FilledValue.Add(t.Value)
	newPrice := market.Price(newSize, newValue)

	var fee *schema.Fee
	switch {
	case exec.Fee == nil:
		fee = t.Fee
	case t.Fee == nil:
		fee = exec.Fee
	default:
		// Rate is kept from the first fill rather than recomputed from
		// the combined balance change; on a venue that varies its fee
		// rate across fills for the same order this can leave
		// sign(Rate) and sign(BalanceChange) out of step.
		combined := *exec.Fee
		combined.BalanceChange = exec.Fee.BalanceChange.Add(t.Fee.BalanceChange)
		fee = &combined
	}

	status := schema.ExecutionPartiallyFilled
	if newSize.Equal(order.Parameters.Size) {
		status = schema.ExecutionFilled
	}
	if !ValidExecutionTransition(exec.Status, status) {
		return order, xerrors.New(xerrors.InvalidParams, "orderstate.IngestTrade", nil)
	}

	order.Execution = schema.OrderExecution{
		Status:      status,
		Side:        exec.Side,
		FilledSize:  newSize,
		FilledValue: newValue,
		FilledPrice: newPrice,
		Fee:         fee,
	}
	return order, nil
}

// AvgPrice folds a new (size,price) sample into a running average,
// exposed for callers that need the primitive independent of a full
// order (e.g. the position accounting package's increase case).
func AvgPrice(market schema.Market, oldSize, oldPrice, newSize, newPrice decimal.Decimal) decimal.Decimal {
	oldValue := market.Value(oldSize, oldPrice)
	addValue := market.Value(newSize, newPrice)
	totalSize := oldSize.Add(newSize)
	return market.Price(totalSize, oldValue.Add(addValue))
}
