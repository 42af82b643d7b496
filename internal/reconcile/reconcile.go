// Package reconcile implements the order-consistency reconciler (§4.4):
// an order extended with ingested-trade tracking and a remote-execution
// snapshot, tolerant of out-of-order, duplicated, or partial updates.
//
// Grounded on internal/og/gateway.go's update-application loop from the
// retrieval pack.
package reconcile

import (
	"github.com/quorumtrade/corehft/internal/orderstate"
	"github.com/quorumtrade/corehft/internal/schema"
)

// Order augments schema.Order with the two auxiliary fields §4.4
// requires for reconciliation.
type Order struct {
	schema.Order

	IngestedTradeIDs map[string]struct{}
	RemoteExecution  *schema.OrderExecution
}

// NewOrder wraps a freshly created order for reconciliation.
func NewOrder(o schema.Order) *Order {
	return &Order{Order: o, IngestedTradeIDs: make(map[string]struct{})}
}

// Update is one incoming venue message: an execution/cancellation
// snapshot and, optionally, the trade that produced it.
type Update struct {
	Trade        *schema.Trade
	Execution    schema.OrderExecution
	Cancellation schema.CancellationStatus
}

// Apply folds one update into the order per the four-step rule in §4.4.
func Apply(o *Order, market schema.Market, u Update) error {
	if u.Trade != nil {
		if _, seen := o.IngestedTradeIDs[u.Trade.ID]; !seen {
			updated, err := orderstate.IngestTrade(o.Order, market, *u.Trade)
			if err != nil {
				return err
			}
			o.Order = updated
			o.IngestedTradeIDs[u.Trade.ID] = struct{}{}
		}
	}

	if orderstate.ForwardEquivalent(o.Execution, u.Execution) {
		remote := u.Execution
		o.RemoteExecution = &remote
	}

	if o.RemoteExecution != nil &&
		orderstate.ValidExecutionTransition(o.Execution.Status, o.RemoteExecution.Status) &&
		o.RemoteExecution.FilledSize.Equal(o.Execution.FilledSize) {
		o.Execution.Status = o.RemoteExecution.Status
	}

	if orderstate.ValidCancellationTransition(o.Cancellation, u.Cancellation) {
		o.Cancellation = u.Cancellation
	}

	return nil
}

// OutOfSync reports whether o has a remote execution ahead of, or
// diverged from, the locally reconciled execution (§4.4): either the
// remote reports more filled size than has locally arrived, or the two
// snapshots have diverged outright.
func (o *Order) OutOfSync() bool {
	if o.RemoteExecution == nil {
		return false
	}
	if o.RemoteExecution.FilledSize.GreaterThan(o.Execution.FilledSize) {
		return true
	}
	return orderstate.Diverged(o.Execution, *o.RemoteExecution)
}

// OutOfSyncOrders scans an index for every order whose remote execution
// has outrun or diverged from the local one (§4.4's out_of_sync_orders).
func OutOfSyncOrders(index map[string]*Order) []*Order {
	var out []*Order
	for _, o := range index {
		if o.OutOfSync() {
			out = append(out, o)
		}
	}
	return out
}
