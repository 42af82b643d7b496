package schema

import "github.com/shopspring/decimal"

// ExecutionStatus is the order lifecycle state named in §4.2.
type ExecutionStatus uint8

const (
	ExecutionUnspecified ExecutionStatus = iota
	ExecutionInFlight
	ExecutionCreated
	ExecutionPartiallyFilled
	ExecutionFilled
	ExecutionCancelled
	ExecutionRejected
)

func (s ExecutionStatus) String() string {
	switch s {
	case ExecutionInFlight:
		return "in_flight"
	case ExecutionCreated:
		return "created"
	case ExecutionPartiallyFilled:
		return "partially_filled"
	case ExecutionFilled:
		return "filled"
	case ExecutionCancelled:
		return "cancelled"
	case ExecutionRejected:
		return "rejected"
	default:
		return "unspecified"
	}
}

// Terminal reports whether the status accepts no further transitions.
func (s ExecutionStatus) Terminal() bool {
	switch s {
	case ExecutionFilled, ExecutionCancelled, ExecutionRejected:
		return true
	default:
		return false
	}
}

// CancellationStatus tracks the nil -> in_flight -> {created, rejected}
// chain from §4.2. CancellationNone represents the "nil" starting state.
type CancellationStatus uint8

const (
	CancellationNone CancellationStatus = iota
	CancellationInFlight
	CancellationCreated
	CancellationRejected
)

func (s CancellationStatus) String() string {
	switch s {
	case CancellationInFlight:
		return "in_flight"
	case CancellationCreated:
		return "created"
	case CancellationRejected:
		return "rejected"
	default:
		return "none"
	}
}

// Terminal reports whether cancellation accepts no further transitions.
// "created" is terminal per §4.2.
func (s CancellationStatus) Terminal() bool {
	return s == CancellationCreated
}

// OrderParameters are set once at order creation and never mutated.
type OrderParameters struct {
	TimeInForce TimeInForce
	Size        decimal.Decimal
	Side        Side
	Actor       Actor
	// Price is nil for a market/taker order without a resting price.
	Price *decimal.Decimal
}

// OrderExecution is the mutable fill state of an order (§4.2).
// execution.side always equals parameters.side; 0 <= filled_size <= parameters.size.
type OrderExecution struct {
	Status      ExecutionStatus
	Side        Side
	FilledSize  decimal.Decimal
	FilledValue decimal.Decimal
	FilledPrice decimal.Decimal
	Fee         *Fee
}

// Order is the aggregate root for one client-assigned order id.
type Order struct {
	ID           string
	MarketSymbol string
	Parameters   OrderParameters
	Execution    OrderExecution
	Cancellation CancellationStatus

	// ErrorCategory carries a taxonomy symbol (§7) when an operation on
	// this order failed; empty on success.
	ErrorCategory string
}

// NewOrder creates an order in the in_flight state with zero fills.
func NewOrder(id, marketSymbol string, params OrderParameters) Order {
	return Order{
		ID:           id,
		MarketSymbol: marketSymbol,
		Parameters:   params,
		Execution: OrderExecution{
			Status:      ExecutionInFlight,
			Side:        params.Side,
			FilledSize:  decimal.Zero,
			FilledValue: decimal.Zero,
		},
		Cancellation: CancellationNone,
	}
}

// Remaining is parameters.size - execution.filled_size.
func (o Order) Remaining() decimal.Decimal {
	return o.Parameters.Size.Sub(o.Execution.FilledSize)
}
