package schema

import "github.com/shopspring/decimal"

// Balance tracks available funds for one asset (§3). Available is
// non-negative unless the caller enables margin, which the core does not
// model directly — callers that allow negative balances simply skip the
// non-negative invariant.
type Balance struct {
	Asset     string
	Available decimal.Decimal
}

// ApplyChange returns the balance after adding a signed delta (fee
// balance_change or trade proceeds).
func (b Balance) ApplyChange(delta decimal.Decimal) Balance {
	next := b
	next.Available = b.Available.Add(delta)
	return next
}

// Invariant reports whether Available respects the non-negative
// invariant; margin-enabled callers are expected to ignore violations.
func (b Balance) Invariant() bool {
	return !b.Available.IsNegative()
}
