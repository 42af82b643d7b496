// Package schema defines the value-typed domain model shared by every
// subsystem in corehft: markets, transactions, trades, fees, balances,
// orders, positions and candles. Every numeric field is a
// shopspring/decimal value; nothing here uses float64 or a scaled
// integer, since order/position/fee arithmetic must be exact.
package schema

import "github.com/shopspring/decimal"

func init() {
	// The core requires arbitrary precision with at least 25 significant
	// digits; shopspring/decimal keeps full precision for +,-,* and only
	// needs a bound for the division path (inverse-market value, avg
	// price, pnl_rate).
	decimal.DivisionPrecision = 25
}

// Side is the direction of a transaction, order or position entry.
type Side uint8

const (
	SideUnspecified Side = iota
	SideBuy
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return "unspecified"
	}
}

// Opposite returns the other side. SideUnspecified maps to itself.
func (s Side) Opposite() Side {
	switch s {
	case SideBuy:
		return SideSell
	case SideSell:
		return SideBuy
	default:
		return s
	}
}

// Actor distinguishes liquidity providers (maker) from liquidity
// consumers (taker). ActorUnspecified lets a simulator try maker first
// and fall back to taker (open_orders, §4.6).
type Actor uint8

const (
	ActorUnspecified Actor = iota
	ActorMaker
	ActorTaker
)

func (a Actor) String() string {
	switch a {
	case ActorMaker:
		return "maker"
	case ActorTaker:
		return "taker"
	default:
		return "unspecified"
	}
}

// TimeInForce is an order parameter carried through unchanged; the core
// does not interpret it beyond storing it on OrderParameters.
type TimeInForce uint8

const (
	TimeInForceUnspecified TimeInForce = iota
	TimeInForceGTC
	TimeInForceIOC
	TimeInForceFOK
	TimeInForcePostOnly
)
