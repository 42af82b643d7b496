package schema

import "time"

// Trade is a single execution on a market, produced by a live feed or by
// the simulator (§3). id is unique per (MarketSymbol, ID); timestamps are
// monotonic within one stream.
type Trade struct {
	ID           string
	MarketSymbol string
	Timestamp    time.Time
	Transaction
	Fee *Fee
}
