package domain

// Side is the direction of a trade.
type Side string

// Side constants
const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Valid reports whether s is a known side.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Trade represents one historical fill by the source trader.
// Immutable once fetched.
type Trade struct {
	ID        string  `json:"id"`        // activity id, content hash when the API has none
	Timestamp int64   `json:"timestamp"` // unix seconds
	Market    string  `json:"market"`    // market slug, falls back to condition id
	Asset     string  `json:"asset"`     // outcome token id
	Side      Side    `json:"side"`
	Price     float64 `json:"price"`    // probability price in (0, 1)
	USDCSize  float64 `json:"usdcSize"` // notional in USDC
	Size      float64 `json:"size"`     // shares
	Outcome   string  `json:"outcome"`  // "Yes" | "No" | named outcome
}

// PositionKey returns the ledger key for the trade: asset:outcome.
func (t *Trade) PositionKey() string {
	return t.Asset + ":" + t.Outcome
}

// UnknownOutcome is used when the source trade carries no outcome label.
const UnknownOutcome = "Unknown"
