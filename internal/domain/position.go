package domain

// Fill is one simulated execution recorded against a position.
// Append-only: fills are never removed or modified.
type Fill struct {
	Timestamp       int64   `json:"timestamp"` // source trade timestamp, unix seconds
	Side            Side    `json:"side"`
	TraderPrice     float64 `json:"traderPrice"`
	YourPrice       float64 `json:"yourPrice"` // slipped fill price
	Size            float64 `json:"size"`      // shares
	USDCSize        float64 `json:"usdcSize"`  // BUY: order + fee, SELL: net proceeds
	SlippagePercent float64 `json:"slippagePercent"`
	SlippageCost    float64 `json:"slippageCost"`
}

// SimulatedPosition is the copy trader's holding for one asset:outcome key.
// Invariants: SharesHeld >= 0; once Closed, PnL is frozen and the position
// never reopens.
type SimulatedPosition struct {
	Market       string   `json:"market"`
	Outcome      string   `json:"outcome"`
	Asset        string   `json:"asset"`
	SharesHeld   float64  `json:"sharesHeld"`
	EntryPrice   float64  `json:"entryPrice"` // fill price of the opening BUY
	ExitPrice    *float64 `json:"exitPrice"`  // nil until the first SELL
	Invested     float64  `json:"invested"`   // total BUY cost including fees
	CurrentValue float64  `json:"currentValue"`
	PnL          float64  `json:"pnl"`
	Closed       bool     `json:"closed"`
	Trades       []Fill   `json:"trades"`
}

// Key returns the ledger key: asset:outcome.
func (p *SimulatedPosition) Key() string {
	return p.Asset + ":" + p.Outcome
}

// RealizedPnL returns cumulative SELL proceeds minus cumulative BUY cost
// across the fill log.
func (p *SimulatedPosition) RealizedPnL() float64 {
	var bought, sold float64
	for _, f := range p.Trades {
		switch f.Side {
		case SideBuy:
			bought += f.USDCSize
		case SideSell:
			sold += f.USDCSize
		}
	}
	return sold - bought
}

// Clone returns a deep copy of the position.
func (p *SimulatedPosition) Clone() *SimulatedPosition {
	c := *p
	if p.ExitPrice != nil {
		v := *p.ExitPrice
		c.ExitPrice = &v
	}
	c.Trades = append([]Fill(nil), p.Trades...)
	return &c
}

// FillRecord is a fill flattened with its run and position for analytics storage.
type FillRecord struct {
	FillID   string // deterministic, see idhash.ComputeFillID
	RunID    string
	Trader   string
	Market   string
	Asset    string
	Outcome  string
	Sequence int // index of the fill within its position
	Fill
}
