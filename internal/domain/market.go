package domain

// LivePosition is the source trader's current holding as reported by the
// positions endpoint. Used only as a mark price source.
type LivePosition struct {
	Asset        string  `json:"asset"`
	ConditionID  string  `json:"conditionId"`
	Size         float64 `json:"size"`
	AvgPrice     float64 `json:"avgPrice"`
	InitialValue float64 `json:"initialValue"`
	CurrentValue float64 `json:"currentValue"`
	CashPnL      float64 `json:"cashPnl"`
	PercentPnL   float64 `json:"percentPnl"`
	TotalBought  float64 `json:"totalBought"`
	RealizedPnL  float64 `json:"realizedPnl"`
	CurPrice     float64 `json:"curPrice"`
	Title        string  `json:"title"`
	Slug         string  `json:"slug"`
	Outcome      string  `json:"outcome"`
}

// MarkPrice returns CurrentValue/Size, or false when Size is not positive.
func (p *LivePosition) MarkPrice() (float64, bool) {
	if p.Size <= 0 {
		return 0, false
	}
	return p.CurrentValue / p.Size, true
}
