package reporting

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mikeluck/polymarket-copy-trading-bot/internal/domain"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/metrics"
)

// Listing limits
const (
	MaxOpenRows   = 10
	MaxClosedRows = 5
	MaxMarketLen  = 50
)

// Report is the presentation view of one simulation result.
type Report struct {
	Result *domain.SimulationResult
	Params domain.SimulationParams

	// Positions (first-seen order, truncated to the listing limits)
	Open        []PositionRow
	Closed      []PositionRow
	OpenCount   int
	ClosedCount int

	// Skip reasons sorted by count DESC, reason ASC
	SkipReasons []SkipReasonRow

	ClosedStats metrics.ClosedStats
}

// PositionRow is one listed position.
type PositionRow struct {
	Market   string // truncated to MaxMarketLen
	Outcome  string
	Invested float64
	Value    float64
	PnL      float64
}

// SkipReasonRow counts skipped trades for one reason.
type SkipReasonRow struct {
	Reason string
	Count  int
}

// NewReport builds the report view of res.
func NewReport(res *domain.SimulationResult) *Report {
	r := &Report{
		Result:      res,
		ClosedStats: metrics.ComputeClosedStats(res.Positions),
	}
	if res.Parameters != nil {
		r.Params = *res.Parameters
	}

	for _, pos := range res.Positions {
		row := PositionRow{
			Market:   marketLabel(pos.Market),
			Outcome:  pos.Outcome,
			Invested: pos.Invested,
			Value:    pos.CurrentValue,
			PnL:      pos.PnL,
		}
		if pos.Closed {
			r.ClosedCount++
			if len(r.Closed) < MaxClosedRows {
				r.Closed = append(r.Closed, row)
			}
		} else {
			r.OpenCount++
			if len(r.Open) < MaxOpenRows {
				r.Open = append(r.Open, row)
			}
		}
	}

	for reason, count := range res.SkipReasons {
		r.SkipReasons = append(r.SkipReasons, SkipReasonRow{Reason: reason, Count: count})
	}
	sort.Slice(r.SkipReasons, func(i, j int) bool {
		if r.SkipReasons[i].Count != r.SkipReasons[j].Count {
			return r.SkipReasons[i].Count > r.SkipReasons[j].Count
		}
		return r.SkipReasons[i].Reason < r.SkipReasons[j].Reason
	})

	return r
}

func marketLabel(market string) string {
	if market == "" {
		market = "Unknown market"
	}
	runes := []rune(market)
	if len(runes) > MaxMarketLen {
		return string(runes[:MaxMarketLen])
	}
	return market
}

// fixed rounds v half away from zero to places decimals.
func fixed(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

// usd renders $12.34.
func usd(v float64) string {
	return "$" + fixed(v, 2)
}

// signedUSD renders +$12.34 or -$12.34.
func signedUSD(v float64) string {
	if v < 0 {
		return "-$" + fixed(-v, 2)
	}
	return "+$" + fixed(v, 2)
}

// signedPct renders +1.23% or -1.23%.
func signedPct(v float64) string {
	if v < 0 {
		return fixed(v, 2) + "%"
	}
	return "+" + fixed(v, 2) + "%"
}

// plain renders v with the fewest digits needed.
func plain(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).String()
}
