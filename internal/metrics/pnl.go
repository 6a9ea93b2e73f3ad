package metrics

import (
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/domain"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/ledger"
)

// Input is the end state of a ledger replay.
type Input struct {
	Positions       []*domain.SimulatedPosition // marked in place
	Cash            float64
	StartingCapital float64
	Stats           ledger.Stats
	Marks           map[string]float64 // asset -> live price, optional
}

// Summary holds the capital and P&L figures of a run plus the marked positions.
type Summary struct {
	CurrentCapital     float64
	CurrentValue       float64 // cash + open position value
	RealizedPnL        float64
	UnrealizedPnL      float64
	TotalPnL           float64
	ROI                float64 // percent of starting capital
	AvgSlippagePercent float64
	MarksApplied       int
	Positions          []*domain.SimulatedPosition
}

// Summarize marks open positions to live prices and computes run P&L.
//
//   - open positions: CurrentValue = shares * mark when a mark exists,
//     PnL = CurrentValue - Invested, summed as unrealized
//   - closed positions: frozen PnL, summed as realized
//   - CurrentCapital = cash + sum of open CurrentValue
//   - TotalPnL = CurrentCapital - StartingCapital
//   - ROI = TotalPnL / StartingCapital * 100
func Summarize(in Input) Summary {
	s := Summary{Positions: in.Positions}

	var openValue float64
	for _, pos := range in.Positions {
		if pos.Closed {
			s.RealizedPnL += pos.PnL
			continue
		}

		if mark, ok := in.Marks[pos.Asset]; ok && validMark(mark) {
			pos.CurrentValue = pos.SharesHeld * mark
			s.MarksApplied++
		}
		pos.PnL = pos.CurrentValue - pos.Invested

		s.UnrealizedPnL += pos.PnL
		openValue += pos.CurrentValue
	}

	s.CurrentCapital = in.Cash + openValue
	s.CurrentValue = s.CurrentCapital
	s.TotalPnL = s.CurrentCapital - in.StartingCapital
	if in.StartingCapital > 0 {
		s.ROI = s.TotalPnL / in.StartingCapital * 100
	}
	if in.Stats.Copied > 0 {
		s.AvgSlippagePercent = in.Stats.TotalSlippagePercent / float64(in.Stats.Copied)
	}

	return s
}

// MarksFromPositions derives asset mark prices from the source trader's
// live positions as currentValue / size. Positions with no size are ignored.
func MarksFromPositions(live []domain.LivePosition) map[string]float64 {
	marks := make(map[string]float64, len(live))
	for i := range live {
		if price, ok := live[i].MarkPrice(); ok && validMark(price) {
			marks[live[i].Asset] = price
		}
	}
	return marks
}

// MergeMarks overlays newer marks onto base and returns base.
func MergeMarks(base, newer map[string]float64) map[string]float64 {
	if base == nil {
		base = make(map[string]float64, len(newer))
	}
	for asset, price := range newer {
		if validMark(price) {
			base[asset] = price
		}
	}
	return base
}

// validMark accepts prices in [0, 1]. Resolved losing outcomes mark at 0.
func validMark(p float64) bool {
	return p >= 0 && p <= 1
}
