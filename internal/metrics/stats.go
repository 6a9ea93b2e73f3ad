package metrics

import (
	"math"
	"sort"

	"github.com/mikeluck/polymarket-copy-trading-bot/internal/domain"
)

// ClosedStats describes the distribution of realized P&L over closed positions.
type ClosedStats struct {
	Count   int
	Wins    int // PnL > 0
	Losses  int // PnL <= 0
	WinRate float64

	// PnL distribution (USD)
	MeanPnL   float64
	MedianPnL float64
	P10PnL    float64
	P90PnL    float64
	MinPnL    float64
	MaxPnL    float64
	StddevPnL float64

	// Order-dependent, positions taken in close order
	MaxDrawdown          float64
	MaxConsecutiveLosses int
}

// ComputeClosedStats computes ClosedStats over the closed positions.
// Positions are ordered by the timestamp of their last fill, ties broken
// by key, before the order-dependent figures are computed.
func ComputeClosedStats(positions []*domain.SimulatedPosition) ClosedStats {
	var closed []*domain.SimulatedPosition
	for _, p := range positions {
		if p.Closed {
			closed = append(closed, p)
		}
	}
	n := len(closed)
	if n == 0 {
		return ClosedStats{}
	}

	sort.SliceStable(closed, func(i, j int) bool {
		ti, tj := closedAt(closed[i]), closedAt(closed[j])
		if ti != tj {
			return ti < tj
		}
		return closed[i].Key() < closed[j].Key()
	})

	pnls := make([]float64, n)
	s := ClosedStats{Count: n}
	for i, p := range closed {
		pnls[i] = p.PnL
		if p.PnL > 0 {
			s.Wins++
		} else {
			s.Losses++
		}
	}

	sorted := make([]float64, n)
	copy(sorted, pnls)
	sort.Float64s(sorted)

	s.WinRate = float64(s.Wins) / float64(n)
	s.MeanPnL = mean(pnls)
	s.StddevPnL = stddev(pnls, s.MeanPnL)
	s.MedianPnL = percentile(sorted, 0.50)
	s.P10PnL = percentile(sorted, 0.10)
	s.P90PnL = percentile(sorted, 0.90)
	s.MinPnL = sorted[0]
	s.MaxPnL = sorted[n-1]
	s.MaxDrawdown = maxDrawdown(pnls)
	s.MaxConsecutiveLosses = maxConsecutiveLosses(pnls)

	return s
}

func closedAt(p *domain.SimulatedPosition) int64 {
	if len(p.Trades) == 0 {
		return 0
	}
	return p.Trades[len(p.Trades)-1].Timestamp
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the sample standard deviation (n-1 denominator).
func stddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// percentile uses linear interpolation. sorted must be ascending;
// p is a fraction (0.10 = 10th percentile).
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// maxDrawdown is the worst peak-to-trough drop of the cumulative sum.
func maxDrawdown(values []float64) float64 {
	cumulative, peak, worst := 0.0, 0.0, 0.0
	for _, v := range values {
		cumulative += v
		if cumulative > peak {
			peak = cumulative
		}
		if dd := peak - cumulative; dd > worst {
			worst = dd
		}
	}
	return worst
}

// maxConsecutiveLosses is the longest run of values <= 0.
func maxConsecutiveLosses(values []float64) int {
	longest, current := 0, 0
	for _, v := range values {
		if v <= 0 {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 0
		}
	}
	return longest
}
