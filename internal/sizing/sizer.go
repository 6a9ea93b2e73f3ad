// Package sizing computes copy order sizes from source trades.
package sizing

import (
	"math"

	"github.com/mikeluck/polymarket-copy-trading-bot/internal/domain"
)

// Reasons attached to orders that cannot be placed.
const (
	ReasonNonPositive         = "non-positive order amount"
	ReasonBelowMinimum        = "below minimum order size"
	ReasonInsufficientCapital = "insufficient capital"
)

// Order is the result of sizing one source trade.
// When BelowMinimum is set, FinalAmount is 0 and the trade must be skipped.
type Order struct {
	FinalAmount  float64
	BelowMinimum bool
	Reason       string
}

// Sizer computes the USD amount to copy for a source trade.
// Implementations are pure functions of their inputs.
type Sizer interface {
	// Size returns the order for a source trade of sourceUSD notional given
	// the copy trader's current cash.
	Size(sourceUSD, currentCapital float64) Order

	// Strategy returns the strategy variant implemented by the sizer.
	Strategy() domain.CopyStrategy
}

// bounds holds the clamp shared by all strategies.
type bounds struct {
	min float64
	max float64
}

// finalize clamps raw to [min, max] and checks it against capital.
func (b bounds) finalize(raw, currentCapital float64) Order {
	if math.IsNaN(raw) || math.IsInf(raw, 0) || raw <= 0 {
		return skip(ReasonNonPositive)
	}

	amount := math.Min(math.Max(raw, b.min), b.max)
	if amount < b.min {
		return skip(ReasonBelowMinimum)
	}
	if currentCapital < amount {
		return skip(ReasonInsufficientCapital)
	}

	return Order{FinalAmount: amount}
}

func skip(reason string) Order {
	return Order{BelowMinimum: true, Reason: reason}
}

// FixedSizer copies a constant USD amount regardless of the source trade size.
type FixedSizer struct {
	bounds
	Amount     float64
	Multiplier float64
}

// NewFixedSizer creates a FIXED sizer.
func NewFixedSizer(amount, multiplier, minUSD, maxUSD float64) *FixedSizer {
	return &FixedSizer{
		bounds:     bounds{min: minUSD, max: maxUSD},
		Amount:     amount,
		Multiplier: multiplier,
	}
}

// Size returns clamp(amount * multiplier, min, max).
func (s *FixedSizer) Size(_ float64, currentCapital float64) Order {
	return s.finalize(s.Amount*s.Multiplier, currentCapital)
}

// Strategy returns FIXED.
func (s *FixedSizer) Strategy() domain.CopyStrategy {
	return domain.CopyStrategyFixed
}

// PercentageSizer copies a percentage of the source trade notional.
type PercentageSizer struct {
	bounds
	Percent    float64
	Multiplier float64
}

// NewPercentageSizer creates a PERCENTAGE sizer.
func NewPercentageSizer(percent, multiplier, minUSD, maxUSD float64) *PercentageSizer {
	return &PercentageSizer{
		bounds:     bounds{min: minUSD, max: maxUSD},
		Percent:    percent,
		Multiplier: multiplier,
	}
}

// Size returns clamp(sourceUSD * percent/100 * multiplier, min, max).
func (s *PercentageSizer) Size(sourceUSD, currentCapital float64) Order {
	return s.finalize(sourceUSD*(s.Percent/100)*s.Multiplier, currentCapital)
}

// Strategy returns PERCENTAGE.
func (s *PercentageSizer) Strategy() domain.CopyStrategy {
	return domain.CopyStrategyPercentage
}

// AdaptiveSizer copies a percentage of the source notional scaled by how much
// capital is left relative to a reference capital. A copy trader that has
// grown its cash sizes up, one that has drawn down sizes down.
//
//	factor = clamp(currentCapital / referenceCapital, minFactor, maxFactor)
//	amount = clamp(sourceUSD * percent/100 * multiplier * factor, min, max)
type AdaptiveSizer struct {
	bounds
	Percent          float64
	Multiplier       float64
	ReferenceCapital float64
	MinFactor        float64
	MaxFactor        float64
}

// NewAdaptiveSizer creates an ADAPTIVE sizer.
func NewAdaptiveSizer(percent, multiplier, minUSD, maxUSD, referenceCapital, minFactor, maxFactor float64) *AdaptiveSizer {
	return &AdaptiveSizer{
		bounds:           bounds{min: minUSD, max: maxUSD},
		Percent:          percent,
		Multiplier:       multiplier,
		ReferenceCapital: referenceCapital,
		MinFactor:        minFactor,
		MaxFactor:        maxFactor,
	}
}

// Size returns the capital-scaled percentage order.
func (s *AdaptiveSizer) Size(sourceUSD, currentCapital float64) Order {
	return s.finalize(sourceUSD*(s.Percent/100)*s.Multiplier*s.Factor(currentCapital), currentCapital)
}

// Factor returns the capital scaling factor for currentCapital.
func (s *AdaptiveSizer) Factor(currentCapital float64) float64 {
	f := currentCapital / s.ReferenceCapital
	return math.Min(math.Max(f, s.MinFactor), s.MaxFactor)
}

// Strategy returns ADAPTIVE.
func (s *AdaptiveSizer) Strategy() domain.CopyStrategy {
	return domain.CopyStrategyAdaptive
}

// Compile-time interface checks.
var (
	_ Sizer = (*FixedSizer)(nil)
	_ Sizer = (*PercentageSizer)(nil)
	_ Sizer = (*AdaptiveSizer)(nil)
)
