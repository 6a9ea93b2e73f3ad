package sizing

import (
	"errors"
	"math"

	"github.com/mikeluck/polymarket-copy-trading-bot/internal/domain"
)

// Default ADAPTIVE factor bounds.
const (
	DefaultAdaptiveMinFactor = 0.5
	DefaultAdaptiveMaxFactor = 2.0
)

// Factory errors
var (
	ErrUnknownStrategy         = errors.New("unknown copy strategy")
	ErrInvalidCopySize         = errors.New("copy size must be a finite positive number")
	ErrInvalidMultiplier       = errors.New("trade multiplier must be a finite positive number")
	ErrInvalidOrderBounds      = errors.New("order bounds must satisfy 0 < min <= max")
	ErrMissingReferenceCapital = errors.New("ADAPTIVE requires a positive reference capital")
	ErrInvalidFactorBounds     = errors.New("ADAPTIVE factor bounds must satisfy 0 < min <= max")
)

// FromConfig creates the Sizer for cfg.Strategy.
// The variant is selected once here; callers only see the Sizer interface.
func FromConfig(cfg domain.CopyStrategyConfig) (Sizer, error) {
	if !positive(cfg.CopySize) {
		return nil, ErrInvalidCopySize
	}
	if !positive(cfg.TradeMultiplier) {
		return nil, ErrInvalidMultiplier
	}
	if !positive(cfg.MinOrderSizeUSD) || !positive(cfg.MaxOrderSizeUSD) || cfg.MinOrderSizeUSD > cfg.MaxOrderSizeUSD {
		return nil, ErrInvalidOrderBounds
	}

	switch cfg.Strategy {
	case domain.CopyStrategyFixed:
		return NewFixedSizer(cfg.CopySize, cfg.TradeMultiplier, cfg.MinOrderSizeUSD, cfg.MaxOrderSizeUSD), nil
	case domain.CopyStrategyPercentage:
		return NewPercentageSizer(cfg.CopySize, cfg.TradeMultiplier, cfg.MinOrderSizeUSD, cfg.MaxOrderSizeUSD), nil
	case domain.CopyStrategyAdaptive:
		return fromAdaptiveConfig(cfg)
	default:
		return nil, ErrUnknownStrategy
	}
}

// fromAdaptiveConfig creates AdaptiveSizer from config, filling default factor bounds.
func fromAdaptiveConfig(cfg domain.CopyStrategyConfig) (*AdaptiveSizer, error) {
	if !positive(cfg.AdaptiveReferenceCapital) {
		return nil, ErrMissingReferenceCapital
	}

	minFactor := cfg.AdaptiveMinFactor
	if minFactor == 0 {
		minFactor = DefaultAdaptiveMinFactor
	}
	maxFactor := cfg.AdaptiveMaxFactor
	if maxFactor == 0 {
		maxFactor = DefaultAdaptiveMaxFactor
	}
	if !positive(minFactor) || !positive(maxFactor) || minFactor > maxFactor {
		return nil, ErrInvalidFactorBounds
	}

	return NewAdaptiveSizer(
		cfg.CopySize,
		cfg.TradeMultiplier,
		cfg.MinOrderSizeUSD,
		cfg.MaxOrderSizeUSD,
		cfg.AdaptiveReferenceCapital,
		minFactor,
		maxFactor,
	), nil
}

func positive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
