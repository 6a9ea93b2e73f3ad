package domain

import (
	"strings"
)

// CopyStrategy selects how the copy order size is derived from a source trade.
type CopyStrategy string

// Copy strategy constants
const (
	CopyStrategyFixed      CopyStrategy = "FIXED"
	CopyStrategyPercentage CopyStrategy = "PERCENTAGE"
	CopyStrategyAdaptive   CopyStrategy = "ADAPTIVE"
)

// ParseCopyStrategy maps a case-insensitive name to a CopyStrategy.
// Returns false for unknown names.
func ParseCopyStrategy(name string) (CopyStrategy, bool) {
	switch CopyStrategy(strings.ToUpper(strings.TrimSpace(name))) {
	case CopyStrategyFixed:
		return CopyStrategyFixed, true
	case CopyStrategyPercentage:
		return CopyStrategyPercentage, true
	case CopyStrategyAdaptive:
		return CopyStrategyAdaptive, true
	default:
		return "", false
	}
}

// CopyStrategyConfig represents order sizing parameters. Immutable per run.
type CopyStrategyConfig struct {
	Strategy        CopyStrategy `json:"strategy"`
	CopySize        float64      `json:"copySize"`        // USD for FIXED, percent of source notional otherwise
	TradeMultiplier float64      `json:"tradeMultiplier"` // applied after the strategy formula
	MinOrderSizeUSD float64      `json:"minOrderSizeUSD"`
	MaxOrderSizeUSD float64      `json:"maxOrderSizeUSD"`

	// ADAPTIVE parameters
	AdaptiveReferenceCapital float64 `json:"adaptiveReferenceCapital,omitempty"` // capital at which the factor is 1
	AdaptiveMinFactor        float64 `json:"adaptiveMinFactor,omitempty"`
	AdaptiveMaxFactor        float64 `json:"adaptiveMaxFactor,omitempty"`
}

// SizeLabel renders the copy size for result names: "5usd" for FIXED, "10pct" otherwise.
func (c CopyStrategyConfig) SizeLabel() string {
	unit := "pct"
	if c.Strategy == CopyStrategyFixed {
		unit = "usd"
	}
	return trimFloat(c.CopySize) + unit
}
