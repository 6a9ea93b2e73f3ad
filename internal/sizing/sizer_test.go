package sizing

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikeluck/polymarket-copy-trading-bot/internal/domain"
)

func baseConfig(strategy domain.CopyStrategy, copySize float64) domain.CopyStrategyConfig {
	return domain.CopyStrategyConfig{
		Strategy:                 strategy,
		CopySize:                 copySize,
		TradeMultiplier:          1.0,
		MinOrderSizeUSD:          1,
		MaxOrderSizeUSD:          100,
		AdaptiveReferenceCapital: 1000,
	}
}

func TestFixedSizer_IndependentOfSourceSize(t *testing.T) {
	s, err := FromConfig(baseConfig(domain.CopyStrategyFixed, 5))
	require.NoError(t, err)

	for _, source := range []float64{0.5, 10, 1000, 250000} {
		order := s.Size(source, 1000)
		assert.False(t, order.BelowMinimum, "source=%v", source)
		assert.InDelta(t, 5.0, order.FinalAmount, 1e-12, "source=%v", source)
	}
}

func TestFixedSizer_ClampsToBounds(t *testing.T) {
	tests := []struct {
		name       string
		amount     float64
		multiplier float64
		want       float64
	}{
		{"within bounds", 20, 1, 20},
		{"multiplier applied", 20, 2.5, 50},
		{"raised to minimum", 0.25, 1, 1},
		{"capped at maximum", 80, 2, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewFixedSizer(tt.amount, tt.multiplier, 1, 100)
			order := s.Size(0, 10000)
			require.False(t, order.BelowMinimum)
			assert.InDelta(t, tt.want, order.FinalAmount, 1e-12)
		})
	}
}

func TestPercentageSizer_Formula(t *testing.T) {
	tests := []struct {
		name       string
		percent    float64
		multiplier float64
		source     float64
		want       float64
	}{
		{"ten percent", 10, 1, 200, 20},
		{"with multiplier", 10, 2, 200, 40},
		{"raised to minimum", 10, 1, 3, 1},
		{"capped at maximum", 10, 1, 5000, 100},
		{"fractional percent", 2.5, 1, 400, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewPercentageSizer(tt.percent, tt.multiplier, 1, 100)
			order := s.Size(tt.source, 10000)
			require.False(t, order.BelowMinimum)
			assert.InDelta(t, tt.want, order.FinalAmount, 1e-12)
		})
	}
}

func TestSizer_InsufficientCapital(t *testing.T) {
	s := NewPercentageSizer(10, 1, 1, 100)

	order := s.Size(500, 49.99)
	assert.True(t, order.BelowMinimum)
	assert.Equal(t, 0.0, order.FinalAmount)
	assert.Equal(t, ReasonInsufficientCapital, order.Reason)

	order = s.Size(500, 50)
	assert.False(t, order.BelowMinimum)
	assert.InDelta(t, 50.0, order.FinalAmount, 1e-12)
}

func TestSizer_CapitalBelowMinimum(t *testing.T) {
	s := NewFixedSizer(5, 1, 1, 100)

	order := s.Size(10, 0.5)
	assert.True(t, order.BelowMinimum)
	assert.Equal(t, 0.0, order.FinalAmount)
}

func TestSizer_NonPositiveSourceIsSkipped(t *testing.T) {
	s := NewPercentageSizer(10, 1, 1, 100)

	for _, source := range []float64{0, -10, math.NaN(), math.Inf(1)} {
		order := s.Size(source, 1000)
		assert.True(t, order.BelowMinimum, "source=%v", source)
		assert.Equal(t, 0.0, order.FinalAmount, "source=%v", source)
		assert.Equal(t, ReasonNonPositive, order.Reason, "source=%v", source)
	}
}

// Any order that is placed respects [min, max] and never exceeds capital.
func TestSizer_Properties(t *testing.T) {
	sizers := []Sizer{
		NewFixedSizer(5, 1.3, 2, 50),
		NewPercentageSizer(15, 0.7, 2, 50),
		NewAdaptiveSizer(15, 1, 2, 50, 1000, 0.5, 2),
	}
	sources := []float64{0.01, 1, 7.5, 33, 100, 999, 12345}
	capitals := []float64{0, 1, 2, 10, 49, 500, 5000}

	for _, s := range sizers {
		for _, src := range sources {
			for _, capital := range capitals {
				order := s.Size(src, capital)
				if order.BelowMinimum {
					assert.Equal(t, 0.0, order.FinalAmount)
					continue
				}
				assert.GreaterOrEqual(t, order.FinalAmount, 2.0, "%s src=%v cap=%v", s.Strategy(), src, capital)
				assert.LessOrEqual(t, order.FinalAmount, 50.0, "%s src=%v cap=%v", s.Strategy(), src, capital)
				assert.LessOrEqual(t, order.FinalAmount, capital, "%s src=%v cap=%v", s.Strategy(), src, capital)
			}
		}
	}
}

func TestAdaptiveSizer_ScalesWithCapital(t *testing.T) {
	s := NewAdaptiveSizer(10, 1, 1, 1000, 1000, 0.5, 2)

	// At the reference capital the factor is 1.
	assert.InDelta(t, 1.0, s.Factor(1000), 1e-12)
	assert.InDelta(t, 20.0, s.Size(200, 1000).FinalAmount, 1e-12)

	// Half the capital halves the order.
	assert.InDelta(t, 10.0, s.Size(200, 500).FinalAmount, 1e-12)

	// Factor is bounded.
	assert.InDelta(t, 0.5, s.Factor(10), 1e-12)
	assert.InDelta(t, 2.0, s.Factor(50000), 1e-12)
	assert.InDelta(t, 40.0, s.Size(200, 50000).FinalAmount, 1e-12)
}

func TestFromConfig_Variants(t *testing.T) {
	tests := []struct {
		strategy domain.CopyStrategy
		want     Sizer
	}{
		{domain.CopyStrategyFixed, (*FixedSizer)(nil)},
		{domain.CopyStrategyPercentage, (*PercentageSizer)(nil)},
		{domain.CopyStrategyAdaptive, (*AdaptiveSizer)(nil)},
	}

	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			s, err := FromConfig(baseConfig(tt.strategy, 10))
			require.NoError(t, err)
			assert.IsType(t, tt.want, s)
			assert.Equal(t, tt.strategy, s.Strategy())
		})
	}
}

func TestFromConfig_AdaptiveDefaults(t *testing.T) {
	s, err := FromConfig(baseConfig(domain.CopyStrategyAdaptive, 10))
	require.NoError(t, err)

	a := s.(*AdaptiveSizer)
	assert.Equal(t, DefaultAdaptiveMinFactor, a.MinFactor)
	assert.Equal(t, DefaultAdaptiveMaxFactor, a.MaxFactor)
	assert.Equal(t, 1000.0, a.ReferenceCapital)
}

func TestFromConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.CopyStrategyConfig)
		wantErr error
	}{
		{"unknown strategy", func(c *domain.CopyStrategyConfig) { c.Strategy = "KELLY" }, ErrUnknownStrategy},
		{"zero copy size", func(c *domain.CopyStrategyConfig) { c.CopySize = 0 }, ErrInvalidCopySize},
		{"nan copy size", func(c *domain.CopyStrategyConfig) { c.CopySize = math.NaN() }, ErrInvalidCopySize},
		{"negative multiplier", func(c *domain.CopyStrategyConfig) { c.TradeMultiplier = -1 }, ErrInvalidMultiplier},
		{"min above max", func(c *domain.CopyStrategyConfig) { c.MinOrderSizeUSD = 200 }, ErrInvalidOrderBounds},
		{"zero max", func(c *domain.CopyStrategyConfig) { c.MaxOrderSizeUSD = 0 }, ErrInvalidOrderBounds},
		{"adaptive without reference", func(c *domain.CopyStrategyConfig) {
			c.Strategy = domain.CopyStrategyAdaptive
			c.AdaptiveReferenceCapital = 0
		}, ErrMissingReferenceCapital},
		{"adaptive inverted factors", func(c *domain.CopyStrategyConfig) {
			c.Strategy = domain.CopyStrategyAdaptive
			c.AdaptiveMinFactor = 3
			c.AdaptiveMaxFactor = 1
		}, ErrInvalidFactorBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig(domain.CopyStrategyPercentage, 10)
			tt.mutate(&cfg)

			_, err := FromConfig(cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
