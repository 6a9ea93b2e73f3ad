package config

import (
	"bytes"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikeluck/polymarket-copy-trading-bot/internal/domain"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/polymarket"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/sizing"
)

func lookupMap(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func testLogger(buf *bytes.Buffer) *log.Logger {
	return log.New(buf, "", 0)
}

func TestFromEnv_Defaults(t *testing.T) {
	var buf bytes.Buffer
	cfg := FromEnv(lookupMap(nil), testLogger(&buf))

	assert.Equal(t, DefaultTraderAddress, cfg.TraderAddress)
	assert.Equal(t, 1000.0, cfg.StartingCapital)
	assert.Equal(t, 7, cfg.HistoryDays)
	assert.Equal(t, 5000, cfg.MaxTrades)
	assert.Equal(t, 10.0, cfg.DetectionDelaySec)
	assert.Equal(t, 1.5, cfg.BaseSlippagePct)
	assert.Equal(t, 0.5, cfg.SlippagePer100Pct)
	assert.Equal(t, 0.0, cfg.FeePct)
	assert.Equal(t, polymarket.DefaultBaseURL, cfg.DataAPIURL)
	assert.Empty(t, cfg.MarketWSURL)
	assert.Equal(t, polymarket.DefaultTimeout, cfg.HTTPTimeout)

	s := cfg.CopyStrategy
	assert.Equal(t, domain.CopyStrategyPercentage, s.Strategy)
	assert.Equal(t, 10.0, s.CopySize)
	assert.Equal(t, 1.0, s.TradeMultiplier)
	assert.Equal(t, 1.0, s.MinOrderSizeUSD)
	assert.Equal(t, 100.0, s.MaxOrderSizeUSD)
	assert.Equal(t, 1000.0, s.AdaptiveReferenceCapital)
	assert.Equal(t, sizing.DefaultAdaptiveMinFactor, s.AdaptiveMinFactor)
	assert.Equal(t, sizing.DefaultAdaptiveMaxFactor, s.AdaptiveMaxFactor)

	assert.Empty(t, buf.String())
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg := FromEnv(lookupMap(map[string]string{
		"SIM_TRADER_ADDRESS":   "0xABCDEF",
		"SIM_STARTING_CAPITAL": "2500",
		"SIM_HISTORY_DAYS":     "14.9",
		"SIM_MAX_TRADES":       "800",
		"SIM_DELAY_SECONDS":    "0",
		"SIM_BASE_SLIPPAGE":    "2",
		"SIM_SLIPPAGE_PER_100": "0.25",
		"SIM_FEE_PERCENT":      "0.1",
		"SIM_STRATEGY":         "adaptive",
		"SIM_COPY_SIZE":        "20",
		"TRADE_MULTIPLIER":     "1.5",
		"SIM_MIN_ORDER_USD":    "2",
		"SIM_MAX_ORDER_USD":    "50",
		"SIM_RESULT_TAG":       " late entry/v2 ",
		"SIM_MARKET_WS_URL":    "ws://localhost:9000/ws/market",
		"SIM_HTTP_TIMEOUT":     "3s",
		"POSTGRES_DSN":         "postgres://localhost/sim",
	}), testLogger(&bytes.Buffer{}))

	assert.Equal(t, "0xabcdef", cfg.TraderAddress)
	assert.Equal(t, 2500.0, cfg.StartingCapital)
	assert.Equal(t, 14, cfg.HistoryDays)
	assert.Equal(t, 800, cfg.MaxTrades)
	assert.Equal(t, 0.0, cfg.DetectionDelaySec)
	assert.Equal(t, 2.0, cfg.BaseSlippagePct)
	assert.Equal(t, 0.25, cfg.SlippagePer100Pct)
	assert.Equal(t, 0.1, cfg.FeePct)
	assert.Equal(t, "late-entry-v2", cfg.ResultTag)
	assert.Equal(t, "ws://localhost:9000/ws/market", cfg.MarketWSURL)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "postgres://localhost/sim", cfg.PostgresDSN)

	s := cfg.CopyStrategy
	assert.Equal(t, domain.CopyStrategyAdaptive, s.Strategy)
	assert.Equal(t, 20.0, s.CopySize)
	assert.Equal(t, 1.5, s.TradeMultiplier)
	assert.Equal(t, 2.0, s.MinOrderSizeUSD)
	assert.Equal(t, 50.0, s.MaxOrderSizeUSD)
	assert.Equal(t, 2500.0, s.AdaptiveReferenceCapital)
}

func TestFromEnv_FixedDefaultSize(t *testing.T) {
	cfg := FromEnv(lookupMap(map[string]string{"SIM_STRATEGY": "FIXED"}), testLogger(&bytes.Buffer{}))
	assert.Equal(t, domain.CopyStrategyFixed, cfg.CopyStrategy.Strategy)
	assert.Equal(t, DefaultFixedCopySize, cfg.CopyStrategy.CopySize)
}

func TestFromEnv_CopyPercentageFallback(t *testing.T) {
	cfg := FromEnv(lookupMap(map[string]string{"COPY_PERCENTAGE": "7"}), testLogger(&bytes.Buffer{}))
	assert.Equal(t, 7.0, cfg.CopyStrategy.CopySize)

	cfg = FromEnv(lookupMap(map[string]string{
		"SIM_COPY_SIZE":   "3",
		"COPY_PERCENTAGE": "7",
	}), testLogger(&bytes.Buffer{}))
	assert.Equal(t, 3.0, cfg.CopyStrategy.CopySize)
}

func TestFromEnv_InvalidValuesFallBack(t *testing.T) {
	var buf bytes.Buffer
	cfg := FromEnv(lookupMap(map[string]string{
		"SIM_STARTING_CAPITAL": "-5",
		"SIM_HISTORY_DAYS":     "0.5",
		"SIM_MAX_TRADES":       "lots",
		"SIM_DELAY_SECONDS":    "-1",
		"SIM_BASE_SLIPPAGE":    "NaN",
		"SIM_SLIPPAGE_PER_100": "+Inf",
		"SIM_FEE_PERCENT":      "100",
		"SIM_STRATEGY":         "martingale",
		"SIM_COPY_SIZE":        "0",
		"TRADE_MULTIPLIER":     "abc",
		"SIM_HTTP_TIMEOUT":     "-2s",
	}), testLogger(&buf))

	assert.Equal(t, DefaultStartingCapital, cfg.StartingCapital)
	assert.Equal(t, DefaultHistoryDays, cfg.HistoryDays)
	assert.Equal(t, DefaultMaxTrades, cfg.MaxTrades)
	assert.Equal(t, DefaultDelaySeconds, cfg.DetectionDelaySec)
	assert.Equal(t, DefaultBaseSlippage, cfg.BaseSlippagePct)
	assert.Equal(t, DefaultSlippagePer100, cfg.SlippagePer100Pct)
	assert.Equal(t, DefaultFeePercent, cfg.FeePct)
	assert.Equal(t, domain.CopyStrategyPercentage, cfg.CopyStrategy.Strategy)
	assert.Equal(t, DefaultPercentCopySize, cfg.CopyStrategy.CopySize)
	assert.Equal(t, DefaultMultiplier, cfg.CopyStrategy.TradeMultiplier)
	assert.Equal(t, DefaultHTTPTimeout, cfg.HTTPTimeout)

	out := buf.String()
	assert.Contains(t, out, "SIM_STARTING_CAPITAL")
	assert.Contains(t, out, "SIM_STRATEGY")
	assert.Contains(t, out, "SIM_HTTP_TIMEOUT")
}

func TestFromEnv_BlankValuesAreUnset(t *testing.T) {
	var buf bytes.Buffer
	cfg := FromEnv(lookupMap(map[string]string{
		"SIM_TRADER_ADDRESS":   "   ",
		"SIM_STARTING_CAPITAL": "",
	}), testLogger(&buf))

	assert.Equal(t, DefaultTraderAddress, cfg.TraderAddress)
	assert.Equal(t, DefaultStartingCapital, cfg.StartingCapital)
	assert.Empty(t, buf.String())
}

func TestFromEnv_OrderBoundsInverted(t *testing.T) {
	var buf bytes.Buffer
	cfg := FromEnv(lookupMap(map[string]string{
		"SIM_MIN_ORDER_USD": "500",
		"SIM_MAX_ORDER_USD": "10",
	}), testLogger(&buf))

	assert.Equal(t, DefaultMinOrderUSD, cfg.CopyStrategy.MinOrderSizeUSD)
	assert.Equal(t, DefaultMaxOrderUSD, cfg.CopyStrategy.MaxOrderSizeUSD)
	assert.Contains(t, buf.String(), "exceeds")
}

func TestFromEnv_SizerAccepted(t *testing.T) {
	for _, name := range []string{"FIXED", "PERCENTAGE", "ADAPTIVE"} {
		cfg := FromEnv(lookupMap(map[string]string{"SIM_STRATEGY": name}), testLogger(&bytes.Buffer{}))
		_, err := sizing.FromConfig(cfg.CopyStrategy)
		require.NoError(t, err, name)
	}
}

func TestLoad_NoDotEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SIM_STARTING_CAPITAL", "1234")

	cfg, err := Load(testLogger(&bytes.Buffer{}))
	require.NoError(t, err)
	assert.Equal(t, 1234.0, cfg.StartingCapital)
}
