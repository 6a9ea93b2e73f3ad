// Package config loads run configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mikeluck/polymarket-copy-trading-bot/internal/domain"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/polymarket"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/sizing"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/storage/file"
)

// Defaults
const (
	DefaultTraderAddress   = "0x7c3db723f1d4d8cb9c550095203b686cb11e5c6b"
	DefaultStartingCapital = 1000.0
	DefaultHistoryDays     = 7
	DefaultMaxTrades       = 5000
	DefaultDelaySeconds    = 10.0
	DefaultBaseSlippage    = 1.5
	DefaultSlippagePer100  = 0.5
	DefaultFeePercent      = 0.0
	DefaultMultiplier      = 1.0
	DefaultFixedCopySize   = 5.0
	DefaultPercentCopySize = 10.0
	DefaultMinOrderUSD     = 1.0
	DefaultMaxOrderUSD     = 100.0
	DefaultHTTPTimeout     = polymarket.DefaultTimeout
)

// Config is the immutable configuration of one simulation run.
type Config struct {
	TraderAddress     string
	StartingCapital   float64
	HistoryDays       int
	MaxTrades         int
	DetectionDelaySec float64 // informational, echoed into the result

	BaseSlippagePct   float64
	SlippagePer100Pct float64
	FeePct            float64

	CopyStrategy domain.CopyStrategyConfig
	ResultTag    string

	DataAPIURL  string
	MarketWSURL string // empty disables live market marks
	HTTPTimeout time.Duration

	CacheDir   string
	ResultsDir string

	PostgresDSN   string
	ClickhouseDSN string
}

// LookupFunc reads one environment variable.
type LookupFunc func(key string) (string, bool)

// Load reads .env (if present) into the process environment and builds the
// configuration from it.
func Load(logger *log.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.LookupEnv, logger), nil
}

// FromEnv builds the configuration from lookup. Missing values take their
// default; invalid values are forced back to the default with a warning.
func FromEnv(lookup LookupFunc, logger *log.Logger) *Config {
	if logger == nil {
		logger = log.Default()
	}
	e := env{lookup: lookup, logger: logger}

	cfg := &Config{
		TraderAddress:     strings.ToLower(e.str("SIM_TRADER_ADDRESS", DefaultTraderAddress)),
		StartingCapital:   e.float("SIM_STARTING_CAPITAL", DefaultStartingCapital, positive),
		HistoryDays:       e.count("SIM_HISTORY_DAYS", DefaultHistoryDays),
		MaxTrades:         e.count("SIM_MAX_TRADES", DefaultMaxTrades),
		DetectionDelaySec: e.float("SIM_DELAY_SECONDS", DefaultDelaySeconds, nonNegative),
		BaseSlippagePct:   e.float("SIM_BASE_SLIPPAGE", DefaultBaseSlippage, nonNegative),
		SlippagePer100Pct: e.float("SIM_SLIPPAGE_PER_100", DefaultSlippagePer100, nonNegative),
		FeePct:            e.float("SIM_FEE_PERCENT", DefaultFeePercent, percent),
		ResultTag:         domain.SanitizeTag(e.str("SIM_RESULT_TAG", "")),
		DataAPIURL:        e.str("SIM_DATA_API_URL", polymarket.DefaultBaseURL),
		MarketWSURL:       e.str("SIM_MARKET_WS_URL", ""),
		HTTPTimeout:       e.duration("SIM_HTTP_TIMEOUT", DefaultHTTPTimeout),
		CacheDir:          e.str("SIM_CACHE_DIR", file.DefaultCacheDir),
		ResultsDir:        e.str("SIM_RESULTS_DIR", file.DefaultResultsDir),
		PostgresDSN:       e.str("POSTGRES_DSN", ""),
		ClickhouseDSN:     e.str("CLICKHOUSE_DSN", ""),
	}

	strategy := domain.CopyStrategyPercentage
	if raw, ok := e.get("SIM_STRATEGY"); ok {
		if s, valid := domain.ParseCopyStrategy(raw); valid {
			strategy = s
		} else {
			logger.Printf("WARNING: invalid SIM_STRATEGY %q, using %s", raw, strategy)
		}
	}

	defaultSize := DefaultPercentCopySize
	if strategy == domain.CopyStrategyFixed {
		defaultSize = DefaultFixedCopySize
	}
	sizeKey := "SIM_COPY_SIZE"
	if _, ok := e.get(sizeKey); !ok {
		sizeKey = "COPY_PERCENTAGE"
	}

	cfg.CopyStrategy = domain.CopyStrategyConfig{
		Strategy:                 strategy,
		CopySize:                 e.float(sizeKey, defaultSize, positive),
		TradeMultiplier:          e.float("TRADE_MULTIPLIER", DefaultMultiplier, positive),
		MinOrderSizeUSD:          e.float("SIM_MIN_ORDER_USD", DefaultMinOrderUSD, positive),
		MaxOrderSizeUSD:          e.float("SIM_MAX_ORDER_USD", DefaultMaxOrderUSD, positive),
		AdaptiveReferenceCapital: cfg.StartingCapital,
		AdaptiveMinFactor:        e.float("SIM_ADAPTIVE_MIN_FACTOR", sizing.DefaultAdaptiveMinFactor, positive),
		AdaptiveMaxFactor:        e.float("SIM_ADAPTIVE_MAX_FACTOR", sizing.DefaultAdaptiveMaxFactor, positive),
	}

	if cfg.CopyStrategy.MinOrderSizeUSD > cfg.CopyStrategy.MaxOrderSizeUSD {
		logger.Printf("WARNING: SIM_MIN_ORDER_USD %v exceeds SIM_MAX_ORDER_USD %v, using defaults",
			cfg.CopyStrategy.MinOrderSizeUSD, cfg.CopyStrategy.MaxOrderSizeUSD)
		cfg.CopyStrategy.MinOrderSizeUSD = DefaultMinOrderUSD
		cfg.CopyStrategy.MaxOrderSizeUSD = DefaultMaxOrderUSD
	}
	if cfg.CopyStrategy.AdaptiveMinFactor > cfg.CopyStrategy.AdaptiveMaxFactor {
		logger.Printf("WARNING: SIM_ADAPTIVE_MIN_FACTOR %v exceeds SIM_ADAPTIVE_MAX_FACTOR %v, using defaults",
			cfg.CopyStrategy.AdaptiveMinFactor, cfg.CopyStrategy.AdaptiveMaxFactor)
		cfg.CopyStrategy.AdaptiveMinFactor = sizing.DefaultAdaptiveMinFactor
		cfg.CopyStrategy.AdaptiveMaxFactor = sizing.DefaultAdaptiveMaxFactor
	}

	return cfg
}
