// Command simulate replays a Polymarket trader's recent history through the
// copy-trading model and reports how a copy trader would have performed.
// Run parameters come from the environment (and .env); flags select storage
// and output.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mikeluck/polymarket-copy-trading-bot/internal/config"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/domain"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/feed"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/observability"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/polymarket"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/reporting"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/simulation"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/storage"
	chstore "github.com/mikeluck/polymarket-copy-trading-bot/internal/storage/clickhouse"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/storage/file"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/storage/memory"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/storage/migrations"
	pgstore "github.com/mikeluck/polymarket-copy-trading-bot/internal/storage/postgres"
)

func main() {
	// Storage
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string for trade cache and results (overrides POSTGRES_DSN)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string for the fill log (overrides CLICKHOUSE_DSN)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage (nothing is written to disk)")
	cacheDir := flag.String("cache-dir", "", "Trade cache directory (overrides SIM_CACHE_DIR)")
	resultsDir := flag.String("results-dir", "", "Results directory (overrides SIM_RESULTS_DIR)")

	// Data sources
	marketWS := flag.String("market-ws", "", "CLOB market websocket URL for live marks (overrides SIM_MARKET_WS_URL)")
	streamWindow := flag.Duration("stream-window", simulation.DefaultStreamWindow, "How long to collect live market prices")
	retries := flag.Int("retries", 0, "Retries for rate-limited data API requests")

	// Output
	outputJSON := flag.Bool("json", false, "Output result as JSON")
	outputMarkdown := flag.Bool("markdown", false, "Output report as Markdown")
	csvPath := flag.String("csv", "", "Write positions CSV to this path")
	noProgress := flag.Bool("no-progress", false, "Disable progress bars")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[simulate] ", log.LstdFlags)

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	applyFlags(cfg, *postgresDSN, *clickhouseDSN, *cacheDir, *resultsDir, *marketWS)

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	// Create stores
	stores, err := openStores(ctx, cfg, *useMemory, logger)
	if err != nil {
		logger.Fatalf("open storage: %v", err)
	}
	defer stores.Close()

	// Data sources
	client := polymarket.NewHTTPClient(cfg.DataAPIURL,
		polymarket.WithTimeout(cfg.HTTPTimeout),
		polymarket.WithMaxRetries(*retries),
	)

	feedOpts := []feed.Option{feed.WithLogger(logger)}
	var replayBar *progressbar.ProgressBar
	if !*noProgress {
		fetchBar := progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Fetching trades..."),
			progressbar.OptionShowCount(),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionClearOnFinish(),
		)
		defer fetchBar.Finish()
		feedOpts = append(feedOpts, feed.WithProgress(func(fetched int) {
			fetchBar.Set(fetched)
		}))
	}

	opts := simulation.RunnerOptions{
		Trades:      feed.New(client, stores.cache, feedOpts...),
		Positions:   client,
		ResultStore: stores.results,
		FillStore:   stores.fills,
		Logger:      logger,
	}
	if cfg.MarketWSURL != "" {
		opts.Stream = polymarket.NewMarketStream(cfg.MarketWSURL, nil)
	}
	if !*noProgress {
		opts.OnTrade = func(done, total int) {
			if replayBar == nil {
				replayBar = newReplayBar(total)
			}
			replayBar.Set(done)
		}
	}

	params := simulation.Params{
		TraderAddress:     cfg.TraderAddress,
		StartingCapital:   cfg.StartingCapital,
		HistoryDays:       cfg.HistoryDays,
		MaxTrades:         cfg.MaxTrades,
		DetectionDelaySec: cfg.DetectionDelaySec,
		BaseSlippagePct:   cfg.BaseSlippagePct,
		SlippagePer100Pct: cfg.SlippagePer100Pct,
		FeePct:            cfg.FeePct,
		CopyStrategy:      cfg.CopyStrategy,
		ResultTag:         cfg.ResultTag,
		StreamWindow:      *streamWindow,
	}

	logger.Printf("Running simulation: trader=%s capital=$%.2f strategy=%s size=%s multiplier=%gx window=%dd max_trades=%d",
		params.TraderAddress, params.StartingCapital, params.CopyStrategy.Strategy,
		params.CopyStrategy.SizeLabel(), params.CopyStrategy.TradeMultiplier, params.HistoryDays, params.MaxTrades)

	start := time.Now()
	result, err := simulation.NewRunner(opts).Run(ctx, params)
	if replayBar != nil {
		replayBar.Finish()
	}
	if err != nil {
		logger.Fatalf("simulation failed: %v", err)
	}
	logger.Printf("Simulation completed in %v", time.Since(start).Round(time.Millisecond))
	if stores.resultPath != nil {
		logger.Printf("Results saved to: %s", stores.resultPath(result))
	}

	// Output result
	report := reporting.NewReport(result)
	switch {
	case *outputJSON:
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
	case *outputMarkdown:
		fmt.Print(reporting.RenderMarkdown(report))
	default:
		fmt.Print(reporting.RenderText(report))
	}

	if *csvPath != "" {
		csv, err := reporting.RenderPositionsCSV(result)
		if err != nil {
			logger.Fatalf("render positions csv: %v", err)
		}
		if err := os.WriteFile(*csvPath, []byte(csv), 0o644); err != nil {
			logger.Fatalf("write positions csv: %v", err)
		}
		logger.Printf("Positions written to: %s", *csvPath)
	}
}

// applyFlags overrides configuration values with non-empty flags.
func applyFlags(cfg *config.Config, postgresDSN, clickhouseDSN, cacheDir, resultsDir, marketWS string) {
	if postgresDSN != "" {
		cfg.PostgresDSN = postgresDSN
	}
	if clickhouseDSN != "" {
		cfg.ClickhouseDSN = clickhouseDSN
	}
	if cacheDir != "" {
		cfg.CacheDir = cacheDir
	}
	if resultsDir != "" {
		cfg.ResultsDir = resultsDir
	}
	if marketWS != "" {
		cfg.MarketWSURL = marketWS
	}
}

func newReplayBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Replaying trades..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

// stores holds the backends selected for a run.
type stores struct {
	cache      storage.TradeCacheStore
	results    storage.ResultStore
	fills      storage.FillStore
	resultPath func(*domain.SimulationResult) string // set for file results
	closers    []func()
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStores selects storage backends:
//   - --use-memory: in-memory cache, results and fills
//   - otherwise JSON files for cache and results, replaced by PostgreSQL
//     when a postgres DSN is set; fills go to ClickHouse when a clickhouse
//     DSN is set and are not stored otherwise
func openStores(ctx context.Context, cfg *config.Config, useMemory bool, logger *log.Logger) (*stores, error) {
	s := &stores{}

	if useMemory {
		s.cache = memory.NewTradeCacheStore()
		s.results = memory.NewResultStore()
		s.fills = memory.NewFillStore()
		return s, nil
	}

	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, pool.Close)

		applied, err := migrations.RunPostgresMigrations(ctx, pool)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		if applied > 0 {
			logger.Printf("Applied %d PostgreSQL migration(s)", applied)
		}
		s.cache = pgstore.NewTradeCacheStore(pool)
		s.results = pgstore.NewResultStore(pool)
		logger.Printf("Using PostgreSQL for trade cache and results")
	} else {
		s.cache = file.NewTradeCacheStore(cfg.CacheDir)
		results := file.NewResultStore(cfg.ResultsDir)
		s.results = results
		s.resultPath = results.Path
	}

	if cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		s.closers = append(s.closers, func() { conn.Close() })
		s.fills = chstore.NewFillStore(conn)
		logger.Printf("Using ClickHouse for the fill log")
	}

	return s, nil
}
