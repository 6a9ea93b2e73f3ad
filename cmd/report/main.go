// Command report renders simulation results stored by simulate: a single
// result by ID, the run history of a trader, or the fill log of a run.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/mikeluck/polymarket-copy-trading-bot/internal/config"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/reporting"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/storage"
	chstore "github.com/mikeluck/polymarket-copy-trading-bot/internal/storage/clickhouse"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/storage/file"
	pgstore "github.com/mikeluck/polymarket-copy-trading-bot/internal/storage/postgres"
)

// Output formats for a single result.
const (
	formatText     = "text"
	formatMarkdown = "markdown"
	formatJSON     = "json"
)

var errNoQuery = errors.New("one of --id, --trader or --fills is required")

func main() {
	id := flag.String("id", "", "Render the stored result with this ID")
	trader := flag.String("trader", "", "List stored results for this trader address")
	fillsRun := flag.String("fills", "", "Print the fill log of this run ID as CSV (requires ClickHouse)")
	format := flag.String("format", formatText, "Output format for --id: text, markdown or json")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (overrides POSTGRES_DSN)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (overrides CLICKHOUSE_DSN)")
	resultsDir := flag.String("results-dir", "", "Results directory (overrides SIM_RESULTS_DIR)")
	flag.Parse()

	logger := log.New(os.Stderr, "[report] ", log.LstdFlags)

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *postgresDSN != "" {
		cfg.PostgresDSN = *postgresDSN
	}
	if *clickhouseDSN != "" {
		cfg.ClickhouseDSN = *clickhouseDSN
	}
	if *resultsDir != "" {
		cfg.ResultsDir = *resultsDir
	}

	ctx := context.Background()

	stores, err := openStores(ctx, cfg, *fillsRun != "")
	if err != nil {
		logger.Fatalf("open storage: %v", err)
	}
	defer stores.Close()

	q := query{ID: *id, Trader: *trader, FillsRun: *fillsRun, Format: *format}
	if err := run(ctx, os.Stdout, stores, q); err != nil {
		if errors.Is(err, errNoQuery) {
			flag.Usage()
		}
		logger.Fatalf("%v", err)
	}
}

// query selects what to render. Exactly one of ID, Trader and FillsRun is
// used, checked in that order.
type query struct {
	ID       string
	Trader   string
	FillsRun string
	Format   string
}

func run(ctx context.Context, w io.Writer, s *stores, q query) error {
	switch {
	case q.ID != "":
		res, err := s.results.GetByID(ctx, q.ID)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("result %s not found", q.ID)
		}
		if err != nil {
			return fmt.Errorf("get result: %w", err)
		}
		switch q.Format {
		case formatJSON:
			out, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			fmt.Fprintln(w, string(out))
		case formatMarkdown:
			fmt.Fprint(w, reporting.RenderMarkdown(reporting.NewReport(res)))
		case formatText, "":
			fmt.Fprint(w, reporting.RenderText(reporting.NewReport(res)))
		default:
			return fmt.Errorf("unknown format %q", q.Format)
		}
		return nil

	case q.Trader != "":
		results, err := s.results.GetByTrader(ctx, strings.ToLower(strings.TrimSpace(q.Trader)))
		if err != nil {
			return fmt.Errorf("list results: %w", err)
		}
		fmt.Fprint(w, reporting.RenderResultList(results))
		return nil

	case q.FillsRun != "":
		if s.fills == nil {
			return errors.New("fill log requires a ClickHouse DSN")
		}
		fills, err := s.fills.GetByRunID(ctx, q.FillsRun)
		if err != nil {
			return fmt.Errorf("get fills: %w", err)
		}
		out, err := reporting.RenderFillsCSV(fills)
		if err != nil {
			return fmt.Errorf("render fills: %w", err)
		}
		fmt.Fprint(w, out)
		return nil
	}

	return errNoQuery
}

// stores holds the read side of the backends simulate writes to.
type stores struct {
	results storage.ResultStore
	fills   storage.FillStore
	closers []func()
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStores reads results from PostgreSQL when a postgres DSN is set and
// from the results directory otherwise. The ClickHouse fill log is opened
// only when wantFills is set.
func openStores(ctx context.Context, cfg *config.Config, wantFills bool) (*stores, error) {
	s := &stores{}

	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, pool.Close)
		s.results = pgstore.NewResultStore(pool)
	} else {
		s.results = file.NewResultStore(cfg.ResultsDir)
	}

	if wantFills && cfg.ClickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, cfg.ClickhouseDSN)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, func() { conn.Close() })
		s.fills = chstore.NewFillStore(conn)
	}

	return s, nil
}
