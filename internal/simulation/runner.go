// Package simulation runs one copy-trading simulation end to end: fetch the
// source trader's history, replay it through the ledger, mark the remaining
// positions and persist the result.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mikeluck/polymarket-copy-trading-bot/internal/domain"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/execution"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/feed"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/idhash"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/ledger"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/metrics"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/observability"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/sizing"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/storage"
)

// DefaultStreamWindow bounds how long live market prices are collected.
const DefaultStreamWindow = 5 * time.Second

// Runner errors
var (
	ErrInvalidAddress = errors.New("trader address is required")
	ErrInvalidCapital = errors.New("starting capital must be a positive number")
	ErrNoTradeSource  = errors.New("trade source is required")
)

// TradeSource yields the trader's history in time order.
type TradeSource interface {
	Fetch(ctx context.Context, address string, windowDays, maxTrades int) (*feed.Result, error)
}

// PositionSource reports the trader's live positions.
type PositionSource interface {
	Positions(ctx context.Context, address string) ([]domain.LivePosition, error)
}

// PriceStream collects live prices per asset.
type PriceStream interface {
	Collect(ctx context.Context, assets []string, window time.Duration) (map[string]float64, error)
}

// Params is the configuration of one run. Immutable for the run.
type Params struct {
	TraderAddress     string
	StartingCapital   float64
	HistoryDays       int
	MaxTrades         int
	DetectionDelaySec float64
	BaseSlippagePct   float64
	SlippagePer100Pct float64
	FeePct            float64
	CopyStrategy      domain.CopyStrategyConfig
	ResultTag         string
	StreamWindow      time.Duration // 0 uses DefaultStreamWindow
}

// Runner executes simulations.
type Runner struct {
	trades       TradeSource
	positions    PositionSource
	stream       PriceStream
	resultStore  storage.ResultStore
	fillStore    storage.FillStore
	logger       *log.Logger
	now          func() time.Time
	onTrade      func(done, total int)
	sellFraction ledger.FractionEstimator
}

// RunnerOptions contains configuration for creating a Runner.
// Only Trades is required.
type RunnerOptions struct {
	Trades      TradeSource
	Positions   PositionSource
	Stream      PriceStream
	ResultStore storage.ResultStore
	FillStore   storage.FillStore
	Logger      *log.Logger
	Clock       func() time.Time
	OnTrade     func(done, total int) // called after each replayed trade

	// SellFraction replaces ledger.SellFraction when set.
	SellFraction ledger.FractionEstimator
}

// NewRunner creates a simulation runner.
func NewRunner(opts RunnerOptions) *Runner {
	r := &Runner{
		trades:      opts.Trades,
		positions:   opts.Positions,
		stream:      opts.Stream,
		resultStore: opts.ResultStore,
		fillStore:   opts.FillStore,
		logger:      opts.Logger,
		now:         opts.Clock,
		onTrade:     opts.OnTrade,

		sellFraction: opts.SellFraction,
	}
	if r.logger == nil {
		r.logger = log.Default()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Run executes one simulation.
// Steps:
//  1. Build sizer and execution model from params
//  2. Fetch trade history
//  3. Replay trades through the ledger in time order
//  4. Collect mark prices (live positions, then market stream)
//  5. Summarize P&L
//  6. Build and persist the result and its fills
func (r *Runner) Run(ctx context.Context, p Params) (res *domain.SimulationResult, err error) {
	start := r.now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		observability.RecordRun(status, r.now().Sub(start).Seconds())
	}()

	if r.trades == nil {
		return nil, ErrNoTradeSource
	}
	address := strings.ToLower(strings.TrimSpace(p.TraderAddress))
	if address == "" {
		return nil, ErrInvalidAddress
	}
	if !(p.StartingCapital > 0) {
		return nil, ErrInvalidCapital
	}

	// 1. Sizer and execution model
	cs := p.CopyStrategy
	if cs.Strategy == domain.CopyStrategyAdaptive && cs.AdaptiveReferenceCapital == 0 {
		cs.AdaptiveReferenceCapital = p.StartingCapital
	}
	sizer, err := sizing.FromConfig(cs)
	if err != nil {
		return nil, fmt.Errorf("copy strategy: %w", err)
	}
	model := execution.NewModel(p.BaseSlippagePct, p.SlippagePer100Pct, p.FeePct)

	// 2. Trade history
	fetched, err := r.trades.Fetch(ctx, address, p.HistoryDays, p.MaxTrades)
	if err != nil {
		return nil, fmt.Errorf("fetch trades: %w", err)
	}

	// 3. Replay
	r.logger.Printf("Simulating %d trades with $%.2f starting capital", len(fetched.Trades), p.StartingCapital)
	var ledgerOpts []ledger.Option
	if r.sellFraction != nil {
		ledgerOpts = append(ledgerOpts, ledger.WithSellFraction(r.sellFraction))
	}
	l := ledger.New(p.StartingCapital, sizer, model, ledgerOpts...)
	for i, t := range fetched.Trades {
		out := l.Apply(t)
		if out.Copied {
			observability.RecordTradeCopied(string(t.Side))
		} else {
			observability.RecordTradeSkipped(string(out.Skip))
		}
		if r.onTrade != nil {
			r.onTrade(i+1, len(fetched.Trades))
		}
	}
	positions := l.Positions()
	stats := l.Stats()

	// 4. Marks
	marks, err := r.marks(ctx, address, positions, p.StreamWindow)
	if err != nil {
		return nil, err
	}

	// 5. Summary
	summary := metrics.Summarize(metrics.Input{
		Positions:       positions,
		Cash:            l.Cash(),
		StartingCapital: p.StartingCapital,
		Stats:           stats,
		Marks:           marks,
	})

	// 6. Result
	now := r.now()
	res = buildResult(address, p, cs, stats, summary, now)

	// Result last: a failed fill write leaves no stored result
	if r.fillStore != nil {
		if fills := FillRecords(res); len(fills) > 0 {
			if err := r.fillStore.InsertBulk(ctx, fills); err != nil {
				return nil, fmt.Errorf("save fills: %w", err)
			}
		}
	}
	if r.resultStore != nil {
		if err := r.resultStore.Insert(ctx, res); err != nil {
			return nil, fmt.Errorf("save result: %w", err)
		}
	}

	observability.RecordRunResult(res.ROI, now.Unix())
	return res, nil
}

// marks gathers mark prices for open positions. Live positions come first
// and a failure to fetch them aborts the run. Market stream prices overlay
// them; a stream failure is logged and the live marks are kept.
func (r *Runner) marks(ctx context.Context, address string, positions []*domain.SimulatedPosition, window time.Duration) (map[string]float64, error) {
	assets := openAssets(positions)
	if len(assets) == 0 {
		return nil, nil
	}

	var marks map[string]float64
	if r.positions != nil {
		live, err := r.positions.Positions(ctx, address)
		if err != nil {
			return nil, fmt.Errorf("fetch positions: %w", err)
		}
		marks = metrics.MarksFromPositions(live)
	}

	if r.stream != nil {
		if window <= 0 {
			window = DefaultStreamWindow
		}
		prices, err := r.stream.Collect(ctx, assets, window)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.logger.Printf("WARNING: market stream: %v", err)
		}
		marks = metrics.MergeMarks(marks, prices)
	}

	return marks, nil
}

// openAssets returns the distinct assets of open positions in first-seen order.
func openAssets(positions []*domain.SimulatedPosition) []string {
	seen := make(map[string]bool)
	var assets []string
	for _, pos := range positions {
		if pos.Closed || pos.Asset == "" || seen[pos.Asset] {
			continue
		}
		seen[pos.Asset] = true
		assets = append(assets, pos.Asset)
	}
	return assets
}

func buildResult(address string, p Params, cs domain.CopyStrategyConfig, stats ledger.Stats, s metrics.Summary, now time.Time) *domain.SimulationResult {
	ts := now.UnixMilli()
	return &domain.SimulationResult{
		ID:            fmt.Sprintf("sim_realistic_%s_%d", domain.ShortAddress(address, 8), ts),
		Name:          fmt.Sprintf("%s_%s_%dd_%s_realistic", cs.Strategy, domain.ShortAddress(address, 6), p.HistoryDays, cs.SizeLabel()),
		Logic:         strings.ToLower(string(cs.Strategy)) + "_realistic",
		Timestamp:     ts,
		TraderAddress: address,

		StartingCapital: p.StartingCapital,
		CurrentCapital:  s.CurrentCapital,

		TotalTrades:   stats.TotalTrades,
		CopiedTrades:  stats.Copied,
		SkippedTrades: stats.Skipped,

		TotalInvested: stats.TotalInvested,
		CurrentValue:  s.CurrentValue,
		RealizedPnL:   s.RealizedPnL,
		UnrealizedPnL: s.UnrealizedPnL,
		TotalPnL:      s.TotalPnL,
		ROI:           s.ROI,

		TotalSlippageCost:  stats.TotalSlippageCost,
		AvgSlippagePercent: s.AvgSlippagePercent,

		Positions:   s.Positions,
		SkipReasons: stats.SkipReasons,
		Parameters: &domain.SimulationParams{
			HistoryDays:       p.HistoryDays,
			MaxTrades:         p.MaxTrades,
			DetectionDelaySec: p.DetectionDelaySec,
			BaseSlippagePct:   p.BaseSlippagePct,
			SlippagePer100Pct: p.SlippagePer100Pct,
			TransactionFeePct: p.FeePct,
			CopyStrategy:      cs,
			ResultTag:         domain.SanitizeTag(p.ResultTag),
			LiveMarksApplied:  s.MarksApplied,
		},
	}
}

// FillRecords flattens the fills of every position in res, in position
// order, into analytics rows keyed by a deterministic fill id.
func FillRecords(res *domain.SimulationResult) []*domain.FillRecord {
	var out []*domain.FillRecord
	for _, pos := range res.Positions {
		key := pos.Key()
		for i, f := range pos.Trades {
			out = append(out, &domain.FillRecord{
				FillID:   idhash.ComputeFillID(res.ID, key, i),
				RunID:    res.ID,
				Trader:   res.TraderAddress,
				Market:   pos.Market,
				Asset:    pos.Asset,
				Outcome:  pos.Outcome,
				Sequence: i,
				Fill:     f,
			})
		}
	}
	return out
}
