// Package feed retrieves a trader's trade history for a lookback window,
// cache first, paging the data API in bounded parallel batches.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mikeluck/polymarket-copy-trading-bot/internal/domain"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/observability"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/polymarket"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/storage"
)

// Default configuration values.
const (
	PageSize           = 100
	DefaultParallelism = 5
	DefaultMaxTrades   = 5000
)

// Feed errors
var (
	ErrInvalidAddress = errors.New("trader address is required")
	ErrInvalidWindow  = errors.New("history window must be at least one day")
)

// Result is the outcome of a Fetch.
type Result struct {
	Key       domain.CacheKey
	Trades    []domain.Trade // ascending by timestamp
	FromCache bool
}

// Feed produces time-ordered trade streams.
type Feed struct {
	client      polymarket.DataClient
	cache       storage.TradeCacheStore
	logger      *log.Logger
	parallelism int
	progress    func(fetched int)
	now         func() time.Time
}

// Option configures Feed.
type Option func(*Feed)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(f *Feed) {
		f.logger = l
	}
}

// WithProgress registers a hook called with the running trade count after
// every page batch.
func WithProgress(fn func(fetched int)) Option {
	return func(f *Feed) {
		f.progress = fn
	}
}

// WithParallelism sets how many pages are requested concurrently per batch.
func WithParallelism(n int) Option {
	return func(f *Feed) {
		if n > 0 {
			f.parallelism = n
		}
	}
}

// WithClock sets the time source used for the window and cache day.
func WithClock(now func() time.Time) Option {
	return func(f *Feed) {
		f.now = now
	}
}

// New creates a Feed. cache may be nil to always fetch.
func New(client polymarket.DataClient, cache storage.TradeCacheStore, opts ...Option) *Feed {
	f := &Feed{
		client:      client,
		cache:       cache,
		logger:      log.Default(),
		parallelism: DefaultParallelism,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the trader's trades from the last windowDays days, at most
// maxTrades of them, sorted ascending by timestamp. A snapshot cached for
// the same address, window and UTC day is returned without network access.
// maxTrades <= 0 uses DefaultMaxTrades.
func (f *Feed) Fetch(ctx context.Context, address string, windowDays, maxTrades int) (*Result, error) {
	if address == "" {
		return nil, ErrInvalidAddress
	}
	if windowDays <= 0 {
		return nil, ErrInvalidWindow
	}
	if maxTrades <= 0 {
		maxTrades = DefaultMaxTrades
	}

	now := f.now()
	key := domain.NewCacheKey(address, windowDays, now)

	// 1. Cache
	if f.cache != nil {
		cached, err := f.cache.Get(ctx, key)
		switch {
		case err == nil:
			observability.RecordCacheLookup(true)
			f.logger.Printf("Loaded %d trades from cache (%s)", len(cached.Trades), cached.Name)
			return &Result{Key: key, Trades: cached.Trades, FromCache: true}, nil
		case errors.Is(err, storage.ErrNotFound):
			observability.RecordCacheLookup(false)
		default:
			observability.RecordCacheLookup(false)
			f.logger.Printf("WARNING: unreadable trade cache %s, refetching: %v", key.FileName(), err)
		}
	}

	// 2. Network
	since := now.Add(-time.Duration(windowDays) * 24 * time.Hour).Unix()
	f.logger.Printf("Fetching trader activity from last %d days...", windowDays)

	fetched, err := f.fetchAll(ctx, address, since, maxTrades)
	if err != nil {
		return nil, err
	}

	trades := dedupe(fetched)
	if len(trades) > maxTrades {
		f.logger.Printf("Reached trade limit (%d), truncating", maxTrades)
		trades = trades[:maxTrades]
	}
	sortTrades(trades)

	f.logger.Printf("Fetched %d trades from last %d days", len(trades), windowDays)

	// 3. Persist
	if f.cache != nil {
		if err := f.cache.Put(ctx, domain.NewTradeCache(key, trades, now)); err != nil {
			return nil, fmt.Errorf("save trade cache: %w", err)
		}
	}

	return &Result{Key: key, Trades: trades}, nil
}

// fetchAll reads page 0 and, if it is full, further pages in batches of
// f.parallelism concurrent requests. Paging stops when a page in a batch
// comes back short, a batch adds nothing, or maxTrades is reached. Trades
// are returned in API order, newest first.
func (f *Feed) fetchAll(ctx context.Context, address string, since int64, maxTrades int) ([]domain.Trade, error) {
	first, err := f.page(ctx, address, 0, since)
	if err != nil {
		return nil, err
	}

	all := first
	if len(first) < PageSize {
		f.report(len(all))
		return all, nil
	}

	offset := PageSize
	for hasMore := true; hasMore && len(all) < maxTrades; {
		pages := make([][]domain.Trade, f.parallelism)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(f.parallelism)
		for i := 0; i < f.parallelism; i++ {
			pageOffset := offset + i*PageSize
			g.Go(func() error {
				trades, err := f.page(gctx, address, pageOffset, since)
				if err != nil {
					return err
				}
				pages[i] = trades
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		added := 0
		for _, p := range pages {
			all = append(all, p...)
			added += len(p)
			if len(p) < PageSize {
				hasMore = false
				break
			}
		}
		if added == 0 {
			hasMore = false
		}

		offset += f.parallelism * PageSize
		f.report(len(all))
	}

	return all, nil
}

// page fetches one page and drops trades older than since.
func (f *Feed) page(ctx context.Context, address string, offset int, since int64) ([]domain.Trade, error) {
	raw, err := f.client.Activity(ctx, address, PageSize, offset)
	if err != nil {
		return nil, err
	}

	trades := make([]domain.Trade, 0, len(raw))
	for _, t := range raw {
		if t.Timestamp >= since {
			trades = append(trades, t)
		}
	}
	observability.RecordPageFetched(len(trades))
	return trades, nil
}

func (f *Feed) report(fetched int) {
	if f.progress != nil {
		f.progress(fetched)
	}
}

// dedupe keeps the first occurrence of every trade id.
func dedupe(trades []domain.Trade) []domain.Trade {
	seen := make(map[string]struct{}, len(trades))
	out := make([]domain.Trade, 0, len(trades))
	for _, t := range trades {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}

// sortTrades orders trades by timestamp ASC, ties by id.
func sortTrades(trades []domain.Trade) {
	sort.SliceStable(trades, func(i, j int) bool {
		if trades[i].Timestamp != trades[j].Timestamp {
			return trades[i].Timestamp < trades[j].Timestamp
		}
		return trades[i].ID < trades[j].ID
	})
}
