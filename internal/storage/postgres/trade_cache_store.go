package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mikeluck/polymarket-copy-trading-bot/internal/domain"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/storage"
)

// TradeCacheStore implements storage.TradeCacheStore using PostgreSQL.
type TradeCacheStore struct {
	pool *Pool
}

// NewTradeCacheStore creates a new TradeCacheStore.
func NewTradeCacheStore(pool *Pool) *TradeCacheStore {
	return &TradeCacheStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeCacheStore = (*TradeCacheStore)(nil)

// Get retrieves the snapshot for key. Returns ErrNotFound if not exists.
func (s *TradeCacheStore) Get(ctx context.Context, key domain.CacheKey) (_ *domain.TradeCache, err error) {
	defer func(start time.Time) { observe("trade_cache_get", start, err) }(time.Now())

	date, err := time.Parse(time.DateOnly, key.Date)
	if err != nil {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT name, period, fetched_at, total_trades, trades
		FROM trade_caches
		WHERE trader_address = $1 AND window_days = $2 AND cache_date = $3
	`

	c := &domain.TradeCache{
		TraderAddress: key.TraderAddress,
		WindowDays:    key.WindowDays,
		Date:          key.Date,
	}
	var trades []byte
	err = s.pool.QueryRow(ctx, query, key.TraderAddress, key.WindowDays, date).Scan(
		&c.Name, &c.Period, &c.FetchedAt, &c.TotalTrades, &trades,
	)
	if err != nil {
		return nil, translateError(err, "get trade cache")
	}

	if err := json.Unmarshal(trades, &c.Trades); err != nil {
		return nil, fmt.Errorf("decode cached trades: %w", err)
	}
	return c, nil
}

// Put stores a snapshot, replacing any existing one for the same key.
func (s *TradeCacheStore) Put(ctx context.Context, c *domain.TradeCache) (err error) {
	defer func(start time.Time) { observe("trade_cache_put", start, err) }(time.Now())

	if c == nil || c.TraderAddress == "" || c.WindowDays <= 0 {
		return storage.ErrInvalidInput
	}
	date, err := time.Parse(time.DateOnly, c.Date)
	if err != nil {
		return storage.ErrInvalidInput
	}

	trades, err := json.Marshal(c.Trades)
	if err != nil {
		return fmt.Errorf("encode trades: %w", err)
	}

	query := `
		INSERT INTO trade_caches (
			trader_address, window_days, cache_date,
			name, period, fetched_at, total_trades, trades
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (trader_address, window_days, cache_date) DO UPDATE SET
			name = EXCLUDED.name,
			period = EXCLUDED.period,
			fetched_at = EXCLUDED.fetched_at,
			total_trades = EXCLUDED.total_trades,
			trades = EXCLUDED.trades
	`

	_, err = s.pool.Exec(ctx, query,
		c.TraderAddress, c.WindowDays, date,
		c.Name, c.Period, c.FetchedAt, c.TotalTrades, trades,
	)
	if err != nil {
		return fmt.Errorf("put trade cache: %w", err)
	}
	return nil
}
