package domain

import (
	"fmt"
	"time"
)

// CacheKey identifies one cached trade window: a trader, a lookback in days,
// and the UTC calendar day the window was fetched on.
type CacheKey struct {
	TraderAddress string
	WindowDays    int
	Date          string // YYYY-MM-DD, UTC
}

// NewCacheKey builds a key for the UTC day containing now.
func NewCacheKey(address string, windowDays int, now time.Time) CacheKey {
	return CacheKey{
		TraderAddress: address,
		WindowDays:    windowDays,
		Date:          now.UTC().Format(time.DateOnly),
	}
}

// FileName returns <address>_<N>d_<date>.json.
func (k CacheKey) FileName() string {
	return fmt.Sprintf("%s_%dd_%s.json", k.TraderAddress, k.WindowDays, k.Date)
}

// Name returns trader_<addr[:6]>_<N>d_<date>.
func (k CacheKey) Name() string {
	return fmt.Sprintf("trader_%s_%dd_%s", ShortAddress(k.TraderAddress, 6), k.WindowDays, k.Date)
}

// Period returns <N>_days.
func (k CacheKey) Period() string {
	return fmt.Sprintf("%d_days", k.WindowDays)
}

// FetchedAtLayout formats TradeCache.FetchedAt.
const FetchedAtLayout = "2006-01-02T15:04:05.000Z07:00"

// TradeCache is a persisted snapshot of a trader's window of trades.
type TradeCache struct {
	Name          string  `json:"name"`
	TraderAddress string  `json:"traderAddress"`
	FetchedAt     string  `json:"fetchedAt"` // ISO-8601 UTC, millisecond precision
	Period        string  `json:"period"`
	TotalTrades   int     `json:"totalTrades"`
	Trades        []Trade `json:"trades"`

	// Date is the UTC day the cache is keyed on. Derived from the file name
	// or the row key, not serialized.
	Date       string `json:"-"`
	WindowDays int    `json:"-"`
}

// Key returns the cache key for this snapshot.
func (c *TradeCache) Key() CacheKey {
	return CacheKey{TraderAddress: c.TraderAddress, WindowDays: c.WindowDays, Date: c.Date}
}

// NewTradeCache wraps trades for the given key.
func NewTradeCache(key CacheKey, trades []Trade, fetchedAt time.Time) *TradeCache {
	return &TradeCache{
		Name:          key.Name(),
		TraderAddress: key.TraderAddress,
		FetchedAt:     fetchedAt.UTC().Format(FetchedAtLayout),
		Period:        key.Period(),
		TotalTrades:   len(trades),
		Trades:        trades,
		Date:          key.Date,
		WindowDays:    key.WindowDays,
	}
}

// ShortAddress returns the first n characters of addr.
func ShortAddress(addr string, n int) string {
	if len(addr) <= n {
		return addr
	}
	return addr[:n]
}
