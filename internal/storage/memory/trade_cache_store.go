package memory

import (
	"context"
	"sync"

	"github.com/mikeluck/polymarket-copy-trading-bot/internal/domain"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/storage"
)

// TradeCacheStore is an in-memory implementation of storage.TradeCacheStore.
type TradeCacheStore struct {
	mu   sync.RWMutex
	data map[domain.CacheKey]*domain.TradeCache
}

// NewTradeCacheStore creates a new in-memory trade cache store.
func NewTradeCacheStore() *TradeCacheStore {
	return &TradeCacheStore{
		data: make(map[domain.CacheKey]*domain.TradeCache),
	}
}

// Compile-time interface check.
var _ storage.TradeCacheStore = (*TradeCacheStore)(nil)

// Get retrieves the snapshot for key. Returns ErrNotFound if not exists.
func (s *TradeCacheStore) Get(_ context.Context, key domain.CacheKey) (*domain.TradeCache, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.data[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneCache(c), nil
}

// Put stores a snapshot, replacing any existing one for the same key.
func (s *TradeCacheStore) Put(_ context.Context, c *domain.TradeCache) error {
	if c == nil || c.TraderAddress == "" || c.Date == "" || c.WindowDays <= 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[c.Key()] = cloneCache(c)
	return nil
}

// Len returns the number of stored snapshots.
func (s *TradeCacheStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func cloneCache(c *domain.TradeCache) *domain.TradeCache {
	copy := *c
	copy.Trades = append([]domain.Trade(nil), c.Trades...)
	return &copy
}
