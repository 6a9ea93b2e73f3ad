package file

import (
	"context"
	"path/filepath"

	"github.com/mikeluck/polymarket-copy-trading-bot/internal/domain"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/storage"
)

// DefaultCacheDir is the directory trade snapshots are kept in.
const DefaultCacheDir = "trader_data_cache"

// TradeCacheStore implements storage.TradeCacheStore with one JSON file per
// key, named <address>_<N>d_<date>.json.
type TradeCacheStore struct {
	dir string
}

// NewTradeCacheStore creates a store rooted at dir. An empty dir uses
// DefaultCacheDir.
func NewTradeCacheStore(dir string) *TradeCacheStore {
	if dir == "" {
		dir = DefaultCacheDir
	}
	return &TradeCacheStore{dir: dir}
}

// Compile-time interface check.
var _ storage.TradeCacheStore = (*TradeCacheStore)(nil)

// Path returns the file path for key.
func (s *TradeCacheStore) Path(key domain.CacheKey) string {
	return filepath.Join(s.dir, key.FileName())
}

// Get retrieves the snapshot for key. Returns ErrNotFound if not exists.
func (s *TradeCacheStore) Get(_ context.Context, key domain.CacheKey) (*domain.TradeCache, error) {
	var c domain.TradeCache
	if err := readJSON(s.Path(key), &c); err != nil {
		return nil, err
	}
	c.Date = key.Date
	c.WindowDays = key.WindowDays
	if c.TraderAddress == "" {
		c.TraderAddress = key.TraderAddress
	}
	return &c, nil
}

// Put writes the snapshot, replacing any existing file for the same key.
func (s *TradeCacheStore) Put(_ context.Context, c *domain.TradeCache) error {
	if c == nil || c.TraderAddress == "" || c.Date == "" || c.WindowDays <= 0 {
		return storage.ErrInvalidInput
	}
	return writeJSON(s.Path(c.Key()), c)
}
