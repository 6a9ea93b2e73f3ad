package storage

import (
	"context"

	"github.com/mikeluck/polymarket-copy-trading-bot/internal/domain"
)

// TradeCacheStore provides access to per-day trade window snapshots.
type TradeCacheStore interface {
	// Get retrieves the snapshot for key. Returns ErrNotFound if not exists.
	Get(ctx context.Context, key domain.CacheKey) (*domain.TradeCache, error)

	// Put stores a snapshot, replacing any existing one for the same key.
	Put(ctx context.Context, c *domain.TradeCache) error
}

// ResultStore provides access to simulation results.
type ResultStore interface {
	// Insert adds a new result. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, r *domain.SimulationResult) error

	// GetByID retrieves a result by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.SimulationResult, error)

	// GetByTrader retrieves all results for a trader, ordered by timestamp ASC.
	GetByTrader(ctx context.Context, address string) ([]*domain.SimulationResult, error)
}

// FillStore provides access to the flattened fill log of simulation runs.
type FillStore interface {
	// InsertBulk adds the fills of one or more runs. Fails entire batch on any
	// duplicate fill_id.
	InsertBulk(ctx context.Context, fills []*domain.FillRecord) error

	// GetByRunID retrieves all fills of a run, ordered by
	// (timestamp, asset, outcome, sequence) ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.FillRecord, error)
}
