package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/mikeluck/polymarket-copy-trading-bot/internal/domain"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/storage"
)

// ResultStore is an in-memory implementation of storage.ResultStore.
type ResultStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SimulationResult // keyed by id
}

// NewResultStore creates a new in-memory result store.
func NewResultStore() *ResultStore {
	return &ResultStore{
		data: make(map[string]*domain.SimulationResult),
	}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

// Insert adds a new result. Returns ErrDuplicateKey if id exists.
func (s *ResultStore) Insert(_ context.Context, r *domain.SimulationResult) error {
	if r == nil || r.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[r.ID] = r.Clone()
	return nil
}

// GetByID retrieves a result by its ID. Returns ErrNotFound if not exists.
func (s *ResultStore) GetByID(_ context.Context, id string) (*domain.SimulationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.data[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return r.Clone(), nil
}

// GetByTrader retrieves all results for a trader, ordered by timestamp ASC.
func (s *ResultStore) GetByTrader(_ context.Context, address string) ([]*domain.SimulationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SimulationResult
	for _, r := range s.data {
		if strings.EqualFold(r.TraderAddress, address) {
			result = append(result, r.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp != result[j].Timestamp {
			return result[i].Timestamp < result[j].Timestamp
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}
