package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mikeluck/polymarket-copy-trading-bot/internal/domain"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/storage"
)

// DefaultResultsDir is the directory simulation results are written to.
const DefaultResultsDir = "simulation_results"

// ResultStore implements storage.ResultStore with one JSON file per result,
// named by domain.SimulationResult.FileName. A same-day rerun with the same
// parameters and tag replaces the earlier file.
type ResultStore struct {
	dir string
}

// NewResultStore creates a store rooted at dir. An empty dir uses
// DefaultResultsDir.
func NewResultStore(dir string) *ResultStore {
	if dir == "" {
		dir = DefaultResultsDir
	}
	return &ResultStore{dir: dir}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

// Path returns the file path r is written to.
func (s *ResultStore) Path(r *domain.SimulationResult) string {
	return filepath.Join(s.dir, r.FileName())
}

// Insert writes a new result. Returns ErrDuplicateKey if id exists.
func (s *ResultStore) Insert(_ context.Context, r *domain.SimulationResult) error {
	if r == nil || r.ID == "" {
		return storage.ErrInvalidInput
	}

	existing, err := s.list()
	if err != nil {
		return err
	}
	for _, e := range existing {
		if e.ID == r.ID {
			return storage.ErrDuplicateKey
		}
	}

	return writeJSON(s.Path(r), r)
}

// GetByID retrieves a result by its ID. Returns ErrNotFound if not exists.
func (s *ResultStore) GetByID(_ context.Context, id string) (*domain.SimulationResult, error) {
	results, err := s.list()
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, storage.ErrNotFound
}

// GetByTrader retrieves all results for a trader, ordered by timestamp ASC.
func (s *ResultStore) GetByTrader(_ context.Context, address string) ([]*domain.SimulationResult, error) {
	results, err := s.list()
	if err != nil {
		return nil, err
	}

	var out []*domain.SimulationResult
	for _, r := range results {
		if strings.EqualFold(r.TraderAddress, address) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out, nil
}

// list decodes every result file in the directory. Files that are not
// results are ignored.
func (s *ResultStore) list() ([]*domain.SimulationResult, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read results directory: %w", err)
	}

	var results []*domain.SimulationResult
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		b, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		var r domain.SimulationResult
		if err := json.Unmarshal(b, &r); err != nil || r.ID == "" {
			continue
		}
		results = append(results, &r)
	}
	return results, nil
}
