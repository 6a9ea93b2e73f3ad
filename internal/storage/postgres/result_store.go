package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mikeluck/polymarket-copy-trading-bot/internal/domain"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/storage"
)

// ResultStore implements storage.ResultStore using PostgreSQL.
// The full result is kept as JSONB, summary columns are copied out of it.
type ResultStore struct {
	pool *Pool
}

// NewResultStore creates a new ResultStore.
func NewResultStore(pool *Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

// Insert adds a new result. Returns ErrDuplicateKey if id exists.
func (s *ResultStore) Insert(ctx context.Context, r *domain.SimulationResult) (err error) {
	defer func(start time.Time) { observe("result_insert", start, err) }(time.Now())

	if r == nil || r.ID == "" {
		return storage.ErrInvalidInput
	}

	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	query := `
		INSERT INTO simulation_results (
			id, name, logic, trader_address, created_at_ms,
			starting_capital, current_capital, total_pnl, roi,
			total_trades, copied_trades, skipped_trades,
			payload
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12,
			$13
		)
	`

	_, err = s.pool.Exec(ctx, query,
		r.ID, r.Name, r.Logic, r.TraderAddress, r.Timestamp,
		r.StartingCapital, r.CurrentCapital, r.TotalPnL, r.ROI,
		r.TotalTrades, r.CopiedTrades, r.SkippedTrades,
		payload,
	)
	return translateError(err, "insert simulation result")
}

// GetByID retrieves a result by its ID. Returns ErrNotFound if not exists.
func (s *ResultStore) GetByID(ctx context.Context, id string) (_ *domain.SimulationResult, err error) {
	defer func(start time.Time) { observe("result_get_by_id", start, err) }(time.Now())

	var payload []byte
	err = s.pool.QueryRow(ctx, `SELECT payload FROM simulation_results WHERE id = $1`, id).Scan(&payload)
	if err != nil {
		return nil, translateError(err, "get simulation result")
	}
	return decodeResult(payload)
}

// GetByTrader retrieves all results for a trader, ordered by timestamp ASC.
func (s *ResultStore) GetByTrader(ctx context.Context, address string) (_ []*domain.SimulationResult, err error) {
	defer func(start time.Time) { observe("result_get_by_trader", start, err) }(time.Now())

	query := `
		SELECT payload
		FROM simulation_results
		WHERE lower(trader_address) = lower($1)
		ORDER BY created_at_ms ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, address)
	if err != nil {
		return nil, fmt.Errorf("query simulation results: %w", err)
	}
	defer rows.Close()

	var results []*domain.SimulationResult
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan simulation result: %w", err)
		}
		r, err := decodeResult(payload)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate simulation results: %w", err)
	}

	return results, nil
}

func decodeResult(payload []byte) (*domain.SimulationResult, error) {
	var r domain.SimulationResult
	if err := json.Unmarshal(payload, &r); err != nil {
		return nil, fmt.Errorf("decode simulation result: %w", err)
	}
	return &r, nil
}
