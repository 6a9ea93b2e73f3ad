package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/mikeluck/polymarket-copy-trading-bot/internal/domain"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/storage"
)

// FillStore implements storage.FillStore using ClickHouse.
type FillStore struct {
	conn *Conn
}

// NewFillStore creates a new FillStore.
func NewFillStore(conn *Conn) *FillStore {
	return &FillStore{conn: conn}
}

// Compile-time interface check.
var _ storage.FillStore = (*FillStore)(nil)

// InsertBulk adds multiple fills atomically. Fails entire batch on any duplicate.
func (s *FillStore) InsertBulk(ctx context.Context, fills []*domain.FillRecord) (err error) {
	if len(fills) == 0 {
		return nil
	}
	defer func(start time.Time) { observe("fill_insert_bulk", start, err) }(time.Now())

	// Check for intra-batch duplicates
	seen := make(map[string]struct{}, len(fills))
	ids := make([]string, 0, len(fills))
	for _, f := range fills {
		if f == nil || f.FillID == "" || f.RunID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[f.FillID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[f.FillID] = struct{}{}
		ids = append(ids, f.FillID)
	}

	// Check for duplicates against existing DB rows (MergeTree doesn't enforce uniqueness)
	var existing uint64
	if err := s.conn.QueryRow(ctx, `SELECT count() FROM copy_fills WHERE has(?, fill_id)`, ids).Scan(&existing); err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if existing > 0 {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO copy_fills (
			fill_id, run_id, trader, market, asset, outcome, sequence,
			timestamp, side, trader_price, your_price, size, usdc_size,
			slippage_percent, slippage_cost
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, f := range fills {
		err = batch.Append(
			f.FillID, f.RunID, f.Trader, f.Market, f.Asset, f.Outcome, uint32(f.Sequence),
			f.Timestamp, string(f.Side), f.TraderPrice, f.YourPrice, f.Size, f.USDCSize,
			f.SlippagePercent, f.SlippageCost,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRunID retrieves all fills of a run, ordered by
// (timestamp, asset, outcome, sequence) ASC.
func (s *FillStore) GetByRunID(ctx context.Context, runID string) (_ []*domain.FillRecord, err error) {
	defer func(start time.Time) { observe("fill_get_by_run", start, err) }(time.Now())

	query := `
		SELECT
			fill_id, run_id, trader, market, asset, outcome, sequence,
			timestamp, side, trader_price, your_price, size, usdc_size,
			slippage_percent, slippage_cost
		FROM copy_fills
		WHERE run_id = ?
		ORDER BY timestamp ASC, asset ASC, outcome ASC, sequence ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query fills: %w", err)
	}
	defer rows.Close()

	var result []*domain.FillRecord
	for rows.Next() {
		var (
			f        domain.FillRecord
			sequence uint32
			side     string
		)
		err := rows.Scan(
			&f.FillID, &f.RunID, &f.Trader, &f.Market, &f.Asset, &f.Outcome, &sequence,
			&f.Timestamp, &side, &f.TraderPrice, &f.YourPrice, &f.Size, &f.USDCSize,
			&f.SlippagePercent, &f.SlippageCost,
		)
		if err != nil {
			return nil, fmt.Errorf("scan fill: %w", err)
		}
		f.Sequence = int(sequence)
		f.Side = domain.Side(side)
		result = append(result, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fills: %w", err)
	}

	return result, nil
}
