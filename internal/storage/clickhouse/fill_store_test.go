package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikeluck/polymarket-copy-trading-bot/internal/domain"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/storage"
)

func createTestFill(id, runID, asset string, ts int64, seq int, side domain.Side) *domain.FillRecord {
	return &domain.FillRecord{
		FillID:   id,
		RunID:    runID,
		Trader:   "0x7c3db723f1d4d8cb9c550095203b686cb11e5c6b",
		Market:   "will-it-rain",
		Asset:    asset,
		Outcome:  "Yes",
		Sequence: seq,
		Fill: domain.Fill{
			Timestamp:       ts,
			Side:            side,
			TraderPrice:     0.42,
			YourPrice:       0.4271,
			Size:            10,
			USDCSize:        4.271,
			SlippagePercent: 1.7,
			SlippageCost:    0.071,
		},
	}
}

func TestFillStore_InsertBulkAndGetByRunID(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewFillStore(conn)

	fills := []*domain.FillRecord{
		createTestFill("f3", "run-1", "222", 2000, 0, domain.SideBuy),
		createTestFill("f2", "run-1", "111", 2000, 1, domain.SideSell),
		createTestFill("f1", "run-1", "111", 1000, 0, domain.SideBuy),
		createTestFill("f9", "run-2", "111", 500, 0, domain.SideBuy),
	}
	require.NoError(t, store.InsertBulk(ctx, fills))

	got, err := store.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "f1", got[0].FillID)
	assert.Equal(t, "f2", got[1].FillID)
	assert.Equal(t, "f3", got[2].FillID)

	assert.Equal(t, domain.SideSell, got[1].Side)
	assert.Equal(t, 1, got[1].Sequence)
	assert.InDelta(t, 0.4271, got[0].YourPrice, 1e-9)
	assert.InDelta(t, 4.271, got[0].USDCSize, 1e-9)
}

func TestFillStore_InsertBulkDuplicate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewFillStore(conn)

	require.NoError(t, store.InsertBulk(ctx, []*domain.FillRecord{
		createTestFill("f1", "run-1", "111", 1000, 0, domain.SideBuy),
	}))

	err := store.InsertBulk(ctx, []*domain.FillRecord{
		createTestFill("f2", "run-1", "111", 1100, 1, domain.SideBuy),
		createTestFill("f1", "run-1", "111", 1000, 0, domain.SideBuy),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFillStore_InsertBulkIntraBatchDuplicate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewFillStore(conn)
	err := store.InsertBulk(context.Background(), []*domain.FillRecord{
		createTestFill("f1", "run-1", "111", 1000, 0, domain.SideBuy),
		createTestFill("f1", "run-1", "111", 1000, 0, domain.SideBuy),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestFillStore_Empty(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewFillStore(conn)
	require.NoError(t, store.InsertBulk(context.Background(), nil))

	got, err := store.GetByRunID(context.Background(), "none")
	require.NoError(t, err)
	assert.Empty(t, got)
}
