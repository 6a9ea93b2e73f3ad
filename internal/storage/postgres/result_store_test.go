package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikeluck/polymarket-copy-trading-bot/internal/domain"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/storage"
)

func createTestResult(id string, ts int64) *domain.SimulationResult {
	exit := 0.55
	return &domain.SimulationResult{
		ID:                 id,
		Name:               "PERCENTAGE_0x7c3d_7d_10pct_realistic",
		Logic:              "percentage_realistic",
		Timestamp:          ts,
		TraderAddress:      testTrader,
		StartingCapital:    1000,
		CurrentCapital:     1004.2,
		TotalTrades:        2,
		CopiedTrades:       2,
		TotalInvested:      4.2,
		CurrentValue:       1004.2,
		RealizedPnL:        0,
		UnrealizedPnL:      4.2,
		TotalPnL:           4.2,
		ROI:                0.42,
		TotalSlippageCost:  0.06,
		AvgSlippagePercent: 1.7,
		Positions: []*domain.SimulatedPosition{
			{
				Market:     "will-it-rain",
				Outcome:    "Yes",
				Asset:      "111",
				SharesHeld: 9,
				EntryPrice: 0.43,
				ExitPrice:  &exit,
				Invested:   4.2,
				Trades: []domain.Fill{
					{Timestamp: 1709600000, Side: domain.SideBuy, TraderPrice: 0.42, YourPrice: 0.43, Size: 10, USDCSize: 4.2, SlippagePercent: 1.7, SlippageCost: 0.07},
				},
			},
		},
		SkipReasons: map[string]int{"below_minimum": 1},
		Parameters: &domain.SimulationParams{
			HistoryDays: 7,
			MaxTrades:   5000,
			CopyStrategy: domain.CopyStrategyConfig{
				Strategy:        domain.CopyStrategyPercentage,
				CopySize:        10,
				TradeMultiplier: 1,
				MinOrderSizeUSD: 1,
				MaxOrderSizeUSD: 100,
			},
		},
	}
}

func TestResultStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewResultStore(pool)

	r := createTestResult("sim_realistic_0x7c3db7_1709600000000", 1709600000000)
	require.NoError(t, store.Insert(ctx, r))

	got, err := store.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestResultStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewResultStore(pool)

	r := createTestResult("sim-dup", 1000)
	require.NoError(t, store.Insert(ctx, r))

	err := store.Insert(ctx, r)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestResultStore_GetByID_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := NewResultStore(pool).GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestResultStore_GetByTrader(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewResultStore(pool)

	require.NoError(t, store.Insert(ctx, createTestResult("second", 2000)))
	require.NoError(t, store.Insert(ctx, createTestResult("first", 1000)))

	other := createTestResult("other", 1500)
	other.TraderAddress = "0xabc"
	require.NoError(t, store.Insert(ctx, other))

	results, err := store.GetByTrader(ctx, testTrader)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].ID)
	assert.Equal(t, "second", results[1].ID)
}
