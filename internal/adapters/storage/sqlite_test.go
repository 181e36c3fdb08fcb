package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strikesim/strikesim/internal/adapters/storage"
	"github.com/strikesim/strikesim/internal/domain"
)

func makeRun(id, strategy string, pnl float64) *domain.RunResult {
	hourStart := time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC)
	return &domain.RunResult{
		RunID:          id,
		StrategyName:   strategy,
		InitialBalance: 10000,
		FinalBalance:   10000 + pnl,
		TotalPnL:       pnl,
		SelectionLog:   "sqlite::memory:",
		Hours: []domain.HourSummary{
			{
				HourStart:       hourStart,
				HourEnd:         hourStart.Add(time.Hour),
				Strike:          50000,
				SpotAtStart:     50010,
				SettlementPrice: 50120,
				TradesExecuted:  1,
				HourPnL:         pnl,
				CashAfter:       10000 + pnl,
			},
		},
		Trades: []domain.TradeRecord{
			{
				ID:        id + "-t1",
				Timestamp: hourStart.Add(5 * time.Minute),
				Action:    domain.ActionBuyYes,
				Quantity:  100,
				Price:     0.55,
				Fees:      0,
				Strike:    50000,
			},
		},
	}
}

func TestSQLiteStore_SaveAndListRuns(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.SaveRun(context.Background(), makeRun("run-1", "momentum", 45)))
	require.NoError(t, db.SaveRun(context.Background(), makeRun("run-2", "always_yes", -12)))

	runs, err := db.ListRuns(context.Background(), "momentum")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].RunID)
	assert.InDelta(t, 45.0, runs[0].TotalPnL, 1e-9)

	all, err := db.ListRuns(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSQLiteStore_DuplicateRunIDFails(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.SaveRun(context.Background(), makeRun("run-1", "momentum", 45)))
	assert.Error(t, db.SaveRun(context.Background(), makeRun("run-1", "momentum", 45)))
}

func TestSQLiteStore_AppendSelection(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer db.Close()

	rec := domain.SelectionRecord{
		HourStart:       time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC),
		BTCSpot:         50000,
		SelectedStrike:  50100,
		Method:          domain.MethodClosest,
		StrikesConsider: 4,
		Reason:          "closest to spot",
	}
	require.NoError(t, db.Append(rec))
	require.NoError(t, db.Append(rec))

	assert.Equal(t, "sqlite::memory:", db.Destination())
}
