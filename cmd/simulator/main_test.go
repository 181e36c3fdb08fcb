package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strikesim/strikesim/config"
	"github.com/strikesim/strikesim/internal/adapters/csvdata"
	"github.com/strikesim/strikesim/internal/adapters/storage"
)

func TestSelectionSink_PrefersExplicitCSV(t *testing.T) {
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	path := filepath.Join(t.TempDir(), "audit.csv")
	sink, closeSink, err := selectionSink(path, store)
	require.NoError(t, err)
	defer closeSink()

	assert.Equal(t, path, sink.Destination())
}

func TestSelectionSink_UsesStoreByDefault(t *testing.T) {
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	sink, closeSink, err := selectionSink("", store)
	require.NoError(t, err)
	defer closeSink()

	assert.Equal(t, "sqlite::memory:", sink.Destination())
}

func TestSelectionSink_WithoutStoreFallsBackToCSV(t *testing.T) {
	// With runs unpersisted no database file may appear; the audit rows go
	// to a CSV instead.
	oldwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(oldwd) })

	sink, closeSink, err := selectionSink("", nil)
	require.NoError(t, err)
	defer closeSink()

	assert.Equal(t, defaultSelectionCSV, sink.Destination())
	_, err = os.Stat(defaultSelectionCSV)
	assert.NoError(t, err)
}

func TestLoadDataset_SynthesizesQuotes(t *testing.T) {
	dir := t.TempDir()
	pricesPath := filepath.Join(dir, "prices.csv")
	marketsPath := filepath.Join(dir, "markets.csv")

	prices := "timestamp,price\n"
	for _, row := range []string{
		"2024-06-01 14:00:00,50100",
		"2024-06-01 14:01:00,50110",
		"2024-06-01 14:02:00,50120",
	} {
		prices += row + "\n"
	}
	require.NoError(t, os.WriteFile(pricesPath, []byte(prices), 0o644))
	require.NoError(t, os.WriteFile(marketsPath,
		[]byte("hour_start,strike_price\n2024-06-01 14:00:00,50000\n"), 0o644))

	loader := csvdata.New(pricesPath, marketsPath, filepath.Join(dir, "missing.csv"))
	data, err := loadDataset(loader, config.DataConfig{PricingVolatility: 0.02}, true)
	require.NoError(t, err)

	require.Len(t, data.Quotes, 3)
	for _, q := range data.Quotes {
		assert.Equal(t, 50000.0, q.Strike)
		assert.InDelta(t, 1.0, q.YesPrice+q.NoPrice, 1e-9)
		// Spot above strike prices YES over NO.
		assert.Greater(t, q.YesPrice, 0.5)
	}
}
