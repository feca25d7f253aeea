package history_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mwatts/pricewatch/internal/history"
	"github.com/mwatts/pricewatch/internal/pricing"
)

func sampleHistory() []pricing.Observation {
	return []pricing.Observation{
		{
			Timestamp: "2026-08-01T10:00:00Z",
			Model:     "iPhone 15 Pro Max",
			Price:     999.99,
			Source:    pricing.StrategyStorefrontSingleValue,
			URL:       "https://store.test/iphone-15",
			ImageURL:  "https://img.test/15.jpg",
		},
		{
			Timestamp: "2026-08-02T10:00:00Z",
			Model:     "iPhone 16 Pro Max",
			Price:     1149.50,
			Source:    pricing.StrategyMarketplaceAggregateMin,
			URL:       "https://market.test/search?q=iphone16",
			ImageURL:  "",
		},
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.json")
	store := history.NewFileStore(path, zaptest.NewLogger(t))

	want := sampleHistory()
	require.NoError(t, store.SaveAll(want))

	got := store.LoadAll()
	assert.Equal(t, want, got)

	// Saving what was loaded must preserve the sequence exactly.
	require.NoError(t, store.SaveAll(got))
	assert.Equal(t, want, store.LoadAll())
}

func TestFileStoreLoadAll(t *testing.T) {
	t.Run("missing file is empty history", func(t *testing.T) {
		store := history.NewFileStore(filepath.Join(t.TempDir(), "absent.json"), zaptest.NewLogger(t))
		got := store.LoadAll()
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("corrupt file degrades to empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prices.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

		store := history.NewFileStore(path, zaptest.NewLogger(t))
		got := store.LoadAll()
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("null file degrades to empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prices.json")
		require.NoError(t, os.WriteFile(path, []byte("null"), 0o600))

		store := history.NewFileStore(path, zaptest.NewLogger(t))
		assert.Empty(t, store.LoadAll())
	})

	t.Run("preserves order", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prices.json")
		store := history.NewFileStore(path, zaptest.NewLogger(t))
		require.NoError(t, store.SaveAll(sampleHistory()))

		got := store.LoadAll()
		require.Len(t, got, 2)
		assert.Equal(t, "iPhone 15 Pro Max", got[0].Model)
		assert.Equal(t, "iPhone 16 Pro Max", got[1].Model)
	})
}

func TestFileStoreSaveAll(t *testing.T) {
	t.Run("overwrites prior contents", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prices.json")
		store := history.NewFileStore(path, zaptest.NewLogger(t))

		require.NoError(t, store.SaveAll(sampleHistory()))
		require.NoError(t, store.SaveAll(sampleHistory()[:1]))

		assert.Len(t, store.LoadAll(), 1)
	})

	t.Run("nil history writes empty array", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prices.json")
		store := history.NewFileStore(path, zaptest.NewLogger(t))
		require.NoError(t, store.SaveAll(nil))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.JSONEq(t, "[]", string(data))
	})

	t.Run("file parses with the wire keys", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prices.json")
		store := history.NewFileStore(path, zaptest.NewLogger(t))
		require.NoError(t, store.SaveAll(sampleHistory()[:1]))

		data, err := os.ReadFile(path)
		require.NoError(t, err)

		var entries []map[string]any
		require.NoError(t, json.Unmarshal(data, &entries))
		require.Len(t, entries, 1)
		for _, key := range []string{"timestamp", "model", "price", "source", "url", "imageUrl"} {
			assert.Contains(t, entries[0], key)
		}
	})

	t.Run("no temp files left behind", func(t *testing.T) {
		dir := t.TempDir()
		store := history.NewFileStore(filepath.Join(dir, "prices.json"), zaptest.NewLogger(t))
		require.NoError(t, store.SaveAll(sampleHistory()))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "prices.json", entries[0].Name())
	})
}
