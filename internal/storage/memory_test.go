package storage

import (
	"context"
	"testing"
	"time"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_EmptyReturnsNil(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	dir, err := s.GetDirectory(ctx)
	require.NoError(t, err)
	assert.Nil(t, dir)

	hist, err := s.GetPriceHistory(ctx, "AAPL.US")
	require.NoError(t, err)
	assert.Nil(t, hist)
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveDirectory(ctx, &models.Directory{
		Entries:   map[string]models.DirectoryEntry{"AAPL": {Ticker: "AAPL", CIK: "0000320193"}},
		FetchedAt: now,
	}))
	require.NoError(t, s.SavePriceHistory(ctx, &models.PriceHistory{
		Symbol:    "AAPL.US",
		Points:    []models.PricePoint{{Date: now, Close: 200}},
		FetchedAt: now,
	}))

	dir, err := s.GetDirectory(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0000320193", dir.Entries["AAPL"].CIK)

	hist, err := s.GetPriceHistory(ctx, "AAPL.US")
	require.NoError(t, err)
	require.Len(t, hist.Points, 1)
	assert.Equal(t, 200.0, hist.Points[0].Close)
}

func TestNewCacheStore_Backends(t *testing.T) {
	logger := common.NewSilentLogger()

	store, err := NewCacheStore(context.Background(), logger, common.StorageConfig{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	_, err = NewCacheStore(context.Background(), logger, common.StorageConfig{Backend: "badger"})
	assert.ErrorContains(t, err, "unknown storage backend")
}
