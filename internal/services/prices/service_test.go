package prices

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/interfaces"
	"github.com/bobmcallan/fairval/internal/models"
	"github.com/bobmcallan/fairval/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockMarketClient struct {
	points []models.PricePoint
	err    error
	calls  int
	params interfaces.EODParams
}

func (m *mockMarketClient) GetRealTimeQuote(_ context.Context, _ string) (*models.Quote, error) {
	return nil, errors.New("not implemented")
}

func (m *mockMarketClient) GetFundamentals(_ context.Context, _ string) (*models.KeyStats, error) {
	return nil, errors.New("not implemented")
}

func (m *mockMarketClient) GetEOD(_ context.Context, _ string, opts ...interfaces.EODOption) ([]models.PricePoint, error) {
	m.calls++
	for _, opt := range opts {
		opt(&m.params)
	}
	return m.points, m.err
}

func (m *mockMarketClient) GetInsiderTransactions(_ context.Context, _ string, _ int) ([]models.InsiderTransaction, error) {
	return nil, nil
}

func bar(day int, close float64) models.PricePoint {
	return models.PricePoint{
		Date:  time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC),
		Open:  close,
		High:  close,
		Low:   close,
		Close: close,
	}
}

func newTestService(client *mockMarketClient, store interfaces.CacheStore, now *time.Time) *Service {
	svc := NewService(client, store, 6*time.Hour, 365*24*time.Hour, nil, common.NewSilentLogger())
	svc.now = func() time.Time { return *now }
	return svc
}

func TestNormalize(t *testing.T) {
	in := []models.PricePoint{
		bar(3, 103),
		bar(1, 101),
		bar(2, 0),
		bar(3, 104),
		{Close: 50},
	}
	out := Normalize(in)
	require.Len(t, out, 2)
	assert.Equal(t, 101.0, out[0].Close)
	assert.Equal(t, 104.0, out[1].Close, "last bar seen for a day wins")
}

func TestGetHistory_CachesWithinTTL(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	client := &mockMarketClient{points: []models.PricePoint{bar(2, 10), bar(1, 9)}}
	svc := newTestService(client, nil, &now)
	ctx := context.Background()

	hist, err := svc.GetHistory(ctx, "aapl.us")
	require.NoError(t, err)
	assert.Equal(t, "AAPL.US", hist.Symbol)
	require.Len(t, hist.Points, 2)
	assert.Equal(t, 9.0, hist.Points[0].Close)
	assert.Equal(t, now.Add(-365*24*time.Hour), client.params.From)
	assert.Equal(t, now, client.params.To)

	now = now.Add(5 * time.Hour)
	_, err = svc.GetHistory(ctx, "AAPL.US")
	require.NoError(t, err)
	assert.Equal(t, 1, client.calls)

	now = now.Add(2 * time.Hour)
	_, err = svc.GetHistory(ctx, "AAPL.US")
	require.NoError(t, err)
	assert.Equal(t, 2, client.calls)
}

func TestGetHistory_FeedDownServesStale(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	client := &mockMarketClient{points: []models.PricePoint{bar(1, 9)}}
	svc := newTestService(client, nil, &now)
	ctx := context.Background()

	_, err := svc.GetHistory(ctx, "AAPL.US")
	require.NoError(t, err)

	now = now.Add(24 * time.Hour)
	client.err = errors.New("503")
	hist, err := svc.GetHistory(ctx, "AAPL.US")
	require.NoError(t, err)
	assert.Len(t, hist.Points, 1)
}

func TestGetHistory_EmptyIsError(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(&mockMarketClient{}, nil, &now)

	_, err := svc.GetHistory(context.Background(), "NOPE.US")
	assert.Error(t, err)
}

func TestGetHistory_StoreTier(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := storage.NewMemoryStore()
	client := &mockMarketClient{points: []models.PricePoint{bar(1, 9), bar(2, 10)}}
	svc := newTestService(client, store, &now)
	ctx := context.Background()

	_, err := svc.GetHistory(ctx, "MSFT.US")
	require.NoError(t, err)

	saved, err := store.GetPriceHistory(ctx, "MSFT.US")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Len(t, saved.Points, 2)

	// A second process with an empty cache reads the fresh stored copy
	other := newTestService(client, store, &now)
	hist, err := other.GetHistory(ctx, "MSFT.US")
	require.NoError(t, err)
	assert.Len(t, hist.Points, 2)
	assert.Equal(t, 1, client.calls)
}
