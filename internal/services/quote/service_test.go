package quote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/interfaces"
	"github.com/bobmcallan/fairval/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type mockMarketClient struct {
	quote *models.Quote
	err   error
}

func (m *mockMarketClient) GetRealTimeQuote(_ context.Context, _ string) (*models.Quote, error) {
	return m.quote, m.err
}
func (m *mockMarketClient) GetFundamentals(_ context.Context, _ string) (*models.KeyStats, error) {
	return nil, nil
}
func (m *mockMarketClient) GetEOD(_ context.Context, _ string, _ ...interfaces.EODOption) ([]models.PricePoint, error) {
	return nil, nil
}
func (m *mockMarketClient) GetInsiderTransactions(_ context.Context, _ string, _ int) ([]models.InsiderTransaction, error) {
	return nil, nil
}

type mockPriceService struct {
	history *models.PriceHistory
	err     error
	called  bool
}

func (m *mockPriceService) GetHistory(_ context.Context, _ string) (*models.PriceHistory, error) {
	m.called = true
	return m.history, m.err
}

var testNow = time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC)

func newTestService(client *mockMarketClient, prices *mockPriceService) *Service {
	var ps interfaces.PriceService
	if prices != nil {
		ps = prices
	}
	svc := NewService(client, ps, common.NewSilentLogger())
	svc.now = func() time.Time { return testNow }
	return svc
}

func bars() *models.PriceHistory {
	return &models.PriceHistory{
		Symbol: "AAPL.US",
		Points: []models.PricePoint{
			{Date: time.Date(2025, 2, 27, 0, 0, 0, 0, time.UTC), Close: 200},
			{Date: time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), Open: 201, High: 212, Low: 199, Close: 210, Volume: 1e6},
		},
	}
}

func TestGetQuote_FreshLive(t *testing.T) {
	prices := &mockPriceService{history: bars()}
	svc := newTestService(&mockMarketClient{quote: &models.Quote{Symbol: "AAPL.US", Price: 215, Timestamp: testNow.Add(-20 * time.Minute)}}, prices)

	q, err := svc.GetQuote(context.Background(), "AAPL.US")
	require.NoError(t, err)
	assert.Equal(t, 215.0, q.Price)
	assert.Equal(t, SourceRealtime, q.Source)
	assert.False(t, prices.called)
}

func TestGetQuote_LiveFailsFallsBackToBar(t *testing.T) {
	svc := newTestService(&mockMarketClient{err: errors.New("502")}, &mockPriceService{history: bars()})

	q, err := svc.GetQuote(context.Background(), "AAPL.US")
	require.NoError(t, err)
	assert.Equal(t, 210.0, q.Price)
	assert.Equal(t, SourceEOD, q.Source)
	assert.Equal(t, 200.0, q.PreviousClose)
	assert.InDelta(t, 5.0, q.ChangePct, 1e-9)
	assert.Equal(t, int64(1e6), q.Volume)
}

func TestGetQuote_EmptyLiveFallsBack(t *testing.T) {
	svc := newTestService(&mockMarketClient{quote: &models.Quote{Price: 0}}, &mockPriceService{history: bars()})

	q, err := svc.GetQuote(context.Background(), "AAPL.US")
	require.NoError(t, err)
	assert.Equal(t, SourceEOD, q.Source)
}

func TestGetQuote_StaleLiveOlderThanBar(t *testing.T) {
	live := &models.Quote{Price: 190, Timestamp: time.Date(2025, 2, 20, 21, 0, 0, 0, time.UTC)}
	svc := newTestService(&mockMarketClient{quote: live}, &mockPriceService{history: bars()})

	q, err := svc.GetQuote(context.Background(), "AAPL.US")
	require.NoError(t, err)
	assert.Equal(t, 210.0, q.Price)
}

func TestGetQuote_StaleLiveNewerThanBar(t *testing.T) {
	live := &models.Quote{Price: 211, Timestamp: time.Date(2025, 2, 28, 21, 0, 0, 0, time.UTC)}
	svc := newTestService(&mockMarketClient{quote: live}, &mockPriceService{history: bars()})

	q, err := svc.GetQuote(context.Background(), "AAPL.US")
	require.NoError(t, err)
	assert.Equal(t, 211.0, q.Price)
	assert.Equal(t, SourceRealtime, q.Source)
}

func TestGetQuote_BothFail(t *testing.T) {
	svc := newTestService(&mockMarketClient{err: errors.New("502")}, &mockPriceService{err: errors.New("timeout")})

	_, err := svc.GetQuote(context.Background(), "AAPL.US")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "live: 502")
}

func TestGetQuote_NoPriceService(t *testing.T) {
	svc := newTestService(&mockMarketClient{err: errors.New("502")}, nil)

	_, err := svc.GetQuote(context.Background(), "AAPL.US")
	assert.Error(t, err)
}
