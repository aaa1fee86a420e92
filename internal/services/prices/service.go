// Package prices serves cached daily price history per market symbol
package prices

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/interfaces"
	"github.com/bobmcallan/fairval/internal/metrics"
	"github.com/bobmcallan/fairval/internal/models"
)

// Service implements PriceService over a TTL cache, an optional persistent
// store and the market feed.
type Service struct {
	client   interfaces.MarketClient
	store    interfaces.CacheStore
	cache    *common.TTLCache[*models.PriceHistory]
	lookback time.Duration
	metrics  *metrics.Metrics
	logger   *common.Logger
	now      func() time.Time // injectable clock for testing
}

// NewService creates a price history service.
// store and m may be nil.
func NewService(client interfaces.MarketClient, store interfaces.CacheStore, ttl, lookback time.Duration, m *metrics.Metrics, logger *common.Logger) *Service {
	if ttl <= 0 {
		ttl = common.FreshnessPrices
	}
	s := &Service{
		client:   client,
		store:    store,
		lookback: lookback,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
	s.cache = common.NewTTLCache[*models.PriceHistory](ttl).WithClock(func() time.Time { return s.now() })
	return s
}

// GetHistory returns ascending, deduplicated daily bars for a market symbol.
// A stale copy is served when the feed fails.
func (s *Service) GetHistory(ctx context.Context, symbol string) (*models.PriceHistory, error) {
	symbol = strings.ToUpper(symbol)

	if hist, ok := s.cache.Get(symbol); ok {
		s.metrics.CacheLookup("prices", true)
		return hist, nil
	}
	s.metrics.CacheLookup("prices", false)

	if hist := s.fromStore(ctx, symbol); hist != nil && common.IsFreshAt(hist.FetchedAt, s.cache.TTL(), s.now()) {
		s.cache.SetAt(symbol, hist, hist.FetchedAt)
		return hist, nil
	}

	hist, err := s.fetch(ctx, symbol)
	if err == nil {
		return hist, nil
	}

	if stale, ok := s.cache.Entry(symbol); ok && stale.Value != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Price fetch failed, serving stale history")
		return stale.Value, nil
	}
	if stale := s.fromStore(ctx, symbol); stale != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Price fetch failed, serving stored history")
		s.cache.SetAt(symbol, stale, stale.FetchedAt)
		return stale, nil
	}
	return nil, err
}

func (s *Service) fetch(ctx context.Context, symbol string) (*models.PriceHistory, error) {
	now := s.now()
	var opts []interfaces.EODOption
	if s.lookback > 0 {
		opts = append(opts, interfaces.WithDateRange(now.Add(-s.lookback), now))
	}

	points, err := s.client.GetEOD(ctx, symbol, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch price history for %s: %w", symbol, err)
	}

	hist := &models.PriceHistory{
		Symbol:    symbol,
		Points:    Normalize(points),
		FetchedAt: now,
	}
	if len(hist.Points) == 0 {
		return nil, fmt.Errorf("no price history for %s", symbol)
	}
	s.cache.SetAt(symbol, hist, now)

	if s.store != nil {
		if err := s.store.SavePriceHistory(ctx, hist); err != nil {
			s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Failed to persist price history")
		}
	}

	s.logger.Debug().Str("symbol", symbol).Int("bars", len(hist.Points)).Msg("Price history refreshed")
	return hist, nil
}

func (s *Service) fromStore(ctx context.Context, symbol string) *models.PriceHistory {
	if s.store == nil {
		return nil
	}
	hist, err := s.store.GetPriceHistory(ctx, symbol)
	if err != nil {
		s.logger.Debug().Err(err).Str("symbol", symbol).Msg("Stored price history unavailable")
		return nil
	}
	if hist == nil || len(hist.Points) == 0 {
		return nil
	}
	return hist
}

// Normalize sorts bars ascending, drops bars without a positive close and
// keeps the last bar seen for each calendar day.
func Normalize(points []models.PricePoint) []models.PricePoint {
	byDay := make(map[string]models.PricePoint, len(points))
	for _, p := range points {
		if p.Date.IsZero() || p.Close <= 0 || !common.IsFinite(p.Close) {
			continue
		}
		byDay[p.Date.UTC().Format("2006-01-02")] = p
	}

	out := make([]models.PricePoint, 0, len(byDay))
	for _, p := range byDay {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// Ensure Service implements PriceService
var _ interfaces.PriceService = (*Service)(nil)
