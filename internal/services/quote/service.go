// Package quote provides a live quote service with automatic fallback
package quote

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/interfaces"
	"github.com/bobmcallan/fairval/internal/models"
)

// Quote sources
const (
	SourceRealtime = "realtime"
	SourceEOD      = "eod"
)

// StalenessThreshold is the age beyond which a live quote is considered
// stale enough to prefer a newer daily bar.
var StalenessThreshold = common.FreshnessQuote

// Service implements QuoteService with the live feed first and the latest
// daily bar as fallback.
type Service struct {
	client interfaces.MarketClient
	prices interfaces.PriceService
	logger *common.Logger
	now    func() time.Time // injectable clock for testing
}

// NewService creates a new quote service.
// prices may be nil, in which case fallback is skipped.
func NewService(client interfaces.MarketClient, prices interfaces.PriceService, logger *common.Logger) *Service {
	return &Service{
		client: client,
		prices: prices,
		logger: logger,
		now:    time.Now,
	}
}

// GetQuote retrieves a live quote, falling back to the latest daily bar
// when the live quote fails, is empty, or is older than that bar.
func (s *Service) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	quote, liveErr := s.client.GetRealTimeQuote(ctx, symbol)
	if liveErr == nil && (quote == nil || quote.Price <= 0) {
		liveErr = fmt.Errorf("empty quote")
	}
	if liveErr == nil {
		quote.Source = SourceRealtime
		if !s.isStale(quote.Timestamp) || s.prices == nil {
			return quote, nil
		}
	}

	if s.prices == nil {
		return nil, fmt.Errorf("quote unavailable for %s: %w", symbol, liveErr)
	}

	hist, histErr := s.prices.GetHistory(ctx, symbol)
	if histErr != nil || hist == nil || len(hist.Points) == 0 {
		if liveErr == nil {
			// Stale but usable
			return quote, nil
		}
		s.logger.Warn().Err(liveErr).Str("symbol", symbol).Msg("Live quote and daily bar fallback both failed")
		if histErr == nil {
			histErr = fmt.Errorf("no daily bars")
		}
		return nil, fmt.Errorf("quote unavailable for %s: live: %v; eod: %w", symbol, liveErr, histErr)
	}

	fallback := FromBars(symbol, hist.Points)
	if liveErr == nil && !fallback.Timestamp.After(quote.Timestamp) {
		return quote, nil
	}

	s.logger.Info().
		Str("symbol", symbol).
		Bool("live_failed", liveErr != nil).
		Float64("price", fallback.Price).
		Msg("Quote served from latest daily bar")
	return fallback, nil
}

// FromBars builds a quote from the last bar of an ascending series.
// points must not be empty.
func FromBars(symbol string, points []models.PricePoint) *models.Quote {
	last := points[len(points)-1]
	q := &models.Quote{
		Symbol:    symbol,
		Price:     last.Close,
		Open:      last.Open,
		High:      last.High,
		Low:       last.Low,
		Volume:    int64(last.Volume),
		Timestamp: last.Date,
		Source:    SourceEOD,
	}
	if len(points) > 1 {
		prev := points[len(points)-2].Close
		q.PreviousClose = prev
		if prev > 0 {
			q.Change = last.Close - prev
			q.ChangePct = q.Change / prev * 100
		}
	}
	return q
}

// isStale returns true when the quote timestamp is older than StalenessThreshold.
func (s *Service) isStale(ts time.Time) bool {
	if ts.IsZero() {
		return true
	}
	return s.now().Sub(ts) > StalenessThreshold
}

// Ensure Service implements QuoteService
var _ interfaces.QuoteService = (*Service)(nil)
