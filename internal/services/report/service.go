// Package report runs the reconciliation, valuation and signal pipeline for
// one ticker and assembles the aggregated response.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/facts"
	"github.com/bobmcallan/fairval/internal/history"
	"github.com/bobmcallan/fairval/internal/interfaces"
	"github.com/bobmcallan/fairval/internal/metrics"
	"github.com/bobmcallan/fairval/internal/models"
	"github.com/bobmcallan/fairval/internal/signals"
	"github.com/bobmcallan/fairval/internal/valuation"
)

// Report kinds, used for metrics and logging
const (
	KindStock     = "stock"
	KindValuation = "valuation"
	KindSignal    = "signal"
	KindHistory   = "history"
)

// Options holds pipeline settings
type Options struct {
	Exchange        string        // market feed exchange suffix, default US
	UpstreamTimeout time.Duration // bound on each upstream call
}

// Service implements ReportService
type Service struct {
	directory interfaces.DirectoryService
	facts     interfaces.FactsClient
	market    interfaces.MarketClient
	quotes    interfaces.QuoteService
	prices    interfaces.PriceService
	valuation *valuation.Engine
	signals   *signals.Engine
	metrics   *metrics.Metrics
	options   Options
	logger    *common.Logger
	now       func() time.Time // injectable clock for testing
}

// NewService creates a new report service
func NewService(
	directory interfaces.DirectoryService,
	factsClient interfaces.FactsClient,
	market interfaces.MarketClient,
	quotes interfaces.QuoteService,
	prices interfaces.PriceService,
	valuationEngine *valuation.Engine,
	signalEngine *signals.Engine,
	m *metrics.Metrics,
	options Options,
	logger *common.Logger,
) *Service {
	if options.UpstreamTimeout <= 0 {
		options.UpstreamTimeout = common.DefaultUpstreamTimeout
	}
	if options.Exchange == "" {
		options.Exchange = "US"
	}
	return &Service{
		directory: directory,
		facts:     factsClient,
		market:    market,
		quotes:    quotes,
		prices:    prices,
		valuation: valuationEngine,
		signals:   signalEngine,
		metrics:   m,
		options:   options,
		logger:    logger,
		now:       time.Now,
	}
}

// GetStockReport assembles the full aggregated response
func (s *Service) GetStockReport(ctx context.Context, ticker string) (report *models.StockReport, err error) {
	defer func() { s.observe(KindStock, ticker, err) }()

	b, err := s.gather(ctx, ticker, planStock)
	if err != nil {
		return nil, err
	}

	a := s.analyse(b)
	var discountRate *float64
	if a.valuation != nil {
		discountRate = a.valuation.Assumptions.DiscountRate
	}

	report = &models.StockReport{
		Ticker:           b.ticker,
		Symbol:           b.symbol,
		GeneratedAt:      s.now().UTC(),
		Profile:          b.profile(),
		Quote:            b.quote,
		Statistics:       b.stats,
		Financials:       a.history,
		Ratios:           history.ComputeRatios(a.history.Annual),
		Multiples:        history.ComputeMultiples(a.history.LatestAnnual(), a.latestPerShare(), a.inputs.Price, a.inputs.MarketCap),
		PerShare:         a.perShare,
		Valuation:        a.valuation,
		ReverseValuation: s.valuation.Reverse(a.inputs, discountRate),
		Signal:           s.signals.Compute(b.points()),
		Insiders:         SummarizeInsiders(b.insiders, s.now(), InsiderWindowDays),
		DataQuality:      a.quality(b),
	}

	s.logger.Info().
		Str("ticker", report.Ticker).
		Int("annual_records", len(a.history.Annual)).
		Str("action", string(report.Signal.Action)).
		Bool("degraded", report.DataQuality.Degraded).
		Msg("Stock report assembled")

	return report, nil
}

// GetValuation returns the composite and reverse valuation only
func (s *Service) GetValuation(ctx context.Context, ticker string) (report *models.ValuationReport, err error) {
	defer func() { s.observe(KindValuation, ticker, err) }()

	b, err := s.gather(ctx, ticker, planValuation)
	if err != nil {
		return nil, err
	}

	a := s.analyse(b)
	var discountRate *float64
	if a.valuation != nil {
		discountRate = a.valuation.Assumptions.DiscountRate
	}

	return &models.ValuationReport{
		Ticker:           b.ticker,
		Price:            a.inputs.Price,
		Valuation:        a.valuation,
		ReverseValuation: s.valuation.Reverse(a.inputs, discountRate),
		DataQuality:      a.quality(b),
	}, nil
}

// GetSignal returns the trading signal only, using the market feed alone
func (s *Service) GetSignal(ctx context.Context, ticker string) (report *models.SignalReport, err error) {
	defer func() { s.observe(KindSignal, ticker, err) }()

	b, err := s.gather(ctx, ticker, planSignal)
	if err != nil {
		return nil, err
	}

	return &models.SignalReport{
		Ticker:      b.ticker,
		Symbol:      b.symbol,
		Signal:      s.signals.Compute(b.points()),
		DataQuality: b.quality(),
	}, nil
}

// GetHistory returns reconciled statements for one period type
func (s *Service) GetHistory(ctx context.Context, ticker string, period models.PeriodType) (report *models.HistoryReport, err error) {
	defer func() { s.observe(KindHistory, ticker, err) }()

	depth := history.DefaultAnnualDepth
	switch period {
	case models.PeriodAnnual:
	case models.PeriodQuarterly:
		depth = history.DefaultQuarterlyDepth
	default:
		return nil, fmt.Errorf("unknown period %q: %w", period, interfaces.ErrInvalidPeriod)
	}

	b, err := s.gather(ctx, ticker, planHistory)
	if err != nil {
		return nil, err
	}

	reconciler := facts.NewReconciler(b.companyFacts)
	records := history.NewBuilder(reconciler).Build(period, depth)

	quality := b.quality()
	quality.ReconciledMetrics = countReconciled(reconciler)

	report = &models.HistoryReport{
		Ticker:      b.ticker,
		Period:      period,
		Records:     records,
		DataQuality: quality,
	}
	if b.entry != nil {
		report.CIK = b.entry.CIK
	}
	if period == models.PeriodAnnual {
		report.Ratios = history.ComputeRatios(records)
	}
	return report, nil
}

func (s *Service) observe(kind, ticker string, err error) {
	outcome := metrics.OutcomeSuccess
	switch {
	case err == nil:
	case errors.Is(err, interfaces.ErrInvalidTicker), errors.Is(err, interfaces.ErrInvalidPeriod):
		outcome = "invalid"
	case errors.Is(err, interfaces.ErrNotFound):
		outcome = "not_found"
	default:
		outcome = metrics.OutcomeError
	}
	s.metrics.Report(kind, outcome)
	if err != nil {
		s.logger.Warn().Err(err).Str("ticker", ticker).Str("kind", kind).Msg("Report failed")
	}
}

// Ensure Service implements ReportService
var _ interfaces.ReportService = (*Service)(nil)
