package report

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/interfaces"
	"github.com/bobmcallan/fairval/internal/models"
	"golang.org/x/sync/errgroup"
)

// InsiderLimit caps the insider transactions requested per report
const InsiderLimit = 50

// plan selects the upstream sources a report needs
type plan struct {
	facts      bool
	quote      bool
	statistics bool
	prices     bool
	insiders   bool
}

var (
	planStock     = plan{facts: true, quote: true, statistics: true, prices: true, insiders: true}
	planValuation = plan{facts: true, quote: true, statistics: true, prices: true}
	planSignal    = plan{prices: true}
	planHistory   = plan{facts: true}
)

// bundle collects what each source returned. Fields are written by one
// goroutine each and read only after the group completes.
type bundle struct {
	ticker string
	symbol string

	entry        *models.DirectoryEntry
	directoryErr error
	companyFacts *models.CompanyFacts
	quote        *models.Quote
	stats        *models.KeyStats
	prices       *models.PriceHistory
	pricesErr    error
	insiders     []models.InsiderTransaction

	mu      sync.Mutex
	sources map[string]models.SourceStatus
}

func (b *bundle) record(source, origin string, elapsed time.Duration, err error) {
	status := models.SourceStatus{
		Available: err == nil,
		Origin:    origin,
		LatencyMs: elapsed.Milliseconds(),
	}
	if err != nil {
		status.Error = err.Error()
	}
	b.mu.Lock()
	b.sources[source] = status
	b.mu.Unlock()
}

// quality reports per-source availability; degraded when any requested
// source failed
func (b *bundle) quality() models.DataQuality {
	q := models.DataQuality{
		Sources:       make(map[string]models.SourceStatus, len(b.sources)),
		MissingInputs: []string{},
	}
	for name, status := range b.sources {
		q.Sources[name] = status
		if !status.Available {
			q.Degraded = true
		}
	}
	return q
}

func (b *bundle) failures() map[string]string {
	out := make(map[string]string)
	for name, status := range b.sources {
		if !status.Available {
			out[name] = status.Error
		}
	}
	return out
}

func (b *bundle) points() []models.PricePoint {
	if b.prices == nil {
		return nil
	}
	return b.prices.Points
}

func (b *bundle) profile() models.Profile {
	p := models.Profile{Ticker: b.ticker, Symbol: b.symbol}
	if b.entry != nil {
		p.CIK = b.entry.CIK
		p.Name = b.entry.Name
	}
	if p.Name == "" && b.companyFacts != nil {
		p.Name = b.companyFacts.EntityName
	}
	if st := b.stats; st != nil {
		if p.Name == "" {
			p.Name = st.Name
		}
		p.Exchange = st.Exchange
		p.Sector = st.Sector
		p.Industry = st.Industry
		p.Currency = st.Currency
		p.Description = st.Description
		p.WebURL = st.WebURL
	}
	return p
}

// gather validates the ticker, then fetches every planned source
// concurrently. Each call is bounded by the upstream timeout and its
// failure is captured rather than returned, so one source degrades the
// report without aborting it. Cancellation of ctx is returned.
func (s *Service) gather(ctx context.Context, ticker string, p plan) (*bundle, error) {
	if !common.IsValidTicker(ticker) {
		return nil, fmt.Errorf("%q: %w", ticker, interfaces.ErrInvalidTicker)
	}
	ticker = common.NormalizeTicker(ticker)

	b := &bundle{
		ticker:  ticker,
		symbol:  common.MarketSymbol(ticker, s.options.Exchange),
		sources: make(map[string]models.SourceStatus),
	}

	// Feed failures are captured per source by call. The group only fails
	// when the caller's context ends, which aborts the whole report.
	g, gctx := errgroup.WithContext(ctx)

	if p.facts {
		g.Go(func() error {
			err := s.call(gctx, b, models.SourceDirectory, func(ctx context.Context) (string, error) {
				entry, err := s.directory.Lookup(ctx, ticker)
				if err != nil {
					return "", err
				}
				b.entry = entry
				return "", nil
			})
			if err != nil {
				b.directoryErr = err
				b.record(models.SourceFacts, "", 0, errors.New("company identifier unresolved"))
				return gctx.Err()
			}
			s.call(gctx, b, models.SourceFacts, func(ctx context.Context) (string, error) {
				cf, err := s.facts.GetCompanyFacts(ctx, b.entry.CIK)
				if err != nil {
					return "", err
				}
				if cf == nil || len(cf.Facts) == 0 {
					return "", errors.New("no facts reported")
				}
				b.companyFacts = cf
				return "", nil
			})
			return gctx.Err()
		})
	}

	if p.quote {
		g.Go(func() error {
			s.call(gctx, b, models.SourceQuote, func(ctx context.Context) (string, error) {
				q, err := s.quotes.GetQuote(ctx, b.symbol)
				if err != nil {
					return "", err
				}
				b.quote = q
				return q.Source, nil
			})
			return gctx.Err()
		})
	}

	if p.statistics {
		g.Go(func() error {
			s.call(gctx, b, models.SourceStatistics, func(ctx context.Context) (string, error) {
				st, err := s.market.GetFundamentals(ctx, b.symbol)
				if err != nil {
					return "", err
				}
				b.stats = st
				return "", nil
			})
			return gctx.Err()
		})
	}

	if p.prices {
		g.Go(func() error {
			b.pricesErr = s.call(gctx, b, models.SourcePrices, func(ctx context.Context) (string, error) {
				hist, err := s.prices.GetHistory(ctx, b.symbol)
				if err != nil {
					return "", err
				}
				b.prices = hist
				return "", nil
			})
			return gctx.Err()
		})
	}

	if p.insiders {
		g.Go(func() error {
			s.call(gctx, b, models.SourceInsiders, func(ctx context.Context) (string, error) {
				txs, err := s.market.GetInsiderTransactions(ctx, b.symbol, InsiderLimit)
				if err != nil {
					return "", err
				}
				b.insiders = txs
				return "", nil
			})
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("gather %s: %w", ticker, err)
	}

	if err := b.resolve(p); err != nil {
		return nil, err
	}
	return b, nil
}

// resolve decides whether the gathered data can produce a report.
// An unresolvable ticker with no quote is not found; a report with no
// usable source is an upstream failure carrying per-source detail.
func (b *bundle) resolve(p plan) error {
	if p.facts && errors.Is(b.directoryErr, interfaces.ErrNotFound) && b.quote == nil {
		return fmt.Errorf("%s: %w", b.ticker, interfaces.ErrNotFound)
	}
	if !p.facts && b.prices == nil && isNotFound(b.pricesErr) {
		return fmt.Errorf("%s: %w", b.ticker, interfaces.ErrNotFound)
	}

	usable := b.companyFacts != nil || b.quote != nil || b.stats != nil || b.prices != nil
	if !usable {
		return &interfaces.UpstreamError{Ticker: b.ticker, Sources: b.failures()}
	}
	return nil
}

// isNotFound reports whether a feed rejected the symbol itself
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, interfaces.ErrNotFound) {
		return true
	}
	var nf interface{ NotFound() bool }
	return errors.As(err, &nf) && nf.NotFound()
}

func (s *Service) call(ctx context.Context, b *bundle, source string, fn func(ctx context.Context) (string, error)) error {
	cctx, cancel := context.WithTimeout(ctx, s.options.UpstreamTimeout)
	defer cancel()

	start := time.Now()
	origin, err := fn(cctx)
	elapsed := time.Since(start)

	s.metrics.ObserveUpstream(source, elapsed, err)
	b.record(source, origin, elapsed, err)

	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("ticker", b.ticker).
			Str("source", source).
			Dur("elapsed", elapsed).
			Msg("Source unavailable, degrading")
		return err
	}
	s.logger.Debug().Str("ticker", b.ticker).Str("source", source).Dur("elapsed", elapsed).Msg("Source fetched")
	return nil
}
