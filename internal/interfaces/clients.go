// Package interfaces defines service contracts for Fairval
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/fairval/internal/models"
)

// FactsClient provides access to the regulatory XBRL company facts feed
type FactsClient interface {
	// GetCompanyFacts retrieves every reported fact for a company identifier
	GetCompanyFacts(ctx context.Context, cik string) (*models.CompanyFacts, error)
}

// DirectoryClient provides the ticker to company identifier mapping
type DirectoryClient interface {
	// GetCompanyTickers retrieves the full company directory
	GetCompanyTickers(ctx context.Context) ([]models.DirectoryEntry, error)
}

// MarketClient provides access to the market data feed
type MarketClient interface {
	// GetRealTimeQuote retrieves a live (delayed) quote
	GetRealTimeQuote(ctx context.Context, symbol string) (*models.Quote, error)

	// GetFundamentals retrieves the company description and extended statistics
	GetFundamentals(ctx context.Context, symbol string) (*models.KeyStats, error)

	// GetEOD retrieves daily bars, ascending by date
	GetEOD(ctx context.Context, symbol string, opts ...EODOption) ([]models.PricePoint, error)

	// GetInsiderTransactions retrieves recent insider transactions, newest first
	GetInsiderTransactions(ctx context.Context, symbol string, limit int) ([]models.InsiderTransaction, error)
}

// EODOption configures EOD data requests
type EODOption func(*EODParams)

// EODParams holds EOD query parameters
type EODParams struct {
	From  time.Time
	To    time.Time
	Limit int
}

// WithDateRange sets the date range for EOD query
func WithDateRange(from, to time.Time) EODOption {
	return func(p *EODParams) {
		p.From = from
		p.To = to
	}
}

// WithLimit sets the limit for EOD query
func WithLimit(limit int) EODOption {
	return func(p *EODParams) {
		p.Limit = limit
	}
}
