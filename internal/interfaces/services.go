package interfaces

import (
	"context"

	"github.com/bobmcallan/fairval/internal/models"
)

// DirectoryService resolves tickers to company identifiers
type DirectoryService interface {
	// Lookup returns the directory entry for a ticker, or ErrNotFound
	Lookup(ctx context.Context, ticker string) (*models.DirectoryEntry, error)

	// Refresh re-fetches the directory regardless of freshness
	Refresh(ctx context.Context) error

	// Warm loads the directory if the cache is cold and returns its size
	Warm(ctx context.Context) (int, error)
}

// PriceService serves cached daily price history
type PriceService interface {
	// GetHistory returns ascending, deduplicated daily bars for a market symbol
	GetHistory(ctx context.Context, symbol string) (*models.PriceHistory, error)
}

// QuoteService serves live quotes with fallback to the latest daily bar
type QuoteService interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// ReportService runs the reconciliation, valuation and signal pipeline
type ReportService interface {
	// GetStockReport assembles the full aggregated response
	GetStockReport(ctx context.Context, ticker string) (*models.StockReport, error)

	// GetValuation returns the composite and reverse valuation only
	GetValuation(ctx context.Context, ticker string) (*models.ValuationReport, error)

	// GetSignal returns the trading signal only, using the market feed alone
	GetSignal(ctx context.Context, ticker string) (*models.SignalReport, error)

	// GetHistory returns reconciled statements for one period type
	GetHistory(ctx context.Context, ticker string, period models.PeriodType) (*models.HistoryReport, error)
}
