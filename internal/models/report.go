package models

import "time"

// Data sources reported in DataQuality
const (
	SourceDirectory  = "directory"
	SourceFacts      = "facts"
	SourceQuote      = "quote"
	SourceStatistics = "statistics"
	SourcePrices     = "prices"
	SourceInsiders   = "insiders"
)

// SourceStatus reports whether one upstream source contributed to a response
type SourceStatus struct {
	Available bool   `json:"available"`
	Origin    string `json:"origin,omitempty"` // e.g. realtime, eod, cache
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

// DataQuality summarises per-source availability and missing inputs
type DataQuality struct {
	Sources           map[string]SourceStatus `json:"sources"`
	MissingInputs     []string                `json:"missing_inputs"`
	ReconciledMetrics int                     `json:"reconciled_metrics"`
	SharesSource      string                  `json:"shares_source,omitempty"`
	Degraded          bool                    `json:"degraded"`
}

// StockReport is the aggregated per-ticker response
type StockReport struct {
	Ticker           string              `json:"ticker"`
	Symbol           string              `json:"symbol"`
	GeneratedAt      time.Time           `json:"generated_at"`
	Profile          Profile             `json:"profile"`
	Quote            *Quote              `json:"quote"`
	Statistics       *KeyStats           `json:"statistics"`
	Financials       FinancialHistory    `json:"financials"`
	Ratios           []Ratios            `json:"ratios"`
	Multiples        *ValuationMultiples `json:"multiples"`
	PerShare         []PerShareMetrics   `json:"per_share"`
	Valuation        *CompositeValuation `json:"valuation"`
	ReverseValuation []ReverseValuation  `json:"reverse_valuation"`
	Signal           *TradingSignal      `json:"signal"`
	Insiders         *InsiderSummary     `json:"insiders"`
	DataQuality      DataQuality         `json:"data_quality"`
}

// ValuationReport is the valuation-only response
type ValuationReport struct {
	Ticker           string              `json:"ticker"`
	Price            *float64            `json:"price"`
	Valuation        *CompositeValuation `json:"valuation"`
	ReverseValuation []ReverseValuation  `json:"reverse_valuation"`
	DataQuality      DataQuality         `json:"data_quality"`
}

// SignalReport is the signal-only response
type SignalReport struct {
	Ticker      string         `json:"ticker"`
	Symbol      string         `json:"symbol"`
	Signal      *TradingSignal `json:"signal"`
	DataQuality DataQuality    `json:"data_quality"`
}

// HistoryReport is the statements-only response for one period type
type HistoryReport struct {
	Ticker      string         `json:"ticker"`
	CIK         string         `json:"cik"`
	Period      PeriodType     `json:"period"`
	Records     []PeriodRecord `json:"records"`
	Ratios      []Ratios       `json:"ratios,omitempty"`
	DataQuality DataQuality    `json:"data_quality"`
}
