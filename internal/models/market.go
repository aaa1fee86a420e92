// Package models defines data structures for Fairval
package models

import (
	"time"
)

// Quote holds a live price snapshot from the market feed
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"` // current/last price
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	PreviousClose float64   `json:"previous_close"`
	Change        float64   `json:"change"`
	ChangePct     float64   `json:"change_p"`
	Volume        int64     `json:"volume"`
	Timestamp     time.Time `json:"timestamp"`
	Source        string    `json:"source,omitempty"` // "realtime" or "eod"
}

// PricePoint represents a single day's price data. Series are kept
// ascending by date with at most one point per day.
type PricePoint struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceHistory is a cached daily series for one symbol
type PriceHistory struct {
	Symbol    string       `json:"symbol"`
	Points    []PricePoint `json:"points"`
	FetchedAt time.Time    `json:"fetched_at"`
}

// KeyStats holds the extended statistics published by the market feed.
// Absent figures are nil, never zero.
type KeyStats struct {
	Symbol             string    `json:"symbol"`
	Name               string    `json:"name"`
	Exchange           string    `json:"exchange"`
	Currency           string    `json:"currency"`
	Sector             string    `json:"sector"`
	Industry           string    `json:"industry"`
	Description        string    `json:"description,omitempty"`
	WebURL             string    `json:"web_url,omitempty"`
	MarketCap          *float64  `json:"market_cap"`
	SharesOutstanding  *float64  `json:"shares_outstanding"`
	Beta               *float64  `json:"beta"`
	TrailingPE         *float64  `json:"trailing_pe"`
	ForwardPE          *float64  `json:"forward_pe"`
	PriceToBook        *float64  `json:"price_to_book"`
	PriceToSales       *float64  `json:"price_to_sales"`
	EPS                *float64  `json:"eps"`
	BookValuePerShare  *float64  `json:"book_value_per_share"`
	DividendYield      *float64  `json:"dividend_yield"`
	ProfitMargin       *float64  `json:"profit_margin"`
	ReturnOnEquity     *float64  `json:"return_on_equity"`
	RevenueGrowthYoY   *float64  `json:"revenue_growth_yoy"`
	EarningsGrowthYoY  *float64  `json:"earnings_growth_yoy"`
	AnalystTargetPrice *float64  `json:"analyst_target_price"`
	AnalystCount       int       `json:"analyst_count"`
	High52Week         *float64  `json:"high_52_week"`
	Low52Week          *float64  `json:"low_52_week"`
	LastUpdated        time.Time `json:"last_updated"`
}

// Profile identifies the company behind a ticker
type Profile struct {
	Ticker      string `json:"ticker"`
	Symbol      string `json:"symbol"`
	CIK         string `json:"cik,omitempty"`
	Name        string `json:"name"`
	Exchange    string `json:"exchange,omitempty"`
	Sector      string `json:"sector,omitempty"`
	Industry    string `json:"industry,omitempty"`
	Currency    string `json:"currency,omitempty"`
	Description string `json:"description,omitempty"`
	WebURL      string `json:"web_url,omitempty"`
}

// DirectoryEntry maps a ticker to its regulatory company identifier
type DirectoryEntry struct {
	Ticker string `json:"ticker"`
	CIK    string `json:"cik"` // zero-padded to 10 digits
	Name   string `json:"name"`
}

// Directory is a snapshot of the company directory feed
type Directory struct {
	Entries   map[string]DirectoryEntry `json:"entries"` // keyed by directory ticker (BRK-B)
	FetchedAt time.Time                 `json:"fetched_at"`
}

// InsiderTransaction is a single reported insider trade
type InsiderTransaction struct {
	Date     time.Time `json:"date"`
	Owner    string    `json:"owner"`
	Title    string    `json:"title,omitempty"`
	Code     string    `json:"code"` // P = purchase, S = sale
	Shares   float64   `json:"shares"`
	Price    float64   `json:"price"`
	Value    float64   `json:"value"`
	Acquired bool      `json:"acquired"`
}

// InsiderSummary aggregates recent insider activity
type InsiderSummary struct {
	Transactions []InsiderTransaction `json:"transactions"`
	WindowDays   int                  `json:"window_days"`
	BuyCount     int                  `json:"buy_count"`
	SellCount    int                  `json:"sell_count"`
	BuyShares    float64              `json:"buy_shares"`
	SellShares   float64              `json:"sell_shares"`
	NetShares    float64              `json:"net_shares"`
	BuyValue     float64              `json:"buy_value"`
	SellValue    float64              `json:"sell_value"`
	NetValue     float64              `json:"net_value"`
}
