// Package common holds the fake upstream feeds and the SurrealDB container
// shared by integration tests.
package common

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Feed names accepted by FakeUpstream.Fail
const (
	FeedDirectory    = "directory"
	FeedFacts        = "facts"
	FeedQuote        = "quote"
	FeedEOD          = "eod"
	FeedFundamentals = "fundamentals"
	FeedInsiders     = "insiders"
)

// FakeCompany describes one company served by the fake feeds
type FakeCompany struct {
	Ticker string
	CIK    int64
	Name   string
	Price  float64
	Shares float64
}

// DefaultCompany is the company every Env serves unless options replace it
var DefaultCompany = FakeCompany{Ticker: "ACME", CIK: 42, Name: "ACME CORP", Price: 80, Shares: 100}

// FakeUpstream serves the SEC and market feed endpoints the clients call,
// with per-feed failure injection.
type FakeUpstream struct {
	Server *httptest.Server

	companies map[string]FakeCompany // ticker -> company
	now       time.Time

	mu     sync.RWMutex
	failed map[string]bool
	hits   map[string]*atomic.Int64
}

// NewFakeUpstream starts a fake feed server for the given companies.
func NewFakeUpstream(now time.Time, companies ...FakeCompany) *FakeUpstream {
	f := &FakeUpstream{
		companies: make(map[string]FakeCompany, len(companies)),
		now:       now,
		failed:    make(map[string]bool),
		hits:      make(map[string]*atomic.Int64),
	}
	for _, c := range companies {
		f.companies[c.Ticker] = c
	}
	for _, feed := range []string{FeedDirectory, FeedFacts, FeedQuote, FeedEOD, FeedFundamentals, FeedInsiders} {
		f.hits[feed] = &atomic.Int64{}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/files/company_tickers.json", f.guard(FeedDirectory, f.handleDirectory))
	mux.HandleFunc("/api/xbrl/companyfacts/", f.guard(FeedFacts, f.handleFacts))
	mux.HandleFunc("/real-time/", f.guard(FeedQuote, f.handleRealTime))
	mux.HandleFunc("/eod/", f.guard(FeedEOD, f.handleEOD))
	mux.HandleFunc("/fundamentals/", f.guard(FeedFundamentals, f.handleFundamentals))
	mux.HandleFunc("/insider-transactions", f.guard(FeedInsiders, f.handleInsiders))

	f.Server = httptest.NewServer(mux)
	return f
}

// URL returns the base URL shared by all fake feeds
func (f *FakeUpstream) URL() string {
	return f.Server.URL
}

// Close stops the fake server
func (f *FakeUpstream) Close() {
	f.Server.Close()
}

// Fail makes a feed answer 503 until Restore is called
func (f *FakeUpstream) Fail(feeds ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, feed := range feeds {
		f.failed[feed] = true
	}
}

// Restore clears all injected failures
func (f *FakeUpstream) Restore() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = make(map[string]bool)
}

// Hits returns how many requests a feed has received
func (f *FakeUpstream) Hits(feed string) int64 {
	if c, ok := f.hits[feed]; ok {
		return c.Load()
	}
	return 0
}

func (f *FakeUpstream) guard(feed string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.hits[feed].Add(1)
		f.mu.RLock()
		failed := f.failed[feed]
		f.mu.RUnlock()
		if failed {
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// companyForSymbol resolves "ACME.US" or "ACME" to a fake company
func (f *FakeUpstream) companyForSymbol(symbol string) (FakeCompany, bool) {
	ticker := strings.ToUpper(symbol)
	if i := strings.LastIndex(ticker, "."); i > 0 {
		ticker = ticker[:i]
	}
	c, ok := f.companies[ticker]
	return c, ok
}

func (f *FakeUpstream) handleDirectory(w http.ResponseWriter, r *http.Request) {
	rows := make(map[string]interface{}, len(f.companies))
	i := 0
	for _, c := range f.companies {
		rows[fmt.Sprintf("%d", i)] = map[string]interface{}{
			"cik_str": c.CIK,
			"ticker":  c.Ticker,
			"title":   c.Name,
		}
		i++
	}
	writeJSON(w, rows)
}

func (f *FakeUpstream) handleFacts(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/xbrl/companyfacts/")
	var cik int64
	if _, err := fmt.Sscanf(name, "CIK%d.json", &cik); err != nil {
		http.NotFound(w, r)
		return
	}
	for _, c := range f.companies {
		if c.CIK == cik {
			writeJSON(w, companyFactsPayload(c, f.now))
			return
		}
	}
	http.NotFound(w, r)
}

// companyFactsPayload builds four fiscal years of calendar-year filings
// growing 8% a year, plus a cover-page share count.
func companyFactsPayload(c FakeCompany, now time.Time) map[string]interface{} {
	flows := map[string]float64{
		"Revenues":                                   1000,
		"CostOfRevenue":                              550,
		"OperatingIncomeLoss":                        200,
		"NetIncomeLoss":                              150,
		"IncomeTaxExpenseBenefit":                    40,
		"NetCashProvidedByUsedInOperatingActivities": 220,
		"PaymentsToAcquirePropertyPlantAndEquipment": 50,
		"DepreciationDepletionAndAmortization":       30,
	}
	instants := map[string]float64{
		"StockholdersEquity": 800,
		"Assets":             1500,
	}

	lastYear := now.Year() - 1
	years := []int{lastYear - 3, lastYear - 2, lastYear - 1, lastYear}

	usGAAP := map[string]interface{}{}
	for tag, base := range flows {
		var points []map[string]interface{}
		for i, y := range years {
			points = append(points, factPoint(y, fmt.Sprintf("%d-01-01", y), base*(1+0.08*float64(i))))
		}
		usGAAP[tag] = map[string]interface{}{"label": tag, "units": map[string]interface{}{"USD": points}}
	}
	for tag, base := range instants {
		var points []map[string]interface{}
		for i, y := range years {
			points = append(points, factPoint(y, "", base*(1+0.08*float64(i))))
		}
		usGAAP[tag] = map[string]interface{}{"label": tag, "units": map[string]interface{}{"USD": points}}
	}

	var diluted []map[string]interface{}
	for _, y := range years {
		diluted = append(diluted, factPoint(y, fmt.Sprintf("%d-01-01", y), c.Shares))
	}
	usGAAP["WeightedAverageNumberOfDilutedSharesOutstanding"] = map[string]interface{}{
		"label": "Diluted shares",
		"units": map[string]interface{}{"shares": diluted},
	}

	cover := map[string]interface{}{
		"end":   fmt.Sprintf("%d-01-31", now.Year()),
		"val":   c.Shares,
		"fy":    lastYear,
		"fp":    "FY",
		"form":  "10-K",
		"filed": fmt.Sprintf("%d-02-20", now.Year()),
	}

	return map[string]interface{}{
		"cik":        c.CIK,
		"entityName": c.Name,
		"facts": map[string]interface{}{
			"us-gaap": usGAAP,
			"dei": map[string]interface{}{
				"EntityCommonStockSharesOutstanding": map[string]interface{}{
					"label": "Entity Common Stock, Shares Outstanding",
					"units": map[string]interface{}{"shares": []map[string]interface{}{cover}},
				},
			},
		},
	}
}

func factPoint(year int, start string, val float64) map[string]interface{} {
	p := map[string]interface{}{
		"end":   fmt.Sprintf("%d-12-31", year),
		"val":   val,
		"fy":    year,
		"fp":    "FY",
		"form":  "10-K",
		"filed": fmt.Sprintf("%d-02-15", year+1),
	}
	if start != "" {
		p["start"] = start
	}
	return p
}

func (f *FakeUpstream) handleRealTime(w http.ResponseWriter, r *http.Request) {
	c, ok := f.companyForSymbol(strings.TrimPrefix(r.URL.Path, "/real-time/"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, map[string]interface{}{
		"code":          c.Ticker + ".US",
		"timestamp":     f.now.Unix(),
		"open":          c.Price * 0.99,
		"high":          c.Price * 1.01,
		"low":           c.Price * 0.98,
		"close":         c.Price,
		"volume":        1200000,
		"previousClose": c.Price * 0.995,
		"change":        c.Price * 0.005,
		"change_p":      0.5,
	})
}

// handleEOD serves 300 daily bars rising steadily to the company price
func (f *FakeUpstream) handleEOD(w http.ResponseWriter, r *http.Request) {
	c, ok := f.companyForSymbol(strings.TrimPrefix(r.URL.Path, "/eod/"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	const n = 300
	start := c.Price * 0.75
	step := (c.Price - start) / float64(n-1)
	bars := make([]map[string]interface{}, 0, n)
	for i := 0; i < n; i++ {
		px := start + step*float64(i)
		date := f.now.AddDate(0, 0, i-n)
		bars = append(bars, map[string]interface{}{
			"date":           date.Format("2006-01-02"),
			"open":           px,
			"high":           px * 1.005,
			"low":            px * 0.995,
			"close":          px,
			"adjusted_close": px,
			"volume":         1000000,
		})
	}
	writeJSON(w, bars)
}

func (f *FakeUpstream) handleFundamentals(w http.ResponseWriter, r *http.Request) {
	c, ok := f.companyForSymbol(strings.TrimPrefix(r.URL.Path, "/fundamentals/"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, map[string]interface{}{
		"General": map[string]interface{}{
			"Code":         c.Ticker,
			"Name":         c.Name,
			"Exchange":     "NYSE",
			"CurrencyCode": "USD",
			"Sector":       "Industrials",
			"Industry":     "Specialty Industrial Machinery",
		},
		"Highlights": map[string]interface{}{
			"MarketCapitalization":  c.Price * c.Shares,
			"WallStreetTargetPrice": c.Price * 1.1,
		},
		"SharesStats": map[string]interface{}{
			"SharesOutstanding": c.Shares,
		},
		"Technicals": map[string]interface{}{
			"Beta": 1.1,
		},
	})
}

func (f *FakeUpstream) handleInsiders(w http.ResponseWriter, r *http.Request) {
	if _, ok := f.companyForSymbol(r.URL.Query().Get("code")); !ok {
		writeJSON(w, []interface{}{})
		return
	}
	day := f.now.AddDate(0, 0, -10).Format("2006-01-02")
	writeJSON(w, []map[string]interface{}{
		{
			"date":                        day,
			"transactionDate":             day,
			"ownerName":                   "Jane Roe",
			"ownerTitle":                  "Director",
			"transactionCode":             "P",
			"transactionAmount":           1000,
			"transactionPrice":            75,
			"transactionAcquiredDisposed": "A",
		},
	})
}
