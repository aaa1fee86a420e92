// Package eodhd provides a client for the EODHD market data API
package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/interfaces"
	"github.com/bobmcallan/fairval/internal/models"
)

// flexFloat64 handles JSON values that may be either a number or a string.
// "NA", "N/A", empty strings and null decode as unset.
type flexFloat64 struct {
	value float64
	set   bool
}

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	*f = flexFloat64{}
	if string(data) == "null" {
		return nil
	}
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64{value: num, set: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" || strings.EqualFold(s, "NA") || strings.EqualFold(s, "N/A") {
			return nil
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		*f = flexFloat64{value: num, set: true}
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

// Float returns the value, or 0 when unset
func (f flexFloat64) Float() float64 {
	return f.value
}

// Ptr returns the value, or nil when unset or zero. The feed reports
// unknown statistics as 0.
func (f flexFloat64) Ptr() *float64 {
	if !f.set || f.value == 0 {
		return nil
	}
	return common.Ptr(f.value)
}

const (
	DefaultBaseURL   = "https://eodhd.com/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// Client implements the MarketClient interface
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new EODHD client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// NotFound reports whether the feed does not know the symbol
func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug().Str("path", path).Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("EODHD API request")

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// realTimeResponse is the /real-time payload. Missing fields arrive as "NA".
type realTimeResponse struct {
	Code          string      `json:"code"`
	Timestamp     flexFloat64 `json:"timestamp"`
	Open          flexFloat64 `json:"open"`
	High          flexFloat64 `json:"high"`
	Low           flexFloat64 `json:"low"`
	Close         flexFloat64 `json:"close"`
	Volume        flexFloat64 `json:"volume"`
	PreviousClose flexFloat64 `json:"previousClose"`
	Change        flexFloat64 `json:"change"`
	ChangePct     flexFloat64 `json:"change_p"`
}

// GetRealTimeQuote retrieves a live (delayed) quote. A response without a
// positive close is reported as an error so callers can fall back.
func (c *Client) GetRealTimeQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	path := "/real-time/" + symbol

	var resp realTimeResponse
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Close.Float() <= 0 {
		return nil, fmt.Errorf("no live price for %s", symbol)
	}

	quote := &models.Quote{
		Symbol:        symbol,
		Price:         resp.Close.Float(),
		Open:          resp.Open.Float(),
		High:          resp.High.Float(),
		Low:           resp.Low.Float(),
		PreviousClose: resp.PreviousClose.Float(),
		Change:        resp.Change.Float(),
		ChangePct:     resp.ChangePct.Float(),
		Volume:        int64(resp.Volume.Float()),
		Source:        "realtime",
	}
	if ts := resp.Timestamp.Float(); ts > 0 {
		quote.Timestamp = time.Unix(int64(ts), 0).UTC()
	}
	return quote, nil
}

// eodBarResponse represents the API response for EOD data
type eodBarResponse struct {
	Date          string      `json:"date"`
	Open          flexFloat64 `json:"open"`
	High          flexFloat64 `json:"high"`
	Low           flexFloat64 `json:"low"`
	Close         flexFloat64 `json:"close"`
	AdjustedClose flexFloat64 `json:"adjusted_close"`
	Volume        flexFloat64 `json:"volume"`
}

// GetEOD retrieves daily bars ascending by date. Bars with unparseable
// dates are skipped.
func (c *Client) GetEOD(ctx context.Context, symbol string, opts ...interfaces.EODOption) ([]models.PricePoint, error) {
	params := &interfaces.EODParams{}
	for _, opt := range opts {
		opt(params)
	}

	urlParams := url.Values{}
	urlParams.Set("period", "d")
	urlParams.Set("order", "a")
	if !params.From.IsZero() {
		urlParams.Set("from", params.From.Format("2006-01-02"))
	}
	if !params.To.IsZero() {
		urlParams.Set("to", params.To.Format("2006-01-02"))
	}

	var bars []eodBarResponse
	if err := c.get(ctx, "/eod/"+symbol, urlParams, &bars); err != nil {
		return nil, err
	}

	points := make([]models.PricePoint, 0, len(bars))
	for _, bar := range bars {
		date, err := time.Parse("2006-01-02", bar.Date)
		if err != nil {
			continue
		}
		points = append(points, models.PricePoint{
			Date:   date,
			Open:   bar.Open.Float(),
			High:   bar.High.Float(),
			Low:    bar.Low.Float(),
			Close:  bar.Close.Float(),
			Volume: bar.Volume.Float(),
		})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	if params.Limit > 0 && len(points) > params.Limit {
		points = points[len(points)-params.Limit:]
	}
	return points, nil
}

// Ensure Client implements MarketClient
var _ interfaces.MarketClient = (*Client)(nil)
