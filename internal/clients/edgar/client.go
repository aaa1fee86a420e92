// Package edgar provides a client for the SEC EDGAR company facts and
// company directory feeds
package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/interfaces"
)

const (
	DefaultDataURL   = "https://data.sec.gov"
	DefaultWWWURL    = "https://www.sec.gov"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // SEC fair-access ceiling, requests per second
)

// Client implements the FactsClient and DirectoryClient interfaces.
// The SEC rejects requests without a descriptive User-Agent.
type Client struct {
	dataURL    string
	wwwURL     string
	userAgent  string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithDataURL sets the base URL of the XBRL API host
func WithDataURL(dataURL string) ClientOption {
	return func(c *Client) {
		c.dataURL = strings.TrimRight(dataURL, "/")
	}
}

// WithWWWURL sets the base URL of the host serving the ticker directory
func WithWWWURL(wwwURL string) ClientOption {
	return func(c *Client) {
		c.wwwURL = strings.TrimRight(wwwURL, "/")
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

// NewClient creates a new EDGAR client
func NewClient(userAgent string, opts ...ClientOption) *Client {
	c := &Client{
		dataURL:   DefaultDataURL,
		wwwURL:    DefaultWWWURL,
		userAgent: userAgent,
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
	return fmt.Sprintf("EDGAR API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// NotFound reports whether the feed has no document at the endpoint
func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// get performs a rate-limited GET request against base+path
func (c *Client) get(ctx context.Context, base, path string, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Error().Err(err).Str("path", path).Dur("elapsed", elapsed).Msg("EDGAR request failed")
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn().Str("path", path).Int("status", resp.StatusCode).Dur("elapsed", elapsed).Msg("EDGAR non-OK response")
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug().Str("path", path).Dur("elapsed", elapsed).Msg("EDGAR request")
	return nil
}

// PadCIK formats a company identifier as the ten-digit form used in paths
func PadCIK(cik string) (string, error) {
	n, err := strconv.ParseInt(strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(cik)), "CIK"), 10, 64)
	if err != nil || n <= 0 {
		return "", fmt.Errorf("invalid CIK %q", cik)
	}
	return fmt.Sprintf("%010d", n), nil
}

// Ensure Client implements the feed interfaces
var (
	_ interfaces.FactsClient     = (*Client)(nil)
	_ interfaces.DirectoryClient = (*Client)(nil)
)
