package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bobmcallan/fairval/internal/app"
	fvcommon "github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/server"
	"github.com/bobmcallan/fairval/tests/common"
)

// EnvOptions configures the in-process test environment
type EnvOptions struct {
	// Storage selects the cache backend; the zero value uses memory
	Storage fvcommon.StorageConfig

	// Companies replaces DefaultCompany in the fake feeds
	Companies []common.FakeCompany

	// UpstreamTimeout bounds each feed call; defaults to 5s
	UpstreamTimeout string
}

// Env runs the full application against fake upstream feeds
type Env struct {
	t        *testing.T
	Upstream *common.FakeUpstream
	App      *app.App
	server   *httptest.Server
	ctx      context.Context
	cancel   context.CancelFunc
}

// newEnv creates a test environment with default options.
func newEnv(t *testing.T) *Env {
	return newEnvWithOptions(t, EnvOptions{})
}

// newEnvWithOptions creates a test environment with custom options.
func newEnvWithOptions(t *testing.T, opts EnvOptions) *Env {
	t.Helper()

	companies := opts.Companies
	if len(companies) == 0 {
		companies = []common.FakeCompany{common.DefaultCompany}
	}
	upstream := common.NewFakeUpstream(time.Now().UTC(), companies...)

	config := fvcommon.NewDefaultConfig()
	config.Environment = "test"
	config.Clients.EDGAR.DataURL = upstream.URL()
	config.Clients.EDGAR.WWWURL = upstream.URL()
	config.Clients.EDGAR.RateLimit = 100
	config.Clients.EODHD.BaseURL = upstream.URL()
	config.Clients.EODHD.APIKey = "test-key"
	config.Clients.EODHD.RateLimit = 100
	config.Scheduler.Enabled = false
	config.Scheduler.WarmOnStart = false
	config.Cache.UpstreamTimeout = "5s"
	if opts.UpstreamTimeout != "" {
		config.Cache.UpstreamTimeout = opts.UpstreamTimeout
	}
	if opts.Storage.Backend != "" {
		config.Storage = opts.Storage
	}

	level := os.Getenv("FAIRVAL_TEST_LOG_LEVEL")
	logger := fvcommon.NewSilentLogger()
	if level != "" {
		logger = fvcommon.NewLogger(level)
	}

	timeout := 60 * time.Second
	if envTimeout := os.Getenv("FAIRVAL_TEST_TIMEOUT"); envTimeout != "" {
		if d, err := time.ParseDuration(envTimeout); err == nil {
			timeout = d
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	a, err := app.New(ctx, config, logger)
	if err != nil {
		cancel()
		upstream.Close()
		t.Fatalf("Failed to initialize app: %v", err)
	}

	env := &Env{
		t:        t,
		Upstream: upstream,
		App:      a,
		server:   httptest.NewServer(server.NewServer(a).Handler()),
		ctx:      ctx,
		cancel:   cancel,
	}
	t.Cleanup(env.Cleanup)
	return env
}

// Cleanup stops the servers and releases app resources. Safe to call twice.
func (e *Env) Cleanup() {
	if e == nil {
		return
	}
	if e.server != nil {
		e.server.Close()
		e.server = nil
	}
	if e.App != nil {
		e.App.Close()
		e.App = nil
	}
	if e.Upstream != nil {
		e.Upstream.Close()
		e.Upstream = nil
	}
	if e.cancel != nil {
		e.cancel()
	}
}

// Context returns the test context
func (e *Env) Context() context.Context {
	return e.ctx
}

// URL returns the base URL of the REST server
func (e *Env) URL() string {
	return e.server.URL
}

// HTTPGet performs a GET against the REST server
func (e *Env) HTTPGet(path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(e.ctx, http.MethodGet, e.server.URL+path, nil)
	if err != nil {
		return nil, err
	}
	return http.DefaultClient.Do(req)
}

// GetJSON performs a GET and decodes the body into v, returning the status code
func (e *Env) GetJSON(path string, v interface{}) (int, error) {
	resp, err := e.HTTPGet(path)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	if v != nil {
		if err := json.Unmarshal(body, v); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s: %w (body: %s)", path, err, truncate(string(body), 300))
		}
	}
	return resp.StatusCode, nil
}

// SaveResult writes test output under tests/results when FAIRVAL_TEST_RESULTS is set
func (e *Env) SaveResult(name string, data []byte) error {
	if os.Getenv("FAIRVAL_TEST_RESULTS") == "" {
		return nil
	}
	dir := filepath.Join(findProjectRoot(), "tests", "results", time.Now().Format("20060102")+"-"+e.t.Name())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), data, 0644)
}

// findProjectRoot walks up directories to find go.mod
func findProjectRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "."
		}
		dir = parent
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
