package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/bobmcallan/fairval/internal/app"
	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/interfaces"
	"github.com/bobmcallan/fairval/internal/metrics"
	"github.com/bobmcallan/fairval/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReportService struct {
	err        error
	calls      int
	lastTicker string
	lastPeriod models.PeriodType
	panics     bool
}

func (m *mockReportService) GetStockReport(_ context.Context, ticker string) (*models.StockReport, error) {
	m.calls++
	m.lastTicker = ticker
	if m.panics {
		panic("boom")
	}
	if m.err != nil {
		return nil, m.err
	}
	return &models.StockReport{
		Ticker: common.NormalizeTicker(ticker),
		Symbol: common.MarketSymbol(ticker, "US"),
		Signal: &models.TradingSignal{Action: models.ActionWait},
	}, nil
}

func (m *mockReportService) GetValuation(_ context.Context, ticker string) (*models.ValuationReport, error) {
	m.calls++
	m.lastTicker = ticker
	if m.err != nil {
		return nil, m.err
	}
	price := 101.5
	return &models.ValuationReport{Ticker: common.NormalizeTicker(ticker), Price: &price}, nil
}

func (m *mockReportService) GetSignal(_ context.Context, ticker string) (*models.SignalReport, error) {
	m.calls++
	m.lastTicker = ticker
	if m.err != nil {
		return nil, m.err
	}
	return &models.SignalReport{
		Ticker: common.NormalizeTicker(ticker),
		Signal: &models.TradingSignal{Action: models.ActionAccumulate, Confidence: 60},
	}, nil
}

func (m *mockReportService) GetHistory(_ context.Context, ticker string, period models.PeriodType) (*models.HistoryReport, error) {
	m.calls++
	m.lastTicker = ticker
	m.lastPeriod = period
	if m.err != nil {
		return nil, m.err
	}
	return &models.HistoryReport{Ticker: common.NormalizeTicker(ticker), Period: period}, nil
}

func newTestServer(reports interfaces.ReportService) *Server {
	return NewServer(&app.App{
		Config:        common.NewDefaultConfig(),
		Logger:        common.NewSilentLogger(),
		Metrics:       metrics.New(),
		ReportService: reports,
		StartupTime:   time.Now(),
	})
}

func doGet(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestHealthAndVersion(t *testing.T) {
	s := newTestServer(&mockReportService{})

	rr := doGet(t, s, "/api/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rr.Header().Get("X-Correlation-ID"))

	rr = doGet(t, s, "/api/version")
	assert.Equal(t, http.StatusOK, rr.Code)
	var info common.VersionInfo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &info))
	assert.Equal(t, common.GetVersion(), info.Version)
}

func TestStockReport_OK(t *testing.T) {
	reports := &mockReportService{}
	s := newTestServer(reports)

	rr := doGet(t, s, "/api/stocks/aapl")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var report models.StockReport
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	assert.Equal(t, "AAPL", report.Ticker)
	assert.Equal(t, "AAPL.US", report.Symbol)
	assert.Equal(t, "aapl", reports.lastTicker)
}

func TestStockRoutes_InvalidTickerMakesNoCall(t *testing.T) {
	reports := &mockReportService{}
	s := newTestServer(reports)

	for _, path := range []string{
		"/api/stocks/TOOLONGTICKER",
		"/api/stocks/AB$C/valuation",
		"/api/stocks/A%20B/signal",
		"/api/stocks/A_B/history",
	} {
		t.Run(path, func(t *testing.T) {
			rr := doGet(t, s, path)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, CodeInvalidTicker, decodeError(t, rr).Code)
		})
	}
	assert.Equal(t, 0, reports.calls)
}

func TestHistory_Period(t *testing.T) {
	reports := &mockReportService{}
	s := newTestServer(reports)

	rr := doGet(t, s, "/api/stocks/MSFT/history")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, models.PeriodAnnual, reports.lastPeriod)

	rr = doGet(t, s, "/api/stocks/MSFT/history?period=quarterly")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, models.PeriodQuarterly, reports.lastPeriod)

	calls := reports.calls
	rr = doGet(t, s, "/api/stocks/MSFT/history?period=weekly")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, CodeInvalidPeriod, decodeError(t, rr).Code)
	assert.Equal(t, calls, reports.calls)
}

func TestValuationAndSignal_OK(t *testing.T) {
	s := newTestServer(&mockReportService{})

	rr := doGet(t, s, "/api/stocks/BRK.B/valuation")
	require.Equal(t, http.StatusOK, rr.Code)
	var valuation models.ValuationReport
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &valuation))
	assert.Equal(t, "BRK.B", valuation.Ticker)
	require.NotNil(t, valuation.Price)
	assert.InDelta(t, 101.5, *valuation.Price, 1e-9)

	rr = doGet(t, s, "/api/stocks/BRK-B/signal")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"action":"ACCUMULATE"`)
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"not found", fmt.Errorf("ticker ZZZZ: %w", interfaces.ErrNotFound), http.StatusNotFound, CodeNotFound},
		{"invalid", interfaces.ErrInvalidTicker, http.StatusBadRequest, CodeInvalidTicker},
		{"upstream", &interfaces.UpstreamError{
			Ticker:  "ACME",
			Sources: map[string]string{"facts": "timeout", "quote": "HTTP 503"},
		}, http.StatusBadGateway, CodeUpstream},
		{"internal", fmt.Errorf("unexpected"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&mockReportService{err: tt.err})
			rr := doGet(t, s, "/api/stocks/ACME")
			assert.Equal(t, tt.wantCode, rr.Code)
			assert.Equal(t, tt.wantBody, decodeError(t, rr).Code)
		})
	}
}

func TestUpstreamErrorCarriesSourceDetail(t *testing.T) {
	s := newTestServer(&mockReportService{err: &interfaces.UpstreamError{
		Ticker:  "ACME",
		Sources: map[string]string{"facts": "timeout", "prices": "HTTP 500"},
	}})

	rr := doGet(t, s, "/api/stocks/ACME/signal")
	require.Equal(t, http.StatusBadGateway, rr.Code)
	resp := decodeError(t, rr)
	assert.Equal(t, "timeout", resp.Details["facts"])
	assert.Equal(t, "HTTP 500", resp.Details["prices"])
}

func TestRecoveryMiddleware(t *testing.T) {
	s := newTestServer(&mockReportService{panics: true})

	rr := doGet(t, s, "/api/stocks/ACME")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, CodeInternal, decodeError(t, rr).Code)
}

func TestRecoveredPanicCountedAgainstRoute(t *testing.T) {
	s := newTestServer(&mockReportService{panics: true})

	rr := doGet(t, s, "/api/stocks/ACME")
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Correlation-ID"))

	body := doGet(t, s, "/metrics").Body.String()
	assert.Regexp(t, regexp.MustCompile(`fairval_http_requests_total\{method="GET",route="/api/stocks/\{ticker\}/?",status="500"\} 1`), body)
}

func TestRequestMetricsUseRoutePattern(t *testing.T) {
	s := newTestServer(&mockReportService{})

	for _, ticker := range []string{"AAPL", "MSFT", "BRK.B"} {
		require.Equal(t, http.StatusOK, doGet(t, s, "/api/stocks/"+ticker+"/signal").Code)
	}
	doGet(t, s, "/api/nowhere")

	body := doGet(t, s, "/metrics").Body.String()
	assert.Contains(t, body, `fairval_http_requests_total{method="GET",route="/api/stocks/{ticker}/signal",status="200"} 3`)
	assert.NotContains(t, body, `route="/api/stocks/AAPL`)
	assert.Contains(t, body, "fairval_http_request_duration_seconds")
}

func TestCorrelationID_RejectsUnsafeHeader(t *testing.T) {
	s := newTestServer(&mockReportService{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "bad id\twith spaces")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	got := rr.Header().Get("X-Correlation-ID")
	assert.Len(t, got, 8)
	assert.NotContains(t, got, " ")
}

func TestCorrelationIDFromContext(t *testing.T) {
	assert.Empty(t, CorrelationID(context.Background()))

	var seen string
	h := (&Server{}).correlate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CorrelationID(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "corr-42")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "corr-42", seen)
}

func TestCorrelationID_Propagated(t *testing.T) {
	s := newTestServer(&mockReportService{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "req-1234")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	assert.Equal(t, "req-1234", rr.Header().Get("X-Correlation-ID"))
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(&mockReportService{})

	req := httptest.NewRequest(http.MethodOptions, "/api/stocks/AAPL", nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "X-Correlation-ID", rr.Header().Get("Access-Control-Expose-Headers"))
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	s := newTestServer(&mockReportService{})

	rr := doGet(t, s, "/api/unknown")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/stocks/AAPL", strings.NewReader("{}"))
	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	a := &app.App{
		Config:        common.NewDefaultConfig(),
		Logger:        common.NewSilentLogger(),
		Metrics:       metrics.New(),
		ReportService: &mockReportService{},
	}
	a.Metrics.Report("stock", metrics.OutcomeSuccess)
	s := NewServer(a)

	rr := doGet(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "fairval_reports_total")
}

func TestServerAddr(t *testing.T) {
	s := newTestServer(&mockReportService{})
	assert.Equal(t, "0.0.0.0:8080", s.Addr())
}

func TestBuildValidator_RegistersTickerTag(t *testing.T) {
	v, err := buildValidator()
	require.NoError(t, err)

	assert.NoError(t, v.Var("BRK.B", "ticker"))
	assert.Error(t, v.Var("AB$C", "ticker"))
	assert.NotPanics(t, func() { newRequestValidator() })
}
