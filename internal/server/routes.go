package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/models"
)

// registerRoutes sets up all REST API routes on the router.
func (s *Server) registerRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/version", s.handleVersion)

		r.Route("/stocks/{ticker}", func(r chi.Router) {
			r.Get("/", s.handleStockReport)
			r.Get("/valuation", s.handleValuation)
			r.Get("/signal", s.handleSignal)
			r.Get("/history", s.handleHistory)
		})
	})

	r.Method(http.MethodGet, "/metrics", s.app.Metrics.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteErrorWithCode(w, http.StatusNotFound, "Not found", CodeNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{"status": "ok"}
	if !s.app.StartupTime.IsZero() {
		resp["uptime"] = time.Since(s.app.StartupTime).Round(time.Second).String()
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, common.GetVersionInfo())
}

// --- Stock handlers ---

// stockParams validates the ticker path parameter and the optional period
// query parameter, writing a 400 and returning false when either is malformed.
func (s *Server) stockParams(w http.ResponseWriter, r *http.Request) (*stockRequest, bool) {
	req := &stockRequest{
		Ticker: chi.URLParam(r, "ticker"),
		Period: r.URL.Query().Get("period"),
	}
	if field, msg := s.validator.check(req); field != "" {
		code := CodeInvalidTicker
		if field == "period" {
			code = CodeInvalidPeriod
		}
		WriteErrorWithCode(w, http.StatusBadRequest, msg, code)
		return nil, false
	}
	return req, true
}

// serviceError logs a failed report against the request before mapping it
// onto an HTTP status.
func (s *Server) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Warn().
		Str("ticker", chi.URLParam(r, "ticker")).
		Str("correlation_id", CorrelationID(r.Context())).
		Err(err).
		Msg("Report request failed")
	WriteServiceError(w, err)
}

func (s *Server) handleStockReport(w http.ResponseWriter, r *http.Request) {
	req, ok := s.stockParams(w, r)
	if !ok {
		return
	}

	report, err := s.app.ReportService.GetStockReport(r.Context(), req.Ticker)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, report)
}

func (s *Server) handleValuation(w http.ResponseWriter, r *http.Request) {
	req, ok := s.stockParams(w, r)
	if !ok {
		return
	}

	report, err := s.app.ReportService.GetValuation(r.Context(), req.Ticker)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, report)
}

func (s *Server) handleSignal(w http.ResponseWriter, r *http.Request) {
	req, ok := s.stockParams(w, r)
	if !ok {
		return
	}

	report, err := s.app.ReportService.GetSignal(r.Context(), req.Ticker)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, report)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	req, ok := s.stockParams(w, r)
	if !ok {
		return
	}

	period := models.PeriodAnnual
	if req.Period != "" {
		period = models.PeriodType(req.Period)
	}

	report, err := s.app.ReportService.GetHistory(r.Context(), req.Ticker, period)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, report)
}
