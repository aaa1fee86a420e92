package server

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	headerCorrelationID = "X-Correlation-ID"
	headerRequestID     = "X-Request-ID"

	// routeUnmatched labels requests no route pattern claimed
	routeUnmatched = "unmatched"
)

type ctxKey int

const correlationKey ctxKey = iota

// Caller-supplied IDs are echoed into logs and headers, so only short
// token-like values are trusted.
var correlationPattern = regexp.MustCompile(`^[A-Za-z0-9._\-]{1,64}$`)

// CorrelationID returns the request correlation ID stored by the
// correlation middleware, or "" outside a request.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey).(string)
	return id
}

// statusRecorder captures the status and size of a response.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (rec *statusRecorder) WriteHeader(code int) {
	if rec.wroteHeader {
		return
	}
	rec.status = code
	rec.wroteHeader = true
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	if !rec.wroteHeader {
		rec.WriteHeader(http.StatusOK)
	}
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n
	return n, err
}

// routeLabel returns the matched chi route pattern, available once the
// router has dispatched the request.
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return routeUnmatched
}

// correlate tags the request with a correlation ID taken from X-Request-ID or
// X-Correlation-ID, or generated, and echoes it on the response.
func (s *Server) correlate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if !correlationPattern.MatchString(id) {
			id = r.Header.Get(headerCorrelationID)
		}
		if !correlationPattern.MatchString(id) {
			id = uuid.New().String()[:8]
		}
		w.Header().Set(headerCorrelationID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), correlationKey, id)))
	})
}

// observe logs each request against its route pattern and ticker and feeds
// the request collectors. Server errors log at error, client errors at info.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		route := routeLabel(r)
		s.app.Metrics.ObserveRequest(route, r.Method, rec.status, elapsed)

		event := s.logger.Debug()
		switch {
		case rec.status >= http.StatusInternalServerError:
			event = s.logger.Error()
		case rec.status >= http.StatusBadRequest:
			event = s.logger.Info()
		}
		if ticker := chi.URLParam(r, "ticker"); ticker != "" {
			event = event.Str("ticker", ticker)
		}
		event.
			Str("method", r.Method).
			Str("route", route).
			Str("query", r.URL.RawQuery).
			Int("status", rec.status).
			Int("bytes", rec.bytes).
			Dur("duration", elapsed).
			Str("correlation_id", CorrelationID(r.Context())).
			Msg("HTTP request")
	})
}

// recoverPanics turns a handler panic into a 500 unless the handler already
// started its response.
func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rv := recover()
			if rv == nil {
				return
			}
			if rv == http.ErrAbortHandler {
				panic(rv)
			}
			s.logger.Error().
				Str("panic", fmt.Sprintf("%v", rv)).
				Str("path", r.URL.Path).
				Str("ticker", chi.URLParam(r, "ticker")).
				Str("correlation_id", CorrelationID(r.Context())).
				Msg("Panic recovered in HTTP handler")

			if rec, ok := w.(*statusRecorder); ok && rec.wroteHeader {
				return
			}
			WriteErrorWithCode(w, http.StatusInternalServerError, "Internal server error", CodeInternal)
		}()
		next.ServeHTTP(w, r)
	})
}

// cors allows read-only cross-origin access and exposes the correlation ID.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, "+headerRequestID+", "+headerCorrelationID)
		h.Set("Access-Control-Expose-Headers", headerCorrelationID)

		if r.Method == http.MethodOptions {
			h.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
