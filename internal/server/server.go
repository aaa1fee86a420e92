// Package server exposes the report pipeline over REST.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bobmcallan/fairval/internal/app"
	"github.com/bobmcallan/fairval/internal/common"
)

// Server wraps the HTTP server and application reference.
type Server struct {
	app       *app.App
	server    *http.Server
	logger    *common.Logger
	validator *requestValidator
}

// NewServer creates a new HTTP REST API server.
func NewServer(a *app.App) *Server {
	s := &Server{
		app:       a,
		logger:    a.Logger,
		validator: newRequestValidator(),
	}

	// Recovery sits inside observe so a recovered panic is logged and
	// counted as a 500 against its route.
	r := chi.NewRouter()
	r.Use(s.correlate)
	r.Use(s.observe)
	r.Use(s.recoverPanics)
	r.Use(cors)
	s.registerRoutes(r)

	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", a.Config.Server.Host, a.Config.Server.Port),
		Handler: r,
		// Full reports fan out to several feeds bounded by the upstream timeout
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start starts the HTTP server (blocking).
func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.server.Addr).
		Msg("Starting REST API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
