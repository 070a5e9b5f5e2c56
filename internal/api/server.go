// Package api serves macro placement over HTTP.
//
// Routes:
//
//	GET  /healthz    liveness check
//	GET  /version    build information
//	POST /v1/place   place a design sent in the request body
//	POST /v1/weights connection weights of a design, without placing it
//
// Every response carries an X-Request-ID header. Errors are returned as
//
//	{"error": {"code": "INFEASIBLE_AREA", "message": "..."}}
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/macroplace/pkg/pipeline"
)

// Defaults for Config.
const (
	DefaultAddr         = ":8080"
	DefaultMaxBodyBytes = 32 << 20
	DefaultTimeout      = 2 * time.Minute
)

// Config configures a Server.
type Config struct {
	Addr string
	// Runner executes placements; its cache is shared by all requests.
	Runner *pipeline.Runner
	// Defaults are the pipeline options requests start from.
	Defaults     pipeline.Options
	MaxBodyBytes int64
	Timeout      time.Duration
	Logger       *log.Logger
}

// ValidateAndSetDefaults fills zero values.
func (c *Config) ValidateAndSetDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Logger == nil {
		c.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if c.Runner == nil {
		c.Runner = pipeline.NewRunner(nil, nil, c.Logger)
	}
}

// Server is the HTTP API.
type Server struct {
	cfg    Config
	router chi.Router
}

// New creates a server and registers its routes.
func New(cfg Config) *Server {
	cfg.ValidateAndSetDefaults()
	s := &Server{cfg: cfg}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Timeout))

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/place", s.handlePlace)
		r.Post("/weights", s.handleWeights)
	})
	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.cfg.Logger.Info("listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.cfg.Logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
