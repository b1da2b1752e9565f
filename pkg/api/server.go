// Package api serves hypercut partitioning over HTTP.
//
// Routes:
//
//	GET  /healthz               liveness probe
//	POST /v1/partitions         partition an instance and store the run
//	GET  /v1/partitions         list stored runs, newest first (?limit=N)
//	GET  /v1/partitions/{id}    fetch one run including its labels
//
// Errors are returned as {"code": "...", "message": "..."} with the status
// derived from the [errors] code.
package api

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/hypercut/pkg/pipeline"
	"github.com/matzehuels/hypercut/pkg/store"
)

// Limits applied when Config leaves them zero.
const (
	DefaultTimeout      = 2 * time.Minute
	DefaultMaxPins      = 1_000_000
	DefaultMaxBodyBytes = 64 << 20
)

// Config tunes request handling.
type Config struct {
	// Defaults supplies values for fields a request omits.
	Defaults pipeline.Options

	Timeout      time.Duration // per partition request
	MaxPins      int
	MaxBodyBytes int64
}

// Server routes HTTP requests to a pipeline runner and a run store.
type Server struct {
	runner *pipeline.Runner
	store  store.Store
	logger *log.Logger
	cfg    Config
	router chi.Router
}

// New creates a server. A nil logger uses log.Default().
func New(runner *pipeline.Runner, st store.Store, logger *log.Logger, cfg Config) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxPins <= 0 {
		cfg.MaxPins = DefaultMaxPins
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	s := &Server{
		runner: runner,
		store:  st,
		logger: logger,
		cfg:    cfg,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1/partitions", func(r chi.Router) {
		r.With(middleware.RequestSize(s.cfg.MaxBodyBytes)).Post("/", s.handleCreate)
		r.Get("/", s.handleList)
		r.Get("/{id}", s.handleGet)
	})
	r.NotFound(s.handleNotFound)
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
