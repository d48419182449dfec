// Package server exposes the dashboard aggregate and task search over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sony/gobreaker"

	"github.com/tgienger/tasktrack/internal/config"
	"github.com/tgienger/tasktrack/internal/logging"
	"github.com/tgienger/tasktrack/internal/models"
	"github.com/tgienger/tasktrack/internal/query"
	"github.com/tgienger/tasktrack/internal/stats"
)

const shutdownTimeout = 10 * time.Second

// Backend is everything the server reads from the store
type Backend interface {
	stats.Loader
	query.Store
	PingContext(ctx context.Context) error
}

// Server serves the HTTP API
type Server struct {
	cfg       config.ServerConfig
	backend   Backend
	dashboard *stats.Service
	engine    *query.Engine
	breaker   *gobreaker.CircuitBreaker
	router    *mux.Router
}

// New wires the routes for backend
func New(cfg config.ServerConfig, breaker config.BreakerConfig, backend Backend) *Server {
	s := &Server{
		cfg:       cfg,
		backend:   backend,
		dashboard: stats.NewService(backend),
		engine:    query.NewEngine(backend),
		breaker:   newBreaker(breaker),
		router:    mux.NewRouter(),
	}

	s.router.Use(requestLogger)
	s.router.HandleFunc("/dashboard-data", s.handleDashboard).Methods(http.MethodGet)
	s.router.HandleFunc("/api/tasks", s.handleTasks).Methods(http.MethodGet)
	s.router.HandleFunc("/api/projects", s.handleProjects).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	return s
}

// Handler returns the root handler with CORS applied in front of routing so
// that preflight requests never reach the method matcher.
func (s *Server) Handler() http.Handler {
	return cors(s.cfg.AllowedOrigin, s.router)
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Event("SERVER_START").WithField("addr", s.cfg.Addr).Info("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logging.Event("SERVER_FATAL_ERROR").WithError(err).Error("server failed")
		return err
	case <-ctx.Done():
	}

	logging.Event("SERVER_SHUTDOWN").Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Event("SERVER_SHUTDOWN_FAILED").WithError(err).Error("graceful shutdown failed")
		return err
	}
	return nil
}

func newBreaker(cfg config.BreakerConfig) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "store",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		// Bad input is the caller's problem, not the store's
		IsSuccessful: func(err error) bool {
			return err == nil || !models.IsStore(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Event("CIRCUIT_BREAKER_STATE_CHANGE").
				WithField("breaker", name).
				WithField("from", from.String()).
				WithField("to", to.String()).
				Warn("circuit breaker changed state")
		},
	})
}

// guarded runs fn through the breaker. A rejected call surfaces as a
// StoreError; nothing is retried.
func guarded[T any](s *Server, op string, fn func() (T, error)) (T, error) {
	out, err := s.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, &models.StoreError{Op: op, Err: err}
		}
		return zero, err
	}
	return out.(T), nil
}
