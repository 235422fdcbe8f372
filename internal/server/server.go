// Package server exposes run metrics over HTTP while demos execute.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"

	apperrors "github.com/agbru/taskbench/internal/errors"
	"github.com/agbru/taskbench/internal/logging"
	"github.com/agbru/taskbench/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

// Server serves /metrics and /healthz.
type Server struct {
	recorder *metrics.Recorder
	logger   logging.Logger
	security SecurityConfig
	started  time.Time
	requests atomic.Int64
}

// New creates a server for the recorder's metrics.
func New(recorder *metrics.Recorder, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Server{
		recorder: recorder,
		logger:   logger,
		security: DefaultSecurityConfig(),
		started:  time.Now(),
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.loggingMiddleware, s.securityMiddleware)
	r.Handle("/metrics", s.recorder.Handler()).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet, http.MethodOptions)
	return r
}

type healthResponse struct {
	Status string  `json:"status"`
	Uptime float64 `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(healthResponse{Status: "ok", Uptime: time.Since(s.started).Seconds()})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		s.logger.Debug("request received",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.String("remote_addr", r.RemoteAddr),
		)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) securityMiddleware(next http.Handler) http.Handler {
	return SecurityMiddleware(s.security, next.ServeHTTP)
}

// Requests returns how many requests were served.
func (s *Server) Requests() int64 { return s.requests.Load() }

// Serve serves on l until ctx ends, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(l) }()
	s.logger.Info("metrics server listening", logging.String("addr", l.Addr().String()))

	select {
	case err := <-errCh:
		return apperrors.WrapError(err, "metrics server")
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return apperrors.WrapError(err, "metrics server shutdown")
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return apperrors.WrapError(err, "metrics server")
	}
	return nil
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return apperrors.WrapError(err, "listen on %s", addr)
	}
	return s.Serve(ctx, l)
}
