// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package observability provides auth metrics and the HTTP endpoints that
// expose them alongside health checks.
package observability

import (
	"context"
	"encoding/json"
	"log/slog"
	"maps"
	"net"
	"net/http"
	"slices"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"
)

// DefaultCheckTimeout bounds each readiness check.
const DefaultCheckTimeout = 2 * time.Second

// Check tests one dependency. A nil error means the dependency is usable.
type Check func(ctx context.Context) error

// ReadinessChecks maps a dependency name ("database", "redis", ...) to its check.
type ReadinessChecks map[string]Check

// readinessReport is the body of /healthz/readiness.
type readinessReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Server serves /metrics and the liveness and readiness endpoints.
type Server struct {
	addr         string
	checks       ReadinessChecks
	checkTimeout time.Duration
	logger       *slog.Logger

	registry *prometheus.Registry
	metrics  *Metrics

	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithCheckTimeout overrides DefaultCheckTimeout.
func WithCheckTimeout(d time.Duration) Option {
	return func(s *Server) { s.checkTimeout = d }
}

// NewServer creates a server listening on addr ("127.0.0.1:9100", ":9100").
// Readiness succeeds only when every check in checks passes.
func NewServer(addr string, checks ReadinessChecks, opts ...Option) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s := &Server{
		addr:         addr,
		checks:       maps.Clone(checks),
		checkTimeout: DefaultCheckTimeout,
		logger:       slog.Default(),
		registry:     registry,
		metrics:      NewMetrics(registry),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.checkTimeout <= 0 {
		s.checkTimeout = DefaultCheckTimeout
	}
	return s
}

// Metrics returns the metrics registered on this server.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Handler returns the health and metrics routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("GET /healthz/liveness", s.handleLiveness)
	mux.HandleFunc("GET /healthz/readiness", s.handleReadiness)
	return mux
}

// Start begins serving. The returned channel receives a serve failure and
// is closed when the server stops.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Code("OBSERVABILITY_RUNNING").Errorf("observability server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.Code("OBSERVABILITY_LISTEN_FAILED").With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("observability server error", "error", serveErr)
			errCh <- oops.Code("OBSERVABILITY_SERVE_FAILED").Wrap(serveErr)
		}
	}()

	s.logger.Info("observability server listening",
		"addr", listener.Addr().String(),
		"checks", slices.Sorted(maps.Keys(s.checks)))
	return errCh, nil
}

// Stop gracefully shuts down the server. Stopping a stopped server is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.Code("OBSERVABILITY_SHUTDOWN_FAILED").Wrap(err)
		}
	}
	s.logger.Info("observability server stopped")
	return nil
}

// Addr returns the listening address, or "" when not running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// Ready runs every check and records each dependency's state in the
// sessiond_dependency_up gauge. The returned map holds "ok" or the failure
// message per dependency.
func (s *Server) Ready(ctx context.Context) (bool, map[string]string) {
	results := make(map[string]string, len(s.checks))
	ready := true
	for _, name := range slices.Sorted(maps.Keys(s.checks)) {
		checkCtx, cancel := context.WithTimeout(ctx, s.checkTimeout)
		err := s.checks[name](checkCtx)
		cancel()

		if err != nil {
			ready = false
			results[name] = err.Error()
			s.metrics.DependencyUp.WithLabelValues(name).Set(0)
			s.logger.WarnContext(ctx, "readiness check failed", "dependency", name, "error", err)
			continue
		}
		results[name] = "ok"
		s.metrics.DependencyUp.WithLabelValues(name).Set(1)
	}
	return ready, results
}

func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // client may disconnect
	w.Write([]byte("ok\n"))
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	ready, results := s.Ready(r.Context())

	report := readinessReport{Status: "ready", Checks: results}
	status := http.StatusOK
	if !ready {
		report.Status = "not ready"
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	//nolint:errcheck // client may disconnect
	json.NewEncoder(w).Encode(report)
}
