// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package httpapi exposes the auth and profile services over HTTP with JSON
// bodies and a uniform error envelope.
package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/sessiond/internal/auth"
)

// Body limits.
const (
	MaxJSONBody      = 1 << 20
	MaxMultipartBody = 4 << 20
)

const tracerName = "github.com/holomush/sessiond/internal/httpapi"

// AuthService is the subset of *auth.Service served over HTTP.
type AuthService interface {
	Register(ctx context.Context, email, password, name string) (auth.Tokens, error)
	Login(ctx context.Context, email, password string) (auth.Tokens, error)
	Logout(ctx context.Context, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (auth.Tokens, error)
	ForgotPassword(ctx context.Context, email string) error
	ChangePassword(ctx context.Context, token, newPassword string) error
	GoogleLogin(ctx context.Context) error
	VerifyAuthHeader(header string) (auth.UserID, error)
}

// ProfileService is the subset of *profile.Service served over HTTP.
type ProfileService interface {
	Get(ctx context.Context, id auth.UserID) (*auth.User, error)
	UpdateName(ctx context.Context, id auth.UserID, name string) (*auth.User, error)
	SetAvatarURL(ctx context.Context, id auth.UserID, rawURL string) (*auth.User, error)
	UploadAvatar(ctx context.Context, id auth.UserID, contentType string, size int64, body io.Reader) (*auth.User, error)
}

// Config holds listener settings.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server serves the HTTP API.
type Server struct {
	cfg      Config
	auth     AuthService
	profiles ProfileService
	logger   *slog.Logger
	tracer   trace.Tracer
	observer RequestObserver
	cors     *CORS

	handler    http.Handler
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

// WithTracerProvider sets the tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Server) { s.tracer = tp.Tracer(tracerName) }
}

// WithObserver records per-request metrics.
func WithObserver(o RequestObserver) Option {
	return func(s *Server) { s.observer = o }
}

// WithCORS enables cross-origin access for the given policy.
func WithCORS(c *CORS) Option {
	return func(s *Server) { s.cors = c }
}

// NewServer creates a Server.
func NewServer(cfg Config, authSvc AuthService, profiles ProfileService, opts ...Option) (*Server, error) {
	if authSvc == nil {
		return nil, oops.Code("HTTP_SERVER_INVALID").Errorf("auth service is required")
	}
	if profiles == nil {
		return nil, oops.Code("HTTP_SERVER_INVALID").Errorf("profile service is required")
	}
	s := &Server{
		cfg:      cfg,
		auth:     authSvc,
		profiles: profiles,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		return nil, oops.Code("HTTP_SERVER_INVALID").Errorf("logger cannot be nil")
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	guard := RequireIdentity(s.auth, s.logger)

	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/logout", s.handleLogout)
	mux.HandleFunc("POST /auth/refresh", s.handleRefresh)
	mux.HandleFunc("POST /auth/forgot-password", s.handleForgotPassword)
	mux.HandleFunc("POST /auth/change-password", s.handleChangePassword)
	mux.HandleFunc("POST /auth/google", s.handleGoogle)
	mux.Handle("POST /auth/me", guard(http.HandlerFunc(s.handleMe)))

	mux.Handle("GET /users/me", guard(http.HandlerFunc(s.handleGetProfile)))
	mux.Handle("PATCH /users/me", guard(http.HandlerFunc(s.handleUpdateProfile)))
	mux.Handle("POST /users/me/avatar", guard(http.HandlerFunc(s.handleAvatar)))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, s.logger, oops.Code(CodeNotFound).Errorf("no route for %s %s", r.Method, r.URL.Path))
	})

	var h http.Handler = s.recoverPanics(mux)
	h = s.instrument(h)
	if s.cors != nil {
		h = s.cors.Wrap(h)
	}
	return h
}

// Start begins serving. It returns an error channel that receives any error
// from the HTTP server after it starts; the channel is closed when the
// server stops.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Code("HTTP_SERVER_RUNNING").Errorf("http server already running")
	}

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.Code("HTTP_LISTEN_FAILED").With("addr", s.cfg.Addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("http server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("http server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_http_server").Wrap(err)
		}
	}
	s.logger.Info("http server stopped")
	return nil
}

// Addr returns the listening address, or "" when not running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
