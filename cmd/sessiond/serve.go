// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/sessiond/internal/auth"
	"github.com/holomush/sessiond/internal/auth/postgres"
	"github.com/holomush/sessiond/internal/blob"
	"github.com/holomush/sessiond/internal/config"
	"github.com/holomush/sessiond/internal/httpapi"
	"github.com/holomush/sessiond/internal/logging"
	"github.com/holomush/sessiond/internal/mail"
	"github.com/holomush/sessiond/internal/observability"
	"github.com/holomush/sessiond/internal/profile"
	"github.com/holomush/sessiond/internal/store"
)

const serviceName = "sessiond"

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, metrics server and session janitor",
		Long: `Start the HTTP API together with the metrics and health server and
the janitor that purges expired sessions and reset tokens.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServeWithDeps(cmd.Context(), cfg, cmd, nil)
		},
	}
}

// runServeWithDeps runs the service until ctx is cancelled, a shutdown
// signal arrives or a server fails. If deps is nil, default implementations
// are used.
func runServeWithDeps(ctx context.Context, cfg *config.Config, cmd *cobra.Command, deps *ServeDeps) error {
	deps = deps.withDefaults()

	if err := cfg.Validate(); err != nil {
		return oops.With("operation", "validate configuration").Wrap(err)
	}

	logger := logging.Setup(serviceName, version, cfg.Log.Format, cfg.Log.Level, cmd.ErrOrStderr())
	slog.SetDefault(logger)
	logger.Info("starting sessiond", "config", cfg.Redacted())

	if cfg.Database.AutoMigrate {
		if err := autoMigrate(deps, cfg.Database.URL, logger); err != nil {
			return err
		}
	}

	pool, err := deps.PoolFactory(ctx, store.PoolConfig{
		DSN:             cfg.Database.URL,
		MaxConns:        cfg.Database.MaxConns,
		ConnectAttempts: cfg.Database.ConnectAttempts,
	})
	if err != nil {
		return oops.With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()
	logger.Info("connected to database")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	db := store.NewRetryQuerier(pool, store.RetryPolicy{})
	users := postgres.NewUserRepository(db)
	sessions := postgres.NewSessionRepository(db)
	resets := postgres.NewPasswordResetRepository(db)

	checks := observability.ReadinessChecks{"database": pool.Ping}
	profiles, closeProfiles, err := newProfileService(ctx, cfg, deps, users, checks, logger)
	if err != nil {
		return err
	}
	defer closeProfiles()

	var obsServer ObservabilityServer
	var metrics *observability.Metrics
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, checks, logger)
		metrics = obsServer.Metrics()
	} else {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	authSvc, err := newAuthService(cfg, users, sessions, resets, metrics, logger)
	if err != nil {
		return err
	}

	cors, err := httpapi.NewCORS(cfg.HTTP.CORSOrigins)
	if err != nil {
		return oops.With("operation", "compile cors origins").Wrap(err)
	}
	api, err := httpapi.NewServer(
		httpapi.Config{
			Addr:         cfg.HTTP.Addr,
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
		},
		authSvc, profiles,
		httpapi.WithLogger(logger),
		httpapi.WithObserver(metrics),
		httpapi.WithCORS(cors),
	)
	if err != nil {
		return oops.With("operation", "create http server").Wrap(err)
	}

	apiErrCh, err := api.Start()
	if err != nil {
		return oops.With("operation", "start http server").Wrap(err)
	}
	go monitorServerErrors(ctx, cancel, apiErrCh, "http")

	if obsServer != nil {
		obsErrCh, err := obsServer.Start()
		if err != nil {
			stopWithin(cfg.HTTP.ShutdownTimeout, logger, "http", api.Stop)
			return oops.With("operation", "start observability server").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability")
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	janitor := auth.NewJanitor(sessions, resets, cfg.Auth.JanitorInterval, logger, auth.WithPurgeObserver(metrics))
	if err := janitor.Start(ctx); err != nil {
		cancel(err)
	}

	cmd.Println("sessiond started")
	logger.Info("sessiond ready", "http_addr", api.Addr())

	<-ctx.Done()
	logger.Info("shutting down...")

	janitor.Stop()
	stopWithin(cfg.HTTP.ShutdownTimeout, logger, "http", api.Stop)
	if obsServer != nil {
		stopWithin(cfg.HTTP.ShutdownTimeout, logger, "observability", obsServer.Stop)
	}
	logger.Info("shutdown complete")

	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	return nil
}

func newAuthService(
	cfg *config.Config,
	users auth.UserRepository,
	sessions auth.SessionRepository,
	resets auth.PasswordResetRepository,
	recorder auth.Recorder,
	logger *slog.Logger,
) (*auth.Service, error) {
	codec, err := auth.NewTokenCodec([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		return nil, oops.With("operation", "create token codec").Wrap(err)
	}

	var notifier auth.ResetNotifier
	if cfg.Mail.APIKey != "" {
		notifier, err = mail.NewResendNotifier(cfg.Mail.APIKey, cfg.Mail.From, cfg.Mail.ResetURL, logger)
		if err != nil {
			return nil, oops.With("operation", "create mail notifier").Wrap(err)
		}
	} else {
		logger.Warn("mail api key not set; password reset links are only logged")
		notifier = mail.NewLogNotifier(cfg.Mail.ResetURL, logger)
	}

	svc, err := auth.NewService(users, sessions, resets, auth.NewArgon2idHasher(), codec,
		auth.WithLogger(logger),
		auth.WithRecorder(recorder),
		auth.WithNotifier(notifier),
		auth.WithSessionRevocation(cfg.Auth.RevokeSessionsOnPasswordChange),
	)
	if err != nil {
		return nil, oops.With("operation", "create auth service").Wrap(err)
	}
	return svc, nil
}

// newProfileService builds the profile service with the optional cache and
// avatar store, registering a readiness check for each. The returned func
// releases the cache connection.
func newProfileService(
	ctx context.Context,
	cfg *config.Config,
	deps *ServeDeps,
	users auth.UserRepository,
	checks observability.ReadinessChecks,
	logger *slog.Logger,
) (*profile.Service, func(), error) {
	opts := []profile.Option{profile.WithLogger(logger)}
	closeFn := func() {}

	if cfg.Redis.Addr != "" {
		c, err := deps.ProfileCacheFactory(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, oops.With("operation", "connect profile cache").Wrap(err)
		}
		opts = append(opts, profile.WithCache(c))
		checks["redis"] = c.Ping
		closeFn = func() {
			if err := c.Close(); err != nil {
				logger.Warn("error closing profile cache", "error", err)
			}
		}
		logger.Info("profile cache enabled", "addr", cfg.Redis.Addr)
	}

	if cfg.Storage.Bucket != "" {
		s, err := deps.AvatarStoreFactory(ctx, blob.Config{
			Bucket:          cfg.Storage.Bucket,
			Region:          cfg.Storage.Region,
			Endpoint:        cfg.Storage.Endpoint,
			PublicBaseURL:   cfg.Storage.PublicBaseURL,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			UsePathStyle:    cfg.Storage.UsePathStyle,
		})
		if err != nil {
			closeFn()
			return nil, nil, oops.With("operation", "create avatar store").Wrap(err)
		}
		if err := s.Check(ctx); err != nil {
			logger.Warn("avatar bucket not reachable", "bucket", cfg.Storage.Bucket, "error", err)
		}
		opts = append(opts, profile.WithAvatarStore(s))
		checks["avatar_store"] = s.Check
	}

	svc, err := profile.NewService(users, opts...)
	if err != nil {
		closeFn()
		return nil, nil, oops.With("operation", "create profile service").Wrap(err)
	}
	return svc, closeFn, nil
}

func autoMigrate(deps *ServeDeps, databaseURL string, logger *slog.Logger) error {
	migrator, err := deps.MigratorFactory(databaseURL)
	if err != nil {
		return oops.With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Warn("error closing migrator", "error", closeErr)
		}
	}()

	logger.Info("applying database migrations")
	if err := migrator.Up(); err != nil {
		return oops.With("operation", "auto-migrate").Wrap(err)
	}
	return nil
}

func stopWithin(timeout time.Duration, logger *slog.Logger, name string, stop func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := stop(ctx); err != nil {
		logger.Warn("error stopping server", "server", name, "error", err)
	}
}

// monitorServerErrors cancels ctx with the first error a server reports.
// It exits when the channel is closed or ctx is done.
func monitorServerErrors(ctx context.Context, cancel context.CancelCauseFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok || err == nil {
			return
		}
		slog.Error("server error, triggering shutdown", "server", serverName, "error", err)
		cancel(oops.Code("SERVER_FAILED").With("server", serverName).Wrap(err))
	case <-ctx.Done():
	}
}
