// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/holomush/sessiond/internal/blob"
	"github.com/holomush/sessiond/internal/cache"
	"github.com/holomush/sessiond/internal/config"
	"github.com/holomush/sessiond/internal/observability"
	"github.com/holomush/sessiond/internal/profile"
	"github.com/holomush/sessiond/internal/store"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// PoolFactory opens the database pool.
	// Default: store.Connect
	PoolFactory func(ctx context.Context, cfg store.PoolConfig) (Pool, error)

	// MigratorFactory creates a migrator for auto-migration.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (AutoMigrator, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, checks observability.ReadinessChecks, logger *slog.Logger) ObservabilityServer

	// ProfileCacheFactory connects the profile cache.
	// Default: cache.Connect with cache.NewProfileCache
	ProfileCacheFactory func(ctx context.Context, cfg config.RedisConfig) (ProfileCache, error)

	// AvatarStoreFactory creates the avatar object store.
	// Default: blob.New
	AvatarStoreFactory func(ctx context.Context, cfg blob.Config) (AvatarStore, error)
}

// MigrateDeps contains injectable dependencies for the migrate command.
type MigrateDeps struct {
	// MigratorFactory creates a migrator.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)
}

// Pool wraps the methods used from pgxpool.Pool.
type Pool interface {
	store.Querier
	Ping(ctx context.Context) error
	Close()
}

// AutoMigrator wraps the methods used by auto-migration.
type AutoMigrator interface {
	Up() error
	Close() error
}

// Migrator wraps the methods used from store.Migrator by the migrate command.
type Migrator interface {
	AutoMigrator
	Down() error
	Force(version int) error
	Version() (version uint, dirty bool, err error)
	Status() (store.Status, error)
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

// ProfileCache is a profile cache holding a connection.
type ProfileCache interface {
	profile.Cache
	Ping(ctx context.Context) error
	Close() error
}

// AvatarStore is an avatar store that can report reachability.
type AvatarStore interface {
	profile.AvatarStore
	Check(ctx context.Context) error
}

func (d *ServeDeps) withDefaults() *ServeDeps {
	out := ServeDeps{}
	if d != nil {
		out = *d
	}
	if out.PoolFactory == nil {
		out.PoolFactory = func(ctx context.Context, cfg store.PoolConfig) (Pool, error) {
			return store.Connect(ctx, cfg)
		}
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = func(databaseURL string) (AutoMigrator, error) {
			return store.NewMigrator(databaseURL)
		}
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, checks observability.ReadinessChecks, logger *slog.Logger) ObservabilityServer {
			return observability.NewServer(addr, checks, observability.WithLogger(logger))
		}
	}
	if out.ProfileCacheFactory == nil {
		out.ProfileCacheFactory = newRedisProfileCache
	}
	if out.AvatarStoreFactory == nil {
		out.AvatarStoreFactory = func(ctx context.Context, cfg blob.Config) (AvatarStore, error) {
			return blob.New(ctx, cfg)
		}
	}
	return &out
}

func (d *MigrateDeps) withDefaults() *MigrateDeps {
	out := MigrateDeps{}
	if d != nil {
		out = *d
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = func(databaseURL string) (Migrator, error) {
			return store.NewMigrator(databaseURL)
		}
	}
	return &out
}

// redisProfileCache ties a ProfileCache to the client it owns.
type redisProfileCache struct {
	*cache.ProfileCache
	client *redis.Client
}

func (c *redisProfileCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return oops.Code("CACHE_UNAVAILABLE").Wrap(err)
	}
	return nil
}

func (c *redisProfileCache) Close() error {
	//nolint:wrapcheck // close error is only logged
	return c.client.Close()
}

func newRedisProfileCache(ctx context.Context, cfg config.RedisConfig) (ProfileCache, error) {
	client, err := cache.Connect(ctx, &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		//nolint:wrapcheck // Connect returns coded errors
		return nil, err
	}
	return &redisProfileCache{
		ProfileCache: cache.NewProfileCache(client, cfg.ProfileTTL),
		client:       client,
	}, nil
}
