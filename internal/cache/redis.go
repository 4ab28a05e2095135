// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package cache provides the Redis-backed profile cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/holomush/sessiond/internal/auth"
)

// DefaultTTL is how long a cached profile lives.
const DefaultTTL = 5 * time.Minute

const keyPrefix = "sessiond:profile:"

// kv is the subset of redis.Cmdable used by ProfileCache.
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// entry is the cached form of a user. Credentials are never cached.
type entry struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatarUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProfileCache implements profile.Cache on Redis.
type ProfileCache struct {
	client kv
	ttl    time.Duration
}

// Connect opens a Redis client and pings it.
func Connect(ctx context.Context, opts *redis.Options) (*redis.Client, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, oops.Code("CACHE_CONNECT_FAILED").With("addr", opts.Addr).Wrap(err)
	}
	return client, nil
}

// NewProfileCache creates a ProfileCache. A non-positive ttl uses DefaultTTL.
func NewProfileCache(client redis.Cmdable, ttl time.Duration) *ProfileCache {
	return newProfileCache(client, ttl)
}

func newProfileCache(client kv, ttl time.Duration) *ProfileCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ProfileCache{client: client, ttl: ttl}
}

func key(id auth.UserID) string {
	return keyPrefix + strconv.FormatInt(int64(id), 10)
}

// Get returns the cached profile, or false on a miss.
func (c *ProfileCache) Get(ctx context.Context, id auth.UserID) (*auth.User, bool, error) {
	raw, err := c.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, oops.Code("CACHE_GET_FAILED").With("user_id", int64(id)).Wrap(err)
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		// A corrupt entry is treated as a miss and overwritten by the next Set.
		return nil, false, nil //nolint:nilerr // corrupt cache entries are misses
	}
	return &auth.User{
		ID:        auth.UserID(e.ID),
		Email:     e.Email,
		Name:      e.Name,
		AvatarURL: e.AvatarURL,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}, true, nil
}

// Set stores the profile part of user.
func (c *ProfileCache) Set(ctx context.Context, user *auth.User) error {
	raw, err := json.Marshal(entry{
		ID:        int64(user.ID),
		Email:     user.Email,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	})
	if err != nil {
		return oops.Code("CACHE_ENCODE_FAILED").Wrap(err)
	}
	if err := c.client.Set(ctx, key(user.ID), raw, c.ttl).Err(); err != nil {
		return oops.Code("CACHE_SET_FAILED").With("user_id", int64(user.ID)).Wrap(err)
	}
	return nil
}

// Invalidate drops the cached profile.
func (c *ProfileCache) Invalidate(ctx context.Context, id auth.UserID) error {
	if err := c.client.Del(ctx, key(id)).Err(); err != nil {
		return oops.Code("CACHE_INVALIDATE_FAILED").With("user_id", int64(id)).Wrap(err)
	}
	return nil
}
