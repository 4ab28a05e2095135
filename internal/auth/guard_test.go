// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/sessiond/internal/auth"
	"github.com/holomush/sessiond/pkg/errutil"
)

func TestResolveIdentity(t *testing.T) {
	h := newHarness(t)
	id, tokens := h.register(t, "alice@example.com", "hunter22")

	t.Run("resolves valid bearer", func(t *testing.T) {
		got, err := auth.ResolveIdentity("Bearer "+tokens.AccessToken, h.svc)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	})

	t.Run("is pure", func(t *testing.T) {
		before := h.sessions.count()
		for range 3 {
			got, err := auth.ResolveIdentity("Bearer "+tokens.AccessToken, h.svc)
			require.NoError(t, err)
			assert.Equal(t, id, got)
		}
		assert.Equal(t, before, h.sessions.count())
	})

	t.Run("passes errors through", func(t *testing.T) {
		_, err := auth.ResolveIdentity("", h.svc)
		errutil.AssertErrorCode(t, err, auth.CodeUnauthorized)

		h.clock.Advance(2 * time.Hour)
		_, err = auth.ResolveIdentity("Bearer "+tokens.AccessToken, h.svc)
		errutil.AssertErrorCode(t, err, auth.CodeTokenExpired)
	})
}

func TestIdentityContext(t *testing.T) {
	ctx := context.Background()

	_, ok := auth.IdentityFromContext(ctx)
	assert.False(t, ok)

	got, ok := auth.IdentityFromContext(auth.WithIdentity(ctx, 12))
	assert.True(t, ok)
	assert.Equal(t, auth.UserID(12), got)

	_, ok = auth.IdentityFromContext(auth.WithIdentity(ctx, 0))
	assert.False(t, ok)
}
