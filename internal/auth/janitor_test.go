// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/holomush/sessiond/internal/auth"
	"github.com/holomush/sessiond/internal/auth/mocks"
	"github.com/holomush/sessiond/pkg/errutil"
)

func TestJanitor_RunOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("purges only expired rows", func(t *testing.T) {
		sessions, resets := newMemSessions(), newMemResets()
		past := time.Now().Add(-2 * time.Hour)

		expired, err := auth.NewSession(1, "expired", past, past.Add(time.Hour))
		require.NoError(t, err)
		live, err := auth.NewSession(1, "live", time.Now(), time.Now().Add(time.Hour))
		require.NoError(t, err)
		require.NoError(t, sessions.Create(ctx, expired))
		require.NoError(t, sessions.Create(ctx, live))

		oldReset, err := auth.NewPasswordReset(1, "old", past, past.Add(time.Minute))
		require.NoError(t, err)
		require.NoError(t, resets.Create(ctx, oldReset))

		j := auth.NewJanitor(sessions, resets, time.Minute, slog.Default())
		require.NoError(t, j.RunOnce(ctx))

		assert.Equal(t, 1, sessions.count())
		_, err = sessions.GetByTokenHash(ctx, "live")
		require.NoError(t, err)
		assert.Equal(t, 0, resets.count())
	})

	t.Run("reports purge counts", func(t *testing.T) {
		sessions, resets := newMemSessions(), newMemResets()
		past := time.Now().Add(-2 * time.Hour)
		for _, digest := range []string{"a", "b"} {
			s, err := auth.NewSession(1, digest, past, past.Add(time.Hour))
			require.NoError(t, err)
			require.NoError(t, sessions.Create(ctx, s))
		}

		obs := &purgeCounts{}
		j := auth.NewJanitor(sessions, resets, time.Minute, nil, auth.WithPurgeObserver(obs))
		require.NoError(t, j.RunOnce(ctx))

		assert.Equal(t, map[string]int64{"sessions": 2, "password_reset_tokens": 0}, obs.counts)
	})

	t.Run("attempts both tables and joins errors", func(t *testing.T) {
		sessions := mocks.NewMockSessionRepository(t)
		sessions.On("DeleteExpired", mock.Anything, mock.AnythingOfType("time.Time")).
			Return(int64(0), errors.New("sessions down"))
		resets := mocks.NewMockPasswordResetRepository(t)
		resets.On("DeleteExpired", mock.Anything, mock.AnythingOfType("time.Time")).
			Return(int64(0), errors.New("resets down"))

		j := auth.NewJanitor(sessions, resets, time.Minute, nil)
		err := j.RunOnce(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sessions down")
		assert.Contains(t, err.Error(), "resets down")
	})
}

func TestJanitor_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	ran := make(chan struct{}, 1)
	sessions := mocks.NewMockSessionRepository(t)
	sessions.On("DeleteExpired", mock.Anything, mock.AnythingOfType("time.Time")).
		Run(func(mock.Arguments) {
			select {
			case ran <- struct{}{}:
			default:
			}
		}).
		Return(int64(0), nil)
	resets := mocks.NewMockPasswordResetRepository(t)
	resets.On("DeleteExpired", mock.Anything, mock.AnythingOfType("time.Time")).Return(int64(0), nil)

	j := auth.NewJanitor(sessions, resets, time.Hour, nil)
	require.NoError(t, j.Start(context.Background()))

	err := j.Start(context.Background())
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "JANITOR_RUNNING")

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("janitor did not run an initial cycle")
	}

	j.Stop()
	j.Stop()
}

type purgeCounts struct {
	counts map[string]int64
}

func (p *purgeCounts) RecordPurge(table string, n int64) {
	if p.counts == nil {
		p.counts = map[string]int64{}
	}
	p.counts[table] += n
}
