// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/sessiond/internal/auth"
	"github.com/holomush/sessiond/pkg/errutil"
)

func TestNewSession(t *testing.T) {
	expires := baseTime.Add(auth.RefreshTokenTTL)

	t.Run("creates session", func(t *testing.T) {
		s, err := auth.NewSession(1, "hash", baseTime, expires)
		require.NoError(t, err)
		assert.NotZero(t, s.ID)
		assert.Equal(t, auth.UserID(1), s.UserID)
		assert.Equal(t, "hash", s.RefreshTokenHash)
		assert.Equal(t, expires, s.ExpiresAt)
		assert.Equal(t, baseTime, s.CreatedAt)
	})

	t.Run("ids are unique", func(t *testing.T) {
		a, err := auth.NewSession(1, "hash", baseTime, expires)
		require.NoError(t, err)
		b, err := auth.NewSession(1, "hash", baseTime, expires)
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
	})

	tests := []struct {
		name    string
		userID  auth.UserID
		hash    string
		expires time.Time
		code    string
	}{
		{name: "zero user", userID: 0, hash: "hash", expires: expires, code: "SESSION_INVALID_USER"},
		{name: "negative user", userID: -1, hash: "hash", expires: expires, code: "SESSION_INVALID_USER"},
		{name: "empty hash", userID: 1, hash: "", expires: expires, code: "SESSION_INVALID_HASH"},
		{name: "expiry equals now", userID: 1, hash: "hash", expires: baseTime, code: "SESSION_INVALID_EXPIRY"},
		{name: "expiry in past", userID: 1, hash: "hash", expires: baseTime.Add(-time.Second), code: "SESSION_INVALID_EXPIRY"},
	}
	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			_, err := auth.NewSession(tt.userID, tt.hash, baseTime, tt.expires)
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, tt.code)
		})
	}
}

func TestSession_IsExpiredAt(t *testing.T) {
	s := &auth.Session{ExpiresAt: baseTime}
	assert.False(t, s.IsExpiredAt(baseTime.Add(-time.Nanosecond)))
	assert.True(t, s.IsExpiredAt(baseTime))
	assert.True(t, s.IsExpiredAt(baseTime.Add(time.Nanosecond)))
}

func TestNewPasswordReset(t *testing.T) {
	expires := baseTime.Add(auth.ResetTokenTTL)

	t.Run("creates reset", func(t *testing.T) {
		r, err := auth.NewPasswordReset(2, "hash", baseTime, expires)
		require.NoError(t, err)
		assert.NotZero(t, r.ID)
		assert.Equal(t, auth.UserID(2), r.UserID)
		assert.Equal(t, expires, r.ExpiresAt)
	})

	tests := []struct {
		name    string
		userID  auth.UserID
		hash    string
		expires time.Time
		code    string
	}{
		{name: "zero user", userID: 0, hash: "hash", expires: expires, code: "RESET_INVALID_USER"},
		{name: "empty hash", userID: 1, hash: "", expires: expires, code: "RESET_INVALID_HASH"},
		{name: "expiry equals now", userID: 1, hash: "hash", expires: baseTime, code: "RESET_INVALID_EXPIRY"},
	}
	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			_, err := auth.NewPasswordReset(tt.userID, tt.hash, baseTime, tt.expires)
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, tt.code)
		})
	}
}

func TestPasswordReset_IsExpiredAt(t *testing.T) {
	r := &auth.PasswordReset{ExpiresAt: baseTime}
	assert.False(t, r.IsExpiredAt(baseTime.Add(-time.Nanosecond)))
	assert.True(t, r.IsExpiredAt(baseTime))
}
