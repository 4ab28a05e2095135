// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/sessiond/internal/auth"
	"github.com/holomush/sessiond/pkg/errutil"
)

var sessionCols = []string{"id", "user_id", "refresh_token_hash", "expires_at", "created_at"}

func TestSessionRepository_Create(t *testing.T) {
	ctx := context.Background()
	session, err := auth.NewSession(5, "hash", fixedTime, fixedTime.Add(auth.RefreshTokenTTL))
	require.NoError(t, err)

	t.Run("inserts row", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectExec(`INSERT INTO sessions`).
			WithArgs(session.ID.String(), int64(5), "hash", session.ExpiresAt, session.CreatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, NewSessionRepository(mock).Create(ctx, session))
	})

	t.Run("database error", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectExec(`INSERT INTO sessions`).
			WithArgs(session.ID.String(), int64(5), "hash", session.ExpiresAt, session.CreatedAt).
			WillReturnError(errors.New("fk violation"))

		err := NewSessionRepository(mock).Create(ctx, session)
		errutil.AssertErrorCode(t, err, "SESSION_CREATE_FAILED")
	})
}

func TestSessionRepository_GetByTokenHash(t *testing.T) {
	ctx := context.Background()
	id := ulid.Make()

	t.Run("found", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`SELECT .* FROM sessions\s+WHERE refresh_token_hash = \$1`).
			WithArgs("hash").
			WillReturnRows(pgxmock.NewRows(sessionCols).
				AddRow(id.String(), int64(5), "hash", fixedTime.Add(auth.RefreshTokenTTL), fixedTime))

		s, err := NewSessionRepository(mock).GetByTokenHash(ctx, "hash")
		require.NoError(t, err)
		assert.Equal(t, id, s.ID)
		assert.Equal(t, auth.UserID(5), s.UserID)
		assert.Equal(t, fixedTime.Add(auth.RefreshTokenTTL), s.ExpiresAt)
	})

	t.Run("not found", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`SELECT .* FROM sessions`).WithArgs("hash").WillReturnError(pgx.ErrNoRows)

		_, err := NewSessionRepository(mock).GetByTokenHash(ctx, "hash")
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("corrupt id", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`SELECT .* FROM sessions`).
			WithArgs("hash").
			WillReturnRows(pgxmock.NewRows(sessionCols).AddRow("not-a-ulid", int64(5), "hash", fixedTime, fixedTime))

		_, err := NewSessionRepository(mock).GetByTokenHash(ctx, "hash")
		errutil.AssertErrorCode(t, err, "SESSION_CORRUPT_ID")
	})
}

func TestSessionRepository_Delete(t *testing.T) {
	ctx := context.Background()
	id := ulid.Make()

	t.Run("deleted", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectExec(`DELETE FROM sessions WHERE id = \$1`).
			WithArgs(id.String()).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		require.NoError(t, NewSessionRepository(mock).Delete(ctx, id))
	})

	t.Run("already gone", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectExec(`DELETE FROM sessions WHERE id = \$1`).
			WithArgs(id.String()).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err := NewSessionRepository(mock).Delete(ctx, id)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})
}

func TestSessionRepository_BulkDeletes(t *testing.T) {
	ctx := context.Background()

	t.Run("by user returns count", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectExec(`DELETE FROM sessions WHERE user_id = \$1`).
			WithArgs(int64(5)).
			WillReturnResult(pgxmock.NewResult("DELETE", 3))

		n, err := NewSessionRepository(mock).DeleteByUser(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("expired uses inclusive bound", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectExec(`DELETE FROM sessions WHERE expires_at <= \$1`).
			WithArgs(fixedTime).
			WillReturnResult(pgxmock.NewResult("DELETE", 2))

		n, err := NewSessionRepository(mock).DeleteExpired(ctx, fixedTime)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("expired database error", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectExec(`DELETE FROM sessions WHERE expires_at`).
			WithArgs(fixedTime).
			WillReturnError(errors.New("timeout"))

		_, err := NewSessionRepository(mock).DeleteExpired(ctx, fixedTime)
		errutil.AssertErrorCode(t, err, "SESSION_DELETE_EXPIRED_FAILED")
	})
}
