// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// RefreshTokenTTL is the lifetime of a session.
const RefreshTokenTTL = 7 * 24 * time.Hour

// Session is one refresh-token grant. The plaintext refresh token is never
// stored, only its digest.
type Session struct {
	ID               ulid.ULID
	UserID           UserID
	RefreshTokenHash string
	ExpiresAt        time.Time
	CreatedAt        time.Time
}

// NewSession creates a validated Session.
func NewSession(userID UserID, refreshTokenHash string, now, expiresAt time.Time) (*Session, error) {
	if userID <= 0 {
		return nil, oops.Code("SESSION_INVALID_USER").Errorf("user ID must be positive")
	}
	if refreshTokenHash == "" {
		return nil, oops.Code("SESSION_INVALID_HASH").Errorf("refresh token hash cannot be empty")
	}
	if !expiresAt.After(now) {
		return nil, oops.Code("SESSION_INVALID_EXPIRY").Errorf("expiry must be after creation time")
	}

	return &Session{
		ID:               ulid.Make(),
		UserID:           userID,
		RefreshTokenHash: refreshTokenHash,
		ExpiresAt:        expiresAt,
		CreatedAt:        now,
	}, nil
}

// IsExpiredAt reports whether the session is expired at t. A session whose
// expiry equals t is expired.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return !s.ExpiresAt.After(t)
}

// SessionRepository manages session persistence.
type SessionRepository interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// GetByTokenHash retrieves a session by its refresh token digest.
	GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// Delete removes a session by ID. Returns ErrNotFound if it was already gone.
	Delete(ctx context.Context, id ulid.ULID) error

	// DeleteByUser removes all sessions for a user and returns the count.
	DeleteByUser(ctx context.Context, userID UserID) (int64, error)

	// DeleteExpired removes sessions expired at now and returns the count.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
