// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// ResetTokenTTL is the lifetime of a password reset token.
const ResetTokenTTL = time.Hour

// PasswordReset represents a pending password reset.
type PasswordReset struct {
	ID        ulid.ULID
	UserID    UserID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// NewPasswordReset creates a validated PasswordReset.
func NewPasswordReset(userID UserID, tokenHash string, now, expiresAt time.Time) (*PasswordReset, error) {
	if userID <= 0 {
		return nil, oops.Code("RESET_INVALID_USER").Errorf("user ID must be positive")
	}
	if tokenHash == "" {
		return nil, oops.Code("RESET_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if !expiresAt.After(now) {
		return nil, oops.Code("RESET_INVALID_EXPIRY").Errorf("expiry must be after creation time")
	}

	return &PasswordReset{
		ID:        ulid.Make(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}, nil
}

// IsExpiredAt reports whether the reset is expired at t. Equality counts as expired.
func (r *PasswordReset) IsExpiredAt(t time.Time) bool {
	return !r.ExpiresAt.After(t)
}

// PasswordResetRepository manages password reset persistence.
type PasswordResetRepository interface {
	// Create stores a new password reset request.
	Create(ctx context.Context, reset *PasswordReset) error

	// GetByTokenHash retrieves a reset request by its token hash.
	GetByTokenHash(ctx context.Context, tokenHash string) (*PasswordReset, error)

	// Delete removes a password reset request. Returns ErrNotFound if already gone.
	Delete(ctx context.Context, id ulid.ULID) error

	// DeleteByUser removes all reset requests for a user.
	DeleteByUser(ctx context.Context, userID UserID) (int64, error)

	// DeleteExpired removes reset requests expired at now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
