// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/holomush/sessiond/internal/auth"
	"github.com/holomush/sessiond/internal/store"
)

const emailUniqueConstraint = "users_email_key"

const userColumns = `id, email, password_hash, auth_provider, provider_sub, name, avatar_url, created_at, updated_at`

// UserRepository implements auth.UserRepository using PostgreSQL.
type UserRepository struct {
	pool store.Querier
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool store.Querier) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByEmail retrieves a user by exact email match.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_EMAIL_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}
	return user, nil
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id auth.UserID) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, int64(id))

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("user_id", int64(id)).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").
			With("operation", "get user by id").
			With("user_id", int64(id)).
			Wrap(err)
	}
	return user, nil
}

// Create stores a new user and sets user.ID from the database.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	var passwordHash, provider, subject *string
	switch c := user.Credential.(type) {
	case auth.PasswordCredential:
		passwordHash = &c.Digest
	case auth.ExternalCredential:
		provider, subject = &c.Provider, &c.Subject
	default:
		return oops.Code("USER_INVALID_CREDENTIAL").
			With("email", user.Email).
			Errorf("user has no credential")
	}

	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, auth_provider, provider_sub, name, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`,
		user.Email,
		passwordHash,
		provider,
		subject,
		user.Name,
		user.AvatarURL,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&id)
	if store.IsUniqueViolation(err, emailUniqueConstraint) {
		return auth.ErrEmailTaken(user.Email)
	}
	if err != nil {
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			Wrap(err)
	}

	user.ID = auth.UserID(id)
	return nil
}

// UpdatePassword replaces the user's credential with a password digest.
func (r *UserRepository) UpdatePassword(ctx context.Context, id auth.UserID, digest string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users
		SET password_hash = $2, auth_provider = NULL, provider_sub = NULL, updated_at = NOW()
		WHERE id = $1
	`, int64(id), digest)
	if err != nil {
		return oops.Code("USER_UPDATE_PASSWORD_FAILED").
			With("operation", "update password").
			With("user_id", int64(id)).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("user_id", int64(id)).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// UpdateProfile applies the non-nil fields of update and returns the
// stored user.
func (r *UserRepository) UpdateProfile(ctx context.Context, id auth.UserID, update auth.ProfileUpdate) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET name = COALESCE($2, name),
		    avatar_url = COALESCE($3, avatar_url),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns,
		int64(id), update.Name, update.AvatarURL)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("user_id", int64(id)).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_UPDATE_PROFILE_FAILED").
			With("operation", "update profile").
			With("user_id", int64(id)).
			Wrap(err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		id                              int64
		passwordHash, provider, subject *string
		user                            auth.User
	)
	if err := row.Scan(
		&id,
		&user.Email,
		&passwordHash,
		&provider,
		&subject,
		&user.Name,
		&user.AvatarURL,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err //nolint:wrapcheck // callers add context
	}

	user.ID = auth.UserID(id)
	switch {
	case passwordHash != nil:
		user.Credential = auth.PasswordCredential{Digest: *passwordHash}
	case provider != nil && subject != nil:
		user.Credential = auth.ExternalCredential{Provider: *provider, Subject: *subject}
	}
	return &user, nil
}
