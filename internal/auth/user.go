// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/samber/oops"
)

// Field constraints.
const (
	MaxNameLength  = 100
	MaxEmailLength = 254
)

// ProviderGoogle identifies accounts created through Google sign-in.
const ProviderGoogle = "google"

// UserID identifies a user. IDs are assigned by the store and are positive.
type UserID int64

// String returns the decimal form of the id.
func (id UserID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Credential is how a user proves their identity. It is either a
// PasswordCredential or an ExternalCredential.
type Credential interface {
	credential()
}

// PasswordCredential holds a password digest produced by a PasswordHasher.
type PasswordCredential struct {
	Digest string
}

func (PasswordCredential) credential() {}

// ExternalCredential marks an account authenticated by an outside identity
// provider. Such accounts cannot log in with a password.
type ExternalCredential struct {
	Provider string
	Subject  string
}

func (ExternalCredential) credential() {}

// User represents an account.
type User struct {
	ID         UserID
	Email      string
	Credential Credential
	Name       string
	AvatarURL  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PasswordDigest returns the stored password digest, or false when the user
// has no password credential.
func (u *User) PasswordDigest() (string, bool) {
	pc, ok := u.Credential.(PasswordCredential)
	if !ok || pc.Digest == "" {
		return "", false
	}
	return pc.Digest, true
}

// NewUser creates a validated User with a password credential.
// The ID is assigned by UserRepository.Create.
func NewUser(email, passwordDigest, name string, now time.Time) (*User, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if passwordDigest == "" {
		return nil, oops.Code("USER_INVALID_CREDENTIAL").Errorf("password digest cannot be empty")
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	return &User{
		Email:      email,
		Credential: PasswordCredential{Digest: passwordDigest},
		Name:       name,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// ValidateEmail performs a structural check only. Emails are stored exactly
// as given, so surrounding whitespace is rejected rather than trimmed.
func ValidateEmail(email string) error {
	if email == "" {
		return ErrValidation("email", "email is required")
	}
	if len(email) > MaxEmailLength {
		return ErrValidation("email", "email must be at most %d characters", MaxEmailLength)
	}
	if strings.TrimSpace(email) != email {
		return ErrValidation("email", "email must not have surrounding whitespace")
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return ErrValidation("email", "email is malformed")
	}
	return nil
}

// ValidateName checks a display name.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrValidation("name", "name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return ErrValidation("name", "name must be at most %d characters", MaxNameLength)
	}
	return nil
}

// ProfileUpdate lists the profile fields to change. Nil fields are left as is.
type ProfileUpdate struct {
	Name      *string
	AvatarURL *string
}

// UserRepository manages user persistence.
type UserRepository interface {
	// GetByEmail retrieves a user by exact email match.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByID retrieves a user by id.
	GetByID(ctx context.Context, id UserID) (*User, error)

	// Create stores a new user and sets its ID. Returns an
	// AUTH_EMAIL_TAKEN error if the email already exists.
	Create(ctx context.Context, user *User) error

	// UpdatePassword replaces the user's credential with a password digest.
	UpdatePassword(ctx context.Context, id UserID, digest string) error

	// UpdateProfile applies the given changes and returns the updated user.
	UpdateProfile(ctx context.Context, id UserID, update ProfileUpdate) (*User, error)
}
