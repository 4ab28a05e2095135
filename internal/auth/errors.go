// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Error codes carried by errors returned from this package. The HTTP layer
// maps them onto status codes; callers should compare codes rather than
// messages.
const (
	CodeEmailTaken          = "AUTH_EMAIL_TAKEN"
	CodeInvalidCredentials  = "AUTH_INVALID_CREDENTIALS"
	CodeInvalidRefreshToken = "AUTH_INVALID_REFRESH_TOKEN"
	CodeInvalidToken        = "AUTH_INVALID_TOKEN"
	CodeTokenExpired        = "AUTH_TOKEN_EXPIRED"
	CodeUnauthorized        = "AUTH_UNAUTHORIZED"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeNotImplemented      = "AUTH_NOT_IMPLEMENTED"
	CodeValidation          = "VALIDATION_FAILED"
)

func errInvalidCredentials() error {
	return oops.Code(CodeInvalidCredentials).Errorf("invalid email or password")
}

func errInvalidRefreshToken() error {
	return oops.Code(CodeInvalidRefreshToken).Errorf("invalid refresh token")
}

func errInvalidToken(reason string) error {
	return oops.Code(CodeInvalidToken).With("reason", reason).Errorf("invalid token")
}

func errTokenExpired() error {
	return oops.Code(CodeTokenExpired).Errorf("token has expired")
}

func errUnauthorized() error {
	return oops.Code(CodeUnauthorized).Errorf("missing or malformed authorization header")
}

// ErrUserNotFound builds the error returned when a profile lookup misses.
func ErrUserNotFound(id UserID) error {
	return oops.Code(CodeUserNotFound).With("user_id", int64(id)).Errorf("user not found")
}

// ErrValidation builds a validation error for the given field.
func ErrValidation(field, format string, args ...any) error {
	return oops.Code(CodeValidation).With("field", field).Errorf(format, args...)
}

// ErrEmailTaken builds the error returned when an email is already
// registered. Repository implementations return it on unique violations.
func ErrEmailTaken(email string) error {
	return oops.Code(CodeEmailTaken).With("email", email).Errorf("email is already registered")
}
