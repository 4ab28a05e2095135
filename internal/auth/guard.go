// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import "context"

// IdentityVerifier turns an Authorization header value into a user id.
// *Service implements it.
type IdentityVerifier interface {
	VerifyAuthHeader(header string) (UserID, error)
}

// ResolveIdentity resolves the caller identity from an Authorization header.
// Errors from the verifier are returned unchanged; translating them into a
// transport response is the caller's job.
func ResolveIdentity(header string, verifier IdentityVerifier) (UserID, error) {
	return verifier.VerifyAuthHeader(header)
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying the resolved user id.
func WithIdentity(ctx context.Context, id UserID) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the user id attached by WithIdentity.
func IdentityFromContext(ctx context.Context) (UserID, bool) {
	id, ok := ctx.Value(identityKey{}).(UserID)
	return id, ok && id > 0
}
