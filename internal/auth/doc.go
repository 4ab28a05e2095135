// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package auth implements registration, login, refresh-token rotation,
// password reset and bearer-token verification.
//
// # Secrets
//
// Two kinds of secret are handled and they are hashed differently:
//   - passwords go through a PasswordHasher (argon2id, salted)
//   - refresh and reset tokens are 256-bit random values; only their
//     SHA-256 digest (DigestSecret) is stored
//
// Access tokens are HS256 tokens produced by TokenCodec and are never stored.
//
// # Domain Types
//
// Domain types should be created using their constructors:
//   - NewUser - validated user with a password credential
//   - NewSession - refresh-token grant with expiry
//   - NewPasswordReset - one-time reset grant with expiry
//
// A record whose expiry equals the current time is expired.
//
// # Services
//
//   - Service - all auth operations, built with NewService
//   - ResolveIdentity - pure bearer-header resolver for transport adapters
//   - Janitor - periodic purge of expired sessions and resets
package auth
