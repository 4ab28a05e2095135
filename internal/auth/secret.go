// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/samber/oops"
)

// SecretBytes is the entropy of refresh and reset secrets (64 hex chars).
const SecretBytes = 32

// GenerateSecret creates a random opaque secret and its digest.
// Returns (plaintext, sha256_hex, error). Only the digest may be persisted.
func GenerateSecret() (secret, digest string, err error) {
	buf := make([]byte, SecretBytes)
	if _, err = rand.Read(buf); err != nil {
		return "", "", oops.Code("AUTH_SECRET_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", SecretBytes).
			Wrap(err)
	}

	secret = hex.EncodeToString(buf)
	return secret, DigestSecret(secret), nil
}

// DigestSecret computes the SHA-256 hex digest of a high-entropy secret.
// It must not be used for passwords; see PasswordHasher.
func DigestSecret(secret string) string {
	h := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(h[:])
}

// VerifySecret reports whether secret matches digest in constant time.
func VerifySecret(secret, digest string) bool {
	if secret == "" || digest == "" {
		return false
	}
	computed := DigestSecret(secret)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1
}
