// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// Token configuration.
const (
	AccessTokenTTL  = time.Hour
	MinSecretLength = 32

	// placeholderSecret is the value deployments historically fell back to
	// when no secret was configured. It is refused outright.
	placeholderSecret = "secret"

	claimExpiry  = "exp"
	claimSubject = "sub"
)

// TokenCodec signs and verifies compact HS256 tokens.
//
// Tokens are three dot-joined base64url segments (header, body, signature).
// The body carries the caller payload plus an injected "exp" claim which is
// stripped again on verification.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

// TokenCodecOption configures a TokenCodec.
type TokenCodecOption func(*TokenCodec)

// WithTokenClock overrides the clock used for expiry. Intended for tests.
func WithTokenClock(now func() time.Time) TokenCodecOption {
	return func(c *TokenCodec) {
		c.now = now
	}
}

// NewTokenCodec creates a TokenCodec using the shared signing secret.
func NewTokenCodec(secret []byte, opts ...TokenCodecOption) (*TokenCodec, error) {
	if err := ValidateSigningSecret(string(secret)); err != nil {
		return nil, err
	}

	c := &TokenCodec{
		secret: append([]byte(nil), secret...),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ValidateSigningSecret rejects secrets that are empty, the well-known
// placeholder, or shorter than MinSecretLength bytes.
func ValidateSigningSecret(secret string) error {
	switch {
	case secret == "":
		return oops.Code("AUTH_SECRET_INVALID").Errorf("signing secret is required")
	case secret == placeholderSecret:
		return oops.Code("AUTH_SECRET_INVALID").Errorf("signing secret must not be the placeholder value")
	case len(secret) < MinSecretLength:
		return oops.Code("AUTH_SECRET_INVALID").
			With("min_length", MinSecretLength).
			With("length", len(secret)).
			Errorf("signing secret is too short")
	}
	return nil
}

// Sign encodes payload into a signed token that expires after ttl.
// Any "exp" key in payload is overwritten.
func (c *TokenCodec) Sign(payload map[string]any, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", oops.Code("AUTH_TOKEN_SIGN_FAILED").With("ttl", ttl.String()).Errorf("ttl must be positive")
	}

	claims := make(jwt.MapClaims, len(payload)+1)
	for k, v := range payload {
		claims[k] = v
	}

	// exp has second resolution; round up so a sub-second ttl is not
	// already expired when it is issued.
	expiresAt := c.now().Add(ttl)
	exp := expiresAt.Unix()
	if expiresAt.Nanosecond() > 0 {
		exp++
	}
	claims[claimExpiry] = exp

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Verify checks the token signature and expiry and returns the original
// payload without the "exp" claim.
//
// JSON numbers in the payload come back as float64.
func (c *TokenCodec) Verify(token string) (map[string]any, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		// Expiry is checked below against the injectable clock.
		jwt.WithoutClaimsValidation(),
	)

	claims := jwt.MapClaims{}
	_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return nil, oops.Code(CodeInvalidToken).With("reason", parseFailureReason(err)).Wrap(err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, oops.Code(CodeInvalidToken).With("reason", "exp").Wrap(err)
	}
	if exp == nil {
		return nil, errInvalidToken("missing exp")
	}
	if !c.now().Before(exp.Time) {
		return nil, errTokenExpired()
	}

	delete(claims, claimExpiry)
	return map[string]any(claims), nil
}

// SignAccessToken mints an access token for the given user.
func (c *TokenCodec) SignAccessToken(id UserID) (string, error) {
	return c.Sign(map[string]any{claimSubject: strconv.FormatInt(int64(id), 10)}, AccessTokenTTL)
}

// SubjectFromPayload extracts the user id from a verified access token payload.
func SubjectFromPayload(payload map[string]any) (UserID, error) {
	raw, ok := payload[claimSubject].(string)
	if !ok || raw == "" {
		return 0, errInvalidToken("missing sub")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidToken("bad sub")
	}
	return UserID(id), nil
}

func parseFailureReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "signature"
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return "algorithm"
	default:
		return "invalid"
	}
}
