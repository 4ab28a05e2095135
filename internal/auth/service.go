// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/holomush/sessiond/pkg/errutil"
)

// MaxPasswordLength bounds the input to the KDF.
const MaxPasswordLength = 1024

// Operation names reported to the Recorder.
const (
	OpRegister       = "register"
	OpLogin          = "login"
	OpLogout         = "logout"
	OpRefresh        = "refresh"
	OpForgotPassword = "forgot_password"
	OpChangePassword = "change_password"
	OpVerify         = "verify"
)

const bearerPrefix = "Bearer "

// dummyPasswordHash is used when a user doesn't exist to prevent timing attacks.
// We still run password verification to make response time consistent.
// This is NOT a real credential - it's a fake hash that will never match any password.
//
//nolint:gosec // G101: This is an intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// clientErrorCodes are failures caused by the caller; they are not logged at
// error level.
var clientErrorCodes = map[string]bool{
	CodeEmailTaken:          true,
	CodeInvalidCredentials:  true,
	CodeInvalidRefreshToken: true,
	CodeInvalidToken:        true,
	CodeTokenExpired:        true,
	CodeUnauthorized:        true,
	CodeValidation:          true,
	CodeNotImplemented:      true,
}

// Tokens is an issued access/refresh token pair.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Service provides authentication operations.
type Service struct {
	users    UserRepository
	sessions SessionRepository
	resets   PasswordResetRepository
	hasher   PasswordHasher
	tokens   *TokenCodec
	notifier ResetNotifier
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time

	revokeOnPasswordChange bool
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides the clock used for session and reset expiry.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithNotifier sets how reset tokens are delivered.
func WithNotifier(n ResetNotifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

// WithRecorder sets the operation outcome recorder.
func WithRecorder(r Recorder) ServiceOption {
	return func(s *Service) { s.recorder = r }
}

// WithSessionRevocation controls whether a password change revokes the
// user's sessions and outstanding reset tokens. Enabled by default.
func WithSessionRevocation(enabled bool) ServiceOption {
	return func(s *Service) { s.revokeOnPasswordChange = enabled }
}

// NewService creates a new Service.
func NewService(
	users UserRepository,
	sessions SessionRepository,
	resets PasswordResetRepository,
	hasher PasswordHasher,
	tokens *TokenCodec,
	opts ...ServiceOption,
) (*Service, error) {
	switch {
	case users == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("users repository is required")
	case sessions == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("sessions repository is required")
	case resets == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("password reset repository is required")
	case hasher == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("password hasher is required")
	case tokens == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("token codec is required")
	}

	s := &Service{
		users:                  users,
		sessions:               sessions,
		resets:                 resets,
		hasher:                 hasher,
		tokens:                 tokens,
		recorder:               nopRecorder{},
		logger:                 slog.Default(),
		now:                    time.Now,
		revokeOnPasswordChange: true,
	}
	for _, opt := range opts {
		opt(s)
	}

	switch {
	case s.logger == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("logger cannot be nil")
	case s.now == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("clock cannot be nil")
	case s.recorder == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("recorder cannot be nil")
	}
	if s.notifier == nil {
		s.notifier = NewLogNotifier(s.logger)
	}
	return s, nil
}

// Register creates a password account and issues a token pair.
func (s *Service) Register(ctx context.Context, email, password, name string) (Tokens, error) {
	tokens, err := s.register(ctx, email, password, name)
	s.observe(ctx, OpRegister, err)
	return tokens, err
}

func (s *Service) register(ctx context.Context, email, password, name string) (Tokens, error) {
	if err := ValidateEmail(email); err != nil {
		return Tokens{}, err
	}
	if err := validatePassword(password); err != nil {
		return Tokens{}, err
	}
	if err := ValidateName(name); err != nil {
		return Tokens{}, err
	}

	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return Tokens{}, ErrEmailTaken(email)
	}
	if !errors.Is(err, ErrNotFound) {
		return Tokens{}, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return Tokens{}, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := NewUser(email, digest, name, s.now())
	if err != nil {
		return Tokens{}, err
	}

	// A concurrent registration can still win between the lookup and the
	// insert; the repository reports that as AUTH_EMAIL_TAKEN.
	if err := s.users.Create(ctx, user); err != nil {
		if errutil.HasCode(err, CodeEmailTaken) {
			return Tokens{}, err
		}
		return Tokens{}, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create user").
			Wrap(err)
	}

	return s.createTokens(ctx, user.ID)
}

// Login authenticates by email and password and issues a token pair.
// Unknown emails, external accounts and wrong passwords are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (Tokens, error) {
	tokens, err := s.login(ctx, email, password)
	s.observe(ctx, OpLogin, err)
	return tokens, err
}

func (s *Service) login(ctx context.Context, email, password string) (Tokens, error) {
	user, lookupErr := s.users.GetByEmail(ctx, email)
	if lookupErr != nil && !errors.Is(lookupErr, ErrNotFound) {
		return Tokens{}, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get user by email").
			Wrap(lookupErr)
	}

	targetHash := dummyPasswordHash
	hasPassword := false
	if lookupErr == nil {
		if digest, ok := user.PasswordDigest(); ok {
			targetHash = digest
			hasPassword = true
		}
	}

	// Always verify so that response time does not reveal whether the
	// account exists.
	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		if !hasPassword {
			return Tokens{}, errInvalidCredentials()
		}
		return Tokens{}, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			With("user_id", user.ID.String()).
			Wrap(verifyErr)
	}
	if !hasPassword || !valid {
		return Tokens{}, errInvalidCredentials()
	}

	if s.hasher.NeedsUpgrade(targetHash) {
		s.upgradePassword(ctx, user.ID, password)
	}

	return s.createTokens(ctx, user.ID)
}

// upgradePassword rehashes a legacy digest. Login succeeds regardless.
func (s *Service) upgradePassword(ctx context.Context, id UserID, password string) {
	digest, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.WarnContext(ctx, "password rehash failed", "user_id", id.String(), "error", err)
		return
	}
	if err := s.users.UpdatePassword(ctx, id, digest); err != nil {
		s.logger.WarnContext(ctx, "password upgrade not persisted", "user_id", id.String(), "error", err)
		return
	}
	s.logger.InfoContext(ctx, "password digest upgraded", "user_id", id.String())
}

// Logout revokes the session holding refreshToken. Unknown or already
// revoked tokens are not an error.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	err := s.logout(ctx, refreshToken)
	s.observe(ctx, OpLogout, err)
	return err
}

func (s *Service) logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	session, err := s.sessions.GetByTokenHash(ctx, DigestSecret(refreshToken))
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}

	if err := s.sessions.Delete(ctx, session.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "delete session").
			With("session_id", session.ID.String()).
			Wrap(err)
	}
	return nil
}

// Refresh consumes a refresh token and issues a new pair for the same user.
// Each refresh token can be used at most once.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	tokens, err := s.refresh(ctx, refreshToken)
	s.observe(ctx, OpRefresh, err)
	return tokens, err
}

func (s *Service) refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	if refreshToken == "" {
		return Tokens{}, errInvalidRefreshToken()
	}

	session, err := s.sessions.GetByTokenHash(ctx, DigestSecret(refreshToken))
	if errors.Is(err, ErrNotFound) {
		return Tokens{}, errInvalidRefreshToken()
	}
	if err != nil {
		return Tokens{}, oops.Code("AUTH_REFRESH_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}

	// Expired sessions are rejected but left for the janitor.
	if session.IsExpiredAt(s.now()) {
		return Tokens{}, errInvalidRefreshToken()
	}

	// Whoever deletes the row owns the rotation.
	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Tokens{}, errInvalidRefreshToken()
		}
		return Tokens{}, oops.Code("AUTH_REFRESH_FAILED").
			With("operation", "delete session").
			With("session_id", session.ID.String()).
			Wrap(err)
	}

	return s.createTokens(ctx, session.UserID)
}

// ForgotPassword issues a reset token for the account with the given email
// and hands it to the ResetNotifier. Unknown emails succeed without effect.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	err := s.forgotPassword(ctx, email)
	s.observe(ctx, OpForgotPassword, err)
	return err
}

func (s *Service) forgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return nil
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return oops.Code("AUTH_FORGOT_PASSWORD_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	token, digest, err := GenerateSecret()
	if err != nil {
		return oops.Code("AUTH_FORGOT_PASSWORD_FAILED").
			With("operation", "generate reset token").
			Wrap(err)
	}

	now := s.now()
	reset, err := NewPasswordReset(user.ID, digest, now, now.Add(ResetTokenTTL))
	if err != nil {
		return oops.Code("AUTH_FORGOT_PASSWORD_FAILED").
			With("operation", "new password reset").
			Wrap(err)
	}

	if err := s.resets.Create(ctx, reset); err != nil {
		return oops.Code("AUTH_FORGOT_PASSWORD_FAILED").
			With("operation", "create password reset").
			Wrap(err)
	}

	// Delivery failures are not surfaced: the response must look the same
	// whether or not the account exists.
	if err := s.notifier.SendPasswordReset(ctx, user, token); err != nil {
		errutil.LogErrorContext(ctx, s.logger, "password reset delivery failed", err)
	}
	return nil
}

// ChangePassword sets a new password using a reset token. The token is
// consumed; by default all of the user's sessions are revoked as well.
func (s *Service) ChangePassword(ctx context.Context, token, newPassword string) error {
	err := s.changePassword(ctx, token, newPassword)
	s.observe(ctx, OpChangePassword, err)
	return err
}

// The token is checked before the new password, so an unknown or expired
// token always reports AUTH_INVALID_TOKEN.
func (s *Service) changePassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return errInvalidToken("empty reset token")
	}

	reset, err := s.resets.GetByTokenHash(ctx, DigestSecret(token))
	if errors.Is(err, ErrNotFound) {
		return errInvalidToken("unknown reset token")
	}
	if err != nil {
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "get reset by token hash").
			Wrap(err)
	}
	if reset.IsExpiredAt(s.now()) {
		return errInvalidToken("expired reset token")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	// Consume the token before changing the password so that two
	// concurrent requests cannot both succeed.
	if err := s.resets.Delete(ctx, reset.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return errInvalidToken("reset token already used")
		}
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "delete password reset").
			Wrap(err)
	}

	if err := s.users.UpdatePassword(ctx, reset.UserID, digest); err != nil {
		if errors.Is(err, ErrNotFound) {
			return errInvalidToken("reset token owner no longer exists")
		}
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "update password").
			With("user_id", reset.UserID.String()).
			Wrap(err)
	}

	if s.revokeOnPasswordChange {
		s.revokeCredentials(ctx, reset.UserID)
	}
	return nil
}

// revokeCredentials drops every session and outstanding reset token of a
// user. The password change already succeeded, so failures are only logged.
func (s *Service) revokeCredentials(ctx context.Context, id UserID) {
	if n, err := s.sessions.DeleteByUser(ctx, id); err != nil {
		errutil.LogErrorContext(ctx, s.logger, "revoke sessions after password change failed", err)
	} else if n > 0 {
		s.logger.InfoContext(ctx, "revoked sessions after password change", "user_id", id.String(), "count", n)
	}
	if _, err := s.resets.DeleteByUser(ctx, id); err != nil {
		errutil.LogErrorContext(ctx, s.logger, "revoke reset tokens after password change failed", err)
	}
}

// VerifyAuthHeader resolves the user id from an "Authorization: Bearer"
// header value.
func (s *Service) VerifyAuthHeader(header string) (UserID, error) {
	id, err := s.verifyAuthHeader(header)
	s.observe(context.Background(), OpVerify, err)
	return id, err
}

func (s *Service) verifyAuthHeader(header string) (UserID, error) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return 0, errUnauthorized()
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return 0, errUnauthorized()
	}

	payload, err := s.tokens.Verify(token)
	if err != nil {
		return 0, err
	}
	return SubjectFromPayload(payload)
}

// GoogleLogin is reserved for federated sign-in and always fails.
func (s *Service) GoogleLogin(context.Context) error {
	return oops.Code(CodeNotImplemented).
		With("provider", ProviderGoogle).
		Errorf("google sign-in is not implemented")
}

// createTokens persists a new session for userID and returns the only copy
// of its plaintext refresh token alongside a fresh access token.
func (s *Service) createTokens(ctx context.Context, userID UserID) (Tokens, error) {
	refreshToken, digest, err := GenerateSecret()
	if err != nil {
		return Tokens{}, oops.Code("AUTH_TOKEN_ISSUE_FAILED").
			With("operation", "generate refresh token").
			Wrap(err)
	}

	// Sign first so that a signing failure leaves no orphan session.
	accessToken, err := s.tokens.SignAccessToken(userID)
	if err != nil {
		return Tokens{}, oops.Code("AUTH_TOKEN_ISSUE_FAILED").
			With("operation", "sign access token").
			Wrap(err)
	}

	now := s.now()
	session, err := NewSession(userID, digest, now, now.Add(RefreshTokenTTL))
	if err != nil {
		return Tokens{}, oops.Code("AUTH_TOKEN_ISSUE_FAILED").
			With("operation", "new session").
			Wrap(err)
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return Tokens{}, oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "persist session").
			With("user_id", userID.String()).
			Wrap(err)
	}

	return Tokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *Service) observe(ctx context.Context, op string, err error) {
	if err == nil {
		s.recorder.RecordAuth(op, "success")
		return
	}

	code := errutil.Code(err)
	if code == "" {
		code = "error"
	}
	s.recorder.RecordAuth(op, code)

	if clientErrorCodes[code] {
		s.logger.DebugContext(ctx, "auth operation rejected", "operation", op, "code", code)
		return
	}
	errutil.LogErrorContext(ctx, s.logger, "auth operation failed", err)
}

func validatePassword(password string) error {
	if password == "" {
		return ErrValidation("password", "password is required")
	}
	if len(password) > MaxPasswordLength {
		return ErrValidation("password", "password must be at most %d bytes", MaxPasswordLength)
	}
	return nil
}
