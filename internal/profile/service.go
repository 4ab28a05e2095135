// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package profile manages the user-editable part of an account: display
// name and avatar.
package profile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/sessiond/internal/auth"
	"github.com/holomush/sessiond/pkg/errutil"
)

// Avatar limits.
const (
	MaxAvatarBytes     = 2 << 20
	MaxAvatarURLLength = 2048
)

// sniffLen is how much of an upload http.DetectContentType looks at.
const sniffLen = 512

var avatarExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// Cache is a read-through profile cache. Implementations must not store
// credentials.
type Cache interface {
	Get(ctx context.Context, id auth.UserID) (*auth.User, bool, error)
	Set(ctx context.Context, user *auth.User) error
	Invalidate(ctx context.Context, id auth.UserID) error
}

// AvatarStore persists uploaded avatar images.
type AvatarStore interface {
	Put(ctx context.Context, key, contentType string, size int64, body io.Reader) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// Service implements the profile operations.
type Service struct {
	users   auth.UserRepository
	cache   Cache
	avatars AvatarStore
	logger  *slog.Logger
	newID   func() ulid.ULID
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables read-through caching of profiles.
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithAvatarStore enables avatar uploads.
func WithAvatarStore(store AvatarStore) Option {
	return func(s *Service) { s.avatars = store }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates a profile Service.
func NewService(users auth.UserRepository, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, oops.Code("PROFILE_SERVICE_INVALID").Errorf("users repository is required")
	}
	s := &Service{
		users:  users,
		logger: slog.Default(),
		newID:  ulid.Make,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		return nil, oops.Code("PROFILE_SERVICE_INVALID").Errorf("logger cannot be nil")
	}
	return s, nil
}

// Get returns the profile of the given user.
func (s *Service) Get(ctx context.Context, id auth.UserID) (*auth.User, error) {
	if s.cache != nil {
		user, ok, err := s.cache.Get(ctx, id)
		if err != nil {
			s.logger.WarnContext(ctx, "profile cache read failed", "user_id", int64(id), "error", err)
		} else if ok {
			return user, nil
		}
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(id, err, "PROFILE_GET_FAILED")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, user); err != nil {
			s.logger.WarnContext(ctx, "profile cache write failed", "user_id", int64(id), "error", err)
		}
	}
	return user, nil
}

// UpdateName changes the display name.
func (s *Service) UpdateName(ctx context.Context, id auth.UserID, name string) (*auth.User, error) {
	if err := auth.ValidateName(name); err != nil {
		return nil, err
	}
	return s.update(ctx, id, auth.ProfileUpdate{Name: &name}, "PROFILE_UPDATE_NAME_FAILED")
}

// SetAvatarURL points the avatar at an externally hosted image.
func (s *Service) SetAvatarURL(ctx context.Context, id auth.UserID, rawURL string) (*auth.User, error) {
	if err := ValidateAvatarURL(rawURL); err != nil {
		return nil, err
	}
	return s.update(ctx, id, auth.ProfileUpdate{AvatarURL: &rawURL}, "PROFILE_SET_AVATAR_FAILED")
}

// UploadAvatar stores an image and makes it the user's avatar. The declared
// content type must match the sniffed one.
func (s *Service) UploadAvatar(
	ctx context.Context,
	id auth.UserID,
	contentType string,
	size int64,
	body io.Reader,
) (*auth.User, error) {
	if s.avatars == nil {
		return nil, oops.Code(auth.CodeNotImplemented).Errorf("avatar uploads are not configured")
	}
	ext, ok := avatarExtensions[contentType]
	if !ok {
		return nil, auth.ErrValidation("avatar", "avatar must be a PNG, JPEG or WebP image")
	}
	if size <= 0 {
		return nil, auth.ErrValidation("avatar", "avatar is empty")
	}
	if size > MaxAvatarBytes {
		return nil, auth.ErrValidation("avatar", "avatar must be at most %d bytes", MaxAvatarBytes)
	}

	head := make([]byte, min(size, sniffLen))
	if _, err := io.ReadFull(body, head); err != nil {
		return nil, auth.ErrValidation("avatar", "avatar is shorter than its declared size")
	}
	if sniffed := http.DetectContentType(head); sniffed != contentType {
		return nil, auth.ErrValidation("avatar", "avatar content does not match %s", contentType)
	}

	key := fmt.Sprintf("avatars/%d/%s%s", int64(id), s.newID(), ext)
	content := io.MultiReader(bytes.NewReader(head), io.LimitReader(body, size-int64(len(head))))
	if err := s.avatars.Put(ctx, key, contentType, size, content); err != nil {
		return nil, oops.Code("PROFILE_AVATAR_UPLOAD_FAILED").
			With("user_id", int64(id)).
			With("key", key).
			Wrap(err)
	}

	avatarURL := s.avatars.URL(key)
	user, err := s.update(ctx, id, auth.ProfileUpdate{AvatarURL: &avatarURL}, "PROFILE_SET_AVATAR_FAILED")
	if err != nil {
		if delErr := s.avatars.Delete(ctx, key); delErr != nil {
			errutil.LogErrorContext(ctx, s.logger, "orphaned avatar object", delErr)
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) update(ctx context.Context, id auth.UserID, update auth.ProfileUpdate, code string) (*auth.User, error) {
	user, err := s.users.UpdateProfile(ctx, id, update)
	if err != nil {
		return nil, s.lookupError(id, err, code)
	}
	s.invalidate(ctx, id)
	return user, nil
}

func (s *Service) invalidate(ctx context.Context, id auth.UserID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "profile cache invalidation failed", "user_id", int64(id), "error", err)
	}
}

func (s *Service) lookupError(id auth.UserID, err error, code string) error {
	if errors.Is(err, auth.ErrNotFound) {
		return auth.ErrUserNotFound(id)
	}
	return oops.Code(code).With("user_id", int64(id)).Wrap(err)
}

// ValidateAvatarURL accepts absolute http and https URLs.
func ValidateAvatarURL(raw string) error {
	if raw == "" {
		return auth.ErrValidation("avatarUrl", "avatar url is required")
	}
	if len(raw) > MaxAvatarURLLength {
		return auth.ErrValidation("avatarUrl", "avatar url must be at most %d characters", MaxAvatarURLLength)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return auth.ErrValidation("avatarUrl", "avatar url must be an absolute http or https url")
	}
	return nil
}
