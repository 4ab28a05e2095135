// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/samber/oops"

	"github.com/holomush/sessiond/internal/auth"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type changePasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type updateProfileRequest struct {
	Name *string `json:"name"`
}

type avatarURLRequest struct {
	AvatarURL string `json:"avatarUrl"`
}

type meResponse struct {
	UserID int64 `json:"userId"`
}

// profileResponse is the public view of a user.
type profileResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AvatarURL *string   `json:"avatarUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newProfileResponse(u *auth.User) profileResponse {
	resp := profileResponse{
		ID:        int64(u.ID),
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.AvatarURL != "" {
		resp.AvatarURL = &u.AvatarURL
	}
	return resp
}

// decodeJSON reads a single JSON object of at most MaxJSONBody bytes.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxJSONBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is required")
		}
		return requestError(err)
	}
	if dec.More() {
		return badRequest("request body must be a single JSON object")
	}
	return nil
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, s.logger, err)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	tokens, err := s.auth.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tokens)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	tokens, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.auth.Logout(r.Context(), req.RefreshToken); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	tokens, err := s.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.auth.ForgotPassword(r.Context(), req.Email); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.auth.ChangePassword(r.Context(), req.Token, req.NewPassword); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleGoogle(w http.ResponseWriter, r *http.Request) {
	s.fail(w, r, s.auth.GoogleLogin(r.Context()))
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		s.fail(w, r, oops.Code("HTTP_IDENTITY_MISSING").Errorf("identity missing from guarded request"))
		return
	}
	writeJSON(w, http.StatusOK, meResponse{UserID: int64(id)})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	s.withIdentity(w, r, func(id auth.UserID) (*auth.User, error) {
		return s.profiles.Get(r.Context(), id)
	})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Name == nil {
		s.fail(w, r, auth.ErrValidation("name", "name is required"))
		return
	}
	s.withIdentity(w, r, func(id auth.UserID) (*auth.User, error) {
		return s.profiles.UpdateName(r.Context(), id, *req.Name)
	})
}

// handleAvatar accepts either {"avatarUrl": "..."} or a multipart upload
// with the image in the "avatar" field.
func (s *Server) handleAvatar(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		s.handleAvatarUpload(w, r)
		return
	}

	var req avatarURLRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	s.withIdentity(w, r, func(id auth.UserID) (*auth.User, error) {
		return s.profiles.SetAvatarURL(r.Context(), id, req.AvatarURL)
	})
}

func (s *Server) handleAvatarUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxMultipartBody)
	if err := r.ParseMultipartForm(MaxMultipartBody); err != nil {
		s.fail(w, r, requestError(err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("avatar")
	if err != nil {
		s.fail(w, r, badRequest("multipart field %q is required", "avatar"))
		return
	}
	defer func() { _ = file.Close() }()

	contentType := header.Header.Get("Content-Type")
	s.withIdentity(w, r, func(id auth.UserID) (*auth.User, error) {
		return s.profiles.UploadAvatar(r.Context(), id, contentType, header.Size, file)
	})
}

// withIdentity runs fn for the guarded caller and writes the profile it
// returns.
func (s *Server) withIdentity(w http.ResponseWriter, r *http.Request, fn func(auth.UserID) (*auth.User, error)) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		s.fail(w, r, oops.Code("HTTP_IDENTITY_MISSING").Errorf("identity missing from guarded request"))
		return
	}
	user, err := fn(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfileResponse(user))
}
