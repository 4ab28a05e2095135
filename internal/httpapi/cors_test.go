// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package httpapi_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/sessiond/internal/auth"
	"github.com/holomush/sessiond/internal/httpapi"
)

func TestCORS_Allowed(t *testing.T) {
	c, err := httpapi.NewCORS([]string{"https://app.example.com", "https://*.preview.example.com", " "})
	require.NoError(t, err)

	tests := []struct {
		origin string
		want   bool
	}{
		{origin: "https://app.example.com", want: true},
		{origin: "https://pr-12.preview.example.com", want: true},
		{origin: "https://a.b.preview.example.com", want: false},
		{origin: "http://app.example.com", want: false},
		{origin: "https://evil.com", want: false},
		{origin: "https://app.example.com.evil.com", want: false},
		{origin: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Allowed(tt.origin))
		})
	}
}

func TestCORS_InvalidPattern(t *testing.T) {
	_, err := httpapi.NewCORS([]string{"https://[app.example.com"})
	require.Error(t, err)
}

func TestCORS_Middleware(t *testing.T) {
	c, err := httpapi.NewCORS([]string{"https://app.example.com"})
	require.NoError(t, err)
	h := newHarness(t, httpapi.WithCORS(c))

	t.Run("preflight from allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		h.handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
	})

	t.Run("preflight from other origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
		req.Header.Set("Origin", "https://evil.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		h.handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("simple request", func(t *testing.T) {
		h.auth.On("VerifyAuthHeader", bearer).Return(auth.UserID(1), nil)
		rec := h.do(http.MethodPost, "/auth/me", "", "Authorization", bearer, "Origin", "https://app.example.com")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "Origin", rec.Header().Get("Vary"))
	})

}
