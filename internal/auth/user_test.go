// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/sessiond/internal/auth"
	"github.com/holomush/sessiond/pkg/errutil"
)

func TestNewUser(t *testing.T) {
	t.Run("creates user with password credential", func(t *testing.T) {
		user, err := auth.NewUser("alice@example.com", "digest", "Alice", baseTime)
		require.NoError(t, err)
		assert.Zero(t, user.ID)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.Equal(t, auth.PasswordCredential{Digest: "digest"}, user.Credential)
		assert.Equal(t, baseTime, user.CreatedAt)
		assert.Equal(t, baseTime, user.UpdatedAt)
	})

	t.Run("rejects empty digest", func(t *testing.T) {
		_, err := auth.NewUser("alice@example.com", "", "Alice", baseTime)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "USER_INVALID_CREDENTIAL")
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		_, err := auth.NewUser("alice", "digest", "Alice", baseTime)
		errutil.AssertErrorCode(t, err, auth.CodeValidation)
	})
}

func TestUser_PasswordDigest(t *testing.T) {
	tests := []struct {
		name       string
		credential auth.Credential
		digest     string
		ok         bool
	}{
		{name: "password", credential: auth.PasswordCredential{Digest: "d"}, digest: "d", ok: true},
		{name: "empty password digest", credential: auth.PasswordCredential{}, ok: false},
		{name: "external", credential: auth.ExternalCredential{Provider: auth.ProviderGoogle, Subject: "1"}, ok: false},
		{name: "none", credential: nil, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &auth.User{Credential: tt.credential}
			digest, ok := u.PasswordDigest()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.digest, digest)
		})
	}
}

func TestValidateEmail(t *testing.T) {
	valid := []string{"a@b", "alice@example.com", "first.last+tag@sub.example.org"}
	for _, email := range valid {
		assert.NoError(t, auth.ValidateEmail(email), email)
	}

	invalid := []string{
		"",
		"alice",
		"@example.com",
		"alice@",
		" alice@example.com",
		"alice@example.com\n",
		strings.Repeat("a", auth.MaxEmailLength) + "@x",
	}
	for _, email := range invalid {
		err := auth.ValidateEmail(email)
		require.Error(t, err, email)
		errutil.AssertErrorCode(t, err, auth.CodeValidation)
	}
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, auth.ValidateName("Alice"))
	assert.NoError(t, auth.ValidateName(strings.Repeat("é", auth.MaxNameLength)))

	for _, name := range []string{"", "   ", strings.Repeat("a", auth.MaxNameLength+1)} {
		err := auth.ValidateName(name)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeValidation)
	}
}

func TestUserID_String(t *testing.T) {
	assert.Equal(t, "42", auth.UserID(42).String())
}
