// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/sessiond/internal/config"
)

// TestMain points XDG_CONFIG_HOME at an empty directory so a developer's
// own config file does not leak into the tests.
func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "sessiond-xdg")
	if err != nil {
		panic(err)
	}
	_ = os.Setenv("XDG_CONFIG_HOME", dir)
	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

// execute runs the root command with args and returns combined output.
func execute(t *testing.T, migrateDeps *MigrateDeps, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(migrateDeps)
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	output, err := execute(t, nil, "--help")
	require.NoError(t, err)

	for _, sub := range []string{"serve", "migrate", "config"} {
		assert.Contains(t, output, sub, "Help missing %q command", sub)
	}
}

func TestRootCommand_ConfigFlag(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantFlag string
	}{
		{
			name:     "separate value",
			args:     []string{"--config", "/path/to/config.yaml", "--help"},
			wantFlag: "/path/to/config.yaml",
		},
		{
			name:     "with equals",
			args:     []string{"--config=/etc/sessiond.yaml", "--help"},
			wantFlag: "/etc/sessiond.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile = ""

			_, err := execute(t, nil, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFlag, configFile)
		})
	}
}

func TestRootCommand_VersionFlag(t *testing.T) {
	cmd := NewRootCmd()
	cmd.Version = "test-version"
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "test-version")
}

func TestRootCommand_ConfigFlagsInherited(t *testing.T) {
	output, err := execute(t, nil, "serve", "--help")
	require.NoError(t, err)

	for _, flag := range []string{"--config", "--env-file", "--database-url", "--http-addr", "--log-level", "--auto-migrate"} {
		assert.Contains(t, output, flag)
	}
}

func TestConfigShow_RedactsSecrets(t *testing.T) {
	t.Setenv("SESSIOND_AUTH__JWT_SECRET", "super-secret-signing-key-0123456789abcdef")
	t.Setenv("SESSIOND_DATABASE__URL", "postgres://app:hunter2@db:5432/sessiond")

	output, err := execute(t, nil, "config", "show", "--http-addr", ":9999")
	require.NoError(t, err)

	assert.Contains(t, output, ":9999")
	assert.Regexp(t, `jwt_secret: ["']?\*{8}`, output)
	assert.NotContains(t, output, "super-secret-signing-key")
	assert.NotContains(t, output, "hunter2")
}

func TestConfigSchema(t *testing.T) {
	output, err := execute(t, nil, "config", "schema")
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(output), &schema))
	assert.Equal(t, config.SchemaID, schema["$id"])
}

func TestConfigValidate(t *testing.T) {
	t.Run("invalid", func(t *testing.T) {
		t.Setenv("SESSIOND_DATABASE__URL", "")
		_, err := execute(t, nil, "config", "validate")
		require.Error(t, err)
	})

	t.Run("valid", func(t *testing.T) {
		t.Setenv("SESSIOND_AUTH__JWT_SECRET", "super-secret-signing-key-0123456789abcdef")
		output, err := execute(t, nil, "config", "validate", "--database-url", "postgres://localhost/sessiond")
		require.NoError(t, err)
		assert.Contains(t, output, "Configuration is valid")
	})
}

func TestConfigShow_UsesXDGConfigFile(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)
	dir := filepath.Join(base, "sessiond")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log:\n  level: debug\n"), 0o600))

	configFile = ""
	output, err := execute(t, nil, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, output, "level: debug")
}
