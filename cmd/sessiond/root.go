// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/holomush/sessiond/internal/config"
	"github.com/holomush/sessiond/internal/xdg"
)

// Global flags available to all subcommands.
var (
	configFile string
	envFile    string
)

const defaultEnvFile = ".env"

// NewRootCmd creates the root command for the sessiond CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

func newRootCmd(migrateDeps *MigrateDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessiond",
		Short: "sessiond - account and session service",
		Long: `sessiond registers users, issues access and refresh tokens,
handles password resets and serves user profiles over HTTP.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: $XDG_CONFIG_HOME/sessiond/config.yaml when present)")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", defaultEnvFile, "dotenv file loaded before reading the environment")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(newMigrateCmd(migrateDeps))
	cmd.AddCommand(NewConfigCmd())

	return cmd
}

// loadConfig reads configuration for cmd from the config file, dotenv file,
// environment and flags. Without --config the XDG config file is used when
// present. The result is not validated.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file := configFile
	if file == "" {
		file, _ = xdg.FindConfigFile()
	}
	//nolint:wrapcheck // Load returns coded errors
	return config.Load(config.Options{
		File:   file,
		DotEnv: envFile,
		Flags:  cmd.Flags(),
	})
}
