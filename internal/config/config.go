// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads sessiond configuration from defaults, a YAML file,
// the environment and command-line flags, in that order of precedence.
package config

import (
	"slices"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/holomush/sessiond/internal/auth"
)

// Config is the complete runtime configuration.
type Config struct {
	Database DatabaseConfig `koanf:"database" json:"database" jsonschema:"description=PostgreSQL connection"`
	HTTP     HTTPConfig     `koanf:"http" json:"http"`
	Auth     AuthConfig     `koanf:"auth" json:"auth"`
	Log      LogConfig      `koanf:"log" json:"log"`
	Metrics  MetricsConfig  `koanf:"metrics" json:"metrics"`
	Mail     MailConfig     `koanf:"mail" json:"mail"`
	Storage  StorageConfig  `koanf:"storage" json:"storage"`
	Redis    RedisConfig    `koanf:"redis" json:"redis"`
}

// DatabaseConfig configures the PostgreSQL pool.
type DatabaseConfig struct {
	URL             string `koanf:"url" json:"url" jsonschema:"description=postgres:// connection URL"`
	MaxConns        int32  `koanf:"max_conns" json:"max_conns" jsonschema:"minimum=0"`
	ConnectAttempts uint64 `koanf:"connect_attempts" json:"connect_attempts" jsonschema:"minimum=0"`
	AutoMigrate     bool   `koanf:"auto_migrate" json:"auto_migrate"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr            string        `koanf:"addr" json:"addr"`
	CORSOrigins     []string      `koanf:"cors_origins" json:"cors_origins" jsonschema:"description=Allowed origins; glob patterns such as https://*.example.com"`
	ReadTimeout     time.Duration `koanf:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout" json:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" json:"shutdown_timeout"`
}

// AuthConfig configures token signing and session housekeeping.
type AuthConfig struct {
	JWTSecret                      string        `koanf:"jwt_secret" json:"jwt_secret"`
	RevokeSessionsOnPasswordChange bool          `koanf:"revoke_sessions_on_password_change" json:"revoke_sessions_on_password_change"`
	JanitorInterval                time.Duration `koanf:"janitor_interval" json:"janitor_interval"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Format string `koanf:"format" json:"format" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" json:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// MetricsConfig configures the observability listener. An empty address
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr" json:"addr"`
}

// MailConfig configures password reset delivery. Without an API key reset
// tokens are only logged as issued.
type MailConfig struct {
	APIKey   string `koanf:"api_key" json:"api_key"`
	From     string `koanf:"from" json:"from"`
	ResetURL string `koanf:"reset_url" json:"reset_url" jsonschema:"description=Link sent in reset mail; the token is appended as a query parameter"`
}

// StorageConfig configures S3-compatible avatar storage. An empty bucket
// disables uploads.
type StorageConfig struct {
	Bucket          string `koanf:"bucket" json:"bucket"`
	Region          string `koanf:"region" json:"region"`
	Endpoint        string `koanf:"endpoint" json:"endpoint"`
	PublicBaseURL   string `koanf:"public_base_url" json:"public_base_url"`
	AccessKeyID     string `koanf:"access_key_id" json:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key" json:"secret_access_key"`
	UsePathStyle    bool   `koanf:"use_path_style" json:"use_path_style"`
}

// RedisConfig configures the profile cache. An empty address disables it.
type RedisConfig struct {
	Addr       string        `koanf:"addr" json:"addr"`
	Password   string        `koanf:"password" json:"password"`
	DB         int           `koanf:"db" json:"db" jsonschema:"minimum=0"`
	ProfileTTL time.Duration `koanf:"profile_ttl" json:"profile_ttl"`
}

// Default values.
const (
	DefaultHTTPAddr        = ":8080"
	DefaultMetricsAddr     = "127.0.0.1:9100"
	DefaultLogFormat       = "json"
	DefaultLogLevel        = "info"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultProfileTTL      = 5 * time.Minute
)

var (
	validLogFormats = []string{"json", "text"}
	validLogLevels  = []string{"debug", "info", "warn", "error"}
)

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		Database: DatabaseConfig{
			MaxConns:        10,
			ConnectAttempts: 5,
		},
		HTTP: HTTPConfig{
			Addr:            DefaultHTTPAddr,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Auth: AuthConfig{
			RevokeSessionsOnPasswordChange: true,
			JanitorInterval:                auth.DefaultJanitorInterval,
		},
		Log: LogConfig{
			Format: DefaultLogFormat,
			Level:  DefaultLogLevel,
		},
		Metrics: MetricsConfig{Addr: DefaultMetricsAddr},
		Redis:   RedisConfig{ProfileTTL: DefaultProfileTTL},
	}
}

// Validate checks the configuration for values that would make the service
// unusable or unsafe.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.URL) == "" {
		return oops.Code("CONFIG_INVALID").With("field", "database.url").Errorf("database url is required")
	}
	// The signing secret keeps its AUTH_SECRET_INVALID code.
	if err := auth.ValidateSigningSecret(c.Auth.JWTSecret); err != nil {
		return oops.With("field", "auth.jwt_secret").Wrap(err)
	}
	if !slices.Contains(validLogFormats, c.Log.Format) {
		return oops.Code("CONFIG_INVALID").
			With("field", "log.format").
			Errorf("log format must be one of %v, got %q", validLogFormats, c.Log.Format)
	}
	if !slices.Contains(validLogLevels, c.Log.Level) {
		return oops.Code("CONFIG_INVALID").
			With("field", "log.level").
			Errorf("log level must be one of %v, got %q", validLogLevels, c.Log.Level)
	}
	if c.HTTP.Addr == "" {
		return oops.Code("CONFIG_INVALID").With("field", "http.addr").Errorf("http address is required")
	}
	if c.Auth.JanitorInterval <= 0 {
		return oops.Code("CONFIG_INVALID").With("field", "auth.janitor_interval").Errorf("janitor interval must be positive")
	}
	if c.Storage.Bucket != "" && c.Storage.PublicBaseURL == "" {
		return oops.Code("CONFIG_INVALID").
			With("field", "storage.public_base_url").
			Errorf("public base url is required when a bucket is configured")
	}
	if c.Mail.APIKey != "" && (c.Mail.From == "" || c.Mail.ResetURL == "") {
		return oops.Code("CONFIG_INVALID").
			With("field", "mail").
			Errorf("mail from and reset url are required when an api key is configured")
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	const mask = "********"
	if c.Auth.JWTSecret != "" {
		c.Auth.JWTSecret = mask
	}
	if c.Mail.APIKey != "" {
		c.Mail.APIKey = mask
	}
	if c.Storage.SecretAccessKey != "" {
		c.Storage.SecretAccessKey = mask
	}
	if c.Redis.Password != "" {
		c.Redis.Password = mask
	}
	if c.Database.URL != "" {
		c.Database.URL = redactURL(c.Database.URL)
	}
	c.HTTP.CORSOrigins = slices.Clone(c.HTTP.CORSOrigins)
	return c
}
