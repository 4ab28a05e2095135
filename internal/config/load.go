// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable read by Load. Nested keys
// are separated by a double underscore, e.g. SESSIOND_AUTH__JWT_SECRET.
const EnvPrefix = "SESSIOND_"

// flagKeys maps command-line flag names onto configuration keys.
var flagKeys = map[string]string{
	"database-url": "database.url",
	"http-addr":    "http.addr",
	"metrics-addr": "metrics.addr",
	"log-format":   "log.format",
	"log-level":    "log.level",
	"auto-migrate": "database.auto_migrate",
}

// Options controls where Load reads from.
type Options struct {
	// File is an optional YAML file. A missing file is an error only when
	// the path was given explicitly.
	File string
	// DotEnv is loaded into the process environment when present.
	DotEnv string
	// Flags overrides everything else for flags the user actually set.
	Flags *pflag.FlagSet
	// Environ replaces os.Environ, mainly for tests.
	Environ func() []string
}

// RegisterFlags adds the flags understood by Load to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Defaults()
	fs.String("database-url", "", "PostgreSQL connection URL")
	fs.String("http-addr", d.HTTP.Addr, "HTTP API listen address")
	fs.String("metrics-addr", d.Metrics.Addr, "metrics and health listen address (empty to disable)")
	fs.String("log-format", d.Log.Format, "log format (json or text)")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	fs.Bool("auto-migrate", false, "apply pending migrations on startup")
}

// Load builds a Config from defaults, the YAML file, the environment and
// flags. The result is not validated; call Config.Validate.
func Load(opts Options) (*Config, error) {
	if opts.DotEnv != "" {
		if err := godotenv.Load(opts.DotEnv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, oops.Code("CONFIG_DOTENV_FAILED").With("path", opts.DotEnv).Wrap(err)
		}
	}

	k := koanf.New(".")
	if err := loadDefaults(k); err != nil {
		return nil, err
	}

	if opts.File != "" {
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return nil, oops.Code("CONFIG_READ_FAILED").With("path", opts.File).Wrap(err)
		}
		if err := ValidateYAML(data); err != nil {
			return nil, oops.Code("CONFIG_SCHEMA_INVALID").With("path", opts.File).Wrap(err)
		}
		if err := k.Load(file.Provider(opts.File), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_PARSE_FAILED").With("path", opts.File).Wrap(err)
		}
	}

	if err := loadEnv(k, opts.Environ); err != nil {
		return nil, err
	}

	if opts.Flags != nil {
		provider := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_DECODE_FAILED").Wrap(err)
	}
	return &cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	d := Defaults()
	defaults := map[string]any{
		"database.max_conns":                      d.Database.MaxConns,
		"database.connect_attempts":               d.Database.ConnectAttempts,
		"http.addr":                               d.HTTP.Addr,
		"http.read_timeout":                       d.HTTP.ReadTimeout.String(),
		"http.write_timeout":                      d.HTTP.WriteTimeout.String(),
		"http.shutdown_timeout":                   d.HTTP.ShutdownTimeout.String(),
		"auth.revoke_sessions_on_password_change": d.Auth.RevokeSessionsOnPasswordChange,
		"auth.janitor_interval":                   d.Auth.JanitorInterval.String(),
		"log.format":                              d.Log.Format,
		"log.level":                               d.Log.Level,
		"metrics.addr":                            d.Metrics.Addr,
		"redis.profile_ttl":                       d.Redis.ProfileTTL.String(),
	}
	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return oops.Code("CONFIG_DEFAULTS_FAILED").With("key", key).Wrap(err)
		}
	}
	return nil
}

func loadEnv(k *koanf.Koanf, environ func() []string) error {
	transform := func(s string) string {
		key := strings.TrimPrefix(s, EnvPrefix)
		return strings.ToLower(strings.ReplaceAll(key, "__", "."))
	}

	if environ == nil {
		if err := k.Load(env.Provider(EnvPrefix, ".", transform), nil); err != nil {
			return oops.Code("CONFIG_ENV_FAILED").Wrap(err)
		}
		return nil
	}

	// An explicit environment is applied key by key so tests need not touch
	// the process environment.
	for _, kv := range environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		if err := k.Set(transform(name), value); err != nil {
			return oops.Code("CONFIG_ENV_FAILED").With("variable", name).Wrap(err)
		}
	}
	return nil
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "********"
	}
	return u.Redacted()
}
