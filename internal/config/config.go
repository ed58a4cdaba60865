// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tier Contributors

// Package config loads tier's settings. Sources, lowest precedence first:
// built-in defaults, the YAML config file, secrets from the environment, and
// command-line flags the user actually set.
package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/tier-app/tier/internal/xdg"
)

// Environment variables that carry secrets. They override the config file.
const (
	EnvDatabaseURL   = "DATABASE_URL"
	EnvSessionSecret = "TIER_SESSION_SECRET"
)

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Session  SessionConfig  `koanf:"session"`
	Hash     HashConfig     `koanf:"hash"`
	Log      LogConfig      `koanf:"log"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

// ServerConfig configures the web listener and session cookie.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	Mode            string        `koanf:"mode"`
	CookieName      string        `koanf:"cookie_name"`
	CookieSecure    bool          `koanf:"cookie_secure"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig configures the PostgreSQL pool.
type DatabaseConfig struct {
	URL            string `koanf:"url"`
	ConnectRetries uint64 `koanf:"connect_retries"`
	AutoMigrate    bool   `koanf:"auto_migrate"`
}

// SessionConfig holds the token signing secret.
type SessionConfig struct {
	Secret string `koanf:"secret"`
}

// HashConfig configures password hashing and its worker pool.
type HashConfig struct {
	Algorithm string        `koanf:"algorithm"`
	Cost      int           `koanf:"cost"`
	Workers   int           `koanf:"workers"`
	QueueSize int           `koanf:"queue_size"`
	Timeout   time.Duration `koanf:"timeout"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// MetricsConfig configures the observability listener. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8888",
			Mode:            "release",
			CookieName:      "tier_user",
			ShutdownTimeout: 5 * time.Second,
		},
		Database: DatabaseConfig{
			ConnectRetries: 5,
			AutoMigrate:    true,
		},
		Hash: HashConfig{
			Algorithm: "bcrypt",
			Cost:      10,
			Workers:   2,
			QueueSize: 64,
			Timeout:   10 * time.Second,
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
		},
		Metrics: MetricsConfig{
			Addr: "127.0.0.1:9100",
		},
	}
}

func (c Config) flatten() map[string]any {
	return map[string]any{
		"server.addr":              c.Server.Addr,
		"server.mode":              c.Server.Mode,
		"server.cookie_name":       c.Server.CookieName,
		"server.cookie_secure":     c.Server.CookieSecure,
		"server.shutdown_timeout":  c.Server.ShutdownTimeout,
		"database.url":             c.Database.URL,
		"database.connect_retries": c.Database.ConnectRetries,
		"database.auto_migrate":    c.Database.AutoMigrate,
		"session.secret":           c.Session.Secret,
		"hash.algorithm":           c.Hash.Algorithm,
		"hash.cost":                c.Hash.Cost,
		"hash.workers":             c.Hash.Workers,
		"hash.queue_size":          c.Hash.QueueSize,
		"hash.timeout":             c.Hash.Timeout,
		"log.format":               c.Log.Format,
		"log.level":                c.Log.Level,
		"metrics.addr":             c.Metrics.Addr,
	}
}

// LoadDotEnv reads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return oops.Code("CONFIG_DOTENV_INVALID").With("path", path).Wrap(err)
	}
	return nil
}

// Load builds a Config. path names the YAML file; when empty the XDG default
// is used if it exists. flags may be nil; otherwise only flags the user set
// override earlier sources.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	for key, val := range Default().flatten() {
		if err := k.Set(key, val); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("key", key).Wrap(err)
		}
	}

	if path == "" {
		var err error
		if path, err = xdg.DefaultConfigFile(); err != nil {
			return nil, err
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
		}
	}

	for env, key := range map[string]string{
		EnvDatabaseURL:   "database.url",
		EnvSessionSecret: "session.secret",
	} {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			if err := k.Set(key, v); err != nil {
				return nil, oops.Code("CONFIG_INVALID").With("key", key).Wrap(err)
			}
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("path", path).Wrap(err)
	}
	return &cfg, nil
}
