// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tier Contributors

package config

import (
	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"

	"github.com/tier-app/tier/internal/auth"
	"github.com/tier-app/tier/internal/logging"
)

func invalid(key, format string, args ...any) error {
	return oops.Code("CONFIG_INVALID").With("key", key).Errorf(format, args...)
}

// ValidateDatabase checks the settings needed to reach the database.
func (c *Config) ValidateDatabase() error {
	if c.Database.URL == "" {
		return invalid("database.url", "database URL is required (set %s)", EnvDatabaseURL)
	}
	return nil
}

// Validate checks every setting the server needs.
func (c *Config) Validate() error {
	if err := c.ValidateDatabase(); err != nil {
		return err
	}

	switch {
	case c.Server.Addr == "":
		return invalid("server.addr", "listen address is required")
	case c.Server.Mode != "debug" && c.Server.Mode != "release" && c.Server.Mode != "test":
		return invalid("server.mode", "unknown mode %q", c.Server.Mode)
	case c.Server.CookieName == "":
		return invalid("server.cookie_name", "cookie name is required")
	case c.Server.ShutdownTimeout <= 0:
		return invalid("server.shutdown_timeout", "shutdown timeout must be positive")
	}

	if len(c.Session.Secret) < auth.MinSessionSecretLength {
		return invalid("session.secret", "session secret must be at least %d bytes (set %s)",
			auth.MinSessionSecretLength, EnvSessionSecret)
	}

	switch c.Hash.Algorithm {
	case auth.AlgorithmBcrypt:
		if c.Hash.Cost < bcrypt.MinCost || c.Hash.Cost > bcrypt.MaxCost {
			return invalid("hash.cost", "bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
		}
	case auth.AlgorithmArgon2id:
	default:
		return invalid("hash.algorithm", "unknown algorithm %q", c.Hash.Algorithm)
	}
	switch {
	case c.Hash.Workers < 1:
		return invalid("hash.workers", "at least one hash worker is required")
	case c.Hash.QueueSize < 0:
		return invalid("hash.queue_size", "queue size cannot be negative")
	case c.Hash.Timeout < 0:
		return invalid("hash.timeout", "timeout cannot be negative")
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", "unknown level %q", c.Log.Level)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return invalid("log.format", "unknown format %q", c.Log.Format)
	}
	return nil
}
