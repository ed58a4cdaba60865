// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tier Contributors

package config

import "github.com/spf13/pflag"

// RegisterFlags adds a flag for every setting except secrets. Flag names are
// the config keys, e.g. --server.addr.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()

	fs.String("server.addr", d.Server.Addr, "web listen address")
	fs.String("server.mode", d.Server.Mode, "gin mode: debug, release or test")
	fs.String("server.cookie_name", d.Server.CookieName, "session cookie name")
	fs.Bool("server.cookie_secure", d.Server.CookieSecure, "mark the session cookie Secure")
	fs.Duration("server.shutdown_timeout", d.Server.ShutdownTimeout, "graceful shutdown timeout")

	RegisterDatabaseFlags(fs)
	fs.Bool("database.auto_migrate", d.Database.AutoMigrate, "apply pending migrations on start")

	fs.String("hash.algorithm", d.Hash.Algorithm, "password hash for new accounts: bcrypt or argon2id")
	fs.Int("hash.cost", d.Hash.Cost, "bcrypt cost")
	fs.Int("hash.workers", d.Hash.Workers, "concurrent hash workers")
	fs.Int("hash.queue_size", d.Hash.QueueSize, "hash jobs that may wait for a worker")
	fs.Duration("hash.timeout", d.Hash.Timeout, "limit on one hash or verify, queue wait included (0 disables)")

	fs.String("log.format", d.Log.Format, "log format: json or text")
	fs.String("log.level", d.Log.Level, "log level: debug, info, warn or error")

	fs.String("metrics.addr", d.Metrics.Addr, "metrics and health listen address (empty disables)")
}

// RegisterDatabaseFlags adds only the connection flags, for commands that
// need nothing else.
func RegisterDatabaseFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("database.url", d.Database.URL, "PostgreSQL URL (prefer the "+EnvDatabaseURL+" environment variable)")
	fs.Uint64("database.connect_retries", d.Database.ConnectRetries, "database ping retries at startup")
}
