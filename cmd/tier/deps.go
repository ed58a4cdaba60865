// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tier Contributors

package main

import (
	"context"
	"net"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tier-app/tier/internal/store"
)

// Migrator wraps the methods the commands use from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Version() (version uint, dirty bool, err error)
	PendingMigrations() ([]uint, error)
	Force(version int) error
	Close() error
}

// commandDeps contains injectable dependencies for serve and migrate.
// Nil fields use their default implementations.
type commandDeps struct {
	// Connect opens the database pool.
	// Default: store.Connect
	Connect func(ctx context.Context, dsn string, retries uint64) (*pgxpool.Pool, error)

	// NewMigrator creates a schema migrator.
	// Default: store.NewMigrator
	NewMigrator func(databaseURL string) (Migrator, error)

	// Listen opens the web listener.
	// Default: net.Listen
	Listen func(network, address string) (net.Listener, error)
}

func (d *commandDeps) withDefaults() *commandDeps {
	out := commandDeps{}
	if d != nil {
		out = *d
	}
	if out.Connect == nil {
		out.Connect = store.Connect
	}
	if out.NewMigrator == nil {
		out.NewMigrator = func(databaseURL string) (Migrator, error) {
			m, err := store.NewMigrator(databaseURL)
			if err != nil {
				return nil, err
			}
			return m, nil
		}
	}
	if out.Listen == nil {
		out.Listen = net.Listen
	}
	return &out
}
