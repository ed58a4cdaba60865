// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tier Contributors

// Package storetest starts throwaway PostgreSQL containers for integration tests.
package storetest

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tier-app/tier/internal/store"
)

// Postgres is a running container with the schema applied.
type Postgres struct {
	ConnStr string
	Pool    *pgxpool.Pool

	container *postgres.PostgresContainer
}

// StartPostgres runs postgres:16-alpine, applies every migration, and opens a pool.
func StartPostgres(ctx context.Context) (*Postgres, error) {
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("tier_test"),
		postgres.WithUsername("tier"),
		postgres.WithPassword("tier"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, oops.Code("TEST_CONTAINER_FAILED").Wrap(err)
	}

	pg := &Postgres{container: container}
	pg.ConnStr, err = container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		pg.Terminate(ctx)
		return nil, oops.Code("TEST_CONTAINER_FAILED").With("operation", "connection string").Wrap(err)
	}

	migrator, err := store.NewMigrator(pg.ConnStr)
	if err != nil {
		pg.Terminate(ctx)
		return nil, err
	}
	err = migrator.Up()
	_ = migrator.Close() //nolint:errcheck // migration result takes precedence
	if err != nil {
		pg.Terminate(ctx)
		return nil, err
	}

	pg.Pool, err = store.Connect(ctx, pg.ConnStr, store.DefaultConnectRetries)
	if err != nil {
		pg.Terminate(ctx)
		return nil, err
	}
	return pg, nil
}

// Truncate empties the application tables.
func (p *Postgres) Truncate(ctx context.Context) error {
	if _, err := p.Pool.Exec(ctx, `TRUNCATE teams, users`); err != nil {
		return oops.Code("TEST_TRUNCATE_FAILED").Wrap(err)
	}
	return nil
}

// Terminate closes the pool and removes the container.
func (p *Postgres) Terminate(ctx context.Context) {
	if p.Pool != nil {
		p.Pool.Close()
	}
	_ = p.container.Terminate(ctx) //nolint:errcheck // best effort cleanup
}
