// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tier Contributors

//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tier-app/tier/internal/auth"
	"github.com/tier-app/tier/internal/auth/postgres"
)

func newUser(t *testing.T, email string) *auth.User {
	t.Helper()
	u, err := auth.NewUser(email, "Ann", "$2a$10$0123456789012345678901uJ3xkL9tWqVfZ0yqJ3G5cR7mV1wqY2e")
	require.NoError(t, err)
	return u
}

func TestUserRepository_Integration(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.Truncate(ctx))
	repo := postgres.NewUserRepository(testDB.Pool)

	u := newUser(t, "Ann@Example.com")
	require.NoError(t, repo.Create(ctx, u))

	t.Run("get by email ignores case", func(t *testing.T) {
		got, err := repo.GetByEmail(ctx, "ann@example.COM")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.Equal(t, "Ann@Example.com", got.Email)
		assert.Equal(t, u.PasswordHash, got.PasswordHash)
		assert.WithinDuration(t, u.CreatedAt, got.CreatedAt, time.Millisecond)
	})

	t.Run("get by id", func(t *testing.T) {
		got, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.Email, got.Email)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.GetByID(ctx, ulid.Make())
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := repo.GetByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("duplicate email in another case", func(t *testing.T) {
		err := repo.Create(ctx, newUser(t, "ANN@example.com"))
		assert.ErrorIs(t, err, auth.ErrDuplicateEmail)
	})
}

func TestUserRepository_ConcurrentSameEmail(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.Truncate(ctx))
	repo := postgres.NewUserRepository(testDB.Pool)

	const attempts = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ok   int
		dups int
	)
	users := make([]*auth.User, attempts)
	for i := range users {
		users[i] = newUser(t, "race@example.com")
	}
	for _, u := range users {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Create(ctx, u)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, auth.ErrDuplicateEmail):
				dups++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, attempts-1, dups)
}
