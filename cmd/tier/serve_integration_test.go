//go:build integration

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tier Contributors

package main

import (
	"context"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tier-app/tier/internal/config"
)

// startPostgresContainer starts an empty PostgreSQL container.
func startPostgresContainer(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("tier"),
		postgres.WithUsername("tier"),
		postgres.WithPassword("tier"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return connStr
}

func TestServe_AutoMigratesAndRegisters(t *testing.T) {
	connStr := startPostgresContainer(t)
	isolate(t)
	t.Setenv(config.EnvDatabaseURL, connStr)
	t.Setenv(config.EnvSessionSecret, testSecret)

	webAddr := make(chan string, 1)
	deps := &commandDeps{
		Listen: func(network, address string) (net.Listener, error) {
			ln, err := net.Listen(network, address)
			if err == nil {
				webAddr <- ln.Addr().String()
			}
			return ln, err
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- runServeCmd(ctx, t, deps,
			"--server.addr", "127.0.0.1:0",
			"--metrics.addr=",
			"--hash.cost", "4",
		)
	}()

	var addr string
	select {
	case addr = <-webAddr:
	case err := <-done:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(30 * time.Second):
		t.Fatal("serve never listened")
	}
	base := "http://" + addr

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar, Timeout: 10 * time.Second}

	resp, err := client.PostForm(base+"/auth/register", url.Values{
		"email":    {"ann@example.com"},
		"name":     {"Ann"},
		"password": {"s3cret"},
	})
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, "redirect followed to the index")

	resp, err = client.PostForm(base+"/team/create", url.Values{"name": {"Gophers"}})
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/team/home", resp.Request.URL.Path)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not shut down")
	}

	out, err := runMigrate(t, nil, "version")
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "Schema version: 2 (000002_create_teams, 0 pending)"), out)
}
