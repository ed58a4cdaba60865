// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tier Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tier-app/tier/internal/auth"
	authpg "github.com/tier-app/tier/internal/auth/postgres"
	"github.com/tier-app/tier/internal/config"
	"github.com/tier-app/tier/internal/logging"
	"github.com/tier-app/tier/internal/observability"
	"github.com/tier-app/tier/internal/store"
	"github.com/tier-app/tier/internal/team"
	teampg "github.com/tier-app/tier/internal/team/postgres"
	"github.com/tier-app/tier/internal/web"
)

const (
	dotEnvFile       = ".env"
	readinessTimeout = 2 * time.Second
)

func newServeCmd(deps *commandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Long: `Start the web server. Pending schema migrations are applied first
unless --database.auto_migrate=false. Metrics and health checks are served on
a separate listener (--metrics.addr).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, deps.withDefaults())
		},
	}

	config.RegisterFlags(cmd.Flags())

	return cmd
}

// loadConfig reads .env, the config file, the environment, and cmd's flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(dotEnvFile); err != nil {
		return nil, err
	}
	return config.Load(configFile, cmd.Flags())
}

func runServe(ctx context.Context, cmd *cobra.Command, deps *commandDeps) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.Setup(logging.Options{
		Service: "tier",
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
		Writer:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	gin.SetMode(cfg.Server.Mode)

	logger.Info("starting tier",
		"addr", cfg.Server.Addr,
		"hash_algorithm", cfg.Hash.Algorithm,
		"hash_workers", cfg.Hash.Workers,
	)

	pool, err := deps.Connect(ctx, cfg.Database.URL, cfg.Database.ConnectRetries)
	if err != nil {
		return oops.With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()
	logger.Info("connected to database")

	if cfg.Database.AutoMigrate {
		if err := applyMigrations(deps, cfg.Database.URL, logger); err != nil {
			return err
		}
	}

	registry := observability.NewRegistry()
	metrics := observability.NewMetrics(registry)

	workers, err := auth.NewWorkerPool(cfg.Hash.Workers, cfg.Hash.QueueSize,
		auth.WithPoolLogger(logger),
		auth.WithPoolRecorder(metrics),
	)
	if err != nil {
		return err
	}
	defer workers.Close()

	hasher, err := auth.NewPasswordHasher(cfg.Hash.Algorithm, cfg.Hash.Cost)
	if err != nil {
		return err
	}
	hashes, err := auth.NewPooledHashService(workers, hasher,
		auth.WithHashTimeout(cfg.Hash.Timeout),
		auth.WithHashRecorder(metrics),
	)
	if err != nil {
		return err
	}
	sessions, err := auth.NewJWTSessionCodec([]byte(cfg.Session.Secret))
	if err != nil {
		return err
	}
	authService, err := auth.NewService(authpg.NewUserRepository(pool), hashes, sessions,
		auth.WithLogger(logger),
		auth.WithRecorder(metrics),
	)
	if err != nil {
		return err
	}
	teamService, err := team.NewService(teampg.NewTeamRepository(pool), logger)
	if err != nil {
		return err
	}

	router, err := web.NewRouter(authService, teamService, web.Options{
		CookieName:   cfg.Server.CookieName,
		CookieSecure: cfg.Server.CookieSecure,
		Logger:       logger,
		Observer:     metrics,
	})
	if err != nil {
		return err
	}

	var obsServer *observability.Server
	var obsErrCh <-chan error
	if cfg.Metrics.Addr != "" {
		obsServer = observability.NewServer(cfg.Metrics.Addr, registry, store.Readiness(pool, readinessTimeout), logger)
		obsErrCh, err = obsServer.Start()
		if err != nil {
			return err
		}
	}

	ln, err := deps.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		if obsServer != nil {
			stopObservability(obsServer, cfg.Server.ShutdownTimeout, logger)
		}
		return oops.Code("WEB_LISTEN_FAILED").With("addr", cfg.Server.Addr).Wrap(err)
	}

	g, gctx := errgroup.WithContext(ctx)
	server := web.NewServer(router, cfg.Server.ShutdownTimeout, logger)
	g.Go(func() error {
		return server.Serve(gctx, ln)
	})
	if obsServer != nil {
		g.Go(func() error {
			select {
			case err, ok := <-obsErrCh:
				if ok && err != nil {
					return oops.Code("OBSERVABILITY_SERVE_FAILED").Wrap(err)
				}
				return nil
			case <-gctx.Done():
			}
			stopObservability(obsServer, cfg.Server.ShutdownTimeout, logger)
			return nil
		})
	}

	cmd.Println("Tier listening on " + ln.Addr().String())
	err = g.Wait()
	logger.Info("shutdown complete")
	return err
}

func stopObservability(s *observability.Server, timeout time.Duration, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		logging.LogError(ctx, logger, "error stopping observability server", err)
	}
}

func applyMigrations(deps *commandDeps, databaseURL string, logger *slog.Logger) error {
	m, err := deps.NewMigrator(databaseURL)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			logger.Warn("error closing migrator", "error", closeErr)
		}
	}()

	pending, err := m.PendingMigrations()
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "list pending migrations").Wrap(err)
	}
	if len(pending) == 0 {
		logger.Debug("schema is up to date")
		return nil
	}
	if err := m.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "apply migrations").Wrap(err)
	}
	logger.Info("applied migrations", "count", len(pending))
	return nil
}
