// Command authcore-server serves the authcore HTTP API.
//
// Configuration comes from the environment (and .env when present); see
// internal/serverconfig. With AUTHCORE_SEED_USER and AUTHCORE_SEED_PIN set, the in-memory
// user directory starts with that one user.
//
//	AUTHCORE_JWT_SECRET=$(openssl rand -hex 32) \
//	AUTHCORE_SEED_USER=cooluser1 AUTHCORE_SEED_PIN=4821 \
//	AUTHCORE_COOKIE_SECURE=false go run ./cmd/authcore-server
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/authcore/authcore"
	"github.com/authcore/authcore/credential"
	"github.com/authcore/authcore/httpapi"
	"github.com/authcore/authcore/internal/serverconfig"
	"github.com/authcore/authcore/logging"
	promexport "github.com/authcore/authcore/metrics/export/prometheus"
	"github.com/authcore/authcore/session"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := serverconfig.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %s\n", err)
		os.Exit(1)
	}

	if err := run(context.Background(), cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *serverconfig.Config) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := logging.New(logging.Config{
		Level:  logging.Level(cfg.Log.Level),
		Format: logging.Format(cfg.Log.Format),
	})
	slog.SetDefault(logger)

	engineCfg := cfg.Engine()
	if err := engineCfg.Validate(); err != nil {
		return fmt.Errorf("engine config: %w", err)
	}

	directory, err := seedDirectory(engineCfg, cfg)
	if err != nil {
		return err
	}

	builder := authcore.New().
		WithConfig(engineCfg).
		WithDirectory(directory).
		WithLogger(logger).
		WithAuditSink(authcore.NewSlogSink(logger.With(slog.String("component", "audit"))))

	closeBackend, err := attachBackend(ctx, builder, cfg, logger)
	if err != nil {
		return err
	}
	defer closeBackend()

	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("engine build: %w", err)
	}
	defer engine.Close()

	var metrics http.Handler
	if engineCfg.Metrics.Enabled {
		metrics, err = promexport.Handler(engine)
		if err != nil {
			return fmt.Errorf("metrics handler: %w", err)
		}
	}

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: httpapi.NewRouter(engine, httpapi.Options{
			Cookies:    engineCfg.Cookie,
			Logger:     logger,
			Metrics:    metrics,
			TrustProxy: cfg.Server.TrustProxy,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go sweepLoop(ctx, engine, cfg.Session.SweepInterval, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("authcore listening", "addr", cfg.Server.Addr, "backend", cfg.Session.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func seedDirectory(engineCfg authcore.Config, cfg *serverconfig.Config) (*credential.MemoryDirectory, error) {
	directory := credential.NewMemoryDirectory()
	if cfg.Seed.User == "" {
		return directory, nil
	}

	hasher, err := authcore.NewPINHasher(engineCfg)
	if err != nil {
		return nil, fmt.Errorf("pin hasher: %w", err)
	}
	if _, err := directory.Add(cfg.Seed.User, cfg.Seed.PIN, hasher); err != nil {
		return nil, fmt.Errorf("seed user: %w", err)
	}
	return directory, nil
}

// attachBackend configures the session backend on b and returns its cleanup.
func attachBackend(ctx context.Context, b *authcore.Builder, cfg *serverconfig.Config, logger *slog.Logger) (func(), error) {
	switch cfg.Session.Backend {
	case serverconfig.BackendMiniredis:
		mr, err := miniredis.Run()
		if err != nil {
			return nil, fmt.Errorf("start miniredis: %w", err)
		}
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		b.WithRedis(rdb)
		logger.Warn("using in-process miniredis; sessions are lost on restart", "addr", mr.Addr())
		return func() {
			_ = rdb.Close()
			mr.Close()
		}, nil

	case serverconfig.BackendRedis:
		rdb := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{cfg.Session.RedisAddr}})
		pingCtx, cancel := context.WithTimeout(ctx, cfg.Session.StoreTimeout)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		b.WithRedis(rdb)
		return func() { _ = rdb.Close() }, nil

	case serverconfig.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.Session.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("postgres pool: %w", err)
		}
		if err := session.NewPostgresBackend(pool).EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		b.WithPostgres(pool)
		return pool.Close, nil

	default:
		b.WithSessionBackend(session.NewMemoryBackend())
		return func() {}, nil
	}
}

func sweepLoop(ctx context.Context, engine *authcore.Engine, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := engine.SweepExpired(ctx)
			if err != nil {
				logger.Warn("session sweep failed", "error", err, "removed", n)
				continue
			}
			if n > 0 {
				logger.Info("session sweep", "removed", n)
			}
		}
	}
}
