// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the storehub admin API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool) and Redis.
//  4. Run database migrations (idempotent).
//  5. Build the authorization pipeline: rate limiter, tenant stage,
//     authenticator, guards and audit recorder.
//  6. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/taibuivan/storehub/internal/account"
	"github.com/taibuivan/storehub/internal/api"
	"github.com/taibuivan/storehub/internal/audit"
	"github.com/taibuivan/storehub/internal/gate"
	"github.com/taibuivan/storehub/internal/platform/config"
	"github.com/taibuivan/storehub/internal/platform/constants"
	"github.com/taibuivan/storehub/internal/platform/metrics"
	"github.com/taibuivan/storehub/internal/platform/migration"
	pgstore "github.com/taibuivan/storehub/internal/platform/postgres"
	redisstore "github.com/taibuivan/storehub/internal/platform/redis"
	"github.com/taibuivan/storehub/internal/platform/respond"
	"github.com/taibuivan/storehub/internal/platform/sec"
	"github.com/taibuivan/storehub/internal/ratelimit"
	"github.com/taibuivan/storehub/internal/secevent"
	"github.com/taibuivan/storehub/internal/tenant"
)

// janitorInterval is how often in-process limiters drop idle client state.
const janitorInterval = time.Minute

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}
	respond.SetDevelopment(cfg.IsDevelopment())

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("rate_limit_strategy", cfg.RateLimitStrategy),
	)

	// Root context for background workers, cancelled on shutdown.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Startup deadline so misconfiguration fails fast.
	startupCtx, startupCancel := context.WithTimeout(rootCtx, 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL & Redis ─────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing_postgres_pool")
		pool.Close()
	}()

	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing_redis_client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis_close_failed", slog.Any("error", cerr))
		}
	}()

	// ── 4. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 5. Observability & Security Events ────────────────────────────────
	var registry *metrics.Registry
	if cfg.MetricsEnabled {
		registry = metrics.New()
	}

	events := secevent.NewLog(log, registry, cfg.SecurityEventBuffer)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := events.Close(closeCtx); err != nil {
			log.Error("security_event_flush_failed", slog.Any("error", err))
		}
	}()

	// ── 6. Pipeline ───────────────────────────────────────────────────────
	tokens, err := sec.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer)
	must(log, err, "initialize token service")

	tenants, tenantCache := tenantRepository(cfg, pool, rdb, log, registry)
	resolver := tenant.NewResolver(tenants)

	domains, err := tenant.LoadDomainMap(cfg.DomainMapPath)
	must(log, err, "load domain map")
	extractor := tenant.NewExtractor(domains, cfg.SectorKeywords)

	accounts := accountRepository(cfg, pool, rdb, log)

	auditStore := audit.NewPostgresStore(pool)
	recorder := audit.NewRecorder(auditStore, log, registry, cfg.AuditTimeout, cfg.AuditAsync)

	pipeline := api.Pipeline{
		RateLimit: gate.RateLimit(newLimiter(rootCtx, cfg, rdb, log), events, registry),
		Tenant:    gate.NewTenantStage(extractor, resolver, tokens, events).Stage(),
		Auth:      gate.NewAuthenticator(tokens, accounts, events, cfg.SessionIdleTimeout),
		Guards:    gate.NewGuards(events),
		Audit:     recorder,
	}

	// ── 7. Handlers ───────────────────────────────────────────────────────
	liveness, readiness := api.NewHealthHandlers(log,
		api.HealthCheck{Name: "postgres", Check: func(ctx context.Context) error { return pgstore.Ping(ctx, pool) }},
		api.HealthCheck{Name: "redis", Check: func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }},
	)

	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Account:   account.NewHandler(account.NewService(accounts, tokens, cfg.AccessTokenTTL), gate.HandlerIdentity{}),
		Audit:     audit.NewHandler(auditStore),
		Tenants:   api.NewTenantHandler(resolver, tenantCache),
	}
	if registry != nil {
		handlers.Metrics = registry.Handler()
	}

	server := api.NewServer(cfg, log, registry, pipeline, handlers)

	// ── 8. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_failed", slog.Any("error", err))
	}

	log.Info("shutting_down_server", slog.Duration("timeout", constants.ShutdownTimeout))
	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		log.Error("shutdown_failed", slog.Any("error", err))
	}

	// Drain audit writes, then refuse new ones before the pool closes
	recorder.Wait()
	auditStore.SetReady(false)
	rootCancel()

	log.Info("server_stopped")
}

func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}

// tenantRepository layers the Redis snapshot cache over PostgreSQL unless the TTL is zero.
// The returned invalidator is nil when caching is off.
func tenantRepository(cfg *config.Config, pool *pgxpool.Pool, rdb *goredis.Client, log *slog.Logger, registry *metrics.Registry) (tenant.Repository, api.TenantInvalidator) {
	postgres := tenant.NewPostgresRepository(pool)
	if cfg.TenantCacheTTL <= 0 {
		log.Info("tenant_cache_disabled")
		return postgres, nil
	}

	cache := tenant.NewRedisCache(rdb, postgres, cfg.TenantCacheTTL, log, registry)
	return cache, cache
}

// accountRepository layers the Redis session cache over PostgreSQL unless the TTL is zero.
func accountRepository(cfg *config.Config, pool *pgxpool.Pool, rdb *goredis.Client, log *slog.Logger) account.Repository {
	postgres := account.NewPostgresRepository(pool)
	if cfg.SessionCacheTTL <= 0 {
		log.Info("session_cache_disabled")
		return postgres
	}
	return account.NewRedisSessionCache(rdb, postgres, cfg.SessionCacheTTL, log)
}

// newLimiter builds the configured rate limiter. In-process limiters get a janitor.
func newLimiter(ctx context.Context, cfg *config.Config, rdb *goredis.Client, log *slog.Logger) ratelimit.Limiter {
	switch cfg.RateLimitStrategy {
	case config.RateLimitRedis:
		return ratelimit.NewRedisFixedWindow(rdb, cfg.RateLimitMaxRequests, cfg.RateLimitWindow)
	case config.RateLimitToken:
		limiter := ratelimit.NewTokenBucket(cfg.RateLimitMaxRequests, cfg.RateLimitWindow)
		ratelimit.StartJanitor(ctx, limiter, janitorInterval, log)
		return limiter
	default:
		limiter := ratelimit.NewFixedWindow(cfg.RateLimitMaxRequests, cfg.RateLimitWindow)
		ratelimit.StartJanitor(ctx, limiter, janitorInterval, log)
		return limiter
	}
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned and
// handled explicitly.
func must(log *slog.Logger, err error, step string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("step", step),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
