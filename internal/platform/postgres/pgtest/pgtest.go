// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pgtest starts a disposable PostgreSQL for repository integration tests.
package pgtest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/taibuivan/storehub/internal/platform/migration"
	"github.com/taibuivan/storehub/internal/platform/postgres"
)

// MigrationsPath is the repository's migration directory.
func MigrationsPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "..", "data", "migrations")
}

/*
Start runs a migrated PostgreSQL container and returns a pool connected to it.
The test is skipped when SKIP_INTEGRATION=true or no container runtime is reachable.
*/
func Start(t testing.TB) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("SKIP_INTEGRATION=true, skipping PostgreSQL integration tests")
	}
	if testing.Short() {
		t.Skip("short mode, skipping PostgreSQL integration tests")
	}

	ctx := context.Background()
	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("storehub_test"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping: could not start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("pgtest_connection_string_failed: %v", err)
	}

	logger := slog.New(slog.DiscardHandler)
	if err := migration.RunUp(dsn, MigrationsPath(), logger); err != nil {
		t.Fatalf("pgtest_migrate_failed: %v", err)
	}

	pool, err := postgres.NewPool(ctx, dsn, logger)
	if err != nil {
		t.Fatalf("pgtest_pool_failed: %v", err)
	}
	t.Cleanup(pool.Close)

	return pool
}
