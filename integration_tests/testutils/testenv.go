package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Black-And-White-Club/party-bot/integration_tests/containers"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// TestEnvironment holds all resources needed for integration testing
type TestEnvironment struct {
	Ctx           context.Context
	CancelContext context.CancelFunc
	PgContainer   *postgres.PostgresContainer
	DB            *bun.DB
	DSN           string
	Logger        *slog.Logger
}

// RequireDocker skips t under -short or when no container runtime is reachable.
func RequireDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
}

// NewTestEnvironment starts Postgres and applies the game and River schemas.
func NewTestEnvironment(ctx context.Context) (*TestEnvironment, error) {
	ctx, cancel := context.WithCancel(ctx)

	env := &TestEnvironment{
		Ctx:           ctx,
		CancelContext: cancel,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	pgContainer, dsn, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to setup postgres container: %w", err)
	}
	env.PgContainer = pgContainer
	env.DSN = dsn

	pgdb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	env.DB = bun.NewDB(pgdb, pgdialect.New())

	migrateCtx, migrateCancel := context.WithTimeout(ctx, time.Minute)
	defer migrateCancel()
	if err := RunMigrations(migrateCtx, env.DB, dsn, env.Logger); err != nil {
		env.Cleanup()
		return nil, err
	}

	return env, nil
}

// Reset truncates the game tables and River jobs between tests.
func (env *TestEnvironment) Reset(ctx context.Context) error {
	if err := CleanupRiverJobs(ctx, env.DB); err != nil {
		return fmt.Errorf("failed to clean river jobs: %w", err)
	}
	return TruncateGameTables(ctx, env.DB)
}

// Cleanup closes the database and terminates the container.
func (env *TestEnvironment) Cleanup() {
	if env.DB != nil {
		_ = env.DB.Close()
	}
	if env.PgContainer != nil {
		terminateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = env.PgContainer.Terminate(terminateCtx)
	}
	env.CancelContext()
}
