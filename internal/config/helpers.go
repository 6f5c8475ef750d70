package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file" // file:// migration source
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testImage       = "postgres:16-alpine"
	readyLogLines   = 2
	startupDeadline = 2 * time.Minute
)

var errModuleRootNotFound = errors.New("go.mod not found above working directory")

// TestDatabase is a migrated PostgreSQL instance owned by one test.
type TestDatabase struct {
	Container  *postgres.PostgresContainer
	Connection *sql.DB
	URL        string
}

// SetupTestDatabase starts a throwaway PostgreSQL container with the imeto schema applied.
// The connection and container are released through t.Cleanup.
//
// Integration tests only; callers skip it in -short mode.
func SetupTestDatabase(ctx context.Context, t *testing.T) *TestDatabase {
	t.Helper()

	container, err := postgres.Run(ctx, testImage,
		postgres.WithDatabase("imeto_test"),
		postgres.WithUsername("imeto"),
		postgres.WithPassword("imeto"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(readyLogLines).
				WithStartupTimeout(startupDeadline),
		),
	)
	require.NoError(t, err, "start postgres container")

	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(container)
	})

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "container connection string")

	db, err := sql.Open("postgres", url)
	require.NoError(t, err, "open database")

	t.Cleanup(func() {
		_ = db.Close()
	})

	require.NoError(t, ApplyMigrations(db), "apply migrations")

	return &TestDatabase{Container: container, Connection: db, URL: url}
}

// ApplyMigrations runs every pending migration from the repository's migrations/
// directory, found by walking up from the working directory to go.mod.
func ApplyMigrations(db *sql.DB) error {
	dir, err := migrationsDir()
	if err != nil {
		return err
	}

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+filepath.ToSlash(dir), "postgres", driver)
	if err != nil {
		return fmt.Errorf("migration source %s: %w", dir, err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}

func migrationsDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, "migrations"), nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errModuleRootNotFound
		}

		dir = parent
	}
}
