package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/patthub/impact-measurement-tool/internal/storage"
)

var _ migrate.Logger = (*migrateLogger)(nil)

// Status describes where the database schema stands relative to the catalog.
type Status struct {
	Version int  // 0 when nothing has been applied
	Dirty   bool // a migration failed halfway and needs manual repair
	Latest  int
}

// Pending is the number of catalog migrations not yet applied.
func (s Status) Pending() int {
	return max(s.Latest-s.Version, 0)
}

// Ahead reports a database migrated past what this binary knows about.
func (s Status) Ahead() bool {
	return s.Version > s.Latest
}

// Runner applies the catalog to a PostgreSQL database using golang-migrate.
type Runner struct {
	migrate *migrate.Migrate
	conn    *storage.Connection
	catalog *Catalog
	logger  *slog.Logger
}

// NewRunner connects to the database and prepares catalog for it.
func NewRunner(cfg *Config, catalog *Catalog, logger *slog.Logger) (*Runner, error) {
	logger.Info("Initializing migration runner", slog.String("config", cfg.String()))

	conn, err := storage.NewConnection(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	driver, err := postgres.WithInstance(conn.DB, &postgres.Config{MigrationsTable: cfg.MigrationTable})
	if err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("create postgres driver: %w", err)
	}

	source, err := iofs.New(catalog.Source(), ".")
	if err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("create migrate instance: %w", err)
	}

	m.Log = &migrateLogger{logger: logger}

	return &Runner{migrate: m, conn: conn, catalog: catalog, logger: logger}, nil
}

// Up applies every pending migration.
func (r *Runner) Up() error {
	err := r.migrate.Up()

	switch {
	case errors.Is(err, migrate.ErrNoChange):
		r.logger.Info("No new migrations to apply")
	case err != nil:
		return fmt.Errorf("migration up failed: %w", err)
	default:
		r.logger.Info("Migrations applied", slog.Int("version", r.catalog.Latest()))
	}

	return nil
}

// Down rolls back the most recent migration.
func (r *Runner) Down() error {
	err := r.migrate.Steps(-1)

	var nilVersion bool
	if err != nil {
		nilVersion = errors.Is(err, migrate.ErrNoChange) || errors.Is(err, migrate.ErrNilVersion)
	}

	switch {
	case nilVersion:
		r.logger.Info("No migrations to roll back")
	case err != nil:
		return fmt.Errorf("migration down failed: %w", err)
	default:
		r.logger.Info("Rolled back last migration")
	}

	return nil
}

// Status reads the applied version from the migrations table.
func (r *Runner) Status() (Status, error) {
	status := Status{Latest: r.catalog.Latest()}

	version, dirty, err := r.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return status, nil
	}

	if err != nil {
		return status, fmt.Errorf("read migration version: %w", err)
	}

	status.Version = int(version) // #nosec G115 - versions are three-digit sequence numbers
	status.Dirty = dirty

	return status, nil
}

// Drop removes every table in the database, including the migrations table.
func (r *Runner) Drop() error {
	r.logger.Warn("Dropping all tables")

	if err := r.migrate.Drop(); err != nil {
		return fmt.Errorf("drop failed: %w", err)
	}

	return nil
}

// Close releases the migrate instance and the database connection.
func (r *Runner) Close() error {
	var errs []error

	if r.migrate != nil {
		sourceErr, dbErr := r.migrate.Close()
		errs = append(errs, sourceErr, dbErr)
	}

	if r.conn != nil {
		errs = append(errs, r.conn.Close())
	}

	return errors.Join(errs...)
}

type migrateLogger struct {
	logger *slog.Logger
}

func (l *migrateLogger) Printf(format string, v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "migrate"))
}

func (l *migrateLogger) Verbose() bool {
	return l.logger.Enabled(context.Background(), slog.LevelDebug)
}
