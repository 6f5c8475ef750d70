// Package storage provides PostgreSQL and in-memory persistence for impact cases,
// institution evaluations and ingestion runs.
package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

const healthCheckTimeout = 5 * time.Second

var (
	// ErrNoDatabaseConnection is returned when a store is constructed without a connection.
	ErrNoDatabaseConnection = errors.New("no database connection")

	// ErrDatabaseUnavailable wraps connection-class failures (PostgreSQL class 08).
	ErrDatabaseUnavailable = errors.New("database unavailable")
)

// Connection is the explicit, caller-owned database handle shared by all stores.
// Stores never close it; the owner calls Close once during shutdown.
type Connection struct {
	*sql.DB
}

// NewConnection opens a pooled PostgreSQL connection and verifies it with a ping.
func NewConnection(cfg *Config) (*Connection, error) {
	if cfg == nil {
		return nil, ErrDatabaseURLEmpty
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", cfg.databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	conn := &Connection{DB: db}

	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()

	if err := conn.HealthCheck(ctx); err != nil {
		_ = db.Close()

		return nil, err
	}

	return conn, nil
}

// HealthCheck pings the database with a bounded timeout.
func (c *Connection) HealthCheck(ctx context.Context) error {
	if c == nil || c.DB == nil {
		return ErrNoDatabaseConnection
	}

	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := c.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrDatabaseUnavailable, err)
	}

	return nil
}

// Close releases the pool. Safe on a nil connection.
func (c *Connection) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}

	return c.DB.Close()
}

// isDatabaseConnectionError checks if an error indicates database connection failure.
// PostgreSQL error class 08 and the database/sql bad-connection errors qualify.
func isDatabaseConnectionError(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return strings.HasPrefix(string(pqErr.Code), "08")
	}

	return errors.Is(err, sql.ErrConnDone) || errors.Is(err, driver.ErrBadConn)
}

// classify wraps err with ErrDatabaseUnavailable when it is a connection failure.
func classify(op string, err error) error {
	if isDatabaseConnectionError(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrDatabaseUnavailable, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}
