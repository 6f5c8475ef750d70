package storage

import (
	"errors"
	"strings"
	"time"

	"github.com/patthub/impact-measurement-tool/internal/config"
)

const (
	defaultMaxOpenConns    = 10
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnMaxIdleTime = 10 * time.Minute
	defaultQueryTimeout    = 15 * time.Second
)

// ErrDatabaseURLEmpty is returned when the database url is an empty string.
var ErrDatabaseURLEmpty = errors.New("database URL cannot be empty")

// Config holds PostgreSQL connection configuration.
type Config struct {
	databaseURL     string
	MaxOpenConns    int           // Maximum number of open connections
	MaxIdleConns    int           // Maximum number of idle connections
	ConnMaxLifetime time.Duration // Maximum lifetime of connections
	ConnMaxIdleTime time.Duration // Maximum idle time for connections
	QueryTimeout    time.Duration // Upper bound for a single store operation
}

// LoadConfig loads PostgreSQL configuration from environment variables with fallback to defaults.
func LoadConfig() *Config {
	return &Config{
		databaseURL:     config.GetEnvStr("DATABASE_URL", ""), // kept private so it never lands in logs
		MaxOpenConns:    config.GetEnvInt("DATABASE_MAX_OPEN_CONNS", defaultMaxOpenConns),
		MaxIdleConns:    config.GetEnvInt("DATABASE_MAX_IDLE_CONNS", defaultMaxIdleConns),
		ConnMaxLifetime: config.GetEnvDuration("DATABASE_CONN_MAX_LIFETIME", defaultConnMaxLifetime),
		ConnMaxIdleTime: config.GetEnvDuration("DATABASE_CONN_MAX_IDLE_TIME", defaultConnMaxIdleTime),
		QueryTimeout:    config.GetEnvDuration("DATABASE_QUERY_TIMEOUT", defaultQueryTimeout),
	}
}

// WithDatabaseURL returns a copy of c using databaseURL, for command-line overrides.
func (c *Config) WithDatabaseURL(databaseURL string) *Config {
	clone := *c
	clone.databaseURL = databaseURL

	return &clone
}

// Validate checks if the PostgreSQL configuration is valid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.databaseURL) == "" {
		return ErrDatabaseURLEmpty
	}

	return nil
}

// MaskDatabaseURL returns the database URL with any password replaced, safe for logging.
// Userinfo ends at the last '@' after the scheme and the password starts after its
// first ':', so passwords containing '/', '@' or invalid escapes are masked too.
func (c *Config) MaskDatabaseURL() string {
	if c.databaseURL == "" {
		return ""
	}

	_, rest, ok := strings.Cut(c.databaseURL, "://")
	if !ok {
		return c.databaseURL
	}

	at := strings.LastIndex(rest, "@")
	if at == -1 {
		return c.databaseURL
	}

	user, password, hasPassword := strings.Cut(rest[:at], ":")
	if !hasPassword || password == "" {
		return c.databaseURL
	}

	prefix := c.databaseURL[:len(c.databaseURL)-len(rest)]

	return prefix + user + ":***" + rest[at:]
}
