package main

import (
	"errors"
	"fmt"

	"github.com/patthub/impact-measurement-tool/internal/config"
	"github.com/patthub/impact-measurement-tool/internal/storage"
)

const defaultMigrationTable = "schema_migrations"

// ErrMigrationTableEmpty is returned when MIGRATION_TABLE resolves to an empty name.
var ErrMigrationTableEmpty = errors.New("MIGRATION_TABLE cannot be empty")

// Config holds the migrator settings. Database access reuses the storage pool settings.
type Config struct {
	Database       *storage.Config
	MigrationTable string
}

// LoadConfig reads DATABASE_URL and the DATABASE_* pool settings plus MIGRATION_TABLE.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Database:       storage.LoadConfig(),
		MigrationTable: config.GetEnvStr("MIGRATION_TABLE", defaultMigrationTable),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that a database URL and a migration table name are set.
func (c *Config) Validate() error {
	if c.Database == nil {
		return storage.ErrDatabaseURLEmpty
	}

	if err := c.Database.Validate(); err != nil {
		return err
	}

	if c.MigrationTable == "" {
		return ErrMigrationTableEmpty
	}

	return nil
}

// String renders the config with the database password masked.
func (c *Config) String() string {
	masked := ""
	if c.Database != nil {
		masked = c.Database.MaskDatabaseURL()
	}

	return fmt.Sprintf("Config{DatabaseURL: %s, MigrationTable: %s}", masked, c.MigrationTable)
}
