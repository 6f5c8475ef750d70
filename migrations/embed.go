package main

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"slices"
	"strconv"
)

//go:embed *.sql
var embeddedMigrations embed.FS

// 001_create_impact_cases.up.sql
var migrationFilename = regexp.MustCompile(`^(\d{3})_([a-z0-9_]+)\.(up|down)\.sql$`)

var (
	// ErrNoMigrations is returned when the catalog source holds no .sql files.
	ErrNoMigrations = errors.New("no migration files found")

	// ErrInvalidFilename is returned for a .sql file not named NNN_name.(up|down).sql.
	ErrInvalidFilename = errors.New("invalid migration filename")

	// ErrUnpairedMigration is returned when a version lacks its up or down script.
	ErrUnpairedMigration = errors.New("unpaired migration")

	// ErrSequenceGap is returned when versions do not run 1, 2, 3 without holes.
	ErrSequenceGap = errors.New("gap in migration sequence")

	// ErrConflictingVersion is returned when two names share one version number.
	ErrConflictingVersion = errors.New("conflicting migration names for one version")
)

// Migration is one versioned schema change with both directions present.
type Migration struct {
	Version  int
	Name     string
	Up       string
	Down     string
	Checksum string // sha256 of the up script
}

// Catalog is the validated, version-ordered set of migrations in a source.
type Catalog struct {
	source     fs.FS
	migrations []Migration
}

// LoadCatalog reads every *.sql file in fsys and checks naming, up/down pairing and that
// versions run 001..N without gaps. A nil fsys loads the embedded migrations.
func LoadCatalog(fsys fs.FS) (*Catalog, error) {
	if fsys == nil {
		fsys = embeddedMigrations
	}

	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	if len(names) == 0 {
		return nil, ErrNoMigrations
	}

	byVersion := make(map[int]*Migration)

	for _, filename := range names {
		m := migrationFilename.FindStringSubmatch(filename)
		if m == nil {
			return nil, fmt.Errorf("%w: %s (expected 001_name.up.sql)", ErrInvalidFilename, filename)
		}

		version, _ := strconv.Atoi(m[1])

		mig, ok := byVersion[version]
		if !ok {
			mig = &Migration{Version: version, Name: m[2]}
			byVersion[version] = mig
		}

		if mig.Name != m[2] {
			return nil, fmt.Errorf("%w: %03d is both %s and %s", ErrConflictingVersion, version, mig.Name, m[2])
		}

		if m[3] == "up" {
			content, err := fs.ReadFile(fsys, filename)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", filename, err)
			}

			sum := sha256.Sum256(content)
			mig.Up = filename
			mig.Checksum = hex.EncodeToString(sum[:])
		} else {
			mig.Down = filename
		}
	}

	catalog := &Catalog{source: fsys, migrations: make([]Migration, 0, len(byVersion))}

	for _, mig := range byVersion {
		switch {
		case mig.Up == "":
			return nil, fmt.Errorf("%w: %03d_%s has no up script", ErrUnpairedMigration, mig.Version, mig.Name)
		case mig.Down == "":
			return nil, fmt.Errorf("%w: %03d_%s has no down script", ErrUnpairedMigration, mig.Version, mig.Name)
		}

		catalog.migrations = append(catalog.migrations, *mig)
	}

	slices.SortFunc(catalog.migrations, func(a, b Migration) int { return a.Version - b.Version })

	for i, mig := range catalog.migrations {
		if mig.Version != i+1 {
			return nil, fmt.Errorf("%w: expected %03d, found %03d", ErrSequenceGap, i+1, mig.Version)
		}
	}

	return catalog, nil
}

// Source returns the filesystem the catalog was loaded from.
func (c *Catalog) Source() fs.FS {
	return c.source
}

// Migrations returns the migrations in version order.
func (c *Catalog) Migrations() []Migration {
	return slices.Clone(c.migrations)
}

// Latest returns the highest version, or 0 for an empty catalog.
func (c *Catalog) Latest() int {
	if len(c.migrations) == 0 {
		return 0
	}

	return c.migrations[len(c.migrations)-1].Version
}
