// Package migrations evolves the gallery database schema. Each numbered file
// under files/ is one step; steps run in increasing order, each inside its own
// transaction, and the applied version is recorded in schema_migrations.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed files/*.sql
var migrationFiles embed.FS

// Errors reported by Check, matched with errors.Is.
var (
	ErrNotMigrated = errors.New("database has no schema version (needs migration)")
	ErrDirty       = errors.New("database is in dirty state (a migration failed previously)")
	ErrBehind      = errors.New("database schema is behind the binary")
	ErrAhead       = errors.New("database schema is ahead of the binary (binary needs update)")
)

// Status describes where a database stands relative to the embedded migrations.
type Status struct {
	Current uint // 0 for a database that was never migrated
	Latest  uint
	Dirty   bool
}

// Check returns nil if the database is clean and at the latest version.
func (s Status) Check() error {
	switch {
	case s.Dirty:
		return fmt.Errorf("%w: version %d", ErrDirty, s.Current)
	case s.Current == 0:
		return ErrNotMigrated
	case s.Current < s.Latest:
		return fmt.Errorf("%w: at version %d, latest is %d (%d migrations behind)",
			ErrBehind, s.Current, s.Latest, s.Latest-s.Current)
	case s.Current > s.Latest:
		return fmt.Errorf("%w: at version %d, binary knows %d", ErrAhead, s.Current, s.Latest)
	}
	return nil
}

// GetStatus reads the applied version of db and the latest embedded version.
func GetStatus(db *sql.DB) (Status, error) {
	current, dirty, err := Version(db)
	if err != nil {
		return Status{}, err
	}
	latest, err := LatestVersion()
	if err != nil {
		return Status{}, err
	}
	return Status{Current: current, Latest: latest, Dirty: dirty}, nil
}

// Check verifies that the database schema is clean and up-to-date.
func Check(db *sql.DB) error {
	status, err := GetStatus(db)
	if err != nil {
		return err
	}
	return status.Check()
}

// MigrateUp runs all pending migrations to bring the database to the latest
// version. Running it against an up-to-date database is a no-op.
func MigrateUp(db *sql.DB) error {
	return run(db, func(m *migrate.Migrate) error { return m.Up() })
}

// MigrateTo moves the database to exactly version, applying or reverting
// steps as needed.
func MigrateTo(db *sql.DB, version uint) error {
	return run(db, func(m *migrate.Migrate) error { return m.Migrate(version) })
}

func run(db *sql.DB, step func(*migrate.Migrate) error) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}
	// m is not closed: closing it would close db, which the caller owns.
	if err := step(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// Version returns the current schema version of the database and whether a
// previous migration left it dirty. A fresh database reports version 0.
func Version(db *sql.DB) (uint, bool, error) {
	m, err := newMigrate(db)
	if err != nil {
		return 0, false, err
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("reading schema version: %w", err)
	}
	return version, dirty, nil
}

// LatestVersion returns the highest migration version embedded in the binary.
func LatestVersion() (uint, error) {
	src, err := iofs.New(migrationFiles, "files")
	if err != nil {
		return 0, fmt.Errorf("reading migration files: %w", err)
	}
	defer src.Close()
	return lastVersion(src)
}

func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFiles, "files")
	if err != nil {
		return nil, fmt.Errorf("reading migration files: %w", err)
	}

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("creating sqlite migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	return m, nil
}

// lastVersion walks the source to its final migration.
func lastVersion(src source.Driver) (uint, error) {
	v, err := src.First()
	if err != nil {
		return 0, fmt.Errorf("no migrations found: %w", err)
	}
	for {
		next, err := src.Next(v)
		if err != nil {
			return v, nil
		}
		v = next
	}
}
