package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"gallery-go/internal/database/migrations"
	"gallery-go/internal/database/sqlc"
	"gallery-go/internal/gallery"
)

// SQLiteDatabase owns the connection to the gallery database and hands out
// one ArtifactStore per collection.
type SQLiteDatabase struct {
	db      *sql.DB
	queries *sqlc.Queries
	path    string
	videos  *videoCollection
	images  *imageCollection
}

// NewSQLiteDatabase opens the database at path, migrates it to the latest
// schema, and returns it. path can be a file path or ":memory:".
// A nil clock or idgen falls back to the real clock and random UUIDs.
func NewSQLiteDatabase(path string, clock gallery.Clock, idgen gallery.IDGenerator) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return NewSQLiteDatabaseFromDB(db, path, clock, idgen), nil
}

// NewSQLiteDatabaseFromDB wraps an existing, already migrated connection.
func NewSQLiteDatabaseFromDB(db *sql.DB, path string, clock gallery.Clock, idgen gallery.IDGenerator) *SQLiteDatabase {
	if clock == nil {
		clock = gallery.RealClock{}
	}
	if idgen == nil {
		idgen = gallery.UUIDGenerator{}
	}

	queries := sqlc.New(db)
	return &SQLiteDatabase{
		db:      db,
		queries: queries,
		path:    path,
		videos:  &videoCollection{queries: queries, clock: clock, idgen: idgen},
		images:  &imageCollection{queries: queries, clock: clock, idgen: idgen},
	}
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// This is exported for use in tools and tests that need a properly configured SQLite connection.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Each connection to ":memory:" opens a distinct database, so pin the
	// pool to one connection.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Payload rows are large; WAL keeps readers from blocking on writes and
	// busy_timeout rides out a second CLI process holding the write lock.
	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = FULL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	return db, nil
}

// Videos returns the video collection.
func (s *SQLiteDatabase) Videos() gallery.ArtifactStore {
	return s.videos
}

// Images returns the image collection.
func (s *SQLiteDatabase) Images() gallery.ArtifactStore {
	return s.images
}

// Collection returns the store for the given kind.
func (s *SQLiteDatabase) Collection(kind gallery.Kind) (gallery.ArtifactStore, error) {
	switch kind {
	case gallery.KindVideo:
		return s.videos, nil
	case gallery.KindImage:
		return s.images, nil
	default:
		return nil, fmt.Errorf("unknown artifact kind: %q", kind)
	}
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.Check(s.db)
}

// SchemaVersion returns the applied schema version.
func (s *SQLiteDatabase) SchemaVersion() (uint, error) {
	version, dirty, err := migrations.Version(s.db)
	if err != nil {
		return 0, err
	}
	if dirty {
		return version, fmt.Errorf("database is in dirty state at version %d", version)
	}
	return version, nil
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	_, err := s.db.Exec("VACUUM INTO ?", destPath)
	if err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// isConflict reports whether err is a primary key or unique constraint violation.
func isConflict(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func nullString(o gallery.Optional[string]) sql.NullString {
	v, ok := o.Get()
	return sql.NullString{String: v, Valid: ok}
}

func nullInt64(o gallery.Optional[int]) sql.NullInt64 {
	v, ok := o.Get()
	return sql.NullInt64{Int64: int64(v), Valid: ok}
}

func optionalString(ns sql.NullString) gallery.Optional[string] {
	if !ns.Valid {
		return gallery.None[string]()
	}
	return gallery.Some(ns.String)
}

func optionalInt(ni sql.NullInt64) gallery.Optional[int] {
	if !ni.Valid {
		return gallery.None[int]()
	}
	return gallery.Some(int(ni.Int64))
}
