package testutil

import (
	"testing"

	"gallery-go/internal/database"
	"gallery-go/internal/gallery"
)

// NewTestDatabase creates a new in-memory SQLite database migrated to the
// latest schema, using a ticking clock and sequential ids.
// The database is automatically closed when the test completes.
func NewTestDatabase(t *testing.T) *database.SQLiteDatabase {
	t.Helper()
	return NewTestDatabaseWith(t, TickingClock(), NewStubIDGenerator())
}

// NewTestDatabaseWith is NewTestDatabase with a caller-supplied clock and id
// generator.
func NewTestDatabaseWith(t *testing.T, clock gallery.Clock, idgen gallery.IDGenerator) *database.SQLiteDatabase {
	t.Helper()

	db, err := database.NewSQLiteDatabase(":memory:", clock, idgen)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}
