package migrations

import (
	"database/sql"
	"errors"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestMigrateUp_FreshDatabase(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	tables := []string{"videos", "images", "schema_migrations"}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s was not created: %v", table, err)
		}
	}

	indexes := []string{"idx_videos_timestamp", "idx_images_timestamp"}
	for _, index := range indexes {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name=?", index).Scan(&name)
		if err != nil {
			t.Errorf("Index %s was not created: %v", index, err)
		}
	}
}

func TestCheck_FreshDatabase(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := Check(db); !errors.Is(err, ErrNotMigrated) {
		t.Fatalf("Check() error = %v, want ErrNotMigrated", err)
	}
}

func TestCheck_AfterMigration(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	if err := Check(db); err != nil {
		t.Errorf("Check() after migration returned error: %v", err)
	}
}

func TestCheck_Behind(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateTo(db, 2); err != nil {
		t.Fatalf("MigrateTo(2) error = %v", err)
	}

	err := Check(db)
	if !errors.Is(err, ErrBehind) {
		t.Fatalf("Check() error = %v, want ErrBehind", err)
	}
	if !strings.Contains(err.Error(), "2 migrations behind") {
		t.Errorf("error = %q, want mention of migrations behind", err.Error())
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("First MigrateUp() failed: %v", err)
	}

	if err := MigrateUp(db); err != nil {
		t.Errorf("Second MigrateUp() failed: %v (should be idempotent)", err)
	}

	if err := Check(db); err != nil {
		t.Errorf("Check() after double migration returned error: %v", err)
	}
}

func TestMigrateUp_BackfillsOnlyAbsentImageParams(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	// Bring the schema to the step where image params exist but have not
	// been backfilled, then add records the way an older client would.
	if err := MigrateTo(db, 3); err != nil {
		t.Fatalf("MigrateTo(3) error = %v", err)
	}

	_, err := db.Exec(`
		INSERT INTO images (id, prompt, payload, timestamp, model, quality, size) VALUES
			('legacy', 'a cat', 'data:image/png;base64,AAAA', 100, NULL, NULL, NULL),
			('partial', 'a dog', 'data:image/png;base64,AAAA', 200, 'gpt-image-1-mini', '', NULL)
	`)
	if err != nil {
		t.Fatalf("inserting legacy images: %v", err)
	}

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	assertImageParams(t, db, "legacy", "gpt-image-1", "low", "1024x1024")
	// An empty quality is a present value and must survive the backfill.
	assertImageParams(t, db, "partial", "gpt-image-1-mini", "", "1024x1024")

	// Running again changes nothing and duplicates nothing.
	if err := MigrateUp(db); err != nil {
		t.Fatalf("second MigrateUp() failed: %v", err)
	}
	assertImageParams(t, db, "legacy", "gpt-image-1", "low", "1024x1024")
	assertImageParams(t, db, "partial", "gpt-image-1-mini", "", "1024x1024")

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM images").Scan(&count); err != nil {
		t.Fatalf("counting images: %v", err)
	}
	if count != 2 {
		t.Errorf("image count = %d, want 2", count)
	}
}

func TestMigrateUp_FailureLeavesDatabaseDirty(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	// A conflicting table makes the first migration fail.
	if _, err := db.Exec("CREATE TABLE videos (id TEXT)"); err != nil {
		t.Fatalf("creating conflicting table: %v", err)
	}

	if err := MigrateUp(db); err == nil {
		t.Fatal("MigrateUp() expected error when migration fails")
	}

	if err := Check(db); !errors.Is(err, ErrDirty) {
		t.Errorf("Check() error = %v, want ErrDirty", err)
	}
}

func TestVersion(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	version, dirty, err := Version(db)
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if version != 0 || dirty {
		t.Errorf("Version() = (%d, %v), want (0, false)", version, dirty)
	}

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	latest, err := LatestVersion()
	if err != nil {
		t.Fatalf("LatestVersion() error = %v", err)
	}
	if latest != 4 {
		t.Errorf("LatestVersion() = %d, want 4", latest)
	}

	version, dirty, err = Version(db)
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if version != latest || dirty {
		t.Errorf("Version() = (%d, %v), want (%d, false)", version, dirty, latest)
	}
}

func TestStatus_Check(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   error
	}{
		{name: "current", status: Status{Current: 4, Latest: 4}, want: nil},
		{name: "never migrated", status: Status{Current: 0, Latest: 4}, want: ErrNotMigrated},
		{name: "behind", status: Status{Current: 3, Latest: 4}, want: ErrBehind},
		{name: "ahead", status: Status{Current: 5, Latest: 4}, want: ErrAhead},
		{name: "dirty wins", status: Status{Current: 4, Latest: 4, Dirty: true}, want: ErrDirty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.status.Check()
			if tt.want == nil {
				if err != nil {
					t.Errorf("Check() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Check() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMigrateTo_Down(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}
	if err := MigrateTo(db, 1); err != nil {
		t.Fatalf("MigrateTo(1) error = %v", err)
	}

	status, err := GetStatus(db)
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if status.Current != 1 || status.Latest != 4 || status.Dirty {
		t.Errorf("GetStatus() = %+v, want current 1 of 4", status)
	}

	var name string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='images'").Scan(&name)
	if err != sql.ErrNoRows {
		t.Errorf("images table should be dropped at version 1, got err = %v", err)
	}
}

func TestSchema_VideoIDUnique(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	_, err := db.Exec("INSERT INTO videos (id, prompt, payload, timestamp) VALUES ('v-1', 'p', 'data:,', 1)")
	if err != nil {
		t.Fatalf("Failed to insert first video: %v", err)
	}

	_, err = db.Exec("INSERT INTO videos (id, prompt, payload, timestamp) VALUES ('v-1', 'q', 'data:,', 2)")
	if err == nil {
		t.Error("Expected primary key violation for duplicate id, but insert succeeded")
	}
}

func assertImageParams(t *testing.T, db *sql.DB, id, wantModel, wantQuality, wantSize string) {
	t.Helper()

	var model, quality, size sql.NullString
	err := db.QueryRow("SELECT model, quality, size FROM images WHERE id = ?", id).Scan(&model, &quality, &size)
	if err != nil {
		t.Fatalf("reading image %s: %v", id, err)
	}
	if !model.Valid || model.String != wantModel {
		t.Errorf("%s model = %v, want %q", id, model, wantModel)
	}
	if !quality.Valid || quality.String != wantQuality {
		t.Errorf("%s quality = %v, want %q", id, quality, wantQuality)
	}
	if !size.Valid || size.String != wantSize {
		t.Errorf("%s size = %v, want %q", id, size, wantSize)
	}
}

// openTestDB opens an in-memory SQLite database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	return db
}
