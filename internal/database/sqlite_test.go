package database_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gallery-go/internal/database"
	"gallery-go/internal/gallery"
	"gallery-go/internal/testutil"
)

func TestCollection_InsertAssignsIDAndTimestamp(t *testing.T) {
	clock := testutil.FixedClock()
	db := testutil.NewTestDatabaseWith(t, clock, testutil.NewStubIDGenerator())
	ctx := context.Background()

	got, err := db.Videos().Insert(ctx, &gallery.NewArtifact{
		Prompt:  "a fox in the snow",
		Payload: "data:video/mp4;base64,AAAA",
		Params: gallery.Params{
			Model:      gallery.Some("sora-2"),
			Resolution: gallery.Some("1280x720"),
			Duration:   gallery.Some(8),
		},
	})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if got.ID != "id-1" {
		t.Errorf("ID = %q, want %q", got.ID, "id-1")
	}
	if want := clock.Now().UnixMilli(); got.Timestamp != want {
		t.Errorf("Timestamp = %d, want %d", got.Timestamp, want)
	}
	if d, ok := got.Params.Duration.Get(); !ok || d != 8 {
		t.Errorf("Duration = %v, want 8", got.Params.Duration)
	}
	if got.Params.Quality.IsSet() {
		t.Error("Quality is set on a video")
	}
}

func TestCollection_ImageParamsRoundTrip(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	ctx := context.Background()

	_, err := db.Images().Insert(ctx, &gallery.NewArtifact{
		Prompt:  "a lighthouse",
		Payload: "data:image/png;base64,AAAA",
		Params: gallery.Params{
			Model:      gallery.Some("gpt-image-1"),
			Quality:    gallery.Some(""),
			Resolution: gallery.Some("1536x1024"),
		},
	})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	_, err = db.Images().Insert(ctx, &gallery.NewArtifact{Prompt: "bare", Payload: "data:image/png;base64,AAAA"})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	all, err := db.Images().ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ListAll() returned %d records, want 2", len(all))
	}

	bare, full := all[0], all[1]
	if bare.Params.Model.IsSet() || bare.Params.Quality.IsSet() || bare.Params.Resolution.IsSet() {
		t.Errorf("bare image params = %+v, want all absent", bare.Params)
	}
	if q, ok := full.Params.Quality.Get(); !ok || q != "" {
		t.Errorf("Quality = %v, want present empty string", full.Params.Quality)
	}
	if s, _ := full.Params.Resolution.Get(); s != "1536x1024" {
		t.Errorf("Resolution = %q, want 1536x1024", s)
	}
}

func TestCollection_InsertConflict(t *testing.T) {
	db := testutil.NewTestDatabaseWith(t, testutil.TickingClock(), testutil.ConstantIDGenerator("same"))
	ctx := context.Background()

	if _, err := db.Videos().Insert(ctx, &gallery.NewArtifact{Prompt: "first", Payload: "data:,"}); err != nil {
		t.Fatalf("first Insert() error = %v", err)
	}

	_, err := db.Videos().Insert(ctx, &gallery.NewArtifact{Prompt: "second", Payload: "data:,"})
	if !errors.Is(err, gallery.ErrConflict) {
		t.Fatalf("second Insert() error = %v, want ErrConflict", err)
	}

	all, err := db.Videos().ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(all) != 1 || all[0].Prompt != "first" {
		t.Errorf("existing record was modified: %+v", all)
	}
}

func TestCollection_CollectionsAreIndependent(t *testing.T) {
	// Same id in both collections must not collide.
	db := testutil.NewTestDatabaseWith(t, testutil.TickingClock(), testutil.ConstantIDGenerator("shared"))
	ctx := context.Background()

	if _, err := db.Videos().Insert(ctx, &gallery.NewArtifact{Prompt: "v", Payload: "data:,"}); err != nil {
		t.Fatalf("video Insert() error = %v", err)
	}
	if _, err := db.Images().Insert(ctx, &gallery.NewArtifact{Prompt: "i", Payload: "data:,"}); err != nil {
		t.Fatalf("image Insert() error = %v", err)
	}
	if err := db.Videos().Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	n, err := db.Images().Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 1 {
		t.Errorf("image Count() = %d after clearing videos, want 1", n)
	}
}

func TestCollection_ListPage(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	ctx := context.Background()
	store := db.Videos()

	for _, prompt := range []string{"p1", "p2", "p3", "p4", "p5"} {
		if _, err := store.Insert(ctx, &gallery.NewArtifact{Prompt: prompt, Payload: "data:,"}); err != nil {
			t.Fatalf("Insert(%s) error = %v", prompt, err)
		}
	}

	tests := []struct {
		name   string
		limit  int
		offset int
		want   []string
	}{
		{name: "first page", limit: 2, offset: 0, want: []string{"p5", "p4"}},
		{name: "middle page", limit: 2, offset: 2, want: []string{"p3", "p2"}},
		{name: "short last page", limit: 2, offset: 4, want: []string{"p1"}},
		{name: "past the end", limit: 2, offset: 10, want: nil},
		{name: "zero limit", limit: 0, offset: 0, want: nil},
		{name: "negative limit", limit: -1, offset: 0, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ListPage(ctx, tt.limit, tt.offset)
			if err != nil {
				t.Fatalf("ListPage() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ListPage() returned %d records, want %d", len(got), len(tt.want))
			}
			for i, a := range got {
				if a.Prompt != tt.want[i] {
					t.Errorf("record %d prompt = %q, want %q", i, a.Prompt, tt.want[i])
				}
			}
		})
	}

	t.Run("negative offset", func(t *testing.T) {
		if _, err := store.ListPage(ctx, 2, -1); err == nil {
			t.Error("ListPage() expected error for negative offset")
		}
	})
}

func TestCollection_EqualTimestampsNewestInsertFirst(t *testing.T) {
	db := testutil.NewTestDatabaseWith(t, testutil.FixedClock(), testutil.NewStubIDGenerator())
	ctx := context.Background()

	for _, prompt := range []string{"a", "b", "c"} {
		if _, err := db.Images().Insert(ctx, &gallery.NewArtifact{Prompt: prompt, Payload: "data:,"}); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	page, err := db.Images().ListPage(ctx, 3, 0)
	if err != nil {
		t.Fatalf("ListPage() error = %v", err)
	}
	all, err := db.Images().ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	for i, want := range []string{"c", "b", "a"} {
		if page[i].Prompt != want || all[i].Prompt != want {
			t.Errorf("position %d = (%q, %q), want %q", i, page[i].Prompt, all[i].Prompt, want)
		}
	}
}

// insertAt inserts a 3 KiB video with the clock set to hour:00 on the fixed day.
func insertAt(t *testing.T, db *database.SQLiteDatabase, clock *testutil.StubClock, prompt string, hour int) {
	t.Helper()
	clock.Set(time.Date(2024, 1, 15, hour, 0, 0, 0, time.UTC))
	if _, err := db.Videos().Insert(context.Background(), testutil.VideoOfSize(prompt, 3*1024)); err != nil {
		t.Fatalf("Insert(%s) error = %v", prompt, err)
	}
}

func TestCollection_OrderFollowsTimestampNotInsertion(t *testing.T) {
	clock := testutil.FixedClock()
	db := testutil.NewTestDatabaseWith(t, clock, testutil.NewStubIDGenerator())
	ctx := context.Background()

	insertAt(t, db, clock, "ten", 10)
	insertAt(t, db, clock, "nine", 9)
	insertAt(t, db, clock, "eleven", 11)

	page, err := db.Videos().ListPage(ctx, 3, 0)
	if err != nil {
		t.Fatalf("ListPage() error = %v", err)
	}
	all, err := db.Videos().ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	for i, want := range []string{"eleven", "ten", "nine"} {
		if page[i].Prompt != want || all[i].Prompt != want {
			t.Errorf("position %d = (%q, %q), want %q", i, page[i].Prompt, all[i].Prompt, want)
		}
	}
}

func TestCollection_EvictsOldestTimestampFirst(t *testing.T) {
	clock := testutil.FixedClock()
	db := testutil.NewTestDatabaseWith(t, clock, testutil.NewStubIDGenerator())
	store := db.Videos()
	sizes := gallery.NewSizeTracker(store)
	budget := gallery.NewBudgetManager(store, sizes, gallery.Limits{MaxSize: 10 * 1024, WarningThreshold: 8 * 1024}, nil, nil)

	insertAt(t, db, clock, "ten", 10)
	insertAt(t, db, clock, "nine", 9) // id-2, inserted second but oldest
	insertAt(t, db, clock, "ten-again", 10)

	clock.Set(time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC))
	res, err := budget.InsertWithBudget(context.Background(), testutil.VideoOfSize("noon", 3*1024))
	if err != nil {
		t.Fatalf("InsertWithBudget() error = %v", err)
	}
	if len(res.Evicted) != 1 || res.Evicted[0] != "id-2" {
		t.Errorf("Evicted = %v, want [id-2]", res.Evicted)
	}
}

func TestCollection_DeleteAndCount(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	ctx := context.Background()
	store := db.Videos()

	a, err := store.Insert(ctx, &gallery.NewArtifact{Prompt: "keep", Payload: "data:,"})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	b, err := store.Insert(ctx, &gallery.NewArtifact{Prompt: "drop", Payload: "data:,"})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	if err := store.DeleteByID(ctx, b.ID); err != nil {
		t.Fatalf("DeleteByID() error = %v", err)
	}
	if err := store.DeleteByID(ctx, "does-not-exist"); err != nil {
		t.Errorf("DeleteByID(absent) error = %v, want nil", err)
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}

	all, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(all) != 1 || all[0].ID != a.ID {
		t.Errorf("ListAll() = %+v, want only %s", all, a.ID)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if n, _ := store.Count(ctx); n != 0 {
		t.Errorf("Count() after Clear = %d, want 0", n)
	}
}

func TestSQLiteDatabase_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gallery.db")
	ctx := context.Background()

	db, err := database.NewSQLiteDatabase(path, nil, nil)
	if err != nil {
		t.Fatalf("NewSQLiteDatabase() error = %v", err)
	}
	inserted, err := db.Images().Insert(ctx, &gallery.NewArtifact{Prompt: "kept", Payload: "data:image/png;base64,AAAA"})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	db.Close()

	db, err = database.NewSQLiteDatabase(path, nil, nil)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer db.Close()

	if err := db.CheckMigrations(); err != nil {
		t.Errorf("CheckMigrations() error = %v", err)
	}
	all, err := db.Images().ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(all) != 1 || all[0].ID != inserted.ID {
		t.Errorf("ListAll() after reopen = %+v, want %s", all, inserted.ID)
	}
}

func TestSQLiteDatabase_BackupTo(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	ctx := context.Background()

	if _, err := db.Videos().Insert(ctx, &gallery.NewArtifact{Prompt: "backed up", Payload: "data:,"}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	dest := filepath.Join(t.TempDir(), "backup.db")
	if err := db.BackupTo(dest); err != nil {
		t.Fatalf("BackupTo() error = %v", err)
	}

	backup, err := database.NewSQLiteDatabase(dest, nil, nil)
	if err != nil {
		t.Fatalf("opening backup: %v", err)
	}
	defer backup.Close()

	n, err := backup.Videos().Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 1 {
		t.Errorf("backup Count() = %d, want 1", n)
	}
}

func TestSQLiteDatabase_Collection(t *testing.T) {
	db := testutil.NewTestDatabase(t)

	for _, kind := range gallery.Kinds {
		store, err := db.Collection(kind)
		if err != nil {
			t.Fatalf("Collection(%s) error = %v", kind, err)
		}
		if store.Kind() != kind {
			t.Errorf("Collection(%s).Kind() = %s", kind, store.Kind())
		}
	}

	if _, err := db.Collection("audio"); err == nil {
		t.Error("Collection(audio) expected error")
	}
}

func TestSQLiteDatabase_SchemaVersion(t *testing.T) {
	db := testutil.NewTestDatabase(t)

	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if v != 4 {
		t.Errorf("SchemaVersion() = %d, want 4", v)
	}
}
