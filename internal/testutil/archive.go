package testutil

import (
	"context"
	"errors"
	"sync"

	"gallery-go/internal/archive"
	"gallery-go/internal/gallery"
)

// NewTestArchiveStore creates a new in-memory archive store for testing.
func NewTestArchiveStore() *archive.MemoryStore {
	return archive.NewMemoryStore("test-archive")
}

// ErrArchiveFailed is returned by a RecordingArchiver told to fail.
var ErrArchiveFailed = errors.New("archive failed")

// RecordingArchiver records archived ids. Setting FailOn makes Archive fail
// for that id, or for every id when it is "*".
type RecordingArchiver struct {
	FailOn string

	mu       sync.Mutex
	archived []string
}

func (r *RecordingArchiver) Archive(_ context.Context, _ gallery.Kind, a *gallery.Artifact) error {
	if r.FailOn == "*" || a.ID == r.FailOn {
		return ErrArchiveFailed
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.archived = append(r.archived, a.ID)
	return nil
}

// Archived returns the archived ids in call order.
func (r *RecordingArchiver) Archived() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.archived...)
}
