package gallery

import (
	"context"
	"io"
)

// ArchiveStore is a blob backend that receives evicted artifacts.
// All operations stream through io.Reader/io.Writer so large videos are not
// buffered twice.
type ArchiveStore interface {
	// Put stores the object under key, replacing any previous object.
	// size is the number of bytes that will be read from r.
	Put(ctx context.Context, key string, r io.Reader, size int64) error

	// Get writes the object stored under key to w.
	Get(ctx context.Context, key string, w io.Writer) error

	// ValidateSetup verifies that the backend is reachable and configured.
	ValidateSetup(ctx context.Context) error
}

// Archiver preserves an artifact outside the collection before it is
// evicted.
type Archiver interface {
	Archive(ctx context.Context, kind Kind, a *Artifact) error
}
