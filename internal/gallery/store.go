package gallery

import (
	"context"
	"errors"
)

// ErrConflict is returned when an insert collides with an existing id.
var ErrConflict = errors.New("artifact id already exists")

// ArtifactStore provides durable storage for one collection of artifacts.
// Listing order is timestamp descending (newest first); records with equal
// timestamps are returned newest insert first. Every mutating call is durable
// before it returns.
type ArtifactStore interface {
	// Kind returns the collection this store manages.
	Kind() Kind

	// Insert assigns an id and timestamp, writes the record, and returns it.
	// An id collision returns an error wrapping ErrConflict; existing records
	// are never overwritten.
	Insert(ctx context.Context, a *NewArtifact) (*Artifact, error)

	// ListPage returns up to limit records, skipping offset records from the
	// front of the listing order.
	ListPage(ctx context.Context, limit, offset int) ([]*Artifact, error)

	// ListAll returns every record in listing order.
	ListAll(ctx context.Context) ([]*Artifact, error)

	// Count returns the number of records without loading payloads.
	Count(ctx context.Context) (int, error)

	// DeleteByID removes a record. Deleting an absent id is not an error.
	DeleteByID(ctx context.Context, id string) error

	// Clear removes all records.
	Clear(ctx context.Context) error
}
