package gallery

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"gallery-go/internal/dataurl"
)

// SizeTracker caches the total estimated payload size of a collection so
// budget checks do not rescan every record. The cache lives for the process
// lifetime only.
//
// Inserts adjust the cache by the new record's size. Deletes of any kind
// invalidate it, forcing the next Total to recompute from the store.
type SizeTracker struct {
	store ArtifactStore
	group singleflight.Group

	mu     sync.Mutex
	total  int64
	cached bool
	gen    uint64 // bumped on every invalidation
}

// NewSizeTracker creates a tracker with an empty cache.
func NewSizeTracker(store ArtifactStore) *SizeTracker {
	return &SizeTracker{store: store}
}

// Total returns the cached total, computing and caching it on a miss.
// Concurrent misses share a single scan.
func (t *SizeTracker) Total(ctx context.Context) (int64, error) {
	t.mu.Lock()
	if t.cached {
		total := t.total
		t.mu.Unlock()
		return total, nil
	}
	gen := t.gen
	t.mu.Unlock()

	v, err, _ := t.group.Do("total", func() (any, error) {
		return ComputeTotalSize(ctx, t.store)
	})
	if err != nil {
		return 0, err
	}
	total := v.(int64)

	t.mu.Lock()
	defer t.mu.Unlock()
	// A scan that raced with an invalidation may be stale; hand it back but
	// don't cache it.
	if t.gen == gen && !t.cached {
		t.total = total
		t.cached = true
	}
	return total, nil
}

// Add adjusts a cached total by delta, clamping at zero. It is a no-op when
// nothing is cached.
func (t *SizeTracker) Add(delta int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.cached {
		return
	}
	t.total += delta
	if t.total < 0 {
		t.total = 0
	}
}

// Invalidate drops the cached total.
func (t *SizeTracker) Invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cached = false
	t.total = 0
	t.gen++
}

// Cached returns the cached total and whether one is present.
func (t *SizeTracker) Cached() (int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total, t.cached
}

// ComputeTotalSize sums the estimated payload size of every record in store.
func ComputeTotalSize(ctx context.Context, store ArtifactStore) (int64, error) {
	artifacts, err := store.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing %s artifacts: %w", store.Kind(), err)
	}
	var total int64
	for _, a := range artifacts {
		total += dataurl.EstimateSize(a.Payload)
	}
	return total, nil
}
