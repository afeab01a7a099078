package gallery

import (
	"context"
	"fmt"
	"math"

	"gallery-go/internal/dataurl"
)

const (
	// DefaultMaxSize is the default hard cap on a collection's payload bytes.
	DefaultMaxSize int64 = 100 * 1024 * 1024

	// DefaultWarningThreshold is the default soft cap used for status signaling.
	DefaultWarningThreshold int64 = 80 * 1024 * 1024
)

// Eviction pass targets, as fractions of MaxSize. The first pass frees
// headroom beyond the incoming item; the second only runs if the first was not
// enough.
const (
	firstPassTarget  = 0.6
	secondPassTarget = 0.4
)

// Limits configures the storage budget of one collection.
type Limits struct {
	MaxSize          int64
	WarningThreshold int64
}

// DefaultLimits returns the default 100 MiB cap with an 80 MiB warning level.
func DefaultLimits() Limits {
	return Limits{MaxSize: DefaultMaxSize, WarningThreshold: DefaultWarningThreshold}
}

// Status derives a StorageStatus from a total size in bytes.
func (l Limits) Status(sizeBytes int64) *StorageStatus {
	sizeMB := float64(sizeBytes) / (1024 * 1024)
	var percentage float64
	if l.MaxSize > 0 {
		percentage = float64(sizeBytes) / float64(l.MaxSize) * 100
	}
	return &StorageStatus{
		SizeBytes:  sizeBytes,
		SizeMB:     round2(sizeMB),
		Percentage: round2(percentage),
		NearLimit:  sizeBytes >= l.WarningThreshold,
		OverLimit:  sizeBytes >= l.MaxSize,
	}
}

func (l Limits) target(fraction float64) int64 {
	return int64(float64(l.MaxSize) * fraction)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// StorageStatus is a snapshot of a collection's storage usage.
type StorageStatus struct {
	SizeBytes  int64
	SizeMB     float64 // rounded to two decimals
	Percentage float64 // of MaxSize, rounded to two decimals
	NearLimit  bool    // at or above the warning threshold
	OverLimit  bool    // at or above the hard cap
}

// InsertResult reports the outcome of a budgeted insert.
type InsertResult struct {
	Artifact *Artifact
	Evicted  []string // ids removed to make room, oldest first
}

// BudgetManager keeps a collection's total payload size under a hard cap by
// evicting the oldest artifacts. The cap is enforced by eviction, never by
// refusing an insert.
type BudgetManager struct {
	store    ArtifactStore
	sizes    *SizeTracker
	limits   Limits
	archiver Archiver
	logger   Logger
}

// NewBudgetManager creates a BudgetManager. archiver may be nil, in which case
// evicted artifacts are simply deleted.
func NewBudgetManager(store ArtifactStore, sizes *SizeTracker, limits Limits, archiver Archiver, logger Logger) *BudgetManager {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &BudgetManager{
		store:    store,
		sizes:    sizes,
		limits:   limits,
		archiver: archiver,
		logger:   logger,
	}
}

// Limits returns the configured limits.
func (b *BudgetManager) Limits() Limits {
	return b.limits
}

// InsertWithBudget inserts a new artifact, first evicting the oldest records
// if the insert would reach the cap. The insert happens even if eviction could
// not bring the total under the cap.
//
// On error the result is still returned when anything was evicted, so callers
// can drop the evicted ids from their own state. Its Artifact is nil.
func (b *BudgetManager) InsertWithBudget(ctx context.Context, na *NewArtifact) (*InsertResult, error) {
	newSize := dataurl.EstimateSize(na.Payload)

	current, err := b.sizes.Total(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading current size: %w", err)
	}

	res := &InsertResult{}
	if current+newSize >= b.limits.MaxSize {
		b.logger.Info("storage limit reached, evicting",
			"kind", b.store.Kind(), "current", current, "incoming", newSize, "max", b.limits.MaxSize)

		ids, err := b.Evict(ctx, b.limits.target(firstPassTarget))
		res.Evicted = append(res.Evicted, ids...)
		if err != nil {
			return res, fmt.Errorf("evicting to first target: %w", err)
		}

		current, err = b.sizes.Total(ctx)
		if err != nil {
			return res, fmt.Errorf("re-reading size after eviction: %w", err)
		}
		if current+newSize >= b.limits.MaxSize {
			ids, err := b.Evict(ctx, b.limits.target(secondPassTarget))
			res.Evicted = append(res.Evicted, ids...)
			if err != nil {
				return res, fmt.Errorf("evicting to second target: %w", err)
			}
		}
	}

	a, err := b.store.Insert(ctx, na)
	if err != nil {
		return res, fmt.Errorf("inserting %s: %w", b.store.Kind(), err)
	}
	b.sizes.Add(newSize)
	res.Artifact = a

	b.logger.Debug("artifact stored", "kind", b.store.Kind(), "id", a.ID, "size", newSize, "evicted", len(res.Evicted))
	return res, nil
}

// Evict deletes artifacts oldest-first until the projected total is at or
// below target or no records remain. It returns the evicted ids. The size
// cache is invalidated whenever anything was deleted, including on error.
//
// If an archiver is configured and fails to archive a record, the failure is
// logged and the record is deleted anyway: the cap takes precedence over the
// archive copy.
func (b *BudgetManager) Evict(ctx context.Context, target int64) ([]string, error) {
	artifacts, err := b.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing artifacts: %w", err)
	}

	var current int64
	for _, a := range artifacts {
		current += dataurl.EstimateSize(a.Payload)
	}

	var evicted []string
	defer func() {
		if len(evicted) > 0 {
			b.sizes.Invalidate()
		}
	}()

	// artifacts is newest first, so walk it from the end.
	for i := len(artifacts) - 1; i >= 0 && current > target; i-- {
		a := artifacts[i]

		if b.archiver != nil {
			if err := b.archiver.Archive(ctx, b.store.Kind(), a); err != nil {
				b.logger.Warn("archiving evicted artifact failed, deleting without a copy",
					"kind", b.store.Kind(), "id", a.ID, "error", err)
			}
		}

		if err := b.store.DeleteByID(ctx, a.ID); err != nil {
			return evicted, fmt.Errorf("deleting %s: %w", a.ID, err)
		}
		current -= dataurl.EstimateSize(a.Payload)
		evicted = append(evicted, a.ID)
		b.logger.Debug("artifact evicted", "kind", b.store.Kind(), "id", a.ID)
	}

	return evicted, nil
}

// Status returns the current storage status using the cached total.
func (b *BudgetManager) Status(ctx context.Context) (*StorageStatus, error) {
	total, err := b.sizes.Total(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading total size: %w", err)
	}
	return b.limits.Status(total), nil
}
