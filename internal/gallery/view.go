package gallery

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// DefaultPageSize is the number of artifacts fetched per page.
const DefaultPageSize = 12

// View is a point-in-time copy of a ViewStore's state.
type View struct {
	Artifacts []*Artifact // loaded artifacts, newest first
	Total     int         // records in the collection
	Offset    int         // records consumed from the front of the listing
	Status    *StorageStatus
	TotalCost float64 // over Artifacts only
}

// ViewStore is an incrementally loaded, cost-annotated projection of one
// collection for a presentation layer. Operations are serialized; concurrent
// writers in other processes are not observed until Refresh.
type ViewStore struct {
	store    ArtifactStore
	budget   *BudgetManager
	sizes    *SizeTracker
	pricer   Pricer
	logger   Logger
	pageSize int

	mu     sync.Mutex
	loaded []*Artifact
	total  int
	offset int
	status *StorageStatus
}

// NewViewStore creates an empty ViewStore. Call Initialize to load it.
func NewViewStore(store ArtifactStore, budget *BudgetManager, sizes *SizeTracker, pricer Pricer, logger Logger, pageSize int) *ViewStore {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	return &ViewStore{
		store:    store,
		budget:   budget,
		sizes:    sizes,
		pricer:   pricer,
		logger:   logger,
		pageSize: pageSize,
	}
}

// Initialize loads the count, the first page, and the storage status. If the
// count or the page cannot be loaded, the view is reset to an empty state.
// A status failure only leaves the status unknown.
func (v *ViewStore) Initialize(ctx context.Context) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.load(ctx); err != nil {
		v.logger.Error("failed to load artifacts", "kind", v.store.Kind(), "error", err)
		v.loaded = nil
		v.total = 0
		v.offset = 0
		v.status = nil
		v.sizes.Invalidate()
		return
	}
	v.refreshStatus(ctx)
}

// Refresh reloads the view from the store.
func (v *ViewStore) Refresh(ctx context.Context) {
	v.Initialize(ctx)
}

func (v *ViewStore) load(ctx context.Context) error {
	count, err := v.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting artifacts: %w", err)
	}
	page, err := v.store.ListPage(ctx, v.pageSize, 0)
	if err != nil {
		return fmt.Errorf("loading first page: %w", err)
	}
	v.total = count
	v.loaded = page
	v.offset = len(page)
	return nil
}

// LoadMore appends the next page and returns how many artifacts it added.
// Zero means there is nothing more to load.
func (v *ViewStore) LoadMore(ctx context.Context) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	page, err := v.store.ListPage(ctx, v.pageSize, v.offset)
	if err != nil {
		return 0, fmt.Errorf("loading page at offset %d: %w", v.offset, err)
	}
	v.loaded = append(v.loaded, page...)
	v.offset += len(page)
	return len(page), nil
}

// InsertWithManagement stores a new artifact through the budget manager and
// prepends it to the loaded set. It returns the new id and how many artifacts
// were evicted to make room. Evictions committed before a failed insert are
// still applied to the view and counted.
func (v *ViewStore) InsertWithManagement(ctx context.Context, na *NewArtifact) (string, int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	res, err := v.budget.InsertWithBudget(ctx, na)
	if res != nil {
		v.dropLoaded(res.Evicted)
		v.total -= len(res.Evicted)
		if v.total < 0 {
			v.total = 0
		}
	}
	if err != nil {
		v.refreshStatus(ctx)
		evicted := 0
		if res != nil {
			evicted = len(res.Evicted)
		}
		return "", evicted, err
	}

	v.loaded = append([]*Artifact{res.Artifact}, v.loaded...)
	v.offset++
	v.total++

	v.refreshStatus(ctx)
	return res.Artifact.ID, len(res.Evicted), nil
}

// SaveJobResult persists the payload of a completed generation job.
func (v *ViewStore) SaveJobResult(ctx context.Context, status *JobStatus, na *NewArtifact) (string, int, error) {
	switch status.State {
	case JobCompleted:
		payload, ok := status.Payload.Get()
		if !ok || payload == "" {
			if status.Error != nil {
				return "", 0, fmt.Errorf("%w: %w", ErrNoPayload, status.Error)
			}
			return "", 0, ErrNoPayload
		}
		fields := *na
		fields.Payload = payload
		return v.InsertWithManagement(ctx, &fields)
	case JobFailed:
		if status.Error != nil {
			return "", 0, status.Error
		}
		return "", 0, fmt.Errorf("generation failed")
	default:
		return "", 0, fmt.Errorf("%w (state %s)", ErrJobPending, status.State)
	}
}

// Generate submits a request for this collection's kind. Images come back
// synchronously and are stored; their ids are returned in saved. Videos
// return job ids to pass to SaveJob. Payloads stored before a failure stay
// stored.
func (v *ViewStore) Generate(ctx context.Context, gen Generator, creds Credentials, prompt string, params Params) (saved, jobs []string, err error) {
	kind := v.store.Kind()
	results, err := gen.Generate(ctx, creds, GenerateParams{Kind: kind, Prompt: prompt, Params: params})
	if err != nil {
		return nil, nil, fmt.Errorf("generating %s: %w", kind, err)
	}
	if kind == KindVideo {
		return nil, results, nil
	}

	for _, payload := range results {
		id, _, err := v.InsertWithManagement(ctx, &NewArtifact{Prompt: prompt, Payload: payload, Params: params})
		if err != nil {
			return saved, nil, err
		}
		saved = append(saved, id)
	}
	return saved, nil, nil
}

// SaveJob polls jobID once and saves its result. It returns ErrJobPending
// while the job is still running; polling again is up to the caller.
func (v *ViewStore) SaveJob(ctx context.Context, gen Generator, creds Credentials, jobID string, na *NewArtifact) (string, int, error) {
	status, err := gen.CheckStatus(ctx, creds, jobID)
	if err != nil {
		return "", 0, fmt.Errorf("checking job %s: %w", jobID, err)
	}
	return v.SaveJobResult(ctx, status, na)
}

// Delete removes one artifact from the store and the loaded set.
func (v *ViewStore) Delete(ctx context.Context, id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.store.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("deleting %s: %w", id, err)
	}
	v.sizes.Invalidate()

	count, err := v.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting artifacts: %w", err)
	}
	v.total = count
	v.dropLoaded([]string{id})

	v.refreshStatus(ctx)
	return nil
}

// Clear removes every artifact in the collection.
func (v *ViewStore) Clear(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.store.Clear(ctx); err != nil {
		return fmt.Errorf("clearing %s artifacts: %w", v.store.Kind(), err)
	}
	v.sizes.Invalidate()
	v.loaded = nil
	v.total = 0
	v.offset = 0

	v.refreshStatus(ctx)
	return nil
}

// dropLoaded removes the given ids from the loaded set and shifts the offset
// back by the number removed. Caller must hold v.mu.
func (v *ViewStore) dropLoaded(ids []string) {
	if len(ids) == 0 {
		return
	}
	before := len(v.loaded)
	v.loaded = slices.DeleteFunc(v.loaded, func(a *Artifact) bool {
		return slices.Contains(ids, a.ID)
	})
	v.offset -= before - len(v.loaded)
	if v.offset < 0 {
		v.offset = 0
	}
}

// refreshStatus reloads the storage status, leaving it unknown on failure.
// Caller must hold v.mu.
func (v *ViewStore) refreshStatus(ctx context.Context) {
	status, err := v.budget.Status(ctx)
	if err != nil {
		v.logger.Warn("failed to load storage status, continuing without it", "kind", v.store.Kind(), "error", err)
		v.status = nil
		return
	}
	v.status = status
}

// TotalCost sums the price of the loaded artifacts.
func (v *ViewStore) TotalCost() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.totalCost()
}

func (v *ViewStore) totalCost() float64 {
	var total float64
	for _, a := range v.loaded {
		total += v.pricer.Price(a.Params)
	}
	return total
}

// HasMore reports whether records remain beyond the loaded pages.
func (v *ViewStore) HasMore() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.offset < v.total
}

// Snapshot returns a copy of the current state.
func (v *ViewStore) Snapshot() View {
	v.mu.Lock()
	defer v.mu.Unlock()

	var status *StorageStatus
	if v.status != nil {
		s := *v.status
		status = &s
	}
	return View{
		Artifacts: slices.Clone(v.loaded),
		Total:     v.total,
		Offset:    v.offset,
		Status:    status,
		TotalCost: v.totalCost(),
	}
}
