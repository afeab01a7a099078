package testutil

import (
	"context"
	"errors"
	"sync"

	"gallery-go/internal/gallery"
)

// ErrInjected is the error returned by FlakyStore for failing operations.
var ErrInjected = errors.New("injected store failure")

// FlakyStore wraps an ArtifactStore and fails selected operations.
// Operation names are the ArtifactStore method names, e.g. "ListPage".
type FlakyStore struct {
	gallery.ArtifactStore

	mu    sync.Mutex
	fail  map[string]bool
	calls map[string]int
}

// NewFlakyStore wraps inner with no failures set.
func NewFlakyStore(inner gallery.ArtifactStore) *FlakyStore {
	return &FlakyStore{
		ArtifactStore: inner,
		fail:          make(map[string]bool),
		calls:         make(map[string]int),
	}
}

// Fail makes op return ErrInjected until Heal is called.
func (s *FlakyStore) Fail(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[op] = true
}

// Heal clears all injected failures.
func (s *FlakyStore) Heal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = make(map[string]bool)
}

// Calls returns how many times op was invoked, including failed calls.
func (s *FlakyStore) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *FlakyStore) check(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
	if s.fail[op] {
		return ErrInjected
	}
	return nil
}

func (s *FlakyStore) Insert(ctx context.Context, a *gallery.NewArtifact) (*gallery.Artifact, error) {
	if err := s.check("Insert"); err != nil {
		return nil, err
	}
	return s.ArtifactStore.Insert(ctx, a)
}

func (s *FlakyStore) ListPage(ctx context.Context, limit, offset int) ([]*gallery.Artifact, error) {
	if err := s.check("ListPage"); err != nil {
		return nil, err
	}
	return s.ArtifactStore.ListPage(ctx, limit, offset)
}

func (s *FlakyStore) ListAll(ctx context.Context) ([]*gallery.Artifact, error) {
	if err := s.check("ListAll"); err != nil {
		return nil, err
	}
	return s.ArtifactStore.ListAll(ctx)
}

func (s *FlakyStore) Count(ctx context.Context) (int, error) {
	if err := s.check("Count"); err != nil {
		return 0, err
	}
	return s.ArtifactStore.Count(ctx)
}

func (s *FlakyStore) DeleteByID(ctx context.Context, id string) error {
	if err := s.check("DeleteByID"); err != nil {
		return err
	}
	return s.ArtifactStore.DeleteByID(ctx, id)
}

func (s *FlakyStore) Clear(ctx context.Context) error {
	if err := s.check("Clear"); err != nil {
		return err
	}
	return s.ArtifactStore.Clear(ctx)
}
