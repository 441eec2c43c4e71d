package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRunStore implements RunStore for testing and --no-history runs.
type InMemoryRunStore struct {
	mu   sync.RWMutex
	runs map[string]Run
}

// NewInMemoryRunStore creates an empty in-memory store.
func NewInMemoryRunStore() *InMemoryRunStore {
	return &InMemoryRunStore{runs: make(map[string]Run)}
}

// SaveRun stores a copy of run.
func (s *InMemoryRunStore) SaveRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.ID]; exists {
		return fmt.Errorf("run %s already exists", run.ID)
	}
	stored := *run
	stored.StartedAt = run.StartedAt.UTC()
	stored.Counts = slices.Clone(run.Counts)
	s.runs[run.ID] = stored
	return nil
}

// GetRun returns the run whose ID equals or starts with id.
func (s *InMemoryRunStore) GetRun(ctx context.Context, id string) (*Run, error) {
	if id == "" {
		return nil, ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.runs[id]; ok {
		r.Counts = slices.Clone(r.Counts)
		return &r, nil
	}

	var match *Run
	for _, r := range s.runs {
		if !strings.HasPrefix(r.ID, id) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("%w: %s", ErrAmbiguousID, id)
		}
		r.Counts = slices.Clone(r.Counts)
		match = &r
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return match, nil
}

// ListRuns returns runs newest first.
func (s *InMemoryRunStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]Run, 0, len(s.runs))
	for _, r := range s.runs {
		r.Counts = slices.Clone(r.Counts)
		runs = append(runs, r)
	}
	slices.SortFunc(runs, func(a, b Run) int {
		if c := b.StartedAt.Compare(a.StartedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Close is a no-op.
func (s *InMemoryRunStore) Close() error {
	return nil
}
