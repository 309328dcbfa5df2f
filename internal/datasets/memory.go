package datasets

import (
	"context"
	"fmt"
	"sync"

	"sspyviz/pkg/contracts/domain"
)

// MemoryStore is an in-memory implementation of Store
type MemoryStore struct {
	mu       sync.RWMutex
	datasets map[string]*domain.Dataset
}

// NewMemoryStore creates a new in-memory dataset store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{datasets: make(map[string]*domain.Dataset)}
}

// Create stores a copy of ds
func (s *MemoryStore) Create(_ context.Context, ds *domain.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.datasets[ds.ID]; exists {
		return fmt.Errorf("dataset %s already exists", ds.ID)
	}
	s.datasets[ds.ID] = copyDataset(ds)
	return nil
}

// Get returns a copy of the dataset
func (s *MemoryStore) Get(_ context.Context, id string) (*domain.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, exists := s.datasets[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return copyDataset(ds), nil
}

// List returns summaries ordered by creation time
func (s *MemoryStore) List(_ context.Context) ([]domain.DatasetSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.DatasetSummary, 0, len(s.datasets))
	for _, ds := range s.datasets {
		out = append(out, ds.Summary())
	}
	sortSummaries(out)
	return out, nil
}

// Delete removes a dataset from the store
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.datasets[id]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.datasets, id)
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}
