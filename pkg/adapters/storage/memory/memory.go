package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aescanero/livegraph/pkg/domain"
)

// InMemorySnapshotStorage implements SnapshotStorage using an in-memory map.
// Snapshots do not expire.
type InMemorySnapshotStorage struct {
	snapshots map[string]*domain.Snapshot
	mu        sync.RWMutex
}

// NewInMemorySnapshotStorage creates a new in-memory snapshot storage
func NewInMemorySnapshotStorage() *InMemorySnapshotStorage {
	return &InMemorySnapshotStorage{
		snapshots: make(map[string]*domain.Snapshot),
	}
}

// Save stores a copy of snapshot under key
func (s *InMemorySnapshotStorage) Save(ctx context.Context, key string, snapshot *domain.Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[key] = clone(snapshot)
	return nil
}

// Load returns a copy of the snapshot stored under key
func (s *InMemorySnapshotStorage) Load(ctx context.Context, key string) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSnapshotNotFound, key)
	}
	return clone(snap), nil
}

// Delete removes the snapshot stored under key
func (s *InMemorySnapshotStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.snapshots, key)
	return nil
}

// List returns all keys with a stored snapshot, sorted
func (s *InMemorySnapshotStorage) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.snapshots))
	for key := range s.snapshots {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys, nil
}

func clone(snap *domain.Snapshot) *domain.Snapshot {
	return &domain.Snapshot{
		Nodes:   append([]domain.Node(nil), snap.Nodes...),
		Edges:   append([]domain.Edge(nil), snap.Edges...),
		TakenAt: snap.TakenAt,
	}
}
