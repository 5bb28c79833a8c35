package ports

import (
	"context"

	"github.com/aescanero/livegraph/pkg/domain"
)

// SnapshotStorage persists graph snapshots.
type SnapshotStorage interface {
	Save(ctx context.Context, key string, snapshot *domain.Snapshot) error
	// Load returns domain.ErrSnapshotNotFound when key has no snapshot.
	Load(ctx context.Context, key string) (*domain.Snapshot, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]string, error)
}
