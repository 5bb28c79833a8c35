package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aescanero/livegraph/pkg/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "livegraph:snapshot:"

// SnapshotStorage implements SnapshotStorage using Redis
type SnapshotStorage struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewSnapshotStorage creates a new Redis snapshot storage. A zero ttl keeps
// snapshots until they are deleted.
func NewSnapshotStorage(client *redis.Client, ttl time.Duration, logger *zap.Logger) *SnapshotStorage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotStorage{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

// Save persists snapshot under key with the configured TTL
func (s *SnapshotStorage) Save(ctx context.Context, key string, snapshot *domain.Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot is nil")
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := s.client.Set(ctx, getSnapshotKey(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	s.logger.Debug("snapshot saved",
		zap.String("key", key),
		zap.Int("nodes", len(snapshot.Nodes)),
		zap.Int("edges", len(snapshot.Edges)))

	return nil
}

// Load retrieves the snapshot stored under key
func (s *SnapshotStorage) Load(ctx context.Context, key string) (*domain.Snapshot, error) {
	data, err := s.client.Get(ctx, getSnapshotKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSnapshotNotFound, key)
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return &snap, nil
}

// Delete removes the snapshot stored under key
func (s *SnapshotStorage) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, getSnapshotKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// List returns all keys that have a stored snapshot
func (s *SnapshotStorage) List(ctx context.Context) ([]string, error) {
	var cursor uint64
	var keys []string

	for {
		var batch []string
		var err error

		batch, cursor, err = s.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan keys: %w", err)
		}

		for _, k := range batch {
			keys = append(keys, strings.TrimPrefix(k, keyPrefix))
		}

		if cursor == 0 {
			break
		}
	}

	return keys, nil
}

// getSnapshotKey returns the Redis key for a snapshot
func getSnapshotKey(key string) string {
	return keyPrefix + key
}
