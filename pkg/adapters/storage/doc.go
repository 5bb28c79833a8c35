// Package storage provides graph snapshot storage implementations.
//
// Implementations:
//   - redis: Redis with JSON serialization and TTL
//   - memory: In-memory for testing and single-process runs
//
// Load returns domain.ErrSnapshotNotFound for a key without a snapshot.
package storage
