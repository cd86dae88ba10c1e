package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ha-tools/portfolio-tracker/internal/models"
)

// snapshotKey is the single Redis key holding the last successful snapshot
const snapshotKey = "portfolio_tracker:last_snapshot"

// SnapshotStore persists the coordinator's last successful snapshot in
// Redis so a restarted service can start in degraded mode instead of
// failing its first refresh when InfluxDB is down.
type SnapshotStore struct {
	rdb *redis.Client
}

// New creates a snapshot store connected to the given Redis address
func New(addr string) *SnapshotStore {
	return &SnapshotStore{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

// Load returns the persisted snapshot, or nil when none has been saved
func (s *SnapshotStore) Load(ctx context.Context) (*models.Snapshot, error) {
	data, err := s.rdb.Get(ctx, snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot from redis: %w", err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode persisted snapshot: %w", err)
	}
	return &snap, nil
}

// Save persists a snapshot, replacing any previous one
func (s *SnapshotStore) Save(ctx context.Context, snap *models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := s.rdb.Set(ctx, snapshotKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot to redis: %w", err)
	}
	return nil
}

// Close releases the Redis connection
func (s *SnapshotStore) Close() error {
	return s.rdb.Close()
}
