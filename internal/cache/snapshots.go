package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"district/internal/models"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// SnapshotCache keeps short-lived copies of inventory snapshots in Redis.
// A nil *SnapshotCache is valid and disables caching, so callers never
// branch on whether Redis is configured.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSnapshotCache(cfg Config) (*SnapshotCache, error) {
	if cfg.Addr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &SnapshotCache{client: rdb, ttl: cfg.TTL}, nil
}

func snapshotKey(eventID string) string {
	return "inventory:snapshot:" + eventID
}

func (c *SnapshotCache) GetSnapshots(ctx context.Context, eventID string) ([]models.InventorySnapshot, bool) {
	if c == nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, snapshotKey(eventID)).Result()
	if err != nil {
		return nil, false
	}

	var snapshots []models.InventorySnapshot
	if err := json.Unmarshal([]byte(raw), &snapshots); err != nil {
		return nil, false
	}
	return snapshots, true
}

func (c *SnapshotCache) SetSnapshots(ctx context.Context, eventID string, snapshots []models.InventorySnapshot) {
	if c == nil {
		return
	}

	raw, err := json.Marshal(snapshots)
	if err != nil {
		return
	}
	c.client.Set(ctx, snapshotKey(eventID), raw, c.ttl)
}

// Invalidate drops the cached snapshot after any write that changes
// availability.
func (c *SnapshotCache) Invalidate(ctx context.Context, eventID string) {
	if c == nil {
		return
	}
	c.client.Del(ctx, snapshotKey(eventID))
}

func (c *SnapshotCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
