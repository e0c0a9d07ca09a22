package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/srgjo27/evently/internal/core/domain"
)

const snapshotKey = "analytics:snapshot"

func inventoryKey(eventID uuid.UUID) string {
	return fmt.Sprintf("inventory:%s", eventID.String())
}

type inventoryEntry struct {
	EventID        uuid.UUID `json:"event_id"`
	SeatsAvailable int       `json:"seats_available"`
	SeatsReserved  int       `json:"seats_reserved"`
	Version        int64     `json:"version"`
}

type statsEntry struct {
	EventID     uuid.UUID `json:"event_id"`
	Name        string    `json:"name"`
	Capacity    int       `json:"capacity"`
	TotalBooked *int64    `json:"total_booked"`
	Utilization *float64  `json:"utilization"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

// RedisCache is a read-through cache of inventory counters and the analytics
// snapshot. It is never consulted inside a unit of work.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCache) GetInventory(ctx context.Context, eventID uuid.UUID) (*domain.Inventory, error) {
	var entry inventoryEntry
	found, err := c.get(ctx, inventoryKey(eventID), &entry)
	if err != nil || !found {
		return nil, err
	}

	return &domain.Inventory{
		EventID:        entry.EventID,
		SeatsAvailable: entry.SeatsAvailable,
		SeatsReserved:  entry.SeatsReserved,
		Version:        entry.Version,
	}, nil
}

func (c *RedisCache) SetInventory(ctx context.Context, inv *domain.Inventory) error {
	return c.set(ctx, inventoryKey(inv.EventID), inventoryEntry{
		EventID:        inv.EventID,
		SeatsAvailable: inv.SeatsAvailable,
		SeatsReserved:  inv.SeatsReserved,
		Version:        inv.Version,
	})
}

func (c *RedisCache) GetSnapshot(ctx context.Context) ([]domain.EventStats, error) {
	var entries []statsEntry
	found, err := c.get(ctx, snapshotKey, &entries)
	if err != nil || !found {
		return nil, err
	}

	rows := make([]domain.EventStats, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, domain.EventStats{
			EventID:     e.EventID,
			Name:        e.Name,
			Capacity:    e.Capacity,
			TotalBooked: e.TotalBooked,
			Utilization: e.Utilization,
			RefreshedAt: e.RefreshedAt,
		})
	}
	return rows, nil
}

func (c *RedisCache) SetSnapshot(ctx context.Context, rows []domain.EventStats) error {
	entries := make([]statsEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, statsEntry{
			EventID:     r.EventID,
			Name:        r.Name,
			Capacity:    r.Capacity,
			TotalBooked: r.TotalBooked,
			Utilization: r.Utilization,
			RefreshedAt: r.RefreshedAt,
		})
	}
	return c.set(ctx, snapshotKey, entries)
}

// Invalidate drops the analytics snapshot and the inventory entries of the
// given events.
func (c *RedisCache) Invalidate(ctx context.Context, eventIDs ...uuid.UUID) error {
	keys := make([]string, 0, len(eventIDs)+1)
	keys = append(keys, snapshotKey)
	for _, id := range eventIDs {
		keys = append(keys, inventoryKey(id))
	}

	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	return nil
}

func (c *RedisCache) get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		// A corrupt entry is treated as a miss and overwritten on the next fill.
		return false, nil
	}
	return true, nil
}

func (c *RedisCache) set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	if err := c.rdb.Set(ctx, key, string(data), c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
