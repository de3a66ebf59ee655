package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arnavshah/rota-scheduler/pkg/models"
)

// ErrMiss is returned by Get when nothing is cached under the key
var ErrMiss = errors.New("cache miss")

// Cache stores generated schedules keyed by Key
type Cache interface {
	Get(ctx context.Context, key string) (*models.Schedule, error)
	Set(ctx context.Context, key string, s *models.Schedule) error
}

// Key fingerprints everything a run depends on. Time windows are display-only
// and deliberately excluded.
func Key(r models.Roster, strategy string, seed *int64) string {
	labels := make([]string, len(r.Days))
	for i, d := range r.Days {
		labels[i] = d.Label
	}
	payload, _ := json.Marshal(struct {
		Workers   []models.Worker
		Locations []models.Location
		Days      []string
		Strategy  string
		Seed      *int64
	}{r.Workers, r.Locations, labels, strategy, seed})

	sum := sha256.Sum256(payload)
	return "rota:schedule:" + hex.EncodeToString(sum[:])
}

// RedisCache keeps schedules in redis with a TTL
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache wraps a redis client
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Get loads a schedule
func (c *RedisCache) Get(ctx context.Context, key string) (*models.Schedule, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var s models.Schedule
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode cached schedule: %w", err)
	}
	return &s, nil
}

// Set stores a schedule
func (c *RedisCache) Set(ctx context.Context, key string, s *models.Schedule) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryCache is the in-process fallback used when redis is not configured
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemoryCache creates an empty cache
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

// Get loads a schedule. Entries are stored encoded so callers never share state.
func (c *MemoryCache) Get(_ context.Context, key string) (*models.Schedule, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && c.ttl > 0 && c.now().After(e.expires) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()
	if !ok {
		return nil, ErrMiss
	}

	var s models.Schedule
	if err := json.Unmarshal(e.data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Set stores a schedule
func (c *MemoryCache) Set(_ context.Context, key string, s *models.Schedule) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.entries[key] = memoryEntry{data: data, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return nil
}
