// Package mock provides an in-memory cache.Cache for tests.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/jobloader/internal/cache"
)

// Cache stores statuses and counters in maps. TTLs are recorded but never expire.
type Cache struct {
	mu       sync.Mutex
	statuses map[uuid.UUID]string
	ttls     map[uuid.UUID]time.Duration
	counters map[string]int64

	PingErr error
	SetErr  error
	IncrErr error
}

func NewCache() *Cache {
	return &Cache{
		statuses: make(map[uuid.UUID]string),
		ttls:     make(map[uuid.UUID]time.Duration),
		counters: make(map[string]int64),
	}
}

func (c *Cache) Ping(_ context.Context) error { return c.PingErr }

func (c *Cache) SetJobLoadingStatus(_ context.Context, id uuid.UUID, status string, ttl time.Duration) error {
	if c.SetErr != nil {
		return c.SetErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses[id] = status
	c.ttls[id] = ttl
	return nil
}

func (c *Cache) GetJobLoadingStatus(_ context.Context, id uuid.UUID) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.statuses[id]
	return s, ok, nil
}

func (c *Cache) DeleteJobLoadingStatus(_ context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.statuses, id)
	delete(c.ttls, id)
	return nil
}

func (c *Cache) IncrWithExpiry(_ context.Context, key string, _ time.Duration) (int64, error) {
	if c.IncrErr != nil {
		return 0, c.IncrErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[key]++
	return c.counters[key], nil
}

// Status returns the cached status of id, or "" when none is set.
func (c *Cache) Status(id uuid.UUID) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statuses[id]
}

// TTL returns the ttl passed with the last status write for id.
func (c *Cache) TTL(id uuid.UUID) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttls[id]
}

// Compile-time check that Cache implements cache.Cache.
var _ cache.Cache = (*Cache)(nil)
