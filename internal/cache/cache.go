package cache

import (
	"context"
	"sync"
	"time"

	"weather-app/internal/models"
)

// Cache holds successful provider snapshots keyed by request. Errors are never cached.
type Cache interface {
	Get(ctx context.Context, key string) (models.WeatherSnapshot, bool)
	Set(ctx context.Context, key string, data models.WeatherSnapshot)
}

type entry struct {
	data      models.WeatherSnapshot
	expiresAt time.Time
}

type Memory struct {
	mu    sync.RWMutex
	items map[string]entry
	ttl   time.Duration
	now   func() time.Time
}

func New(ttl time.Duration) *Memory {
	return &Memory{items: make(map[string]entry), ttl: ttl, now: time.Now}
}

func (c *Memory) Get(_ context.Context, key string) (models.WeatherSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[key]
	if !ok || c.now().After(e.expiresAt) {
		return models.WeatherSnapshot{}, false
	}
	return e.data, true
}

func (c *Memory) Set(_ context.Context, key string, data models.WeatherSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry{data: data, expiresAt: c.now().Add(c.ttl)}
}

// Sweep drops expired entries and returns how many were removed.
func (c *Memory) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for k, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, k)
			n++
		}
	}
	return n
}
