package cache

import (
	"context"
	"sync"
	"time"

	"github.com/smallbiznis/dealerhub/internal/clock"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache is an in-process Cache. Expiry is judged against the injected
// clock so tests can move time.
type TTLCache[K comparable, V any] struct {
	mu      sync.RWMutex
	clock   clock.Clock
	entries map[K]entry[V]
}

func NewTTLCache[K comparable, V any](c clock.Clock) *TTLCache[K, V] {
	if c == nil {
		c = clock.New()
	}
	return &TTLCache[K, V]{clock: c, entries: make(map[K]entry[V])}
}

func (c *TTLCache[K, V]) Get(_ context.Context, key K) (V, bool, error) {
	c.mu.RLock()
	item, ok := c.entries[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false, nil
	}
	if !c.clock.Now().Before(item.expiresAt) {
		c.mu.Lock()
		if current, ok := c.entries[key]; ok && current.expiresAt.Equal(item.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return zero, false, nil
	}
	return item.value, true, nil
}

// Set ignores non-positive ttls.
func (c *TTLCache[K, V]) Set(_ context.Context, key K, value V, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, expiresAt: c.clock.Now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *TTLCache[K, V]) Delete(_ context.Context, key K) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}
