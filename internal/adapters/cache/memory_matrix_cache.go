package cache

import (
	"context"
	"sync"
	"time"

	"gas-route-service/internal/domain"
	"gas-route-service/internal/ports"
)

// In-process TTL cache for leg estimates, keyed by coordinates rounded to
// ~10 m so near-duplicate points share entries.
//
// Reads take the shared lock, writes the exclusive one. Entries expire
// lazily on read; there is no eviction beyond TTL, which is acceptable
// because coordinate rounding keeps cardinality low for a single depot's
// service area.
type MemoryMatrixCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	leg      ports.LegEstimate
	storedAt time.Time
}

const DefaultTTL = 15 * time.Minute

func NewMemoryMatrixCache(ttl time.Duration) *MemoryMatrixCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryMatrixCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func legKey(origin, destination domain.Coordinates) string {
	return origin.CacheKey() + "|" + destination.CacheKey()
}

func (c *MemoryMatrixCache) Get(ctx context.Context, origin, destination domain.Coordinates) (ports.LegEstimate, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[legKey(origin, destination)]
	c.mu.RUnlock()

	if !ok || c.now().Sub(e.storedAt) > c.ttl {
		return ports.LegEstimate{}, false, nil
	}
	return e.leg, true, nil
}

func (c *MemoryMatrixCache) Put(ctx context.Context, origin, destination domain.Coordinates, leg ports.LegEstimate) error {
	c.mu.Lock()
	c.entries[legKey(origin, destination)] = memoryEntry{leg: leg, storedAt: c.now()}
	c.mu.Unlock()
	return nil
}
