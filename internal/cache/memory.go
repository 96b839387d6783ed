package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is an in-process Cache used when Redis is disabled.
type MemoryCache struct {
	mu     sync.RWMutex
	values map[string]memoryEntry
	lists  map[string][][]byte
	now    func() time.Time
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		values: make(map[string]memoryEntry),
		lists:  make(map[string][][]byte),
		now:    time.Now,
	}
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	e, ok := c.values[key]
	c.mu.RUnlock()

	if !ok || (!e.expiresAt.IsZero() && c.now().After(e.expiresAt)) {
		return nil, ErrMiss
	}
	return e.value, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.values[key] = e
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.values, k)
		delete(c.lists, k)
	}
	return nil
}

func (c *MemoryCache) Push(ctx context.Context, key string, value []byte, limit int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := append(c.lists[key], append([]byte(nil), value...))
	if limit > 0 && len(list) > limit {
		list = list[len(list)-limit:]
	}
	c.lists[key] = list
	return nil
}

func (c *MemoryCache) List(ctx context.Context, key string, n int) ([][]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	list := c.lists[key]
	if n > 0 && len(list) > n {
		list = list[len(list)-n:]
	}
	out := make([][]byte, len(list))
	copy(out, list)
	return out, nil
}

func (c *MemoryCache) Close() error { return nil }
