package catalog

import (
	"sync"
	"time"
)

type cacheEntry struct {
	item       ProductDTO
	capturedAt time.Time
}

type listEntry struct {
	items      []ProductDTO
	capturedAt time.Time
}

// Cache is a TTL-bound read cache with one list slot and a per-id map.
// A zero TTL disables it entirely. Safe for concurrent use.
type Cache struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	list  *listEntry
	items map[int64]cacheEntry
}

// NewCache builds a cache with the given TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[int64]cacheEntry),
	}
}

func (c *Cache) fresh(capturedAt time.Time) bool {
	return c.now().Sub(capturedAt) < c.ttl
}

// GetList returns the cached list snapshot if still fresh.
func (c *Cache) GetList() ([]ProductDTO, bool) {
	if c == nil || c.ttl <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.list == nil || !c.fresh(c.list.capturedAt) {
		return nil, false
	}
	out := make([]ProductDTO, len(c.list.items))
	copy(out, c.list.items)
	return out, true
}

// PutList replaces the list slot and restamps every contained item so that
// per-id reads benefit from a fresh list immediately.
func (c *Cache) PutList(items []ProductDTO) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot := make([]ProductDTO, len(items))
	copy(snapshot, items)
	stamp := c.now()
	c.list = &listEntry{items: snapshot, capturedAt: stamp}
	for _, item := range snapshot {
		c.items[item.ID] = cacheEntry{item: item, capturedAt: stamp}
	}
}

// GetItem returns the cached product for id if still fresh.
func (c *Cache) GetItem(id int64) (*ProductDTO, bool) {
	if c == nil || c.ttl <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.items[id]
	if !ok || !c.fresh(entry.capturedAt) {
		return nil, false
	}
	item := entry.item
	return &item, true
}

// PutItem stamps a single product.
func (c *Cache) PutItem(item ProductDTO) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[item.ID] = cacheEntry{item: item, capturedAt: c.now()}
}

// Invalidate drops the entry for id and unconditionally clears the list
// slot, since one item changing can change aggregate list data.
func (c *Cache) Invalidate(id int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
	c.list = nil
}

// InvalidateAll clears everything.
func (c *Cache) InvalidateAll() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list = nil
	c.items = make(map[int64]cacheEntry)
}
