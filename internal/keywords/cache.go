package keywords

import "sync"

// Cache is the client-side mirror of the backend keyword store. It is
// shared-read, single-writer: only the keyword-management flow mutates it,
// and only after the backend acknowledged the mutation, so the cached id set
// is always a subset of backend state.
type Cache struct {
	mu    sync.RWMutex
	items []Keyword
}

func NewCache() *Cache {
	return &Cache{}
}

// Snapshot returns the cached keywords in insertion order.
func (c *Cache) Snapshot() []Keyword {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Keyword, len(c.items))
	copy(out, c.items)
	return out
}

// Replace seeds the cache from a full backend listing.
func (c *Cache) Replace(kws []Keyword) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make([]Keyword, len(kws))
	copy(c.items, kws)
}

func (c *Cache) Add(kw Keyword) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.items {
		if existing.ID == kw.ID {
			c.items[i] = kw
			return
		}
	}
	c.items = append(c.items, kw)
}

func (c *Cache) Remove(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.items {
		if existing.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
