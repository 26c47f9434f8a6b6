package history

import (
	"context"
	"sync"
)

// MemoryCache holds history in process memory. It is lost on restart and is
// not shared between server instances.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string][]Entry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]Entry)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Entry{}, c.entries[key]...), nil
}

func (c *MemoryCache) Append(_ context.Context, key string, user, assistant Entry) ([]Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := trim(append(c.entries[key], user, assistant))
	// copy so the stored slice never aliases one handed to a caller
	stored := append(make([]Entry, 0, len(next)), next...)
	c.entries[key] = stored
	return append([]Entry{}, stored...), nil
}

// Len reports the number of keys held.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
