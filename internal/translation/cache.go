// apps/go-server/internal/translation/cache.go
//
// Caches for translated content, keyed by content type, content id and language.
// The cache is always passed in explicitly so tests (and multiple servers) can
// control and reset it; nothing here is package-global.

package translation

import (
	"context"
	"strings"
	"sync"
)

// Key identifies one translated piece of content.
type Key struct {
	ContentType string `json:"contentType"`
	ContentID   string `json:"contentId"`
	Lang        string `json:"lang"`
}

// String renders the key as "type:id:lang".
func (k Key) String() string {
	return strings.Join([]string{k.ContentType, k.ContentID, k.Lang}, ":")
}

// Cache is the read-through cache used by Service.
type Cache interface {
	Get(ctx context.Context, k Key) (string, bool, error)
	Set(ctx context.Context, k Key, body string) error
	Invalidate(ctx context.Context, k Key) error
}

// DefaultMemoryCapacity bounds MemoryCache when no capacity is given.
const DefaultMemoryCapacity = 4096

// MemoryCache is a bounded in-process map. Once full, new keys are simply not
// cached; existing keys keep updating.
type MemoryCache struct {
	mu       sync.RWMutex
	capacity int
	entries  map[string]string
}

// NewMemoryCache builds a MemoryCache holding at most capacity entries.
func NewMemoryCache(capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryCache{capacity: capacity, entries: make(map[string]string)}
}

func (c *MemoryCache) Get(_ context.Context, k Key) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[k.String()]
	return v, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, k Key, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := k.String()
	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.capacity {
		return nil
	}
	c.entries[key] = body
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, k Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, k.String())
	return nil
}

// Len reports the number of cached entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Reset drops every entry.
func (c *MemoryCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]string)
}
