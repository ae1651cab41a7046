package catalog

import (
	"strings"
	"sync"
	"time"

	"peoplecatalog/internal/api/dto/v1/person"
)

// ListKey identifies one page/filter combination of the persons list.
// It is structurally comparable so it can key the cache map directly.
// Search holds the normalized (trimmed, debounced) text and Active the
// tri-state filter as "", "true" or "false".
type ListKey struct {
	Page     int
	PageSize int
	Search   string
	Active   string
}

func newListKey(page, pageSize int, search string, isActive *bool) ListKey {
	key := ListKey{
		Page:     page,
		PageSize: pageSize,
		Search:   strings.TrimSpace(search),
	}
	if isActive != nil {
		if *isActive {
			key.Active = "true"
		} else {
			key.Active = "false"
		}
	}
	return key
}

type cacheEntry struct {
	data      *person.PagedResponse
	fetchedAt time.Time
}

// listCache holds fetched pages keyed by ListKey. The whole cache is
// one namespace: invalidation always discards every entry, since any
// successful mutation may affect any page/filter view. The generation
// counter keeps responses that were issued before an invalidation from
// resurrecting stale entries.
type listCache struct {
	mu      sync.RWMutex
	entries map[ListKey]cacheEntry
	gen     uint64
}

func newListCache() *listCache {
	return &listCache{entries: make(map[ListKey]cacheEntry)}
}

// Get returns the cached page for key, if any.
func (c *listCache) Get(key ListKey) (*person.PagedResponse, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return entry.data, true
}

// Generation returns the current invalidation generation. Fetches
// capture it before going to the network and pass it back to Put.
func (c *listCache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// Put stores a fetched page unless the cache was invalidated after the
// fetch started.
func (c *listCache) Put(key ListKey, data *person.PagedResponse, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.entries[key] = cacheEntry{data: data, fetchedAt: time.Now()}
}

// InvalidateAll discards every cached page and bumps the generation.
func (c *listCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[ListKey]cacheEntry)
	c.gen++
}
