package pdf

import (
	"container/list"
	"os"
	"sync"
	"time"
)

// DocumentCache keeps the most recently read documents so repeated tool calls
// on the same file parse it once. An entry is only served while the file's
// size and modification time are unchanged. A nil cache is valid and never hits.
type DocumentCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front is most recently used
	entries  map[string]*list.Element
	hits     int64
	misses   int64
}

type cacheEntry struct {
	path       string
	size       int64
	modTime    time.Time
	extraction *DocumentExtraction
}

func (e *cacheEntry) matches(info os.FileInfo) bool {
	return e.size == info.Size() && e.modTime.Equal(info.ModTime())
}

// CacheStats provides statistics about cache performance
type CacheStats struct {
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Size     int   `json:"current_size"`
	Capacity int   `json:"max_capacity"`
}

// NewDocumentCache returns a cache holding up to capacity documents, or nil when capacity is not positive
func NewDocumentCache(capacity int) *DocumentCache {
	if capacity <= 0 {
		return nil
	}
	return &DocumentCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element, capacity),
	}
}

// Get returns the cached extraction of path if info still matches it.
// A stale entry is dropped and counted as a miss.
func (c *DocumentCache) Get(path string, info os.FileInfo) (*DocumentExtraction, bool) {
	if c == nil || info == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[path]
	if ok && !elem.Value.(*cacheEntry).matches(info) {
		c.order.Remove(elem)
		delete(c.entries, path)
		ok = false
	}
	if !ok {
		c.misses++
		return nil, false
	}

	c.order.MoveToFront(elem)
	c.hits++
	return elem.Value.(*cacheEntry).extraction, true
}

// Put stores the extraction of path under the fingerprint in info
func (c *DocumentCache) Put(path string, info os.FileInfo, extraction *DocumentExtraction) {
	if c == nil || info == nil || extraction == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &cacheEntry{path: path, size: info.Size(), modTime: info.ModTime(), extraction: extraction}
	if elem, ok := c.entries[path]; ok {
		elem.Value = entry
		c.order.MoveToFront(elem)
		return
	}

	c.entries[path] = c.order.PushFront(entry)
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).path)
	}
}

// Len returns the number of cached documents
func (c *DocumentCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns cache statistics
func (c *DocumentCache) Stats() CacheStats {
	if c == nil {
		return CacheStats{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Hits: c.hits, Misses: c.misses, Size: c.order.Len(), Capacity: c.capacity}
}
