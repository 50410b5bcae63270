package coord

import (
	"container/list"
	"context"
	"os"
	"sync"
	"time"
)

// LocalCache is the per-process result cache: TTL expiry on read, LRU
// eviction against both a byte cap and an entry cap on write.
//
// When a catalog path is configured, each Get first checks the file's
// modification time; if it advanced since the last check, the whole cache
// is cleared. The distributed cache has no such hook and relies on TTL.
type LocalCache struct {
	mu sync.Mutex

	ttl        time.Duration
	maxBytes   int64
	maxEntries int

	entries map[string]*list.Element
	order   *list.List // front = most recently used
	bytes   int64

	watchPath  string
	watchMTime time.Time
}

type cacheEntry struct {
	key        string
	val        []byte
	insertedAt time.Time
}

// NewLocalCache builds a cache. Zero caps fall back to permissive defaults.
func NewLocalCache(ttl time.Duration, maxBytes int64, maxEntries int, watchPath string) *LocalCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if maxBytes <= 0 {
		maxBytes = 500 << 20
	}
	if maxEntries <= 0 {
		maxEntries = 100
	}
	c := &LocalCache{
		ttl:        ttl,
		maxBytes:   maxBytes,
		maxEntries: maxEntries,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		watchPath:  watchPath,
	}
	if watchPath != "" {
		if info, err := os.Stat(watchPath); err == nil {
			c.watchMTime = info.ModTime()
		}
	}
	return c
}

// Get returns the cached value for key. Expired entries miss and are
// deleted on the spot.
func (c *LocalCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.checkSourceLocked()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	ent := elem.Value.(*cacheEntry)
	if time.Since(ent.insertedAt) > c.ttl {
		c.removeLocked(elem)
		return nil, false
	}
	c.order.MoveToFront(elem)
	return ent.val, true
}

// Put inserts a value, evicting LRU entries until both caps hold. Values
// larger than a tenth of the byte cap are silently skipped.
func (c *LocalCache) Put(_ context.Context, key string, val []byte) {
	if int64(len(val)) > c.maxBytes/10 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.removeLocked(elem)
	}

	for c.order.Len() >= c.maxEntries || c.bytes+int64(len(val)) > c.maxBytes {
		back := c.order.Back()
		if back == nil {
			break
		}
		c.removeLocked(back)
	}

	elem := c.order.PushFront(&cacheEntry{key: key, val: val, insertedAt: time.Now()})
	c.entries[key] = elem
	c.bytes += int64(len(val))
}

// Clear drops every entry.
func (c *LocalCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
}

// Len returns the current entry count.
func (c *LocalCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Bytes returns the current total of stored value sizes.
func (c *LocalCache) Bytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytes
}

func (c *LocalCache) checkSourceLocked() {
	if c.watchPath == "" {
		return
	}
	info, err := os.Stat(c.watchPath)
	if err != nil {
		return
	}
	if info.ModTime().After(c.watchMTime) {
		c.watchMTime = info.ModTime()
		c.clearLocked()
	}
}

func (c *LocalCache) clearLocked() {
	c.entries = make(map[string]*list.Element)
	c.order.Init()
	c.bytes = 0
}

func (c *LocalCache) removeLocked(elem *list.Element) {
	ent := elem.Value.(*cacheEntry)
	c.order.Remove(elem)
	delete(c.entries, ent.key)
	c.bytes -= int64(len(ent.val))
}

var _ Cache = (*LocalCache)(nil)
