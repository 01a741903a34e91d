package geo

import (
	"fmt"
	"sync"
)

// Cached wraps an Index with a thread-safe LRU keyed by quantized
// coordinates. Storm reports repeat observing-station coordinates heavily,
// so batch runs hit the cache far more often than the underlying engine.
// Quantizing to 1e-6 degrees (about 11 cm on the ground) means two points
// within that tolerance of each other share a result; with candidate cities
// tens of kilometers apart that is far below any distance that decides a
// match.
type Cached struct {
	inner    Index
	cache    *lruCache
	onLookup func(hit bool)
}

// NewCached creates a cache decorator around an index. onLookup, when
// non-nil, is invoked once per query with the cache outcome; callers use it
// to feed hit/miss metrics.
func NewCached(inner Index, maxEntries int, onLookup func(hit bool)) *Cached {
	return &Cached{
		inner:    inner,
		cache:    newLRUCache(maxEntries),
		onLookup: onLookup,
	}
}

func (c *Cached) Len() int { return c.inner.Len() }

func (c *Cached) Nearest(p Point) (Result, error) {
	if err := validateQuery(p); err != nil {
		return Result{}, err
	}

	key := fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lon)
	if result, ok := c.cache.get(key); ok {
		c.record(true)
		return result, nil
	}
	c.record(false)

	result, err := c.inner.Nearest(p)
	if err != nil {
		return result, err
	}
	c.cache.put(key, result)
	return result, nil
}

func (c *Cached) record(hit bool) {
	if c.onLookup != nil {
		c.onLookup(hit)
	}
}

// lruCache is a simple thread-safe LRU cache for nearest-lookup results.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value Result
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Result{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
