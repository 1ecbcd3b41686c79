// ABOUTME: Thread-safe TTL cache of submission ids
// ABOUTME: Used by the web UI to drop repeated posts of the same task form

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

type entry struct {
	key    string
	seenAt time.Time
}

// Cache is a size-limited set of keys that expire after a TTL. Expired keys
// are pruned on write, so there is no background goroutine to stop.
// Insertion order is kept in a list for O(1) eviction of the oldest key.
type Cache struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List // oldest at front
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New returns a cache holding at most maxSize keys for ttl each.
func New(ttl time.Duration, maxSize int, opts ...Option) *Cache {
	if maxSize < 1 {
		maxSize = 1
	}
	c := &Cache{
		seen:    make(map[string]*list.Element),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckAndMark atomically checks key and marks it if it is new. It returns
// true when key is a duplicate.
func (c *Cache) CheckAndMark(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.seen[key]; ok && c.live(elem) {
		return true
	}
	c.markLocked(key)
	return false
}

func (c *Cache) live(elem *list.Element) bool {
	e, _ := elem.Value.(*entry)
	return c.now().Sub(e.seenAt) < c.ttl
}

// markLocked must be called with mu held.
func (c *Cache) markLocked(key string) {
	now := c.now()

	if elem, ok := c.seen[key]; ok {
		c.order.Remove(elem)
		delete(c.seen, key)
	}
	c.pruneLocked(now)
	for c.order.Len() >= c.maxSize {
		c.removeLocked(c.order.Front())
	}

	c.seen[key] = c.order.PushBack(&entry{key: key, seenAt: now})
}

// pruneLocked drops expired keys from the front of the list. Keys are
// appended in time order, so it stops at the first live one.
func (c *Cache) pruneLocked(now time.Time) {
	for front := c.order.Front(); front != nil; front = c.order.Front() {
		e, _ := front.Value.(*entry)
		if now.Sub(e.seenAt) < c.ttl {
			return
		}
		c.removeLocked(front)
	}
}

func (c *Cache) removeLocked(elem *list.Element) {
	e, _ := elem.Value.(*entry)
	c.order.Remove(elem)
	delete(c.seen, e.key)
}
