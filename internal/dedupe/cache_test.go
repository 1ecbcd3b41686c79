// ABOUTME: Tests for the submission dedupe cache
// ABOUTME: Covers TTL expiry, size limits, pruning and concurrent use

package dedupe

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// has reports whether key was marked within the TTL, without marking it.
func (c *Cache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.seen[key]
	return ok && c.live(elem)
}

// size returns the number of keys held, expired or not.
func (c *Cache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(ttl time.Duration, size int) (*Cache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	return New(ttl, size, WithClock(clock.now)), clock
}

func TestCheckAndMark(t *testing.T) {
	cache, _ := newTestCache(time.Minute, 10)

	assert.False(t, cache.has("a"))
	assert.False(t, cache.CheckAndMark("a"), "first sighting is not a duplicate")
	assert.True(t, cache.CheckAndMark("a"))
	assert.True(t, cache.has("a"))
	assert.False(t, cache.has("b"))
}

func TestExpiry(t *testing.T) {
	cache, clock := newTestCache(time.Minute, 10)

	cache.CheckAndMark("a")
	clock.advance(59 * time.Second)
	assert.True(t, cache.has("a"))

	clock.advance(time.Second)
	assert.False(t, cache.has("a"))
	assert.False(t, cache.CheckAndMark("a"), "expired keys can be used again")
	assert.True(t, cache.has("a"))
}

func TestPruneOnWrite(t *testing.T) {
	cache, clock := newTestCache(time.Minute, 10)

	cache.CheckAndMark("a")
	cache.CheckAndMark("b")
	clock.advance(2 * time.Minute)
	cache.CheckAndMark("c")

	assert.Equal(t, 1, cache.size())
}

func TestEvictsOldestAtCapacity(t *testing.T) {
	cache, clock := newTestCache(time.Hour, 3)

	for _, k := range []string{"a", "b", "c", "d"} {
		cache.CheckAndMark(k)
		clock.advance(time.Second)
	}

	assert.Equal(t, 3, cache.size())
	assert.False(t, cache.has("a"))
	for _, k := range []string{"b", "c", "d"} {
		assert.True(t, cache.has(k), k)
	}
}

func TestRemarkAfterExpiryMovesToBack(t *testing.T) {
	cache, clock := newTestCache(time.Minute, 2)

	cache.CheckAndMark("a")
	clock.advance(2 * time.Minute)
	cache.CheckAndMark("a")
	cache.CheckAndMark("b")
	cache.CheckAndMark("c")

	assert.False(t, cache.has("a"))
	assert.True(t, cache.has("b"))
	assert.True(t, cache.has("c"))
}

func TestConcurrentCheckAndMark(t *testing.T) {
	cache := New(time.Minute, 1000)

	var fresh atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if !cache.CheckAndMark(fmt.Sprintf("k%d", j)) {
					fresh.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(20), fresh.Load(), "each key is new exactly once")
}
