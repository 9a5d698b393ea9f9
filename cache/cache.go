// Package cache implements the short-lived read cache that sits in front of the spreadsheet.
//
// Each entry holds a value and its expiry time. Expired entries are ignored on read and replaced
// on the next load. Concurrent loads of the same key are coalesced so that a burst of page renders
// results in a single spreadsheet read.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry struct {
	value   any
	expires time.Time
}

type Cache struct {
	guard      sync.RWMutex
	entries    map[string]entry
	generation uint64
	group      singleflight.Group
	now        func() time.Time
}

func NewCache() *Cache {
	return &Cache{
		entries: map[string]entry{},
		now:     time.Now,
	}
}

// WithClock replaces the cache time source. Intended for tests.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.guard.Lock()
	defer c.guard.Unlock()

	c.now = now

	return c
}

// Get returns the cached value for key if it has not expired.
func (c *Cache) Get(key string) (any, bool) {
	c.guard.RLock()
	defer c.guard.RUnlock()

	if e, ok := c.entries[key]; ok && c.now().Before(e.expires) {
		return e.value, true
	}

	return nil, false
}

// Put stores a value that expires after ttl. A zero or negative ttl is a no-op.
func (c *Cache) Put(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	c.guard.Lock()
	defer c.guard.Unlock()

	c.entries[key] = entry{
		value:   value,
		expires: c.now().Add(ttl),
	}
}

// Clear discards every entry. Loads that are in flight when Clear is called do not store their
// results.
func (c *Cache) Clear() {
	c.guard.Lock()
	defer c.guard.Unlock()

	c.entries = map[string]entry{}
	c.generation++
}

func (c *Cache) Size() int {
	c.guard.RLock()
	defer c.guard.RUnlock()

	return len(c.entries)
}

// Fetch returns the cached value for key or calls load, caching its result for ttl. Concurrent
// callers for the same key share a single call to load, which runs with a context that is not
// cancelled when any one caller is. Each caller returns early with ctx.Err() if its own context is
// cancelled first. Errors are not cached.
func Fetch[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var zero T

	if v, ok := c.Get(key); ok {
		if t, ok := v.(T); ok {
			return t, nil
		}
	}

	shared := context.WithoutCancel(ctx)

	ch := c.group.DoChan(key, func() (any, error) {
		c.guard.RLock()
		generation := c.generation
		c.guard.RUnlock()

		t, err := load(shared)
		if err != nil {
			return nil, err
		}

		c.guard.Lock()
		if c.generation == generation && ttl > 0 {
			c.entries[key] = entry{
				value:   t,
				expires: c.now().Add(ttl),
			}
		}
		c.guard.Unlock()

		return t, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()

	case result := <-ch:
		if result.Err != nil {
			return zero, result.Err
		}

		return result.Val.(T), nil
	}
}
