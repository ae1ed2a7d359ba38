// Package cache holds encoded query results in a bounded, expiring LRU.
package cache

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

// Observer is told about every lookup.
type Observer interface {
	ObserveCacheLookup(hit bool)
}

// ResultCache is a concurrent-safe LRU cache of encoded results with TTL
// expiration. Concurrent loads of the same key are coalesced.
type ResultCache struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List // front = most recently used
	maxEntries int
	ttl        time.Duration
	clock      clockwork.Clock
	observer   Observer
	loads      singleflight.Group
	hits       atomic.Int64
	misses     atomic.Int64
}

type entry struct {
	key       string
	data      []byte
	createdAt time.Time
}

// Stats contains cache performance statistics.
type Stats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
}

// Option configures a ResultCache.
type Option func(*ResultCache)

// WithClock replaces the wall clock, for tests.
func WithClock(c clockwork.Clock) Option {
	return func(rc *ResultCache) { rc.clock = c }
}

// WithObserver registers a lookup observer.
func WithObserver(o Observer) Option {
	return func(rc *ResultCache) { rc.observer = o }
}

// New creates a ResultCache holding at most maxEntries results for ttl.
func New(maxEntries int, ttl time.Duration, opts ...Option) *ResultCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	c := &ResultCache{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		maxEntries: maxEntries,
		ttl:        ttl,
		clock:      clockwork.NewRealClock(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Key joins the parts of a request into a cache key. Parts are lowercased
// so that region spellings differing only in case share an entry.
func Key(parts ...string) string {
	norm := make([]string, len(parts))
	for i, p := range parts {
		norm[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return strings.Join(norm, "|")
}

// Get returns a cached result, or nil on miss or expiration.
func (c *ResultCache) Get(key string) []byte {
	c.mu.Lock()
	data, ok := c.get(key)
	c.mu.Unlock()

	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	if c.observer != nil {
		c.observer.ObserveCacheLookup(ok)
	}
	return data
}

func (c *ResultCache) get(key string) ([]byte, bool) {
	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	e := el.Value.(*entry)
	if c.clock.Since(e.createdAt) > c.ttl {
		c.order.Remove(el)
		delete(c.entries, key)
		return nil, false
	}
	c.order.MoveToFront(el)
	return e.data, true
}

// Put stores a result, evicting the least recently used entry at capacity.
func (c *ResultCache) Put(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if el, ok := c.entries[key]; ok {
		e := el.Value.(*entry)
		e.data, e.createdAt = data, now
		c.order.MoveToFront(el)
		return
	}
	for c.order.Len() >= c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry).key)
	}
	c.entries[key] = c.order.PushFront(&entry{key: key, data: data, createdAt: now})
}

// GetOrLoad returns the cached result for key, or runs load once across
// concurrent callers and caches its result. Errors are not cached.
func (c *ResultCache) GetOrLoad(key string, load func() ([]byte, error)) ([]byte, error) {
	return c.GetOrLoadContext(context.Background(), key, func(context.Context) ([]byte, error) {
		return load()
	})
}

// GetOrLoadContext is GetOrLoad with a context. The shared load runs on a
// copy of ctx that is never canceled, so one caller giving up does not fail
// the others waiting on the same key; each caller still returns as soon as
// its own ctx is done. Loads must bound their own running time.
func (c *ResultCache) GetOrLoadContext(ctx context.Context, key string, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if data := c.Get(key); data != nil {
		return data, nil
	}
	detached := context.WithoutCancel(ctx)
	ch := c.loads.DoChan(key, func() (any, error) {
		data, err := load(detached)
		if err != nil {
			return nil, err
		}
		c.Put(key, data)
		return data, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// Stats returns cache performance statistics.
func (c *ResultCache) Stats() Stats {
	c.mu.Lock()
	entries := c.order.Len()
	c.mu.Unlock()

	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return Stats{
		Entries:    entries,
		MaxEntries: c.maxEntries,
		Hits:       hits,
		Misses:     misses,
		HitRate:    hitRate,
	}
}
