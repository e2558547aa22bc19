package imgscan

import (
	"fmt"
	"time"

	"github.com/tidwall/btree"

	"github.com/ericlevine/barscan"
)

// CacheParams tune the inter-frame result cache.
type CacheParams struct {
	// Consistency is the number of nearby sightings needed before a
	// result is confirmed.
	Consistency int
	// Proximity is the largest gap between sightings that still counts
	// as nearby.
	Proximity time.Duration
	// Hysteresis is the gap after which a confirmed result is reported
	// again as new.
	Hysteresis time.Duration
	// Timeout is the idle time after which an entry is dropped.
	Timeout time.Duration
}

// DefaultCacheParams returns the cache tuning used by New.
func DefaultCacheParams() CacheParams {
	return CacheParams{
		Consistency: 3,
		Proximity:   time.Second,
		Hysteresis:  2 * time.Second,
		Timeout:     4 * time.Second,
	}
}

// Validate checks that the windows are ordered.
func (p CacheParams) Validate() error {
	switch {
	case p.Consistency < 1:
		return fmt.Errorf("%w: cache consistency %d", barscan.ErrInvalidConfig, p.Consistency)
	case p.Proximity <= 0 || p.Proximity > p.Hysteresis:
		return fmt.Errorf("%w: cache proximity %v must be positive and at most the hysteresis %v",
			barscan.ErrInvalidConfig, p.Proximity, p.Hysteresis)
	case p.Timeout < p.Hysteresis:
		return fmt.Errorf("%w: cache timeout %v below hysteresis %v", barscan.ErrInvalidConfig, p.Timeout, p.Hysteresis)
	}
	return nil
}

type cacheKey struct {
	typ  barscan.Type
	data string
}

type cacheEntry struct {
	key   cacheKey
	last  time.Time
	seq   uint64
	count int
}

// cache tracks results across images. Entries are indexed by result and
// ordered by the time they were last seen, oldest first.
type cache struct {
	params  CacheParams
	entries map[cacheKey]*cacheEntry
	byAge   *btree.BTreeG[*cacheEntry]
	seq     uint64
}

func newCache(p CacheParams) *cache {
	return &cache{
		params:  p,
		entries: make(map[cacheKey]*cacheEntry),
		byAge: btree.NewBTreeG(func(a, b *cacheEntry) bool {
			if !a.last.Equal(b.last) {
				return a.last.Before(b.last)
			}
			return a.seq < b.seq
		}),
	}
}

func (c *cache) len() int {
	return len(c.entries)
}

// expire drops every entry idle for longer than the timeout.
func (c *cache) expire(now time.Time) {
	for {
		e, ok := c.byAge.Min()
		if !ok || now.Sub(e.last) <= c.params.Timeout {
			return
		}
		c.byAge.Delete(e)
		delete(c.entries, e.key)
	}
}

// sighting records a result seen at now and returns its consistency
// count: negative while unverified, 0 when it becomes confirmed and
// positive for every later duplicate.
func (c *cache) sighting(now time.Time, typ barscan.Type, data []byte) int {
	c.expire(now)

	key := cacheKey{typ: typ, data: string(data)}
	e, ok := c.entries[key]
	if !ok {
		e = &cacheEntry{key: key, last: now, count: -c.params.Consistency}
		c.entries[key] = e
	} else {
		c.byAge.Delete(e)
	}

	age := now.Sub(e.last)
	near := age < c.params.Proximity
	far := age >= c.params.Hysteresis
	dup := e.count >= 0
	if far || (!dup && !near) {
		e.count = -c.params.Consistency
	} else {
		e.count++
	}

	e.last = now
	c.seq++
	e.seq = c.seq
	c.byAge.Set(e)
	return e.count
}
