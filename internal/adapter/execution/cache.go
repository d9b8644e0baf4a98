package execution

import (
	"time"

	lru "github.com/hashicorp/golang-lru"

	"onchain_yield_api/internal/domain"
)

// APYCache keeps converted APY values per reserve for a fixed TTL.
type APYCache struct {
	lruCache *lru.Cache
	ttl      time.Duration
	now      func() time.Time
}

type cacheEntry struct {
	apy float64
	ts  time.Time
}

func NewAPYCache(maxEntries int, ttl time.Duration) (*APYCache, error) {
	return NewAPYCacheWithClock(maxEntries, ttl, time.Now)
}

func NewAPYCacheWithClock(maxEntries int, ttl time.Duration, now func() time.Time) (*APYCache, error) {
	c, err := lru.New(maxEntries)
	if err != nil {
		return nil, err
	}
	return &APYCache{
		lruCache: c,
		ttl:      ttl,
		now:      now,
	}, nil
}

// Get returns the value only while it is younger than the TTL.
func (c *APYCache) Get(key domain.ReserveKey) (float64, bool) {
	raw, ok := c.lruCache.Get(key)
	if !ok {
		return 0, false
	}
	e := raw.(cacheEntry)
	if c.now().Sub(e.ts) >= c.ttl {
		c.lruCache.Remove(key)
		return 0, false
	}
	return e.apy, true
}

func (c *APYCache) Add(key domain.ReserveKey, apy float64) {
	c.lruCache.Add(key, cacheEntry{
		apy: apy,
		ts:  c.now(),
	})
}
