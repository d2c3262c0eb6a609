package apiclient

import "sync"

// Cache holds GET response bodies grouped by bucket, the collection path a
// response came from (for example "/api/packages"). Invalidating a bucket
// drops every cached query under it. It implements realtime.Invalidator.
//
// Each bucket carries a generation bumped on invalidation. A fetch records
// the generation on its miss and put drops the body if it moved, so a
// response read before an invalidation never lands in the cache.
type Cache struct {
	mu      sync.Mutex
	buckets map[string]map[string][]byte
	gens    map[string]uint64
	hits    int
	misses  int
}

func NewCache() *Cache {
	return &Cache{
		buckets: make(map[string]map[string][]byte),
		gens:    make(map[string]uint64),
	}
}

// get returns the cached body, or on a miss the bucket generation to hand
// back to put.
func (c *Cache) get(bucket, key string) ([]byte, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.buckets[bucket][key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return b, c.gens[bucket], ok
}

// put stores body unless bucket was invalidated since gen was read.
func (c *Cache) put(bucket, key string, gen uint64, body []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[bucket] != gen {
		return false
	}
	m, ok := c.buckets[bucket]
	if !ok {
		m = make(map[string][]byte)
		c.buckets[bucket] = m
	}
	m[key] = body
	return true
}

// Invalidate drops every cached response in bucket.
func (c *Cache) Invalidate(bucket string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.buckets, bucket)
	c.gens[bucket]++
}

// Stats reports cache hits and misses since creation.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
