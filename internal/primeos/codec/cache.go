package codec

import (
	"math/big"
	"sync"
)

// Cache memoizes Decode results keyed by chunk value (its decimal
// string). A value-keyed cache remains valid even across PokeChunk,
// unlike an address-keyed cache, which would need per-address
// invalidation.
type Cache struct {
	mu sync.Mutex
	m  map[string]cacheEntry
}

type cacheEntry struct {
	decoded Decoded
	err     error
}

// NewCache returns an empty decode cache.
func NewCache() *Cache {
	return &Cache{m: make(map[string]cacheEntry)}
}

// Decode behaves like the package-level Decode but serves repeated
// chunk values from the cache instead of re-factoring them.
func (c *Cache) Decode(chunk *big.Int) (Decoded, error) {
	key := chunk.String()

	c.mu.Lock()
	if e, ok := c.m[key]; ok {
		c.mu.Unlock()
		return e.decoded, e.err
	}
	c.mu.Unlock()

	d, err := Decode(chunk)

	c.mu.Lock()
	c.m[key] = cacheEntry{decoded: d, err: err}
	c.mu.Unlock()
	return d, err
}
