package cache

import (
	"sync"

	"item-appraiser/internal/pattern"

	"github.com/golang/groupcache/lru"
	"github.com/rs/zerolog/log"
)

// DefaultSize is the number of compiled patterns kept when no size is configured.
const DefaultSize = 4096

// PatternCache memoizes compiled mod templates, keyed by code template.
// It is bounded; the least recently used pattern is evicted first.
type PatternCache struct {
	mu     sync.Mutex
	lru    *lru.Cache
	hits   int
	misses int
}

// NewPatternCache creates a cache holding at most size patterns.
func NewPatternCache(size int) *PatternCache {
	if size <= 0 {
		size = DefaultSize
	}
	c := &PatternCache{lru: lru.New(size)}
	c.lru.OnEvicted = func(key lru.Key, _ any) {
		log.Debug().Interface("template", key).Msg("Evicted compiled pattern")
	}
	return c
}

// Get returns the compiled pattern for code, compiling it on first use.
// Compilation errors are not cached.
func (c *PatternCache) Get(code string) (*pattern.Pattern, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.lru.Get(code); ok {
		c.hits++
		return v.(*pattern.Pattern), nil
	}
	c.misses++

	p, err := pattern.Compile(code)
	if err != nil {
		return nil, err
	}
	c.lru.Add(code, p)
	return p, nil
}

// Len returns the number of cached patterns.
func (c *PatternCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Stats returns hit and miss counters since creation.
func (c *PatternCache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
