package metamodel

import (
	"sync"

	"github.com/bitechdev/MetaSpec/pkg/logger"
)

// Cleanup clears a cache when the owning container shuts down.
type Cleanup struct {
	cache *Cache
	once  sync.Once
}

// NewCleanup returns the shutdown hook for cache; nil means the process-wide cache.
func NewCleanup(cache *Cache) *Cleanup {
	if cache == nil {
		cache = Default()
	}
	return &Cleanup{cache: cache}
}

// Destroy clears the cache. Only the first call has an effect.
func (c *Cleanup) Destroy() error {
	c.once.Do(func() {
		logger.Debug("metamodel: clearing %d cached views on shutdown", c.cache.Len())
		c.cache.Clear()
	})
	return nil
}
