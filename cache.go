// FILE: lixenwraith/namespace/cache.go
package namespace

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Identity captures every input that affects a built tree. Two roots built
// from equal identities are interchangeable.
type Identity struct {
	// Root is the location the primary source was read from
	Root string
	// Delimiter used to split flat keys
	Delimiter string
	// Shared separates shared roots from private ones at the same location
	Shared bool
	// Policy applied between sources
	Policy MergePolicy
	// Sources names the additional sources in load order
	Sources string
	// FactoryAttributes lists the extra attribute names naming converters
	FactoryAttributes string
	// Registry resolves types and converters; nil means a default registry
	Registry *Registry
}

// String returns a stable key for the identity. Text fields are quoted so
// distinct identities never print alike.
func (id Identity) String() string {
	return fmt.Sprintf("%q|%q|%t|%q|%q|%q|%p",
		id.Root, id.Delimiter, id.Shared, id.Policy.String(), id.Sources, id.FactoryAttributes, id.Registry)
}

// Cache maps identities to built roots so repeated construction against the
// same sources reuses one tree. Concurrent requests for the same identity
// trigger a single build; failed builds are not cached.
type Cache struct {
	mu     sync.RWMutex
	roots  map[Identity]*Node
	group  singleflight.Group
	logger *zap.Logger

	// gen advances on Invalidate and Reset; a build started under an older
	// generation is returned to its callers but not stored.
	gen uint64
}

// CacheOption customizes a Cache.
type CacheOption func(*Cache)

// WithCacheLogger sets the logger used for build and eviction events.
func WithCacheLogger(logger *zap.Logger) CacheOption {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCache creates an empty cache. A cache lives as long as the caller
// keeps it; share one instance between builders to share roots.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		roots:  make(map[Identity]*Node),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the root cached under id.
func (c *Cache) Get(id Identity) (*Node, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	root, ok := c.roots[id]
	return root, ok
}

// GetOrBuild returns the root cached under id, calling build at most once
// across concurrent callers when it is absent. An error from build is
// returned to every waiting caller and nothing is cached.
func (c *Cache) GetOrBuild(id Identity, build func() (*Node, error)) (*Node, error) {
	c.mu.RLock()
	root, ok := c.roots[id]
	gen := c.gen
	c.mu.RUnlock()
	if ok {
		c.logger.Debug("shared root reused", zap.Stringer("identity", id))
		return root, nil
	}

	key := fmt.Sprintf("%d|%s", gen, id)
	v, err, _ := c.group.Do(key, func() (any, error) {
		// A flight that finished just before ours may have stored it
		if root, ok := c.Get(id); ok {
			return root, nil
		}

		root, err := build()
		if err != nil {
			c.logger.Debug("shared root build failed",
				zap.Stringer("identity", id),
				zap.Error(err))
			return nil, err
		}

		c.mu.Lock()
		stale := c.gen != gen
		if !stale {
			c.roots[id] = root
		}
		c.mu.Unlock()

		if stale {
			c.logger.Debug("shared root built after eviction, not stored", zap.Stringer("identity", id))
		} else {
			c.logger.Debug("shared root built", zap.Stringer("identity", id))
		}
		return root, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Node), nil
}

// Invalidate drops the root cached under id. Holders of the old root keep
// using it; the next GetOrBuild rebuilds. Builds in flight are not stored.
func (c *Cache) Invalidate(id Identity) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if _, ok := c.roots[id]; !ok {
		return false
	}
	delete(c.roots, id)
	c.logger.Debug("shared root invalidated", zap.Stringer("identity", id))
	return true
}

// Reset drops every cached root. Builds in flight are not stored.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	n := len(c.roots)
	c.roots = make(map[Identity]*Node)
	c.logger.Info("shared root cache reset", zap.Int("dropped", n))
}

// Len returns the number of cached roots.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.roots)
}
