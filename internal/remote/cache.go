package remote

import (
	"github.com/dgraph-io/ristretto/v2"

	"github.com/geovcs/geovcs/internal/objectstore"
	"github.com/geovcs/geovcs/internal/objhash"
)

// CachedWrapper decorates a Wrapper with an in-process object cache, so
// that fetching a deep history doesn't re-request a commit's parent
// objects once they've already crossed the wire in the same session —
// grounded in the teacher's pkg/cache, which wraps the same ristretto
// library for query-result caching.
type CachedWrapper struct {
	Wrapper
	cache *ristretto.Cache[string, *objectstore.Object]
}

// DefaultCacheCost bounds the cache's accounted cost (roughly: average
// object size in bytes, times the number of objects it should hold).
const DefaultCacheCost = 64 << 20 // 64MiB

// NewCachedWrapper wraps w with a bounded object cache.
func NewCachedWrapper(w Wrapper) (*CachedWrapper, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, *objectstore.Object]{
		NumCounters: 1e6,
		MaxCost:     DefaultCacheCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &CachedWrapper{Wrapper: w, cache: cache}, nil
}

// Close releases the cache's background goroutines.
func (c *CachedWrapper) Close() {
	c.cache.Close()
}

// GetObject overrides Wrapper.GetObject with a cache lookup in front of
// the decorated wrapper.
func (c *CachedWrapper) GetObject(id objhash.ObjectId) (*objectstore.Object, error) {
	if obj, ok := c.cache.Get(id.String()); ok {
		return obj, nil
	}
	obj, err := c.Wrapper.GetObject(id)
	if err != nil {
		return nil, err
	}
	c.cache.Set(id.String(), obj, int64(len(obj.Data)))
	return obj, nil
}
