package store

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedStore is a write-through LRU read cache in front of another
// Store, for hot records. Shaped after staker/state_provider.go's
// historyCache field (a read-through cache over a slower backend),
// though this domain caches challenge records rather than history
// commitments.
type CachedStore struct {
	backend Store
	cache   *lru.Cache[string, []byte]
}

// NewCachedStore wraps backend with an LRU cache holding up to size
// entries.
func NewCachedStore(backend Store, size int) (*CachedStore, error) {
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &CachedStore{backend: backend, cache: cache}, nil
}

func (c *CachedStore) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	if v, ok := c.cache.Get(string(key)); ok {
		return v, true, nil
	}
	v, ok, err := c.backend.Get(ctx, key)
	if err != nil || !ok {
		return v, ok, err
	}
	c.cache.Add(string(key), v)
	return v, true, nil
}

func (c *CachedStore) Set(ctx context.Context, key []byte, value []byte) error {
	if err := c.backend.Set(ctx, key, value); err != nil {
		return err
	}
	c.cache.Add(string(key), value)
	return nil
}

func (c *CachedStore) Delete(ctx context.Context, key []byte) error {
	if err := c.backend.Delete(ctx, key); err != nil {
		return err
	}
	c.cache.Remove(string(key))
	return nil
}

func (c *CachedStore) Mutate(ctx context.Context, key []byte, fn MutateFunc) error {
	// The backend owns the transactional read-modify-write; the cache
	// is only ever updated after a successful commit, so a failed
	// mutate never leaves a stale cache entry ahead of the backend.
	var result struct {
		value []byte
		del   bool
	}
	wrapped := func(value []byte, exists bool) ([]byte, bool, error) {
		newValue, del, err := fn(value, exists)
		if err != nil {
			return nil, false, err
		}
		result.value, result.del = newValue, del
		return newValue, del, nil
	}
	if err := c.backend.Mutate(ctx, key, wrapped); err != nil {
		return err
	}
	if result.del {
		c.cache.Remove(string(key))
		return nil
	}
	c.cache.Add(string(key), result.value)
	return nil
}

func (c *CachedStore) IterPrefix(ctx context.Context, prefix []byte, fn func(key, value []byte) error) error {
	// Prefix scans always go to the backend: the cache is a point
	// lookup accelerator, not a secondary index.
	return c.backend.IterPrefix(ctx, prefix, fn)
}
