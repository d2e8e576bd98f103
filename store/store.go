// Package store abstracts keyed storage: a capability with
// get/mutate/remove/iter_prefix over composite byte keys. A concrete
// backend may be a persistent key-value engine (BadgerStore), an
// LRU-cached wrapper over one (CachedStore), or an in-memory map
// (MemStore).
package store

import "context"

// MutateFunc inspects the current value (and whether it existed) and
// returns the new value to persist plus whether the key should be
// deleted instead. Mutate applies it as a single read-modify-write
// critical section.
type MutateFunc func(value []byte, exists bool) (newValue []byte, del bool, err error)

// Store is a byte-oriented key-value capability over composite keys.
type Store interface {
	// Get returns the stored value, or ok=false if the key is absent.
	Get(ctx context.Context, key []byte) (value []byte, ok bool, err error)

	// Set unconditionally writes value at key.
	Set(ctx context.Context, key []byte, value []byte) error

	// Delete removes key, no-op if absent.
	Delete(ctx context.Context, key []byte) error

	// Mutate performs a read-modify-write on key.
	Mutate(ctx context.Context, key []byte, fn MutateFunc) error

	// IterPrefix calls fn for every (key, value) pair whose key has the
	// given prefix. Iteration stops on the first error fn returns.
	IterPrefix(ctx context.Context, prefix []byte, fn func(key, value []byte) error) error
}
