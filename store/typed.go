package store

import (
	"bytes"
	"context"

	"github.com/ethereum/go-ethereum/rlp"
)

// Typed wraps a Store to transparently RLP-encode/decode values of
// type T, the same canonical-encoding idiom the rest of this module
// uses for on-chain-flavored identifiers and hashes.
type Typed[T any] struct {
	backend Store
	prefix  []byte
}

// NewTyped returns a Typed accessor over backend whose keys are all
// prefixed by prefix (e.g. a collection name), so distinct typed
// collections sharing one Store never collide.
func NewTyped[T any](backend Store, prefix string) Typed[T] {
	return Typed[T]{backend: backend, prefix: []byte(prefix)}
}

func (t Typed[T]) key(parts ...[]byte) []byte {
	key := make([]byte, 0, len(t.prefix)+64)
	key = append(key, t.prefix...)
	for _, p := range parts {
		key = append(key, p...)
	}
	return key
}

// Get decodes the value stored under the composite key formed by
// parts, reporting ok=false if absent.
func (t Typed[T]) Get(ctx context.Context, parts ...[]byte) (T, bool, error) {
	var zero T
	raw, ok, err := t.backend.Get(ctx, t.key(parts...))
	if err != nil || !ok {
		return zero, ok, err
	}
	var v T
	if err := rlp.DecodeBytes(raw, &v); err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// Set RLP-encodes value and stores it under parts.
func (t Typed[T]) Set(ctx context.Context, value T, parts ...[]byte) error {
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return t.backend.Set(ctx, t.key(parts...), raw)
}

// Delete removes the value stored under parts.
func (t Typed[T]) Delete(ctx context.Context, parts ...[]byte) error {
	return t.backend.Delete(ctx, t.key(parts...))
}

// MutateFunc is Typed's decoded analogue of store.MutateFunc.
type MutateFunc[T any] func(value T, exists bool) (newValue T, del bool, err error)

// Mutate performs a decode-mutate-encode read-modify-write under the
// composite key formed by parts.
func (t Typed[T]) Mutate(ctx context.Context, fn MutateFunc[T], parts ...[]byte) error {
	return t.backend.Mutate(ctx, t.key(parts...), func(raw []byte, exists bool) ([]byte, bool, error) {
		var v T
		if exists {
			if err := rlp.DecodeBytes(raw, &v); err != nil {
				return nil, false, err
			}
		}
		newValue, del, err := fn(v, exists)
		if err != nil || del {
			return nil, del, err
		}
		out, err := rlp.EncodeToBytes(newValue)
		if err != nil {
			return nil, false, err
		}
		return out, false, nil
	})
}

// IterPrefix decodes every value whose key starts with t.prefix+prefix.
func (t Typed[T]) IterPrefix(ctx context.Context, prefix []byte, fn func(key []byte, value T) error) error {
	full := t.key(prefix)
	return t.backend.IterPrefix(ctx, full, func(key, raw []byte) error {
		var v T
		if err := rlp.DecodeBytes(raw, &v); err != nil {
			return err
		}
		return fn(bytes.TrimPrefix(key, t.prefix), v)
	})
}
