package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemStoreGetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	_, ok, err := s.Get(ctx, []byte("k"))
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Set(ctx, []byte("k"), []byte("v")))
	v, ok, err := s.Get(ctx, []byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), v)

	require.NoError(t, s.Delete(ctx, []byte("k")))
	_, ok, err = s.Get(ctx, []byte("k"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemStoreMutate(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	err := s.Mutate(ctx, []byte("counter"), func(value []byte, exists bool) ([]byte, bool, error) {
		require.False(t, exists)
		return []byte{1}, false, nil
	})
	require.NoError(t, err)

	err = s.Mutate(ctx, []byte("counter"), func(value []byte, exists bool) ([]byte, bool, error) {
		require.True(t, exists)
		return []byte{value[0] + 1}, false, nil
	})
	require.NoError(t, err)

	v, ok, err := s.Get(ctx, []byte("counter"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, byte(2), v[0])
}

func TestMemStoreIterPrefix(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	require.NoError(t, s.Set(ctx, []byte("app1/a"), []byte("1")))
	require.NoError(t, s.Set(ctx, []byte("app1/b"), []byte("2")))
	require.NoError(t, s.Set(ctx, []byte("app2/a"), []byte("3")))

	var got []string
	err := s.IterPrefix(ctx, []byte("app1/"), func(key, value []byte) error {
		got = append(got, string(key))
		return nil
	})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"app1/a", "app1/b"}, got)
}

type record struct {
	Count uint64
}

func TestTypedRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := NewMemStore()
	typed := NewTyped[record](backend, "records/")

	_, ok, err := typed.Get(ctx, []byte("x"))
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, typed.Set(ctx, record{Count: 5}, []byte("x")))
	v, ok, err := typed.Get(ctx, []byte("x"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(5), v.Count)

	err = typed.Mutate(ctx, func(v record, exists bool) (record, bool, error) {
		require.True(t, exists)
		v.Count++
		return v, false, nil
	}, []byte("x"))
	require.NoError(t, err)

	v, _, _ = typed.Get(ctx, []byte("x"))
	require.Equal(t, uint64(6), v.Count)
}

func TestCachedStore(t *testing.T) {
	ctx := context.Background()
	backend := NewMemStore()
	cached, err := NewCachedStore(backend, 16)
	require.NoError(t, err)

	require.NoError(t, cached.Set(ctx, []byte("k"), []byte("v1")))
	v, ok, err := cached.Get(ctx, []byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v1"), v)

	// Mutate through the cache and confirm the backend observes it too.
	require.NoError(t, cached.Mutate(ctx, []byte("k"), func(value []byte, exists bool) ([]byte, bool, error) {
		return []byte("v2"), false, nil
	}))
	backendV, _, _ := backend.Get(ctx, []byte("k"))
	require.Equal(t, []byte("v2"), backendV)
}
