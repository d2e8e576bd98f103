// Package orderedset implements the sorted, duplicate-free vector of
// commitment cells a challenge level is built from, plus the
// depth-sliced FullOrder packing it's addressed by.
package orderedset

import (
	"bytes"
	"sort"

	"github.com/pkg/errors"
)

// ErrDuplicateOrder is returned when an insert's key already exists in
// the set.
var ErrDuplicateOrder = errors.New("duplicate order key")

// Keyed is implemented by anything an OrderedSet can hold: it exposes
// the strictly-sorted, fixed-width byte key it is ordered by.
type Keyed interface {
	OrderKey() []byte
}

// Set is a strictly lex-sorted, duplicate-free vector of T keyed by
// T.OrderKey(). The zero value is an empty set.
type Set[T Keyed] struct {
	items []T
}

// FromSlice builds a Set from items by inserting them one at a time,
// returning ErrDuplicateOrder if two items share a key.
func FromSlice[T Keyed](items []T) (Set[T], error) {
	s := Set[T]{}
	for _, it := range items {
		if err := s.Insert(it); err != nil {
			return Set[T]{}, err
		}
	}
	return s, nil
}

// Len returns the number of items in the set.
func (s *Set[T]) Len() int {
	return len(s.items)
}

// Items returns the underlying sorted slice. Callers must not mutate
// it.
func (s *Set[T]) Items() []T {
	return s.items
}

// At returns the item at sorted position i.
func (s *Set[T]) At(i int) T {
	return s.items[i]
}

// Insert adds item in sorted position, rejecting a duplicate key.
// Idempotent in the sense that inserting the same (key, equal item)
// twice is still rejected as a duplicate — the protocol never expects
// a level to be re-submitted, only grown.
func (s *Set[T]) Insert(item T) error {
	key := item.OrderKey()
	idx := sort.Search(len(s.items), func(i int) bool {
		return bytes.Compare(s.items[i].OrderKey(), key) >= 0
	})
	if idx < len(s.items) && bytes.Equal(s.items[idx].OrderKey(), key) {
		return ErrDuplicateOrder
	}
	s.items = append(s.items, item)
	copy(s.items[idx+1:], s.items[idx:])
	s.items[idx] = item
	return nil
}

// Extend inserts every item in others, stopping at the first
// duplicate. Mirrors update_result_hashs' "extend current level"
// breakpoint-transfer path.
func (s *Set[T]) Extend(others []T) error {
	for _, it := range others {
		if err := s.Insert(it); err != nil {
			return err
		}
	}
	return nil
}

// Neighbors returns the last item whose key sorts strictly below key
// and the first item whose key sorts at or above it (so above holds
// key itself when it is present), nil if there is no such item. Used
// by the omission-bracketing proof in verify.Omission.
func (s *Set[T]) Neighbors(key []byte) (below, above *T) {
	idx := sort.Search(len(s.items), func(i int) bool {
		return bytes.Compare(s.items[i].OrderKey(), key) >= 0
	})
	if idx > 0 {
		below = &s.items[idx-1]
	}
	if idx < len(s.items) {
		above = &s.items[idx]
	}
	return below, above
}
