package resource

import "github.com/tesselode/kira-sub000/arena"

// SelfReferential is a Storage variant that additionally keeps an
// insertion-ordered list of keys, so ForEach can visit every item while
// letting the visitor look at (or mutate) other items in the same
// arena — used by the track tree to walk each track's sub-tracks in
// insertion order.
//
// It does this by swapping the visited item out of the arena into a
// local variable before calling the visitor, then swapping it back,
// so the arena never aliases the item being visited with itself.
type SelfReferential[T any] struct {
	*Storage[T]
	order []arena.Key
}

// NewSelfReferentialStorage creates the realtime-side SelfReferential
// storage paired with a regular Controller for the control side.
func NewSelfReferentialStorage[T any](capacity uint16, ringCapacity int) (*SelfReferential[T], *Controller[T]) {
	storage, controller := NewStorage[T](capacity, ringCapacity)
	return &SelfReferential[T]{Storage: storage}, controller
}

// RemoveAndAdd behaves like Storage.RemoveAndAdd but keeps the ordered
// key list in sync: survivors keep their position, removed items drop
// out, and newly installed items are appended in the order they were
// drained from the new-item channel.
func (s *SelfReferential[T]) RemoveAndAdd(keep func(*T) bool) {
	before := s.Arena.Len()
	_ = before
	s.Storage.RemoveAndAdd(keep)

	var survivors []arena.Key
	for _, key := range s.order {
		if _, ok := s.Arena.Get(key); ok {
			survivors = append(survivors, key)
		}
	}
	s.order = survivors

	// Any key present now but missing from `order` must have just been
	// installed by Storage.RemoveAndAdd's new-item drain.
	seen := make(map[arena.Key]bool, len(s.order))
	for _, k := range s.order {
		seen[k] = true
	}
	var fresh []arena.Key
	s.Arena.ForEach(func(k arena.Key, _ *T) {
		if !seen[k] {
			fresh = append(fresh, k)
		}
	})
	// ForEach visits most-recently-inserted first; reverse to preserve
	// new-item arrival order.
	for i := len(fresh) - 1; i >= 0; i-- {
		s.order = append(s.order, fresh[i])
	}
}

// ForEach visits every surviving item in insertion order. The visitor
// receives the key of the item under visitation and a function to
// access any other item currently in the arena (including itself,
// though callers should use the direct pointer for that).
func (s *SelfReferential[T]) ForEach(visit func(key arena.Key, item *T, others func(arena.Key) (*T, bool))) {
	var sentinel T
	for _, key := range s.order {
		current, ok := s.Arena.Get(key)
		if !ok {
			continue
		}
		swapped := *current
		*current = sentinel
		visit(key, &swapped, s.Arena.Get)
		if v, ok := s.Arena.Get(key); ok {
			*v = swapped
		}
	}
}

// Keys returns the current insertion-ordered key list. Callers must not
// retain it across a RemoveAndAdd call.
func (s *SelfReferential[T]) Keys() []arena.Key {
	return s.order
}
