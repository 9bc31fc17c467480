// Package resource implements the triplet of arena + SPSC rings that
// carries an object from the control side, where it is built, to the
// realtime side, where it lives, and back, where it is destroyed.
package resource

import "github.com/tesselode/kira-sub000/arena"

const defaultRingCapacity = 128

// Controller is the control-side handle to a resource arena: it reserves
// keys and hands finished items to the new-resource channel, and drains
// items the realtime side has finished with.
type Controller[T any] struct {
	arenaController *arena.Controller
	newItems        chan item[T]
	unusedItems     chan T
}

type item[T any] struct {
	key  arena.Key
	data T
}

// NewController creates the control-side half of a ResourceStorage pair.
// ringCapacity bounds both the new-item and unused-item channels; 0
// selects a reasonable default.
func NewController[T any](arenaController *arena.Controller, ringCapacity int) *Controller[T] {
	if ringCapacity <= 0 {
		ringCapacity = defaultRingCapacity
	}
	return &Controller[T]{
		arenaController: arenaController,
		newItems:        make(chan item[T], ringCapacity),
		unusedItems:     make(chan T, ringCapacity),
	}
}

// Reserve grabs a Key for a not-yet-built resource.
func (c *Controller[T]) Reserve() (arena.Key, error) {
	return c.arenaController.TryReserve()
}

// Add ships a freshly built resource across to the realtime side. The
// key must have come from Reserve on this same controller.
func (c *Controller[T]) Add(key arena.Key, data T) error {
	select {
	case c.newItems <- item[T]{key: key, data: data}:
		return nil
	default:
		return ErrQueueFull
	}
}

// PopUnused drains one resource that the realtime side has finished
// with, if any is waiting. Destructors (including ones with side
// effects, like closing a file) should run on whatever calls this.
func (c *Controller[T]) PopUnused() (T, bool) {
	select {
	case v := <-c.unusedItems:
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// Storage is the realtime-side half: an Arena plus the consumer end of
// the new-item channel and the producer end of the unused-item channel.
type Storage[T any] struct {
	Arena       *arena.Arena[T]
	newItems    chan item[T]
	unusedItems chan T
}

// NewStorage creates a realtime-side Storage backed by capacity slots,
// returning it paired with a Controller for the control side.
func NewStorage[T any](capacity uint16, ringCapacity int) (*Storage[T], *Controller[T]) {
	a := arena.New[T](capacity)
	if ringCapacity <= 0 {
		ringCapacity = defaultRingCapacity
	}
	newItems := make(chan item[T], ringCapacity)
	unusedItems := make(chan T, ringCapacity)
	storage := &Storage[T]{Arena: a, newItems: newItems, unusedItems: unusedItems}
	controller := &Controller[T]{
		arenaController: a.Controller(),
		newItems:        newItems,
		unusedItems:     unusedItems,
	}
	return storage, controller
}

// RemoveAndAdd is called once per buffer, at the very start of
// processing. It removes every item for which keep returns false,
// shipping them to the unused channel (stopping early, for this buffer
// only, if that channel is full — never blocking), then installs every
// item waiting on the new-item channel.
func (s *Storage[T]) RemoveAndAdd(keep func(*T) bool) {
	s.Arena.Retain(func(v *T) bool {
		if keep(v) {
			return true
		}
		select {
		case s.unusedItems <- *v:
			return false
		default:
			// Unused ring is full; keep the item for another buffer
			// rather than block or drop it.
			return true
		}
	})

	for {
		select {
		case it := <-s.newItems:
			// The controller only ever hands out reserved keys, so this
			// must succeed.
			_ = s.Arena.InsertWithKey(it.key, it.data)
		default:
			return
		}
	}
}
