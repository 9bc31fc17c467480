// Package arena implements a generational-index container with a fixed
// capacity set at creation. It is the foundation every other realtime
// resource (sounds, tracks, clocks, modulators, listeners) is stored in.
package arena

import "sync/atomic"

// Key uniquely identifies an item inserted into an Arena. A Key handed
// back to a caller either names a slot whose generation still matches
// (a hit) or one whose generation has since moved on (a miss) — it can
// never alias a different item.
type Key struct {
	index      uint16
	generation uint32
}

// NewKey reconstructs a Key from its raw index and generation. Used by
// callers (such as the track package's send-route registry) that need
// to encode a Key into a plain integer ID and decode it back later;
// the generation check in Get/Remove still applies, so a decoded Key
// for a slot that has since been reused and removed again safely misses
// rather than aliasing the wrong item.
func NewKey(index uint16, generation uint32) Key {
	return Key{index: index, generation: generation}
}

// Index returns the slot index this key refers to.
func (k Key) Index() uint16 { return k.index }

// Generation returns the generation this key was issued for.
func (k Key) Generation() uint32 { return k.generation }

type slotState int

const (
	slotFree slotState = iota
	slotOccupied
)

type slot[T any] struct {
	state      slotState
	generation uint32
	data       T
	prev       int32 // -1 if none
	next       int32 // -1 if none
}

// Controller is the control-side half of an Arena: it can reserve a free
// slot's Key without ever touching the Arena itself, so a control thread
// can hand out a Key before the realtime side has installed any data.
// Reservation is lock-free: a buffered channel acts as the free-index
// pool (Go's equivalent of the lock-free MPMC queue the original engine
// uses), and each slot's generation is mirrored into an atomic so a
// concurrent TryReserve always observes the latest generation.
type Controller struct {
	free        chan uint16
	generations []*atomic.Uint32
}

func newController(capacity uint16) *Controller {
	c := &Controller{
		free:        make(chan uint16, capacity),
		generations: make([]*atomic.Uint32, capacity),
	}
	for i := uint16(0); i < capacity; i++ {
		c.generations[i] = &atomic.Uint32{}
		c.free <- i
	}
	return c
}

// TryReserve grabs a free slot and returns the Key it will have once
// something is inserted there with InsertWithKey. It never blocks.
func (c *Controller) TryReserve() (Key, error) {
	select {
	case index := <-c.free:
		return Key{index: index, generation: c.generations[index].Load()}, nil
	default:
		return Key{}, ErrArenaFull
	}
}

func (c *Controller) release(index uint16, generation uint32) {
	c.generations[index].Store(generation)
	// Buffered at capacity, so this never blocks.
	c.free <- index
}

// Capacity returns the number of slots the backing Arena was created with.
func (c *Controller) Capacity() int { return len(c.generations) }

// Arena is a fixed-capacity container of T accessed through Keys. Items
// are threaded into a doubly linked occupied list so iteration visits
// the most recently inserted item first without scanning free slots.
type Arena[T any] struct {
	controller       *Controller
	slots            []slot[T]
	firstOccupied    int32 // -1 if none
}

// New creates an Arena with room for exactly capacity items.
func New[T any](capacity uint16) *Arena[T] {
	slots := make([]slot[T], capacity)
	for i := range slots {
		slots[i] = slot[T]{state: slotFree, prev: -1, next: -1}
	}
	return &Arena[T]{
		controller:    newController(capacity),
		slots:         slots,
		firstOccupied: -1,
	}
}

// Controller returns the (shareable) controller for this Arena.
func (a *Arena[T]) Controller() *Controller { return a.controller }

// Capacity returns the total number of slots.
func (a *Arena[T]) Capacity() int { return len(a.slots) }

// Len returns the number of currently occupied slots.
func (a *Arena[T]) Len() int {
	n := 0
	for i := a.firstOccupied; i != -1; {
		n++
		i = a.slots[i].next
	}
	return n
}

// Insert reserves a free slot and stores data in it in one step. Used
// on the control side when there is no realtime counterpart to install
// the value (e.g. tests, or single-domain callers).
func (a *Arena[T]) Insert(data T) (Key, error) {
	key, err := a.controller.TryReserve()
	if err != nil {
		return Key{}, err
	}
	// InsertWithKey cannot fail here: the slot was just reserved and
	// its generation matches by construction.
	_ = a.InsertWithKey(key, data)
	return key, nil
}

// InsertWithKey installs data into the slot named by key. key must have
// been produced by this Arena's Controller.TryReserve and not yet
// fulfilled by another InsertWithKey call.
func (a *Arena[T]) InsertWithKey(key Key, data T) error {
	if int(key.index) >= len(a.slots) {
		return ErrInvalidKey
	}
	s := &a.slots[key.index]
	if s.generation != key.generation {
		return ErrInvalidKey
	}
	if s.state == slotOccupied {
		return ErrKeyNotReserved
	}
	if a.firstOccupied != -1 {
		a.slots[a.firstOccupied].prev = int32(key.index)
	}
	s.state = slotOccupied
	s.data = data
	s.prev = -1
	s.next = a.firstOccupied
	a.firstOccupied = int32(key.index)
	return nil
}

func (a *Arena[T]) removeFromSlot(index int32) (T, bool) {
	s := &a.slots[index]
	if s.state == slotFree {
		var zero T
		return zero, false
	}
	data := s.data
	prev, next := s.prev, s.next
	var zero T
	s.data = zero
	s.state = slotFree
	s.generation++
	s.prev, s.next = -1, -1
	if prev != -1 {
		a.slots[prev].next = next
	}
	if next != -1 {
		a.slots[next].prev = prev
	}
	if a.firstOccupied == index {
		a.firstOccupied = next
	}
	a.controller.release(uint16(index), s.generation)
	return data, true
}

// Remove removes the item named by key, if present, and returns it.
func (a *Arena[T]) Remove(key Key) (T, bool) {
	if int(key.index) >= len(a.slots) {
		var zero T
		return zero, false
	}
	if a.slots[key.index].generation != key.generation {
		var zero T
		return zero, false
	}
	return a.removeFromSlot(int32(key.index))
}

// Get returns a pointer to the item named by key, if it exists and the
// generation matches.
func (a *Arena[T]) Get(key Key) (*T, bool) {
	if int(key.index) >= len(a.slots) {
		return nil, false
	}
	s := &a.slots[key.index]
	if s.generation != key.generation || s.state != slotOccupied {
		return nil, false
	}
	return &s.data, true
}

// Retain keeps only the items for which keep returns true, removing the
// rest. Visits items in occupied-list order.
func (a *Arena[T]) Retain(keep func(*T) bool) {
	index := a.firstOccupied
	for index != -1 {
		next := a.slots[index].next
		if !keep(&a.slots[index].data) {
			a.removeFromSlot(index)
		}
		index = next
	}
}

// DrainFilter removes and returns every item for which filter returns
// true.
func (a *Arena[T]) DrainFilter(filter func(*T) bool) []T {
	var drained []T
	index := a.firstOccupied
	for index != -1 {
		next := a.slots[index].next
		if filter(&a.slots[index].data) {
			data, _ := a.removeFromSlot(index)
			drained = append(drained, data)
		}
		index = next
	}
	return drained
}

// ForEach calls f with the key and a pointer to each occupied item, most
// recently inserted first. f must not insert or remove items.
func (a *Arena[T]) ForEach(f func(Key, *T)) {
	index := a.firstOccupied
	for index != -1 {
		s := &a.slots[index]
		next := s.next
		f(Key{index: uint16(index), generation: s.generation}, &s.data)
		index = next
	}
}
