// Package command implements the lock-free command plane that carries
// typed requests from control-side handles to realtime-side objects.
package command

import (
	"sync/atomic"

	"github.com/tesselode/kira-sub000/resource"
)

// Writer is the control-side half of a latest-value slot: writing
// overwrites whatever is currently queued, which is correct for
// idempotent setters where only the most recent value matters (e.g.
// "set volume to X with tween Y").
type Writer[T any] struct {
	slot atomic.Pointer[T]
}

// Write overwrites the pending value.
func (w *Writer[T]) Write(value T) {
	v := value
	w.slot.Store(&v)
}

// Reader is the realtime-side half of a latest-value slot.
type Reader[T any] struct {
	writer *Writer[T]
}

// NewLatest creates a paired Writer/Reader for a latest-value slot.
func NewLatest[T any]() (*Writer[T], *Reader[T]) {
	w := &Writer[T]{}
	return w, &Reader[T]{writer: w}
}

// Read consumes the pending value, if any. Calling it repeatedly without
// an intervening Write returns false after the first call.
func (r *Reader[T]) Read() (T, bool) {
	v := r.writer.slot.Swap(nil)
	if v == nil {
		var zero T
		return zero, false
	}
	return *v, true
}

// RingWriter is the control-side half of a bounded SPSC ring, for
// commands where every message must be delivered (pause, seek, ...).
type RingWriter[T any] struct {
	ch chan T
}

// RingReader is the realtime-side half of a bounded SPSC ring.
type RingReader[T any] struct {
	ch chan T
}

// NewRing creates a paired RingWriter/RingReader with the given bound.
func NewRing[T any](capacity int) (*RingWriter[T], *RingReader[T]) {
	ch := make(chan T, capacity)
	return &RingWriter[T]{ch: ch}, &RingReader[T]{ch: ch}
}

// Write enqueues a command. It returns resource.ErrQueueFull instead of
// blocking if the ring is saturated; callers should surface this to the
// user so they can retry.
func (w *RingWriter[T]) Write(cmd T) error {
	select {
	case w.ch <- cmd:
		return nil
	default:
		return resource.ErrQueueFull
	}
}

// Read dequeues one command, if any is waiting. Never blocks.
func (r *RingReader[T]) Read() (T, bool) {
	select {
	case cmd := <-r.ch:
		return cmd, true
	default:
		var zero T
		return zero, false
	}
}

// DrainAll reads every currently queued command, in order, calling
// handle for each. Used by objects (tracks, instances) whose
// on_start_processing needs to apply every pending command, not just
// the latest.
func (r *RingReader[T]) DrainAll(handle func(T)) {
	for {
		cmd, ok := r.Read()
		if !ok {
			return
		}
		handle(cmd)
	}
}
