// Package clockinfo defines the narrow read-only view of the clock
// graph that Parameter needs to resolve ClockTime-anchored tweens. It is
// split out from package clock so that clock (which embeds a
// parameter.Parameter for its own tweenable speed) and package parameter
// can depend on it without importing each other.
package clockinfo

import "github.com/tesselode/kira-sub000/tween"

// WhenToStart answers "has the tick this tween is anchored to arrived
// yet?".
type WhenToStart int

const (
	// Now means the referenced tick has just occurred; the tween should
	// start this update.
	Now WhenToStart = iota
	// Later means the referenced tick hasn't happened yet.
	Later
	// Never means the referenced clock no longer exists; the tween
	// will never start and the owning object should decide what to do
	// (e.g. a sound instance waiting to start simply stops).
	Never
)

// Provider answers WhenToStart queries against the current buffer's
// clock snapshots.
type Provider interface {
	WhenToStart(ref tween.ClockTimeRef) WhenToStart
}
