package modulator

import (
	"sync/atomic"

	"github.com/tesselode/kira-sub000/clockinfo"
)

// Shared is the atomic removal flag published to the control side for
// a Managed modulator. Concrete modulator types (Tweener, Lfo) have no
// removal concept of their own — they live until their handle is
// dropped — so Managed supplies it uniformly for anything Storage
// holds.
type Shared struct {
	removed atomic.Bool
}

// MarkForRemoval flags the modulator for removal once its handle is
// dropped.
func (s *Shared) MarkForRemoval() { s.removed.Store(true) }

// IsMarkedForRemoval reports whether MarkForRemoval has been called.
func (s *Shared) IsMarkedForRemoval() bool { return s.removed.Load() }

// Managed wraps a Modulator with a removal flag, so Storage.UpdateAll's
// existing finished-modulator eviction also handles user-requested
// removal.
type Managed struct {
	Modulator
	shared *Shared
}

// NewManaged wraps m, returning it alongside the Shared removal flag.
func NewManaged(m Modulator) (*Managed, *Shared) {
	shared := &Shared{}
	return &Managed{Modulator: m, shared: shared}, shared
}

// Update overrides the embedded Modulator's Update to report Finished
// once MarkForRemoval has been called, regardless of the wrapped
// modulator's own state.
func (m *Managed) Update(dt float64, clockInfo clockinfo.Provider) UpdateInfo {
	if m.shared.IsMarkedForRemoval() {
		return UpdateInfo{Finished: true}
	}
	return m.Modulator.Update(dt, clockInfo)
}
