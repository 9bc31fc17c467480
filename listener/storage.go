package listener

import (
	"github.com/tesselode/kira-sub000/clockinfo"
	"github.com/tesselode/kira-sub000/tween"
)

// Storage holds every live Listener, keyed by track ID, so spatial
// tracks can look up the listener they're relative to. Mirrors
// modulator.Storage's shape.
type Storage struct {
	listeners map[uint64]*Listener
}

// NewStorage creates an empty Storage.
func NewStorage() *Storage {
	return &Storage{listeners: make(map[uint64]*Listener)}
}

// Add installs a listener under its track ID.
func (s *Storage) Add(l *Listener) { s.listeners[l.TrackID] = l }

// Remove drops a listener.
func (s *Storage) Remove(trackID uint64) { delete(s.listeners, trackID) }

// Get returns the listener for trackID, if any.
func (s *Storage) Get(trackID uint64) (*Listener, bool) {
	l, ok := s.listeners[trackID]
	return l, ok
}

// OnStartProcessing forwards to every listener.
func (s *Storage) OnStartProcessing() {
	for _, l := range s.listeners {
		l.OnStartProcessing()
	}
}

// UpdateAll advances every listener by dt (one internal chunk's worth
// of time) and drops ones marked for removal. clockInfo lets a
// ClockTime-anchored tween on a listener's position or orientation
// resolve, the same as any other tweened value.
func (s *Storage) UpdateAll(dt float64, clockInfo clockinfo.Provider, modulators tween.ModulatorValueProvider) {
	for id, l := range s.listeners {
		if l.Shared().IsMarkedForRemoval() {
			delete(s.listeners, id)
			continue
		}
		l.Update(dt, clockInfo, modulators)
	}
}
