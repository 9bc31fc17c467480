// Package modulator implements per-buffer f64 producers (tweener, LFO)
// that parameter values can read from through a tween.Mapping.
package modulator

import (
	"github.com/tesselode/kira-sub000/clockinfo"
	"github.com/tesselode/kira-sub000/tween"
)

// Modulator is the capability every modulator variant implements.
type Modulator interface {
	OnStartProcessing()
	Update(dt float64, clockInfo clockinfo.Provider) UpdateInfo
	Value() float64
	Finished() bool
}

// UpdateInfo reports whether a modulator's owning resource should be
// considered removable after this update.
type UpdateInfo struct {
	Finished bool
}

// Storage holds every live modulator, keyed by id, and implements
// tween.ModulatorValueProvider against the latest buffer's readings.
// Per the fixed processing order (clocks, then modulators, then
// tracks), every modulator sees zero values from other modulators —
// readers should only consult Storage after Renderer has finished
// calling Update on every modulator for the buffer.
type Storage struct {
	modulators map[uint64]Modulator
}

// NewStorage creates an empty modulator storage.
func NewStorage() *Storage {
	return &Storage{modulators: make(map[uint64]Modulator)}
}

// Add registers a modulator under id, replacing any previous entry.
func (s *Storage) Add(id uint64, m Modulator) { s.modulators[id] = m }

// Remove drops the modulator registered under id.
func (s *Storage) Remove(id uint64) { delete(s.modulators, id) }

// OnStartProcessing calls OnStartProcessing on every live modulator.
func (s *Storage) OnStartProcessing() {
	for _, m := range s.modulators {
		m.OnStartProcessing()
	}
}

// UpdateAll advances every live modulator by dt and evicts those that
// report Finished. It ranges over a Go map, so the order in which
// modulators are updated is not fixed.
func (s *Storage) UpdateAll(dt float64, clockInfo clockinfo.Provider) {
	for id, m := range s.modulators {
		info := m.Update(dt, clockInfo)
		if info.Finished {
			delete(s.modulators, id)
		}
	}
}

// ModulatorValue implements tween.ModulatorValueProvider.
func (s *Storage) ModulatorValue(id uint64) (float64, bool) {
	m, ok := s.modulators[id]
	if !ok {
		return 0, false
	}
	return m.Value(), true
}
