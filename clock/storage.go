package clock

import "github.com/tesselode/kira-sub000/tween"

// Storage holds every live Clock, keyed by id, so Parameter.Update can
// resolve ClockTime-anchored tweens against the current buffer's
// snapshots. Mirrors modulator.Storage and listener.Storage's shape.
type Storage struct {
	clocks map[uint64]*Clock
}

// NewStorage creates an empty clock storage.
func NewStorage() *Storage {
	return &Storage{clocks: make(map[uint64]*Clock)}
}

// Add installs a clock under id.
func (s *Storage) Add(id uint64, c *Clock) { s.clocks[id] = c }

// Remove drops the clock at id, if any.
func (s *Storage) Remove(id uint64) { delete(s.clocks, id) }

// OnStartProcessing drains every clock's command queue.
func (s *Storage) OnStartProcessing() {
	for _, c := range s.clocks {
		c.OnStartProcessing()
	}
}

// UpdateAll advances every clock by dt and returns a snapshot usable as
// a clockinfo.Provider for this chunk.
func (s *Storage) UpdateAll(dt float64, modulators tween.ModulatorValueProvider) InfoProvider {
	snapshots := make(map[uint64]Info, len(s.clocks))
	for id, c := range s.clocks {
		if c.Shared().IsMarkedForRemoval() {
			delete(s.clocks, id)
			continue
		}
		c.Update(dt, modulators)
		snapshots[id] = c.Snapshot()
	}
	return InfoProvider{Snapshots: snapshots}
}
