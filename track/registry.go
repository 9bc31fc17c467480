package track

import (
	"github.com/tesselode/kira-sub000/arena"
	"github.com/tesselode/kira-sub000/clockinfo"
	"github.com/tesselode/kira-sub000/dsp"
	"github.com/tesselode/kira-sub000/tween"
)

// encodeSendID packs an arena.Key into the plain uint64 a SendRoute
// names its destination by, so send routing reuses the arena's
// generation check: a route pointing at a send track that has since
// been removed (and the slot reused) misses rather than aliasing.
func encodeSendID(key arena.Key) uint64 {
	return uint64(key.Index())<<32 | uint64(key.Generation())
}

func decodeSendID(id uint64) arena.Key {
	return arena.NewKey(uint16(id>>32), uint32(id))
}

// SendRegistry is the flat collection of Send tracks, looked up by
// SendTrackID during the main tree's walk. It is intentionally separate
// from the Sub-track tree: per the data model, send routes are by-id
// references, never ownership, keeping the tree acyclic.
type SendRegistry struct {
	arena *arena.Arena[*Track]
}

// NewSendRegistry creates a registry with room for capacity send tracks.
func NewSendRegistry(capacity uint16) (*SendRegistry, *arena.Controller) {
	a := arena.New[*Track](capacity)
	return &SendRegistry{arena: a}, a.Controller()
}

// Insert installs a Send track at the reserved key.
func (r *SendRegistry) Insert(key arena.Key, t *Track) error {
	return r.arena.InsertWithKey(key, t)
}

// EncodedID returns the plain SendTrackID a route should use to refer
// to the track at key.
func (r *SendRegistry) EncodedID(key arena.Key) uint64 { return encodeSendID(key) }

// Get resolves a SendTrackID to its Track, if it still exists.
func (r *SendRegistry) Get(id uint64) (*Track, bool) {
	return r.arena.Get(decodeSendID(id))
}

// RemoveAndAdd drops every send track for which keep returns false.
// It installs nothing: Insert places send tracks in the arena directly.
func (r *SendRegistry) RemoveAndAdd(keep func(*Track) bool) {
	r.arena.Retain(func(t **Track) bool { return keep(*t) })
}

// ForEach visits every send track, most-recently-inserted first.
func (r *SendRegistry) ForEach(f func(arena.Key, *Track)) {
	r.arena.ForEach(func(k arena.Key, t **Track) { f(k, *t) })
}

// ResetInputs clears every send track's pending-input accumulator
// ahead of a chunk, so routes written during the upcoming tree walk
// start from silence.
func (r *SendRegistry) ResetInputs(chunkSize int) {
	r.arena.ForEach(func(_ arena.Key, t **Track) { (*t).resetPendingInput(chunkSize) })
}

// ProcessAndAccumulate runs every send track's own effects and volume
// over its accumulated input and adds the result into mainBuf. Called
// once per chunk, after the main track's sub-tree walk has finished
// routing into every send, so that routes written anywhere during the
// walk are seen before a send track's own processing runs.
func (r *SendRegistry) ProcessAndAccumulate(mainBuf []dsp.Frame, dt float64, clockInfo clockinfo.Provider, modulators tween.ModulatorValueProvider) {
	r.arena.ForEach(func(_ arena.Key, t **Track) {
		out := (*t).processSend(dt, clockInfo, modulators)
		for i := range mainBuf {
			mainBuf[i] = mainBuf[i].Add(out[i])
		}
	})
}

// OnStartProcessingAll drains every send track's own command queue and
// its effects'.
func (r *SendRegistry) OnStartProcessingAll() {
	r.arena.ForEach(func(_ arena.Key, t **Track) { (*t).OnStartProcessingAll() })
}

// RemoveAndAddAll drops send tracks marked for removal.
func (r *SendRegistry) RemoveAndAddAll() {
	r.RemoveAndAdd(func(t *Track) bool { return !t.shared.IsMarkedForRemoval() })
}

// OnChangeSampleRateAll notifies every send track's effects of a
// sample-rate change.
func (r *SendRegistry) OnChangeSampleRateAll(sampleRate uint32) {
	r.arena.ForEach(func(_ arena.Key, t **Track) { (*t).OnChangeSampleRateAll(sampleRate) })
}
