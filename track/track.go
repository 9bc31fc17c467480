// Package track implements the mixer tree: a recursive structure of
// main/sub/send tracks that hold sounds, child tracks, effects, and
// send routes, plus the spatial variant that shapes output by a
// listener's position and orientation.
package track

import (
	"sync/atomic"

	"github.com/golang/geo/r3"

	"github.com/tesselode/kira-sub000/arena"
	"github.com/tesselode/kira-sub000/clockinfo"
	"github.com/tesselode/kira-sub000/command"
	"github.com/tesselode/kira-sub000/dsp"
	"github.com/tesselode/kira-sub000/effect"
	"github.com/tesselode/kira-sub000/listener"
	"github.com/tesselode/kira-sub000/parameter"
	"github.com/tesselode/kira-sub000/resource"
	"github.com/tesselode/kira-sub000/sound"
	"github.com/tesselode/kira-sub000/tween"
)

// Kind discriminates the Track variants.
type Kind int

const (
	// Main is the tree's single root: holds sounds, sub-tracks, and
	// effects, but has no sends of its own.
	Main Kind = iota
	// Sub is an ordinary mixer track, optionally spatial.
	Sub
	// Send is a routing destination with no children; it accumulates
	// scaled copies of whatever other tracks route to it.
	Send
)

// SendRoute is one declared destination a track forwards a scaled copy
// of its output to. The set of routes is fixed at construction time.
type SendRoute struct {
	SendTrackID uint64
	Volume      *parameter.Parameter[tween.Decibels]
}

// SpatialSettings configures a Sub track's optional SpatialData.
type SpatialSettings struct {
	ListenerID           uint64
	Position             tween.Value[r3.Vector]
	MinDistance          float64
	MaxDistance          float64
	Attenuation          *tween.Easing
	EnableSpatialization bool
}

// SendRouteSettings declares one send route at construction time.
type SendRouteSettings struct {
	SendTrackID uint64
	Volume      tween.Value[tween.Decibels]
}

// SubSettings configures a new Sub track.
type SubSettings struct {
	Volume                   tween.Value[tween.Decibels]
	Sends                    []SendRouteSettings
	PersistUntilSoundsFinish bool
	Spatial                  *SpatialSettings
	SoundCapacity            uint16
	SubTrackCapacity         uint16
}

// SendSettings configures a new Send track.
type SendSettings struct {
	Volume tween.Value[tween.Decibels]
}

// Shared is the atomic removal flag published to the control side.
type Shared struct {
	removed atomic.Bool
}

// MarkForRemoval flags the track for removal once every handle that
// named it has been dropped.
func (s *Shared) MarkForRemoval() { s.removed.Store(true) }

// IsMarkedForRemoval reports whether MarkForRemoval has been called.
func (s *Shared) IsMarkedForRemoval() bool { return s.removed.Load() }

// Track is one node of the mixer tree.
type Track struct {
	kind Kind

	volume                   *parameter.Parameter[tween.Decibels]
	sends                    []SendRoute
	persistUntilSoundsFinish bool
	spatial                  *SpatialData

	subTracks *resource.SelfReferential[*Track]
	sounds    *resource.Storage[*sound.Instance]
	effects   []effect.Effect

	pendingInput []dsp.Frame // Send tracks only

	shared *Shared
	reader *command.RingReader[Command]
}

// Handle bundles everything the control side needs to drive a Track: a
// removal marker, its command writer, and the resource controllers for
// the sub-trees rooted at it.
type Handle struct {
	Shared       *Shared
	Commands     *command.RingWriter[Command]
	SubTracks    *resource.Controller[*Track]
	Sounds       *resource.Controller[*sound.Instance]
	validSendIDs map[uint64]bool
}

type errNonexistentRoute struct{}

func (errNonexistentRoute) Error() string { return "track: nonexistent send route" }

// ErrNonexistentRoute is returned when a command names a send route the
// track wasn't built with.
var ErrNonexistentRoute error = errNonexistentRoute{}

// SetSendVolume validates sendTrackID against the routes declared at
// construction before forwarding the command.
func (h *Handle) SetSendVolume(sendTrackID uint64, value tween.Value[tween.Decibels], tw tween.Tween) error {
	if !h.validSendIDs[sendTrackID] {
		return ErrNonexistentRoute
	}
	return h.Commands.Write(Command{Kind: CmdSetSendVolume, SendTrackID: sendTrackID, VolumeValue: value, Tween: tw})
}

const (
	defaultSoundCapacity    = 32
	defaultSubTrackCapacity = 16
)

// NewMain creates the tree's root track.
func NewMain(subTrackCapacity, soundCapacity uint16) (*Track, *Handle) {
	if subTrackCapacity == 0 {
		subTrackCapacity = defaultSubTrackCapacity
	}
	if soundCapacity == 0 {
		soundCapacity = defaultSoundCapacity
	}
	subStorage, subController := resource.NewSelfReferentialStorage[*Track](subTrackCapacity, 0)
	soundStorage, soundController := resource.NewStorage[*sound.Instance](soundCapacity, 0)
	w, r := command.NewRing[Command](32)
	t := &Track{
		kind:      Main,
		volume:    parameter.New(tween.NewFixedValue(tween.Decibels(0)), 0, tween.InterpolateDecibels),
		subTracks: subStorage,
		sounds:    soundStorage,
		shared:    &Shared{},
		reader:    r,
	}
	return t, &Handle{Shared: t.shared, Commands: w, SubTracks: subController, Sounds: soundController}
}

// NewSub creates a Sub track (optionally spatial) from settings.
func NewSub(settings SubSettings) (*Track, *Handle) {
	soundCap := settings.SoundCapacity
	if soundCap == 0 {
		soundCap = defaultSoundCapacity
	}
	subCap := settings.SubTrackCapacity
	if subCap == 0 {
		subCap = defaultSubTrackCapacity
	}
	subStorage, subController := resource.NewSelfReferentialStorage[*Track](subCap, 0)
	soundStorage, soundController := resource.NewStorage[*sound.Instance](soundCap, 0)
	w, r := command.NewRing[Command](32)

	sends := make([]SendRoute, len(settings.Sends))
	validSendIDs := make(map[uint64]bool, len(settings.Sends))
	for i, s := range settings.Sends {
		sends[i] = SendRoute{
			SendTrackID: s.SendTrackID,
			Volume:      parameter.New(s.Volume, 0, tween.InterpolateDecibels),
		}
		validSendIDs[s.SendTrackID] = true
	}

	var spatial *SpatialData
	if settings.Spatial != nil {
		spatial = newSpatialData(*settings.Spatial)
	}

	t := &Track{
		kind:                     Sub,
		volume:                   parameter.New(settings.Volume, 0, tween.InterpolateDecibels),
		sends:                    sends,
		persistUntilSoundsFinish: settings.PersistUntilSoundsFinish,
		spatial:                  spatial,
		subTracks:                subStorage,
		sounds:                   soundStorage,
		shared:                   &Shared{},
		reader:                   r,
	}
	return t, &Handle{Shared: t.shared, Commands: w, SubTracks: subController, Sounds: soundController, validSendIDs: validSendIDs}
}

// NewSend creates a Send track: a routing destination with no children.
func NewSend(settings SendSettings) (*Track, *Handle) {
	w, r := command.NewRing[Command](32)
	t := &Track{
		kind:   Send,
		volume: parameter.New(settings.Volume, 0, tween.InterpolateDecibels),
		shared: &Shared{},
		reader: r,
	}
	return t, &Handle{Shared: t.shared, Commands: w}
}

// Kind reports which tree role this track plays.
func (t *Track) Kind() Kind { return t.kind }

// AddEffect appends an effect to the track's chain, initializing it
// against sampleRate.
func (t *Track) AddEffect(e effect.Effect, sampleRate uint32) {
	e.Init(sampleRate)
	t.effects = append(t.effects, e)
}

// SubTracks exposes the self-referential sub-track storage for
// recursive processing and removal bookkeeping. nil for Send tracks.
func (t *Track) SubTracks() *resource.SelfReferential[*Track] { return t.subTracks }

// Sounds exposes the track's own sound-instance storage. nil for Send
// tracks.
func (t *Track) Sounds() *resource.Storage[*sound.Instance] { return t.sounds }

// Shared returns the atomic removal-flag handle.
func (t *Track) Shared() *Shared { return t.shared }

// OnStartProcessing drains pending commands for this track alone (not
// recursive — callers walk the tree, including send tracks, when
// draining).
func (t *Track) OnStartProcessing() {
	t.reader.DrainAll(func(cmd Command) {
		switch cmd.Kind {
		case CmdSetVolume:
			t.volume.Set(cmd.VolumeValue, cmd.Tween)
		case CmdSetSpatialPosition:
			if t.spatial != nil {
				t.spatial.Position.Set(cmd.PositionValue, cmd.Tween)
			}
		case CmdSetSendVolume:
			for i := range t.sends {
				if t.sends[i].SendTrackID == cmd.SendTrackID {
					t.sends[i].Volume.Set(cmd.VolumeValue, cmd.Tween)
					break
				}
			}
		}
	})
}

// OnStartProcessingAll drains this track's own command queue, every
// sound instance's, and recurses into sub-tracks. Called once per host
// buffer, before RemoveAndAdd and before the (possibly chunked) Process
// calls that follow.
func (t *Track) OnStartProcessingAll() {
	t.OnStartProcessing()
	for _, e := range t.effects {
		e.OnStartProcessing()
	}
	if t.sounds != nil {
		t.sounds.Arena.ForEach(func(_ arena.Key, inst **sound.Instance) {
			(*inst).OnStartProcessing()
		})
	}
	if t.subTracks != nil {
		t.subTracks.ForEach(func(_ arena.Key, child **Track, _ func(arena.Key) (**Track, bool)) {
			(*child).OnStartProcessingAll()
		})
	}
}

// OnChangeSampleRateAll notifies every effect on this track and every
// sub-track of a sample-rate change, recursively, so stateful effects
// (delay, reverb) can reallocate their internal buffers.
func (t *Track) OnChangeSampleRateAll(sampleRate uint32) {
	for _, e := range t.effects {
		e.OnChangeSampleRate(sampleRate)
	}
	if t.subTracks != nil {
		t.subTracks.ForEach(func(_ arena.Key, child **Track, _ func(arena.Key) (**Track, bool)) {
			(*child).OnChangeSampleRateAll(sampleRate)
		})
	}
}

// isRemovable reports whether this track currently satisfies every
// removal precondition: marked for removal, every sub-track already
// gone (checked after their own recursive cleanup), and — if
// persistUntilSoundsFinish — no sounds left playing.
func (t *Track) isRemovable() bool {
	if !t.shared.IsMarkedForRemoval() {
		return false
	}
	if t.subTracks != nil && t.subTracks.Arena.Len() > 0 {
		return false
	}
	if t.persistUntilSoundsFinish && t.sounds != nil && t.sounds.Arena.Len() > 0 {
		return false
	}
	return true
}

// RemoveAndAdd recursively cleans up finished sounds and removable
// sub-tracks, leaves first, then installs newly arrived sub-tracks and
// sounds. A sub-track installed by this pass runs its own RemoveAndAdd
// right away, so sounds and sub-tracks queued on it install in the same
// pass. Called once per buffer, before Process.
func (t *Track) RemoveAndAdd() {
	if t.subTracks != nil {
		t.subTracks.ForEach(func(_ arena.Key, child **Track, _ func(arena.Key) (**Track, bool)) {
			(*child).RemoveAndAdd()
		})
	}
	if t.sounds != nil {
		t.sounds.RemoveAndAdd(func(inst **sound.Instance) bool { return !(*inst).Finished() })
	}
	if t.subTracks != nil {
		existing := make(map[arena.Key]bool, len(t.subTracks.Keys()))
		for _, key := range t.subTracks.Keys() {
			existing[key] = true
		}
		t.subTracks.RemoveAndAdd(func(child **Track) bool { return !(*child).isRemovable() })
		t.subTracks.ForEach(func(key arena.Key, child **Track, _ func(arena.Key) (**Track, bool)) {
			if !existing[key] {
				(*child).RemoveAndAdd()
			}
		})
	}
}

// resetPendingInput clears a Send track's accumulator ahead of a chunk.
func (t *Track) resetPendingInput(chunkSize int) {
	if cap(t.pendingInput) < chunkSize {
		t.pendingInput = make([]dsp.Frame, chunkSize)
	} else {
		t.pendingInput = t.pendingInput[:chunkSize]
		for i := range t.pendingInput {
			t.pendingInput[i] = dsp.Frame{}
		}
	}
}

// addInput accumulates amp*src into a Send track's pending input.
func (t *Track) addInput(src []dsp.Frame, amp float32) {
	for i, f := range src {
		t.pendingInput[i] = t.pendingInput[i].Add(f.Scale(amp))
	}
}

// Process walks the tree rooted at t, recursing into sub-tracks and
// sounds first, applying spatialization and effects, forwarding to
// declared sends, and writes t's scaled contribution into buf. buf is
// the scratch buffer for this internal chunk; its length is the
// chunk's frame count.
func (t *Track) Process(buf []dsp.Frame, dt float64, sampleRate uint32, sends *SendRegistry, clockInfo clockinfo.Provider, modulators tween.ModulatorValueProvider, listeners *listener.Storage) {
	for i := range buf {
		buf[i] = dsp.Frame{}
	}

	chunkDt := dt * float64(len(buf))
	t.volume.Update(chunkDt, clockInfo, modulators)

	if t.subTracks != nil {
		t.subTracks.ForEach(func(_ arena.Key, child **Track, _ func(arena.Key) (**Track, bool)) {
			childBuf := make([]dsp.Frame, len(buf))
			(*child).Process(childBuf, dt, sampleRate, sends, clockInfo, modulators, listeners)
			for i := range buf {
				buf[i] = buf[i].Add(childBuf[i])
			}
		})
	}

	if t.sounds != nil {
		t.sounds.Arena.ForEach(func(_ arena.Key, inst **sound.Instance) {
			for i := range buf {
				frame := (*inst).Process(dt, sampleRate, clockInfo, modulators)
				buf[i] = buf[i].Add(frame)
			}
		})
	}

	var spatialListener *listener.Listener
	if t.spatial != nil {
		t.spatial.Position.Update(chunkDt, clockInfo, modulators)
		t.spatial.updateVelocity(chunkDt)
		if l, ok := listeners.Get(t.spatial.ListenerID); ok {
			spatialListener = l
			applySpatial(buf, t.spatial, l)
		}
	}

	for _, e := range t.effects {
		if sa, ok := e.(effect.SpatialAware); ok && spatialListener != nil {
			sa.SetSpatialInfo(effect.SpatialInfo{
				ListenerPosition: spatialListener.Position.Value(),
				ListenerVelocity: spatialListener.Velocity(),
				EmitterPosition:  t.spatial.Position.Value(),
				EmitterVelocity:  t.spatial.Velocity(),
			})
		}
		e.Process(buf, dt, clockInfo, modulators)
	}

	if sends != nil {
		for _, route := range t.sends {
			route.Volume.Update(chunkDt, clockInfo, modulators)
			dest, ok := sends.Get(route.SendTrackID)
			if !ok {
				continue
			}
			dest.addInput(buf, float32(route.Volume.Value().Amplitude()))
		}
	}

	amp := float32(t.volume.Value().Amplitude())
	for i := range buf {
		buf[i] = buf[i].Scale(amp)
	}
}

// ProcessChunk runs one internal chunk of the mixer graph rooted at
// the main track: it resets every send track's input accumulator,
// walks the sub-track tree (during which any track may route into a
// send), then processes each send track's own effects/volume over
// whatever it accumulated and folds the result into buf. Call only on
// a Main track.
func (t *Track) ProcessChunk(buf []dsp.Frame, dt float64, sampleRate uint32, sends *SendRegistry, clockInfo clockinfo.Provider, modulators tween.ModulatorValueProvider, listeners *listener.Storage) {
	sends.ResetInputs(len(buf))
	t.Process(buf, dt, sampleRate, sends, clockInfo, modulators, listeners)
	sends.ProcessAndAccumulate(buf, dt, clockInfo, modulators)
}

// processSend runs a Send track's own effects and volume over its
// accumulated pending input, returning the result. Called once per
// chunk, after every normal track has had a chance to route into it.
func (t *Track) processSend(dt float64, clockInfo clockinfo.Provider, modulators tween.ModulatorValueProvider) []dsp.Frame {
	chunkDt := dt * float64(len(t.pendingInput))
	t.volume.Update(chunkDt, clockInfo, modulators)
	for _, e := range t.effects {
		e.Process(t.pendingInput, dt, clockInfo, modulators)
	}
	amp := float32(t.volume.Value().Amplitude())
	for i := range t.pendingInput {
		t.pendingInput[i] = t.pendingInput[i].Scale(amp)
	}
	return t.pendingInput
}
