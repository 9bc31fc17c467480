// Package manager is the control-side facade over the mixer graph: it
// owns construction of tracks, sounds, clocks, modulators, and
// listeners, and hands back handles that issue commands across the
// SPSC rings the renderer drains once per buffer.
package manager

import (
	"sync/atomic"

	"github.com/golang/geo/r3"
	"golang.org/x/sync/errgroup"

	"github.com/tesselode/kira-sub000/arena"
	"github.com/tesselode/kira-sub000/clock"
	"github.com/tesselode/kira-sub000/decoder"
	"github.com/tesselode/kira-sub000/internal/logging"
	"github.com/tesselode/kira-sub000/listener"
	"github.com/tesselode/kira-sub000/modulator"
	"github.com/tesselode/kira-sub000/renderer"
	"github.com/tesselode/kira-sub000/sound"
	"github.com/tesselode/kira-sub000/track"
	"github.com/tesselode/kira-sub000/tween"
)

// Settings configures a new Manager.
type Settings struct {
	SampleRate           uint32
	MainSubTrackCapacity uint16
	MainSoundCapacity    uint16
	SendTrackCapacity    uint16
}

type clockAddRequest struct {
	id uint64
	c  *clock.Clock
}

type modulatorAddRequest struct {
	id uint64
	m  modulator.Modulator
}

// Manager is the single control-side owner of a mixer graph and its
// Renderer. Every exported method is safe to call from any control
// thread serialized by the caller (matching the handle model every
// realtime object already uses).
type Manager struct {
	sampleRate uint32

	main       *track.Track
	mainHandle *track.Handle

	sendArena *arena.Controller
	sends     *track.SendRegistry

	clocks     *clock.Storage
	modulators *modulator.Storage
	listeners  *listener.Storage

	rend *renderer.Renderer

	nextID atomic.Uint64

	clockAdds     chan clockAddRequest
	modulatorAdds chan modulatorAddRequest
	listenerAdds  chan *listener.Listener

	// schedulers supervises every streaming sound's decode-scheduler
	// goroutine, so Close can wait for clean shutdown instead of
	// leaking them.
	schedulers *errgroup.Group
}

const pendingRegistrationCapacity = 64

// New builds a Manager and its Renderer, ready to be wired into a
// Backend.
func New(settings Settings) *Manager {
	main, mainHandle := track.NewMain(settings.MainSubTrackCapacity, settings.MainSoundCapacity)

	sendCap := settings.SendTrackCapacity
	if sendCap == 0 {
		sendCap = 16
	}
	sends, sendArena := track.NewSendRegistry(sendCap)

	m := &Manager{
		sampleRate:    settings.SampleRate,
		main:          main,
		mainHandle:    mainHandle,
		sendArena:     sendArena,
		sends:         sends,
		clocks:        clock.NewStorage(),
		modulators:    modulator.NewStorage(),
		listeners:     listener.NewStorage(),
		clockAdds:     make(chan clockAddRequest, pendingRegistrationCapacity),
		modulatorAdds: make(chan modulatorAddRequest, pendingRegistrationCapacity),
		listenerAdds:  make(chan *listener.Listener, pendingRegistrationCapacity),
		schedulers:    &errgroup.Group{},
	}
	m.rend = renderer.New(settings.SampleRate, main, sends, m.clocks, m.modulators, m.listeners)
	m.rend.AddStartHook(m.drainPendingRegistrations)
	return m
}

// Renderer returns the realtime render loop a Backend drives.
func (m *Manager) Renderer() *renderer.Renderer { return m.rend }

// MainTrack returns the handle to the tree's root track.
func (m *Manager) MainTrack() *TrackHandle {
	return &TrackHandle{ID: 0, Handle: m.mainHandle}
}

// drainPendingRegistrations installs every clock/modulator/listener
// queued by AddClock/AddModulator/AddListener since the last buffer.
// Runs on the realtime thread, as a Renderer start hook, since
// clock.Storage/modulator.Storage/listener.Storage are plain maps with
// no synchronization of their own.
func (m *Manager) drainPendingRegistrations() {
drainClocks:
	for {
		select {
		case req := <-m.clockAdds:
			m.clocks.Add(req.id, req.c)
		default:
			break drainClocks
		}
	}
drainModulators:
	for {
		select {
		case req := <-m.modulatorAdds:
			m.modulators.Add(req.id, req.m)
		default:
			break drainModulators
		}
	}
drainListeners:
	for {
		select {
		case l := <-m.listenerAdds:
			m.listeners.Add(l)
		default:
			break drainListeners
		}
	}
}

// AddSubTrack creates an ordinary mixer track as a child of parent.
func (m *Manager) AddSubTrack(parent *TrackHandle, settings track.SubSettings) (*TrackHandle, error) {
	key, err := parent.SubTracks.Reserve()
	if err != nil {
		return nil, ErrResourceLimitReached
	}
	child, childHandle := track.NewSub(settings)
	if err := parent.SubTracks.Add(key, child); err != nil {
		return nil, ErrCommandQueueFull
	}
	id := m.nextID.Add(1)
	return &TrackHandle{ID: id, Handle: childHandle}, nil
}

// AddSpatialSubTrack creates a Sub track shaped by a listener's
// position and orientation. listenerID is written into
// settings.Spatial.ListenerID; if settings.Spatial is nil the track is
// created without spatial data and listenerID is ignored.
func (m *Manager) AddSpatialSubTrack(parent *TrackHandle, settings track.SubSettings, listenerID uint64) (*TrackHandle, error) {
	if settings.Spatial != nil {
		settings.Spatial.ListenerID = listenerID
	}
	return m.AddSubTrack(parent, settings)
}

// AddSendTrack creates a Send track in the manager's send registry and
// returns its handle plus the SendTrackID routes should name to reach
// it.
func (m *Manager) AddSendTrack(settings track.SendSettings) (*TrackHandle, uint64, error) {
	key, err := m.sendArena.TryReserve()
	if err != nil {
		logging.Logger.Warn("send track arena full")
		return nil, 0, ErrResourceLimitReached
	}
	child, childHandle := track.NewSend(settings)
	if err := m.sends.Insert(key, child); err != nil {
		return nil, 0, ErrCommandQueueFull
	}
	sendID := m.sends.EncodedID(key)
	return &TrackHandle{ID: sendID, Handle: childHandle}, sendID, nil
}

// PlaySound starts data playing on track, returning a handle that
// issues playback commands.
func (m *Manager) PlaySound(trk *TrackHandle, data sound.Source, settings sound.Settings) (*SoundHandle, error) {
	key, err := trk.Sounds.Reserve()
	if err != nil {
		logging.Logger.Warn("sound arena full", "trackID", trk.ID)
		return nil, ErrSoundLimitReached
	}
	settings.TrackID = trk.ID
	inst, w := sound.New(data, settings)
	if err := trk.Sounds.Add(key, inst); err != nil {
		return nil, ErrCommandQueueFull
	}
	return &SoundHandle{instance: inst, commands: w}, nil
}

// PlayStreaming starts dec playing on track via a background decode
// scheduler goroutine, returning a handle that issues playback and seek
// commands. Call the handle's StopScheduler once playback is done to
// exit the goroutine.
func (m *Manager) PlayStreaming(trk *TrackHandle, dec decoder.Decoder, startFrame int64, loopRegion *sound.LoopRegion, settings sound.Settings) (*SoundHandle, error) {
	key, err := trk.Sounds.Reserve()
	if err != nil {
		logging.Logger.Warn("sound arena full", "trackID", trk.ID)
		return nil, ErrSoundLimitReached
	}
	scheduler, src, schedulerShared, schedulerCommands := sound.NewDecodeScheduler(dec, startFrame, loopRegion)
	m.schedulers.Go(func() error {
		if err := scheduler.Run(); err != nil {
			logging.Logger.Error("decode scheduler stopped", "trackID", trk.ID, "error", err)
			return err
		}
		return nil
	})

	settings.TrackID = trk.ID
	settings.LoopRegion = loopRegion
	inst, w := sound.New(src, settings)
	if err := trk.Sounds.Add(key, inst); err != nil {
		return nil, ErrCommandQueueFull
	}
	return &SoundHandle{instance: inst, commands: w, schedulerCommands: schedulerCommands, schedulerShared: schedulerShared}, nil
}

// AddClock creates a clock ticking at initialSpeed. The new clock isn't
// visible to the renderer until its next buffer start.
func (m *Manager) AddClock(initialSpeed tween.Value[clock.Speed]) (*ClockHandle, error) {
	id := m.nextID.Add(1)
	c, w := clock.New(id, initialSpeed)
	select {
	case m.clockAdds <- clockAddRequest{id: id, c: c}:
	default:
		return nil, ErrResourceLimitReached
	}
	return &ClockHandle{ID: id, commands: w, shared: c.Shared()}, nil
}

// AddTweenerModulator creates a Tweener modulator starting at
// initialValue.
func (m *Manager) AddTweenerModulator(initialValue float64) (*ModulatorHandle, error) {
	id := m.nextID.Add(1)
	t, w := modulator.NewTweener(initialValue)
	managed, shared := modulator.NewManaged(t)
	select {
	case m.modulatorAdds <- modulatorAddRequest{id: id, m: managed}:
	default:
		return nil, ErrResourceLimitReached
	}
	return &ModulatorHandle{ID: id, shared: shared, tweenerCommands: w}, nil
}

// AddLfoModulator creates an Lfo modulator.
func (m *Manager) AddLfoModulator(waveform modulator.Waveform, frequency, depth float64) (*ModulatorHandle, error) {
	id := m.nextID.Add(1)
	l, w := modulator.NewLfo(waveform, frequency, depth)
	managed, shared := modulator.NewManaged(l)
	select {
	case m.modulatorAdds <- modulatorAddRequest{id: id, m: managed}:
	default:
		return nil, ErrResourceLimitReached
	}
	return &ModulatorHandle{ID: id, shared: shared, lfoCommands: w}, nil
}

// AddListener creates a spatial listener at position and orientation.
// Its id is the value spatial tracks should reference as
// SpatialSettings.ListenerID.
func (m *Manager) AddListener(position r3.Vector, orientation tween.Quat) (*ListenerHandle, error) {
	id := m.nextID.Add(1)
	l, w := listener.New(id, position, orientation)
	select {
	case m.listenerAdds <- l:
	default:
		return nil, ErrResourceLimitReached
	}
	return &ListenerHandle{ID: id, commands: w, shared: l.Shared()}, nil
}

// Close waits for every streaming sound's decode-scheduler goroutine to
// exit. A scheduler exits when StopScheduler is called on its
// SoundHandle or when its source is exhausted; until then Close
// blocks.
func (m *Manager) Close() error {
	return m.schedulers.Wait()
}
