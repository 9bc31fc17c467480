// Package sound implements playable sound instances: the state
// machine, parameter set, and 4-point interpolated resampling that
// turns a Source (static data or a streaming decoder) into a stream of
// stereo frames.
package sound

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/tesselode/kira-sub000/clockinfo"
	"github.com/tesselode/kira-sub000/command"
	"github.com/tesselode/kira-sub000/dsp"
	"github.com/tesselode/kira-sub000/parameter"
	"github.com/tesselode/kira-sub000/tween"
)

// Shared is the atomic snapshot an instance publishes to the control
// side: playback state and position, both readable without locking.
type Shared struct {
	state        atomic.Uint32
	positionBits atomic.Uint64
}

func (s *Shared) store(state PlaybackState, position float64) {
	s.state.Store(uint32(state))
	s.positionBits.Store(math.Float64bits(position))
}

// State returns the last-published playback state.
func (s *Shared) State() PlaybackState { return PlaybackState(s.state.Load()) }

// Position returns the last-published playhead position, in frames.
func (s *Shared) Position() float64 { return math.Float64frombits(s.positionBits.Load()) }

// Settings configures a new Instance.
type Settings struct {
	TrackID       uint64
	StartTime     tween.StartTime
	StartPosition int64
	Volume        tween.Value[tween.Decibels]
	// PlaybackRate scales how fast the playhead advances (1 is the
	// source's own rate); its zero value is a fixed rate of 0, which
	// holds the playhead still — pass tween.NewFixedValue(1.0) for
	// normal-speed playback.
	PlaybackRate  tween.Value[float64]
	// Panning ranges from 0 (full left) to 1 (full right); its zero
	// value is therefore hard left, not center — pass
	// tween.NewFixedValue(0.5) explicitly for centered playback.
	Panning tween.Value[float64]
	Reverse       bool
	LoopRegion    *LoopRegion
	FadeInTween   *tween.Tween
}

// CommandKind discriminates Instance Command variants.
type CommandKind int

const (
	// CmdSetVolume forwards to the volume parameter.
	CmdSetVolume CommandKind = iota
	// CmdSetPlaybackRate forwards to the playback-rate parameter.
	CmdSetPlaybackRate
	// CmdSetPanning forwards to the panning parameter.
	CmdSetPanning
	// CmdPause begins a fade to silence, then transitions to Paused.
	CmdPause
	// CmdResume begins a fade to full volume and returns to Playing.
	CmdResume
	// CmdStop begins a fade to silence, then transitions to Stopped.
	CmdStop
	// CmdSeekTo moves the transport to an absolute frame.
	CmdSeekTo
	// CmdSeekBy moves the transport by a relative frame delta.
	CmdSeekBy
)

// Command is a realtime-bound instance control message.
type Command struct {
	Kind         CommandKind
	VolumeValue  tween.Value[tween.Decibels]
	RateValue    tween.Value[float64]
	PanValue     tween.Value[float64]
	Tween        tween.Tween
	StartTime    tween.StartTime
	SeekPosition int64
}

// Instance is a single playing sound: a state machine, cached
// parameters, and a Transport walking across a Source.
type Instance struct {
	data   Source
	track  uint64
	state  PlaybackState
	begun  bool // false while waiting on a Delayed/ClockTime start
	start  tween.StartTime

	transport          Transport
	fractionalPosition float64

	volume       *parameter.Parameter[tween.Decibels]
	playbackRate *parameter.Parameter[float64]
	panning      *parameter.Parameter[float64]
	volumeFade   *parameter.Parameter[tween.Decibels]

	shared *Shared
	reader *command.RingReader[Command]
}

// New creates an Instance over data with the given settings. It
// returns the instance plus the control-side command writer.
func New(data Source, settings Settings) (*Instance, *command.RingWriter[Command]) {
	w, r := command.NewRing[Command](32)

	transport := NewTransport(data.NumFrames())
	transport.Reverse = settings.Reverse
	transport.LoopRegion = settings.LoopRegion
	transport.Position = settings.StartPosition

	volumeFade := parameter.New(tween.NewFixedValue(tween.Decibels(0)), 0, tween.InterpolateDecibels)
	if settings.FadeInTween != nil {
		volumeFade = parameter.New(tween.NewFixedValue(tween.MinusInfinityDB), 0, tween.InterpolateDecibels)
		volumeFade.Set(tween.NewFixedValue(tween.Decibels(0)), *settings.FadeInTween)
	}

	inst := &Instance{
		data:         data,
		track:        settings.TrackID,
		state:        Playing,
		begun:        settings.StartTime.Kind == tween.Immediate,
		start:        settings.StartTime,
		transport:    transport,
		volume:       parameter.New(settings.Volume, 0, tween.InterpolateDecibels),
		playbackRate: parameter.New(settings.PlaybackRate, 1, tween.InterpolateFloat64),
		panning:      parameter.New(settings.Panning, 0.5, tween.InterpolateFloat64),
		volumeFade:   volumeFade,
		shared:       &Shared{},
		reader:       r,
	}
	inst.shared.store(inst.state, float64(inst.transport.Position))
	return inst, w
}

// Shared returns the atomic snapshot handle read without locking.
func (inst *Instance) Shared() *Shared { return inst.shared }

// TrackID reports which track this instance is routed to.
func (inst *Instance) TrackID() uint64 { return inst.track }

func (inst *Instance) setState(state PlaybackState) {
	inst.state = state
	inst.shared.store(state, float64(inst.transport.Position))
}

// OnStartProcessing publishes the current position and drains pending
// commands.
func (inst *Instance) OnStartProcessing() {
	inst.shared.store(inst.state, float64(inst.transport.Position))
	inst.reader.DrainAll(func(cmd Command) {
		switch cmd.Kind {
		case CmdSetVolume:
			inst.volume.Set(cmd.VolumeValue, cmd.Tween)
		case CmdSetPlaybackRate:
			inst.playbackRate.Set(cmd.RateValue, cmd.Tween)
		case CmdSetPanning:
			inst.panning.Set(cmd.PanValue, cmd.Tween)
		case CmdPause:
			inst.setState(Pausing)
			inst.volumeFade.Set(tween.NewFixedValue(tween.MinusInfinityDB), cmd.Tween)
		case CmdResume:
			inst.setState(Playing)
			inst.volumeFade.Set(tween.NewFixedValue(tween.Decibels(0)), cmd.Tween)
			inst.start = cmd.StartTime
			inst.begun = cmd.StartTime.Kind == tween.Immediate
		case CmdStop:
			inst.setState(Stopping)
			inst.volumeFade.Set(tween.NewFixedValue(tween.MinusInfinityDB), cmd.Tween)
		case CmdSeekTo:
			inst.transport.SeekTo(cmd.SeekPosition)
		case CmdSeekBy:
			inst.transport.SeekBy(cmd.SeekPosition)
		}
	})
}

// Finished reports whether the instance has reached the terminal
// Stopped state and is eligible for removal.
func (inst *Instance) Finished() bool { return inst.state == Stopped }

// resolveStartTime advances a pending Delayed/ClockTime start by dt,
// returning true once playback may begin.
func (inst *Instance) resolveStartTime(dt float64, clockInfo clockinfo.Provider) bool {
	if inst.begun {
		return true
	}
	switch inst.start.Kind {
	case tween.Delayed:
		inst.start.Remaining -= time.Duration(dt * float64(time.Second))
		if inst.start.Remaining <= 0 {
			inst.begun = true
		}
	case tween.ClockTime:
		if clockInfo == nil {
			return false
		}
		switch clockInfo.WhenToStart(inst.start.Clock) {
		case clockinfo.Now:
			inst.begun = true
		case clockinfo.Never:
			inst.setState(Stopped)
		}
	default:
		inst.begun = true
	}
	return inst.begun
}

// Process advances the instance by dt seconds and returns the frame it
// produced (silence if paused, stopped, or not yet started).
func (inst *Instance) Process(dt float64, sampleRate uint32, clockInfo clockinfo.Provider, modulators tween.ModulatorValueProvider) dsp.Frame {
	volumeFadeInfo := inst.volumeFade.Update(dt, clockInfo, modulators)
	inst.volume.Update(dt, clockInfo, modulators)
	inst.playbackRate.Update(dt, clockInfo, modulators)
	inst.panning.Update(dt, clockInfo, modulators)

	if volumeFadeInfo.JustFinished {
		switch inst.state {
		case Pausing:
			inst.setState(Paused)
		case Stopping:
			inst.setState(Stopped)
		}
	}

	if !inst.resolveStartTime(dt, clockInfo) {
		return dsp.Frame{}
	}
	if inst.state == Paused || inst.state == Stopped {
		return dsp.Frame{}
	}

	out, ok := inst.sampleAndAdvance(dt, sampleRate)
	if !ok {
		return dsp.Frame{}
	}

	amplitude := float32(inst.volumeFade.Value().Amplitude() * inst.volume.Value().Amplitude())
	mono := out.Mono() * amplitude
	return dsp.Panned(mono, inst.panning.Value())
}

func (inst *Instance) sampleAndAdvance(dt float64, sampleRate uint32) (dsp.Frame, bool) {
	pos := inst.transport.Position
	f0, ok0 := inst.data.FrameAt(pos - 1)
	f1, ok1 := inst.data.FrameAt(pos)
	f2, ok2 := inst.data.FrameAt(pos + 1)
	f3, ok3 := inst.data.FrameAt(pos + 2)
	if countAvailable(ok0, ok1, ok2, ok3) < 2 {
		return dsp.Frame{}, false
	}
	out := dsp.HermiteInterpolateFrame(f0, f1, f2, f3, float32(inst.fractionalPosition))

	advance := float64(sampleRate) * inst.playbackRate.Value() * dt
	if advance < 0 {
		advance = -advance
	}
	inst.fractionalPosition += advance
	for inst.fractionalPosition >= 1 && inst.transport.Playing {
		inst.transport.IncrementPosition()
		inst.fractionalPosition -= 1
	}
	if !inst.transport.Playing {
		inst.setState(Stopped)
	}
	return out, true
}

func countAvailable(oks ...bool) int {
	n := 0
	for _, ok := range oks {
		if ok {
			n++
		}
	}
	return n
}

