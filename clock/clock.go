// Package clock implements user-defined tick sources with tweenable
// speed, used to anchor tween start times to musical or game-logic
// beats rather than wall-clock time.
package clock

import (
	"math"
	"sync/atomic"

	"github.com/tesselode/kira-sub000/clockinfo"
	"github.com/tesselode/kira-sub000/command"
	"github.com/tesselode/kira-sub000/parameter"
	"github.com/tesselode/kira-sub000/tween"
)

// SpeedKind discriminates the two ways a clock's rate can be expressed.
type SpeedKind int

const (
	// SecondsPerTick ticks once every N seconds.
	SecondsPerTick SpeedKind = iota
	// TicksPerMinute ticks at a musical tempo.
	TicksPerMinute
)

// Speed is the tweenable value driving how fast a Clock ticks.
type Speed struct {
	Kind  SpeedKind
	Value float64
}

// SecondsPerTickSpeed builds a Speed from a seconds-per-tick value.
func SecondsPerTickSpeed(seconds float64) Speed {
	return Speed{Kind: SecondsPerTick, Value: seconds}
}

// TicksPerMinuteSpeed builds a Speed from a tempo in ticks (beats) per minute.
func TicksPerMinuteSpeed(tempo float64) Speed {
	return Speed{Kind: TicksPerMinute, Value: tempo}
}

func (s Speed) secondsPerTick() float64 {
	switch s.Kind {
	case TicksPerMinute:
		if s.Value <= 0 {
			return 0
		}
		return 60.0 / s.Value
	default:
		return s.Value
	}
}

// InterpolateSpeed is the Tweenable implementation for Speed: it
// interpolates in seconds-per-tick space regardless of which unit
// either endpoint was expressed in, and reports the result in the
// target's unit.
func InterpolateSpeed(a, b Speed, x float64) Speed {
	sa, sb := a.secondsPerTick(), b.secondsPerTick()
	s := tween.InterpolateFloat64(sa, sb, x)
	if b.Kind == TicksPerMinute {
		if s <= 0 {
			return TicksPerMinuteSpeed(0)
		}
		return TicksPerMinuteSpeed(60.0 / s)
	}
	return SecondsPerTickSpeed(s)
}

// Shared is the atomic snapshot of clock state published to the control
// side. Fields are read without locking; values may lag the realtime
// side by up to one buffer.
type Shared struct {
	ticking      atomic.Bool
	ticks        atomic.Uint64
	fractionBits atomic.Uint64
	removed      atomic.Bool
}

// MarkForRemoval flags the clock for removal once its handle is
// dropped; the realtime side sees this on its next update and returns
// the resource through Storage.
func (s *Shared) MarkForRemoval() { s.removed.Store(true) }

// IsMarkedForRemoval reports whether MarkForRemoval has been called.
func (s *Shared) IsMarkedForRemoval() bool { return s.removed.Load() }

func (s *Shared) store(ticking bool, ticks uint64, fraction float64) {
	s.ticking.Store(ticking)
	s.ticks.Store(ticks)
	s.fractionBits.Store(math.Float64bits(fraction))
}

// Ticking reports whether the clock is currently running.
func (s *Shared) Ticking() bool { return s.ticking.Load() }

// Ticks returns the whole-tick count as of the last buffer.
func (s *Shared) Ticks() uint64 { return s.ticks.Load() }

// Fraction returns the fractional progress toward the next tick.
func (s *Shared) Fraction() float64 { return math.Float64frombits(s.fractionBits.Load()) }

// Command is a realtime-bound clock control message.
type Command struct {
	Kind  CommandKind
	Speed tween.Value[Speed]
	Tween tween.Tween
}

// CommandKind discriminates Clock Command variants.
type CommandKind int

const (
	// CmdSetSpeed changes the tweenable speed.
	CmdSetSpeed CommandKind = iota
	// CmdStart begins ticking.
	CmdStart
	// CmdPause stops ticking without resetting fractional progress.
	CmdPause
	// CmdStop stops ticking and resets to NotStarted.
	CmdStop
)

// Clock is a tick source with a tweenable Speed. Ticks never run
// backwards; pausing preserves fractional progress, stopping resets
// both the tick count and the fraction.
type Clock struct {
	ID    uint64
	Speed *parameter.Parameter[Speed]

	ticking  bool
	ticks    uint64
	fraction float64
	shared   *Shared

	commandReader *command.RingReader[Command]
}

// New creates a realtime Clock with the given id and initial speed. It
// returns the clock plus the control-side command writer.
func New(id uint64, initialSpeed tween.Value[Speed]) (*Clock, *command.RingWriter[Command]) {
	w, r := command.NewRing[Command](32)
	c := &Clock{
		ID:            id,
		Speed:         parameter.New(initialSpeed, SecondsPerTickSpeed(1), InterpolateSpeed),
		shared:        &Shared{},
		commandReader: r,
	}
	return c, w
}

// Shared returns the atomic snapshot handle read without locking.
func (c *Clock) Shared() *Shared { return c.shared }

// OnStartProcessing drains pending commands and publishes the current
// snapshot. Called once per buffer, before Update.
func (c *Clock) OnStartProcessing() {
	c.commandReader.DrainAll(func(cmd Command) {
		switch cmd.Kind {
		case CmdSetSpeed:
			c.Speed.Set(cmd.Speed, cmd.Tween)
		case CmdStart:
			c.ticking = true
		case CmdPause:
			c.ticking = false
		case CmdStop:
			c.ticking = false
			c.ticks = 0
			c.fraction = 0
		}
	})
	c.shared.store(c.ticking, c.ticks, c.fraction)
}

// Update advances the clock by dt seconds and reports whether it ticked
// over at least once during this buffer.
func (c *Clock) Update(dt float64, modulators tween.ModulatorValueProvider) (ticked bool) {
	c.Speed.Update(dt, nil, modulators)
	if !c.ticking {
		return false
	}
	rate := c.Speed.Value().secondsPerTick()
	if rate <= 0 {
		return false
	}
	c.fraction += dt / rate
	for c.fraction >= 1 {
		c.fraction -= 1
		c.ticks++
		ticked = true
	}
	return ticked
}

// Info is a point-in-time snapshot used by InfoProvider.
type Info struct {
	Ticking  bool
	Ticks    uint64
	Fraction float64
}

// Snapshot returns the current Info for this clock.
func (c *Clock) Snapshot() Info {
	return Info{Ticking: c.ticking, Ticks: c.ticks, Fraction: c.fraction}
}

// InfoProvider answers WhenToStart queries across every clock currently
// alive on the realtime side. It implements clockinfo.Provider.
type InfoProvider struct {
	Snapshots map[uint64]Info
}

// WhenToStart implements clockinfo.Provider.
func (p InfoProvider) WhenToStart(ref tween.ClockTimeRef) clockinfo.WhenToStart {
	info, ok := p.Snapshots[ref.ClockID]
	if !ok {
		return clockinfo.Never
	}
	if !info.Ticking && info.Ticks == 0 {
		return clockinfo.Later
	}
	if info.Ticks >= ref.Tick {
		return clockinfo.Now
	}
	return clockinfo.Later
}
