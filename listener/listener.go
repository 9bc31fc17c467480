// Package listener implements spatial listeners: named observers with
// tweenable position and orientation that spatial tracks attenuate and
// pan emitters against.
package listener

import (
	"sync/atomic"

	"github.com/golang/geo/r3"

	"github.com/tesselode/kira-sub000/clockinfo"
	"github.com/tesselode/kira-sub000/command"
	"github.com/tesselode/kira-sub000/parameter"
	"github.com/tesselode/kira-sub000/tween"
)

// earDistance is the half-spacing between the left and right ear
// positions used for interaural panning.
const earDistance = 0.1

// Command is a realtime-bound control message for a Listener.
type Command struct {
	Kind        CommandKind
	Position    tween.Value[r3.Vector]
	Orientation tween.Value[tween.Quat]
	Tween       tween.Tween
}

// CommandKind discriminates Listener Command variants.
type CommandKind int

const (
	// CmdSetPosition moves the listener.
	CmdSetPosition CommandKind = iota
	// CmdSetOrientation rotates the listener.
	CmdSetOrientation
)

// Listener is a spatial observer with tweenable position and
// orientation, routed through a track.
type Listener struct {
	TrackID uint64

	Position    *parameter.Parameter[r3.Vector]
	Orientation *parameter.Parameter[tween.Quat]

	shared *Shared
	reader *command.RingReader[Command]

	havePrevPosition bool
	prevPosition     r3.Vector
	velocity         r3.Vector
}

// Shared is the atomic removal flag published to the control side.
type Shared struct {
	removed atomic.Bool
}

// MarkForRemoval flags the listener for removal; the realtime side's
// next Storage.UpdateAll deletes it from the storage map.
func (s *Shared) MarkForRemoval() { s.removed.Store(true) }

// IsMarkedForRemoval reports whether MarkForRemoval has been called.
func (s *Shared) IsMarkedForRemoval() bool { return s.removed.Load() }

// New creates a Listener routed to trackID, with initial position and
// orientation. It returns the listener plus the control-side command
// writer.
func New(trackID uint64, position r3.Vector, orientation tween.Quat) (*Listener, *command.RingWriter[Command]) {
	w, r := command.NewRing[Command](16)
	l := &Listener{
		TrackID:     trackID,
		Position:    parameter.New(tween.NewFixedValue(position), r3.Vector{}, tween.InterpolateVec3),
		Orientation: parameter.New(tween.NewFixedValue(orientation), tween.QuatIdentity, tween.InterpolateQuat),
		shared:      &Shared{},
		reader:      r,
	}
	return l, w
}

// Shared returns the atomic removal-flag handle.
func (l *Listener) Shared() *Shared { return l.shared }

// OnStartProcessing drains pending commands.
func (l *Listener) OnStartProcessing() {
	l.reader.DrainAll(func(cmd Command) {
		switch cmd.Kind {
		case CmdSetPosition:
			l.Position.Set(cmd.Position, cmd.Tween)
		case CmdSetOrientation:
			l.Orientation.Set(cmd.Orientation, cmd.Tween)
		}
	})
}

// Update advances the tweened position and orientation by dt seconds,
// and re-estimates the listener's velocity from the position delta
// since the last call.
func (l *Listener) Update(dt float64, clockInfo clockinfo.Provider, modulators tween.ModulatorValueProvider) {
	l.Position.Update(dt, clockInfo, modulators)
	l.Orientation.Update(dt, clockInfo, modulators)

	pos := l.Position.Value()
	if !l.havePrevPosition {
		l.prevPosition = pos
		l.havePrevPosition = true
		return
	}
	if dt > 0 {
		l.velocity = pos.Sub(l.prevPosition).Mul(1 / dt)
	}
	l.prevPosition = pos
}

// Velocity returns the listener's estimated velocity for the current chunk.
func (l *Listener) Velocity() r3.Vector { return l.velocity }

// EarPositions returns the world-space positions of the left and right
// ears, derived by offsetting the listener's position along its
// orientation's local X axis.
func (l *Listener) EarPositions() (left, right r3.Vector) {
	position := l.Position.Value()
	orientation := l.Orientation.Value()
	left = position.Add(orientation.Rotate(r3.Vector{X: -earDistance, Y: 0, Z: 0}))
	right = position.Add(orientation.Rotate(r3.Vector{X: earDistance, Y: 0, Z: 0}))
	return left, right
}
