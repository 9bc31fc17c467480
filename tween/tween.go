package tween

import "time"

// StartTimeKind discriminates the StartTime variants.
type StartTimeKind int

const (
	// Immediate starts as soon as the owning update loop sees the tween.
	Immediate StartTimeKind = iota
	// Delayed starts after a fixed wall-clock duration has elapsed.
	Delayed
	// ClockTime anchors the start to a specific tick (and sub-tick
	// fraction) of a user clock.
	ClockTime
)

// ClockTimeRef names a tick on a specific clock, with the fractional
// position within that tick the start should occur at (normally 0,
// used when a tween wants to begin partway through the buffer the tick
// landed in).
type ClockTimeRef struct {
	ClockID  uint64
	Tick     uint64
	Fraction float64
}

// StartTime describes when a Tween begins.
type StartTime struct {
	Kind      StartTimeKind
	Remaining time.Duration // valid when Kind == Delayed
	Clock     ClockTimeRef  // valid when Kind == ClockTime
}

// ImmediateStart is the zero-delay StartTime.
var ImmediateStart = StartTime{Kind: Immediate}

// DelayedStart waits d before starting.
func DelayedStart(d time.Duration) StartTime {
	return StartTime{Kind: Delayed, Remaining: d}
}

// ClockTimeStart anchors the start to a tick on a clock.
func ClockTimeStart(clockID uint64, tick uint64) StartTime {
	return StartTime{Kind: ClockTime, Clock: ClockTimeRef{ClockID: clockID, Tick: tick}}
}

// Tween describes a bounded transition: when it starts, how long it
// takes, and the shape of its progress curve.
type Tween struct {
	StartTime StartTime
	Duration  time.Duration
	Easing    Easing
}

// DefaultTween is an immediate, instantaneous, linear tween — the
// degenerate case used by "set this value right now".
var DefaultTween = Tween{StartTime: ImmediateStart, Duration: 0, Easing: EaseLinear}

// Value returns the eased progress in [0,1] for time seconds elapsed
// since the tween started. Callers must not call this before the tween
// has started.
func (t Tween) Value(elapsed float64) float64 {
	if t.Duration <= 0 {
		return 1
	}
	x := elapsed / t.Duration.Seconds()
	if x < 0 {
		x = 0
	}
	if x > 1 {
		x = 1
	}
	return t.Easing.Apply(x)
}
