// Package parameter implements Parameter[T], the tweened-value engine
// every piece of mutable state in the renderer (volume, playback rate,
// clock speed, listener position, ...) is built on.
package parameter

import (
	"time"

	"github.com/tesselode/kira-sub000/clockinfo"
	"github.com/tesselode/kira-sub000/tween"
)

// UpdateInfo reports what happened during one Parameter.Update call.
type UpdateInfo struct {
	Started     bool
	JustFinished bool
}

// Parameter owns a current value and, optionally, an in-progress tween
// toward a new one. It is "stagnant" — skipped entirely by Update —
// whenever it is idle with a fixed value, which is the common case for
// most parameters most of the time.
type Parameter[T any] struct {
	value        tween.Value[T]
	tweening     bool
	start        T
	target       tween.Value[T]
	elapsed      float64
	activeTween  tween.Tween
	rawValue     T
	stagnant     bool
	interpolate  func(a, b T, x float64) T
}

// New creates a Parameter holding initial, with defaultRawValue used if
// initial is linked to a modulator that doesn't (yet) exist.
func New[T any](initial tween.Value[T], defaultRawValue T, interpolate func(a, b T, x float64) T) *Parameter[T] {
	p := &Parameter[T]{
		value:       initial,
		interpolate: interpolate,
		stagnant:    initial.Kind == tween.Fixed,
	}
	if initial.Kind == tween.Fixed {
		p.rawValue = initial.FixedValue
	} else {
		p.rawValue = defaultRawValue
	}
	return p
}

// Value returns the parameter's current resolved value.
func (p *Parameter[T]) Value() T { return p.rawValue }

// Set begins a transition from the current value to target over tw.
func (p *Parameter[T]) Set(target tween.Value[T], tw tween.Tween) {
	p.stagnant = false
	p.tweening = true
	p.start = p.rawValue
	p.target = target
	p.elapsed = 0
	p.activeTween = tw
}

// Update advances any in-progress tween by dt seconds and recomputes the
// raw value against the current modulator readings. clockInfo resolves
// ClockTime start times; it may be nil if no ClockTime tween is active.
func (p *Parameter[T]) Update(dt float64, clockInfo clockinfo.Provider, modulators tween.ModulatorValueProvider) UpdateInfo {
	if p.stagnant {
		return UpdateInfo{}
	}
	info := p.updateTween(dt, clockInfo)
	if raw, ok := p.calculateRawValue(modulators); ok {
		p.rawValue = raw
	}
	return info
}

func (p *Parameter[T]) updateTween(dt float64, clockInfo clockinfo.Provider) UpdateInfo {
	if !p.tweening {
		return UpdateInfo{}
	}
	var started bool
	switch p.activeTween.StartTime.Kind {
	case tween.Immediate:
		started = true
	case tween.Delayed:
		remaining := p.activeTween.StartTime.Remaining - time.Duration(dt*float64(time.Second))
		if remaining < 0 {
			remaining = 0
		}
		p.activeTween.StartTime.Remaining = remaining
		started = remaining <= 0
	case tween.ClockTime:
		if clockInfo == nil {
			return UpdateInfo{}
		}
		switch clockInfo.WhenToStart(p.activeTween.StartTime.Clock) {
		case clockinfo.Now:
			started = true
		case clockinfo.Never:
			// The owning object (e.g. a sound instance) is responsible
			// for deciding what "never starting" means for it; from the
			// parameter's point of view this tween simply never starts.
			return UpdateInfo{}
		default:
			// Later: keep waiting.
		}
	}
	if !started {
		return UpdateInfo{}
	}
	p.elapsed += dt
	justFinished := p.elapsed >= p.activeTween.Duration.Seconds()
	if justFinished {
		if p.target.Kind == tween.Fixed {
			p.stagnant = true
		}
		p.value = p.target
		p.tweening = false
	}
	return UpdateInfo{Started: started, JustFinished: justFinished}
}

func (p *Parameter[T]) calculateRawValue(modulators tween.ModulatorValueProvider) (T, bool) {
	if !p.tweening {
		return p.value.Resolve(modulators)
	}
	if p.activeTween.Duration <= 0 {
		var zero T
		return zero, false
	}
	target, ok := p.target.Resolve(modulators)
	if !ok {
		var zero T
		return zero, false
	}
	x := p.activeTween.Value(p.elapsed)
	return p.interpolate(p.start, target, x), true
}

