package modulator

import (
	"math"

	"github.com/tesselode/kira-sub000/clockinfo"
	"github.com/tesselode/kira-sub000/command"
	"github.com/tesselode/kira-sub000/parameter"
	"github.com/tesselode/kira-sub000/tween"
)

// Waveform selects an Lfo's oscillation shape.
type Waveform int

const (
	// Sine oscillates smoothly between -1 and 1.
	Sine Waveform = iota
	// Triangle ramps linearly up then down.
	Triangle
	// Saw ramps linearly from -1 to 1 then jumps back.
	Saw
	// Square alternates between -1 and 1.
	Square
)

func (w Waveform) sample(phase float64) float64 {
	switch w {
	case Triangle:
		return 4*math.Abs(phase-math.Floor(phase+0.5)) - 1
	case Saw:
		p := phase - math.Floor(phase)
		return 2*p - 1
	case Square:
		if phase-math.Floor(phase) < 0.5 {
			return 1
		}
		return -1
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}

// Lfo is a modulator that oscillates between -depth and +depth at a
// tweenable frequency.
type Lfo struct {
	Waveform  Waveform
	Frequency *parameter.Parameter[float64]
	Depth     *parameter.Parameter[float64]
	phase     float64

	reader *command.RingReader[LfoCommand]
}

// LfoCommandKind discriminates Lfo control messages.
type LfoCommandKind int

const (
	// LfoSetFrequency retunes the oscillation rate.
	LfoSetFrequency LfoCommandKind = iota
	// LfoSetDepth retunes the oscillation amplitude.
	LfoSetDepth
)

// LfoCommand is a realtime-bound control message for an Lfo.
type LfoCommand struct {
	Kind   LfoCommandKind
	Target float64
	Tween  tween.Tween
}

// NewLfo creates an Lfo with the given waveform, initial frequency (Hz)
// and depth.
func NewLfo(waveform Waveform, frequency, depth float64) (*Lfo, *command.RingWriter[LfoCommand]) {
	w, r := command.NewRing[LfoCommand](8)
	l := &Lfo{
		Waveform:  waveform,
		Frequency: parameter.New(tween.NewFixedValue(frequency), frequency, tween.InterpolateFloat64),
		Depth:     parameter.New(tween.NewFixedValue(depth), depth, tween.InterpolateFloat64),
		reader:    r,
	}
	return l, w
}

// OnStartProcessing drains pending commands.
func (l *Lfo) OnStartProcessing() {
	l.reader.DrainAll(func(cmd LfoCommand) {
		switch cmd.Kind {
		case LfoSetFrequency:
			l.Frequency.Set(tween.NewFixedValue(cmd.Target), cmd.Tween)
		case LfoSetDepth:
			l.Depth.Set(tween.NewFixedValue(cmd.Target), cmd.Tween)
		}
	})
}

// Update implements Modulator.
func (l *Lfo) Update(dt float64, clockInfo clockinfo.Provider) UpdateInfo {
	l.Frequency.Update(dt, clockInfo, noModulators{})
	l.Depth.Update(dt, clockInfo, noModulators{})
	l.phase += dt * l.Frequency.Value()
	l.phase -= math.Floor(l.phase)
	return UpdateInfo{}
}

// Value implements Modulator.
func (l *Lfo) Value() float64 {
	return l.Depth.Value() * l.Waveform.sample(l.phase)
}

// Finished implements Modulator. An Lfo never finishes on its own.
func (l *Lfo) Finished() bool { return false }
