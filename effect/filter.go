package effect

import (
	"math"

	"github.com/tesselode/kira-sub000/clockinfo"
	"github.com/tesselode/kira-sub000/command"
	"github.com/tesselode/kira-sub000/dsp"
	"github.com/tesselode/kira-sub000/parameter"
	"github.com/tesselode/kira-sub000/tween"
)

// minFilterQ floors Q so the coefficient calculation never divides by
// (near) zero.
const minFilterQ = 0.01

// FilterKind selects the shape of the frequency adjustment curve.
type FilterKind int

const (
	FilterBell FilterKind = iota
	FilterLowShelf
	FilterHighShelf
)

// FilterCommandKind discriminates Filter Command variants.
type FilterCommandKind int

const (
	FilterSetKind FilterCommandKind = iota
	FilterSetFrequency
	FilterSetGain
	FilterSetQ
)

// FilterCommand is a realtime-bound parameter change for a Filter
// effect. Only the field matching Kind is read.
type FilterCommand struct {
	Kind          FilterCommandKind
	FilterKind    FilterKind
	FrequencyGain tween.Value[float64] // used for SetFrequency and SetQ
	Gain          tween.Value[tween.Decibels]
	Tween         tween.Tween
}

// FilterSettings configures a new Filter effect.
type FilterSettings struct {
	Kind      FilterKind
	Frequency tween.Value[float64]
	Gain      tween.Value[tween.Decibels]
	Q         tween.Value[float64]
}

// Filter is a state-variable EQ filter (bell, low-shelf, or high-shelf),
// following the trapezoidal-integrator topology described in Andrew
// Simper's "Solving the continuous SVF equations using a trapezoidal
// integrator" (the two-integrator-loop form with ic1eq/ic2eq state).
type Filter struct {
	kind      FilterKind
	frequency *parameter.Parameter[float64]
	gain      *parameter.Parameter[tween.Decibels]
	q         *parameter.Parameter[float64]

	ic1eq, ic2eq dsp.Frame

	reader *command.RingReader[FilterCommand]
}

// NewFilter creates a Filter effect and its control-side handle.
func NewFilter(settings FilterSettings) (*Filter, *command.RingWriter[FilterCommand]) {
	w, r := command.NewRing[FilterCommand](16)
	f := &Filter{
		kind:      settings.Kind,
		frequency: parameter.New(settings.Frequency, 500, tween.InterpolateFloat64),
		gain:      parameter.New(settings.Gain, tween.Decibels(0), tween.InterpolateDecibels),
		q:         parameter.New(settings.Q, 1, tween.InterpolateFloat64),
		reader:    r,
	}
	return f, w
}

func (f *Filter) Init(sampleRate uint32)               {}
func (f *Filter) OnChangeSampleRate(sampleRate uint32) {}

func (f *Filter) OnStartProcessing() {
	f.reader.DrainAll(func(cmd FilterCommand) {
		switch cmd.Kind {
		case FilterSetKind:
			f.kind = cmd.FilterKind
		case FilterSetFrequency:
			f.frequency.Set(cmd.FrequencyGain, cmd.Tween)
		case FilterSetGain:
			f.gain.Set(cmd.Gain, cmd.Tween)
		case FilterSetQ:
			f.q.Set(cmd.FrequencyGain, cmd.Tween)
		}
	})
}

type filterCoefficients struct {
	a1, a2, a3 float64
	m0, m1, m2 float64
}

func calculateFilterCoefficients(kind FilterKind, frequency, q float64, gain tween.Decibels, dt float64) filterCoefficients {
	relativeFrequency := clampRange(frequency*dt, 0.0001, 0.5)
	q = math.Max(q, minFilterQ)
	a := math.Pow(10, float64(gain)/40)

	switch kind {
	case FilterLowShelf:
		g := math.Tan(math.Pi*relativeFrequency) / math.Sqrt(a)
		k := 1 / q
		a1 := 1 / (1 + g*(g+k))
		a2 := g * a1
		a3 := g * a2
		return filterCoefficients{a1: a1, a2: a2, a3: a3, m0: 1, m1: k * (a - 1), m2: a*a - 1}
	case FilterHighShelf:
		g := math.Tan(math.Pi*relativeFrequency) * math.Sqrt(a)
		k := 1 / q
		a1 := 1 / (1 + g*(g+k))
		a2 := g * a1
		a3 := g * a2
		return filterCoefficients{a1: a1, a2: a2, a3: a3, m0: a * a, m1: k * (1 - a) * a, m2: 1 - a*a}
	default: // FilterBell
		g := math.Tan(math.Pi * relativeFrequency)
		k := 1 / (q * a)
		a1 := 1 / (1 + g*(g+k))
		a2 := g * a1
		a3 := g * a2
		return filterCoefficients{a1: a1, a2: a2, a3: a3, m0: 1, m1: k * (a*a - 1), m2: 0}
	}
}

func clampRange(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func (f *Filter) Process(buffer []dsp.Frame, dt float64, clockInfo clockinfo.Provider, modulators tween.ModulatorValueProvider) {
	chunkDt := dt * float64(len(buffer))
	f.frequency.Update(chunkDt, clockInfo, modulators)
	f.gain.Update(chunkDt, clockInfo, modulators)
	f.q.Update(chunkDt, clockInfo, modulators)

	coeffs := calculateFilterCoefficients(f.kind, f.frequency.Value(), f.q.Value(), f.gain.Value(), dt)
	a1, a2, a3 := float32(coeffs.a1), float32(coeffs.a2), float32(coeffs.a3)
	m0, m1, m2 := float32(coeffs.m0), float32(coeffs.m1), float32(coeffs.m2)

	for i, frame := range buffer {
		v3 := frame.Add(f.ic2eq.Scale(-1))
		v1 := f.ic1eq.Scale(a1).Add(v3.Scale(a2))
		v2 := f.ic2eq.Add(f.ic1eq.Scale(a2)).Add(v3.Scale(a3))
		f.ic1eq = v1.Scale(2).Add(f.ic1eq.Scale(-1))
		f.ic2eq = v2.Scale(2).Add(f.ic2eq.Scale(-1))
		buffer[i] = frame.Scale(m0).Add(v1.Scale(m1)).Add(v2.Scale(m2))
	}
}
