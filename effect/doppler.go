package effect

import (
	"math"

	"github.com/tesselode/kira-sub000/clockinfo"
	"github.com/tesselode/kira-sub000/command"
	"github.com/tesselode/kira-sub000/dsp"
	"github.com/tesselode/kira-sub000/parameter"
	"github.com/tesselode/kira-sub000/tween"
)

// gasConstant is the universal gas constant in J/(mol*K), used by
// Doppler's speed-of-sound calculation.
const gasConstant = 8.314

// DopplerCommandKind discriminates Doppler Command variants.
type DopplerCommandKind int

const (
	DopplerSetTemperature DopplerCommandKind = iota
	DopplerSetMass
	DopplerSetIndex
)

// DopplerCommand is a realtime-bound parameter change for a Doppler effect.
type DopplerCommand struct {
	Kind  DopplerCommandKind
	Value tween.Value[float64]
	Tween tween.Tween
}

// DopplerSettings configures a new Doppler effect. Temperature is in
// degrees Celsius, Mass is the propagating gas's molar mass in kg/mol,
// and Index is its adiabatic index; together they set the speed of
// sound the shift is computed against. The defaults describe dry air
// at room temperature.
type DopplerSettings struct {
	Temperature tween.Value[float64]
	Mass        tween.Value[float64]
	Index       tween.Value[float64]
}

type dopplerDirection int

const (
	dopplerApproaching dopplerDirection = iota
	dopplerDeparting
)

type dopplerMotion struct {
	velocity  float64
	direction dopplerDirection
}

func newDopplerMotion(velocity float64, approaching bool) dopplerMotion {
	dir := dopplerDeparting
	if approaching {
		dir = dopplerApproaching
	}
	return dopplerMotion{velocity: velocity, direction: dir}
}

type dopplerState int

const (
	dopplerBothStationary dopplerState = iota
	dopplerOnlyEmitterMoving
	dopplerOnlyListenerMoving
	dopplerBothMoving
)

// Doppler scales a spatial track's output by the classical Doppler
// ratio between its emitter and the listener it's positioned against:
// each frame's amplitude is multiplied by the ratio between the
// apparent and source frequency. The audio is not resampled, so its
// pitch does not change.
//
// It only has anything to shift on a spatial track: Track.Process
// supplies this chunk's emitter/listener position and velocity through
// SetSpatialInfo, implementing SpatialAware, immediately before Process
// runs. On a non-spatial track it never receives that call and passes
// audio through unchanged.
type Doppler struct {
	temperature *parameter.Parameter[float64]
	mass        *parameter.Parameter[float64]
	index       *parameter.Parameter[float64]
	reader      *command.RingReader[DopplerCommand]

	haveInfo bool
	info     SpatialInfo
}

// NewDoppler creates a Doppler effect and its control-side handle.
func NewDoppler(settings DopplerSettings) (*Doppler, *command.RingWriter[DopplerCommand]) {
	w, r := command.NewRing[DopplerCommand](16)
	d := &Doppler{
		temperature: parameter.New(settings.Temperature, 20, tween.InterpolateFloat64),
		mass:        parameter.New(settings.Mass, 0.02897, tween.InterpolateFloat64),
		index:       parameter.New(settings.Index, 1.4, tween.InterpolateFloat64),
		reader:      r,
	}
	return d, w
}

func (d *Doppler) Init(sampleRate uint32)              {}
func (d *Doppler) OnChangeSampleRate(sampleRate uint32) {}

func (d *Doppler) OnStartProcessing() {
	d.reader.DrainAll(func(cmd DopplerCommand) {
		switch cmd.Kind {
		case DopplerSetTemperature:
			d.temperature.Set(cmd.Value, cmd.Tween)
		case DopplerSetMass:
			d.mass.Set(cmd.Value, cmd.Tween)
		case DopplerSetIndex:
			d.index.Set(cmd.Value, cmd.Tween)
		}
	})
}

// SetSpatialInfo supplies this chunk's emitter/listener motion,
// implementing SpatialAware.
func (d *Doppler) SetSpatialInfo(info SpatialInfo) {
	d.haveInfo = true
	d.info = info
}

// speedOfSound derives the propagation speed from the ideal-gas
// approximation used by the original formula this is ported from.
func (d *Doppler) speedOfSound() float64 {
	temperature := d.temperature.Value()
	mass := d.mass.Value()
	index := d.index.Value()
	kelvin := temperature + 273.15
	return math.Sqrt(index * gasConstant * kelvin / mass)
}

func (d *Doppler) Process(buffer []dsp.Frame, dt float64, clockInfo clockinfo.Provider, modulators tween.ModulatorValueProvider) {
	chunkDt := dt * float64(len(buffer))
	d.temperature.Update(chunkDt, clockInfo, modulators)
	d.mass.Update(chunkDt, clockInfo, modulators)
	d.index.Update(chunkDt, clockInfo, modulators)

	if !d.haveInfo {
		return
	}

	emitterVelocity := d.info.EmitterVelocity
	listenerVelocity := d.info.ListenerVelocity
	emitterStationary := emitterVelocity.Norm() == 0
	listenerStationary := listenerVelocity.Norm() == 0
	if emitterStationary && listenerStationary {
		return
	}

	relativePosition := d.info.EmitterPosition.Sub(d.info.ListenerPosition)

	var state dopplerState
	var emitterMotion, listenerMotion dopplerMotion
	switch {
	case !emitterStationary && !listenerStationary:
		state = dopplerBothMoving
		emitterMotion = newDopplerMotion(emitterVelocity.Norm(), emitterVelocity.Dot(relativePosition) < 0)
		listenerMotion = newDopplerMotion(listenerVelocity.Norm(), listenerVelocity.Dot(relativePosition) > 0)
	case !emitterStationary:
		state = dopplerOnlyEmitterMoving
		emitterMotion = newDopplerMotion(emitterVelocity.Norm(), emitterVelocity.Dot(relativePosition) < 0)
	case !listenerStationary:
		state = dopplerOnlyListenerMoving
		listenerMotion = newDopplerMotion(listenerVelocity.Norm(), listenerVelocity.Dot(relativePosition) > 0)
	}

	speedOfSound := d.speedOfSound()
	quotient := dopplerQuotient(state, speedOfSound, emitterMotion, listenerMotion)

	q := float32(quotient)
	for i, frame := range buffer {
		buffer[i] = dsp.Frame{Left: frame.Left * q, Right: frame.Right * q}
	}
}

func dopplerQuotient(state dopplerState, speedOfSound float64, emitter, listener dopplerMotion) float64 {
	switch state {
	case dopplerOnlyEmitterMoving:
		if emitter.direction == dopplerApproaching {
			return speedOfSound / (speedOfSound - emitter.velocity)
		}
		return speedOfSound / (speedOfSound + emitter.velocity)
	case dopplerOnlyListenerMoving:
		if listener.direction == dopplerApproaching {
			return (speedOfSound + listener.velocity) / speedOfSound
		}
		return (speedOfSound - listener.velocity) / speedOfSound
	case dopplerBothMoving:
		switch {
		case emitter.direction == dopplerApproaching && listener.direction == dopplerApproaching:
			return (speedOfSound + listener.velocity) / (speedOfSound - emitter.velocity)
		case emitter.direction == dopplerDeparting && listener.direction == dopplerDeparting:
			return (speedOfSound - listener.velocity) / (speedOfSound + emitter.velocity)
		case emitter.direction == dopplerApproaching && listener.direction == dopplerDeparting:
			return (speedOfSound - listener.velocity) / (speedOfSound - emitter.velocity)
		default: // emitter departing, listener approaching
			return (speedOfSound + listener.velocity) / (speedOfSound + emitter.velocity)
		}
	default:
		return 1
	}
}
