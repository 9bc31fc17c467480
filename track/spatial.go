package track

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/tesselode/kira-sub000/dsp"
	"github.com/tesselode/kira-sub000/listener"
	"github.com/tesselode/kira-sub000/parameter"
	"github.com/tesselode/kira-sub000/tween"
)

// minEarAmplitude floors each ear's gain so a source directly behind a
// listener never goes fully silent on that side.
const minEarAmplitude = 0.5

// earForwardAngle is how far each ear's forward direction is splayed
// from the listener's local X axis.
const earForwardAngle = math.Pi / 8

// SpatialData configures a sub-track as an emitter relative to a
// listener: distance-based attenuation, and optionally interaural
// panning between the listener's two ears.
type SpatialData struct {
	ListenerID           uint64
	Position             *parameter.Parameter[r3.Vector]
	MinDistance          float64
	MaxDistance          float64
	Attenuation          *tween.Easing // nil disables distance attenuation
	EnableSpatialization bool

	havePrevPosition bool
	prevPosition     r3.Vector
	velocity         r3.Vector
}

// updateVelocity estimates the emitter's velocity from the position
// delta since the last chunk. Call once per chunk, after Position has
// been updated. The first call after construction has no prior
// position to diff against, so it reports zero velocity instead of a
// spurious spike.
func (data *SpatialData) updateVelocity(chunkDt float64) {
	pos := data.Position.Value()
	if !data.havePrevPosition {
		data.prevPosition = pos
		data.havePrevPosition = true
		return
	}
	if chunkDt > 0 {
		data.velocity = pos.Sub(data.prevPosition).Mul(1 / chunkDt)
	}
	data.prevPosition = pos
}

// Velocity returns the emitter's estimated velocity for the current chunk.
func (data *SpatialData) Velocity() r3.Vector { return data.velocity }

func newSpatialData(settings SpatialSettings) *SpatialData {
	return &SpatialData{
		ListenerID:           settings.ListenerID,
		Position:             parameter.New(settings.Position, r3.Vector{}, tween.InterpolateVec3),
		MinDistance:          settings.MinDistance,
		MaxDistance:          settings.MaxDistance,
		Attenuation:          settings.Attenuation,
		EnableSpatialization: settings.EnableSpatialization,
	}
}

// applySpatial reshapes buffer in place against a listener snapshot:
// distance attenuation first, then (if enabled) interaural panning.
func applySpatial(buffer []dsp.Frame, data *SpatialData, l *listener.Listener) {
	emitterPos := data.Position.Value()
	amplitude := distanceAttenuation(data, l.Position.Value())

	if !data.EnableSpatialization {
		for i, f := range buffer {
			buffer[i] = f.Scale(float32(amplitude))
		}
		return
	}

	leftGain, rightGain := earGains(data, l, emitterPos)
	for i, f := range buffer {
		mono := f.Mono() * float32(amplitude)
		buffer[i] = dsp.Frame{Left: mono * float32(leftGain), Right: mono * float32(rightGain)}
	}
}

// distanceAttenuation maps emitter distance from the listener into an
// amplitude via data.Attenuation, interpreted over [min_db_silence, 0dB]
// as the spec's attenuation(1-rel) step describes. A nil Attenuation
// leaves the signal unattenuated.
func distanceAttenuation(data *SpatialData, listenerPos r3.Vector) float64 {
	if data.Attenuation == nil {
		return 1
	}
	d := data.Position.Value().Sub(listenerPos).Norm()
	span := data.MaxDistance - data.MinDistance
	var rel float64
	if span != 0 {
		rel = (d - data.MinDistance) / span
	}
	rel = clamp01(rel)
	eased := data.Attenuation.Apply(1 - rel)
	db := tween.Decibels(-60 * (1 - eased))
	return db.Amplitude()
}

// earGains computes each ear's gain from its forward direction's
// alignment with the direction to the emitter, floored so a source
// directly opposite an ear never disappears from that channel.
func earGains(data *SpatialData, l *listener.Listener, emitterPos r3.Vector) (left, right float64) {
	leftPos, rightPos := l.EarPositions()
	orientation := l.Orientation.Value()

	leftForward := orientation.Rotate(tween.QuatFromAxisAngle(r3.Vector{Y: 1}, earForwardAngle).Rotate(r3.Vector{X: -1}))
	rightForward := orientation.Rotate(tween.QuatFromAxisAngle(r3.Vector{Y: 1}, -earForwardAngle).Rotate(r3.Vector{X: 1}))

	left = earGain(leftForward, leftPos, emitterPos)
	right = earGain(rightForward, rightPos, emitterPos)
	return left, right
}

func earGain(forward, earPos, emitterPos r3.Vector) float64 {
	toEmitter := emitterPos.Sub(earPos)
	if toEmitter.Norm() == 0 {
		return 1
	}
	gain := 0.5 + 0.5*forward.Dot(toEmitter.Normalize())
	if gain < minEarAmplitude {
		gain = minEarAmplitude
	}
	return gain
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
