package effect

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"

	"github.com/tesselode/kira-sub000/dsp"
	"github.com/tesselode/kira-sub000/tween"
)

func newTestDoppler() *Doppler {
	d, _ := NewDoppler(DopplerSettings{
		Temperature: tween.NewFixedValue(20.0),
		Mass:        tween.NewFixedValue(0.02897),
		Index:       tween.NewFixedValue(1.4),
	})
	d.OnStartProcessing()
	return d
}

func TestDoppler_NoSpatialInfoPassesThrough(t *testing.T) {
	d := newTestDoppler()
	buffer := []dsp.Frame{{Left: 1, Right: 1}}
	d.Process(buffer, 1.0/44100, nil, nil)
	assert.Equal(t, dsp.Frame{Left: 1, Right: 1}, buffer[0])
}

func TestDoppler_BothStationaryPassesThrough(t *testing.T) {
	d := newTestDoppler()
	d.SetSpatialInfo(SpatialInfo{
		EmitterPosition: r3.Vector{X: 10},
	})
	buffer := []dsp.Frame{{Left: 1, Right: 1}}
	d.Process(buffer, 1.0/44100, nil, nil)
	assert.Equal(t, dsp.Frame{Left: 1, Right: 1}, buffer[0])
}

func TestDoppler_OnlyEmitterApproachingRaisesPitch(t *testing.T) {
	d := newTestDoppler()
	d.SetSpatialInfo(SpatialInfo{
		EmitterPosition: r3.Vector{X: 10},
		EmitterVelocity: r3.Vector{X: -1}, // moving from x=10 toward the listener at the origin
	})

	buffer := []dsp.Frame{{Left: 1, Right: 1}}
	d.Process(buffer, 1.0/44100, nil, nil)

	speedOfSound := d.speedOfSound()
	want := speedOfSound / (speedOfSound - 1)
	assert.InDelta(t, want, buffer[0].Left, 1e-4)
	assert.InDelta(t, want, buffer[0].Right, 1e-4)
}

func TestDoppler_OnlyListenerApproachingRaisesPitch(t *testing.T) {
	d := newTestDoppler()
	d.SetSpatialInfo(SpatialInfo{
		EmitterPosition:  r3.Vector{X: 10},
		ListenerVelocity: r3.Vector{X: 1}, // listener at the origin moving toward the emitter
	})

	buffer := []dsp.Frame{{Left: 1, Right: 1}}
	d.Process(buffer, 1.0/44100, nil, nil)

	speedOfSound := d.speedOfSound()
	want := (speedOfSound + 1) / speedOfSound
	assert.InDelta(t, want, buffer[0].Left, 1e-4)
}
