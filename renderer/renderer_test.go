package renderer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesselode/kira-sub000/clock"
	"github.com/tesselode/kira-sub000/dsp"
	"github.com/tesselode/kira-sub000/listener"
	"github.com/tesselode/kira-sub000/modulator"
	"github.com/tesselode/kira-sub000/sound"
	"github.com/tesselode/kira-sub000/track"
	"github.com/tesselode/kira-sub000/tween"
)

func constantSound(t *testing.T, value float32, numFrames int) *sound.Instance {
	t.Helper()
	frames := make([]dsp.Frame, numFrames)
	for i := range frames {
		frames[i] = dsp.Frame{Left: value, Right: value}
	}
	data := &sound.StaticData{SampleRate: 1, Frames: frames}
	inst, _ := sound.New(data, sound.Settings{
		Volume:  tween.NewFixedValue(tween.Decibels(0)),
		Panning: tween.NewFixedValue(0.5),
	})
	return inst
}

func modulatedVolumeSound(t *testing.T, modulatorID uint64, numFrames int) *sound.Instance {
	t.Helper()
	frames := make([]dsp.Frame, numFrames)
	for i := range frames {
		frames[i] = dsp.Frame{Left: 1, Right: 1}
	}
	data := &sound.StaticData{SampleRate: 1, Frames: frames}
	mapping := tween.NewMapping(0, 1, tween.Decibels(-60), tween.Decibels(0), tween.EaseLinear, tween.InterpolateDecibels)
	inst, _ := sound.New(data, sound.Settings{
		Volume:  tween.NewModulatedValue(modulatorID, mapping),
		Panning: tween.NewFixedValue(0.5),
	})
	return inst
}

func newTestRenderer(t *testing.T, sampleRate uint32) (*Renderer, *track.Track, *track.Handle) {
	t.Helper()
	main, mainHandle := track.NewMain(4, 4)
	sends, _ := track.NewSendRegistry(4)
	r := New(sampleRate, main, sends, clock.NewStorage(), modulator.NewStorage(), listener.NewStorage())
	return r, main, mainHandle
}

// TestRender_ModulatorMappedVolume mirrors spec.md's "Modulator-mapped
// volume" scenario: a Tweener modulator driving a sound's volume
// through a Mapping should move the rendered amplitude to match the
// modulator's reading for that buffer.
func TestRender_ModulatorMappedVolume(t *testing.T) {
	r, main, mainHandle := newTestRenderer(t, 1)

	tweener, _ := modulator.NewTweener(0.5)
	managed, shared := modulator.NewManaged(tweener)
	_ = shared
	r.modulators.Add(1, managed)

	soundKey, err := mainHandle.Sounds.Reserve()
	require.NoError(t, err)
	require.NoError(t, mainHandle.Sounds.Add(soundKey, modulatedVolumeSound(t, 1, 4)))

	out := make([]float32, 4*2)
	r.Render(out, 4, 2)

	mapping := tween.NewMapping(0, 1, tween.Decibels(-60), tween.Decibels(0), tween.EaseLinear, tween.InterpolateDecibels)
	wantAmplitude := mapping.Map(0.5).Amplitude() * 0.5
	assert.InEpsilon(t, wantAmplitude, out[0], 0.05)
	assert.InEpsilon(t, wantAmplitude, out[1], 0.05)

	_ = main
}

// TestRender_NoNaN exercises a buffer spanning more than one internal
// chunk and asserts every produced sample is finite, matching spec.md's
// no-NaN-output invariant.
func TestRender_NoNaN(t *testing.T) {
	r, _, mainHandle := newTestRenderer(t, 1)

	soundKey, err := mainHandle.Sounds.Reserve()
	require.NoError(t, err)
	require.NoError(t, mainHandle.Sounds.Add(soundKey, constantSound(t, 1, InternalBufferSize*2+17)))

	numFrames := InternalBufferSize*2 + 17
	out := make([]float32, numFrames*2)
	r.Render(out, numFrames, 2)

	for i, sample := range out {
		assert.False(t, math.IsNaN(float64(sample)), "sample %d is NaN", i)
		assert.False(t, math.IsInf(float64(sample), 0), "sample %d is Inf", i)
	}
}

// TestRender_MonoDownmix checks the mono output path averages L and R.
func TestRender_MonoDownmix(t *testing.T) {
	r, _, mainHandle := newTestRenderer(t, 1)

	soundKey, err := mainHandle.Sounds.Reserve()
	require.NoError(t, err)
	require.NoError(t, mainHandle.Sounds.Add(soundKey, constantSound(t, 1, 4)))

	out := make([]float32, 4)
	r.Render(out, 4, 1)

	for _, sample := range out {
		assert.InDelta(t, 0.5, sample, 1e-6)
	}
}
