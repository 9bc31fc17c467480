package modulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesselode/kira-sub000/clockinfo"
	"github.com/tesselode/kira-sub000/tween"
)

type fixedClockInfo map[uint64]clockinfo.WhenToStart

func (f fixedClockInfo) WhenToStart(ref tween.ClockTimeRef) clockinfo.WhenToStart {
	if w, ok := f[ref.ClockID]; ok {
		return w
	}
	return clockinfo.Never
}

func TestTweener_Tweening(t *testing.T) {
	tw, w := NewTweener(0.0)
	for i := 0; i < 3; i++ {
		tw.Update(1.0, nil)
		assert.Equal(t, 0.0, tw.Value())
	}

	require.NoError(t, w.Write(TweenerCommand{
		Target: 1.0,
		Tween:  tween.Tween{StartTime: tween.ImmediateStart, Duration: 2 * time.Second, Easing: tween.EaseLinear},
	}))
	tw.OnStartProcessing()

	tw.Update(1.0, nil)
	assert.Equal(t, 0.5, tw.Value())
	tw.Update(1.0, nil)
	assert.Equal(t, 1.0, tw.Value())
	tw.Update(1.0, nil)
	assert.Equal(t, 1.0, tw.Value())
}

func TestTweener_WaitsForDelay(t *testing.T) {
	tw, w := NewTweener(0.0)
	require.NoError(t, w.Write(TweenerCommand{
		Target: 1.0,
		Tween:  tween.Tween{StartTime: tween.DelayedStart(2 * time.Second), Duration: time.Second, Easing: tween.EaseLinear},
	}))
	tw.OnStartProcessing()

	for i := 0; i < 2; i++ {
		assert.Equal(t, 0.0, tw.Value())
		tw.Update(1.0, nil)
	}
	tw.Update(1.0, nil)
	assert.Equal(t, 1.0, tw.Value())
}

func TestTweener_WaitsForClockStartTime(t *testing.T) {
	tw, w := NewTweener(0.0)
	require.NoError(t, w.Write(TweenerCommand{
		Target: 1.0,
		Tween: tween.Tween{
			StartTime: tween.ClockTimeStart(1, 2),
			Duration:  time.Second,
			Easing:    tween.EaseLinear,
		},
	}))
	tw.OnStartProcessing()

	notYet := fixedClockInfo{1: clockinfo.Later}
	for i := 0; i < 3; i++ {
		tw.Update(1.0, notYet)
		assert.Equal(t, 0.0, tw.Value())
	}

	ready := fixedClockInfo{1: clockinfo.Now}
	tw.Update(1.0, ready)
	assert.Equal(t, 1.0, tw.Value())
}

func TestLfo_SineOscillatesBetweenPlusAndMinusDepth(t *testing.T) {
	lfo, _ := NewLfo(Sine, 1.0, 2.0)
	lfo.OnStartProcessing()
	lfo.Update(0.25, nil)
	assert.InDelta(t, 2.0, lfo.Value(), 1e-9, "quarter period of a sine should peak at +depth")
}

func TestLfo_SquareAlternates(t *testing.T) {
	lfo, _ := NewLfo(Square, 1.0, 1.0)
	lfo.Update(0.1, nil)
	assert.Equal(t, 1.0, lfo.Value())
	lfo.Update(0.5, nil)
	assert.Equal(t, -1.0, lfo.Value())
}
