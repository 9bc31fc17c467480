package parameter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesselode/kira-sub000/tween"
)

type noModulators struct{}

func (noModulators) ModulatorValue(uint64) (float64, bool) { return 0, false }

func TestParameter_StagnantFixedValueIsUnaffectedByUpdate(t *testing.T) {
	p := New(tween.NewFixedValue(5.0), 0, tween.InterpolateFloat64)
	for i := 0; i < 5; i++ {
		info := p.Update(1.0/60.0, nil, noModulators{})
		assert.False(t, info.Started)
		assert.False(t, info.JustFinished)
		assert.Equal(t, 5.0, p.Value())
	}
}

func TestParameter_SetWithZeroDurationFinishesOnNextUpdate(t *testing.T) {
	p := New(tween.NewFixedValue(1.0), 0, tween.InterpolateFloat64)
	p.Set(tween.NewFixedValue(9.0), tween.Tween{StartTime: tween.ImmediateStart, Duration: 0, Easing: tween.EaseLinear})

	info := p.Update(1.0/60.0, nil, noModulators{})
	require.True(t, info.Started)
	require.True(t, info.JustFinished)
	assert.Equal(t, 9.0, p.Value())
}

func TestParameter_LinearTweenInterpolatesExactly(t *testing.T) {
	p := New(tween.NewFixedValue(0.0), 0, tween.InterpolateFloat64)
	p.Set(tween.NewFixedValue(10.0), tween.Tween{
		StartTime: tween.ImmediateStart,
		Duration:  4 * time.Second,
		Easing:    tween.EaseLinear,
	})

	dt := 1.0
	for i := 1; i <= 4; i++ {
		p.Update(dt, nil, noModulators{})
		want := 10.0 * float64(i) / 4.0
		assert.InDelta(t, want, p.Value(), 1e-9)
	}
}

func TestParameter_DelayedTweenWaitsBeforeStarting(t *testing.T) {
	p := New(tween.NewFixedValue(0.0), 0, tween.InterpolateFloat64)
	p.Set(tween.NewFixedValue(1.0), tween.Tween{
		StartTime: tween.DelayedStart(2 * time.Second),
		Duration:  1 * time.Second,
		Easing:    tween.EaseLinear,
	})

	info := p.Update(1.0, nil, noModulators{})
	assert.False(t, info.Started)
	assert.Equal(t, 0.0, p.Value(), "value should not move before the delay elapses")

	info = p.Update(1.0, nil, noModulators{})
	assert.True(t, info.Started)
}
