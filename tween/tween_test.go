package tween

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMapping_EndpointsRoundTrip(t *testing.T) {
	m := NewMapping(0.0, 1.0, -60.0, 0.0, EaseLinear, InterpolateFloat64)
	assert.InDelta(t, -60.0, m.Map(0), 1e-9)
	assert.InDelta(t, 0.0, m.Map(1), 1e-9)
}

func TestTween_LinearEasingIsExactAtSampledTimes(t *testing.T) {
	tw := Tween{StartTime: ImmediateStart, Duration: 4 * time.Second, Easing: EaseLinear}
	for _, elapsed := range []float64{0, 1, 2, 3, 4} {
		x := tw.Value(elapsed)
		a, b := 10.0, 2.0
		got := InterpolateFloat64(a, b, x)
		want := a + (b-a)*(elapsed/4.0)
		assert.InDelta(t, want, got, 1e-9)
	}
}

func TestTween_ZeroDurationReachesTargetImmediately(t *testing.T) {
	tw := Tween{StartTime: ImmediateStart, Duration: 0, Easing: EaseLinear}
	assert.Equal(t, 1.0, tw.Value(0))
}

func TestValue_ResolveFixed(t *testing.T) {
	v := NewFixedValue(3.5)
	got, ok := v.Resolve(constProvider{})
	assert.True(t, ok)
	assert.Equal(t, 3.5, got)
}

func TestValue_ResolveMissingModulatorReturnsFalse(t *testing.T) {
	m := NewMapping(0.0, 1.0, 0.0, 1.0, EaseLinear, InterpolateFloat64)
	v := NewModulatedValue(99, m)
	_, ok := v.Resolve(missingProvider{})
	assert.False(t, ok)
}

type constProvider struct{}

func (constProvider) ModulatorValue(uint64) (float64, bool) { return 0, true }

type missingProvider struct{}

func (missingProvider) ModulatorValue(uint64) (float64, bool) { return 0, false }

func TestDecibels_AmplitudeRoundTrip(t *testing.T) {
	assert.InDelta(t, 1.0, Decibels(0).Amplitude(), 1e-9)
	assert.InDelta(t, 0.001, Decibels(-60).Amplitude(), 1e-3)
}
