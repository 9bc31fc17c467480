package sound

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesselode/kira-sub000/clock"
	"github.com/tesselode/kira-sub000/dsp"
	"github.com/tesselode/kira-sub000/tween"
)

type noModulators struct{}

func (noModulators) ModulatorValue(uint64) (float64, bool) { return 0, false }

func constantData(value float32, numFrames int) *StaticData {
	frames := make([]dsp.Frame, numFrames)
	for i := range frames {
		frames[i] = dsp.Frame{Left: value, Right: value}
	}
	return &StaticData{SampleRate: 1, Frames: frames}
}

func TestInstance_PlaysAllSamplesThenStops(t *testing.T) {
	data := constantData(1.0, 3)
	inst, _ := New(data, Settings{
		Volume:       tween.NewFixedValue(tween.Decibels(0)),
		PlaybackRate: tween.NewFixedValue(1.0),
		Panning:      tween.NewFixedValue(0.5),
	})

	for i := 0; i < 3; i++ {
		inst.OnStartProcessing()
		out := inst.Process(1.0, 1, nil, noModulators{})
		assert.InDelta(t, 0.5, out.Left, 1e-6)
		assert.InDelta(t, 0.5, out.Right, 1e-6)
	}
	// The third call's advance lands the playhead one frame past the
	// end, so the instance already reports Stopped by the time it
	// returns (the frame it had just produced is still valid).
	assert.Equal(t, Stopped, inst.Shared().State())

	inst.OnStartProcessing()
	out := inst.Process(1.0, 1, nil, noModulators{})
	assert.Equal(t, dsp.Frame{}, out)
	assert.Equal(t, Stopped, inst.Shared().State())
	assert.True(t, inst.Finished())
}

func TestInstance_PauseFadesOutOverFourSamples(t *testing.T) {
	data := constantData(1.0, 20)
	inst, writer := New(data, Settings{
		Volume:  tween.NewFixedValue(tween.Decibels(0)),
		Panning: tween.NewFixedValue(1.0), // full right: Right channel == amplitude directly
	})

	inst.OnStartProcessing()
	out := inst.Process(1.0, 1, nil, noModulators{})
	assert.InDelta(t, 1.0, out.Right, 1e-6)

	require.NoError(t, writer.Write(Command{
		Kind:  CmdPause,
		Tween: tween.Tween{StartTime: tween.ImmediateStart, Duration: 4 * time.Second, Easing: tween.EaseLinear},
	}))
	inst.OnStartProcessing()
	assert.Equal(t, Pausing, inst.Shared().State())

	want := []float64{0.75, 0.5, 0.25, 0.0}
	for i, w := range want {
		out := inst.Process(1.0, 1, nil, noModulators{})
		assert.InDelta(t, w, out.Right, 1e-6, "sample %d", i)
	}
	assert.Equal(t, Paused, inst.Shared().State())

	posBefore := inst.Shared().Position()
	inst.OnStartProcessing()
	inst.Process(1.0, 1, nil, noModulators{})
	assert.Equal(t, posBefore, inst.Shared().Position(), "position must not advance while paused")
}

func TestInstance_ResumeFadesBackIn(t *testing.T) {
	data := constantData(1.0, 20)
	inst, writer := New(data, Settings{
		Volume:  tween.NewFixedValue(tween.Decibels(0)),
		Panning: tween.NewFixedValue(1.0),
	})
	inst.OnStartProcessing()
	inst.Process(1.0, 1, nil, noModulators{})

	require.NoError(t, writer.Write(Command{
		Kind:  CmdPause,
		Tween: tween.Tween{StartTime: tween.ImmediateStart, Duration: 4 * time.Second, Easing: tween.EaseLinear},
	}))
	inst.OnStartProcessing()
	for i := 0; i < 4; i++ {
		inst.Process(1.0, 1, nil, noModulators{})
	}
	require.Equal(t, Paused, inst.Shared().State())

	require.NoError(t, writer.Write(Command{
		Kind:  CmdResume,
		Tween: tween.Tween{StartTime: tween.ImmediateStart, Duration: 4 * time.Second, Easing: tween.EaseLinear},
	}))
	inst.OnStartProcessing()
	assert.Equal(t, Playing, inst.Shared().State())

	want := []float64{0.25, 0.5, 0.75, 1.0}
	for i, w := range want {
		out := inst.Process(1.0, 1, nil, noModulators{})
		assert.InDelta(t, w, out.Right, 1e-6, "sample %d", i)
	}
	assert.Equal(t, Playing, inst.Shared().State())
}

func TestInstance_ClockAnchoredStartWaitsForTick(t *testing.T) {
	c, clockWriter := clock.New(1, tween.NewFixedValue(clock.SecondsPerTickSpeed(1.0)))

	data := constantData(1.0, 10)
	inst, _ := New(data, Settings{
		StartTime: tween.ClockTimeStart(1, 2),
		Volume:    tween.NewFixedValue(tween.Decibels(0)),
		Panning:   tween.NewFixedValue(0.5),
	})

	provider := func() clock.InfoProvider {
		return clock.InfoProvider{Snapshots: map[uint64]clock.Info{1: c.Snapshot()}}
	}

	// The clock hasn't started yet: the instance must stay silent.
	c.OnStartProcessing()
	for i := 0; i < 3; i++ {
		c.Update(1.0, noModulators{})
		inst.OnStartProcessing()
		out := inst.Process(1.0, 1, provider(), noModulators{})
		assert.Equal(t, dsp.Frame{}, out, "instance must stay silent while its anchoring clock isn't ticking")
	}

	require.NoError(t, clockWriter.Write(clock.Command{Kind: clock.CmdStart}))
	c.OnStartProcessing()

	c.Update(1.0, noModulators{}) // ticks: 0 -> 1, still short of tick 2
	inst.OnStartProcessing()
	out := inst.Process(1.0, 1, provider(), noModulators{})
	assert.Equal(t, dsp.Frame{}, out, "instance must stay silent before its anchoring tick arrives")

	c.Update(1.0, noModulators{}) // ticks: 1 -> 2, the instance's anchor
	inst.OnStartProcessing()
	out = inst.Process(1.0, 1, provider(), noModulators{})
	assert.InDelta(t, 0.5, out.Left, 1e-6, "instance should start producing sound once its anchoring tick arrives")
}
