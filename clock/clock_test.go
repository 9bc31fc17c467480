package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tesselode/kira-sub000/tween"
)

type noModulators struct{}

func (noModulators) ModulatorValue(uint64) (float64, bool) { return 0, false }

func TestClock_InitiallyStopped(t *testing.T) {
	c, _ := New(0, tween.NewFixedValue(SecondsPerTickSpeed(1)))
	c.OnStartProcessing()
	assert.False(t, c.Shared().Ticking())
	assert.Equal(t, uint64(0), c.Shared().Ticks())
}

func TestClock_BasicTicking(t *testing.T) {
	c, w := New(0, tween.NewFixedValue(SecondsPerTickSpeed(1.0)))
	require := assert.New(t)
	require.NoError(w.Write(Command{Kind: CmdStart}))
	c.OnStartProcessing()

	ticked := c.Update(0.5, noModulators{})
	require.False(ticked)
	require.Equal(uint64(0), c.Snapshot().Ticks)

	ticked = c.Update(0.5, noModulators{})
	require.True(ticked)
	require.Equal(uint64(1), c.Snapshot().Ticks)

	ticked = c.Update(2.5, noModulators{})
	require.True(ticked)
	require.Equal(uint64(3), c.Snapshot().Ticks)
}

func TestClock_PausePreservesFraction(t *testing.T) {
	c, w := New(0, tween.NewFixedValue(SecondsPerTickSpeed(1.0)))
	assert.NoError(t, w.Write(Command{Kind: CmdStart}))
	c.OnStartProcessing()
	c.Update(0.5, noModulators{})

	assert.NoError(t, w.Write(Command{Kind: CmdPause}))
	c.OnStartProcessing()
	assert.InDelta(t, 0.5, c.Snapshot().Fraction, 1e-9)

	ticked := c.Update(10, noModulators{})
	assert.False(t, ticked, "paused clock must not tick no matter how much time passes")
	assert.InDelta(t, 0.5, c.Snapshot().Fraction, 1e-9)

	assert.NoError(t, w.Write(Command{Kind: CmdStart}))
	c.OnStartProcessing()
	ticked = c.Update(0.5, noModulators{})
	assert.True(t, ticked, "resuming should continue from the preserved fraction")
}

func TestClock_StopResetsTicksAndFraction(t *testing.T) {
	c, w := New(0, tween.NewFixedValue(SecondsPerTickSpeed(1.0)))
	assert.NoError(t, w.Write(Command{Kind: CmdStart}))
	c.OnStartProcessing()
	c.Update(1.5, noModulators{})
	assert.Equal(t, uint64(1), c.Snapshot().Ticks)

	assert.NoError(t, w.Write(Command{Kind: CmdStop}))
	c.OnStartProcessing()
	assert.Equal(t, uint64(0), c.Snapshot().Ticks)
	assert.Equal(t, 0.0, c.Snapshot().Fraction)
	assert.False(t, c.Shared().Ticking())
}

func TestClock_SetSpeedRetunesTickRate(t *testing.T) {
	c, w := New(0, tween.NewFixedValue(SecondsPerTickSpeed(1.0)))
	assert.NoError(t, w.Write(Command{Kind: CmdStart}))
	assert.NoError(t, w.Write(Command{
		Kind:  CmdSetSpeed,
		Speed: tween.NewFixedValue(SecondsPerTickSpeed(0.5)),
		Tween: tween.DefaultTween,
	}))
	c.OnStartProcessing()

	ticked := c.Update(0.5, noModulators{})
	assert.True(t, ticked, "at 0.5s per tick, half a second should produce exactly one tick")
	assert.Equal(t, uint64(1), c.Snapshot().Ticks)
}

func TestInterpolateSpeed_SecondsPerTickIsLinear(t *testing.T) {
	a := SecondsPerTickSpeed(1.0)
	b := SecondsPerTickSpeed(3.0)
	mid := InterpolateSpeed(a, b, 0.5)
	assert.Equal(t, SecondsPerTick, mid.Kind)
	assert.InDelta(t, 2.0, mid.Value, 1e-9)
}

func TestInfoProvider_WhenToStart(t *testing.T) {
	p := InfoProvider{Snapshots: map[uint64]Info{
		1: {Ticking: true, Ticks: 5},
	}}
	whenToStartNow := p.WhenToStart(tween.ClockTimeRef{ClockID: 1, Tick: 5})
	assert.Equal(t, 0, int(whenToStartNow))

	whenToStartLater := p.WhenToStart(tween.ClockTimeRef{ClockID: 1, Tick: 6})
	assert.Equal(t, 1, int(whenToStartLater))

	whenToStartNever := p.WhenToStart(tween.ClockTimeRef{ClockID: 99, Tick: 0})
	assert.Equal(t, 2, int(whenToStartNever))
}
