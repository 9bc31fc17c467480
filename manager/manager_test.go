package manager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesselode/kira-sub000/clock"
	"github.com/tesselode/kira-sub000/dsp"
	"github.com/tesselode/kira-sub000/sound"
	"github.com/tesselode/kira-sub000/track"
	"github.com/tesselode/kira-sub000/tween"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return New(Settings{
		SampleRate:           1,
		MainSubTrackCapacity: 2,
		MainSoundCapacity:    2,
		SendTrackCapacity:    2,
	})
}

func staticData(numFrames int) *sound.StaticData {
	frames := make([]dsp.Frame, numFrames)
	for i := range frames {
		frames[i] = dsp.Frame{Left: 1, Right: 1}
	}
	return &sound.StaticData{SampleRate: 1, Frames: frames}
}

func TestManager_AddSubTrackRespectsCapacity(t *testing.T) {
	m := newTestManager(t)

	_, err := m.AddSubTrack(m.MainTrack(), track.SubSettings{Volume: tween.NewFixedValue(tween.Decibels(0))})
	require.NoError(t, err)
	_, err = m.AddSubTrack(m.MainTrack(), track.SubSettings{Volume: tween.NewFixedValue(tween.Decibels(0))})
	require.NoError(t, err)

	_, err = m.AddSubTrack(m.MainTrack(), track.SubSettings{Volume: tween.NewFixedValue(tween.Decibels(0))})
	assert.ErrorIs(t, err, ErrResourceLimitReached)
}

func TestManager_PlaySoundRespectsCapacity(t *testing.T) {
	m := newTestManager(t)

	_, err := m.PlaySound(m.MainTrack(), staticData(4), sound.Settings{
		Volume:  tween.NewFixedValue(tween.Decibels(0)),
		Panning: tween.NewFixedValue(0.5),
	})
	require.NoError(t, err)
	_, err = m.PlaySound(m.MainTrack(), staticData(4), sound.Settings{
		Volume:  tween.NewFixedValue(tween.Decibels(0)),
		Panning: tween.NewFixedValue(0.5),
	})
	require.NoError(t, err)

	_, err = m.PlaySound(m.MainTrack(), staticData(4), sound.Settings{
		Volume:  tween.NewFixedValue(tween.Decibels(0)),
		Panning: tween.NewFixedValue(0.5),
	})
	assert.ErrorIs(t, err, ErrSoundLimitReached)
}

// TestManager_ClockRegistrationDrainsOnNextBuffer exercises the
// pending-registration path: a clock added from the control side isn't
// visible to the renderer's Storage until the next Render call drains
// it via the AddStartHook.
func TestManager_ClockRegistrationDrainsOnNextBuffer(t *testing.T) {
	m := newTestManager(t)

	handle, err := m.AddClock(tween.NewFixedValue(clock.SecondsPerTickSpeed(1)))
	require.NoError(t, err)
	require.NoError(t, handle.Start())

	out := make([]float32, 4*2)
	m.Renderer().Render(out, 4, 2)

	assert.True(t, handle.Ticking())
}

// TestManager_ModulatorMarkForRemoval checks that a modulator marked
// for removal before it is ever drained into Storage is evicted by the
// first UpdateAll after the drain adds it, and doesn't panic the drain
// loop.
func TestManager_ModulatorMarkForRemoval(t *testing.T) {
	m := newTestManager(t)

	handle, err := m.AddTweenerModulator(0)
	require.NoError(t, err)
	handle.MarkForRemoval()

	out := make([]float32, 4*2)
	m.Renderer().Render(out, 4, 2)
}

func TestManager_SendVolumeOnNonexistentRoute(t *testing.T) {
	m := newTestManager(t)

	sub, err := m.AddSubTrack(m.MainTrack(), track.SubSettings{Volume: tween.NewFixedValue(tween.Decibels(0))})
	require.NoError(t, err)

	err = sub.SetSendVolume(999, tween.NewFixedValue(tween.Decibels(0)), tween.DefaultTween)
	assert.ErrorIs(t, err, ErrNonexistentRoute)
}
