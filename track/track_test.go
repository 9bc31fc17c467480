package track

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesselode/kira-sub000/dsp"
	"github.com/tesselode/kira-sub000/listener"
	"github.com/tesselode/kira-sub000/sound"
	"github.com/tesselode/kira-sub000/tween"
)

type noModulators struct{}

func (noModulators) ModulatorValue(uint64) (float64, bool) { return 0, false }

func constantSound(value float32, numFrames int) *sound.Instance {
	frames := make([]dsp.Frame, numFrames)
	for i := range frames {
		frames[i] = dsp.Frame{Left: value, Right: value}
	}
	data := &sound.StaticData{SampleRate: 1, Frames: frames}
	inst, _ := sound.New(data, sound.Settings{
		Volume:       tween.NewFixedValue(tween.Decibels(0)),
		PlaybackRate: tween.NewFixedValue(1.0),
		Panning:      tween.NewFixedValue(0.5),
	})
	return inst
}

func newListenerStorage(trackID uint64, position r3.Vector) *listener.Storage {
	l, _ := listener.New(trackID, position, tween.QuatIdentity)
	storage := listener.NewStorage()
	storage.Add(l)
	return storage
}

// TestSpatialAttenuation mirrors the one scripted scenario: a spatial
// track with distances {1, 100}, linear attenuation, and
// spatialization disabled. Moving the emitter from 50 units out to the
// minimum distance should take its amplitude from the scenario's exact
// attenuated value up to fully unattenuated.
func TestSpatialAttenuation(t *testing.T) {
	main, mainHandle := NewMain(0, 0)

	pos := tween.NewFixedValue(r3.Vector{X: 50})
	sub, subHandle := NewSub(SubSettings{
		Volume: tween.NewFixedValue(tween.Decibels(0)),
		Spatial: &SpatialSettings{
			ListenerID:           1,
			Position:             pos,
			MinDistance:          1,
			MaxDistance:          100,
			Attenuation:          &tween.EaseLinear,
			EnableSpatialization: false,
		},
	})
	key, err := mainHandle.SubTracks.Reserve()
	require.NoError(t, err)
	require.NoError(t, mainHandle.SubTracks.Add(key, sub))

	soundKey, err := subHandle.Sounds.Reserve()
	require.NoError(t, err)
	require.NoError(t, subHandle.Sounds.Add(soundKey, constantSound(1.0, 4)))

	listeners := newListenerStorage(1, r3.Vector{})
	sends, _ := NewSendRegistry(0)

	main.OnStartProcessingAll()
	main.RemoveAndAdd()
	listeners.OnStartProcessing()

	buf := make([]dsp.Frame, 1)
	main.ProcessChunk(buf, 1.0, 1, sends, nil, noModulators{}, listeners)

	// The sound itself is panned to center (0.5, 0.5) before
	// attenuation scales both channels equally.
	want := 0.5 * math.Pow(10, (-60*(49.0/99.0))/20)
	assert.InEpsilon(t, want, buf[0].Left, 0.01)
	assert.InEpsilon(t, want, buf[0].Right, 0.01)

	subHandle.Commands.Write(Command{
		Kind:          CmdSetSpatialPosition,
		PositionValue: tween.NewFixedValue(r3.Vector{X: 1}),
		Tween:         tween.DefaultTween,
	})

	main.OnStartProcessingAll()
	main.RemoveAndAdd()
	buf2 := make([]dsp.Frame, 1)
	main.ProcessChunk(buf2, 1.0, 1, sends, nil, noModulators{}, listeners)

	assert.InDelta(t, 0.5, buf2[0].Left, 1e-6)
	assert.InDelta(t, 0.5, buf2[0].Right, 1e-6)
}

func TestSendRouting(t *testing.T) {
	sends, sendsArenaController := NewSendRegistry(4)
	send, sendHandle := NewSend(SendSettings{Volume: tween.NewFixedValue(tween.Decibels(0))})
	_ = sendHandle
	key, err := sendsArenaController.TryReserve()
	require.NoError(t, err)
	require.NoError(t, sends.Insert(key, send))
	sendID := sends.EncodedID(key)

	main, mainHandle := NewMain(0, 0)
	sub, subHandle := NewSub(SubSettings{
		Volume: tween.NewFixedValue(tween.Decibels(0)),
		Sends: []SendRouteSettings{
			{SendTrackID: sendID, Volume: tween.NewFixedValue(tween.Decibels(0))},
		},
	})
	subKey, err := mainHandle.SubTracks.Reserve()
	require.NoError(t, err)
	require.NoError(t, mainHandle.SubTracks.Add(subKey, sub))

	soundKey, err := subHandle.Sounds.Reserve()
	require.NoError(t, err)
	require.NoError(t, subHandle.Sounds.Add(soundKey, constantSound(1.0, 4)))

	main.OnStartProcessingAll()
	main.RemoveAndAdd()
	sends.OnStartProcessingAll()

	buf := make([]dsp.Frame, 1)
	main.ProcessChunk(buf, 1.0, 1, sends, nil, noModulators{}, nil)

	// The sub-track's own output was folded into main once on its way
	// down, and a second time via the send after the main walk.
	assert.InDelta(t, 1.0, buf[0].Left, 1e-6)
	assert.InDelta(t, 1.0, buf[0].Right, 1e-6)

	require.Equal(t, ErrNonexistentRoute, subHandle.SetSendVolume(sendID+1, tween.NewFixedValue(tween.Decibels(-6)), tween.DefaultTween))
}

func TestSendToAbsentDestinationIsSilentlyDropped(t *testing.T) {
	sends, _ := NewSendRegistry(4)

	main, mainHandle := NewMain(0, 0)
	sub, subHandle := NewSub(SubSettings{
		Volume: tween.NewFixedValue(tween.Decibels(0)),
		Sends: []SendRouteSettings{
			{SendTrackID: 12345, Volume: tween.NewFixedValue(tween.Decibels(0))},
		},
	})
	subKey, err := mainHandle.SubTracks.Reserve()
	require.NoError(t, err)
	require.NoError(t, mainHandle.SubTracks.Add(subKey, sub))

	soundKey, err := subHandle.Sounds.Reserve()
	require.NoError(t, err)
	require.NoError(t, subHandle.Sounds.Add(soundKey, constantSound(1.0, 4)))

	main.OnStartProcessingAll()
	main.RemoveAndAdd()
	sends.OnStartProcessingAll()

	buf := make([]dsp.Frame, 1)
	require.NotPanics(t, func() {
		main.ProcessChunk(buf, 1.0, 1, sends, nil, noModulators{}, nil)
	})
	assert.InDelta(t, 0.5, buf[0].Left, 1e-6)
}

func TestTrackRemovalWaitsForSoundsWhenPersisting(t *testing.T) {
	main, mainHandle := NewMain(0, 0)
	sub, subHandle := NewSub(SubSettings{
		Volume:                   tween.NewFixedValue(tween.Decibels(0)),
		PersistUntilSoundsFinish: true,
	})
	subKey, err := mainHandle.SubTracks.Reserve()
	require.NoError(t, err)
	require.NoError(t, mainHandle.SubTracks.Add(subKey, sub))

	soundKey, err := subHandle.Sounds.Reserve()
	require.NoError(t, err)
	require.NoError(t, subHandle.Sounds.Add(soundKey, constantSound(1.0, 1)))

	main.OnStartProcessingAll()
	main.RemoveAndAdd()

	subHandle.Shared.MarkForRemoval()

	main.OnStartProcessingAll()
	main.RemoveAndAdd()
	assert.Equal(t, 1, main.SubTracks().Arena.Len(), "sub-track must survive while its sound is still playing")

	buf := make([]dsp.Frame, 1)
	sends, _ := NewSendRegistry(0)
	main.ProcessChunk(buf, 1.0, 1, sends, nil, noModulators{}, nil)

	main.OnStartProcessingAll()
	main.RemoveAndAdd()
	assert.Equal(t, 0, main.SubTracks().Arena.Len(), "sub-track must be removed once its sound finishes")
}
