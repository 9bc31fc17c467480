// Command player is a minimal demonstration of wiring a Manager to a
// Desktop backend: it decodes a WAV file entirely into memory and
// plays it once on the main track.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/tesselode/kira-sub000/backend"
	"github.com/tesselode/kira-sub000/decoder/wav"
	"github.com/tesselode/kira-sub000/dsp"
	"github.com/tesselode/kira-sub000/manager"
	"github.com/tesselode/kira-sub000/sound"
	"github.com/tesselode/kira-sub000/tween"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <file.wav>\n", os.Args[0])
		os.Exit(2)
	}
	if err := run(os.Args[1]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run decodes path and plays it to completion through the default
// audio device.
func run(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	dec, err := wav.New(f)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}

	frames := make([]dsp.Frame, 0, dec.NumFrames())
	for {
		chunk, err := dec.Decode()
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if len(chunk) == 0 {
			break
		}
		frames = append(frames, chunk...)
	}

	m := manager.New(manager.Settings{
		SampleRate:           dec.SampleRate(),
		MainSubTrackCapacity: 16,
		MainSoundCapacity:    16,
		SendTrackCapacity:    8,
	})

	out, err := backend.NewDesktop(backend.DesktopSettings{
		SampleRate:   dec.SampleRate(),
		ChannelCount: 2,
	})
	if err != nil {
		return fmt.Errorf("opening audio device: %w", err)
	}
	defer out.Stop()

	if err := out.Start(m.Renderer()); err != nil {
		return fmt.Errorf("starting playback: %w", err)
	}

	data := &sound.StaticData{SampleRate: dec.SampleRate(), Frames: frames}
	handle, err := m.PlaySound(m.MainTrack(), data, sound.Settings{
		Volume:       tween.NewFixedValue(tween.Decibels(0)),
		PlaybackRate: tween.NewFixedValue(1.0),
		Panning:      tween.NewFixedValue(0.5),
	})
	if err != nil {
		return fmt.Errorf("playing %s: %w", path, err)
	}

	for handle.State() != sound.Stopped {
		time.Sleep(50 * time.Millisecond)
	}
	return nil
}
