// Package renderer drives the mixer graph from the audio callback: it
// owns the main track, the send-track registry, and the clock/modulator/
// listener registries, and turns a flat host sample buffer into filled
// frames once per callback.
package renderer

import (
	"github.com/tesselode/kira-sub000/clock"
	"github.com/tesselode/kira-sub000/dsp"
	"github.com/tesselode/kira-sub000/listener"
	"github.com/tesselode/kira-sub000/modulator"
	"github.com/tesselode/kira-sub000/track"
)

// InternalBufferSize caps how many frames the mixer graph processes in
// one pass; clocks and modulators advance once per chunk, so smaller
// chunks give finer-grained tween/modulator resolution at the cost of
// more per-chunk overhead.
const InternalBufferSize = 128

// Renderer is the single realtime-thread owner of the whole mixer
// graph. Every method is called only from the audio callback.
type Renderer struct {
	sampleRate uint32

	main  *track.Track
	sends *track.SendRegistry

	clocks     *clock.Storage
	modulators *modulator.Storage
	listeners  *listener.Storage

	scratch []dsp.Frame

	startHooks []func()
}

// AddStartHook registers f to run at the start of every onStartProcessing
// pass, before commands are drained. The manager package uses this to
// apply pending clock/modulator/listener registrations without reaching
// into their realtime-only Storage maps from the control thread.
func (r *Renderer) AddStartHook(f func()) {
	r.startHooks = append(r.startHooks, f)
}

// New builds a Renderer rooted at main, with sends as the send-track
// registry main's tracks route into.
func New(sampleRate uint32, main *track.Track, sends *track.SendRegistry, clocks *clock.Storage, modulators *modulator.Storage, listeners *listener.Storage) *Renderer {
	return &Renderer{
		sampleRate: sampleRate,
		main:       main,
		sends:      sends,
		clocks:     clocks,
		modulators: modulators,
		listeners:  listeners,
		scratch:    make([]dsp.Frame, InternalBufferSize),
	}
}

// OnChangeSampleRate re-initializes every stateful effect for the new
// rate. Call when the audio host reports a sample-rate change between
// buffers.
func (r *Renderer) OnChangeSampleRate(sampleRate uint32) {
	r.sampleRate = sampleRate
	r.main.OnChangeSampleRateAll(sampleRate)
	r.sends.OnChangeSampleRateAll(sampleRate)
}

// onStartProcessing drains every command ring and installs/evicts
// reserved and removed resources, recursively across every arena
// reachable from the renderer root. Called once per host callback,
// before any chunk is processed.
func (r *Renderer) onStartProcessing() {
	for _, hook := range r.startHooks {
		hook()
	}

	r.clocks.OnStartProcessing()
	r.modulators.OnStartProcessing()
	r.listeners.OnStartProcessing()
	r.main.OnStartProcessingAll()
	r.sends.OnStartProcessingAll()

	r.main.RemoveAndAdd()
	r.sends.RemoveAndAddAll()
}

// Render fills out, a buffer of channelCount-interleaved samples, by
// repeatedly processing chunks of the mixer graph and down/up-mixing
// each chunk's stereo frames into the host's channel layout.
//
// out holds numFrames*channelCount samples. For channelCount == 1 each
// frame is the average of left and right; for channelCount == 2 frames
// are left, right; for channelCount > 2 the remaining channels are
// silent.
func (r *Renderer) Render(out []float32, numFrames, channelCount int) {
	r.onStartProcessing()

	dt := 1.0 / float64(r.sampleRate)
	listeners := r.listeners

	written := 0
	for written < numFrames {
		chunkSize := numFrames - written
		if chunkSize > InternalBufferSize {
			chunkSize = InternalBufferSize
		}
		chunkDt := dt * float64(chunkSize)

		clockInfo := r.clocks.UpdateAll(chunkDt, r.modulators)
		r.modulators.UpdateAll(chunkDt, clockInfo)
		listeners.UpdateAll(chunkDt, clockInfo, r.modulators)

		chunk := r.scratch[:chunkSize]
		for i := range chunk {
			chunk[i] = dsp.Frame{}
		}

		r.main.ProcessChunk(chunk, dt, r.sampleRate, r.sends, clockInfo, r.modulators, listeners)

		base := written * channelCount
		for i, frame := range chunk {
			o := base + i*channelCount
			switch {
			case channelCount == 1:
				out[o] = (frame.Left + frame.Right) / 2
			case channelCount == 2:
				out[o] = frame.Left
				out[o+1] = frame.Right
			default:
				out[o] = frame.Left
				out[o+1] = frame.Right
				for c := 2; c < channelCount; c++ {
					out[o+c] = 0
				}
			}
		}

		written += chunkSize
	}
}
