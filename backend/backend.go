// Package backend implements the boundary between the renderer and a
// real audio device: it owns the host callback loop and reports the
// sample rate and channel layout the renderer must fill buffers for.
package backend

// Renderer is the capability a Backend drives once per host callback.
// It matches renderer.Renderer's Render method without importing the
// renderer package directly, so a backend can be tested against a
// fake.
type Renderer interface {
	Render(out []float32, numFrames, channelCount int)
	OnChangeSampleRate(sampleRate uint32)
}

// Backend is the capability every concrete audio output implements:
// it reports its sample rate before Start, and may report a changed
// one thereafter through the renderer's OnChangeSampleRate.
type Backend interface {
	// SampleRate returns the rate frames are requested at. Valid
	// before Start.
	SampleRate() uint32

	// ChannelCount returns the number of interleaved channels per
	// frame the backend's buffers use.
	ChannelCount() int

	// Start moves rend onto the backend's audio thread and begins
	// calling Render once per callback.
	Start(rend Renderer) error

	// Stop halts playback and releases the backend's audio thread.
	Stop() error
}
