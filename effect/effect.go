// Package effect defines the per-track audio effect capability and its
// concrete implementations (reverb, delay, filter, compressor,
// distortion, panner, doppler).
package effect

import (
	"github.com/tesselode/kira-sub000/clockinfo"
	"github.com/tesselode/kira-sub000/dsp"
	"github.com/tesselode/kira-sub000/tween"
)

// Effect is a per-track audio processor. Stateful effects size their
// internal buffers from Init/OnChangeSampleRate rather than per-Process
// allocation, so they can run on the audio thread.
type Effect interface {
	// Init prepares any sample-rate-dependent internal state. Called
	// once, before the effect's track first processes audio.
	Init(sampleRate uint32)
	// OnChangeSampleRate re-derives internal state (delay line lengths,
	// filter coefficients, ...) when the host's sample rate changes.
	OnChangeSampleRate(sampleRate uint32)
	// OnStartProcessing drains the effect's pending parameter commands.
	OnStartProcessing()
	// Process applies the effect to buffer in place.
	Process(buffer []dsp.Frame, dt float64, clockInfo clockinfo.Provider, modulators tween.ModulatorValueProvider)
}
