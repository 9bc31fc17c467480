// Package decoder defines the narrow boundary between file-format
// parsers and the core renderer. Concrete adapters live in the
// decoder/wav, decoder/mp3, decoder/vorbis, and decoder/opus
// subpackages; core packages (sound, renderer) depend only on this
// interface.
package decoder

import "github.com/tesselode/kira-sub000/dsp"

// Decoder produces PCM frames for a streaming sound. Implementations
// are not required to be safe for concurrent use; each streaming
// sound owns exactly one decoder instance on its scheduler goroutine.
type Decoder interface {
	// SampleRate returns the decoder's native sample rate in Hz.
	SampleRate() uint32

	// NumFrames returns the total number of frames the source
	// contains, or math.MaxInt64 if the source is endless or its
	// length cannot be determined up front.
	NumFrames() int64

	// Decode produces the next contiguous chunk of frames. The chunk
	// size is the decoder's choice; an empty, non-nil slice (or a nil
	// slice with a nil error) signals end of stream.
	Decode() ([]dsp.Frame, error)

	// Seek moves the read position to frameIndex and returns the frame
	// index actually reached, which may be earlier than requested due
	// to codec granularity (e.g. Vorbis/Opus packet boundaries).
	Seek(frameIndex int64) (int64, error)
}
