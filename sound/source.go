package sound

import "github.com/tesselode/kira-sub000/dsp"

// Source is the frame-random-access view an Instance pulls samples
// from. StaticData satisfies it directly from an in-memory slice;
// StreamingSource satisfies it from the decode scheduler's ring,
// reporting a miss (ok=false) on underrun rather than blocking.
type Source interface {
	// FrameAt returns the frame at index, or ok=false if it isn't
	// currently available (out of bounds for static data; not yet
	// decoded, for streaming).
	FrameAt(index int64) (frame dsp.Frame, ok bool)

	// NumFrames returns the total frame count, or a very large number
	// if unknown/endless.
	NumFrames() int64
}
