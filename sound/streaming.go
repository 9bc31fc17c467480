package sound

import "github.com/tesselode/kira-sub000/dsp"

// streamingWindow is how many recently-decoded frames StreamingSource
// keeps available for backward interpolation lookups (Hermite reads
// one frame behind the playhead).
const streamingWindow = 64

// StreamingSource implements Source over a DecodeScheduler's frame
// channel: it non-blockingly drains newly decoded frames into a small
// rolling window and answers FrameAt from that window, reporting a
// miss when the requested frame hasn't been decoded yet (or has
// already scrolled out of the window).
type StreamingSource struct {
	frames    <-chan timestampedFrame
	shared    *SchedulerShared
	numFrames int64

	baseIndex int64
	window    []dsp.Frame
}

func newStreamingSource(frames <-chan timestampedFrame, shared *SchedulerShared, numFrames int64) *StreamingSource {
	return &StreamingSource{frames: frames, shared: shared, numFrames: numFrames, baseIndex: -1}
}

func (s *StreamingSource) drain() {
	for {
		select {
		case tf := <-s.frames:
			s.push(tf)
		default:
			return
		}
	}
}

func (s *StreamingSource) push(tf timestampedFrame) {
	if s.baseIndex < 0 {
		s.baseIndex = tf.index
	}
	expected := s.baseIndex + int64(len(s.window))
	if tf.index != expected {
		// A seek landed elsewhere; the window no longer describes a
		// contiguous run, so restart it at the new position.
		s.window = s.window[:0]
		s.baseIndex = tf.index
	}
	s.window = append(s.window, tf.frame)
	if len(s.window) > streamingWindow {
		drop := len(s.window) - streamingWindow
		s.window = s.window[drop:]
		s.baseIndex += int64(drop)
	}
}

// FrameAt implements Source.
func (s *StreamingSource) FrameAt(index int64) (dsp.Frame, bool) {
	s.drain()
	if s.baseIndex < 0 {
		return dsp.Frame{}, false
	}
	offset := index - s.baseIndex
	if offset < 0 || offset >= int64(len(s.window)) {
		return dsp.Frame{}, false
	}
	return s.window[offset], true
}

// NumFrames implements Source.
func (s *StreamingSource) NumFrames() int64 { return s.numFrames }

// Ready reports whether at least two frames are buffered, the
// threshold the instance waits for before it starts consuming
// (keeping one frame of lookback history available for interpolation).
func (s *StreamingSource) Ready() bool {
	s.drain()
	return len(s.window) >= 2
}

// ReachedEnd passes through the scheduler's exhaustion flag.
func (s *StreamingSource) ReachedEnd() bool { return s.shared.ReachedEnd() }
