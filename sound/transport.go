package sound

// LoopRegion is a half-open frame range [Start, End) a Transport wraps
// playback within.
type LoopRegion struct {
	Start, End int64
}

// Transport tracks an instance's frame-index playhead: direction,
// bounds, and looping.
type Transport struct {
	Position   int64
	Playing    bool
	LoopRegion *LoopRegion
	Reverse    bool
	NumFrames  int64
}

// NewTransport creates a Transport starting at frame 0, playing
// forward across numFrames frames.
func NewTransport(numFrames int64) Transport {
	return Transport{Playing: true, NumFrames: numFrames}
}

// IncrementPosition steps the playhead by one frame in the transport's
// current direction, applying loop-region wraparound or stopping
// playback at the source's bounds.
func (t *Transport) IncrementPosition() {
	if !t.Playing {
		return
	}
	if t.Reverse {
		t.Position--
	} else {
		t.Position++
	}
	if t.LoopRegion != nil {
		start, end := t.LoopRegion.Start, t.LoopRegion.End
		if !t.Reverse && t.Position >= end {
			t.Position = start + (t.Position-end)%(end-start)
		} else if t.Reverse && t.Position < start {
			t.Position = end - (start-t.Position)%(end-start)
		}
		return
	}
	if t.Position < 0 || t.Position >= t.NumFrames {
		t.Playing = false
	}
}

// SeekTo moves the playhead directly to position.
func (t *Transport) SeekTo(position int64) { t.Position = position }

// SeekBy moves the playhead by a relative frame delta.
func (t *Transport) SeekBy(delta int64) { t.Position += delta }
