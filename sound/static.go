package sound

import "github.com/tesselode/kira-sub000/dsp"

// StaticData holds an entire decoded asset in memory.
type StaticData struct {
	SampleRate uint32
	Frames     []dsp.Frame
}

// FrameAt implements Source.
func (d *StaticData) FrameAt(index int64) (dsp.Frame, bool) {
	if index < 0 || index >= int64(len(d.Frames)) {
		return dsp.Frame{}, false
	}
	return d.Frames[index], true
}

// NumFrames implements Source.
func (d *StaticData) NumFrames() int64 { return int64(len(d.Frames)) }
