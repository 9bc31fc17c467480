// Package vorbis adapts jfreymuth/oggvorbis to the decoder.Decoder
// interface.
package vorbis

import (
	"fmt"
	"io"
	"math"

	"github.com/jfreymuth/oggvorbis"

	"github.com/tesselode/kira-sub000/dsp"
)

// chunkFrames is how many frames Decode reads per call.
const chunkFrames = 4096

// Decoder reads an Ogg Vorbis stream into dsp.Frame chunks.
type Decoder struct {
	r        *oggvorbis.Reader
	channels int
	buf      []float32
}

// New wraps r as a Decoder. r must implement io.Seeker for Seek to
// work, since oggvorbis.Reader requires random access to locate page
// boundaries.
func New(r io.Reader) (*Decoder, error) {
	or, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("vorbis: opening stream: %w", err)
	}
	channels := or.Channels()
	return &Decoder{
		r:        or,
		channels: channels,
		buf:      make([]float32, chunkFrames*channels),
	}, nil
}

// SampleRate implements decoder.Decoder.
func (d *Decoder) SampleRate() uint32 { return uint32(d.r.SampleRate()) }

// NumFrames implements decoder.Decoder.
func (d *Decoder) NumFrames() int64 {
	n := d.r.Length()
	if n <= 0 {
		return math.MaxInt64
	}
	return n
}

// Decode implements decoder.Decoder.
func (d *Decoder) Decode() ([]dsp.Frame, error) {
	n, err := d.r.Read(d.buf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("vorbis: decoding: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	numFrames := n / d.channels
	frames := make([]dsp.Frame, numFrames)
	for i := 0; i < numFrames; i++ {
		left := d.buf[i*d.channels]
		right := left
		if d.channels > 1 {
			right = d.buf[i*d.channels+1]
		}
		frames[i] = dsp.Frame{Left: left, Right: right}
	}
	return frames, nil
}

// Seek implements decoder.Decoder.
func (d *Decoder) Seek(frameIndex int64) (int64, error) {
	if err := d.r.SetPosition(frameIndex); err != nil {
		return 0, fmt.Errorf("vorbis: seeking: %w", err)
	}
	return d.r.Position(), nil
}
