// Package wav adapts go-audio/wav to the decoder.Decoder interface.
package wav

import (
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/tesselode/kira-sub000/dsp"
)

// chunkFrames is how many frames Decode reads per call.
const chunkFrames = 4096

// Decoder reads a RIFF/WAVE stream into dsp.Frame chunks.
type Decoder struct {
	r          io.ReadSeeker
	d          *wav.Decoder
	sampleRate uint32
	numChans   int
	numFrames  int64
	dataStart  int64
	position   int64
}

// New wraps r as a Decoder. r must also implement io.Seeker, since the
// wav container needs random access to read PCM data after the header
// and to support Seek.
func New(r io.ReadSeeker) (*Decoder, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("wav: not a valid WAVE file")
	}
	d.ReadInfo()
	duration, err := d.Duration()
	if err != nil {
		return nil, fmt.Errorf("wav: reading duration: %w", err)
	}
	numFrames := int64(duration.Seconds() * float64(d.SampleRate))

	dataStart, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("wav: locating PCM data: %w", err)
	}

	return &Decoder{
		r:          r,
		d:          d,
		sampleRate: d.SampleRate,
		numChans:   int(d.NumChans),
		numFrames:  numFrames,
		dataStart:  dataStart,
	}, nil
}

// SampleRate implements decoder.Decoder.
func (d *Decoder) SampleRate() uint32 { return d.sampleRate }

// NumFrames implements decoder.Decoder.
func (d *Decoder) NumFrames() int64 { return d.numFrames }

// Decode implements decoder.Decoder.
func (d *Decoder) Decode() ([]dsp.Frame, error) {
	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: d.numChans, SampleRate: int(d.sampleRate)},
		Data:   make([]int, chunkFrames*d.numChans),
	}
	n, err := d.d.PCMBuffer(buf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("wav: decoding PCM: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	numFrames := n / d.numChans
	maxAmplitude := float32(int(1) << uint(buf.SourceBitDepth-1))
	frames := make([]dsp.Frame, numFrames)
	for i := 0; i < numFrames; i++ {
		left := float32(buf.Data[i*d.numChans]) / maxAmplitude
		right := left
		if d.numChans > 1 {
			right = float32(buf.Data[i*d.numChans+1]) / maxAmplitude
		}
		frames[i] = dsp.Frame{Left: left, Right: right}
	}
	d.position += int64(numFrames)
	return frames, nil
}

// Seek implements decoder.Decoder.
func (d *Decoder) Seek(frameIndex int64) (int64, error) {
	if frameIndex < 0 {
		frameIndex = 0
	}
	bytesPerFrame := int64(d.numChans) * 2
	offset := d.dataStart + frameIndex*bytesPerFrame
	if _, err := d.r.Seek(offset, io.SeekStart); err != nil {
		return 0, fmt.Errorf("wav: seeking: %w", err)
	}
	d.position = frameIndex
	return frameIndex, nil
}
