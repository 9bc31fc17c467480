// Package mp3 adapts hajimehoshi/go-mp3 to the decoder.Decoder
// interface.
package mp3

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/hajimehoshi/go-mp3"

	"github.com/tesselode/kira-sub000/dsp"
)

// chunkFrames is how many stereo frames Decode reads per call.
const chunkFrames = 4096

const bytesPerFrame = 4 // stereo, 16-bit

// Decoder reads an MP3 stream into dsp.Frame chunks. go-mp3 always
// produces signed 16-bit little-endian stereo PCM regardless of the
// source's original channel count.
type Decoder struct {
	r   io.Reader
	d   *mp3.Decoder
	buf []byte
}

// New wraps r as a Decoder. Seek works only if r also implements
// io.Seeker.
func New(r io.Reader) (*Decoder, error) {
	d, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3: opening stream: %w", err)
	}
	return &Decoder{r: r, d: d, buf: make([]byte, chunkFrames*bytesPerFrame)}, nil
}

// SampleRate implements decoder.Decoder.
func (d *Decoder) SampleRate() uint32 { return uint32(d.d.SampleRate()) }

// NumFrames implements decoder.Decoder. go-mp3 reports total decoded
// length in bytes once it can be determined; unknown is reported as
// math.MaxInt64.
func (d *Decoder) NumFrames() int64 {
	n := d.d.Length()
	if n < 0 {
		return math.MaxInt64
	}
	return n / bytesPerFrame
}

// Decode implements decoder.Decoder.
func (d *Decoder) Decode() ([]dsp.Frame, error) {
	n, err := io.ReadFull(d.d, d.buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("mp3: decoding: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	numFrames := n / bytesPerFrame
	frames := make([]dsp.Frame, numFrames)
	for i := 0; i < numFrames; i++ {
		left := int16(binary.LittleEndian.Uint16(d.buf[i*4:]))
		right := int16(binary.LittleEndian.Uint16(d.buf[i*4+2:]))
		frames[i] = dsp.Frame{
			Left:  float32(left) / 32768,
			Right: float32(right) / 32768,
		}
	}
	return frames, nil
}

// Seek implements decoder.Decoder. It requires the reader passed to
// New to implement io.Seeker.
func (d *Decoder) Seek(frameIndex int64) (int64, error) {
	offset, err := d.d.Seek(frameIndex*bytesPerFrame, io.SeekStart)
	if err != nil {
		return 0, fmt.Errorf("mp3: seeking: %w", err)
	}
	return offset / bytesPerFrame, nil
}
