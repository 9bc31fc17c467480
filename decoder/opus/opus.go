// Package opus adapts gopkg.in/hraban/opus.v2 to the decoder.Decoder
// interface. Unlike the other adapters this one decodes a raw
// Opus-in-Ogg stream frame-by-frame rather than through a container
// reader, since hraban/opus exposes only the codec, not Ogg demuxing;
// frame boundaries are expected to already be split out by the caller
// (e.g. an Ogg page reader) into a PacketSource.
package opus

import (
	"fmt"
	"math"

	hrabanopus "gopkg.in/hraban/opus.v2"

	"github.com/tesselode/kira-sub000/dsp"
)

// maxFrameSamples is the largest decoded frame size (per channel) a
// single Opus packet can expand to at 48kHz (120ms).
const maxFrameSamples = 5760

// PacketSource supplies raw, demuxed Opus packets in stream order.
// Demuxing an Ogg-wrapped Opus file is outside this decoder's
// responsibility; callers provide packets however their container
// parser produces them.
type PacketSource interface {
	NextPacket() ([]byte, error)
	SeekToPacket(index int) error
}

// Decoder decodes a sequence of Opus packets into dsp.Frame chunks.
type Decoder struct {
	packets    PacketSource
	decoder    *hrabanopus.Decoder
	sampleRate uint32
	channels   int
	pcm        []int16
	numFrames  int64
}

// New creates a Decoder at sampleRate (must be one of Opus's supported
// rates: 8000, 12000, 16000, 24000, 48000) and channel count.
// numFrames may be math.MaxInt64 if unknown.
func New(packets PacketSource, sampleRate uint32, channels int, numFrames int64) (*Decoder, error) {
	dec, err := hrabanopus.NewDecoder(int(sampleRate), channels)
	if err != nil {
		return nil, fmt.Errorf("opus: creating decoder: %w", err)
	}
	return &Decoder{
		packets:    packets,
		decoder:    dec,
		sampleRate: sampleRate,
		channels:   channels,
		pcm:        make([]int16, maxFrameSamples*channels),
		numFrames:  numFrames,
	}, nil
}

// SampleRate implements decoder.Decoder.
func (d *Decoder) SampleRate() uint32 { return d.sampleRate }

// NumFrames implements decoder.Decoder.
func (d *Decoder) NumFrames() int64 {
	if d.numFrames <= 0 {
		return math.MaxInt64
	}
	return d.numFrames
}

// Decode implements decoder.Decoder.
func (d *Decoder) Decode() ([]dsp.Frame, error) {
	packet, err := d.packets.NextPacket()
	if err != nil {
		return nil, fmt.Errorf("opus: reading packet: %w", err)
	}
	if len(packet) == 0 {
		return nil, nil
	}
	n, err := d.decoder.Decode(packet, d.pcm)
	if err != nil {
		return nil, fmt.Errorf("opus: decoding packet: %w", err)
	}
	frames := make([]dsp.Frame, n)
	for i := 0; i < n; i++ {
		left := d.pcm[i*d.channels]
		right := left
		if d.channels > 1 {
			right = d.pcm[i*d.channels+1]
		}
		frames[i] = dsp.Frame{Left: float32(left) / 32768, Right: float32(right) / 32768}
	}
	return frames, nil
}

// Seek implements decoder.Decoder. Opus packets only decode
// correctly from a packet boundary, so frameIndex is rounded down to
// the nearest packet the source reports.
func (d *Decoder) Seek(frameIndex int64) (int64, error) {
	// Without container-level timing information the best this
	// adapter can do is hand the request to the packet source and
	// report that the achieved position is unknown at finer-than-
	// packet granularity; callers relying on exact sample positions
	// should prefer the wav or vorbis adapters.
	if err := d.packets.SeekToPacket(int(frameIndex)); err != nil {
		return 0, fmt.Errorf("opus: seeking: %w", err)
	}
	return frameIndex, nil
}
