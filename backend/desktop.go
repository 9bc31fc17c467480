package backend

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"

	"github.com/tesselode/kira-sub000/internal/logging"
)

// DesktopSettings configures a Desktop backend.
type DesktopSettings struct {
	SampleRate   uint32
	ChannelCount int
	BufferSize   uint32 // samples per channel; 0 selects 100ms
}

// Desktop drives the renderer through the system's default audio
// device via oto.
type Desktop struct {
	sampleRate   uint32
	channelCount int
	bufferSize   uint32

	ctx    *oto.Context
	player *oto.Player

	rend    atomic.Pointer[rendererBox]
	running atomic.Bool
}

// rendererBox lets Start swap the active Renderer without the
// audioStream's Read racing a nil interface value.
type rendererBox struct {
	r Renderer
}

// NewDesktop creates a Desktop backend. The returned backend is not yet
// playing; call Start to begin pulling frames from a Renderer.
func NewDesktop(settings DesktopSettings) (*Desktop, error) {
	sampleRate := settings.SampleRate
	if sampleRate == 0 {
		sampleRate = 44100
	}
	channelCount := settings.ChannelCount
	if channelCount == 0 {
		channelCount = 2
	}
	bufferSize := settings.BufferSize
	if bufferSize == 0 {
		bufferSize = sampleRate / 10
	}

	op := &oto.NewContextOptions{
		SampleRate:   int(sampleRate),
		ChannelCount: channelCount,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	return &Desktop{
		sampleRate:   sampleRate,
		channelCount: channelCount,
		bufferSize:   bufferSize,
		ctx:          ctx,
	}, nil
}

// SampleRate implements Backend.
func (d *Desktop) SampleRate() uint32 { return d.sampleRate }

// ChannelCount implements Backend.
func (d *Desktop) ChannelCount() int { return d.channelCount }

// Start implements Backend.
func (d *Desktop) Start(rend Renderer) error {
	d.rend.Store(&rendererBox{r: rend})
	d.running.Store(true)
	d.player = d.ctx.NewPlayer(&audioStream{d: d})
	d.player.SetBufferSize(int(d.bufferSize))
	d.player.Play()
	logging.Logger.Info("playback started", "sampleRate", d.sampleRate, "channels", d.channelCount)
	return nil
}

// Stop implements Backend.
func (d *Desktop) Stop() error {
	d.running.Store(false)
	if d.player == nil {
		return nil
	}
	err := d.player.Close()
	logging.Logger.Info("playback stopped")
	return err
}

// audioStream adapts Desktop's frame source to oto's io.Reader
// contract: each Read call produces as many complete frames as fit in
// buf, little-endian 16-bit PCM, interleaved per d.channelCount.
type audioStream struct {
	d       *Desktop
	scratch []float32
}

func (s *audioStream) Read(buf []byte) (int, error) {
	bytesPerSample := 2
	frameBytes := bytesPerSample * s.d.channelCount
	numFrames := len(buf) / frameBytes
	if numFrames == 0 {
		return 0, nil
	}

	if !s.d.running.Load() {
		for i := range buf[:numFrames*frameBytes] {
			buf[i] = 0
		}
		return numFrames * frameBytes, nil
	}

	box := s.d.rend.Load()
	if box == nil {
		for i := range buf[:numFrames*frameBytes] {
			buf[i] = 0
		}
		return numFrames * frameBytes, nil
	}

	needed := numFrames * s.d.channelCount
	if cap(s.scratch) < needed {
		s.scratch = make([]float32, needed)
	}
	samples := s.scratch[:needed]
	box.r.Render(samples, numFrames, s.d.channelCount)

	for i, sample := range samples {
		if sample > 1 {
			sample = 1
		} else if sample < -1 {
			sample = -1
		}
		s16 := int16(sample * 32767)
		binary.LittleEndian.PutUint16(buf[i*bytesPerSample:], uint16(s16))
	}

	return numFrames * frameBytes, nil
}
