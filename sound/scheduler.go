package sound

import (
	"sync/atomic"
	"time"

	"github.com/tesselode/kira-sub000/decoder"
	"github.com/tesselode/kira-sub000/dsp"
)

const (
	schedulerRingCapacity = 16384
	schedulerSleep        = time.Millisecond
)

// SchedulerCommandKind discriminates decode-scheduler control messages.
type SchedulerCommandKind int

const (
	// SchedulerSetLoopRegion rewrites the transport's loop bounds.
	SchedulerSetLoopRegion SchedulerCommandKind = iota
	// SchedulerSeekTo moves the scheduler's transport to an absolute frame.
	SchedulerSeekTo
	// SchedulerSeekBy moves the scheduler's transport by a relative delta.
	SchedulerSeekBy
)

// SchedulerCommand is a control message sent to a running
// DecodeScheduler from the instance that owns it.
type SchedulerCommand struct {
	Kind       SchedulerCommandKind
	LoopRegion *LoopRegion
	Position   int64
}

type timestampedFrame struct {
	index int64
	frame dsp.Frame
}

// SchedulerShared is the atomic state shared between a DecodeScheduler
// goroutine and the instance consuming its output.
type SchedulerShared struct {
	stopped    atomic.Bool
	reachedEnd atomic.Bool
}

// Stop signals the scheduler goroutine to exit on its next iteration.
func (s *SchedulerShared) Stop() { s.stopped.Store(true) }

// ReachedEnd reports whether the scheduler has exhausted a
// non-looping source.
func (s *SchedulerShared) ReachedEnd() bool { return s.reachedEnd.Load() }

// decodedChunk caches the most recently decoded contiguous run of
// frames so repeated reads near the playhead don't re-decode.
type decodedChunk struct {
	startIndex int64
	frames     []dsp.Frame
}

func (c *decodedChunk) frameAt(index int64) (dsp.Frame, bool) {
	if c == nil {
		return dsp.Frame{}, false
	}
	offset := index - c.startIndex
	if offset < 0 || offset >= int64(len(c.frames)) {
		return dsp.Frame{}, false
	}
	return c.frames[offset], true
}

// DecodeScheduler runs on a dedicated goroutine, keeping a ring of
// decoded frames ahead of an instance's playhead so the audio thread
// never waits on codec or file-system I/O.
type DecodeScheduler struct {
	dec        decoder.Decoder
	sampleRate uint32
	numFrames  int64
	transport  Transport

	chunk *decodedChunk

	commands <-chan SchedulerCommand
	frames   chan<- timestampedFrame

	shared *SchedulerShared
}

// NewDecodeScheduler creates a scheduler over dec, starting at
// startFrame, with the given loop region (nil for none). It returns
// the scheduler (not yet running — call Run in its own goroutine), a
// StreamingSource the owning instance reads from, the shared control
// handle, and the channel that carries SchedulerCommands to it.
func NewDecodeScheduler(dec decoder.Decoder, startFrame int64, loopRegion *LoopRegion) (*DecodeScheduler, *StreamingSource, *SchedulerShared, chan<- SchedulerCommand) {
	actualStart, _ := dec.Seek(startFrame)

	numFrames := dec.NumFrames()
	transport := NewTransport(numFrames)
	transport.LoopRegion = loopRegion
	transport.Position = actualStart

	commandCh := make(chan SchedulerCommand, 32)
	frameCh := make(chan timestampedFrame, schedulerRingCapacity)
	shared := &SchedulerShared{}

	s := &DecodeScheduler{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		numFrames:  numFrames,
		transport:  transport,
		commands:   commandCh,
		frames:     frameCh,
		shared:     shared,
	}
	src := newStreamingSource(frameCh, shared, numFrames)
	return s, src, shared, commandCh
}

// Run executes the scheduler's decode loop until the source is
// exhausted or Stop is called. It is meant to run on its own
// goroutine; it blocks on I/O and sleeps, and must never be called
// from the audio thread.
func (s *DecodeScheduler) Run() error {
	for {
		if s.shared.stopped.Load() {
			return nil
		}
		select {
		case cmd := <-s.commands:
			s.applyCommand(cmd)
			continue
		default:
		}

		frame, err := s.frameAtIndex(s.transport.Position)
		if err != nil {
			return err
		}

		select {
		case s.frames <- timestampedFrame{index: s.transport.Position, frame: frame}:
		default:
			time.Sleep(schedulerSleep)
			continue
		}

		s.transport.IncrementPosition()
		if !s.transport.Playing {
			s.shared.reachedEnd.Store(true)
			return nil
		}
	}
}

func (s *DecodeScheduler) applyCommand(cmd SchedulerCommand) {
	switch cmd.Kind {
	case SchedulerSetLoopRegion:
		s.transport.LoopRegion = cmd.LoopRegion
	case SchedulerSeekTo:
		s.seekToIndex(cmd.Position)
	case SchedulerSeekBy:
		s.seekToIndex(s.transport.Position + cmd.Position)
	}
}

func (s *DecodeScheduler) seekToIndex(index int64) {
	actual, _ := s.dec.Seek(index)
	s.transport.Position = actual
	s.chunk = nil
}

func (s *DecodeScheduler) frameAtIndex(index int64) (dsp.Frame, error) {
	if index < 0 || index >= s.numFrames {
		return dsp.Frame{}, nil
	}
	if frame, ok := s.chunk.frameAt(index); ok {
		return frame, nil
	}
	// The requested frame isn't in the cached chunk; seek the decoder
	// to it and decode forward until a chunk covers it. A single seek
	// may land on a codec-granularity boundary before the requested
	// frame, so more than one chunk might be needed.
	actual, err := s.dec.Seek(index)
	if err != nil {
		return dsp.Frame{}, err
	}
	cursor := actual
	for {
		decoded, err := s.dec.Decode()
		if err != nil {
			return dsp.Frame{}, err
		}
		if len(decoded) == 0 {
			return dsp.Frame{}, nil
		}
		s.chunk = &decodedChunk{startIndex: cursor, frames: decoded}
		if frame, ok := s.chunk.frameAt(index); ok {
			return frame, nil
		}
		cursor += int64(len(decoded))
	}
}
