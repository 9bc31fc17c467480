package effect

import (
	"github.com/tesselode/kira-sub000/clockinfo"
	"github.com/tesselode/kira-sub000/command"
	"github.com/tesselode/kira-sub000/dsp"
	"github.com/tesselode/kira-sub000/parameter"
	"github.com/tesselode/kira-sub000/tween"
)

// DelayCommandKind discriminates Delay Command variants.
type DelayCommandKind int

const (
	DelaySetDelayTime DelayCommandKind = iota
	DelaySetFeedback
	DelaySetMix
)

// DelayCommand is a realtime-bound parameter change for a Delay effect.
type DelayCommand struct {
	Kind  DelayCommandKind
	Value tween.Value[float64]
	Tween tween.Tween
}

// DelaySettings configures a new Delay effect.
type DelaySettings struct {
	DelayTime    tween.Value[float64] // seconds
	Feedback     tween.Value[float64]
	BufferLength float64 // seconds; bounds the maximum delay time
	Mix          tween.Value[float64]
}

// Delay repeats audio after a configurable delay, with feedback for
// multiple echoes. The read position is 4-point Hermite interpolated so
// fractional-sample delay times don't introduce zipper noise.
type Delay struct {
	delayTime *parameter.Parameter[float64]
	feedback  *parameter.Parameter[float64]
	mix       *parameter.Parameter[float64]

	bufferLength float64
	buffer       []dsp.Frame
	writePos     int

	reader *command.RingReader[DelayCommand]
}

// NewDelay creates a Delay effect and its control-side handle.
func NewDelay(settings DelaySettings) (*Delay, *command.RingWriter[DelayCommand]) {
	w, r := command.NewRing[DelayCommand](16)
	bufferLength := settings.BufferLength
	if bufferLength <= 0 {
		bufferLength = 10
	}
	d := &Delay{
		delayTime:    parameter.New(settings.DelayTime, 0.5, tween.InterpolateFloat64),
		feedback:     parameter.New(settings.Feedback, 0.5, tween.InterpolateFloat64),
		mix:          parameter.New(settings.Mix, 0.5, tween.InterpolateFloat64),
		bufferLength: bufferLength,
		reader:       r,
	}
	return d, w
}

func (d *Delay) Init(sampleRate uint32) { d.allocate(sampleRate) }

func (d *Delay) OnChangeSampleRate(sampleRate uint32) { d.allocate(sampleRate) }

func (d *Delay) allocate(sampleRate uint32) {
	n := int(d.bufferLength * float64(sampleRate))
	if n < 4 {
		n = 4
	}
	d.buffer = make([]dsp.Frame, n)
	d.writePos = 0
}

func (d *Delay) OnStartProcessing() {
	d.reader.DrainAll(func(cmd DelayCommand) {
		switch cmd.Kind {
		case DelaySetDelayTime:
			d.delayTime.Set(cmd.Value, cmd.Tween)
		case DelaySetFeedback:
			d.feedback.Set(cmd.Value, cmd.Tween)
		case DelaySetMix:
			d.mix.Set(cmd.Value, cmd.Tween)
		}
	})
}

// Process reads an interpolated sample out of the delay line, blends it
// with the dry input by mix (equal-power), and writes input plus
// feedback-scaled wet signal back into the line for the next echo.
func (d *Delay) Process(buffer []dsp.Frame, dt float64, clockInfo clockinfo.Provider, modulators tween.ModulatorValueProvider) {
	chunkDt := dt * float64(len(buffer))
	d.delayTime.Update(chunkDt, clockInfo, modulators)
	d.feedback.Update(chunkDt, clockInfo, modulators)
	d.mix.Update(chunkDt, clockInfo, modulators)

	feedback := float32(d.feedback.Value())
	mixAmount := clamp01(d.mix.Value())
	wetGain := sqrt32(float32(mixAmount))
	dryGain := sqrt32(float32(1 - mixAmount))
	n := len(d.buffer)

	for i, input := range buffer {
		readPos := float64(d.writePos) - d.delayTime.Value()/dt
		for readPos < 0 {
			readPos += float64(n)
		}
		idx0 := int(readPos) % n
		idx1 := (idx0 + 1) % n
		idx2 := (idx0 + 2) % n
		idxPrev := idx0 - 1
		if idxPrev < 0 {
			idxPrev = n - 1
		}
		frac := float32(readPos - float64(int(readPos)))
		wet := dsp.HermiteInterpolateFrame(d.buffer[idxPrev], d.buffer[idx0], d.buffer[idx1], d.buffer[idx2], frac)

		d.writePos = (d.writePos + 1) % n
		d.buffer[d.writePos] = input.Add(wet.Scale(feedback))

		buffer[i] = wet.Scale(wetGain).Add(input.Scale(dryGain))
	}
}
