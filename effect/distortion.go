package effect

import (
	"math"

	"github.com/tesselode/kira-sub000/clockinfo"
	"github.com/tesselode/kira-sub000/command"
	"github.com/tesselode/kira-sub000/dsp"
	"github.com/tesselode/kira-sub000/parameter"
	"github.com/tesselode/kira-sub000/tween"
)

// DistortionKind selects the waveshaping curve applied to each sample.
type DistortionKind int

const (
	// DistortionHardClip simply clamps samples outside [-1, 1].
	DistortionHardClip DistortionKind = iota
	// DistortionSoftClip uses tanh for a smoother, warmer saturation.
	DistortionSoftClip
)

// DistortionCommandKind discriminates Distortion Command variants.
type DistortionCommandKind int

const (
	DistortionSetDrive DistortionCommandKind = iota
	DistortionSetMix
)

// DistortionCommand is a realtime-bound parameter change for a
// Distortion effect.
type DistortionCommand struct {
	Kind  DistortionCommandKind
	Value tween.Value[float64]
	Tween tween.Tween
}

// DistortionSettings configures a new Distortion effect.
type DistortionSettings struct {
	Kind  DistortionKind
	Drive tween.Value[float64] // pre-gain applied before waveshaping
	Mix   tween.Value[float64]
}

// Distortion applies a waveshaping curve to add harmonic saturation.
type Distortion struct {
	kind  DistortionKind
	drive *parameter.Parameter[float64]
	mix   *parameter.Parameter[float64]

	reader *command.RingReader[DistortionCommand]
}

// NewDistortion creates a Distortion effect and its control-side handle.
func NewDistortion(settings DistortionSettings) (*Distortion, *command.RingWriter[DistortionCommand]) {
	w, r := command.NewRing[DistortionCommand](16)
	d := &Distortion{
		kind:   settings.Kind,
		drive:  parameter.New(settings.Drive, 1, tween.InterpolateFloat64),
		mix:    parameter.New(settings.Mix, 1, tween.InterpolateFloat64),
		reader: r,
	}
	return d, w
}

func (d *Distortion) Init(sampleRate uint32)               {}
func (d *Distortion) OnChangeSampleRate(sampleRate uint32) {}

func (d *Distortion) OnStartProcessing() {
	d.reader.DrainAll(func(cmd DistortionCommand) {
		switch cmd.Kind {
		case DistortionSetDrive:
			d.drive.Set(cmd.Value, cmd.Tween)
		case DistortionSetMix:
			d.mix.Set(cmd.Value, cmd.Tween)
		}
	})
}

func shape(kind DistortionKind, x float32) float32 {
	switch kind {
	case DistortionSoftClip:
		return float32(math.Tanh(float64(x)))
	default:
		if x > 1 {
			return 1
		}
		if x < -1 {
			return -1
		}
		return x
	}
}

func (d *Distortion) Process(buffer []dsp.Frame, dt float64, clockInfo clockinfo.Provider, modulators tween.ModulatorValueProvider) {
	chunkDt := dt * float64(len(buffer))
	d.drive.Update(chunkDt, clockInfo, modulators)
	d.mix.Update(chunkDt, clockInfo, modulators)

	drive := float32(d.drive.Value())
	mixAmount := clamp01(d.mix.Value())
	wetGain := sqrt32(float32(mixAmount))
	dryGain := sqrt32(float32(1 - mixAmount))

	for i, frame := range buffer {
		wet := dsp.Frame{
			Left:  shape(d.kind, frame.Left*drive),
			Right: shape(d.kind, frame.Right*drive),
		}
		buffer[i] = wet.Scale(wetGain).Add(frame.Scale(dryGain))
	}
}
