package effect

import (
	"github.com/tesselode/kira-sub000/clockinfo"
	"github.com/tesselode/kira-sub000/command"
	"github.com/tesselode/kira-sub000/dsp"
	"github.com/tesselode/kira-sub000/parameter"
	"github.com/tesselode/kira-sub000/tween"
)

const (
	numCombFilters    = 8
	numAllPassFilters = 4
	reverbGain        = 0.015
	stereoSpread      = 23
	referenceRate     = 44100
)

var combTunings = [numCombFilters]int{1116, 1188, 1277, 1356, 1422, 1491, 1557, 1617}
var allPassTunings = [numAllPassFilters]int{556, 441, 341, 225}

// ReverbCommandKind discriminates Reverb Command variants.
type ReverbCommandKind int

const (
	ReverbSetFeedback ReverbCommandKind = iota
	ReverbSetDamping
	ReverbSetStereoWidth
	ReverbSetMix
)

// ReverbCommand is a realtime-bound parameter change for a Reverb effect.
type ReverbCommand struct {
	Kind  ReverbCommandKind
	Value tween.Value[float64]
	Tween tween.Tween
}

// ReverbSettings configures a new Reverb effect.
type ReverbSettings struct {
	Feedback     tween.Value[float64]
	Damping      tween.Value[float64]
	StereoWidth  tween.Value[float64]
	Mix          tween.Value[float64]
}

type combPair struct{ left, right *combFilter }
type allPassPair struct{ left, right *allPassFilter }

// Reverb is a Freeverb-style room simulation: eight parallel damped comb
// filters feeding four series all-pass filters, with independent stereo
// taps offset by stereoSpread samples for width.
type Reverb struct {
	feedback    *parameter.Parameter[float64]
	damping     *parameter.Parameter[float64]
	stereoWidth *parameter.Parameter[float64]
	mix         *parameter.Parameter[float64]

	combs    [numCombFilters]combPair
	allPasses [numAllPassFilters]allPassPair

	reader *command.RingReader[ReverbCommand]
}

// NewReverb creates a Reverb effect and its control-side handle.
func NewReverb(settings ReverbSettings) (*Reverb, *command.RingWriter[ReverbCommand]) {
	w, r := command.NewRing[ReverbCommand](16)
	rv := &Reverb{
		feedback:    parameter.New(settings.Feedback, 0.9, tween.InterpolateFloat64),
		damping:     parameter.New(settings.Damping, 0.1, tween.InterpolateFloat64),
		stereoWidth: parameter.New(settings.StereoWidth, 1.0, tween.InterpolateFloat64),
		mix:         parameter.New(settings.Mix, 0.5, tween.InterpolateFloat64),
		reader:      r,
	}
	return rv, w
}

func adjustedSize(tuning int, sampleRate uint32) int {
	factor := float64(sampleRate) / referenceRate
	return int(float64(tuning) * factor)
}

func (rv *Reverb) Init(sampleRate uint32) { rv.buildFilters(sampleRate) }

func (rv *Reverb) OnChangeSampleRate(sampleRate uint32) { rv.buildFilters(sampleRate) }

func (rv *Reverb) buildFilters(sampleRate uint32) {
	for i, tuning := range combTunings {
		rv.combs[i] = combPair{
			left:  newCombFilter(adjustedSize(tuning, sampleRate)),
			right: newCombFilter(adjustedSize(tuning+stereoSpread, sampleRate)),
		}
	}
	for i, tuning := range allPassTunings {
		rv.allPasses[i] = allPassPair{
			left:  newAllPassFilter(adjustedSize(tuning, sampleRate)),
			right: newAllPassFilter(adjustedSize(tuning+stereoSpread, sampleRate)),
		}
	}
}

func (rv *Reverb) OnStartProcessing() {
	rv.reader.DrainAll(func(cmd ReverbCommand) {
		switch cmd.Kind {
		case ReverbSetFeedback:
			rv.feedback.Set(cmd.Value, cmd.Tween)
		case ReverbSetDamping:
			rv.damping.Set(cmd.Value, cmd.Tween)
		case ReverbSetStereoWidth:
			rv.stereoWidth.Set(cmd.Value, cmd.Tween)
		case ReverbSetMix:
			rv.mix.Set(cmd.Value, cmd.Tween)
		}
	})
}

func (rv *Reverb) Process(buffer []dsp.Frame, dt float64, clockInfo clockinfo.Provider, modulators tween.ModulatorValueProvider) {
	chunkDt := dt * float64(len(buffer))
	rv.feedback.Update(chunkDt, clockInfo, modulators)
	rv.damping.Update(chunkDt, clockInfo, modulators)
	rv.stereoWidth.Update(chunkDt, clockInfo, modulators)
	rv.mix.Update(chunkDt, clockInfo, modulators)

	feedback := float32(rv.feedback.Value())
	damping := float32(rv.damping.Value())
	stereoWidth := float32(rv.stereoWidth.Value())
	mixAmount := clamp01(rv.mix.Value())

	for i, frame := range buffer {
		monoInput := (frame.Left + frame.Right) * reverbGain

		var output dsp.Frame
		for _, c := range rv.combs {
			output.Left += c.left.process(monoInput, feedback, damping)
			output.Right += c.right.process(monoInput, feedback, damping)
		}
		for _, a := range rv.allPasses {
			output.Left = a.left.process(output.Left)
			output.Right = a.right.process(output.Right)
		}

		wet1 := stereoWidth/2 + 0.5
		wet2 := (1 - stereoWidth) / 2
		output = dsp.Frame{
			Left:  output.Left*wet1 + output.Right*wet2,
			Right: output.Right*wet1 + output.Left*wet2,
		}

		wetGain := sqrt32(float32(mixAmount))
		dryGain := sqrt32(float32(1 - mixAmount))
		buffer[i] = output.Scale(wetGain).Add(frame.Scale(dryGain))
	}
}
