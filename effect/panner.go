package effect

import (
	"github.com/tesselode/kira-sub000/clockinfo"
	"github.com/tesselode/kira-sub000/command"
	"github.com/tesselode/kira-sub000/dsp"
	"github.com/tesselode/kira-sub000/parameter"
	"github.com/tesselode/kira-sub000/tween"
)

// PannerCommandKind discriminates Panner Command variants.
type PannerCommandKind int

const (
	PannerSetPanning PannerCommandKind = iota
)

// PannerCommand is a realtime-bound parameter change for a Panner effect.
type PannerCommand struct {
	Kind  PannerCommandKind
	Value tween.Value[float64]
	Tween tween.Tween
}

// PannerSettings configures a new Panner effect.
type PannerSettings struct {
	Panning tween.Value[float64] // 0 = left, 0.5 = center, 1 = right
}

// Panner mono-izes a track's buffer and repositions it in the stereo
// field, same formula as an individual sound's own panning.
type Panner struct {
	panning *parameter.Parameter[float64]
	reader  *command.RingReader[PannerCommand]
}

// NewPanner creates a Panner effect and its control-side handle.
func NewPanner(settings PannerSettings) (*Panner, *command.RingWriter[PannerCommand]) {
	w, r := command.NewRing[PannerCommand](16)
	p := &Panner{
		panning: parameter.New(settings.Panning, 0.5, tween.InterpolateFloat64),
		reader:  r,
	}
	return p, w
}

func (p *Panner) Init(sampleRate uint32)               {}
func (p *Panner) OnChangeSampleRate(sampleRate uint32) {}

func (p *Panner) OnStartProcessing() {
	p.reader.DrainAll(func(cmd PannerCommand) {
		switch cmd.Kind {
		case PannerSetPanning:
			p.panning.Set(cmd.Value, cmd.Tween)
		}
	})
}

func (p *Panner) Process(buffer []dsp.Frame, dt float64, clockInfo clockinfo.Provider, modulators tween.ModulatorValueProvider) {
	p.panning.Update(dt*float64(len(buffer)), clockInfo, modulators)
	pan := p.panning.Value()
	for i, frame := range buffer {
		buffer[i] = dsp.Panned(frame.Mono(), pan)
	}
}
