package effect

import (
	"math"
	"time"

	"github.com/tesselode/kira-sub000/clockinfo"
	"github.com/tesselode/kira-sub000/command"
	"github.com/tesselode/kira-sub000/dsp"
	"github.com/tesselode/kira-sub000/parameter"
	"github.com/tesselode/kira-sub000/tween"
)

// CompressorCommandKind discriminates Compressor Command variants.
type CompressorCommandKind int

const (
	CompressorSetThreshold CompressorCommandKind = iota
	CompressorSetRatio
	CompressorSetAttackDuration
	CompressorSetReleaseDuration
	CompressorSetMakeupGain
	CompressorSetMix
)

// CompressorCommand is a realtime-bound parameter change for a
// Compressor effect. Only the field matching Kind is read.
type CompressorCommand struct {
	Kind        CompressorCommandKind
	FloatValue  tween.Value[float64]
	GainValue   tween.Value[tween.Decibels]
	Tween       tween.Tween
}

// CompressorSettings configures a new Compressor effect.
type CompressorSettings struct {
	Threshold       tween.Value[float64] // dBFS
	Ratio           tween.Value[float64]
	AttackDuration  time.Duration
	ReleaseDuration time.Duration
	MakeupGain      tween.Value[tween.Decibels]
	Mix             tween.Value[float64]
}

// Compressor is a feed-forward dynamic range compressor: an envelope
// follower tracks the signal's level in dB, and any excess above the
// threshold is scaled down by ratio, smoothed by separate attack and
// release times.
type Compressor struct {
	threshold  *parameter.Parameter[float64]
	ratio      *parameter.Parameter[float64]
	makeupGain *parameter.Parameter[tween.Decibels]
	mix        *parameter.Parameter[float64]

	attackDuration  time.Duration
	releaseDuration time.Duration
	envelopeDB      float64

	reader *command.RingReader[CompressorCommand]
}

// NewCompressor creates a Compressor effect and its control-side handle.
func NewCompressor(settings CompressorSettings) (*Compressor, *command.RingWriter[CompressorCommand]) {
	w, r := command.NewRing[CompressorCommand](16)
	attack := settings.AttackDuration
	if attack <= 0 {
		attack = 10 * time.Millisecond
	}
	release := settings.ReleaseDuration
	if release <= 0 {
		release = 100 * time.Millisecond
	}
	c := &Compressor{
		threshold:       parameter.New(settings.Threshold, 0, tween.InterpolateFloat64),
		ratio:           parameter.New(settings.Ratio, 1, tween.InterpolateFloat64),
		makeupGain:      parameter.New(settings.MakeupGain, tween.Decibels(0), tween.InterpolateDecibels),
		mix:             parameter.New(settings.Mix, 1, tween.InterpolateFloat64),
		attackDuration:  attack,
		releaseDuration: release,
		envelopeDB:      -100,
		reader:          r,
	}
	return c, w
}

func (c *Compressor) Init(sampleRate uint32)               {}
func (c *Compressor) OnChangeSampleRate(sampleRate uint32) {}

func (c *Compressor) OnStartProcessing() {
	c.reader.DrainAll(func(cmd CompressorCommand) {
		switch cmd.Kind {
		case CompressorSetThreshold:
			c.threshold.Set(cmd.FloatValue, cmd.Tween)
		case CompressorSetRatio:
			c.ratio.Set(cmd.FloatValue, cmd.Tween)
		case CompressorSetMakeupGain:
			c.makeupGain.Set(cmd.GainValue, cmd.Tween)
		case CompressorSetMix:
			c.mix.Set(cmd.FloatValue, cmd.Tween)
		}
	})
}

// SetAttackDuration and SetReleaseDuration are applied immediately
// (they shape the envelope follower's time constants, not a tweened
// signal parameter).
func (c *Compressor) SetAttackDuration(d time.Duration)  { c.attackDuration = d }
func (c *Compressor) SetReleaseDuration(d time.Duration) { c.releaseDuration = d }

func amplitudeToDB(amp float64) float64 {
	if amp <= 0 {
		return -100
	}
	return 20 * math.Log10(amp)
}

func (c *Compressor) Process(buffer []dsp.Frame, dt float64, clockInfo clockinfo.Provider, modulators tween.ModulatorValueProvider) {
	chunkDt := dt * float64(len(buffer))
	c.threshold.Update(chunkDt, clockInfo, modulators)
	c.ratio.Update(chunkDt, clockInfo, modulators)
	c.makeupGain.Update(chunkDt, clockInfo, modulators)
	c.mix.Update(chunkDt, clockInfo, modulators)

	threshold := c.threshold.Value()
	ratio := c.ratio.Value()
	makeupAmp := float32(c.makeupGain.Value().Amplitude())
	mixAmount := clamp01(c.mix.Value())
	wetGain := sqrt32(float32(mixAmount))
	dryGain := sqrt32(float32(1 - mixAmount))

	attackCoeff := timeConstantCoeff(c.attackDuration, dt)
	releaseCoeff := timeConstantCoeff(c.releaseDuration, dt)

	for i, frame := range buffer {
		levelDB := amplitudeToDB(math.Max(math.Abs(float64(frame.Left)), math.Abs(float64(frame.Right))))
		if levelDB > c.envelopeDB {
			c.envelopeDB += (levelDB - c.envelopeDB) * attackCoeff
		} else {
			c.envelopeDB += (levelDB - c.envelopeDB) * releaseCoeff
		}

		gainDB := 0.0
		if excess := c.envelopeDB - threshold; excess > 0 && ratio > 0 {
			gainDB = excess/ratio - excess
		}
		gain := float32(math.Pow(10, gainDB/20)) * makeupAmp

		wet := frame.Scale(gain)
		buffer[i] = wet.Scale(wetGain).Add(frame.Scale(dryGain))
	}
}

// timeConstantCoeff converts a time constant into a per-sample
// exponential smoothing coefficient.
func timeConstantCoeff(d time.Duration, dt float64) float64 {
	if d <= 0 {
		return 1
	}
	tau := d.Seconds()
	return 1 - math.Exp(-dt/tau)
}
