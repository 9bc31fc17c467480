package modulator

import (
	"github.com/tesselode/kira-sub000/clockinfo"
	"github.com/tesselode/kira-sub000/command"
	"github.com/tesselode/kira-sub000/parameter"
	"github.com/tesselode/kira-sub000/tween"
)

// Tweener is a modulator whose value is driven directly by a
// Parameter[float64]; setting a new target with a tween moves the
// modulator's output smoothly.
type Tweener struct {
	value  *parameter.Parameter[float64]
	reader *command.RingReader[TweenerCommand]
}

// TweenerCommand is a realtime-bound control message for a Tweener.
type TweenerCommand struct {
	Target float64
	Tween  tween.Tween
}

// NewTweener creates a Tweener starting at initialValue. It returns the
// modulator plus the control-side command writer.
func NewTweener(initialValue float64) (*Tweener, *command.RingWriter[TweenerCommand]) {
	w, r := command.NewRing[TweenerCommand](8)
	t := &Tweener{
		value:  parameter.New(tween.NewFixedValue(initialValue), initialValue, tween.InterpolateFloat64),
		reader: r,
	}
	return t, w
}

// OnStartProcessing drains pending Set commands.
func (t *Tweener) OnStartProcessing() {
	t.reader.DrainAll(func(cmd TweenerCommand) {
		t.value.Set(tween.NewFixedValue(cmd.Target), cmd.Tween)
	})
}

// Update implements Modulator.
func (t *Tweener) Update(dt float64, clockInfo clockinfo.Provider) UpdateInfo {
	t.value.Update(dt, clockInfo, noModulators{})
	return UpdateInfo{}
}

// Value implements Modulator.
func (t *Tweener) Value() float64 { return t.value.Value() }

// Finished implements Modulator. A Tweener never finishes on its own;
// it lives until its handle is dropped.
func (t *Tweener) Finished() bool { return false }

// noModulators satisfies tween.ModulatorValueProvider for Tweener's
// internal Parameter, which never derives its value from another
// modulator.
type noModulators struct{}

func (noModulators) ModulatorValue(uint64) (float64, bool) { return 0, false }
