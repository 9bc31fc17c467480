package tween

// ModulatorValueProvider is the read side of the modulator graph that
// Value and Parameter consult each buffer. Implemented by the renderer's
// modulator storage; kept as a narrow interface here so tween has no
// dependency on the modulator package.
type ModulatorValueProvider interface {
	ModulatorValue(id uint64) (float64, bool)
}

// Mapping reshapes a modulator's raw f64 reading into a Tweenable value:
// clamp the input into InputRange, normalize to [0,1], ease, then
// interpolate across OutputRange.
type Mapping[T any] struct {
	InputRange  [2]float64
	OutputLow   T
	OutputHigh  T
	Easing      Easing
	interpolate func(a, b T, x float64) T
}

// NewMapping builds a Mapping. interpolate is the Tweenable
// implementation for T (see InterpolateFloat64 and friends).
func NewMapping[T any](inputLow, inputHigh float64, outputLow, outputHigh T, easing Easing, interpolate func(a, b T, x float64) T) Mapping[T] {
	return Mapping[T]{
		InputRange:  [2]float64{inputLow, inputHigh},
		OutputLow:   outputLow,
		OutputHigh:  outputHigh,
		Easing:      easing,
		interpolate: interpolate,
	}
}

// Map clamps input into the input range, eases it, and interpolates
// across the output range.
func (m Mapping[T]) Map(input float64) T {
	lo, hi := m.InputRange[0], m.InputRange[1]
	var x float64
	if hi != lo {
		x = (input - lo) / (hi - lo)
	}
	if x < 0 {
		x = 0
	}
	if x > 1 {
		x = 1
	}
	return m.interpolate(m.OutputLow, m.OutputHigh, m.Easing.Apply(x))
}

// ValueKind discriminates Value's two states.
type ValueKind int

const (
	// Fixed is a constant value, unaffected by modulators.
	Fixed ValueKind = iota
	// FromModulator derives the value from a modulator reading through
	// a Mapping.
	FromModulator
)

// Value is either a constant or derived from a named modulator.
type Value[T any] struct {
	Kind        ValueKind
	FixedValue  T
	ModulatorID uint64
	Mapping     Mapping[T]
}

// NewFixedValue builds a constant Value.
func NewFixedValue[T any](v T) Value[T] {
	return Value[T]{Kind: Fixed, FixedValue: v}
}

// NewModulatedValue builds a Value derived from a modulator.
func NewModulatedValue[T any](modulatorID uint64, mapping Mapping[T]) Value[T] {
	return Value[T]{Kind: FromModulator, ModulatorID: modulatorID, Mapping: mapping}
}

// Resolve evaluates the value against the current modulator readings.
// It returns false only when Kind is FromModulator and the referenced
// modulator no longer exists.
func (v Value[T]) Resolve(provider ModulatorValueProvider) (T, bool) {
	switch v.Kind {
	case Fixed:
		return v.FixedValue, true
	case FromModulator:
		raw, ok := provider.ModulatorValue(v.ModulatorID)
		if !ok {
			var zero T
			return zero, false
		}
		return v.Mapping.Map(raw), true
	default:
		var zero T
		return zero, false
	}
}
