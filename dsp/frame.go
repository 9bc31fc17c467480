// Package dsp holds the core sample representation shared by every
// stage of the renderer: sounds, tracks, and effects all read and
// write Frame values.
package dsp

import "math"

// Frame is one stereo sample pair.
type Frame struct {
	Left, Right float32
}

// Zero is the silent frame.
var Zero = Frame{}

// Add returns the sum of two frames.
func (f Frame) Add(o Frame) Frame {
	return Frame{Left: f.Left + o.Left, Right: f.Right + o.Right}
}

// Scale multiplies both channels by amount.
func (f Frame) Scale(amount float32) Frame {
	return Frame{Left: f.Left * amount, Right: f.Right * amount}
}

// Mono collapses a frame to its average.
func (f Frame) Mono() float32 {
	return (f.Left + f.Right) / 2
}

// Panned splits a mono source frame across the stereo field using a
// linear, sum-to-one pan law: pan 0 is full left, 1 is full right, 0.5
// is center with both channels at half amplitude.
func Panned(mono float32, pan float64) Frame {
	return Frame{
		Left:  mono * float32(1-pan),
		Right: mono * float32(pan),
	}
}

// HasNaN reports whether either channel is NaN.
func (f Frame) HasNaN() bool {
	return math.IsNaN(float64(f.Left)) || math.IsNaN(float64(f.Right))
}

// HermiteInterpolate performs 4-point, 3rd-order Hermite interpolation
// between y1 and y2, using y0 and y3 as the neighboring control points,
// at fractional position x in [0,1).
func HermiteInterpolate(y0, y1, y2, y3, x float32) float32 {
	c0 := y1
	c1 := (y2 - y0) / 2
	c2 := y0 - y1*2.5 + y2*2 - y3*0.5
	c3 := (y3-y0)/2 + (y1-y2)*1.5
	return ((c3*x+c2)*x+c1)*x + c0
}

// HermiteInterpolateFrame applies HermiteInterpolate independently to
// both channels of four neighboring frames.
func HermiteInterpolateFrame(f0, f1, f2, f3 Frame, x float32) Frame {
	return Frame{
		Left:  HermiteInterpolate(f0.Left, f1.Left, f2.Left, f3.Left, x),
		Right: HermiteInterpolate(f0.Right, f1.Right, f2.Right, f3.Right, x),
	}
}
