package tween

import (
	"math"
	"time"

	"github.com/golang/geo/r3"
)

// Decibels is an amplitude expressed on a logarithmic scale, where 0 is
// unity gain and negative values attenuate.
type Decibels float64

// MinusInfinityDB is used as the fade-out target; Amplitude() of this
// value is exactly zero rather than a very small float.
const MinusInfinityDB Decibels = -math.MaxFloat64

// Amplitude converts decibels to a linear amplitude multiplier.
func (d Decibels) Amplitude() float64 {
	if d <= -60 {
		return 0
	}
	return math.Pow(10, float64(d)/20)
}

// Quat is a unit quaternion used for listener and emitter orientation.
// No quaternion library appears anywhere in the example corpus (see
// DESIGN.md), so this is a small self-contained implementation built on
// math, matching the scope of a single spatialization helper rather
// than a general-purpose rotation library.
type Quat struct {
	X, Y, Z, W float64
}

// QuatIdentity is the identity rotation.
var QuatIdentity = Quat{W: 1}

// QuatFromAxisAngle builds a rotation of angle radians around axis.
func QuatFromAxisAngle(axis r3.Vector, angle float64) Quat {
	axis = axis.Normalize()
	s := math.Sin(angle / 2)
	return Quat{X: axis.X * s, Y: axis.Y * s, Z: axis.Z * s, W: math.Cos(angle / 2)}
}

// Rotate applies the quaternion's rotation to v.
func (q Quat) Rotate(v r3.Vector) r3.Vector {
	u := r3.Vector{X: q.X, Y: q.Y, Z: q.Z}
	uv := u.Cross(v)
	uuv := u.Cross(uv)
	return v.Add(uv.Mul(2 * q.W)).Add(uuv.Mul(2))
}

func (q Quat) normalize() Quat {
	n := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if n == 0 {
		return QuatIdentity
	}
	return Quat{X: q.X / n, Y: q.Y / n, Z: q.Z / n, W: q.W / n}
}

func (q Quat) dot(o Quat) float64 {
	return q.X*o.X + q.Y*o.Y + q.Z*o.Z + q.W*o.W
}

func (q Quat) scale(s float64) Quat {
	return Quat{X: q.X * s, Y: q.Y * s, Z: q.Z * s, W: q.W * s}
}

func (q Quat) add(o Quat) Quat {
	return Quat{X: q.X + o.X, Y: q.Y + o.Y, Z: q.Z + o.Z, W: q.W + o.W}
}

func (q Quat) negate() Quat {
	return Quat{X: -q.X, Y: -q.Y, Z: -q.Z, W: -q.W}
}

// slerp performs spherical linear interpolation between two unit
// quaternions.
func slerp(a, b Quat, x float64) Quat {
	cosTheta := a.dot(b)
	if cosTheta < 0 {
		b = b.negate()
		cosTheta = -cosTheta
	}
	const epsilon = 1e-6
	if cosTheta > 1-epsilon {
		return a.add(b.add(a.negate()).scale(x)).normalize()
	}
	theta := math.Acos(cosTheta)
	sinTheta := math.Sin(theta)
	wa := math.Sin((1-x)*theta) / sinTheta
	wb := math.Sin(x*theta) / sinTheta
	return a.scale(wa).add(b.scale(wb)).normalize()
}

// InterpolateFloat64 performs ordinary linear interpolation.
func InterpolateFloat64(a, b float64, x float64) float64 {
	return a + (b-a)*x
}

// InterpolateFloat32 performs ordinary linear interpolation in float32.
func InterpolateFloat32(a, b float32, x float64) float32 {
	return a + float32((float64(b)-float64(a))*x)
}

// InterpolateDecibels interpolates linearly in amplitude space (not in
// dB space), so a fade sounds even rather than front- or back-loaded.
func InterpolateDecibels(a, b Decibels, x float64) Decibels {
	amp := InterpolateFloat64(a.Amplitude(), b.Amplitude(), x)
	if amp <= 0 {
		return MinusInfinityDB
	}
	return Decibels(20 * math.Log10(amp))
}

// InterpolateVec3 interpolates component-wise.
func InterpolateVec3(a, b r3.Vector, x float64) r3.Vector {
	return r3.Vector{
		X: InterpolateFloat64(a.X, b.X, x),
		Y: InterpolateFloat64(a.Y, b.Y, x),
		Z: InterpolateFloat64(a.Z, b.Z, x),
	}
}

// InterpolateQuat interpolates via spherical linear interpolation.
func InterpolateQuat(a, b Quat, x float64) Quat {
	return slerp(a, b, x)
}

// InterpolateDuration interpolates linearly between two durations.
func InterpolateDuration(a, b time.Duration, x float64) time.Duration {
	return time.Duration(InterpolateFloat64(float64(a), float64(b), x))
}
