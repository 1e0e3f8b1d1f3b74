// Package field evaluates the shift field on the CPU.
//
// The same formula is transcribed in shaders/warp.fs for the GPU. The two
// must stay operation-for-operation identical: both run in float32, so a
// pixel and a CPU probe at the same position agree up to rounding.
package field

import (
	"github.com/chewxy/math32"

	"github.com/pthm-cable/warpviz/params"
)

// MinRadius is the radius below which the field is defined as zero.
const MinRadius float32 = 1e-9

// nanometre converts sag depth to metres.
const nanometre float32 = 1e-9

// MinScale is the smallest normal float32. Smaller scales are treated as
// zero, as GPUs flush subnormals.
const MinScale float32 = 1.17549435e-38

// Vec3 is a position or field sample in metres.
type Vec3 struct {
	X, Y, Z float32
}

// Norm returns the Euclidean length of v.
func (v Vec3) Norm() float32 {
	return math32.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Scale returns v multiplied by s.
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Evaluate returns the shift vector at pos for parameter set p.
//
//	scale     = sagDepth · 1e-9
//	amplitude = dutyCycle · geometricAmplification
//	β(x)      = amplitude · (r/scale)·exp(-(r/scale)²) · x/r
//
// The field is zero within MinRadius of the origin, when |scale| is below
// MinScale, and wherever amplitude·profile is not finite.
func Evaluate(pos Vec3, p params.Set) Vec3 {
	scale := p.SagDepthNM * nanometre
	r := pos.Norm()
	if r < MinRadius || math32.Abs(scale) < MinScale {
		return Vec3{}
	}
	amplitude := p.DutyCycle * p.GeometricAmplification
	q := r / scale
	profile := q * math32.Exp(-q*q)
	s := amplitude * profile
	if math32.IsNaN(s) || math32.IsInf(s, 0) {
		return Vec3{}
	}
	return Vec3{s * (pos.X / r), s * (pos.Y / r), s * (pos.Z / r)}
}

// Magnitude returns |Evaluate(pos, p)|.
func Magnitude(pos Vec3, p params.Set) float32 {
	return Evaluate(pos, p).Norm()
}

// Profile returns the field magnitude at radius r. The field is radially
// symmetric, so the direction does not matter.
func Profile(r float32, p params.Set) float32 {
	return Magnitude(Vec3{X: r}, p)
}
