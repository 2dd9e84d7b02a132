package emath

// Minimal 3D vectors, used to move points around the viewing sphere.

import (
	"fmt"
	"math"

	"golang.org/x/image/math/f64" // Will be "image/math/f64" at some point
)

// Epsilon is the threshold below which norms and determinants are treated as zero.
const Epsilon = 1e-12

// Use a local type so we can hang methods off it
type Vec3 f64.Vec3

func (v Vec3) X() float64 { return v[0] }
func (v Vec3) Y() float64 { return v[1] }
func (v Vec3) Z() float64 { return v[2] }

func (v Vec3) Add(w Vec3) Vec3 { return Vec3{v[0] + w[0], v[1] + w[1], v[2] + w[2]} }
func (v Vec3) Sub(w Vec3) Vec3 { return Vec3{v[0] - w[0], v[1] - w[1], v[2] - w[2]} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v[0] * s, v[1] * s, v[2] * s} }
func (v Vec3) Dot(w Vec3) float64 { return v[0]*w[0] + v[1]*w[1] + v[2]*w[2] }
func (v Vec3) Norm() float64 { return math.Sqrt(v.Dot(v)) }

func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		v[1]*w[2] - v[2]*w[1],
		v[2]*w[0] - v[0]*w[2],
		v[0]*w[1] - v[1]*w[0],
	}
}

// Normalize returns the unit vector pointing the same way as v. Vectors
// shorter than Epsilon are returned unchanged, so the zero vector stays zero
// rather than turning into NaNs.
func (v Vec3) Normalize() Vec3 {
	n := v.Norm()
	if n < Epsilon {
		return v
	}
	return v.Scale(1.0 / n)
}

// AngleTo is the angle (radians) between two vectors. It uses atan2 rather
// than acos, so it stays accurate for nearly parallel vectors.
func (v Vec3) AngleTo(w Vec3) float64 {
	return math.Atan2(v.Cross(w).Norm(), v.Dot(w))
}

func (v Vec3) String() string {
	return fmt.Sprintf("[%12.10f, %12.10f, %12.10f]", v[0], v[1], v[2])
}
