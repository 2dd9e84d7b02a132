package emath

// 3x3 matrices, used for rotating directions on the viewing sphere.

import (
	"fmt"
	"math"

	"golang.org/x/image/math/f64" // Will be "image/math/f64" at some point
	"gonum.org/v1/gonum/mat"
)

// A Mat3 is stored row major: m[3*row + col]
type Mat3 f64.Mat3

func Identity() Mat3 {
	return Mat3{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

func (m Mat3) At(row, col int) float64 { return m[3*row+col] }

// Mult returns a*b. Remember they compose back to front - the rightmost
// matrix is applied to a vector first.
func (a Mat3) Mult(b Mat3) Mat3 {
	return Mat3{
		a[3*0+0]*b[3*0+0] + a[3*0+1]*b[3*1+0] + a[3*0+2]*b[3*2+0],
		a[3*0+0]*b[3*0+1] + a[3*0+1]*b[3*1+1] + a[3*0+2]*b[3*2+1],
		a[3*0+0]*b[3*0+2] + a[3*0+1]*b[3*1+2] + a[3*0+2]*b[3*2+2],

		a[3*1+0]*b[3*0+0] + a[3*1+1]*b[3*1+0] + a[3*1+2]*b[3*2+0],
		a[3*1+0]*b[3*0+1] + a[3*1+1]*b[3*1+1] + a[3*1+2]*b[3*2+1],
		a[3*1+0]*b[3*0+2] + a[3*1+1]*b[3*1+2] + a[3*1+2]*b[3*2+2],

		a[3*2+0]*b[3*0+0] + a[3*2+1]*b[3*1+0] + a[3*2+2]*b[3*2+0],
		a[3*2+0]*b[3*0+1] + a[3*2+1]*b[3*1+1] + a[3*2+2]*b[3*2+1],
		a[3*2+0]*b[3*0+2] + a[3*2+1]*b[3*1+2] + a[3*2+2]*b[3*2+2],
	}
}

func (m Mat3) Apply(v Vec3) Vec3 {
	return Vec3{
		(m[3*0+0]*v[0] + m[3*0+1]*v[1] + m[3*0+2]*v[2]),
		(m[3*1+0]*v[0] + m[3*1+1]*v[1] + m[3*1+2]*v[2]),
		(m[3*2+0]*v[0] + m[3*2+1]*v[1] + m[3*2+2]*v[2]),
	}
}

func (m Mat3) Transpose() Mat3 {
	return Mat3{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

func (m Mat3) dense() *mat.Dense {
	return mat.NewDense(3, 3, []float64{m[0], m[1], m[2], m[3], m[4], m[5], m[6], m[7], m[8]})
}

func (m Mat3) Det() float64 { return mat.Det(m.dense()) }

// InverseOK returns the inverse of m. If m is singular (or too close to
// singular for the inverse to mean anything), it returns Identity and false.
func (m Mat3) InverseOK() (Mat3, bool) {
	a := m.dense()
	if math.Abs(mat.Det(a)) < Epsilon {
		return Identity(), false
	}

	var inv mat.Dense
	if err := inv.Inverse(a); err != nil {
		return Identity(), false
	}

	ret := Mat3{}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			ret[3*r+c] = inv.At(r, c)
		}
	}
	return ret, true
}

// Inverse is InverseOK, with singular matrices silently mapping to Identity.
// Callers that need to know about the fallback should use InverseOK.
func (m Mat3) Inverse() Mat3 {
	inv, _ := m.InverseOK()
	return inv
}

func (a Mat3) ApproxEqual(b Mat3, eps float64) bool {
	for i := 0; i < 9; i++ {
		if math.Abs(a[i]-b[i]) > eps {
			return false
		}
	}
	return true
}

// SetRotation uses the "standard" yaw/pitch/roll convention: the aerospace
// z-y-x sequence, written out as a direction cosine matrix. Angles are in
// radians.
func (m *Mat3) SetRotation(yaw, pitch, roll float64) {
	cy, sy := math.Cos(yaw), math.Sin(yaw)
	cp, sp := math.Cos(pitch), math.Sin(pitch)
	cr, sr := math.Cos(roll), math.Sin(roll)

	*m = Mat3{
		cp * cy, cp * sy, -sp,
		sr*sp*cy - cr*sy, sr*sp*sy + cr*cy, sr * cp,
		cr*sp*cy + sr*sy, cr*sp*sy - sr*cy, cr * cp,
	}
}

// SetRotationPT uses the pano-tools convention, where x points forward, y
// left and z up. Yaw and pitch are negated relative to the usual right hand
// rule, so that positive yaw turns right and positive pitch looks up. This is
// the convention project files store their angles in; don't mix it up with
// SetRotation. Angles are in radians.
func (m *Mat3) SetRotationPT(yaw, pitch, roll float64) {
	cosr, sinr := math.Cos(roll), math.Sin(roll)
	cosp, sinp := math.Cos(pitch), math.Sin(-pitch)
	cosy, siny := math.Cos(yaw), math.Sin(-yaw)

	rollm := Mat3{
		1, 0, 0,
		0, cosr, -sinr,
		0, sinr, cosr,
	}
	pitchm := Mat3{
		cosp, 0, sinp,
		0, 1, 0,
		-sinp, 0, cosp,
	}
	yawm := Mat3{
		cosy, -siny, 0,
		siny, cosy, 0,
		0, 0, 1,
	}

	*m = yawm.Mult(pitchm).Mult(rollm)
}

// GetRotationPT recovers the angles that SetRotationPT was called
// with. Only meaningful for proper rotations; pitch comes back in [-pi/2, pi/2].
func (m Mat3) GetRotationPT() (yaw, pitch, roll float64) {
	yaw = -math.Atan2(m[3*1+0], m[3*0+0])
	pitch = math.Atan2(m[3*2+0], math.Hypot(m[3*0+0], m[3*1+0]))
	roll = math.Atan2(m[3*2+1], m[3*2+2])
	return
}

func (m Mat3) String() string {
	str := fmt.Sprintf("[%10f, %10f, %10f]\n", m[3*0+0], m[3*0+1], m[3*0+2])
	str += fmt.Sprintf("[%10f, %10f, %10f]\n", m[3*1+0], m[3*1+1], m[3*1+2])
	str += fmt.Sprintf("[%10f, %10f, %10f]\n", m[3*2+0], m[3*2+1], m[3*2+2])
	return str
}
