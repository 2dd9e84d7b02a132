package xform

import(
	"fmt"
	"math"

	"github.com/abworrall/panostitch/pkg/emath"
	"github.com/abworrall/panostitch/pkg/panorama"
)

// A Func is one kind of elementary coordinate transform. The set is closed;
// Step.Apply has a case for each.
type Func int

const(
	Resize      Func = iota // x*Var[0], y*Var[1]
	Shift                   // x+Var[0], y+Var[1]
	Shear                   // x+Var[0]*y, y+Var[1]*x
	InvShear                // undoes Shear with the same Vars
	RotateErect             // x+Var[0], wrapped into [-Var[1], Var[1]]
	Radial                  // radial polynomial (a,b,c,d) = Var[0:4], norm radius Var[4], limit Var[5]
	InvRadial               // undoes Radial with the same Vars
	ToSphere                // plane of Proj (at Distance) -> sphere
	FromSphere              // sphere -> plane of Proj (at Distance)
	PerspSphere             // sphere -> Matrix -> sphere
	CircleCrop              // rejects points outside the circle at (Var[0],Var[1]), radius Var[2]
)

var funcNames = []string{
	"resize", "shift", "shear", "inv-shear", "rotate-erect", "radial", "inv-radial",
	"to-sphere", "from-sphere", "persp-sphere", "circle-crop",
}

func (f Func) String() string {
	if f < 0 || int(f) >= len(funcNames) {
		return fmt.Sprintf("func(%d)", int(f))
	}
	return funcNames[f]
}

const(
	invRadialTolerance = 1e-10 // in normalized radius units
	invRadialMaxIter   = 100
)

// Params is the parameter block bound into a step. Which fields mean
// anything depends on the Func.
type Params struct {
	Var      [8]float64
	Distance float64             // sphere radius, in pixels, for the sphere funcs
	Proj     panorama.Projection // for ToSphere and FromSphere; Var[0] is the Panini distance
	Matrix   emath.Mat3          // for PerspSphere
}

// A Step is a Func with its parameters. Steps are values; once built into a
// stack they are never modified.
type Step struct {
	Func
	Params
}

func (s Step) String() string {
	switch s.Func {
	case ToSphere, FromSphere:
		return fmt.Sprintf("%s(%s, D=%.3f)", s.Func, s.Proj, s.Distance)
	case PerspSphere:
		y, p, r := s.Matrix.GetRotationPT()
		return fmt.Sprintf("%s(D=%.3f, ypr~%.3f,%.3f,%.3f)", s.Func, s.Distance,
			emath.RadToDeg(y), emath.RadToDeg(p), emath.RadToDeg(r))
	case Radial, InvRadial:
		return fmt.Sprintf("%s(abcd=%g,%g,%g,%g norm=%.1f limit=%.3f)", s.Func,
			s.Var[0], s.Var[1], s.Var[2], s.Var[3], s.Var[4], s.Var[5])
	case CircleCrop:
		return fmt.Sprintf("%s(%.1f,%.1f r=%.1f)", s.Func, s.Var[0], s.Var[1], s.Var[2])
	default:
		return fmt.Sprintf("%s(%g,%g)", s.Func, s.Var[0], s.Var[1])
	}
}

// Apply runs the step on a single point. ok=false means the point has no
// image under this step (outside the projection's domain, beyond where the
// lens polynomial is monotonic, outside a fisheye's image circle).
func (s Step) Apply(x, y float64) (float64, float64, bool) {
	v := &s.Var

	switch s.Func {
	case Resize:
		return x * v[0], y * v[1], true

	case Shift:
		return x + v[0], y + v[1], true

	case Shear:
		return x + v[0]*y, y + v[1]*x, true

	case InvShear:
		det := 1.0 - v[0]*v[1]
		if math.Abs(det) < eps {
			return x, y, false
		}
		return (x - v[0]*y) / det, (y - v[1]*x) / det, true

	case RotateErect:
		x += v[0]
		if halfTurn := v[1]; x < -halfTurn || x > halfTurn {
			x = math.Mod(x+halfTurn, 2*halfTurn)
			if x < 0 {
				x += 2 * halfTurn
			}
			x -= halfTurn
		}
		return x, y, true

	case Radial:
		r := math.Hypot(x, y) / v[4]
		if r > v[5] {
			return x, y, false
		}
		scale := radialPoly(v, r)
		return x * scale, y * scale, true

	case InvRadial:
		rd := math.Hypot(x, y) / v[4]
		if rd == 0 {
			return x, y, true
		}
		r, ok := invRadius(v, rd)
		if !ok || r > v[5] {
			return x, y, false
		}
		scale := r / rd
		return x * scale, y * scale, true

	case ToSphere:
		vec, ok := planeToVec(s.Proj, v[0], x/s.Distance, y/s.Distance)
		if !ok {
			return x, y, false
		}
		sx, sy := vecToSphereTP(vec, s.Distance)
		return sx, sy, true

	case FromSphere:
		px, py, ok := vecToPlane(s.Proj, v[0], sphereTPToVec(x, y, s.Distance))
		return px * s.Distance, py * s.Distance, ok

	case PerspSphere:
		vec := s.Matrix.Apply(sphereTPToVec(x, y, s.Distance))
		sx, sy := vecToSphereTP(vec, s.Distance)
		return sx, sy, true

	case CircleCrop:
		dx, dy := x-v[0], y-v[1]
		return x, y, dx*dx+dy*dy <= v[2]*v[2]
	}

	return x, y, false
}

// radialPoly is the scale factor ((a*r + b)*r + c)*r + d.
func radialPoly(v *[8]float64, r float64) float64 {
	return ((v[0]*r+v[1])*r+v[2])*r + v[3]
}

// invRadius finds r such that r*radialPoly(r) == rd, by Newton's method.
func invRadius(v *[8]float64, rd float64) (float64, bool) {
	r := rd
	for i := 0; i < invRadialMaxIter; i++ {
		f := r*radialPoly(v, r) - rd
		if math.Abs(f) < invRadialTolerance {
			return r, true
		}
		df := ((4*v[0]*r+3*v[1])*r+2*v[2])*r + v[3]
		if math.Abs(df) < eps {
			return r, false
		}
		r -= f / df
	}
	return r, false
}

// The common currency between projections is "sphere_tp": an equidistant
// fisheye looking down the optical axis, scaled by distance d. Any
// direction maps to it, so every pair of projections can meet there.

func vecToSphereTP(v emath.Vec3, d float64) (float64, float64) {
	rho := math.Hypot(v[0], v[1])
	if rho < eps {
		if v[2] >= 0 {
			return 0, 0
		}
		return d * math.Pi, 0
	}
	theta := math.Atan2(rho, v[2])
	return d * theta * v[0] / rho, d * theta * v[1] / rho
}

func sphereTPToVec(x, y, d float64) emath.Vec3 {
	r := math.Hypot(x, y)
	if r < eps {
		return emath.Vec3{0, 0, 1}
	}
	theta := r / d
	s := math.Sin(theta) / r
	return emath.Vec3{s * x, s * y, math.Cos(theta)}
}
