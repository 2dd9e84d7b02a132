package emath

import(
	"math"
	"sort"
)

// Closed form real roots for polynomials up to degree three. Lens
// correction uses these to find where a radial distortion polynomial
// stops being monotonic.

// Roots returns the real roots of the polynomial whose coefficients are
// given lowest degree first, i.e. coeffs[0] + coeffs[1]*x + coeffs[2]*x^2 +
// coeffs[3]*x^3. Missing coefficients are zero; anything past the cubic term
// is ignored. The roots come back in ascending order, and there may be none.
//
// A zero leading coefficient drops down to the next degree, so a "cubic"
// with a3 == 0 is solved as a quadratic, and so on. A cubic term that is
// negligible next to the others counts as zero too; its root is out past
// 1e12 times the others. The zero polynomial reports the single root 0.
func Roots(coeffs []float64) []float64 {
	var a [4]float64
	copy(a[:], coeffs)
	lower := math.Max(math.Abs(a[0]), math.Max(math.Abs(a[1]), math.Abs(a[2])))

	var roots []float64
	switch {
	case a[3] == 0:
		roots = squareRoots(a[0], a[1], a[2])

	case math.Abs(a[3]) <= negligibleCubic*lower:
		roots = polishRoots(a, squareRoots(a[0], a[1], a[2]))

	default:
		roots = cubeRoots(a[0], a[1], a[2], a[3])
		if math.Abs(a[3]) < smallCubic*lower {
			// Cardano's big shift eats the small roots; the quadratic part
			// puts them back within reach of Newton
			roots = append(roots, squareRoots(a[0], a[1], a[2])...)
		}
		roots = polishRoots(a, roots)
	}

	sort.Float64s(roots)
	return roots
}

const(
	negligibleCubic = 1e-12
	smallCubic      = 1e-4
	rootTolerance   = 1e-9 // residual, relative to the size of the terms
)

// polishRoots runs Newton's method on each candidate against the full
// cubic, then drops anything that isn't finite, isn't really a root, or
// duplicates one already found.
func polishRoots(a [4]float64, candidates []float64) []float64 {
	roots := []float64{}
	for _, r := range candidates {
		r = newtonRoot(a, r)
		if math.IsNaN(r) || math.IsInf(r, 0) || !isRoot(a, r) {
			continue
		}

		dup := false
		for _, q := range roots {
			if math.Abs(q-r) <= rootTolerance*math.Max(1, math.Abs(r)) {
				dup = true
				break
			}
		}
		if !dup {
			roots = append(roots, r)
		}
	}
	return roots
}

// newtonRoot refines r, halving any step that makes things worse.
func newtonRoot(a [4]float64, r float64) float64 {
	f := EvalPoly(a[:], r)
	for i := 0; i < 50 && f != 0; i++ {
		df := (3*a[3]*r+2*a[2])*r + a[1]
		if df == 0 {
			break
		}
		step := f / df
		next, fNext := r, f
		for j := 0; j < 30; j++ {
			next = r - step
			fNext = EvalPoly(a[:], next)
			if math.Abs(fNext) < math.Abs(f) {
				break
			}
			step /= 2
		}
		if math.Abs(fNext) >= math.Abs(f) {
			break
		}
		r, f = next, fNext
	}
	return r
}

func isRoot(a [4]float64, r float64) bool {
	scale := math.Abs(a[0]) + math.Abs(a[1]*r) + math.Abs(a[2]*r*r) + math.Abs(a[3]*r*r*r)
	return math.Abs(EvalPoly(a[:], r)) <= rootTolerance*scale
}

// SmallestPositiveRoot returns the smallest strictly positive real root, if
// there is one.
func SmallestPositiveRoot(coeffs []float64) (float64, bool) {
	found := false
	smallest := math.MaxFloat64
	for _, r := range Roots(coeffs) {
		if r > 0 && r < smallest {
			smallest = r
			found = true
		}
	}
	return smallest, found
}

// Cardano, with a3 != 0. When q^2 + p^3 >= 0 there is one real root (a
// repeated root collapses into it); otherwise there are three, found with
// the trigonometric form.
func cubeRoots(a0, a1, a2, a3 float64) []float64 {
	b2 := a2 / a3
	b1 := a1 / a3
	b0 := a0 / a3

	p := ((-1.0/3.0)*b2*b2 + b1) / 3.0
	q := ((2.0/27.0)*b2*b2*b2 - (1.0/3.0)*b2*b1 + b0) / 2.0
	shift := b2 / 3.0

	if disc := q*q + p*p*p; disc >= 0 {
		s := math.Sqrt(disc)
		return []float64{math.Cbrt(-q+s) + math.Cbrt(-q-s) - shift}
	}

	// p < 0 here, else the discriminant could not be negative
	phi := math.Acos(ClampUnit(-q / math.Sqrt(-p*p*p)))
	m := 2.0 * math.Sqrt(-p)
	return []float64{
		m*math.Cos(phi/3.0) - shift,
		-m*math.Cos(phi/3.0+math.Pi/3.0) - shift,
		-m*math.Cos(phi/3.0-math.Pi/3.0) - shift,
	}
}

func squareRoots(a0, a1, a2 float64) []float64 {
	if a2 == 0 {
		return linearRoots(a0, a1)
	}

	disc := a1*a1 - 4.0*a2*a0
	if disc < 0 {
		return nil
	}
	s := math.Sqrt(disc)
	return []float64{
		(-a1 + s) / (2.0 * a2),
		(-a1 - s) / (2.0 * a2),
	}
}

func linearRoots(a0, a1 float64) []float64 {
	switch {
	case a1 != 0:
		return []float64{-a0 / a1}
	case a0 == 0:
		return []float64{0}
	default:
		return nil
	}
}

// EvalPoly evaluates the polynomial (lowest degree first) at x, by Horner's rule.
func EvalPoly(coeffs []float64, x float64) float64 {
	v := 0.0
	for i := len(coeffs) - 1; i >= 0; i-- {
		v = v*x + coeffs[i]
	}
	return v
}
