package emath

import(
	"math"
	"testing"

	"go.viam.com/test"
)

// expand returns the ascending coefficients of k*(x-r1)(x-r2)...
func expand(k float64, roots ...float64) []float64 {
	coeffs := []float64{k}
	for _, r := range roots {
		next := make([]float64, len(coeffs)+1)
		for i, c := range coeffs {
			next[i+1] += c
			next[i] -= r * c
		}
		coeffs = next
	}
	return coeffs
}

func TestRoots(t *testing.T) {
	tests := []struct {
		name   string
		coeffs []float64
		want   []float64
	}{
		{"cubic three roots", expand(1, 1, 2, 3), []float64{1, 2, 3}},
		{"cubic three roots scaled", expand(-2.5, -0.5, 0.25, 4), []float64{-0.5, 0.25, 4}},
		{"cubic one real root", []float64{-2, 1, -2, 1}, []float64{2}}, // (x-2)(x^2+1)
		{"quadratic two roots", expand(3, -1, 5), []float64{-1, 5}},
		{"quadratic no roots", []float64{1, 0, 1}, nil},
		{"cubic with zero leading term", []float64{-6, 1, 1, 0}, []float64{-3, 2}},
		{"linear", []float64{-3, 2}, []float64{1.5}},
		{"non-zero constant", []float64{7}, nil},
		{"zero polynomial", []float64{0, 0, 0, 0}, []float64{0}},
		{"empty", nil, []float64{0}},
		{"tiny but well scaled cubic", expand(1e-15, 1, 2, 3), []float64{1, 2, 3}},
		{"negligible cubic term", []float64{2, -3, 1, 1e-15}, []float64{1, 2}},
		{"vanishing cubic term", []float64{-1, 0, 1, 1e-200}, []float64{-1, 1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Roots(tc.coeffs)
			test.That(t, got, test.ShouldHaveLength, len(tc.want))
			for i := range tc.want {
				test.That(t, got[i], test.ShouldAlmostEqual, tc.want[i], 1e-9)
			}
		})
	}
}

func TestSmallestPositiveRoot(t *testing.T) {
	r, ok := SmallestPositiveRoot(expand(1, -4, 0.75, 2))
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, r, test.ShouldAlmostEqual, 0.75, 1e-9)

	_, ok = SmallestPositiveRoot(expand(1, -4, -1, -2))
	test.That(t, ok, test.ShouldBeFalse)

	_, ok = SmallestPositiveRoot([]float64{1})
	test.That(t, ok, test.ShouldBeFalse)

	// Zero is not positive.
	_, ok = SmallestPositiveRoot([]float64{0, 1})
	test.That(t, ok, test.ShouldBeFalse)
}

// A cubic whose leading term is small, but not negligible, has two roots
// near the quadratic's and one far away.
func TestRootsNearlyQuadratic(t *testing.T) {
	for _, a3 := range []float64{1e-5, 1e-9, 1e-11} {
		got := Roots([]float64{2, -3, 1, a3})
		test.That(t, got, test.ShouldHaveLength, 3)
		for _, r := range got {
			test.That(t, EvalPoly([]float64{2, -3, 1, a3}, r), test.ShouldAlmostEqual, 0, 1e-6*math.Max(1, r*r))
		}
		test.That(t, got[0], test.ShouldBeLessThan, -1e4)
		test.That(t, got[1], test.ShouldAlmostEqual, 1, 1e-4)
		test.That(t, got[2], test.ShouldAlmostEqual, 2, 1e-4)
	}

	// The derivative of a barely-cubic lens polynomial
	want := math.Sqrt(7)
	for _, a := range []float64{1e-8, 1e-10, 1e-14, 1e-100, 0} {
		r, ok := SmallestPositiveRoot([]float64{1.05 - a, 0, -0.15, 4 * a})
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, r, test.ShouldAlmostEqual, want, 1e-5)
	}

	for _, c := range [][]float64{{-1, 0, 1, 1e-200}, {1, 2, -3, 1e-300}, {5, 1e-3, -7, 1e-20}} {
		for _, r := range Roots(c) {
			test.That(t, math.IsNaN(r) || math.IsInf(r, 0), test.ShouldBeFalse)
		}
	}
}

func TestEvalPoly(t *testing.T) {
	c := expand(2, 1, -3)
	test.That(t, EvalPoly(c, 1), test.ShouldEqual, 0.0)
	test.That(t, EvalPoly(c, 0), test.ShouldEqual, -6.0)
	test.That(t, EvalPoly(nil, 5), test.ShouldEqual, 0.0)
}
