package emath

import(
	"math"
	"testing"

	"go.viam.com/test"
)

func TestSetRotationPTZeroIsIdentity(t *testing.T) {
	var m Mat3
	m.SetRotationPT(0, 0, 0)
	test.That(t, m.ApproxEqual(Identity(), 1e-15), test.ShouldBeTrue)
}

func TestRotationPTRoundTrip(t *testing.T) {
	for yaw := -170.0; yaw <= 170.0; yaw += 17.0 {
		for pitch := -170.0; pitch <= 170.0; pitch += 17.0 {
			for roll := -170.0; roll <= 170.0; roll += 17.0 {
				var m Mat3
				m.SetRotationPT(DegToRad(yaw), DegToRad(pitch), DegToRad(roll))
				test.That(t, m.Det(), test.ShouldAlmostEqual, 1.0, 1e-9)

				y, p, r := m.GetRotationPT()

				// Beyond +/-90 of pitch the same matrix has a second set of
				// angles; the matrix is what must survive.
				var m2 Mat3
				m2.SetRotationPT(y, p, r)
				test.That(t, m2.ApproxEqual(m, 1e-9), test.ShouldBeTrue)

				if math.Abs(pitch) < 90 {
					test.That(t, RadToDeg(y), test.ShouldAlmostEqual, yaw, 1e-7)
					test.That(t, RadToDeg(p), test.ShouldAlmostEqual, pitch, 1e-7)
					test.That(t, RadToDeg(r), test.ShouldAlmostEqual, roll, 1e-7)
				}
			}
		}
	}
}

func TestRotationPTAxes(t *testing.T) {
	// PT frame: x forward, y left, z up. Positive yaw looks right, so the
	// forward axis swings towards -y.
	var m Mat3
	m.SetRotationPT(math.Pi/2, 0, 0)
	v := m.Apply(Vec3{1, 0, 0})
	test.That(t, v.X(), test.ShouldAlmostEqual, 0, 1e-12)
	test.That(t, v.Y(), test.ShouldAlmostEqual, -1, 1e-12)
	test.That(t, v.Z(), test.ShouldAlmostEqual, 0, 1e-12)

	// Positive pitch looks up.
	m.SetRotationPT(0, math.Pi/2, 0)
	v = m.Apply(Vec3{1, 0, 0})
	test.That(t, v.Z(), test.ShouldAlmostEqual, 1, 1e-12)
}

func TestSetRotationOrthonormal(t *testing.T) {
	var m Mat3
	m.SetRotation(0.3, -0.7, 1.1)
	test.That(t, m.Mult(m.Transpose()).ApproxEqual(Identity(), 1e-12), test.ShouldBeTrue)
	test.That(t, m.Det(), test.ShouldAlmostEqual, 1.0, 1e-12)

	// The two conventions are different rotations for the same angles.
	var pt Mat3
	pt.SetRotationPT(0.3, -0.7, 1.1)
	test.That(t, pt.ApproxEqual(m, 1e-3), test.ShouldBeFalse)
}

func TestMultOrderMatters(t *testing.T) {
	var a, b Mat3
	a.SetRotationPT(0.5, 0, 0)
	b.SetRotationPT(0, 0.5, 0)
	test.That(t, a.Mult(b).ApproxEqual(b.Mult(a), 1e-6), test.ShouldBeFalse)
	test.That(t, a.Mult(Identity()).ApproxEqual(a, 1e-15), test.ShouldBeTrue)
}

func TestInverse(t *testing.T) {
	var m Mat3
	m.SetRotationPT(0.2, 0.4, -0.6)
	inv, ok := m.InverseOK()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, inv.ApproxEqual(m.Transpose(), 1e-12), test.ShouldBeTrue)
	test.That(t, m.Mult(inv).ApproxEqual(Identity(), 1e-12), test.ShouldBeTrue)

	s := Mat3{2, 0, 0, 0, 4, 0, 1, 0, 0.5}
	test.That(t, s.Mult(s.Inverse()).ApproxEqual(Identity(), 1e-12), test.ShouldBeTrue)
}

func TestInverseSingular(t *testing.T) {
	tests := []struct {
		name string
		m    Mat3
	}{
		{"zeros", Mat3{}},
		{"identical rows", Mat3{1, 2, 3, 1, 2, 3, 4, 5, 6}},
		{"zero column", Mat3{1, 0, 3, 4, 0, 6, 7, 0, 9}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			inv, ok := tc.m.InverseOK()
			test.That(t, ok, test.ShouldBeFalse)
			test.That(t, inv, test.ShouldResemble, Identity())
			test.That(t, tc.m.Inverse(), test.ShouldResemble, Identity())
		})
	}
}

func TestVec3(t *testing.T) {
	v := Vec3{3, 4, 0}
	test.That(t, v.Norm(), test.ShouldEqual, 5.0)
	test.That(t, v.Normalize().Norm(), test.ShouldAlmostEqual, 1.0, 1e-15)
	test.That(t, Vec3{}.Normalize(), test.ShouldResemble, Vec3{})

	x, y := Vec3{1, 0, 0}, Vec3{0, 1, 0}
	test.That(t, x.Cross(y), test.ShouldResemble, Vec3{0, 0, 1})
	test.That(t, x.AngleTo(y), test.ShouldAlmostEqual, math.Pi/2, 1e-15)
	test.That(t, x.Add(y).Sub(y), test.ShouldResemble, x)
}
