// Package xform maps pixel coordinates between source images and the
// panorama canvas, via stacks of elementary transforms.
package xform

import(
	"fmt"
	"math"

	"github.com/abworrall/panostitch/pkg/emath"
)

// A SpaceTransform is an ordered stack of steps, plus the offsets that turn
// pixel coords (origin at the top-left corner) into the centred coords the
// steps work in. Pixel (i,j) covers [i,i+1)x[j,j+1), so the centre of a WxH
// image is (W/2, H/2).
//
// Build one with an Init method, then query it as much as you like. Once
// built it is read-only, so one stack can be shared by many goroutines.
// Don't re-Init a stack that other goroutines are still using; build a new
// one and hand that over instead.
type SpaceTransform struct {
	steps  []Step
	srcTX  float64
	srcTY  float64
	destTX float64
	destTY float64
}

func (st *SpaceTransform) reset(destW, destH, srcW, srcH int) {
	st.steps = nil
	st.destTX = float64(destW) / 2.0
	st.destTY = float64(destH) / 2.0
	st.srcTX = float64(srcW) / 2.0
	st.srcTY = float64(srcH) / 2.0
}

func (st *SpaceTransform) add(f Func, p Params) {
	st.steps = append(st.steps, Step{Func: f, Params: p})
}

// IsIdentity is true if there are no steps at all. Only a hint; a stack
// with steps may still happen to be the identity.
func (st *SpaceTransform) IsIdentity() bool { return len(st.steps) == 0 }

// Steps returns a copy of the stack's steps, in execution order.
func (st *SpaceTransform) Steps() []Step {
	return append([]Step(nil), st.steps...)
}

func (st *SpaceTransform) String() string {
	str := fmt.Sprintf("SpaceTransform[dest-(%.1f,%.1f) -> src+(%.1f,%.1f)]:\n", st.destTX, st.destTY, st.srcTX, st.srcTY)
	for i, s := range st.steps {
		str += fmt.Sprintf("  %2d: %s\n", i, s)
	}
	return str
}

// Transform runs p (in centred coords) through every step. ok=false means
// the point is not covered; the returned point is then meaningless.
func (st *SpaceTransform) Transform(p emath.Point) (emath.Point, bool) {
	x, y := p.X, p.Y
	for _, s := range st.steps {
		var ok bool
		if x, y, ok = s.Apply(x, y); !ok {
			return emath.Point{X: x, Y: y}, false
		}
	}

	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return emath.Point{X: x, Y: y}, false
	}
	return emath.Point{X: x, Y: y}, true
}

// TransformImgCoord is Transform for pixel coords: the dest offsets come
// off first, and the src offsets go on at the end.
func (st *SpaceTransform) TransformImgCoord(x, y float64) (float64, float64, bool) {
	p, ok := st.Transform(emath.Point{X: x - st.destTX, Y: y - st.destTY})
	return p.X + st.srcTX, p.Y + st.srcTY, ok
}
