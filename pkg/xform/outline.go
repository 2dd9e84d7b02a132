package xform

import(
	"math"

	"github.com/abworrall/panostitch/pkg/emath"
	"github.com/abworrall/panostitch/pkg/panorama"
)

// An Outline is where the border of an image ends up, after being pushed
// through a stack.
type Outline struct {
	BoundingBox emath.Rect    // contains every covered border point
	Inside      emath.Rect    // the innermost extent of each edge
	Points      []emath.Point // covered border points, in order clockwise from top-left
	NumSamples  int
	NumCovered  int
}

// Wraps is true if the outline jumps across more than half of a canvas
// `width` pixels wide between two consecutive points; which is what
// happens when an image straddles the seam of a 360 degree panorama.
func (o Outline) Wraps(width float64) bool {
	for i := 1; i < len(o.Points); i++ {
		if math.Abs(o.Points[i].X-o.Points[i-1].X) > width/2.0 {
			return true
		}
	}
	return false
}

// cosineSpacing returns n+1 positions in [0,1], bunched up at both ends;
// corners are where lens distortion bends outlines the most.
func cosineSpacing(n int) []float64 {
	if n < 1 {
		n = 1
	}
	s := make([]float64, n+1)
	for i := range s {
		s[i] = (1.0 - math.Cos(math.Pi*float64(i)/float64(n))) / 2.0
	}
	s[0], s[n] = 0.0, 1.0
	return s
}

// TraceImageOutline walks the border of a width x height image (in the
// stack's input pixel coords), with `samples` intervals per edge, and
// records where each point lands.
func TraceImageOutline(width, height int, t *SpaceTransform, samples int) Outline {
	w, h := float64(width), float64(height)
	spacing := cosineSpacing(samples)

	o := Outline{BoundingBox: emath.EmptyRect()}
	edgeX := map[string][]float64{}
	edgeY := map[string][]float64{}

	trace := func(edge string, x, y float64) {
		o.NumSamples++
		px, py, ok := t.TransformImgCoord(x, y)
		if !ok {
			return
		}
		p := emath.Point{X: px, Y: py}
		o.NumCovered++
		o.Points = append(o.Points, p)
		o.BoundingBox = o.BoundingBox.Grow(p)
		edgeX[edge] = append(edgeX[edge], px)
		edgeY[edge] = append(edgeY[edge], py)
	}

	for _, s := range spacing {
		trace("top", s*w, 0)
	}
	for _, s := range spacing {
		trace("right", w, s*h)
	}
	for _, s := range spacing {
		trace("bottom", (1-s)*w, h)
	}
	for _, s := range spacing {
		trace("left", 0, (1-s)*h)
	}

	bb := o.BoundingBox
	o.Inside = emath.Rect{
		Min: emath.Point{X: extreme(edgeX["left"], bb.Min.X, math.Max), Y: extreme(edgeY["top"], bb.Min.Y, math.Max)},
		Max: emath.Point{X: extreme(edgeX["right"], bb.Max.X, math.Min), Y: extreme(edgeY["bottom"], bb.Max.Y, math.Min)},
	}

	return o
}

func extreme(vals []float64, fallback float64, pick func(a, b float64) float64) float64 {
	if len(vals) == 0 {
		return fallback
	}
	v := vals[0]
	for _, f := range vals[1:] {
		v = pick(v, f)
	}
	return v
}

// EstRadialScaleCrop sweeps the radial polynomial (a,b,c,d) across the
// radii that the border of a width x height image covers (from the
// midpoint of the long sides out to the corners), and returns the smallest
// ratio of distorted to undistorted radius. The sweep stops at the
// correction radius, since the mapping isn't usable beyond it.
func EstRadialScaleCrop(coeffs [4]float64, width, height int) float64 {
	w, h := float64(width), float64(height)
	halfShort := math.Min(w, h) / 2.0
	if halfShort <= 0 {
		return 1.0
	}
	corner := math.Hypot(w, h) / 2.0 / halfShort

	limit := CorrectionRadius(coeffs[0], coeffs[1], coeffs[2], coeffs[3])
	rMin := math.Min(1.0, limit)
	rMax := math.Min(corner, limit)

	const steps = 100
	scale := math.Inf(1)
	for i := 0; i <= steps; i++ {
		r := rMin + (rMax-rMin)*float64(i)/steps
		scale = math.Min(scale, ((coeffs[0]*r+coeffs[1])*r+coeffs[2])*r+coeffs[3])
	}
	return scale
}

// EstScaleFactorForFullFrame works out how much the lens-corrected image
// has to be scaled so that it still fills the original frame. It traces
// the frame through the inverse lens correction and compares the covered
// rectangle with the frame, edge by edge, relative to the centre. Less
// than 1 means the corrected image has pulled in from the frame edges.
func EstScaleFactorForFullFrame(src panorama.SrcImage) (float64, error) {
	st := &SpaceTransform{}
	if err := st.InitInvRadialCorrect(src, Green); err != nil {
		return 0, err
	}
	if st.IsIdentity() {
		return 1.0, nil
	}

	o := TraceImageOutline(src.Width, src.Height, st, DefaultSamples)
	if o.NumCovered == 0 {
		return 0, nil
	}

	cx, cy := float64(src.Width)/2.0, float64(src.Height)/2.0
	in := o.Inside
	return math.Min(
		math.Min((cx-in.Min.X)/cx, (in.Max.X-cx)/cx),
		math.Min((cy-in.Min.Y)/cy, (in.Max.Y-cy)/cy),
	), nil
}

// DefaultSamples is the samples-per-edge used when the caller has no opinion.
const DefaultSamples = panorama.DefaultOutlineSamples

// EstimatePanoramaBounds traces every image onto the canvas and returns
// the part of the canvas covered by at least one bounding box. An image
// that wraps around the seam covers the full width; if it wraps because it
// contains a pole, it also covers the canvas up to that edge.
func EstimatePanoramaBounds(images []panorama.SrcImage, opts panorama.Options, samples int) (emath.Rect, error) {
	bounds := emath.EmptyRect()
	for _, src := range images {
		st, err := CreateInvTransform(src, opts)
		if err != nil {
			return bounds, err
		}
		o := TraceImageOutline(src.Width, src.Height, st, samples)
		bb := o.BoundingBox
		if !bb.Empty() && o.Wraps(float64(opts.Width)) {
			bb.Min.X, bb.Max.X = 0, float64(opts.Width)

			fwd, err := CreateTransform(src, opts)
			if err != nil {
				return bounds, err
			}
			if landsOnImage(fwd, src, float64(opts.Width)/2.0, 0) {
				bb.Min.Y = 0
			}
			if landsOnImage(fwd, src, float64(opts.Width)/2.0, float64(opts.Height)) {
				bb.Max.Y = float64(opts.Height)
			}
		}
		bounds = bounds.Union(bb)
	}
	if bounds.Empty() {
		return bounds, nil
	}

	canvas := emath.Rect{Max: emath.Point{X: float64(opts.Width), Y: float64(opts.Height)}}
	return bounds.Intersect(canvas), nil
}

// landsOnImage is true if canvas point (x,y) maps to a pixel of src.
func landsOnImage(fwd *SpaceTransform, src panorama.SrcImage, x, y float64) bool {
	sx, sy, ok := fwd.TransformImgCoord(x, y)
	return ok && sx >= 0 && sy >= 0 && sx <= float64(src.Width) && sy <= float64(src.Height)
}
