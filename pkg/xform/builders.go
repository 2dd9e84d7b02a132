package xform

import(
	"math"

	"github.com/pkg/errors"

	"github.com/abworrall/panostitch/pkg/emath"
	"github.com/abworrall/panostitch/pkg/panorama"
)

var(
	ErrInvalidProjection = panorama.ErrInvalidProjection
	ErrInvalidFOV        = panorama.ErrInvalidFOV
)

// A Channel picks which set of radial coefficients to use. Green is the
// reference; red and blue add their own (TCA) terms on top.
type Channel int

const(
	Red Channel = iota
	Green
	Blue
)

var Channels = []Channel{Red, Green, Blue}

func (ch Channel) String() string {
	switch ch {
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	}
	return "channel?"
}

// If a radial polynomial never stops being monotonic, its correction
// radius is this (normalized) sentinel; far beyond any real image corner.
const NoCorrectionLimit = 1000.0

// CorrectionRadius returns the normalized radius at which the radial
// mapping r*(a*r^3 + b*r^2 + c*r + d) stops increasing, i.e. the smallest
// positive root of its derivative. Beyond it, the mapping folds back on
// itself and can't be inverted.
func CorrectionRadius(a, b, c, d float64) float64 {
	if r, ok := CorrectionRadiusOK(a, b, c, d); ok {
		return r
	}
	return NoCorrectionLimit
}

// CorrectionRadiusOK is CorrectionRadius, but says whether there was a limit.
func CorrectionRadiusOK(a, b, c, d float64) (float64, bool) {
	return emath.SmallestPositiveRoot([]float64{d, 2 * c, 3 * b, 4 * a})
}

// normRadius is what radial distortion normalizes by: half the shorter side.
func normRadius(src panorama.SrcImage) float64 {
	return math.Min(float64(src.Width), float64(src.Height)) / 2.0
}

// channelCoeffs returns the extra (a,b,c,d) for red or blue, if there are any.
func channelCoeffs(src panorama.SrcImage, ch Channel) ([4]float64, bool) {
	var abc [3]float64
	switch ch {
	case Red:
		abc = src.RadialRed
	case Blue:
		abc = src.RadialBlue
	default:
		return [4]float64{}, false
	}
	if abc == [3]float64{} {
		return [4]float64{}, false
	}
	return [4]float64{abc[0], abc[1], abc[2], 1.0 - abc[0] - abc[1] - abc[2]}, true
}

func (st *SpaceTransform) addRadial(f Func, abcd [4]float64, norm float64) {
	p := Params{}
	copy(p.Var[:4], abcd[:])
	p.Var[4] = norm
	p.Var[5] = CorrectionRadius(abcd[0], abcd[1], abcd[2], abcd[3])
	st.add(f, p)
}

// addLens appends the lens steps that go from ideal coords (centred on the
// optical axis) to the raw, distorted, source image coords.
func (st *SpaceTransform) addLens(src panorama.SrcImage, ch Channel) {
	norm := normRadius(src)
	if src.A != 0 || src.B != 0 || src.C != 0 {
		st.addRadial(Radial, src.RadialCoeffs(), norm)
	}
	if abcd, ok := channelCoeffs(src, ch); ok {
		st.addRadial(Radial, abcd, norm)
	}
	if src.ShiftX != 0 || src.ShiftY != 0 {
		st.add(Shift, Params{Var: [8]float64{src.ShiftX, src.ShiftY}})
	}
	if src.ShearX != 0 || src.ShearY != 0 {
		st.add(Shear, Params{Var: [8]float64{src.ShearX, src.ShearY}})
	}
	if src.Projection == panorama.CircularFisheye {
		cx, cy, r := src.CropCircle()
		st.add(CircleCrop, Params{Var: [8]float64{cx, cy, r}})
	}
}

// addInvLens is addLens backwards.
func (st *SpaceTransform) addInvLens(src panorama.SrcImage, ch Channel) {
	norm := normRadius(src)
	if src.Projection == panorama.CircularFisheye {
		cx, cy, r := src.CropCircle()
		st.add(CircleCrop, Params{Var: [8]float64{cx, cy, r}})
	}
	if src.ShearX != 0 || src.ShearY != 0 {
		st.add(InvShear, Params{Var: [8]float64{src.ShearX, src.ShearY}})
	}
	if src.ShiftX != 0 || src.ShiftY != 0 {
		st.add(Shift, Params{Var: [8]float64{-src.ShiftX, -src.ShiftY}})
	}
	if abcd, ok := channelCoeffs(src, ch); ok {
		st.addRadial(InvRadial, abcd, norm)
	}
	if src.A != 0 || src.B != 0 || src.C != 0 {
		st.addRadial(InvRadial, src.RadialCoeffs(), norm)
	}
}

// ptToCamera takes the pano-tools frame (x forward, y left, z up) to the
// camera frame (x right, y down, z forward): v_pt = ptToCamera * v_cam
var ptToCamera = emath.Mat3{
	0, 0, 1,
	-1, 0, 0,
	0, -1, 0,
}

// orientation splits an image's yaw/pitch/roll into the parts the stack
// will apply. For erect-like panoramas yaw is just a horizontal shift, so
// it is pulled out of the matrix.
type orientation struct {
	yaw      float64    // radians, to apply with RotateErect; 0 if folded into matrix
	matrix   emath.Mat3 // image camera frame -> panorama camera frame
	identity bool       // matrix is the identity
}

func newOrientation(src panorama.SrcImage, dest panorama.Projection) orientation {
	yaw := emath.DegToRad(src.Yaw)
	pitch := emath.DegToRad(src.Pitch)
	roll := emath.DegToRad(src.Roll)

	o := orientation{}
	if dest.IsErectLike() {
		o.yaw, yaw = yaw, 0
	}
	o.identity = yaw == 0 && pitch == 0 && roll == 0

	var m emath.Mat3
	m.SetRotationPT(yaw, pitch, roll)
	o.matrix = ptToCamera.Transpose().Mult(m).Mult(ptToCamera)
	return o
}

type scales struct {
	destD  float64 // focal length of the panorama, pixels
	srcF   float64 // focal length of the image, pixels
	panini float64
}

func newScales(src panorama.SrcImage, opts panorama.Options) (scales, error) {
	if src.Width <= 0 || src.Height <= 0 {
		return scales{}, errors.Errorf("%s: bad size %dx%d", src.Base(), src.Width, src.Height)
	} else if opts.Width <= 0 || opts.Height <= 0 {
		return scales{}, errors.Errorf("panorama: bad size %dx%d", opts.Width, opts.Height)
	}

	s := scales{panini: opts.Panini()}
	var err error
	if s.destD, err = FocalPixels(opts.Projection, opts.Width, opts.HFOV, s.panini); err != nil {
		return s, errors.Wrap(err, "panorama")
	}
	if s.srcF, err = FocalPixels(src.Projection, src.Width, src.HFOV, s.panini); err != nil {
		return s, errors.Wrap(err, src.Base())
	}
	return s, nil
}

// Init builds the panorama -> source image stack, for the green channel.
// This is the remapping direction: for each canvas pixel, it finds the
// source pixel that lands there.
func (st *SpaceTransform) Init(src panorama.SrcImage, opts panorama.Options) error {
	return st.InitChannel(src, opts, Green)
}

// InitInv builds the source image -> panorama stack, for the green channel.
func (st *SpaceTransform) InitInv(src panorama.SrcImage, opts panorama.Options) error {
	return st.InitInvChannel(src, opts, Green)
}

// InitChannel is Init, using the radial coefficients for one color channel.
func (st *SpaceTransform) InitChannel(src panorama.SrcImage, opts panorama.Options, ch Channel) error {
	sc, err := newScales(src, opts)
	if err != nil {
		return err
	}
	rot := newOrientation(src, opts.Projection)

	st.reset(opts.Width, opts.Height, src.Width, src.Height)

	if rot.yaw != 0 {
		st.add(RotateErect, Params{Var: [8]float64{-rot.yaw * sc.destD, math.Pi * sc.destD}})
	}
	if src.Projection != opts.Projection || !rot.identity {
		st.add(ToSphere, Params{Proj: opts.Projection, Distance: sc.destD, Var: [8]float64{sc.panini}})
		if !rot.identity {
			st.add(PerspSphere, Params{Distance: sc.destD, Matrix: rot.matrix.Inverse()})
		}
		st.add(FromSphere, Params{Proj: src.Projection, Distance: sc.destD, Var: [8]float64{sc.panini}})
	}
	if scale := sc.srcF / sc.destD; math.Abs(scale-1.0) > eps {
		st.add(Resize, Params{Var: [8]float64{scale, scale}})
	}
	st.addLens(src, ch)

	return nil
}

// InitInvChannel is InitInv, using the radial coefficients for one color channel.
func (st *SpaceTransform) InitInvChannel(src panorama.SrcImage, opts panorama.Options, ch Channel) error {
	sc, err := newScales(src, opts)
	if err != nil {
		return err
	}
	rot := newOrientation(src, opts.Projection)

	st.reset(src.Width, src.Height, opts.Width, opts.Height)

	st.addInvLens(src, ch)
	if scale := sc.destD / sc.srcF; math.Abs(scale-1.0) > eps {
		st.add(Resize, Params{Var: [8]float64{scale, scale}})
	}
	if src.Projection != opts.Projection || !rot.identity {
		st.add(ToSphere, Params{Proj: src.Projection, Distance: sc.destD, Var: [8]float64{sc.panini}})
		if !rot.identity {
			st.add(PerspSphere, Params{Distance: sc.destD, Matrix: rot.matrix})
		}
		st.add(FromSphere, Params{Proj: opts.Projection, Distance: sc.destD, Var: [8]float64{sc.panini}})
	}
	if rot.yaw != 0 {
		st.add(RotateErect, Params{Var: [8]float64{rot.yaw * sc.destD, math.Pi * sc.destD}})
	}

	return nil
}

// InitRadialCorrect builds a stack holding just the lens distortion for
// one channel: it maps coords in the corrected (ideal) image to coords in
// the raw source image, both the size of the source. The distortion is
// centred on the optical axis, so any lens shift is undone around it.
func (st *SpaceTransform) InitRadialCorrect(src panorama.SrcImage, ch Channel) error {
	if src.Width <= 0 || src.Height <= 0 {
		return errors.Errorf("%s: bad size %dx%d", src.Base(), src.Width, src.Height)
	}
	st.reset(src.Width, src.Height, src.Width, src.Height)

	norm := normRadius(src)
	shifted := src.ShiftX != 0 || src.ShiftY != 0
	if shifted {
		st.add(Shift, Params{Var: [8]float64{-src.ShiftX, -src.ShiftY}})
	}
	if src.A != 0 || src.B != 0 || src.C != 0 {
		st.addRadial(Radial, src.RadialCoeffs(), norm)
	}
	if abcd, ok := channelCoeffs(src, ch); ok {
		st.addRadial(Radial, abcd, norm)
	}
	if shifted {
		st.add(Shift, Params{Var: [8]float64{src.ShiftX, src.ShiftY}})
	}
	return nil
}

// InitInvRadialCorrect maps raw source coords to corrected coords.
func (st *SpaceTransform) InitInvRadialCorrect(src panorama.SrcImage, ch Channel) error {
	if src.Width <= 0 || src.Height <= 0 {
		return errors.Errorf("%s: bad size %dx%d", src.Base(), src.Width, src.Height)
	}
	st.reset(src.Width, src.Height, src.Width, src.Height)

	norm := normRadius(src)
	shifted := src.ShiftX != 0 || src.ShiftY != 0
	if shifted {
		st.add(Shift, Params{Var: [8]float64{-src.ShiftX, -src.ShiftY}})
	}
	if abcd, ok := channelCoeffs(src, ch); ok {
		st.addRadial(InvRadial, abcd, norm)
	}
	if src.A != 0 || src.B != 0 || src.C != 0 {
		st.addRadial(InvRadial, src.RadialCoeffs(), norm)
	}
	if shifted {
		st.add(Shift, Params{Var: [8]float64{src.ShiftX, src.ShiftY}})
	}
	return nil
}

// CreateTransform returns a new panorama -> image stack.
func CreateTransform(src panorama.SrcImage, opts panorama.Options) (*SpaceTransform, error) {
	st := &SpaceTransform{}
	if err := st.Init(src, opts); err != nil {
		return nil, err
	}
	return st, nil
}

// CreateInvTransform returns a new image -> panorama stack.
func CreateInvTransform(src panorama.SrcImage, opts panorama.Options) (*SpaceTransform, error) {
	st := &SpaceTransform{}
	if err := st.InitInv(src, opts); err != nil {
		return nil, err
	}
	return st, nil
}
