package panorama

import(
	"fmt"
	"image"
	"math"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/abworrall/panostitch/pkg/emath"
)

// The long side of a full frame (35mm) sensor, in mm
const FullFrameSensorWidth = 36.0

type VignettingMode string

const(
	VigNone           VignettingMode = "none"
	VigRadial         VignettingMode = "radial"          // divide by the polynomial
	VigRadialSubtract VignettingMode = "radial-subtract" // subtract the polynomial
	VigFlatfield      VignettingMode = "flatfield"       // divide by a reference frame
)

func (vm VignettingMode) Valid() bool {
	switch vm {
	case "", VigNone, VigRadial, VigRadialSubtract, VigFlatfield:
		return true
	}
	return false
}

// A SrcImage is one photo that goes into the panorama: the pixels, plus the
// lens and orientation parameters needed to place them. Angles are in
// degrees, using the pano-tools yaw/pitch/roll convention.
type SrcImage struct {
	Filename       string
	Width          int
	Height         int

	Projection     Projection
	HFOV           float64   // degrees

	Yaw            float64   // degrees, +ve looks right
	Pitch          float64   // degrees, +ve looks up
	Roll           float64   // degrees

	// Radial distortion, as applied to the green channel; d = 1-a-b-c.
	A, B, C        float64

	// Transverse chromatic aberration: extra radial terms (a,b,c) for the red
	// and blue channels, applied after the green ones. Zero means the channel
	// lines up with green.
	RadialRed      [3]float64
	RadialBlue     [3]float64

	ShiftX         float64   // lens centre shift ("d"), pixels
	ShiftY         float64   // lens centre shift ("e"), pixels
	ShearX         float64   // sensor shear ("g")
	ShearY         float64   // sensor shear ("t")

	VigMode        VignettingMode
	VigCoeffs      [4]float64  // c0 + c1 r^2 + c2 r^4 + c3 r^6
	VigCenterX     float64     // pixels, relative to the image centre
	VigCenterY     float64
	Flatfield      string      // filename of a flatfield frame, for VigFlatfield

	// The image circle of a circular fisheye, pixels relative to the image
	// centre. Radius 0 means half the shorter side.
	CropCenterX    float64
	CropCenterY    float64
	CropRadius     float64

	FocalLength    float64   // mm
	CropFactor     float64   // 1.0 for full frame; 1.5 for most APS-C
	ExposureValue

	// Stuff that is loaded, not configured
	Pixels         image.Image      `yaml:"-"`
	FlatfieldGrid  emath.FloatGrid  `yaml:"-"`
}

func (si SrcImage) String() string {
	return fmt.Sprintf("%s[%dx%d %s hfov=%.2f y/p/r=%.2f/%.2f/%.2f abc=%g/%g/%g, %s]",
		si.Base(), si.Width, si.Height, si.Projection, si.HFOV, si.Yaw, si.Pitch, si.Roll,
		si.A, si.B, si.C, si.ExposureValue)
}

func (si SrcImage) Base() string {
	if si.Filename == "" {
		return "(unnamed)"
	}
	return filepath.Base(si.Filename)
}

// RadialCoeffs returns (a, b, c, d) for the green channel.
func (si SrcImage) RadialCoeffs() [4]float64 {
	return [4]float64{si.A, si.B, si.C, 1.0 - si.A - si.B - si.C}
}

// HasTCA is true when red or blue need their own correction.
func (si SrcImage) HasTCA() bool {
	return si.RadialRed != [3]float64{} || si.RadialBlue != [3]float64{}
}

func (si SrcImage) HasLensCorrection() bool {
	return si.A != 0 || si.B != 0 || si.C != 0 || si.HasTCA()
}

// CropCircle returns the centre offset and radius of the usable image
// circle for circular fisheyes.
func (si SrcImage) CropCircle() (cx, cy, r float64) {
	r = si.CropRadius
	if r <= 0 {
		r = math.Min(float64(si.Width), float64(si.Height)) / 2.0
	}
	return si.CropCenterX, si.CropCenterY, r
}

// Validate looks at all the parameters, and returns every problem it finds
// (not just the first one).
func (si SrcImage) Validate() error {
	var err error
	name := si.Base()

	if si.Width <= 0 || si.Height <= 0 {
		err = multierr.Append(err, errors.Errorf("%s: bad size %dx%d", name, si.Width, si.Height))
	}
	if !si.Projection.Valid() {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidProjection, "%s: %d", name, int(si.Projection)))
	} else if !si.Projection.ValidHFOV(si.HFOV) {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidFOV, "%s: %s hfov=%f", name, si.Projection, si.HFOV))
	}
	if !si.VigMode.Valid() {
		err = multierr.Append(err, errors.Errorf("%s: unknown vignetting mode %q", name, si.VigMode))
	}
	if si.VigMode == VigFlatfield && si.Flatfield == "" {
		err = multierr.Append(err, errors.Errorf("%s: flatfield vignetting but no flatfield file", name))
	}
	if si.CropFactor < 0 {
		err = multierr.Append(err, errors.Errorf("%s: negative crop factor %f", name, si.CropFactor))
	}

	for _, v := range []float64{si.A, si.B, si.C, si.ShiftX, si.ShiftY, si.ShearX, si.ShearY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			err = multierr.Append(err, errors.Errorf("%s: non-finite lens parameter", name))
			break
		}
	}

	return err
}

// CalcHFOV figures out the horizontal field of view (degrees) for a lens of
// the given focal length (mm) on a sensor with the given crop factor, when
// the image is `aspect` (width/height) and laid out in projection proj.
// The sensor's long side is assumed to be the image's horizontal side when
// aspect >= 1.
func CalcHFOV(proj Projection, focalLength, cropFactor, aspect float64) (float64, error) {
	if focalLength <= 0 {
		return 0, errors.Errorf("bad focal length %f", focalLength)
	}
	if cropFactor <= 0 {
		cropFactor = 1.0
	}

	sensorWidth := FullFrameSensorWidth / cropFactor
	if aspect < 1.0 && aspect > 0 {
		sensorWidth *= aspect // portrait
	}
	halfWidth := sensorWidth / 2.0

	var hfov float64
	switch proj {
	case Rectilinear:
		hfov = 2.0 * math.Atan(halfWidth/focalLength)
	case Cylindrical, Equirectangular, FullFrameFisheye, CircularFisheye, Mercator, Panini:
		hfov = 2.0 * halfWidth / focalLength
	case EquisolidFisheye:
		hfov = 4.0 * math.Asin(emath.ClampUnit(halfWidth/(2.0*focalLength)))
	case Stereographic:
		hfov = 4.0 * math.Atan(halfWidth/(2.0*focalLength))
	default:
		return 0, errors.Wrapf(ErrInvalidProjection, "calc hfov %d", int(proj))
	}

	return emath.RadToDeg(hfov), nil
}

// CalcFocalLength is the inverse of CalcHFOV.
func CalcFocalLength(proj Projection, hfov, cropFactor, aspect float64) (float64, error) {
	if !proj.Valid() {
		return 0, errors.Wrapf(ErrInvalidProjection, "calc focal length %d", int(proj))
	} else if !proj.ValidHFOV(hfov) {
		return 0, errors.Wrapf(ErrInvalidFOV, "calc focal length %s %f", proj, hfov)
	}
	if cropFactor <= 0 {
		cropFactor = 1.0
	}

	sensorWidth := FullFrameSensorWidth / cropFactor
	if aspect < 1.0 && aspect > 0 {
		sensorWidth *= aspect
	}
	halfWidth := sensorWidth / 2.0
	half := emath.DegToRad(hfov) / 2.0

	switch proj {
	case Rectilinear:
		return halfWidth / math.Tan(half), nil
	case EquisolidFisheye:
		return halfWidth / (2.0 * math.Sin(half/2.0)), nil
	case Stereographic:
		return halfWidth / (2.0 * math.Tan(half/2.0)), nil
	default:
		return halfWidth / half, nil
	}
}
