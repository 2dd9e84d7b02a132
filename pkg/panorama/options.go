package panorama

import(
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Tracing an outline with more samples gives a more accurate bounding box,
// at the cost of more transforms.
const DefaultOutlineSamples = 200

// Options describe the output panorama canvas, and how to render it.
type Options struct {
	Projection     Projection
	HFOV           float64   // degrees
	Width          int
	Height         int
	PaniniDistance float64   // compression distance for Panini; 1.0 is the classic form

	Interpolator   string    // nearest, bilinear, catmullrom
	Blender        string    // average, overwrite
	Tonemapper     string    // see remap.Tonemappers, or "all"
	OutlineSamples int       // samples per image edge when tracing outlines
	Workers        int       // goroutines used for remapping; 0 means one per CPU
	Output         string    // basename for output files
}

func NewOptions() Options {
	return Options{
		Projection:     Equirectangular,
		HFOV:           360,
		Width:          3600,
		Height:         1800,
		PaniniDistance: 1.0,
		Interpolator:   "bilinear",
		Blender:        "average",
		Tonemapper:     "reinhard05",
		OutlineSamples: DefaultOutlineSamples,
		Output:         "pano",
	}
}

func (o Options) String() string {
	return fmt.Sprintf("Options[%s hfov=%.1f %dx%d]", o.Projection, o.HFOV, o.Width, o.Height)
}

// Samples returns OutlineSamples, or the default if it wasn't set.
func (o Options) Samples() int {
	if o.OutlineSamples <= 0 {
		return DefaultOutlineSamples
	}
	return o.OutlineSamples
}

// Panini returns the Panini compression distance, defaulting to 1.
func (o Options) Panini() float64 {
	if o.PaniniDistance <= 0 {
		return 1.0
	}
	return o.PaniniDistance
}

func (o Options) Validate() error {
	var err error
	if o.Width <= 0 || o.Height <= 0 {
		err = multierr.Append(err, errors.Errorf("panorama: bad size %dx%d", o.Width, o.Height))
	}
	if !o.Projection.Valid() {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidProjection, "panorama: %d", int(o.Projection)))
	} else if !o.Projection.ValidHFOV(o.HFOV) {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidFOV, "panorama: %s hfov=%f", o.Projection, o.HFOV))
	}

	switch o.Interpolator {
	case "", "nearest", "bilinear", "catmullrom":
	default:
		err = multierr.Append(err, errors.Errorf("panorama: no interpolator named %q", o.Interpolator))
	}
	switch o.Blender {
	case "", "average", "overwrite":
	default:
		err = multierr.Append(err, errors.Errorf("panorama: no blender named %q", o.Blender))
	}

	return err
}

// AsSrcImage describes the panorama canvas as if it were a (distortion
// free) source image. Useful for building transforms between a canvas and
// a reference frame.
func (o Options) AsSrcImage() SrcImage {
	return SrcImage{
		Filename:   "panorama",
		Width:      o.Width,
		Height:     o.Height,
		Projection: o.Projection,
		HFOV:       o.HFOV,
	}
}
