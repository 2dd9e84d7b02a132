// Package optimize adjusts image parameters so that control points line up.
package optimize

import(
	"math"

	"github.com/pkg/errors"

	"github.com/abworrall/panostitch/pkg/emath"
	"github.com/abworrall/panostitch/pkg/panorama"
	"github.com/abworrall/panostitch/pkg/xform"
)

var ErrNoControlPoints = errors.New("no control points")

// Control points are compared in a full equirectangular frame, where
// every direction has exactly one position.
func referenceOptions() panorama.Options {
	opts := panorama.NewOptions()
	opts.Projection, opts.HFOV = panorama.Equirectangular, 360
	opts.Width, opts.Height = 3600, 1800
	return opts
}

// direction is the unit vector, in the panorama frame, that pixel (x,y)
// of the image looks along.
func direction(st *xform.SpaceTransform, ref panorama.Options, x, y float64) (emath.Vec3, bool) {
	px, py, ok := st.TransformImgCoord(x, y)
	if !ok {
		return emath.Vec3{}, false
	}
	d := float64(ref.Width) / (2.0 * math.Pi)
	lon := (px - float64(ref.Width)/2.0) / d
	lat := -(py - float64(ref.Height)/2.0) / d
	return emath.Vec3{
		math.Cos(lat) * math.Sin(lon),
		-math.Sin(lat),
		math.Cos(lat) * math.Cos(lon),
	}, true
}

// Residuals returns, for each control point, the angle between where its
// two ends point, converted to pixels at the centre of the canvas
// described by opts. A point that can't be placed at all scores as far
// off as possible (half a turn).
func Residuals(images []panorama.SrcImage, opts panorama.Options, cps []panorama.ControlPoint) ([]float64, error) {
	if len(cps) == 0 {
		return nil, ErrNoControlPoints
	}
	scale, err := xform.FocalPixels(opts.Projection, opts.Width, opts.HFOV, opts.Panini())
	if err != nil {
		return nil, err
	}

	ref := referenceOptions()
	stacks := make([]*xform.SpaceTransform, len(images))
	stack := func(i int) (*xform.SpaceTransform, error) {
		if i < 0 || i >= len(images) {
			return nil, errors.Errorf("no image %d", i)
		}
		if stacks[i] == nil {
			st, err := xform.CreateInvTransform(images[i], ref)
			if err != nil {
				return nil, err
			}
			stacks[i] = st
		}
		return stacks[i], nil
	}

	res := make([]float64, len(cps))
	for i, cp := range cps {
		st1, err := stack(cp.Image1)
		if err != nil {
			return nil, errors.Wrapf(err, "control point %d", i)
		}
		st2, err := stack(cp.Image2)
		if err != nil {
			return nil, errors.Wrapf(err, "control point %d", i)
		}

		v1, ok1 := direction(st1, ref, cp.X1, cp.Y1)
		v2, ok2 := direction(st2, ref, cp.X2, cp.Y2)
		if !ok1 || !ok2 {
			res[i] = math.Pi * scale
			continue
		}
		res[i] = v1.AngleTo(v2) * scale
	}

	return res, nil
}
