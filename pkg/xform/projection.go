package xform

import(
	"math"

	"github.com/pkg/errors"

	"github.com/abworrall/panostitch/pkg/emath"
	"github.com/abworrall/panostitch/pkg/panorama"
)

// Projection equations. Each projection maps a unit direction vector to a
// point on its image plane, at unit focal distance, and back again.
//
// Directions use the camera frame: x right, y down, z forward (the
// optical axis). So longitude is atan2(x, z), +ve to the right, and
// latitude is asin(-y), +ve up. Plane coords use the same x-right, y-down
// convention as image pixels.

const eps = 1e-12

func lonLat(v emath.Vec3) (lon, lat float64) {
	return math.Atan2(v[0], v[2]), math.Asin(emath.ClampUnit(-v[1]))
}

func fromLonLat(lon, lat float64) emath.Vec3 {
	return emath.Vec3{
		math.Cos(lat) * math.Sin(lon),
		-math.Sin(lat),
		math.Cos(lat) * math.Cos(lon),
	}
}

// fisheyeRadius maps the angle off the optical axis to a radius on the
// plane, for the radially symmetric projections.
func fisheyeRadius(proj panorama.Projection, theta float64) (float64, bool) {
	switch proj {
	case panorama.Rectilinear:
		if theta >= math.Pi/2 {
			return 0, false
		}
		return math.Tan(theta), true
	case panorama.EquisolidFisheye:
		return 2.0 * math.Sin(theta/2.0), true
	case panorama.Stereographic:
		if theta >= math.Pi-1e-9 {
			return 0, false
		}
		return 2.0 * math.Tan(theta/2.0), true
	default: // equidistant
		return theta, true
	}
}

func fisheyeTheta(proj panorama.Projection, r float64) (float64, bool) {
	switch proj {
	case panorama.Rectilinear:
		return math.Atan(r), true
	case panorama.EquisolidFisheye:
		if r > 2.0 {
			return 0, false
		}
		return 2.0 * math.Asin(emath.ClampUnit(r/2.0)), true
	case panorama.Stereographic:
		return 2.0 * math.Atan(r/2.0), true
	default:
		if r > math.Pi {
			return 0, false
		}
		return r, true
	}
}

// vecToPlane projects a unit vector onto the plane of proj. `panini` is
// the Panini compression distance, ignored by everything else.
func vecToPlane(proj panorama.Projection, panini float64, v emath.Vec3) (x, y float64, ok bool) {
	switch proj {
	case panorama.Rectilinear:
		if v[2] <= eps {
			return 0, 0, false
		}
		return v[0] / v[2], v[1] / v[2], true

	case panorama.Cylindrical:
		h := math.Hypot(v[0], v[2])
		if h < eps {
			return 0, 0, false
		}
		return math.Atan2(v[0], v[2]), v[1] / h, true

	case panorama.Equirectangular:
		lon, lat := lonLat(v)
		return lon, -lat, true

	case panorama.Mercator:
		lon, lat := lonLat(v)
		if math.Cos(lat) < eps {
			return 0, 0, false
		}
		return lon, -math.Asinh(math.Tan(lat)), true

	case panorama.Panini:
		lon, lat := lonLat(v)
		denom := panini + math.Cos(lon)
		if denom <= eps || math.Cos(lat) < eps {
			return 0, 0, false
		}
		s := (panini + 1.0) / denom
		return s * math.Sin(lon), -s * math.Tan(lat), true

	case panorama.FullFrameFisheye, panorama.CircularFisheye, panorama.EquisolidFisheye, panorama.Stereographic:
		rho := math.Hypot(v[0], v[1])
		theta := math.Atan2(rho, v[2])
		r, ok := fisheyeRadius(proj, theta)
		if !ok {
			return 0, 0, false
		}
		if rho < eps {
			if v[2] > 0 {
				return 0, 0, true
			}
			return r, 0, true // the antipode; any direction will do
		}
		return r * v[0] / rho, r * v[1] / rho, true
	}

	return 0, 0, false
}

// planeToVec is the inverse of vecToPlane.
func planeToVec(proj panorama.Projection, panini float64, x, y float64) (emath.Vec3, bool) {
	switch proj {
	case panorama.Rectilinear:
		return emath.Vec3{x, y, 1}.Normalize(), true

	case panorama.Cylindrical:
		n := math.Sqrt(1 + y*y)
		return emath.Vec3{math.Sin(x) / n, y / n, math.Cos(x) / n}, true

	case panorama.Equirectangular:
		if math.Abs(y) > math.Pi/2+eps {
			return emath.Vec3{}, false
		}
		return fromLonLat(x, -y), true

	case panorama.Mercator:
		return fromLonLat(x, -math.Atan(math.Sinh(y))), true

	case panorama.Panini:
		p := panini
		k := x * x / ((p + 1) * (p + 1))
		dscr := k*k*p*p - (k+1)*(k*p*p-1)
		if dscr < 0 {
			return emath.Vec3{}, false
		}
		clon := (-k*p + math.Sqrt(dscr)) / (k + 1)
		s := (p + 1) / (p + clon)
		lon := math.Atan2(x, s*clon)
		lat := math.Atan(-y / s)
		return fromLonLat(lon, lat), true

	case panorama.FullFrameFisheye, panorama.CircularFisheye, panorama.EquisolidFisheye, panorama.Stereographic:
		r := math.Hypot(x, y)
		theta, ok := fisheyeTheta(proj, r)
		if !ok {
			return emath.Vec3{}, false
		}
		if r < eps {
			return emath.Vec3{0, 0, 1}, true
		}
		s := math.Sin(theta) / r
		return emath.Vec3{s * x, s * y, math.Cos(theta)}, true
	}

	return emath.Vec3{}, false
}

// planeHalfWidth is where the point on the equator, hfov/2 to the right of
// centre, lands on the plane (at unit focal distance).
func planeHalfWidth(proj panorama.Projection, panini, hfov float64) (float64, error) {
	half := emath.DegToRad(hfov) / 2.0
	x, _, ok := vecToPlane(proj, panini, fromLonLat(half, 0))
	if proj.IsErectLike() {
		x, ok = half, true // atan2 would fold 360 degrees back to -180
	}
	if !ok || x <= 0 {
		return 0, errors.Wrapf(panorama.ErrInvalidFOV, "%s can't show hfov=%f", proj, hfov)
	}
	return x, nil
}

// FocalPixels is the focal length, in pixels, of an image `width` pixels
// wide covering `hfov` degrees in the given projection. Multiplying plane
// coords by this gives pixels from the centre.
func FocalPixels(proj panorama.Projection, width int, hfov, panini float64) (float64, error) {
	if !proj.Valid() {
		return 0, errors.Wrapf(panorama.ErrInvalidProjection, "%d", int(proj))
	} else if !proj.ValidHFOV(hfov) {
		return 0, errors.Wrapf(panorama.ErrInvalidFOV, "%s hfov=%f", proj, hfov)
	} else if width <= 0 {
		return 0, errors.Errorf("bad width %d", width)
	}

	halfWidth, err := planeHalfWidth(proj, panini, hfov)
	if err != nil {
		return 0, err
	}
	return (float64(width) / 2.0) / halfWidth, nil
}
