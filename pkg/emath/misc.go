package emath

import "math"

// Some functions that only operate on basic types, that are useful

func DegToRad(deg float64) float64 { return deg * math.Pi / 180.0 }
func RadToDeg(rad float64) float64 { return rad * 180.0 / math.Pi }

// ClampUnit pins f into [-1, 1]. Use it on anything headed into asin or
// acos; rounding can push a cosine a hair past 1, and NaN from there would
// spread through a whole stack of transforms.
func ClampUnit(f float64) float64 {
	if f > 1.0 {
		return 1.0
	} else if f < -1.0 {
		return -1.0
	}
	return f
}

// WrapPi maps an angle into [-pi, pi).
func WrapPi(rad float64) float64 {
	rad = math.Mod(rad+math.Pi, 2*math.Pi)
	if rad < 0 {
		rad += 2 * math.Pi
	}
	return rad - math.Pi
}

// https://www.sjbrown.co.uk/posts/gamma-correct-rendering/ - "linear RGB to sRGB"
// Each channel in `v` is assumed to be in the range [0,1]
func GammaExpand_sRGB(v Vec3) Vec3 {
	return Vec3{
		GammaExpand_F64(v[0]),
		GammaExpand_F64(v[1]),
		GammaExpand_F64(v[2]),
	}
}

func GammaExpand_F64(f float64) float64 {
	if f <= 0.0031308 {
		return 12.92 * f
	}
	return 1.055*math.Pow(f, 1.0/2.4) - 0.055
}
