package xform

import(
	"math"

	"github.com/abworrall/panostitch/pkg/emath"
	"github.com/abworrall/panostitch/pkg/panorama"
)

// Vignetting corrects pixel values (not coords) for light falloff towards
// the edges of the frame. It works in source image pixel coords.
type Vignetting struct {
	Mode   panorama.VignettingMode
	Coeffs [4]float64

	cx, cy      float64 // centre of the falloff, pixels
	invHalfDiag float64

	flat           emath.FloatGrid
	flatSX, flatSY float64 // image pixels -> flatfield pixels
}

func NewVignetting(src panorama.SrcImage) Vignetting {
	v := Vignetting{
		Mode:   src.VigMode,
		Coeffs: src.VigCoeffs,
		cx:     float64(src.Width)/2.0 + src.VigCenterX,
		cy:     float64(src.Height)/2.0 + src.VigCenterY,
	}
	if halfDiag := math.Hypot(float64(src.Width), float64(src.Height)) / 2.0; halfDiag > 0 {
		v.invHalfDiag = 1.0 / halfDiag
	}

	if v.Mode == panorama.VigFlatfield {
		v.flat = src.FlatfieldGrid
		if !v.flat.IsZero() && src.Width > 0 && src.Height > 0 {
			v.flatSX = float64(v.flat.Dx()) / float64(src.Width)
			v.flatSY = float64(v.flat.Dy()) / float64(src.Height)
		}
	}

	return v
}

// Enabled is false when Correct would hand back its input unchanged: a
// unit polynomial when dividing, a zero one when subtracting.
func (v Vignetting) Enabled() bool {
	switch v.Mode {
	case panorama.VigRadial:
		return v.Coeffs != [4]float64{1, 0, 0, 0}
	case panorama.VigRadialSubtract:
		return v.Coeffs != [4]float64{}
	case panorama.VigFlatfield:
		return !v.flat.IsZero()
	}
	return false
}

// Factor is the falloff at pixel (x,y): the polynomial in r, or the
// flatfield value. 1 means no falloff.
func (v Vignetting) Factor(x, y float64) float64 {
	switch v.Mode {
	case panorama.VigRadial, panorama.VigRadialSubtract:
		r := math.Hypot(x-v.cx, y-v.cy) * v.invHalfDiag
		r2 := r * r
		c := v.Coeffs
		return c[0] + r2*(c[1]+r2*(c[2]+r2*c[3]))
	case panorama.VigFlatfield:
		if v.flat.IsZero() {
			return 1.0
		}
		return v.flat.Sample(x*v.flatSX, y*v.flatSY)
	}
	return 1.0
}

// Correct returns the value that pixel (x,y) would have had without
// falloff.
func (v Vignetting) Correct(val, x, y float64) float64 {
	switch v.Mode {
	case panorama.VigRadial, panorama.VigFlatfield:
		f := v.Factor(x, y)
		if f < 1e-6 {
			return val
		}
		return val / f
	case panorama.VigRadialSubtract:
		return val - v.Factor(x, y)
	}
	return val
}
