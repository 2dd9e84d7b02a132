package ecolor

import(
	"fmt"
	"image/color"

	"github.com/mdouchement/hdr/hdrcolor"

	"github.com/abworrall/panostitch/pkg/emath"
)

// A CameraNative color is a sensor reading, combined with how much light
// it took to saturate the sensor, that has not yet been blended with other
// exposures. It exists in an RGB space specific to the camera.
type CameraNative struct {
	// The sensor photosites give values in the range [0, 0xFFFF]; we map those to [0.0, 1.0]
	hdrcolor.RGB // This field implements color.Color and hdrcolor.Color interfaces

	// How much light is needed to generate a photosite value of 0xFFFF,
	// relative to the panorama's reference image
	IllumAtMax float64
}

// Treats the input RGB channels as [0, 0xFFFF]
func NewCameraNative(col color.Color, illumAtMax float64) CameraNative {
	r, g, b, _ := col.RGBA()

	return CameraNative{
		RGB: hdrcolor.RGB{
			R: float64(r) / float64(0xFFFF),
			G: float64(g) / float64(0xFFFF),
			B: float64(b) / float64(0xFFFF),
		},
		IllumAtMax: illumAtMax,
	}
}

func (cn CameraNative) String() string {
	return fmt.Sprintf("[%12.10f, %12.10f, %12.10f] @%.4f", cn.RGB.R, cn.RGB.G, cn.RGB.B, cn.IllumAtMax)
}

// AdjustIllumAtMax rescales the RGB values.
func (cn *CameraNative) AdjustIllumAtMax(newIllumAtMax float64) {
	cn.RGB.R *= cn.IllumAtMax / newIllumAtMax
	cn.RGB.G *= cn.IllumAtMax / newIllumAtMax
	cn.RGB.B *= cn.IllumAtMax / newIllumAtMax
	cn.IllumAtMax = newIllumAtMax
}

// Luminance is the Rec.709 Y of the (linear) value.
func (cn CameraNative) Luminance() float64 {
	return 0.2126*cn.RGB.R + 0.7152*cn.RGB.G + 0.0722*cn.RGB.B
}

func AddRGB(a, b hdrcolor.RGB) hdrcolor.RGB {
	return hdrcolor.RGB{R: a.R + b.R, G: a.G + b.G, B: a.B + b.B}
}

func ScaleRGB(c hdrcolor.RGB, f float64) hdrcolor.RGB {
	return hdrcolor.RGB{R: c.R * f, G: c.G * f, B: c.B * f}
}

func HDRRGBFloorAt(c1 hdrcolor.RGB, min float64) hdrcolor.RGB {
	c2 := c1
	if c2.R < min {
		c2.R = min
	}
	if c2.G < min {
		c2.G = min
	}
	if c2.B < min {
		c2.B = min
	}
	return c2
}

// ToSRGB8 squashes a linear HDR value into a plain 8-bit sRGB color, for
// previews; anything over 1.0 just clips.
func ToSRGB8(c hdrcolor.RGB) color.RGBA {
	v := emath.GammaExpand_sRGB(emath.Vec3{clamp01(c.R), clamp01(c.G), clamp01(c.B)})
	return color.RGBA{uint8(v[0]*255 + 0.5), uint8(v[1]*255 + 0.5), uint8(v[2]*255 + 0.5), 0xff}
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	} else if f > 1 {
		return 1
	}
	return f
}
