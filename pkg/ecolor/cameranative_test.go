package ecolor

import(
	"image/color"
	"testing"

	"github.com/mdouchement/hdr/hdrcolor"
	"go.viam.com/test"
)

func TestCameraNative(t *testing.T) {
	cn := NewCameraNative(color.RGBA64{0xFFFF, 0x8000, 0, 0xFFFF}, 2.0)
	test.That(t, cn.R, test.ShouldEqual, 1.0)
	test.That(t, cn.G, test.ShouldAlmostEqual, 0.5, 1e-4)

	// Twice the light was needed to saturate, so normalised to 1 it doubles
	cn.AdjustIllumAtMax(1.0)
	test.That(t, cn.R, test.ShouldEqual, 2.0)
	test.That(t, cn.IllumAtMax, test.ShouldEqual, 1.0)

	test.That(t, CameraNative{RGB: hdrcolor.RGB{R: 1, G: 1, B: 1}}.Luminance(), test.ShouldAlmostEqual, 1.0)
}

func TestRGBHelpers(t *testing.T) {
	a := hdrcolor.RGB{R: 0.25, G: -1, B: 3}
	test.That(t, AddRGB(a, a), test.ShouldResemble, hdrcolor.RGB{R: 0.5, G: -2, B: 6})
	test.That(t, ScaleRGB(a, 2), test.ShouldResemble, hdrcolor.RGB{R: 0.5, G: -2, B: 6})
	test.That(t, HDRRGBFloorAt(a, 0), test.ShouldResemble, hdrcolor.RGB{R: 0.25, G: 0, B: 3})

	test.That(t, ToSRGB8(hdrcolor.RGB{R: 0, G: 1, B: 7}), test.ShouldResemble, color.RGBA{0, 255, 255, 255})
	mid := ToSRGB8(hdrcolor.RGB{R: 0.5, G: 0.5, B: 0.5})
	test.That(t, mid.R, test.ShouldBeGreaterThan, 128)
}
