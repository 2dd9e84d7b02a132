package remap

import(
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/hdr/hdrcolor"
	"github.com/pkg/errors"

	"github.com/abworrall/panostitch/pkg/ecolor"
	"github.com/abworrall/panostitch/pkg/emath"
)

// Canvas is the output panorama: a grid of accumulating HDR pixels.
// Implements the image.Image and hdr.Image interfaces.
type Canvas struct {
	Area   image.Rectangle
	Pixels []Pixel
}

func NewCanvas(width, height int) *Canvas {
	return &Canvas{
		Area:   image.Rect(0, 0, width, height),
		Pixels: make([]Pixel, width*height),
	}
}

// Implement image.Image
func (c *Canvas) ColorModel() color.Model       { return hdrcolor.RGBModel }
func (c *Canvas) Bounds() image.Rectangle       { return c.Area }
func (c *Canvas) At(x, y int) color.Color       { return c.HDRAt(x, y) }

// Implement hdr.Image
func (c *Canvas) HDRAt(x, y int) hdrcolor.Color {
	if !(image.Point{x, y}).In(c.Area) {
		return hdrcolor.RGB{}
	}
	return c.Pix(x, y).Value()
}
func (c *Canvas) Size() int                     { return c.Area.Dx() * c.Area.Dy() }

// Pixel access
func (c *Canvas) Pix(x, y int) Pixel            { return c.Pixels[x*c.Area.Dy()+y] }
func (c *Canvas) PixRW(x, y int) *Pixel         { return &(c.Pixels[x*c.Area.Dy()+y]) }

func (c *Canvas) String() string {
	n := 0
	for _, p := range c.Pixels {
		if p.NumImages > 0 {
			n++
		}
	}
	return fmt.Sprintf("Canvas %s [%.1f%% covered]", c.Area, 100.0*float64(n)/float64(len(c.Pixels)))
}

// Coverage returns the accumulated weight at each pixel.
func (c *Canvas) Coverage() emath.FloatGrid {
	fg := emath.NewFloatGrid(c.Area.Dx(), c.Area.Dy())
	for x := 0; x < c.Area.Dx(); x++ {
		for y := 0; y < c.Area.Dy(); y++ {
			fg.Set(x, y, c.Pix(x, y).Weight)
		}
	}
	return fg
}

// Preview is a quick LDR look at the canvas, without tonemapping; bright
// areas will clip.
func (c *Canvas) Preview() *image.RGBA {
	img := image.NewRGBA(c.Area)
	for x := 0; x < c.Area.Dx(); x++ {
		for y := 0; y < c.Area.Dy(); y++ {
			img.SetRGBA(x, y, ecolor.ToSRGB8(c.Pix(x, y).Value()))
		}
	}
	return img
}

// WriteToHDR outputs a HDR image. You can load this into photoshop or other HDR tools.
func (c *Canvas) WriteToHDR(filename string) error {
	writer, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "Canvas.WriteToHDR, open+w '%s'", filename)
	}
	defer writer.Close()

	if err := rgbe.Encode(writer, c); err != nil {
		return errors.Wrapf(err, "Canvas.WriteToHDR, encoding RGBE file '%s'", filename)
	}
	return nil
}
