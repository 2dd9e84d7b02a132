package remap

import(
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/abworrall/panostitch/pkg/xform"
)

// PickColor hands out n well separated colors, going round the hue wheel.
func PickColor(i, n int) color.Color {
	if n < 1 {
		n = 1
	}
	hue := 360.0 * float64(i%n) / float64(n)
	return colorful.Hsv(hue, 0.85, 0.95)
}

// DrawOutlines draws each image's outline, bounding box and name over
// the background (or black, if it is nil). It is for debugging: you can
// see how the images overlap before paying for a full remap.
func DrawOutlines(background image.Image, width, height int, outlines []xform.Outline, names []string) image.Image {
	dc := gg.NewContext(width, height)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	if background != nil {
		dc.DrawImage(background, 0, 0)
	}

	for i, o := range outlines {
		if o.NumCovered == 0 {
			continue
		}
		dc.SetColor(PickColor(i, len(outlines)))

		// Outlines that wrap round the seam get split, not drawn across the canvas
		dc.SetLineWidth(2)
		for j, p := range o.Points {
			if j == 0 || math.Abs(p.X-o.Points[j-1].X) > float64(width)/2.0 {
				dc.MoveTo(p.X, p.Y)
			} else {
				dc.LineTo(p.X, p.Y)
			}
		}
		dc.Stroke()

		bb := o.BoundingBox
		dc.SetLineWidth(1)
		dc.SetDash(6, 4)
		dc.DrawRectangle(bb.Min.X, bb.Min.Y, bb.Dx(), bb.Dy())
		dc.Stroke()
		dc.SetDash()

		if i < len(names) {
			c := bb.Center()
			dc.DrawStringAnchored(names[i], c.X, c.Y, 0.5, 0.5)
		}
	}

	return dc.Image()
}
