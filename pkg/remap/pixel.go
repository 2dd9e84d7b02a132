package remap

import(
	"fmt"

	"github.com/mdouchement/hdr/hdrcolor"

	"github.com/abworrall/panostitch/pkg/ecolor"
)

// A Pixel on the canvas accumulates whatever the source images contribute.
type Pixel struct {
	Sum       hdrcolor.RGB // weighted sum of the contributions
	Weight    float64
	NumImages int          // how many images landed on this pixel
}

// Value is the blended HDR value; black if nothing landed here.
func (p Pixel) Value() hdrcolor.RGB {
	if p.Weight <= 0 {
		return hdrcolor.RGB{}
	}
	return ecolor.ScaleRGB(p.Sum, 1.0/p.Weight)
}

func (p Pixel) String() string {
	v := p.Value()
	return fmt.Sprintf("[%12.10f, %12.10f, %12.10f] w=%.3f (%d images)", v.R, v.G, v.B, p.Weight, p.NumImages)
}
