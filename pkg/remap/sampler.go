package remap

import(
	"fmt"
	"image"
	"math"

	"github.com/mdouchement/hdr/hdrcolor"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"

	"github.com/abworrall/panostitch/pkg/ecolor"
)

// An Interpolator reads an image at a continuous position, in pixel
// coords relative to the image's top-left corner (so pixel (i,j) is
// centred on (i+0.5, j+0.5)). ok=false means the position is off the image.
type Interpolator interface {
	Sample(img image.Image, x, y float64) (hdrcolor.RGB, bool)
}

var Interpolators = []string{"nearest", "bilinear", "catmullrom"}

func ListInterpolators() string {
	return fmt.Sprintf("%v", Interpolators)
}

func GetInterpolator(name string) (Interpolator, error) {
	switch name {
	case "nearest":
		return nearest{}, nil
	case "", "bilinear":
		return kernelSampler{draw.BiLinear}, nil
	case "catmullrom":
		return kernelSampler{draw.CatmullRom}, nil
	}
	return nil, errors.Errorf("interpolator %q not recognized, wanted %s", name, ListInterpolators())
}

func readRGB(img image.Image, i, j int) hdrcolor.RGB {
	b := img.Bounds()
	return ecolor.NewCameraNative(img.At(b.Min.X+i, b.Min.Y+j), 1.0).RGB
}

func onImage(img image.Image, x, y float64) bool {
	b := img.Bounds()
	return x >= 0 && y >= 0 && x <= float64(b.Dx()) && y <= float64(b.Dy())
}

func clampInt(i, lo, hi int) int {
	if i < lo {
		return lo
	} else if i > hi {
		return hi
	}
	return i
}

type nearest struct{}

func (nearest) Sample(img image.Image, x, y float64) (hdrcolor.RGB, bool) {
	if !onImage(img, x, y) {
		return hdrcolor.RGB{}, false
	}
	b := img.Bounds()
	i := clampInt(int(math.Floor(x)), 0, b.Dx()-1)
	j := clampInt(int(math.Floor(y)), 0, b.Dy()-1)
	return readRGB(img, i, j), true
}

// kernelSampler borrows the separable kernels from x/image/draw, and runs
// them at a single point. Taps that fall off the image repeat the edge.
type kernelSampler struct {
	k *draw.Kernel
}

func (ks kernelSampler) Sample(img image.Image, x, y float64) (hdrcolor.RGB, bool) {
	if !onImage(img, x, y) {
		return hdrcolor.RGB{}, false
	}
	b := img.Bounds()
	fx, fy := x-0.5, y-0.5 // in pixel-centre coords
	s := ks.k.Support

	i0, i1 := int(math.Ceil(fx-s)), int(math.Floor(fx+s))
	j0, j1 := int(math.Ceil(fy-s)), int(math.Floor(fy+s))

	sum := hdrcolor.RGB{}
	wSum := 0.0
	for j := j0; j <= j1; j++ {
		wy := ks.k.At(math.Abs(fy - float64(j)))
		if wy == 0 {
			continue
		}
		for i := i0; i <= i1; i++ {
			wx := ks.k.At(math.Abs(fx - float64(i)))
			if wx == 0 {
				continue
			}
			c := readRGB(img, clampInt(i, 0, b.Dx()-1), clampInt(j, 0, b.Dy()-1))
			sum = ecolor.AddRGB(sum, ecolor.ScaleRGB(c, wx*wy))
			wSum += wx * wy
		}
	}

	if wSum == 0 {
		return hdrcolor.RGB{}, false
	}

	// Catmull-Rom rings a little below zero next to hard edges
	return ecolor.HDRRGBFloorAt(ecolor.ScaleRGB(sum, 1.0/wSum), 0.0), true
}
