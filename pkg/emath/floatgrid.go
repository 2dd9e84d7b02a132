package emath

import(
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/fogleman/gg" // Move to https://pkg.go.dev/golang.org/x/image/font#Drawer sometime
)

// A FloatGrid is a grid of floats, with some operations. Flatfield
// vignetting correction keeps its reference frame in one, and the remapper
// uses them for coverage maps.
type FloatGrid struct {
	stride int
	values []float64
}

func NewFloatGrid(w, h int) FloatGrid {
	return FloatGrid{
		stride: w,
		values: make([]float64, w*h),
	}
}

// NewFloatGridFromImage builds a grid of luminance values in [0,1], one per
// pixel of img.
func NewFloatGridFromImage(img image.Image) FloatGrid {
	b := img.Bounds()
	fg := NewFloatGrid(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, _ := img.At(x+b.Min.X, y+b.Min.Y).RGBA()
			lum := float64(r)*0.2126 + float64(g)*0.7152 + float64(bl)*0.0722
			fg.Set(x, y, lum/float64(0xFFFF))
		}
	}
	return fg
}

func (fg *FloatGrid) NewFromThis() FloatGrid { return NewFloatGrid(fg.Dx(), fg.Dy()) }
func (fg *FloatGrid) Set(x, y int, v float64) { fg.values[fg.stride*y+x] = v }
func (fg *FloatGrid) Get(x, y int) float64 { return fg.values[fg.stride*y+x] }
func (fg *FloatGrid) Add(x, y int, v float64) { fg.values[fg.stride*y+x] += v }
func (fg *FloatGrid) Dx() int { return fg.stride }
func (fg *FloatGrid) IsZero() bool { return fg.stride == 0 }

func (fg *FloatGrid) Dy() int {
	if fg.stride == 0 {
		return 0
	}
	return len(fg.values) / fg.stride
}

func (fg *FloatGrid) Copy() *FloatGrid {
	g2 := FloatGrid{stride: fg.stride, values: make([]float64, len(fg.values))}
	copy(g2.values, fg.values)
	return &g2
}

// Sample does a bilinear lookup at a continuous position, where grid cell
// (i,j) is centred on (i+0.5, j+0.5). Positions off the grid are clamped to
// the nearest edge.
func (fg *FloatGrid) Sample(x, y float64) float64 {
	w, h := fg.Dx(), fg.Dy()
	if w == 0 || h == 0 {
		return 0
	}

	fx := math.Max(0, math.Min(x-0.5, float64(w-1)))
	fy := math.Max(0, math.Min(y-0.5, float64(h-1)))
	x0, y0 := int(fx), int(fy)
	x1, y1 := x0+1, y0+1
	if x1 >= w {
		x1 = w - 1
	}
	if y1 >= h {
		y1 = h - 1
	}
	tx, ty := fx-float64(x0), fy-float64(y0)

	top := fg.Get(x0, y0)*(1-tx) + fg.Get(x1, y0)*tx
	bot := fg.Get(x0, y1)*(1-tx) + fg.Get(x1, y1)*tx
	return top*(1-ty) + bot*ty
}

// GaussianBlur applies a 1-2-1 kernel in each direction.
func (fg FloatGrid) GaussianBlur() FloatGrid {
	width := fg.Dx()
	height := fg.Dy()
	if width < 2 || height < 2 {
		return *fg.Copy()
	}

	g2 := fg.NewFromThis()
	T := fg.NewFromThis()

	//--- X blur, build up in T
	for y := 0; y < height; y++ {
		for x := 1; x < width-1; x++ {
			t := 2.0 * fg.Get(x, y)
			t += fg.Get(x-1, y)
			t += fg.Get(x+1, y)
			T.Set(x, y, t/4.0)
		}
		T.Set(0, y, (3.0*fg.Get(0, y)+fg.Get(1, y))/4.0)
		T.Set(width-1, y, (3.0*fg.Get(width-1, y)+fg.Get(width-2, y))/4.0)
	}

	//--- Y blur, read from T and generate output
	for x := 0; x < width; x++ {
		for y := 1; y < height-1; y++ {
			t := 2.0 * T.Get(x, y)
			t += T.Get(x, y-1)
			t += T.Get(x, y+1)
			g2.Set(x, y, t/4.0)
		}
		g2.Set(x, 0, (3.0*T.Get(x, 0)+T.Get(x, 1))/4.0)
		g2.Set(x, height-1, (3.0*T.Get(x, height-1)+T.Get(x, height-2))/4.0)
	}

	return g2
}

// Normalize scales the grid so that the value at the given percentile
// (e.g. 0.99) becomes 1.0. Using a percentile rather than the max keeps a
// few hot pixels from dimming everything else. All-zero grids are left
// alone.
func (fg *FloatGrid) Normalize(prct float64) {
	_, max := fg.FindMaxMinLumAtPercentile(0.0, prct)
	if max <= 0 {
		return
	}
	for i := range fg.values {
		fg.values[i] /= max
	}
}

// FindMaxMinLumAtPercentile ignores zero values, which are "no data".
func (fg *FloatGrid) FindMaxMinLumAtPercentile(minPrct, maxPrct float64) (float64, float64) {
	vI := []float64{}

	for i := 0; i < len(fg.values); i++ {
		if val := fg.values[i]; val != 0.0 {
			vI = append(vI, val)
		}
	}
	if len(vI) == 0 {
		return 0, 0
	}

	sort.Float64s(vI)

	iMin := int(minPrct * float64(len(vI)))
	iMax := int(maxPrct * float64(len(vI)))
	if iMin < 0 {
		iMin = 0
	}
	if iMax >= len(vI) {
		iMax = len(vI) - 1
	}

	return vI[iMin], vI[iMax]
}

func (fg *FloatGrid) MinMax() (float64, float64) {
	min := math.MaxFloat64
	max := -1.0 * min

	for i := 0; i < len(fg.values); i++ {
		if fg.values[i] > max {
			max = fg.values[i]
		}
		if fg.values[i] < min {
			min = fg.values[i]
		}
	}
	return min, max
}

func (fg *FloatGrid) Stats() string {
	min, max := fg.MinMax()
	return fmt.Sprintf("fg[%dx%d, vals{%f,%f}]", fg.Dx(), fg.Dy(), min, max)
}

// ToImg saves a simple grayscale, based on the range of values in the grid, and gamma scaling the
// gray to look normal for human vision
func (fg *FloatGrid) ToImg(title, filename string) error {
	min, max := fg.MinMax()
	if max <= min {
		max = min + 1
	}

	img := image.NewRGBA64(image.Rectangle{Max: image.Point{fg.Dx(), fg.Dy()}})
	for x := 0; x < fg.Dx(); x++ {
		for y := 0; y < fg.Dy(); y++ {
			lum := fg.Get(x, y)
			gray := GammaExpand_F64((lum - min) / (max - min))
			col := color.RGBA64{uint16(gray * 65535.0), uint16(gray * 65535.0), uint16(gray * 65535.0), 0xFFFF}
			img.Set(x, y, col)
		}
	}

	dc := gg.NewContextForImage(img)
	dc.SetRGB(1, 0, 0)
	dc.DrawString(title, 20, 20)
	return dc.SavePNG(filename)
}
