package remap

import(
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/pkg/errors"
	"go.uber.org/zap/zaptest"
	"go.viam.com/test"

	"github.com/abworrall/panostitch/pkg/ecolor"
	"github.com/abworrall/panostitch/pkg/panorama"
	"github.com/abworrall/panostitch/pkg/xform"
)

func testImage(w, h int) *image.RGBA64 {
	img := image.NewRGBA64(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.SetRGBA64(x, y, color.RGBA64{uint16(x * 1000), uint16(y * 1000), 0x8000, 0xffff})
		}
	}
	return img
}

// identitySetup has a rectilinear image and a canvas with exactly the
// same geometry, so every stack is empty.
func identitySetup(interp, blender string) (panorama.SrcImage, panorama.Options) {
	img := testImage(64, 48)
	src := panorama.SrcImage{Filename: "id.png", Width: 64, Height: 48, Projection: panorama.Rectilinear, HFOV: 50, Pixels: img}

	opts := panorama.NewOptions()
	opts.Projection, opts.HFOV, opts.Width, opts.Height = panorama.Rectilinear, 50, 64, 48
	opts.Interpolator, opts.Blender = interp, blender
	opts.Workers = 4
	return src, opts
}

func TestIdentityRemap(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()

	for _, interp := range Interpolators {
		t.Run(interp, func(t *testing.T) {
			src, opts := identitySetup(interp, "average")
			r, err := NewRemapper(logger, opts)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, r.RemapImage(context.Background(), src), test.ShouldBeNil)

			for x := 0; x < 64; x++ {
				for y := 0; y < 48; y++ {
					want := ecolor.NewCameraNative(src.Pixels.At(x, y), 1.0).RGB
					p := r.Canvas.Pix(x, y)
					test.That(t, p.NumImages, test.ShouldEqual, 1)
					got := p.Value()
					test.That(t, got.R, test.ShouldAlmostEqual, want.R, 1e-9)
					test.That(t, got.G, test.ShouldAlmostEqual, want.G, 1e-9)
					test.That(t, got.B, test.ShouldAlmostEqual, want.B, 1e-9)
				}
			}
		})
	}
}

func TestBlendAndExposure(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	src, opts := identitySetup("nearest", "average")

	r, err := NewRemapper(logger, opts)
	test.That(t, err, test.ShouldBeNil)
	r.RefEV = panorama.ExposureValue{ISO: 100, EV: 10}

	// The same shot, at the reference exposure and with one stop more light
	src.ExposureValue = panorama.ExposureValue{ISO: 100, EV: 10}
	test.That(t, r.RemapImage(context.Background(), src), test.ShouldBeNil)
	src.ExposureValue = panorama.ExposureValue{ISO: 100, EV: 9}
	test.That(t, r.RemapImage(context.Background(), src), test.ShouldBeNil)

	want := ecolor.NewCameraNative(src.Pixels.At(10, 20), 1.0).RGB
	p := r.Canvas.Pix(10, 20)
	test.That(t, p.NumImages, test.ShouldEqual, 2)
	test.That(t, p.Value().B, test.ShouldAlmostEqual, (want.B+want.B/2)/2, 1e-9)

	// Overwrite only keeps the last one
	opts.Blender = "overwrite"
	r, err = NewRemapper(logger, opts)
	test.That(t, err, test.ShouldBeNil)
	r.RefEV = panorama.ExposureValue{ISO: 100, EV: 10}
	src.ExposureValue = panorama.ExposureValue{ISO: 100, EV: 10}
	test.That(t, r.RemapImage(context.Background(), src), test.ShouldBeNil)
	src.ExposureValue = panorama.ExposureValue{ISO: 100, EV: 9}
	test.That(t, r.RemapImage(context.Background(), src), test.ShouldBeNil)
	test.That(t, r.Canvas.Pix(10, 20).Value().B, test.ShouldAlmostEqual, want.B/2, 1e-9)
}

func TestRemapVignetting(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	src, opts := identitySetup("nearest", "average")
	src.VigMode = panorama.VigRadial
	src.VigCoeffs = [4]float64{0.5, 0, 0, 0}

	r, err := NewRemapper(logger, opts)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.RemapImage(context.Background(), src), test.ShouldBeNil)

	want := ecolor.NewCameraNative(src.Pixels.At(5, 5), 1.0).RGB
	test.That(t, r.Canvas.Pix(5, 5).Value().B, test.ShouldAlmostEqual, want.B*2, 1e-9)
}

func TestRegionOfInterest(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()

	opts := panorama.NewOptions()
	opts.Width, opts.Height = 720, 360
	opts.Interpolator = "nearest"

	img := testImage(40, 30)
	src := panorama.SrcImage{Filename: "small.png", Width: 40, Height: 30, Projection: panorama.Rectilinear, HFOV: 20, Pixels: img}

	r, err := NewRemapper(logger, opts)
	test.That(t, err, test.ShouldBeNil)

	roi, err := r.RegionOfInterest(src)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, roi.Dx(), test.ShouldBeLessThan, 60)
	test.That(t, roi.Dx(), test.ShouldBeGreaterThan, 38)
	test.That(t, roi.Min.X, test.ShouldBeLessThanOrEqualTo, 340)
	test.That(t, roi.Max.X, test.ShouldBeGreaterThanOrEqualTo, 380)

	test.That(t, r.RemapImage(context.Background(), src), test.ShouldBeNil)
	test.That(t, r.Canvas.Pix(360, 180).NumImages, test.ShouldEqual, 1)
	test.That(t, r.Canvas.Pix(10, 10).NumImages, test.ShouldEqual, 0)
	test.That(t, r.Canvas.Pix(360, 10).NumImages, test.ShouldEqual, 0)

	// Behind the camera, straddling the seam: the whole canvas
	src.Yaw = 180
	roi, err = r.RegionOfInterest(src)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, roi, test.ShouldResemble, r.Canvas.Bounds())
}

func TestRemapTCA(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	src, opts := identitySetup("bilinear", "average")
	src.RadialRed = [3]float64{0, 0.01, 0}

	r, err := NewRemapper(logger, opts)
	test.That(t, err, test.ShouldBeNil)
	stacks, err := r.buildStacks(src)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, stacks.shared(), test.ShouldBeFalse)
	test.That(t, stacks[1].IsIdentity(), test.ShouldBeTrue)
	test.That(t, stacks[0].IsIdentity(), test.ShouldBeFalse)

	test.That(t, r.RemapImage(context.Background(), src), test.ShouldBeNil)

	// Green and blue are untouched
	want := ecolor.NewCameraNative(src.Pixels.At(20, 30), 1.0).RGB
	got := r.Canvas.Pix(20, 30).Value()
	test.That(t, got.G, test.ShouldAlmostEqual, want.G, 1e-9)
	test.That(t, got.B, test.ShouldAlmostEqual, want.B, 1e-9)
}

func TestRemapErrors(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	src, opts := identitySetup("nearest", "average")

	opts.Interpolator = "lanczos"
	_, err := NewRemapper(logger, opts)
	test.That(t, err, test.ShouldNotBeNil)

	opts.Interpolator = "nearest"
	r, err := NewRemapper(logger, opts)
	test.That(t, err, test.ShouldBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = r.RemapImage(ctx, src)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)

	src.Pixels = nil
	test.That(t, r.RemapImage(context.Background(), src), test.ShouldNotBeNil)

	_, err = GetBlender("smudge")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestOutputs(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	src, opts := identitySetup("nearest", "average")
	r, err := NewRemapper(logger, opts)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.RemapImage(context.Background(), src), test.ShouldBeNil)

	dir := t.TempDir()
	hdrFile := filepath.Join(dir, "pano.hdr")
	test.That(t, r.Canvas.WriteToHDR(hdrFile), test.ShouldBeNil)

	f, err := os.Open(hdrFile)
	test.That(t, err, test.ShouldBeNil)
	defer f.Close()
	img, err := rgbe.Decode(f)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, img.Bounds(), test.ShouldResemble, r.Canvas.Bounds())

	files, err := r.Canvas.Tonemap(logger, "linear", filepath.Join(dir, "pano"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, files, test.ShouldResemble, []string{filepath.Join(dir, "pano-tmo-linear.png")})
	_, err = os.Stat(files[0])
	test.That(t, err, test.ShouldBeNil)

	_, err = r.Canvas.SetupTonemapper("fattal02")
	test.That(t, err, test.ShouldNotBeNil)

	cov := r.Canvas.Coverage()
	test.That(t, cov.Get(3, 3), test.ShouldEqual, 1.0)
	test.That(t, r.Canvas.Preview().Bounds(), test.ShouldResemble, r.Canvas.Bounds())
}

func TestDrawOutlines(t *testing.T) {
	opts := panorama.NewOptions()
	opts.Width, opts.Height = 360, 180

	outlines := []xform.Outline{}
	for _, yaw := range []float64{-30, 30, 180} {
		src := panorama.SrcImage{Width: 400, Height: 300, Projection: panorama.Rectilinear, HFOV: 50, Yaw: yaw}
		st, err := xform.CreateInvTransform(src, opts)
		test.That(t, err, test.ShouldBeNil)
		outlines = append(outlines, xform.TraceImageOutline(src.Width, src.Height, st, 20))
	}

	img := DrawOutlines(nil, opts.Width, opts.Height, outlines, []string{"a", "b", "c"})
	test.That(t, img.Bounds(), test.ShouldResemble, image.Rect(0, 0, 360, 180))

	lit := 0
	for x := 0; x < 360; x++ {
		for y := 0; y < 180; y++ {
			if r, g, b, _ := img.At(x, y).RGBA(); r+g+b > 0 {
				lit++
			}
		}
	}
	test.That(t, lit, test.ShouldBeGreaterThan, 100)

	test.That(t, PickColor(0, 3), test.ShouldNotResemble, PickColor(1, 3))
}
