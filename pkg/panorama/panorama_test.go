package panorama

import(
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest"
	"go.viam.com/test"
	"gopkg.in/yaml.v2"
)

func TestProjectionNames(t *testing.T) {
	for _, name := range ListProjections() {
		p, err := ParseProjection(name)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, p.String(), test.ShouldEqual, name)
		test.That(t, p.Valid(), test.ShouldBeTrue)
	}

	p, err := ParseProjection(" Panoramic ")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p, test.ShouldEqual, Cylindrical)

	_, err = ParseProjection("globe")
	test.That(t, errors.Is(err, ErrInvalidProjection), test.ShouldBeTrue)

	test.That(t, Projection(99).Valid(), test.ShouldBeFalse)
	test.That(t, Projection(-1).Valid(), test.ShouldBeFalse)
}

func TestProjectionYaml(t *testing.T) {
	type wrapper struct {
		Proj Projection
		List []Projection
	}
	in := wrapper{Proj: Stereographic, List: []Projection{Rectilinear, Panini, Mercator}}

	b, err := yaml.Marshal(in)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(b), test.ShouldContainSubstring, "proj: stereographic")

	var out wrapper
	test.That(t, yaml.Unmarshal(b, &out), test.ShouldBeNil)
	test.That(t, out, test.ShouldResemble, in)

	test.That(t, yaml.Unmarshal([]byte("proj: teapot\n"), &out), test.ShouldNotBeNil)
}

func TestValidHFOV(t *testing.T) {
	test.That(t, Rectilinear.ValidHFOV(179.9), test.ShouldBeTrue)
	test.That(t, Rectilinear.ValidHFOV(180), test.ShouldBeFalse)
	test.That(t, Equirectangular.ValidHFOV(360), test.ShouldBeTrue)
	test.That(t, Equirectangular.ValidHFOV(0), test.ShouldBeFalse)
	test.That(t, Stereographic.ValidHFOV(360), test.ShouldBeFalse)
	test.That(t, CircularFisheye.ValidHFOV(200), test.ShouldBeTrue)
}

func TestValidateReportsEverything(t *testing.T) {
	p := NewProject()
	p.Width = 0
	p.Blender = "smudge"
	p.Images = []SrcImage{
		{Filename: "a.tif", Width: 100, Height: 100, Projection: Rectilinear, HFOV: 190},
		{Filename: "b.tif", Width: -1, Height: 100, Projection: Projection(42), HFOV: 50, VigMode: "sepia"},
	}
	p.ControlPoints = []ControlPoint{{Image1: 0, Image2: 5}}
	p.Optimize = []string{"y", "zoom"}

	err := p.Validate()
	test.That(t, err, test.ShouldNotBeNil)

	errs := multierr.Errors(err)
	test.That(t, errs, test.ShouldHaveLength, 8)

	// width, blender, a's hfov, b's size, b's projection, b's vignetting,
	// the control point, the optimize variable
	test.That(t, err.Error(), test.ShouldContainSubstring, "a.tif")
	test.That(t, err.Error(), test.ShouldContainSubstring, "sepia")
	test.That(t, err.Error(), test.ShouldContainSubstring, "zoom")

	nFOV, nProj := 0, 0
	for _, e := range errs {
		if errors.Is(e, ErrInvalidFOV) {
			nFOV++
		}
		if errors.Is(e, ErrInvalidProjection) {
			nProj++
		}
	}
	test.That(t, nFOV, test.ShouldEqual, 1)
	test.That(t, nProj, test.ShouldEqual, 1)
}

func TestValidateEmptyProject(t *testing.T) {
	p := NewProject()
	err := p.Validate()
	test.That(t, errors.Is(err, ErrNoImages), test.ShouldBeTrue)
}

func TestCalcHFOV(t *testing.T) {
	// A 50mm lens on full frame, landscape: 2*atan(18/50)
	hfov, err := CalcHFOV(Rectilinear, 50, 1.0, 1.5)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, hfov, test.ShouldAlmostEqual, 2*math.Atan(18.0/50.0)*180/math.Pi, 1e-9)

	for _, proj := range []Projection{Rectilinear, Cylindrical, FullFrameFisheye, EquisolidFisheye, Stereographic} {
		hfov, err := CalcHFOV(proj, 10.5, 1.5, 1.5)
		test.That(t, err, test.ShouldBeNil)
		f, err := CalcFocalLength(proj, hfov, 1.5, 1.5)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, f, test.ShouldAlmostEqual, 10.5, 1e-9)
	}

	_, err = CalcFocalLength(Rectilinear, 200, 1, 1.5)
	test.That(t, errors.Is(err, ErrInvalidFOV), test.ShouldBeTrue)
}

func TestExposureValue(t *testing.T) {
	ev := ExposureValue{ISO: 100, FNumber: 8, ExposureTime: Rational{1, 250}}
	test.That(t, ev.Compute(), test.ShouldBeNil)
	test.That(t, ev.EV, test.ShouldAlmostEqual, math.Log2(64*250), 1e-12)

	// Same scene at ISO 400: two stops less light needed
	ev2 := ExposureValue{ISO: 400, FNumber: 8, ExposureTime: Rational{1, 1000}}
	test.That(t, ev2.Compute(), test.ShouldBeNil)
	test.That(t, ev2.EV, test.ShouldAlmostEqual, ev.EV, 1e-12)

	// Twice the light: one stop lower, and values get halved to match
	ev3 := ExposureValue{ISO: 100, FNumber: 8, ExposureTime: Rational{1, 125}}
	test.That(t, ev3.Compute(), test.ShouldBeNil)
	test.That(t, ev3.ScaleTo(ev), test.ShouldAlmostEqual, 0.5, 1e-12)

	test.That(t, ExposureValue{}.ScaleTo(ev), test.ShouldEqual, 1.0)
	test.That(t, (&ExposureValue{ISO: 100}).Compute(), test.ShouldNotBeNil)
}

func writeTestPNG(t *testing.T, filename string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	f, err := os.Create(filename)
	test.That(t, err, test.ShouldBeNil)
	defer f.Close()
	test.That(t, png.Encode(f, img), test.ShouldBeNil)
}

func TestLoadFilesAndDirs(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	dir := t.TempDir()

	imgDir := filepath.Join(dir, "imgs")
	test.That(t, os.Mkdir(imgDir, 0755), test.ShouldBeNil)
	writeTestPNG(t, filepath.Join(imgDir, "left.png"), 40, 30)
	writeTestPNG(t, filepath.Join(imgDir, "right.png"), 40, 30)

	projYaml := `
options:
  projection: cylindrical
  hfov: 120
  width: 300
  height: 100
images:
- filename: imgs/left.png
  projection: rectilinear
  hfov: 60
  yaw: -20
- filename: imgs/right.png
  projection: rectilinear
  hfov: 60
  yaw: 20
  b: -0.01
controlpoints:
- {image1: 0, x1: 30, y1: 15, image2: 1, x2: 10, y2: 15}
`
	projFile := filepath.Join(dir, "pano.yaml")
	test.That(t, os.WriteFile(projFile, []byte(projYaml), 0644), test.ShouldBeNil)

	p := NewProject()
	test.That(t, p.LoadFilesAndDirs(logger, projFile), test.ShouldBeNil)
	test.That(t, p.Validate(), test.ShouldBeNil)

	test.That(t, p.Projection, test.ShouldEqual, Cylindrical)
	test.That(t, p.Images, test.ShouldHaveLength, 2)
	test.That(t, p.Images[1].B, test.ShouldEqual, -0.01)
	test.That(t, p.Images[1].Yaw, test.ShouldEqual, 20.0)
	test.That(t, p.Images[0].Pixels, test.ShouldNotBeNil)
	test.That(t, p.Images[0].Width, test.ShouldEqual, 40)
	test.That(t, p.ControlPoints, test.ShouldHaveLength, 1)
	test.That(t, p.ControlPoints[0].X2, test.ShouldEqual, 10.0)

	// Unset options keep their defaults
	test.That(t, p.Interpolator, test.ShouldEqual, "bilinear")

	// A dir of images, with no project file
	p2 := NewProject()
	test.That(t, p2.LoadFilesAndDirs(logger, imgDir), test.ShouldBeNil)
	test.That(t, p2.Images, test.ShouldHaveLength, 2)
	test.That(t, p2.Images[0].Base(), test.ShouldEqual, "left.png")
	test.That(t, p2.Images[0].HFOV, test.ShouldEqual, DefaultHFOV)
	test.That(t, p2.Images[1].Width, test.ShouldEqual, 40)

	test.That(t, p.LoadFilesAndDirs(logger, filepath.Join(dir, "nope.png")), test.ShouldNotBeNil)
}

func TestLoadImageNoExif(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	filename := filepath.Join(t.TempDir(), "plain.png")
	writeTestPNG(t, filename, 16, 8)

	si, err := LoadImage(logger, filename)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, si.Width, test.ShouldEqual, 16)
	test.That(t, si.Height, test.ShouldEqual, 8)
	test.That(t, si.HFOV, test.ShouldEqual, DefaultHFOV)
	test.That(t, si.ExposureValue.Known(), test.ShouldBeFalse)
	test.That(t, si.Validate(), test.ShouldBeNil)
}

func TestProjectYamlRoundTrip(t *testing.T) {
	p := NewProject()
	p.Images = append(p.Images, SrcImage{Filename: "x.tif", Width: 10, Height: 10, Projection: EquisolidFisheye, HFOV: 150, RadialRed: [3]float64{0, 0, 0.001}})
	b := p.AsYaml()
	test.That(t, b, test.ShouldContainSubstring, "equisolid-fisheye")

	p2, err := newProjectFromYaml([]byte(b))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p2.Images[0].Projection, test.ShouldEqual, EquisolidFisheye)
	test.That(t, p2.Images[0].RadialRed, test.ShouldResemble, [3]float64{0, 0, 0.001})
	test.That(t, p2.Options, test.ShouldResemble, p.Options)
}
