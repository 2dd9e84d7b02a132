package panorama

import(
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// A Rational is how EXIF stores things like exposure times (1/2000).
type Rational [2]int64

func (r Rational) Float() float64 {
	if r[1] == 0 {
		return 0
	}
	return float64(r[0]) / float64(r[1])
}

func (r Rational) String() string {
	if r[1] == 1 {
		return fmt.Sprintf("%d", r[0])
	}
	return fmt.Sprintf("%d/%d", r[0], r[1])
}

// An ExposureValue details how the photograph was exposed. Images in a
// panorama are often shot with different exposures; before blending, the
// pixel values are scaled so they all look as if they were shot at the
// same EV.
//
// https://en.wikipedia.org/wiki/Exposure_value
type ExposureValue struct {
	ISO          int64     // 100, 800, etc.
	FNumber      float64   // f/5.6 is 5.6
	ExposureTime Rational  // 1/500, 1/1000, etc.

	// The EV, corrected to ISO100. Bigger means less light reached the
	// sensor. Figured out by Compute, but can be set directly in a project
	// file when there is no EXIF data.
	EV float64
}

// Known is true once there is an EV to work with.
func (ev ExposureValue) Known() bool { return ev.EV != 0 || ev.ISO != 0 }

func (ev ExposureValue) String() string {
	if !ev.Known() {
		return "EV[unknown]"
	}
	return fmt.Sprintf("f/%.1f, %ss, ISO%d, EV %.2f", ev.FNumber, ev.ExposureTime, ev.ISO, ev.EV)
}

// Compute derives EV from the aperture, shutter speed and ISO:
// EV = log2(N^2/t) - log2(ISO/100)
func (ev *ExposureValue) Compute() error {
	t := ev.ExposureTime.Float()
	switch {
	case ev.ISO <= 0:
		return errors.Errorf("bad ISO %d", ev.ISO)
	case ev.FNumber <= 0:
		return errors.Errorf("bad FNumber %f", ev.FNumber)
	case t <= 0:
		return errors.Errorf("bad ExposureTime %s", ev.ExposureTime)
	}

	ev.EV = math.Log2(ev.FNumber*ev.FNumber/t) - math.Log2(float64(ev.ISO)/100.0)

	// Daylight is ~EV15, a dim room EV5; way outside that, the EXIF is lying.
	if ev.EV < -10 || ev.EV > 25 {
		return errors.Errorf("exposure info looks suspicious, EV=%.2f: %s", ev.EV, ev)
	}
	return nil
}

// ScaleTo returns the factor that rescales pixel values from this exposure
// to one taken at `ref`. An image that got twice the light of the reference
// (one stop lower EV) gets halved.
func (ev ExposureValue) ScaleTo(ref ExposureValue) float64 {
	if !ev.Known() || !ref.Known() {
		return 1.0
	}
	return math.Pow(2.0, ev.EV-ref.EV)
}
