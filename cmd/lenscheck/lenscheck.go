package main

import(
	"flag"
	"fmt"

	"go.uber.org/zap"

	"github.com/abworrall/panostitch/pkg/panorama"
	"github.com/abworrall/panostitch/pkg/xform"
)

var(
	fWidth int
	fHeight int
	fProjection string
	fHFOV float64
	fA, fB, fC float64
)

func init() {
	flag.IntVar(&fWidth, "width", 6000, "image width, in pixels")
	flag.IntVar(&fHeight, "height", 4000, "image height, in pixels")
	flag.StringVar(&fProjection, "projection", "rectilinear", "lens projection")
	flag.Float64Var(&fHFOV, "hfov", 50, "horizontal field of view, in degrees")
	flag.Float64Var(&fA, "a", 0, "radial distortion coefficient a (r^4)")
	flag.Float64Var(&fB, "b", 0, "radial distortion coefficient b (r^3)")
	flag.Float64Var(&fC, "c", 0, "radial distortion coefficient c (r^2)")
	flag.Parse()
}

// Reports how far a set of distortion coefficients can be trusted, and how
// much the corrected image would need scaling to fill the frame.
func main() {
	logger, _ := zap.NewDevelopment()
	log := logger.Sugar()
	defer log.Sync()

	proj, err := panorama.ParseProjection(fProjection)
	if err != nil {
		log.Fatal(err)
	}
	si := panorama.SrcImage{Filename: "lens", Width: fWidth, Height: fHeight, Projection: proj, HFOV: fHFOV, A: fA, B: fB, C: fC}
	if err := si.Validate(); err != nil {
		log.Fatal(err)
	}

	abcd := si.RadialCoeffs()
	if r, ok := xform.CorrectionRadiusOK(abcd[0], abcd[1], abcd[2], abcd[3]); ok {
		fmt.Printf("correction radius: %.4f (in half-short-sides)\n", r)
	} else {
		fmt.Printf("correction radius: unlimited (polynomial is monotonic)\n")
	}

	fmt.Printf("radial scale for crop: %.6f\n", xform.EstRadialScaleCrop(abcd, si.Width, si.Height))

	scale, err := xform.EstScaleFactorForFullFrame(si)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("scale for full frame: %.6f\n", scale)
}
