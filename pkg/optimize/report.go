package optimize

import(
	"fmt"
	"math"

	"github.com/codahale/hdrhistogram"
)

// Residuals are recorded in milli-pixels; anything past a million pixels
// is clamped.
const(
	milliPixels = 1000.0
	maxRecorded = int64(1e9)
)

// A Report summarises how well the control points line up, in pixels.
type Report struct {
	N             int
	Mean, Max     float64
	P50, P90, P99 float64
	Worst         int // index of the control point with the biggest residual
	Unrecorded    int // residuals the histogram refused; not in the percentiles
}

// recordable clamps a residual into the histogram's range. Residuals can't
// be negative; a NaN counts as the worst possible.
func recordable(v float64) int64 {
	switch {
	case math.IsNaN(v), v*milliPixels >= float64(maxRecorded):
		return maxRecorded
	case v <= 0:
		return 0
	}
	return int64(math.Round(v * milliPixels))
}

func NewReport(res []float64) Report {
	r := Report{N: len(res), Worst: -1}
	if len(res) == 0 {
		return r
	}

	h := hdrhistogram.New(1, maxRecorded, 3)
	sum := 0.0
	for i, v := range res {
		sum += v
		if v > r.Max || r.Worst < 0 {
			r.Max, r.Worst = v, i
		}
		if err := h.RecordValue(recordable(v)); err != nil {
			r.Unrecorded++
		}
	}

	r.Mean = sum / float64(len(res))
	r.P50 = float64(h.ValueAtQuantile(50)) / milliPixels
	r.P90 = float64(h.ValueAtQuantile(90)) / milliPixels
	r.P99 = float64(h.ValueAtQuantile(99)) / milliPixels
	return r
}

func (r Report) String() string {
	if r.N == 0 {
		return "no control points"
	}
	str := fmt.Sprintf("%d cps: mean %.3fpx, max %.3fpx (cp %d), p50/p90/p99 %.3f/%.3f/%.3fpx",
		r.N, r.Mean, r.Max, r.Worst, r.P50, r.P90, r.P99)
	if r.Unrecorded > 0 {
		str += fmt.Sprintf(" (%d unrecorded)", r.Unrecorded)
	}
	return str
}
