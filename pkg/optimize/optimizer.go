package optimize

import(
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/optimize"

	"github.com/abworrall/panostitch/pkg/panorama"
)

// A variable the optimizer can change, and how to get at it. The scale
// puts every variable into roughly the same units for the simplex: degrees
// for angles, hundredths for the distortion coefficients.
type param struct {
	field func(si *panorama.SrcImage) *float64
	scale float64
}

var params = map[string]param{
	"y": {func(si *panorama.SrcImage) *float64 { return &si.Yaw }, 1.0},
	"p": {func(si *panorama.SrcImage) *float64 { return &si.Pitch }, 1.0},
	"r": {func(si *panorama.SrcImage) *float64 { return &si.Roll }, 1.0},
	"v": {func(si *panorama.SrcImage) *float64 { return &si.HFOV }, 1.0},
	"a": {func(si *panorama.SrcImage) *float64 { return &si.A }, 0.01},
	"b": {func(si *panorama.SrcImage) *float64 { return &si.B }, 0.01},
	"c": {func(si *panorama.SrcImage) *float64 { return &si.C }, 0.01},
}

// Image 0 fixes the orientation of the whole panorama.
func isAnchored(image int, name string) bool {
	return image == 0 && (name == "y" || name == "p" || name == "r")
}

// A Var is one parameter of one image.
type Var struct {
	Image int
	Name  string
}

func (v Var) String() string { return fmt.Sprintf("%s%d", v.Name, v.Image) }

// Anything that can't be evaluated (a bad fov, a lens that folds back on
// itself) costs this much, so the simplex walks away from it.
const penalty = 1e20

const DefaultMaxEvals = 20000

// An Optimizer adjusts image parameters to minimise the sum of squared
// control point residuals, using Nelder-Mead.
type Optimizer struct {
	Project  panorama.Project
	Vars     []Var
	MaxEvals int

	log      *zap.SugaredLogger
}

type Result struct {
	Images    []panorama.SrcImage
	Before    Report
	After     Report
	FuncEvals int
	Status    string
}

func (r Result) String() string {
	return fmt.Sprintf("%s after %d evals\n  before: %s\n  after:  %s", r.Status, r.FuncEvals, r.Before, r.After)
}

func NewOptimizer(log *zap.SugaredLogger, p panorama.Project) (*Optimizer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(p.ControlPoints) == 0 {
		return nil, ErrNoControlPoints
	}

	o := Optimizer{Project: p, MaxEvals: DefaultMaxEvals, log: log}
	for i := range p.Images {
		for _, name := range p.Optimize {
			if isAnchored(i, name) {
				continue
			}
			o.Vars = append(o.Vars, Var{Image: i, Name: name})
		}
	}
	if len(o.Vars) == 0 {
		return nil, errors.Errorf("nothing to optimize (asked for %v)", p.Optimize)
	}

	return &o, nil
}

func (o *Optimizer) initial() []float64 {
	x := make([]float64, len(o.Vars))
	for i, v := range o.Vars {
		pm := params[v.Name]
		x[i] = *pm.field(&o.Project.Images[v.Image]) / pm.scale
	}
	return x
}

// imagesAt is a copy of the project's images, with the vars set from x.
func (o *Optimizer) imagesAt(x []float64) []panorama.SrcImage {
	imgs := append([]panorama.SrcImage(nil), o.Project.Images...)
	for i, v := range o.Vars {
		pm := params[v.Name]
		*pm.field(&imgs[v.Image]) = x[i] * pm.scale
	}
	return imgs
}

func (o *Optimizer) cost(x []float64) float64 {
	imgs := o.imagesAt(x)
	for _, si := range imgs {
		if si.Validate() != nil {
			return penalty
		}
	}

	res, err := Residuals(imgs, o.Project.Options, o.Project.ControlPoints)
	if err != nil {
		return penalty
	}
	sum := 0.0
	for _, r := range res {
		sum += r * r
	}
	return sum
}

func (o *Optimizer) report(imgs []panorama.SrcImage) (Report, error) {
	res, err := Residuals(imgs, o.Project.Options, o.Project.ControlPoints)
	if err != nil {
		return Report{}, err
	}
	return NewReport(res), nil
}

// Run does the optimization, and returns the improved images. The
// project itself is left alone. A cancelled context stops the run.
func (o *Optimizer) Run(ctx context.Context) (Result, error) {
	result := Result{}

	before, err := o.report(o.Project.Images)
	if err != nil {
		return result, err
	}
	result.Before = before
	o.log.Infof("Optimizing %v over %d control points; %s", o.Vars, len(o.Project.ControlPoints), before)

	problem := optimize.Problem{
		Func: o.cost,
		Status: func() (optimize.Status, error) {
			if err := ctx.Err(); err != nil {
				return optimize.Failure, err
			}
			return optimize.NotTerminated, nil
		},
	}
	settings := &optimize.Settings{
		FuncEvaluations: o.MaxEvals,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-12,
			Relative:   1e-12,
			Iterations: 100,
		},
	}

	res, err := optimize.Minimize(problem, o.initial(), settings, &optimize.NelderMead{})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, ctxErr
	} else if err != nil {
		return result, errors.Wrap(err, "optimize")
	}
	if err := res.Status.Err(); err != nil {
		o.log.Warnf("Optimizer stopped early: %v", err)
	}

	result.Images = o.imagesAt(res.X)
	result.FuncEvals = res.Stats.FuncEvaluations
	result.Status = res.Status.String()
	if result.After, err = o.report(result.Images); err != nil {
		return result, err
	}

	for i, v := range o.Vars {
		o.log.Debugf("  %-4s %12.6f", v, res.X[i]*params[v.Name].scale)
	}
	o.log.Infof("Optimized: %s", result.After)
	return result, nil
}
