package remap

import(
	"fmt"

	"github.com/mdouchement/hdr/tmo"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var(
	Tonemappers = []string{"drago03", "durand", "icam06", "linear", "reinhard05"}
)

func ListTonemappers() string {
	return fmt.Sprintf("%v", Tonemappers)
}

// Tonemap runs the named operator (or all of them, for "all") and writes
// each result out as `<basename>-tmo-<name>.png`. It returns the files it
// wrote.
func (c *Canvas) Tonemap(log *zap.SugaredLogger, name, basename string) ([]string, error) {
	names := []string{name}
	if name == "all" {
		log.Infof("Tonemapping (using all operators)")
		names = Tonemappers
	}

	files := []string{}
	for _, n := range names {
		op, err := c.SetupTonemapper(n)
		if err != nil {
			return files, err
		}
		filename := fmt.Sprintf("%s-tmo-%s.png", basename, n)
		log.Infof("Tonemapping: %s -> %s", n, filename)
		if err := WritePNG(op.Perform(), filename); err != nil {
			return files, err
		}
		files = append(files, filename)
	}
	return files, nil
}

// Tweak the tmo parameters for panoramas. A sky in the frame is usually
// far brighter than the ground, and the defaults blow it out.
func (c *Canvas) SetupTonemapper(name string) (tmo.ToneMappingOperator, error) {
	switch name {
	case "drago03":
		op := tmo.NewDefaultDrago03(c)
		op.Bias = 1.0
		return op, nil

	case "durand":
		return tmo.NewDefaultDurand(c), nil

	case "icam06":
		op := tmo.NewDefaultICam06(c)
		op.Contrast = 0.65
		op.MaxClipping = 0.99999
		return op, nil

	case "linear":
		return tmo.NewLinear(c), nil

	case "reinhard05":
		op := tmo.NewDefaultReinhard05(c)
		op.Chromatic = 0.005
		op.Light = 0.005
		return op, nil
	}

	return nil, errors.Errorf("ToneMapper %q not recognized, wanted %s", name, ListTonemappers())
}
