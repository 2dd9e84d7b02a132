package panorama

import(
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v2"
)

// A ControlPoint says that a pixel in one image shows the same thing as a
// pixel in another. Coordinates are image pixels, origin top-left.
type ControlPoint struct {
	Image1 int
	X1, Y1 float64
	Image2 int
	X2, Y2 float64
}

func (cp ControlPoint) String() string {
	return fmt.Sprintf("cp[%d(%.1f,%.1f) <-> %d(%.1f,%.1f)]", cp.Image1, cp.X1, cp.Y1, cp.Image2, cp.X2, cp.Y2)
}

// A Project is everything needed to build a panorama: the output options,
// the images that go into it, and the control points that tie them
// together. It is loaded from (and can be dumped back to) YAML.
type Project struct {
	Verbosity     int

	Options
	Images        []SrcImage
	ControlPoints []ControlPoint

	// Which parameters the optimizer may change, per image; e.g. {"y","p","r"}.
	// Image 0 is the anchor, and never gets its orientation changed.
	Optimize      []string

	// Where the project file was loaded from; relative image filenames
	// are resolved against its directory.
	Dir           string  `yaml:"-"`
}

func NewProject() Project {
	return Project{
		Options: NewOptions(),
		Images:  []SrcImage{},
	}
}

func newProjectFromYaml(b []byte) (Project, error) {
	p := NewProject()
	err := yaml.Unmarshal(b, &p)
	return p, err
}

func (p Project) AsYaml() string {
	b, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Sprintf("# Can't marshal project yaml: %v\n", err)
	}
	return string(b)
}

func (p Project) String() string {
	str := fmt.Sprintf("Project %s [\n", p.Options)
	for i, si := range p.Images {
		str += fmt.Sprintf("  %2d: %s\n", i, si)
	}
	return str + fmt.Sprintf("] (%d control points)\n", len(p.ControlPoints))
}

// Validate checks the options, every image and every control point, and
// returns all the problems found. Malformed lens parameters get caught
// here, before any transform is built.
func (p Project) Validate() error {
	err := p.Options.Validate()

	if len(p.Images) == 0 {
		err = multierr.Append(err, ErrNoImages)
	}
	for _, si := range p.Images {
		err = multierr.Append(err, si.Validate())
	}

	for i, cp := range p.ControlPoints {
		if cp.Image1 < 0 || cp.Image1 >= len(p.Images) || cp.Image2 < 0 || cp.Image2 >= len(p.Images) {
			err = multierr.Append(err, errors.Errorf("control point %d: %s refers to missing image", i, cp))
		}
	}

	for _, v := range p.Optimize {
		switch v {
		case "y", "p", "r", "v", "a", "b", "c":
		default:
			err = multierr.Append(err, errors.Errorf("can't optimize unknown variable %q", v))
		}
	}

	return err
}

// ReferenceEV is the exposure everything gets normalised to: the first
// image that has one.
func (p Project) ReferenceEV() ExposureValue {
	for _, si := range p.Images {
		if si.ExposureValue.Known() {
			return si.ExposureValue
		}
	}
	return ExposureValue{}
}
