package panorama

import(
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// A Projection is a way of flattening the viewing sphere onto an image
// plane. Source images and the panorama canvas each have one.
type Projection int

const(
	Rectilinear Projection = iota
	Cylindrical            // a.k.a. "panoramic"
	Equirectangular
	FullFrameFisheye
	CircularFisheye
	EquisolidFisheye
	Stereographic
	Mercator
	Panini

	numProjections
)

var(
	ErrInvalidProjection = errors.New("invalid projection")
	ErrInvalidFOV        = errors.New("field of view out of range")
	ErrNoImages          = errors.New("no images")

	projectionNames = map[Projection]string{
		Rectilinear:      "rectilinear",
		Cylindrical:      "cylindrical",
		Equirectangular:  "equirectangular",
		FullFrameFisheye: "fullframe-fisheye",
		CircularFisheye:  "circular-fisheye",
		EquisolidFisheye: "equisolid-fisheye",
		Stereographic:    "stereographic",
		Mercator:         "mercator",
		Panini:           "panini",
	}

	// Extra spellings accepted when parsing
	projectionAliases = map[string]Projection{
		"panoramic": Cylindrical,
		"equirect":  Equirectangular,
		"fisheye":   FullFrameFisheye,
		"equisolid": EquisolidFisheye,
		"rect":      Rectilinear,
		"cylinder":  Cylindrical,
	}
)

func (p Projection) Valid() bool { return p >= 0 && p < numProjections }

func (p Projection) String() string {
	if name, exists := projectionNames[p]; exists {
		return name
	}
	return fmt.Sprintf("projection(%d)", int(p))
}

// ListProjections returns all the projection names, in enum order.
func ListProjections() []string {
	names := []string{}
	for p := Projection(0); p < numProjections; p++ {
		names = append(names, p.String())
	}
	return names
}

func ParseProjection(s string) (Projection, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for p, name := range projectionNames {
		if name == s {
			return p, nil
		}
	}
	if p, exists := projectionAliases[s]; exists {
		return p, nil
	}
	return -1, errors.Wrapf(ErrInvalidProjection, "%q (want one of %v)", s, ListProjections())
}

// MaxHFOV is the widest horizontal field of view (degrees) the projection can
// represent. Rectilinear and stereographic can never actually reach theirs.
func (p Projection) MaxHFOV() float64 {
	if p == Rectilinear {
		return 180
	}
	return 360
}

// FOVInclusive reports whether MaxHFOV itself is a legal value.
func (p Projection) FOVInclusive() bool {
	switch p {
	case Rectilinear, Stereographic, Panini:
		return false
	default:
		return true
	}
}

func (p Projection) ValidHFOV(hfov float64) bool {
	if hfov <= 0 {
		return false
	}
	if p.FOVInclusive() {
		return hfov <= p.MaxHFOV()
	}
	return hfov < p.MaxHFOV()
}

// IsErectLike is true for projections where x is linear in longitude, so a
// change of yaw is just a horizontal shift.
func (p Projection) IsErectLike() bool {
	switch p {
	case Equirectangular, Cylindrical, Mercator:
		return true
	}
	return false
}

func (p Projection) IsFisheye() bool {
	switch p {
	case FullFrameFisheye, CircularFisheye, EquisolidFisheye, Stereographic:
		return true
	}
	return false
}

// Implement yaml.Marshaler and yaml.Unmarshaler, so project files can use names
func (p Projection) MarshalYAML() (interface{}, error) {
	if !p.Valid() {
		return nil, errors.Wrapf(ErrInvalidProjection, "marshal %d", int(p))
	}
	return p.String(), nil
}

func (p *Projection) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseProjection(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
