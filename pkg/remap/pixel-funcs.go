package remap

import(
	"fmt"

	"github.com/pkg/errors"

	"github.com/abworrall/panostitch/pkg/ecolor"
)

// A BlendFunc folds one image's (exposure normalised) value into a canvas
// pixel. Each canvas pixel is only ever touched by one goroutine at a time.
type BlendFunc func(p *Pixel, cn ecolor.CameraNative, weight float64)

var Blenders = []string{"average", "overwrite"}

func ListBlenders() string {
	return fmt.Sprintf("%v", Blenders)
}

// BlendByAverage is the default: every image that covers a pixel counts,
// weighted. Where exposures were normalised properly, the seams vanish.
func BlendByAverage(p *Pixel, cn ecolor.CameraNative, weight float64) {
	p.Sum = ecolor.AddRGB(p.Sum, ecolor.ScaleRGB(cn.RGB, weight))
	p.Weight += weight
	p.NumImages++
}

// BlendByOverwrite keeps only the last image to land on the pixel. Useful
// for seeing exactly where each image ends.
func BlendByOverwrite(p *Pixel, cn ecolor.CameraNative, weight float64) {
	p.Sum = ecolor.ScaleRGB(cn.RGB, weight)
	p.Weight = weight
	p.NumImages++
}

func GetBlender(name string) (BlendFunc, error) {
	switch name {
	case "", "average":
		return BlendByAverage, nil
	case "overwrite":
		return BlendByOverwrite, nil
	}
	return nil, errors.Errorf("blender %q not recognized, wanted %s", name, ListBlenders())
}
