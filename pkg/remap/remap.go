// Package remap renders source images onto the panorama canvas.
package remap

import(
	"context"
	"image"
	"runtime"

	"github.com/mdouchement/hdr/hdrcolor"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abworrall/panostitch/pkg/ecolor"
	"github.com/abworrall/panostitch/pkg/panorama"
	"github.com/abworrall/panostitch/pkg/xform"
)

// A Remapper owns the canvas, and pulls pixels from source images onto it.
// For each canvas pixel it asks the image's transform stack where to look,
// reads the source there, corrects vignetting and exposure, and blends.
type Remapper struct {
	panorama.Options
	RefEV  panorama.ExposureValue // everything is scaled to look like this exposure
	Canvas *Canvas

	log    *zap.SugaredLogger
	interp Interpolator
	blend  BlendFunc
}

func NewRemapper(log *zap.SugaredLogger, opts panorama.Options) (*Remapper, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	interp, err := GetInterpolator(opts.Interpolator)
	if err != nil {
		return nil, err
	}
	blend, err := GetBlender(opts.Blender)
	if err != nil {
		return nil, err
	}

	return &Remapper{
		Options: opts,
		Canvas:  NewCanvas(opts.Width, opts.Height),
		log:     log,
		interp:  interp,
		blend:   blend,
	}, nil
}

func (r *Remapper) workers() int {
	if r.Workers > 0 {
		return r.Workers
	}
	return runtime.NumCPU()
}

// channelStacks holds a stack per color channel, in xform.Channels order.
// Without TCA all three are the same stack.
type channelStacks [3]*xform.SpaceTransform

func (cs channelStacks) shared() bool { return cs[0] == cs[1] && cs[1] == cs[2] }

func (r *Remapper) buildStacks(src panorama.SrcImage) (channelStacks, error) {
	cs := channelStacks{}
	if !src.HasTCA() {
		st, err := xform.CreateTransform(src, r.Options)
		if err != nil {
			return cs, err
		}
		return channelStacks{st, st, st}, nil
	}

	for i, ch := range xform.Channels {
		cs[i] = &xform.SpaceTransform{}
		if err := cs[i].InitChannel(src, r.Options, ch); err != nil {
			return cs, err
		}
	}
	return cs, nil
}

// RegionOfInterest is the part of the canvas that src might land on,
// based on where its outline goes. When the outline wraps round the seam,
// or part of it doesn't land on the canvas projection at all, the
// outline can't bound the image, so the whole canvas is used.
func (r *Remapper) RegionOfInterest(src panorama.SrcImage) (image.Rectangle, error) {
	inv, err := xform.CreateInvTransform(src, r.Options)
	if err != nil {
		return image.Rectangle{}, err
	}

	canvas := r.Canvas.Bounds()
	o := xform.TraceImageOutline(src.Width, src.Height, inv, r.Samples())
	if o.NumCovered == 0 {
		return image.Rectangle{}, nil
	} else if o.NumCovered < o.NumSamples || o.Wraps(float64(r.Width)) {
		return canvas, nil
	}

	// One pixel of slack for the interpolators
	return o.BoundingBox.ImageRect().Inset(-1).Intersect(canvas), nil
}

// RemapImage renders one (loaded) image onto the canvas. Rows are spread
// over a pool of goroutines, which all share the read-only stacks; a
// cancelled context stops the work early.
func (r *Remapper) RemapImage(ctx context.Context, src panorama.SrcImage) error {
	if src.Pixels == nil {
		return errors.Errorf("%s: no pixels loaded", src.Base())
	}

	stacks, err := r.buildStacks(src)
	if err != nil {
		return err
	}
	roi, err := r.RegionOfInterest(src)
	if err != nil {
		return err
	}

	job := remapJob{
		src:    src,
		stacks: stacks,
		vig:    xform.NewVignetting(src),
		illum:  src.ExposureValue.ScaleTo(r.RefEV),
	}
	r.log.Infof("Remapping %s over %s (exposure x%.3f, tca=%v)", src, roi, job.illum, !stacks.shared())

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers())
	for y := roi.Min.Y; y < roi.Max.Y; y++ {
		y := y
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r.remapRow(job, y, roi.Min.X, roi.Max.X)
			return nil
		})
	}
	return g.Wait()
}

// RemapProject renders every image in the project, normalising exposures
// to the project's reference image.
func (r *Remapper) RemapProject(ctx context.Context, p panorama.Project) error {
	r.RefEV = p.ReferenceEV()
	for _, src := range p.Images {
		if err := r.RemapImage(ctx, src); err != nil {
			return errors.Wrapf(err, "remap %s", src.Base())
		}
	}
	r.log.Infof("Remapped %d images: %s", len(p.Images), r.Canvas)
	return nil
}

type remapJob struct {
	src    panorama.SrcImage
	stacks channelStacks
	vig    xform.Vignetting
	illum  float64
}

func (r *Remapper) remapRow(job remapJob, y, x0, x1 int) {
	for x := x0; x < x1; x++ {
		cn, ok := r.samplePixel(job, float64(x)+0.5, float64(y)+0.5)
		if !ok {
			continue
		}
		r.blend(r.Canvas.PixRW(x, y), cn, 1.0)
	}
}

// sampleAt reads the source at the point the stack maps (px,py) to, and
// undoes the vignetting there.
func (r *Remapper) sampleAt(job remapJob, st *xform.SpaceTransform, px, py float64) (hdrcolor.RGB, bool) {
	sx, sy, ok := st.TransformImgCoord(px, py)
	if !ok {
		return hdrcolor.RGB{}, false
	}
	c, ok := r.interp.Sample(job.src.Pixels, sx, sy)
	if !ok {
		return c, false
	}
	if job.vig.Enabled() {
		c.R = job.vig.Correct(c.R, sx, sy)
		c.G = job.vig.Correct(c.G, sx, sy)
		c.B = job.vig.Correct(c.B, sx, sy)
	}
	return c, true
}

func (r *Remapper) samplePixel(job remapJob, px, py float64) (ecolor.CameraNative, bool) {
	cn := ecolor.CameraNative{IllumAtMax: job.illum}

	if job.stacks.shared() {
		c, ok := r.sampleAt(job, job.stacks[0], px, py)
		if !ok {
			return cn, false
		}
		cn.RGB = c
	} else {
		// Each channel comes from its own spot in the source
		red, ok := r.sampleAt(job, job.stacks[0], px, py)
		if !ok {
			return cn, false
		}
		green, ok := r.sampleAt(job, job.stacks[1], px, py)
		if !ok {
			return cn, false
		}
		blue, ok := r.sampleAt(job, job.stacks[2], px, py)
		if !ok {
			return cn, false
		}
		cn.RGB = hdrcolor.RGB{R: red.R, G: green.G, B: blue.B}
	}

	cn.AdjustIllumAtMax(1.0)
	return cn, true
}
