package main

import(
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/abworrall/panostitch/pkg/optimize"
	"github.com/abworrall/panostitch/pkg/panorama"
	"github.com/abworrall/panostitch/pkg/remap"
	"github.com/abworrall/panostitch/pkg/xform"
)

const(
	flagVerbosity    = "v"
	flagProjection   = "projection"
	flagHFOV         = "hfov"
	flagWidth        = "width"
	flagHeight       = "height"
	flagInterpolator = "interpolator"
	flagBlender      = "blender"
	flagTonemapper   = "tonemapper"
	flagWorkers      = "workers"
	flagOutput       = "o"
	flagImage        = "image"
	flagInverse      = "inverse"
	flagOptimize     = "vars"
	flagMaxEvals     = "maxevals"
)

var canvasFlags = []cli.Flag{
	&cli.StringFlag{Name: flagProjection, Usage: "output projection: " + fmt.Sprintf("%v", panorama.ListProjections())},
	&cli.Float64Flag{Name: flagHFOV, Usage: "horizontal field of view of the panorama, in degrees"},
	&cli.IntFlag{Name: flagWidth, Usage: "width of the panorama, in pixels"},
	&cli.IntFlag{Name: flagHeight, Usage: "height of the panorama, in pixels"},
	&cli.StringFlag{Name: flagOutput, Usage: "basename for output files"},
}

var app = &cli.App{
	Name:  "panostitch",
	Usage: "project, align and render photos into a panorama",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: flagVerbosity, Usage: "how verbose to get"},
	},
	Commands: []*cli.Command{
		{
			Name:      "remap",
			Usage:     "render the images onto the panorama canvas, and write HDR + tonemapped output",
			ArgsUsage: "<project.yaml|image|dir>...",
			Flags: append([]cli.Flag{
				&cli.StringFlag{Name: flagInterpolator, Usage: "how to sample source images: " + remap.ListInterpolators()},
				&cli.StringFlag{Name: flagBlender, Usage: "how to combine overlapping images: " + remap.ListBlenders()},
				&cli.StringFlag{Name: flagTonemapper, Usage: "how to tonemap from HDR to LDR (or 'all'): " + remap.ListTonemappers()},
				&cli.IntFlag{Name: flagWorkers, Usage: "goroutines to remap with (0 means one per CPU)"},
			}, canvasFlags...),
			Action: remapAction,
		},
		{
			Name:      "outline",
			Usage:     "draw where each image lands on the canvas, without remapping any pixels",
			ArgsUsage: "<project.yaml|image|dir>...",
			Flags:     canvasFlags,
			Action:    outlineAction,
		},
		{
			Name:      "optimize",
			Usage:     "adjust image parameters to line up the control points; writes an updated project",
			ArgsUsage: "<project.yaml>",
			Flags: append([]cli.Flag{
				&cli.StringSliceFlag{Name: flagOptimize, Usage: "variables to optimize (y,p,r,v,a,b,c); overrides the project"},
				&cli.IntFlag{Name: flagMaxEvals, Value: optimize.DefaultMaxEvals, Usage: "give up after this many cost evaluations"},
			}, canvasFlags...),
			Action: optimizeAction,
		},
		{
			Name:      "transform",
			Usage:     "map a pixel in an image to the panorama (or back, with --inverse)",
			ArgsUsage: "<project.yaml> <x> <y>",
			Flags: append([]cli.Flag{
				&cli.IntFlag{Name: flagImage, Usage: "index of the image in the project"},
				&cli.BoolFlag{Name: flagInverse, Usage: "map a panorama pixel into the image instead"},
			}, canvasFlags...),
			Action: transformAction,
		},
		{
			Name:      "config",
			Usage:     "print the final project, after loading everything and applying flags",
			ArgsUsage: "<project.yaml|image|dir>...",
			Flags:     canvasFlags,
			Action:    configAction,
		},
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "panostitch: %v\n", err)
		os.Exit(1)
	}
}

// newLogger logs at info level, or debug if verbose.
func newLogger(verbosity int) *zap.SugaredLogger {
	cfg := zap.Config{
		Level:    zap.NewAtomicLevelAt(zap.InfoLevel),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			MessageKey:     "msg",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
	}
	if verbosity > 0 {
		cfg.Level.SetLevel(zap.DebugLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}

// loadProject loads everything named on the command line, and then lets
// the flags override what the project file says.
func loadProject(c *cli.Context, log *zap.SugaredLogger) (panorama.Project, error) {
	p := panorama.NewProject()
	if c.NArg() == 0 {
		return p, errors.New("nothing to load")
	}
	if err := p.LoadFilesAndDirs(log, c.Args().Slice()...); err != nil {
		return p, err
	}
	if v := c.Int(flagVerbosity); v > 0 {
		p.Verbosity = v
	}

	if s := c.String(flagProjection); s != "" {
		proj, err := panorama.ParseProjection(s)
		if err != nil {
			return p, err
		}
		p.Projection = proj
	}
	if v := c.Float64(flagHFOV); v > 0 {
		p.HFOV = v
	}
	if v := c.Int(flagWidth); v > 0 {
		p.Width = v
	}
	if v := c.Int(flagHeight); v > 0 {
		p.Height = v
	}
	if v := c.String(flagOutput); v != "" {
		p.Output = v
	}
	if v := c.String(flagInterpolator); v != "" {
		p.Interpolator = v
	}
	if v := c.String(flagBlender); v != "" {
		p.Blender = v
	}
	if v := c.String(flagTonemapper); v != "" {
		p.Tonemapper = v
	}
	if v := c.Int(flagWorkers); v > 0 {
		p.Workers = v
	}
	if vars := c.StringSlice(flagOptimize); len(vars) > 0 {
		p.Optimize = vars
	}

	if p.Verbosity > 0 {
		log.Debugf("Final configuration:-\n\n%s\n", p.AsYaml())
	}
	return p, p.Validate()
}

func remapAction(c *cli.Context) error {
	log := newLogger(c.Int(flagVerbosity))
	defer log.Sync()

	p, err := loadProject(c, log)
	if err != nil {
		return err
	}

	r, err := remap.NewRemapper(log, p.Options)
	if err != nil {
		return err
	}
	if err := r.RemapProject(c.Context, p); err != nil {
		return err
	}

	hdrFile := p.Output + ".hdr"
	if err := r.Canvas.WriteToHDR(hdrFile); err != nil {
		return err
	}
	log.Infof("HDR output written to %s", hdrFile)

	if p.Verbosity > 0 {
		cov := r.Canvas.Coverage()
		if err := cov.ToImg("coverage", p.Output+"-coverage.png"); err != nil {
			return err
		}
	}

	_, err = r.Canvas.Tonemap(log, p.Tonemapper, p.Output)
	return err
}

func outlineAction(c *cli.Context) error {
	log := newLogger(c.Int(flagVerbosity))
	defer log.Sync()

	p, err := loadProject(c, log)
	if err != nil {
		return err
	}

	outlines := []xform.Outline{}
	names := []string{}
	for _, si := range p.Images {
		st, err := xform.CreateInvTransform(si, p.Options)
		if err != nil {
			return errors.Wrap(err, si.Base())
		}
		o := xform.TraceImageOutline(si.Width, si.Height, st, p.Samples())
		log.Infof("%s: bbox %s, inside %s, %d/%d samples on canvas", si.Base(), o.BoundingBox, o.Inside, o.NumCovered, o.NumSamples)
		outlines = append(outlines, o)
		names = append(names, si.Base())
	}

	bounds, err := xform.EstimatePanoramaBounds(p.Images, p.Options, p.Samples())
	if err != nil {
		return err
	}
	log.Infof("Panorama bounds: %s (canvas %dx%d)", bounds, p.Width, p.Height)

	filename := p.Output + "-outlines.png"
	img := remap.DrawOutlines(nil, p.Width, p.Height, outlines, names)
	if err := remap.WritePNG(img, filename); err != nil {
		return err
	}
	log.Infof("Outlines written to %s", filename)
	return nil
}

func optimizeAction(c *cli.Context) error {
	log := newLogger(c.Int(flagVerbosity))
	defer log.Sync()

	p, err := loadProject(c, log)
	if err != nil {
		return err
	}

	o, err := optimize.NewOptimizer(log, p)
	if err != nil {
		return err
	}
	o.MaxEvals = c.Int(flagMaxEvals)

	res, err := o.Run(c.Context)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", res)

	// Keep the pixels out of it; the project only records parameters
	p.Images = res.Images
	filename := p.Output + "-optimized.yaml"
	if err := os.WriteFile(filename, []byte(p.AsYaml()), 0644); err != nil {
		return errors.Wrapf(err, "write %s", filename)
	}
	log.Infof("Optimized project written to %s", filename)
	return nil
}

func transformAction(c *cli.Context) error {
	log := newLogger(c.Int(flagVerbosity))
	defer log.Sync()

	if c.NArg() != 3 {
		return errors.Errorf("want <project.yaml> <x> <y>, got %v", c.Args().Slice())
	}
	x, err := strconv.ParseFloat(c.Args().Get(1), 64)
	if err != nil {
		return errors.Wrap(err, "x")
	}
	y, err := strconv.ParseFloat(c.Args().Get(2), 64)
	if err != nil {
		return errors.Wrap(err, "y")
	}

	p, err := panorama.LoadProject(c.Args().First())
	if err != nil {
		return err
	}
	n := c.Int(flagImage)
	if n < 0 || n >= len(p.Images) {
		return errors.Errorf("no image %d (project has %d)", n, len(p.Images))
	}
	si := p.Images[n]

	build, dir := xform.CreateInvTransform, "image -> pano"
	if c.Bool(flagInverse) {
		build, dir = xform.CreateTransform, "pano -> image"
	}
	st, err := build(si, p.Options)
	if err != nil {
		return err
	}
	log.Debugf("%s", st)

	tx, ty, ok := st.TransformImgCoord(x, y)
	if !ok {
		fmt.Printf("%s %s: (%.3f, %.3f) has no position\n", si.Base(), dir, x, y)
		return nil
	}
	fmt.Printf("%s %s: (%.3f, %.3f) -> (%.3f, %.3f)\n", si.Base(), dir, x, y, tx, ty)
	return nil
}

func configAction(c *cli.Context) error {
	log := newLogger(c.Int(flagVerbosity))
	defer log.Sync()

	p, err := loadProject(c, log)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n%s", p, p.AsYaml())
	return nil
}
