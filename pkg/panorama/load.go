package panorama

import(
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rwcarlsen/goexif/exif"
	"go.uber.org/zap"
	"golang.org/x/image/tiff"

	"github.com/abworrall/panostitch/pkg/emath"
)

// If an image has no HFOV, and no EXIF to figure one from, assume a
// "normal" lens.
const DefaultHFOV = 50.0

// LoadFilesAndDirs walks the args. YAML files are loaded as the project
// (the last one wins); image files are decoded, and either attached to the
// project image with the same filename, or appended as a new image. Dirs are
// recursed into.
func (p *Project) LoadFilesAndDirs(log *zap.SugaredLogger, args ...string) error {
	for _, arg := range args {
		item, err := os.Stat(arg)

		switch {
		case err != nil:
			return errors.Wrapf(err, "load %s", arg)

		case item.IsDir():
			// Is a dir, recurse into contents
			contents, err := os.ReadDir(arg)
			if err != nil {
				return errors.Wrapf(err, "readdir %s", arg)
			}
			for _, content := range contents {
				if err := p.LoadFilesAndDirs(log, filepath.Join(arg, content.Name())); err != nil {
					return errors.Wrapf(err, "load %s", arg)
				}
			}

		default: // is a file, load it
			if err := p.loadFile(log, arg); err != nil {
				return errors.Wrapf(err, "loadfile %s", arg)
			}
		}
	}

	return nil
}

func isImageFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".tif", ".tiff", ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

func (p *Project) loadFile(log *zap.SugaredLogger, filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))

	switch {
	case ext == ".yaml" || ext == ".yml":
		proj, err := LoadProject(filename)
		if err != nil {
			return err
		}
		*p = proj
		log.Infof("Loaded project from %s (%d images)", filename, len(p.Images))
		return p.LoadPixels(log)

	case isImageFile(filename):
		si, err := LoadImage(log, filename)
		if err != nil {
			return err
		}
		p.AddImage(si)

	default:
		log.Debugf("ignoring %s", filename)
	}

	return nil
}

// AddImage merges a freshly loaded image into the project. If the project
// already describes an image with that filename, only the pixels (and any
// metadata the project left blank) are taken.
func (p *Project) AddImage(si SrcImage) {
	for i := range p.Images {
		if filepath.Base(p.Images[i].Filename) == si.Base() {
			p.Images[i].mergeLoaded(si)
			return
		}
	}
	p.Images = append(p.Images, si)
}

func (si *SrcImage) mergeLoaded(loaded SrcImage) {
	si.Pixels = loaded.Pixels
	si.Width, si.Height = loaded.Width, loaded.Height
	if si.FocalLength == 0 {
		si.FocalLength = loaded.FocalLength
	}
	if si.CropFactor == 0 {
		si.CropFactor = loaded.CropFactor
	}
	if !si.ExposureValue.Known() {
		si.ExposureValue = loaded.ExposureValue
	}
	if si.HFOV == 0 {
		si.HFOV = loaded.HFOV
	}
}

func LoadProject(filename string) (Project, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return Project{}, errors.Wrapf(err, "project read %s", filename)
	}

	p, err := newProjectFromYaml(contents)
	if err != nil {
		return p, errors.Wrapf(err, "project parse %s", filename)
	}
	p.Dir = filepath.Dir(filename)
	return p, nil
}

// LoadPixels decodes the pixels (and flatfields) for every image in the
// project that doesn't have them yet.
func (p *Project) LoadPixels(log *zap.SugaredLogger) error {
	for i := range p.Images {
		si := &p.Images[i]

		if si.Pixels == nil && si.Filename != "" {
			loaded, err := LoadImage(log, p.resolve(si.Filename))
			if err != nil {
				return err
			}
			si.mergeLoaded(loaded)
		}

		if si.VigMode == VigFlatfield && si.FlatfieldGrid.IsZero() && si.Flatfield != "" {
			grid, err := LoadFlatfield(p.resolve(si.Flatfield))
			if err != nil {
				return err
			}
			si.FlatfieldGrid = grid
		}
	}
	return nil
}

func (p *Project) resolve(filename string) string {
	if filepath.IsAbs(filename) || p.Dir == "" {
		return filename
	}
	return filepath.Join(p.Dir, filename)
}

// LoadImage decodes an image file, and pulls what it can out of the EXIF.
// Missing EXIF is fine; the image just gets default lens parameters.
func LoadImage(log *zap.SugaredLogger, filename string) (SrcImage, error) {
	si := SrcImage{
		Filename:   filename,
		Projection: Rectilinear,
	}

	// First, try to load the EXIF metadata.
	if reader, err := os.Open(filename); err != nil {
		return si, errors.Wrapf(err, "open+r exif '%s'", filename)
	} else {
		err := si.readExif(reader)
		reader.Close()
		if err != nil {
			log.Debugf("%s: no usable EXIF (%v)", filename, err)
		}
	}

	// Re-open the file, now for the image data
	img, err := decodeImage(filename)
	if err != nil {
		return si, err
	}
	si.Pixels = img
	si.Width, si.Height = img.Bounds().Dx(), img.Bounds().Dy()

	if si.HFOV == 0 && si.FocalLength > 0 {
		aspect := float64(si.Width) / float64(si.Height)
		if hfov, err := CalcHFOV(si.Projection, si.FocalLength, si.CropFactor, aspect); err == nil {
			si.HFOV = hfov
		}
	}
	if si.HFOV == 0 {
		log.Warnf("%s: no focal length info, assuming hfov=%.0f", filename, DefaultHFOV)
		si.HFOV = DefaultHFOV
	}

	log.Debugf("Loaded %s", si)
	return si, nil
}

func decodeImage(filename string) (image.Image, error) {
	reader, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "open+r img '%s'", filename)
	}
	defer reader.Close()

	var img image.Image
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".tif", ".tiff":
		img, err = tiff.Decode(reader)
	case ".png":
		img, err = png.Decode(reader)
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(reader)
	default:
		img, _, err = image.Decode(reader)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decoding '%s'", filename)
	}
	return img, nil
}

// readExif fills in the lens and exposure details. Each tag is optional.
func (si *SrcImage) readExif(reader io.Reader) error {
	ex, err := exif.Decode(reader)
	if err != nil {
		return errors.Wrap(err, "exif parsing")
	}

	if tag, err := ex.Get(exif.FocalLength); err == nil {
		if num, denom, err := tag.Rat2(0); err == nil && denom != 0 {
			si.FocalLength = float64(num) / float64(denom)
		}
	}

	// The 35mm equivalent gives us the crop factor for free
	if tag, err := ex.Get(exif.FocalLengthIn35mmFilm); err == nil {
		if f35, err := tag.Int(0); err == nil && f35 > 0 && si.FocalLength > 0 {
			si.CropFactor = float64(f35) / si.FocalLength
		}
	}

	ev := ExposureValue{}
	if tag, err := ex.Get(exif.ISOSpeedRatings); err == nil {
		if val, err := tag.Int64(0); err == nil {
			ev.ISO = val
		}
	}
	if tag, err := ex.Get(exif.FNumber); err == nil {
		if num, denom, err := tag.Rat2(0); err == nil && denom != 0 {
			ev.FNumber = float64(num) / float64(denom)
		}
	}
	if tag, err := ex.Get(exif.ExposureTime); err == nil {
		if num, denom, err := tag.Rat2(0); err == nil {
			ev.ExposureTime = Rational{num, denom}
		}
	}

	// Note: we ignore Exposure Compensation, as it is informational. The
	// Fstop/Speed/ISO triple fully defines how much light would expose a pixel.
	if err := ev.Compute(); err != nil {
		return errors.Wrap(err, "exif EV")
	}
	si.ExposureValue = ev
	return nil
}

// LoadFlatfield reads a flatfield frame: a photo of an evenly lit surface
// through the same lens. It is lightly blurred to kill sensor noise, then
// normalised so its brightest region is 1.0.
func LoadFlatfield(filename string) (emath.FloatGrid, error) {
	img, err := decodeImage(filename)
	if err != nil {
		return emath.FloatGrid{}, errors.Wrap(err, "flatfield")
	}
	grid := emath.NewFloatGridFromImage(img).GaussianBlur()
	grid.Normalize(0.99)
	return grid, nil
}
