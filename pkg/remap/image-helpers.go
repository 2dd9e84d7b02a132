package remap

// A few helper routines for golang's image libraries

import(
	"image"
	"image/png"
	"os"

	"github.com/pkg/errors"
)

func WritePNG(img image.Image, filename string) error {
	writer, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "open+w '%s'", filename)
	}
	defer writer.Close()
	return errors.Wrapf(png.Encode(writer, img), "encode '%s'", filename)
}
