package cropimage

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageCodec hides the platform bitmap codec so the crop logic can run
// against any backend, including fakes in tests.
type ImageCodec interface {
	// Dimensions reads only the header and reports the native dimensions.
	Dimensions(path string) (width, height int, err error)
	// Decode loads the image reduced by sampleSize (a power of two).
	Decode(path string, sampleSize int) (image.Image, error)
	Encode(w io.Writer, img image.Image, format Format, quality int) error
}

type codec struct {
	autoOrient bool
}

func NewCodec() ImageCodec {
	return &codec{autoOrient: true}
}

func (c *codec) Dimensions(path string) (int, int, error) {
	mime, err := mimetype.DetectFile(path)
	if err != nil {
		return 0, 0, err
	}
	if !strings.HasPrefix(mime.String(), "image/") {
		return 0, 0, fmt.Errorf("%w: %s", ErrUnsupported, mime.String())
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// Decode reads the whole image at full size and then box-filters it down by
// sampleSize; peak memory is the full bitmap. opencv.Codec decodes JPEGs at
// reduced resolution instead.
func (c *codec) Decode(path string, sampleSize int) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(c.autoOrient))
	if err != nil {
		return nil, err
	}
	if sampleSize <= 1 {
		return img, nil
	}
	b := img.Bounds()
	w := max(1, b.Dx()/sampleSize)
	h := max(1, b.Dy()/sampleSize)
	return imaging.Resize(img, w, h, imaging.Box), nil
}

func (c *codec) Encode(w io.Writer, img image.Image, format Format, quality int) error {
	switch format {
	case FormatPNG:
		return imaging.Encode(w, img, imaging.PNG)
	case FormatJPEG, "":
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	}
	return fmt.Errorf("%w: formato %q", ErrUnsupported, format)
}
