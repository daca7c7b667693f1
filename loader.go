package cropimage

import (
	"fmt"
	"image"
	"log/slog"
)

// MaxImageSize bounds both dimensions of a loaded source image.
const MaxImageSize = 1024

// SampleSize returns the smallest power of two s such that
// max(width, height)/s <= maxSize.
func SampleSize(width, height, maxSize int) int {
	if maxSize <= 0 {
		return 1
	}
	longest := max(width, height)
	s := 1
	for longest > maxSize*s {
		s *= 2
	}
	return s
}

func LoadImage(codec ImageCodec, path string) (image.Image, error) {
	w, h, err := codec.Dimensions(path)
	if err != nil {
		slog.Error("no se pudo leer la imagen", "path", path, "err", err)
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	sample := SampleSize(w, h, MaxImageSize)
	img, err := codec.Decode(path, sample)
	if err != nil {
		slog.Error("no se pudo decodificar la imagen", "path", path, "sample", sample, "err", err)
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: %s: imagen vacía", ErrDecode, path)
	}
	slog.Debug("imagen cargada", "path", path, "width", w, "height", h, "sample", sample)
	return img, nil
}
