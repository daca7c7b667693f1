package cropimage

import (
	"context"
	"image"
	"log/slog"

	"github.com/disintegration/imaging"
)

const (
	// DetectionWidth is wide enough for the detectors and keeps scans fast.
	DetectionWidth = 256
	MaxFaces       = 3
)

// Face is a detection in the coordinate space of the image the finder saw.
type Face struct {
	MidX, MidY   float64
	EyesDistance float64
	Confidence   float64
}

type FaceFinder interface {
	FindFaces(ctx context.Context, img image.Image, maxFaces int) ([]Face, error)
}

// PrepareForDetection returns a copy no wider than DetectionWidth and the
// factor that was applied. When no scaling is needed the source itself is
// returned with scale 1.
func PrepareForDetection(img image.Image) (image.Image, float64) {
	if img == nil {
		return nil, 1
	}
	w := img.Bounds().Dx()
	if w <= DetectionWidth {
		return img, 1
	}
	scale := float64(DetectionWidth) / float64(w)
	return imaging.Resize(img, DetectionWidth, 0, imaging.Linear), scale
}

// ScanFaces runs finder on a downscaled copy of img. Face coordinates are
// relative to img's origin; the returned inverse scale maps them back to
// img's size.
func ScanFaces(ctx context.Context, finder FaceFinder, img image.Image) ([]Face, float64, error) {
	small, scale := PrepareForDetection(img)
	inv := 1 / scale
	if finder == nil || small == nil {
		return nil, inv, nil
	}
	faces, err := finder.FindFaces(ctx, small, MaxFaces)
	if err != nil {
		slog.Warn("detección de rostros falló", "err", err)
		return nil, inv, err
	}
	if len(faces) > MaxFaces {
		faces = faces[:MaxFaces]
	}
	// An unscaled source keeps its origin; report faces relative to it like
	// the resized copy does.
	if o := small.Bounds().Min; o != (image.Point{}) {
		for i := range faces {
			faces[i].MidX -= float64(o.X)
			faces[i].MidY -= float64(o.Y)
		}
	}
	slog.Debug("rostros detectados", "count", len(faces), "scale", scale)
	return faces, inv, nil
}
