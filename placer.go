package cropimage

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/muesli/smartcrop"
)

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// FaceRegion builds the highlight square for one face. inv maps detection
// coordinates to bounds. Edges are pulled back in the order left, top,
// right, bottom; each correction insets both axes by the overshoot.
func FaceRegion(f Face, inv float64, bounds image.Rectangle) image.Rectangle {
	w, h := bounds.Dx(), bounds.Dy()
	r := max(0, int(math.Round(f.EyesDistance*inv))*2)

	midX := clamp(int(f.MidX*inv), 0, w)
	midY := clamp(int(f.MidY*inv), 0, h)

	left, top, right, bottom := midX-r, midY-r, midX+r, midY+r
	inset := func(d int) {
		left += d
		top += d
		right -= d
		bottom -= d
	}
	if left < 0 {
		inset(-left)
	}
	if top < 0 {
		inset(-top)
	}
	if right > w {
		inset(right - w)
	}
	if bottom > h {
		inset(bottom - h)
	}
	return image.Rect(left, top, right, bottom).Add(bounds.Min)
}

// DefaultRegion is the centred rectangle used when no face was found: about
// 4/5 of the shorter side, shrunk on one axis to honour the aspect ratio.
func DefaultRegion(bounds image.Rectangle, aspectX, aspectY int) image.Rectangle {
	w, h := bounds.Dx(), bounds.Dy()
	cropW := min(w, h) * 4 / 5
	cropH := cropW
	if aspectX != 0 && aspectY != 0 {
		if aspectX > aspectY {
			cropH = cropW * aspectY / aspectX
		} else {
			cropW = cropH * aspectX / aspectY
		}
	}
	x := (w - cropW) / 2
	y := (h - cropH) / 2
	return image.Rect(x, y, x+cropW, y+cropH).Add(bounds.Min)
}

// PlaceRegions returns one region per face in detector order, or the single
// default region when faces is empty.
func PlaceRegions(faces []Face, inv float64, bounds image.Rectangle, aspectX, aspectY int) []image.Rectangle {
	if len(faces) == 0 {
		return []image.Rectangle{DefaultRegion(bounds, aspectX, aspectY)}
	}
	regions := make([]image.Rectangle, 0, len(faces))
	for _, f := range faces {
		regions = append(regions, FaceRegion(f, inv, bounds))
	}
	return regions
}

// Suggester proposes a region when no face was found.
type Suggester interface {
	Suggest(img image.Image, aspectX, aspectY int) (image.Rectangle, error)
}

// SmartSuggester places the default region on the most interesting part of
// the image instead of the centre.
type SmartSuggester struct {
	resampler imaging.ResampleFilter
}

func NewSmartSuggester() *SmartSuggester {
	return &SmartSuggester{resampler: imaging.Lanczos}
}

func (s *SmartSuggester) Suggest(img image.Image, aspectX, aspectY int) (image.Rectangle, error) {
	base := DefaultRegion(img.Bounds(), aspectX, aspectY)
	if base.Empty() {
		return base, nil
	}
	analyzer := smartcrop.NewAnalyzer(&resizer{resampler: s.resampler})
	crop, err := analyzer.FindBestCrop(img, base.Dx(), base.Dy())
	if err != nil {
		return image.Rectangle{}, err
	}
	return crop.Intersect(img.Bounds()), nil
}

// resizer satisfies smartcrop's Resizer with imaging.
type resizer struct {
	resampler imaging.ResampleFilter
}

func (r *resizer) Resize(img image.Image, width, height uint) image.Image {
	return imaging.Resize(img, int(width), int(height), r.resampler)
}
