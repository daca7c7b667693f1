package cropimage

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
)

type CropMode int

const (
	ModeFree CropMode = iota
	ModeRatio
	ModeCircle
)

func (m CropMode) String() string {
	switch m {
	case ModeRatio:
		return "ratio"
	case ModeCircle:
		return "circle"
	}
	return "free"
}

var errEmptyCrop = errors.New("región de recorte vacía")

// CropView holds the image being cropped, the candidate regions and the
// rectangle the user is currently adjusting. It is not safe for concurrent
// use; a Session only touches it from its loop goroutine.
type CropView struct {
	img      image.Image
	mode     CropMode
	aspectX  int
	aspectY  int
	outputX  int
	outputY  int
	scaleUp  bool
	rotation int

	highlights []image.Rectangle
	active     int
	crop       image.Rectangle
}

func NewCropView(cfg CropConfig) *CropView {
	v := &CropView{outputX: cfg.OutputX, outputY: cfg.OutputY, scaleUp: cfg.ScaleUp}
	switch {
	case cfg.Circle:
		v.SetCropMode(ModeCircle, 1, 1)
	case cfg.FreeAspect():
		v.SetCropMode(ModeFree, 0, 0)
	default:
		v.SetCropMode(ModeRatio, cfg.AspectX, cfg.AspectY)
	}
	return v
}

func (v *CropView) SetImage(img image.Image) {
	v.img = img
	v.highlights = nil
	v.active = 0
	v.crop = image.Rectangle{}
}

func (v *CropView) Image() image.Image { return v.img }

func (v *CropView) Mode() CropMode { return v.mode }

func (v *CropView) SetCropMode(mode CropMode, aspectX, aspectY int) {
	v.mode = mode
	switch mode {
	case ModeCircle:
		v.aspectX, v.aspectY = 1, 1
	case ModeRatio:
		v.aspectX, v.aspectY = aspectX, aspectY
	default:
		v.aspectX, v.aspectY = 0, 0
	}
	if !v.crop.Empty() {
		v.crop = v.fit(v.crop)
	}
}

// SetHighlights replaces the candidate regions and makes the first one the
// crop rectangle.
func (v *CropView) SetHighlights(regions []image.Rectangle) {
	v.highlights = append([]image.Rectangle(nil), regions...)
	v.active = 0
	if len(v.highlights) > 0 {
		v.crop = v.fit(v.highlights[0])
	}
}

func (v *CropView) Highlights() []image.Rectangle {
	return append([]image.Rectangle(nil), v.highlights...)
}

func (v *CropView) Active() int { return v.active }

func (v *CropView) Select(i int) error {
	if i < 0 || i >= len(v.highlights) {
		return fmt.Errorf("región %d fuera de rango (%d)", i, len(v.highlights))
	}
	v.active = i
	v.crop = v.fit(v.highlights[i])
	return nil
}

// SetCropRect applies a user adjustment. The rectangle is kept inside the
// image and shrunk around its centre to the configured aspect ratio.
func (v *CropView) SetCropRect(r image.Rectangle) image.Rectangle {
	v.crop = v.fit(r)
	return v.crop
}

func (v *CropView) CropRect() image.Rectangle { return v.crop }

func (v *CropView) Orientation() int { return v.rotation }

// Rotate turns the image clockwise by deg, a multiple of 90. Regions are
// dropped since they no longer match the pixels.
func (v *CropView) Rotate(deg int) error {
	if deg%90 != 0 {
		return fmt.Errorf("rotación %d no soportada", deg)
	}
	deg = ((deg % 360) + 360) % 360
	if v.img == nil || deg == 0 {
		return nil
	}
	var rotated image.Image
	switch deg {
	case 90:
		rotated = imaging.Rotate270(v.img)
	case 180:
		rotated = imaging.Rotate180(v.img)
	case 270:
		rotated = imaging.Rotate90(v.img)
	}
	v.rotation = (v.rotation + deg) % 360
	v.SetImage(rotated)
	return nil
}

func (v *CropView) fit(r image.Rectangle) image.Rectangle {
	if v.img == nil {
		return image.Rectangle{}
	}
	r = r.Canon().Intersect(v.img.Bounds())
	if r.Empty() || v.aspectX == 0 || v.aspectY == 0 {
		return r
	}
	w, h := r.Dx(), r.Dy()
	if w*v.aspectY > h*v.aspectX {
		w = h * v.aspectX / v.aspectY
	} else {
		h = w * v.aspectY / v.aspectX
	}
	cx := r.Min.X + r.Dx()/2
	cy := r.Min.Y + r.Dy()/2
	x := cx - w/2
	y := cy - h/2
	return image.Rect(x, y, x+w, y+h)
}

// Cropped renders the current crop rectangle against the full image.
func (v *CropView) Cropped() (image.Image, error) {
	if v.img == nil || v.crop.Empty() {
		return nil, errEmptyCrop
	}
	var out image.Image = imaging.Crop(v.img, v.crop)
	if v.mode == ModeCircle {
		out = maskCircle(out)
	}
	return v.scaleOutput(out), nil
}

func (v *CropView) scaleOutput(img image.Image) image.Image {
	if v.outputX <= 0 || v.outputY <= 0 {
		return img
	}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w == v.outputX && h == v.outputY {
		return img
	}
	if v.scaleUp {
		return imaging.Fill(img, v.outputX, v.outputY, imaging.Center, imaging.Lanczos)
	}
	if w > v.outputX || h > v.outputY {
		img = imaging.Fit(img, v.outputX, v.outputY, imaging.Lanczos)
	}
	return imaging.PasteCenter(imaging.New(v.outputX, v.outputY, color.NRGBA{}), img)
}

type circle struct {
	bounds image.Rectangle
	cx, cy float64
	r      float64
}

func (c *circle) ColorModel() color.Model { return color.AlphaModel }

func (c *circle) Bounds() image.Rectangle { return c.bounds }

func (c *circle) At(x, y int) color.Color {
	dx := float64(x) + 0.5 - c.cx
	dy := float64(y) + 0.5 - c.cy
	if dx*dx+dy*dy <= c.r*c.r {
		return color.Alpha{A: 255}
	}
	return color.Alpha{}
}

// maskCircle keeps the disc inscribed in src and clears everything else.
func maskCircle(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	mask := &circle{
		bounds: dst.Bounds(),
		cx:     float64(b.Dx()) / 2,
		cy:     float64(b.Dy()) / 2,
		r:      float64(min(b.Dx(), b.Dy())) / 2,
	}
	xdraw.DrawMask(dst, dst.Bounds(), src, b.Min, mask, image.Point{}, xdraw.Over)
	return dst
}
