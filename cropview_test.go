package cropimage

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newView(t *testing.T, cfg CropConfig, img image.Image) *CropView {
	t.Helper()
	v := NewCropView(cfg)
	v.SetImage(img)
	return v
}

func TestNewCropViewModes(t *testing.T) {
	v := NewCropView(CropConfig{Circle: true, AspectX: 4, AspectY: 3})
	assert.Equal(t, ModeCircle, v.Mode())
	assert.Equal(t, 1, v.aspectX)
	assert.Equal(t, 1, v.aspectY)

	assert.Equal(t, ModeFree, NewCropView(CropConfig{}).Mode())
	assert.Equal(t, ModeRatio, NewCropView(CropConfig{AspectX: 16, AspectY: 9}).Mode())
	assert.Equal(t, "circle", ModeCircle.String())
}

func TestSetCropRectKeepsAspectAndBounds(t *testing.T) {
	v := newView(t, CropConfig{AspectX: 1, AspectY: 1}, testImage(100, 80))

	got := v.SetCropRect(image.Rect(-10, -10, 50, 90))
	assert.Equal(t, image.Rect(0, 15, 50, 65), got)
	assert.Equal(t, got, v.CropRect())

	free := newView(t, CropConfig{}, testImage(100, 80))
	assert.Equal(t, image.Rect(90, 70, 100, 80), free.SetCropRect(image.Rect(90, 70, 150, 150)))
}

func TestSelectRegion(t *testing.T) {
	v := newView(t, CropConfig{AspectX: 1, AspectY: 1}, testImage(200, 200))
	regions := []image.Rectangle{image.Rect(0, 0, 50, 50), image.Rect(100, 100, 160, 160)}
	v.SetHighlights(regions)
	assert.Equal(t, regions[0], v.CropRect())

	require.NoError(t, v.Select(1))
	assert.Equal(t, 1, v.Active())
	assert.Equal(t, regions[1], v.CropRect())

	assert.Error(t, v.Select(2))
	assert.Error(t, v.Select(-1))
	assert.Equal(t, 1, v.Active())
}

func TestCroppedWithoutRegion(t *testing.T) {
	v := newView(t, CropConfig{}, testImage(20, 20))
	_, err := v.Cropped()
	assert.ErrorIs(t, err, errEmptyCrop)
}

func TestCroppedCircle(t *testing.T) {
	v := newView(t, CropConfig{Circle: true}, testImage(120, 100))
	v.SetCropRect(image.Rect(10, 0, 110, 100))

	out, err := v.Cropped()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 100), out.Bounds())
	for _, p := range []image.Point{{0, 0}, {99, 0}, {0, 99}, {99, 99}} {
		assert.Zero(t, alphaAt(out, p.X, p.Y), "corner %v", p)
	}
	assert.Equal(t, uint8(255), alphaAt(out, 50, 50))
	assert.Equal(t, uint8(255), alphaAt(out, 50, 1))
}

func TestCroppedScalesOutput(t *testing.T) {
	cfg := CropConfig{AspectX: 1, AspectY: 1, OutputX: 50, OutputY: 50, ScaleUp: true}
	v := newView(t, cfg, testImage(100, 100))
	v.SetCropRect(image.Rect(10, 10, 90, 90))

	out, err := v.Cropped()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 50, 50), out.Bounds())
}

func TestCroppedPadsWithoutScaleUp(t *testing.T) {
	cfg := CropConfig{AspectX: 1, AspectY: 1, OutputX: 200, OutputY: 200}
	v := newView(t, cfg, testImage(100, 100))
	v.SetCropRect(image.Rect(10, 10, 90, 90))

	out, err := v.Cropped()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 200, 200), out.Bounds())
	assert.Zero(t, alphaAt(out, 0, 0))
	assert.Equal(t, uint8(255), alphaAt(out, 100, 100))
}

func TestCroppedShrinksWithoutScaleUp(t *testing.T) {
	cfg := CropConfig{AspectX: 1, AspectY: 1, OutputX: 50, OutputY: 40}
	v := newView(t, cfg, testImage(100, 100))
	v.SetCropRect(image.Rect(0, 0, 100, 100))

	out, err := v.Cropped()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 50, 40), out.Bounds())
	assert.Zero(t, alphaAt(out, 0, 20))
	assert.Equal(t, uint8(255), alphaAt(out, 25, 20))
}

func TestRotateClockwise(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	red := color.NRGBA{R: 255, A: 255}
	blue := color.NRGBA{B: 255, A: 255}
	img.SetNRGBA(0, 0, red)
	img.SetNRGBA(1, 0, blue)

	v := newView(t, CropConfig{}, img)
	v.SetHighlights([]image.Rectangle{image.Rect(0, 0, 1, 1)})
	require.NoError(t, v.Rotate(90))

	rotated := v.Image()
	assert.Equal(t, image.Rect(0, 0, 1, 2), rotated.Bounds())
	assert.Equal(t, red, color.NRGBAModel.Convert(rotated.At(0, 0)))
	assert.Equal(t, blue, color.NRGBAModel.Convert(rotated.At(0, 1)))
	assert.Equal(t, 90, v.Orientation())
	assert.Empty(t, v.Highlights())
	assert.True(t, v.CropRect().Empty())

	require.NoError(t, v.Rotate(-90))
	assert.Equal(t, 0, v.Orientation())
	assert.Equal(t, image.Rect(0, 0, 2, 1), v.Image().Bounds())

	assert.Error(t, v.Rotate(45))
}
