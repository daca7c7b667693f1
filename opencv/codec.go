// Package opencv backs the crop pipeline with OpenCV: Haar cascade face
// detection and a codec that decodes straight to a reduced resolution.
package opencv

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/user0608/cropimage"
	"gocv.io/x/gocv"
)

type Codec struct {
	header cropimage.ImageCodec
}

func NewCodec() *Codec {
	return &Codec{header: cropimage.NewCodec()}
}

// Dimensions reads only the header through the default codec; OpenCV has no
// header-only read.
func (c *Codec) Dimensions(path string) (int, int, error) {
	return c.header.Dimensions(path)
}

func readFlag(sampleSize int) (gocv.IMReadFlag, int) {
	switch {
	case sampleSize >= 8:
		return gocv.IMReadReducedColor8, sampleSize / 8
	case sampleSize >= 4:
		return gocv.IMReadReducedColor4, 1
	case sampleSize >= 2:
		return gocv.IMReadReducedColor2, 1
	}
	return gocv.IMReadColor, 1
}

func (c *Codec) Decode(path string, sampleSize int) (image.Image, error) {
	flag, rest := readFlag(sampleSize)
	img := gocv.IMRead(path, flag)
	if img.Empty() {
		img.Close()
		return nil, errors.New("decode vacío")
	}
	defer img.Close()

	if rest > 1 {
		out := gocv.NewMat()
		defer out.Close()
		size := image.Pt(max(1, img.Cols()/rest), max(1, img.Rows()/rest))
		gocv.Resize(img, &out, size, 0, 0, gocv.InterpolationArea)
		return out.ToImage()
	}
	return img.ToImage()
}

func (c *Codec) Encode(w io.Writer, img image.Image, format cropimage.Format, quality int) error {
	toMat := gocv.ImageToMatRGB
	if format == cropimage.FormatPNG {
		toMat = gocv.ImageToMatRGBA
	}
	mat, err := toMat(img)
	if err != nil {
		return err
	}
	defer mat.Close()

	var buf *gocv.NativeByteBuffer
	switch format {
	case cropimage.FormatPNG:
		buf, err = gocv.IMEncode(gocv.PNGFileExt, mat)
	case cropimage.FormatJPEG, "":
		buf, err = gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, quality})
	default:
		return fmt.Errorf("%w: formato %q", cropimage.ErrUnsupported, format)
	}
	if err != nil {
		return err
	}
	defer buf.Close()
	_, err = w.Write(buf.GetBytes())
	return err
}
