package cropimage

import (
	"fmt"
	"strings"
)

// Keys accepted in Extras. They match the names callers already use for
// crop intents, so existing clients can pass their parameters unchanged.
const (
	KeyImagePath       = "image-path"
	KeyAspectX         = "aspectX"
	KeyAspectY         = "aspectY"
	KeyOutputX         = "outputX"
	KeyOutputY         = "outputY"
	KeyScaleUpIfNeeded = "scaleUpIfNeeded"
	KeyCircleCrop      = "circleCrop"
	KeyReturnData      = "return-data"
	KeyOutput          = "output"
	KeyOutputFormat    = "outputFormat"
	KeyNoFaceDetection = "noFaceDetection"
)

const ActionInlineData = "inline-data"

type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// OutputQuality is the fixed JPEG quality for saved crops.
const OutputQuality = 90

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "jpg", "jpeg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	}
	return "", fmt.Errorf("%w: formato de salida %q no soportado", ErrInvalidConfig, s)
}

func (f Format) Ext() string {
	if f == FormatPNG {
		return ".png"
	}
	return ".jpg"
}

// CropConfig is fixed once a session is opened. An empty Format means JPEG.
type CropConfig struct {
	AspectX int
	AspectY int
	ScaleUp bool
	OutputX int
	OutputY int
	Format  Format
	Circle  bool
}

func (c CropConfig) FreeAspect() bool { return c.AspectX == 0 && c.AspectY == 0 }

type Request struct {
	ImagePath       string
	Output          string
	ReturnData      bool
	NoFaceDetection bool
	Crop            CropConfig
}

type Extras map[string]any

// ParseRequest builds a Request from loosely typed caller parameters.
// Aspect values are mandatory and must be ints.
func ParseRequest(extras Extras) (Request, error) {
	req := Request{Crop: CropConfig{ScaleUp: true, Format: FormatJPEG}}
	if extras == nil {
		return req, fmt.Errorf("%w: parámetros vacíos", ErrInvalidConfig)
	}
	if _, ok := extras[KeyCircleCrop]; ok {
		req.Crop.Circle = true
		req.Crop.AspectX, req.Crop.AspectY = 1, 1
	}

	path, err := stringExtra(extras, KeyImagePath)
	if err != nil {
		return req, err
	}
	req.ImagePath = path

	if req.Crop.AspectX, err = requiredInt(extras, KeyAspectX); err != nil {
		return req, err
	}
	if req.Crop.AspectY, err = requiredInt(extras, KeyAspectY); err != nil {
		return req, err
	}
	if req.Crop.OutputX, err = optionalInt(extras, KeyOutputX); err != nil {
		return req, err
	}
	if req.Crop.OutputY, err = optionalInt(extras, KeyOutputY); err != nil {
		return req, err
	}
	if req.Crop.ScaleUp, err = optionalBool(extras, KeyScaleUpIfNeeded, true); err != nil {
		return req, err
	}
	if req.ReturnData, err = optionalBool(extras, KeyReturnData, false); err != nil {
		return req, err
	}
	if req.NoFaceDetection, err = optionalBool(extras, KeyNoFaceDetection, false); err != nil {
		return req, err
	}
	if req.Output, err = stringExtra(extras, KeyOutput); err != nil {
		return req, err
	}
	format, err := stringExtra(extras, KeyOutputFormat)
	if err != nil {
		return req, err
	}
	if req.Crop.Format, err = ParseFormat(format); err != nil {
		return req, err
	}
	return req, req.Validate()
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.ImagePath) == "" {
		return fmt.Errorf("%w: %s requerido", ErrInvalidConfig, KeyImagePath)
	}
	c := r.Crop
	if c.AspectX < 0 || c.AspectY < 0 {
		return fmt.Errorf("%w: aspecto negativo %d:%d", ErrInvalidConfig, c.AspectX, c.AspectY)
	}
	if (c.AspectX == 0) != (c.AspectY == 0) {
		return fmt.Errorf("%w: aspecto %d:%d incompleto", ErrInvalidConfig, c.AspectX, c.AspectY)
	}
	if c.OutputX < 0 || c.OutputY < 0 {
		return fmt.Errorf("%w: tamaño de salida negativo", ErrInvalidConfig)
	}
	if c.Format != "" && c.Format != FormatJPEG && c.Format != FormatPNG {
		return fmt.Errorf("%w: formato de salida %q no soportado", ErrInvalidConfig, c.Format)
	}
	return nil
}

// Target is where a confirmed crop is written when it is not returned inline.
func (r Request) Target() string {
	if r.Output != "" {
		return r.Output
	}
	return r.ImagePath
}

func requiredInt(extras Extras, key string) (int, error) {
	v, ok := extras[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s requerido", ErrInvalidConfig, key)
	}
	n, ok := v.(int)
	if !ok {
		return 0, fmt.Errorf("%w: %s debe ser entero", ErrInvalidConfig, key)
	}
	return n, nil
}

func optionalInt(extras Extras, key string) (int, error) {
	if _, ok := extras[key]; !ok {
		return 0, nil
	}
	return requiredInt(extras, key)
}

func optionalBool(extras Extras, key string, def bool) (bool, error) {
	v, ok := extras[key]
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return def, fmt.Errorf("%w: %s debe ser booleano", ErrInvalidConfig, key)
	}
	return b, nil
}

func stringExtra(extras Extras, key string) (string, error) {
	v, ok := extras[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s debe ser texto", ErrInvalidConfig, key)
	}
	return s, nil
}
