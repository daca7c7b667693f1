// Package pigoface finds faces with the pure Go pigo cascade, so the crop
// pipeline can run without cgo.
package pigoface

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"os"

	pigo "github.com/esimov/pigo/core"
	"github.com/user0608/cropimage"
)

// eyesRatio approximates the pupil distance from the detection size when no
// pupil cascade is loaded.
const eyesRatio = 0.36

type Params struct {
	MinSize          int
	MaxSize          int
	ShiftFactor      float64
	ScaleFactor      float64
	IoUThreshold     float64
	QualityThreshold float32
	Perturbs         int
}

func DefaultParams() Params {
	return Params{
		MinSize:          20,
		MaxSize:          1000,
		ShiftFactor:      0.1,
		ScaleFactor:      1.1,
		IoUThreshold:     0.2,
		QualityThreshold: 5.0,
		Perturbs:         50,
	}
}

type Finder struct {
	params     Params
	classifier *pigo.Pigo
	puploc     *pigo.PuplocCascade
}

// New unpacks the face cascade and, when given, the pupil cascade.
func New(cascade, puploc []byte, params *Params) (*Finder, error) {
	if len(cascade) == 0 {
		return nil, errors.New("cascada de rostros requerida")
	}
	if params == nil {
		def := DefaultParams()
		params = &def
	}
	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("no se pudo desempaquetar la cascada: %w", err)
	}
	f := &Finder{params: *params, classifier: classifier}
	if len(puploc) > 0 {
		f.puploc, err = pigo.NewPuplocCascade().UnpackCascade(puploc)
		if err != nil {
			return nil, fmt.Errorf("no se pudo desempaquetar puploc: %w", err)
		}
	}
	return f, nil
}

// Load reads the cascade files from disk. puplocPath may be empty.
func Load(cascadePath, puplocPath string, params *Params) (*Finder, error) {
	cascade, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, fmt.Errorf("no se pudo leer la cascada: %w", err)
	}
	var puploc []byte
	if puplocPath != "" {
		if puploc, err = os.ReadFile(puplocPath); err != nil {
			return nil, fmt.Errorf("no se pudo leer puploc: %w", err)
		}
	}
	slog.Debug("pigo inicializado", "cascade", cascadePath, "puploc", puplocPath)
	return New(cascade, puploc, params)
}

func (f *Finder) FindFaces(ctx context.Context, img image.Image, maxFaces int) ([]cropimage.Face, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src := pigo.ImgToNRGBA(img)
	cols, rows := src.Bounds().Dx(), src.Bounds().Dy()
	imgParams := pigo.ImageParams{
		Pixels: pigo.RgbToGrayscale(src),
		Rows:   rows,
		Cols:   cols,
		Dim:    cols,
	}
	dets := f.classifier.RunCascade(pigo.CascadeParams{
		MinSize:     f.params.MinSize,
		MaxSize:     min(f.params.MaxSize, max(rows, cols)),
		ShiftFactor: f.params.ShiftFactor,
		ScaleFactor: f.params.ScaleFactor,
		ImageParams: imgParams,
	}, 0.0)
	dets = f.classifier.ClusterDetections(dets, f.params.IoUThreshold)
	return f.collect(dets, imgParams, maxFaces), nil
}

// collect keeps detections above the quality threshold, in order, up to
// maxFaces (0 means no limit).
func (f *Finder) collect(dets []pigo.Detection, img pigo.ImageParams, maxFaces int) []cropimage.Face {
	var faces []cropimage.Face
	for _, det := range dets {
		if det.Q < f.params.QualityThreshold {
			continue
		}
		if maxFaces > 0 && len(faces) == maxFaces {
			break
		}
		faces = append(faces, f.face(det, img))
	}
	return faces
}

func (f *Finder) face(det pigo.Detection, img pigo.ImageParams) cropimage.Face {
	face := cropimage.Face{
		MidX:         float64(det.Col),
		MidY:         float64(det.Row) - 0.075*float64(det.Scale),
		EyesDistance: eyesRatio * float64(det.Scale),
		Confidence:   float64(det.Q),
	}
	if f.puploc == nil {
		return face
	}

	scale := float32(det.Scale)
	row := det.Row - int(0.075*scale)
	left := f.puploc.RunDetector(pigo.Puploc{
		Row:      row,
		Col:      det.Col - int(0.175*scale),
		Scale:    scale * 0.25,
		Perturbs: f.params.Perturbs,
	}, img, 0.0, false)
	right := f.puploc.RunDetector(pigo.Puploc{
		Row:      row,
		Col:      det.Col + int(0.185*scale),
		Scale:    scale * 0.25,
		Perturbs: f.params.Perturbs,
	}, img, 0.0, false)
	return withPupils(face, left, right)
}

// withPupils centres face between the two pupils and measures their
// distance. A missing pupil leaves the estimate untouched.
func withPupils(face cropimage.Face, left, right *pigo.Puploc) cropimage.Face {
	if left == nil || right == nil || left.Row <= 0 || left.Col <= 0 || right.Row <= 0 || right.Col <= 0 {
		return face
	}
	face.MidX = float64(left.Col+right.Col) / 2
	face.MidY = float64(left.Row+right.Row) / 2
	face.EyesDistance = math.Hypot(float64(right.Col-left.Col), float64(right.Row-left.Row))
	return face
}
