package opencv

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/user0608/cropimage"
	"gocv.io/x/gocv"
)

// eyesRatio estimates the eye distance from the face width when the eye
// cascade does not find both eyes.
const eyesRatio = 0.4

type CascadeFinder struct {
	mu      sync.Mutex
	faceCls gocv.CascadeClassifier
	eyeCls  *gocv.CascadeClassifier
}

// NewCascadeFinder loads a Haar face cascade and optionally an eye cascade
// (eyeModel may be empty).
func NewCascadeFinder(faceModel, eyeModel string) (*CascadeFinder, error) {
	if faceModel == "" {
		slog.Error("ruta de modelo vacía")
		return nil, errors.New("modelo requerido")
	}
	cls := gocv.NewCascadeClassifier()
	if !cls.Load(faceModel) {
		cls.Close()
		slog.Error("no se pudo cargar haarcascade", "path", faceModel)
		return nil, errors.New("carga de haarcascade falló")
	}
	f := &CascadeFinder{faceCls: cls}
	if eyeModel != "" {
		eye := gocv.NewCascadeClassifier()
		if !eye.Load(eyeModel) {
			eye.Close()
			cls.Close()
			slog.Error("no se pudo cargar cascada de ojos", "path", eyeModel)
			return nil, errors.New("carga de cascada de ojos falló")
		}
		f.eyeCls = &eye
	}
	return f, nil
}

func (f *CascadeFinder) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.eyeCls != nil {
		f.eyeCls.Close()
	}
	return f.faceCls.Close()
}

func (f *CascadeFinder) FindFaces(ctx context.Context, img image.Image, maxFaces int) ([]cropimage.Face, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, err
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.New("imagen vacía")
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	f.mu.Lock()
	defer f.mu.Unlock()
	rects := f.faceCls.DetectMultiScale(gray)

	var faces []cropimage.Face
	for _, r := range rects {
		if maxFaces > 0 && len(faces) == maxFaces {
			break
		}
		faces = append(faces, f.face(gray, r))
	}
	return faces, nil
}

func (f *CascadeFinder) face(gray gocv.Mat, r image.Rectangle) cropimage.Face {
	face := cropimage.Face{
		MidX:         float64(r.Min.X) + float64(r.Dx())/2,
		MidY:         float64(r.Min.Y) + float64(r.Dy())*0.4,
		EyesDistance: eyesRatio * float64(r.Dx()),
	}
	if f.eyeCls == nil {
		return face
	}

	roi := gray.Region(r)
	defer roi.Close()
	eyes := f.eyeCls.DetectMultiScale(roi)
	if len(eyes) < 2 {
		return face
	}
	sort.Slice(eyes, func(i, j int) bool {
		return eyes[i].Dx()*eyes[i].Dy() > eyes[j].Dx()*eyes[j].Dy()
	})
	ax, ay := center(eyes[0])
	bx, by := center(eyes[1])
	face.MidX = float64(r.Min.X) + (ax+bx)/2
	face.MidY = float64(r.Min.Y) + (ay+by)/2
	face.EyesDistance = math.Hypot(ax-bx, ay-by)
	return face
}

func center(r image.Rectangle) (float64, float64) {
	return float64(r.Min.X) + float64(r.Dx())/2, float64(r.Min.Y) + float64(r.Dy())/2
}
