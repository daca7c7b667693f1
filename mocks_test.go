package cropimage

import (
	"context"
	"image"
	"image/color"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCodec implements ImageCodec for testing
type MockCodec struct {
	mock.Mock
}

func (m *MockCodec) Dimensions(path string) (int, int, error) {
	args := m.Called(path)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *MockCodec) Decode(path string, sampleSize int) (image.Image, error) {
	args := m.Called(path, sampleSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(image.Image), args.Error(1)
}

func (m *MockCodec) Encode(w io.Writer, img image.Image, format Format, quality int) error {
	args := m.Called(w, img, format, quality)
	return args.Error(0)
}

// MockFinder implements FaceFinder for testing
type MockFinder struct {
	mock.Mock
}

func (m *MockFinder) FindFaces(ctx context.Context, img image.Image, maxFaces int) ([]Face, error) {
	args := m.Called(ctx, img, maxFaces)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Face), args.Error(1)
}

// staticFinder returns the same faces for every scan and counts the calls.
type staticFinder struct {
	mu    sync.Mutex
	faces []Face
	calls int
}

func (f *staticFinder) FindFaces(ctx context.Context, img image.Image, maxFaces int) ([]Face, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return append([]Face(nil), f.faces...), nil
}

func (f *staticFinder) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// gatedFinder finds nothing; every scan after the first waits for gate.
type gatedFinder struct {
	gate  chan struct{}
	calls atomic.Int32
}

func (f *gatedFinder) FindFaces(ctx context.Context, img image.Image, maxFaces int) ([]Face, error) {
	if f.calls.Add(1) > 1 {
		<-f.gate
	}
	return nil, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *recordingNotifier) Notify(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
}

func (n *recordingNotifier) Busy(msg string) func() { return func() {} }

func (n *recordingNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.msgs...)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testImage is an opaque gradient so crops and rotations are observable.
func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	return img
}

func writeTestImage(t *testing.T, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, imaging.Save(testImage(w, h), path))
	return path
}

func alphaAt(img image.Image, x, y int) uint8 {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA).A
}
