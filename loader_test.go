package cropimage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSampleSize(t *testing.T) {
	tests := []struct {
		w, h int
		want int
	}{
		{1024, 768, 1},
		{100, 100, 1},
		{1025, 10, 2},
		{10, 1025, 2},
		{2048, 2048, 2},
		{2049, 100, 4},
		{4000, 3000, 4},
		{4097, 3000, 8},
		{0, 0, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SampleSize(tt.w, tt.h, MaxImageSize), "%dx%d", tt.w, tt.h)
	}
	assert.Equal(t, 1, SampleSize(5000, 5000, 0))
}

func TestSampleSizeIsSmallestPowerOfTwo(t *testing.T) {
	for longest := 1; longest <= 20000; longest += 37 {
		s := SampleSize(longest, longest/2, MaxImageSize)
		assert.Zero(t, s&(s-1), "%d is not a power of two", s)
		assert.LessOrEqual(t, longest, MaxImageSize*s)
		if s > 1 {
			assert.Greater(t, longest, MaxImageSize*(s/2), "sample %d too large for %d", s, longest)
		}
	}
}

func TestLoadImageHeaderFailureSkipsDecode(t *testing.T) {
	codec := new(MockCodec)
	codec.On("Dimensions", "broken.jpg").Return(0, 0, errors.New("bad header"))

	img, err := LoadImage(codec, "broken.jpg")
	assert.Nil(t, img)
	assert.ErrorIs(t, err, ErrDecode)
	codec.AssertNotCalled(t, "Decode", mock.Anything, mock.Anything)
}

func TestLoadImageDecodesWithSampleSize(t *testing.T) {
	codec := new(MockCodec)
	codec.On("Dimensions", "big.jpg").Return(3000, 2000, nil)
	codec.On("Decode", "big.jpg", 4).Return(testImage(750, 500), nil)

	img, err := LoadImage(codec, "big.jpg")
	require.NoError(t, err)
	assert.Equal(t, 750, img.Bounds().Dx())
	codec.AssertExpectations(t)
}

func TestLoadImageDecodeFailure(t *testing.T) {
	codec := new(MockCodec)
	codec.On("Dimensions", "a.jpg").Return(10, 10, nil)
	codec.On("Decode", "a.jpg", 1).Return(nil, errors.New("truncated"))

	_, err := LoadImage(codec, "a.jpg")
	assert.ErrorIs(t, err, ErrDecode)
}

func TestLoadImageDownsamplesFile(t *testing.T) {
	path := writeTestImage(t, "wide.png", 2100, 100)

	img, err := LoadImage(NewCodec(), path)
	require.NoError(t, err)
	assert.Equal(t, 525, img.Bounds().Dx())
	assert.Equal(t, 25, img.Bounds().Dy())
}

func TestLoadImageRejectsNonImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("esto no es una imagen\n"), 0o644))

	_, err := LoadImage(NewCodec(), path)
	assert.ErrorIs(t, err, ErrDecode)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestLoadImageMissingFile(t *testing.T) {
	_, err := LoadImage(NewCodec(), filepath.Join(t.TempDir(), "missing.jpg"))
	assert.ErrorIs(t, err, ErrDecode)
}
