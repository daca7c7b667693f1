package cropimage

import (
	"bytes"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecEncodeFormats(t *testing.T) {
	c := NewCodec()
	src := testImage(40, 30)

	for _, tt := range []struct {
		format Format
		name   string
	}{
		{FormatJPEG, "jpeg"},
		{FormatPNG, "png"},
	} {
		var buf bytes.Buffer
		require.NoError(t, c.Encode(&buf, src, tt.format, OutputQuality))
		cfg, name, err := image.DecodeConfig(&buf)
		require.NoError(t, err)
		assert.Equal(t, tt.name, name)
		assert.Equal(t, 40, cfg.Width)
		assert.Equal(t, 30, cfg.Height)
	}

	err := c.Encode(&bytes.Buffer{}, src, Format("gif"), OutputQuality)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestCodecDimensionsAndDecode(t *testing.T) {
	path := writeTestImage(t, "photo.jpg", 300, 200)
	c := NewCodec()

	w, h, err := c.Dimensions(path)
	require.NoError(t, err)
	assert.Equal(t, 300, w)
	assert.Equal(t, 200, h)

	img, err := c.Decode(path, 2)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 150, 100), img.Bounds())
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatJPEG, "JPG": FormatJPEG, "jpeg": FormatJPEG, " png ": FormatPNG} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("bmp")
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Equal(t, ".png", FormatPNG.Ext())
	assert.Equal(t, ".jpg", FormatJPEG.Ext())
}
