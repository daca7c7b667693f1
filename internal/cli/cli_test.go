package cli

import (
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user0608/cropimage"
)

func TestParseRect(t *testing.T) {
	r, err := parseRect("10, 20,300,200")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(10, 20, 310, 220), r)

	r, err = parseRect("")
	require.NoError(t, err)
	assert.True(t, r.Empty())

	for _, bad := range []string{"1,2,3", "a,b,c,d", "0,0,0,10"} {
		_, err := parseRect(bad)
		assert.Error(t, err, bad)
	}
}

func TestCropPath(t *testing.T) {
	assert.Equal(t, filepath.Join("fotos", "ana_crop.jpg"), cropPath(filepath.Join("fotos", "ana.jpeg"), "", cropimage.FormatJPEG))
	assert.Equal(t, filepath.Join("out", "ana_crop.png"), cropPath(filepath.Join("fotos", "ana.jpg"), "out", cropimage.FormatPNG))
}

func TestCropOptionsExtras(t *testing.T) {
	opts := cropOptions{Image: "in.jpg", AspectX: 3, AspectY: 4, OutputX: 300, Circle: true, NoScaleUp: true, Format: "png"}
	req, err := cropimage.ParseRequest(opts.extras())
	require.NoError(t, err)
	assert.True(t, req.Crop.Circle)
	assert.False(t, req.Crop.ScaleUp)
	assert.Equal(t, 300, req.Crop.OutputX)
	assert.Equal(t, cropimage.FormatPNG, req.Crop.Format)
	assert.Equal(t, "in.jpg", req.Target())
}

func TestBuildEnv(t *testing.T) {
	env, err := buildEnv(detectorOptions{Backend: "none", Codec: "std"}, true)
	require.NoError(t, err)
	assert.Nil(t, env.Finder)
	assert.NotNil(t, env.Codec)
	assert.NotNil(t, env.Suggester)

	_, err = buildEnv(detectorOptions{Backend: "yolo"}, false)
	assert.Error(t, err)
	_, err = buildEnv(detectorOptions{Backend: "none", Codec: "magick"}, false)
	assert.Error(t, err)
	_, err = buildEnv(detectorOptions{Backend: "pigo", Cascade: filepath.Join(t.TempDir(), "missing")}, false)
	assert.Error(t, err)
}

func TestMessagesInSpanish(t *testing.T) {
	_, err := parseRect("1,2,3")
	assert.ErrorContains(t, err, "inválido")
	_, err = buildEnv(detectorOptions{Backend: "yolo"}, false)
	assert.ErrorContains(t, err, "detector desconocido")
	assert.ErrorContains(t, errNoDatabase, "base de datos no configurada")

	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			continue
		}
		assert.NotRegexp(t, `^(Crop|List|Drop|Estimate)\b`, cmd.Short, cmd.Name())
	}
	assert.Equal(t, "Recorte de imágenes guiado por rostros", rootCmd.Short)
}
