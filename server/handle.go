package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/user0608/cropimage"
	"github.com/user0608/cropimage/internal/history"
	"github.com/user0608/goones/answer"
	"github.com/user0608/goones/errs"
)

var acceptedTypes = []string{"image/png", "image/jpeg", "image/webp"}

const maxUpload = 20 << 20

// bufferCloser collects the encoded crop in memory.
type bufferCloser struct {
	*bytes.Buffer
}

func (bufferCloser) Close() error { return nil }

// intField parses an optional integer form value into extras.
func intField(c echo.Context, extras cropimage.Extras, field, key string) error {
	v := c.FormValue(field)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return errs.BadRequestDirect("el campo " + field + " debe ser un número entero")
	}
	extras[key] = n
	return nil
}

func readUpload(c echo.Context) ([]byte, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return nil, errs.BadRequestDirect("la foto enviada en la solicitud está vacía")
	}
	if fh.Size > maxUpload {
		return nil, errs.BadRequestDirect("la foto supera el tamaño permitido")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, errs.InternalErrorDirect("no se pudo leer la foto enviada")
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, errs.BadRequestDirect("la foto enviada está incompleta o dañada")
		}
		return nil, errs.InternalErrorDirect("no se pudo leer el cuerpo de la solicitud")
	}
	return content, nil
}

// buildExtras maps the multipart form to crop parameters. aspectX and
// aspectY are required, like for any other caller.
func buildExtras(c echo.Context, path string) (cropimage.Extras, error) {
	extras := cropimage.Extras{
		cropimage.KeyImagePath: path,
		cropimage.KeyOutput:    path + ".out",
	}
	fields := []struct{ field, key string }{
		{"aspectX", cropimage.KeyAspectX},
		{"aspectY", cropimage.KeyAspectY},
		{"outputX", cropimage.KeyOutputX},
		{"outputY", cropimage.KeyOutputY},
	}
	for _, f := range fields {
		if err := intField(c, extras, f.field, f.key); err != nil {
			return nil, err
		}
	}
	if v := c.FormValue("circle"); v != "" && v != "false" {
		extras[cropimage.KeyCircleCrop] = v
	}
	if v := c.FormValue("format"); v != "" {
		extras[cropimage.KeyOutputFormat] = v
	}
	if c.FormValue("scaleUp") == "false" {
		extras[cropimage.KeyScaleUpIfNeeded] = false
	}
	return extras, nil
}

func NewCropHandle(env cropimage.Env, db *history.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		content, err := readUpload(c)
		if err != nil {
			return answer.Err(c, err)
		}
		mime := mimetype.Detect(content)
		if !slices.Contains(acceptedTypes, mime.String()) {
			return answer.Err(c, errs.BadRequestDirect("solo se aceptan imágenes en formato PNG, JPG o WEBP"))
		}

		path := filepath.Join(os.TempDir(), "cropimage-"+uuid.NewString()+mime.Extension())
		if err := os.WriteFile(path, content, 0o600); err != nil {
			c.Logger().Errorf("no se pudo guardar la foto temporal: %v", err)
			return answer.Err(c, errs.InternalErrorDirect("no se pudo procesar la foto"))
		}
		defer os.Remove(path)

		extras, err := buildExtras(c, path)
		if err != nil {
			return answer.Err(c, err)
		}
		req, err := cropimage.ParseRequest(extras)
		if err != nil {
			return answer.Err(c, errs.BadRequestDirect(err.Error()))
		}

		opts := cropimage.DefaultOptions()
		if p := c.FormValue("pick"); p != "" {
			if opts.Pick, err = strconv.Atoi(p); err != nil {
				return answer.Err(c, errs.BadRequestDirect("el campo pick debe ser un número entero"))
			}
		}

		var out bytes.Buffer
		reqEnv := env
		reqEnv.Opener = func(string) (io.WriteCloser, error) { return bufferCloser{&out}, nil }
		cropper := cropimage.New(reqEnv, &opts)

		res, err := cropper.Process(c.Request().Context(), req)
		if err != nil {
			if errors.Is(err, cropimage.ErrDecode) || errors.Is(err, cropimage.ErrUnsupported) {
				return answer.Err(c, errs.BadRequestDirect("la foto enviada no se pudo leer"))
			}
			if errors.Is(err, context.DeadlineExceeded) {
				return answer.Err(c, errs.InternalErrorDirect("el recorte tardó demasiado"))
			}
			c.Logger().Errorf("recorte fallido: %v", err)
			return answer.Err(c, errs.InternalErrorDirect("no se pudo recortar la foto"))
		}
		if db != nil {
			res.Target = "upload:" + filepath.Base(path)
			if _, err := db.Record(c.Request().Context(), history.Entry{
				ImagePath:   uploadName(c),
				Target:      res.Target,
				Crop:        res.Crop,
				Faces:       res.Faces,
				Orientation: res.Orientation,
			}); err != nil {
				c.Logger().Warnf("no se pudo registrar el recorte: %v", err)
			}
		}

		c.Response().Header().Set("X-Crop-Faces", strconv.Itoa(res.Faces))
		return c.Blob(http.StatusOK, mimetype.Detect(out.Bytes()).String(), out.Bytes())
	}
}

// uploadName is the uploaded file name, used as the source in the history.
func uploadName(c echo.Context) string {
	if f, err := c.FormFile("image"); err == nil {
		return f.Filename
	}
	return ""
}

// storageResponse reports the remaining-space estimate of the server.
type storageResponse struct {
	Dir       string `json:"dir"`
	Remaining int    `json:"remaining"`
	Warning   string `json:"warning,omitempty"`
}

func NewStorageHandle(roots cropimage.StorageRoots) echo.HandlerFunc {
	return func(c echo.Context) error {
		remaining := roots.PicturesRemaining()
		return c.JSON(http.StatusOK, storageResponse{
			Dir:       roots.Dir(),
			Remaining: remaining,
			Warning:   cropimage.StorageWarning(remaining),
		})
	}
}
