package cli

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/user0608/cropimage"
	"github.com/user0608/cropimage/internal/history"
)

type cropOptions struct {
	Image     string
	Output    string
	AspectX   int
	AspectY   int
	OutputX   int
	OutputY   int
	NoScaleUp bool
	Circle    bool
	Format    string
	Pick      int
	Smart     bool
	NoFaces   bool
	Rect      string
}

var cropOpts cropOptions

var cropCmd = &cobra.Command{
	Use:   "crop",
	Short: "Recorta una imagen alrededor del rostro detectado",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCrop(cmd.Context(), cropOpts)
	},
}

func init() {
	f := cropCmd.Flags()
	f.StringVarP(&cropOpts.Image, "image", "i", "", "Ruta de la imagen original")
	f.StringVarP(&cropOpts.Output, "output", "o", "", "Archivo de destino (por defecto: sobrescribe el original)")
	f.IntVarP(&cropOpts.AspectX, "aspect-x", "x", 0, "Numerador de la relación de aspecto (0 con aspect-y 0 para recorte libre)")
	f.IntVarP(&cropOpts.AspectY, "aspect-y", "y", 0, "Denominador de la relación de aspecto")
	f.IntVar(&cropOpts.OutputX, "output-x", 0, "Ancho de salida en píxeles")
	f.IntVar(&cropOpts.OutputY, "output-y", 0, "Alto de salida en píxeles")
	f.BoolVar(&cropOpts.NoScaleUp, "no-scale-up", false, "Rellena los recortes pequeños en lugar de ampliarlos")
	f.BoolVar(&cropOpts.Circle, "circle", false, "Recorte circular con exterior transparente (fuerza 1:1)")
	f.StringVarP(&cropOpts.Format, "format", "f", "jpeg", "Formato de salida: jpeg o png")
	f.IntVarP(&cropOpts.Pick, "pick", "p", 0, "Región de rostro a recortar cuando hay varias")
	f.BoolVar(&cropOpts.Smart, "smart", false, "Ubica la región según el contenido si no hay rostros")
	f.BoolVar(&cropOpts.NoFaces, "no-face-detection", false, "Omite la detección de rostros y usa la región centrada")
	f.StringVar(&cropOpts.Rect, "rect", "", "Rectángulo manual x,y,w,h en píxeles de la imagen")

	cropCmd.MarkFlagRequired("image")
	cropCmd.MarkFlagRequired("aspect-x")
	cropCmd.MarkFlagRequired("aspect-y")
	rootCmd.AddCommand(cropCmd)
}

// extras turns the flags into the parameters a caller would pass.
func (o cropOptions) extras() cropimage.Extras {
	e := cropimage.Extras{
		cropimage.KeyImagePath:       o.Image,
		cropimage.KeyAspectX:         o.AspectX,
		cropimage.KeyAspectY:         o.AspectY,
		cropimage.KeyScaleUpIfNeeded: !o.NoScaleUp,
		cropimage.KeyOutputFormat:    o.Format,
		cropimage.KeyNoFaceDetection: o.NoFaces,
	}
	if o.Output != "" {
		e[cropimage.KeyOutput] = o.Output
	}
	if o.OutputX > 0 {
		e[cropimage.KeyOutputX] = o.OutputX
	}
	if o.OutputY > 0 {
		e[cropimage.KeyOutputY] = o.OutputY
	}
	if o.Circle {
		e[cropimage.KeyCircleCrop] = "true"
	}
	return e
}

// parseRect reads "x,y,w,h".
func parseRect(s string) (image.Rectangle, error) {
	if s == "" {
		return image.Rectangle{}, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("rectángulo %q inválido: se espera x,y,w,h", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("rectángulo %q inválido: %w", s, err)
		}
		v[i] = n
	}
	if v[2] <= 0 || v[3] <= 0 {
		return image.Rectangle{}, fmt.Errorf("rectángulo %q inválido: tamaño vacío", s)
	}
	return image.Rect(v[0], v[1], v[0]+v[2], v[1]+v[3]), nil
}

func runCrop(ctx context.Context, opts cropOptions) error {
	req, err := cropimage.ParseRequest(opts.extras())
	if err != nil {
		return err
	}
	rect, err := parseRect(opts.Rect)
	if err != nil {
		return err
	}

	env, err := buildEnv(global.Detector, opts.Smart)
	if err != nil {
		return err
	}
	roots := cropimage.DefaultStorageRoots()
	env.Storage = &roots

	copts := cropimage.DefaultOptions()
	copts.Pick = opts.Pick
	copts.Rect = rect
	c := cropimage.New(env, &copts)
	defer c.Close()

	res, err := c.Process(ctx, req)
	if err != nil {
		return fmt.Errorf("recorte de %s: %w", req.ImagePath, err)
	}
	record(ctx, res)
	fmt.Fprintf(os.Stdout, "%s -> %s (%d rostros, recorte %v)\n", res.ImagePath, res.Target, res.Faces, res.Crop)
	return nil
}

// record saves a confirmed crop in the history when a database is configured.
func record(ctx context.Context, res cropimage.Result) {
	if DB == nil {
		return
	}
	id, err := DB.Record(ctx, history.Entry{
		ImagePath:   res.ImagePath,
		Target:      res.Target,
		Crop:        res.Crop,
		Faces:       res.Faces,
		Orientation: res.Orientation,
	})
	if err != nil {
		slog.Warn("no se pudo registrar el recorte", "image", res.ImagePath, "err", err)
		return
	}
	slog.Debug("recorte registrado", "id", id)
}
