package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/user0608/cropimage"
	"golang.org/x/sync/errgroup"
)

type batchOptions struct {
	OutDir  string
	AspectX int
	AspectY int
	OutputX int
	OutputY int
	Format  string
	Workers int
	Smart   bool
}

var batchOpts batchOptions

var batchCmd = &cobra.Command{
	Use:   "batch <image>...",
	Short: "Recorta varias imágenes en paralelo",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd.Context(), args, batchOpts)
	},
}

func init() {
	f := batchCmd.Flags()
	f.StringVarP(&batchOpts.OutDir, "out-dir", "d", "", "Directorio de los recortes (por defecto: junto a cada original)")
	f.IntVarP(&batchOpts.AspectX, "aspect-x", "x", 1, "Numerador de la relación de aspecto")
	f.IntVarP(&batchOpts.AspectY, "aspect-y", "y", 1, "Denominador de la relación de aspecto")
	f.IntVar(&batchOpts.OutputX, "output-x", 0, "Ancho de salida en píxeles")
	f.IntVar(&batchOpts.OutputY, "output-y", 0, "Alto de salida en píxeles")
	f.StringVarP(&batchOpts.Format, "format", "f", "jpeg", "Formato de salida: jpeg o png")
	f.IntVarP(&batchOpts.Workers, "workers", "w", 4, "Imágenes procesadas a la vez")
	f.BoolVar(&batchOpts.Smart, "smart", false, "Ubica la región según el contenido si no hay rostros")
	rootCmd.AddCommand(batchCmd)
}

// cropPath is where the crop of src goes: <name>_crop<ext> in dir, or next
// to src when dir is empty.
func cropPath(src, dir string, format cropimage.Format) string {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	if dir == "" {
		dir = filepath.Dir(src)
	}
	return filepath.Join(dir, base+"_crop"+format.Ext())
}

func runBatch(ctx context.Context, paths []string, opts batchOptions) error {
	format, err := cropimage.ParseFormat(opts.Format)
	if err != nil {
		return err
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	env, err := buildEnv(global.Detector, opts.Smart)
	if err != nil {
		return err
	}
	c := cropimage.New(env, nil)
	defer c.Close()

	batchID := uuid.NewString()
	log := slog.With("batch", batchID[:8])
	log.Info("procesando lote", "images", len(paths), "workers", opts.Workers)

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription("✂️  Recortando"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)

	var failed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for _, p := range paths {
		g.Go(func() error {
			defer bar.Add(1)
			req := cropimage.Request{
				ImagePath: p,
				Output:    cropPath(p, opts.OutDir, format),
				Crop: cropimage.CropConfig{
					AspectX: opts.AspectX,
					AspectY: opts.AspectY,
					OutputX: opts.OutputX,
					OutputY: opts.OutputY,
					ScaleUp: true,
					Format:  format,
				},
			}
			res, err := c.Process(gctx, req)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				log.Error("no se pudo recortar", "image", p, "err", err)
				return nil
			}
			record(gctx, res)
			return nil
		})
	}
	err = g.Wait()
	bar.Finish()
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\nLote %s: %d recortados, %d fallidos\n", batchID[:8], len(paths)-int(failed.Load()), failed.Load())
	if failed.Load() > 0 {
		return fmt.Errorf("fallaron %d de %d imágenes", failed.Load(), len(paths))
	}
	return nil
}
