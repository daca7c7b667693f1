package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/user0608/cropimage/internal/history"
	"github.com/user0608/cropimage/internal/logging"
)

// Version is the application version.
const Version = "0.1.0"

// globalOptions holds flags shared by every subcommand.
type globalOptions struct {
	LogLevel string
	LogFile  string
	DBURL    string
	Detector detectorOptions
}

var (
	global globalOptions
	// DB is set only when a database URL was given.
	DB        *history.Store
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:           "cropimage",
	Short:         "Recorte de imágenes guiado por rostros",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_, logCloser = logging.New(logging.Config{Level: global.LogLevel, File: global.LogFile})

		if global.DBURL == "" {
			global.DBURL = os.Getenv("DATABASE_URL")
		}
		if global.DBURL == "" {
			return nil
		}
		var err error
		DB, err = history.New(cmd.Context(), global.DBURL)
		if err != nil {
			return fmt.Errorf("no se pudo conectar a la base de datos: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if DB != nil {
			// The command context may already be canceled by Ctrl+C.
			DB.Close(context.Background())
		}
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&global.LogLevel, "log-level", "info", "Nivel de log (debug, info, warn, error)")
	pf.StringVar(&global.LogFile, "log-file", "", "Escribe además los logs en este archivo rotado")
	pf.StringVar(&global.DBURL, "db", "", "Cadena de conexión PostgreSQL del historial (por defecto: $DATABASE_URL)")
	pf.StringVar(&global.Detector.Backend, "detector", "pigo", "Detector de rostros: pigo, opencv o none")
	pf.StringVar(&global.Detector.Cascade, "cascade", "models/facefinder", "Cascada de rostros (facefinder de pigo o XML Haar de OpenCV)")
	pf.StringVar(&global.Detector.Eyes, "eyes", "", "Modelo de ojos: cascada puploc de pigo o XML Haar de ojos de OpenCV")
	pf.StringVar(&global.Detector.Codec, "codec", "std", "Códec de imagen: std u opencv")
}
