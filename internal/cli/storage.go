package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/user0608/cropimage"
)

var storageRoots cropimage.StorageRoots

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Estima cuántos recortes más caben en disco",
	Run: func(cmd *cobra.Command, args []string) {
		runStorage(storageRoots)
	},
}

func init() {
	def := cropimage.DefaultStorageRoots()
	storageCmd.Flags().StringVar(&storageRoots.External, "external", def.External, "Almacenamiento externo (por defecto: $EXTERNAL_STORAGE)")
	storageCmd.Flags().StringVar(&storageRoots.Private, "private", def.Private, "Almacenamiento privado usado si falta el externo")
	rootCmd.AddCommand(storageCmd)
}

func runStorage(roots cropimage.StorageRoots) {
	dir := roots.Dir()
	remaining := roots.PicturesRemaining()
	switch remaining {
	case cropimage.NoStorage:
		fmt.Fprintln(os.Stdout, "No hay almacenamiento disponible.")
	case cropimage.CannotStat:
		fmt.Fprintf(os.Stdout, "%s: espacio libre desconocido\n", dir)
	default:
		fmt.Fprintf(os.Stdout, "%s: espacio para unos %d recortes\n", dir, remaining)
	}
	if msg := cropimage.StorageWarning(remaining); msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}
}
