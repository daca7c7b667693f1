package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var errNoDatabase = errors.New("base de datos no configurada: use --db o DATABASE_URL")

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Lista los recortes confirmados recientes",
	RunE: func(cmd *cobra.Command, args []string) error {
		if DB == nil {
			return errNoDatabase
		}
		entries, err := DB.List(cmd.Context(), historyLimit)
		if err != nil {
			return fmt.Errorf("no se pudieron listar los recortes: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("No hay recortes registrados.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tIMAGEN\tDESTINO\tRECORTE\tROSTROS\tROT\tCREADO")
		fmt.Fprintln(w, "--\t------\t-------\t-------\t-------\t---\t------")
		for _, e := range entries {
			fmt.Fprintf(w, "%d\t%s\t%s\t%v\t%d\t%d\t%s\n",
				e.ID, e.ImagePath, e.Target, e.Crop, e.Faces, e.Orientation,
				e.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var historyResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Elimina la tabla del historial de recortes",
	RunE: func(cmd *cobra.Command, args []string) error {
		if DB == nil {
			return errNoDatabase
		}
		if err := DB.Reset(cmd.Context()); err != nil {
			return fmt.Errorf("no se pudo reiniciar el historial: %w", err)
		}
		fmt.Println("Historial eliminado.")
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 50, "Cantidad de registros a mostrar")
	historyCmd.AddCommand(historyResetCmd)
	rootCmd.AddCommand(historyCmd)
}
