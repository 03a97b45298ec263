package cli

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"timebuddy/internal/csvcodec"
	"timebuddy/internal/store"

	"github.com/spf13/cobra"
)

func newExportCmd(app *App) *cobra.Command {
	var out string
	var xlsx bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all activities as CSV (or XLSX with --xlsx)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := withStore(commandContext(cmd), app, func(rt *runtime, st *store.ActivityStore) error {
				var b []byte
				var err error
				name := csvcodec.ExportFileName
				if xlsx {
					b, err = st.ExportXLSX()
					name = csvcodec.XLSXFileName
				} else {
					b, err = st.ExportCSV()
				}
				if err != nil {
					return err
				}

				if out == "-" {
					_, err := cmd.OutOrStdout().Write(b)
					return err
				}
				path := strings.TrimSpace(out)
				if path == "" {
					path = name
				}
				if err := store.WriteFileAtomic(path, b, 0o644); err != nil {
					return err
				}
				abs, _ := filepath.Abs(path)
				return writeOut(cmd, app, map[string]any{
					"data": map[string]any{
						"path":  abs,
						"rows":  len(csvcodec.Rows(st.Snapshot())),
						"bytes": len(b),
					},
				})
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Output file (default: "+csvcodec.ExportFileName+" in the current directory; - for stdout)")
	cmd.Flags().BoolVar(&xlsx, "xlsx", false, "Write an Excel workbook instead of CSV")
	return cmd
}

func newImportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Merge a CSV export (Date,Time,Activity) into the calendar; - reads stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader
			if args[0] == "-" {
				r = cmd.InOrStdin()
			} else {
				f, err := os.Open(args[0])
				if err != nil {
					return writeErr(cmd, err)
				}
				defer f.Close()
				r = f
			}
			err := withStore(commandContext(cmd), app, func(rt *runtime, st *store.ActivityStore) error {
				stats, err := st.ImportCSV(commandContext(cmd), r)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{
					"data":    stats,
					"message": store.MsgImported,
				})
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
	return cmd
}

func newResetCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete ALL activity data for the current session (requires --yes)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return writeErr(cmd, errors.New("refusing to delete all data without --yes"))
			}
			err := withStore(commandContext(cmd), app, func(rt *runtime, st *store.ActivityStore) error {
				if err := st.Reset(commandContext(cmd)); err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{
					"data":    map[string]any{"backend": st.BackendName()},
					"message": store.ResetMessage(st.BackendName()),
				})
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deleting all data")
	return cmd
}
