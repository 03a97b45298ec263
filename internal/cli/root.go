package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"timebuddy/internal/format"
	"timebuddy/internal/model"

	"github.com/spf13/cobra"
)

type App struct {
	Dir        string
	Date       string
	PrettyJSON bool
	Format     string

	// interactive is set while the TUI owns the terminal.
	interactive bool
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "timebuddy",
		Short:        "TimeBuddy activity calendar (CLI + TUI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive calendar
  timebuddy

  # Show a day (shortcut for: timebuddy day show 2024-01-05)
  timebuddy 2024-01-05

  # Log what you did this morning
  timebuddy slot set 09:00-10:00 "Standup, then code review"

  # Export everything as CSV
  timebuddy export --out TimeBuddy_Export.csv
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		switch app.Format {
		case "", "json", "text":
		default:
			return writeErr(cmd, fmt.Errorf("unknown format: %s (json|text)", app.Format))
		}
		if strings.TrimSpace(app.Date) != "" {
			if _, err := model.ParseDateKey(app.Date); err != nil {
				return writeErr(cmd, err)
			}
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("TIMEBUDDY_DIR", ""), "Data directory (default: $TIMEBUDDY_CONFIG_DIR or ~/.timebuddy)")
	cmd.PersistentFlags().StringVar(&app.Date, "date", envOr("TIMEBUDDY_DATE", ""), "Day to operate on, YYYY-MM-DD (default: today)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("TIMEBUDDY_FORMAT", "json"), "Output format (json|text)")

	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newAuthCmd(app))
	cmd.AddCommand(newDayCmd(app))
	cmd.AddCommand(newSlotCmd(app))
	cmd.AddCommand(newMonthCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newImportCmd(app))
	cmd.AddCommand(newResetCmd(app))
	cmd.AddCommand(newWatchCmd(app))

	return cmd
}

// dateKey resolves the day a command works on: an explicit positional
// argument, then --date, then today.
func dateKey(app *App, args []string) (model.DateKey, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return model.ParseDateKey(args[0])
	}
	if strings.TrimSpace(app.Date) != "" {
		return model.ParseDateKey(app.Date)
	}
	return model.Today(), nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), userMessage(err))
	return err
}
