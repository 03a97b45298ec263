package cli

import (
	"timebuddy/internal/store"

	"github.com/spf13/cobra"
)

func newMonthCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "month [YYYY-MM-DD]",
		Short: "Show the month containing the date, marking days with activity",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := dateKey(app, args)
			if err != nil {
				return writeErr(cmd, err)
			}
			err = withStore(commandContext(cmd), app, func(rt *runtime, st *store.ActivityStore) error {
				return writeOut(cmd, app, map[string]any{"data": newMonthView(key, st.Snapshot())})
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
	return cmd
}
