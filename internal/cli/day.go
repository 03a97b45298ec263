package cli

import (
	"fmt"
	"sort"
	"strings"

	"timebuddy/internal/mutate"
	"timebuddy/internal/store"

	"github.com/spf13/cobra"
)

func newDayCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "day",
		Short: "Day view commands",
	}
	cmd.AddCommand(newDayShowCmd(app))
	cmd.AddCommand(newDayNoteCmd(app))
	cmd.AddCommand(newDayReorderCmd(app))
	return cmd
}

func newDayShowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [YYYY-MM-DD]",
		Short: "Show a day's note and activities (defaults shown for untouched weekdays)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := dateKey(app, args)
			if err != nil {
				return writeErr(cmd, err)
			}
			err = withStore(commandContext(cmd), app, func(rt *runtime, st *store.ActivityStore) error {
				return writeOut(cmd, app, map[string]any{"data": newDayView(key, st.Day(key))})
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
	return cmd
}

func newDayNoteCmd(app *App) *cobra.Command {
	var clearNote bool
	cmd := &cobra.Command{
		Use:   "note [text...]",
		Short: "Set the day's note (--clear removes it)",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if !clearNote && text == "" {
				return writeErr(cmd, fmt.Errorf("note text is required (or pass --clear)"))
			}
			if clearNote {
				text = ""
			}
			key, err := dateKey(app, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			return runDayMutation(cmd, app, func(st *store.ActivityStore) (mutate.Result, error) {
				return st.Apply(commandContext(cmd), key, mutate.SaveNote{Text: text})
			})
		},
	}
	cmd.Flags().BoolVar(&clearNote, "clear", false, "Remove the note")
	return cmd
}

func newDayReorderCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reorder <time>...",
		Short: "Reorder the day's activities; list every time key in the new order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := dateKey(app, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			return runDayMutation(cmd, app, func(st *store.ActivityStore) (mutate.Result, error) {
				shown := mutate.DisplaySlots(st.Day(key), key)
				current := make([]string, len(shown))
				for i, s := range shown {
					current[i] = s.Time
				}
				if !sameKeys(current, args) {
					return mutate.Result{}, fmt.Errorf("reorder must list exactly the day's time keys: %s", strings.Join(current, ", "))
				}
				return st.ReorderDay(commandContext(cmd), key, args)
			})
		},
	}
	return cmd
}

func sameKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]string(nil), a...)
	y := append([]string(nil), b...)
	sort.Strings(x)
	sort.Strings(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

// runDayMutation runs fn against the active store and prints the resulting
// day with the mutation's confirmation message.
func runDayMutation(cmd *cobra.Command, app *App, fn func(st *store.ActivityStore) (mutate.Result, error)) error {
	key, err := dateKey(app, nil)
	if err != nil {
		return writeErr(cmd, err)
	}
	err = withStore(commandContext(cmd), app, func(rt *runtime, st *store.ActivityStore) error {
		res, err := fn(st)
		if err != nil {
			return err
		}
		out := map[string]any{"data": newDayView(key, st.Day(key))}
		if res.Message != "" {
			out["message"] = res.Message
		}
		return writeOut(cmd, app, out)
	})
	if err != nil {
		return writeErr(cmd, err)
	}
	return nil
}
