package cli

import (
	"fmt"
	"strings"

	"timebuddy/internal/mutate"
	"timebuddy/internal/store"

	"github.com/spf13/cobra"
)

func newSlotCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slot",
		Short: "Edit the activity slots of a day (--date, default today)",
	}
	cmd.AddCommand(newSlotAddCmd(app))
	cmd.AddCommand(newSlotSetCmd(app))
	cmd.AddCommand(newSlotRenameCmd(app))
	cmd.AddCommand(newSlotDeleteCmd(app))
	cmd.AddCommand(newSlotMoveCmd(app))
	return cmd
}

func newSlotAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an empty slot (time 00:00; rename it afterwards)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := dateKey(app, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			return runDayMutation(cmd, app, func(st *store.ActivityStore) (mutate.Result, error) {
				return st.Apply(commandContext(cmd), key, mutate.AddSlot{})
			})
		},
	}
	return cmd
}

func newSlotSetCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <time> [text...]",
		Short: "Set what you did in a slot (no text clears it)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := dateKey(app, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			timeKey := strings.TrimSpace(args[0])
			text := strings.TrimSpace(strings.Join(args[1:], " "))
			return runDayMutation(cmd, app, func(st *store.ActivityStore) (mutate.Result, error) {
				return st.Apply(commandContext(cmd), key, mutate.UpdateActivityText{TimeKey: timeKey, NewText: text})
			})
		},
	}
	return cmd
}

func newSlotRenameCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <old-time> <new-time>",
		Short: "Change a slot's time label",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := dateKey(app, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			oldKey, newKey := strings.TrimSpace(args[0]), strings.TrimSpace(args[1])
			return runDayMutation(cmd, app, func(st *store.ActivityStore) (mutate.Result, error) {
				return st.RenameSlot(commandContext(cmd), key, oldKey, newKey)
			})
		},
	}
	return cmd
}

func newSlotDeleteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <time>",
		Short: "Delete a slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := dateKey(app, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			timeKey := strings.TrimSpace(args[0])
			return runDayMutation(cmd, app, func(st *store.ActivityStore) (mutate.Result, error) {
				deleted, err := st.DeleteSlot(commandContext(cmd), key, timeKey)
				if err != nil {
					return mutate.Result{}, err
				}
				if !deleted {
					return mutate.Result{}, errNotFound("slot", timeKey)
				}
				return mutate.Result{Changed: true, Message: mutate.MsgDeleted}, nil
			})
		},
	}
	return cmd
}

func newSlotMoveCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "move <time> up|down",
		Short:     "Move a slot one position up or down",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := dateKey(app, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			var delta int
			switch strings.ToLower(strings.TrimSpace(args[1])) {
			case "up":
				delta = -1
			case "down":
				delta = 1
			default:
				return writeErr(cmd, fmt.Errorf("direction must be up or down, got %q", args[1]))
			}
			timeKey := strings.TrimSpace(args[0])
			return runDayMutation(cmd, app, func(st *store.ActivityStore) (mutate.Result, error) {
				return st.MoveSlot(commandContext(cmd), key, timeKey, delta)
			})
		},
	}
	return cmd
}
