package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"
)

func newInitCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize local storage and, when configured, the online database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(commandContext(cmd), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer rt.Close()

			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"dir":          rt.cfg.Dir,
					"sqlitePath":   rt.local.Path(),
					"configFile":   filepath.Join(rt.cfg.Dir, "config.yaml"),
					"online":       rt.cfg.OnlineEnabled(),
					"googleSignIn": rt.cfg.OnlineEnabled() && rt.cfg.GoogleEnabled(),
				},
			})
		},
	}
	return cmd
}
