package cli

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"timebuddy/internal/session"
	"timebuddy/internal/tui"
)

func runTUI(cmd *cobra.Command, app *App) error {
	ctx := commandContext(cmd)
	start, err := dateKey(app, nil)
	if err != nil {
		return writeErr(cmd, err)
	}

	app.interactive = true
	rt, err := openRuntime(ctx, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer rt.Close()

	mode, err := rt.session.Start(ctx)
	if err != nil {
		return writeErr(cmd, err)
	}
	switch {
	case mode == session.ModeOnline:
		if err := rt.session.Follow(ctx); err != nil {
			rt.logger.Warn("live updates unavailable", zap.Error(err))
		}
	case mode == session.ModeNone && !rt.session.OnlineAvailable():
		// Nothing to sign in to.
		if err := rt.session.ContinueOffline(ctx); err != nil {
			return writeErr(cmd, err)
		}
	}
	startMetrics(ctx, rt)

	opts := tui.Options{
		Session: rt.session,
		Start:   start,
		Logger:  rt.logger,
	}
	if rt.auth != nil {
		opts.Auth = rt.auth
	}
	if wd, err := os.Getwd(); err == nil {
		opts.ExportDir = wd
	}
	return tui.Run(ctx, opts)
}
