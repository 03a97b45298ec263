package cli

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"timebuddy/internal/model"
	"timebuddy/internal/observability"
	"timebuddy/internal/session"
	"timebuddy/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errWatchOffline = errors.New("watch needs an online session; run `timebuddy auth signin`")

func newWatchCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [YYYY-MM-DD]",
		Short: "Print the day again every time it changes on another device (Ctrl-C to stop)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := dateKey(app, args)
			if err != nil {
				return writeErr(cmd, err)
			}
			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err = withStore(ctx, app, func(rt *runtime, st *store.ActivityStore) error {
				if rt.session.Mode() != session.ModeOnline {
					return errWatchOffline
				}
				startMetrics(ctx, rt)

				changed := make(chan model.UserActivityData, 1)
				cancel := st.Observe(func(d model.UserActivityData) {
					select {
					case changed <- d:
					default:
						// Drop the stale pending snapshot for the newer one.
						select {
						case <-changed:
						default:
						}
						select {
						case changed <- d:
						default:
						}
					}
				})
				defer cancel()

				if err := rt.session.Follow(ctx); err != nil {
					return err
				}
				if err := writeOut(cmd, app, map[string]any{"data": newDayView(key, st.Day(key))}); err != nil {
					return err
				}
				last := st.Day(key)
				for {
					select {
					case <-ctx.Done():
						return nil
					case d := <-changed:
						day := d.Day(key)
						if sameDay(last, day) {
							continue
						}
						last = day.Clone()
						if err := writeOut(cmd, app, map[string]any{"data": newDayView(key, day)}); err != nil {
							return err
						}
					}
				}
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
	return cmd
}

func sameDay(a, b *model.DayRecord) bool {
	ab, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(ab) == string(bb)
}

// startMetrics serves /metrics for long-running commands when configured.
func startMetrics(ctx context.Context, rt *runtime) {
	if rt.cfg.Metrics.Addr == "" {
		return
	}
	go func() {
		if err := observability.Serve(ctx, rt.cfg.Metrics.Addr, rt.logger); err != nil {
			rt.logger.Warn("metrics endpoint", zap.Error(err))
		}
	}()
}
