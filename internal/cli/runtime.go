package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"timebuddy/internal/auth"
	"timebuddy/internal/config"
	"timebuddy/internal/logging"
	"timebuddy/internal/remote"
	"timebuddy/internal/session"
	"timebuddy/internal/store"
)

// runtime is everything a command needs, opened from config for one
// invocation and closed when it returns.
type runtime struct {
	cfg     *config.Config
	logger  *zap.Logger
	local   *store.LocalBackend
	auth    *auth.Service // nil when online mode is not configured
	session *session.Controller

	closers []func() error
}

func openRuntime(ctx context.Context, app *App) (*runtime, error) {
	cfg, err := config.Load(app.Dir)
	if err != nil {
		return nil, err
	}
	app.Dir = cfg.Dir
	if app.interactive && cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(cfg.Dir, "timebuddy.log")
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, logger: logger}
	rt.closers = append(rt.closers, func() error {
		_ = logger.Sync()
		return nil
	})

	local, err := store.OpenLocal(ctx, cfg.Dir, logger)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("open local store: %w", err)
	}
	rt.local = local
	rt.closers = append(rt.closers, local.Close)

	opts := session.Options{
		KV:     local,
		Local:  local,
		Store:  store.NewActivityStore(nil, logger),
		Logger: logger,
	}

	if cfg.OnlineEnabled() {
		if err := rt.openOnline(ctx, &opts); err != nil {
			rt.Close()
			return nil, err
		}
	}

	rt.session = session.New(opts)
	rt.closers = append(rt.closers, func() error {
		rt.session.Close()
		return nil
	})
	return rt, nil
}

func (rt *runtime) openOnline(ctx context.Context, opts *session.Options) error {
	cfg, logger := rt.cfg, rt.logger

	pool, err := remote.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	rt.closers = append(rt.closers, func() error {
		pool.Close()
		return nil
	})
	if err := remote.Migrate(pool, logger); err != nil {
		return err
	}

	authOpts := auth.Options{
		Users:    remote.NewUsers(pool),
		Tokens:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer),
		Mailer:   auth.LogMailer{Logger: logger},
		ResetTTL: cfg.Auth.ResetTTL,
		Logger:   logger,
	}
	if cfg.Redis.Addr != "" {
		bl, err := auth.NewRedisBlacklist(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Warn("token revocation disabled", zap.Error(err))
		} else {
			authOpts.Blacklist = bl
			rt.closers = append(rt.closers, bl.Close)
		}
	}
	if cfg.GoogleEnabled() {
		authOpts.Google = auth.NewGoogleProvider(cfg.Google)
	}
	rt.auth = auth.NewService(authOpts)

	docs := remote.NewDocumentStore(pool, logger)
	opts.Remote = func(userID string) store.Backend { return docs.ForUser(userID) }
	opts.Auth = rt.auth
	return nil
}

// Close releases resources in reverse order of acquisition.
func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.logger.Debug("close", zap.Error(err))
		}
	}
	rt.closers = nil
}

// activeStore restores the stored session and returns its store. Without
// online mode configured there is nothing to choose, so the local document
// is used directly.
func (rt *runtime) activeStore(ctx context.Context) (*store.ActivityStore, error) {
	mode, err := rt.session.Start(ctx)
	if err != nil {
		return nil, err
	}
	if mode == session.ModeNone {
		if rt.session.OnlineAvailable() {
			return nil, errNotSignedIn
		}
		if err := rt.session.ContinueOffline(ctx); err != nil {
			return nil, err
		}
	}
	return rt.session.Store(), nil
}

func (rt *runtime) requireAuth() (*auth.Service, error) {
	if rt.auth == nil {
		return nil, session.ErrOnlineUnavailable
	}
	return rt.auth, nil
}

// withStore opens the runtime, restores the session and runs fn.
func withStore(ctx context.Context, app *App, fn func(rt *runtime, st *store.ActivityStore) error) error {
	rt, err := openRuntime(ctx, app)
	if err != nil {
		return err
	}
	defer rt.Close()
	st, err := rt.activeStore(ctx)
	if err != nil {
		return err
	}
	return fn(rt, st)
}
