// Package session decides where the activity store reads and writes: the
// signed-in user's remote document, or the local offline copy.
package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"timebuddy/internal/auth"
	"timebuddy/internal/model"
	"timebuddy/internal/store"
)

type Mode string

const (
	ModeNone    Mode = ""
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
)

// Keys in the local key-value table.
const (
	KeyMode  = "sessionMode"
	KeyToken = "sessionToken"
)

// ErrOnlineUnavailable is returned when online mode is requested but no
// remote database is configured.
var ErrOnlineUnavailable = errors.New("online mode is not configured (set database.url)")

// KV is the small persistent key-value table the flag and token live in.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Authenticator is the part of auth.Service the session needs.
type Authenticator interface {
	Verify(ctx context.Context, token string) (auth.Identity, error)
	SignOut(ctx context.Context, token string) error
}

type Options struct {
	KV    KV
	Local store.Backend
	// Remote returns the backend for a signed-in user; nil disables online mode.
	Remote func(userID string) store.Backend
	Auth   Authenticator
	Store  *store.ActivityStore
	Logger *zap.Logger
}

type Controller struct {
	kv     KV
	local  store.Backend
	remote func(userID string) store.Backend
	auth   Authenticator
	store  *store.ActivityStore
	logger *zap.Logger

	mu         sync.Mutex
	mode       Mode
	identity   *auth.Identity
	stopFollow context.CancelFunc
	followDone chan struct{}
}

func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	st := opts.Store
	if st == nil {
		st = store.NewActivityStore(nil, logger)
	}
	return &Controller{
		kv:     opts.KV,
		local:  opts.Local,
		remote: opts.Remote,
		auth:   opts.Auth,
		store:  st,
		logger: logger,
	}
}

func (c *Controller) Store() *store.ActivityStore { return c.store }

func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Controller) OnlineAvailable() bool {
	return c.remote != nil && c.auth != nil
}

// Identity returns the signed-in user in online mode.
func (c *Controller) Identity() (auth.Identity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		return auth.Identity{}, false
	}
	return *c.identity, true
}

// Start restores the mode saved by the previous run. A stored online session
// whose token no longer verifies is dropped and ModeNone is returned, so the
// caller has to sign in again or continue offline.
func (c *Controller) Start(ctx context.Context) (Mode, error) {
	flag, _, err := c.kv.Get(ctx, KeyMode)
	if err != nil {
		return ModeNone, err
	}
	switch Mode(flag) {
	case ModeOffline:
		return ModeOffline, c.ContinueOffline(ctx)
	case ModeOnline:
		if !c.OnlineAvailable() {
			c.logger.Warn("stored online session but online mode is not configured")
			return ModeNone, c.forget(ctx)
		}
		token, ok, err := c.kv.Get(ctx, KeyToken)
		if err != nil {
			return ModeNone, err
		}
		if !ok {
			return ModeNone, c.forget(ctx)
		}
		id, err := c.auth.Verify(ctx, token)
		if err != nil {
			if auth.IsKind(err, auth.KindInvalidCredential) {
				c.logger.Info("stored session expired, sign in again")
				return ModeNone, c.forget(ctx)
			}
			return ModeNone, err
		}
		return ModeOnline, c.Login(ctx, id)
	default:
		return ModeNone, nil
	}
}

// Login switches to the user's remote document and remembers the session.
func (c *Controller) Login(ctx context.Context, id auth.Identity) error {
	if !c.OnlineAvailable() {
		return ErrOnlineUnavailable
	}
	c.stop()
	if err := c.kv.Set(ctx, KeyMode, string(ModeOnline)); err != nil {
		return err
	}
	if err := c.kv.Set(ctx, KeyToken, id.Token); err != nil {
		return err
	}
	c.store.SetBackend(c.remote(id.UserID))
	if err := c.store.Load(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	c.mode = ModeOnline
	c.identity = &id
	c.mu.Unlock()
	c.logger.Debug("online session started", zap.String("user_id", id.UserID))
	return nil
}

// ContinueOffline switches to the local document.
func (c *Controller) ContinueOffline(ctx context.Context) error {
	c.stop()
	if err := c.kv.Set(ctx, KeyMode, string(ModeOffline)); err != nil {
		return err
	}
	_ = c.kv.Delete(ctx, KeyToken)
	c.store.SetBackend(c.local)
	if err := c.store.Load(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	c.mode = ModeOffline
	c.identity = nil
	c.mu.Unlock()
	return nil
}

// Follow starts applying remote changes to the store in the background.
// It is a no-op offline or when the backend cannot push changes.
func (c *Controller) Follow(ctx context.Context) error {
	c.mu.Lock()
	mode, id := c.mode, c.identity
	c.mu.Unlock()
	if mode != ModeOnline || id == nil {
		return nil
	}
	sub, ok := c.remote(id.UserID).(store.Subscriber)
	if !ok {
		return nil
	}
	c.stop()
	followCtx, cancel := context.WithCancel(ctx)
	s, err := sub.Subscribe(followCtx)
	if err != nil {
		cancel()
		return err
	}
	done := make(chan struct{})
	c.mu.Lock()
	c.stopFollow = cancel
	c.followDone = done
	c.mu.Unlock()
	go func() {
		defer close(done)
		c.store.Follow(followCtx, s)
	}()
	return nil
}

// Logout ends the session: stops following, revokes the token, clears the
// stored flag and empties the in-memory document.
func (c *Controller) Logout(ctx context.Context) error {
	c.stop()
	c.mu.Lock()
	id := c.identity
	c.mu.Unlock()
	if id != nil && c.auth != nil {
		if err := c.auth.SignOut(ctx, id.Token); err != nil {
			c.logger.Warn("sign out", zap.Error(err))
		}
	}
	if err := c.forget(ctx); err != nil {
		return err
	}
	c.store.Replace(model.UserActivityData{})
	return nil
}

// Close stops background work without touching the stored session.
func (c *Controller) Close() {
	c.stop()
}

func (c *Controller) forget(ctx context.Context) error {
	if err := c.kv.Delete(ctx, KeyMode); err != nil {
		return err
	}
	if err := c.kv.Delete(ctx, KeyToken); err != nil {
		return err
	}
	c.mu.Lock()
	c.mode = ModeNone
	c.identity = nil
	c.mu.Unlock()
	return nil
}

func (c *Controller) stop() {
	c.mu.Lock()
	cancel, done := c.stopFollow, c.followDone
	c.stopFollow, c.followDone = nil, nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}
