package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"timebuddy/internal/auth"
	"timebuddy/internal/model"
	"timebuddy/internal/mutate"
	"timebuddy/internal/store"
)

const friday = model.DateKey("2024-01-05")

type remoteDoc struct {
	mu   sync.Mutex
	data model.UserActivityData
	subs []chan model.UserActivityData
}

func (d *remoteDoc) Name() string { return "remote" }

func (d *remoteDoc) Load(ctx context.Context) (model.UserActivityData, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.data.Clone(), nil
}

func (d *remoteDoc) Save(ctx context.Context, data model.UserActivityData) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data = data.Clone()
	return nil
}

func (d *remoteDoc) Clear(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data = nil
	return nil
}

func (d *remoteDoc) Subscribe(ctx context.Context) (store.Subscription, error) {
	ch := make(chan model.UserActivityData, 4)
	d.mu.Lock()
	d.subs = append(d.subs, ch)
	d.mu.Unlock()
	return &docSub{ch: ch}, nil
}

// push simulates a write from another device.
func (d *remoteDoc) push(data model.UserActivityData) {
	d.mu.Lock()
	d.data = data.Clone()
	subs := d.subs
	d.mu.Unlock()
	for _, ch := range subs {
		ch <- data.Clone()
	}
}

type docSub struct {
	ch chan model.UserActivityData
}

func (s *docSub) Updates() <-chan model.UserActivityData { return s.ch }
func (s *docSub) Close() error                           { return nil }

type fakeAuth struct {
	valid     map[string]auth.Identity
	signedOut []string
	verifyErr error
}

func (a *fakeAuth) Verify(ctx context.Context, token string) (auth.Identity, error) {
	if a.verifyErr != nil {
		return auth.Identity{}, a.verifyErr
	}
	id, ok := a.valid[token]
	if !ok {
		return auth.Identity{}, &auth.Error{Kind: auth.KindInvalidCredential, Op: auth.OpVerify, Err: auth.ErrTokenInvalid}
	}
	return id, nil
}

func (a *fakeAuth) SignOut(ctx context.Context, token string) error {
	a.signedOut = append(a.signedOut, token)
	return nil
}

type fixture struct {
	local   *store.LocalBackend
	remotes map[string]*remoteDoc
	auth    *fakeAuth
	ctrl    *Controller
}

func newFixture(t *testing.T, dir string) *fixture {
	t.Helper()
	local, err := store.OpenLocal(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("OpenLocal: %v", err)
	}
	t.Cleanup(func() { _ = local.Close() })
	f := &fixture{
		local:   local,
		remotes: map[string]*remoteDoc{},
		auth:    &fakeAuth{valid: map[string]auth.Identity{}},
	}
	f.ctrl = New(Options{
		KV:    local,
		Local: local,
		Remote: func(userID string) store.Backend {
			doc, ok := f.remotes[userID]
			if !ok {
				doc = &remoteDoc{}
				f.remotes[userID] = doc
			}
			return doc
		},
		Auth: f.auth,
	})
	t.Cleanup(f.ctrl.Close)
	return f
}

func TestStartWithoutStoredSession(t *testing.T) {
	f := newFixture(t, t.TempDir())
	mode, err := f.ctrl.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if mode != ModeNone || f.ctrl.Mode() != ModeNone {
		t.Fatalf("expected no mode, got %q", mode)
	}
}

func TestContinueOfflinePersistsAcrossRuns(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	f := newFixture(t, dir)
	if err := f.ctrl.ContinueOffline(ctx); err != nil {
		t.Fatalf("ContinueOffline: %v", err)
	}
	if _, err := f.ctrl.Store().Apply(ctx, friday, mutate.SaveNote{Text: "offline note"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	_ = f.local.Close()

	g := newFixture(t, dir)
	mode, err := g.ctrl.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if mode != ModeOffline {
		t.Fatalf("expected offline mode, got %q", mode)
	}
	if got := g.ctrl.Store().Day(friday).Note; got != "offline note" {
		t.Fatalf("expected local data after restart, got %q", got)
	}
}

func TestLoginUsesRemoteDocumentAndResumes(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	f := newFixture(t, dir)
	id := auth.Identity{UserID: "u1", Email: "ada@example.com", Provider: auth.ProviderPassword, Token: "tok-1"}
	f.auth.valid["tok-1"] = id

	if err := f.ctrl.Login(ctx, id); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if f.ctrl.Store().BackendName() != "remote" {
		t.Fatalf("expected remote backend, got %q", f.ctrl.Store().BackendName())
	}
	if _, err := f.ctrl.Store().Apply(ctx, friday, mutate.SaveNote{Text: "synced"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if f.remotes["u1"].data[friday].Note != "synced" {
		t.Fatalf("write did not reach the remote document")
	}
	local, err := f.local.Load(ctx)
	if err != nil {
		t.Fatalf("local Load: %v", err)
	}
	if len(local) != 0 {
		t.Fatalf("online writes must not touch local data: %+v", local)
	}
	got, ok := f.ctrl.Identity()
	if !ok || got.Email != "ada@example.com" {
		t.Fatalf("unexpected identity %+v", got)
	}

	// A new controller over the same directory resumes the session.
	next := New(Options{
		KV:     f.local,
		Local:  f.local,
		Remote: func(userID string) store.Backend { return f.remotes[userID] },
		Auth:   f.auth,
	})
	defer next.Close()
	mode, err := next.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if mode != ModeOnline {
		t.Fatalf("expected online mode, got %q", mode)
	}
	if next.Store().Day(friday).Note != "synced" {
		t.Fatalf("expected remote data after resume")
	}
}

func TestStartDropsExpiredSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, t.TempDir())
	if err := f.local.Set(ctx, KeyMode, string(ModeOnline)); err != nil {
		t.Fatal(err)
	}
	if err := f.local.Set(ctx, KeyToken, "stale"); err != nil {
		t.Fatal(err)
	}
	mode, err := f.ctrl.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if mode != ModeNone {
		t.Fatalf("expected sign-in required, got %q", mode)
	}
	if _, ok, _ := f.local.Get(ctx, KeyMode); ok {
		t.Fatalf("expected session flag cleared")
	}
}

func TestStartKeepsSessionOnTransientError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, t.TempDir())
	_ = f.local.Set(ctx, KeyMode, string(ModeOnline))
	_ = f.local.Set(ctx, KeyToken, "tok")
	f.auth.verifyErr = &auth.Error{Kind: auth.KindGeneric, Op: auth.OpVerify, Err: errors.New("db down")}

	if _, err := f.ctrl.Start(ctx); err == nil {
		t.Fatalf("expected error")
	}
	if v, ok, _ := f.local.Get(ctx, KeyMode); !ok || v != string(ModeOnline) {
		t.Fatalf("session flag should survive a transient failure, got %q", v)
	}
}

func TestLoginWithoutRemoteConfigured(t *testing.T) {
	local, err := store.OpenLocal(context.Background(), t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer local.Close()
	ctrl := New(Options{KV: local, Local: local})
	if err := ctrl.Login(context.Background(), auth.Identity{UserID: "u"}); !errors.Is(err, ErrOnlineUnavailable) {
		t.Fatalf("expected ErrOnlineUnavailable, got %v", err)
	}
}

func TestFollowAppliesRemoteSnapshots(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, t.TempDir())
	id := auth.Identity{UserID: "u1", Token: "tok"}
	if err := f.ctrl.Login(ctx, id); err != nil {
		t.Fatalf("Login: %v", err)
	}
	updates := make(chan model.UserActivityData, 1)
	cancel := f.ctrl.Store().Observe(func(d model.UserActivityData) { updates <- d })
	defer cancel()

	if err := f.ctrl.Follow(ctx); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	f.remotes["u1"].push(model.UserActivityData{friday: {Note: "from phone"}})

	select {
	case d := <-updates:
		if d[friday].Note != "from phone" {
			t.Fatalf("unexpected snapshot %+v", d[friday])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for remote snapshot")
	}
}

func TestLogoutClearsSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, t.TempDir())
	id := auth.Identity{UserID: "u1", Token: "tok"}
	f.remotes["u1"] = &remoteDoc{data: model.UserActivityData{friday: {Note: "mine"}}}
	if err := f.ctrl.Login(ctx, id); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := f.ctrl.Follow(ctx); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if err := f.ctrl.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if f.ctrl.Mode() != ModeNone {
		t.Fatalf("expected no mode after logout")
	}
	if len(f.ctrl.Store().Snapshot()) != 0 {
		t.Fatalf("expected in-memory data cleared")
	}
	if len(f.auth.signedOut) != 1 || f.auth.signedOut[0] != "tok" {
		t.Fatalf("expected token revoked, got %v", f.auth.signedOut)
	}
	if _, ok, _ := f.local.Get(ctx, KeyToken); ok {
		t.Fatalf("expected stored token removed")
	}
	if f.remotes["u1"].data[friday].Note != "mine" {
		t.Fatalf("logout must not delete remote data")
	}
}
