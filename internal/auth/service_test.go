package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type memUsers struct {
	mu     sync.Mutex
	byID   map[string]*User
	resets map[string]resetEntry
}

type resetEntry struct {
	userID  string
	expires time.Time
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*User{}, resets: map[string]resetEntry{}}
}

func (m *memUsers) CreateUser(ctx context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.byID {
		if x.Email == u.Email {
			return ErrDuplicateEmail
		}
	}
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) find(match func(*User) bool) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *memUsers) UserByID(ctx context.Context, id string) (*User, error) {
	return m.find(func(u *User) bool { return u.ID == id })
}

func (m *memUsers) UserByEmail(ctx context.Context, email string) (*User, error) {
	return m.find(func(u *User) bool { return u.Email == email })
}

func (m *memUsers) UserByGoogleSubject(ctx context.Context, sub string) (*User, error) {
	return m.find(func(u *User) bool { return sub != "" && u.GoogleSubject == sub })
}

func (m *memUsers) LinkGoogle(ctx context.Context, userID, sub string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.GoogleSubject = sub
	return nil
}

func (m *memUsers) UpdatePassword(ctx context.Context, userID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *memUsers) CreateResetToken(ctx context.Context, token, userID string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets[token] = resetEntry{userID: userID, expires: expiresAt}
	return nil
}

func (m *memUsers) ConsumeResetToken(ctx context.Context, token string, now time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.resets[token]
	delete(m.resets, token)
	if !ok || now.After(e.expires) {
		return "", ErrResetTokenInvalid
	}
	return e.userID, nil
}

type captureMailer struct {
	email, token string
}

func (c *captureMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	c.email, c.token = email, token
	return nil
}

type memBlacklist struct {
	revoked map[string]time.Duration
}

func (b *memBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	b.revoked[jti] = ttl
	return nil
}

func (b *memBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	_, ok := b.revoked[jti]
	return ok, nil
}

type fakeGoogle struct {
	user GoogleUser
	err  error
}

func (f fakeGoogle) AuthCodeURL(state string) string { return "https://accounts.example/auth?state=" + state }

func (f fakeGoogle) Exchange(ctx context.Context, code string) (GoogleUser, error) {
	return f.user, f.err
}

func newTestService(users *memUsers, opts Options) *Service {
	opts.Users = users
	if opts.Tokens == nil {
		opts.Tokens = NewTokenManager("test-secret-key-0123456789", time.Hour, "timebuddy-test")
	}
	opts.BcryptCost = bcrypt.MinCost
	return NewService(opts)
}

func TestSignUpAndSignIn(t *testing.T) {
	ctx := context.Background()
	users := newMemUsers()
	s := newTestService(users, Options{})

	id, err := s.SignUp(ctx, "  Ada@Example.com ", "secret1")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if id.Email != "ada@example.com" || id.UserID == "" || id.Token == "" || id.Provider != ProviderPassword {
		t.Fatalf("unexpected identity: %+v", id)
	}

	_, err = s.SignUp(ctx, "ada@example.com", "another")
	if !IsKind(err, KindAccountExists) {
		t.Fatalf("expected AccountExists, got %v", err)
	}
	var ae *Error
	errors.As(err, &ae)
	if ae.Message() != "An account already exists with this email. Please sign in instead." {
		t.Fatalf("unexpected message %q", ae.Message())
	}

	in, err := s.SignIn(ctx, "ada@example.com", "secret1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if in.UserID != id.UserID {
		t.Fatalf("signed in as a different user")
	}

	_, err = s.SignIn(ctx, "ada@example.com", "wrong!")
	if !IsKind(err, KindInvalidCredential) {
		t.Fatalf("expected InvalidCredential, got %v", err)
	}
	errors.As(err, &ae)
	if ae.Message() != "Incorrect email or password. Please try again." {
		t.Fatalf("unexpected message %q", ae.Message())
	}
	if _, err := s.SignIn(ctx, "nobody@example.com", "secret1"); !IsKind(err, KindInvalidCredential) {
		t.Fatalf("unknown email must be InvalidCredential, got %v", err)
	}
}

func TestSignUpValidation(t *testing.T) {
	s := newTestService(newMemUsers(), Options{})
	ctx := context.Background()
	for _, tc := range []struct{ email, password string }{
		{"", "secret1"},
		{"a@b.c", "12345"},
		{"not-an-email", "secret1"},
	} {
		if _, err := s.SignUp(ctx, tc.email, tc.password); !IsKind(err, KindInvalidInput) {
			t.Fatalf("SignUp(%q, %q): expected InvalidInput, got %v", tc.email, tc.password, err)
		}
	}
	_, err := s.SignIn(ctx, "", "")
	var ae *Error
	if !errors.As(err, &ae) || ae.Message() != "Email and password are required." {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	users := newMemUsers()
	mailer := &captureMailer{}
	s := newTestService(users, Options{Mailer: mailer})

	if _, err := s.SignUp(ctx, "ada@example.com", "secret1"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if err := s.ResetPassword(ctx, ""); !IsKind(err, KindInvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
	if err := s.ResetPassword(ctx, "ghost@example.com"); err != nil {
		t.Fatalf("unknown email must succeed silently, got %v", err)
	}
	if mailer.token != "" {
		t.Fatalf("no mail expected for unknown email")
	}

	if err := s.ResetPassword(ctx, "ada@example.com"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if mailer.email != "ada@example.com" || mailer.token == "" {
		t.Fatalf("reset mail not sent: %+v", mailer)
	}
	if err := s.ConfirmPasswordReset(ctx, mailer.token, "123"); !IsKind(err, KindInvalidInput) {
		t.Fatalf("expected short password rejection, got %v", err)
	}
	if err := s.ConfirmPasswordReset(ctx, mailer.token, "newsecret"); err != nil {
		t.Fatalf("ConfirmPasswordReset: %v", err)
	}
	if err := s.ConfirmPasswordReset(ctx, mailer.token, "newsecret"); !IsKind(err, KindInvalidInput) {
		t.Fatalf("token must be single use, got %v", err)
	}
	if _, err := s.SignIn(ctx, "ada@example.com", "newsecret"); err != nil {
		t.Fatalf("SignIn with new password: %v", err)
	}
	if _, err := s.SignIn(ctx, "ada@example.com", "secret1"); !IsKind(err, KindInvalidCredential) {
		t.Fatalf("old password must stop working, got %v", err)
	}
}

func TestVerifyAndSignOut(t *testing.T) {
	ctx := context.Background()
	bl := &memBlacklist{revoked: map[string]time.Duration{}}
	s := newTestService(newMemUsers(), Options{Blacklist: bl})

	id, err := s.SignUp(ctx, "ada@example.com", "secret1")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	got, err := s.Verify(ctx, id.Token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.UserID != id.UserID || got.Token != id.Token {
		t.Fatalf("unexpected identity: %+v", got)
	}

	if err := s.SignOut(ctx, id.Token); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if len(bl.revoked) != 1 {
		t.Fatalf("expected token revoked")
	}
	for _, ttl := range bl.revoked {
		if ttl <= 0 || ttl > time.Hour {
			t.Fatalf("unexpected revocation ttl %v", ttl)
		}
	}
	if _, err := s.Verify(ctx, id.Token); !IsKind(err, KindInvalidCredential) {
		t.Fatalf("revoked token must not verify, got %v", err)
	}
	if _, err := s.Verify(ctx, "garbage"); !IsKind(err, KindInvalidCredential) {
		t.Fatalf("garbage token must not verify, got %v", err)
	}
	if err := s.SignOut(ctx, "garbage"); err != nil {
		t.Fatalf("signing out a bad token must succeed, got %v", err)
	}
}

func TestGoogleSignIn(t *testing.T) {
	ctx := context.Background()
	users := newMemUsers()

	s := newTestService(users, Options{})
	if _, _, err := s.GoogleAuthURL(); err == nil {
		t.Fatalf("expected error without google provider")
	}

	s = newTestService(users, Options{Google: fakeGoogle{user: GoogleUser{Subject: "g-1", Email: "Grace@Example.com", Verified: true}}})
	url, state, err := s.GoogleAuthURL()
	if err != nil || state == "" || url == "" {
		t.Fatalf("GoogleAuthURL: url=%q state=%q err=%v", url, state, err)
	}

	first, err := s.SignInWithGoogle(ctx, "code")
	if err != nil {
		t.Fatalf("SignInWithGoogle: %v", err)
	}
	if first.Email != "grace@example.com" || first.Provider != ProviderGoogle {
		t.Fatalf("unexpected identity: %+v", first)
	}
	second, err := s.SignInWithGoogle(ctx, "code")
	if err != nil {
		t.Fatalf("SignInWithGoogle again: %v", err)
	}
	if second.UserID != first.UserID {
		t.Fatalf("expected same account on second sign-in")
	}

	// Google-only accounts have no password.
	if _, err := s.SignIn(ctx, "grace@example.com", "whatever"); !IsKind(err, KindInvalidCredential) {
		t.Fatalf("expected InvalidCredential, got %v", err)
	}
}

func TestGoogleSignInLinksVerifiedEmail(t *testing.T) {
	ctx := context.Background()
	users := newMemUsers()
	s := newTestService(users, Options{Google: fakeGoogle{user: GoogleUser{Subject: "g-2", Email: "ada@example.com", Verified: true}}})
	pw, err := s.SignUp(ctx, "ada@example.com", "secret1")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	g, err := s.SignInWithGoogle(ctx, "code")
	if err != nil {
		t.Fatalf("SignInWithGoogle: %v", err)
	}
	if g.UserID != pw.UserID {
		t.Fatalf("expected google sign-in to link to the password account")
	}

	s = newTestService(newMemUsers(), Options{Google: fakeGoogle{user: GoogleUser{Subject: "g-3", Email: "bob@example.com"}}})
	if _, err := s.SignUp(ctx, "bob@example.com", "secret1"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if _, err := s.SignInWithGoogle(ctx, "code"); !IsKind(err, KindAccountExists) {
		t.Fatalf("unverified email must not link, got %v", err)
	}
}

func TestGoogleExchangeFailure(t *testing.T) {
	s := newTestService(newMemUsers(), Options{Google: fakeGoogle{err: errors.New("boom")}})
	_, err := s.SignInWithGoogle(context.Background(), "code")
	var ae *Error
	if !errors.As(err, &ae) || ae.Kind != KindGeneric {
		t.Fatalf("expected generic error, got %v", err)
	}
	if ae.Message() != "Google sign-in failed: boom" {
		t.Fatalf("unexpected message %q", ae.Message())
	}
}
