// Package auth implements email/password and Google sign-in against the
// user table, and the session tokens the client keeps between runs.
package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"timebuddy/internal/observability"
)

const minPasswordLen = 6

// Identity is a signed-in user.
type Identity struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Provider string `json:"provider"`
	Token    string `json:"-"`
}

type Options struct {
	Users     UserRepository
	Tokens    *TokenManager
	Blacklist TokenBlacklist // optional
	Mailer    Mailer         // defaults to LogMailer
	Google    GoogleExchanger
	ResetTTL  time.Duration
	Logger    *zap.Logger

	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

type Service struct {
	users      UserRepository
	tokens     *TokenManager
	blacklist  TokenBlacklist
	mailer     Mailer
	google     GoogleExchanger
	resetTTL   time.Duration
	bcryptCost int
	logger     *zap.Logger
	now        func() time.Time
}

func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	mailer := opts.Mailer
	if mailer == nil {
		mailer = LogMailer{Logger: logger}
	}
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	ttl := opts.ResetTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{
		users:      opts.Users,
		tokens:     opts.Tokens,
		blacklist:  opts.Blacklist,
		mailer:     mailer,
		google:     opts.Google,
		resetTTL:   ttl,
		bcryptCost: cost,
		logger:     logger,
		now:        time.Now,
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// SignUp creates a password account and signs it in.
func (s *Service) SignUp(ctx context.Context, email, password string) (id Identity, err error) {
	defer func() { observability.RecordAuth(OpSignUp, err) }()

	email = normalizeEmail(email)
	if email == "" || len(password) < minPasswordLen {
		return Identity{}, invalidInput(OpSignUp, "Email and a password of at least 6 characters are required.")
	}
	if !validEmail(email) {
		return Identity{}, invalidInput(OpSignUp, "Please enter a valid email address.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return Identity{}, generic(OpSignUp, err)
	}
	u := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return Identity{}, &Error{Kind: KindAccountExists, Op: OpSignUp, Err: err}
		}
		s.logger.Error("create user", zap.Error(err))
		return Identity{}, generic(OpSignUp, err)
	}
	s.logger.Info("account created", zap.String("user_id", u.ID))
	return s.identity(OpSignUp, u, ProviderPassword)
}

// SignIn checks email and password.
func (s *Service) SignIn(ctx context.Context, email, password string) (id Identity, err error) {
	defer func() { observability.RecordAuth(OpSignIn, err) }()

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Identity{}, invalidInput(OpSignIn, "Email and password are required.")
	}
	u, err := s.users.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Identity{}, &Error{Kind: KindInvalidCredential, Op: OpSignIn, Err: err}
		}
		return Identity{}, generic(OpSignIn, err)
	}
	if u.PasswordHash == "" {
		// Google-only account.
		return Identity{}, &Error{Kind: KindInvalidCredential, Op: OpSignIn, Err: errors.New("account has no password")}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Identity{}, &Error{Kind: KindInvalidCredential, Op: OpSignIn, Err: err}
	}
	return s.identity(OpSignIn, u, ProviderPassword)
}

// ResetPassword sends a reset token to email. Unknown addresses succeed
// silently so the call cannot be used to probe for accounts.
func (s *Service) ResetPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return invalidInput(OpReset, "Please enter your email address.")
	}
	u, err := s.users.UserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		s.logger.Debug("password reset for unknown email")
		return nil
	}
	if err != nil {
		return generic(OpReset, err)
	}
	token := uuid.NewString()
	if err := s.users.CreateResetToken(ctx, token, u.ID, s.now().Add(s.resetTTL)); err != nil {
		return generic(OpReset, err)
	}
	if err := s.mailer.SendPasswordReset(ctx, u.Email, token); err != nil {
		return generic(OpReset, err)
	}
	return nil
}

// ConfirmPasswordReset sets a new password using a token from ResetPassword.
func (s *Service) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return invalidInput(OpConfirm, "Reset code is required.")
	}
	if len(newPassword) < minPasswordLen {
		return invalidInput(OpConfirm, "Password must be at least 6 characters.")
	}
	userID, err := s.users.ConsumeResetToken(ctx, token, s.now())
	if err != nil {
		if errors.Is(err, ErrResetTokenInvalid) {
			return invalidInput(OpConfirm, "This password reset code is invalid or has expired.")
		}
		return generic(OpConfirm, err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return generic(OpConfirm, err)
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return generic(OpConfirm, err)
	}
	return nil
}

// GoogleAuthURL starts the Google flow. The state must be checked by the
// caller when the code comes back.
func (s *Service) GoogleAuthURL() (url, state string, err error) {
	if s.google == nil {
		return "", "", generic(OpGoogle, errors.New("google sign-in is not configured"))
	}
	state = uuid.NewString()
	return s.google.AuthCodeURL(state), state, nil
}

// SignInWithGoogle finishes the Google flow. A Google account whose verified
// email matches an existing password account is linked to it.
func (s *Service) SignInWithGoogle(ctx context.Context, code string) (id Identity, err error) {
	defer func() { observability.RecordAuth(OpGoogle, err) }()

	if s.google == nil {
		return Identity{}, generic(OpGoogle, errors.New("google sign-in is not configured"))
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return Identity{}, invalidInput(OpGoogle, "Authorization code is required.")
	}
	gu, err := s.google.Exchange(ctx, code)
	if err != nil {
		return Identity{}, generic(OpGoogle, err)
	}

	u, err := s.users.UserByGoogleSubject(ctx, gu.Subject)
	if err == nil {
		return s.identity(OpGoogle, u, ProviderGoogle)
	}
	if !errors.Is(err, ErrUserNotFound) {
		return Identity{}, generic(OpGoogle, err)
	}

	email := normalizeEmail(gu.Email)
	existing, err := s.users.UserByEmail(ctx, email)
	switch {
	case err == nil:
		if !gu.Verified {
			return Identity{}, &Error{Kind: KindAccountExists, Op: OpGoogle, Err: errors.New("google email not verified")}
		}
		if err := s.users.LinkGoogle(ctx, existing.ID, gu.Subject); err != nil {
			return Identity{}, generic(OpGoogle, err)
		}
		existing.GoogleSubject = gu.Subject
		return s.identity(OpGoogle, existing, ProviderGoogle)
	case errors.Is(err, ErrUserNotFound):
	default:
		return Identity{}, generic(OpGoogle, err)
	}

	u = &User{
		ID:            uuid.NewString(),
		Email:         email,
		GoogleSubject: gu.Subject,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return Identity{}, generic(OpGoogle, err)
	}
	return s.identity(OpGoogle, u, ProviderGoogle)
}

// SignOut revokes token when a blacklist is configured. An invalid or
// expired token signs out trivially.
func (s *Service) SignOut(ctx context.Context, token string) error {
	if s.blacklist == nil || strings.TrimSpace(token) == "" {
		return nil
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil
	}
	if err := s.blacklist.Revoke(ctx, claims.ID, s.tokens.remaining(claims)); err != nil {
		return generic(OpSignOut, err)
	}
	return nil
}

// Verify resumes a session from a stored token.
func (s *Service) Verify(ctx context.Context, token string) (Identity, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return Identity{}, &Error{Kind: KindInvalidCredential, Op: OpVerify, Err: err}
	}
	if s.blacklist != nil {
		revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return Identity{}, generic(OpVerify, err)
		}
		if revoked {
			return Identity{}, &Error{Kind: KindInvalidCredential, Op: OpVerify, Err: ErrTokenInvalid}
		}
	}
	u, err := s.users.UserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Identity{}, &Error{Kind: KindInvalidCredential, Op: OpVerify, Err: err}
		}
		return Identity{}, generic(OpVerify, err)
	}
	return Identity{UserID: u.ID, Email: u.Email, Provider: claims.Provider, Token: token}, nil
}

func (s *Service) identity(op string, u *User, provider string) (Identity, error) {
	token, _, err := s.tokens.Issue(u, provider)
	if err != nil {
		return Identity{}, generic(op, err)
	}
	return Identity{UserID: u.ID, Email: u.Email, Provider: provider, Token: token}, nil
}
