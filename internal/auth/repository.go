package auth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrResetTokenInvalid = errors.New("reset token invalid or expired")
)

const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

type User struct {
	ID            string
	Email         string
	PasswordHash  string
	GoogleSubject string
	CreatedAt     time.Time
}

// UserRepository stores accounts and password reset tokens.
// Lookups return ErrUserNotFound when nothing matches.
type UserRepository interface {
	CreateUser(ctx context.Context, u *User) error
	UserByID(ctx context.Context, id string) (*User, error)
	UserByEmail(ctx context.Context, email string) (*User, error)
	UserByGoogleSubject(ctx context.Context, subject string) (*User, error)
	LinkGoogle(ctx context.Context, userID, subject string) error
	UpdatePassword(ctx context.Context, userID, hash string) error

	CreateResetToken(ctx context.Context, token, userID string, expiresAt time.Time) error
	// ConsumeResetToken deletes the token and returns its user, or
	// ErrResetTokenInvalid when it is unknown or expired at now.
	ConsumeResetToken(ctx context.Context, token string, now time.Time) (string, error)
}
