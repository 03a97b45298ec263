package remote

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"timebuddy/internal/auth"
)

const uniqueViolation = "23505"

// Users is the Postgres auth.UserRepository.
type Users struct {
	pool *pgxpool.Pool
}

var _ auth.UserRepository = (*Users)(nil)

func NewUsers(pool *pgxpool.Pool) *Users {
	return &Users{pool: pool}
}

func (r *Users) CreateUser(ctx context.Context, u *auth.User) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO users (id, email, password_hash, google_subject, created_at)
        VALUES ($1, $2, $3, NULLIF($4, ''), $5)`,
		u.ID, u.Email, u.PasswordHash, u.GoogleSubject, u.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return auth.ErrDuplicateEmail
	}
	return err
}

const userColumns = `id::text, email, password_hash, COALESCE(google_subject, ''), created_at`

func scanUser(row pgx.Row) (*auth.User, error) {
	var u auth.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.GoogleSubject, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *Users) UserByID(ctx context.Context, id string) (*auth.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id::text = $1`, id))
}

func (r *Users) UserByEmail(ctx context.Context, email string) (*auth.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *Users) UserByGoogleSubject(ctx context.Context, subject string) (*auth.User, error) {
	if subject == "" {
		return nil, auth.ErrUserNotFound
	}
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE google_subject = $1`, subject))
}

func (r *Users) LinkGoogle(ctx context.Context, userID, subject string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET google_subject = $2 WHERE id::text = $1`, userID, subject)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

func (r *Users) UpdatePassword(ctx context.Context, userID, hash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id::text = $1`, userID, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

func (r *Users) CreateResetToken(ctx context.Context, token, userID string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO password_resets (token, user_id, expires_at) VALUES ($1, $2::uuid, $3)`,
		token, userID, expiresAt)
	return err
}

// ConsumeResetToken deletes the token in the same statement that reads it,
// so a token can only be used once.
func (r *Users) ConsumeResetToken(ctx context.Context, token string, now time.Time) (string, error) {
	var userID string
	var expiresAt time.Time
	err := r.pool.QueryRow(ctx, `DELETE FROM password_resets WHERE token = $1 RETURNING user_id::text, expires_at`, token).
		Scan(&userID, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", auth.ErrResetTokenInvalid
	}
	if err != nil {
		return "", err
	}
	if now.After(expiresAt) {
		return "", auth.ErrResetTokenInvalid
	}
	return userID, nil
}
