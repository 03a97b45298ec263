package auth

import (
	"context"

	"go.uber.org/zap"
)

// Mailer delivers password reset tokens.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// LogMailer writes the reset token to the log instead of sending mail.
// It is the default for single-user installs with no mail relay.
type LogMailer struct {
	Logger *zap.Logger
}

func (m LogMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	l := m.Logger
	if l == nil {
		l = zap.NewNop()
	}
	l.Warn("password reset requested; confirm with `timebuddy auth confirm-reset`",
		zap.String("email", email),
		zap.String("token", token),
	)
	return nil
}
