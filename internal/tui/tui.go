package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"timebuddy/internal/auth"
	"timebuddy/internal/model"
	"timebuddy/internal/session"
)

// Authenticator is the sign-in surface the login screen drives.
type Authenticator interface {
	SignUp(ctx context.Context, email, password string) (auth.Identity, error)
	SignIn(ctx context.Context, email, password string) (auth.Identity, error)
	ResetPassword(ctx context.Context, email string) error
	GoogleAuthURL() (url, state string, err error)
	SignInWithGoogle(ctx context.Context, code string) (auth.Identity, error)
}

type Options struct {
	Session *session.Controller
	Start   model.DateKey
	Logger  *zap.Logger

	// Auth is nil when online mode is not configured; the login screen then
	// only offers to continue offline.
	Auth Authenticator

	// ExportDir is where the CSV export is written (default: current directory).
	ExportDir string
}

func Run(ctx context.Context, opts Options) error {
	applyThemePreference()
	applyColorProfilePreference()
	applyGlyphPreference()

	m := newAppModel(ctx, opts)
	defer m.close()
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
