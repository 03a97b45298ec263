package cli

import (
	"strings"

	"timebuddy/internal/auth"
	"timebuddy/internal/session"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	msgResetSent      = "Password reset email sent! Please check your inbox."
	msgPasswordUpdate = "Password updated. Please sign in."
	msgSignedOut      = "Signed out."
	msgOffline        = "Continuing offline. Data is stored on this device only."
)

func newAuthCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign in, sign out, or continue offline",
	}
	cmd.AddCommand(newAuthSignUpCmd(app))
	cmd.AddCommand(newAuthSignInCmd(app))
	cmd.AddCommand(newAuthGoogleCmd(app))
	cmd.AddCommand(newAuthResetPasswordCmd(app))
	cmd.AddCommand(newAuthConfirmResetCmd(app))
	cmd.AddCommand(newAuthSignOutCmd(app))
	cmd.AddCommand(newAuthOfflineCmd(app))
	cmd.AddCommand(newAuthStatusCmd(app))
	return cmd
}

func credentialFlags(cmd *cobra.Command, email, password *string) {
	cmd.Flags().StringVar(email, "email", envOr("TIMEBUDDY_EMAIL", ""), "Account email")
	cmd.Flags().StringVar(password, "password", envOr("TIMEBUDDY_PASSWORD", ""), "Account password (or $TIMEBUDDY_PASSWORD)")
}

// signInWith runs one sign-in flow and switches the session to the result.
func signInWith(cmd *cobra.Command, app *App, flow func(svc *auth.Service) (auth.Identity, error)) error {
	ctx := commandContext(cmd)
	rt, err := openRuntime(ctx, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer rt.Close()
	svc, err := rt.requireAuth()
	if err != nil {
		return writeErr(cmd, err)
	}
	id, err := flow(svc)
	if err != nil {
		return writeErr(cmd, err)
	}
	if err := rt.session.Login(ctx, id); err != nil {
		return writeErr(cmd, err)
	}
	return writeOut(cmd, app, map[string]any{
		"data":    id,
		"message": "Signed in as " + id.Email + ".",
	})
}

func newAuthSignUpCmd(app *App) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			return signInWith(cmd, app, func(svc *auth.Service) (auth.Identity, error) {
				return svc.SignUp(commandContext(cmd), email, password)
			})
		},
	}
	credentialFlags(cmd, &email, &password)
	return cmd
}

func newAuthSignInCmd(app *App) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			return signInWith(cmd, app, func(svc *auth.Service) (auth.Identity, error) {
				return svc.SignIn(commandContext(cmd), email, password)
			})
		},
	}
	credentialFlags(cmd, &email, &password)
	return cmd
}

func newAuthGoogleCmd(app *App) *cobra.Command {
	var code string
	cmd := &cobra.Command{
		Use:   "google",
		Short: "Sign in with Google (prints the consent URL, then pass --code)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(code) != "" {
				return signInWith(cmd, app, func(svc *auth.Service) (auth.Identity, error) {
					return svc.SignInWithGoogle(commandContext(cmd), code)
				})
			}

			rt, err := openRuntime(commandContext(cmd), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer rt.Close()
			svc, err := rt.requireAuth()
			if err != nil {
				return writeErr(cmd, err)
			}
			url, state, err := svc.GoogleAuthURL()
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data":   map[string]any{"url": url, "state": state},
				"_hints": []string{"timebuddy auth google --code <code>"},
			})
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "Authorization code from the Google consent page")
	return cmd
}

func newAuthResetPasswordCmd(app *App) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Send a password reset token",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(commandContext(cmd), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer rt.Close()
			svc, err := rt.requireAuth()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := svc.ResetPassword(commandContext(cmd), email); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data":    map[string]any{"email": strings.TrimSpace(email)},
				"message": msgResetSent,
				"_hints":  []string{"timebuddy auth confirm-reset --token <token> --password <new password>"},
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", envOr("TIMEBUDDY_EMAIL", ""), "Account email")
	return cmd
}

func newAuthConfirmResetCmd(app *App) *cobra.Command {
	var token, password string
	cmd := &cobra.Command{
		Use:   "confirm-reset",
		Short: "Set a new password using a reset token",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(commandContext(cmd), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer rt.Close()
			svc, err := rt.requireAuth()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := svc.ConfirmPasswordReset(commandContext(cmd), token, password); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": nil, "message": msgPasswordUpdate})
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Reset token")
	cmd.Flags().StringVar(&password, "password", envOr("TIMEBUDDY_PASSWORD", ""), "New password")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}

func newAuthSignOutCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signout",
		Short: "Sign out (or leave offline mode)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			rt, err := openRuntime(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer rt.Close()
			// A session that no longer verifies is already gone; only the
			// stored flag needs clearing.
			if _, err := rt.session.Start(ctx); err != nil {
				rt.logger.Debug("resume before sign out failed", zap.Error(err))
			}
			if err := rt.session.Logout(ctx); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": nil, "message": msgSignedOut})
		},
	}
	return cmd
}

func newAuthOfflineCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "offline",
		Short: "Continue without an account; data stays on this device",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			rt, err := openRuntime(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer rt.Close()
			if _, err := rt.session.Start(ctx); err == nil && rt.session.Mode() == session.ModeOnline {
				// Leaving an online session revokes its token first.
				if err := rt.session.Logout(ctx); err != nil {
					return writeErr(cmd, err)
				}
			}
			if err := rt.session.ContinueOffline(ctx); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data":    map[string]any{"mode": string(session.ModeOffline)},
				"message": msgOffline,
			})
		},
	}
	return cmd
}

type authStatus struct {
	Mode            string         `json:"mode"`
	OnlineAvailable bool           `json:"onlineAvailable"`
	Identity        *auth.Identity `json:"identity,omitempty"`
	Backend         string         `json:"backend,omitempty"`
}

func newAuthStatusCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			rt, err := openRuntime(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer rt.Close()
			mode, err := rt.session.Start(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			st := authStatus{
				Mode:            string(mode),
				OnlineAvailable: rt.session.OnlineAvailable(),
				Backend:         rt.session.Store().BackendName(),
			}
			if st.Mode == "" {
				st.Mode = "none"
			}
			if id, ok := rt.session.Identity(); ok {
				st.Identity = &id
			}
			return writeOut(cmd, app, map[string]any{"data": st})
		},
	}
	return cmd
}
