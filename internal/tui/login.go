package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"timebuddy/internal/auth"
)

const msgResetSent = "Password reset email sent! Please check your inbox."

func (m appModel) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	if m.auth == nil {
		switch msg.String() {
		case "enter", "ctrl+o":
			m.busy = true
			return m, m.offlineCmd()
		case "q", "esc":
			return m, tea.Quit
		}
		return m, nil
	}

	email := strings.TrimSpace(m.login.email.Value())
	password := m.login.password.Value()

	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		m.login.focus = 1 - m.login.focus
		if m.login.focus == 0 {
			m.login.password.Blur()
			return m, m.login.email.Focus()
		}
		m.login.email.Blur()
		return m, m.login.password.Focus()

	case "enter":
		m.busy = true
		m.showMinibuffer("Signing in...")
		return m, m.signInCmd(func(ctx context.Context, a Authenticator) (auth.Identity, error) {
			return a.SignIn(ctx, email, password)
		})

	case "ctrl+n":
		m.busy = true
		m.showMinibuffer("Creating account...")
		return m, m.signInCmd(func(ctx context.Context, a Authenticator) (auth.Identity, error) {
			return a.SignUp(ctx, email, password)
		})

	case "ctrl+r":
		m.busy = true
		ctx, a := m.ctx, m.auth
		return m, func() tea.Msg {
			return resetSentMsg{email: email, err: a.ResetPassword(ctx, email)}
		}

	case "ctrl+g":
		m.busy = true
		a := m.auth
		return m, func() tea.Msg {
			url, _, err := a.GoogleAuthURL()
			return googleURLMsg{url: url, err: err}
		}

	case "ctrl+o":
		m.busy = true
		return m, m.offlineCmd()

	case "esc":
		return m, tea.Quit
	}

	var cmd tea.Cmd
	if m.login.focus == 0 {
		m.login.email, cmd = m.login.email.Update(msg)
	} else {
		m.login.password, cmd = m.login.password.Update(msg)
	}
	return m, cmd
}

func (m appModel) openGoogleCodeModal(url string) (appModel, tea.Cmd) {
	m.googleURL = url
	m.modal = modalGoogleCode
	m.input = textinput.New()
	m.input.Prompt = ""
	m.input.Placeholder = "paste the authorization code"
	return m, tea.Batch(m.input.Focus(), m.openURL(url))
}

func (m appModel) viewLogin() string {
	w := modalBodyWidth(m.width)
	title := lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Render("TimeBuddy")
	sub := styleMuted().Render("Your personal activity calendar")

	if m.auth == nil {
		body := strings.Join([]string{
			title,
			sub,
			"",
			"Online sign-in is not configured.",
			"",
			styleMuted().Render("enter: continue offline   esc: quit"),
		}, "\n")
		return lipgloss.Place(m.width, m.height-4, lipgloss.Center, lipgloss.Center, body)
	}

	field := func(label string, in textinput.Model, focused bool) string {
		l := styleMuted().Render(label)
		if focused {
			l = lipgloss.NewStyle().Foreground(colorAccent).Render(glyphCursor() + " " + label)
		} else {
			l = "  " + l
		}
		return l + "\n" + renderInputLine(w, in.View())
	}

	help := styleMuted().Width(w).Render(
		"enter: sign in   ctrl+n: sign up   ctrl+r: reset password   ctrl+g: Google   ctrl+o: continue offline   esc: quit",
	)
	body := strings.Join([]string{
		title,
		sub,
		"",
		field("Email", m.login.email, m.login.focus == 0),
		"",
		field("Password", m.login.password, m.login.focus == 1),
		"",
		help,
	}, "\n")
	return lipgloss.Place(m.width, m.height-4, lipgloss.Center, lipgloss.Center, body)
}
