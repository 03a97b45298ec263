package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"timebuddy/internal/model"
	"timebuddy/internal/session"
)

func (m appModel) Init() tea.Cmd {
	return tea.Batch(waitForSnapshot(m.updates), clearTick(), textinput.Blink)
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textarea.SetWidth(modalBodyWidth(m.width))
		return m, nil

	case snapshotMsg:
		m.data = msg.data
		m.clampSlot()
		return m, waitForSnapshot(m.updates)

	case mutationDoneMsg:
		m.data = m.sess.Store().Snapshot()
		m.clampSlot()
		if msg.err != nil {
			m.showError(msg.err)
		} else if msg.message != "" {
			m.showMinibuffer(msg.message)
		}
		return m, nil

	case sessionDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.showError(msg.err)
			return m, nil
		}
		m.data = m.sess.Store().Snapshot()
		m.today = model.Today()
		m.slotIdx = 0
		if m.sess.Mode() == session.ModeNone {
			m.screen = screenLogin
			m.login = newLoginForm()
		} else {
			m.screen = screenMonth
			m.login.password.SetValue("")
		}
		m.showMinibuffer(msg.message)
		return m, nil

	case resetSentMsg:
		m.busy = false
		if msg.err != nil {
			m.showError(msg.err)
		} else {
			m.showMinibuffer(msgResetSent)
		}
		return m, nil

	case googleURLMsg:
		m.busy = false
		if msg.err != nil {
			m.showError(msg.err)
			return m, nil
		}
		return m.openGoogleCodeModal(msg.url)

	case editorDoneMsg:
		return m.applyEditorResult(msg), nil

	case urlOpenDoneMsg:
		if msg.err != nil && m.googleURL != "" {
			if err := copyToClipboard(m.googleURL); err == nil {
				m.showMinibuffer("Could not open a browser; the sign-in link was copied to the clipboard.")
			} else {
				m.showMinibuffer("Could not open a browser; open the sign-in link shown above.")
			}
		}
		return m, nil

	case clearTickMsg:
		if m.minibufferText != "" && !m.busy && time.Since(m.minibufferSetAt) > minibufferAutoClearAfter {
			m.minibufferText = ""
			m.minibufferErr = false
		}
		return m, clearTick()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.modal != modalNone {
			return m.updateModal(msg)
		}
		switch m.screen {
		case screenLogin:
			return m.updateLogin(msg)
		case screenDay:
			return m.updateDay(msg)
		default:
			return m.updateMonth(msg)
		}
	}

	// Cursor blink and other internal messages go to whatever has focus.
	var cmd tea.Cmd
	switch {
	case m.modal == modalEditText || m.modal == modalEditNote:
		m.textarea, cmd = m.textarea.Update(msg)
	case m.modal != modalNone:
		m.input, cmd = m.input.Update(msg)
	case m.screen == screenLogin && m.login.focus == 0:
		m.login.email, cmd = m.login.email.Update(msg)
	case m.screen == screenLogin:
		m.login.password, cmd = m.login.password.Update(msg)
	}
	return m, cmd
}

func (m appModel) View() string {
	w, h := m.width, m.height
	if w <= 0 {
		w = 80
	}
	if h <= 0 {
		h = 24
	}
	if m.modal != modalNone {
		return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, m.viewModal())
	}

	header := m.viewHeader()
	var body, help string
	switch m.screen {
	case screenLogin:
		body = m.viewLogin()
	case screenDay:
		body = m.viewDay()
		help = "j/k: select  enter: edit  T: time  a: add  x: delete  K/J: move  n: note  h/l: day  esc: month  E/I: export/import"
	default:
		body = m.viewMonth()
		help = "arrows: move  enter: open day  [/]: month  t: today  E/I: export/import  R: reset  L: sign out  q: quit"
	}

	bodyH := h - 4
	if bodyH < 1 {
		bodyH = 1
	}
	return strings.Join([]string{
		header,
		"",
		fitPane(body, w, bodyH),
		m.viewMinibuffer(w, help),
	}, "\n")
}

func (m appModel) viewHeader() string {
	label := "signed out"
	switch m.sess.Mode() {
	case session.ModeOffline:
		label = "offline"
	case session.ModeOnline:
		label = "online"
		if id, ok := m.sess.Identity(); ok && id.Email != "" {
			label = "online: " + id.Email
		}
	}
	return lipgloss.NewStyle().Bold(true).Render("TimeBuddy") + "  " + styleMuted().Render(label)
}

// viewMinibuffer shows the latest status message, or the key help when idle.
func (m appModel) viewMinibuffer(w int, help string) string {
	if m.minibufferText == "" {
		return fitPane(styleMuted().Render(help), w, 1)
	}
	st := lipgloss.NewStyle().Foreground(colorAccent)
	if m.minibufferErr {
		st = lipgloss.NewStyle().Foreground(colorSelectedFg).Background(colorFlashErrorBg)
	}
	return fitPane(st.Render(m.minibufferText), w, 1)
}
