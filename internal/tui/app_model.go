package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"timebuddy/internal/auth"
	"timebuddy/internal/model"
	"timebuddy/internal/mutate"
	"timebuddy/internal/session"
	"timebuddy/internal/store"
)

type appModel struct {
	ctx    context.Context
	sess   *session.Controller
	auth   Authenticator
	logger *zap.Logger

	width  int
	height int

	screen screen
	today  model.DateKey
	// cursor is the selected day in the month grid and the open day in the
	// day view.
	cursor  model.DateKey
	slotIdx int
	data    model.UserActivityData

	login loginForm

	modal        modalKind
	modalSlot    string
	input        textinput.Model
	textarea     textarea.Model
	confirmFocus confirmModalFocus
	googleURL    string

	busy      bool
	exportDir string

	updates     chan model.UserActivityData
	stopObserve func()

	minibufferText  string
	minibufferErr   bool
	minibufferSetAt time.Time
}

type loginForm struct {
	email    textinput.Model
	password textinput.Model
	focus    int
}

func newLoginForm() loginForm {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = ""
	email.CharLimit = 254
	email.Focus()

	pw := textinput.New()
	pw.Placeholder = "password"
	pw.Prompt = ""
	pw.EchoMode = textinput.EchoPassword
	pw.EchoCharacter = '•'

	return loginForm{email: email, password: pw}
}

func newAppModel(ctx context.Context, opts Options) appModel {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	start := opts.Start
	if !start.Valid() {
		start = model.Today()
	}

	m := appModel{
		ctx:     ctx,
		sess:    opts.Session,
		logger:  logger,
		today:   model.Today(),
		cursor:  start,
		login:   newLoginForm(),
		auth:    opts.Auth,
		updates: make(chan model.UserActivityData, 1),
	}
	m.exportDir = opts.ExportDir
	if m.exportDir == "" {
		m.exportDir = "."
	}

	st := m.sess.Store()
	m.data = st.Snapshot()
	updates := m.updates
	m.stopObserve = st.Observe(func(d model.UserActivityData) {
		// Keep only the newest snapshot; the UI re-reads the store anyway.
		for {
			select {
			case updates <- d:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})

	if m.sess.Mode() == session.ModeNone {
		m.screen = screenLogin
	} else {
		m.screen = screenMonth
	}

	m.input = textinput.New()
	m.input.Prompt = ""
	m.textarea = newEditTextarea()
	return m
}

func newEditTextarea() textarea.Model {
	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.Prompt = ""
	ta.CharLimit = 0
	// enter commits the modal; newlines need a modifier.
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("ctrl+j", "alt+enter"))
	return ta
}

func (m appModel) close() {
	if m.stopObserve != nil {
		m.stopObserve()
	}
}

func (m *appModel) showMinibuffer(s string) {
	m.minibufferText = strings.TrimSpace(s)
	m.minibufferErr = false
	m.minibufferSetAt = time.Now()
}

func (m *appModel) showError(err error) {
	m.minibufferText = session.UserMessage(err)
	m.minibufferErr = true
	m.minibufferSetAt = time.Now()
}

func waitForSnapshot(ch <-chan model.UserActivityData) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg{data: <-ch}
	}
}

func clearTick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return clearTickMsg{} })
}

// mutateCmd runs fn against the active store off the UI goroutine.
func (m appModel) mutateCmd(fn func(ctx context.Context, st *store.ActivityStore) (string, error)) tea.Cmd {
	ctx, st := m.ctx, m.sess.Store()
	return func() tea.Msg {
		msg, err := fn(ctx, st)
		return mutationDoneMsg{message: msg, err: err}
	}
}

func (m appModel) applyCmd(key model.DateKey, action mutate.Action) tea.Cmd {
	return m.mutateCmd(func(ctx context.Context, st *store.ActivityStore) (string, error) {
		res, err := st.Apply(ctx, key, action)
		return res.Message, err
	})
}

// signInCmd runs an authentication flow and switches the session to the
// resulting identity.
func (m appModel) signInCmd(flow func(ctx context.Context, a Authenticator) (auth.Identity, error)) tea.Cmd {
	ctx, a, sess, logger := m.ctx, m.auth, m.sess, m.logger
	return func() tea.Msg {
		id, err := flow(ctx, a)
		if err != nil {
			return sessionDoneMsg{err: err}
		}
		if err := sess.Login(ctx, id); err != nil {
			return sessionDoneMsg{err: err}
		}
		if err := sess.Follow(ctx); err != nil {
			logger.Warn("live updates unavailable", zap.Error(err))
		}
		return sessionDoneMsg{message: "Signed in as " + id.Email + "."}
	}
}

func (m appModel) offlineCmd() tea.Cmd {
	ctx, sess := m.ctx, m.sess
	return func() tea.Msg {
		if sess.Mode() == session.ModeOnline {
			if err := sess.Logout(ctx); err != nil {
				return sessionDoneMsg{err: err}
			}
		}
		if err := sess.ContinueOffline(ctx); err != nil {
			return sessionDoneMsg{err: err}
		}
		return sessionDoneMsg{message: "Continuing offline. Data is stored on this device only."}
	}
}

func (m appModel) logoutCmd() tea.Cmd {
	ctx, sess := m.ctx, m.sess
	return func() tea.Msg {
		if err := sess.Logout(ctx); err != nil {
			return sessionDoneMsg{err: err}
		}
		return sessionDoneMsg{message: "Signed out."}
	}
}

// selectedSlot is the time key under the day-view cursor, if any.
func (m appModel) selectedSlot() (model.TimedSlot, bool) {
	slots := mutate.DisplaySlots(m.data.Day(m.cursor), m.cursor)
	if m.slotIdx < 0 || m.slotIdx >= len(slots) {
		return model.TimedSlot{}, false
	}
	return slots[m.slotIdx], true
}

func (m *appModel) clampSlot() {
	n := len(mutate.DisplaySlots(m.data.Day(m.cursor), m.cursor))
	if m.slotIdx >= n {
		m.slotIdx = n - 1
	}
	if m.slotIdx < 0 {
		m.slotIdx = 0
	}
}
