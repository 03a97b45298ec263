package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"timebuddy/internal/auth"
	"timebuddy/internal/csvcodec"
	"timebuddy/internal/model"
	"timebuddy/internal/mutate"
	"timebuddy/internal/store"
)

func (m appModel) openTextModal(slot model.TimedSlot) (appModel, tea.Cmd) {
	m.modal = modalEditText
	m.modalSlot = slot.Time
	m.textarea = newEditTextarea()
	m.textarea.SetWidth(modalBodyWidth(m.width))
	m.textarea.SetHeight(6)
	m.textarea.SetValue(slot.Text)
	return m, m.textarea.Focus()
}

func (m appModel) openNoteModal() (appModel, tea.Cmd) {
	note := ""
	if day := m.data.Day(m.cursor); day != nil {
		note = day.Note
	}
	m.modal = modalEditNote
	m.textarea = newEditTextarea()
	m.textarea.SetWidth(modalBodyWidth(m.width))
	m.textarea.SetHeight(4)
	m.textarea.SetValue(note)
	return m, m.textarea.Focus()
}

func (m appModel) openInputModal(kind modalKind, value, placeholder string) (appModel, tea.Cmd) {
	m.modal = kind
	m.input = textinput.New()
	m.input.Prompt = ""
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m, m.input.Focus()
}

func (m appModel) openConfirm(kind modalKind) appModel {
	m.modal = kind
	m.confirmFocus = confirmFocusCancel
	return m
}

func (m appModel) closeModal() appModel {
	m.modal = modalNone
	m.modalSlot = ""
	m.input.Blur()
	m.textarea.Blur()
	return m
}

func (m appModel) updateModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+g":
		return m.closeModal(), nil
	}

	switch m.modal {
	case modalConfirmReset, modalConfirmLogout:
		return m.updateConfirm(msg)

	case modalEditText, modalEditNote:
		switch msg.String() {
		case "enter":
			return m.commitModal()
		case "ctrl+e":
			return m.openEditor()
		}
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		return m, cmd

	default:
		if msg.String() == "enter" {
			return m.commitModal()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m appModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab", "left", "right", "h", "l":
		if m.confirmFocus == confirmFocusConfirm {
			m.confirmFocus = confirmFocusCancel
		} else {
			m.confirmFocus = confirmFocusConfirm
		}
		return m, nil
	case "y":
		m.confirmFocus = confirmFocusConfirm
		return m.commitModal()
	case "n":
		return m.closeModal(), nil
	case "enter":
		if m.confirmFocus != confirmFocusConfirm {
			return m.closeModal(), nil
		}
		return m.commitModal()
	}
	return m, nil
}

func (m appModel) commitModal() (tea.Model, tea.Cmd) {
	kind, slot, day := m.modal, m.modalSlot, m.cursor
	text := strings.TrimSpace(m.textarea.Value())
	value := strings.TrimSpace(m.input.Value())
	m = m.closeModal()

	switch kind {
	case modalEditText:
		return m, m.applyCmd(day, mutate.UpdateActivityText{TimeKey: slot, NewText: text})

	case modalEditTime:
		if value == slot {
			return m, nil
		}
		return m, m.mutateCmd(func(ctx context.Context, st *store.ActivityStore) (string, error) {
			res, err := st.RenameSlot(ctx, day, slot, value)
			return res.Message, err
		})

	case modalEditNote:
		return m, m.applyCmd(day, mutate.SaveNote{Text: text})

	case modalImport:
		return m, m.importCmd(value)

	case modalGoogleCode:
		m.busy = true
		m.showMinibuffer("Signing in with Google...")
		return m, m.signInCmd(func(ctx context.Context, a Authenticator) (auth.Identity, error) {
			return a.SignInWithGoogle(ctx, value)
		})

	case modalConfirmReset:
		return m, m.mutateCmd(func(ctx context.Context, st *store.ActivityStore) (string, error) {
			if err := st.Reset(ctx); err != nil {
				return "", err
			}
			return store.ResetMessage(st.BackendName()), nil
		})

	case modalConfirmLogout:
		m.busy = true
		return m, m.logoutCmd()
	}
	return m, nil
}

func (m appModel) importCmd(path string) tea.Cmd {
	return m.mutateCmd(func(ctx context.Context, st *store.ActivityStore) (string, error) {
		f, err := os.Open(expandHome(path))
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		defer f.Close()
		if _, err := st.ImportCSV(ctx, f); err != nil {
			return "", err
		}
		return store.MsgImported, nil
	})
}

func (m appModel) exportCmd() tea.Cmd {
	dir := m.exportDir
	return m.mutateCmd(func(ctx context.Context, st *store.ActivityStore) (string, error) {
		b, err := st.ExportCSV()
		if err != nil {
			return "", err
		}
		path := filepath.Join(dir, csvcodec.ExportFileName)
		if err := store.WriteFileAtomic(path, b, 0o644); err != nil {
			return "", err
		}
		return "Exported to " + path, nil
	})
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

func (m appModel) viewModal() string {
	bodyW := modalBodyWidth(m.width)
	help := func(s string) string { return styleMuted().Width(bodyW).Render(s) }

	switch m.modal {
	case modalEditText:
		return renderModalBox(m.width, "Activity "+m.modalSlot, strings.Join([]string{
			m.textarea.View(),
			"",
			help("enter: save   ctrl+j: newline   ctrl+e: $EDITOR   esc: cancel"),
		}, "\n"))

	case modalEditNote:
		return renderModalBox(m.width, "Note for "+csvcodec.FormatDisplayDate(m.cursor), strings.Join([]string{
			m.textarea.View(),
			"",
			help("enter: save (empty removes the note)   ctrl+j: newline   ctrl+e: $EDITOR   esc: cancel"),
		}, "\n"))

	case modalEditTime:
		return renderModalBox(m.width, "Edit time", strings.Join([]string{
			renderInputLine(bodyW, m.input.View()),
			"",
			help("enter: save   esc: cancel"),
		}, "\n"))

	case modalImport:
		return renderModalBox(m.width, "Import CSV", strings.Join([]string{
			renderInputLine(bodyW, m.input.View()),
			"",
			help("Columns: Date, Time, Activity. Rows are merged into existing days."),
			help("enter: import   esc: cancel"),
		}, "\n"))

	case modalGoogleCode:
		link := lipgloss.NewStyle().Foreground(colorAccent).Width(bodyW).Render(m.googleURL)
		return renderModalBox(m.width, "Sign in with Google", strings.Join([]string{
			help("Approve access in the browser, then paste the code here."),
			"",
			link,
			"",
			renderInputLine(bodyW, m.input.View()),
			"",
			help("enter: sign in   esc: cancel"),
		}, "\n"))

	case modalConfirmReset:
		where := "on this device"
		if m.sess.Store().BackendName() != store.BackendLocal {
			where = "in the cloud"
		}
		return renderConfirmModal(m.width, "Reset all data",
			"Delete every activity and note stored "+where+"? This cannot be undone.",
			"Reset", "Cancel", m.confirmFocus)

	case modalConfirmLogout:
		return renderConfirmModal(m.width, "Sign out", "Sign out and return to the login screen?", "Sign out", "Cancel", m.confirmFocus)
	}
	return ""
}
