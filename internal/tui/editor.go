package tui

import (
	"os"
	"os/exec"
	"strings"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
)

type editorDoneMsg struct {
	path string
	err  error
}

// editorCommand is $VISUAL, then $EDITOR, then vi, split into argv.
func editorCommand() []string {
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if argv := splitCommandLine(os.Getenv(env)); len(argv) > 0 {
			return argv
		}
	}
	return []string{"vi"}
}

// splitCommandLine splits s into words, honoring single quotes, double
// quotes and backslash escapes outside single quotes.
func splitCommandLine(s string) []string {
	var (
		out     []string
		cur     strings.Builder
		quote   rune
		escaped bool
	)
	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
		case quote != 0 && r == quote:
			quote = 0
		case quote == 0 && (r == '\'' || r == '"'):
			quote = r
		case quote == 0 && unicode.IsSpace(r):
			if cur.Len() > 0 {
				out = append(out, cur.String())
			}
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

// openEditor suspends the TUI and edits the modal's text in an external
// editor. The modal stays open; enter still saves.
func (m appModel) openEditor() (appModel, tea.Cmd) {
	f, err := os.CreateTemp("", "timebuddy-*.md")
	if err != nil {
		m.showError(err)
		return m, nil
	}
	path := f.Name()
	_, err = f.WriteString(m.textarea.Value())
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		m.showError(err)
		return m, nil
	}

	argv := editorCommand()
	cmd := exec.Command(argv[0], append(argv[1:], path)...)
	return m, tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorDoneMsg{path: path, err: err}
	})
}

func (m appModel) applyEditorResult(msg editorDoneMsg) appModel {
	defer func() { _ = os.Remove(msg.path) }()
	if msg.err != nil {
		m.showMinibuffer("Editor failed: " + msg.err.Error())
		return m
	}
	b, err := os.ReadFile(msg.path)
	if err != nil {
		m.showMinibuffer("Editor read failed: " + err.Error())
		return m
	}
	if m.modal != modalEditText && m.modal != modalEditNote {
		return m
	}
	before := m.textarea.Value()
	after := strings.TrimRight(string(b), "\n")
	m.textarea.SetValue(after)
	if strings.TrimSpace(after) == strings.TrimSpace(before) {
		m.showMinibuffer("No changes from " + editorCommand()[0])
	} else {
		m.showMinibuffer("Updated from " + editorCommand()[0] + " (enter to save)")
	}
	return m
}
