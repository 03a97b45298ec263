package tui

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"timebuddy/internal/calendar"
	"timebuddy/internal/model"
)

var weekdayNames = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

func (m appModel) updateMonth(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "h":
		m.cursor = m.cursor.AddDays(-1)
	case "right", "l":
		m.cursor = m.cursor.AddDays(1)
	case "up", "k":
		m.cursor = m.cursor.AddDays(-7)
	case "down", "j":
		m.cursor = m.cursor.AddDays(7)
	case "[", "pgup":
		m.cursor = calendar.AddMonths(m.cursor, -1)
	case "]", "pgdown":
		m.cursor = calendar.AddMonths(m.cursor, 1)
	case "t":
		m.today = model.Today()
		m.cursor = m.today
	case "enter", " ":
		m.screen = screenDay
		m.slotIdx = 0
	case "E":
		return m, m.exportCmd()
	case "I":
		return m.openInputModal(modalImport, "", "path/to/TimeBuddy_Export.csv")
	case "R":
		return m.openConfirm(modalConfirmReset), nil
	case "L":
		return m.openConfirm(modalConfirmLogout), nil
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m appModel) monthCellWidth() int {
	w := (m.width - 2) / 7
	if w < 5 {
		w = 5
	}
	if w > 16 {
		w = 16
	}
	return w
}

func (m appModel) viewMonth() string {
	cellW := m.monthCellWidth()
	weeks := calendar.Month(m.cursor, m.data, m.today)

	title := lipgloss.NewStyle().Bold(true).Render(
		glyphPrev() + " " + calendar.Title(m.cursor) + " " + glyphNext(),
	)

	var head strings.Builder
	for i, name := range weekdayNames {
		st := styleMuted()
		if i == 0 {
			st = lipgloss.NewStyle().Foreground(colorSunday)
		}
		head.WriteString(st.Width(cellW).Align(lipgloss.Center).Render(name))
	}

	rows := []string{title, "", head.String()}
	for _, week := range weeks {
		top := make([]string, 0, 7)
		bottom := make([]string, 0, 7)
		for _, c := range week {
			a, b := m.renderMonthCell(c, cellW)
			top = append(top, a)
			bottom = append(bottom, b)
		}
		rows = append(rows, strings.Join(top, ""), strings.Join(bottom, ""))
	}
	return strings.Join(rows, "\n")
}

// renderMonthCell draws a day as two lines: the day number with the
// activity marker, then the start of the day's note.
func (m appModel) renderMonthCell(c calendar.Cell, w int) (string, string) {
	blank := strings.Repeat(" ", w)
	if !c.InMonth {
		return blank, blank
	}

	base := lipgloss.NewStyle().Width(w)
	selected := c.Date == m.cursor
	if selected {
		base = base.Background(colorSelectedBg).Foreground(colorSelectedFg)
	}

	num := lipgloss.NewStyle().Inherit(base).UnsetWidth()
	switch {
	case c.Today:
		num = num.Bold(true).Foreground(colorAccent)
	case c.Sunday && !selected:
		num = num.Foreground(colorSunday)
	}
	line := " " + num.Render(strconv.Itoa(c.Day))
	if c.HasActivity {
		mark := lipgloss.NewStyle().Inherit(base).UnsetWidth()
		if !selected {
			mark = mark.Foreground(colorActivity)
		}
		line += mark.Render(" " + glyphActivity())
	}

	note := ""
	if c.Note != "" {
		note = " " + strings.ReplaceAll(c.Note, "\n", " ")
		if xansi.StringWidth(note) > w {
			note = xansi.Truncate(note, w, "…")
		}
	}
	noteStyle := base
	if !selected {
		noteStyle = faintIfDark(noteStyle.Foreground(colorNote))
	}
	return base.Render(line), noteStyle.Render(note)
}
