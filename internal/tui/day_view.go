package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"timebuddy/internal/model"
	"timebuddy/internal/mutate"
	"timebuddy/internal/store"
)

const dayTitleLayout = "Monday, January 2, 2006"

func (m appModel) updateDay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	slot, hasSlot := m.selectedSlot()
	day := m.cursor

	switch msg.String() {
	case "esc", "backspace", "ctrl+g":
		m.screen = screenMonth
		return m, nil
	case "q":
		return m, tea.Quit

	case "up", "k":
		if m.slotIdx > 0 {
			m.slotIdx--
		}
	case "down", "j":
		m.slotIdx++
		m.clampSlot()

	case "left", "h":
		m.cursor = m.cursor.AddDays(-1)
		m.slotIdx = 0
	case "right", "l":
		m.cursor = m.cursor.AddDays(1)
		m.slotIdx = 0
	case "t":
		m.today = model.Today()
		m.cursor = m.today
		m.slotIdx = 0

	case "enter", "e":
		if hasSlot {
			return m.openTextModal(slot)
		}
	case "T":
		if hasSlot {
			m.modalSlot = slot.Time
			return m.openInputModal(modalEditTime, slot.Time, "HH:MM-HH:MM")
		}
	case "n":
		return m.openNoteModal()

	case "a":
		// Select the new slot once it lands; clampSlot pins this to the last row.
		m.slotIdx = 1 << 30
		return m, m.applyCmd(day, mutate.AddSlot{})

	case "x", "delete":
		if !hasSlot {
			return m, nil
		}
		return m, m.mutateCmd(func(ctx context.Context, st *store.ActivityStore) (string, error) {
			deleted, err := st.DeleteSlot(ctx, day, slot.Time)
			if err != nil || !deleted {
				return "", err
			}
			return mutate.MsgDeleted, nil
		})

	case "K", "shift+up":
		return m.moveSelected(slot, hasSlot, -1)
	case "J", "shift+down":
		return m.moveSelected(slot, hasSlot, 1)

	case "E":
		return m, m.exportCmd()
	case "I":
		return m.openInputModal(modalImport, "", "path/to/TimeBuddy_Export.csv")
	}
	return m, nil
}

func (m appModel) moveSelected(slot model.TimedSlot, ok bool, delta int) (tea.Model, tea.Cmd) {
	if !ok {
		return m, nil
	}
	n := len(mutate.DisplaySlots(m.data.Day(m.cursor), m.cursor))
	next := m.slotIdx + delta
	if next < 0 || next >= n {
		return m, nil
	}
	m.slotIdx = next
	day := m.cursor
	return m, m.mutateCmd(func(ctx context.Context, st *store.ActivityStore) (string, error) {
		res, err := st.MoveSlot(ctx, day, slot.Time, delta)
		return res.Message, err
	})
}

func (m appModel) viewDay() string {
	w := m.width
	if w < 40 {
		w = 40
	}
	day := m.data.Day(m.cursor)
	slots := mutate.DisplaySlots(day, m.cursor)

	titleStyle := lipgloss.NewStyle().Bold(true)
	if m.cursor.IsSunday() {
		titleStyle = titleStyle.Foreground(colorSunday)
	}
	title := glyphPrev() + " " + titleStyle.Render(m.cursor.Time().Format(dayTitleLayout)) + " " + glyphNext()
	if m.cursor == m.today {
		title += "  " + lipgloss.NewStyle().Foreground(colorAccent).Render("today")
	}

	lines := []string{title}
	if day != nil && day.Note != "" {
		lines = append(lines, "", renderNote(day.Note, w-2))
	}
	lines = append(lines, styleMuted().Render(strings.Repeat(glyphHRule(), w)))

	if len(slots) == 0 {
		lines = append(lines, styleMuted().Render("No activities for this day. Press a to add one."))
		return strings.Join(lines, "\n")
	}

	timeW := 0
	for _, s := range slots {
		timeW = max(timeW, xansi.StringWidth(s.Time))
	}
	textW := max(w-timeW-6, 10)

	for i, s := range slots {
		prefix := "  "
		rowStyle := lipgloss.NewStyle()
		if i == m.slotIdx {
			prefix = glyphCursor() + " "
			rowStyle = rowStyle.Background(colorSelectedBg).Foreground(colorSelectedFg)
		}
		timeCol := lipgloss.NewStyle().Inherit(rowStyle).Bold(true).Width(timeW).Render(s.Time)

		text := s.Text
		if strings.TrimSpace(text) == "" {
			text = styleMuted().Render("-")
		}
		textLines := strings.Split(xansi.Wordwrap(text, textW, " "), "\n")
		for j, tl := range textLines {
			lead := timeCol
			if j > 0 {
				lead = strings.Repeat(" ", timeW)
			}
			row := prefix + lead + "  " + tl
			if j > 0 {
				row = "  " + lead + "  " + tl
			}
			lines = append(lines, rowStyle.Render(row))
		}
	}
	return strings.Join(lines, "\n")
}
