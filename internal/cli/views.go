package cli

import (
	"fmt"
	"io"
	"strings"

	"timebuddy/internal/calendar"
	"timebuddy/internal/csvcodec"
	"timebuddy/internal/model"
	"timebuddy/internal/mutate"
)

type dayView struct {
	Date        model.DateKey     `json:"date"`
	Display     string            `json:"display"`
	Note        string            `json:"note"`
	UserCleared bool              `json:"userCleared"`
	Stored      bool              `json:"stored"`
	Slots       []model.TimedSlot `json:"slots"`
}

func newDayView(key model.DateKey, day *model.DayRecord) dayView {
	v := dayView{
		Date:    key,
		Display: csvcodec.FormatDisplayDate(key),
		Stored:  day.SlotCount() > 0,
		Slots:   mutate.DisplaySlots(day, key),
	}
	if day != nil {
		v.Note = day.Note
		v.UserCleared = day.UserCleared
	}
	return v
}

func (v dayView) RenderText(w io.Writer) error {
	var b strings.Builder
	b.WriteString(v.Display)
	b.WriteByte('\n')
	if v.Note != "" {
		fmt.Fprintf(&b, "Note: %s\n", v.Note)
	}
	if len(v.Slots) == 0 {
		b.WriteString("No activities for this day.\n")
	}
	width := 0
	for _, s := range v.Slots {
		if len(s.Time) > width {
			width = len(s.Time)
		}
	}
	for _, s := range v.Slots {
		lines := strings.Split(s.Text, "\n")
		fmt.Fprintf(&b, "  %-*s  %s\n", width, s.Time, lines[0])
		for _, l := range lines[1:] {
			fmt.Fprintf(&b, "  %-*s  %s\n", width, "", l)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

type monthView struct {
	Month string            `json:"month"`
	Weeks [][]calendar.Cell `json:"weeks"`
}

func newMonthView(key model.DateKey, data model.UserActivityData) monthView {
	return monthView{
		Month: calendar.Title(key),
		Weeks: calendar.Month(key, data, model.Today()),
	}
}

// RenderText draws the grid: "*" marks a day with activity, "!" today.
func (v monthView) RenderText(w io.Writer) error {
	var b strings.Builder
	b.WriteString(v.Month)
	b.WriteString("\n Sun  Mon  Tue  Wed  Thu  Fri  Sat\n")
	var notes []calendar.Cell
	for _, week := range v.Weeks {
		for _, c := range week {
			if !c.InMonth {
				b.WriteString("     ")
				continue
			}
			mark := " "
			switch {
			case c.Today:
				mark = "!"
			case c.HasActivity:
				mark = "*"
			}
			fmt.Fprintf(&b, " %2d%s ", c.Day, mark)
			if c.Note != "" {
				notes = append(notes, c)
			}
		}
		b.WriteByte('\n')
	}
	for _, c := range notes {
		fmt.Fprintf(&b, "%s: %s\n", c.Date, strings.ReplaceAll(c.Note, "\n", " "))
	}
	_, err := io.WriteString(w, b.String())
	return err
}
