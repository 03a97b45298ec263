// Package calendar lays out month grids for the month view.
package calendar

import (
	"time"

	"timebuddy/internal/model"
	"timebuddy/internal/mutate"
)

// Cell is one square of the month grid. Padding cells before the 1st and
// after the last day have InMonth=false and no date.
type Cell struct {
	Date        model.DateKey `json:"date,omitempty"`
	Day         int           `json:"day,omitempty"`
	InMonth     bool          `json:"inMonth"`
	Sunday      bool          `json:"sunday,omitempty"`
	Today       bool          `json:"today,omitempty"`
	HasActivity bool          `json:"hasActivity,omitempty"`
	Note        string        `json:"note,omitempty"`
}

// Month returns the weeks of the month containing key, Sunday first.
func Month(key model.DateKey, data model.UserActivityData, today model.DateKey) [][]Cell {
	first := FirstOfMonth(key).Time()
	days := DaysIn(first.Year(), first.Month())

	lead := int(first.Weekday())
	cells := make([]Cell, 0, 42)
	for i := 0; i < lead; i++ {
		cells = append(cells, Cell{})
	}
	for d := 1; d <= days; d++ {
		k := model.DateKeyOf(time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC))
		day := data.Day(k)
		c := Cell{
			Date:        k,
			Day:         d,
			InMonth:     true,
			Sunday:      k.IsSunday(),
			Today:       k == today,
			HasActivity: mutate.HasActivity(day),
		}
		if day != nil {
			c.Note = day.Note
		}
		cells = append(cells, c)
	}
	for len(cells)%7 != 0 {
		cells = append(cells, Cell{})
	}

	weeks := make([][]Cell, 0, len(cells)/7)
	for i := 0; i < len(cells); i += 7 {
		weeks = append(weeks, cells[i:i+7])
	}
	return weeks
}

// Title is the month heading, e.g. "January 2024".
func Title(key model.DateKey) string {
	return key.Time().Format("January 2006")
}

func FirstOfMonth(key model.DateKey) model.DateKey {
	t := key.Time()
	return model.DateKeyOf(time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC))
}

// AddMonths moves key by n months, clamping the day to the target month's
// length (Jan 31 + 1 month is the last day of February).
func AddMonths(key model.DateKey, n int) model.DateKey {
	t := key.Time()
	y, m := t.Year(), t.Month()+time.Month(n)
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	d := t.Day()
	if n := DaysIn(first.Year(), first.Month()); d > n {
		d = n
	}
	return model.DateKeyOf(time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC))
}

func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
