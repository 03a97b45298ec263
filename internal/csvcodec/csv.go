// Package csvcodec converts the activity document to and from the
// three-column CSV file users download and re-import.
package csvcodec

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"timebuddy/internal/model"
)

const (
	ExportFileName = "TimeBuddy_Export.csv"
	header         = "Date,Time,Activity"

	// DisplayDateLayout renders 2024-01-05 as "Fri, January 5, 2024".
	DisplayDateLayout = "Mon, January 2, 2006"
)

var (
	// ErrEmptyExport means no slot carries text, so there is nothing to write.
	ErrEmptyExport = errors.New("no activities found to export")
	// ErrEmptyFile means the file has no data rows below the header.
	ErrEmptyFile = errors.New("csv file is empty or has no data")
)

// Accepted date layouts on import, tried in order.
var importDateLayouts = []string{
	DisplayDateLayout,
	"Mon, Jan 2, 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	model.DateKeyLayout,
	"1/2/2006",
	"01/02/2006",
}

// Row is one exported activity.
type Row struct {
	Date  model.DateKey
	Time  string
	Text  string
	Order int
}

// Rows lists every slot with non-blank text, sorted by date then display order.
func Rows(data model.UserActivityData) []Row {
	var out []Row
	for _, dk := range data.SortedKeys() {
		for _, s := range data[dk].SortedSlots() {
			if strings.TrimSpace(s.Text) == "" {
				continue
			}
			out = append(out, Row{Date: dk, Time: s.Time, Text: s.Text, Order: s.Order})
		}
	}
	return out
}

// FormatDisplayDate renders a date key the way the export file shows it.
// Invalid keys are returned unchanged.
func FormatDisplayDate(key model.DateKey) string {
	if !key.Valid() {
		return string(key)
	}
	return key.Time().Format(DisplayDateLayout)
}

// ParseDisplayDate accepts the export layout and a few common alternatives.
func ParseDisplayDate(s string) (model.DateKey, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range importDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.DateKeyOf(t), true
		}
	}
	return "", false
}

// Encode renders data as CSV. Every data field is quoted.
func Encode(data model.UserActivityData) ([]byte, error) {
	rows := Rows(data)
	if len(rows) == 0 {
		return nil, ErrEmptyExport
	}
	var b strings.Builder
	b.WriteString(header)
	b.WriteByte('\n')
	for _, r := range rows {
		b.WriteString(quoteField(FormatDisplayDate(r.Date)))
		b.WriteByte(',')
		b.WriteString(quoteField(r.Time))
		b.WriteByte(',')
		b.WriteString(quoteField(r.Text))
		b.WriteByte('\n')
	}
	return []byte(b.String()), nil
}

func quoteField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// ImportStats summarizes a Decode run.
type ImportStats struct {
	Rows     int `json:"rows"`
	Imported int `json:"imported"`
	Merged   int `json:"merged"`
	Skipped  int `json:"skipped"`
}

// Decode merges the CSV in r into a copy of existing and returns it.
//
// New slots are appended after the day's current slots. When the slot
// already exists, the imported text is appended on a new line unless the
// existing text already contains it. Rows that cannot be used are logged and
// skipped.
func Decode(r io.Reader, existing model.UserActivityData, logger *zap.Logger) (model.UserActivityData, ImportStats, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var stats ImportStats

	records, err := splitRecords(r, logger)
	if err != nil {
		return nil, stats, err
	}

	out := existing.Clone()
	first := true
	for _, raw := range records {
		rec, err := parseRecord(raw.text)
		if err != nil {
			logger.Warn("skipping malformed csv row", zap.Int("line", raw.line), zap.Error(err))
			if !first {
				stats.Rows++
				stats.Skipped++
			}
			first = false
			continue
		}
		if rec == nil {
			continue
		}
		if first {
			first = false
			continue
		}
		if isBlankRecord(rec) {
			continue
		}
		stats.Rows++
		if len(rec) < 3 {
			stats.Skipped++
			continue
		}

		dateKey, ok := ParseDisplayDate(rec[0])
		timeKey := strings.TrimSpace(rec[1])
		if !ok || timeKey == "" {
			logger.Warn("skipping row with invalid date or time",
				zap.Int("line", raw.line),
				zap.String("date", rec[0]),
				zap.String("time", rec[1]),
			)
			stats.Skipped++
			continue
		}
		text := strings.TrimSpace(rec[2])

		day := out.EnsureDay(dateKey)
		if cur, exists := day.Slots[timeKey]; exists {
			existingText := strings.TrimSpace(cur.Text)
			if existingText != text && !strings.Contains(existingText, text) {
				if existingText == "" {
					cur.Text = text
				} else {
					cur.Text = existingText + "\n" + text
				}
				day.Slots[timeKey] = cur
				stats.Merged++
			}
			continue
		}
		day.Slots[timeKey] = model.ActivitySlot{Text: text, Order: len(day.Slots)}
		stats.Imported++
	}

	if stats.Rows == 0 {
		return nil, stats, ErrEmptyFile
	}
	return out, stats, nil
}

type rawRecord struct {
	line int
	text string
}

// splitRecords groups physical lines into CSV records. A quoted field may
// span lines, but while a quote is open a line that reads as a complete row
// on its own starts a new record, so an unterminated quote damages one row
// only.
func splitRecords(r io.Reader, logger *zap.Logger) ([]rawRecord, error) {
	var (
		out  []rawRecord
		cur  rawRecord
		buf  strings.Builder
		open bool
		n    int
	)
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			n++
			body := strings.TrimRight(line, "\r\n")
			if open && strings.Count(body, `"`)%2 == 0 && looksLikeRow(body) {
				logger.Warn("unterminated quote in csv row", zap.Int("line", cur.line))
				cur.text = buf.String()
				out = append(out, cur)
				open = false
			}
			if open {
				buf.WriteByte('\n')
			} else {
				buf.Reset()
				cur = rawRecord{line: n}
			}
			buf.WriteString(body)
			if strings.Count(body, `"`)%2 == 1 {
				open = !open
			}
			if !open {
				cur.text = buf.String()
				out = append(out, cur)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
	}
	if open {
		logger.Warn("unterminated quote in csv row", zap.Int("line", cur.line))
		cur.text = buf.String()
		out = append(out, cur)
	}
	return out, nil
}

// parseRecord reads one record. It returns nil for a blank line.
func parseRecord(s string) ([]string, error) {
	cr := csv.NewReader(strings.NewReader(s))
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	rec, err := cr.Read()
	if err == io.EOF {
		// An unterminated quote ends at EOF with the fields read so far.
		return rec, nil
	}
	return rec, err
}

func looksLikeRow(line string) bool {
	rec, err := parseRecord(line)
	if err != nil || len(rec) < 3 {
		return false
	}
	_, ok := ParseDisplayDate(rec[0])
	return ok && strings.TrimSpace(rec[1]) != ""
}

func isBlankRecord(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
