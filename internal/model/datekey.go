package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const DateKeyLayout = "2006-01-02"

var reDateKey = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// DateKey is an ISO YYYY-MM-DD calendar day. Lexicographic order equals
// chronological order.
type DateKey string

// ParseDateKey validates s as a YYYY-MM-DD calendar day.
func ParseDateKey(s string) (DateKey, error) {
	s = strings.TrimSpace(s)
	if !reDateKey.MatchString(s) {
		return "", fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	if _, err := time.Parse(DateKeyLayout, s); err != nil {
		return "", fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateKey(s), nil
}

// DateKeyOf returns the key of t's calendar day in t's own location.
func DateKeyOf(t time.Time) DateKey {
	return DateKey(t.Format(DateKeyLayout))
}

// Today returns the key of the current local day.
func Today() DateKey {
	return DateKeyOf(time.Now())
}

// Time returns midnight UTC of the day. The zero time is returned for an invalid key.
func (k DateKey) Time() time.Time {
	t, err := time.Parse(DateKeyLayout, string(k))
	if err != nil {
		return time.Time{}
	}
	return t
}

func (k DateKey) Valid() bool {
	_, err := ParseDateKey(string(k))
	return err == nil
}

func (k DateKey) Weekday() time.Weekday {
	return k.Time().Weekday()
}

func (k DateKey) IsSunday() bool {
	return k.Valid() && k.Weekday() == time.Sunday
}

// AddDays returns the key n days after k (n may be negative).
func (k DateKey) AddDays(n int) DateKey {
	return DateKeyOf(k.Time().AddDate(0, 0, n))
}

func (k DateKey) String() string { return string(k) }
