package model

import (
	"encoding/json"
	"sort"
	"strings"
)

// Reserved keys of the stored day document. They only exist on the wire;
// in memory they are the Note and UserCleared fields of DayRecord.
const (
	wireNoteKey        = "note"
	wireUserClearedKey = "_userCleared"
)

type ActivitySlot struct {
	Text  string `json:"text"`
	Order int    `json:"order"`
}

// DayRecord holds everything recorded for one calendar day.
//
// UserCleared is the tombstone set when the user deleted the last slot of the
// day; it keeps the default business-hour slots from coming back until the
// user adds a slot or sets text again.
type DayRecord struct {
	Note        string
	UserCleared bool
	Slots       map[string]ActivitySlot
}

// UserActivityData is the whole per-user document: date key -> day record.
type UserActivityData map[DateKey]*DayRecord

// NewDayRecord returns an empty, non-nil day record.
func NewDayRecord() *DayRecord {
	return &DayRecord{Slots: map[string]ActivitySlot{}}
}

// SlotCount returns the number of real time slots (note and tombstone excluded).
func (d *DayRecord) SlotCount() int {
	if d == nil {
		return 0
	}
	return len(d.Slots)
}

// IsBlank reports whether the record carries nothing at all: no slots, no
// note and no tombstone.
func (d *DayRecord) IsBlank() bool {
	if d == nil {
		return true
	}
	return len(d.Slots) == 0 && d.Note == "" && !d.UserCleared
}

func (d *DayRecord) Slot(timeKey string) (ActivitySlot, bool) {
	if d == nil {
		return ActivitySlot{}, false
	}
	s, ok := d.Slots[timeKey]
	return s, ok
}

// MaxOrder returns the largest order value in the day, or -1 for a day without slots.
func (d *DayRecord) MaxOrder() int {
	max := -1
	if d == nil {
		return max
	}
	for _, s := range d.Slots {
		if s.Order > max {
			max = s.Order
		}
	}
	return max
}

// TimedSlot is an ActivitySlot together with its time key, used wherever a
// day has to be listed in display order.
type TimedSlot struct {
	Time  string `json:"time"`
	Text  string `json:"text"`
	Order int    `json:"order"`
}

// SortedSlots returns the day's slots ordered by Order, then time key.
// Order values may be sparse or duplicated after incremental edits.
func (d *DayRecord) SortedSlots() []TimedSlot {
	if d == nil || len(d.Slots) == 0 {
		return []TimedSlot{}
	}
	out := make([]TimedSlot, 0, len(d.Slots))
	for k, s := range d.Slots {
		out = append(out, TimedSlot{Time: k, Text: s.Text, Order: s.Order})
	}
	SortTimedSlots(out)
	return out
}

func SortTimedSlots(xs []TimedSlot) {
	sort.SliceStable(xs, func(i, j int) bool {
		if xs[i].Order != xs[j].Order {
			return xs[i].Order < xs[j].Order
		}
		return xs[i].Time < xs[j].Time
	})
}

// TimeKeys returns the day's time keys in display order.
func (d *DayRecord) TimeKeys() []string {
	slots := d.SortedSlots()
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Time)
	}
	return out
}

func (d *DayRecord) Clone() *DayRecord {
	if d == nil {
		return nil
	}
	out := &DayRecord{
		Note:        d.Note,
		UserCleared: d.UserCleared,
		Slots:       make(map[string]ActivitySlot, len(d.Slots)),
	}
	for k, s := range d.Slots {
		out.Slots[k] = s
	}
	return out
}

// Clone deep-copies the document. A nil receiver clones to an empty map.
func (u UserActivityData) Clone() UserActivityData {
	out := make(UserActivityData, len(u))
	for k, d := range u {
		if d == nil {
			continue
		}
		out[k] = d.Clone()
	}
	return out
}

// Day returns the record for key, or nil.
func (u UserActivityData) Day(key DateKey) *DayRecord {
	if u == nil {
		return nil
	}
	return u[key]
}

// EnsureDay returns the record for key, creating an empty one when missing.
func (u UserActivityData) EnsureDay(key DateKey) *DayRecord {
	d := u[key]
	if d == nil {
		d = NewDayRecord()
		u[key] = d
	}
	if d.Slots == nil {
		d.Slots = map[string]ActivitySlot{}
	}
	return d
}

// SortedKeys returns the date keys in ascending (chronological) order.
func (u UserActivityData) SortedKeys() []DateKey {
	out := make([]DateKey, 0, len(u))
	for k := range u {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (d DayRecord) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(d.Slots)+2)
	for k, s := range d.Slots {
		m[k] = s
	}
	if d.Note != "" {
		m[wireNoteKey] = d.Note
	}
	if d.UserCleared {
		m[wireUserClearedKey] = true
	}
	return json.Marshal(m)
}

func (d *DayRecord) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := DayRecord{Slots: make(map[string]ActivitySlot, len(raw))}
	for k, v := range raw {
		switch k {
		case wireNoteKey:
			var note string
			if err := json.Unmarshal(v, &note); err == nil {
				out.Note = note
			}
		case wireUserClearedKey:
			var cleared bool
			if err := json.Unmarshal(v, &cleared); err == nil {
				out.UserCleared = cleared
			}
		default:
			if strings.TrimSpace(k) == "" {
				continue
			}
			// Tolerate foreign values: only objects are slots.
			var s ActivitySlot
			if err := json.Unmarshal(v, &s); err != nil {
				continue
			}
			out.Slots[k] = s
		}
	}
	*d = out
	return nil
}
