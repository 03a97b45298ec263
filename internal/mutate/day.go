package mutate

import (
	"strings"

	"timebuddy/internal/model"
)

// ReorderDay rewrites the day so that orderedKeys[i] gets order i.
//
// orderedKeys is expected to be exactly the day's current time keys in their
// new display order. A key the day does not hold becomes an empty slot; keys
// left out are dropped. Note and tombstone are kept.
func ReorderDay(data model.UserActivityData, dateKey model.DateKey, orderedKeys []string) (Result, error) {
	if !dateKey.Valid() {
		return Result{}, errInvalidDate(string(dateKey))
	}
	out := data.Clone()
	prev := out.Day(dateKey)

	next := model.NewDayRecord()
	if prev != nil {
		next.Note = prev.Note
		next.UserCleared = prev.UserCleared
	}
	for i, k := range orderedKeys {
		text := ""
		if s, ok := prev.Slot(k); ok {
			text = s.Text
		}
		next.Slots[k] = model.ActivitySlot{Text: text, Order: i}
	}
	out[dateKey] = next
	return Result{Data: out, Changed: true, Message: MsgReordered}, nil
}

// MoveSlot moves timeKey one position up (delta<0) or down (delta>0) in the
// day's display order and reorders the whole day. On an untouched day the
// displayed defaults are what gets reordered. Moving past either end is a
// no-op with Changed=false.
func MoveSlot(data model.UserActivityData, dateKey model.DateKey, timeKey string, delta int) (Result, error) {
	if !dateKey.Valid() {
		return Result{}, errInvalidDate(string(dateKey))
	}
	shown := DisplaySlots(data.Day(dateKey), dateKey)
	keys := make([]string, len(shown))
	idx := -1
	for i, s := range shown {
		keys[i] = s.Time
		if s.Time == timeKey {
			idx = i
		}
	}
	if idx < 0 {
		return Result{}, ValidationError{Field: "time", Message: "Time " + quote(timeKey) + " not found."}
	}
	to := idx + delta
	if delta == 0 || to < 0 || to >= len(keys) {
		return Result{Data: data.Clone(), Changed: false}, nil
	}
	keys[idx], keys[to] = keys[to], keys[idx]
	return ReorderDay(data, dateKey, keys)
}

// RenameSlot is UpdateTime on the displayed slots: an untouched day first
// gets its default slots so that renaming one of them sticks, and a clash
// with a displayed default is rejected.
func RenameSlot(data model.UserActivityData, dateKey model.DateKey, oldKey, newKey string) (Result, error) {
	if !dateKey.Valid() {
		return Result{}, errInvalidDate(string(dateKey))
	}
	action := UpdateTime{OldTimeKey: oldKey, NewTimeKey: newKey}
	day := data.Day(dateKey)
	if day.SlotCount() == 0 && len(DisplaySlots(day, dateKey)) > 0 {
		base := data.Clone()
		next := &model.DayRecord{Slots: DefaultSlots(dateKey)}
		if day != nil {
			next.Note = day.Note
		}
		base[dateKey] = next
		return Apply(base, dateKey, action)
	}
	return Apply(data, dateKey, action)
}

// DeleteSlot removes timeKey from the day. Removing the last slot marks the
// day as cleared by the user. Changed is false when there was nothing to remove.
func DeleteSlot(data model.UserActivityData, dateKey model.DateKey, timeKey string) (Result, error) {
	if !dateKey.Valid() {
		return Result{}, errInvalidDate(string(dateKey))
	}
	if _, ok := data.Day(dateKey).Slot(timeKey); !ok {
		return Result{Data: data.Clone(), Changed: false}, nil
	}
	out := data.Clone()
	day := out.EnsureDay(dateKey)
	delete(day.Slots, timeKey)
	if len(day.Slots) == 0 {
		day.UserCleared = true
	}
	return Result{Data: out, Changed: true, Message: MsgDeleted}, nil
}

// DisplaySlots returns what the day view shows for a day: the stored slots in
// order, or the default business hours for an untouched non-Sunday day.
// Nothing is written; the defaults only become real on the first edit.
func DisplaySlots(day *model.DayRecord, dateKey model.DateKey) []model.TimedSlot {
	if day.SlotCount() > 0 {
		return day.SortedSlots()
	}
	if day != nil && day.UserCleared {
		return []model.TimedSlot{}
	}
	out := make([]model.TimedSlot, 0, lastDefaultHour-firstDefaultHour+1)
	for k, s := range DefaultSlots(dateKey) {
		out = append(out, model.TimedSlot{Time: k, Text: s.Text, Order: s.Order})
	}
	model.SortTimedSlots(out)
	return out
}

// HasActivity reports whether any slot of the day carries non-blank text.
func HasActivity(day *model.DayRecord) bool {
	if day == nil {
		return false
	}
	for _, s := range day.Slots {
		if strings.TrimSpace(s.Text) != "" {
			return true
		}
	}
	return false
}

func quote(s string) string { return `"` + s + `"` }
