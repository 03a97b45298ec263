package mutate

import (
	"fmt"
	"strings"

	"timebuddy/internal/model"
)

const (
	firstDefaultHour = 8
	lastDefaultHour  = 17
)

// Result is the outcome of a mutation. Data is always a fresh copy; the
// input document is never modified.
type Result struct {
	Data    model.UserActivityData
	Changed bool
	// Message is the confirmation to surface to the user ("" for none).
	Message string
}

// DefaultTimeKey returns the business-hour slot key starting at hour h, e.g. "08:00-09:00".
func DefaultTimeKey(h int) string {
	return fmt.Sprintf("%02d:00-%02d:00", h, h+1)
}

// DefaultSlots returns the slots a day starts with on first touch:
// 08:00-09:00 … 17:00-18:00 with empty text, none on Sundays.
func DefaultSlots(key model.DateKey) map[string]model.ActivitySlot {
	out := map[string]model.ActivitySlot{}
	if key.IsSunday() {
		return out
	}
	for h := firstDefaultHour; h <= lastDefaultHour; h++ {
		out[DefaultTimeKey(h)] = model.ActivitySlot{Text: "", Order: h - firstDefaultHour}
	}
	return out
}

// needsDefaults reports whether a day counts as untouched: no record at all,
// or a record with no slots, no note and no tombstone.
func needsDefaults(day *model.DayRecord) bool {
	return day == nil || day.IsBlank()
}

// Apply runs action against the day dateKey of data and returns the new document.
//
// AddSlot and UpdateActivityText first populate an untouched day with the
// default slots. A ValidationError leaves data untouched and returns no Data.
func Apply(data model.UserActivityData, dateKey model.DateKey, action Action) (Result, error) {
	if !dateKey.Valid() {
		return Result{}, errInvalidDate(string(dateKey))
	}
	if action == nil {
		return Result{}, fmt.Errorf("mutate: nil action")
	}

	out := data.Clone()
	changed := false

	switch action.(type) {
	case AddSlot, *AddSlot, UpdateActivityText, *UpdateActivityText:
		if needsDefaults(out.Day(dateKey)) {
			out[dateKey] = &model.DayRecord{Slots: DefaultSlots(dateKey)}
			changed = true
		}
	}
	if out.Day(dateKey) == nil {
		changed = true
	}
	day := out.EnsureDay(dateKey)

	switch a := action.(type) {
	case SaveNote:
		return saveNote(out, day, a, changed), nil
	case *SaveNote:
		return saveNote(out, day, *a, changed), nil
	case AddSlot, *AddSlot:
		return addSlot(out, day), nil
	case UpdateActivityText:
		return updateActivityText(out, day, a), nil
	case *UpdateActivityText:
		return updateActivityText(out, day, *a), nil
	case UpdateTime:
		return updateTime(out, day, a, changed)
	case *UpdateTime:
		return updateTime(out, day, *a, changed)
	default:
		panic(fmt.Sprintf("mutate: unhandled action %T", action))
	}
}

func saveNote(out model.UserActivityData, day *model.DayRecord, a SaveNote, changed bool) Result {
	if day.Note != a.Text {
		changed = true
	}
	day.Note = a.Text
	return Result{Data: out, Changed: changed}
}

func addSlot(out model.UserActivityData, day *model.DayRecord) Result {
	key := "00:00"
	for n := 1; ; n++ {
		if _, exists := day.Slots[key]; !exists {
			break
		}
		key = fmt.Sprintf("00:00-%d", n)
	}
	day.Slots[key] = model.ActivitySlot{Text: "", Order: day.MaxOrder() + 1}
	day.UserCleared = false
	return Result{Data: out, Changed: true, Message: MsgSlotAdded}
}

func updateActivityText(out model.UserActivityData, day *model.DayRecord, a UpdateActivityText) Result {
	if s, ok := day.Slots[a.TimeKey]; ok {
		s.Text = a.NewText
		day.Slots[a.TimeKey] = s
	} else {
		day.Slots[a.TimeKey] = model.ActivitySlot{Text: a.NewText, Order: len(day.Slots)}
	}
	day.UserCleared = false
	return Result{Data: out, Changed: true, Message: MsgActivityUpdated}
}

func updateTime(out model.UserActivityData, day *model.DayRecord, a UpdateTime, changed bool) (Result, error) {
	newKey := strings.TrimSpace(a.NewTimeKey)
	if newKey == "" {
		return Result{}, errEmptyTime()
	}
	if _, exists := day.Slots[newKey]; exists && newKey != a.OldTimeKey {
		return Result{}, errTimeExists(newKey)
	}
	if s, ok := day.Slots[a.OldTimeKey]; ok && newKey != a.OldTimeKey {
		delete(day.Slots, a.OldTimeKey)
		day.Slots[newKey] = s
		changed = true
	}
	return Result{Data: out, Changed: changed, Message: MsgTimeUpdated}, nil
}
