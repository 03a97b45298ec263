package mutate

import (
	"testing"

	"timebuddy/internal/model"
)

func TestDeleteSlot_LastSlotSetsTombstoneAndAddSlotClearsIt(t *testing.T) {
	data := model.UserActivityData{friday: {Slots: map[string]model.ActivitySlot{"09:00": {Text: "x"}}}}

	res, err := DeleteSlot(data, friday, "09:00")
	if err != nil {
		t.Fatalf("DeleteSlot: %v", err)
	}
	day := res.Data[friday]
	if !res.Changed || !day.UserCleared || len(day.Slots) != 0 {
		t.Fatalf("expected cleared empty day, got %+v (changed=%v)", day, res.Changed)
	}

	// Cleared days show nothing instead of the defaults.
	if got := DisplaySlots(day, friday); len(got) != 0 {
		t.Fatalf("expected no display slots for cleared day, got %+v", got)
	}

	res = mustApply(t, res.Data, friday, AddSlot{})
	day = res.Data[friday]
	if day.UserCleared {
		t.Fatalf("AddSlot must clear the tombstone")
	}
	if len(day.Slots) != 1 {
		t.Fatalf("defaults must not come back after an explicit clear, got %+v", day.Slots)
	}
}

func TestDeleteSlot_MissingSlotIsNoop(t *testing.T) {
	data := model.UserActivityData{friday: {Slots: map[string]model.ActivitySlot{"a": {}}}}
	res, err := DeleteSlot(data, friday, "nope")
	if err != nil {
		t.Fatalf("DeleteSlot: %v", err)
	}
	if res.Changed {
		t.Fatalf("expected no change")
	}
	res, err = DeleteSlot(nil, friday, "a")
	if err != nil || res.Changed {
		t.Fatalf("expected no-op on empty data, got changed=%v err=%v", res.Changed, err)
	}
}

func TestDeleteSlot_NotLastKeepsTombstoneUnset(t *testing.T) {
	data := model.UserActivityData{friday: {Slots: map[string]model.ActivitySlot{"a": {}, "b": {}}}}
	res, err := DeleteSlot(data, friday, "a")
	if err != nil {
		t.Fatalf("DeleteSlot: %v", err)
	}
	if res.Data[friday].UserCleared {
		t.Fatalf("tombstone set with slots remaining")
	}
}

func TestReorderDay_AssignsIndexOrderAndKeepsFlags(t *testing.T) {
	data := model.UserActivityData{friday: {
		Note:        "n",
		UserCleared: true,
		Slots: map[string]model.ActivitySlot{
			"t1": {Text: "one", Order: 0},
			"t2": {Text: "two", Order: 1},
		},
	}}
	res, err := ReorderDay(data, friday, []string{"t2", "t1"})
	if err != nil {
		t.Fatalf("ReorderDay: %v", err)
	}
	day := res.Data[friday]
	if day.Slots["t1"].Order != 1 || day.Slots["t2"].Order != 0 {
		t.Fatalf("unexpected orders: %+v", day.Slots)
	}
	if day.Slots["t1"].Text != "one" || day.Slots["t2"].Text != "two" {
		t.Fatalf("texts lost: %+v", day.Slots)
	}
	if day.Note != "n" || !day.UserCleared {
		t.Fatalf("flags not preserved: %+v", day)
	}
	if data[friday].Slots["t1"].Order != 0 {
		t.Fatalf("input mutated")
	}
}

func TestReorderDay_DensifiesSparseOrders(t *testing.T) {
	data := model.UserActivityData{friday: {Slots: map[string]model.ActivitySlot{
		"a": {Order: 3}, "b": {Order: 3}, "c": {Order: 40},
	}}}
	res, err := ReorderDay(data, friday, data[friday].TimeKeys())
	if err != nil {
		t.Fatalf("ReorderDay: %v", err)
	}
	got := res.Data[friday]
	if got.Slots["a"].Order != 0 || got.Slots["b"].Order != 1 || got.Slots["c"].Order != 2 {
		t.Fatalf("expected dense 0..2, got %+v", got.Slots)
	}
}

func TestMoveSlot(t *testing.T) {
	data := model.UserActivityData{friday: {Slots: map[string]model.ActivitySlot{
		"a": {Order: 0}, "b": {Order: 1}, "c": {Order: 2},
	}}}
	res, err := MoveSlot(data, friday, "c", -1)
	if err != nil {
		t.Fatalf("MoveSlot: %v", err)
	}
	if got := res.Data[friday].TimeKeys(); got[0] != "a" || got[1] != "c" || got[2] != "b" {
		t.Fatalf("unexpected order: %v", got)
	}

	res, err = MoveSlot(data, friday, "a", -1)
	if err != nil {
		t.Fatalf("MoveSlot: %v", err)
	}
	if res.Changed {
		t.Fatalf("moving the first slot up must be a no-op")
	}

	if _, err := MoveSlot(data, friday, "zzz", 1); !IsValidation(err) {
		t.Fatalf("expected validation error for unknown slot, got %v", err)
	}
}

func TestMoveSlotOnUntouchedDayPersistsDefaults(t *testing.T) {
	res, err := MoveSlot(model.UserActivityData{}, friday, "09:00-10:00", -1)
	if err != nil {
		t.Fatalf("MoveSlot: %v", err)
	}
	keys := res.Data[friday].TimeKeys()
	if len(keys) != 10 || keys[0] != "09:00-10:00" || keys[1] != "08:00-09:00" {
		t.Fatalf("unexpected order: %v", keys)
	}
}

func TestRenameSlotOnUntouchedDay(t *testing.T) {
	data := model.UserActivityData{friday: {Note: "n"}}
	res, err := RenameSlot(data, friday, "08:00-09:00", "07:30-09:00")
	if err != nil {
		t.Fatalf("RenameSlot: %v", err)
	}
	day := res.Data[friday]
	if day.SlotCount() != 10 || day.Note != "n" {
		t.Fatalf("expected defaults materialized with note kept, got %+v", day)
	}
	if s, ok := day.Slot("07:30-09:00"); !ok || s.Order != 0 {
		t.Fatalf("expected renamed slot first, got %+v (ok=%v)", s, ok)
	}
	if _, ok := day.Slot("08:00-09:00"); ok {
		t.Fatalf("old key still present")
	}

	if _, err := RenameSlot(data, friday, "08:00-09:00", "09:00-10:00"); !IsValidation(err) {
		t.Fatalf("expected clash with a displayed default, got %v", err)
	}
	if data[friday].SlotCount() != 0 {
		t.Fatalf("input mutated")
	}

	// Cleared days and Sundays have nothing displayed: plain UpdateTime.
	res, err = RenameSlot(nil, sunday, "a", "b")
	if err != nil {
		t.Fatalf("RenameSlot: %v", err)
	}
	if res.Data[sunday].SlotCount() != 0 {
		t.Fatalf("expected no slots on sunday, got %+v", res.Data[sunday])
	}
}

func TestDisplaySlots(t *testing.T) {
	got := DisplaySlots(nil, friday)
	if len(got) != 10 || got[0].Time != "08:00-09:00" || got[9].Time != "17:00-18:00" {
		t.Fatalf("unexpected defaults: %+v", got)
	}
	if got := DisplaySlots(nil, sunday); len(got) != 0 {
		t.Fatalf("expected no defaults on Sunday, got %+v", got)
	}
	day := &model.DayRecord{Slots: map[string]model.ActivitySlot{"b": {Order: 1}, "a": {Order: 0}}}
	got = DisplaySlots(day, friday)
	if len(got) != 2 || got[0].Time != "a" {
		t.Fatalf("expected stored slots in order, got %+v", got)
	}
}

func TestHasActivity(t *testing.T) {
	if HasActivity(nil) {
		t.Fatalf("nil day has no activity")
	}
	day := &model.DayRecord{Slots: map[string]model.ActivitySlot{"a": {Text: "  \n"}}}
	if HasActivity(day) {
		t.Fatalf("blank text is not activity")
	}
	day.Slots["b"] = model.ActivitySlot{Text: "run"}
	if !HasActivity(day) {
		t.Fatalf("expected activity")
	}
}
