package model

import (
	"encoding/json"
	"testing"
)

func TestDayRecord_JSONKeepsDocumentShape(t *testing.T) {
	raw := []byte(`{
  "note": "gym day",
  "_userCleared": true,
  "09:00-10:00": {"text": "Standup", "order": 1},
  "08:00-09:00": {"text": "", "order": 0},
  "bogus": "not a slot"
}`)
	var d DayRecord
	if err := json.Unmarshal(raw, &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Note != "gym day" || !d.UserCleared {
		t.Fatalf("unexpected reserved fields: %+v", d)
	}
	if len(d.Slots) != 2 {
		t.Fatalf("expected 2 slots, got %d: %+v", len(d.Slots), d.Slots)
	}
	if s := d.Slots["09:00-10:00"]; s.Text != "Standup" || s.Order != 1 {
		t.Fatalf("unexpected slot: %+v", s)
	}

	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal map: %v", err)
	}
	if back["note"] != "gym day" || back["_userCleared"] != true {
		t.Fatalf("reserved keys not inline: %v", back)
	}
	if _, ok := back["09:00-10:00"].(map[string]any); !ok {
		t.Fatalf("expected slot object, got %T", back["09:00-10:00"])
	}
}

func TestDayRecord_MarshalOmitsEmptyReservedKeys(t *testing.T) {
	d := DayRecord{Slots: map[string]ActivitySlot{"a": {Text: "x"}}}
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"a":{"text":"x","order":0}}` {
		t.Fatalf("unexpected json: %s", b)
	}
}

func TestUserActivityData_CloneIsDeep(t *testing.T) {
	u := UserActivityData{
		"2024-01-05": {Note: "n", Slots: map[string]ActivitySlot{"a": {Text: "x", Order: 0}}},
	}
	c := u.Clone()
	c["2024-01-05"].Slots["a"] = ActivitySlot{Text: "changed"}
	c["2024-01-05"].Note = "other"
	if u["2024-01-05"].Slots["a"].Text != "x" || u["2024-01-05"].Note != "n" {
		t.Fatalf("clone shares state with original: %+v", u["2024-01-05"])
	}
}

func TestSortedSlots_TiesBrokenByTimeKey(t *testing.T) {
	d := &DayRecord{Slots: map[string]ActivitySlot{
		"b":     {Order: 1},
		"a":     {Order: 1},
		"first": {Order: 0},
		"last":  {Order: 7},
	}}
	got := d.TimeKeys()
	want := []string{"first", "a", "b", "last"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestDateKey(t *testing.T) {
	if _, err := ParseDateKey("2024-1-5"); err == nil {
		t.Fatalf("expected error for non-padded date")
	}
	if _, err := ParseDateKey("2024-02-30"); err == nil {
		t.Fatalf("expected error for impossible date")
	}
	k, err := ParseDateKey(" 2024-01-07 ")
	if err != nil {
		t.Fatalf("ParseDateKey: %v", err)
	}
	if !k.IsSunday() {
		t.Fatalf("2024-01-07 is a Sunday")
	}
	if DateKey("2024-01-05").IsSunday() {
		t.Fatalf("2024-01-05 is a Friday")
	}
	if got := k.AddDays(1); got != "2024-01-08" {
		t.Fatalf("AddDays: got %s", got)
	}
	if got := DateKey("2024-03-01").AddDays(-1); got != "2024-02-29" {
		t.Fatalf("AddDays leap: got %s", got)
	}
}
