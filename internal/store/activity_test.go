package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"timebuddy/internal/csvcodec"
	"timebuddy/internal/model"
	"timebuddy/internal/mutate"
)

type memBackend struct {
	mu      sync.Mutex
	data    model.UserActivityData
	saves   int
	failErr error
}

func (b *memBackend) Name() string { return "mem" }

func (b *memBackend) Load(ctx context.Context) (model.UserActivityData, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failErr != nil {
		return nil, b.failErr
	}
	return b.data.Clone(), nil
}

func (b *memBackend) Save(ctx context.Context, data model.UserActivityData) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failErr != nil {
		return b.failErr
	}
	b.saves++
	b.data = data.Clone()
	return nil
}

func (b *memBackend) Clear(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failErr != nil {
		return b.failErr
	}
	b.data = nil
	return nil
}

const friday = model.DateKey("2024-01-05")

func TestActivityStore_ApplyPersistsAndPublishes(t *testing.T) {
	ctx := context.Background()
	be := &memBackend{}
	s := NewActivityStore(be, nil)

	var got []model.UserActivityData
	cancel := s.Observe(func(d model.UserActivityData) { got = append(got, d) })
	defer cancel()

	res, err := s.Apply(ctx, friday, mutate.UpdateActivityText{TimeKey: "09:00-10:00", NewText: "Standup"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.Message != mutate.MsgActivityUpdated {
		t.Fatalf("unexpected message %q", res.Message)
	}
	if be.saves != 1 {
		t.Fatalf("expected 1 save, got %d", be.saves)
	}
	if be.data[friday].Slots["09:00-10:00"].Text != "Standup" {
		t.Fatalf("backend not updated: %+v", be.data[friday])
	}
	if len(got) != 1 || got[0][friday].SlotCount() != 10 {
		t.Fatalf("expected one published snapshot with 10 slots, got %d publishes", len(got))
	}

	// Mutating what we were handed must not leak into the store.
	res.Data[friday].Slots["09:00-10:00"] = model.ActivitySlot{Text: "hacked"}
	if s.Day(friday).Slots["09:00-10:00"].Text != "Standup" {
		t.Fatalf("store shares memory with result")
	}
}

func TestActivityStore_ValidationErrorSkipsPersistence(t *testing.T) {
	ctx := context.Background()
	be := &memBackend{}
	s := NewActivityStore(be, nil)
	if _, err := s.Apply(ctx, friday, mutate.UpdateTime{OldTimeKey: "a", NewTimeKey: ""}); !mutate.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if be.saves != 0 {
		t.Fatalf("validation error must not persist")
	}
}

func TestActivityStore_PersistenceFailureKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	be := &memBackend{}
	s := NewActivityStore(be, nil)
	if _, err := s.Apply(ctx, friday, mutate.SaveNote{Text: "before"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	published := 0
	cancel := s.Observe(func(model.UserActivityData) { published++ })
	defer cancel()

	be.failErr = errors.New("disk full")
	_, err := s.Apply(ctx, friday, mutate.SaveNote{Text: "after"})
	var pe *PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if pe.Backend != "mem" || pe.Op != "save" || !errors.Is(err, be.failErr) {
		t.Fatalf("unexpected error: %+v", pe)
	}
	if s.Day(friday).Note != "before" {
		t.Fatalf("snapshot changed after failed save")
	}
	if published != 0 {
		t.Fatalf("failed save must not publish")
	}
}

func TestActivityStore_DeleteSlot(t *testing.T) {
	ctx := context.Background()
	be := &memBackend{data: model.UserActivityData{friday: {Slots: map[string]model.ActivitySlot{"a": {Text: "x"}}}}}
	s := NewActivityStore(be, nil)
	if err := s.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	removed, err := s.DeleteSlot(ctx, friday, "missing")
	if err != nil || removed {
		t.Fatalf("expected no-op, got removed=%v err=%v", removed, err)
	}
	if be.saves != 0 {
		t.Fatalf("no-op delete must not persist")
	}

	removed, err = s.DeleteSlot(ctx, friday, "a")
	if err != nil || !removed {
		t.Fatalf("expected removal, got removed=%v err=%v", removed, err)
	}
	if !s.Day(friday).UserCleared {
		t.Fatalf("expected tombstone")
	}
}

func TestActivityStore_ReorderAndMove(t *testing.T) {
	ctx := context.Background()
	be := &memBackend{data: model.UserActivityData{friday: {Slots: map[string]model.ActivitySlot{
		"t1": {Order: 0}, "t2": {Order: 1},
	}}}}
	s := NewActivityStore(be, nil)
	if err := s.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := s.ReorderDay(ctx, friday, []string{"t2", "t1"}); err != nil {
		t.Fatalf("ReorderDay: %v", err)
	}
	if keys := s.Day(friday).TimeKeys(); keys[0] != "t2" {
		t.Fatalf("unexpected order: %v", keys)
	}
	if _, err := s.MoveSlot(ctx, friday, "t1", -1); err != nil {
		t.Fatalf("MoveSlot: %v", err)
	}
	if keys := s.Day(friday).TimeKeys(); keys[0] != "t1" {
		t.Fatalf("unexpected order after move: %v", keys)
	}
}

func TestActivityStore_ImportExportReset(t *testing.T) {
	ctx := context.Background()
	be := &memBackend{}
	s := NewActivityStore(be, nil)

	if _, err := s.ExportCSV(); !errors.Is(err, csvcodec.ErrEmptyExport) {
		t.Fatalf("expected ErrEmptyExport, got %v", err)
	}
	if _, err := s.ImportCSV(ctx, strings.NewReader("Date,Time,Activity\n")); !errors.Is(err, csvcodec.ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}
	if be.saves != 0 {
		t.Fatalf("failed import must not persist")
	}

	stats, err := s.ImportCSV(ctx, strings.NewReader("Date,Time,Activity\n\"Fri, January 5, 2024\",\"09:00\",\"Standup\"\n"))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if stats.Imported != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	out, err := s.ExportCSV()
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if !strings.Contains(string(out), `"Fri, January 5, 2024","09:00","Standup"`) {
		t.Fatalf("unexpected export: %s", out)
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if len(s.Snapshot()) != 0 || be.data != nil {
		t.Fatalf("reset left data behind")
	}
}

type chanSub struct {
	ch     chan model.UserActivityData
	closed bool
}

func (c *chanSub) Updates() <-chan model.UserActivityData { return c.ch }
func (c *chanSub) Close() error {
	c.closed = true
	return nil
}

func TestActivityStore_FollowReplacesSnapshot(t *testing.T) {
	s := NewActivityStore(&memBackend{}, nil)
	sub := &chanSub{ch: make(chan model.UserActivityData)}

	seen := make(chan model.UserActivityData, 4)
	cancel := s.Observe(func(d model.UserActivityData) { seen <- d })
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.Follow(context.Background(), sub)
		close(done)
	}()

	sub.ch <- model.UserActivityData{friday: {Note: "remote"}}
	select {
	case d := <-seen:
		if d[friday].Note != "remote" {
			t.Fatalf("unexpected publish: %+v", d)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for publish")
	}
	close(sub.ch)
	<-done
	if !sub.closed {
		t.Fatalf("Follow must close the subscription")
	}
	if s.Day(friday).Note != "remote" {
		t.Fatalf("snapshot not replaced")
	}
}

func TestActivityStore_ObserveCancel(t *testing.T) {
	s := NewActivityStore(&memBackend{}, nil)
	n := 0
	cancel := s.Observe(func(model.UserActivityData) { n++ })
	s.Replace(model.UserActivityData{})
	cancel()
	cancel()
	s.Replace(model.UserActivityData{})
	if n != 1 {
		t.Fatalf("expected exactly one notification, got %d", n)
	}
}
