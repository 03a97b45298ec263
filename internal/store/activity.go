package store

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"timebuddy/internal/csvcodec"
	"timebuddy/internal/model"
	"timebuddy/internal/mutate"
	"timebuddy/internal/observability"
)

// Confirmation shown after a successful CSV import.
const MsgImported = "CSV data imported successfully!"

// ResetMessage is the confirmation for Reset on the named backend.
func ResetMessage(backend string) string {
	if backend == BackendLocal {
		return "All local data has been reset."
	}
	return "All cloud data has been reset."
}

// ActivityStore owns the in-memory document of one session and writes every
// change through to its backend before publishing it to observers.
//
// Mutations are serialized. A mutation either persists and becomes the new
// snapshot, or fails and leaves the snapshot untouched.
type ActivityStore struct {
	mu      sync.Mutex
	backend Backend
	data    model.UserActivityData
	logger  *zap.Logger

	obsMu     sync.Mutex
	observers map[int]func(model.UserActivityData)
	nextObs   int
}

func NewActivityStore(backend Backend, logger *zap.Logger) *ActivityStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityStore{
		backend:   backend,
		data:      model.UserActivityData{},
		logger:    logger,
		observers: map[int]func(model.UserActivityData){},
	}
}

// SetBackend switches where future changes are written. The snapshot is not
// touched; call Load or Replace afterwards.
func (s *ActivityStore) SetBackend(b Backend) {
	s.mu.Lock()
	s.backend = b
	s.mu.Unlock()
}

func (s *ActivityStore) BackendName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backend == nil {
		return ""
	}
	return s.backend.Name()
}

// Load replaces the snapshot with the backend's document.
func (s *ActivityStore) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.backend == nil {
		s.mu.Unlock()
		return errors.New("activity store: no backend")
	}
	start := time.Now()
	data, err := s.backend.Load(ctx)
	observability.ObservePersistence(s.backend.Name(), "load", start, err)
	if err != nil {
		name := s.backend.Name()
		s.mu.Unlock()
		return &PersistenceError{Backend: name, Op: "load", Err: err}
	}
	if data == nil {
		data = model.UserActivityData{}
	}
	s.data = data
	snap := data.Clone()
	s.mu.Unlock()

	s.publish(snap)
	return nil
}

// Snapshot returns a deep copy of the current document.
func (s *ActivityStore) Snapshot() model.UserActivityData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Clone()
}

// Day returns a copy of one day, or nil when nothing is stored for it.
func (s *ActivityStore) Day(key model.DateKey) *model.DayRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Day(key).Clone()
}

// Apply runs one day action. Validation errors are returned before anything
// is written.
func (s *ActivityStore) Apply(ctx context.Context, dateKey model.DateKey, action mutate.Action) (mutate.Result, error) {
	return s.mutate(ctx, action.Kind(), func(cur model.UserActivityData) (mutate.Result, error) {
		return mutate.Apply(cur, dateKey, action)
	})
}

func (s *ActivityStore) ReorderDay(ctx context.Context, dateKey model.DateKey, orderedKeys []string) (mutate.Result, error) {
	return s.mutate(ctx, "reorder", func(cur model.UserActivityData) (mutate.Result, error) {
		return mutate.ReorderDay(cur, dateKey, orderedKeys)
	})
}

// MoveSlot shifts one slot up (delta<0) or down (delta>0) in the day order.
func (s *ActivityStore) MoveSlot(ctx context.Context, dateKey model.DateKey, timeKey string, delta int) (mutate.Result, error) {
	return s.mutate(ctx, "move", func(cur model.UserActivityData) (mutate.Result, error) {
		return mutate.MoveSlot(cur, dateKey, timeKey, delta)
	})
}

// RenameSlot changes a displayed slot's time key.
func (s *ActivityStore) RenameSlot(ctx context.Context, dateKey model.DateKey, oldKey, newKey string) (mutate.Result, error) {
	return s.mutate(ctx, "update_time", func(cur model.UserActivityData) (mutate.Result, error) {
		return mutate.RenameSlot(cur, dateKey, oldKey, newKey)
	})
}

// DeleteSlot reports whether a slot was removed.
func (s *ActivityStore) DeleteSlot(ctx context.Context, dateKey model.DateKey, timeKey string) (bool, error) {
	res, err := s.mutate(ctx, "delete", func(cur model.UserActivityData) (mutate.Result, error) {
		return mutate.DeleteSlot(cur, dateKey, timeKey)
	})
	if err != nil {
		return false, err
	}
	return res.Changed, nil
}

// ImportCSV merges the CSV in r into the document.
func (s *ActivityStore) ImportCSV(ctx context.Context, r io.Reader) (csvcodec.ImportStats, error) {
	var stats csvcodec.ImportStats
	_, err := s.mutate(ctx, "import", func(cur model.UserActivityData) (mutate.Result, error) {
		next, st, err := csvcodec.Decode(r, cur, s.logger)
		stats = st
		if err != nil {
			return mutate.Result{}, err
		}
		return mutate.Result{Data: next, Changed: true, Message: MsgImported}, nil
	})
	if err != nil {
		return stats, err
	}
	observability.RecordImport(stats.Imported, stats.Merged, stats.Skipped)
	return stats, nil
}

func (s *ActivityStore) ExportCSV() ([]byte, error) {
	return csvcodec.Encode(s.Snapshot())
}

func (s *ActivityStore) ExportXLSX() ([]byte, error) {
	return csvcodec.EncodeXLSX(s.Snapshot())
}

// Reset deletes the whole document from the backend and empties the snapshot.
func (s *ActivityStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	if s.backend == nil {
		s.mu.Unlock()
		return errors.New("activity store: no backend")
	}
	start := time.Now()
	err := s.backend.Clear(ctx)
	observability.ObservePersistence(s.backend.Name(), "clear", start, err)
	observability.RecordMutation("reset", err)
	if err != nil {
		name := s.backend.Name()
		s.mu.Unlock()
		return &PersistenceError{Backend: name, Op: "clear", Err: err}
	}
	s.data = model.UserActivityData{}
	s.mu.Unlock()

	s.publish(model.UserActivityData{})
	return nil
}

// Replace swaps the snapshot without writing to the backend. It is used for
// documents that already come from the backend and on logout.
func (s *ActivityStore) Replace(data model.UserActivityData) {
	next := data.Clone()
	s.mu.Lock()
	s.data = next
	snap := next.Clone()
	s.mu.Unlock()
	s.publish(snap)
}

// Observe registers fn to receive every new snapshot. Call the returned
// cancel func to stop receiving.
func (s *ActivityStore) Observe(fn func(model.UserActivityData)) (cancel func()) {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.obsMu.Lock()
			delete(s.observers, id)
			s.obsMu.Unlock()
		})
	}
}

// Follow applies every document delivered by sub until ctx is done or the
// feed ends, then closes sub. The latest remote document always wins over the
// local snapshot.
func (s *ActivityStore) Follow(ctx context.Context, sub Subscription) {
	defer func() {
		if err := sub.Close(); err != nil {
			s.logger.Warn("close subscription", zap.Error(err))
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-sub.Updates():
			if !ok {
				return
			}
			s.logger.Debug("remote snapshot replaces local state", zap.Int("days", len(data)))
			observability.RecordRemoteSnapshot()
			s.Replace(data)
		}
	}
}

func (s *ActivityStore) mutate(ctx context.Context, kind string, fn func(model.UserActivityData) (mutate.Result, error)) (mutate.Result, error) {
	s.mu.Lock()
	res, err := fn(s.data)
	if err != nil {
		s.mu.Unlock()
		observability.RecordMutation(kind, err)
		return mutate.Result{}, err
	}
	if !res.Changed {
		s.mu.Unlock()
		observability.RecordMutation(kind, nil)
		return res, nil
	}
	if s.backend == nil {
		s.mu.Unlock()
		return mutate.Result{}, errors.New("activity store: no backend")
	}

	start := time.Now()
	err = s.backend.Save(ctx, res.Data)
	observability.ObservePersistence(s.backend.Name(), "save", start, err)
	observability.RecordMutation(kind, err)
	if err != nil {
		name := s.backend.Name()
		s.mu.Unlock()
		s.logger.Error("persist failed", zap.String("backend", name), zap.String("action", kind), zap.Error(err))
		return mutate.Result{}, &PersistenceError{Backend: name, Op: "save", Err: err}
	}
	s.data = res.Data
	snap := res.Data.Clone()
	s.mu.Unlock()

	s.publish(snap)
	res.Data = snap
	return res, nil
}

func (s *ActivityStore) publish(data model.UserActivityData) {
	s.obsMu.Lock()
	fns := make([]func(model.UserActivityData), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()
	for _, fn := range fns {
		fn(data.Clone())
	}
}
