package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordMutationSplitsOutcome(t *testing.T) {
	ok := testutil.ToFloat64(mutationsTotal.WithLabelValues("save_note", "ok"))
	bad := testutil.ToFloat64(mutationsTotal.WithLabelValues("save_note", "error"))

	RecordMutation("save_note", nil)
	RecordMutation("save_note", errors.New("boom"))
	RecordMutation("save_note", nil)

	if got := testutil.ToFloat64(mutationsTotal.WithLabelValues("save_note", "ok")) - ok; got != 2 {
		t.Fatalf("ok delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(mutationsTotal.WithLabelValues("save_note", "error")) - bad; got != 1 {
		t.Fatalf("error delta = %v, want 1", got)
	}
}

func TestObservePersistenceStampsSuccessfulSave(t *testing.T) {
	lastPersistGauge.Set(0)
	ObservePersistence("local", "load", time.Now(), nil)
	if got := testutil.ToFloat64(lastPersistGauge); got != 0 {
		t.Fatalf("load must not stamp the save gauge, got %v", got)
	}
	ObservePersistence("local", "save", time.Now(), errors.New("disk full"))
	if got := testutil.ToFloat64(lastPersistGauge); got != 0 {
		t.Fatalf("failed save must not stamp the gauge, got %v", got)
	}
	ObservePersistence("local", "save", time.Now(), nil)
	if got := testutil.ToFloat64(lastPersistGauge); got < float64(time.Now().Add(-time.Minute).Unix()) {
		t.Fatalf("expected recent timestamp, got %v", got)
	}
}

func TestRecordImport(t *testing.T) {
	before := testutil.ToFloat64(importRowsTotal.WithLabelValues("merged"))
	RecordImport(3, 2, 1)
	if got := testutil.ToFloat64(importRowsTotal.WithLabelValues("merged")) - before; got != 2 {
		t.Fatalf("merged delta = %v, want 2", got)
	}
}
