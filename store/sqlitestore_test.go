package store

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/inspect-labs/inspectflow"
)

// testDSN returns a unique shared-memory DSN for test isolation.
func testDSN(t *testing.T) string {
	t.Helper()
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
}

func newTestStore(t *testing.T, cfg ...SQLiteStoreConfig) *SQLiteEventStore {
	t.Helper()
	var c SQLiteStoreConfig
	if len(cfg) > 0 {
		c = cfg[0]
	}
	if c.DSN == "" {
		c.DSN = testDSN(t)
	}
	s, err := NewSQLiteEventStore(c)
	if err != nil {
		t.Fatalf("NewSQLiteEventStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func toolEvent(runID, tool string, i int) inspectflow.Event {
	return inspectflow.NewEvent(inspectflow.EventToolFinished, runID).
		WithSolution("line1").
		WithProcedure("measure").
		WithTool(tool, inspectflow.CategoryMeasurement).
		WithElapsed(time.Duration(i) * time.Millisecond).
		WithPayload("index", float64(i))
}

func TestSQLiteEventStore_AppendList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		e := toolEvent("run-1", fmt.Sprintf("tool-%d", i), i)
		if err := s.Append(ctx, e); err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
	}

	events, err := s.List(ctx, "run-1", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(events) != 5 {
		t.Fatalf("got %d events, want 5", len(events))
	}

	// Round-trip fidelity.
	e := events[0]
	if e.RunID != "run-1" {
		t.Errorf("RunID = %q, want run-1", e.RunID)
	}
	if e.Kind != inspectflow.EventToolFinished {
		t.Errorf("Kind = %q, want %q", e.Kind, inspectflow.EventToolFinished)
	}
	if e.Solution != "line1" || e.Procedure != "measure" {
		t.Errorf("scope = %q/%q, want line1/measure", e.Solution, e.Procedure)
	}
	if e.Tool != "tool-1" || e.Category != inspectflow.CategoryMeasurement {
		t.Errorf("tool = %q/%q", e.Tool, e.Category)
	}
	if e.Elapsed != time.Millisecond {
		t.Errorf("Elapsed = %v, want %v", e.Elapsed, time.Millisecond)
	}
	if v, ok := e.Payload["index"]; !ok || v != float64(1) {
		t.Errorf("Payload[index] = %v (%T), want 1 (float64)", v, v)
	}

	limited, err := s.List(ctx, "run-1", 2)
	if err != nil {
		t.Fatalf("List limited: %v", err)
	}
	if len(limited) != 2 || limited[0].Tool != "tool-1" || limited[1].Tool != "tool-2" {
		t.Errorf("List(limit=2) = %d events starting %q", len(limited), limited[0].Tool)
	}

	if missing, err := s.List(ctx, "ghost", 0); err != nil || len(missing) != 0 {
		t.Errorf("List(ghost) = %v, %v", missing, err)
	}
}

func TestSQLiteEventStore_RunIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, run := range []string{"run-b", "run-a", "run-b"} {
		if err := s.Append(ctx, toolEvent(run, "t", 1)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	ids, err := s.RunIDs(ctx)
	if err != nil {
		t.Fatalf("RunIDs: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"run-a", "run-b"}) {
		t.Errorf("RunIDs = %v, want [run-a run-b]", ids)
	}
}

func TestSQLiteEventStore_PruneByCount(t *testing.T) {
	s := newTestStore(t, SQLiteStoreConfig{
		DSN:            testDSN(t),
		RetentionCount: 3,
		PruneInterval:  time.Hour,
	})
	ctx := context.Background()

	for i := 1; i <= 6; i++ {
		if err := s.Append(ctx, toolEvent("run-1", fmt.Sprintf("tool-%d", i), i)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := s.Prune(ctx); err != nil {
		t.Fatalf("Prune: %v", err)
	}

	events, err := s.List(ctx, "run-1", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("after prune %d events, want 3", len(events))
	}
	if events[0].Tool != "tool-4" || events[2].Tool != "tool-6" {
		t.Errorf("retained window = [%s .. %s], want [tool-4 .. tool-6]",
			events[0].Tool, events[2].Tool)
	}
}

func TestSQLiteEventStore_PruneByAge(t *testing.T) {
	s := newTestStore(t, SQLiteStoreConfig{
		DSN:           testDSN(t),
		RetentionAge:  time.Minute,
		PruneInterval: time.Hour,
	})
	ctx := context.Background()

	old := toolEvent("run-1", "old", 1)
	old.Time = time.Now().Add(-time.Hour)
	fresh := toolEvent("run-1", "fresh", 2)

	if err := s.Append(ctx, old); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Append(ctx, fresh); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Prune(ctx); err != nil {
		t.Fatalf("Prune: %v", err)
	}

	events, err := s.List(ctx, "run-1", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(events) != 1 || events[0].Tool != "fresh" {
		t.Errorf("after age prune = %v, want only fresh", events)
	}
}

func TestSQLiteEventStore_CloseIdempotent(t *testing.T) {
	s, err := NewSQLiteEventStore(SQLiteStoreConfig{DSN: testDSN(t)})
	if err != nil {
		t.Fatalf("NewSQLiteEventStore: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Second close must not panic on the stop channel.
	_ = s.Close()
}
