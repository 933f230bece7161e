package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/open-palace/openpalace/internal/snapshot"
)

func TestSnapshotSaveRequiresFocus(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	if _, err := e.SnapshotSave(snapshot.Input{}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("got %v, want ErrInvalidArgument", err)
	}
}

func TestSnapshotReadReturnsNilBeforeFirstSave(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	doc, err := e.SnapshotRead()
	if err != nil {
		t.Fatalf("SnapshotRead: %v", err)
	}
	if doc != nil {
		t.Fatalf("got %v, want nil before any save", doc)
	}
}

func TestSnapshotSaveInheritsOmittedFields(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	first := snapshot.Input{CurrentFocus: "writing the engine package"}.
		WithBlockers([]string{"waiting on review"})
	if _, err := e.SnapshotSave(first); err != nil {
		t.Fatalf("first SnapshotSave: %v", err)
	}

	second := snapshot.Input{CurrentFocus: "writing tests"}
	doc, err := e.SnapshotSave(second)
	if err != nil {
		t.Fatalf("second SnapshotSave: %v", err)
	}
	if doc.CurrentFocus != "writing tests" {
		t.Fatalf("got focus %q, want the new value", doc.CurrentFocus)
	}
	if len(doc.Blockers) != 1 || doc.Blockers[0] != "waiting on review" {
		t.Fatalf("got blockers %v, want the prior value inherited since it was omitted", doc.Blockers)
	}
}
