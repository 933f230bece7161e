package snapshot

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T, now time.Time) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "snapshot"), func() time.Time { return now })
}

func TestSaveRequiresCurrentFocus(t *testing.T) {
	s := newTestStore(t, time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC))
	if _, err := s.Save(Input{}); err != ErrMissingFocus {
		t.Fatalf("got %v, want ErrMissingFocus", err)
	}
}

func TestReadBeforeSaveReturnsNil(t *testing.T) {
	s := newTestStore(t, time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC))
	doc, err := s.Read()
	if err != nil {
		t.Fatal(err)
	}
	if doc != nil {
		t.Fatalf("got %+v, want nil", doc)
	}
}

func TestSaveThenReadRoundTrips(t *testing.T) {
	s := newTestStore(t, time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC))
	in := Input{CurrentFocus: "ship the thing"}.WithActiveTasks([]Task{{Description: "write tests", Status: TaskActive}})

	saved, err := s.Save(in)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Read()
	if err != nil {
		t.Fatal(err)
	}
	if got.CurrentFocus != "ship the thing" {
		t.Fatalf("got focus %q", got.CurrentFocus)
	}
	if len(got.ActiveTasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(got.ActiveTasks))
	}
	if got.UpdatedAt != saved.UpdatedAt {
		t.Fatal("read result should match the just-saved document")
	}
}

func TestSaveInheritsUnsuppliedFields(t *testing.T) {
	s := newTestStore(t, time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC))

	first := Input{CurrentFocus: "phase one"}.
		WithBlockers([]string{"waiting on review"}).
		WithContextNotes("some notes")
	if _, err := s.Save(first); err != nil {
		t.Fatalf("first save: %v", err)
	}

	second, err := s.Save(Input{CurrentFocus: "phase two"})
	if err != nil {
		t.Fatalf("second save: %v", err)
	}

	if second.CurrentFocus != "phase two" {
		t.Fatalf("got focus %q", second.CurrentFocus)
	}
	if len(second.Blockers) != 1 || second.Blockers[0] != "waiting on review" {
		t.Fatalf("expected inherited blockers, got %v", second.Blockers)
	}
	if second.ContextNotes != "some notes" {
		t.Fatalf("expected inherited context notes, got %q", second.ContextNotes)
	}
}

func TestSaveRefreshesUpdatedAt(t *testing.T) {
	first := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	second := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	current := first
	s := New(filepath.Join(t.TempDir(), "snapshot"), func() time.Time { return current })

	d1, err := s.Save(Input{CurrentFocus: "x"})
	if err != nil {
		t.Fatal(err)
	}
	current = second
	d2, err := s.Save(Input{CurrentFocus: "y"})
	if err != nil {
		t.Fatal(err)
	}
	if d1.UpdatedAt == d2.UpdatedAt {
		t.Fatal("expected updated_at to change between saves")
	}
}
