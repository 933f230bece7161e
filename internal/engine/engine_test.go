package engine

import (
	"testing"
	"time"
)

func newTestEngine(t *testing.T, now time.Time) *Engine {
	t.Helper()
	dir := t.TempDir()
	e, err := New(dir, func() time.Time { return now })
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestNewCreatesSkeletonAndDefaultConfig(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	if !e.configStore.Exists() {
		t.Fatal("expected a default config document to be written on first run")
	}
	ids, err := e.EntityList()
	if err != nil {
		t.Fatalf("EntityList: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("got %d entities in a fresh store, want 0", len(ids))
	}
	scopes, err := e.ComponentList("")
	if err != nil {
		t.Fatalf("ComponentList: %v", err)
	}
	if len(scopes) != 0 {
		t.Fatalf("got %d components in a fresh store, want 0", len(scopes))
	}
}

func TestNewIsIdempotentOnExistingRoot(t *testing.T) {
	now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	dir := t.TempDir()

	first, err := New(dir, func() time.Time { return now })
	if err != nil {
		t.Fatalf("first New: %v", err)
	}
	if _, err := first.EntityCreate("default", "Default", "", "soul"); err != nil {
		t.Fatalf("EntityCreate: %v", err)
	}

	second, err := New(dir, func() time.Time { return now })
	if err != nil {
		t.Fatalf("second New: %v", err)
	}
	ids, err := second.EntityList()
	if err != nil {
		t.Fatalf("EntityList: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("got %d entities reopening an existing root, want 1 to survive", len(ids))
	}
}
