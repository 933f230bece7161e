package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/open-palace/openpalace/internal/component"
)

func TestRawSearchRejectsEmptyQuery(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	if _, err := e.RawSearch("", "", 0); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("got %v, want ErrInvalidArgument", err)
	}
}

func TestRawSearchFindsIndexedSummary(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))
	if err := e.ComponentCreate(component.TypeProjects, "alpha", "the rocket launch schedule for next quarter"); err != nil {
		t.Fatalf("ComponentCreate: %v", err)
	}
	if _, err := e.SearchReindex(); err != nil {
		t.Fatalf("SearchReindex: %v", err)
	}

	results, err := e.RawSearch("rocket launch", "", 0)
	if err != nil {
		t.Fatalf("RawSearch: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one hit for a term present in the indexed summary")
	}
}

func TestSearchStatusReportsActiveBackend(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	status := e.SearchStatus()
	if status.ActiveBackend == "" {
		t.Fatal("expected an active backend to be chosen with no config override")
	}
}

func TestIndexSearchRejectsEmptyQuery(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	if _, err := e.IndexSearch("", ""); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("got %v, want ErrInvalidArgument", err)
	}
}

func TestIndexGetReturnsNonEmptyDocument(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	doc, err := e.IndexGet()
	if err != nil {
		t.Fatalf("IndexGet: %v", err)
	}
	if doc == "" {
		t.Fatal("expected a non-empty L0 index document even with no components")
	}
}
