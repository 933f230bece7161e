package engine

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

func TestSystemListNamesSixSubsystems(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	if got := len(e.SystemList()); got != 6 {
		t.Fatalf("got %d subsystems, want 6", got)
	}
}

func TestSystemExecuteRejectsUnknownName(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	if _, err := e.SystemExecute(context.Background(), "nonexistent", nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("got %v, want ErrInvalidArgument", err)
	}
}

func TestSystemExecuteSearchReindexes(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	result, err := e.SystemExecute(context.Background(), "search", nil)
	if err != nil {
		t.Fatalf("SystemExecute(search): %v", err)
	}
	if !result.Success {
		t.Fatalf("got success=false, want true for a reindex with nothing indexed")
	}
}

func TestSystemExecuteDecayPreviewDefaultsAction(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	result, err := e.SystemExecute(context.Background(), "decay", map[string]any{})
	if err != nil {
		t.Fatalf("SystemExecute(decay): %v", err)
	}
	if !result.Success {
		t.Fatalf("got success=false for a preview with nothing to archive")
	}
}

func TestSystemExecuteRetrievalRequiresQuery(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	if _, err := e.SystemExecute(context.Background(), "retrieval", map[string]any{}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("got %v, want ErrInvalidArgument", err)
	}
}

func TestSystemExecuteHealthRunsCheckers(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	result, err := e.SystemExecute(context.Background(), "health", nil)
	if err != nil {
		t.Fatalf("SystemExecute(health): %v", err)
	}
	if !result.Success {
		t.Fatalf("got success=false, want true for a fresh, consistent store")
	}
}

func TestSystemStatusAggregatesAllSubsystemsByDefault(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	status, err := e.SystemStatus("")
	if err != nil {
		t.Fatalf("SystemStatus: %v", err)
	}
	for _, name := range e.SystemList() {
		if _, ok := status[name]; !ok {
			t.Fatalf("got status map %v missing %q", status, name)
		}
	}
}

func TestSystemStatusRecordsSnapshotFile(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	if _, err := e.SystemStatus(""); err != nil {
		t.Fatalf("SystemStatus: %v", err)
	}
	if _, err := os.Stat(e.layout.SystemState()); err != nil {
		t.Fatalf("expected system-state snapshot file, got: %v", err)
	}
}

func TestSystemStatusSingleName(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	status, err := e.SystemStatus("search")
	if err != nil {
		t.Fatalf("SystemStatus: %v", err)
	}
	if len(status) != 1 {
		t.Fatalf("got %d entries, want exactly 1 for a single named subsystem", len(status))
	}
}

func TestSystemStatusUnknownName(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	if _, err := e.SystemStatus("nonexistent"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("got %v, want ErrInvalidArgument", err)
	}
}

func TestWorkspaceSyncWithNoPrimaryFileConfigured(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))
	t.Setenv("OPEN_PALACE_WORKSPACE", t.TempDir())

	if _, err := e.WorkspaceSync(); err != nil {
		t.Fatalf("WorkspaceSync: %v", err)
	}
}
