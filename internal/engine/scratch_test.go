package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/open-palace/openpalace/internal/scratch"
)

func TestScratchWriteRejectsEmptyContent(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	if _, err := e.ScratchWrite(scratch.WriteInput{}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("got %v, want ErrInvalidArgument", err)
	}
}

func TestScratchReadDefaultsToExcludingPromoted(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	entry, err := e.ScratchWrite(scratch.WriteInput{Content: "noticed something"})
	if err != nil {
		t.Fatalf("ScratchWrite: %v", err)
	}
	if err := e.ComponentCreate("projects", "alpha", "# Alpha\n"); err != nil {
		t.Fatalf("ComponentCreate: %v", err)
	}
	if _, err := e.ScratchPromote(entry.ID, "projects/alpha"); err != nil {
		t.Fatalf("ScratchPromote: %v", err)
	}

	// includePromotedSet=false: caller did not set ExcludePromoted, so the
	// engine's default-by-convention applies and the promoted entry is hidden.
	defaultRead, err := e.ScratchRead(scratch.ReadInput{}, false)
	if err != nil {
		t.Fatalf("ScratchRead: %v", err)
	}
	if len(defaultRead) != 0 {
		t.Fatalf("got %d entries under the default read, want 0 after promotion", len(defaultRead))
	}

	// includePromotedSet=true: the caller explicitly asked to include
	// promoted entries, so the engine respects ExcludePromoted=false as-is.
	explicitRead, err := e.ScratchRead(scratch.ReadInput{ExcludePromoted: false}, true)
	if err != nil {
		t.Fatalf("ScratchRead: %v", err)
	}
	if len(explicitRead) != 1 {
		t.Fatalf("got %d entries when explicitly including promoted, want 1", len(explicitRead))
	}
}

func TestScratchPromoteAlreadyPromoted(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))
	entry, err := e.ScratchWrite(scratch.WriteInput{Content: "x"})
	if err != nil {
		t.Fatalf("ScratchWrite: %v", err)
	}
	if err := e.ComponentCreate("projects", "alpha", "x"); err != nil {
		t.Fatalf("ComponentCreate: %v", err)
	}
	if _, err := e.ScratchPromote(entry.ID, "projects/alpha"); err != nil {
		t.Fatalf("first ScratchPromote: %v", err)
	}

	if _, err := e.ScratchPromote(entry.ID, "projects/alpha"); !errors.Is(err, ErrAlreadyPromoted) {
		t.Fatalf("got %v, want ErrAlreadyPromoted", err)
	}
}

func TestScratchPromoteNotFound(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	if _, err := e.ScratchPromote("s_0101_999", "projects/alpha"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestScratchStatsCountsWrites(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))
	if _, err := e.ScratchWrite(scratch.WriteInput{Content: "one"}); err != nil {
		t.Fatalf("ScratchWrite: %v", err)
	}
	if _, err := e.ScratchWrite(scratch.WriteInput{Content: "two"}); err != nil {
		t.Fatalf("ScratchWrite: %v", err)
	}

	stats, err := e.ScratchStats()
	if err != nil {
		t.Fatalf("ScratchStats: %v", err)
	}
	if stats.Today != 2 {
		t.Fatalf("got today=%d, want 2", stats.Today)
	}
}
