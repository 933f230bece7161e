package paths

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLayoutHelpers(t *testing.T) {
	l := New("/store")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"config", l.Config(), "/store/config"},
		{"index master", l.IndexMaster(), "/store/index/master"},
		{"index weekly", l.IndexWeekly("2026-W05"), "/store/index/weekly/2026-W05.md"},
		{"index monthly", l.IndexMonthly("2026-02"), "/store/index/monthly/2026-02.md"},
		{"entity", l.Entity("nova"), "/store/entities/nova"},
		{"component", l.Component("projects", "alpha"), "/store/components/projects/alpha"},
		{"component summary", l.ComponentSummary("projects", "alpha"), "/store/components/projects/alpha/summary"},
		{"component changelog", l.ComponentChangelog("projects", "alpha"), "/store/components/projects/alpha/changelog"},
		{"component raw", l.ComponentRawDir("projects", "alpha"), "/store/components/projects/alpha/raw"},
		{"global changelog", l.GlobalChangelog("2026-02"), "/store/changelogs/2026-02"},
		{"scratch day", l.ScratchDay("2026-02-14"), "/store/scratch/2026-02-14"},
		{"snapshot", l.Snapshot(), "/store/snapshot"},
		{"sync state", l.SyncState(), "/store/sync/sync-state"},
		{"archived changelog", l.ArchivedChangelog("knowledge", "go", "2026-02"), "/store/archive/components/knowledge/go/changelog-archived-2026-02.yaml"},
	}

	for _, tc := range tests {
		if filepath.ToSlash(tc.got) != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, tc.got, tc.want)
		}
	}
}

func TestEnsureSkeletonIncludesRoot(t *testing.T) {
	l := New("/store")
	dirs := l.EnsureSkeleton()
	found := false
	for _, d := range dirs {
		if d == l.Root {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected root directory in skeleton: %v", dirs)
	}
}

func TestScratchToday(t *testing.T) {
	l := New("/store")
	now := time.Date(2026, 2, 14, 3, 0, 0, 0, time.UTC)
	want := "/store/scratch/2026-02-14"
	if got := filepath.ToSlash(l.ScratchToday(now)); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
