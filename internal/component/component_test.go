package component

import (
	"testing"
	"time"

	"github.com/open-palace/openpalace/internal/paths"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	l := paths.New(t.TempDir())
	return New(l)
}

func TestCreateAndGetSummary(t *testing.T) {
	s := newTestStore(t)
	if err := s.Create(TypeProjects, "alpha", "# Alpha\n"); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := s.GetSummary(TypeProjects, "alpha")
	if err != nil {
		t.Fatalf("get summary: %v", err)
	}
	if got != "# Alpha\n" {
		t.Fatalf("got %q", got)
	}
}

func TestCreateIsIdempotentOverwritingSummary(t *testing.T) {
	s := newTestStore(t)
	if err := s.Create(TypeProjects, "alpha", "v1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Create(TypeProjects, "alpha", "v2"); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetSummary(TypeProjects, "alpha")
	if err != nil {
		t.Fatal(err)
	}
	if got != "v2" {
		t.Fatalf("got %q, want v2", got)
	}
}

func TestGetSummaryMissingReturnsNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetSummary(TypeProjects, "ghost"); err != ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestUpdateSummaryMissingReturnsNotFound(t *testing.T) {
	s := newTestStore(t)
	if err := s.UpdateSummary(TypeProjects, "ghost", "x"); err != ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestListFiltersByType(t *testing.T) {
	s := newTestStore(t)
	if err := s.Create(TypeProjects, "alpha", "x"); err != nil {
		t.Fatal(err)
	}
	if err := s.Create(TypeSkills, "go", "x"); err != nil {
		t.Fatal(err)
	}

	all, err := s.List("")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d scopes, want 2: %v", len(all), all)
	}

	projects, err := s.List(TypeProjects)
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 1 || projects[0] != "projects/alpha" {
		t.Fatalf("got %v, want [projects/alpha]", projects)
	}
}

func TestLoadAndUnload(t *testing.T) {
	s := newTestStore(t)
	if err := s.Create(TypeProjects, "alpha", "x"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(TypeProjects, "alpha"); err != nil {
		t.Fatal(err)
	}
	if !s.Unload(TypeProjects, "alpha") {
		t.Fatal("expected unload to report it was previously loaded")
	}
	if s.Unload(TypeProjects, "alpha") {
		t.Fatal("expected a second unload to report false")
	}
}

func TestVerifySummaryAddsFrontMatter(t *testing.T) {
	s := newTestStore(t)
	if err := s.Create(TypeProjects, "alpha", "# Alpha\n"); err != nil {
		t.Fatal(err)
	}
	today := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	if err := s.VerifySummary(TypeProjects, "alpha", today); err != nil {
		t.Fatalf("verify: %v", err)
	}
	got, err := s.GetSummary(TypeProjects, "alpha")
	if err != nil {
		t.Fatal(err)
	}
	if got != "---\nlast_verified: 2026-02-14\nconfidence: high\n---\n\n# Alpha\n" {
		t.Fatalf("unexpected content: %q", got)
	}
}

func TestVerifySummaryTwiceReplacesFrontMatter(t *testing.T) {
	s := newTestStore(t)
	if err := s.Create(TypeProjects, "alpha", "# Alpha\n"); err != nil {
		t.Fatal(err)
	}
	day1 := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	if err := s.VerifySummary(TypeProjects, "alpha", day1); err != nil {
		t.Fatal(err)
	}
	if err := s.VerifySummary(TypeProjects, "alpha", day2); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetSummary(TypeProjects, "alpha")
	if err != nil {
		t.Fatal(err)
	}
	if got != "---\nlast_verified: 2026-02-15\nconfidence: high\n---\n\n# Alpha\n" {
		t.Fatalf("unexpected content: %q", got)
	}
}

func TestParseScope(t *testing.T) {
	typ, key, ok := ParseScope("projects/alpha")
	if !ok || typ != "projects" || key != "alpha" {
		t.Fatalf("got typ=%q key=%q ok=%v", typ, key, ok)
	}
	if _, _, ok := ParseScope("not-a-scope"); ok {
		t.Fatal("expected ok=false for a malformed scope")
	}
}

func TestRawManifestEmptyForFreshComponent(t *testing.T) {
	s := newTestStore(t)
	if err := s.Create(TypeProjects, "alpha", "x"); err != nil {
		t.Fatal(err)
	}
	files, err := s.RawManifest(TypeProjects, "alpha")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 0 {
		t.Fatalf("got %d files, want 0", len(files))
	}
}
