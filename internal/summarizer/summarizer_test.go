package summarizer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/open-palace/openpalace/internal/changelog"
	"github.com/open-palace/openpalace/internal/component"
	"github.com/open-palace/openpalace/internal/memindex"
)

type fakeComponents struct {
	keys      map[string][]string
	summaries map[string]string
}

func (f *fakeComponents) List(typ string) ([]string, error) { return f.keys[typ], nil }
func (f *fakeComponents) GetSummary(typ, key string) (string, error) {
	return f.summaries[component.Scope(typ, key)], nil
}
func (f *fakeComponents) UpdateSummary(typ, key, content string) error {
	f.summaries[component.Scope(typ, key)] = content
	return nil
}

type fakeChangelogs struct {
	entries map[string][]changelog.Entry
}

func (f *fakeChangelogs) RecentN(typ, key string, n int) ([]changelog.Entry, error) {
	return f.entries[component.Scope(typ, key)], nil
}

func newFixture(t *testing.T) (*Pipeline, *fakeComponents, *fakeChangelogs, string) {
	dir := t.TempDir()
	comps := &fakeComponents{
		keys:      map[string][]string{component.TypeProjects: {"alpha"}},
		summaries: map[string]string{"projects/alpha": "# alpha\n\nold summary"},
	}
	cls := &fakeChangelogs{entries: map[string][]changelog.Entry{
		"projects/alpha": {
			{ID: "op_0806_001", Time: "2026-08-06T10:00:00Z", Summary: "did thing one"},
			{ID: "op_0806_002", Time: "2026-08-06T11:00:00Z", Summary: "did thing two"},
		},
	}}

	idx := memindex.New(filepath.Join(dir, "index.md"))
	if err := idx.Init(); err != nil {
		t.Fatalf("init index: %v", err)
	}

	store := NewStore(filepath.Join(dir, "state.json"))
	weeklyDir := filepath.Join(dir, "weekly")
	monthlyDir := filepath.Join(dir, "monthly")
	if err := os.MkdirAll(weeklyDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(monthlyDir, 0o755); err != nil {
		t.Fatal(err)
	}

	now := func() time.Time { return time.Date(2026, 8, 6, 12, 0, 0, 0, time.UTC) }

	ask := func(ctx context.Context, sys, user string) (string, error) {
		return "updated summary content", nil
	}

	p := New(store, comps, cls, idx, ask, now, weeklyDir, monthlyDir)
	return p, comps, cls, dir
}

func TestRunDigestUpdatesSummaryAndWatermark(t *testing.T) {
	p, comps, _, dir := newFixture(t)

	result, err := p.RunDigest(context.Background(), "")
	if err != nil {
		t.Fatalf("run digest: %v", err)
	}
	if !result.Success {
		t.Fatalf("got %+v, want success", result)
	}
	if comps.summaries["projects/alpha"] != "updated summary content" {
		t.Fatalf("summary not updated: %q", comps.summaries["projects/alpha"])
	}

	st, err := NewStore(filepath.Join(dir, "state.json")).Load()
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	wm := st.LastDigest["projects/alpha"]
	if wm.IsZero() {
		t.Fatal("expected a non-zero watermark after digesting")
	}
}

func TestRunDigestSkipsComponentsWithNoFreshEntries(t *testing.T) {
	p, comps, _, dir := newFixture(t)
	if _, err := p.RunDigest(context.Background(), ""); err != nil {
		t.Fatalf("first digest: %v", err)
	}
	comps.summaries["projects/alpha"] = "sentinel"

	if _, err := p.RunDigest(context.Background(), ""); err != nil {
		t.Fatalf("second digest: %v", err)
	}
	if comps.summaries["projects/alpha"] != "sentinel" {
		t.Fatal("expected digest to skip a component with no entries past its watermark")
	}
	_ = dir
}

func TestSafeWatermarkIsMinimumOverActiveComponents(t *testing.T) {
	st := newState()
	st.EverHadEntry["projects/alpha"] = true
	st.EverHadEntry["projects/beta"] = true
	st.LastDigest["projects/alpha"] = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	// beta has activity but was never digested: its watermark is the zero
	// time, which must dominate the minimum.

	wm, ok := st.SafeWatermark()
	if !ok {
		t.Fatal("expected a watermark to be found")
	}
	if !wm.IsZero() {
		t.Fatalf("got %v, want zero time (undigested component forces no-archive)", wm)
	}
}

func TestSafeWatermarkAbsentWithNoActivity(t *testing.T) {
	st := newState()
	if _, ok := st.SafeWatermark(); ok {
		t.Fatal("expected no watermark when nothing has ever had an entry")
	}
}

func TestRunSynthesisWritesWeeklyReport(t *testing.T) {
	p, _, _, dir := newFixture(t)
	result, err := p.RunSynthesis(context.Background())
	if err != nil {
		t.Fatalf("run synthesis: %v", err)
	}
	if !result.Success || len(result.Written) != 1 {
		t.Fatalf("got %+v", result)
	}
	data, err := os.ReadFile(filepath.Join(dir, "weekly", "2026-W32.md"))
	if err != nil {
		t.Fatalf("reading weekly report: %v", err)
	}
	if string(data) != "updated summary content" {
		t.Fatalf("got %q", data)
	}
}

func TestRunReviewRebuildsIndexAndWritesNarrative(t *testing.T) {
	p, _, _, dir := newFixture(t)
	p.ask = func(ctx context.Context, sys, user string) (string, error) {
		return "```\n[P] alpha | ★ rebuilt\n```\n" + sentinel + "\nThis month went well.", nil
	}

	result, err := p.RunReview(context.Background())
	if err != nil {
		t.Fatalf("run review: %v", err)
	}
	if !result.Success {
		t.Fatalf("got %+v", result)
	}

	data, err := os.ReadFile(filepath.Join(dir, "monthly", "2026-08.md"))
	if err != nil {
		t.Fatalf("reading narrative: %v", err)
	}
	if string(data) != "This month went well." {
		t.Fatalf("got %q", data)
	}
}

func TestRunReviewFailsOnMissingSentinel(t *testing.T) {
	p, _, _, _ := newFixture(t)
	p.ask = func(ctx context.Context, sys, user string) (string, error) {
		return "no sentinel here", nil
	}
	if _, err := p.RunReview(context.Background()); err == nil {
		t.Fatal("expected an error when the sentinel marker is missing")
	}
}

func TestRunReviewFallsBackToHeuristicRebuildWhenAskFails(t *testing.T) {
	p, _, _, dir := newFixture(t)
	p.ask = func(ctx context.Context, sys, user string) (string, error) {
		return "", errors.New("model unavailable")
	}

	result, err := p.RunReview(context.Background())
	if err != nil {
		t.Fatalf("run review: %v", err)
	}
	if !result.Success {
		t.Fatalf("got %+v", result)
	}

	l0, err := os.ReadFile(filepath.Join(dir, "index.md"))
	if err != nil {
		t.Fatalf("reading index: %v", err)
	}
	if !strings.Contains(string(l0), "[P] alpha | ★ active") {
		t.Fatalf("expected mechanical rebuild of index, got %q", l0)
	}
}
