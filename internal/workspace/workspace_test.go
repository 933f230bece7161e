package workspace

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/open-palace/openpalace/internal/entity"
)

type fakeBackup struct{ dir string }

func (b fakeBackup) SyncWorkspaceBackup(name string) string { return filepath.Join(b.dir, name) }

type fakeSoul struct {
	calls []string
}

func (f *fakeSoul) UpdateSoul(entityID, content, reason string) (*entity.Entity, error) {
	f.calls = append(f.calls, entityID+":"+content)
	return &entity.Entity{EntityID: entityID}, nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSyncSkipsUnchangedFiles(t *testing.T) {
	root := t.TempDir()
	storeDir := t.TempDir()
	writeFile(t, filepath.Join(root, "identity.md"), "hello world")

	store := NewStore(filepath.Join(storeDir, "sync-state"))
	backup := fakeBackup{dir: t.TempDir()}
	soul := &fakeSoul{}
	now := func() time.Time { return time.Date(2026, 8, 6, 0, 0, 0, 0, time.UTC) }
	s := New(store, backup, soul, now)

	files := []WatchedFile{{Name: "identity.md", Primary: true, EntityID: "ent_main"}}

	first, err := s.Sync(root, files)
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if len(first.Changed) != 1 {
		t.Fatalf("got %v, want one changed file on first sync", first.Changed)
	}
	if len(soul.calls) != 1 {
		t.Fatalf("got %d soul updates, want 1", len(soul.calls))
	}

	second, err := s.Sync(root, files)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if len(second.Changed) != 0 {
		t.Fatalf("got %v, want no changes on unchanged content", second.Changed)
	}
	if len(soul.calls) != 1 {
		t.Fatalf("got %d soul updates, want still 1 after unchanged sync", len(soul.calls))
	}
}

func TestSyncDetectsChangedContent(t *testing.T) {
	root := t.TempDir()
	storeDir := t.TempDir()
	path := filepath.Join(root, "identity.md")
	writeFile(t, path, "version one")

	store := NewStore(filepath.Join(storeDir, "sync-state"))
	backup := fakeBackup{dir: t.TempDir()}
	soul := &fakeSoul{}
	s := New(store, backup, soul, func() time.Time { return time.Now() })
	files := []WatchedFile{{Name: "identity.md", Primary: true, EntityID: "ent_main"}}

	if _, err := s.Sync(root, files); err != nil {
		t.Fatalf("first sync: %v", err)
	}

	writeFile(t, path, "version two")
	result, err := s.Sync(root, files)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if len(result.Changed) != 1 {
		t.Fatalf("got %v, want one changed file", result.Changed)
	}
	if len(soul.calls) != 2 {
		t.Fatalf("got %d soul updates, want 2", len(soul.calls))
	}
}

func TestSyncNonFatalOnMissingFile(t *testing.T) {
	root := t.TempDir()
	storeDir := t.TempDir()
	store := NewStore(filepath.Join(storeDir, "sync-state"))
	backup := fakeBackup{dir: t.TempDir()}
	s := New(store, backup, nil, nil)

	result, err := s.Sync(root, []WatchedFile{{Name: "missing.md"}})
	if err != nil {
		t.Fatalf("sync should not return an error for a missing file, got %v", err)
	}
	if _, ok := result.Errors["missing.md"]; !ok {
		t.Fatalf("got %+v, want an error entry for missing.md", result.Errors)
	}
}

func TestSyncSkipsSoulUpdateWhenNotPrimary(t *testing.T) {
	root := t.TempDir()
	storeDir := t.TempDir()
	writeFile(t, filepath.Join(root, "notes.md"), "just notes")

	store := NewStore(filepath.Join(storeDir, "sync-state"))
	backup := fakeBackup{dir: t.TempDir()}
	soul := &fakeSoul{}
	s := New(store, backup, soul, func() time.Time { return time.Now() })

	if _, err := s.Sync(root, []WatchedFile{{Name: "notes.md"}}); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(soul.calls) != 0 {
		t.Fatal("expected no soul update for a non-primary file")
	}
}

func TestWriteSoulToWorkspaceUpdatesHash(t *testing.T) {
	root := t.TempDir()
	storeDir := t.TempDir()
	store := NewStore(filepath.Join(storeDir, "sync-state"))
	backup := fakeBackup{dir: t.TempDir()}
	s := New(store, backup, nil, func() time.Time { return time.Now() })

	if err := s.WriteSoulToWorkspace(root, "identity.md", "new content"); err != nil {
		t.Fatalf("write soul: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, "identity.md"))
	if err != nil {
		t.Fatalf("reading written file: %v", err)
	}
	if string(data) != "new content" {
		t.Fatalf("got %q", data)
	}

	st, err := store.Load()
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	if _, ok := st["identity.md"]; !ok {
		t.Fatal("expected sync state to record identity.md")
	}
}

func TestResolveRootPrefersExplicit(t *testing.T) {
	got := ResolveRoot("/explicit/path", nil)
	if got != "/explicit/path" {
		t.Fatalf("got %q", got)
	}
}

func TestResolveRootWalksCandidates(t *testing.T) {
	dir := t.TempDir()
	got := ResolveRoot("", []Candidate{
		FixedCandidate("/does/not/exist"),
		FixedCandidate(dir),
	})
	if got != dir {
		t.Fatalf("got %q, want %q", got, dir)
	}
}

func TestSummaryMessageListsAllChangedFiles(t *testing.T) {
	msg := SummaryMessage([]string{"a.md", "b.md"})
	if msg != "workspace sync: a.md, b.md" {
		t.Fatalf("got %q", msg)
	}
}

func TestSummaryMessageEmptyWhenNoChanges(t *testing.T) {
	if msg := SummaryMessage(nil); msg != "" {
		t.Fatalf("got %q, want empty", msg)
	}
}
