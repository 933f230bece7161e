package vcs

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func newTestBacker(t *testing.T) *Backer {
	t.Helper()
	dir := t.TempDir()
	b := New(dir)
	if err := b.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	// Give commits a deterministic author so CI environments without a
	// global git identity configured can still commit.
	for _, kv := range [][2]string{{"user.email", "openpalace@example.com"}, {"user.name", "Open Palace"}} {
		cmd := exec.Command("git", "config", kv[0], kv[1])
		cmd.Dir = dir
		if err := cmd.Run(); err != nil {
			t.Fatalf("git config %s: %v", kv[0], err)
		}
	}
	return b
}

func TestInitIsIdempotent(t *testing.T) {
	b := newTestBacker(t)
	if err := b.Init(); err != nil {
		t.Fatalf("second init: %v", err)
	}
}

func TestCommitStagesAndRecords(t *testing.T) {
	b := newTestBacker(t)

	if err := os.WriteFile(filepath.Join(b.Dir, "config"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	ref, err := b.Commit("config: initialize")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if ref == "" {
		t.Fatal("expected a non-empty commit ref")
	}

	clean, err := b.Clean()
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	if !clean {
		t.Fatal("expected clean working tree after commit")
	}
}

func TestCommitWithNoChangesReturnsNoRef(t *testing.T) {
	b := newTestBacker(t)

	ref, err := b.Commit("nothing to commit")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if ref != "" {
		t.Fatalf("expected empty ref for no-op commit, got %q", ref)
	}
}
