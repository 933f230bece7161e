// Package vcs is the append-only commit log over a store directory. It
// shells out to the git binary rather than linking a Go git implementation —
// nothing in the retrieval pack links one, and every repo that touches
// version control from Go does it the same way: os/exec against the git
// binary already on PATH.
package vcs

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// Backer wraps a single git working tree rooted at Dir. It is not safe
// against concurrent external mutation of Dir — the store is exclusively
// owned by one process for the run's lifetime, so a single handle is reused.
type Backer struct {
	Dir string
}

// New returns a Backer for the store rooted at dir. It does not touch the
// filesystem; call Init to ensure dir is a git repository.
func New(dir string) *Backer {
	return &Backer{Dir: dir}
}

// Init creates a git repository at Dir if one does not already exist. It is
// safe to call on an already-initialized directory.
func (b *Backer) Init() error {
	if b.isRepo() {
		return nil
	}
	if _, err := b.run("init"); err != nil {
		return fmt.Errorf("vcs: init: %w", err)
	}
	return nil
}

// Commit stages every change under Dir, untracked files included, and records a commit with the
// given message. If there is nothing to commit, Commit returns ("", nil)
// rather than an error — an empty working tree is not a failure.
func (b *Backer) Commit(message string) (ref string, err error) {
	if _, err := b.run("add", "-A"); err != nil {
		return "", fmt.Errorf("vcs: add: %w", err)
	}

	dirty, err := b.run("status", "--porcelain")
	if err != nil {
		return "", fmt.Errorf("vcs: status: %w", err)
	}
	if strings.TrimSpace(dirty) == "" {
		return "", nil
	}

	if _, err := b.run("commit", "-m", message); err != nil {
		return "", fmt.Errorf("vcs: commit: %w", err)
	}

	out, err := b.run("rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("vcs: rev-parse: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Clean reports whether the working tree has no uncommitted changes, for the
// health check's version-control category.
func (b *Backer) Clean() (bool, error) {
	out, err := b.run("status", "--porcelain")
	if err != nil {
		return false, fmt.Errorf("vcs: status: %w", err)
	}
	return strings.TrimSpace(out) == "", nil
}

func (b *Backer) isRepo() bool {
	_, err := b.run("rev-parse", "--git-dir")
	return err == nil
}

func (b *Backer) run(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = b.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
