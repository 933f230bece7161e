// Package paths defines the on-disk layout of a store directory and the
// helpers for deriving file paths within it. Nothing in this package touches
// the filesystem beyond MkdirAll convenience helpers; callers own I/O.
package paths

import (
	"os"
	"path/filepath"
	"time"
)

// Layout roots every path at a single store directory.
type Layout struct {
	Root string
}

// New returns a Layout rooted at root.
func New(root string) Layout {
	return Layout{Root: root}
}

// Default returns the default store directory, a .open-palace folder under
// the user's home directory.
func Default() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".open-palace"), nil
}

func (l Layout) Config() string          { return filepath.Join(l.Root, "config") }
func (l Layout) VersionControl() string  { return filepath.Join(l.Root, ".version-control") }
func (l Layout) IndexDir() string        { return filepath.Join(l.Root, "index") }
func (l Layout) IndexMaster() string     { return filepath.Join(l.IndexDir(), "master") }
func (l Layout) IndexWeeklyDir() string  { return filepath.Join(l.IndexDir(), "weekly") }
func (l Layout) IndexMonthlyDir() string { return filepath.Join(l.IndexDir(), "monthly") }

func (l Layout) IndexWeekly(yearWeek string) string {
	return filepath.Join(l.IndexWeeklyDir(), yearWeek+".md")
}

func (l Layout) IndexMonthly(yearMonth string) string {
	return filepath.Join(l.IndexMonthlyDir(), yearMonth+".md")
}

func (l Layout) EntitiesDir() string { return filepath.Join(l.Root, "entities") }
func (l Layout) Entity(id string) string {
	return filepath.Join(l.EntitiesDir(), id)
}

func (l Layout) ComponentsDir() string { return filepath.Join(l.Root, "components") }
func (l Layout) ComponentTypeDir(typ string) string {
	return filepath.Join(l.ComponentsDir(), typ)
}
func (l Layout) Component(typ, key string) string {
	return filepath.Join(l.ComponentTypeDir(typ), key)
}
func (l Layout) ComponentSummary(typ, key string) string {
	return filepath.Join(l.Component(typ, key), "summary")
}
func (l Layout) ComponentChangelog(typ, key string) string {
	return filepath.Join(l.Component(typ, key), "changelog")
}
func (l Layout) ComponentRawDir(typ, key string) string {
	return filepath.Join(l.Component(typ, key), "raw")
}

func (l Layout) ChangelogsDir() string { return filepath.Join(l.Root, "changelogs") }
func (l Layout) GlobalChangelog(yearMonth string) string {
	return filepath.Join(l.ChangelogsDir(), yearMonth)
}

func (l Layout) ScratchDir() string { return filepath.Join(l.Root, "scratch") }
func (l Layout) ScratchDay(isoDate string) string {
	return filepath.Join(l.ScratchDir(), isoDate)
}

func (l Layout) Snapshot() string { return filepath.Join(l.Root, "snapshot") }

func (l Layout) SyncDir() string          { return filepath.Join(l.Root, "sync") }
func (l Layout) SyncState() string        { return filepath.Join(l.SyncDir(), "sync-state") }
func (l Layout) SyncWorkspaceBackupDir() string {
	return filepath.Join(l.SyncDir(), "workspace-backup")
}
func (l Layout) SyncWorkspaceBackup(name string) string {
	return filepath.Join(l.SyncWorkspaceBackupDir(), name)
}

func (l Layout) ArchiveComponentsDir() string {
	return filepath.Join(l.Root, "archive", "components")
}
func (l Layout) ArchivedChangelog(typ, key, yearMonth string) string {
	return filepath.Join(l.ArchiveComponentsDir(), typ, key, "changelog-archived-"+yearMonth+".yaml")
}

func (l Layout) IngestState() string    { return filepath.Join(l.Root, "ingest-state") }
func (l Layout) DecayState() string     { return filepath.Join(l.Root, "decay-state") }
func (l Layout) AccessLog() string      { return filepath.Join(l.Root, "access-log") }
func (l Layout) SummarizerState() string { return filepath.Join(l.Root, "summarizer-state") }
func (l Layout) SystemState() string    { return filepath.Join(l.Root, "system-state") }

// EnsureSkeleton returns the set of directories that must exist for a fresh
// store. Callers MkdirAll each of these; paths has no filesystem side effects
// of its own.
func (l Layout) EnsureSkeleton() []string {
	return []string{
		l.Root,
		l.VersionControl(),
		l.IndexDir(),
		l.IndexWeeklyDir(),
		l.IndexMonthlyDir(),
		l.EntitiesDir(),
		l.ComponentsDir(),
		l.ChangelogsDir(),
		l.ScratchDir(),
		l.SyncDir(),
		l.SyncWorkspaceBackupDir(),
		l.ArchiveComponentsDir(),
	}
}

// ScratchToday returns the scratch file path for now's date. The caller
// supplies now, so paths itself never reads the clock.
func (l Layout) ScratchToday(now time.Time) string {
	return l.ScratchDay(now.UTC().Format("2006-01-02"))
}
