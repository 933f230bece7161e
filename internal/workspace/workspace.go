// Package workspace mirrors a small set of watched files between a host
// workspace directory and the store, keyed by content hash so unchanged
// files never trigger a write.
package workspace

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/open-palace/openpalace/internal/entity"
)

// FileState is the persisted hash/time for one watched file.
type FileState struct {
	SHA256    string    `json:"sha256"`
	UpdatedAt time.Time `json:"updated_at"`
}

// State is the full persisted sync-state document, keyed by file name.
type State map[string]FileState

// Store persists State as JSON at a fixed path.
type Store struct {
	Path string
}

// NewStore returns a Store backed by path.
func NewStore(path string) *Store { return &Store{Path: path} }

func (s *Store) Load() (State, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, nil
		}
		return nil, fmt.Errorf("workspace: reading sync state: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("workspace: decoding sync state: %w", err)
	}
	if st == nil {
		st = State{}
	}
	return st, nil
}

func (s *Store) Save(st State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("workspace: encoding sync state: %w", err)
	}
	return os.WriteFile(s.Path, data, 0o644)
}

// Candidate is one place the workspace root might live, checked in order.
type Candidate func() (string, bool)

// ResolveRoot returns the first candidate path that exists, or "" if none
// do. explicit, when non-empty, always wins without a filesystem check.
func ResolveRoot(explicit string, candidates []Candidate) string {
	if explicit != "" {
		return explicit
	}
	for _, c := range candidates {
		if path, ok := c(); ok {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				return path
			}
		}
	}
	return ""
}

// EnvCandidate checks an environment variable for a workspace path.
func EnvCandidate(name string) Candidate {
	return func() (string, bool) {
		v := os.Getenv(name)
		return v, v != ""
	}
}

// FixedCandidate always offers path.
func FixedCandidate(path string) Candidate {
	return func() (string, bool) { return path, path != "" }
}

// EntitySoulWriter is the subset of internal/entity.Registry the sync needs
// to mirror a workspace file into the primary entity's soul content.
type EntitySoulWriter interface {
	UpdateSoul(entityID, content, reason string) (*entity.Entity, error)
}

// BackupLayout is the path surface for workspace backup copies.
type BackupLayout interface {
	SyncWorkspaceBackup(name string) string
}

// WatchedFile is one file tracked for a given entity mapping.
type WatchedFile struct {
	Name      string // file name relative to the workspace root
	Primary   bool   // true iff this is the primary identity file
	EntityID  string // owning entity, for primary-file soul mirroring
}

// SyncResult reports what Sync changed.
type SyncResult struct {
	Changed []string
	Errors  map[string]string
}

// Syncer implements the startup workspace sync and the reverse
// write_soul_to_workspace path.
type Syncer struct {
	store   *Store
	backup  BackupLayout
	soul    EntitySoulWriter
	now     func() time.Time
}

// New returns a Syncer.
func New(store *Store, backup BackupLayout, soul EntitySoulWriter, now func() time.Time) *Syncer {
	if now == nil {
		now = time.Now
	}
	return &Syncer{store: store, backup: backup, soul: soul, now: now}
}

func hashFile(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Sync reads every watched file under root, compares its hash against the
// persisted state, and for any that differ: backs up a copy into the store,
// mirrors primary identity files into soul content, and persists the new
// hash. A per-file failure is recorded but does not abort the rest of the
// sync — a per-file sync failure is never fatal to the whole operation.
func (s *Syncer) Sync(root string, files []WatchedFile) (SyncResult, error) {
	st, err := s.store.Load()
	if err != nil {
		return SyncResult{}, err
	}

	result := SyncResult{Errors: map[string]string{}}
	now := s.now()

	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(root, f.Name))
		if err != nil {
			result.Errors[f.Name] = err.Error()
			continue
		}
		newHash := hashFile(data)
		if prior, ok := st[f.Name]; ok && prior.SHA256 == newHash {
			continue
		}

		if err := os.WriteFile(s.backup.SyncWorkspaceBackup(f.Name), data, 0o644); err != nil {
			result.Errors[f.Name] = err.Error()
			continue
		}

		if f.Primary && f.EntityID != "" && s.soul != nil {
			if _, err := s.soul.UpdateSoul(f.EntityID, string(data), "workspace sync"); err != nil {
				result.Errors[f.Name] = err.Error()
				continue
			}
		}

		st[f.Name] = FileState{SHA256: newHash, UpdatedAt: now}
		result.Changed = append(result.Changed, f.Name)
	}

	if err := s.store.Save(st); err != nil {
		return result, err
	}
	return result, nil
}

// WriteSoulToWorkspace mirrors content back into the primary identity file
// on disk and updates its persisted hash. It only acts for the file mapped
// as primary for entityID; callers resolve that mapping before calling.
func (s *Syncer) WriteSoulToWorkspace(root, fileName, content string) error {
	if err := os.WriteFile(filepath.Join(root, fileName), []byte(content), 0o644); err != nil {
		return fmt.Errorf("workspace: writing %s: %w", fileName, err)
	}

	st, err := s.store.Load()
	if err != nil {
		return err
	}
	st[fileName] = FileState{SHA256: hashFile([]byte(content)), UpdatedAt: s.now()}
	return s.store.Save(st)
}

// SummaryMessage builds the single commit message listing every changed
// file name.
func SummaryMessage(changed []string) string {
	if len(changed) == 0 {
		return ""
	}
	msg := "workspace sync: "
	for i, name := range changed {
		if i > 0 {
			msg += ", "
		}
		msg += name
	}
	return msg
}
