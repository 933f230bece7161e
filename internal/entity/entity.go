// Package entity is the identity registry: agent/user identities with an
// append-only evolution log and a mapping to watched workspace files, one
// JSON document per entity.
package entity

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// HostMapping names a workspace host and the files watched there for a
// given entity. Primary marks the mapping workspace sync mirrors
// bidirectionally when more than one host is registered.
type HostMapping struct {
	Host         string   `json:"host"`
	AgentID      string   `json:"agent_id"`
	WatchedFiles []string `json:"watched_files"`
	Primary      bool     `json:"primary"`
}

// EvolutionEntry records one change to an entity's soul_content or a
// free-standing note about the entity's evolution.
type EvolutionEntry struct {
	Time          string `json:"time"`
	Source        string `json:"source"`
	ChangeSummary string `json:"change_summary"`
	Ref           string `json:"ref,omitempty"`
}

// Entity is one identity record.
type Entity struct {
	EntityID     string                 `json:"entity_id"`
	DisplayName  string                 `json:"display_name"`
	Description  string                 `json:"description"`
	SoulContent  string                 `json:"soul_content"`
	EvolutionLog []EvolutionEntry       `json:"evolution_log"`
	HostMappings map[string]HostMapping `json:"host_mappings"`
}

// PrimaryMapping returns the mapping marked primary, or the only mapping if
// exactly one exists, or ok=false if none is unambiguous.
func (e *Entity) PrimaryMapping() (HostMapping, bool) {
	if len(e.HostMappings) == 1 {
		for _, m := range e.HostMappings {
			return m, true
		}
	}
	for _, m := range e.HostMappings {
		if m.Primary {
			return m, true
		}
	}
	return HostMapping{}, false
}

// Sources of evolution log entries, used verbatim by the operations below.
const (
	SourceCreate     = "mp.entity.create"
	SourceUpdateSoul = "mp.entity.update_soul"
)

// Store is the persistence interface for entities.
type Store interface {
	List() ([]string, error)
	Get(entityID string) (*Entity, error)
	Save(*Entity) error
}

// FileStore implements Store with one JSON file per entity under a root
// directory.
type FileStore struct {
	Root string
}

// NewFileStore returns a FileStore rooted at root (the "entities/" directory).
func NewFileStore(root string) *FileStore {
	return &FileStore{Root: root}
}

func (fs *FileStore) path(entityID string) string {
	return filepath.Join(fs.Root, entityID)
}

// List enumerates registered entity IDs.
func (fs *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(fs.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("entity: reading %s: %w", fs.Root, err)
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

// Get reads a single entity, or nil if it does not exist.
func (fs *FileStore) Get(entityID string) (*Entity, error) {
	data, err := os.ReadFile(fs.path(entityID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("entity: reading %q: %w", entityID, err)
	}
	var ent Entity
	if err := json.Unmarshal(data, &ent); err != nil {
		return nil, fmt.Errorf("entity: parsing %q: %w", entityID, err)
	}
	return &ent, nil
}

// Save writes ent as indented JSON.
func (fs *FileStore) Save(ent *Entity) error {
	if err := os.MkdirAll(fs.Root, 0o755); err != nil {
		return fmt.Errorf("entity: creating %s: %w", fs.Root, err)
	}
	data, err := json.MarshalIndent(ent, "", "  ")
	if err != nil {
		return fmt.Errorf("entity: marshaling %q: %w", ent.EntityID, err)
	}
	return os.WriteFile(fs.path(ent.EntityID), data, 0o644)
}

// Registry implements entity_* operations over a Store. It does not emit
// events itself — callers (internal/engine) do so after a successful write,
// keeping the ordering "storage first, workspace mirror second, event last",
// since the mirror step lives outside this package (internal/workspace).
type Registry struct {
	store Store
	now   func() time.Time
}

// New returns a Registry over store. now defaults to time.Now.
func New(store Store, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{store: store, now: now}
}

// List enumerates entity IDs.
func (r *Registry) List() ([]string, error) {
	return r.store.List()
}

// Get returns the full entity record, or nil if absent.
func (r *Registry) Get(entityID string) (*Entity, error) {
	return r.store.Get(entityID)
}

// GetSoul returns only soul_content, or ok=false if the entity does not
// exist.
func (r *Registry) GetSoul(entityID string) (string, bool, error) {
	ent, err := r.store.Get(entityID)
	if err != nil {
		return "", false, err
	}
	if ent == nil {
		return "", false, nil
	}
	return ent.SoulContent, true, nil
}

// Create creates or overwrites an entity record. If initialSoul is non-empty,
// one evolution entry with source SourceCreate is appended.
func (r *Registry) Create(entityID, displayName, description, initialSoul string) (*Entity, error) {
	ent := &Entity{
		EntityID:     entityID,
		DisplayName:  displayName,
		Description:  description,
		SoulContent:  initialSoul,
		HostMappings: map[string]HostMapping{},
	}
	if initialSoul != "" {
		ent.EvolutionLog = append(ent.EvolutionLog, EvolutionEntry{
			Time:          r.now().UTC().Format(time.RFC3339),
			Source:        SourceCreate,
			ChangeSummary: "initial soul content set",
		})
	}
	if err := r.store.Save(ent); err != nil {
		return nil, err
	}
	return ent, nil
}

// ErrNotFound is returned by operations requiring an existing entity.
var ErrNotFound = fmt.Errorf("entity: not found")

// UpdateSoul replaces soul_content and appends an evolution entry whose
// summary is reason. It does not perform the workspace mirror step itself —
// callers orchestrate that separately.
func (r *Registry) UpdateSoul(entityID, content, reason string) (*Entity, error) {
	ent, err := r.store.Get(entityID)
	if err != nil {
		return nil, err
	}
	if ent == nil {
		return nil, ErrNotFound
	}
	ent.SoulContent = content
	ent.EvolutionLog = append(ent.EvolutionLog, EvolutionEntry{
		Time:          r.now().UTC().Format(time.RFC3339),
		Source:        SourceUpdateSoul,
		ChangeSummary: reason,
	})
	if err := r.store.Save(ent); err != nil {
		return nil, err
	}
	return ent, nil
}

// LogEvolution appends a bare evolution entry without touching soul_content.
func (r *Registry) LogEvolution(entityID, changeSummary, source string) error {
	ent, err := r.store.Get(entityID)
	if err != nil {
		return err
	}
	if ent == nil {
		return ErrNotFound
	}
	ent.EvolutionLog = append(ent.EvolutionLog, EvolutionEntry{
		Time:          r.now().UTC().Format(time.RFC3339),
		Source:        source,
		ChangeSummary: changeSummary,
	})
	return r.store.Save(ent)
}
