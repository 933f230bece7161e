// Package component is the typed knowledge-module store: each component has
// a type (projects, knowledge, skills, relationships), a unique key within
// that type, a markdown summary, a changelog, and a raw/ directory of
// opaque L2 files.
package component

import (
	"fmt"
	"os"
	"sort"
	"time"
)

// Types recognized for the "type" field.
const (
	TypeProjects      = "projects"
	TypeKnowledge     = "knowledge"
	TypeSkills        = "skills"
	TypeRelationships = "relationships"
)

// Scope returns the canonical "<type>/<key>" external scope string.
func Scope(typ, key string) string {
	return typ + "/" + key
}

// RawFile describes one entry of a component's raw/ manifest.
type RawFile struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Layout is the minimal path surface component needs; internal/paths.Layout
// satisfies it.
type Layout interface {
	Component(typ, key string) string
	ComponentTypeDir(typ string) string
	ComponentSummary(typ, key string) string
	ComponentChangelog(typ, key string) string
	ComponentRawDir(typ, key string) string
}

// Store implements component_* file operations over a Layout.
type Store struct {
	layout Layout
	loaded map[string]bool
}

// New returns a Store rooted at layout.
func New(layout Layout) *Store {
	return &Store{layout: layout, loaded: map[string]bool{}}
}

// ErrNotFound is returned when a component's summary does not exist.
var ErrNotFound = fmt.Errorf("component: not found")

// List enumerates "<type>/<key>" scopes, optionally filtered to one type.
func (s *Store) List(typ string) ([]string, error) {
	types := []string{TypeProjects, TypeKnowledge, TypeSkills, TypeRelationships}
	if typ != "" {
		types = []string{typ}
	}
	var scopes []string
	for _, t := range types {
		entries, err := os.ReadDir(s.layout.ComponentTypeDir(t))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("component: listing %s: %w", t, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				scopes = append(scopes, Scope(t, e.Name()))
			}
		}
	}
	sort.Strings(scopes)
	return scopes, nil
}

// Create creates <type>/<key>/{summary, changelog, raw/} with initialSummary.
// Re-creating an existing component overwrites its summary — effectively
// idempotent against re-creation.
func (s *Store) Create(typ, key, initialSummary string) error {
	dir := s.layout.Component(typ, key)
	if err := os.MkdirAll(s.layout.ComponentRawDir(typ, key), 0o755); err != nil {
		return fmt.Errorf("component: creating %s: %w", dir, err)
	}
	if err := os.WriteFile(s.layout.ComponentSummary(typ, key), []byte(initialSummary), 0o644); err != nil {
		return fmt.Errorf("component: writing summary for %s: %w", Scope(typ, key), err)
	}
	changelogPath := s.layout.ComponentChangelog(typ, key)
	if _, err := os.Stat(changelogPath); os.IsNotExist(err) {
		if err := os.WriteFile(changelogPath, []byte("[]"), 0o644); err != nil {
			return fmt.Errorf("component: initializing changelog for %s: %w", Scope(typ, key), err)
		}
	}
	return nil
}

// Exists reports whether a component's summary file exists.
func (s *Store) Exists(typ, key string) bool {
	_, err := os.Stat(s.layout.ComponentSummary(typ, key))
	return err == nil
}

// GetSummary reads a component's summary content.
func (s *Store) GetSummary(typ, key string) (string, error) {
	data, err := os.ReadFile(s.layout.ComponentSummary(typ, key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("component: reading summary for %s: %w", Scope(typ, key), err)
	}
	return string(data), nil
}

// UpdateSummary rewrites a component's summary.
func (s *Store) UpdateSummary(typ, key, content string) error {
	if !s.Exists(typ, key) {
		return ErrNotFound
	}
	return os.WriteFile(s.layout.ComponentSummary(typ, key), []byte(content), 0o644)
}

// VerifySummary rewrites front matter marking the summary as verified today
// with high confidence.
func (s *Store) VerifySummary(typ, key string, today time.Time) error {
	content, err := s.GetSummary(typ, key)
	if err != nil {
		return err
	}
	front := fmt.Sprintf("---\nlast_verified: %s\nconfidence: high\n---\n\n", today.UTC().Format("2006-01-02"))
	stripped := stripFrontMatter(content)
	return os.WriteFile(s.layout.ComponentSummary(typ, key), []byte(front+stripped), 0o644)
}

func stripFrontMatter(content string) string {
	const marker = "---\n"
	if len(content) < len(marker) || content[:len(marker)] != marker {
		return content
	}
	rest := content[len(marker):]
	end := indexOf(rest, "---\n")
	if end < 0 {
		return content
	}
	body := rest[end+len(marker):]
	for len(body) > 0 && body[0] == '\n' {
		body = body[1:]
	}
	return body
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

// Load marks scope as in-process loaded and returns its summary. Callers
// combine it with the changelog engine's newest-10 query for the full
// component_load response.
func (s *Store) Load(typ, key string) (string, error) {
	summary, err := s.GetSummary(typ, key)
	if err != nil {
		return "", err
	}
	s.loaded[Scope(typ, key)] = true
	return summary, nil
}

// Unload clears the in-process loaded flag, returning true iff it was set.
func (s *Store) Unload(typ, key string) bool {
	scope := Scope(typ, key)
	was := s.loaded[scope]
	delete(s.loaded, scope)
	return was
}

// RawManifest lists the raw/ directory contents for a component.
func (s *Store) RawManifest(typ, key string) ([]RawFile, error) {
	dir := s.layout.ComponentRawDir(typ, key)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("component: listing raw files for %s: %w", Scope(typ, key), err)
	}
	var files []RawFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, RawFile{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	return files, nil
}

// StalenessGap reports how far the component's changelog file has drifted
// ahead of its summary file's modtime — positive means stale, zero or
// negative means the summary already covers it. The per-component staleness
// category of the health check flags anything with gap > 0.
func (s *Store) StalenessGap(typ, key string) (time.Duration, error) {
	summaryInfo, err := os.Stat(s.layout.ComponentSummary(typ, key))
	if err != nil {
		return 0, fmt.Errorf("component: stat summary for %s: %w", Scope(typ, key), err)
	}
	changelogInfo, err := os.Stat(s.layout.ComponentChangelog(typ, key))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("component: stat changelog for %s: %w", Scope(typ, key), err)
	}
	return changelogInfo.ModTime().Sub(summaryInfo.ModTime()), nil
}

// ParseScope splits "<type>/<key>" into its two parts. ok is false if scope
// is not well formed.
func ParseScope(scope string) (typ, key string, ok bool) {
	idx := indexOfByte(scope, '/')
	if idx < 0 {
		return "", "", false
	}
	return scope[:idx], scope[idx+1:], true
}

func indexOfByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}
