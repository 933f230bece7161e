// Package snapshot is the singleton overwrite-only working-state document:
// every save replaces the file in full, inheriting any field the caller
// omits from the previous snapshot.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TaskStatus is one of active/blocked/waiting.
type TaskStatus string

const (
	TaskActive  TaskStatus = "active"
	TaskBlocked TaskStatus = "blocked"
	TaskWaiting TaskStatus = "waiting"
)

// Priority is one of high/medium/low.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Task is one active task tracked in the snapshot.
type Task struct {
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	Priority    Priority   `json:"priority,omitempty"`
	Blockers    []string   `json:"blockers,omitempty"`
}

// Document is the snapshot singleton.
type Document struct {
	UpdatedAt       string         `json:"updated_at"`
	UpdatedBy       string         `json:"updated_by,omitempty"`
	CurrentFocus    string         `json:"current_focus"`
	ActiveTasks     []Task         `json:"active_tasks,omitempty"`
	Blockers        []string       `json:"blockers,omitempty"`
	RecentDecisions []string       `json:"recent_decisions,omitempty"`
	ContextNotes    string         `json:"context_notes,omitempty"`
	SessionMeta     map[string]any `json:"session_meta,omitempty"`
}

// Input is the parameter set for Save. CurrentFocus is required; every
// other field is inherited from the prior snapshot unless it was set
// through its With* method, which marks it as explicitly supplied, so
// passing an empty value through With* clears that field.
type Input struct {
	UpdatedBy       string
	CurrentFocus    string
	ActiveTasks     []Task
	Blockers        []string
	RecentDecisions []string
	ContextNotes    string
	SessionMeta     map[string]any

	hasActiveTasks     bool
	hasBlockers        bool
	hasRecentDecisions bool
	hasContextNotes    bool
	hasSessionMeta     bool
	hasUpdatedBy       bool
}

// WithActiveTasks marks ActiveTasks as explicitly supplied, even if empty.
func (i Input) WithActiveTasks(v []Task) Input { i.ActiveTasks = v; i.hasActiveTasks = true; return i }

// WithBlockers marks Blockers as explicitly supplied.
func (i Input) WithBlockers(v []string) Input { i.Blockers = v; i.hasBlockers = true; return i }

// WithRecentDecisions marks RecentDecisions as explicitly supplied.
func (i Input) WithRecentDecisions(v []string) Input {
	i.RecentDecisions = v
	i.hasRecentDecisions = true
	return i
}

// WithContextNotes marks ContextNotes as explicitly supplied.
func (i Input) WithContextNotes(v string) Input { i.ContextNotes = v; i.hasContextNotes = true; return i }

// WithSessionMeta marks SessionMeta as explicitly supplied.
func (i Input) WithSessionMeta(v map[string]any) Input {
	i.SessionMeta = v
	i.hasSessionMeta = true
	return i
}

// WithUpdatedBy marks UpdatedBy as explicitly supplied.
func (i Input) WithUpdatedBy(v string) Input { i.UpdatedBy = v; i.hasUpdatedBy = true; return i }

// ErrMissingFocus is returned by Save when CurrentFocus is empty.
var ErrMissingFocus = fmt.Errorf("snapshot: current_focus is required")

// Store implements snapshot_save/snapshot_read over a single file.
type Store struct {
	Path string
	now  func() time.Time
}

// New returns a Store backed by path. now defaults to time.Now.
func New(path string, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{Path: path, now: now}
}

// Read returns the current snapshot, or nil if none has been saved yet.
func (s *Store) Read() (*Document, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("snapshot: reading: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("snapshot: parsing: %w", err)
	}
	return &doc, nil
}

// Save overwrites the snapshot, inheriting any field in in that was not
// marked as explicitly supplied from the previous snapshot.
func (s *Store) Save(in Input) (*Document, error) {
	if in.CurrentFocus == "" {
		return nil, ErrMissingFocus
	}

	prev, err := s.Read()
	if err != nil {
		return nil, err
	}
	if prev == nil {
		prev = &Document{}
	}

	doc := &Document{
		UpdatedAt:    s.now().UTC().Format(time.RFC3339),
		UpdatedBy:    prev.UpdatedBy,
		CurrentFocus: in.CurrentFocus,
	}
	if in.hasUpdatedBy {
		doc.UpdatedBy = in.UpdatedBy
	}

	doc.ActiveTasks = prev.ActiveTasks
	if in.hasActiveTasks {
		doc.ActiveTasks = in.ActiveTasks
	}
	doc.Blockers = prev.Blockers
	if in.hasBlockers {
		doc.Blockers = in.Blockers
	}
	doc.RecentDecisions = prev.RecentDecisions
	if in.hasRecentDecisions {
		doc.RecentDecisions = in.RecentDecisions
	}
	doc.ContextNotes = prev.ContextNotes
	if in.hasContextNotes {
		doc.ContextNotes = in.ContextNotes
	}
	doc.SessionMeta = prev.SessionMeta
	if in.hasSessionMeta {
		doc.SessionMeta = in.SessionMeta
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return nil, fmt.Errorf("snapshot: creating directory: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("snapshot: marshaling: %w", err)
	}
	if err := os.WriteFile(s.Path, data, 0o644); err != nil {
		return nil, fmt.Errorf("snapshot: writing: %w", err)
	}
	return doc, nil
}
