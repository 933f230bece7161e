// Package changelog is the dual-write engine for operation and decision
// entries: every entry is appended to its owning component's changelog (when
// the scope resolves) and always to the month-bucketed global changelog, with
// ID assignment delegated to internal/idgen.
package changelog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Type distinguishes an operation entry from a decision entry.
type Type string

const (
	TypeOperation Type = "operation"
	TypeDecision  Type = "decision"
)

// Alternative is one rejected option recorded alongside a decision.
type Alternative struct {
	Option          string `json:"option"`
	RejectedBecause string `json:"rejected_because"`
}

// Entry is one changelog record.
type Entry struct {
	ID           string        `json:"id"`
	Time         string        `json:"time"`
	Agent        string        `json:"agent,omitempty"`
	Type         Type          `json:"type"`
	Scope        string        `json:"scope"`
	Action       string        `json:"action,omitempty"`
	Target       string        `json:"target,omitempty"`
	Decision     string        `json:"decision,omitempty"`
	Rationale    string        `json:"rationale,omitempty"`
	Alternatives []Alternative `json:"alternatives,omitempty"`
	Summary      string        `json:"summary"`
	Details      string        `json:"details,omitempty"`
	CommitRef    string        `json:"commit_ref,omitempty"`
}

// Input is the parameter set for Record.
type Input struct {
	Scope        string
	Type         Type
	Agent        string
	Action       string
	Target       string
	Decision     string
	Rationale    string
	Alternatives []Alternative
	Summary      string
	Details      string
	Validate     bool
}

// Query filters a read of either a component changelog or the global log.
type Query struct {
	Scope     string // empty reads this month's global log
	Type      Type
	Agent     string
	From, To  string // ISO timestamps, inclusive bounds; empty = unbounded
	Limit     int    // 0 defaults to 20
}

// Layout is the path surface changelog needs.
type Layout interface {
	ComponentChangelog(typ, key string) string
	GlobalChangelog(yearMonth string) string
}

// Engine implements changelog_record/changelog_query.
type Engine struct {
	layout    Layout
	exists    func(typ, key string) bool
	generate  func(prefix string) (string, error)
	now       func() time.Time
}

// New returns an Engine. exists reports whether a component scope resolves
// (typically component.Store.Exists); generate mints IDs (typically an
// idgen.Generator bound to prefix "op"/"dec" via its own caller); now
// defaults to time.Now.
func New(layout Layout, exists func(typ, key string) bool, generate func(prefix string) (string, error), now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{layout: layout, exists: exists, generate: generate, now: now}
}

// prefixFor returns the ID prefix for a changelog type.
func prefixFor(t Type) string {
	if t == TypeDecision {
		return "dec"
	}
	return "op"
}

// Record assigns an ID, dual-writes the entry, and returns it. Validation
// (§4.10) is the caller's responsibility — Record does not read
// Input.Validate; the validator call happens in internal/engine, which has
// both the changelog engine and the validator.
func (e *Engine) Record(in Input) (Entry, error) {
	id, err := e.generate(prefixFor(in.Type))
	if err != nil {
		return Entry{}, fmt.Errorf("changelog: generating id: %w", err)
	}

	entry := Entry{
		ID:           id,
		Time:         e.now().UTC().Format(time.RFC3339),
		Agent:        in.Agent,
		Type:         in.Type,
		Scope:        in.Scope,
		Action:       in.Action,
		Target:       in.Target,
		Decision:     in.Decision,
		Rationale:    in.Rationale,
		Alternatives: in.Alternatives,
		Summary:      in.Summary,
		Details:      in.Details,
	}

	if typ, key, ok := parseScope(in.Scope); ok && e.exists != nil && e.exists(typ, key) {
		if err := e.appendTo(e.layout.ComponentChangelog(typ, key), entry); err != nil {
			return Entry{}, fmt.Errorf("changelog: appending to component %s: %w", in.Scope, err)
		}
	}

	yearMonth := e.now().UTC().Format("2006-01")
	if err := e.appendTo(e.layout.GlobalChangelog(yearMonth), entry); err != nil {
		return Entry{}, fmt.Errorf("changelog: appending to global log: %w", err)
	}

	return entry, nil
}

// Query reads and filters entries from either a component's changelog or
// the current month's global log.
func (e *Engine) Query(q Query) ([]Entry, error) {
	var path string
	if q.Scope != "" {
		typ, key, ok := parseScope(q.Scope)
		if !ok {
			return nil, fmt.Errorf("changelog: malformed scope %q", q.Scope)
		}
		path = e.layout.ComponentChangelog(typ, key)
	} else {
		path = e.layout.GlobalChangelog(e.now().UTC().Format("2006-01"))
	}

	entries, err := readEntries(path)
	if err != nil {
		return nil, fmt.Errorf("changelog: reading %s: %w", path, err)
	}

	var filtered []Entry
	for _, en := range entries {
		if q.Type != "" && en.Type != q.Type {
			continue
		}
		if q.Agent != "" && en.Agent != q.Agent {
			continue
		}
		if q.From != "" && en.Time < q.From {
			continue
		}
		if q.To != "" && en.Time > q.To {
			continue
		}
		filtered = append(filtered, en)
	}

	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Time > filtered[j].Time })

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

// RecentN returns the newest n entries for a component scope, sorted by
// time descending — the shape component_load needs for recent_changelog.
func (e *Engine) RecentN(typ, key string, n int) ([]Entry, error) {
	entries, err := readEntries(e.layout.ComponentChangelog(typ, key))
	if err != nil {
		return nil, fmt.Errorf("changelog: reading component %s/%s: %w", typ, key, err)
	}
	// Entries are stored oldest-first; reversing before a stable sort keeps
	// later-appended entries ahead of earlier ones with the same timestamp.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Time > entries[j].Time })
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

// AllEntries returns every entry of a component's changelog, unsorted, for
// callers (the decay engine) that need the full set rather than a capped
// recent window.
func (e *Engine) AllEntries(typ, key string) ([]Entry, error) {
	entries, err := readEntries(e.layout.ComponentChangelog(typ, key))
	if err != nil {
		return nil, fmt.Errorf("changelog: reading component %s/%s: %w", typ, key, err)
	}
	return entries, nil
}

// Archive removes the entries identified by ids from a component's live
// changelog and returns the removed entries (in no particular order). It is
// the decay engine's sole mutator of changelog state.
func (e *Engine) Archive(typ, key string, ids []string) ([]Entry, error) {
	path := e.layout.ComponentChangelog(typ, key)
	entries, err := readEntries(path)
	if err != nil {
		return nil, fmt.Errorf("changelog: reading component %s/%s for archive: %w", typ, key, err)
	}

	remove := make(map[string]bool, len(ids))
	for _, id := range ids {
		remove[id] = true
	}

	var kept, removed []Entry
	for _, en := range entries {
		if remove[en.ID] {
			removed = append(removed, en)
		} else {
			kept = append(kept, en)
		}
	}

	if err := writeEntries(path, kept); err != nil {
		return nil, fmt.Errorf("changelog: rewriting component %s/%s after archive: %w", typ, key, err)
	}
	return removed, nil
}

// RecoverCounter implements idgen.Recoverer against the global month log for
// today's recovery regex.
func (e *Engine) RecoverCounter(prefix, mmdd string) (int, error) {
	yearMonth := e.now().UTC().Format("2006-01")
	data, err := os.ReadFile(e.layout.GlobalChangelog(yearMonth))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("changelog: reading global log for recovery: %w", err)
	}
	return maxSuffixInJSON(string(data), prefix, mmdd), nil
}

func (e *Engine) appendTo(path string, entry Entry) error {
	entries, err := readEntries(path)
	if err != nil {
		return err
	}
	entries = append(entries, entry)
	return writeEntries(path, entries)
}

func readEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return entries, nil
}

func writeEntries(path string, entries []Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func parseScope(scope string) (typ, key string, ok bool) {
	for i := 0; i < len(scope); i++ {
		if scope[i] == '/' {
			return scope[:i], scope[i+1:], true
		}
	}
	return "", "", false
}

// maxSuffixInJSON finds the highest NNN used by prefix_mmdd_NNN ids inside a
// JSON changelog document without a full structural scan — the
// id field is both exact and small in count, so a text scan over the raw
// bytes is sufficient and avoids decoding entries twice.
func maxSuffixInJSON(text, prefix, mmdd string) int {
	needle := fmt.Sprintf(`"%s_%s_`, prefix, mmdd)
	max := 0
	for i := 0; i+len(needle)+3 <= len(text); i++ {
		if text[i:i+len(needle)] == needle {
			start := i + len(needle)
			if start+3 <= len(text) {
				var n int
				if _, err := fmt.Sscanf(text[start:start+3], "%d", &n); err == nil && n > max {
					max = n
				}
			}
		}
	}
	return max
}
