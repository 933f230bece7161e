// Package scratch is the append-only per-day working-notes store: cheap to
// write, filtered out of default reads once promoted to a component scope.
// IDs are "s_MMDD_NNN", recovered the same way changelog IDs are (see
// internal/idgen), scoped to each day's own file rather than a month log.
package scratch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Entry is one scratch note.
type Entry struct {
	ID          string   `json:"id"`
	Time        string   `json:"time"`
	Content     string   `json:"content"`
	Tags        []string `json:"tags,omitempty"`
	Source      string   `json:"source,omitempty"`
	PromotedTo  string   `json:"promoted_to,omitempty"`
}

// WriteInput is the parameter set for Write.
type WriteInput struct {
	Content string
	Tags    []string
	Source  string // defaults to "agent"
}

// ReadInput is the parameter set for Read.
type ReadInput struct {
	Date             string // YYYY-MM-DD, defaults to today
	Tags             []string
	IncludeYesterday bool
	Limit            int
	ExcludePromoted  bool // Read applies it as given; engine.ScratchRead sets it unless promoted entries are asked for
}

// ErrAlreadyPromoted is returned by Promote on an entry that already has
// promoted_to set.
var ErrAlreadyPromoted = fmt.Errorf("scratch: already promoted")

// ErrNotFound is returned when a scratch ID cannot be located in today's or
// yesterday's file.
var ErrNotFound = fmt.Errorf("scratch: not found")

// Layout is the path surface scratch needs.
type Layout interface {
	ScratchDay(isoDate string) string
}

// Store implements scratch_write/read/promote/stats.
type Store struct {
	layout   Layout
	generate func(prefix string) (string, error)
	now      func() time.Time
}

// New returns a Store. generate mints IDs (typically an idgen.Generator's
// Generate bound to prefix "s"); now defaults to time.Now.
func New(layout Layout, generate func(prefix string) (string, error), now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{layout: layout, generate: generate, now: now}
}

const prefix = "s"

func (s *Store) today() string     { return s.now().UTC().Format("2006-01-02") }
func (s *Store) yesterday() string { return s.now().UTC().AddDate(0, 0, -1).Format("2006-01-02") }

// Write assigns an ID and timestamp and appends to today's per-day file.
func (s *Store) Write(in WriteInput) (Entry, error) {
	id, err := s.generate(prefix)
	if err != nil {
		return Entry{}, fmt.Errorf("scratch: generating id: %w", err)
	}
	source := in.Source
	if source == "" {
		source = "agent"
	}
	entry := Entry{
		ID:      id,
		Time:    s.now().UTC().Format(time.RFC3339),
		Content: in.Content,
		Tags:    in.Tags,
		Source:  source,
	}

	path := s.layout.ScratchDay(s.today())
	entries, err := readEntries(path)
	if err != nil {
		return Entry{}, fmt.Errorf("scratch: reading today's file: %w", err)
	}
	entries = append(entries, entry)
	if err := writeEntries(path, entries); err != nil {
		return Entry{}, fmt.Errorf("scratch: writing today's file: %w", err)
	}
	return entry, nil
}

// Read returns entries matching in, newest first.
func (s *Store) Read(in ReadInput) ([]Entry, error) {
	date := in.Date
	if date == "" {
		date = s.today()
	}

	entries, err := readEntries(s.layout.ScratchDay(date))
	if err != nil {
		return nil, fmt.Errorf("scratch: reading %s: %w", date, err)
	}

	if in.IncludeYesterday {
		yEntries, err := readEntries(s.layout.ScratchDay(yesterdayOf(date)))
		if err != nil {
			return nil, fmt.Errorf("scratch: reading yesterday of %s: %w", date, err)
		}
		entries = append(entries, yEntries...)
	}

	var filtered []Entry
	for _, e := range entries {
		if in.ExcludePromoted && e.PromotedTo != "" {
			continue
		}
		if len(in.Tags) > 0 && !anyTagMatches(e.Tags, in.Tags) {
			continue
		}
		filtered = append(filtered, e)
	}

	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Time > filtered[j].Time })

	if in.Limit > 0 && len(filtered) > in.Limit {
		filtered = filtered[:in.Limit]
	}
	return filtered, nil
}

// Promote locates id in today's or yesterday's file and sets promoted_to.
func (s *Store) Promote(id, scope string) (Entry, error) {
	for _, date := range []string{s.today(), s.yesterday()} {
		path := s.layout.ScratchDay(date)
		entries, err := readEntries(path)
		if err != nil {
			return Entry{}, fmt.Errorf("scratch: reading %s: %w", date, err)
		}
		for i, e := range entries {
			if e.ID != id {
				continue
			}
			if e.PromotedTo != "" {
				return Entry{}, ErrAlreadyPromoted
			}
			entries[i].PromotedTo = scope
			if err := writeEntries(path, entries); err != nil {
				return Entry{}, fmt.Errorf("scratch: writing %s: %w", date, err)
			}
			return entries[i], nil
		}
	}
	return Entry{}, ErrNotFound
}

// Stats returns counts for today, yesterday, and unpromoted across the two.
type Stats struct {
	Today      int `json:"today"`
	Yesterday  int `json:"yesterday"`
	Unpromoted int `json:"unpromoted"`
}

// StatsCount computes today/yesterday/unpromoted counts.
func (s *Store) StatsCount() (Stats, error) {
	todayEntries, err := readEntries(s.layout.ScratchDay(s.today()))
	if err != nil {
		return Stats{}, fmt.Errorf("scratch: reading today for stats: %w", err)
	}
	yesterdayEntries, err := readEntries(s.layout.ScratchDay(s.yesterday()))
	if err != nil {
		return Stats{}, fmt.Errorf("scratch: reading yesterday for stats: %w", err)
	}

	unpromoted := 0
	for _, e := range append(append([]Entry{}, todayEntries...), yesterdayEntries...) {
		if e.PromotedTo == "" {
			unpromoted++
		}
	}

	return Stats{Today: len(todayEntries), Yesterday: len(yesterdayEntries), Unpromoted: unpromoted}, nil
}

// RecoverCounter implements idgen.Recoverer against today's scratch file.
func (s *Store) RecoverCounter(p, mmdd string) (int, error) {
	path := s.layout.ScratchDay(s.today())
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("scratch: reading for recovery: %w", err)
	}
	needle := fmt.Sprintf(`"%s_%s_`, p, mmdd)
	max := 0
	text := string(data)
	for i := 0; i+len(needle)+3 <= len(text); i++ {
		if text[i:i+len(needle)] == needle {
			var n int
			if _, err := fmt.Sscanf(text[i+len(needle):i+len(needle)+3], "%d", &n); err == nil && n > max {
				max = n
			}
		}
	}
	return max, nil
}

func anyTagMatches(entryTags, want []string) bool {
	for _, et := range entryTags {
		for _, w := range want {
			if et == w {
				return true
			}
		}
	}
	return false
}

func yesterdayOf(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, -1).Format("2006-01-02")
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
