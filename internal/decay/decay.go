// Package decay implements the temperature-based archival engine: it scores
// changelog entries by age, access frequency, and reference frequency, and
// moves cold ones into per-component YAML archive files — the one place in
// this store where the on-disk document is YAML rather than JSON or markdown.
package decay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/open-palace/openpalace/internal/changelog"
	"github.com/open-palace/openpalace/internal/component"
)

// AccessEntry tracks how often and how recently a key was "touched."
type AccessEntry struct {
	Count        int       `json:"count"`
	LastAccessed time.Time `json:"last_accessed"`
}

// AccessLog is a flat key->AccessEntry map, keyed by "entry:<id>" or
// "component:<scope>".
type AccessLog map[string]AccessEntry

// AccessLogStore persists an AccessLog as JSON at a fixed path.
type AccessLogStore struct {
	Path string
}

// NewAccessLogStore returns an AccessLogStore backed by path.
func NewAccessLogStore(path string) *AccessLogStore { return &AccessLogStore{Path: path} }

// Load returns the persisted log, or an empty one if absent.
func (s *AccessLogStore) Load() (AccessLog, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return AccessLog{}, nil
		}
		return nil, fmt.Errorf("decay: reading access log: %w", err)
	}
	var log AccessLog
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("decay: decoding access log: %w", err)
	}
	if log == nil {
		log = AccessLog{}
	}
	return log, nil
}

// Save persists log.
func (s *AccessLogStore) Save(log AccessLog) error {
	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return fmt.Errorf("decay: encoding access log: %w", err)
	}
	return os.WriteFile(s.Path, data, 0o644)
}

// UpdateAccessLog increments count and sets last_accessed for key.
func (s *AccessLogStore) UpdateAccessLog(key string, now time.Time) error {
	log, err := s.Load()
	if err != nil {
		return err
	}
	entry := log[key]
	entry.Count++
	entry.LastAccessed = now
	log[key] = entry
	return s.Save(log)
}

// ArchiveRecord is one completed run() appended to decay state history.
type ArchiveRecord struct {
	Time      time.Time `json:"time"`
	Component string    `json:"component"`
	Count     int       `json:"count"`
	Threshold float64   `json:"threshold"`
}

// defaultHistoryLimit caps ArchiveRecord history when Config.HistoryLimit
// is unset (zero), the same default config.Document.Decay.HistoryLimit ships.
const defaultHistoryLimit = 50

// State is decay's persisted cross-run bookkeeping.
type State struct {
	TotalArchived int             `json:"total_archived"`
	LastRun       time.Time       `json:"last_run"`
	Records       []ArchiveRecord `json:"records"`
}

// StateStore persists State as JSON at a fixed path.
type StateStore struct {
	Path string
}

// NewStateStore returns a StateStore backed by path.
func NewStateStore(path string) *StateStore { return &StateStore{Path: path} }

func (s *StateStore) Load() (State, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("decay: reading state: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("decay: decoding state: %w", err)
	}
	return st, nil
}

func (s *StateStore) Save(st State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("decay: encoding state: %w", err)
	}
	return os.WriteFile(s.Path, data, 0o644)
}

func (st *State) record(r ArchiveRecord, limit int) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	st.Records = append(st.Records, r)
	if len(st.Records) > limit {
		st.Records = st.Records[len(st.Records)-limit:]
	}
}

// Config is the subset of internal/config.Decay the engine needs, passed by
// value so a caller can snapshot the live config document before each run.
type Config struct {
	MaxAgeDays       int
	DefaultThreshold float64
	PinnedEntries    []string
	ExcludedScopes   []string
	HistoryLimit     int
}

// Components enumerates tracked component scopes.
type Components interface {
	List(typ string) ([]string, error)
}

// Changelogs is the subset of internal/changelog.Engine the engine needs.
type Changelogs interface {
	AllEntries(typ, key string) ([]changelog.Entry, error)
	Archive(typ, key string, ids []string) ([]changelog.Entry, error)
}

// ArchiveLayout is the path surface for per-component archive files.
type ArchiveLayout interface {
	ArchivedChangelog(typ, key, yearMonth string) string
}

// SafeWatermark reports the cross-system contract with the summarizer: the
// time before which entries are safe to archive, and whether one exists at
// all (false means "nothing is safe to archive").
type SafeWatermark func() (time.Time, bool)

// Breakdown explains one candidate's computed temperature.
type Breakdown struct {
	AgeBase        float64 `json:"age_base"`
	AccessBonus    float64 `json:"access_bonus"`
	ReferenceBonus float64 `json:"reference_bonus"`
	PinBonus       float64 `json:"pin_bonus,omitempty"`
	Temperature    float64 `json:"temperature"`
	Age            string  `json:"age,omitempty"`
}

// Candidate is one entry eligible for archival below a threshold.
type Candidate struct {
	Entry       changelog.Entry
	Scope       string
	Breakdown   Breakdown
}

// Engine implements preview/run/pin/unpin/update_access_log.
type Engine struct {
	access     *AccessLogStore
	state      *StateStore
	components Components
	changelogs Changelogs
	archive    ArchiveLayout
	watermark  SafeWatermark
	now        func() time.Time
}

// New returns an Engine.
func New(access *AccessLogStore, state *StateStore, components Components, changelogs Changelogs, archive ArchiveLayout, watermark SafeWatermark, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{access: access, state: state, components: components, changelogs: changelogs, archive: archive, watermark: watermark, now: now}
}

func ageBase(ageDays float64) float64 {
	switch {
	case ageDays < 7:
		return 100
	case ageDays < 30:
		return 80
	case ageDays < 60:
		return 50
	case ageDays < 90:
		return 20
	default:
		return 5
	}
}

// Temperature computes the breakdown for one entry against cfg and log.
func Temperature(entry changelog.Entry, scope string, cfg Config, log AccessLog, now time.Time) Breakdown {
	for _, pinned := range cfg.PinnedEntries {
		if pinned == entry.ID {
			return Breakdown{PinBonus: 999, Temperature: 999}
		}
	}

	entryTime, err := time.Parse(time.RFC3339, entry.Time)
	ageDays := 0.0
	age := ""
	if err == nil {
		ageDays = now.Sub(entryTime).Hours() / 24
		age = humanize.RelTime(entryTime, now, "old", "")
	}

	base := ageBase(ageDays)
	accessCount := log["entry:"+entry.ID].Count
	accessBonus := float64(10 * accessCount)
	if accessBonus > 50 {
		accessBonus = 50
	}
	referenceBonus := 0.0
	if log["component:"+scope].Count > 0 {
		referenceBonus = 20
	}

	return Breakdown{
		AgeBase:        base,
		AccessBonus:    accessBonus,
		ReferenceBonus: referenceBonus,
		Temperature:    base + accessBonus + referenceBonus,
		Age:            age,
	}
}

func isExcluded(scope string, excluded []string) bool {
	for _, e := range excluded {
		if e == scope {
			return true
		}
	}
	return false
}

// candidates enumerates every eligible entry across all components below
// threshold, using cfg.DefaultThreshold when threshold is nil.
func (e *Engine) candidates(cfg Config, threshold *float64) ([]Candidate, error) {
	limit := cfg.DefaultThreshold
	if threshold != nil {
		limit = *threshold
	}

	log, err := e.access.Load()
	if err != nil {
		return nil, err
	}

	safe, hasSafe := e.watermark()
	now := e.now()

	var out []Candidate
	for _, typ := range []string{component.TypeProjects, component.TypeKnowledge, component.TypeSkills, component.TypeRelationships} {
		keys, err := e.components.List(typ)
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			scope := component.Scope(typ, key)
			if isExcluded(scope, cfg.ExcludedScopes) {
				continue
			}
			entries, err := e.changelogs.AllEntries(typ, key)
			if err != nil {
				return nil, err
			}
			for _, entry := range entries {
				entryTime, err := time.Parse(time.RFC3339, entry.Time)
				if err != nil {
					continue
				}
				ageDays := now.Sub(entryTime).Hours() / 24
				if ageDays < float64(cfg.MaxAgeDays) {
					continue
				}
				if !hasSafe || entryTime.After(safe) {
					continue
				}
				bd := Temperature(entry, scope, cfg, log, now)
				if bd.Temperature >= limit {
					continue
				}
				out = append(out, Candidate{Entry: entry, Scope: scope, Breakdown: bd})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Breakdown.Temperature < out[j].Breakdown.Temperature })
	return out, nil
}

// Preview returns every candidate below threshold (nil uses cfg's default)
// without mutating anything.
func (e *Engine) Preview(cfg Config, threshold *float64) ([]Candidate, error) {
	return e.candidates(cfg, threshold)
}

// RunResult summarizes one archival run.
type RunResult struct {
	ArchivedCount int
	ByComponent   map[string]int
}

// Run archives every current candidate, grouped by component, into monthly
// YAML archive files, and updates decay state.
func (e *Engine) Run(cfg Config, threshold *float64) (RunResult, error) {
	cands, err := e.candidates(cfg, threshold)
	if err != nil {
		return RunResult{}, err
	}
	if len(cands) == 0 {
		return RunResult{ByComponent: map[string]int{}}, nil
	}

	byScope := map[string][]Candidate{}
	for _, c := range cands {
		byScope[c.Scope] = append(byScope[c.Scope], c)
	}

	st, err := e.state.Load()
	if err != nil {
		return RunResult{}, err
	}

	now := e.now()
	result := RunResult{ByComponent: map[string]int{}}
	limit := cfg.DefaultThreshold
	if threshold != nil {
		limit = *threshold
	}

	for scope, group := range byScope {
		typ, key, ok := component.ParseScope(scope)
		if !ok {
			continue
		}
		ids := make([]string, len(group))
		for i, c := range group {
			ids[i] = c.Entry.ID
		}
		removed, err := e.changelogs.Archive(typ, key, ids)
		if err != nil {
			return RunResult{}, err
		}
		if len(removed) == 0 {
			continue
		}
		if err := e.appendToArchiveFile(typ, key, removed, now); err != nil {
			return RunResult{}, err
		}

		result.ArchivedCount += len(removed)
		result.ByComponent[scope] = len(removed)
		st.record(ArchiveRecord{Time: now, Component: scope, Count: len(removed), Threshold: limit}, cfg.HistoryLimit)
	}

	st.TotalArchived += result.ArchivedCount
	st.LastRun = now
	if err := e.state.Save(st); err != nil {
		return RunResult{}, err
	}
	return result, nil
}

// archiveFile groups archived entries by the calendar month they originally
// occurred in — archives aggregate per-month rather than per-run.
type archiveFile struct {
	Entries []changelog.Entry `yaml:"entries"`
}

func (e *Engine) appendToArchiveFile(typ, key string, removed []changelog.Entry, runTime time.Time) error {
	byMonth := map[string][]changelog.Entry{}
	for _, entry := range removed {
		month := runTime.UTC().Format("2006-01")
		if t, err := time.Parse(time.RFC3339, entry.Time); err == nil {
			month = t.UTC().Format("2006-01")
		}
		byMonth[month] = append(byMonth[month], entry)
	}

	for month, entries := range byMonth {
		path := e.archive.ArchivedChangelog(typ, key, month)
		var existing archiveFile
		if data, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(data, &existing); err != nil {
				return fmt.Errorf("decay: parsing existing archive %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("decay: reading existing archive %s: %w", path, err)
		}

		existing.Entries = append(existing.Entries, entries...)
		out, err := yaml.Marshal(existing)
		if err != nil {
			return fmt.Errorf("decay: encoding archive %s: %w", path, err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, out, 0o644); err != nil {
			return fmt.Errorf("decay: writing archive %s: %w", path, err)
		}
	}
	return nil
}

// UpdateAccessLog records a touch of key.
func (e *Engine) UpdateAccessLog(key string) error {
	return e.access.UpdateAccessLog(key, e.now())
}
