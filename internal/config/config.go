// Package config is the engine's single typed configuration document: one
// JSON file under the store root, read at boot, mutated only through
// dotted-path writes that preserve every sibling field. It follows the
// teacher's Store-interface-plus-FileStore shape so the rest of the engine
// depends on an interface, not a concrete file format.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Summarizer holds the summarizer pipeline's tunables.
type Summarizer struct {
	DigestIntervalHours   int `json:"digest_interval_hours"`
	SynthesisIntervalDays int `json:"synthesis_interval_days"`
	ReviewIntervalDays    int `json:"review_interval_days"`
}

// LLM holds the language-model caller's tunables.
type LLM struct {
	Mode           string `json:"mode"`             // auto | sampling | direct
	Provider       string `json:"provider"`         // e.g. "openai"
	Model          string `json:"model"`
	APIKey         string `json:"api_key"`
	APIKeyEnv      string `json:"api_key_env"`
	Endpoint       string `json:"endpoint"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// MemoryIngest holds tunables for background ingestion of scratch/changelog
// content into the summarizer's working set.
type MemoryIngest struct {
	Enabled         bool `json:"enabled"`
	BatchSize       int  `json:"batch_size"`
	LookbackDays    int  `json:"lookback_days"`
}

// Decay holds the decay engine's tunables.
type Decay struct {
	MaxAgeDays       int      `json:"max_age_days"`
	DefaultThreshold int      `json:"default_threshold"`
	PinnedEntries    []string `json:"pinned_entries"`
	ExcludedScopes   []string `json:"excluded_scopes"`
	HistoryLimit     int      `json:"history_limit"`
}

// Validation holds the write validator's tunables.
type Validation struct {
	AutoValidateDecisions bool `json:"auto_validate_decisions"`
	RecentEntryLimit      int  `json:"recent_entry_limit"`
}

// WorkspaceSync holds the workspace sync component's tunables.
type WorkspaceSync struct {
	WorkspacePath      string   `json:"workspace_path"`
	WatchedFiles        []string `json:"watched_files"`
	PrimaryIdentityFile string   `json:"primary_identity_file"`
}

// Search holds the search router's tunables.
type Search struct {
	Backend          string `json:"backend"` // auto | simple | bm25 | external
	AutoReindex      bool   `json:"auto_reindex"`
	ReindexDebounceMS int    `json:"reindex_debounce_ms"`
	ExternalBinary   string `json:"external_binary"`
	ExternalCollection string `json:"external_collection"`
}

// Onboarding holds the onboarding flow's tunables.
type Onboarding struct {
	SkipAgents []string `json:"skip_agents"`
}

// Document is the full config tree.
type Document struct {
	Summarizer   Summarizer   `json:"summarizer"`
	LLM          LLM          `json:"llm"`
	MemoryIngest MemoryIngest `json:"memory_ingest"`
	Decay        Decay        `json:"decay"`
	Validation   Validation   `json:"validation"`
	WorkspaceSync WorkspaceSync `json:"workspace_sync"`
	Search       Search       `json:"search"`
	Onboarding   Onboarding   `json:"onboarding"`
}

// Default returns the document populated with every default listed in
// Reference().
func Default() Document {
	return Document{
		Summarizer: Summarizer{
			DigestIntervalHours:   24,
			SynthesisIntervalDays: 7,
			ReviewIntervalDays:    30,
		},
		LLM: LLM{
			Mode:           "auto",
			Provider:       "openai",
			Model:          "gpt-4o-mini",
			APIKeyEnv:      "OPEN_PALACE_LLM_API_KEY",
			Endpoint:       "https://api.openai.com/v1/chat/completions",
			TimeoutSeconds: 30,
		},
		MemoryIngest: MemoryIngest{
			Enabled:      true,
			BatchSize:    20,
			LookbackDays: 2,
		},
		Decay: Decay{
			MaxAgeDays:       30,
			DefaultThreshold: 20,
			PinnedEntries:    []string{},
			ExcludedScopes:   []string{},
			HistoryLimit:     50,
		},
		Validation: Validation{
			AutoValidateDecisions: true,
			RecentEntryLimit:      20,
		},
		WorkspaceSync: WorkspaceSync{
			WatchedFiles:        []string{},
			PrimaryIdentityFile: "",
		},
		Search: Search{
			Backend:           "auto",
			AutoReindex:       true,
			ReindexDebounceMS: 3000,
			ExternalCollection: "open-palace",
		},
		Onboarding: Onboarding{
			SkipAgents: []string{},
		},
	}
}

// Tunable describes one entry in the static reference table.
type Tunable struct {
	Path        string `json:"path"`
	Default     string `json:"default"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Affects     string `json:"affected_system"`
}

// Reference enumerates every tunable in the config document, used by
// config_reference and by documentation generation.
func Reference() []Tunable {
	return []Tunable{
		{"summarizer.digest_interval_hours", "24", "int", "hours between digest passes", "summarizer"},
		{"summarizer.synthesis_interval_days", "7", "int", "days between synthesis passes", "summarizer"},
		{"summarizer.review_interval_days", "30", "int", "days between review passes", "summarizer"},
		{"llm.mode", "auto", "string", "sampling | direct | auto", "llm"},
		{"llm.provider", "openai", "string", "direct-path provider name", "llm"},
		{"llm.model", "gpt-4o-mini", "string", "direct-path model identifier", "llm"},
		{"llm.api_key", "", "string", "direct-path API key (prefer api_key_env)", "llm"},
		{"llm.api_key_env", "OPEN_PALACE_LLM_API_KEY", "string", "environment variable holding the API key", "llm"},
		{"llm.endpoint", "https://api.openai.com/v1/chat/completions", "string", "direct-path HTTP endpoint", "llm"},
		{"llm.timeout_seconds", "30", "int", "direct-path HTTP timeout; not read, the direct path always uses 30 seconds", "llm"},
		{"memory_ingest.enabled", "true", "bool", "whether background ingest runs", "memory_ingest"},
		{"memory_ingest.batch_size", "20", "int", "entries processed per ingest pass", "memory_ingest"},
		{"memory_ingest.lookback_days", "2", "int", "days of scratch considered for ingest", "memory_ingest"},
		{"decay.max_age_days", "30", "int", "minimum age before an entry is decay-eligible", "decay"},
		{"decay.default_threshold", "20", "int", "default temperature threshold for preview/run", "decay"},
		{"decay.pinned_entries", "[]", "[]string", "changelog entry IDs exempt from archival", "decay"},
		{"decay.excluded_scopes", "[]", "[]string", "component scopes excluded from decay", "decay"},
		{"decay.history_limit", "50", "int", "max archive records retained in decay state", "decay"},
		{"validation.auto_validate_decisions", "true", "bool", "validate decision entries automatically", "validation"},
		{"validation.recent_entry_limit", "20", "int", "entries gathered for validation context", "validation"},
		{"workspace_sync.workspace_path", "", "string", "explicit workspace root override", "workspace_sync"},
		{"workspace_sync.watched_files", "[]", "[]string", "file names watched for drift", "workspace_sync"},
		{"workspace_sync.primary_identity_file", "", "string", "file mirrored bidirectionally with soul_content", "workspace_sync"},
		{"search.backend", "auto", "string", "auto | simple | bm25 | external", "search"},
		{"search.auto_reindex", "true", "bool", "schedule a debounced reindex after writes", "search"},
		{"search.reindex_debounce_ms", "3000", "int", "debounce window for scheduled reindex", "search"},
		{"search.external_binary", "", "string", "binary name probed on PATH for the external backend", "search"},
		{"search.external_collection", "open-palace", "string", "collection name ensured in the external backend", "search"},
		{"onboarding.skip_agents", "[]", "[]string", "agent identities skipped by onboarding_init", "onboarding"},
	}
}

// Store is the persistence interface for the config document, abstracted so
// callers can depend on an interface rather than a concrete file format.
type Store interface {
	Load() (Document, error)
	Save(Document) error
	Exists() bool
}

// FileStore implements Store using a single JSON file on the local
// filesystem.
type FileStore struct {
	Path string
}

// NewFileStore returns a FileStore backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Exists reports whether the config file has been written yet.
func (fs *FileStore) Exists() bool {
	_, err := os.Stat(fs.Path)
	return err == nil
}

// Load reads and parses the config document, returning Default() merged
// underneath anything present on disk is not attempted here — callers that
// need defaults-on-first-run should check Exists() and call Save(Default())
// explicitly.
func (fs *FileStore) Load() (Document, error) {
	data, err := os.ReadFile(fs.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, fmt.Errorf("config: not initialized at %s", fs.Path)
		}
		return Document{}, fmt.Errorf("config: reading %s: %w", fs.Path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("config: parsing %s: %w", fs.Path, err)
	}
	return doc, nil
}

// Save writes doc to Path as indented JSON.
func (fs *FileStore) Save(doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshaling: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(fs.Path), 0o755); err != nil {
		return fmt.Errorf("config: creating directory: %w", err)
	}
	return os.WriteFile(fs.Path, data, 0o644)
}

// Get reads the value at a dotted path ("llm.mode") out of doc as a JSON
// round-trip, returning the raw JSON value so callers can format it however
// the protocol operation needs.
func Get(doc Document, path string) (any, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("config: marshaling for get: %w", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("config: unmarshaling for get: %w", err)
	}
	if path == "" {
		return generic, nil
	}
	cur := any(generic)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("config: path %q does not resolve to an object at %q", path, part)
		}
		v, ok := m[part]
		if !ok {
			return nil, fmt.Errorf("config: unknown path %q", path)
		}
		cur = v
	}
	return cur, nil
}

// Set writes value at a dotted path into doc, preserving every sibling
// field, and returns the updated document. value is parsed as JSON when it
// looks like a JSON literal (true/false/number/quoted string/array/object);
// otherwise it is treated as a bare string.
func Set(doc Document, path string, value string) (Document, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return doc, fmt.Errorf("config: marshaling for set: %w", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		return doc, fmt.Errorf("config: unmarshaling for set: %w", err)
	}

	parts := strings.Split(path, ".")
	if len(parts) == 0 {
		return doc, fmt.Errorf("config: empty path")
	}

	if err := setPath(generic, parts, parseScalar(value)); err != nil {
		return doc, err
	}

	merged, err := json.Marshal(generic)
	if err != nil {
		return doc, fmt.Errorf("config: remarshaling after set: %w", err)
	}
	var out Document
	if err := json.Unmarshal(merged, &out); err != nil {
		return doc, fmt.Errorf("config: unmarshaling after set: %w", err)
	}
	return out, nil
}

func setPath(m map[string]any, parts []string, value any) error {
	if len(parts) == 1 {
		m[parts[0]] = value
		return nil
	}
	next, ok := m[parts[0]].(map[string]any)
	if !ok {
		return fmt.Errorf("config: path segment %q is not an object", parts[0])
	}
	return setPath(next, parts[1:], value)
}

// parseScalar attempts to interpret value as a JSON literal, falling back to
// a bare string so callers can write config_update{path: "llm.mode", value: "direct"}
// without quoting.
func parseScalar(value string) any {
	if value == "true" {
		return true
	}
	if value == "false" {
		return false
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	var generic any
	if strings.HasPrefix(value, "[") || strings.HasPrefix(value, "{") || strings.HasPrefix(value, `"`) {
		if err := json.Unmarshal([]byte(value), &generic); err == nil {
			return generic
		}
	}
	return value
}
