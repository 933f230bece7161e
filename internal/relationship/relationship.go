// Package relationship is the per-entity relationship profile: style/
// expertise notes, a tag multiset accumulated from logged interactions, and
// a clamped trust scalar with history. A backing component under
// components/relationships/<entity_id> is created on first touch so the
// profile participates in search and the L0 index like any other
// component.
package relationship

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Type is one of user/agent/external.
type Type string

const (
	TypeUser     Type = "user"
	TypeAgent    Type = "agent"
	TypeExternal Type = "external"
)

// Profile is the free-text preference block of a relationship.
type Profile struct {
	Style         string   `json:"style,omitempty"`
	Expertise     []string `json:"expertise,omitempty"`
	LanguagePref  []string `json:"language_pref,omitempty"`
	Notes         string   `json:"notes,omitempty"`
}

// InteractionTag is one accumulated tag with a running count.
type InteractionTag struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
	Last  string `json:"last"`
	Note  string `json:"note,omitempty"`
}

// TrustDelta is one entry in trust history.
type TrustDelta struct {
	Date   string  `json:"date"`
	Delta  float64 `json:"delta"`
	Reason string  `json:"reason"`
}

// Record is the full relationship profile for one entity.
type Record struct {
	EntityID        string            `json:"entity_id"`
	Type            Type              `json:"type"`
	Profile         Profile           `json:"profile"`
	InteractionTags []InteractionTag  `json:"interaction_tags,omitempty"`
	TrustScore      float64           `json:"trust_score"`
	TrustHistory    []TrustDelta      `json:"trust_history,omitempty"`
}

// EnsureComponent creates the backing relationships/<entity_id> component on
// first touch. create is typically component.Store.Create; exists is
// typically component.Store.Exists.
type EnsureComponent func(entityID string) error

// Store implements relationship_get/update_profile/log_interaction/update_trust
// over one JSON document per entity.
type Store struct {
	Root   string
	ensure EnsureComponent
	now    func() time.Time
}

// New returns a Store rooted at root (a "relationships/" directory under the
// store). ensure is invoked the first time an entity's profile is touched.
func New(root string, ensure EnsureComponent, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{Root: root, ensure: ensure, now: now}
}

// path points at the "profile" file inside the entity's backing component
// directory (components/relationships/<entity_id>/profile), a sibling of
// that component's summary/changelog/raw — not a file directly under Root,
// which is itself the component type directory and already holds one
// subdirectory per entity.
func (s *Store) path(entityID string) string {
	return filepath.Join(s.Root, entityID, "profile")
}

// Get returns the profile for entityID, or nil if it has never been
// touched.
func (s *Store) Get(entityID string) (*Record, error) {
	data, err := os.ReadFile(s.path(entityID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("relationship: reading %q: %w", entityID, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("relationship: parsing %q: %w", entityID, err)
	}
	return &rec, nil
}

func (s *Store) getOrCreate(entityID string, typ Type) (*Record, error) {
	rec, err := s.Get(entityID)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		return rec, nil
	}
	if s.ensure != nil {
		if err := s.ensure(entityID); err != nil {
			return nil, fmt.Errorf("relationship: ensuring backing component for %q: %w", entityID, err)
		}
	}
	if typ == "" {
		typ = TypeUser
	}
	return &Record{EntityID: entityID, Type: typ}, nil
}

func (s *Store) save(rec *Record) error {
	dir := filepath.Dir(s.path(rec.EntityID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("relationship: creating %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("relationship: marshaling %q: %w", rec.EntityID, err)
	}
	return os.WriteFile(s.path(rec.EntityID), data, 0o644)
}

// UpdateProfile merges non-zero fields of profile into the stored record,
// creating it (and its backing component) on first touch.
func (s *Store) UpdateProfile(entityID string, typ Type, profile Profile) (*Record, error) {
	rec, err := s.getOrCreate(entityID, typ)
	if err != nil {
		return nil, err
	}
	if typ != "" {
		rec.Type = typ
	}
	if profile.Style != "" {
		rec.Profile.Style = profile.Style
	}
	if profile.Expertise != nil {
		rec.Profile.Expertise = profile.Expertise
	}
	if profile.LanguagePref != nil {
		rec.Profile.LanguagePref = profile.LanguagePref
	}
	if profile.Notes != "" {
		rec.Profile.Notes = profile.Notes
	}
	if err := s.save(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// LogInteraction increments the count for each tag (creating it with count 1
// if new), updating last-seen time.
func (s *Store) LogInteraction(entityID string, tags []string, note string) (*Record, error) {
	rec, err := s.getOrCreate(entityID, "")
	if err != nil {
		return nil, err
	}
	now := s.now().UTC().Format(time.RFC3339)
	for _, tag := range tags {
		found := false
		for i := range rec.InteractionTags {
			if rec.InteractionTags[i].Tag == tag {
				rec.InteractionTags[i].Count++
				rec.InteractionTags[i].Last = now
				if note != "" {
					rec.InteractionTags[i].Note = note
				}
				found = true
				break
			}
		}
		if !found {
			rec.InteractionTags = append(rec.InteractionTags, InteractionTag{Tag: tag, Count: 1, Last: now, Note: note})
		}
	}
	if err := s.save(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// UpdateTrust applies delta to trust_score, clamping the stored result to
// [0.0, 1.0], and appends a history entry recording the caller's original
// delta, not the clamped effective change.
func (s *Store) UpdateTrust(entityID string, delta float64, reason string) (*Record, error) {
	rec, err := s.getOrCreate(entityID, "")
	if err != nil {
		return nil, err
	}
	rec.TrustScore = clamp(rec.TrustScore+delta, 0.0, 1.0)
	rec.TrustHistory = append(rec.TrustHistory, TrustDelta{
		Date:   s.now().UTC().Format(time.RFC3339),
		Delta:  delta,
		Reason: reason,
	})
	if err := s.save(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
