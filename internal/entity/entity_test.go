package entity

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	store := NewFileStore(filepath.Join(t.TempDir(), "entities"))
	fixed := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	return New(store, func() time.Time { return fixed })
}

func TestCreateWithoutSoulHasNoEvolutionEntry(t *testing.T) {
	r := newTestRegistry(t)
	ent, err := r.Create("nova", "Nova", "an assistant", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(ent.EvolutionLog) != 0 {
		t.Fatalf("expected no evolution entries, got %d", len(ent.EvolutionLog))
	}
}

func TestCreateWithSoulAppendsEvolutionEntry(t *testing.T) {
	r := newTestRegistry(t)
	ent, err := r.Create("nova", "Nova", "an assistant", "I am Nova.")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(ent.EvolutionLog) != 1 {
		t.Fatalf("expected one evolution entry, got %d", len(ent.EvolutionLog))
	}
	if ent.EvolutionLog[0].Source != SourceCreate {
		t.Fatalf("got source %q, want %q", ent.EvolutionLog[0].Source, SourceCreate)
	}
}

func TestUpdateSoulOnMissingEntityFails(t *testing.T) {
	r := newTestRegistry(t)
	if _, err := r.UpdateSoul("ghost", "x", "why"); err != ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestUpdateSoulAppendsEvolutionWithReasonAsSummary(t *testing.T) {
	r := newTestRegistry(t)
	if _, err := r.Create("nova", "Nova", "an assistant", "v1"); err != nil {
		t.Fatal(err)
	}
	ent, err := r.UpdateSoul("nova", "v2", "learned something new")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if ent.SoulContent != "v2" {
		t.Fatalf("got soul %q, want v2", ent.SoulContent)
	}
	last := ent.EvolutionLog[len(ent.EvolutionLog)-1]
	if last.Source != SourceUpdateSoul || last.ChangeSummary != "learned something new" {
		t.Fatalf("unexpected last evolution entry: %+v", last)
	}
}

func TestGetSoulMissingEntity(t *testing.T) {
	r := newTestRegistry(t)
	_, ok, err := r.GetSoul("ghost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for a missing entity")
	}
}

func TestPrimaryMappingSingle(t *testing.T) {
	ent := &Entity{HostMappings: map[string]HostMapping{
		"laptop": {Host: "laptop", AgentID: "nova"},
	}}
	m, ok := ent.PrimaryMapping()
	if !ok || m.Host != "laptop" {
		t.Fatalf("got %+v, ok=%v", m, ok)
	}
}

func TestPrimaryMappingMultipleRequiresFlag(t *testing.T) {
	ent := &Entity{HostMappings: map[string]HostMapping{
		"laptop": {Host: "laptop"},
		"server": {Host: "server", Primary: true},
	}}
	m, ok := ent.PrimaryMapping()
	if !ok || m.Host != "server" {
		t.Fatalf("got %+v, ok=%v, want server", m, ok)
	}
}

func TestPrimaryMappingAmbiguousWithoutFlag(t *testing.T) {
	ent := &Entity{HostMappings: map[string]HostMapping{
		"laptop": {Host: "laptop"},
		"server": {Host: "server"},
	}}
	if _, ok := ent.PrimaryMapping(); ok {
		t.Fatal("expected no unambiguous primary mapping")
	}
}

func TestListEntities(t *testing.T) {
	r := newTestRegistry(t)
	if _, err := r.Create("nova", "Nova", "", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Create("zed", "Zed", "", ""); err != nil {
		t.Fatal(err)
	}
	ids, err := r.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("got %d ids, want 2: %v", len(ids), ids)
	}
}
