package engine

import (
	"errors"
	"testing"
	"time"
)

func TestConfigGetWholeDocumentAndByPath(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	whole, err := e.ConfigGet("")
	if err != nil {
		t.Fatalf("ConfigGet(\"\"): %v", err)
	}
	if whole == nil {
		t.Fatal("expected a non-nil document")
	}

	mode, err := e.ConfigGet("llm.mode")
	if err != nil {
		t.Fatalf("ConfigGet(llm.mode): %v", err)
	}
	if mode != "auto" {
		t.Fatalf("got %v, want the default auto", mode)
	}
}

func TestConfigGetUnknownPath(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	if _, err := e.ConfigGet("nonexistent.path"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("got %v, want ErrInvalidArgument", err)
	}
}

func TestConfigUpdatePersistsAndResetsSearchRouter(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	updated, err := e.ConfigUpdate("llm.mode", "direct")
	if err != nil {
		t.Fatalf("ConfigUpdate: %v", err)
	}
	if updated.LLM.Mode != "direct" {
		t.Fatalf("got mode %q, want direct", updated.LLM.Mode)
	}

	reloaded, err := e.configStore.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if reloaded.LLM.Mode != "direct" {
		t.Fatalf("got persisted mode %q, want direct", reloaded.LLM.Mode)
	}
}

func TestConfigUpdateRejectsBadPath(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	if _, err := e.ConfigUpdate("llm", "direct"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("got %v, want ErrInvalidArgument for a path that resolves to an object, not a scalar", err)
	}
}

func TestConfigReferenceFiltersBySubstring(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	all := e.ConfigReference("")
	if len(all) == 0 {
		t.Fatal("expected a non-empty reference table")
	}

	decayOnly := e.ConfigReference("decay")
	if len(decayOnly) == 0 {
		t.Fatal("expected at least one decay tunable")
	}
	for _, tun := range decayOnly {
		if tun.Affects != "decay" {
			t.Fatalf("got tunable affecting %q, want only decay tunables", tun.Affects)
		}
	}
}

func TestPathScope(t *testing.T) {
	cases := map[string]string{
		"llm.mode":            "llm",
		"decay.max_age_days": "decay",
		"search":              "search",
	}
	for path, want := range cases {
		if got := pathScope(path); got != want {
			t.Errorf("pathScope(%q) = %q, want %q", path, got, want)
		}
	}
}
