package engine

import (
	"errors"
	"testing"
	"time"
)

func TestEntityCreateAndGet(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	ent, err := e.EntityCreate("claude", "Claude", "an assistant", "I help with code.")
	if err != nil {
		t.Fatalf("EntityCreate: %v", err)
	}
	if ent.EntityID != "claude" {
		t.Fatalf("got entity id %q, want claude", ent.EntityID)
	}

	soul, err := e.EntityGetSoul("claude")
	if err != nil {
		t.Fatalf("EntityGetSoul: %v", err)
	}
	if soul != "I help with code." {
		t.Fatalf("got soul %q, want the initial soul content", soul)
	}

	ids, err := e.EntityList()
	if err != nil {
		t.Fatalf("EntityList: %v", err)
	}
	if len(ids) != 1 || ids[0] != "claude" {
		t.Fatalf("got %v, want [claude]", ids)
	}
}

func TestEntityCreateRejectsEmptyID(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	if _, err := e.EntityCreate("", "No ID", "", ""); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("got error %v, want ErrInvalidArgument", err)
	}
}

func TestEntityGetSoulNotFound(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	if _, err := e.EntityGetSoul("nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got error %v, want ErrNotFound", err)
	}
}

func TestEntityUpdateSoulPersistsNewContent(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))
	if _, err := e.EntityCreate("claude", "Claude", "", "v1"); err != nil {
		t.Fatalf("EntityCreate: %v", err)
	}

	if _, err := e.EntityUpdateSoul("claude", "v2", "learned something new"); err != nil {
		t.Fatalf("EntityUpdateSoul: %v", err)
	}
	soul, err := e.EntityGetSoul("claude")
	if err != nil {
		t.Fatalf("EntityGetSoul: %v", err)
	}
	if soul != "v2" {
		t.Fatalf("got soul %q, want v2", soul)
	}
}

func TestEntityUpdateSoulNotFound(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	if _, err := e.EntityUpdateSoul("nobody", "x", "y"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got error %v, want ErrNotFound", err)
	}
}

func TestEntityLogEvolutionAppendsWithoutTouchingSoul(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))
	if _, err := e.EntityCreate("claude", "Claude", "", "v1"); err != nil {
		t.Fatalf("EntityCreate: %v", err)
	}

	if err := e.EntityLogEvolution("claude", "picked up a new skill", "observation"); err != nil {
		t.Fatalf("EntityLogEvolution: %v", err)
	}
	soul, err := e.EntityGetSoul("claude")
	if err != nil {
		t.Fatalf("EntityGetSoul: %v", err)
	}
	if soul != "v1" {
		t.Fatalf("got soul %q, want v1 unchanged by LogEvolution", soul)
	}

	ent, err := e.EntityGetFull("claude")
	if err != nil {
		t.Fatalf("EntityGetFull: %v", err)
	}
	if len(ent.EvolutionLog) == 0 {
		t.Fatal("expected at least one evolution entry after LogEvolution")
	}
}
