package engine

import (
	"testing"
	"time"
)

func TestOnboardingInitSeedsDefaultEntityAndGettingStarted(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	if err := e.OnboardingInit(nil); err != nil {
		t.Fatalf("OnboardingInit: %v", err)
	}

	if _, err := e.EntityGetSoul(defaultEntityID); err != nil {
		t.Fatalf("expected the default entity to be seeded: %v", err)
	}
	summary, err := e.SummaryGet("projects/getting-started")
	if err != nil {
		t.Fatalf("expected a getting-started component to be seeded: %v", err)
	}
	if summary == "" {
		t.Fatal("expected a non-empty getting-started summary")
	}

	status, err := e.OnboardingStatus()
	if err != nil {
		t.Fatalf("OnboardingStatus: %v", err)
	}
	if status["entity_count"] != 1 {
		t.Fatalf("got status %v, want entity_count 1", status)
	}
	if status["initialized"] != true {
		t.Fatalf("got status %v, want initialized true", status)
	}
}

func TestOnboardingInitSkipsDefaultEntityWhenListed(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	if err := e.OnboardingInit([]string{defaultEntityID}); err != nil {
		t.Fatalf("OnboardingInit: %v", err)
	}

	if _, err := e.EntityGetSoul(defaultEntityID); err == nil {
		t.Fatal("expected the default entity to be skipped when listed in skip_agents")
	}

	cfg, err := e.configStore.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if indexOfString(cfg.Onboarding.SkipAgents, defaultEntityID) < 0 {
		t.Fatal("expected skip_agents to persist the requested skip list")
	}
}

func TestOnboardingStatusBeforeInit(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	status, err := e.OnboardingStatus()
	if err != nil {
		t.Fatalf("OnboardingStatus: %v", err)
	}
	if status["initialized"] != false {
		t.Fatalf("got status %v, want initialized false on a fresh store", status)
	}
}
