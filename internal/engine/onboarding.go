package engine

import (
	"fmt"

	"github.com/open-palace/openpalace/internal/component"
	"github.com/open-palace/openpalace/internal/event"
)

// defaultEntityID is the identity onboarding_init seeds on first run.
const defaultEntityID = "default"

const gettingStartedSummary = "# Getting Started\n\n" +
	"This component was created by onboarding_init. Record what you learn " +
	"about this workspace here as you go.\n"

// OnboardingStatus reports whether the store has been initialized, and a
// handful of counts useful for a first-run check.
func (e *Engine) OnboardingStatus() (map[string]any, error) {
	cfg, err := e.configStore.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	entityIDs, err := e.entities.List()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	scopes, err := e.components.List("")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}

	return map[string]any{
		"config_initialized": e.configStore.Exists(),
		"entity_count":       len(entityIDs),
		"component_count":    len(scopes),
		"skip_agents":        cfg.Onboarding.SkipAgents,
		"initialized":        len(entityIDs) > 0,
	}, nil
}

// OnboardingInit seeds a default identity and a starter
// projects/getting-started component on first run, unless skipAgents
// excludes the default entity.
func (e *Engine) OnboardingInit(skipAgents []string) error {
	cfg, err := e.configStore.Load()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	if skipAgents != nil {
		cfg.Onboarding.SkipAgents = skipAgents
		if err := e.configStore.Save(cfg); err != nil {
			return fmt.Errorf("%w: %v", ErrBackingStore, err)
		}
	}

	if indexOfString(cfg.Onboarding.SkipAgents, defaultEntityID) < 0 {
		if existing, err := e.entities.Get(defaultEntityID); err == nil && existing == nil {
			if _, err := e.EntityCreate(defaultEntityID, "Default Agent", "the default identity seeded on first run", ""); err != nil {
				return err
			}
		}
	}

	if !e.components.Exists(component.TypeProjects, "getting-started") {
		if err := e.ComponentCreate(component.TypeProjects, "getting-started", gettingStartedSummary); err != nil {
			return err
		}
	}

	e.bus.Emit(event.KindOnboardingComplete, "onboarding", "onboarding_init complete")
	return nil
}
