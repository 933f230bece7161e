package engine

import (
	"fmt"

	"github.com/open-palace/openpalace/internal/config"
	"github.com/open-palace/openpalace/internal/decay"
	"github.com/open-palace/openpalace/internal/event"
)

func decayConfig(cfg config.Document) decay.Config {
	return decay.Config{
		MaxAgeDays:       cfg.Decay.MaxAgeDays,
		DefaultThreshold: float64(cfg.Decay.DefaultThreshold),
		PinnedEntries:    cfg.Decay.PinnedEntries,
		ExcludedScopes:   cfg.Decay.ExcludedScopes,
		HistoryLimit:     cfg.Decay.HistoryLimit,
	}
}

// DecayPreview returns every archival candidate below threshold (nil uses
// the configured default) without mutating anything.
func (e *Engine) DecayPreview(threshold *float64) ([]decay.Candidate, error) {
	cfg, err := e.configStore.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: loading config: %v", ErrBackingStore, err)
	}
	cands, err := e.decay.Preview(decayConfig(cfg), threshold)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	return cands, nil
}

// DecayRun archives every current candidate and commits the result directly
// — decay runs have no dedicated event.Kind, so this bypasses the bus and
// calls the version-control backer itself, the one place in the engine that
// does so outside the commit handler.
func (e *Engine) DecayRun(threshold *float64) (decay.RunResult, error) {
	cfg, err := e.configStore.Load()
	if err != nil {
		return decay.RunResult{}, fmt.Errorf("%w: loading config: %v", ErrBackingStore, err)
	}
	result, err := e.decay.Run(decayConfig(cfg), threshold)
	if err != nil {
		return decay.RunResult{}, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	if result.ArchivedCount > 0 {
		if _, cerr := e.vcs.Commit(fmt.Sprintf("decay: archived %d entries", result.ArchivedCount)); cerr != nil {
			return result, fmt.Errorf("%w: %v", ErrVersionControl, cerr)
		}
	}
	return result, nil
}

func indexOfString(list []string, target string) int {
	for i, v := range list {
		if v == target {
			return i
		}
	}
	return -1
}

// DecayPin pins or unpins a changelog entry against archival, dispatching on
// action, the single decay_pin{entry_id, action} operation.
func (e *Engine) DecayPin(entryID, action string) error {
	cfg, err := e.configStore.Load()
	if err != nil {
		return fmt.Errorf("%w: loading config: %v", ErrBackingStore, err)
	}

	idx := indexOfString(cfg.Decay.PinnedEntries, entryID)
	switch action {
	case "pin":
		if idx >= 0 {
			return ErrAlreadyExists
		}
		cfg.Decay.PinnedEntries = append(cfg.Decay.PinnedEntries, entryID)
	case "unpin":
		if idx < 0 {
			return ErrNotFound
		}
		cfg.Decay.PinnedEntries = append(cfg.Decay.PinnedEntries[:idx], cfg.Decay.PinnedEntries[idx+1:]...)
	default:
		return ErrInvalidArgument
	}

	if err := e.configStore.Save(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	e.bus.Emit(event.KindSystemConfigure, "decay", action+" "+entryID)
	return nil
}

// UpdateAccessLog records a touch of key, feeding the decay engine's
// access-bonus scoring.
func (e *Engine) UpdateAccessLog(key string) error {
	if err := e.decay.UpdateAccessLog(key); err != nil {
		return fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	return nil
}
