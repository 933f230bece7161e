package engine

import (
	"fmt"
	"strings"

	"github.com/open-palace/openpalace/internal/config"
	"github.com/open-palace/openpalace/internal/event"
)

// ConfigGet reads the value at a dotted path out of the live config
// document, or the whole document if path is empty.
func (e *Engine) ConfigGet(path string) (any, error) {
	cfg, err := e.configStore.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	v, err := config.Get(cfg, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return v, nil
}

// ConfigUpdate writes value at a dotted path into the live config document,
// persists it, invalidates the search router's cached backend choice (since
// config semantics may have just changed which backend is forced), and
// emits a scoped system.configure event. Both the system_configure and
// config_update protocol operations delegate here.
func (e *Engine) ConfigUpdate(path, value string) (config.Document, error) {
	cfg, err := e.configStore.Load()
	if err != nil {
		return config.Document{}, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	updated, err := config.Set(cfg, path, value)
	if err != nil {
		return config.Document{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if err := e.configStore.Save(updated); err != nil {
		return config.Document{}, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}

	e.searchRouter.Reset()
	e.bus.Emit(event.KindSystemConfigure, pathScope(path), "updated "+path)
	return updated, nil
}

// ConfigReference enumerates the tunable reference table, optionally
// filtered by substring match on path or affected system.
func (e *Engine) ConfigReference(filter string) []config.Tunable {
	all := config.Reference()
	if filter == "" {
		return all
	}
	var out []config.Tunable
	for _, t := range all {
		if strings.Contains(t.Path, filter) || strings.Contains(t.Affects, filter) {
			out = append(out, t)
		}
	}
	return out
}

func pathScope(path string) string {
	if idx := strings.IndexByte(path, '.'); idx >= 0 {
		return path[:idx]
	}
	return path
}
