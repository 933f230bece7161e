package engine

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/open-palace/openpalace/internal/changelog"
	"github.com/open-palace/openpalace/internal/component"
	"github.com/open-palace/openpalace/internal/event"
	"github.com/open-palace/openpalace/internal/memindex"
	"github.com/open-palace/openpalace/internal/validator"
)

// ComponentList enumerates "<type>/<key>" scopes, optionally filtered to
// one type.
func (e *Engine) ComponentList(typ string) ([]string, error) {
	scopes, err := e.components.List(typ)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	return scopes, nil
}

func tagFor(typ string) memindex.Tag {
	switch typ {
	case component.TypeProjects:
		return memindex.TagProjects
	case component.TypeKnowledge:
		return memindex.TagKnowledge
	case component.TypeSkills:
		return memindex.TagSkills
	case component.TypeRelationships:
		return memindex.TagRelationships
	default:
		return memindex.TagSystems
	}
}

// ComponentCreate creates a new component and registers it in the L0 index.
func (e *Engine) ComponentCreate(typ, key, summary string) error {
	if typ == "" || key == "" {
		return ErrInvalidArgument
	}
	if err := e.components.Create(typ, key, summary); err != nil {
		return fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	if err := e.index.UpdateEntry(tagFor(typ), key, "★ created"); err != nil {
		log.Printf("WARNING: updating L0 for %s/%s: %v", typ, key, err)
	}
	e.bus.Emit(event.KindComponentCreate, component.Scope(typ, key), "component created")
	return nil
}

// LoadResult is the aggregate component_load response.
type LoadResult struct {
	Summary         string
	RecentChangelog []changelog.Entry
	Raw             []component.RawFile
}

// ComponentLoad marks scope as in-process loaded and returns its summary,
// newest-10 changelog, and raw manifest.
func (e *Engine) ComponentLoad(scope string) (LoadResult, error) {
	typ, key, ok := component.ParseScope(scope)
	if !ok {
		return LoadResult{}, ErrInvalidArgument
	}

	summary, err := e.components.Load(typ, key)
	if err != nil {
		if errors.Is(err, component.ErrNotFound) {
			return LoadResult{}, ErrNotFound
		}
		return LoadResult{}, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	recent, err := e.changelogs.RecentN(typ, key, 10)
	if err != nil {
		return LoadResult{}, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	raw, err := e.components.RawManifest(typ, key)
	if err != nil {
		return LoadResult{}, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}

	e.bus.Emit(event.KindComponentLoad, scope, "component loaded")
	return LoadResult{Summary: summary, RecentChangelog: recent, Raw: raw}, nil
}

// ComponentUnload clears the in-process loaded flag, returning whether it
// was set.
func (e *Engine) ComponentUnload(scope string) (bool, error) {
	typ, key, ok := component.ParseScope(scope)
	if !ok {
		return false, ErrInvalidArgument
	}
	was := e.components.Unload(typ, key)
	e.bus.Emit(event.KindComponentUnload, scope, "component unloaded")
	return was, nil
}

// SummaryGet returns a component's summary content.
func (e *Engine) SummaryGet(scope string) (string, error) {
	typ, key, ok := component.ParseScope(scope)
	if !ok {
		return "", ErrInvalidArgument
	}
	summary, err := e.components.GetSummary(typ, key)
	if err != nil {
		if errors.Is(err, component.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	return summary, nil
}

// SummaryUpdate rewrites a component's summary, running an advisory
// validation pass first (advisory only — a risk never blocks the write)
// and updating the L0 index entry.
func (e *Engine) SummaryUpdate(ctx context.Context, scope, content string) error {
	typ, key, ok := component.ParseScope(scope)
	if !ok {
		return ErrInvalidArgument
	}

	existing, err := e.components.GetSummary(typ, key)
	if err == nil && existing != "" {
		if _, verr := e.validator.Validate(ctx, validator.Input{
			Scope:           scope,
			Content:         content,
			Type:            validator.ContentSummary,
			ExistingSummary: existing,
		}); verr != nil {
			log.Printf("WARNING: validating summary update for %s: %v", scope, verr)
		}
	}

	if err := e.components.UpdateSummary(typ, key, content); err != nil {
		if errors.Is(err, component.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrBackingStore, err)
	}

	if err := e.index.UpdateEntry(tagFor(typ), key, "★ updated"); err != nil {
		log.Printf("WARNING: updating L0 for %s: %v", scope, err)
	}

	e.bus.Emit(event.KindSummaryUpdate, scope, "summary updated")
	return nil
}

// SummaryVerify marks a component's summary as freshly verified.
func (e *Engine) SummaryVerify(scope string) error {
	typ, key, ok := component.ParseScope(scope)
	if !ok {
		return ErrInvalidArgument
	}
	if err := e.components.VerifySummary(typ, key, e.now()); err != nil {
		if errors.Is(err, component.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	return nil
}
