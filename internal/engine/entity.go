package engine

import (
	"errors"
	"fmt"
	"log"

	"github.com/open-palace/openpalace/internal/entity"
	"github.com/open-palace/openpalace/internal/event"
)

// EntityList enumerates registered entity IDs.
func (e *Engine) EntityList() ([]string, error) {
	ids, err := e.entities.List()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	return ids, nil
}

// EntityGetSoul returns an entity's soul_content, or ErrNotFound if it does
// not exist.
func (e *Engine) EntityGetSoul(entityID string) (string, error) {
	soul, ok, err := e.entities.GetSoul(entityID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	if !ok {
		return "", ErrNotFound
	}
	return soul, nil
}

// EntityGetFull returns the full entity record.
func (e *Engine) EntityGetFull(entityID string) (*entity.Entity, error) {
	ent, err := e.entities.Get(entityID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	if ent == nil {
		return nil, ErrNotFound
	}
	return ent, nil
}

// EntityCreate registers a new identity.
func (e *Engine) EntityCreate(entityID, displayName, description, initialSoul string) (*entity.Entity, error) {
	if entityID == "" {
		return nil, ErrInvalidArgument
	}
	ent, err := e.entities.Create(entityID, displayName, description, initialSoul)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	e.bus.Emit(event.KindIdentityCreate, entityID, "entity created")
	return ent, nil
}

// EntityUpdateSoul replaces an entity's soul_content, mirrors it into the
// entity's primary workspace file when one is mapped, and emits the
// identity.change event — storage first, workspace mirror second, event
// last.
func (e *Engine) EntityUpdateSoul(entityID, content, reason string) (*entity.Entity, error) {
	ent, err := e.entities.UpdateSoul(entityID, content, reason)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}

	e.mirrorSoulToWorkspace(ent, content)

	e.bus.Emit(event.KindIdentityChange, entityID, reason)
	return ent, nil
}

// EntityLogEvolution appends a bare evolution entry without touching
// soul_content.
func (e *Engine) EntityLogEvolution(entityID, changeSummary, source string) error {
	if err := e.entities.LogEvolution(entityID, changeSummary, source); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	e.bus.Emit(event.KindIdentityChange, entityID, changeSummary)
	return nil
}

// mirrorSoulToWorkspace writes content into ent's primary watched file on
// disk, if one is mapped. Failure is logged and swallowed — the workspace
// mirror is a best-effort convenience, never a reason to fail a soul update
// that already landed in storage.
func (e *Engine) mirrorSoulToWorkspace(ent *entity.Entity, content string) {
	mapping, ok := ent.PrimaryMapping()
	if !ok || len(mapping.WatchedFiles) == 0 {
		return
	}

	cfg, err := e.configStore.Load()
	if err != nil {
		log.Printf("WARNING: soul mirror for %s: loading config: %v", ent.EntityID, err)
		return
	}
	root := e.resolveWorkspaceRoot(cfg)
	if root == "" {
		return
	}
	if err := e.workspace.WriteSoulToWorkspace(root, mapping.WatchedFiles[0], content); err != nil {
		log.Printf("WARNING: soul mirror for %s: %v", ent.EntityID, err)
	}
}
