package engine

import (
	"fmt"

	"github.com/open-palace/openpalace/internal/event"
	"github.com/open-palace/openpalace/internal/relationship"
)

// RelationshipGet returns an entity's relationship profile, or nil if it
// has never been touched.
func (e *Engine) RelationshipGet(entityID string) (*relationship.Record, error) {
	rec, err := e.relationships.Get(entityID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	return rec, nil
}

// RelationshipUpdateProfile merges non-zero profile fields into the stored
// record, creating it (and its backing component) on first touch.
func (e *Engine) RelationshipUpdateProfile(entityID string, typ relationship.Type, profile relationship.Profile) (*relationship.Record, error) {
	rec, err := e.relationships.UpdateProfile(entityID, typ, profile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	e.bus.Emit(event.KindRelationshipUpdate, "relationships/"+entityID, "profile updated")
	return rec, nil
}

// RelationshipLogInteraction increments tag counts and touches last-seen
// time.
func (e *Engine) RelationshipLogInteraction(entityID string, tags []string, note string) (*relationship.Record, error) {
	rec, err := e.relationships.LogInteraction(entityID, tags, note)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	e.bus.Emit(event.KindRelationshipUpdate, "relationships/"+entityID, "interaction logged")
	return rec, nil
}

// RelationshipUpdateTrust applies a clamped trust delta and appends history.
func (e *Engine) RelationshipUpdateTrust(entityID string, delta float64, reason string) (*relationship.Record, error) {
	rec, err := e.relationships.UpdateTrust(entityID, delta, reason)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	e.bus.Emit(event.KindRelationshipUpdate, "relationships/"+entityID, reason)
	return rec, nil
}
