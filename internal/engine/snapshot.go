package engine

import (
	"errors"
	"fmt"

	"github.com/open-palace/openpalace/internal/event"
	"github.com/open-palace/openpalace/internal/snapshot"
)

// SnapshotSave overwrites the working-state singleton, inheriting any field
// not explicitly supplied in in from the prior snapshot.
func (e *Engine) SnapshotSave(in snapshot.Input) (*snapshot.Document, error) {
	doc, err := e.snapshots.Save(in)
	if err != nil {
		if errors.Is(err, snapshot.ErrMissingFocus) {
			return nil, ErrInvalidArgument
		}
		return nil, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	e.bus.Emit(event.KindSnapshotSave, "snapshot", doc.CurrentFocus)
	return doc, nil
}

// SnapshotRead returns the current snapshot, or nil if none has been saved.
func (e *Engine) SnapshotRead() (*snapshot.Document, error) {
	doc, err := e.snapshots.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	return doc, nil
}
