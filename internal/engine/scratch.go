package engine

import (
	"errors"
	"fmt"

	"github.com/open-palace/openpalace/internal/event"
	"github.com/open-palace/openpalace/internal/scratch"
)

// ScratchWrite appends a working note to today's scratch file.
func (e *Engine) ScratchWrite(in scratch.WriteInput) (scratch.Entry, error) {
	if in.Content == "" {
		return scratch.Entry{}, ErrInvalidArgument
	}
	entry, err := e.scratch.Write(in)
	if err != nil {
		return scratch.Entry{}, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	e.bus.Emit(event.KindScratchWrite, "scratch/"+entry.ID, entry.Content)
	return entry, nil
}

// ScratchRead returns scratch entries matching in. Per scratch.ReadInput's
// documented convention, already-promoted entries are excluded by default —
// callers must explicitly ask to include them, since scratch.Store.Read
// itself has no notion of a default.
func (e *Engine) ScratchRead(in scratch.ReadInput, includePromotedSet bool) ([]scratch.Entry, error) {
	if !includePromotedSet {
		in.ExcludePromoted = true
	}
	entries, err := e.scratch.Read(in)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	return entries, nil
}

// ScratchPromote marks a scratch entry as promoted to scope.
func (e *Engine) ScratchPromote(id, scope string) (scratch.Entry, error) {
	entry, err := e.scratch.Promote(id, scope)
	if err != nil {
		if errors.Is(err, scratch.ErrAlreadyPromoted) {
			return scratch.Entry{}, ErrAlreadyPromoted
		}
		if errors.Is(err, scratch.ErrNotFound) {
			return scratch.Entry{}, ErrNotFound
		}
		return scratch.Entry{}, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	e.bus.Emit(event.KindScratchPromote, scope, "promoted "+id)
	return entry, nil
}

// ScratchStats reports today/yesterday/unpromoted counts.
func (e *Engine) ScratchStats() (scratch.Stats, error) {
	stats, err := e.scratch.StatsCount()
	if err != nil {
		return scratch.Stats{}, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	return stats, nil
}
