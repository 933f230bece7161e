// Package event is the post-write hook bus: every mutating operation emits
// exactly one typed event after its write durably lands, and a small set of
// handlers registered at boot react to it. A failing handler logs and never
// aborts the operation that triggered it. Each event kind carries only the
// fields relevant to it, so handlers switch on a tagged variant rather than
// reading an untyped bag of values.
package event

import (
	"log"

	"github.com/google/uuid"
)

// Kind tags one of the enumerated event kinds the bus carries.
type Kind string

const (
	KindIdentityChange       Kind = "identity.change"
	KindIdentityCreate       Kind = "identity.create"
	KindChangelogRecord      Kind = "changelog.record"
	KindSummaryUpdate        Kind = "summary.update"
	KindComponentCreate      Kind = "component.create"
	KindComponentLoad        Kind = "component.load"
	KindComponentUnload      Kind = "component.unload"
	KindIndexUpdate          Kind = "index.update"
	KindSystemExecute        Kind = "system.execute"
	KindSystemConfigure      Kind = "system.configure"
	KindWorkspaceSync        Kind = "workspace.sync"
	KindOnboardingComplete   Kind = "onboarding.complete"
	KindScratchWrite         Kind = "scratch.write"
	KindScratchPromote       Kind = "scratch.promote"
	KindSnapshotSave         Kind = "snapshot.save"
	KindRelationshipUpdate   Kind = "relationship.update"
)

// Event is the payload every handler receives. Scope and Summary are the
// two fields every event kind carries in common; Kind-specific data, when a
// handler needs more, is looked up by the handler itself through its own
// injected dependency rather than stuffed into this struct untyped. Kept
// minimal because every built-in handler here only needs scope + summary.
type Event struct {
	ID      string
	Kind    Kind
	Scope   string
	Summary string
}

// AltersState is the subset of event kinds the commit handler reacts to —
// any event kind that changes something durable. Kinds not listed here
// (system.execute, for one) are treated as informational and excluded.
func (e Event) AltersState() bool {
	switch e.Kind {
	case KindIdentityChange, KindIdentityCreate, KindChangelogRecord, KindSummaryUpdate,
		KindComponentCreate, KindComponentLoad, KindComponentUnload, KindIndexUpdate,
		KindSystemConfigure, KindWorkspaceSync, KindOnboardingComplete,
		KindScratchWrite, KindScratchPromote, KindSnapshotSave, KindRelationshipUpdate:
		return true
	default:
		return false
	}
}

// ChangesSearchableContent is the subset the reindex scheduler reacts to —
// events whose effect a search backend would need to pick up.
func (e Event) ChangesSearchableContent() bool {
	switch e.Kind {
	case KindChangelogRecord, KindSummaryUpdate, KindScratchWrite, KindScratchPromote,
		KindComponentCreate, KindWorkspaceSync:
		return true
	default:
		return false
	}
}

// Handler reacts to an emitted event. It must not panic; the bus itself
// recovers, but a well-behaved handler reports its own failures via logging.
type Handler func(Event)

// Bus holds handlers in registration order and dispatches events to all of
// them, isolating each handler's failure from the others and from the
// caller that emitted the event.
type Bus struct {
	handlers []Handler
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{}
}

// Register appends h to the handler list. Handlers run in registration
// order, so registering the commit handler before the reindex scheduler
// guarantees commit-then-reindex-scheduling.
func (b *Bus) Register(h Handler) {
	b.handlers = append(b.handlers, h)
}

// Emit builds an Event with a fresh ID and dispatches it to every
// registered handler in order. A handler that panics is caught and logged;
// it does not stop later handlers from running and never propagates to the
// caller.
func (b *Bus) Emit(kind Kind, scope, summary string) Event {
	ev := Event{
		ID:      uuid.NewString(),
		Kind:    kind,
		Scope:   scope,
		Summary: summary,
	}
	for _, h := range b.handlers {
		b.runHandler(h, ev)
	}
	return ev
}

func (b *Bus) runHandler(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("WARNING: event handler panicked on %s (%s): %v", ev.Kind, ev.Scope, r)
		}
	}()
	h(ev)
}

// CommitHandler returns a Handler that stages and commits every event
// satisfying AltersState, using commit as the underlying "stage all
// changes, record a commit" primitive (typically *vcs.Backer.Commit).
// Commit failures are logged and swallowed, following the
// VersionControlError propagation policy: never abort the caller's write.
func CommitHandler(commit func(message string) (string, error)) Handler {
	return func(ev Event) {
		if !ev.AltersState() {
			return
		}
		message := ev.Scope + ": " + ev.Summary
		if _, err := commit(message); err != nil {
			log.Printf("WARNING: version control commit failed for %s: %v", ev.Kind, err)
		}
	}
}

// ReindexHandler returns a Handler that schedules a debounced reindex for
// every event satisfying ChangesSearchableContent, using schedule as the
// underlying debounce primitive (typically the search router's
// ScheduleDebouncedReindex).
func ReindexHandler(schedule func()) Handler {
	return func(ev Event) {
		if !ev.ChangesSearchableContent() {
			return
		}
		schedule()
	}
}
