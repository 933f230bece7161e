// Package search is the pluggable search router: backends register at boot
// in a total order, the router picks the first available one (or honors a
// forced config choice), and a debounced reindex scheduler coalesces bursts
// of writes into one rebuild. Every backend returns the same result shape
// regardless of how it matched, so callers never branch on which backend
// answered.
package search

import (
	"sync"
	"time"
)

// Result is the uniform shape every backend returns.
type Result struct {
	ID        string  `json:"id"`
	Content   string  `json:"content"`
	Source    string  `json:"source"`
	Score     float64 `json:"score"`
	Component string  `json:"component,omitempty"`
}

// Backend is the capability set a search implementation exposes. The
// router depends only on this interface, never on a concrete variant.
type Backend interface {
	Name() string
	Available() bool
	Search(query, scope string, limit int) ([]Result, error)
	Reindex() (int, error)
}

// Status reports the router's current state.
type Status struct {
	ActiveBackend    string    `json:"active_backend"`
	AvailableBackends []string `json:"available_backends"`
	LastReindex      time.Time `json:"last_reindex"`
	IndexedCount     int       `json:"indexed_count"`
}

// Router holds an ordered list of backends and the active-choice cache.
type Router struct {
	mu       sync.Mutex
	backends []Backend
	active   Backend

	lastReindex  time.Time
	indexedCount int

	debounceMS int
	timer      *time.Timer
	autoReindex bool
}

// New returns a Router over backends in registration-order preference.
func New(backends []Backend, autoReindex bool, debounceMS int) *Router {
	return &Router{backends: backends, autoReindex: autoReindex, debounceMS: debounceMS}
}

// Reset clears the cached active-backend choice, forcing the next query to
// re-select.
func (r *Router) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = nil
}

// choose picks a backend, honoring forced (config.search.backend) if it is
// not "auto" and is available; otherwise walks the ordered list.
func (r *Router) choose(forced string) Backend {
	if r.active != nil {
		return r.active
	}
	if forced != "" && forced != "auto" {
		for _, b := range r.backends {
			if b.Name() == forced && b.Available() {
				r.active = b
				return b
			}
		}
	}
	for _, b := range r.backends {
		if b.Available() {
			r.active = b
			return b
		}
	}
	return nil
}

// SearchData delegates to the chosen backend.
func (r *Router) SearchData(forced, query, scope string, limit int) ([]Result, error) {
	r.mu.Lock()
	b := r.choose(forced)
	r.mu.Unlock()
	if b == nil {
		return nil, nil
	}
	return b.Search(query, scope, limit)
}

// Reindex delegates to the chosen backend and records the reindex time and
// count.
func (r *Router) Reindex(forced string) (int, error) {
	r.mu.Lock()
	b := r.choose(forced)
	r.mu.Unlock()
	if b == nil {
		return 0, nil
	}
	n, err := b.Reindex()
	if err != nil {
		return 0, err
	}
	r.mu.Lock()
	r.lastReindex = time.Now().UTC()
	r.indexedCount = n
	r.mu.Unlock()
	return n, nil
}

// Status reports the router's current state.
func (r *Router) Status(forced string) Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	active := ""
	if b := r.choose(forced); b != nil {
		active = b.Name()
	}
	var names []string
	for _, b := range r.backends {
		if b.Available() {
			names = append(names, b.Name())
		}
	}
	return Status{
		ActiveBackend:     active,
		AvailableBackends: names,
		LastReindex:       r.lastReindex,
		IndexedCount:      r.indexedCount,
	}
}

// ScheduleDebouncedReindex starts or restarts a single-slot timer that
// invokes Reindex when it fires; repeated calls within the debounce window
// coalesce to one reindex.
func (r *Router) ScheduleDebouncedReindex(forced string) {
	if !r.autoReindex {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(time.Duration(r.debounceMS)*time.Millisecond, func() {
		_, _ = r.Reindex(forced)
	})
}
