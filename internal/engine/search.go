package engine

import (
	"fmt"

	"github.com/open-palace/openpalace/internal/search"
)

const defaultSearchLimit = 15

// RawSearch runs a direct search_data query against the active backend.
func (e *Engine) RawSearch(query, scope string, limit int) ([]search.Result, error) {
	if query == "" {
		return nil, ErrInvalidArgument
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	results, err := e.searchRouter.SearchData(e.searchBackendChoice(), query, scope, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	return results, nil
}

// SearchReindex forces an immediate reindex of the active backend.
func (e *Engine) SearchReindex() (int, error) {
	n, err := e.searchRouter.Reindex(e.searchBackendChoice())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	return n, nil
}

// SearchStatus reports the router's current state.
func (e *Engine) SearchStatus() search.Status {
	return e.searchRouter.Status(e.searchBackendChoice())
}
