package engine

import "fmt"

// IndexGet returns the full L0 master index document.
func (e *Engine) IndexGet() (string, error) {
	doc, err := e.index.Get()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	return doc, nil
}

// IndexSearch returns L0 lines matching query, optionally restricted to
// scope.
func (e *Engine) IndexSearch(query, scope string) ([]string, error) {
	if query == "" {
		return nil, ErrInvalidArgument
	}
	hits, err := e.index.Search(query, scope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	return hits, nil
}
