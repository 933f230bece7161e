package search

import (
	"strings"
)

// Document is one unit of searchable text a corpus provider surfaces to a
// backend: a changelog entry, a component summary, or a scratch entry.
type Document struct {
	ID        string
	Content   string
	Source    string // "changelog" | "summary" | "scratch"
	Component string
}

// Corpus supplies the documents every in-process backend (Simple,
// Embedded-BM25) indexes. Its Collect method re-reads the live store each
// time Reindex runs — cheap enough for a single-process, file-backed store.
type Corpus interface {
	Collect() ([]Document, error)
}

// SimpleBackend is the always-available keyword scanner: score is the
// fraction of whitespace-split query terms present in the document,
// case-insensitive.
type SimpleBackend struct {
	corpus Corpus
	docs   []Document
}

// NewSimpleBackend returns a SimpleBackend over corpus.
func NewSimpleBackend(corpus Corpus) *SimpleBackend {
	return &SimpleBackend{corpus: corpus}
}

func (b *SimpleBackend) Name() string    { return "simple" }
func (b *SimpleBackend) Available() bool { return true }

func (b *SimpleBackend) Reindex() (int, error) {
	docs, err := b.corpus.Collect()
	if err != nil {
		return 0, err
	}
	b.docs = docs
	return len(docs), nil
}

func (b *SimpleBackend) Search(query, scope string, limit int) ([]Result, error) {
	if b.docs == nil {
		if _, err := b.Reindex(); err != nil {
			return nil, err
		}
	}
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, nil
	}

	var results []Result
	for _, d := range b.docs {
		if scope != "" && !strings.HasPrefix(d.Component, scope) {
			continue
		}
		lower := strings.ToLower(d.Content)
		matched := 0
		for _, t := range terms {
			if strings.Contains(lower, t) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		results = append(results, Result{
			ID:        d.ID,
			Content:   d.Content,
			Source:    d.Source,
			Score:     float64(matched) / float64(len(terms)),
			Component: d.Component,
		})
	}

	sortByScoreDesc(results)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func sortByScoreDesc(results []Result) {
	for i := 1; i < len(results); i++ {
		j := i
		for j > 0 && results[j-1].Score < results[j].Score {
			results[j-1], results[j] = results[j], results[j-1]
			j--
		}
	}
}
