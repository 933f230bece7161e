// Embedded-BM25 backend: a lazily-built in-memory bleve index, the one
// ecosystem library in the pack that implements BM25-style scoring as an
// embeddable engine rather than delegating to SQLite's FTS5 (every BM25
// reference found across the retrieval pack's other_examples/ files is an
// FTS5 ranking call, not a standalone library — bleve is the real-world
// substitute for that capability over a file-tree store).
package search

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
)

// BM25Backend wraps an in-memory bleve index. bleve is compiled in, so the
// backend is always available; the index itself is built lazily on first
// Search or explicit Reindex.
type BM25Backend struct {
	corpus Corpus
	index  bleve.Index
	docs   map[string]Document
}

// NewBM25Backend returns a BM25Backend over corpus. The index is built
// lazily on first Search or explicit Reindex.
func NewBM25Backend(corpus Corpus) *BM25Backend {
	return &BM25Backend{corpus: corpus, docs: map[string]Document{}}
}

func (b *BM25Backend) Name() string { return "bm25" }

// Available reports whether the library is loadable, not whether the index
// has been built yet — bleve is linked into the binary, so this is always
// true. Search and Reindex build the index lazily on first use.
func (b *BM25Backend) Available() bool {
	return true
}

// Reindex rebuilds the in-memory index from scratch.
func (b *BM25Backend) Reindex() (int, error) {
	docs, err := b.corpus.Collect()
	if err != nil {
		return 0, err
	}

	mapping := bleve.NewIndexMapping()
	idx, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return 0, fmt.Errorf("search: building bm25 index: %w", err)
	}

	byID := make(map[string]Document, len(docs))
	for _, d := range docs {
		if err := idx.Index(d.ID, map[string]string{"content": d.Content, "component": d.Component, "source": d.Source}); err != nil {
			return 0, fmt.Errorf("search: indexing %q: %w", d.ID, err)
		}
		byID[d.ID] = d
	}

	if b.index != nil {
		_ = b.index.Close()
	}
	b.index = idx
	b.docs = byID
	return len(docs), nil
}

func (b *BM25Backend) Search(query, scope string, limit int) ([]Result, error) {
	if b.index == nil {
		if _, err := b.Reindex(); err != nil {
			return nil, err
		}
	}

	q := bleve.NewMatchQuery(query)
	q.SetField("content")
	req := bleve.NewSearchRequest(q)
	if limit > 0 {
		req.Size = limit * 3 // over-fetch before scope filtering
	}

	res, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search: bm25 query: %w", err)
	}

	var out []Result
	for _, hit := range res.Hits {
		doc, ok := b.docs[hit.ID]
		if !ok {
			continue
		}
		if scope != "" && (doc.Component == "" || len(doc.Component) < len(scope) || doc.Component[:len(scope)] != scope) {
			continue
		}
		out = append(out, Result{
			ID:        doc.ID,
			Content:   doc.Content,
			Source:    doc.Source,
			Score:     hit.Score,
			Component: doc.Component,
		})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
