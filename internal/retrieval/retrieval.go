// Package retrieval implements the query-time retrieval+digest pipeline:
// L0 search narrows to a handful of component scopes, their summaries and a
// focused search_data pass supply context, and the language model
// synthesizes an answer — degrading gracefully to raw hits when no model is
// available.
package retrieval

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/open-palace/openpalace/internal/search"
)

const (
	maxScopesFromIndex = 5
	fallbackScopeCount = 3
	searchDataLimit    = 15
)

var l0LineRe = regexp.MustCompile(`^\[(P|K|C|R|S)\] (\S+) \|`)

// Index is the subset of internal/memindex.Index retrieval needs.
type Index interface {
	Search(query, scope string) ([]string, error)
	Get() (string, error)
}

// Components is the subset of internal/component.Store retrieval needs.
type Components interface {
	GetSummary(typ, key string) (string, error)
}

// SearchRouter is the subset of internal/search.Router retrieval needs.
type SearchRouter interface {
	SearchData(forced, query, scope string, limit int) ([]search.Result, error)
}

// Asker is the high-level language-model helper (internal/llm.Caller.Ask).
// A nil Asker means no model is available.
type Asker func(ctx context.Context, systemPrompt, userMessage string) (string, error)

// Result is the outcome of one Retrieve call.
type Result struct {
	Scopes     []string
	Summaries  map[string]string
	Hits       []search.Result
	Synthesis  string
	Synthesized bool
}

// Retriever wires the steps together.
type Retriever struct {
	index      Index
	components Components
	router     SearchRouter
	ask        Asker
}

// New returns a Retriever.
func New(index Index, components Components, router SearchRouter, ask Asker) *Retriever {
	return &Retriever{index: index, components: components, router: router, ask: ask}
}

// Retrieve runs the full pipeline for query, optionally restricted to scope.
func (r *Retriever) Retrieve(ctx context.Context, query, scope string) (Result, error) {
	scopes, err := r.resolveScopes(query, scope)
	if err != nil {
		return Result{}, err
	}

	summaries := map[string]string{}
	for _, sc := range scopes {
		typ, key, ok := splitScope(sc)
		if !ok {
			continue
		}
		s, err := r.components.GetSummary(typ, key)
		if err != nil {
			continue
		}
		summaries[sc] = s
	}

	searchScope := ""
	if len(scopes) == 1 {
		searchScope = scopes[0]
	}
	hits, err := r.router.SearchData("auto", query, searchScope, searchDataLimit)
	if err != nil {
		return Result{}, fmt.Errorf("retrieval: search_data: %w", err)
	}

	result := Result{Scopes: scopes, Summaries: summaries, Hits: hits}

	if r.ask == nil {
		return result, nil
	}

	reply, err := r.ask(ctx, synthesisSystemPrompt(), synthesisUserPrompt(query, summaries, hits))
	if err != nil {
		// Model unavailable: degrade to raw hits and summaries, still a success.
		return result, nil
	}
	result.Synthesis = reply
	result.Synthesized = true
	return result, nil
}

// resolveScopes runs the L0 search step and maps hits to component scopes,
// capped at 5; if nothing matches, falls back to the first 3 lines listed
// in L0 at all.
func (r *Retriever) resolveScopes(query, scope string) ([]string, error) {
	hits, err := r.index.Search(query, scope)
	if err != nil {
		return nil, fmt.Errorf("retrieval: L0 search: %w", err)
	}

	var scopes []string
	seen := map[string]bool{}
	for _, line := range hits {
		sc, ok := scopeOf(line)
		if !ok || seen[sc] {
			continue
		}
		seen[sc] = true
		scopes = append(scopes, sc)
		if len(scopes) >= maxScopesFromIndex {
			break
		}
	}
	if len(scopes) > 0 {
		return scopes, nil
	}

	doc, err := r.index.Get()
	if err != nil {
		return nil, fmt.Errorf("retrieval: reading L0 for fallback: %w", err)
	}
	for _, line := range strings.Split(doc, "\n") {
		sc, ok := scopeOf(strings.TrimSpace(line))
		if !ok || seen[sc] {
			continue
		}
		seen[sc] = true
		scopes = append(scopes, sc)
		if len(scopes) >= fallbackScopeCount {
			break
		}
	}
	return scopes, nil
}

func scopeOf(line string) (string, bool) {
	m := l0LineRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	typ := typeForTag(m[1])
	if typ == "" {
		return "", false
	}
	return typ + "/" + m[2], true
}

func typeForTag(tag string) string {
	switch tag {
	case "P":
		return "projects"
	case "K":
		return "knowledge"
	case "C":
		return "skills"
	case "R":
		return "relationships"
	default:
		return ""
	}
}

func splitScope(scope string) (typ, key string, ok bool) {
	idx := strings.IndexByte(scope, '/')
	if idx < 0 {
		return "", "", false
	}
	return scope[:idx], scope[idx+1:], true
}

func synthesisSystemPrompt() string {
	return "Answer the user's question using only the provided summaries and search hits. Be concise and cite " +
		"which component or entry each claim comes from."
}

func synthesisUserPrompt(query string, summaries map[string]string, hits []search.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "QUESTION: %s\n\n", query)
	if len(summaries) > 0 {
		b.WriteString("COMPONENT SUMMARIES:\n")
		for scope, s := range summaries {
			fmt.Fprintf(&b, "## %s\n%s\n\n", scope, s)
		}
	}
	if len(hits) > 0 {
		b.WriteString("SEARCH HITS:\n")
		for _, h := range hits {
			fmt.Fprintf(&b, "- [%s] %s\n", h.Component, h.Content)
		}
	}
	return b.String()
}
