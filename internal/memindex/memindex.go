// Package memindex is the L0 master index: a single markdown document whose
// operational part is a fenced code block of status lines, one per
// component or registered system, always cheap enough to hold in context.
// The legend/tag grammar is its own small DSL — it is modeled here as a small
// line-oriented DSL instead of a generic markdown parser.
package memindex

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Tag is one of the five L0 tag letters.
type Tag string

const (
	TagProjects      Tag = "P"
	TagKnowledge     Tag = "K"
	TagSkills        Tag = "C"
	TagRelationships Tag = "R"
	TagSystems       Tag = "S"
)

const legend = "Legend: ★ active  ○ paused  ● done  ✕ blocked  ⟳MMDD last-updated  →focus  ⚑blocker"

var lineRe = regexp.MustCompile(`^\[(P|K|C|R|S)\] (\S+) \| (.+)$`)

const fenceOpen = "```"

// Index manages the L0 document at Path.
type Index struct {
	Path string
}

// New returns an Index backed by path.
func New(path string) *Index {
	return &Index{Path: path}
}

// Init writes an empty, well-formed L0 document if one does not exist yet.
func (ix *Index) Init() error {
	if _, err := os.Stat(ix.Path); err == nil {
		return nil
	}
	return ix.write("# Master Index\n\n" + fenceOpen + "\n" + legend + "\n" + fenceOpen + "\n")
}

// Get returns the full document.
func (ix *Index) Get() (string, error) {
	data, err := os.ReadFile(ix.Path)
	if err != nil {
		return "", fmt.Errorf("memindex: reading: %w", err)
	}
	return string(data), nil
}

// Search returns matching non-empty lines from the code block, case-
// insensitive substring, optionally restricted to scope (a path prefix
// matched against the line's key).
func (ix *Index) Search(query, scope string) ([]string, error) {
	doc, err := ix.Get()
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	var hits []string
	for _, line := range bodyLines(doc) {
		if line == "" || line == legend {
			continue
		}
		if !strings.Contains(strings.ToLower(line), q) {
			continue
		}
		if scope != "" {
			if m := lineRe.FindStringSubmatch(line); m == nil || !strings.HasPrefix(m[2], scope) {
				continue
			}
		}
		hits = append(hits, line)
	}
	return hits, nil
}

// UpdateEntry upserts by (tag, key): replaces an existing line with the same
// tag and key, or inserts it before the legend line if not found, or
// appends to the end of the code block if the legend anchor is also
// missing.
func (ix *Index) UpdateEntry(tag Tag, key, statusLine string) error {
	doc, err := ix.Get()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := ix.Init(); err != nil {
				return err
			}
			doc, err = ix.Get()
			if err != nil {
				return err
			}
		} else {
			return err
		}
	}

	newLine := fmt.Sprintf("[%s] %s | %s", tag, key, statusLine)

	lines := strings.Split(doc, "\n")
	fenceStart, fenceEnd := fenceBounds(lines)
	if fenceStart < 0 {
		return fmt.Errorf("memindex: no fenced code block found in %s", ix.Path)
	}

	replaced := false
	legendIdx := -1
	for i := fenceStart + 1; i < fenceEnd; i++ {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "Legend:") {
			legendIdx = i
			continue
		}
		m := lineRe.FindStringSubmatch(trimmed)
		if m != nil && Tag(m[1]) == tag && m[2] == key {
			lines[i] = newLine
			replaced = true
			break
		}
	}

	if !replaced {
		insertAt := fenceEnd
		if legendIdx >= 0 {
			insertAt = legendIdx
		}
		out := make([]string, 0, len(lines)+1)
		out = append(out, lines[:insertAt]...)
		out = append(out, newLine)
		out = append(out, lines[insertAt:]...)
		lines = out
	}

	return ix.write(strings.Join(lines, "\n"))
}

// Replace overwrites the entire document with content, used by the monthly
// review pass once the model has returned a rebuilt L0 block. content is
// wrapped in the standard heading and fence if it isn't already, so a
// caller can pass either a bare code-block body or a full document.
func (ix *Index) Replace(content string) error {
	trimmed := strings.TrimSpace(content)
	if !strings.Contains(trimmed, fenceOpen) {
		trimmed = "# Master Index\n\n" + fenceOpen + "\n" + trimmed + "\n" + legend + "\n" + fenceOpen
	}
	return ix.write(trimmed + "\n")
}

// Rebuild returns a fresh document built from entries without writing it;
// the monthly review pass stores the result with Replace.
func Rebuild(entries map[Tag]map[string]string) string {
	var b strings.Builder
	b.WriteString("# Master Index\n\n")
	b.WriteString(fenceOpen + "\n")
	for _, tag := range []Tag{TagProjects, TagKnowledge, TagSkills, TagRelationships, TagSystems} {
		keys := entries[tag]
		for key, status := range keys {
			fmt.Fprintf(&b, "[%s] %s | %s\n", tag, key, status)
		}
	}
	b.WriteString(legend + "\n")
	b.WriteString(fenceOpen + "\n")
	return b.String()
}

func (ix *Index) write(content string) error {
	return os.WriteFile(ix.Path, []byte(content), 0o644)
}

func bodyLines(doc string) []string {
	lines := strings.Split(doc, "\n")
	start, end := fenceBounds(lines)
	if start < 0 {
		return nil
	}
	return lines[start+1 : end]
}

func fenceBounds(lines []string) (start, end int) {
	start, end = -1, -1
	for i, l := range lines {
		if strings.TrimSpace(l) == fenceOpen {
			if start < 0 {
				start = i
			} else {
				end = i
				break
			}
		}
	}
	return start, end
}
