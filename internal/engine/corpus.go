package engine

import (
	"fmt"
	"time"

	"github.com/open-palace/openpalace/internal/changelog"
	"github.com/open-palace/openpalace/internal/component"
	"github.com/open-palace/openpalace/internal/paths"
	"github.com/open-palace/openpalace/internal/scratch"
	"github.com/open-palace/openpalace/internal/search"
)

const maxSummaryDocLen = 2000

// storeCorpus implements search.Corpus by walking the component, changelog,
// and scratch stores each time a backend reindexes. Re-reading the live
// store on every Collect is cheap enough for a single-process, file-backed
// store of this scale.
type storeCorpus struct {
	layout     paths.Layout
	components *component.Store
	changelogs *changelog.Engine
	scratch    *scratch.Store
	now        func() time.Time
}

func (c *storeCorpus) Collect() ([]search.Document, error) {
	var docs []search.Document

	for _, typ := range []string{component.TypeProjects, component.TypeKnowledge, component.TypeSkills, component.TypeRelationships} {
		keys, err := c.components.List(typ)
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			scope := component.Scope(typ, key)
			summary, err := c.components.GetSummary(typ, key)
			if err != nil {
				continue
			}
			if len(summary) > maxSummaryDocLen {
				summary = summary[:maxSummaryDocLen]
			}
			docs = append(docs, search.Document{
				ID:        "summary:" + scope,
				Content:   summary,
				Source:    "summary",
				Component: scope,
			})

			entries, err := c.changelogs.AllEntries(typ, key)
			if err != nil {
				continue
			}
			for _, entry := range entries {
				docs = append(docs, search.Document{
					ID:        "changelog:" + entry.ID,
					Content:   changelogDocText(entry),
					Source:    "changelog",
					Component: scope,
				})
			}
		}
	}

	today := c.now().UTC().Format("2006-01-02")
	yesterday := c.now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	for _, date := range []string{today, yesterday} {
		entries, err := c.scratch.Read(scratch.ReadInput{Date: date, Limit: 0})
		if err != nil {
			continue
		}
		for _, e := range entries {
			docs = append(docs, search.Document{
				ID:      "scratch:" + e.ID,
				Content: e.Content,
				Source:  "scratch",
			})
		}
	}

	return docs, nil
}

func changelogDocText(entry changelog.Entry) string {
	return fmt.Sprintf("%s %s %s %s", entry.Summary, entry.Decision, entry.Rationale, entry.Details)
}
