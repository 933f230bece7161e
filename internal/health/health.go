// Package health runs the consistency checks that make up the health
// report: structural drift across the index, components, entities, version
// control, and config, surfaced as typed, severity-tagged issues.
package health

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/open-palace/openpalace/internal/component"
	"github.com/open-palace/openpalace/internal/config"
)

// Category names one of the five check areas.
type Category string

const (
	CategoryOrphanIndex    Category = "orphan_index"
	CategoryStaleness      Category = "staleness"
	CategoryEntityPresence Category = "entity_presence"
	CategoryVersionControl Category = "version_control"
	CategoryConfig         Category = "config"
)

// Severity is error, warning, or info. Only error severities fail the
// overall report.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue is one finding.
type Issue struct {
	Category    Category `json:"category"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
}

// Report is the full health check result.
type Report struct {
	Success bool    `json:"success"`
	Issues  []Issue `json:"issues"`
}

var l0LineRe = regexp.MustCompile(`^\[(P|K|C|R|S)\] (\S+) \|`)

// Index is the subset of internal/memindex.Index health needs.
type Index interface {
	Get() (string, error)
}

// Components is the subset of internal/component.Store health needs.
type Components interface {
	List(typ string) ([]string, error)
	StalenessGap(typ, key string) (time.Duration, error)
}

// Entities is the subset of internal/entity.Registry health needs.
type Entities interface {
	List() ([]string, error)
}

// VCS is the subset of internal/vcs.Backer health needs.
type VCS interface {
	Clean() (bool, error)
}

// ConfigStore is the subset of internal/config.Store health needs.
type ConfigStore interface {
	Exists() bool
	Load() (config.Document, error)
}

// componentTypes lists every directory category the index consistency and
// component-listing checks walk.
var componentTypes = []string{"projects", "knowledge", "skills", "relationships"}

// Checker runs the five checks. Any dependency left nil skips its category
// entirely rather than failing the whole report — a store that hasn't wired
// up, say, version control yet still gets a useful report for everything
// else.
type Checker struct {
	Index      Index
	Components Components
	Entities   Entities
	VCS        VCS
	Config     ConfigStore
}

// Run executes all five checks and aggregates them into one Report.
func (c *Checker) Run() Report {
	var issues []Issue

	if c.Index != nil && c.Components != nil {
		issues = append(issues, c.checkIndexConsistency()...)
	}
	if c.Components != nil {
		issues = append(issues, c.checkStaleness()...)
	}
	if c.Entities != nil {
		issues = append(issues, c.checkEntityPresence()...)
	}
	if c.VCS != nil {
		issues = append(issues, c.checkVersionControl()...)
	}
	if c.Config != nil {
		issues = append(issues, c.checkConfig()...)
	}

	success := true
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			success = false
			break
		}
	}
	return Report{Success: success, Issues: issues}
}

// l0TagType maps an L0 tag letter to its backing component type. The
// systems tag (S) has no component directory and is excluded from the
// orphan check entirely.
var l0TagType = map[string]string{
	"P": "projects",
	"K": "knowledge",
	"C": "skills",
	"R": "relationships",
}

func (c *Checker) checkIndexConsistency() []Issue {
	var issues []Issue

	doc, err := c.Index.Get()
	if err != nil {
		return []Issue{{Category: CategoryOrphanIndex, Severity: SeverityError, Description: fmt.Sprintf("reading L0 index: %v", err)}}
	}

	l0Scopes := map[string]bool{}
	for _, line := range strings.Split(doc, "\n") {
		m := l0LineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		typ, ok := l0TagType[m[1]]
		if !ok {
			continue
		}
		l0Scopes[component.Scope(typ, m[2])] = true
	}

	dirScopes := map[string]bool{}
	for _, typ := range componentTypes {
		keys, err := c.Components.List(typ)
		if err != nil {
			continue
		}
		for _, k := range keys {
			dirScopes[component.Scope(typ, k)] = true
		}
	}

	for scope := range dirScopes {
		if !l0Scopes[scope] {
			issues = append(issues, Issue{Category: CategoryOrphanIndex, Severity: SeverityWarning,
				Description: fmt.Sprintf("component %q has no L0 index line", scope)})
		}
	}
	for scope := range l0Scopes {
		if !dirScopes[scope] {
			issues = append(issues, Issue{Category: CategoryOrphanIndex, Severity: SeverityWarning,
				Description: fmt.Sprintf("L0 index line %q has no backing component directory", scope)})
		}
	}
	return issues
}

func (c *Checker) checkStaleness() []Issue {
	var issues []Issue
	for _, typ := range componentTypes {
		keys, err := c.Components.List(typ)
		if err != nil {
			continue
		}
		for _, key := range keys {
			gap, err := c.Components.StalenessGap(typ, key)
			if err != nil {
				continue
			}
			if gap > 0 {
				now := time.Now()
				issues = append(issues, Issue{Category: CategoryStaleness, Severity: SeverityWarning,
					Description: fmt.Sprintf("%s/%s: changelog is newer than its summary (%s)",
						typ, key, humanize.RelTime(now.Add(-gap), now, "stale", ""))})
			}
		}
	}
	return issues
}

func (c *Checker) checkEntityPresence() []Issue {
	ids, err := c.Entities.List()
	if err != nil {
		return []Issue{{Category: CategoryEntityPresence, Severity: SeverityError, Description: fmt.Sprintf("listing entities: %v", err)}}
	}
	if len(ids) == 0 {
		return []Issue{{Category: CategoryEntityPresence, Severity: SeverityWarning, Description: "no entities are registered"}}
	}
	return nil
}

func (c *Checker) checkVersionControl() []Issue {
	clean, err := c.VCS.Clean()
	if err != nil {
		return []Issue{{Category: CategoryVersionControl, Severity: SeverityError, Description: fmt.Sprintf("checking working tree: %v", err)}}
	}
	if !clean {
		return []Issue{{Category: CategoryVersionControl, Severity: SeverityWarning, Description: "working tree has uncommitted changes"}}
	}
	return nil
}

func (c *Checker) checkConfig() []Issue {
	if !c.Config.Exists() {
		return []Issue{{Category: CategoryConfig, Severity: SeverityWarning, Description: "config has not been initialized"}}
	}
	if _, err := c.Config.Load(); err != nil {
		return []Issue{{Category: CategoryConfig, Severity: SeverityError, Description: fmt.Sprintf("reading config: %v", err)}}
	}
	return nil
}
