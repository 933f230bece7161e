// Package validator compares a proposed changelog or summary write against
// existing data and returns a structured risk list. It is advisory: callers
// decide whether a non-passing verdict aborts the write. Runs an LLM-primary
// pass with a heuristic fallback when the model call fails outright.
package validator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// RiskType is one of the four risk categories.
type RiskType string

const (
	RiskDuplicate     RiskType = "duplicate"
	RiskContradiction RiskType = "contradiction"
	RiskHallucination RiskType = "hallucination"
	RiskStaleOverride RiskType = "stale_override"
)

// Severity is one of error/warning/info.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Risk is one finding in a validation verdict.
type Risk struct {
	Type               RiskType `json:"type"`
	Severity           Severity `json:"severity"`
	Description        string   `json:"description"`
	ConflictingEntryID string   `json:"conflicting_entry_id,omitempty"`
}

// Verdict is the result of validate_write.
type Verdict struct {
	Passed     bool   `json:"passed"`
	Risks      []Risk `json:"risks,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// ContentType distinguishes a changelog write from a summary write.
type ContentType string

const (
	ContentChangelog ContentType = "changelog"
	ContentSummary   ContentType = "summary"
)

// ExistingEntry is one recent entry supplied as validation context.
type ExistingEntry struct {
	ID        string
	Summary   string
	Decision  string
	Rationale string
}

// Input is the parameter set for Validate.
type Input struct {
	Scope           string
	Content         string
	Type            ContentType
	ExistingEntries []ExistingEntry
	ExistingSummary string
}

// Asker is the high-level language-model helper (internal/llm.Caller.Ask).
type Asker func(ctx context.Context, systemPrompt, userMessage string) (string, error)

// Validator implements validate_write.
type Validator struct {
	ask Asker
}

// New returns a Validator that uses ask for the LLM-primary path.
func New(ask Asker) *Validator {
	return &Validator{ask: ask}
}

// Validate runs the LLM-primary check, falling back to heuristic duplicate
// detection when the model call fails outright. A model reply that parses
// but isn't valid JSON after fence-stripping is NOT a call failure — it
// yields passed=true with one info risk, not the heuristic fallback.
func (v *Validator) Validate(ctx context.Context, in Input) (Verdict, error) {
	if len(in.ExistingEntries) == 0 && in.ExistingSummary == "" {
		return Verdict{Passed: true}, nil
	}

	if v.ask == nil {
		return heuristicVerdict(in), nil
	}

	reply, err := v.ask(ctx, systemPrompt(), userPrompt(in))
	if err != nil {
		return heuristicVerdict(in), nil
	}

	verdict, ok := parseVerdict(reply)
	if !ok {
		return Verdict{Passed: true, Risks: []Risk{{
			Type:        RiskHallucination,
			Severity:    SeverityInfo,
			Description: "validator response was not parseable JSON",
		}}}, nil
	}
	return verdict, nil
}

func systemPrompt() string {
	return "You check a proposed memory write against existing entries for duplicates, contradictions, " +
		"hallucinated references, and overrides of settled decisions. Respond with strict JSON only: " +
		`{"passed": bool, "risks": [{"type": "duplicate|contradiction|hallucination|stale_override", ` +
		`"severity": "error|warning|info", "description": "...", "conflicting_entry_id": "..."}], "suggestion": "..."}`
}

func userPrompt(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "NEW CONTENT (%s, scope %s):\n%s\n\n", in.Type, in.Scope, in.Content)
	if in.ExistingSummary != "" {
		fmt.Fprintf(&b, "CURRENT SUMMARY:\n%s\n\n", in.ExistingSummary)
	}
	if len(in.ExistingEntries) > 0 {
		b.WriteString("RECENT ENTRIES:\n")
		for _, e := range in.ExistingEntries {
			fmt.Fprintf(&b, "- [%s] %s", e.ID, e.Summary)
			if e.Decision != "" {
				fmt.Fprintf(&b, " (decision: %s; rationale: %s)", e.Decision, e.Rationale)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// parseVerdict strips markdown fences before attempting to decode JSON,
// since models routinely wrap strict-JSON responses in ```json fences
// despite being told not to.
func parseVerdict(reply string) (Verdict, bool) {
	cleaned := stripFences(reply)
	var v Verdict
	if err := json.Unmarshal([]byte(cleaned), &v); err != nil {
		return Verdict{}, false
	}
	return v, true
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// heuristicVerdict implements the fallback: lowercase-trim equality, or
// containment in either direction for contents longer than 20 characters.
func heuristicVerdict(in Input) Verdict {
	content := strings.ToLower(strings.TrimSpace(in.Content))

	check := func(candidate, id string) *Risk {
		c := strings.ToLower(strings.TrimSpace(candidate))
		if c == "" {
			return nil
		}
		if c == content {
			return &Risk{Type: RiskDuplicate, Severity: SeverityWarning, Description: "matches existing content exactly", ConflictingEntryID: id}
		}
		if len(content) > 20 && len(c) > 20 && (strings.Contains(c, content) || strings.Contains(content, c)) {
			return &Risk{Type: RiskDuplicate, Severity: SeverityWarning, Description: "overlaps substantially with existing content", ConflictingEntryID: id}
		}
		return nil
	}

	var risks []Risk
	if r := check(in.ExistingSummary, ""); r != nil {
		risks = append(risks, *r)
	}
	for _, e := range in.ExistingEntries {
		if r := check(e.Decision, e.ID); r != nil {
			risks = append(risks, *r)
			continue
		}
		if r := check(e.Summary, e.ID); r != nil {
			risks = append(risks, *r)
		}
	}

	return Verdict{Passed: len(risks) == 0, Risks: risks}
}
