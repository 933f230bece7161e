package engine

import (
	"context"
	"fmt"

	"github.com/open-palace/openpalace/internal/changelog"
	"github.com/open-palace/openpalace/internal/component"
	"github.com/open-palace/openpalace/internal/event"
	"github.com/open-palace/openpalace/internal/validator"
)

// ChangelogRecord runs an advisory validation pass when requested (or when
// the entry is a decision and auto-validation is configured on), then
// always records the entry regardless of the verdict — validate_write's risk
// list is information for the caller to act on, never a reason for
// changelog_record itself to refuse a write.
func (e *Engine) ChangelogRecord(ctx context.Context, in changelog.Input) (changelog.Entry, []validator.Risk, error) {
	if in.Scope == "" || in.Summary == "" {
		return changelog.Entry{}, nil, ErrInvalidArgument
	}

	cfg, err := e.configStore.Load()
	if err != nil {
		return changelog.Entry{}, nil, fmt.Errorf("%w: loading config: %v", ErrBackingStore, err)
	}

	shouldValidate := in.Validate || (in.Type == changelog.TypeDecision && cfg.Validation.AutoValidateDecisions)

	var risks []validator.Risk
	if shouldValidate {
		verdict, verr := e.validateEntry(ctx, in, cfg.Validation.RecentEntryLimit)
		if verr == nil {
			risks = verdict.Risks
		}
	}

	entry, err := e.changelogs.Record(in)
	if err != nil {
		return changelog.Entry{}, risks, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}

	e.bus.Emit(event.KindChangelogRecord, in.Scope, entry.Summary)
	return entry, risks, nil
}

// gatherExistingContext collects up to recentLimit recent changelog entries
// and the current summary for scope, for a validator call that wasn't
// supplied either directly.
func (e *Engine) gatherExistingContext(scope string, recentLimit int) ([]validator.ExistingEntry, string) {
	typ, key, ok := component.ParseScope(scope)
	if !ok {
		return nil, ""
	}

	var existingEntries []validator.ExistingEntry
	if recent, err := e.changelogs.RecentN(typ, key, recentLimit); err == nil {
		for _, r := range recent {
			existingEntries = append(existingEntries, validator.ExistingEntry{
				ID:        r.ID,
				Summary:   r.Summary,
				Decision:  r.Decision,
				Rationale: r.Rationale,
			})
		}
	}

	var existingSummary string
	if summary, err := e.components.GetSummary(typ, key); err == nil {
		existingSummary = summary
	}

	return existingEntries, existingSummary
}

func (e *Engine) validateEntry(ctx context.Context, in changelog.Input, recentLimit int) (validator.Verdict, error) {
	existingEntries, existingSummary := e.gatherExistingContext(in.Scope, recentLimit)

	content := in.Summary
	if in.Decision != "" {
		content = in.Decision + "\n" + in.Summary
	}

	return e.validator.Validate(ctx, validator.Input{
		Scope:           in.Scope,
		Content:         content,
		Type:            validator.ContentChangelog,
		ExistingEntries: existingEntries,
		ExistingSummary: existingSummary,
	})
}

// ValidateWrite runs the standalone validate_write protocol operation. Per
// the validator's step 1, it gathers recent entries and the current summary
// itself when the caller didn't supply either — the MCP surface never does,
// so this is the only place that context gets filled in for a standalone call.
func (e *Engine) ValidateWrite(ctx context.Context, in validator.Input) (validator.Verdict, error) {
	if len(in.ExistingEntries) == 0 && in.ExistingSummary == "" {
		cfg, err := e.configStore.Load()
		if err != nil {
			return validator.Verdict{}, fmt.Errorf("%w: loading config: %v", ErrBackingStore, err)
		}
		in.ExistingEntries, in.ExistingSummary = e.gatherExistingContext(in.Scope, cfg.Validation.RecentEntryLimit)
	}

	verdict, err := e.validator.Validate(ctx, in)
	if err != nil {
		return validator.Verdict{}, fmt.Errorf("%w: %v", ErrValidationRisk, err)
	}
	return verdict, nil
}

// ChangelogQuery reads and filters changelog entries.
func (e *Engine) ChangelogQuery(q changelog.Query) ([]changelog.Entry, error) {
	entries, err := e.changelogs.Query(q)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	return entries, nil
}
