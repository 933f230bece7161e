package validator

import (
	"context"
	"errors"
	"testing"
)

func TestValidateSkipsWhenNoExistingContext(t *testing.T) {
	v := New(nil)
	verdict, err := v.Validate(context.Background(), Input{Content: "new thing"})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !verdict.Passed || len(verdict.Risks) != 0 {
		t.Fatalf("got %+v, want a clean pass", verdict)
	}
}

func TestValidateHeuristicFallbackWithoutAsker(t *testing.T) {
	v := New(nil)
	verdict, err := v.Validate(context.Background(), Input{
		Content:         "the build pipeline now retries flaky steps three times",
		ExistingSummary: "the build pipeline now retries flaky steps three times",
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if verdict.Passed {
		t.Fatal("expected a duplicate risk for exact-match content")
	}
	if len(verdict.Risks) != 1 || verdict.Risks[0].Type != RiskDuplicate {
		t.Fatalf("got %+v", verdict.Risks)
	}
}

func TestValidateHeuristicFallbackOnAskerError(t *testing.T) {
	ask := func(ctx context.Context, sys, user string) (string, error) {
		return "", errors.New("model unreachable")
	}
	v := New(ask)
	verdict, err := v.Validate(context.Background(), Input{
		Content:         "short but identical text here",
		ExistingSummary: "short but identical text here",
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if verdict.Passed {
		t.Fatal("expected heuristic fallback to flag the duplicate")
	}
}

func TestValidateUsesModelVerdictWhenParseable(t *testing.T) {
	ask := func(ctx context.Context, sys, user string) (string, error) {
		return "```json\n" + `{"passed": false, "risks": [{"type": "contradiction", "severity": "error", "description": "conflicts with prior decision", "conflicting_entry_id": "dec_0806_001"}]}` + "\n```", nil
	}
	v := New(ask)
	verdict, err := v.Validate(context.Background(), Input{
		Content: "switch to the opposite approach",
		ExistingEntries: []ExistingEntry{
			{ID: "dec_0806_001", Decision: "adopted approach A", Rationale: "simplicity"},
		},
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if verdict.Passed {
		t.Fatal("expected the model verdict's failing result to be used as-is")
	}
	if len(verdict.Risks) != 1 || verdict.Risks[0].Type != RiskContradiction {
		t.Fatalf("got %+v", verdict.Risks)
	}
	if verdict.Risks[0].ConflictingEntryID != "dec_0806_001" {
		t.Fatalf("got conflicting id %q", verdict.Risks[0].ConflictingEntryID)
	}
}

func TestValidateDegradesGracefullyOnUnparseableReply(t *testing.T) {
	ask := func(ctx context.Context, sys, user string) (string, error) {
		return "I think this looks fine, no issues here.", nil
	}
	v := New(ask)
	verdict, err := v.Validate(context.Background(), Input{
		Content:         "some new note",
		ExistingSummary: "an unrelated prior note",
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !verdict.Passed {
		t.Fatal("expected graceful degrade to a passing verdict")
	}
	if len(verdict.Risks) != 1 || verdict.Risks[0].Severity != SeverityInfo {
		t.Fatalf("got %+v", verdict.Risks)
	}
}

func TestValidateShortContentNotFlaggedByContainment(t *testing.T) {
	v := New(nil)
	verdict, err := v.Validate(context.Background(), Input{
		Content:         "ok",
		ExistingSummary: "ok, this is a much longer unrelated line of text entirely",
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !verdict.Passed {
		t.Fatalf("got %+v, want pass: containment rule requires >20 chars on both sides", verdict)
	}
}
