package health

import (
	"errors"
	"testing"
	"time"

	"github.com/open-palace/openpalace/internal/config"
)

type fakeIndex struct {
	doc string
	err error
}

func (f fakeIndex) Get() (string, error) { return f.doc, f.err }

type fakeComponents struct {
	keys  map[string][]string
	stale map[string]bool
}

func (f fakeComponents) List(typ string) ([]string, error) { return f.keys[typ], nil }
func (f fakeComponents) StalenessGap(typ, key string) (time.Duration, error) {
	if f.stale[typ+"/"+key] {
		return 3 * 24 * time.Hour, nil
	}
	return 0, nil
}

type fakeEntities struct {
	ids []string
	err error
}

func (f fakeEntities) List() ([]string, error) { return f.ids, f.err }

type fakeVCS struct {
	clean bool
	err   error
}

func (f fakeVCS) Clean() (bool, error) { return f.clean, f.err }

type fakeConfig struct {
	exists bool
	err    error
}

func (f fakeConfig) Exists() bool { return f.exists }
func (f fakeConfig) Load() (config.Document, error) {
	if f.err != nil {
		return config.Document{}, f.err
	}
	return config.Default(), nil
}

func TestIndexConsistencyFlagsOrphanDirectory(t *testing.T) {
	c := &Checker{
		Index:      fakeIndex{doc: "```\n[P] beta | status\n```"},
		Components: fakeComponents{keys: map[string][]string{"projects": {"alpha"}}},
	}
	report := c.Run()
	found := false
	for _, iss := range report.Issues {
		if iss.Category == CategoryOrphanIndex {
			found = true
		}
	}
	if !found {
		t.Fatalf("got %+v, want an index-consistency issue for the mismatch", report.Issues)
	}
}

func TestIndexConsistencyCleanWhenMatched(t *testing.T) {
	c := &Checker{
		Index:      fakeIndex{doc: "```\n[P] alpha | status\n```"},
		Components: fakeComponents{keys: map[string][]string{"projects": {"alpha"}}},
	}
	report := c.Run()
	if len(report.Issues) != 0 {
		t.Fatalf("got %+v, want no issues", report.Issues)
	}
	if !report.Success {
		t.Fatal("expected success with no issues")
	}
}

// A key shared by two component types must not mask an orphan in either one
// — the L0 line for projects/alpha and the directory for knowledge/alpha
// happen to share the bare key "alpha", but that's a coincidence, not a
// match.
func TestIndexConsistencyDistinguishesSameKeyAcrossTypes(t *testing.T) {
	c := &Checker{
		Index:      fakeIndex{doc: "```\n[P] alpha | status\n```"},
		Components: fakeComponents{keys: map[string][]string{"knowledge": {"alpha"}}},
	}
	report := c.Run()

	var got []string
	for _, iss := range report.Issues {
		if iss.Category != CategoryOrphanIndex {
			t.Fatalf("got category %q, want %q", iss.Category, CategoryOrphanIndex)
		}
		got = append(got, iss.Description)
	}
	if len(got) != 2 {
		t.Fatalf("got %d issues %+v, want one for the orphan L0 line and one for the orphan directory", len(got), got)
	}
}

func TestStalenessFlagsNewerChangelog(t *testing.T) {
	c := &Checker{
		Components: fakeComponents{
			keys:  map[string][]string{"projects": {"alpha"}},
			stale: map[string]bool{"projects/alpha": true},
		},
	}
	report := c.Run()
	if len(report.Issues) != 1 || report.Issues[0].Category != CategoryStaleness {
		t.Fatalf("got %+v", report.Issues)
	}
}

func TestEntityPresenceWarnsWhenEmpty(t *testing.T) {
	c := &Checker{Entities: fakeEntities{ids: nil}}
	report := c.Run()
	if len(report.Issues) != 1 || report.Issues[0].Severity != SeverityWarning {
		t.Fatalf("got %+v", report.Issues)
	}
	if !report.Success {
		t.Fatal("a warning alone should not fail the report")
	}
}

func TestVersionControlErrorFailsReport(t *testing.T) {
	c := &Checker{VCS: fakeVCS{err: errors.New("git not found")}}
	report := c.Run()
	if report.Success {
		t.Fatal("expected an error-severity issue to fail the report")
	}
}

func TestVersionControlDirtyIsWarningOnly(t *testing.T) {
	c := &Checker{VCS: fakeVCS{clean: false}}
	report := c.Run()
	if !report.Success {
		t.Fatal("a dirty working tree should be a warning, not a failure")
	}
}

func TestConfigUninitializedIsWarning(t *testing.T) {
	c := &Checker{Config: fakeConfig{exists: false}}
	report := c.Run()
	if len(report.Issues) != 1 || report.Issues[0].Severity != SeverityWarning {
		t.Fatalf("got %+v", report.Issues)
	}
}

func TestConfigUnreadableIsError(t *testing.T) {
	c := &Checker{Config: fakeConfig{exists: true, err: errors.New("corrupt json")}}
	report := c.Run()
	if report.Success {
		t.Fatal("expected an unreadable config to fail the report")
	}
}

func TestNilDependenciesSkipTheirCategory(t *testing.T) {
	c := &Checker{}
	report := c.Run()
	if !report.Success || len(report.Issues) != 0 {
		t.Fatalf("got %+v, want a clean report when nothing is wired", report)
	}
}
