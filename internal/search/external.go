// External CLI backend: dispatches search and reindex to a named binary on
// PATH, parsing its JSON stdout with gjson because the exact schema belongs
// to the external tool, not to this engine — a strict struct would break on
// every field that tool's authors add or rename.
package search

import (
	"bytes"
	"fmt"
	"os/exec"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// ExternalBackend shells out to binary for search and reindex. collection is
// the named index the backend ensures exists before first use.
type ExternalBackend struct {
	Binary     string
	Collection string
	Root       string // the store directory the collection covers

	ensured bool
}

// NewExternalBackend returns an ExternalBackend for binary, covering root
// under collection. If collection is empty, a stable name derived from root
// is generated once via a uuid so repeated runs against the same store
// reuse it instead of minting a fresh collection every boot.
func NewExternalBackend(binary, collection, root string) *ExternalBackend {
	if collection == "" {
		collection = "open-palace-" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(root)).String()
	}
	return &ExternalBackend{Binary: binary, Collection: collection, Root: root}
}

func (b *ExternalBackend) Name() string { return "external" }

func (b *ExternalBackend) Available() bool {
	_, err := exec.LookPath(b.Binary)
	return err == nil
}

func (b *ExternalBackend) ensureCollection() error {
	if b.ensured {
		return nil
	}
	if _, err := b.run("ensure-collection", b.Collection, b.Root); err != nil {
		return fmt.Errorf("search: ensuring external collection: %w", err)
	}
	b.ensured = true
	return nil
}

func (b *ExternalBackend) Reindex() (int, error) {
	if err := b.ensureCollection(); err != nil {
		return 0, err
	}
	out, err := b.run("reindex", b.Collection)
	if err != nil {
		return 0, fmt.Errorf("search: external reindex: %w", err)
	}
	return int(gjson.GetBytes(out, "indexed").Int()), nil
}

func (b *ExternalBackend) Search(query, scope string, limit int) ([]Result, error) {
	if err := b.ensureCollection(); err != nil {
		return nil, err
	}
	args := []string{"search", b.Collection, query, fmt.Sprintf("%d", limit)}
	if scope != "" {
		args = append(args, "--scope", scope)
	}
	out, err := b.run(args...)
	if err != nil {
		return nil, fmt.Errorf("search: external search: %w", err)
	}

	var results []Result
	for _, hit := range gjson.GetBytes(out, "results").Array() {
		comp := hit.Get("component").String()
		if scope != "" && (len(comp) < len(scope) || comp[:len(scope)] != scope) {
			continue
		}
		results = append(results, Result{
			ID:        hit.Get("id").String(),
			Content:   hit.Get("content").String(),
			Source:    hit.Get("source").String(),
			Score:     hit.Get("score").Float(),
			Component: comp,
		})
	}
	return results, nil
}

func (b *ExternalBackend) run(args ...string) ([]byte, error) {
	cmd := exec.Command(b.Binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s %v: %w: %s", b.Binary, args, err, stderr.String())
	}
	return stdout.Bytes(), nil
}
