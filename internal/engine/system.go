package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/open-palace/openpalace/internal/event"
	"github.com/open-palace/openpalace/internal/summarizer"
	"github.com/open-palace/openpalace/internal/workspace"
)

// systemNames lists every named subsystem reachable through
// system_execute/system_status.
var systemNames = []string{"summarizer", "decay", "search", "workspace_sync", "health", "retrieval"}

// SystemList enumerates the named subsystems.
func (e *Engine) SystemList() []string {
	return append([]string(nil), systemNames...)
}

// SystemResult is the uniform shape system_execute returns.
type SystemResult struct {
	Success bool
	Message string
	Data    any
}

// SystemExecute dispatches a named subsystem action.
func (e *Engine) SystemExecute(ctx context.Context, name string, params map[string]any) (SystemResult, error) {
	switch name {
	case "summarizer":
		return e.executeSummarizer(ctx, params)
	case "decay":
		return e.executeDecay(params)
	case "search":
		n, err := e.SearchReindex()
		if err != nil {
			return SystemResult{}, err
		}
		return SystemResult{Success: true, Message: "reindexed", Data: n}, nil
	case "workspace_sync":
		result, err := e.WorkspaceSync()
		if err != nil {
			return SystemResult{}, err
		}
		return SystemResult{Success: true, Message: "synced", Data: result}, nil
	case "health":
		report := e.health.Run()
		return SystemResult{Success: report.Success, Message: "health check complete", Data: report}, nil
	case "retrieval":
		return e.executeRetrieval(ctx, params)
	default:
		return SystemResult{}, ErrInvalidArgument
	}
}

func stringParam(params map[string]any, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

func (e *Engine) executeSummarizer(ctx context.Context, params map[string]any) (SystemResult, error) {
	scope := stringParam(params, "scope")
	var result summarizer.Result
	var err error
	switch summarizer.Level(stringParam(params, "level")) {
	case summarizer.LevelSynthesis:
		result, err = e.summarizer.RunSynthesis(ctx)
	case summarizer.LevelReview:
		result, err = e.summarizer.RunReview(ctx)
	default:
		result, err = e.summarizer.RunDigest(ctx, scope)
	}
	if err != nil {
		return SystemResult{}, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	e.bus.Emit(event.KindSummaryUpdate, "summarizer", result.Message)
	return SystemResult{Success: result.Success, Message: result.Message, Data: result}, nil
}

func (e *Engine) executeDecay(params map[string]any) (SystemResult, error) {
	var threshold *float64
	if v, ok := params["threshold"].(float64); ok {
		threshold = &v
	}
	action := stringParam(params, "action")
	if action == "" {
		action = "preview"
	}
	switch action {
	case "run":
		result, err := e.DecayRun(threshold)
		if err != nil {
			return SystemResult{}, err
		}
		return SystemResult{Success: true, Message: fmt.Sprintf("archived %d entries", result.ArchivedCount), Data: result}, nil
	default:
		cands, err := e.DecayPreview(threshold)
		if err != nil {
			return SystemResult{}, err
		}
		return SystemResult{Success: true, Message: fmt.Sprintf("%d candidates", len(cands)), Data: cands}, nil
	}
}

func (e *Engine) executeRetrieval(ctx context.Context, params map[string]any) (SystemResult, error) {
	query := stringParam(params, "query")
	if query == "" {
		return SystemResult{}, ErrInvalidArgument
	}
	scope := stringParam(params, "scope")
	result, err := e.retrieval.Retrieve(ctx, query, scope)
	if err != nil {
		return SystemResult{}, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	return SystemResult{Success: true, Message: "retrieval complete", Data: result}, nil
}

// SystemStatus reports one named subsystem's persisted status, or every
// subsystem's when name is empty.
func (e *Engine) SystemStatus(name string) (map[string]any, error) {
	lookups := map[string]func() (any, error){
		"summarizer":     func() (any, error) { return e.summarizerStore.Load() },
		"decay":          func() (any, error) { return e.decayStateStore.Load() },
		"search":         func() (any, error) { return e.SearchStatus(), nil },
		"workspace_sync": func() (any, error) { return e.workspaceStore.Load() },
		"health":         func() (any, error) { return e.health.Run(), nil },
		"retrieval":      func() (any, error) { return "retrieval keeps no persistent state", nil },
	}

	if name != "" {
		fn, ok := lookups[name]
		if !ok {
			return nil, ErrInvalidArgument
		}
		v, err := fn()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBackingStore, err)
		}
		return map[string]any{name: v}, nil
	}

	out := map[string]any{}
	for _, n := range systemNames {
		v, err := lookups[n]()
		if err != nil {
			out[n] = "error: " + err.Error()
			continue
		}
		out[n] = v
	}
	e.recordSystemSnapshot(out)
	return out, nil
}

// recordSystemSnapshot persists the timestamp and subsystem names of the
// last full status aggregation, for operators diagnosing staleness between
// checks. Best-effort: a write failure here never fails the status report
// itself.
func (e *Engine) recordSystemSnapshot(out map[string]any) {
	names := make([]string, 0, len(out))
	for n := range out {
		names = append(names, n)
	}
	snapshot := struct {
		CheckedAt  string   `json:"checked_at"`
		Subsystems []string `json:"subsystems"`
	}{
		CheckedAt:  e.now().UTC().Format("2006-01-02T15:04:05Z"),
		Subsystems: names,
	}
	b, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(e.layout.SystemState(), b, 0o644)
}

// WorkspaceSync mirrors the configured watched files between the resolved
// workspace root and the store.
func (e *Engine) WorkspaceSync() (workspace.SyncResult, error) {
	cfg, err := e.configStore.Load()
	if err != nil {
		return workspace.SyncResult{}, fmt.Errorf("%w: loading config: %v", ErrBackingStore, err)
	}
	root := e.resolveWorkspaceRoot(cfg)
	if root == "" {
		return workspace.SyncResult{}, fmt.Errorf("%w: no workspace root resolved", ErrInvalidArgument)
	}

	var files []workspace.WatchedFile
	for _, name := range cfg.WorkspaceSync.WatchedFiles {
		f := workspace.WatchedFile{Name: name}
		if name == cfg.WorkspaceSync.PrimaryIdentityFile {
			f.Primary = true
			f.EntityID = defaultEntityID
		}
		files = append(files, f)
	}

	result, err := e.workspace.Sync(root, files)
	if err != nil {
		return workspace.SyncResult{}, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	if msg := workspace.SummaryMessage(result.Changed); msg != "" {
		e.bus.Emit(event.KindWorkspaceSync, "workspace", msg)
	}
	return result, nil
}
