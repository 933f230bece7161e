package mcptools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/open-palace/openpalace/internal/engine"
	"github.com/open-palace/openpalace/internal/snapshot"
)

// ─── SnapshotSaveTool ───────────────────────────────────────────────────────

// SnapshotSaveTool handles the snapshot_save MCP tool.
type SnapshotSaveTool struct {
	engine *engine.Engine
}

func NewSnapshotSaveTool(e *engine.Engine) *SnapshotSaveTool { return &SnapshotSaveTool{engine: e} }

func (t *SnapshotSaveTool) Definition() mcp.Tool {
	return mcp.NewTool("snapshot_save",
		mcp.WithDescription(
			"Overwrite the working-state snapshot. current_focus is required; every "+
				"other field, left unset, is inherited from the prior snapshot.",
		),
		mcp.WithString("current_focus", mcp.Required(), mcp.Description("What's being worked on right now")),
		mcp.WithString("updated_by", mcp.Description("Entity ID making this save")),
		mcp.WithString("active_tasks", mcp.Description(
			"JSON array of {\"description\":..,\"status\":\"active|blocked|waiting\",\"priority\":..,\"blockers\":[..]} objects")),
		mcp.WithString("blockers", mcp.Description("JSON array of blocker strings")),
		mcp.WithString("recent_decisions", mcp.Description("JSON array of recent decision strings")),
		mcp.WithString("context_notes", mcp.Description("Free-text context notes")),
		mcp.WithString("session_meta", mcp.Description("JSON object of arbitrary session metadata")),
	)
}

func (t *SnapshotSaveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	focus := req.GetString("current_focus", "")
	if focus == "" {
		return mcp.NewToolResultError("'current_focus' is required"), nil
	}

	in := snapshot.Input{CurrentFocus: focus}
	args := req.GetArguments()

	if v, ok := args["updated_by"]; ok {
		if s, ok := v.(string); ok {
			in = in.WithUpdatedBy(s)
		}
	}
	if raw, ok := args["active_tasks"].(string); ok {
		var tasks []snapshot.Task
		if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("'active_tasks' must be a JSON array: %v", err)), nil
		}
		in = in.WithActiveTasks(tasks)
	}
	if raw, ok := args["blockers"].(string); ok {
		var blockers []string
		if err := json.Unmarshal([]byte(raw), &blockers); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("'blockers' must be a JSON array: %v", err)), nil
		}
		in = in.WithBlockers(blockers)
	}
	if raw, ok := args["recent_decisions"].(string); ok {
		var decisions []string
		if err := json.Unmarshal([]byte(raw), &decisions); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("'recent_decisions' must be a JSON array: %v", err)), nil
		}
		in = in.WithRecentDecisions(decisions)
	}
	if v, ok := args["context_notes"]; ok {
		if s, ok := v.(string); ok {
			in = in.WithContextNotes(s)
		}
	}
	if raw, ok := args["session_meta"].(string); ok {
		var meta map[string]any
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("'session_meta' must be a JSON object: %v", err)), nil
		}
		in = in.WithSessionMeta(meta)
	}

	doc, err := t.engine.SnapshotSave(in)
	if err != nil {
		return errResult("snapshot_save", err), nil
	}
	return jsonResult(doc), nil
}

// ─── SnapshotReadTool ───────────────────────────────────────────────────────

// SnapshotReadTool handles the snapshot_read MCP tool.
type SnapshotReadTool struct {
	engine *engine.Engine
}

func NewSnapshotReadTool(e *engine.Engine) *SnapshotReadTool { return &SnapshotReadTool{engine: e} }

func (t *SnapshotReadTool) Definition() mcp.Tool {
	return mcp.NewTool("snapshot_read",
		mcp.WithDescription("Read the current working-state snapshot, or nothing if none has been saved yet."),
	)
}

func (t *SnapshotReadTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := t.engine.SnapshotRead()
	if err != nil {
		return errResult("snapshot_read", err), nil
	}
	if doc == nil {
		return mcp.NewToolResultText("No snapshot saved yet."), nil
	}
	return jsonResult(doc), nil
}
