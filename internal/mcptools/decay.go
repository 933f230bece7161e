package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/open-palace/openpalace/internal/engine"
)

// ─── DecayPreviewTool ───────────────────────────────────────────────────────

// DecayPreviewTool handles the decay_preview MCP tool.
type DecayPreviewTool struct {
	engine *engine.Engine
}

func NewDecayPreviewTool(e *engine.Engine) *DecayPreviewTool { return &DecayPreviewTool{engine: e} }

func (t *DecayPreviewTool) Definition() mcp.Tool {
	return mcp.NewTool("decay_preview",
		mcp.WithDescription(
			"List changelog entries eligible for archival: old enough past max_age_days "+
				"and covered by a digest watermark, with temperature below threshold. "+
				"Does not archive anything — use system_execute(name=\"decay\", params={\"action\":\"run\"}) for that.",
		),
		mcp.WithNumber("threshold", mcp.Description("Temperature threshold override (default from config)")),
	)
}

func (t *DecayPreviewTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	threshold := float64Arg(req, "threshold")
	cands, err := t.engine.DecayPreview(threshold)
	if err != nil {
		return errResult("decay_preview", err), nil
	}
	if len(cands) == 0 {
		return mcp.NewToolResultText("No entries currently eligible for archival."), nil
	}
	return jsonResult(cands), nil
}

// ─── DecayPinTool ───────────────────────────────────────────────────────────

// DecayPinTool handles the decay_pin MCP tool.
type DecayPinTool struct {
	engine *engine.Engine
}

func NewDecayPinTool(e *engine.Engine) *DecayPinTool { return &DecayPinTool{engine: e} }

func (t *DecayPinTool) Definition() mcp.Tool {
	return mcp.NewTool("decay_pin",
		mcp.WithDescription("Pin or unpin a changelog entry ID, exempting it from decay archival while pinned."),
		mcp.WithString("entry_id", mcp.Required(), mcp.Description("Changelog entry ID")),
		mcp.WithString("action", mcp.Required(), mcp.Description("pin or unpin")),
	)
}

func (t *DecayPinTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entryID := req.GetString("entry_id", "")
	action := req.GetString("action", "")
	if entryID == "" {
		return mcp.NewToolResultError("'entry_id' is required"), nil
	}
	if action == "" {
		return mcp.NewToolResultError("'action' is required"), nil
	}

	if err := t.engine.DecayPin(entryID, action); err != nil {
		return errResult("decay_pin", err), nil
	}
	return mcp.NewToolResultText(entryID + ": " + action + " applied"), nil
}
