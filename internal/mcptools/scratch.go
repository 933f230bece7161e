package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/open-palace/openpalace/internal/engine"
	"github.com/open-palace/openpalace/internal/scratch"
)

// ─── ScratchWriteTool ───────────────────────────────────────────────────────

// ScratchWriteTool handles the scratch_write MCP tool.
type ScratchWriteTool struct {
	engine *engine.Engine
}

func NewScratchWriteTool(e *engine.Engine) *ScratchWriteTool { return &ScratchWriteTool{engine: e} }

func (t *ScratchWriteTool) Definition() mcp.Tool {
	return mcp.NewTool("scratch_write",
		mcp.WithDescription("Append a cheap working note to today's scratch log."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Note content")),
		mcp.WithString("tags", mcp.Description("JSON array of tag strings, e.g. [\"idea\", \"todo\"]")),
	)
}

func (t *ScratchWriteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content := req.GetString("content", "")
	if content == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}
	tags, err := stringSliceArg(req, "tags")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	entry, err := t.engine.ScratchWrite(scratch.WriteInput{Content: content, Tags: tags})
	if err != nil {
		return errResult("scratch_write", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Scratch entry recorded: %s", entry.ID)), nil
}

// ─── ScratchReadTool ────────────────────────────────────────────────────────

// ScratchReadTool handles the scratch_read MCP tool.
type ScratchReadTool struct {
	engine *engine.Engine
}

func NewScratchReadTool(e *engine.Engine) *ScratchReadTool { return &ScratchReadTool{engine: e} }

func (t *ScratchReadTool) Definition() mcp.Tool {
	return mcp.NewTool("scratch_read",
		mcp.WithDescription("Read scratch entries for a day, optionally including the day before and/or already-promoted entries."),
		mcp.WithString("date", mcp.Description("YYYY-MM-DD; defaults to today")),
		mcp.WithString("tags", mcp.Description("JSON array of tag strings to filter by")),
		mcp.WithBoolean("include_yesterday", mcp.Description("Also read yesterday's entries")),
		mcp.WithNumber("limit", mcp.Description("Max entries returned")),
		mcp.WithBoolean("include_promoted", mcp.Description("Include entries already promoted to a component (default: excluded)")),
	)
}

func (t *ScratchReadTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := stringSliceArg(req, "tags")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	_, includePromotedSet := req.GetArguments()["include_promoted"]
	in := scratch.ReadInput{
		Date:             req.GetString("date", ""),
		Tags:             tags,
		IncludeYesterday: boolArg(req, "include_yesterday", false),
		Limit:            intArg(req, "limit", 0),
		ExcludePromoted:  !boolArg(req, "include_promoted", false),
	}

	entries, err := t.engine.ScratchRead(in, includePromotedSet)
	if err != nil {
		return errResult("scratch_read", err), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("No scratch entries found."), nil
	}
	return jsonResult(entries), nil
}

// ─── ScratchPromoteTool ─────────────────────────────────────────────────────

// ScratchPromoteTool handles the scratch_promote MCP tool.
type ScratchPromoteTool struct {
	engine *engine.Engine
}

func NewScratchPromoteTool(e *engine.Engine) *ScratchPromoteTool { return &ScratchPromoteTool{engine: e} }

func (t *ScratchPromoteTool) Definition() mcp.Tool {
	return mcp.NewTool("scratch_promote",
		mcp.WithDescription("Promote a scratch entry into a component scope, marking it no longer ephemeral."),
		mcp.WithString("scratch_id", mcp.Required(), mcp.Description("Scratch entry ID")),
		mcp.WithString("scope", mcp.Required(), mcp.Description("Destination component scope")),
	)
}

func (t *ScratchPromoteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("scratch_id", "")
	scope := req.GetString("scope", "")
	if id == "" {
		return mcp.NewToolResultError("'scratch_id' is required"), nil
	}
	if scope == "" {
		return mcp.NewToolResultError("'scope' is required"), nil
	}

	entry, err := t.engine.ScratchPromote(id, scope)
	if err != nil {
		return errResult("scratch_promote", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Scratch entry %s promoted to %s", entry.ID, scope)), nil
}

// ─── ScratchStatsTool ───────────────────────────────────────────────────────

// ScratchStatsTool handles the scratch_stats MCP tool.
type ScratchStatsTool struct {
	engine *engine.Engine
}

func NewScratchStatsTool(e *engine.Engine) *ScratchStatsTool { return &ScratchStatsTool{engine: e} }

func (t *ScratchStatsTool) Definition() mcp.Tool {
	return mcp.NewTool("scratch_stats",
		mcp.WithDescription("Count today's and yesterday's scratch entries, and how many remain unpromoted."),
	)
}

func (t *ScratchStatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := t.engine.ScratchStats()
	if err != nil {
		return errResult("scratch_stats", err), nil
	}
	return jsonResult(stats), nil
}
