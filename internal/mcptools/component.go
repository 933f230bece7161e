package mcptools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/open-palace/openpalace/internal/engine"
)

// ─── ComponentListTool ──────────────────────────────────────────────────────

// ComponentListTool handles the component_list MCP tool.
type ComponentListTool struct {
	engine *engine.Engine
}

func NewComponentListTool(e *engine.Engine) *ComponentListTool { return &ComponentListTool{engine: e} }

func (t *ComponentListTool) Definition() mcp.Tool {
	return mcp.NewTool("component_list",
		mcp.WithDescription("List component scopes, optionally filtered by type (projects, knowledge, skills, relationships, systems)."),
		mcp.WithString("type", mcp.Description("Optional type filter")),
	)
}

func (t *ComponentListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typ := req.GetString("type", "")
	scopes, err := t.engine.ComponentList(typ)
	if err != nil {
		return errResult("component_list", err), nil
	}
	if len(scopes) == 0 {
		return mcp.NewToolResultText("No components found."), nil
	}
	return mcp.NewToolResultText(strings.Join(scopes, "\n")), nil
}

// ─── ComponentCreateTool ────────────────────────────────────────────────────

// ComponentCreateTool handles the component_create MCP tool.
type ComponentCreateTool struct {
	engine *engine.Engine
}

func NewComponentCreateTool(e *engine.Engine) *ComponentCreateTool {
	return &ComponentCreateTool{engine: e}
}

func (t *ComponentCreateTool) Definition() mcp.Tool {
	return mcp.NewTool("component_create",
		mcp.WithDescription("Create a new component (a project, skill, relationship, or system) with its initial summary."),
		mcp.WithString("type", mcp.Required(), mcp.Description("Component type: projects, knowledge, skills, relationships, or systems")),
		mcp.WithString("key", mcp.Required(), mcp.Description("Component key, unique within type")),
		mcp.WithString("summary", mcp.Required(), mcp.Description("Initial summary content")),
	)
}

func (t *ComponentCreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typ := req.GetString("type", "")
	key := req.GetString("key", "")
	summary := req.GetString("summary", "")
	if typ == "" {
		return mcp.NewToolResultError("'type' is required"), nil
	}
	if key == "" {
		return mcp.NewToolResultError("'key' is required"), nil
	}

	if err := t.engine.ComponentCreate(typ, key, summary); err != nil {
		return errResult("component_create", err), nil
	}
	return mcp.NewToolResultText("Component created: " + typ + "/" + key), nil
}

// ─── ComponentLoadTool ──────────────────────────────────────────────────────

// ComponentLoadTool handles the component_load MCP tool.
type ComponentLoadTool struct {
	engine *engine.Engine
}

func NewComponentLoadTool(e *engine.Engine) *ComponentLoadTool { return &ComponentLoadTool{engine: e} }

func (t *ComponentLoadTool) Definition() mcp.Tool {
	return mcp.NewTool("component_load",
		mcp.WithDescription("Load a component: its summary, recent changelog entries, and a manifest of its raw files."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Component scope, e.g. projects/alpha")),
	)
}

func (t *ComponentLoadTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := req.GetString("key", "")
	if key == "" {
		return mcp.NewToolResultError("'key' is required"), nil
	}
	result, err := t.engine.ComponentLoad(key)
	if err != nil {
		return errResult("component_load", err), nil
	}
	return jsonResult(result), nil
}

// ─── ComponentUnloadTool ────────────────────────────────────────────────────

// ComponentUnloadTool handles the component_unload MCP tool.
type ComponentUnloadTool struct {
	engine *engine.Engine
}

func NewComponentUnloadTool(e *engine.Engine) *ComponentUnloadTool {
	return &ComponentUnloadTool{engine: e}
}

func (t *ComponentUnloadTool) Definition() mcp.Tool {
	return mcp.NewTool("component_unload",
		mcp.WithDescription("Mark a component as unloaded from the caller's working set."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Component scope, e.g. projects/alpha")),
	)
}

func (t *ComponentUnloadTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := req.GetString("key", "")
	if key == "" {
		return mcp.NewToolResultError("'key' is required"), nil
	}
	was, err := t.engine.ComponentUnload(key)
	if err != nil {
		return errResult("component_unload", err), nil
	}
	if !was {
		return mcp.NewToolResultText(key + " was not loaded"), nil
	}
	return mcp.NewToolResultText(key + " unloaded"), nil
}

// ─── SummaryGetTool ─────────────────────────────────────────────────────────

// SummaryGetTool handles the summary_get MCP tool.
type SummaryGetTool struct {
	engine *engine.Engine
}

func NewSummaryGetTool(e *engine.Engine) *SummaryGetTool { return &SummaryGetTool{engine: e} }

func (t *SummaryGetTool) Definition() mcp.Tool {
	return mcp.NewTool("summary_get",
		mcp.WithDescription("Read a component's summary content."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Component scope, e.g. projects/alpha")),
	)
}

func (t *SummaryGetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := req.GetString("key", "")
	if key == "" {
		return mcp.NewToolResultError("'key' is required"), nil
	}
	summary, err := t.engine.SummaryGet(key)
	if err != nil {
		return errResult("summary_get", err), nil
	}
	return mcp.NewToolResultText(summary), nil
}

// ─── SummaryUpdateTool ──────────────────────────────────────────────────────

// SummaryUpdateTool handles the summary_update MCP tool.
type SummaryUpdateTool struct {
	engine *engine.Engine
}

func NewSummaryUpdateTool(e *engine.Engine) *SummaryUpdateTool { return &SummaryUpdateTool{engine: e} }

func (t *SummaryUpdateTool) Definition() mcp.Tool {
	return mcp.NewTool("summary_update",
		mcp.WithDescription(
			"Replace a component's summary content. A validation pass runs against "+
				"existing content but never blocks the write — risks, if any, are "+
				"reported alongside the confirmation.",
		),
		mcp.WithString("key", mcp.Required(), mcp.Description("Component scope, e.g. projects/alpha")),
		mcp.WithString("content", mcp.Required(), mcp.Description("New summary content")),
	)
}

func (t *SummaryUpdateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := req.GetString("key", "")
	content := req.GetString("content", "")
	if key == "" {
		return mcp.NewToolResultError("'key' is required"), nil
	}
	if content == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}

	if err := t.engine.SummaryUpdate(ctx, key, content); err != nil {
		return errResult("summary_update", err), nil
	}
	return mcp.NewToolResultText("Summary updated: " + key), nil
}

// ─── SummaryVerifyTool ──────────────────────────────────────────────────────

// SummaryVerifyTool handles the summary_verify MCP tool.
type SummaryVerifyTool struct {
	engine *engine.Engine
}

func NewSummaryVerifyTool(e *engine.Engine) *SummaryVerifyTool { return &SummaryVerifyTool{engine: e} }

func (t *SummaryVerifyTool) Definition() mcp.Tool {
	return mcp.NewTool("summary_verify",
		mcp.WithDescription("Refresh a component's access timestamp, confirming its summary is still current."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Component scope, e.g. projects/alpha")),
	)
}

func (t *SummaryVerifyTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := req.GetString("key", "")
	if key == "" {
		return mcp.NewToolResultError("'key' is required"), nil
	}
	if err := t.engine.SummaryVerify(key); err != nil {
		return errResult("summary_verify", err), nil
	}
	return mcp.NewToolResultText("Summary verified: " + key), nil
}
