package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/open-palace/openpalace/internal/engine"
)

// ─── ConfigGetTool ──────────────────────────────────────────────────────────

// ConfigGetTool handles the config_get MCP tool.
type ConfigGetTool struct {
	engine *engine.Engine
}

func NewConfigGetTool(e *engine.Engine) *ConfigGetTool { return &ConfigGetTool{engine: e} }

func (t *ConfigGetTool) Definition() mcp.Tool {
	return mcp.NewTool("config_get",
		mcp.WithDescription("Read a configuration value by dotted path, or the whole document when path is omitted."),
		mcp.WithString("path", mcp.Description("Dotted config path, e.g. decay.max_age_days")),
	)
}

func (t *ConfigGetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := t.engine.ConfigGet(req.GetString("path", ""))
	if err != nil {
		return errResult("config_get", err), nil
	}
	return jsonResult(v), nil
}

// ─── ConfigUpdateTool ───────────────────────────────────────────────────────

// ConfigUpdateTool handles the config_update MCP tool.
type ConfigUpdateTool struct {
	engine *engine.Engine
}

func NewConfigUpdateTool(e *engine.Engine) *ConfigUpdateTool { return &ConfigUpdateTool{engine: e} }

func (t *ConfigUpdateTool) Definition() mcp.Tool {
	return mcp.NewTool("config_update",
		mcp.WithDescription("Set a configuration value by dotted path, invalidating dependent caches (e.g. the search router)."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Dotted config path, e.g. llm.mode")),
		mcp.WithString("value", mcp.Required(), mcp.Description("New value, as a string")),
	)
}

func (t *ConfigUpdateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	value := req.GetString("value", "")
	if path == "" {
		return mcp.NewToolResultError("'path' is required"), nil
	}

	doc, err := t.engine.ConfigUpdate(path, value)
	if err != nil {
		return errResult("config_update", err), nil
	}
	return jsonResult(doc), nil
}

// ─── ConfigReferenceTool ────────────────────────────────────────────────────

// ConfigReferenceTool handles the config_reference MCP tool.
type ConfigReferenceTool struct {
	engine *engine.Engine
}

func NewConfigReferenceTool(e *engine.Engine) *ConfigReferenceTool {
	return &ConfigReferenceTool{engine: e}
}

func (t *ConfigReferenceTool) Definition() mcp.Tool {
	return mcp.NewTool("config_reference",
		mcp.WithDescription("List tunable config paths with their defaults, types, descriptions, and affected subsystem."),
		mcp.WithString("filter", mcp.Description("Optional substring filter, matched against path or affected subsystem")),
	)
}

func (t *ConfigReferenceTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.engine.ConfigReference(req.GetString("filter", ""))), nil
}
