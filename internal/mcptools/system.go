package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/open-palace/openpalace/internal/engine"
)

// ─── SystemListTool ─────────────────────────────────────────────────────────

// SystemListTool handles the system_list MCP tool.
type SystemListTool struct {
	engine *engine.Engine
}

func NewSystemListTool(e *engine.Engine) *SystemListTool { return &SystemListTool{engine: e} }

func (t *SystemListTool) Definition() mcp.Tool {
	return mcp.NewTool("system_list",
		mcp.WithDescription("List the named subsystems reachable through system_execute/system_status."),
	)
}

func (t *SystemListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(strings.Join(t.engine.SystemList(), "\n")), nil
}

// ─── SystemExecuteTool ──────────────────────────────────────────────────────

// SystemExecuteTool handles the system_execute MCP tool.
type SystemExecuteTool struct {
	engine *engine.Engine
}

func NewSystemExecuteTool(e *engine.Engine) *SystemExecuteTool { return &SystemExecuteTool{engine: e} }

func (t *SystemExecuteTool) Definition() mcp.Tool {
	return mcp.NewTool("system_execute",
		mcp.WithDescription(
			"Run a named subsystem action — summarizer (digest/synthesis/review), "+
				"decay (preview/run), search (reindex), workspace_sync, health, or "+
				"retrieval. See system_list for the full set; params vary by name.",
		),
		mcp.WithString("name", mcp.Required(), mcp.Description("Subsystem name, from system_list")),
		mcp.WithString("params", mcp.Description("JSON object of subsystem-specific parameters")),
	)
}

func (t *SystemExecuteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}

	params, err := parseParamsArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := t.engine.SystemExecute(ctx, name, params)
	if err != nil {
		return errResult("system_execute", err), nil
	}
	return jsonResult(result), nil
}

func parseParamsArg(req mcp.CallToolRequest) (map[string]any, error) {
	raw := req.GetString("params", "")
	if raw == "" {
		return nil, nil
	}
	var params map[string]any
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return nil, fmt.Errorf("'params' must be a JSON object: %w", err)
	}
	return params, nil
}

// ─── SystemStatusTool ───────────────────────────────────────────────────────

// SystemStatusTool handles the system_status MCP tool.
type SystemStatusTool struct {
	engine *engine.Engine
}

func NewSystemStatusTool(e *engine.Engine) *SystemStatusTool { return &SystemStatusTool{engine: e} }

func (t *SystemStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("system_status",
		mcp.WithDescription("Report one named subsystem's persisted status, or every subsystem's when name is omitted."),
		mcp.WithString("name", mcp.Description("Optional subsystem name to restrict the report to")),
	)
}

func (t *SystemStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := t.engine.SystemStatus(req.GetString("name", ""))
	if err != nil {
		return errResult("system_status", err), nil
	}
	return jsonResult(status), nil
}

// ─── SystemConfigureTool ────────────────────────────────────────────────────

// SystemConfigureTool handles the system_configure MCP tool. It is a thin
// alias over config_update, kept as its own protocol entry in the System
// family — both paths invalidate the same config cache.
type SystemConfigureTool struct {
	engine *engine.Engine
}

func NewSystemConfigureTool(e *engine.Engine) *SystemConfigureTool {
	return &SystemConfigureTool{engine: e}
}

func (t *SystemConfigureTool) Definition() mcp.Tool {
	return mcp.NewTool("system_configure",
		mcp.WithDescription("Set a configuration value by dotted path, invalidating dependent caches (e.g. the search router)."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Dotted config path, e.g. llm.mode")),
		mcp.WithString("value", mcp.Required(), mcp.Description("New value, as a string")),
	)
}

func (t *SystemConfigureTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	value := req.GetString("value", "")
	if path == "" {
		return mcp.NewToolResultError("'path' is required"), nil
	}

	doc, err := t.engine.ConfigUpdate(path, value)
	if err != nil {
		return errResult("system_configure", err), nil
	}
	return jsonResult(doc), nil
}
