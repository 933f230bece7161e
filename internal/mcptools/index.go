package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/open-palace/openpalace/internal/engine"
)

// ─── IndexGetTool ───────────────────────────────────────────────────────────

// IndexGetTool handles the index_get MCP tool.
type IndexGetTool struct {
	engine *engine.Engine
}

// NewIndexGetTool creates an IndexGetTool bound to the engine.
func NewIndexGetTool(e *engine.Engine) *IndexGetTool {
	return &IndexGetTool{engine: e}
}

// Definition returns the MCP tool definition for index_get.
func (t *IndexGetTool) Definition() mcp.Tool {
	return mcp.NewTool("index_get",
		mcp.WithDescription(
			"Return the full L0 master index: a compressed overview of every "+
				"tracked project, skill, relationship, and system, one line per "+
				"entry. Call this first in a new session to see what exists.",
		),
	)
}

// Handle processes the index_get tool call.
func (t *IndexGetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := t.engine.IndexGet()
	if err != nil {
		return errResult("index_get", err), nil
	}
	return mcp.NewToolResultText(doc), nil
}

// ─── IndexSearchTool ────────────────────────────────────────────────────────

// IndexSearchTool handles the index_search MCP tool.
type IndexSearchTool struct {
	engine *engine.Engine
}

// NewIndexSearchTool creates an IndexSearchTool bound to the engine.
func NewIndexSearchTool(e *engine.Engine) *IndexSearchTool {
	return &IndexSearchTool{engine: e}
}

// Definition returns the MCP tool definition for index_search.
func (t *IndexSearchTool) Definition() mcp.Tool {
	return mcp.NewTool("index_search",
		mcp.WithDescription("Search the L0 master index for lines matching a query, optionally restricted to one scope."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search term to match against index lines")),
		mcp.WithString("scope", mcp.Description("Optional key prefix to restrict the search to, matched against each index line's key, e.g. alpha for projects/alpha")),
	)
}

// Handle processes the index_search tool call.
func (t *IndexSearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}
	scope := req.GetString("scope", "")

	hits, err := t.engine.IndexSearch(query, scope)
	if err != nil {
		return errResult("index_search", err), nil
	}
	if len(hits) == 0 {
		return mcp.NewToolResultText("No index lines matched that query."), nil
	}
	var out string
	for _, h := range hits {
		out += h + "\n"
	}
	return mcp.NewToolResultText(out), nil
}
