package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/open-palace/openpalace/internal/engine"
)

// ─── RawSearchTool ──────────────────────────────────────────────────────────

// RawSearchTool handles the raw_search MCP tool.
type RawSearchTool struct {
	engine *engine.Engine
}

func NewRawSearchTool(e *engine.Engine) *RawSearchTool { return &RawSearchTool{engine: e} }

func (t *RawSearchTool) Definition() mcp.Tool {
	return mcp.NewTool("raw_search",
		mcp.WithDescription("Full-text search across indexed component summaries and changelog entries via the active search backend."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
		mcp.WithString("scope", mcp.Description("Optional scope prefix to restrict results to")),
		mcp.WithNumber("limit", mcp.Description("Max results returned (default 10)")),
	)
}

func (t *RawSearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}
	scope := req.GetString("scope", "")
	limit := intArg(req, "limit", 0)

	results, err := t.engine.RawSearch(query, scope, limit)
	if err != nil {
		return errResult("raw_search", err), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No results found."), nil
	}
	return jsonResult(results), nil
}

// ─── SearchReindexTool ──────────────────────────────────────────────────────

// SearchReindexTool handles the search_reindex MCP tool.
type SearchReindexTool struct {
	engine *engine.Engine
}

func NewSearchReindexTool(e *engine.Engine) *SearchReindexTool { return &SearchReindexTool{engine: e} }

func (t *SearchReindexTool) Definition() mcp.Tool {
	return mcp.NewTool("search_reindex",
		mcp.WithDescription("Force an immediate full reindex of the active search backend, bypassing the debounce window."),
	)
}

func (t *SearchReindexTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := t.engine.SearchReindex()
	if err != nil {
		return errResult("search_reindex", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Reindexed %d documents.", n)), nil
}

// ─── SearchStatusTool ───────────────────────────────────────────────────────

// SearchStatusTool handles the search_status MCP tool.
type SearchStatusTool struct {
	engine *engine.Engine
}

func NewSearchStatusTool(e *engine.Engine) *SearchStatusTool { return &SearchStatusTool{engine: e} }

func (t *SearchStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("search_status",
		mcp.WithDescription("Report which search backend is active and its basic health."),
	)
}

func (t *SearchStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.engine.SearchStatus()), nil
}
