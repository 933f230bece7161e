package mcptools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/open-palace/openpalace/internal/engine"
)

// ─── EntityListTool ─────────────────────────────────────────────────────────

// EntityListTool handles the entity_list MCP tool.
type EntityListTool struct {
	engine *engine.Engine
}

func NewEntityListTool(e *engine.Engine) *EntityListTool { return &EntityListTool{engine: e} }

func (t *EntityListTool) Definition() mcp.Tool {
	return mcp.NewTool("entity_list",
		mcp.WithDescription("List every registered entity (agent identity) ID."),
	)
}

func (t *EntityListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := t.engine.EntityList()
	if err != nil {
		return errResult("entity_list", err), nil
	}
	if len(ids) == 0 {
		return mcp.NewToolResultText("No entities registered yet."), nil
	}
	return mcp.NewToolResultText(strings.Join(ids, "\n")), nil
}

// ─── EntityGetSoulTool ──────────────────────────────────────────────────────

// EntityGetSoulTool handles the entity_get_soul MCP tool.
type EntityGetSoulTool struct {
	engine *engine.Engine
}

func NewEntityGetSoulTool(e *engine.Engine) *EntityGetSoulTool { return &EntityGetSoulTool{engine: e} }

func (t *EntityGetSoulTool) Definition() mcp.Tool {
	return mcp.NewTool("entity_get_soul",
		mcp.WithDescription("Read an entity's soul document — its core identity content."),
		mcp.WithString("entity_id", mcp.Required(), mcp.Description("Entity ID")),
	)
}

func (t *EntityGetSoulTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entityID := req.GetString("entity_id", "")
	if entityID == "" {
		return mcp.NewToolResultError("'entity_id' is required"), nil
	}
	soul, err := t.engine.EntityGetSoul(entityID)
	if err != nil {
		return errResult("entity_get_soul", err), nil
	}
	return mcp.NewToolResultText(soul), nil
}

// ─── EntityGetFullTool ──────────────────────────────────────────────────────

// EntityGetFullTool handles the entity_get_full MCP tool.
type EntityGetFullTool struct {
	engine *engine.Engine
}

func NewEntityGetFullTool(e *engine.Engine) *EntityGetFullTool { return &EntityGetFullTool{engine: e} }

func (t *EntityGetFullTool) Definition() mcp.Tool {
	return mcp.NewTool("entity_get_full",
		mcp.WithDescription("Read an entity's full record: soul, display name, description, host mappings, and evolution log."),
		mcp.WithString("entity_id", mcp.Required(), mcp.Description("Entity ID")),
	)
}

func (t *EntityGetFullTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entityID := req.GetString("entity_id", "")
	if entityID == "" {
		return mcp.NewToolResultError("'entity_id' is required"), nil
	}
	ent, err := t.engine.EntityGetFull(entityID)
	if err != nil {
		return errResult("entity_get_full", err), nil
	}
	return jsonResult(ent), nil
}

// ─── EntityCreateTool ───────────────────────────────────────────────────────

// EntityCreateTool handles the entity_create MCP tool.
type EntityCreateTool struct {
	engine *engine.Engine
}

func NewEntityCreateTool(e *engine.Engine) *EntityCreateTool { return &EntityCreateTool{engine: e} }

func (t *EntityCreateTool) Definition() mcp.Tool {
	return mcp.NewTool("entity_create",
		mcp.WithDescription("Register a new entity (agent identity)."),
		mcp.WithString("entity_id", mcp.Required(), mcp.Description("Stable identifier for the new entity")),
		mcp.WithString("display_name", mcp.Required(), mcp.Description("Human-readable display name")),
		mcp.WithString("description", mcp.Description("One-line description of the entity's role")),
		mcp.WithString("soul_content", mcp.Description("Initial soul document content")),
	)
}

func (t *EntityCreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entityID := req.GetString("entity_id", "")
	displayName := req.GetString("display_name", "")
	if entityID == "" {
		return mcp.NewToolResultError("'entity_id' is required"), nil
	}
	if displayName == "" {
		return mcp.NewToolResultError("'display_name' is required"), nil
	}
	description := req.GetString("description", "")
	soulContent := req.GetString("soul_content", "")

	ent, err := t.engine.EntityCreate(entityID, displayName, description, soulContent)
	if err != nil {
		return errResult("entity_create", err), nil
	}
	return jsonResult(ent), nil
}

// ─── EntityUpdateSoulTool ───────────────────────────────────────────────────

// EntityUpdateSoulTool handles the entity_update_soul MCP tool.
type EntityUpdateSoulTool struct {
	engine *engine.Engine
}

func NewEntityUpdateSoulTool(e *engine.Engine) *EntityUpdateSoulTool {
	return &EntityUpdateSoulTool{engine: e}
}

func (t *EntityUpdateSoulTool) Definition() mcp.Tool {
	return mcp.NewTool("entity_update_soul",
		mcp.WithDescription("Replace an entity's soul content, recording why it changed."),
		mcp.WithString("entity_id", mcp.Required(), mcp.Description("Entity ID")),
		mcp.WithString("content", mcp.Required(), mcp.Description("New soul content")),
		mcp.WithString("reason", mcp.Required(), mcp.Description("Why the soul is changing")),
	)
}

func (t *EntityUpdateSoulTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entityID := req.GetString("entity_id", "")
	content := req.GetString("content", "")
	reason := req.GetString("reason", "")
	if entityID == "" {
		return mcp.NewToolResultError("'entity_id' is required"), nil
	}
	if content == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}
	if reason == "" {
		return mcp.NewToolResultError("'reason' is required"), nil
	}

	ent, err := t.engine.EntityUpdateSoul(entityID, content, reason)
	if err != nil {
		return errResult("entity_update_soul", err), nil
	}
	return jsonResult(ent), nil
}

// ─── EntityLogEvolutionTool ─────────────────────────────────────────────────

// EntityLogEvolutionTool handles the entity_log_evolution MCP tool.
type EntityLogEvolutionTool struct {
	engine *engine.Engine
}

func NewEntityLogEvolutionTool(e *engine.Engine) *EntityLogEvolutionTool {
	return &EntityLogEvolutionTool{engine: e}
}

func (t *EntityLogEvolutionTool) Definition() mcp.Tool {
	return mcp.NewTool("entity_log_evolution",
		mcp.WithDescription("Append an evolution-log entry to an entity without touching its soul content."),
		mcp.WithString("entity_id", mcp.Required(), mcp.Description("Entity ID")),
		mcp.WithString("change_summary", mcp.Required(), mcp.Description("What changed or was learned")),
		mcp.WithString("source", mcp.Description("Where the observation came from, e.g. 'self-reflection' or 'user-feedback'")),
	)
}

func (t *EntityLogEvolutionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entityID := req.GetString("entity_id", "")
	changeSummary := req.GetString("change_summary", "")
	if entityID == "" {
		return mcp.NewToolResultError("'entity_id' is required"), nil
	}
	if changeSummary == "" {
		return mcp.NewToolResultError("'change_summary' is required"), nil
	}
	source := req.GetString("source", "")

	if err := t.engine.EntityLogEvolution(entityID, changeSummary, source); err != nil {
		return errResult("entity_log_evolution", err), nil
	}
	return mcp.NewToolResultText("Evolution entry recorded for " + entityID), nil
}
