package mcptools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/open-palace/openpalace/internal/engine"
	"github.com/open-palace/openpalace/internal/relationship"
)

// ─── RelationshipGetTool ────────────────────────────────────────────────────

// RelationshipGetTool handles the relationship_get MCP tool.
type RelationshipGetTool struct {
	engine *engine.Engine
}

func NewRelationshipGetTool(e *engine.Engine) *RelationshipGetTool { return &RelationshipGetTool{engine: e} }

func (t *RelationshipGetTool) Definition() mcp.Tool {
	return mcp.NewTool("relationship_get",
		mcp.WithDescription("Read an entity's relationship record: profile, interaction tags, and trust history."),
		mcp.WithString("entity_id", mcp.Required(), mcp.Description("Entity ID")),
	)
}

func (t *RelationshipGetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entityID := req.GetString("entity_id", "")
	if entityID == "" {
		return mcp.NewToolResultError("'entity_id' is required"), nil
	}
	rec, err := t.engine.RelationshipGet(entityID)
	if err != nil {
		return errResult("relationship_get", err), nil
	}
	if rec == nil {
		return mcp.NewToolResultText("No relationship recorded yet for " + entityID), nil
	}
	return jsonResult(rec), nil
}

// ─── RelationshipUpdateProfileTool ──────────────────────────────────────────

// RelationshipUpdateProfileTool handles the relationship_update_profile MCP tool.
type RelationshipUpdateProfileTool struct {
	engine *engine.Engine
}

func NewRelationshipUpdateProfileTool(e *engine.Engine) *RelationshipUpdateProfileTool {
	return &RelationshipUpdateProfileTool{engine: e}
}

func (t *RelationshipUpdateProfileTool) Definition() mcp.Tool {
	return mcp.NewTool("relationship_update_profile",
		mcp.WithDescription("Update an entity's relationship profile, creating its backing component on first touch."),
		mcp.WithString("entity_id", mcp.Required(), mcp.Description("Entity ID")),
		mcp.WithString("type", mcp.Required(), mcp.Description("user, agent, or external")),
		mcp.WithString("style", mcp.Description("Preferred interaction style")),
		mcp.WithString("expertise", mcp.Description("JSON array of expertise area strings")),
		mcp.WithString("language_pref", mcp.Description("JSON array of language preference strings")),
		mcp.WithString("notes", mcp.Description("Free-text notes")),
	)
}

func (t *RelationshipUpdateProfileTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entityID := req.GetString("entity_id", "")
	typ := req.GetString("type", "")
	if entityID == "" {
		return mcp.NewToolResultError("'entity_id' is required"), nil
	}
	if typ == "" {
		return mcp.NewToolResultError("'type' is required"), nil
	}

	expertise, err := stringSliceArg(req, "expertise")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	languagePref, err := stringSliceArg(req, "language_pref")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	profile := relationship.Profile{
		Style:        req.GetString("style", ""),
		Expertise:    expertise,
		LanguagePref: languagePref,
		Notes:        req.GetString("notes", ""),
	}

	rec, err := t.engine.RelationshipUpdateProfile(entityID, relationship.Type(typ), profile)
	if err != nil {
		return errResult("relationship_update_profile", err), nil
	}
	return jsonResult(rec), nil
}

// ─── RelationshipLogInteractionTool ─────────────────────────────────────────

// RelationshipLogInteractionTool handles the relationship_log_interaction MCP tool.
type RelationshipLogInteractionTool struct {
	engine *engine.Engine
}

func NewRelationshipLogInteractionTool(e *engine.Engine) *RelationshipLogInteractionTool {
	return &RelationshipLogInteractionTool{engine: e}
}

func (t *RelationshipLogInteractionTool) Definition() mcp.Tool {
	return mcp.NewTool("relationship_log_interaction",
		mcp.WithDescription("Record an interaction, incrementing the counts of its tags."),
		mcp.WithString("entity_id", mcp.Required(), mcp.Description("Entity ID")),
		mcp.WithString("tags", mcp.Required(), mcp.Description("JSON array of tag strings, e.g. [\"helpful\", \"direct\"]")),
		mcp.WithString("note", mcp.Description("Optional note about the interaction")),
	)
}

func (t *RelationshipLogInteractionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entityID := req.GetString("entity_id", "")
	if entityID == "" {
		return mcp.NewToolResultError("'entity_id' is required"), nil
	}
	rawTags := req.GetString("tags", "")
	if rawTags == "" {
		return mcp.NewToolResultError("'tags' is required"), nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(rawTags), &tags); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("'tags' must be a JSON array of strings: %v", err)), nil
	}

	rec, err := t.engine.RelationshipLogInteraction(entityID, tags, req.GetString("note", ""))
	if err != nil {
		return errResult("relationship_log_interaction", err), nil
	}
	return jsonResult(rec), nil
}

// ─── RelationshipUpdateTrustTool ────────────────────────────────────────────

// RelationshipUpdateTrustTool handles the relationship_update_trust MCP tool.
type RelationshipUpdateTrustTool struct {
	engine *engine.Engine
}

func NewRelationshipUpdateTrustTool(e *engine.Engine) *RelationshipUpdateTrustTool {
	return &RelationshipUpdateTrustTool{engine: e}
}

func (t *RelationshipUpdateTrustTool) Definition() mcp.Tool {
	return mcp.NewTool("relationship_update_trust",
		mcp.WithDescription("Adjust an entity's trust score by a delta, clamped to [0, 1], recording the unclamped delta and reason in history."),
		mcp.WithString("entity_id", mcp.Required(), mcp.Description("Entity ID")),
		mcp.WithNumber("delta", mcp.Required(), mcp.Description("Trust adjustment, positive or negative")),
		mcp.WithString("reason", mcp.Required(), mcp.Description("Why trust changed")),
	)
}

func (t *RelationshipUpdateTrustTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entityID := req.GetString("entity_id", "")
	if entityID == "" {
		return mcp.NewToolResultError("'entity_id' is required"), nil
	}
	delta := float64Arg(req, "delta")
	if delta == nil {
		return mcp.NewToolResultError("'delta' is required"), nil
	}
	reason := req.GetString("reason", "")
	if reason == "" {
		return mcp.NewToolResultError("'reason' is required"), nil
	}

	rec, err := t.engine.RelationshipUpdateTrust(entityID, *delta, reason)
	if err != nil {
		return errResult("relationship_update_trust", err), nil
	}
	return jsonResult(rec), nil
}
