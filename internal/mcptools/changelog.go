package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/open-palace/openpalace/internal/changelog"
	"github.com/open-palace/openpalace/internal/engine"
	"github.com/open-palace/openpalace/internal/validator"
)

// ─── ChangelogRecordTool ────────────────────────────────────────────────────

// ChangelogRecordTool handles the changelog_record MCP tool.
type ChangelogRecordTool struct {
	engine *engine.Engine
}

func NewChangelogRecordTool(e *engine.Engine) *ChangelogRecordTool {
	return &ChangelogRecordTool{engine: e}
}

func (t *ChangelogRecordTool) Definition() mcp.Tool {
	return mcp.NewTool("changelog_record",
		mcp.WithDescription(
			"Record an operation or decision entry. Decisions are validated against "+
				"existing component content by default, but a flagged risk is advisory "+
				"only — the entry is still written.",
		),
		mcp.WithString("scope", mcp.Required(), mcp.Description("Component scope, e.g. projects/alpha")),
		mcp.WithString("type", mcp.Required(), mcp.Description("operation or decision")),
		mcp.WithString("agent", mcp.Description("Entity ID recording this entry")),
		mcp.WithString("action", mcp.Description("Operation field: what was done")),
		mcp.WithString("target", mcp.Description("Operation field: what was affected")),
		mcp.WithString("decision", mcp.Description("Decision field: what was decided")),
		mcp.WithString("rationale", mcp.Description("Decision field: why")),
		mcp.WithString("alternatives", mcp.Description(
			"Decision field: JSON array of {\"option\":..,\"rejected_because\":..} objects")),
		mcp.WithString("summary", mcp.Required(), mcp.Description("One-line human-readable summary")),
		mcp.WithString("details", mcp.Description("Optional extended detail")),
		mcp.WithBoolean("validate", mcp.Description("Force validation even for an operation entry")),
	)
}

func (t *ChangelogRecordTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scope := req.GetString("scope", "")
	typ := req.GetString("type", "")
	summary := req.GetString("summary", "")
	if scope == "" {
		return mcp.NewToolResultError("'scope' is required"), nil
	}
	if typ == "" {
		return mcp.NewToolResultError("'type' is required"), nil
	}
	if summary == "" {
		return mcp.NewToolResultError("'summary' is required"), nil
	}

	var alternatives []changelog.Alternative
	if raw := req.GetString("alternatives", ""); raw != "" {
		if err := json.Unmarshal([]byte(raw), &alternatives); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("'alternatives' must be a JSON array: %v", err)), nil
		}
	}

	in := changelog.Input{
		Scope:        scope,
		Type:         changelog.Type(typ),
		Agent:        req.GetString("agent", ""),
		Action:       req.GetString("action", ""),
		Target:       req.GetString("target", ""),
		Decision:     req.GetString("decision", ""),
		Rationale:    req.GetString("rationale", ""),
		Alternatives: alternatives,
		Summary:      summary,
		Details:      req.GetString("details", ""),
		Validate:     boolArg(req, "validate", false),
	}

	entry, risks, err := t.engine.ChangelogRecord(ctx, in)
	if err != nil {
		return errResult("changelog_record", err), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Changelog entry recorded: %s\n", entry.ID)
	if len(risks) > 0 {
		fmt.Fprintf(&b, "\n⚠️ Validation flagged %d risk(s) — entry was recorded anyway:\n", len(risks))
		for _, r := range risks {
			fmt.Fprintf(&b, "- [%s/%s] %s\n", r.Severity, r.Type, r.Description)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── ChangelogQueryTool ─────────────────────────────────────────────────────

// ChangelogQueryTool handles the changelog_query MCP tool.
type ChangelogQueryTool struct {
	engine *engine.Engine
}

func NewChangelogQueryTool(e *engine.Engine) *ChangelogQueryTool {
	return &ChangelogQueryTool{engine: e}
}

func (t *ChangelogQueryTool) Definition() mcp.Tool {
	return mcp.NewTool("changelog_query",
		mcp.WithDescription("Query changelog entries, either one component's log (scope set) or the current global month log (scope omitted)."),
		mcp.WithString("scope", mcp.Description("Component scope; omit to read the global log")),
		mcp.WithString("type", mcp.Description("Filter by operation or decision")),
		mcp.WithString("agent", mcp.Description("Filter by recording agent")),
		mcp.WithNumber("limit", mcp.Description("Max entries returned (default 20)")),
	)
}

func (t *ChangelogQueryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := changelog.Query{
		Scope: req.GetString("scope", ""),
		Type:  changelog.Type(req.GetString("type", "")),
		Agent: req.GetString("agent", ""),
		Limit: intArg(req, "limit", 0),
	}
	entries, err := t.engine.ChangelogQuery(q)
	if err != nil {
		return errResult("changelog_query", err), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("No changelog entries matched."), nil
	}
	return jsonResult(entries), nil
}

// ─── ValidateWriteTool ──────────────────────────────────────────────────────

// ValidateWriteTool handles the validate_write MCP tool.
type ValidateWriteTool struct {
	engine *engine.Engine
}

func NewValidateWriteTool(e *engine.Engine) *ValidateWriteTool { return &ValidateWriteTool{engine: e} }

func (t *ValidateWriteTool) Definition() mcp.Tool {
	return mcp.NewTool("validate_write",
		mcp.WithDescription("Run the write validator standalone, without recording anything."),
		mcp.WithString("scope", mcp.Required(), mcp.Description("Component scope being validated against")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Proposed content")),
		mcp.WithString("type", mcp.Required(), mcp.Description("changelog or summary")),
	)
}

func (t *ValidateWriteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scope := req.GetString("scope", "")
	content := req.GetString("content", "")
	typ := req.GetString("type", "")
	if scope == "" {
		return mcp.NewToolResultError("'scope' is required"), nil
	}
	if content == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}
	if typ == "" {
		return mcp.NewToolResultError("'type' is required"), nil
	}

	verdict, err := t.engine.ValidateWrite(ctx, validator.Input{
		Scope:   scope,
		Content: content,
		Type:    validator.ContentType(typ),
	})
	if err != nil {
		return errResult("validate_write", err), nil
	}
	return jsonResult(verdict), nil
}
