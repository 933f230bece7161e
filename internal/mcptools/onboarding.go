package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/open-palace/openpalace/internal/engine"
)

// ─── OnboardingStatusTool ───────────────────────────────────────────────────

// OnboardingStatusTool handles the onboarding_status MCP tool.
type OnboardingStatusTool struct {
	engine *engine.Engine
}

func NewOnboardingStatusTool(e *engine.Engine) *OnboardingStatusTool {
	return &OnboardingStatusTool{engine: e}
}

func (t *OnboardingStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("onboarding_status",
		mcp.WithDescription("Report whether the store has been initialized: entity/component counts and skip_agents config."),
	)
}

func (t *OnboardingStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := t.engine.OnboardingStatus()
	if err != nil {
		return errResult("onboarding_status", err), nil
	}
	return jsonResult(status), nil
}

// ─── OnboardingInitTool ─────────────────────────────────────────────────────

// OnboardingInitTool handles the onboarding_init MCP tool.
type OnboardingInitTool struct {
	engine *engine.Engine
}

func NewOnboardingInitTool(e *engine.Engine) *OnboardingInitTool {
	return &OnboardingInitTool{engine: e}
}

func (t *OnboardingInitTool) Definition() mcp.Tool {
	return mcp.NewTool("onboarding_init",
		mcp.WithDescription(
			"Seed the default identity and a starter projects/getting-started component, "+
				"unless skip_agents excludes the default entity. Safe to call repeatedly.",
		),
		mcp.WithString("skip_agents", mcp.Description("JSON array of entity IDs to exclude from default seeding")),
	)
}

func (t *OnboardingInitTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var skipAgents []string
	if _, present := req.GetArguments()["skip_agents"]; present {
		var err error
		skipAgents, err = stringSliceArg(req, "skip_agents")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	if err := t.engine.OnboardingInit(skipAgents); err != nil {
		return errResult("onboarding_init", err), nil
	}
	return mcp.NewToolResultText("onboarding complete"), nil
}
