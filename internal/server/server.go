// Package server wires every subsystem into an MCP server instance.
//
// This is the composition root (DIP): it creates the engine and injects it
// into every tool that depends on it. No business logic lives here — only
// wiring.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/open-palace/openpalace/internal/engine"
	"github.com/open-palace/openpalace/internal/mcptools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with every protocol operation
// registered as a tool. root is the workspace directory the engine persists
// into; it is created if it does not already exist.
//
// The returned cleanup function is always non-nil and safe to call even if
// setup failed partway through.
func New(root string) (*server.MCPServer, func(), error) {
	eng, err := engine.New(root, time.Now)
	if err != nil {
		return nil, noop, fmt.Errorf("creating engine: %w", err)
	}

	s := server.NewMCPServer(
		"open-palace",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, false),
		server.WithPromptCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	registerIndexTools(s, eng)
	registerEntityTools(s, eng)
	registerComponentTools(s, eng)
	registerChangelogTools(s, eng)
	registerScratchTools(s, eng)
	registerSnapshotTools(s, eng)
	registerRelationshipTools(s, eng)
	registerSearchTools(s, eng)
	registerDecayTools(s, eng)
	registerSystemTools(s, eng)
	registerConfigTools(s, eng)
	registerOnboardingTools(s, eng)

	eng.SetSampling(requestSampling)

	return s, noop, nil
}

// requestSampling bridges the engine's ask() helper to the MCP client's own
// sampling capability. The session isn't captured at boot — mcp-go attaches
// the calling client's session to every tool handler's context, so this
// looks it up fresh on each call rather than pinning one session for the
// server's lifetime. Connected clients that never declared the sampling
// capability fail here, which is exactly what sends the "auto" strategy on
// to its direct-HTTP fallback.
func requestSampling(ctx context.Context, systemPrompt, userMessage string, maxTokens int) (string, error) {
	session := server.ClientSessionFromContext(ctx)
	if session == nil {
		return "", fmt.Errorf("server: no client session on context")
	}
	sampler, ok := session.(server.SessionWithSampling)
	if !ok {
		return "", fmt.Errorf("server: connected client does not support sampling")
	}

	result, err := sampler.RequestSampling(ctx, mcp.CreateMessageRequest{
		CreateMessageParams: mcp.CreateMessageParams{
			Messages: []mcp.SamplingMessage{
				{Role: mcp.RoleUser, Content: mcp.TextContent{Type: "text", Text: userMessage}},
			},
			SystemPrompt: systemPrompt,
			MaxTokens:    maxTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("server: sampling request: %w", err)
	}

	text, ok := result.Content.(mcp.TextContent)
	if !ok {
		return "", fmt.Errorf("server: sampling response was not text content")
	}
	return text.Text, nil
}

// noop is the default cleanup: the engine owns no resources (file handles,
// DB connections) that outlive a single call, so there is nothing to close.
func noop() {}

func registerIndexTools(s *server.MCPServer, e *engine.Engine) {
	get := mcptools.NewIndexGetTool(e)
	s.AddTool(get.Definition(), get.Handle)

	search := mcptools.NewIndexSearchTool(e)
	s.AddTool(search.Definition(), search.Handle)
}

func registerEntityTools(s *server.MCPServer, e *engine.Engine) {
	list := mcptools.NewEntityListTool(e)
	s.AddTool(list.Definition(), list.Handle)

	getSoul := mcptools.NewEntityGetSoulTool(e)
	s.AddTool(getSoul.Definition(), getSoul.Handle)

	getFull := mcptools.NewEntityGetFullTool(e)
	s.AddTool(getFull.Definition(), getFull.Handle)

	create := mcptools.NewEntityCreateTool(e)
	s.AddTool(create.Definition(), create.Handle)

	updateSoul := mcptools.NewEntityUpdateSoulTool(e)
	s.AddTool(updateSoul.Definition(), updateSoul.Handle)

	logEvolution := mcptools.NewEntityLogEvolutionTool(e)
	s.AddTool(logEvolution.Definition(), logEvolution.Handle)
}

func registerComponentTools(s *server.MCPServer, e *engine.Engine) {
	list := mcptools.NewComponentListTool(e)
	s.AddTool(list.Definition(), list.Handle)

	create := mcptools.NewComponentCreateTool(e)
	s.AddTool(create.Definition(), create.Handle)

	load := mcptools.NewComponentLoadTool(e)
	s.AddTool(load.Definition(), load.Handle)

	unload := mcptools.NewComponentUnloadTool(e)
	s.AddTool(unload.Definition(), unload.Handle)

	summaryGet := mcptools.NewSummaryGetTool(e)
	s.AddTool(summaryGet.Definition(), summaryGet.Handle)

	summaryUpdate := mcptools.NewSummaryUpdateTool(e)
	s.AddTool(summaryUpdate.Definition(), summaryUpdate.Handle)

	summaryVerify := mcptools.NewSummaryVerifyTool(e)
	s.AddTool(summaryVerify.Definition(), summaryVerify.Handle)
}

func registerChangelogTools(s *server.MCPServer, e *engine.Engine) {
	record := mcptools.NewChangelogRecordTool(e)
	s.AddTool(record.Definition(), record.Handle)

	query := mcptools.NewChangelogQueryTool(e)
	s.AddTool(query.Definition(), query.Handle)

	validate := mcptools.NewValidateWriteTool(e)
	s.AddTool(validate.Definition(), validate.Handle)
}

func registerScratchTools(s *server.MCPServer, e *engine.Engine) {
	write := mcptools.NewScratchWriteTool(e)
	s.AddTool(write.Definition(), write.Handle)

	read := mcptools.NewScratchReadTool(e)
	s.AddTool(read.Definition(), read.Handle)

	promote := mcptools.NewScratchPromoteTool(e)
	s.AddTool(promote.Definition(), promote.Handle)

	stats := mcptools.NewScratchStatsTool(e)
	s.AddTool(stats.Definition(), stats.Handle)
}

func registerSnapshotTools(s *server.MCPServer, e *engine.Engine) {
	save := mcptools.NewSnapshotSaveTool(e)
	s.AddTool(save.Definition(), save.Handle)

	read := mcptools.NewSnapshotReadTool(e)
	s.AddTool(read.Definition(), read.Handle)
}

func registerRelationshipTools(s *server.MCPServer, e *engine.Engine) {
	get := mcptools.NewRelationshipGetTool(e)
	s.AddTool(get.Definition(), get.Handle)

	updateProfile := mcptools.NewRelationshipUpdateProfileTool(e)
	s.AddTool(updateProfile.Definition(), updateProfile.Handle)

	logInteraction := mcptools.NewRelationshipLogInteractionTool(e)
	s.AddTool(logInteraction.Definition(), logInteraction.Handle)

	updateTrust := mcptools.NewRelationshipUpdateTrustTool(e)
	s.AddTool(updateTrust.Definition(), updateTrust.Handle)
}

func registerSearchTools(s *server.MCPServer, e *engine.Engine) {
	raw := mcptools.NewRawSearchTool(e)
	s.AddTool(raw.Definition(), raw.Handle)

	reindex := mcptools.NewSearchReindexTool(e)
	s.AddTool(reindex.Definition(), reindex.Handle)

	status := mcptools.NewSearchStatusTool(e)
	s.AddTool(status.Definition(), status.Handle)
}

func registerDecayTools(s *server.MCPServer, e *engine.Engine) {
	preview := mcptools.NewDecayPreviewTool(e)
	s.AddTool(preview.Definition(), preview.Handle)

	pin := mcptools.NewDecayPinTool(e)
	s.AddTool(pin.Definition(), pin.Handle)
}

func registerSystemTools(s *server.MCPServer, e *engine.Engine) {
	list := mcptools.NewSystemListTool(e)
	s.AddTool(list.Definition(), list.Handle)

	execute := mcptools.NewSystemExecuteTool(e)
	s.AddTool(execute.Definition(), execute.Handle)

	status := mcptools.NewSystemStatusTool(e)
	s.AddTool(status.Definition(), status.Handle)

	configure := mcptools.NewSystemConfigureTool(e)
	s.AddTool(configure.Definition(), configure.Handle)
}

func registerConfigTools(s *server.MCPServer, e *engine.Engine) {
	get := mcptools.NewConfigGetTool(e)
	s.AddTool(get.Definition(), get.Handle)

	update := mcptools.NewConfigUpdateTool(e)
	s.AddTool(update.Definition(), update.Handle)

	reference := mcptools.NewConfigReferenceTool(e)
	s.AddTool(reference.Definition(), reference.Handle)
}

func registerOnboardingTools(s *server.MCPServer, e *engine.Engine) {
	status := mcptools.NewOnboardingStatusTool(e)
	s.AddTool(status.Definition(), status.Handle)

	init := mcptools.NewOnboardingInitTool(e)
	s.AddTool(init.Definition(), init.Handle)
}

// serverInstructions returns the system instructions that tell the calling
// agent how to use Open Palace's memory effectively.
func serverInstructions() string {
	return `You have access to Open Palace, a local cognitive memory store.

## WHEN TO USE IT

Call onboarding_status at the start of a session to see whether this
workspace has been initialized; call onboarding_init once if not.

Read before you write. entity_get_full and component_load bring soul,
summaries, and recent changelog context into view before you act on it.
snapshot_read at session start restores what was being worked on; call
snapshot_save before a session ends so the next one can pick up where
this one left off.

## RECORDING WORK

Use changelog_record for anything worth remembering: a decision, a
completed task, an observed fact. Pick the narrowest scope the entry
actually concerns — changelog_query and raw_search both filter by scope
prefix. validate_write runs the same risk checks changelog_record runs
internally; call it directly only to preview risks before committing to
a write.

Use scratch_write for anything transient — a note you might want later
today but that doesn't belong in the permanent record. scratch_promote
marks a scratch entry as promoted to a component scope once it proves
durable; it does not write a changelog entry, so use changelog_record for that.

## MAINTENANCE

decay_preview shows what archival would remove before you run it via
system_execute(name="decay", params={"action":"run"}). decay_pin exempts
an entry from that sweep. search_status and system_status report on
subsystem health; search_reindex and system_execute recover from drift.
`
}
