// Package mcptools adapts every protocol operation onto an
// MCP tool. Each file groups one operation family; each tool follows the
// same shape: a struct holding the engine, NewXTool(engine) construction,
// Definition() for the mcp.Tool schema, Handle() for the call. Tools never
// mutate state directly — every Handle delegates to *engine.Engine and
// turns its error into an is_error text result.
package mcptools

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// float64Arg extracts a float argument, returning nil if absent so callers
// can distinguish "not supplied" from "supplied as zero."
func float64Arg(req mcp.CallToolRequest, key string) *float64 {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return nil
	}
	return &v
}

// stringSliceArg parses a JSON array of strings out of a string argument,
// e.g. tags: "[\"a\", \"b\"]". Empty/absent yields a nil slice, matching
// mem_compact's compact_ids convention of arrays-as-JSON-strings.
func stringSliceArg(req mcp.CallToolRequest, key string) ([]string, error) {
	raw := req.GetString(key, "")
	if raw == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("%q must be a JSON array of strings, e.g. [\"a\", \"b\"]: %w", key, err)
	}
	return out, nil
}

// errResult renders any error as an is_error text result with an operation
// label prefix, the uniform failure shape every operation returns.
func errResult(op string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", op, err))
}

// jsonResult renders a value as pretty JSON text, falling back to a plain
// error result if marshaling somehow fails.
func jsonResult(v any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshaling result: %v", err))
	}
	return mcp.NewToolResultText(string(b))
}
