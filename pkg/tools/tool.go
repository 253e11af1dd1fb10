// Package tools implements the built-in tool registry: a static name to
// handler map, each handler taking the tool's JSON-encoded input and the
// workspace root and returning a ToolResult.
package tools

import "cclaw/pkg/llm"

// ToolResult is the outcome of one dispatched tool call.
type ToolResult struct {
	Success bool
	Output  string
}

// Handler executes one tool call. inputJSON is the raw JSON object the
// model supplied as the tool's arguments; workspace is the directory all
// filesystem and shell operations are rooted at.
type Handler func(inputJSON string, workspace string) ToolResult

// Registry is a static name to Handler map plus the schema needed to
// advertise those tools to a provider.
type Registry struct {
	handlers map[string]Handler
	defs     []llm.ToolDefinition
}

// NewRegistry builds the registry with the spec's built-in tools.
func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[string]Handler)}
	r.register(shellDefinition(), shellHandler)
	r.register(fileReadDefinition(), fileReadHandler)
	r.register(fileWriteDefinition(), fileWriteHandler)
	return r
}

func (r *Registry) register(def llm.ToolDefinition, h Handler) {
	r.handlers[def.Name] = h
	r.defs = append(r.defs, def)
}

// Definitions returns the Claude-style tool schemas for every registered
// tool, in registration order.
func (r *Registry) Definitions() []llm.ToolDefinition {
	return r.defs
}

// Dispatch runs the named tool. An unknown name is not an error from the
// caller's perspective — it is reported back to the model as a failed
// ToolResult so the conversation can continue.
func (r *Registry) Dispatch(name, inputJSON, workspace string) ToolResult {
	h, ok := r.handlers[name]
	if !ok {
		return ToolResult{Success: false, Output: "Unknown tool: " + name}
	}
	return h(inputJSON, workspace)
}
