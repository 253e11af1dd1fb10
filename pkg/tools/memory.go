package tools

import (
	"cclaw/pkg/llm"
	"cclaw/pkg/memory"
)

// RegisterMemory adds memory_remember and memory_recall tools backed by
// store. Called only when the runtime was configured with a memory_db
// path; without it the registry simply never advertises these tools.
func (r *Registry) RegisterMemory(store *memory.Store) {
	r.register(memoryRememberDefinition(), memoryRememberHandler(store))
	r.register(memoryRecallDefinition(), memoryRecallHandler(store))
}

func memoryRememberDefinition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        "memory_remember",
		Description: "Store a key/value fact in durable memory, replacing any prior value for that key.",
		InputSchema: map[string]any{
			"key":   map[string]any{"type": "string", "description": "unique fact identifier"},
			"value": map[string]any{"type": "string", "description": "the fact to store"},
		},
	}
}

func memoryRememberHandler(store *memory.Store) Handler {
	return func(inputJSON, workspace string) ToolResult {
		var in struct {
			Key   string `json:"key"`
			Value string `json:"value"`
		}
		if err := json.Unmarshal([]byte(inputJSON), &in); err != nil || in.Key == "" {
			return ToolResult{Success: false, Output: "Error: memory_remember requires key and value"}
		}
		if !store.Store(in.Key, in.Value, nil) {
			return ToolResult{Success: false, Output: "Error: memory store write failed"}
		}
		return ToolResult{Success: true, Output: "remembered"}
	}
}

func memoryRecallDefinition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        "memory_recall",
		Description: "Look up a previously remembered value by exact key.",
		InputSchema: map[string]any{
			"key": map[string]any{"type": "string", "description": "the fact identifier to look up"},
		},
	}
}

func memoryRecallHandler(store *memory.Store) Handler {
	return func(inputJSON, workspace string) ToolResult {
		var in struct {
			Key string `json:"key"`
		}
		if err := json.Unmarshal([]byte(inputJSON), &in); err != nil || in.Key == "" {
			return ToolResult{Success: false, Output: "Error: memory_recall requires key"}
		}
		val, ok := store.Get(in.Key)
		if !ok {
			return ToolResult{Success: false, Output: "Error: no memory for key " + in.Key}
		}
		return ToolResult{Success: true, Output: val}
	}
}
