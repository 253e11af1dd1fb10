package tools

import (
	"os"
	"path/filepath"

	"cclaw/pkg/llm"
)

func fileWriteDefinition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        "file_write",
		Description: "Write a file relative to the workspace directory, creating parent directories as needed.",
		InputSchema: map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Path relative to the workspace root.",
			},
			"content": map[string]any{
				"type":        "string",
				"description": "Content to write.",
			},
		},
	}
}

type fileWriteInput struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func fileWriteHandler(inputJSON, workspace string) ToolResult {
	var in fileWriteInput
	if err := json.Unmarshal([]byte(inputJSON), &in); err != nil {
		return ToolResult{Success: false, Output: "invalid input: " + err.Error()}
	}
	if in.Path == "" {
		return ToolResult{Success: false, Output: "missing path"}
	}

	full := filepath.Join(workspace, in.Path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return ToolResult{Success: false, Output: err.Error()}
	}
	if err := os.WriteFile(full, []byte(in.Content), 0o644); err != nil {
		return ToolResult{Success: false, Output: err.Error()}
	}
	return ToolResult{Success: true, Output: "ok"}
}
