package tools

import (
	"io"
	"os"
	"path/filepath"

	"cclaw/pkg/llm"
)

const fileReadCap = 512 * 1024

func fileReadDefinition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        "file_read",
		Description: "Read a file relative to the workspace directory, truncated to 512 KiB.",
		InputSchema: map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Path relative to the workspace root.",
			},
		},
	}
}

type fileReadInput struct {
	Path string `json:"path"`
}

func fileReadHandler(inputJSON, workspace string) ToolResult {
	var in fileReadInput
	if err := json.Unmarshal([]byte(inputJSON), &in); err != nil {
		return ToolResult{Success: false, Output: "invalid input: " + err.Error()}
	}
	if in.Path == "" {
		return ToolResult{Success: false, Output: "missing path"}
	}

	f, err := os.Open(filepath.Join(workspace, in.Path))
	if err != nil {
		return ToolResult{Success: false, Output: err.Error()}
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, fileReadCap))
	if err != nil {
		return ToolResult{Success: false, Output: err.Error()}
	}
	return ToolResult{Success: true, Output: string(data)}
}
