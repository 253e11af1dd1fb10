package tools

import (
	"bytes"
	"fmt"
	"os/exec"

	"cclaw/pkg/llm"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const shellOutputCap = 128 * 1024

func shellDefinition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        "shell",
		Description: "Run a shell command in the workspace directory and return its combined stdout+stderr.",
		InputSchema: map[string]any{
			"command": map[string]any{
				"type":        "string",
				"description": "The command to execute with a POSIX shell.",
			},
		},
	}
}

type shellInput struct {
	Command string `json:"command"`
}

func shellHandler(inputJSON, workspace string) ToolResult {
	var in shellInput
	if err := json.Unmarshal([]byte(inputJSON), &in); err != nil {
		return ToolResult{Success: false, Output: "invalid input: " + err.Error()}
	}
	if in.Command == "" {
		return ToolResult{Success: false, Output: "missing command"}
	}

	cmd := exec.Command("/bin/sh", "-c", in.Command)
	cmd.Dir = workspace

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return ToolResult{Success: false, Output: "exec: " + err.Error()}
		}
	}

	out := buf.Bytes()
	if len(out) > shellOutputCap {
		out = out[:shellOutputCap]
	}
	return ToolResult{Success: true, Output: fmt.Sprintf("[exit %d]\n%s", exitCode, out)}
}
