package openai

import (
	"testing"

	"cclaw/pkg/llm"
)

func TestNormalizeFinishReason(t *testing.T) {
	cases := map[string]string{
		"stop":       llm.StopReasonEndTurn,
		"tool_calls": llm.StopReasonToolUse,
		"length":     "length",
		"":           "",
	}
	for in, want := range cases {
		if got := normalizeFinishReason(in); got != want {
			t.Errorf("normalizeFinishReason(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMessagesToWireToolResult(t *testing.T) {
	messages := []llm.Message{
		{Role: "user", Content: []llm.ContentBlock{{Type: "tool_result", ToolUseID: "call_1", Output: "42"}}},
	}
	wire := messagesToWire(messages)
	if len(wire) != 1 {
		t.Fatalf("expected 1 wire message, got %d", len(wire))
	}
	if wire[0]["role"] != "tool" || wire[0]["tool_call_id"] != "call_1" || wire[0]["content"] != "42" {
		t.Errorf("unexpected tool-result wire shape: %+v", wire[0])
	}
}

func TestMessagesToWireToolUse(t *testing.T) {
	messages := []llm.Message{
		{Role: "assistant", Content: []llm.ContentBlock{{Type: "tool_use", ID: "call_1", Name: "shell", Input: []byte(`{"cmd":"ls"}`)}}},
	}
	wire := messagesToWire(messages)
	calls, ok := wire[0]["tool_calls"].([]map[string]any)
	if !ok || len(calls) != 1 {
		t.Fatalf("expected one tool call in wire message, got %+v", wire[0])
	}
	fn := calls[0]["function"].(map[string]any)
	if fn["name"] != "shell" || fn["arguments"] != `{"cmd":"ls"}` {
		t.Errorf("unexpected function shape: %+v", fn)
	}
}

func TestToolsToWireEmpty(t *testing.T) {
	if got := toolsToWire(nil); got != nil {
		t.Errorf("expected nil for empty tool list, got %+v", got)
	}
}

func TestToolsToWireShape(t *testing.T) {
	tools := []llm.ToolDefinition{{Name: "shell", Description: "run a command", InputSchema: map[string]any{"cmd": map[string]any{"type": "string"}}}}
	wire := toolsToWire(tools)
	if len(wire) != 1 || wire[0]["type"] != "function" {
		t.Fatalf("unexpected tools wire shape: %+v", wire)
	}
	fn := wire[0]["function"].(map[string]any)
	if fn["name"] != "shell" {
		t.Errorf("expected name shell, got %+v", fn)
	}
}

func TestAccumulatorAcrossDeltaFragments(t *testing.T) {
	acc := llm.NewToolAccumulator()
	acc.Begin(0, "", "")
	acc.SetID(0, "call_1")
	acc.SetName(0, "shell")
	acc.Append(0, `{"cmd":`)
	acc.Append(0, `"ls"}`)
	acc.Finish(0)

	calls := acc.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 accumulated call, got %d", len(calls))
	}
	if calls[0].ID != "call_1" || calls[0].Name != "shell" || calls[0].Input != `{"cmd":"ls"}` {
		t.Errorf("unexpected accumulated call: %+v", calls[0])
	}
}
