package llm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSessionAddUserCount(t *testing.T) {
	s := NewSession("cli")
	for i := 0; i < 5; i++ {
		s.AddUser("hello")
	}
	msgs := s.GetMessages()
	if len(msgs) != 5 {
		t.Fatalf("got %d messages, want 5", len(msgs))
	}
	for _, m := range msgs {
		if m.Role != "user" {
			t.Errorf("role = %q, want user", m.Role)
		}
		if len(m.Content) != 1 || m.Content[0].Type != "text" {
			t.Errorf("expected single text block, got %+v", m.Content)
		}
	}
}

func TestSessionToolUseAppendsToLastAssistant(t *testing.T) {
	s := NewSession("cli")
	s.AddUser("run echo")
	s.AddToolUse("t1", "shell", `{"command":"echo hi"}`)
	s.AddToolUse("t2", "shell", `{"command":"echo bye"}`)

	msgs := s.GetMessages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2 (user + one assistant w/ 2 tool_use blocks)", len(msgs))
	}
	last := msgs[1]
	if last.Role != "assistant" || len(last.Content) != 2 {
		t.Fatalf("expected assistant message with 2 tool_use blocks, got %+v", last)
	}
}

func TestSessionToolUseUnparsableInput(t *testing.T) {
	s := NewSession("cli")
	s.AddToolUse("t1", "shell", "not json")
	msgs := s.GetMessages()
	block := msgs[0].Content[0]
	if block.Type != "tool_use" || string(block.Input) != "{}" {
		t.Errorf("expected empty object fallback, got %q", block.Input)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := Open(dir, "cli")
	s.AddUser("What is 2+2?")
	s.AddToolUse("t1", "shell", `{"command":"echo hi"}`)
	s.AddToolResult("t1", "[exit 0]\nhi")
	s.AddAssistant("hi")

	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	reopened := Open(dir, "cli")
	if diff := cmp.Diff(s.Messages, reopened.Messages); diff != "" {
		t.Errorf("round-trip mismatch (-original +reopened):\n%s", diff)
	}
}

func TestSessionSaveCreatesParentDirs(t *testing.T) {
	dir := t.TempDir()
	s := Open(dir, "tg_123")
	s.AddUser("hi")
	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".cclaw", "sessions", "tg_123.json")); err != nil {
		t.Errorf("expected session file to exist: %v", err)
	}
}

func TestSessionMissingFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	s := Open(dir, "nonexistent")
	if len(s.Messages) != 0 {
		t.Errorf("expected empty session, got %d messages", len(s.Messages))
	}
}
