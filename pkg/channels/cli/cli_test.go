package cli

import (
	"context"
	"strings"
	"testing"
)

func TestRunInteractiveQuitStopsReading(t *testing.T) {
	in := strings.NewReader("hello\n/quit\nnever reached\n")
	var out strings.Builder
	var turns []string

	RunInteractive(context.Background(), in, &out, func(ctx context.Context, text string, onTextDelta func(string)) string {
		turns = append(turns, text)
		onTextDelta("ok")
		return "ok"
	}, Commands{})

	if len(turns) != 1 || turns[0] != "hello" {
		t.Fatalf("expected exactly one turn for %q, got %v", "hello", turns)
	}
}

func TestRunInteractiveResetCommand(t *testing.T) {
	in := strings.NewReader("/reset\n/quit\n")
	var out strings.Builder
	var resetCalled bool

	RunInteractive(context.Background(), in, &out, func(ctx context.Context, text string, onTextDelta func(string)) string {
		t.Fatalf("turn should not be invoked for a slash command, got %q", text)
		return ""
	}, Commands{
		Reset: func() { resetCalled = true },
	})

	if !resetCalled {
		t.Error("expected Reset to be called")
	}
	if !strings.Contains(out.String(), "session reset") {
		t.Errorf("expected reset confirmation in output, got %q", out.String())
	}
}

func TestRunInteractiveSummaryCommand(t *testing.T) {
	in := strings.NewReader("/summary\n/quit\n")
	var out strings.Builder

	RunInteractive(context.Background(), in, &out, func(ctx context.Context, text string, onTextDelta func(string)) string {
		t.Fatalf("turn should not be invoked for a slash command, got %q", text)
		return ""
	}, Commands{
		Summarize: func(ctx context.Context) string { return "a short summary" },
	})

	if !strings.Contains(out.String(), "a short summary") {
		t.Errorf("expected summary text in output, got %q", out.String())
	}
}

func TestRunInteractiveUnsupportedCommand(t *testing.T) {
	in := strings.NewReader("/reset\n/quit\n")
	var out strings.Builder

	RunInteractive(context.Background(), in, &out, func(ctx context.Context, text string, onTextDelta func(string)) string {
		return "ok"
	}, Commands{})

	if !strings.Contains(out.String(), "not supported") {
		t.Errorf("expected 'not supported' message, got %q", out.String())
	}
}

func TestRunOnceShotReturnsReply(t *testing.T) {
	reply := RunOnceShot(context.Background(), "hi", func(ctx context.Context, text string, onTextDelta func(string)) string {
		if text != "hi" {
			t.Errorf("unexpected prompt %q", text)
		}
		return "hello back"
	})
	if reply != "hello back" {
		t.Errorf("RunOnceShot = %q", reply)
	}
}
