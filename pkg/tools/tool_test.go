package tools

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDispatchUnknownTool(t *testing.T) {
	r := NewRegistry()
	res := r.Dispatch("nope", "{}", t.TempDir())
	if res.Success {
		t.Fatal("expected failure for unknown tool")
	}
	if res.Output != "Unknown tool: nope" {
		t.Errorf("unexpected message: %q", res.Output)
	}
}

func TestShellHandlerExitCode(t *testing.T) {
	res := shellHandler(`{"command":"echo hi"}`, t.TempDir())
	if !res.Success {
		t.Fatalf("expected success, got %q", res.Output)
	}
	if res.Output != "[exit 0]\nhi\n" {
		t.Errorf("unexpected output: %q", res.Output)
	}
}

func TestShellHandlerNonZeroExit(t *testing.T) {
	res := shellHandler(`{"command":"exit 3"}`, t.TempDir())
	if !res.Success {
		t.Fatalf("expected success (non-zero exit is still a completed call), got %q", res.Output)
	}
	if res.Output != "[exit 3]\n" {
		t.Errorf("unexpected output: %q", res.Output)
	}
}

func TestShellHandlerRunsInWorkspace(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "marker.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	res := shellHandler(`{"command":"ls"}`, dir)
	if !res.Success {
		t.Fatalf("unexpected failure: %q", res.Output)
	}
}

func TestFileWriteThenRead(t *testing.T) {
	dir := t.TempDir()
	res := fileWriteHandler(`{"path":"sub/out.txt","content":"hello"}`, dir)
	if !res.Success {
		t.Fatalf("write failed: %q", res.Output)
	}

	readRes := fileReadHandler(`{"path":"sub/out.txt"}`, dir)
	if !readRes.Success || readRes.Output != "hello" {
		t.Errorf("unexpected read result: %+v", readRes)
	}
}

func TestFileReadMissing(t *testing.T) {
	res := fileReadHandler(`{"path":"missing.txt"}`, t.TempDir())
	if res.Success {
		t.Fatal("expected failure for missing file")
	}
}

func TestDefinitionsCoverBuiltins(t *testing.T) {
	r := NewRegistry()
	defs := r.Definitions()
	if len(defs) != 3 {
		t.Fatalf("expected 3 tool definitions, got %d", len(defs))
	}
	names := map[string]bool{}
	for _, d := range defs {
		names[d.Name] = true
	}
	for _, want := range []string{"shell", "file_read", "file_write"} {
		if !names[want] {
			t.Errorf("missing definition for %q", want)
		}
	}
}
