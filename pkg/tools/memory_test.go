package tools

import (
	"path/filepath"
	"testing"

	"cclaw/pkg/memory"
)

func openTestMemory(t *testing.T) *memory.Store {
	t.Helper()
	store, err := memory.Open(filepath.Join(t.TempDir(), "mem.db"))
	if err != nil {
		t.Fatalf("open memory store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestMemoryRememberThenRecall(t *testing.T) {
	store := openTestMemory(t)
	r := NewRegistry()
	r.RegisterMemory(store)

	result := r.Dispatch("memory_remember", `{"key":"favorite_color","value":"teal"}`, "")
	if !result.Success {
		t.Fatalf("memory_remember failed: %s", result.Output)
	}

	result = r.Dispatch("memory_recall", `{"key":"favorite_color"}`, "")
	if !result.Success || result.Output != "teal" {
		t.Errorf("memory_recall = %+v, want success with \"teal\"", result)
	}
}

func TestMemoryRecallMissingKey(t *testing.T) {
	store := openTestMemory(t)
	r := NewRegistry()
	r.RegisterMemory(store)

	result := r.Dispatch("memory_recall", `{"key":"nope"}`, "")
	if result.Success {
		t.Errorf("expected failure for missing key, got %+v", result)
	}
}

func TestMemoryRememberRejectsMissingKey(t *testing.T) {
	store := openTestMemory(t)
	r := NewRegistry()
	r.RegisterMemory(store)

	result := r.Dispatch("memory_remember", `{"value":"no key here"}`, "")
	if result.Success {
		t.Errorf("expected failure for missing key, got %+v", result)
	}
}

func TestDefinitionsIncludeMemoryToolsWhenRegistered(t *testing.T) {
	store := openTestMemory(t)
	r := NewRegistry()
	r.RegisterMemory(store)

	names := map[string]bool{}
	for _, d := range r.Definitions() {
		names[d.Name] = true
	}
	if !names["memory_remember"] || !names["memory_recall"] {
		t.Errorf("expected memory tools in definitions, got %+v", names)
	}
}
