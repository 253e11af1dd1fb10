package llm

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// Session is the append-only, disk-backed conversation log for one
// channel+peer. It is the "ChatHistory" of the original design, scoped to
// the spec's exact content-block invariants: tool_result must reference a
// prior tool_use id, content blocks are never reordered.
type Session struct {
	Key      string    `json:"-"`
	Summary  string    `json:"summary,omitempty"` // supplemental: session-level compaction, see SPEC_FULL §11
	Messages []Message `json:"messages"`

	mu   sync.RWMutex
	path string // empty for ephemeral (one-shot) sessions
}

// NewSession creates an empty in-memory session. Use Open to additionally
// rehydrate it from disk.
func NewSession(key string) *Session {
	return &Session{Key: key, Messages: make([]Message, 0)}
}

// Open loads {workspace}/.cclaw/sessions/{key}.json if key is non-empty.
// A missing file or parse error starts an empty session rather than
// failing — the session is always usable after Open returns.
func Open(workspace, key string) *Session {
	s := NewSession(key)
	if key == "" {
		return s
	}
	s.path = SessionPath(workspace, key)
	_ = s.load(s.path)
	return s
}

// SessionPath returns the on-disk path for a session key.
func SessionPath(workspace, key string) string {
	return filepath.Join(workspace, ".cclaw", "sessions", key+".json")
}

func (s *Session) load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var onDisk struct {
		Summary  string    `json:"summary"`
		Messages []Message `json:"messages"`
	}
	if err := json.Unmarshal(data, &onDisk); err != nil {
		// parse error: start empty rather than propagate, per spec §4.3
		return nil
	}
	s.Summary = onDisk.Summary
	s.Messages = onDisk.Messages
	return nil
}

// AddUser appends a user message whose content is a single text block.
func (s *Session) AddUser(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = append(s.Messages, NewUserTextMessage(text))
}

// AddAssistant appends an assistant message with one text block.
func (s *Session) AddAssistant(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = append(s.Messages, NewAssistantTextMessage(text))
}

// AddToolUse appends a tool_use block. If the last message is assistant,
// the block is appended to its content array; otherwise a new assistant
// message is created. inputJSON is parsed into the block's Input; an
// unparsable string becomes an empty object rather than dropping the call.
func (s *Session) AddToolUse(id, name, inputJSON string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	input := jsoniter.RawMessage(inputJSON)
	if !jsonValid(input) {
		input = jsoniter.RawMessage("{}")
	}
	block := NewToolUseBlock(id, name, input)

	if n := len(s.Messages); n > 0 && s.Messages[n-1].Role == "assistant" {
		s.Messages[n-1].Content = append(s.Messages[n-1].Content, block)
		return
	}
	s.Messages = append(s.Messages, Message{
		Role:      "assistant",
		Content:   []ContentBlock{block},
		Timestamp: time.Now().Unix(),
	})
}

func jsonValid(raw jsoniter.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var v any
	return json.Unmarshal(raw, &v) == nil
}

// AddToolResult appends a user message containing a single tool_result block.
func (s *Session) AddToolResult(toolUseID, output string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = append(s.Messages, Message{
		Role:      "user",
		Content:   []ContentBlock{NewToolResultBlock(toolUseID, output)},
		Timestamp: time.Now().Unix(),
	})
}

// GetMessages returns a copy of the current message log.
func (s *Session) GetMessages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make([]Message, len(s.Messages))
	copy(cp, s.Messages)
	return cp
}

// SerializeMessages JSON-encodes the message array (spec §4.3) — the same
// bytes Save persists to disk and a provider transcript would be
// reconstructed from on replay.
func (s *Session) SerializeMessages() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := json.Marshal(s.Messages)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Save writes the session to its path, creating parent directories. Uses
// a sibling temp file plus atomic rename (the upgrade over the source's
// write-in-place behavior documented in DESIGN.md's Open Question log).
func (s *Session) Save() error {
	if s.path == "" {
		return nil // ephemeral session, never persisted
	}

	// SerializeMessages takes its own read lock, so it's called before
	// locking below rather than nested inside it.
	msgJSON, err := s.SerializeMessages()
	if err != nil {
		return fmt.Errorf("storage: marshal session: %w", err)
	}

	s.mu.RLock()
	summary := s.Summary
	s.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir session dir: %w", err)
	}

	data, err := json.MarshalIndent(struct {
		Summary  string             `json:"summary,omitempty"`
		Messages jsoniter.RawMessage `json:"messages"`
	}{summary, jsoniter.RawMessage(msgJSON)}, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: marshal session: %w", err)
	}

	tmp := s.path + ".tmp-" + strconv.Itoa(os.Getpid())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("storage: write temp session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("storage: rename session file: %w", err)
	}
	return nil
}

// Close releases in-memory state. Sessions hold no external handles
// beyond the path string, so this only drops the message slice.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = nil
}

// GetSummary returns the current session-level compaction summary.
func (s *Session) GetSummary() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Summary
}

// SetSummary updates the compaction summary (supplemental feature, SPEC_FULL §11).
func (s *Session) SetSummary(summary string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Summary = summary
}
