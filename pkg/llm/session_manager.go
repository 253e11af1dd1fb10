package llm

import (
	"regexp"
	"sync"
)

var filenameSafeRegex = regexp.MustCompile(`[^a-zA-Z0-9_\-]`)

// SessionManager isolates sessions by session key, each keyed by its
// channel-prefixed string (cli, tg_<chat>, ws_<conn>). Sessions are
// created lazily and rehydrated from {workspace}/.cclaw/sessions on
// first access.
type SessionManager struct {
	workspace string
	sessions  map[string]*Session
	mu        sync.RWMutex
}

// NewSessionManager creates a manager rooted at workspace.
func NewSessionManager(workspace string) *SessionManager {
	return &SessionManager{
		workspace: workspace,
		sessions:  make(map[string]*Session),
	}
}

// Get returns the session for key, opening/rehydrating it on first access.
// Double-checked locking keeps the common (already-open) path on the
// shared read lock; only a first open takes the write lock.
func (sm *SessionManager) Get(key string) *Session {
	safeKey := filenameSafeRegex.ReplaceAllString(key, "_")

	sm.mu.RLock()
	s, ok := sm.sessions[safeKey]
	sm.mu.RUnlock()
	if ok {
		return s
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	if s, ok = sm.sessions[safeKey]; ok {
		return s
	}

	s = Open(sm.workspace, safeKey)
	sm.sessions[safeKey] = s
	return s
}

// Ephemeral returns a new, never-persisted session for one-shot use —
// it is never registered in the manager and Save is a no-op on it.
func (sm *SessionManager) Ephemeral(key string) *Session {
	return NewSession(key)
}

// Save persists the named session, if open.
func (sm *SessionManager) Save(key string) error {
	safeKey := filenameSafeRegex.ReplaceAllString(key, "_")
	sm.mu.RLock()
	s, ok := sm.sessions[safeKey]
	sm.mu.RUnlock()
	if !ok {
		return nil
	}
	return s.Save()
}

// Close releases and forgets the session for key.
func (sm *SessionManager) Close(key string) {
	safeKey := filenameSafeRegex.ReplaceAllString(key, "_")
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if s, ok := sm.sessions[safeKey]; ok {
		s.Close()
		delete(sm.sessions, safeKey)
	}
}
