package share

import (
	"sync"
	"time"
)

// Session is a registered live connection with a display identity.
// DisplayName is immutable after registration.
type Session struct {
	SessionID   string
	ClientID    string
	DisplayName string
	ConnectedAt time.Time
}

// SessionRegistry maps session ids to session metadata.
//
// Count must be accurate immediately after Register/Unregister return; it feeds
// the presence broadcast. Session ids are fresh per connection, so
// re-registration of a live id must not occur.
type SessionRegistry interface {
	Register(sessionID, clientID, displayName string, now time.Time) Session
	Unregister(sessionID string)
	Count() int
	All() []Session
}

// InMemoryRegistry is the process-local SessionRegistry implementation.
type InMemoryRegistry struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewInMemoryRegistry constructs an empty registry.
func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{
		sessions: make(map[string]Session),
	}
}

// Register records a new session and returns it.
func (r *InMemoryRegistry) Register(sessionID, clientID, displayName string, now time.Time) Session {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	sess := Session{
		SessionID:   sessionID,
		ClientID:    clientID,
		DisplayName: displayName,
		ConnectedAt: now,
	}

	r.mu.Lock()
	r.sessions[sessionID] = sess
	r.mu.Unlock()

	return sess
}

// Unregister removes a session (no-op for unknown ids).
func (r *InMemoryRegistry) Unregister(sessionID string) {
	r.mu.Lock()
	delete(r.sessions, sessionID)
	r.mu.Unlock()
}

// Count returns the number of registered sessions.
func (r *InMemoryRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// All returns a copy of every registered session.
func (r *InMemoryRegistry) All() []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}
