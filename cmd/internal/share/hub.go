package share

import (
	"log/slog"
	"sync"

	v1 "sharepal/shared/contracts/share/v1"
)

// Hub is the single global fanout room: every connected session is a member.
//
// Concurrency guarantees:
// - Join/Leave are safe under concurrent Broadcast.
// - Broadcast never blocks (drops under backpressure).
// - Broadcast is panic-safe because Client.Send is never closed by the server.
type Hub struct {
	log *slog.Logger

	mu      sync.RWMutex
	members map[string]*Client
}

// NewHub constructs a Hub instance.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:     log,
		members: make(map[string]*Client),
	}
}

// Join adds a client to membership.
func (h *Hub) Join(client *Client) {
	if h == nil || client == nil || client.SessionID == "" {
		return
	}

	h.mu.Lock()
	h.members[client.SessionID] = client
	h.mu.Unlock()

	h.log.Info("hub.member.join", "session_id", client.SessionID, "display_name", client.DisplayName)
}

// Leave removes a client from membership and signals shutdown for that client.
func (h *Hub) Leave(sessionID string) {
	if h == nil || sessionID == "" {
		return
	}

	var cl *Client

	h.mu.Lock()
	cl = h.members[sessionID]
	delete(h.members, sessionID)
	h.mu.Unlock()

	// Signal client shutdown after removing from membership.
	// This ordering avoids race windows where a broadcaster still holds a pointer
	// while the client goroutines are being torn down.
	if cl != nil {
		cl.Close()
	}

	h.log.Info("hub.member.leave", "session_id", sessionID)
}

// Broadcast fanouts an envelope to all members, including the originator.
// Non-blocking: if a member queue is full or the client is shutting down, it is dropped.
func (h *Hub) Broadcast(env v1.Envelope) {
	if h == nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, m := range h.members {
		if m == nil {
			continue
		}

		select {
		case <-m.Done():
			// Skip clients that are shutting down.
			continue
		default:
		}

		select {
		case m.Send <- env:
		default:
			// Drop rather than block the whole fanout.
		}
	}
}

// SendTo delivers an envelope to a single member (point-to-point, not a broadcast).
// Returns false when the member is unknown, shutting down, or backpressured.
func (h *Hub) SendTo(sessionID string, env v1.Envelope) bool {
	if h == nil || sessionID == "" {
		return false
	}

	h.mu.RLock()
	m := h.members[sessionID]
	h.mu.RUnlock()

	if m == nil {
		return false
	}

	select {
	case <-m.Done():
		return false
	default:
	}

	select {
	case m.Send <- env:
		return true
	default:
		return false
	}
}
