package share

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	v1 "sharepal/shared/contracts/share/v1"
)

// Rejection reason codes (wire-stable, carried in share-ack).
const (
	CodeInvalidContent = "invalid_content"
	CodeRateLimited    = "rate_limited"
)

// Rejection is a structured, caller-only failure. It never causes fan-out and
// never changes slot state.
type Rejection struct {
	Code    string
	Message string
}

// Engine is the authoritative state machine over the two shared slots.
//
// Every accepted request runs accept -> mutate -> broadcast as one unit under
// mu, the single serialization point. Two concurrent share requests for the
// same slot therefore resolve to one winner, and every session observes the
// same broadcast order. Validation and rate checks happen before mu is taken:
// failures are detected strictly before any state change.
type Engine struct {
	log      *slog.Logger
	store    SlotStore
	registry SessionRegistry
	limiter  *RateLimiter
	hub      *Hub
	metrics  *Metrics

	mu sync.Mutex
}

// NewEngine wires the broadcast engine. Nil collaborators fall back to
// in-memory implementations so tests and dev mode need no setup.
func NewEngine(log *slog.Logger, store SlotStore, registry SessionRegistry, limiter *RateLimiter, hub *Hub, metrics *Metrics) *Engine {
	if log == nil {
		log = slog.Default()
	}
	if store == nil {
		store = NewInMemorySlotStore()
	}
	if registry == nil {
		registry = NewInMemoryRegistry()
	}
	if limiter == nil {
		limiter = NewRateLimiter(contentRateEvents, contentRateWindow)
	}
	if hub == nil {
		hub = NewHub(log)
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Engine{
		log:      log,
		store:    store,
		registry: registry,
		limiter:  limiter,
		hub:      hub,
		metrics:  metrics,
	}
}

// ShareText validates and installs a new text share, then fans it out to every
// session including the requester. On rejection nothing is mutated or broadcast.
func (e *Engine) ShareText(sess Session, content string) (TextShare, *Rejection) {
	if content == "" {
		return TextShare{}, e.reject("text", CodeInvalidContent, "Invalid text content")
	}
	if len(content) > maxTextBytes {
		return TextShare{}, e.reject("text", CodeInvalidContent, "Text content too large")
	}

	now := time.Now().UTC()
	if !e.limiter.Allow(sess.SessionID, now) {
		return TextShare{}, e.reject("text", CodeRateLimited, "Rate limit exceeded. Please slow down.")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	rec := e.store.SetText(content, Owner{ID: sess.ClientID, Name: sess.DisplayName}, now)
	e.broadcast(newEnvelope(v1.TypeSharedTextUpdated, textPayload(rec), now))

	e.metrics.SharesTotal.WithLabelValues("text", "accepted").Inc()
	e.log.Info("share.text.installed", "share_id", rec.ID, "owner", rec.OwnerName, "bytes", len(rec.Content))
	return rec, nil
}

// ShareFile validates and installs a new file share, then fans it out.
func (e *Engine) ShareFile(sess Session, in FileInput) (FileShare, *Rejection) {
	if in.Payload == "" || strings.TrimSpace(in.FileName) == "" {
		return FileShare{}, e.reject("file", CodeInvalidContent, "Invalid file data")
	}
	if len(in.Payload) > maxFilePayloadBytes {
		return FileShare{}, e.reject("file", CodeInvalidContent, "File too large")
	}
	if in.MimeType == "" {
		in.MimeType = defaultMimeType
	}
	if in.FileSizeBytes < 0 {
		in.FileSizeBytes = 0
	}

	now := time.Now().UTC()
	if !e.limiter.Allow(sess.SessionID, now) {
		return FileShare{}, e.reject("file", CodeRateLimited, "Rate limit exceeded. Please slow down.")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	rec := e.store.SetFile(in, Owner{ID: sess.ClientID, Name: sess.DisplayName}, now)
	e.broadcast(newEnvelope(v1.TypeSharedFileUpdated, filePayload(rec), now))

	e.metrics.SharesTotal.WithLabelValues("file", "accepted").Inc()
	e.log.Info("share.file.installed", "share_id", rec.ID, "owner", rec.OwnerName, "file_name", rec.FileName, "bytes", len(rec.Payload))
	return rec, nil
}

// ClearText empties the text slot unconditionally and broadcasts who cleared it.
// Clearing an already-empty slot is a state no-op but still broadcasts.
func (e *Engine) ClearText(sess Session) {
	now := time.Now().UTC()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.store.ClearText()
	e.broadcast(newEnvelope(v1.TypeSharedTextCleared, v1.ClearedPayload{ClearedBy: sess.DisplayName}, now))
	e.log.Info("share.text.cleared", "cleared_by", sess.DisplayName)
}

// ClearFile empties the file slot unconditionally and broadcasts who cleared it.
func (e *Engine) ClearFile(sess Session) {
	now := time.Now().UTC()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.store.ClearFile()
	e.broadcast(newEnvelope(v1.TypeSharedFileCleared, v1.ClearedPayload{ClearedBy: sess.DisplayName}, now))
	e.log.Info("share.file.cleared", "cleared_by", sess.DisplayName)
}

// Connect registers a new session, announces the updated presence count to all
// sessions, and delivers the current slot contents to the new session only.
//
// The whole sequence holds mu so the snapshot push cannot interleave with a
// concurrent share broadcast: a joiner sees each current record exactly once,
// before any subsequent update for that slot.
func (e *Engine) Connect(client *Client, clientID string) Session {
	now := time.Now().UTC()

	e.mu.Lock()
	defer e.mu.Unlock()

	sess := e.registry.Register(client.SessionID, clientID, client.DisplayName, now)
	e.hub.Join(client)
	e.metrics.Connections.Inc()

	e.broadcast(newEnvelope(v1.TypeUserCount, v1.UserCountPayload{Count: e.registry.Count()}, now))

	snap := e.store.Snapshot()
	if snap.Text != nil {
		e.hub.SendTo(sess.SessionID, newEnvelope(v1.TypeCurrentSharedText, textPayload(*snap.Text), now))
	}
	if snap.File != nil {
		e.hub.SendTo(sess.SessionID, newEnvelope(v1.TypeCurrentSharedFile, filePayload(*snap.File), now))
	}

	e.log.Info("session.connect", "session_id", sess.SessionID, "display_name", sess.DisplayName, "total", e.registry.Count())
	return sess
}

// Disconnect removes a session, purges its rate window, and announces the
// updated presence count.
func (e *Engine) Disconnect(sessionID string) {
	now := time.Now().UTC()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.hub.Leave(sessionID)
	e.registry.Unregister(sessionID)
	e.limiter.Evict(sessionID)
	e.metrics.Connections.Dec()

	e.broadcast(newEnvelope(v1.TypeUserCount, v1.UserCountPayload{Count: e.registry.Count()}, now))

	e.log.Info("session.disconnect", "session_id", sessionID, "total", e.registry.Count())
}

// CurrentContent returns both slots plus the live session count, for the
// get-current-content request and the HTTP status surface.
func (e *Engine) CurrentContent() (Snapshot, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Snapshot(), e.registry.Count()
}

// SessionCount reports the number of registered sessions.
func (e *Engine) SessionCount() int {
	return e.registry.Count()
}

// broadcast fans out under mu; callers must hold mu.
func (e *Engine) broadcast(env v1.Envelope) {
	e.hub.Broadcast(env)
	e.metrics.BroadcastsTotal.WithLabelValues(env.Type).Inc()
}

func (e *Engine) reject(kind, code, msg string) *Rejection {
	e.metrics.SharesTotal.WithLabelValues(kind, "rejected").Inc()
	e.metrics.RejectionsTotal.WithLabelValues(code).Inc()
	e.log.Info("share.reject", "kind", kind, "code", code)
	return &Rejection{Code: code, Message: msg}
}

// ---- contract conversion ----

func textPayload(rec TextShare) v1.TextSharePayload {
	return v1.TextSharePayload{
		ID:        rec.ID,
		Content:   rec.Content,
		UserID:    rec.OwnerID,
		UserName:  rec.OwnerName,
		Timestamp: rec.CreatedAt,
	}
}

func filePayload(rec FileShare) v1.FileSharePayload {
	return v1.FileSharePayload{
		ID:        rec.ID,
		FileName:  rec.FileName,
		FileSize:  rec.FileSizeBytes,
		FileType:  rec.MimeType,
		Content:   rec.Payload,
		UserID:    rec.OwnerID,
		UserName:  rec.OwnerName,
		Timestamp: rec.CreatedAt,
	}
}

// newEnvelope wraps a payload value into the canonical wire envelope.
func newEnvelope(typ string, payload any, ts time.Time) v1.Envelope {
	b, _ := json.Marshal(payload)
	return v1.Envelope{
		V:       v1.Version,
		Type:    typ,
		ID:      NewEnvelopeID(ts),
		TS:      ts,
		Payload: b,
	}
}
